package saga

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	MYSQLDriver SQLDriver = "mysql"
	PGDriver    SQLDriver = "pg"

	instancesTableName = "saga_instances"
)

type SQLDriver string

// NewSQLStore creates a Store on top of mysql or postgres.
// driver param is required because of https://github.com/golang/go/issues/3602. Better this than +1 dependency or copy pasting code
func NewSQLStore(db *sql.DB, driver SQLDriver) (Store, error) {
	s := &sqlStore{db: db, driver: driver}

	if err := s.initTables(); err != nil {
		return nil, errors.Wrapf(err, "initializing tables for SQLStore, driver %s", driver)
	}

	return s, nil
}

type sqlStore struct {
	db     *sql.DB
	driver SQLDriver
}

func (s *sqlStore) Save(ctx context.Context, instance *Instance) error {
	now := time.Now()
	instance.CreatedAt = now
	instance.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "beginning a transaction for saga %s", instance.UID)
	}

	_, err = tx.ExecContext(ctx, s.prepQuery(fmt.Sprintf("INSERT INTO %v (uid, saga_type, status, current_step, last_completed_step, payload, error_message, correlation_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);", instancesTableName)),
		instance.UID,
		instance.SagaType,
		instance.Status.String(),
		instance.CurrentStep,
		instance.LastCompletedStep,
		instance.Payload,
		instance.ErrorMessage,
		instance.CorrelationID,
		instance.CreatedAt,
		instance.UpdatedAt,
	)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Wrapf(rErr, "rollback when %s", err)
		}
		return errors.Wrapf(err, "inserting saga instance %s", instance.UID)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "committing saga instance %s into the store", instance.UID)
	}

	return nil
}

func (s *sqlStore) Update(ctx context.Context, instance *Instance) error {
	instance.UpdatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "beginning a transaction for saga %s", instance.UID)
	}

	res, err := tx.ExecContext(ctx, s.prepQuery(fmt.Sprintf("UPDATE %v SET status=?, current_step=?, last_completed_step=?, payload=?, error_message=?, updated_at=? WHERE uid=?;", instancesTableName)),
		instance.Status.String(),
		instance.CurrentStep,
		instance.LastCompletedStep,
		instance.Payload,
		instance.ErrorMessage,
		instance.UpdatedAt,
		instance.UID,
	)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Wrapf(rErr, "rollback when %s", err)
		}
		return errors.Wrapf(err, "updating saga instance %s", instance.UID)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Wrapf(rErr, "rollback when saga %s does not exist", instance.UID)
		}
		return errors.Errorf("saga instance %s does not exist", instance.UID)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "committing update of saga instance %s", instance.UID)
	}

	return nil
}

func (s *sqlStore) GetByID(ctx context.Context, uid string) (*Instance, error) {
	row := s.db.QueryRowContext(ctx, s.prepQuery(fmt.Sprintf("SELECT uid, saga_type, status, current_step, last_completed_step, payload, error_message, correlation_id, created_at, updated_at FROM %v WHERE uid=?;", instancesTableName)), uid)

	instance, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "querying saga instance %s", uid)
	}

	return instance, nil
}

func (s *sqlStore) GetByCorrelationID(ctx context.Context, correlationID string) ([]*Instance, error) {
	return s.query(ctx, s.prepQuery(fmt.Sprintf("SELECT uid, saga_type, status, current_step, last_completed_step, payload, error_message, correlation_id, created_at, updated_at FROM %v WHERE correlation_id=? ORDER BY created_at;", instancesTableName)), correlationID)
}

func (s *sqlStore) GetByStatus(ctx context.Context, status Status) ([]*Instance, error) {
	return s.query(ctx, s.prepQuery(fmt.Sprintf("SELECT uid, saga_type, status, current_step, last_completed_step, payload, error_message, correlation_id, created_at, updated_at FROM %v WHERE status=? ORDER BY created_at;", instancesTableName)), status.String())
}

func (s *sqlStore) Delete(ctx context.Context, uid string) error {
	res, err := s.db.ExecContext(ctx, s.prepQuery(fmt.Sprintf("DELETE FROM %v WHERE uid=?;", instancesTableName)), uid)
	if err != nil {
		return errors.Wrapf(err, "executing delete query for saga %s", uid)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "getting response of delete query for saga %s", uid)
	}

	if rows > 0 {
		return nil
	}

	return errors.Errorf("no saga instance %s found", uid)
}

func (s *sqlStore) query(ctx context.Context, query string, args ...interface{}) ([]*Instance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying saga instances")
	}

	defer rows.Close()

	res := make([]*Instance, 0)

	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning saga instance")
		}

		res = append(res, instance)
	}

	if rows.Err() != nil {
		return nil, errors.WithStack(rows.Err())
	}

	return res, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanInstance(row scannable) (*Instance, error) {
	var (
		model struct {
			uid               string
			sagaType          string
			status            string
			currentStep       int
			lastCompletedStep int
			payload           []byte
			errorMessage      sql.NullString
			correlationID     sql.NullString
			createdAt         sql.NullTime
			updatedAt         sql.NullTime
		}
	)

	if err := row.Scan(
		&model.uid,
		&model.sagaType,
		&model.status,
		&model.currentStep,
		&model.lastCompletedStep,
		&model.payload,
		&model.errorMessage,
		&model.correlationID,
		&model.createdAt,
		&model.updatedAt,
	); err != nil {
		return nil, err
	}

	status, err := statusFromStr(model.status)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing status of %s", model.uid)
	}

	return &Instance{
		UID:               model.uid,
		SagaType:          model.sagaType,
		Status:            status,
		CurrentStep:       model.currentStep,
		LastCompletedStep: model.lastCompletedStep,
		Payload:           model.payload,
		ErrorMessage:      model.errorMessage.String,
		CorrelationID:     model.correlationID.String,
		CreatedAt:         model.createdAt.Time,
		UpdatedAt:         model.updatedAt.Time,
	}, nil
}

func (s *sqlStore) initTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`create table if not exists %v
	(
		uid varchar(255) not null primary key,
		saga_type varchar(255) not null,
		status varchar(255) not null,
		current_step int not null,
		last_completed_step int not null,
		payload text null,
		error_message text null,
		correlation_id varchar(255) null,
		created_at timestamp null,
		updated_at timestamp null
	);`, instancesTableName))

	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// prepQuery replaces wildcard params to specific driver. Standard wildcard is '?'
func (s *sqlStore) prepQuery(query string) string {
	if s.driver != PGDriver {
		return query
	}

	var res []byte

	counter := 1

	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			res = append(append(res, '$'), []byte(strconv.Itoa(counter))...)
			counter++

			continue
		}
		res = append(res, query[i])
	}

	return string(res)
}
