package saga_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-seguros/sagabus/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLStore(t *testing.T, driver saga.SQLDriver) (saga.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("create table if not exists saga_instances").WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := saga.NewSQLStore(db, driver)
	require.NoError(t, err)

	return store, mock
}

func instanceColumns() []string {
	return []string{"uid", "saga_type", "status", "current_step", "last_completed_step", "payload", "error_message", "correlation_id", "created_at", "updated_at"}
}

func TestSQLStoreSave(t *testing.T) {
	store, mock := newSQLStore(t, saga.MYSQLDriver)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO saga_instances")).
		WithArgs("uid-1", "booking", "running", 0, -1, []byte(`{}`), "", "order-42", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	instance := saga.NewInstance("uid-1", "booking", "order-42")
	instance.Payload = []byte(`{}`)
	instance.UpdateStatus(saga.StatusRunning, "")

	require.NoError(t, store.Save(context.Background(), instance))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreGetByID(t *testing.T) {
	store, mock := newSQLStore(t, saga.MYSQLDriver)

	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT uid, saga_type, status, current_step, last_completed_step, payload, error_message, correlation_id, created_at, updated_at FROM saga_instances WHERE uid=?")).
		WithArgs("uid-1").
		WillReturnRows(sqlmock.NewRows(instanceColumns()).
			AddRow("uid-1", "booking", "failed", 0, -1, []byte(`{"trace":["exec:reserve"]}`), "smtp is down", "order-42", now, now))

	instance, err := store.GetByID(context.Background(), "uid-1")
	require.NoError(t, err)
	require.NotNil(t, instance)

	assert.Equal(t, saga.StatusFailed, instance.Status)
	assert.Equal(t, -1, instance.LastCompletedStep)
	assert.Equal(t, "smtp is down", instance.ErrorMessage)

	payload := &bookingData{}
	require.NoError(t, instance.PayloadInto(payload))
	assert.Equal(t, []string{"exec:reserve"}, payload.Trace)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreGetByIDMiss(t *testing.T) {
	store, mock := newSQLStore(t, saga.MYSQLDriver)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT uid, saga_type, status, current_step, last_completed_step, payload, error_message, correlation_id, created_at, updated_at FROM saga_instances WHERE uid=?")).
		WithArgs("no-such-saga").
		WillReturnError(sql.ErrNoRows)

	instance, err := store.GetByID(context.Background(), "no-such-saga")
	require.NoError(t, err)
	assert.Nil(t, instance)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreUpdateOfMissingInstance(t *testing.T) {
	store, mock := newSQLStore(t, saga.MYSQLDriver)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE saga_instances SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	instance := saga.NewInstance("no-such-saga", "booking", "")
	err := store.Update(context.Background(), instance)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreGetByStatus(t *testing.T) {
	store, mock := newSQLStore(t, saga.MYSQLDriver)

	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM saga_instances WHERE status=?")).
		WithArgs("compensation_failed").
		WillReturnRows(sqlmock.NewRows(instanceColumns()).
			AddRow("uid-1", "booking", "compensation_failed", 1, 1, []byte(`{}`), "stuck", "order-42", now, now).
			AddRow("uid-2", "booking", "compensation_failed", 2, 2, []byte(`{}`), "stuck too", "order-43", now, now))

	instances, err := store.GetByStatus(context.Background(), saga.StatusCompensationFailed)
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, "uid-2", instances[1].UID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorePGPlaceholders(t *testing.T) {
	store, mock := newSQLStore(t, saga.PGDriver)

	mock.ExpectQuery(regexp.QuoteMeta("FROM saga_instances WHERE uid=$1")).
		WithArgs("uid-1").
		WillReturnError(sql.ErrNoRows)

	instance, err := store.GetByID(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Nil(t, instance)

	require.NoError(t, mock.ExpectationsWereMet())
}
