package suite

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	_ "github.com/jackc/pgx/v4/stdlib"
)

// PgSuite connects to the PostgreSQL instance pointed at by PG_CONNECTION.
// Tests embedding it are skipped when the variable isn't set.
type PgSuite struct {
	suite.Suite
	dbConn *sql.DB
}

func (s *PgSuite) SetupSuite() {
	connectionStr := os.Getenv("PG_CONNECTION")
	if connectionStr == "" {
		s.T().Skip("PG_CONNECTION is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	var err error
	s.dbConn, err = sql.Open("pgx", connectionStr)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.dbConn.PingContext(ctx))
}

func (s *PgSuite) Connection() *sql.DB {
	return s.dbConn
}

func (s *PgSuite) TearDownSuite() {
	if s.dbConn == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	_, err := s.dbConn.ExecContext(ctx, "DROP TABLE IF EXISTS saga_instances;")
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.dbConn.Close())
}
