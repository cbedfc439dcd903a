package suite

import (
	"database/sql"
	"os"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	_ "github.com/go-sql-driver/mysql"
)

// MysqlSuite connects to the MySQL instance pointed at by MYSQL_CONNECTION.
// Tests embedding it are skipped when the variable isn't set.
type MysqlSuite struct {
	suite.Suite
	dbConn *sql.DB
}

func (s *MysqlSuite) SetupSuite() {
	connectionStr := os.Getenv("MYSQL_CONNECTION")
	if connectionStr == "" {
		s.T().Skip("MYSQL_CONNECTION is not set")
	}

	var err error
	s.dbConn, err = sql.Open("mysql", connectionStr)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.dbConn.Ping())
}

func (s *MysqlSuite) Connection() *sql.DB {
	return s.dbConn
}

func (s *MysqlSuite) TearDownSuite() {
	if s.dbConn == nil {
		return
	}

	_, err := s.dbConn.Exec("DROP TABLE IF EXISTS saga_instances;")
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.dbConn.Close())
}
