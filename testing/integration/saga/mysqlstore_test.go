package saga

import (
	"testing"

	sagaPkg "github.com/go-seguros/sagabus/saga"
	intSuite "github.com/go-seguros/sagabus/testing/integration/saga/suite"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type mysqlStoreTest struct {
	intSuite.MysqlSuite
}

func TestMysqlSuite(t *testing.T) {
	suite.Run(t, &mysqlStoreTest{})
}

func (m *mysqlStoreTest) TestMysqlStore() {
	t := m.T()

	store, err := sagaPkg.NewSQLStore(m.Connection(), sagaPkg.MYSQLDriver)
	require.NoError(t, err)
	require.NotNil(t, store)

	runStoreContract(t, store)
}
