package saga

import (
	"testing"

	sagaPkg "github.com/go-seguros/sagabus/saga"
	intSuite "github.com/go-seguros/sagabus/testing/integration/saga/suite"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type pgStoreTest struct {
	intSuite.PgSuite
}

func TestPgSuite(t *testing.T) {
	suite.Run(t, &pgStoreTest{})
}

func (p *pgStoreTest) TestPgStore() {
	t := p.T()

	store, err := sagaPkg.NewSQLStore(p.Connection(), sagaPkg.PGDriver)
	require.NoError(t, err)
	require.NotNil(t, store)

	runStoreContract(t, store)
}
