package contratacao_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-seguros/sagabus/contratacao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPPropostaClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/propostas/prop-1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"prop-1","nomeCliente":"Maria Silva","valorCobertura":100000,"valorPremio":1500,"status":1}`))
		case "/api/propostas/prop-404":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := contratacao.NewHTTPPropostaClient(server.URL)

	t.Run("found", func(t *testing.T) {
		proposta, err := client.ObterProposta(context.Background(), "prop-1")
		require.NoError(t, err)
		require.NotNil(t, proposta)

		assert.Equal(t, "Maria Silva", proposta.NomeCliente)
		assert.Equal(t, contratacao.StatusPropostaAprovada, proposta.Status)
		assert.Equal(t, float64(100000), proposta.ValorCobertura)
	})

	t.Run("not found returns nil without error", func(t *testing.T) {
		proposta, err := client.ObterProposta(context.Background(), "prop-404")
		require.NoError(t, err)
		assert.Nil(t, proposta)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := client.ObterProposta(context.Background(), "prop-500")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := client.ObterProposta(context.Background(), "")
		require.Error(t, err)
	})
}

func TestInMemoryContratacaoRepository(t *testing.T) {
	ctx := context.Background()
	repo := contratacao.NewInMemoryContratacaoRepository()

	criada, err := contratacao.NewContratacao(propostaAprovada())
	require.NoError(t, err)

	require.NoError(t, repo.Add(ctx, criada))

	t.Run("same proposta can't be contracted twice", func(t *testing.T) {
		outra, err := contratacao.NewContratacao(propostaAprovada())
		require.NoError(t, err)

		err = repo.Add(ctx, outra)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "já foi contratada")
	})

	t.Run("lookup by proposta", func(t *testing.T) {
		found, err := repo.GetByPropostaID(ctx, "prop-1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, criada.ID, found.ID)

		missing, err := repo.GetByPropostaID(ctx, "prop-999")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, criada.ID))

		missing, err := repo.GetByPropostaID(ctx, "prop-1")
		require.NoError(t, err)
		assert.Nil(t, missing)

		require.Error(t, repo.Delete(ctx, criada.ID))
	})
}

func TestNewContratacaoValidations(t *testing.T) {
	t.Run("valid proposta", func(t *testing.T) {
		criada, err := contratacao.NewContratacao(propostaAprovada())
		require.NoError(t, err)
		assert.NotEmpty(t, criada.ID)
		assert.Equal(t, "prop-1", criada.PropostaID)
	})

	t.Run("missing client name", func(t *testing.T) {
		proposta := propostaAprovada()
		proposta.NomeCliente = ""

		_, err := contratacao.NewContratacao(proposta)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Nome do cliente")
	})

	t.Run("invalid coverage", func(t *testing.T) {
		proposta := propostaAprovada()
		proposta.ValorCobertura = 0

		_, err := contratacao.NewContratacao(proposta)
		require.Error(t, err)
	})

	t.Run("invalid premium", func(t *testing.T) {
		proposta := propostaAprovada()
		proposta.ValorPremio = -1

		_, err := contratacao.NewContratacao(proposta)
		require.Error(t, err)
	})
}
