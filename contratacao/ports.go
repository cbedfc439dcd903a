package contratacao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../testing/mocks/contratacao/ports.go -package contratacao . PropostaClient,ContratacaoRepository

const (
	StatusPropostaEmAnalise StatusProposta = 0
	StatusPropostaAprovada  StatusProposta = 1
	StatusPropostaRejeitada StatusProposta = 2
)

type StatusProposta int

func (s StatusProposta) String() string {
	switch s {
	case StatusPropostaEmAnalise:
		return "Em Análise"
	case StatusPropostaAprovada:
		return "Aprovada"
	case StatusPropostaRejeitada:
		return "Rejeitada"
	default:
		return "Desconhecido"
	}
}

// Proposta is the proposta service's view of an insurance proposal
type Proposta struct {
	ID             string         `json:"id"`
	NomeCliente    string         `json:"nomeCliente"`
	TipoCliente    int            `json:"tipoCliente"`
	TipoSeguro     int            `json:"tipoSeguro"`
	ValorCobertura float64        `json:"valorCobertura"`
	ValorPremio    float64        `json:"valorPremio"`
	Status         StatusProposta `json:"status"`
	DataCriacao    time.Time      `json:"dataCriacao"`
}

// PropostaClient fetches propostas from the proposta service.
// ObterProposta returns nil, nil when the proposta doesn't exist.
type PropostaClient interface {
	ObterProposta(ctx context.Context, propostaID string) (*Proposta, error)
}

// Contratacao is a contracted proposta
type Contratacao struct {
	ID              string    `json:"id"`
	PropostaID      string    `json:"propostaId"`
	NomeCliente     string    `json:"nomeCliente"`
	ValorCobertura  float64   `json:"valorCobertura"`
	ValorPremio     float64   `json:"valorPremio"`
	DataContratacao time.Time `json:"dataContratacao"`
}

func NewContratacao(proposta *Proposta) (*Contratacao, error) {
	if proposta.ID == "" {
		return nil, errors.New("ID da proposta é obrigatório")
	}

	if proposta.NomeCliente == "" {
		return nil, errors.New("Nome do cliente é obrigatório")
	}

	if proposta.ValorCobertura <= 0 {
		return nil, errors.New("Valor de cobertura deve ser maior que zero")
	}

	if proposta.ValorPremio <= 0 {
		return nil, errors.New("Valor do prêmio deve ser maior que zero")
	}

	return &Contratacao{
		ID:              uuid.New().String(),
		PropostaID:      proposta.ID,
		NomeCliente:     proposta.NomeCliente,
		ValorCobertura:  proposta.ValorCobertura,
		ValorPremio:     proposta.ValorPremio,
		DataContratacao: time.Now().UTC(),
	}, nil
}

// ContratacaoRepository persists contratacoes. GetByPropostaID returns nil, nil
// when the proposta was never contracted.
type ContratacaoRepository interface {
	Add(ctx context.Context, contratacao *Contratacao) error
	GetByPropostaID(ctx context.Context, propostaID string) (*Contratacao, error)
	Delete(ctx context.Context, contratacaoID string) error
}
