package contratacao

import (
	"time"

	"github.com/go-seguros/sagabus/runtime/scheme"
)

// Kinds the contratacao flow exchanges over the bus
const (
	KindContratarProposta      = "ContratarProposta"
	KindContratacaoProcessada  = "ContratacaoProcessada"
	KindPropostaStatusAlterada = "PropostaStatusAlterada"
)

// ContratarPropostaCommand asks this service to contract an approved proposta
type ContratarPropostaCommand struct {
	PropostaID string `json:"propostaId"`
}

// ContratacaoProcessadaEvent reports the outcome of a contratacao attempt.
// Sucesso false carries the failure reason in MensagemErro.
type ContratacaoProcessadaEvent struct {
	ContratacaoID   string    `json:"contratacaoId"`
	PropostaID      string    `json:"propostaId"`
	NomeCliente     string    `json:"nomeCliente"`
	ValorCobertura  float64   `json:"valorCobertura"`
	ValorPremio     float64   `json:"valorPremio"`
	DataContratacao time.Time `json:"dataContratacao"`
	Sucesso         bool      `json:"sucesso"`
	MensagemErro    string    `json:"mensagemErro,omitempty"`
}

// PropostaStatusAlteradaEvent is published by the proposta service whenever a
// proposta changes status
type PropostaStatusAlteradaEvent struct {
	PropostaID     string  `json:"propostaId"`
	NomeCliente    string  `json:"nomeCliente"`
	StatusAnterior int     `json:"statusAnterior"`
	NovoStatus     int     `json:"novoStatus"`
	ValorCobertura float64 `json:"valorCobertura"`
	ValorPremio    float64 `json:"valorPremio"`
}

// RegisterTypes makes the contratacao message kinds known to the marshaller
func RegisterTypes(registry scheme.KnownTypesRegistry) {
	registry.RegisterTypeWithKind(KindContratarProposta, &ContratarPropostaCommand{})
	registry.RegisterTypeWithKind(KindContratacaoProcessada, &ContratacaoProcessadaEvent{})
	registry.RegisterTypeWithKind(KindPropostaStatusAlterada, &PropostaStatusAlteradaEvent{})
}
