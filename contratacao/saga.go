package contratacao

import (
	"github.com/go-seguros/sagabus/log"
	"github.com/go-seguros/sagabus/pubsub/endpoint"
	"github.com/go-seguros/sagabus/saga"
)

// SagaType identifies the contratacao saga in the orchestrator and in the store
const SagaType = "ContratarProposta"

// NewSagaDefinition builds the contratacao saga: validate the proposta, check
// it can be contracted, create the contratacao and announce the outcome.
func NewSagaDefinition(propostas PropostaClient, contratacoes ContratacaoRepository, publisher endpoint.Publisher, logger log.Logger) (*saga.Definition, error) {
	return saga.NewDefinition(SagaType, &ContratarPropostaData{},
		NewValidarPropostaStep(propostas, logger),
		NewVerificarDisponibilidadeStep(contratacoes, logger),
		NewCriarContratacaoStep(contratacoes, logger),
		NewPublicarEventoStep(publisher, logger),
	)
}
