package contratacao

import (
	"context"
	"time"

	"github.com/go-seguros/sagabus/log"
	"github.com/go-seguros/sagabus/pubsub/endpoint"
	"github.com/go-seguros/sagabus/pubsub/message"
	"github.com/go-seguros/sagabus/saga"
	"github.com/pkg/errors"
)

// ContratarPropostaHandler starts the contratacao saga for every
// ContratarProposta command. The bus delivers at least once, so the handler
// checks for an existing contratacao before starting another saga.
//
// A business failure still publishes a ContratacaoProcessada event with
// Sucesso false: downstream services always hear an outcome, success or not.
type ContratarPropostaHandler struct {
	orchestrator saga.Orchestrator
	contratacoes ContratacaoRepository
	publisher    endpoint.Publisher
	logger       log.Logger
}

func NewContratarPropostaHandler(orchestrator saga.Orchestrator, contratacoes ContratacaoRepository, publisher endpoint.Publisher, logger log.Logger) *ContratarPropostaHandler {
	return &ContratarPropostaHandler{orchestrator: orchestrator, contratacoes: contratacoes, publisher: publisher, logger: logger}
}

func (h *ContratarPropostaHandler) Handle(ctx context.Context, msg *message.Message) error {
	cmd, ok := msg.Payload.(*ContratarPropostaCommand)
	if !ok {
		return errors.Errorf("message %s is not a ContratarPropostaCommand", msg.UID)
	}

	h.logger.Logf(log.InfoLevel, "iniciando saga de contratação para proposta %s", cmd.PropostaID)

	existente, err := h.contratacoes.GetByPropostaID(ctx, cmd.PropostaID)
	if err != nil {
		return errors.Wrapf(err, "checking existing contratacao for proposta %s", cmd.PropostaID)
	}

	if existente != nil {
		h.logger.Logf(log.InfoLevel, "proposta %s já foi contratada, ignorando comando %s", cmd.PropostaID, msg.UID)
		return nil
	}

	result, err := h.orchestrator.StartSaga(ctx, SagaType,
		&ContratarPropostaData{PropostaID: cmd.PropostaID},
		saga.WithCorrelationID("contratacao-"+cmd.PropostaID),
	)
	if err != nil {
		return errors.Wrapf(err, "starting contratacao saga for proposta %s", cmd.PropostaID)
	}

	if result.Success {
		h.logger.Logf(log.InfoLevel, "saga de contratação concluída com sucesso para proposta %s", cmd.PropostaID)
		return nil
	}

	// business failure, the saga was already compensated
	h.logger.Logf(log.ErrorLevel, "saga de contratação falhou para proposta %s: %s", cmd.PropostaID, result.ErrorMessage)

	evento := &ContratacaoProcessadaEvent{
		PropostaID:      cmd.PropostaID,
		DataContratacao: time.Now().UTC(),
		Sucesso:         false,
		MensagemErro:    result.ErrorMessage,
	}

	if err := h.publisher.Publish(ctx, message.NewEventMessage(KindContratacaoProcessada, evento)); err != nil {
		return errors.Wrapf(err, "publishing failure event for proposta %s", cmd.PropostaID)
	}

	return nil
}

// NotificacaoHandler logs a notification for every outcome event, standing in
// for a real notification channel
type NotificacaoHandler struct {
	logger log.Logger
}

func NewNotificacaoHandler(logger log.Logger) *NotificacaoHandler {
	return &NotificacaoHandler{logger: logger}
}

func (h *NotificacaoHandler) Handle(ctx context.Context, msg *message.Message) error {
	switch evento := msg.Payload.(type) {
	case *PropostaStatusAlteradaEvent:
		h.logger.Logf(log.InfoLevel, "NOTIFICAÇÃO: proposta %s do cliente %s teve status alterado para %s",
			evento.PropostaID, evento.NomeCliente, StatusProposta(evento.NovoStatus))
	case *ContratacaoProcessadaEvent:
		if evento.Sucesso {
			h.logger.Logf(log.InfoLevel, "NOTIFICAÇÃO: contratação %s processada com sucesso para o cliente %s, valor da cobertura: %.2f",
				evento.ContratacaoID, evento.NomeCliente, evento.ValorCobertura)
		} else {
			h.logger.Logf(log.WarnLevel, "NOTIFICAÇÃO: falha no processamento da contratação da proposta %s: %s",
				evento.PropostaID, evento.MensagemErro)
		}
	default:
		return errors.Errorf("message %s has unexpected payload type", msg.UID)
	}

	return nil
}
