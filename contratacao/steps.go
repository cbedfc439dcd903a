package contratacao

import (
	"context"
	"fmt"
	"time"

	"github.com/go-seguros/sagabus/log"
	"github.com/go-seguros/sagabus/pubsub/endpoint"
	"github.com/go-seguros/sagabus/pubsub/message"
	"github.com/go-seguros/sagabus/runtime/scheme"
	"github.com/go-seguros/sagabus/saga"
)

// fail records the message on the payload so the compensating failure event can
// carry it, then reports the step as failed
func fail(data *ContratarPropostaData, errorMessage string) saga.StepResult {
	data.ErrorMessage = errorMessage
	return saga.StepFailed(errorMessage)
}

// NewValidarPropostaStep loads the proposta from the proposta service
func NewValidarPropostaStep(propostas PropostaClient, logger log.Logger) saga.Step {
	return &validarPropostaStep{propostas: propostas, logger: logger}
}

type validarPropostaStep struct {
	propostas PropostaClient
	logger    log.Logger
}

func (s *validarPropostaStep) Name() string { return "ValidarProposta" }
func (s *validarPropostaStep) Order() int   { return 1 }

func (s *validarPropostaStep) Execute(ctx context.Context, payload scheme.Object) saga.StepResult {
	data := payload.(*ContratarPropostaData)

	s.logger.Logf(log.InfoLevel, "validando proposta %s", data.PropostaID)

	proposta, err := s.propostas.ObterProposta(ctx, data.PropostaID)
	if err != nil {
		s.logger.Logf(log.ErrorLevel, "erro ao validar proposta %s. %s", data.PropostaID, err)
		data.ErrorMessage = fmt.Sprintf("Erro ao validar proposta: %s", err)
		return saga.StepFailedErr(err)
	}

	if proposta == nil {
		s.logger.Logf(log.WarnLevel, "proposta %s não encontrada", data.PropostaID)
		return fail(data, "Proposta não encontrada")
	}

	data.Proposta = proposta

	return saga.StepSuccess()
}

func (s *validarPropostaStep) Compensate(ctx context.Context, payload scheme.Object) saga.StepResult {
	// nothing to undo, the step only reads
	return saga.StepSuccess()
}

// NewVerificarDisponibilidadeStep checks the proposta is approved and was not
// contracted before
func NewVerificarDisponibilidadeStep(contratacoes ContratacaoRepository, logger log.Logger) saga.Step {
	return &verificarDisponibilidadeStep{contratacoes: contratacoes, logger: logger}
}

type verificarDisponibilidadeStep struct {
	contratacoes ContratacaoRepository
	logger       log.Logger
}

func (s *verificarDisponibilidadeStep) Name() string { return "VerificarDisponibilidade" }
func (s *verificarDisponibilidadeStep) Order() int   { return 2 }

func (s *verificarDisponibilidadeStep) Execute(ctx context.Context, payload scheme.Object) saga.StepResult {
	data := payload.(*ContratarPropostaData)

	s.logger.Logf(log.InfoLevel, "verificando disponibilidade da proposta %s", data.PropostaID)

	if data.Proposta == nil {
		return fail(data, "Proposta não foi carregada na etapa anterior")
	}

	if data.Proposta.Status != StatusPropostaAprovada {
		s.logger.Logf(log.WarnLevel, "proposta %s não está aprovada, status atual: %s", data.PropostaID, data.Proposta.Status)
		return fail(data, "Apenas propostas aprovadas podem ser contratadas")
	}

	existente, err := s.contratacoes.GetByPropostaID(ctx, data.PropostaID)
	if err != nil {
		data.ErrorMessage = fmt.Sprintf("Erro ao verificar disponibilidade da proposta: %s", err)
		return saga.StepFailedErr(err)
	}

	if existente != nil {
		s.logger.Logf(log.WarnLevel, "proposta %s já foi contratada", data.PropostaID)
		return fail(data, "Proposta já foi contratada anteriormente")
	}

	return saga.StepSuccess()
}

func (s *verificarDisponibilidadeStep) Compensate(ctx context.Context, payload scheme.Object) saga.StepResult {
	return saga.StepSuccess()
}

// NewCriarContratacaoStep creates the contratacao record. Its compensation
// removes the record again.
func NewCriarContratacaoStep(contratacoes ContratacaoRepository, logger log.Logger) saga.Step {
	return &criarContratacaoStep{contratacoes: contratacoes, logger: logger}
}

type criarContratacaoStep struct {
	contratacoes ContratacaoRepository
	logger       log.Logger
}

func (s *criarContratacaoStep) Name() string { return "CriarContratacao" }
func (s *criarContratacaoStep) Order() int   { return 3 }

func (s *criarContratacaoStep) Execute(ctx context.Context, payload scheme.Object) saga.StepResult {
	data := payload.(*ContratarPropostaData)

	s.logger.Logf(log.InfoLevel, "criando contratação para proposta %s", data.PropostaID)

	if data.Proposta == nil {
		return fail(data, "Proposta não foi carregada nas etapas anteriores")
	}

	contratacao, err := NewContratacao(data.Proposta)
	if err != nil {
		return fail(data, fmt.Sprintf("Erro ao criar contratação: %s", err))
	}

	if err := s.contratacoes.Add(ctx, contratacao); err != nil {
		data.ErrorMessage = fmt.Sprintf("Erro ao criar contratação: %s", err)
		return saga.StepFailedErr(err)
	}

	data.Contratacao = contratacao

	s.logger.Logf(log.InfoLevel, "contratação %s criada com sucesso para proposta %s", contratacao.ID, data.PropostaID)

	return saga.StepSuccess()
}

func (s *criarContratacaoStep) Compensate(ctx context.Context, payload scheme.Object) saga.StepResult {
	data := payload.(*ContratarPropostaData)

	if data.Contratacao == nil {
		return saga.StepSuccess()
	}

	s.logger.Logf(log.InfoLevel, "compensando criação de contratação para proposta %s", data.PropostaID)

	if err := s.contratacoes.Delete(ctx, data.Contratacao.ID); err != nil {
		return saga.StepFailedErr(err)
	}

	data.Contratacao = nil

	return saga.StepSuccess()
}

// NewPublicarEventoStep publishes the success event. Its compensation publishes
// the failure event instead, so downstream services always hear an outcome.
func NewPublicarEventoStep(publisher endpoint.Publisher, logger log.Logger) saga.Step {
	return &publicarEventoStep{publisher: publisher, logger: logger}
}

type publicarEventoStep struct {
	publisher endpoint.Publisher
	logger    log.Logger
}

func (s *publicarEventoStep) Name() string { return "PublicarEvento" }
func (s *publicarEventoStep) Order() int   { return 4 }

func (s *publicarEventoStep) Execute(ctx context.Context, payload scheme.Object) saga.StepResult {
	data := payload.(*ContratarPropostaData)

	s.logger.Logf(log.InfoLevel, "publicando evento de sucesso para contratação da proposta %s", data.PropostaID)

	if data.Contratacao == nil {
		return fail(data, "Contratação não foi criada nas etapas anteriores")
	}

	evento := &ContratacaoProcessadaEvent{
		ContratacaoID:   data.Contratacao.ID,
		PropostaID:      data.Contratacao.PropostaID,
		NomeCliente:     data.Contratacao.NomeCliente,
		ValorCobertura:  data.Contratacao.ValorCobertura,
		ValorPremio:     data.Contratacao.ValorPremio,
		DataContratacao: data.Contratacao.DataContratacao,
		Sucesso:         true,
	}

	if err := s.publisher.Publish(ctx, message.NewEventMessage(KindContratacaoProcessada, evento)); err != nil {
		data.ErrorMessage = fmt.Sprintf("Erro ao publicar evento de sucesso: %s", err)
		return saga.StepFailedErr(err)
	}

	return saga.StepSuccess()
}

func (s *publicarEventoStep) Compensate(ctx context.Context, payload scheme.Object) saga.StepResult {
	data := payload.(*ContratarPropostaData)

	s.logger.Logf(log.InfoLevel, "publicando evento de falha para compensação da proposta %s", data.PropostaID)

	mensagemErro := data.ErrorMessage
	if mensagemErro == "" {
		mensagemErro = "Erro durante o processamento da contratação"
	}

	evento := &ContratacaoProcessadaEvent{
		PropostaID:      data.PropostaID,
		DataContratacao: time.Now().UTC(),
		Sucesso:         false,
		MensagemErro:    mensagemErro,
	}

	if data.Proposta != nil {
		evento.NomeCliente = data.Proposta.NomeCliente
		evento.ValorCobertura = data.Proposta.ValorCobertura
		evento.ValorPremio = data.Proposta.ValorPremio
	}

	if err := s.publisher.Publish(ctx, message.NewEventMessage(KindContratacaoProcessada, evento)); err != nil {
		return saga.StepFailedErr(err)
	}

	return saga.StepSuccess()
}
