package saga

import (
	"context"
	"sync"

	"github.com/go-seguros/sagabus/log"
	"github.com/go-seguros/sagabus/runtime/scheme"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrInstanceNotFound is returned when an operation references a saga instance
// that was never persisted
var ErrInstanceNotFound = errors.New("saga instance not found")

// Orchestrator runs sagas and persists their progress after every step, so an
// interrupted run can be resumed from the last completed step.
type Orchestrator interface {
	// RegisterDefinition makes a saga type runnable. Call it at startup.
	RegisterDefinition(definition *Definition) error
	// StartSaga creates a new instance and runs it to a terminal state
	StartSaga(ctx context.Context, sagaType string, payload scheme.Object, opts ...StartOpt) (Result, error)
	// ResumeSaga picks up an interrupted instance where it left off, skipping
	// steps whose completion was already persisted
	ResumeSaga(ctx context.Context, sagaID string) (Result, error)
	// CompensateSaga rolls back every persisted completed step of an instance
	CompensateSaga(ctx context.Context, sagaID string) (Result, error)
	GetSaga(ctx context.Context, sagaID string) (*Instance, error)
	GetSagasByStatus(ctx context.Context, status Status) ([]*Instance, error)
}

type startOpts struct {
	correlationID string
}

type StartOpt func(o *startOpts)

// WithCorrelationID ties the new instance to a business identifier so it can be
// found later without knowing the saga id
func WithCorrelationID(correlationID string) StartOpt {
	return func(o *startOpts) {
		o.correlationID = correlationID
	}
}

func NewOrchestrator(store Store, logger log.Logger) Orchestrator {
	return &orchestrator{
		store:       store,
		logger:      logger,
		definitions: map[string]*Definition{},
	}
}

type orchestrator struct {
	store  Store
	logger log.Logger

	mu          sync.RWMutex
	definitions map[string]*Definition
}

func (o *orchestrator) RegisterDefinition(definition *Definition) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.definitions[definition.SagaType()]; exists {
		return errors.Errorf("saga %s is already registered", definition.SagaType())
	}

	o.definitions[definition.SagaType()] = definition

	return nil
}

func (o *orchestrator) StartSaga(ctx context.Context, sagaType string, payload scheme.Object, opts ...StartOpt) (Result, error) {
	definition, err := o.definition(sagaType)
	if err != nil {
		return Result{}, err
	}

	sOpts := &startOpts{}
	for _, opt := range opts {
		opt(sOpts)
	}

	instance := NewInstance(uuid.New().String(), sagaType, sOpts.correlationID)

	if instance.CorrelationID == "" {
		instance.CorrelationID = instance.UID
	}

	if err := instance.SetPayload(payload); err != nil {
		return Result{}, err
	}

	instance.UpdateStatus(StatusRunning, "")

	if err := o.store.Save(ctx, instance); err != nil {
		return Result{}, errors.Wrapf(err, "persisting new saga %s of type %s", instance.UID, sagaType)
	}

	o.logger.Logf(log.InfoLevel, "started saga %s of type %s", instance.UID, sagaType)

	return o.run(ctx, definition, instance, payload, 0)
}

func (o *orchestrator) ResumeSaga(ctx context.Context, sagaID string) (Result, error) {
	instance, err := o.instance(ctx, sagaID)
	if err != nil {
		return Result{}, err
	}

	if instance.Status.Terminal() {
		return Result{}, errors.Errorf("saga %s is already in terminal status %s", sagaID, instance.Status)
	}

	definition, err := o.definition(instance.SagaType)
	if err != nil {
		return Result{}, err
	}

	payload := definition.NewPayload()
	if err := instance.PayloadInto(payload); err != nil {
		return Result{}, err
	}

	if instance.Status == StatusCompensating {
		o.logger.Logf(log.InfoLevel, "resuming compensation of saga %s from step %d", instance.UID, instance.LastCompletedStep)
		return o.compensate(ctx, definition, instance, payload)
	}

	fromStep := instance.LastCompletedStep + 1

	o.logger.Logf(log.InfoLevel, "resuming saga %s of type %s from step %d", instance.UID, instance.SagaType, fromStep)

	instance.UpdateStatus(StatusRunning, "")

	if err := o.store.Update(ctx, instance); err != nil {
		return Result{}, errors.Wrapf(err, "persisting resumed saga %s", instance.UID)
	}

	return o.run(ctx, definition, instance, payload, fromStep)
}

func (o *orchestrator) CompensateSaga(ctx context.Context, sagaID string) (Result, error) {
	instance, err := o.instance(ctx, sagaID)
	if err != nil {
		return Result{}, err
	}

	if instance.Status.Terminal() {
		return Result{}, errors.Errorf("saga %s is already in terminal status %s", sagaID, instance.Status)
	}

	definition, err := o.definition(instance.SagaType)
	if err != nil {
		return Result{}, err
	}

	payload := definition.NewPayload()
	if err := instance.PayloadInto(payload); err != nil {
		return Result{}, err
	}

	o.logger.Logf(log.InfoLevel, "compensating saga %s of type %s from step %d", instance.UID, instance.SagaType, instance.LastCompletedStep)

	return o.compensate(ctx, definition, instance, payload)
}

func (o *orchestrator) GetSaga(ctx context.Context, sagaID string) (*Instance, error) {
	return o.instance(ctx, sagaID)
}

func (o *orchestrator) GetSagasByStatus(ctx context.Context, status Status) ([]*Instance, error) {
	instances, err := o.store.GetByStatus(ctx, status)
	if err != nil {
		return nil, errors.Wrapf(err, "querying sagas with status %s", status)
	}

	return instances, nil
}

// run executes the saga forward and persists the terminal state. A failed run
// that compensated successfully ends up Failed with the recovery cursor reset,
// a stuck compensation ends up CompensationFailed with the cursor pointing at
// the step still waiting to be compensated.
func (o *orchestrator) run(ctx context.Context, definition *Definition, instance *Instance, payload scheme.Object, fromStep int) (Result, error) {
	result := definition.Execute(ctx, payload, fromStep, func(stepIndex int) error {
		instance.AdvanceStep(stepIndex)

		if err := instance.SetPayload(payload); err != nil {
			return err
		}

		return o.store.Update(ctx, instance)
	})

	switch result.Status {
	case StatusCompleted:
		instance.UpdateStatus(StatusCompleted, "")
	case StatusFailed:
		instance.LastCompletedStep = -1
		instance.CurrentStep = 0
		instance.UpdateStatus(StatusFailed, result.ErrorMessage)
	case StatusCompensationFailed:
		instance.LastCompletedStep = result.LastCompletedStep
		instance.UpdateStatus(StatusCompensationFailed, result.ErrorMessage)
	}

	if err := instance.SetPayload(payload); err != nil {
		return result, err
	}

	if err := o.store.Update(ctx, instance); err != nil {
		return result, errors.Wrapf(err, "persisting terminal status %s of saga %s", instance.Status, instance.UID)
	}

	o.logger.Logf(log.InfoLevel, "saga %s finished with status %s", instance.UID, instance.Status)

	return result, nil
}

func (o *orchestrator) compensate(ctx context.Context, definition *Definition, instance *Instance, payload scheme.Object) (Result, error) {
	instance.UpdateStatus(StatusCompensating, instance.ErrorMessage)

	if err := o.store.Update(ctx, instance); err != nil {
		return Result{}, errors.Wrapf(err, "persisting compensating status of saga %s", instance.UID)
	}

	result := definition.Compensate(ctx, payload, instance.LastCompletedStep)

	switch result.Status {
	case StatusCompensated:
		instance.LastCompletedStep = -1
		instance.CurrentStep = 0
		instance.UpdateStatus(StatusCompensated, instance.ErrorMessage)
	case StatusCompensationFailed:
		instance.LastCompletedStep = result.LastCompletedStep
		instance.UpdateStatus(StatusCompensationFailed, result.ErrorMessage)
	}

	if err := instance.SetPayload(payload); err != nil {
		return result, err
	}

	if err := o.store.Update(ctx, instance); err != nil {
		return result, errors.Wrapf(err, "persisting terminal status %s of saga %s", instance.Status, instance.UID)
	}

	o.logger.Logf(log.InfoLevel, "saga %s finished with status %s", instance.UID, instance.Status)

	return result, nil
}

func (o *orchestrator) definition(sagaType string) (*Definition, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	definition, exists := o.definitions[sagaType]
	if !exists {
		return nil, errors.Errorf("no definition registered for saga type %s", sagaType)
	}

	return definition, nil
}

func (o *orchestrator) instance(ctx context.Context, sagaID string) (*Instance, error) {
	instance, err := o.store.GetByID(ctx, sagaID)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching saga %s", sagaID)
	}

	if instance == nil {
		return nil, errors.Wrapf(ErrInstanceNotFound, "saga %s", sagaID)
	}

	return instance, nil
}
