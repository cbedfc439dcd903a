package saga_test

import (
	"context"
	"testing"

	"github.com/go-seguros/sagabus/saga"
	testLog "github.com/go-seguros/sagabus/testing/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingOrchestrator(t *testing.T, store saga.Store, steps ...saga.Step) saga.Orchestrator {
	t.Helper()

	definition, err := saga.NewDefinition("booking", &bookingData{}, steps...)
	require.NoError(t, err)

	orchestrator := saga.NewOrchestrator(store, testLog.NewTestLogger())
	require.NoError(t, orchestrator.RegisterDefinition(definition))

	return orchestrator
}

func TestOrchestratorCompletesSaga(t *testing.T) {
	ctx := context.Background()
	store := saga.NewInMemoryStore()
	orchestrator := newBookingOrchestrator(t, store,
		&recordingStep{name: "reserve", order: 1},
		&recordingStep{name: "charge", order: 2},
	)

	result, err := orchestrator.StartSaga(ctx, "booking", &bookingData{}, saga.WithCorrelationID("order-42"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, saga.StatusCompleted, result.Status)
	assert.Equal(t, 1, result.LastCompletedStep)

	instances, err := store.GetByCorrelationID(ctx, "order-42")
	require.NoError(t, err)
	require.Len(t, instances, 1)

	instance := instances[0]
	assert.Equal(t, saga.StatusCompleted, instance.Status)
	assert.Equal(t, 1, instance.LastCompletedStep)

	payload := &bookingData{}
	require.NoError(t, instance.PayloadInto(payload))
	assert.Equal(t, []string{"exec:reserve", "exec:charge"}, payload.Trace)
}

func TestOrchestratorRecordsFailedSaga(t *testing.T) {
	ctx := context.Background()
	store := saga.NewInMemoryStore()
	orchestrator := newBookingOrchestrator(t, store,
		&recordingStep{name: "reserve", order: 1},
		&recordingStep{name: "charge", order: 2, failExec: true, execMessage: "card declined"},
	)

	result, err := orchestrator.StartSaga(ctx, "booking", &bookingData{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, saga.StatusFailed, result.Status)
	assert.Equal(t, "card declined", result.ErrorMessage)
	assert.Equal(t, 0, result.LastCompletedStep)

	instances, err := store.GetByStatus(ctx, saga.StatusFailed)
	require.NoError(t, err)
	require.Len(t, instances, 1)

	instance := instances[0]
	assert.Equal(t, "card declined", instance.ErrorMessage)
	// everything was rolled back, the recovery cursor must reflect that
	assert.Equal(t, -1, instance.LastCompletedStep)

	payload := &bookingData{}
	require.NoError(t, instance.PayloadInto(payload))
	assert.Equal(t, []string{"exec:reserve", "exec:charge", "comp:reserve"}, payload.Trace)
}

func TestOrchestratorRecordsStuckCompensation(t *testing.T) {
	ctx := context.Background()
	store := saga.NewInMemoryStore()
	orchestrator := newBookingOrchestrator(t, store,
		&recordingStep{name: "reserve", order: 1, failComp: true},
		&recordingStep{name: "charge", order: 2, failExec: true},
	)

	result, err := orchestrator.StartSaga(ctx, "booking", &bookingData{})
	require.NoError(t, err)

	assert.Equal(t, saga.StatusCompensationFailed, result.Status)

	instances, err := store.GetByStatus(ctx, saga.StatusCompensationFailed)
	require.NoError(t, err)
	require.Len(t, instances, 1)

	// reserve is still waiting to be compensated
	assert.Equal(t, 0, instances[0].LastCompletedStep)
}

func TestOrchestratorResumesFromPersistedCursor(t *testing.T) {
	ctx := context.Background()
	store := saga.NewInMemoryStore()
	orchestrator := newBookingOrchestrator(t, store,
		&recordingStep{name: "reserve", order: 1},
		&recordingStep{name: "charge", order: 2},
		&recordingStep{name: "notify", order: 3},
	)

	// an instance interrupted after its second step
	instance := saga.NewInstance("uid-1", "booking", "order-42")
	instance.UpdateStatus(saga.StatusRunning, "")
	instance.AdvanceStep(1)
	require.NoError(t, instance.SetPayload(&bookingData{Trace: []string{"exec:reserve", "exec:charge"}}))
	require.NoError(t, store.Save(ctx, instance))

	result, err := orchestrator.ResumeSaga(ctx, "uid-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, saga.StatusCompleted, result.Status)

	loaded, err := orchestrator.GetSaga(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, saga.StatusCompleted, loaded.Status)

	payload := &bookingData{}
	require.NoError(t, loaded.PayloadInto(payload))
	// completed steps must not run again
	assert.Equal(t, []string{"exec:reserve", "exec:charge", "exec:notify"}, payload.Trace)
}

func TestOrchestratorResumesInterruptedCompensation(t *testing.T) {
	ctx := context.Background()
	store := saga.NewInMemoryStore()
	orchestrator := newBookingOrchestrator(t, store,
		&recordingStep{name: "reserve", order: 1},
		&recordingStep{name: "charge", order: 2},
	)

	instance := saga.NewInstance("uid-1", "booking", "order-42")
	instance.UpdateStatus(saga.StatusCompensating, "card declined")
	instance.AdvanceStep(1)
	require.NoError(t, instance.SetPayload(&bookingData{}))
	require.NoError(t, store.Save(ctx, instance))

	result, err := orchestrator.ResumeSaga(ctx, "uid-1")
	require.NoError(t, err)

	assert.Equal(t, saga.StatusCompensated, result.Status)

	loaded, err := orchestrator.GetSaga(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, saga.StatusCompensated, loaded.Status)
	assert.Equal(t, -1, loaded.LastCompletedStep)

	payload := &bookingData{}
	require.NoError(t, loaded.PayloadInto(payload))
	assert.Equal(t, []string{"comp:charge", "comp:reserve"}, payload.Trace)
}

func TestOrchestratorResumeOfUnknownSaga(t *testing.T) {
	store := saga.NewInMemoryStore()
	orchestrator := newBookingOrchestrator(t, store, &recordingStep{name: "reserve", order: 1})

	_, err := orchestrator.ResumeSaga(context.Background(), "no-such-saga")
	require.Error(t, err)
	assert.True(t, errors.Is(err, saga.ErrInstanceNotFound))
}

func TestOrchestratorResumeOfTerminalSaga(t *testing.T) {
	ctx := context.Background()
	store := saga.NewInMemoryStore()
	orchestrator := newBookingOrchestrator(t, store, &recordingStep{name: "reserve", order: 1})

	instance := saga.NewInstance("uid-1", "booking", "")
	instance.UpdateStatus(saga.StatusCompleted, "")
	require.NoError(t, store.Save(ctx, instance))

	_, err := orchestrator.ResumeSaga(ctx, "uid-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal status")
}

func TestOrchestratorCompensatesSagaOnDemand(t *testing.T) {
	ctx := context.Background()
	store := saga.NewInMemoryStore()
	orchestrator := newBookingOrchestrator(t, store,
		&recordingStep{name: "reserve", order: 1},
		&recordingStep{name: "charge", order: 2},
	)

	instance := saga.NewInstance("uid-1", "booking", "order-42")
	instance.UpdateStatus(saga.StatusRunning, "")
	instance.AdvanceStep(0)
	require.NoError(t, instance.SetPayload(&bookingData{}))
	require.NoError(t, store.Save(ctx, instance))

	result, err := orchestrator.CompensateSaga(ctx, "uid-1")
	require.NoError(t, err)

	assert.Equal(t, saga.StatusCompensated, result.Status)

	loaded, err := orchestrator.GetSaga(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, saga.StatusCompensated, loaded.Status)

	payload := &bookingData{}
	require.NoError(t, loaded.PayloadInto(payload))
	// only the persisted completed step gets compensated
	assert.Equal(t, []string{"comp:reserve"}, payload.Trace)
}

func TestOrchestratorRejectsUnknownSagaType(t *testing.T) {
	store := saga.NewInMemoryStore()
	orchestrator := saga.NewOrchestrator(store, testLog.NewTestLogger())

	_, err := orchestrator.StartSaga(context.Background(), "booking", &bookingData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no definition registered")
}

func TestOrchestratorRejectsDoubleRegistration(t *testing.T) {
	definition, err := saga.NewDefinition("booking", &bookingData{}, &recordingStep{name: "reserve", order: 1})
	require.NoError(t, err)

	orchestrator := saga.NewOrchestrator(saga.NewInMemoryStore(), testLog.NewTestLogger())
	require.NoError(t, orchestrator.RegisterDefinition(definition))
	require.Error(t, orchestrator.RegisterDefinition(definition))
}
