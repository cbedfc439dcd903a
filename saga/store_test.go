package saga_test

import (
	"context"
	"testing"

	"github.com/go-seguros/sagabus/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := saga.NewInMemoryStore()

	instance := saga.NewInstance("uid-1", "booking", "order-42")
	require.NoError(t, instance.SetPayload(&bookingData{Trace: []string{"exec:reserve"}}))

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, instance))

		loaded, err := store.GetByID(ctx, "uid-1")
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, "booking", loaded.SagaType)
		assert.Equal(t, saga.StatusNotStarted, loaded.Status)
		assert.Equal(t, -1, loaded.LastCompletedStep)
		assert.False(t, loaded.CreatedAt.IsZero())

		payload := &bookingData{}
		require.NoError(t, loaded.PayloadInto(payload))
		assert.Equal(t, []string{"exec:reserve"}, payload.Trace)
	})

	t.Run("duplicated id is rejected", func(t *testing.T) {
		err := store.Save(ctx, saga.NewInstance("uid-1", "booking", "order-42"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("missing id returns nil without error", func(t *testing.T) {
		loaded, err := store.GetByID(ctx, "no-such-saga")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("update", func(t *testing.T) {
		instance.AdvanceStep(0)
		instance.UpdateStatus(saga.StatusRunning, "")
		require.NoError(t, store.Update(ctx, instance))

		loaded, err := store.GetByID(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, saga.StatusRunning, loaded.Status)
		assert.Equal(t, 0, loaded.LastCompletedStep)
		assert.Equal(t, 1, loaded.CurrentStep)
	})

	t.Run("update of missing instance fails", func(t *testing.T) {
		err := store.Update(ctx, saga.NewInstance("no-such-saga", "booking", ""))
		require.Error(t, err)
	})

	t.Run("loaded instances are copies", func(t *testing.T) {
		loaded, err := store.GetByID(ctx, "uid-1")
		require.NoError(t, err)

		loaded.UpdateStatus(saga.StatusCompleted, "")

		again, err := store.GetByID(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, saga.StatusRunning, again.Status)
	})

	t.Run("get by correlation id", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, saga.NewInstance("uid-2", "booking", "order-42")))

		instances, err := store.GetByCorrelationID(ctx, "order-42")
		require.NoError(t, err)
		assert.Len(t, instances, 2)

		instances, err = store.GetByCorrelationID(ctx, "order-777")
		require.NoError(t, err)
		assert.Empty(t, instances)
	})

	t.Run("get by status", func(t *testing.T) {
		instances, err := store.GetByStatus(ctx, saga.StatusRunning)
		require.NoError(t, err)
		require.Len(t, instances, 1)
		assert.Equal(t, "uid-1", instances[0].UID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "uid-2"))

		loaded, err := store.GetByID(ctx, "uid-2")
		require.NoError(t, err)
		assert.Nil(t, loaded)

		instances, err := store.GetByCorrelationID(ctx, "order-42")
		require.NoError(t, err)
		assert.Len(t, instances, 1)

		require.Error(t, store.Delete(ctx, "uid-2"))
	})
}
