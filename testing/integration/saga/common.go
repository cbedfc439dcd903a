package saga

import (
	"context"
	"testing"

	"github.com/go-seguros/sagabus/saga"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tripBooking struct {
	Hotel  string `json:"hotel"`
	Nights int    `json:"nights"`
}

// runStoreContract runs the Store behavior every SQL driver must satisfy
func runStoreContract(t *testing.T, store saga.Store) {
	ctx := context.Background()

	t.Run("save and load an instance", func(t *testing.T) {
		instance := saga.NewInstance(uuid.New().String(), "booking", "order-42")
		instance.UpdateStatus(saga.StatusRunning, "")
		instance.AdvanceStep(1)
		require.NoError(t, instance.SetPayload(&tripBooking{Hotel: "Ritz", Nights: 3}))

		require.NoError(t, store.Save(ctx, instance))

		loaded, err := store.GetByID(ctx, instance.UID)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, instance.UID, loaded.UID)
		assert.Equal(t, "booking", loaded.SagaType)
		assert.Equal(t, saga.StatusRunning, loaded.Status)
		assert.Equal(t, 1, loaded.LastCompletedStep)
		assert.Equal(t, "order-42", loaded.CorrelationID)

		payload := &tripBooking{}
		require.NoError(t, loaded.PayloadInto(payload))
		assert.Equal(t, "Ritz", payload.Hotel)
		assert.Equal(t, 3, payload.Nights)

		require.NoError(t, store.Delete(ctx, instance.UID))
	})

	t.Run("missing instance loads as nil", func(t *testing.T) {
		loaded, err := store.GetByID(ctx, uuid.New().String())
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("update persisted progress", func(t *testing.T) {
		instance := saga.NewInstance(uuid.New().String(), "booking", "order-43")
		instance.UpdateStatus(saga.StatusRunning, "")
		require.NoError(t, instance.SetPayload(&tripBooking{}))
		require.NoError(t, store.Save(ctx, instance))

		instance.AdvanceStep(0)
		instance.UpdateStatus(saga.StatusFailed, "card declined")
		require.NoError(t, store.Update(ctx, instance))

		loaded, err := store.GetByID(ctx, instance.UID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, saga.StatusFailed, loaded.Status)
		assert.Equal(t, "card declined", loaded.ErrorMessage)

		require.NoError(t, store.Delete(ctx, instance.UID))
	})

	t.Run("update of a missing instance fails", func(t *testing.T) {
		instance := saga.NewInstance(uuid.New().String(), "booking", "")
		require.NoError(t, instance.SetPayload(&tripBooking{}))
		require.Error(t, store.Update(ctx, instance))
	})

	t.Run("lookup by correlation id", func(t *testing.T) {
		correlationID := "order-" + uuid.New().String()

		instance := saga.NewInstance(uuid.New().String(), "booking", correlationID)
		require.NoError(t, instance.SetPayload(&tripBooking{}))
		require.NoError(t, store.Save(ctx, instance))

		found, err := store.GetByCorrelationID(ctx, correlationID)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, instance.UID, found[0].UID)

		require.NoError(t, store.Delete(ctx, instance.UID))
	})

	t.Run("lookup by status", func(t *testing.T) {
		instance := saga.NewInstance(uuid.New().String(), "booking", "")
		instance.UpdateStatus(saga.StatusCompensating, "card declined")
		require.NoError(t, instance.SetPayload(&tripBooking{}))
		require.NoError(t, store.Save(ctx, instance))

		found, err := store.GetByStatus(ctx, saga.StatusCompensating)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, instance.UID, found[0].UID)

		require.NoError(t, store.Delete(ctx, instance.UID))
	})

	t.Run("delete of a missing instance fails", func(t *testing.T) {
		require.Error(t, store.Delete(ctx, uuid.New().String()))
	})
}
