package message

import (
	"testing"
	"time"

	"github.com/go-seguros/sagabus/runtime/scheme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contractSigned struct {
	ContractID string  `json:"contract_id"`
	Amount     float64 `json:"amount"`
}

type policyIssued struct {
	PolicyID string    `json:"policyId"`
	IssuedAt time.Time `json:"issuedAt"`
}

func TestJSONMarshaller(t *testing.T) {
	knownTypes := scheme.NewKnownTypesRegistry()
	knownTypes.RegisterTypeWithKind("ContractSigned", &contractSigned{})

	marshaller := NewJSONMarshaller(knownTypes)

	t.Run("round trip of an event", func(t *testing.T) {
		msg := NewEventMessage("ContractSigned", &contractSigned{ContractID: "c-1", Amount: 199.90})

		b, err := marshaller.Marshal(msg)
		require.NoError(t, err)

		decoded, err := marshaller.Unmarshal(b)
		require.NoError(t, err)

		assert.Equal(t, msg.UID, decoded.UID)
		assert.Equal(t, "ContractSigned", decoded.Kind)
		assert.Equal(t, EventsNamespace, decoded.Namespace)
		assert.Equal(t, msg.Timestamp, decoded.Timestamp)

		payload, ok := decoded.Payload.(*contractSigned)
		require.True(t, ok)
		assert.Equal(t, "c-1", payload.ContractID)
		assert.Equal(t, 199.90, payload.Amount)
	})

	t.Run("round trip of a payload carrying a timestamp", func(t *testing.T) {
		knownTypes.RegisterTypeWithKind("PolicyIssued", &policyIssued{})

		issuedAt := time.Date(2026, time.March, 15, 10, 30, 0, 123456789, time.UTC)
		msg := NewEventMessage("PolicyIssued", &policyIssued{PolicyID: "p-7", IssuedAt: issuedAt})

		b, err := marshaller.Marshal(msg)
		require.NoError(t, err)

		decoded, err := marshaller.Unmarshal(b)
		require.NoError(t, err)

		payload, ok := decoded.Payload.(*policyIssued)
		require.True(t, ok)
		assert.Equal(t, "p-7", payload.PolicyID)
		assert.True(t, issuedAt.Equal(payload.IssuedAt), "expected %s, got %s", issuedAt, payload.IssuedAt)
	})

	t.Run("command namespace", func(t *testing.T) {
		msg := NewCommandMessage("SignContract", &contractSigned{})
		assert.Equal(t, CommandsNamespace, msg.Namespace)
		assert.NotEmpty(t, msg.UID)
		assert.NotZero(t, msg.Timestamp)
	})

	t.Run("unknown kind", func(t *testing.T) {
		msg := NewEventMessage("NobodyKnowsThisOne", &contractSigned{})

		b, err := marshaller.Marshal(msg)
		require.NoError(t, err)

		decoded, err := marshaller.Unmarshal(b)
		assert.Nil(t, decoded)
		require.Error(t, err)
		assert.IsType(t, UnknownKindErr{}, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		decoded, err := marshaller.Unmarshal([]byte("{not json"))
		assert.Nil(t, decoded)
		require.Error(t, err)
		assert.IsType(t, DecoderErr{}, err)
	})
}

func TestParseNamespace(t *testing.T) {
	ns, err := ParseNamespace("commands")
	require.NoError(t, err)
	assert.Equal(t, CommandsNamespace, ns)

	ns, err = ParseNamespace("events")
	require.NoError(t, err)
	assert.Equal(t, EventsNamespace, ns)

	_, err = ParseNamespace("queries")
	assert.Error(t, err)
}
