package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "integration.OrderStartedIntegrationEvent", topicFor("OrderStartedIntegrationEvent"))
	assert.Equal(t, "integration.PaymentRefusedIntegrationEvent", topicFor("PaymentRefusedIntegrationEvent"))
}

func TestCorrelationID_Propagates(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "cid-123")
	assert.Equal(t, "cid-123", CorrelationID(ctx))
}

func TestCorrelationID_GeneratesWhenAbsent(t *testing.T) {
	cid := CorrelationID(context.Background())
	assert.NotEmpty(t, cid)

	// A generated id is not sticky; it is stored only via WithCorrelationID.
	other := CorrelationID(context.Background())
	assert.NotEqual(t, cid, other)
}

func TestCorrelationID_IgnoresEmpty(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "")
	assert.NotEmpty(t, CorrelationID(ctx))
}

func TestEnvelopeDecode(t *testing.T) {
	type payload struct {
		OrderID string `json:"orderId"`
	}

	data, err := json.Marshal(payload{OrderID: "o-1"})
	require.NoError(t, err)

	env := Envelope{CorrelationID: "cid", Data: data}

	var got payload
	require.NoError(t, env.Decode(&got))
	assert.Equal(t, "o-1", got.OrderID)
}
