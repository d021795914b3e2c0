// Package messaging is the integration transport between services. Topics
// are derived from the event's declared name; delivery is at-least-once via
// competing-consumer queue groups; every published message carries a
// correlation id header propagated from the triggering message or request.
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const correlationHeader = "X-Correlation-ID"

// Message is an integration event exchanged over the bus.
type Message interface {
	EventName() string
}

// Envelope is the delivered form of a message.
type Envelope struct {
	CorrelationID string
	Data          []byte
}

// Decode unmarshals the envelope payload into out.
func (e Envelope) Decode(out any) error {
	return json.Unmarshal(e.Data, out)
}

type Handler func(ctx context.Context, env Envelope) error

// Responder handles an RPC-style request and returns the response payload.
type Responder func(ctx context.Context, env Envelope) (any, error)

type Bus interface {
	Publish(ctx context.Context, event Message) error
	Subscribe(subscriptionID string, eventName string, handler Handler) error
	Respond(eventName string, responder Responder) error
	Request(ctx context.Context, event Message, timeout time.Duration) (Envelope, error)
}

// topicFor derives the transport topic from an event name.
func topicFor(eventName string) string {
	return "integration." + eventName
}

type correlationKey struct{}

// WithCorrelationID stores the correlation id for downstream publishes.
func WithCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationKey{}, cid)
}

// CorrelationID returns the id from ctx, generating one when absent.
func CorrelationID(ctx context.Context) string {
	if cid, ok := ctx.Value(correlationKey{}).(string); ok && cid != "" {
		return cid
	}
	return uuid.NewString()
}
