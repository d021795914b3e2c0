package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NatsBus implements Bus over a NATS connection. Subscriptions use queue
// groups keyed by subscription id, so instances of the same service compete
// for messages.
type NatsBus struct {
	nc     *nats.Conn
	logger *zap.Logger
}

func NewNatsBus(nc *nats.Conn, logger *zap.Logger) *NatsBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NatsBus{nc: nc, logger: logger}
}

func (b *NatsBus) Publish(ctx context.Context, event Message) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("Publish: marshal %s: %w", event.EventName(), err)
	}

	cid := CorrelationID(ctx)
	msg := nats.NewMsg(topicFor(event.EventName()))
	msg.Header.Set(correlationHeader, cid)
	msg.Data = data

	if err := b.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("Publish: %s: %w", event.EventName(), err)
	}

	b.logger.Info("Bus publish",
		zap.String("event", event.EventName()),
		zap.String("topic", msg.Subject),
		zap.String("correlation_id", cid),
	)
	return nil
}

func (b *NatsBus) Subscribe(subscriptionID string, eventName string, handler Handler) error {
	topic := topicFor(eventName)

	_, err := b.nc.QueueSubscribe(topic, subscriptionID, func(msg *nats.Msg) {
		env := envelopeFrom(msg)
		ctx := WithCorrelationID(context.Background(), env.CorrelationID)

		b.logger.Info("Bus consume",
			zap.String("event", eventName),
			zap.String("queue", subscriptionID),
			zap.String("correlation_id", env.CorrelationID),
		)

		if err := handler(ctx, env); err != nil {
			// At-least-once transport: the error is surfaced for
			// dead-lettering, not retried here.
			b.logger.Error("Bus handler failed",
				zap.String("event", eventName),
				zap.String("correlation_id", env.CorrelationID),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("Subscribe: %s: %w", eventName, err)
	}
	return nil
}

func (b *NatsBus) Respond(eventName string, responder Responder) error {
	topic := topicFor(eventName)

	_, err := b.nc.QueueSubscribe(topic, "responder", func(msg *nats.Msg) {
		env := envelopeFrom(msg)
		ctx := WithCorrelationID(context.Background(), env.CorrelationID)

		resp, err := responder(ctx, env)
		if err != nil {
			b.logger.Error("Bus responder failed",
				zap.String("event", eventName),
				zap.String("correlation_id", env.CorrelationID),
				zap.Error(err),
			)
			return
		}

		data, err := json.Marshal(resp)
		if err != nil {
			b.logger.Error("Bus responder marshal failed",
				zap.String("event", eventName),
				zap.Error(err),
			)
			return
		}

		reply := nats.NewMsg(msg.Reply)
		reply.Header.Set(correlationHeader, env.CorrelationID)
		reply.Data = data
		if err := msg.RespondMsg(reply); err != nil {
			b.logger.Error("Bus respond failed",
				zap.String("event", eventName),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("Respond: %s: %w", eventName, err)
	}
	return nil
}

func (b *NatsBus) Request(ctx context.Context, event Message, timeout time.Duration) (Envelope, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("Request: marshal %s: %w", event.EventName(), err)
	}

	msg := nats.NewMsg(topicFor(event.EventName()))
	msg.Header.Set(correlationHeader, CorrelationID(ctx))
	msg.Data = data

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply, err := b.nc.RequestMsgWithContext(reqCtx, msg)
	if err != nil {
		return Envelope{}, fmt.Errorf("Request: %s: %w", event.EventName(), err)
	}
	return envelopeFrom(reply), nil
}

func envelopeFrom(msg *nats.Msg) Envelope {
	cid := msg.Header.Get(correlationHeader)
	if cid == "" {
		cid = CorrelationID(context.Background())
	}
	return Envelope{CorrelationID: cid, Data: msg.Data}
}
