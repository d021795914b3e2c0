package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ueslim/cloudgames-payments/internal/domain"
)

// DomainEventWriter abstracts the Kafka writer for tests.
type DomainEventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// AuditPublisher streams every committed domain event to the
// payment.events topic, keyed by aggregate id so one payment's events stay
// ordered within a partition.
type AuditPublisher struct {
	writer DomainEventWriter
	logger *zap.Logger
}

func NewAuditPublisher(writer DomainEventWriter, logger *zap.Logger) *AuditPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditPublisher{writer: writer, logger: logger}
}

type auditRecord struct {
	Kind          string       `json:"kind"`
	AggregateID   string       `json:"aggregateId"`
	CorrelationID string       `json:"correlationId"`
	OccurredAt    time.Time    `json:"occurredAt"`
	Payload       domain.Event `json:"payload"`
}

func (p *AuditPublisher) PublishDomainEvents(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	cid := CorrelationID(ctx)
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(auditRecord{
			Kind:          string(e.Kind()),
			AggregateID:   e.AggregateID().String(),
			CorrelationID: cid,
			OccurredAt:    time.Now().UTC(),
			Payload:       e,
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.AggregateID().String()),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}

	p.logger.Info("Audit events published",
		zap.Int("count", len(msgs)),
		zap.String("correlation_id", cid),
	)
	return nil
}
