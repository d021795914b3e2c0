// Package replay reconstructs Payment aggregate state from the event log.
//
// All functions are referentially transparent: the same event sequence
// always produces the same result. Events are applied in Timestamp order;
// equal timestamps keep the store's intrinsic append order (the sort is
// stable over the input slice).
package replay

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ueslim/cloudgames-payments/internal/domain"
	"github.com/ueslim/cloudgames-payments/internal/eventstore"
)

type decodeFunc func(data json.RawMessage) (domain.Event, error)

// decoders maps the wire discriminator of each event kind to its decoder.
// A discriminator missing from this table is skipped during replay, with a
// warning, so a partially-unrecognized log never fails a replay.
var decoders = map[string]decodeFunc{
	string(domain.KindPaymentCreated): func(data json.RawMessage) (domain.Event, error) {
		var e domain.PaymentCreated
		err := json.Unmarshal(data, &e)
		return e, err
	},
	string(domain.KindTransactionAdded): func(data json.RawMessage) (domain.Event, error) {
		var e domain.TransactionAdded
		err := json.Unmarshal(data, &e)
		return e, err
	},
	string(domain.KindTransactionCaptured): func(data json.RawMessage) (domain.Event, error) {
		var e domain.TransactionCaptured
		err := json.Unmarshal(data, &e)
		return e, err
	},
	string(domain.KindTransactionCancelled): func(data json.RawMessage) (domain.Event, error) {
		var e domain.TransactionCancelled
		err := json.Unmarshal(data, &e)
		return e, err
	},
}

// Rehydrator folds stored events back into aggregate state.
type Rehydrator struct {
	logger *zap.Logger
}

func NewRehydrator(logger *zap.Logger) *Rehydrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rehydrator{logger: logger}
}

// Rehydrate replays every event into a fresh Payment and returns the final
// state. Capture and cancel events whose transaction is missing from the
// log synthesize one, so replay stays total over any log, however
// malformed.
func (r *Rehydrator) Rehydrate(events []eventstore.StoredEvent) *domain.Payment {
	payment := &domain.Payment{}
	for _, stored := range sortByTimestamp(events) {
		r.apply(payment, stored)
	}
	return payment
}

// TransactionSnapshot and PaymentSnapshot are immutable copies of aggregate
// state taken after applying one event.
type TransactionSnapshot struct {
	ID         uuid.UUID `json:"id"`
	TotalValue float64   `json:"totalValue"`
	Status     string    `json:"status"`
}

type PaymentSnapshot struct {
	PaymentID    uuid.UUID             `json:"paymentId"`
	OrderID      uuid.UUID             `json:"orderId"`
	Value        float64               `json:"value"`
	Transactions []TransactionSnapshot `json:"transactions"`
}

type Step struct {
	At    time.Time       `json:"at"`
	Event string          `json:"event"`
	State PaymentSnapshot `json:"state"`
}

// ReplaySteps performs the same fold as Rehydrate but records a snapshot of
// the full aggregate state after each event, for audit and debugging.
func (r *Rehydrator) ReplaySteps(events []eventstore.StoredEvent) []Step {
	payment := &domain.Payment{}
	steps := make([]Step, 0, len(events))

	for _, stored := range sortByTimestamp(events) {
		r.apply(payment, stored)
		steps = append(steps, Step{
			At:    stored.Timestamp,
			Event: stored.MessageType,
			State: snapshot(payment),
		})
	}
	return steps
}

type TimelineItem struct {
	At            time.Time  `json:"at"`
	Event         string     `json:"event"`
	PaymentID     uuid.UUID  `json:"paymentId"`
	TransactionID *uuid.UUID `json:"transactionId,omitempty"`
	StatusAfter   *string    `json:"statusAfter,omitempty"`
	Value         *float64   `json:"value,omitempty"`
}

// BuildTimeline projects event metadata only, without folding full state.
// Cheaper than ReplaySteps when only the sequence of changes is wanted.
func (r *Rehydrator) BuildTimeline(events []eventstore.StoredEvent) []TimelineItem {
	timeline := make([]TimelineItem, 0, len(events))

	for _, stored := range sortByTimestamp(events) {
		event, ok := r.decode(stored)
		if !ok {
			continue
		}

		item := TimelineItem{At: stored.Timestamp, Event: stored.MessageType}
		switch e := event.(type) {
		case domain.PaymentCreated:
			item.PaymentID = e.PaymentID
			item.Value = ptr(e.Value)
		case domain.TransactionAdded:
			item.PaymentID = e.PaymentID
			item.TransactionID = ptr(e.TransactionID)
			item.StatusAfter = ptr(domain.TransactionStatus(e.Status).String())
			item.Value = ptr(e.TotalValue)
		case domain.TransactionCaptured:
			item.PaymentID = e.PaymentID
			item.TransactionID = ptr(e.TransactionID)
			item.StatusAfter = ptr(domain.StatusPaid.String())
			item.Value = ptr(e.Value)
		case domain.TransactionCancelled:
			item.PaymentID = e.PaymentID
			item.TransactionID = ptr(e.TransactionID)
			item.StatusAfter = ptr(domain.StatusCanceled.String())
			item.Value = ptr(e.Value)
		}
		timeline = append(timeline, item)
	}
	return timeline
}

func (r *Rehydrator) decode(stored eventstore.StoredEvent) (domain.Event, bool) {
	dec, ok := decoders[stored.MessageType]
	if !ok {
		r.logger.Warn("Skipping event with unknown message type",
			zap.String("message_type", stored.MessageType),
			zap.String("aggregate_id", stored.AggregateID.String()),
		)
		return nil, false
	}

	event, err := dec(stored.Data)
	if err != nil {
		r.logger.Warn("Skipping undecodable event",
			zap.String("message_type", stored.MessageType),
			zap.String("aggregate_id", stored.AggregateID.String()),
			zap.Error(err),
		)
		return nil, false
	}
	return event, true
}

func (r *Rehydrator) apply(payment *domain.Payment, stored eventstore.StoredEvent) {
	event, ok := r.decode(stored)
	if !ok {
		return
	}

	switch e := event.(type) {
	case domain.PaymentCreated:
		payment.ID = e.PaymentID
		payment.OrderID = e.OrderID
		payment.Value = e.Value

	case domain.TransactionAdded:
		payment.Transactions = append(payment.Transactions, domain.Transaction{
			ID:         e.TransactionID,
			PaymentID:  e.PaymentID,
			TotalValue: e.TotalValue,
			Status:     domain.TransactionStatus(e.Status),
		})

	case domain.TransactionCaptured:
		applyStatus(payment, e.PaymentID, e.TransactionID, domain.StatusPaid, e.Value, true)

	case domain.TransactionCancelled:
		applyStatus(payment, e.PaymentID, e.TransactionID, domain.StatusCanceled, e.Value, false)
	}
}

// applyStatus flips the target transaction, synthesizing it when the log
// has no matching TransactionAdded (truncated or reordered log).
func applyStatus(payment *domain.Payment, paymentID, transactionID uuid.UUID, status domain.TransactionStatus, value float64, setValue bool) {
	for i := range payment.Transactions {
		if payment.Transactions[i].ID == transactionID {
			payment.Transactions[i].Status = status
			if setValue {
				payment.Transactions[i].TotalValue = value
			}
			return
		}
	}
	payment.Transactions = append(payment.Transactions, domain.Transaction{
		ID:         transactionID,
		PaymentID:  paymentID,
		TotalValue: value,
		Status:     status,
	})
}

func snapshot(payment *domain.Payment) PaymentSnapshot {
	txs := make([]TransactionSnapshot, 0, len(payment.Transactions))
	for _, tx := range payment.Transactions {
		txs = append(txs, TransactionSnapshot{
			ID:         tx.ID,
			TotalValue: tx.TotalValue,
			Status:     tx.Status.String(),
		})
	}
	return PaymentSnapshot{
		PaymentID:    payment.ID,
		OrderID:      payment.OrderID,
		Value:        payment.Value,
		Transactions: txs,
	}
}

func sortByTimestamp(events []eventstore.StoredEvent) []eventstore.StoredEvent {
	sorted := make([]eventstore.StoredEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

func ptr[T any](v T) *T { return &v }
