package domain

import "github.com/google/uuid"

// EventKind is the wire discriminator stored alongside each serialized event.
// Replay dispatch matches on it exactly; an unknown kind is skipped.
type EventKind string

const (
	KindPaymentCreated       EventKind = "PaymentCreated"
	KindTransactionAdded     EventKind = "TransactionAdded"
	KindTransactionCaptured  EventKind = "TransactionCaptured"
	KindTransactionCancelled EventKind = "TransactionCancelled"
)

// Event is a domain event raised by a Payment mutation. AggregateID is
// always the payment id.
type Event interface {
	Kind() EventKind
	AggregateID() uuid.UUID
}

type PaymentCreated struct {
	PaymentID uuid.UUID `json:"paymentId"`
	OrderID   uuid.UUID `json:"orderId"`
	Value     float64   `json:"value"`
}

func (e PaymentCreated) Kind() EventKind        { return KindPaymentCreated }
func (e PaymentCreated) AggregateID() uuid.UUID { return e.PaymentID }

type TransactionAdded struct {
	PaymentID     uuid.UUID `json:"paymentId"`
	TransactionID uuid.UUID `json:"transactionId"`
	TotalValue    float64   `json:"totalValue"`
	Status        int       `json:"status"`
}

func (e TransactionAdded) Kind() EventKind        { return KindTransactionAdded }
func (e TransactionAdded) AggregateID() uuid.UUID { return e.PaymentID }

type TransactionCaptured struct {
	PaymentID     uuid.UUID `json:"paymentId"`
	TransactionID uuid.UUID `json:"transactionId"`
	Value         float64   `json:"value"`
}

func (e TransactionCaptured) Kind() EventKind        { return KindTransactionCaptured }
func (e TransactionCaptured) AggregateID() uuid.UUID { return e.PaymentID }

type TransactionCancelled struct {
	PaymentID     uuid.UUID `json:"paymentId"`
	TransactionID uuid.UUID `json:"transactionId"`
	Value         float64   `json:"value"`
}

func (e TransactionCancelled) Kind() EventKind        { return KindTransactionCancelled }
func (e TransactionCancelled) AggregateID() uuid.UUID { return e.PaymentID }
