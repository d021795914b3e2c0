package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentType int

const (
	PaymentTypeCreditCard PaymentType = 1
)

// TransactionStatus integer codes are part of the stored event payload and
// must not be renumbered.
type TransactionStatus int

const (
	StatusAuthorized TransactionStatus = iota + 1
	StatusPaid
	StatusDenied
	StatusRefunded
	StatusCanceled
)

func (s TransactionStatus) String() string {
	switch s {
	case StatusAuthorized:
		return "Authorized"
	case StatusPaid:
		return "Paid"
	case StatusDenied:
		return "Denied"
	case StatusRefunded:
		return "Refunded"
	case StatusCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

type CreditCard struct {
	CardName       string
	CardNumber     string
	ExpirationDate string
	CVV            string
}

// Transaction is created from a gateway response and owned by its Payment.
// PaymentID is a back-reference, not an ownership edge.
type Transaction struct {
	ID                uuid.UUID
	PaymentID         uuid.UUID
	Status            TransactionStatus
	TotalValue        float64
	AuthorizationCode string
	CardBrand         string
	TransactionCost   float64
	NSU               string
	TID               string
	TransactionDate   time.Time
}

// Payment is the aggregate root. Once committed it is a derived view over
// the event log, never the source of truth. Mutations return the domain
// event they raise; the caller owns publication and disposal of those
// events after a successful commit.
type Payment struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	PaymentType PaymentType
	Value       float64

	// Transient card input, never part of the event stream.
	CreditCard CreditCard

	Transactions []Transaction
}

// New builds a fresh Payment and returns the PaymentCreated event for it.
func New(orderID uuid.UUID, paymentType PaymentType, value float64, card CreditCard) (*Payment, PaymentCreated) {
	p := &Payment{
		ID:          uuid.New(),
		OrderID:     orderID,
		PaymentType: paymentType,
		Value:       value,
		CreditCard:  card,
	}
	return p, PaymentCreated{PaymentID: p.ID, OrderID: orderID, Value: value}
}

// CreatedEvent returns the PaymentCreated event for this payment.
func (p *Payment) CreatedEvent() PaymentCreated {
	return PaymentCreated{PaymentID: p.ID, OrderID: p.OrderID, Value: p.Value}
}

// AuthorizedTransaction returns the single Authorized transaction, or nil.
func (p *Payment) AuthorizedTransaction() *Transaction {
	for i := range p.Transactions {
		if p.Transactions[i].Status == StatusAuthorized {
			return &p.Transactions[i]
		}
	}
	return nil
}

// AddTransaction appends a transaction and returns the TransactionAdded
// event. A payment holds at most one Authorized transaction at a time.
func (p *Payment) AddTransaction(tx Transaction) (TransactionAdded, error) {
	if tx.Status == StatusAuthorized && p.AuthorizedTransaction() != nil {
		return TransactionAdded{}, ErrAuthorizedTransactionExists
	}
	tx.PaymentID = p.ID
	p.Transactions = append(p.Transactions, tx)
	return TransactionAdded{
		PaymentID:     p.ID,
		TransactionID: tx.ID,
		TotalValue:    tx.TotalValue,
		Status:        int(tx.Status),
	}, nil
}

// MarkCaptured flips the transaction to Paid and returns the event.
func (p *Payment) MarkCaptured(transactionID uuid.UUID, value float64) (TransactionCaptured, error) {
	tx := p.findTransaction(transactionID)
	if tx == nil {
		return TransactionCaptured{}, ErrTransactionNotFound
	}
	tx.Status = StatusPaid
	return TransactionCaptured{PaymentID: p.ID, TransactionID: transactionID, Value: value}, nil
}

// MarkCancelled flips the transaction to Canceled. The event carries the
// transaction's total value.
func (p *Payment) MarkCancelled(transactionID uuid.UUID) (TransactionCancelled, error) {
	tx := p.findTransaction(transactionID)
	if tx == nil {
		return TransactionCancelled{}, ErrTransactionNotFound
	}
	tx.Status = StatusCanceled
	return TransactionCancelled{PaymentID: p.ID, TransactionID: transactionID, Value: tx.TotalValue}, nil
}

func (p *Payment) findTransaction(id uuid.UUID) *Transaction {
	for i := range p.Transactions {
		if p.Transactions[i].ID == id {
			return &p.Transactions[i]
		}
	}
	return nil
}
