package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrTransactionNotFound         = errors.New("transaction not found")
	ErrAuthorizedTransactionExists = errors.New("payment already has an authorized transaction")
)

// DomainError is a fatal business-invariant violation. The saga never
// retries it; it propagates to the messaging layer for dead-lettering.
type DomainError struct {
	OrderID uuid.UUID
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s for order %s", e.Message, e.OrderID)
}

// NewMissingAuthorizedTransaction reports that capture or cancel found no
// Authorized transaction for the order.
func NewMissingAuthorizedTransaction(orderID uuid.UUID) *DomainError {
	return &DomainError{OrderID: orderID, Message: "no authorized transaction found"}
}
