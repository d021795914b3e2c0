package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/ueslim/cloudgames-payments/internal/domain"
)

// PaymentRepository defines the contract for payment data access. Any
// returned error is treated by the saga as a persistence failure.
type PaymentRepository interface {
	AddPayment(ctx context.Context, payment *domain.Payment) error
	AddTransaction(ctx context.Context, tx domain.Transaction) error
	GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
	GetTransactionsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.Transaction, error)
}
