package gateway

import (
	"context"

	"github.com/ueslim/cloudgames-payments/internal/domain"
)

// Config carries the gateway credentials. It is passed into the facade
// constructor explicitly; nothing in this package reads ambient state.
type Config struct {
	APIKey        string
	EncryptionKey string
}

// Facade is the contract the saga depends on. Calls are blocking,
// completion-or-failure operations with no partial result; timeouts are the
// implementation's concern via ctx.
type Facade interface {
	Authorize(ctx context.Context, payment *domain.Payment) (domain.Transaction, error)
	Capture(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
	CancelAuthorization(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
}

// CreditCardFacade adapts the simulated card gateway to the Facade
// contract.
type CreditCardFacade struct {
	client *fakePayClient
}

func NewCreditCardFacade(cfg Config) *CreditCardFacade {
	return &CreditCardFacade{client: newFakePayClient(cfg)}
}

func (f *CreditCardFacade) Authorize(ctx context.Context, payment *domain.Payment) (domain.Transaction, error) {
	return f.client.AuthorizeCardTransaction(ctx, payment.CreditCard, payment.Value)
}

func (f *CreditCardFacade) Capture(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	return f.client.CaptureCardTransaction(ctx, tx)
}

func (f *CreditCardFacade) CancelAuthorization(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	return f.client.CancelAuthorization(ctx, tx)
}
