package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ueslim/cloudgames-payments/internal/domain"
)

// DeclineCardNumber always refuses authorization. Kept stable for tests and
// demo flows.
const DeclineCardNumber = "4000000000000002"

const transactionCostRate = 0.03

// fakePayClient simulates a card acquirer. Outcome depends only on the card
// number, so flows are reproducible.
type fakePayClient struct {
	cfg Config
}

func newFakePayClient(cfg Config) *fakePayClient {
	return &fakePayClient{cfg: cfg}
}

func (c *fakePayClient) AuthorizeCardTransaction(ctx context.Context, card domain.CreditCard, amount float64) (domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Transaction{}, err
	}

	// Hash is computed the way a real acquirer tokenizes card data; only
	// its presence matters here.
	_ = c.cardHash(card)

	tx := domain.Transaction{
		ID:              uuid.New(),
		TotalValue:      amount,
		CardBrand:       brandOf(card.CardNumber),
		TransactionCost: amount * transactionCostRate,
		TransactionDate: time.Now().UTC(),
		NSU:             randomDigits(10),
		TID:             randomDigits(12),
	}

	if card.CardNumber == DeclineCardNumber {
		tx.Status = domain.StatusDenied
		return tx, nil
	}

	tx.Status = domain.StatusAuthorized
	tx.AuthorizationCode = randomDigits(6)
	return tx, nil
}

func (c *fakePayClient) CaptureCardTransaction(ctx context.Context, authorized domain.Transaction) (domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Transaction{}, err
	}

	captured := authorized
	captured.ID = uuid.New()
	captured.Status = domain.StatusPaid
	captured.TransactionDate = time.Now().UTC()
	return captured, nil
}

func (c *fakePayClient) CancelAuthorization(ctx context.Context, authorized domain.Transaction) (domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Transaction{}, err
	}

	cancelled := authorized
	cancelled.ID = uuid.New()
	cancelled.Status = domain.StatusCanceled
	cancelled.TransactionDate = time.Now().UTC()
	return cancelled, nil
}

func (c *fakePayClient) cardHash(card domain.CreditCard) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.EncryptionKey+c.cfg.APIKey))
	mac.Write([]byte(card.CardName + card.CardNumber + card.ExpirationDate + card.CVV))
	return hex.EncodeToString(mac.Sum(nil))
}

func brandOf(cardNumber string) string {
	switch {
	case strings.HasPrefix(cardNumber, "4"):
		return "Visa"
	case strings.HasPrefix(cardNumber, "5"):
		return "MasterCard"
	case strings.HasPrefix(cardNumber, "3"):
		return "Amex"
	default:
		return "Unknown"
	}
}

func randomDigits(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d", rand.Intn(10))
	}
	return sb.String()
}
