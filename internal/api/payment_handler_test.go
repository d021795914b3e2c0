package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ueslim/cloudgames-payments/internal/domain"
	"github.com/ueslim/cloudgames-payments/internal/repository"
)

type fakePaymentRepo struct {
	payments map[uuid.UUID]*domain.Payment
}

func (r *fakePaymentRepo) AddPayment(ctx context.Context, payment *domain.Payment) error {
	return nil
}

func (r *fakePaymentRepo) AddTransaction(ctx context.Context, tx domain.Transaction) error {
	return nil
}

func (r *fakePaymentRepo) GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	payment, ok := r.payments[orderID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	return payment, nil
}

func (r *fakePaymentRepo) GetTransactionsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.Transaction, error) {
	payment, err := r.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return payment.Transactions, nil
}

func setupPaymentRouter(repo *fakePaymentRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/payments/:orderId", NewPaymentHandler(repo).GetByOrderID)
	return r
}

func TestGetPaymentByOrderID_ReturnsPayment(t *testing.T) {
	orderID := uuid.New()
	payment, _ := domain.New(orderID, domain.PaymentTypeCreditCard, 250, domain.CreditCard{})
	payment.Transactions = []domain.Transaction{{
		ID:         uuid.New(),
		PaymentID:  payment.ID,
		Status:     domain.StatusPaid,
		TotalValue: 250,
		CardBrand:  "Visa",
	}}
	router := setupPaymentRouter(&fakePaymentRepo{payments: map[uuid.UUID]*domain.Payment{orderID: payment}})

	w := get(router, "/payments/"+orderID.String())

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OrderID      uuid.UUID `json:"orderId"`
		Value        float64   `json:"value"`
		Transactions []struct {
			Status    string `json:"status"`
			CardBrand string `json:"cardBrand"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, orderID, body.OrderID)
	assert.Equal(t, 250.0, body.Value)
	require.Len(t, body.Transactions, 1)
	assert.Equal(t, "Paid", body.Transactions[0].Status)
	assert.Equal(t, "Visa", body.Transactions[0].CardBrand)
}

func TestGetPaymentByOrderID_NotFound(t *testing.T) {
	router := setupPaymentRouter(&fakePaymentRepo{payments: map[uuid.UUID]*domain.Payment{}})

	w := get(router, "/payments/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPaymentByOrderID_InvalidID(t *testing.T) {
	router := setupPaymentRouter(&fakePaymentRepo{payments: map[uuid.UUID]*domain.Payment{}})

	w := get(router, "/payments/nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
