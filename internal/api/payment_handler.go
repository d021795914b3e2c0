package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ueslim/cloudgames-payments/internal/interfaces"
	"github.com/ueslim/cloudgames-payments/internal/repository"
)

type PaymentHandler struct {
	repo interfaces.PaymentRepository
}

func NewPaymentHandler(repo interfaces.PaymentRepository) *PaymentHandler {
	return &PaymentHandler{repo: repo}
}

// GetByOrderID returns the persisted payment and its transactions.
func (h *PaymentHandler) GetByOrderID(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	payment, err := h.repo.GetPaymentByOrderID(c.Request.Context(), orderID)
	if errors.Is(err, repository.ErrPaymentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment"})
		return
	}

	transactions := make([]gin.H, 0, len(payment.Transactions))
	for _, tx := range payment.Transactions {
		transactions = append(transactions, gin.H{
			"id":                tx.ID,
			"status":            tx.Status.String(),
			"totalValue":        tx.TotalValue,
			"authorizationCode": tx.AuthorizationCode,
			"cardBrand":         tx.CardBrand,
			"nsu":               tx.NSU,
			"tid":               tx.TID,
			"transactionDate":   tx.TransactionDate,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentId":    payment.ID,
		"orderId":      payment.OrderID,
		"value":        payment.Value,
		"transactions": transactions,
	})
}
