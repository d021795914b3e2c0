package integration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ueslim/cloudgames-payments/internal/domain"
	"github.com/ueslim/cloudgames-payments/internal/messaging"
)

type paymentService interface {
	Authorize(ctx context.Context, payment *domain.Payment) (*domain.Result, error)
	Capture(ctx context.Context, orderID uuid.UUID) (*domain.Result, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*domain.Result, error)
}

// Handler binds the payment saga to the bus: an RPC responder authorizes
// payments for started orders, and competing-consumer subscriptions drive
// capture and cancellation. Each delivery is handled independently; a
// returned error is the dead-letter signal for the transport.
type Handler struct {
	bus      messaging.Bus
	payments paymentService
	logger   *zap.Logger
}

func NewHandler(bus messaging.Bus, payments paymentService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{bus: bus, payments: payments, logger: logger}
}

// Start registers the responder and the subscribers.
func (h *Handler) Start() error {
	if err := h.bus.Respond(EventOrderStarted, h.authorizePayment); err != nil {
		return fmt.Errorf("Start: %w", err)
	}
	if err := h.bus.Subscribe("payments-order-canceled", EventOrderCanceled, h.cancelPayment); err != nil {
		return fmt.Errorf("Start: %w", err)
	}
	if err := h.bus.Subscribe("payments-stock-deducted", EventOrderStockDeducted, h.capturePayment); err != nil {
		return fmt.Errorf("Start: %w", err)
	}
	return nil
}

func (h *Handler) authorizePayment(ctx context.Context, env messaging.Envelope) (any, error) {
	var msg OrderStartedIntegrationEvent
	if err := env.Decode(&msg); err != nil {
		return nil, fmt.Errorf("authorizePayment: decode: %w", err)
	}

	payment, _ := domain.New(
		msg.OrderID,
		domain.PaymentType(msg.PaymentType),
		msg.Value,
		domain.CreditCard{
			CardName:       msg.CardName,
			CardNumber:     msg.CardNumber,
			ExpirationDate: msg.CardExpirationDate,
			CVV:            msg.CardCVV,
		},
	)

	result, err := h.payments.Authorize(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("authorizePayment: %w", err)
	}

	return ResponseMessage{Valid: result.Valid(), Errors: result.Errors}, nil
}

func (h *Handler) cancelPayment(ctx context.Context, env messaging.Envelope) error {
	var msg OrderCanceledIntegrationEvent
	if err := env.Decode(&msg); err != nil {
		return fmt.Errorf("cancelPayment: decode: %w", err)
	}

	result, err := h.payments.Cancel(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("cancelPayment: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("cancelPayment: failed to cancel payment for order %s", msg.OrderID)
	}
	return nil
}

func (h *Handler) capturePayment(ctx context.Context, env messaging.Envelope) error {
	var msg OrderStockDeductedIntegrationEvent
	if err := env.Decode(&msg); err != nil {
		return fmt.Errorf("capturePayment: decode: %w", err)
	}

	result, err := h.payments.Capture(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("capturePayment: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("capturePayment: failed to capture payment for order %s", msg.OrderID)
	}

	if err := h.bus.Publish(ctx, OrderPaidIntegrationEvent{ClientID: msg.ClientID, OrderID: msg.OrderID}); err != nil {
		return fmt.Errorf("capturePayment: publish: %w", err)
	}
	return nil
}

// AuditHandler logs authorized payments as they happen, on its own
// subscription so it competes with nothing.
type AuditHandler struct {
	bus    messaging.Bus
	logger *zap.Logger
}

func NewAuditHandler(bus messaging.Bus, logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{bus: bus, logger: logger}
}

func (h *AuditHandler) Start() error {
	return h.bus.Subscribe("audit-payment-authorized", EventPaymentAuthorized,
		func(ctx context.Context, env messaging.Envelope) error {
			var msg PaymentAuthorizedIntegrationEvent
			if err := env.Decode(&msg); err != nil {
				return err
			}
			h.logger.Info("PaymentAuthorized received",
				zap.String("order_id", msg.OrderID.String()),
				zap.String("correlation_id", env.CorrelationID),
			)
			return nil
		})
}
