package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ueslim/cloudgames-payments/internal/domain"
	"github.com/ueslim/cloudgames-payments/internal/gateway"
	"github.com/ueslim/cloudgames-payments/internal/integration"
	"github.com/ueslim/cloudgames-payments/internal/interfaces"
	"github.com/ueslim/cloudgames-payments/internal/messaging"
	"github.com/ueslim/cloudgames-payments/internal/telemetry"
)

const orderLockTTL = 30 * time.Second

func success() *domain.Result { return &domain.Result{Outcome: domain.OutcomeSuccess} }

func refused(msg string) *domain.Result {
	return &domain.Result{Outcome: domain.OutcomeGatewayRefused, Errors: []string{msg}}
}

func persistenceFailed(msg string) *domain.Result {
	return &domain.Result{Outcome: domain.OutcomePersistenceFailed, Errors: []string{msg}}
}

type eventStore interface {
	Save(ctx context.Context, event domain.Event) error
	SaveAll(ctx context.Context, events []domain.Event) error
}

type auditPublisher interface {
	PublishDomainEvents(ctx context.Context, events []domain.Event) error
}

// PaymentService coordinates the gateway, the payment store and the event
// store for the payment lifecycle. Gateway calls happen before
// persistence; a persistence failure after a successful gateway
// authorization triggers an explicit compensating cancel. That ordering is
// the only cross-system consistency mechanism here.
type PaymentService struct {
	facade gateway.Facade
	repo   interfaces.PaymentRepository
	events eventStore
	bus    messaging.Bus
	audit  auditPublisher
	locks  *redis.Client
	logger *zap.Logger
}

func NewPaymentService(
	facade gateway.Facade,
	repo interfaces.PaymentRepository,
	events eventStore,
	bus messaging.Bus,
	audit auditPublisher,
	locks *redis.Client,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		facade: facade,
		repo:   repo,
		events: events,
		bus:    bus,
		audit:  audit,
		locks:  locks,
		logger: logger,
	}
}

// Authorize runs the authorization saga for a new payment.
func (s *PaymentService) Authorize(ctx context.Context, payment *domain.Payment) (*domain.Result, error) {
	cid := messaging.CorrelationID(ctx)

	s.logger.Info("Payment authorize start",
		zap.String("order_id", payment.OrderID.String()),
		zap.Float64("value", payment.Value),
		zap.String("correlation_id", cid),
	)

	events := []domain.Event{payment.CreatedEvent()}

	tx, err := s.facade.Authorize(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("Authorize: gateway: %w", err)
	}

	s.logger.Info("Payment authorize gateway result",
		zap.String("order_id", payment.OrderID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("status", tx.Status.String()),
		zap.String("correlation_id", cid),
	)

	if tx.Status != domain.StatusAuthorized {
		s.logger.Warn("Payment authorize refused",
			zap.String("order_id", payment.OrderID.String()),
			zap.String("correlation_id", cid),
		)
		telemetry.PaymentsRefused.Inc()
		s.publishRefused(ctx, payment.OrderID, integration.ReasonGatewayRefused)
		return refused("payment refused, contact your card operator"), nil
	}

	added, err := payment.AddTransaction(tx)
	if err != nil {
		return nil, fmt.Errorf("Authorize: %w", err)
	}
	events = append(events, added)

	if err := s.repo.AddPayment(ctx, payment); err != nil {
		s.logger.Error("Payment authorize commit failed",
			zap.String("order_id", payment.OrderID.String()),
			zap.String("correlation_id", cid),
			zap.Error(err),
		)
		telemetry.PaymentsCompensated.Inc()

		// The gateway holds funds for a transaction we could not record.
		// Release them before reporting failure.
		if _, cancelErr := s.facade.CancelAuthorization(ctx, tx); cancelErr != nil {
			s.logger.Error("Payment authorize compensation failed",
				zap.String("order_id", payment.OrderID.String()),
				zap.String("transaction_id", tx.ID.String()),
				zap.String("correlation_id", cid),
				zap.Error(cancelErr),
			)
		}

		s.publishRefused(ctx, payment.OrderID, integration.ReasonPersistenceFailed)
		return persistenceFailed("there was an error processing the payment"), nil
	}

	if err := s.events.SaveAll(ctx, events); err != nil {
		return nil, fmt.Errorf("Authorize: event store: %w", err)
	}

	s.publishCommitted(ctx, events)
	s.publish(ctx, integration.PaymentAuthorizedIntegrationEvent{OrderID: payment.OrderID})

	telemetry.PaymentsAuthorized.Inc()
	s.logger.Info("Payment authorize success",
		zap.String("order_id", payment.OrderID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("correlation_id", cid),
	)
	return success(), nil
}

// Capture runs the capture saga for the order's authorized transaction.
func (s *PaymentService) Capture(ctx context.Context, orderID uuid.UUID) (*domain.Result, error) {
	cid := messaging.CorrelationID(ctx)
	s.logger.Info("Payment capture start",
		zap.String("order_id", orderID.String()),
		zap.String("correlation_id", cid),
	)

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("Capture: %w", err)
	}
	defer unlock()

	authorized, err := s.findAuthorizedTransaction(ctx, orderID)
	if err != nil {
		return nil, err
	}

	captured, err := s.facade.Capture(ctx, *authorized)
	if err != nil {
		return nil, fmt.Errorf("Capture: gateway: %w", err)
	}

	s.logger.Info("Payment capture gateway result",
		zap.String("order_id", orderID.String()),
		zap.String("transaction_id", authorized.ID.String()),
		zap.String("status", captured.Status.String()),
		zap.String("correlation_id", cid),
	)

	if captured.Status != domain.StatusPaid {
		s.logger.Warn("Payment capture refused",
			zap.String("order_id", orderID.String()),
			zap.String("correlation_id", cid),
		)
		return refused(fmt.Sprintf("could not capture payment for order %s", orderID)), nil
	}

	captured.PaymentID = authorized.PaymentID
	if err := s.repo.AddTransaction(ctx, captured); err != nil {
		s.logger.Error("Payment capture commit failed",
			zap.String("order_id", orderID.String()),
			zap.String("correlation_id", cid),
			zap.Error(err),
		)
		// The funds stay authorized at the gateway; capture is retried by
		// redelivery, so no compensation here.
		return persistenceFailed(fmt.Sprintf("could not persist capture for order %s", orderID)), nil
	}

	payment, err := s.repo.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("Capture: reload: %w", err)
	}

	event, err := payment.MarkCaptured(authorized.ID, captured.TotalValue)
	if err != nil {
		return nil, fmt.Errorf("Capture: %w", err)
	}

	if err := s.events.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("Capture: event store: %w", err)
	}
	s.publishCommitted(ctx, []domain.Event{event})

	telemetry.PaymentsCaptured.Inc()
	s.logger.Info("Payment capture success",
		zap.String("order_id", orderID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("transaction_id", authorized.ID.String()),
		zap.String("correlation_id", cid),
	)
	return success(), nil
}

// Cancel runs the cancellation saga for the order's authorized transaction.
func (s *PaymentService) Cancel(ctx context.Context, orderID uuid.UUID) (*domain.Result, error) {
	cid := messaging.CorrelationID(ctx)
	s.logger.Info("Payment cancel start",
		zap.String("order_id", orderID.String()),
		zap.String("correlation_id", cid),
	)

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}
	defer unlock()

	authorized, err := s.findAuthorizedTransaction(ctx, orderID)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.facade.CancelAuthorization(ctx, *authorized)
	if err != nil {
		return nil, fmt.Errorf("Cancel: gateway: %w", err)
	}

	s.logger.Info("Payment cancel gateway result",
		zap.String("order_id", orderID.String()),
		zap.String("transaction_id", authorized.ID.String()),
		zap.String("status", cancelled.Status.String()),
		zap.String("correlation_id", cid),
	)

	if cancelled.Status != domain.StatusCanceled {
		s.logger.Warn("Payment cancel refused",
			zap.String("order_id", orderID.String()),
			zap.String("correlation_id", cid),
		)
		return refused(fmt.Sprintf("could not cancel payment for order %s", orderID)), nil
	}

	cancelled.PaymentID = authorized.PaymentID
	if err := s.repo.AddTransaction(ctx, cancelled); err != nil {
		s.logger.Error("Payment cancel commit failed",
			zap.String("order_id", orderID.String()),
			zap.String("correlation_id", cid),
			zap.Error(err),
		)
		return persistenceFailed(fmt.Sprintf("could not persist cancellation for order %s", orderID)), nil
	}

	payment, err := s.repo.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("Cancel: reload: %w", err)
	}

	event, err := payment.MarkCancelled(authorized.ID)
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}

	if err := s.events.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("Cancel: event store: %w", err)
	}
	s.publishCommitted(ctx, []domain.Event{event})

	telemetry.PaymentsCancelled.Inc()
	s.logger.Info("Payment cancel success",
		zap.String("order_id", orderID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("transaction_id", authorized.ID.String()),
		zap.String("correlation_id", cid),
	)
	return success(), nil
}

func (s *PaymentService) findAuthorizedTransaction(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error) {
	txs, err := s.repo.GetTransactionsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("findAuthorizedTransaction: %w", err)
	}
	for i := range txs {
		if txs[i].Status == domain.StatusAuthorized {
			return &txs[i], nil
		}
	}
	return nil, domain.NewMissingAuthorizedTransaction(orderID)
}

// lockOrder serializes capture/cancel for one order across instances. Two
// concurrent calls racing the same authorized transaction would otherwise
// double-settle at the gateway.
func (s *PaymentService) lockOrder(ctx context.Context, orderID uuid.UUID) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf("payment_lock:order:%s", orderID)
	locked, err := s.locks.SetNX(ctx, key, "1", orderLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("lockOrder: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("order %s is already being processed", orderID)
	}
	return func() { s.locks.Del(context.Background(), key) }, nil
}

func (s *PaymentService) publishCommitted(ctx context.Context, events []domain.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.PublishDomainEvents(ctx, events); err != nil {
		// The aggregate is committed; a lost audit record must not fail
		// the saga.
		s.logger.Error("Audit publish failed", zap.Error(err))
	}
}

func (s *PaymentService) publish(ctx context.Context, event messaging.Message) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Error("Integration publish failed",
			zap.String("event", event.EventName()),
			zap.Error(err),
		)
	}
}

func (s *PaymentService) publishRefused(ctx context.Context, orderID uuid.UUID, reason string) {
	s.publish(ctx, integration.PaymentRefusedIntegrationEvent{OrderID: orderID, Reason: reason})
}
