// Package integration defines the events exchanged with the order service
// and the background handler consuming them.
package integration

import "github.com/google/uuid"

const (
	EventOrderStarted       = "OrderStartedIntegrationEvent"
	EventOrderCanceled      = "OrderCanceledIntegrationEvent"
	EventOrderStockDeducted = "OrderStockDeductedIntegrationEvent"
	EventPaymentAuthorized  = "PaymentAuthorizedIntegrationEvent"
	EventPaymentRefused     = "PaymentRefusedIntegrationEvent"
	EventOrderPaid          = "OrderPaidIntegrationEvent"
)

// Refusal reasons carried by PaymentRefusedIntegrationEvent.
const (
	ReasonGatewayRefused    = "GatewayRefused"
	ReasonPersistenceFailed = "PersistenceFailed"
)

type OrderStartedIntegrationEvent struct {
	ClientID           uuid.UUID `json:"clientId"`
	OrderID            uuid.UUID `json:"orderId"`
	PaymentType        int       `json:"paymentType"`
	Value              float64   `json:"value"`
	CardName           string    `json:"cardName"`
	CardNumber         string    `json:"cardNumber"`
	CardExpirationDate string    `json:"cardExpirationDate"`
	CardCVV            string    `json:"cvvCard"`
}

func (e OrderStartedIntegrationEvent) EventName() string { return EventOrderStarted }

type OrderCanceledIntegrationEvent struct {
	ClientID uuid.UUID `json:"clientId"`
	OrderID  uuid.UUID `json:"orderId"`
}

func (e OrderCanceledIntegrationEvent) EventName() string { return EventOrderCanceled }

type OrderStockDeductedIntegrationEvent struct {
	ClientID uuid.UUID `json:"clientId"`
	OrderID  uuid.UUID `json:"orderId"`
}

func (e OrderStockDeductedIntegrationEvent) EventName() string { return EventOrderStockDeducted }

type PaymentAuthorizedIntegrationEvent struct {
	OrderID uuid.UUID `json:"orderId"`
}

func (e PaymentAuthorizedIntegrationEvent) EventName() string { return EventPaymentAuthorized }

type PaymentRefusedIntegrationEvent struct {
	OrderID uuid.UUID `json:"orderId"`
	Reason  string    `json:"reason"`
}

func (e PaymentRefusedIntegrationEvent) EventName() string { return EventPaymentRefused }

type OrderPaidIntegrationEvent struct {
	ClientID uuid.UUID `json:"clientId"`
	OrderID  uuid.UUID `json:"orderId"`
}

func (e OrderPaidIntegrationEvent) EventName() string { return EventOrderPaid }

// ResponseMessage is the RPC reply for OrderStarted authorization requests.
type ResponseMessage struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}
