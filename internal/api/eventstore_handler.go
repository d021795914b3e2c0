package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ueslim/cloudgames-payments/internal/eventstore"
	"github.com/ueslim/cloudgames-payments/internal/replay"
)

// EventStoreHandler serves the introspection views over one aggregate's
// event log: raw events, replayed final state, step-by-step snapshots and
// the metadata timeline.
type EventStoreHandler struct {
	store      eventstore.Repository
	rehydrator *replay.Rehydrator
}

func NewEventStoreHandler(store eventstore.Repository, rehydrator *replay.Rehydrator) *EventStoreHandler {
	return &EventStoreHandler{store: store, rehydrator: rehydrator}
}

func (h *EventStoreHandler) load(c *gin.Context) ([]eventstore.StoredEvent, bool) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return nil, false
	}

	events, err := h.store.All(c.Request.Context(), paymentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return nil, false
	}
	if len(events) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No events found for payment " + paymentID.String()})
		return nil, false
	}
	return events, true
}

// GetByAggregateID returns the raw stored events in chronological order.
func (h *EventStoreHandler) GetByAggregateID(c *gin.Context) {
	events, ok := h.load(c)
	if !ok {
		return
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	c.JSON(http.StatusOK, events)
}

// Replay reconstructs and returns the final aggregate state.
func (h *EventStoreHandler) Replay(c *gin.Context) {
	events, ok := h.load(c)
	if !ok {
		return
	}

	payment := h.rehydrator.Rehydrate(events)

	// Events exist but none were decodable: distinct from not-found.
	if payment.ID == uuid.Nil && len(payment.Transactions) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Events exist but could not be parsed"})
		return
	}

	transactions := make([]gin.H, 0, len(payment.Transactions))
	for _, tx := range payment.Transactions {
		transactions = append(transactions, gin.H{
			"id":         tx.ID,
			"totalValue": tx.TotalValue,
			"status":     tx.Status.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentId":    payment.ID,
		"orderId":      payment.OrderID,
		"value":        payment.Value,
		"transactions": transactions,
	})
}

// ReplaySteps returns the aggregate state after each applied event.
func (h *EventStoreHandler) ReplaySteps(c *gin.Context) {
	events, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.rehydrator.ReplaySteps(events))
}

// Timeline returns event metadata only.
func (h *EventStoreHandler) Timeline(c *gin.Context) {
	events, ok := h.load(c)
	if !ok {
		return
	}

	items := h.rehydrator.BuildTimeline(events)
	if len(items) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Events exist but could not be parsed"})
		return
	}
	c.JSON(http.StatusOK, items)
}
