package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ueslim/cloudgames-payments/internal/domain"
	"github.com/ueslim/cloudgames-payments/internal/eventstore"
	"github.com/ueslim/cloudgames-payments/internal/replay"
)

type fakeEventRepo struct {
	events map[uuid.UUID][]eventstore.StoredEvent
}

func (r *fakeEventRepo) Append(ctx context.Context, event eventstore.StoredEvent) error {
	return nil
}

func (r *fakeEventRepo) All(ctx context.Context, aggregateID uuid.UUID) ([]eventstore.StoredEvent, error) {
	return r.events[aggregateID], nil
}

func setupEventStoreRouter(repo *fakeEventRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewEventStoreHandler(repo, replay.NewRehydrator(nil))
	r.GET("/eventstore/:id", h.GetByAggregateID)
	r.GET("/eventstore/:id/replay", h.Replay)
	r.GET("/eventstore/:id/replay/steps", h.ReplaySteps)
	r.GET("/eventstore/:id/timeline", h.Timeline)
	return r
}

func storedEvent(t *testing.T, event domain.Event, at time.Time) eventstore.StoredEvent {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return eventstore.StoredEvent{
		ID:          uuid.New(),
		AggregateID: event.AggregateID(),
		MessageType: string(event.Kind()),
		Data:        data,
		User:        "system",
		Timestamp:   at,
	}
}

func seededRepo(t *testing.T) (*fakeEventRepo, uuid.UUID, uuid.UUID) {
	t.Helper()
	paymentID, orderID, txID := uuid.New(), uuid.New(), uuid.New()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	repo := &fakeEventRepo{events: map[uuid.UUID][]eventstore.StoredEvent{
		paymentID: {
			storedEvent(t, domain.PaymentCreated{PaymentID: paymentID, OrderID: orderID, Value: 100}, at),
			storedEvent(t, domain.TransactionAdded{PaymentID: paymentID, TransactionID: txID, TotalValue: 100, Status: int(domain.StatusAuthorized)}, at.Add(time.Second)),
			storedEvent(t, domain.TransactionCaptured{PaymentID: paymentID, TransactionID: txID, Value: 100}, at.Add(2*time.Second)),
		},
	}}
	return repo, paymentID, orderID
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetByAggregateID_ReturnsOrderedEvents(t *testing.T) {
	repo, paymentID, _ := seededRepo(t)
	router := setupEventStoreRouter(repo)

	w := get(router, "/eventstore/"+paymentID.String())

	require.Equal(t, http.StatusOK, w.Code)

	var events []eventstore.StoredEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 3)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp))
	}
}

func TestGetByAggregateID_NotFound(t *testing.T) {
	router := setupEventStoreRouter(&fakeEventRepo{events: map[uuid.UUID][]eventstore.StoredEvent{}})

	w := get(router, "/eventstore/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetByAggregateID_InvalidID(t *testing.T) {
	router := setupEventStoreRouter(&fakeEventRepo{events: map[uuid.UUID][]eventstore.StoredEvent{}})

	w := get(router, "/eventstore/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplay_ReturnsFinalState(t *testing.T) {
	repo, paymentID, orderID := seededRepo(t)
	router := setupEventStoreRouter(repo)

	w := get(router, "/eventstore/"+paymentID.String()+"/replay")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		PaymentID    uuid.UUID `json:"paymentId"`
		OrderID      uuid.UUID `json:"orderId"`
		Value        float64   `json:"value"`
		Transactions []struct {
			Status string `json:"status"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, paymentID, body.PaymentID)
	assert.Equal(t, orderID, body.OrderID)
	assert.Equal(t, 100.0, body.Value)
	require.Len(t, body.Transactions, 1)
	assert.Equal(t, "Paid", body.Transactions[0].Status)
}

func TestReplay_UnparseableEventsAreNotNotFound(t *testing.T) {
	paymentID := uuid.New()
	repo := &fakeEventRepo{events: map[uuid.UUID][]eventstore.StoredEvent{
		paymentID: {{
			ID:          uuid.New(),
			AggregateID: paymentID,
			MessageType: "SomethingUnknown",
			Data:        json.RawMessage(`{}`),
			Timestamp:   time.Now(),
		}},
	}}
	router := setupEventStoreRouter(repo)

	w := get(router, "/eventstore/"+paymentID.String()+"/replay")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReplaySteps_ReturnsAllSteps(t *testing.T) {
	repo, paymentID, _ := seededRepo(t)
	router := setupEventStoreRouter(repo)

	w := get(router, "/eventstore/"+paymentID.String()+"/replay/steps")

	require.Equal(t, http.StatusOK, w.Code)

	var steps []replay.Step
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &steps))
	assert.Len(t, steps, 3)
}

func TestTimeline_ReturnsMetadata(t *testing.T) {
	repo, paymentID, _ := seededRepo(t)
	router := setupEventStoreRouter(repo)

	w := get(router, "/eventstore/"+paymentID.String()+"/timeline")

	require.Equal(t, http.StatusOK, w.Code)

	var items []replay.TimelineItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 3)
	assert.Equal(t, "PaymentCreated", items[0].Event)
}
