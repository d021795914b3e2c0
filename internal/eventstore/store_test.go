package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ueslim/cloudgames-payments/internal/domain"
)

type fakeRepository struct {
	appended  []StoredEvent
	appendErr error
}

func (r *fakeRepository) Append(ctx context.Context, event StoredEvent) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.appended = append(r.appended, event)
	return nil
}

func (r *fakeRepository) All(ctx context.Context, aggregateID uuid.UUID) ([]StoredEvent, error) {
	var out []StoredEvent
	for _, e := range r.appended {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

type staticPrincipal struct {
	name  string
	email string
}

func (p staticPrincipal) Name() string  { return p.name }
func (p staticPrincipal) Email() string { return p.email }

func TestSave_WrapsEvent(t *testing.T) {
	repo := &fakeRepository{}
	store := NewStore(repo, staticPrincipal{name: "Jane"})

	event := domain.PaymentCreated{PaymentID: uuid.New(), OrderID: uuid.New(), Value: 99.9}
	require.NoError(t, store.Save(context.Background(), event))

	require.Len(t, repo.appended, 1)
	stored := repo.appended[0]

	assert.NotEqual(t, uuid.Nil, stored.ID)
	assert.Equal(t, event.PaymentID, stored.AggregateID)
	assert.Equal(t, "PaymentCreated", stored.MessageType)
	assert.Equal(t, "Jane", stored.User)
	assert.False(t, stored.Timestamp.IsZero())

	var decoded domain.PaymentCreated
	require.NoError(t, json.Unmarshal(stored.Data, &decoded))
	assert.Equal(t, event, decoded)
}

func TestSave_ActorResolution(t *testing.T) {
	tests := []struct {
		name string
		user Principal
		want string
	}{
		{"display name wins", staticPrincipal{name: "Jane", email: "jane@example.com"}, "Jane"},
		{"email fallback", staticPrincipal{email: "jane@example.com"}, "jane@example.com"},
		{"system fallback", staticPrincipal{}, "system"},
		{"nil principal", nil, "system"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepository{}
			store := NewStore(repo, tc.user)

			event := domain.PaymentCreated{PaymentID: uuid.New(), OrderID: uuid.New(), Value: 1}
			require.NoError(t, store.Save(context.Background(), event))
			assert.Equal(t, tc.want, repo.appended[0].User)
		})
	}
}

func TestSave_PropagatesAppendFailure(t *testing.T) {
	repo := &fakeRepository{appendErr: errors.New("disk full")}
	store := NewStore(repo, nil)

	err := store.Save(context.Background(), domain.PaymentCreated{PaymentID: uuid.New()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSaveAll_StopsAtFirstFailure(t *testing.T) {
	repo := &fakeRepository{}
	store := NewStore(repo, nil)
	paymentID := uuid.New()

	events := []domain.Event{
		domain.PaymentCreated{PaymentID: paymentID, OrderID: uuid.New(), Value: 10},
		domain.TransactionAdded{PaymentID: paymentID, TransactionID: uuid.New(), TotalValue: 10, Status: int(domain.StatusAuthorized)},
	}
	require.NoError(t, store.SaveAll(context.Background(), events))
	require.Len(t, repo.appended, 2)

	repo.appendErr = errors.New("write failed")
	err := store.SaveAll(context.Background(), events)
	require.Error(t, err)
	// No partial batch beyond the failure point.
	assert.Len(t, repo.appended, 2)
}

func TestAll_RoundTrip(t *testing.T) {
	repo := &fakeRepository{}
	store := NewStore(repo, nil)
	paymentID := uuid.New()

	require.NoError(t, store.Save(context.Background(), domain.PaymentCreated{PaymentID: paymentID, Value: 5}))
	require.NoError(t, store.Save(context.Background(), domain.PaymentCreated{PaymentID: uuid.New(), Value: 7}))

	events, err := store.All(context.Background(), paymentID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
