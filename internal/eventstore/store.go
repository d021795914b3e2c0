package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ueslim/cloudgames-payments/internal/domain"
)

// StoredEvent is one immutable row of the event log. Rows for an aggregate
// are only ever appended.
type StoredEvent struct {
	ID          uuid.UUID       `json:"id"`
	AggregateID uuid.UUID       `json:"aggregateId"`
	MessageType string          `json:"messageType"`
	Data        json.RawMessage `json:"data"`
	User        string          `json:"user"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Repository is the durable storage of stored events. All returns rows
// unordered as stored; callers sort by Timestamp before use.
type Repository interface {
	Append(ctx context.Context, event StoredEvent) error
	All(ctx context.Context, aggregateID uuid.UUID) ([]StoredEvent, error)
}

// Principal identifies the acting user for event attribution.
type Principal interface {
	Name() string
	Email() string
}

// Store serializes domain events and appends them through a Repository.
// A write failure is fatal to the in-flight operation; it is never swallowed.
type Store struct {
	repo Repository
	user Principal
}

func NewStore(repo Repository, user Principal) *Store {
	return &Store{repo: repo, user: user}
}

func (s *Store) Save(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("Save: marshal %s: %w", event.Kind(), err)
	}

	stored := StoredEvent{
		ID:          uuid.New(),
		AggregateID: event.AggregateID(),
		MessageType: string(event.Kind()),
		Data:        data,
		User:        s.actor(),
		Timestamp:   time.Now().UTC(),
	}

	if err := s.repo.Append(ctx, stored); err != nil {
		return fmt.Errorf("Save: append %s: %w", event.Kind(), err)
	}
	return nil
}

// SaveAll appends events one at a time, stopping at the first failure.
// One event, one row, one commit.
func (s *Store) SaveAll(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		if err := s.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) All(ctx context.Context, aggregateID uuid.UUID) ([]StoredEvent, error) {
	return s.repo.All(ctx, aggregateID)
}

// actor resolves attribution: display name, then email, then "system".
func (s *Store) actor() string {
	if s.user != nil {
		if name := s.user.Name(); name != "" {
			return name
		}
		if email := s.user.Email(); email != "" {
			return email
		}
	}
	return "system"
}
