package eventstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresRepository persists stored events in the stored_events table.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS stored_events (
			id UUID PRIMARY KEY,
			aggregate_id UUID NOT NULL,
			message_type VARCHAR(100) NOT NULL,
			data JSONB NOT NULL,
			event_user VARCHAR(255) NOT NULL DEFAULT 'system',
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stored_events_aggregate_id ON stored_events(aggregate_id)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

func (r *PostgresRepository) Append(ctx context.Context, event StoredEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stored_events (id, aggregate_id, message_type, data, event_user, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, event.AggregateID, event.MessageType, []byte(event.Data), event.User, event.Timestamp)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

func (r *PostgresRepository) All(ctx context.Context, aggregateID uuid.UUID) ([]StoredEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, message_type, data, event_user, timestamp
		FROM stored_events WHERE aggregate_id = $1
	`, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("All: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var data []byte
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.MessageType, &data, &e.User, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("All: scan: %w", err)
		}
		e.Data = data
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("All: rows: %w", err)
	}
	return events, nil
}
