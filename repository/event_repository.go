package repository

import (
	"context"
	"errors"
	"fmt"

	"bookclub/database"
	"bookclub/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventRepository implements the EventRepository interface
type EventRepository struct {
	q queryable
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{q: db.Pool}
}

func newEventRepositoryWithTx(tx queryable) *EventRepository {
	return &EventRepository{q: tx}
}

const eventColumns = `id, title, content, date, location, max_participants, required_coins, price, event_type, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Content,
		&event.Date,
		&event.Location,
		&event.MaxParticipants,
		&event.RequiredCoins,
		&event.Price,
		&event.EventType,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.EventType == "" {
		event.EventType = models.DefaultEventType
	}

	query := `
		INSERT INTO events (id, title, content, date, location, max_participants, required_coins, price, event_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		event.ID,
		event.Title,
		event.Content,
		event.Date,
		event.Location,
		event.MaxParticipants,
		event.RequiredCoins,
		event.Price,
		event.EventType,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *EventRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.Event, error) {
	event, err := scanEvent(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return event, nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves an event and holds a row lock until the transaction ends
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

// List returns all events, soonest first
func (r *EventRepository) List(ctx context.Context) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY date ASC, created_at ASC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// Update persists all editable event fields
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET title = $2, content = $3, date = $4, location = $5, max_participants = $6,
		    required_coins = $7, price = $8, event_type = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		event.ID,
		event.Title,
		event.Content,
		event.Date,
		event.Location,
		event.MaxParticipants,
		event.RequiredCoins,
		event.Price,
		event.EventType,
	).Scan(&event.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("event %s not found", event.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", event.ID, err)
	}
	return nil
}

// Delete removes an event; its applications go with it via ON DELETE CASCADE
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountApplications returns how many applications the event currently has
func (r *EventRepository) CountApplications(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM event_applications WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications for event %s: %w", eventID, err)
	}
	return count, nil
}

// CountApplicationsByEvent returns application counts for every event that has any
func (r *EventRepository) CountApplicationsByEvent(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.q.Query(ctx, `SELECT event_id, COUNT(*) FROM event_applications GROUP BY event_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var eventID uuid.UUID
		var count int
		if err := rows.Scan(&eventID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan application count: %w", err)
		}
		counts[eventID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate application counts: %w", err)
	}
	return counts, nil
}
