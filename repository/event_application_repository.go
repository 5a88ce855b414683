package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookclub/database"
	"bookclub/models"
	"bookclub/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const eventUserConstraint = "event_applications_event_user_key"

// EventApplicationRepository implements the EventApplicationRepository interface
type EventApplicationRepository struct {
	q queryable
}

// NewEventApplicationRepository creates a new event application repository
func NewEventApplicationRepository(db *database.DB) *EventApplicationRepository {
	return &EventApplicationRepository{q: db.Pool}
}

func newEventApplicationRepositoryWithTx(tx queryable) *EventApplicationRepository {
	return &EventApplicationRepository{q: tx}
}

const applicationColumns = `id, event_id, user_id, application_order, status, used_coins, library_message_count, paid_at, approved_at, created_at`

func scanApplication(row pgx.Row) (*models.EventApplication, error) {
	var app models.EventApplication
	err := row.Scan(
		&app.ID,
		&app.EventID,
		&app.UserID,
		&app.ApplicationOrder,
		&app.Status,
		&app.UsedCoins,
		&app.LibraryMessageCount,
		&app.PaidAt,
		&app.ApprovedAt,
		&app.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Create inserts an application. The (event_id, user_id) unique constraint
// turns a concurrent double apply into ErrDuplicateApplication.
func (r *EventApplicationRepository) Create(ctx context.Context, app *models.EventApplication) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}

	query := `
		INSERT INTO event_applications
		(id, event_id, user_id, application_order, status, used_coins, library_message_count, paid_at, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		app.ID,
		app.EventID,
		app.UserID,
		app.ApplicationOrder,
		app.Status,
		app.UsedCoins,
		app.LibraryMessageCount,
		app.PaidAt,
		app.ApprovedAt,
	).Scan(&app.CreatedAt)
	if isUniqueViolation(err, eventUserConstraint) {
		return service.ErrDuplicateApplication
	}
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (r *EventApplicationRepository) getOne(ctx context.Context, query string, args ...any) (*models.EventApplication, error) {
	app, err := scanApplication(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// GetByID retrieves an application by ID
func (r *EventApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EventApplication, error) {
	return r.getOne(ctx, `SELECT `+applicationColumns+` FROM event_applications WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves an application and locks it for the rest of the transaction
func (r *EventApplicationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EventApplication, error) {
	return r.getOne(ctx, `SELECT `+applicationColumns+` FROM event_applications WHERE id = $1 FOR UPDATE`, id)
}

// GetByEventAndUser retrieves the user's application to an event
func (r *EventApplicationRepository) GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.EventApplication, error) {
	return r.getOne(ctx,
		`SELECT `+applicationColumns+` FROM event_applications WHERE event_id = $1 AND user_id = $2`,
		eventID, userID)
}

// GetByEventAndUserForUpdate retrieves the user's application to an event and
// locks it until the transaction ends
func (r *EventApplicationRepository) GetByEventAndUserForUpdate(ctx context.Context, eventID, userID uuid.UUID) (*models.EventApplication, error) {
	return r.getOne(ctx,
		`SELECT `+applicationColumns+` FROM event_applications WHERE event_id = $1 AND user_id = $2 FOR UPDATE`,
		eventID, userID)
}

// ListEscrowedByEventForUpdate locks and returns the event's applications that still hold coins
func (r *EventApplicationRepository) ListEscrowedByEventForUpdate(ctx context.Context, eventID uuid.UUID) ([]*models.EventApplication, error) {
	query := `SELECT ` + applicationColumns + `
		FROM event_applications
		WHERE event_id = $1 AND used_coins > 0
		ORDER BY application_order ASC
		FOR UPDATE`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list escrowed applications for event %s: %w", eventID, err)
	}
	defer rows.Close()

	result := []*models.EventApplication{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		result = append(result, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return result, nil
}

// ListByEvent returns the event's applications joined with applicant details
func (r *EventApplicationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.ApplicationWithUser, error) {
	query := `
		SELECT a.id, a.event_id, a.user_id, a.application_order, a.status, a.used_coins,
		       a.library_message_count, a.paid_at, a.approved_at, a.created_at,
		       u.username, u.discord_id, u.is_terras
		FROM event_applications a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1
		ORDER BY a.application_order ASC, a.created_at ASC
	`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications for event %s: %w", eventID, err)
	}
	defer rows.Close()

	result := []*models.ApplicationWithUser{}
	for rows.Next() {
		var row models.ApplicationWithUser
		err := rows.Scan(
			&row.ID,
			&row.EventID,
			&row.UserID,
			&row.ApplicationOrder,
			&row.Status,
			&row.UsedCoins,
			&row.LibraryMessageCount,
			&row.PaidAt,
			&row.ApprovedAt,
			&row.CreatedAt,
			&row.Username,
			&row.DiscordID,
			&row.IsTerras,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		result = append(result, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return result, nil
}

// Update persists status, escrow and settlement timestamps.
// Order, event, user and the activity snapshot never change after insert.
func (r *EventApplicationRepository) Update(ctx context.Context, app *models.EventApplication) error {
	query := `
		UPDATE event_applications
		SET status = $2, used_coins = $3, paid_at = $4, approved_at = $5
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, app.ID, app.Status, app.UsedCoins, app.PaidAt, app.ApprovedAt)
	if err != nil {
		return fmt.Errorf("failed to update application %s: %w", app.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("application %s not found", app.ID)
	}
	return nil
}

// MarkConfirmed sets status CONFIRMED and the payment time. Escrow and approval
// fields are left as stored.
func (r *EventApplicationRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE event_applications SET status = $2, paid_at = $3 WHERE id = $1`,
		id, models.ApplicationStatusConfirmed, paidAt)
	if err != nil {
		return false, fmt.Errorf("failed to confirm application %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete hard-deletes an application
func (r *EventApplicationRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM event_applications WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete application %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
