package repository

import (
	"context"
	"fmt"
	"time"

	"bookclub/database"
	"bookclub/models"
)

// TableLogRepository implements the TableLogRepository interface
type TableLogRepository struct {
	q queryable
}

// NewTableLogRepository creates a new table log repository
func NewTableLogRepository(db *database.DB) *TableLogRepository {
	return &TableLogRepository{q: db.Pool}
}

func newTableLogRepositoryWithTx(tx queryable) *TableLogRepository {
	return &TableLogRepository{q: tx}
}

// Create stores a voice presence entry
func (r *TableLogRepository) Create(ctx context.Context, entry *models.TableLog) error {
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO table_logs (discord_user_id, type, channel_name, username, duration_minutes, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		entry.DiscordUserID,
		entry.Type,
		entry.ChannelName,
		entry.Username,
		entry.DurationMinutes,
		entry.LoggedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to create table log for %s: %w", entry.DiscordUserID, err)
	}
	return nil
}

// ListByDiscordUser returns the newest entries for a Discord user
func (r *TableLogRepository) ListByDiscordUser(ctx context.Context, discordUserID string, limit int) ([]*models.TableLog, error) {
	query := `
		SELECT id, discord_user_id, type, channel_name, username, duration_minutes, logged_at
		FROM table_logs
		WHERE discord_user_id = $1
		ORDER BY logged_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, discordUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list table logs for %s: %w", discordUserID, err)
	}
	defer rows.Close()

	logs := []*models.TableLog{}
	for rows.Next() {
		var entry models.TableLog
		err := rows.Scan(
			&entry.ID,
			&entry.DiscordUserID,
			&entry.Type,
			&entry.ChannelName,
			&entry.Username,
			&entry.DurationMinutes,
			&entry.LoggedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table log: %w", err)
		}
		logs = append(logs, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate table logs: %w", err)
	}
	return logs, nil
}

// Summarize totals leave durations and counts the distinct days with a session
func (r *TableLogRepository) Summarize(ctx context.Context, discordUserID string) (*models.VoiceSummary, error) {
	query := `
		SELECT COALESCE(SUM(duration_minutes), 0),
		       COUNT(DISTINCT (logged_at AT TIME ZONE 'UTC')::date)
		FROM table_logs
		WHERE discord_user_id = $1 AND type = $2
	`

	var summary models.VoiceSummary
	err := r.q.QueryRow(ctx, query, discordUserID, models.TableLogVoiceLeave).Scan(&summary.TotalMinutes, &summary.Days)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize table logs for %s: %w", discordUserID, err)
	}
	return &summary, nil
}
