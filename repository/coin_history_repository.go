package repository

import (
	"context"
	"fmt"

	"bookclub/database"
	"bookclub/models"

	"github.com/google/uuid"
)

// CoinHistoryRepository implements the CoinHistoryRepository interface
type CoinHistoryRepository struct {
	q queryable
}

// NewCoinHistoryRepository creates a new coin history repository
func NewCoinHistoryRepository(db *database.DB) *CoinHistoryRepository {
	return &CoinHistoryRepository{q: db.Pool}
}

func newCoinHistoryRepositoryWithTx(tx queryable) *CoinHistoryRepository {
	return &CoinHistoryRepository{q: tx}
}

// Record appends a ledger entry
func (r *CoinHistoryRepository) Record(ctx context.Context, history *models.CoinHistory) error {
	query := `
		INSERT INTO coin_history
		(user_id, change_amount, balance_after, transaction_type, event_id, application_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		history.UserID,
		history.ChangeAmount,
		history.BalanceAfter,
		history.TransactionType,
		history.EventID,
		history.ApplicationID,
	).Scan(&history.ID, &history.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record coin history for user %s: %w", history.UserID, err)
	}
	return nil
}

// ListByUser returns the user's most recent ledger entries
func (r *CoinHistoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.CoinHistory, error) {
	query := `
		SELECT id, user_id, change_amount, balance_after, transaction_type, event_id, application_id, created_at
		FROM coin_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get coin history for user %s: %w", userID, err)
	}
	defer rows.Close()

	histories := []*models.CoinHistory{}
	for rows.Next() {
		var history models.CoinHistory
		err := rows.Scan(
			&history.ID,
			&history.UserID,
			&history.ChangeAmount,
			&history.BalanceAfter,
			&history.TransactionType,
			&history.EventID,
			&history.ApplicationID,
			&history.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coin history: %w", err)
		}
		histories = append(histories, &history)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coin history: %w", err)
	}
	return histories, nil
}
