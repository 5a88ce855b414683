package service

import (
	"context"
	"errors"
	"fmt"

	"bookclub/events"
	"bookclub/models"

	"github.com/google/uuid"
)

// CoinRef links a ledger entry to the event and application that caused it
type CoinRef struct {
	EventID       *uuid.UUID
	ApplicationID *uuid.UUID
}

// DebitCoins atomically removes amount from the user's balance inside uow
// and records the change. A balance that would go negative yields an
// InsufficientCoinsError carrying the held amount.
func DebitCoins(ctx context.Context, uow UnitOfWork, user *models.User, amount int64, txType models.CoinTransactionType, ref CoinRef) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive")
	}

	balance, err := uow.UserRepository().DeductCoins(ctx, user.ID, amount)
	if errors.Is(err, ErrCoinBalanceTooLow) {
		return 0, &InsufficientCoinsError{Required: amount, Held: user.Coins}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct coins: %w", err)
	}

	history := &models.CoinHistory{
		UserID:          user.ID,
		ChangeAmount:    -amount,
		BalanceAfter:    balance,
		TransactionType: txType,
		EventID:         ref.EventID,
		ApplicationID:   ref.ApplicationID,
	}
	if err := RecordCoinChange(ctx, uow, history); err != nil {
		return 0, err
	}
	return balance, nil
}

// CreditCoins atomically adds amount to the user's balance inside uow and records the change
func CreditCoins(ctx context.Context, uow UnitOfWork, userID uuid.UUID, amount int64, txType models.CoinTransactionType, ref CoinRef) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive")
	}

	balance, err := uow.UserRepository().AddCoins(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to add coins: %w", err)
	}

	history := &models.CoinHistory{
		UserID:          userID,
		ChangeAmount:    amount,
		BalanceAfter:    balance,
		TransactionType: txType,
		EventID:         ref.EventID,
		ApplicationID:   ref.ApplicationID,
	}
	if err := RecordCoinChange(ctx, uow, history); err != nil {
		return 0, err
	}
	return balance, nil
}

// RecordCoinChange records a coin history entry and publishes the matching event.
// The event is only delivered if the unit of work commits.
func RecordCoinChange(ctx context.Context, uow UnitOfWork, history *models.CoinHistory) error {
	if err := uow.CoinHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record coin history: %w", err)
	}

	uow.EventBus().Publish(events.CoinBalanceChangedEvent{
		UserID:          history.UserID,
		ChangeAmount:    history.ChangeAmount,
		BalanceAfter:    history.BalanceAfter,
		TransactionType: history.TransactionType,
	})
	return nil
}
