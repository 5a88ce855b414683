package models

import (
	"time"

	"github.com/google/uuid"
)

// CoinTransactionType represents the reason for a coin balance change
type CoinTransactionType string

const (
	CoinTransactionInitial        CoinTransactionType = "initial"
	CoinTransactionGuaranteeDebit CoinTransactionType = "guarantee_debit"
	CoinTransactionApprovalRefund CoinTransactionType = "approval_refund"
	CoinTransactionCancelRefund   CoinTransactionType = "cancel_refund"
)

// CoinHistory is an append-only record of a coin ledger mutation
type CoinHistory struct {
	ID              int64               `db:"id" json:"id"`
	UserID          uuid.UUID           `db:"user_id" json:"userId"`
	ChangeAmount    int64               `db:"change_amount" json:"changeAmount"`
	BalanceAfter    int64               `db:"balance_after" json:"balanceAfter"`
	TransactionType CoinTransactionType `db:"transaction_type" json:"transactionType"`
	EventID         *uuid.UUID          `db:"event_id" json:"eventId,omitempty"`
	ApplicationID   *uuid.UUID          `db:"application_id" json:"applicationId,omitempty"`
	CreatedAt       time.Time           `db:"created_at" json:"createdAt"`
}
