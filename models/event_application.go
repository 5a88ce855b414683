package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus represents where an application sits in the approval lifecycle
type ApplicationStatus string

const (
	ApplicationStatusPending        ApplicationStatus = "PENDING"
	ApplicationStatusCoinGuaranteed ApplicationStatus = "COIN_GUARANTEED"
	ApplicationStatusApproved       ApplicationStatus = "APPROVED"
	ApplicationStatusConfirmed      ApplicationStatus = "CONFIRMED"
)

// IsSettled reports whether approval has already been applied
func (s ApplicationStatus) IsSettled() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusConfirmed
}

// AdminView hides coin guarantees from administrators
func (s ApplicationStatus) AdminView() ApplicationStatus {
	if s == ApplicationStatusCoinGuaranteed {
		return ApplicationStatusPending
	}
	return s
}

// EventApplication is a single user's application to an event
type EventApplication struct {
	ID                  uuid.UUID         `db:"id" json:"id"`
	EventID             uuid.UUID         `db:"event_id" json:"eventId"`
	UserID              uuid.UUID         `db:"user_id" json:"userId"`
	ApplicationOrder    int               `db:"application_order" json:"applicationOrder"`
	Status              ApplicationStatus `db:"status" json:"status"`
	UsedCoins           int64             `db:"used_coins" json:"usedCoins"`
	LibraryMessageCount int               `db:"library_message_count" json:"libraryMessageCount"`
	PaidAt              *time.Time        `db:"paid_at" json:"paidAt,omitempty"`
	ApprovedAt          *time.Time        `db:"approved_at" json:"approvedAt,omitempty"`
	CreatedAt           time.Time         `db:"created_at" json:"createdAt"`
}

// IsOverCapacity is derived from the fixed order and the event's current capacity
func (a *EventApplication) IsOverCapacity(maxParticipants int) bool {
	return a.ApplicationOrder > maxParticipants
}

// HasEscrow reports whether coins are held against this application
func (a *EventApplication) HasEscrow() bool {
	return a.UsedCoins > 0
}

// ApplicationWithUser joins an application with the applicant's profile
type ApplicationWithUser struct {
	EventApplication
	Username  string `db:"username"`
	DiscordID string `db:"discord_id"`
	IsTerras  bool   `db:"is_terras"`
}
