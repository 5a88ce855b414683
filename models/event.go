package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultEventType is used when an event is created without a type
const DefaultEventType = "REGULAR"

// Event is a club meetup with limited capacity
type Event struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Content         string    `db:"content" json:"content"`
	Date            time.Time `db:"date" json:"date"`
	Location        string    `db:"location" json:"location"`
	MaxParticipants int       `db:"max_participants" json:"maxParticipants"`
	RequiredCoins   int64     `db:"required_coins" json:"requiredCoins"` // price of a capacity-overflow guarantee
	Price           int64     `db:"price" json:"price"`                  // fee in won
	EventType       string    `db:"event_type" json:"eventType"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// EventSummary is an event together with its live participant count
type EventSummary struct {
	*Event
	CurrentParticipants int `json:"currentParticipants"`
}

// NextOrder returns the order number the next application would receive
func (s *EventSummary) NextOrder() int {
	return s.CurrentParticipants + 1
}

// IsOverCapacity reports whether the given order falls outside the event capacity
func (e *Event) IsOverCapacity(order int) bool {
	return order > e.MaxParticipants
}
