package events

import (
	"context"
	"sync"

	"bookclub/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeApplicationCreated   EventType = "application_created"
	EventTypeApplicationApproved  EventType = "application_approved"
	EventTypePaymentConfirmed     EventType = "payment_confirmed"
	EventTypeApplicationCancelled EventType = "application_cancelled"
	EventTypeCoinBalanceChanged   EventType = "coin_balance_changed"
	EventTypeNotificationSent     EventType = "notification_sent"
	EventTypeUserSynced           EventType = "user_synced"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ApplicationCreatedEvent is emitted once an application row is committed
type ApplicationCreatedEvent struct {
	EventID          uuid.UUID
	UserID           uuid.UUID
	ApplicationID    uuid.UUID
	ApplicationOrder int
	Status           models.ApplicationStatus
	UsedCoins        int64
	OverCapacity     bool
}

func (e ApplicationCreatedEvent) Type() EventType {
	return EventTypeApplicationCreated
}

// ApplicationApprovedEvent is emitted for every application moved to APPROVED or CONFIRMED
type ApplicationApprovedEvent struct {
	EventID       uuid.UUID
	UserID        uuid.UUID
	ApplicationID uuid.UUID
	NewStatus     models.ApplicationStatus
	RefundedCoins int64
}

func (e ApplicationApprovedEvent) Type() EventType {
	return EventTypeApplicationApproved
}

// PaymentConfirmedEvent is emitted when a payment is marked as received
type PaymentConfirmedEvent struct {
	EventID       uuid.UUID
	UserID        uuid.UUID
	ApplicationID uuid.UUID
}

func (e PaymentConfirmedEvent) Type() EventType {
	return EventTypePaymentConfirmed
}

// ApplicationCancelledEvent is emitted after an application is deleted
type ApplicationCancelledEvent struct {
	EventID       uuid.UUID
	UserID        uuid.UUID
	ApplicationID uuid.UUID
	RefundedCoins int64
}

func (e ApplicationCancelledEvent) Type() EventType {
	return EventTypeApplicationCancelled
}

// CoinBalanceChangedEvent mirrors a coin ledger entry
type CoinBalanceChangedEvent struct {
	UserID          uuid.UUID
	ChangeAmount    int64
	BalanceAfter    int64
	TransactionType models.CoinTransactionType
}

func (e CoinBalanceChangedEvent) Type() EventType {
	return EventTypeCoinBalanceChanged
}

// NotificationSentEvent reports the outcome of a payment DM
type NotificationSentEvent struct {
	EventID   uuid.UUID
	UserID    uuid.UUID
	DiscordID string
	Success   bool
}

func (e NotificationSentEvent) Type() EventType {
	return EventTypeNotificationSent
}

// UserSyncedEvent is emitted when a Discord member is created or refreshed
type UserSyncedEvent struct {
	UserID    uuid.UUID
	DiscordID string
	Role      models.UserRole
	IsTerras  bool
	IsNew     bool
}

func (e UserSyncedEvent) Type() EventType {
	return EventTypeUserSynced
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers.
// Handlers run in their own goroutines; a panicking handler is logged and dropped.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending returns the number of buffered events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush is called after a successful commit.
// Emission uses a background context since the request context may already be done.
func (b *TransactionalBus) Flush() {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing transactional bus")

	for _, ev := range b.pending {
		b.real.Emit(context.Background(), ev)
	}
	b.pending = nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
