package service

import (
	"context"
	"time"

	"bookclub/events"
	"bookclub/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by primary key, nil if absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByDiscordID retrieves a user by their Discord ID, nil if absent
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)

	// Create inserts a new user including the initial coin balance
	Create(ctx context.Context, user *models.User) error

	// UpdateProfile updates username, email, role and terras flag. Coins are never touched.
	UpdateProfile(ctx context.Context, user *models.User) error

	// AddCoins atomically increments the coin balance and returns the new balance
	AddCoins(ctx context.Context, id uuid.UUID, amount int64) (int64, error)

	// DeductCoins atomically decrements the coin balance, failing with
	// ErrCoinBalanceTooLow instead of going negative
	DeductCoins(ctx context.Context, id uuid.UUID, amount int64) (int64, error)
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)

	// GetByIDForUpdate locks the event row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error)

	List(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error

	// Delete removes the event and its applications; false if nothing was deleted
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// CountApplications returns the number of applications currently stored for the event
	CountApplications(ctx context.Context, eventID uuid.UUID) (int, error)

	// CountApplicationsByEvent returns application counts keyed by event ID
	CountApplicationsByEvent(ctx context.Context) (map[uuid.UUID]int, error)
}

// EventApplicationRepository defines the interface for event application data access
type EventApplicationRepository interface {
	// Create inserts an application, failing with ErrDuplicateApplication
	// when the (event, user) pair already exists
	Create(ctx context.Context, app *models.EventApplication) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.EventApplication, error)

	// GetByIDForUpdate locks the application row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EventApplication, error)

	GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.EventApplication, error)

	// GetByEventAndUserForUpdate locks the user's application row until the transaction ends
	GetByEventAndUserForUpdate(ctx context.Context, eventID, userID uuid.UUID) (*models.EventApplication, error)

	// ListEscrowedByEventForUpdate locks the event's applications with used_coins > 0
	ListEscrowedByEventForUpdate(ctx context.Context, eventID uuid.UUID) ([]*models.EventApplication, error)

	// ListByEvent returns applications joined with their users, ordered by application order
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.ApplicationWithUser, error)

	// Update persists status, coin escrow and settlement timestamps
	Update(ctx context.Context, app *models.EventApplication) error

	// MarkConfirmed only touches status and paid_at; false if the row is gone
	MarkConfirmed(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)

	// Delete hard-deletes the application; false if it no longer existed
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// CoinHistoryRepository defines the interface for coin ledger history
type CoinHistoryRepository interface {
	Record(ctx context.Context, history *models.CoinHistory) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.CoinHistory, error)
}

// TableLogRepository defines the interface for voice presence logs
type TableLogRepository interface {
	Create(ctx context.Context, entry *models.TableLog) error
	ListByDiscordUser(ctx context.Context, discordUserID string, limit int) ([]*models.TableLog, error)

	// Summarize totals completed sessions for a Discord user
	Summarize(ctx context.Context, discordUserID string) (*models.VoiceSummary, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// EventEmitter publishes events outside of a transaction
type EventEmitter interface {
	Emit(ctx context.Context, event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	EventRepository() EventRepository
	EventApplicationRepository() EventApplicationRepository
	CoinHistoryRepository() CoinHistoryRepository
	TableLogRepository() TableLogRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// ActivityResult is a user's library activity in the current month
type ActivityResult struct {
	HasActivity  bool `json:"hasActivity"`
	MessageCount int  `json:"messageCount"`
}

// ActivityOracle reports whether a Discord user has qualifying library activity.
// Implementations never return errors: a degraded upstream yields HasActivity=true.
type ActivityOracle interface {
	CheckActivity(ctx context.Context, discordUserID string) ActivityResult
}

// PaymentNotice carries everything a payment DM needs
type PaymentNotice struct {
	DiscordID        string
	UserID           uuid.UUID
	EventID          uuid.UUID
	EventTitle       string
	Price            int64
	ApplicationOrder int
	RefundedCoins    int64
}

// PaymentNotifier delivers payment instructions to an approved applicant
type PaymentNotifier interface {
	SendPaymentNotice(ctx context.Context, notice PaymentNotice) error
}

// ApplicationService covers the member-facing application lifecycle
type ApplicationService interface {
	// CheckEligibility is a read-only projection of whether the user may apply
	CheckEligibility(ctx context.Context, userID, eventID uuid.UUID) (*Eligibility, error)

	// Apply creates the user's application for the event
	Apply(ctx context.Context, userID, eventID uuid.UUID, useCoins bool) (*ApplyResult, error)

	// ConfirmPayment marks the user's application as paid and confirmed
	ConfirmPayment(ctx context.Context, userID, eventID uuid.UUID) (*ConfirmResult, error)

	// Cancel refunds escrowed coins and deletes the application
	Cancel(ctx context.Context, userID, eventID uuid.UUID) (*CancelResult, error)

	// ListApplications returns the admin view of an event's applicants
	ListApplications(ctx context.Context, eventID uuid.UUID) ([]*ApplicationView, error)
}

// ApprovalService settles applications in bulk
type ApprovalService interface {
	Approve(ctx context.Context, eventID uuid.UUID, applicationIDs []uuid.UUID) (*ApprovalResult, error)
}

// EventService manages events
type EventService interface {
	Create(ctx context.Context, input EventInput) (*models.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*models.EventSummary, error)
	List(ctx context.Context) ([]*models.EventSummary, error)
	Update(ctx context.Context, id uuid.UUID, patch EventPatch) (*models.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserService manages club members
type UserService interface {
	// SyncMember creates or refreshes a user from their Discord membership
	SyncMember(ctx context.Context, profile MemberProfile) (*models.User, bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	CoinHistory(ctx context.Context, id uuid.UUID, limit int) ([]*models.CoinHistory, error)
}

// VoiceActivityService persists voice channel presence
type VoiceActivityService interface {
	RecordJoin(ctx context.Context, discordUserID, username, channelName string) error
	RecordLeave(ctx context.Context, discordUserID, username, channelName string, duration time.Duration) error
	RecentLogs(ctx context.Context, discordUserID string, limit int) ([]*models.TableLog, error)
	Summary(ctx context.Context, discordUserID string) (*models.VoiceSummary, error)
}
