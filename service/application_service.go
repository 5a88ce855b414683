package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookclub/events"
	"bookclub/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Eligibility is the read-only verdict shown before a user applies
type Eligibility struct {
	Eligible            bool                     `json:"eligible"`
	Reason              string                   `json:"reason,omitempty"`
	CurrentOrder        int                      `json:"currentOrder"`
	MaxParticipants     int                      `json:"maxParticipants"`
	IsOverCapacity      bool                     `json:"isOverCapacity"`
	RequiredCoins       int64                    `json:"requiredCoins"`
	UserCoins           int64                    `json:"userCoins"`
	Price               int64                    `json:"price"`
	EventType           string                   `json:"eventType"`
	IsTerras            bool                     `json:"isTerras"`
	IsFree              bool                     `json:"isFree"`
	LibraryMessageCount int                      `json:"libraryMessageCount"`
	AlreadyApplied      bool                     `json:"alreadyApplied"`
	ExistingStatus      models.ApplicationStatus `json:"existingStatus,omitempty"`
}

// ApplyResult describes a newly created application
type ApplyResult struct {
	Success             bool                     `json:"success"`
	ApplicationID       uuid.UUID                `json:"applicationId"`
	ApplicationOrder    int                      `json:"applicationOrder"`
	Status              models.ApplicationStatus `json:"status"`
	UsedCoins           int64                    `json:"usedCoins"`
	IsFree              bool                     `json:"isFree"`
	IsOverCapacity      bool                     `json:"isOverCapacity"`
	LibraryMessageCount int                      `json:"libraryMessageCount"`
	Message             string                   `json:"message"`
}

// ConfirmResult is returned by ConfirmPayment
type ConfirmResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CancelResult is returned by Cancel
type CancelResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	RefundedCoins int64  `json:"refundedCoins"`
}

// ApplicationView is one row of the admin applicant list.
// Coin guarantees are reported as PENDING.
type ApplicationView struct {
	ID                  uuid.UUID                `json:"id"`
	UserID              uuid.UUID                `json:"userId"`
	Username            string                   `json:"username"`
	DiscordID           string                   `json:"discordId"`
	ApplicationOrder    int                      `json:"applicationOrder"`
	Status              models.ApplicationStatus `json:"status"`
	IsOverCapacity      bool                     `json:"isOverCapacity"`
	LibraryMessageCount int                      `json:"libraryMessageCount"`
	CreatedAt           time.Time                `json:"createdAt"`
	IsTerras            bool                     `json:"isTerras"`
}

type applicationService struct {
	uowFactory UnitOfWorkFactory
	oracle     ActivityOracle
}

// NewApplicationService creates a new application service
func NewApplicationService(uowFactory UnitOfWorkFactory, oracle ActivityOracle) ApplicationService {
	return &applicationService{
		uowFactory: uowFactory,
		oracle:     oracle,
	}
}

// applicationSnapshot is the state read before deciding on an application
type applicationSnapshot struct {
	user     *models.User
	event    *models.Event
	count    int
	existing *models.EventApplication
}

// loadSnapshot reads user, event, current count and any existing application.
// The transaction is closed before returning so no lock is held across the oracle call.
func (s *applicationService) loadSnapshot(ctx context.Context, userID, eventID uuid.UUID) (*applicationSnapshot, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errUserNotFound()
	}

	event, err := uow.EventRepository().GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, errEventNotFound()
	}

	count, err := uow.EventRepository().CountApplications(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}

	existing, err := uow.EventApplicationRepository().GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}

	return &applicationSnapshot{user: user, event: event, count: count, existing: existing}, nil
}

func (s *applicationService) CheckEligibility(ctx context.Context, userID, eventID uuid.UUID) (*Eligibility, error) {
	snap, err := s.loadSnapshot(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	user, event := snap.user, snap.event
	currentOrder := snap.count + 1

	result := &Eligibility{
		CurrentOrder:    currentOrder,
		MaxParticipants: event.MaxParticipants,
		IsOverCapacity:  event.IsOverCapacity(currentOrder),
		RequiredCoins:   event.RequiredCoins,
		UserCoins:       user.Coins,
		Price:           event.Price,
		EventType:       event.EventType,
		IsTerras:        user.IsTerras,
		IsFree:          user.IsTerras,
	}

	// The duplicate check short-circuits before the external activity lookup
	if snap.existing != nil {
		result.Reason = msgAlreadyApplied
		result.AlreadyApplied = true
		result.CurrentOrder = snap.existing.ApplicationOrder
		result.IsOverCapacity = snap.existing.IsOverCapacity(event.MaxParticipants)
		result.ExistingStatus = snap.existing.Status
		result.LibraryMessageCount = snap.existing.LibraryMessageCount
		return result, nil
	}

	activity := s.oracle.CheckActivity(ctx, user.DiscordID)
	result.LibraryMessageCount = activity.MessageCount

	if !activity.HasActivity {
		result.Reason = msgActivityRequired
		return result, nil
	}

	result.Eligible = true
	return result, nil
}

func (s *applicationService) Apply(ctx context.Context, userID, eventID uuid.UUID, useCoins bool) (*ApplyResult, error) {
	snap, err := s.loadSnapshot(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if snap.existing != nil {
		return nil, &ConflictError{Message: msgAlreadyApplied}
	}

	activity := s.oracle.CheckActivity(ctx, snap.user.DiscordID)
	if !activity.HasActivity {
		return nil, &ForbiddenError{Message: msgActivityRequired}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Locking the event row serializes order assignment per event
	event, err := uow.EventRepository().GetByIDForUpdate(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	if event == nil {
		return nil, errEventNotFound()
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errUserNotFound()
	}

	existing, err := uow.EventApplicationRepository().GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}
	if existing != nil {
		return nil, &ConflictError{Message: msgAlreadyApplied}
	}

	count, err := uow.EventRepository().CountApplications(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}

	now := time.Now().UTC()
	app := &models.EventApplication{
		ID:                  uuid.New(),
		EventID:             eventID,
		UserID:              userID,
		ApplicationOrder:    count + 1,
		Status:              models.ApplicationStatusPending,
		LibraryMessageCount: activity.MessageCount,
	}

	guaranteed := false
	switch {
	case user.IsTerras:
		app.Status = models.ApplicationStatusConfirmed
		app.PaidAt = &now
	case useCoins:
		if !user.CanAfford(event.RequiredCoins) {
			return nil, &InsufficientCoinsError{Required: event.RequiredCoins, Held: user.Coins}
		}
		app.Status = models.ApplicationStatusCoinGuaranteed
		app.UsedCoins = event.RequiredCoins
		guaranteed = true
	}

	if err := uow.EventApplicationRepository().Create(ctx, app); err != nil {
		if errors.Is(err, ErrDuplicateApplication) {
			return nil, &ConflictError{Message: msgAlreadyApplied}
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	if guaranteed && app.UsedCoins > 0 {
		ref := CoinRef{EventID: &app.EventID, ApplicationID: &app.ID}
		if _, err := DebitCoins(ctx, uow, user, app.UsedCoins, models.CoinTransactionGuaranteeDebit, ref); err != nil {
			return nil, err
		}
	}

	overCapacity := event.IsOverCapacity(app.ApplicationOrder)
	uow.EventBus().Publish(events.ApplicationCreatedEvent{
		EventID:          eventID,
		UserID:           userID,
		ApplicationID:    app.ID,
		ApplicationOrder: app.ApplicationOrder,
		Status:           app.Status,
		UsedCoins:        app.UsedCoins,
		OverCapacity:     overCapacity,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID":          eventID,
		"userID":           userID,
		"applicationOrder": app.ApplicationOrder,
		"status":           app.Status,
		"usedCoins":        app.UsedCoins,
	}).Info("Application created")

	return &ApplyResult{
		Success:             true,
		ApplicationID:       app.ID,
		ApplicationOrder:    app.ApplicationOrder,
		Status:              app.Status,
		UsedCoins:           app.UsedCoins,
		IsFree:              user.IsTerras,
		IsOverCapacity:      overCapacity,
		LibraryMessageCount: app.LibraryMessageCount,
		Message:             applyMessage(app, user.IsTerras, guaranteed, overCapacity),
	}, nil
}

func applyMessage(app *models.EventApplication, isTerras, guaranteed, overCapacity bool) string {
	switch {
	case isTerras:
		return fmt.Sprintf("%d번째로 신청 완료되었습니다. (테라스 멤버 무료)", app.ApplicationOrder)
	case guaranteed:
		return fmt.Sprintf("%d번째로 신청되었습니다. 코인 %d개를 사용하여 정원 외 보장됩니다.", app.ApplicationOrder, app.UsedCoins)
	case overCapacity:
		return fmt.Sprintf("%d번째로 신청되었습니다. 정원 초과이므로 관리자 승인 후 결제 안내를 받으실 수 있습니다.", app.ApplicationOrder)
	default:
		return fmt.Sprintf("%d번째로 신청되었습니다. 관리자 승인 후 결제 안내를 받으실 수 있습니다.", app.ApplicationOrder)
	}
}

func (s *applicationService) ConfirmPayment(ctx context.Context, userID, eventID uuid.UUID) (*ConfirmResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	app, err := uow.EventApplicationRepository().GetByEventAndUserForUpdate(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return nil, errApplicationNotFound()
	}

	// Confirmation never touches the escrow, which belongs to approval and cancel
	confirmed, err := uow.EventApplicationRepository().MarkConfirmed(ctx, app.ID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	if !confirmed {
		return nil, errApplicationNotFound()
	}

	uow.EventBus().Publish(events.PaymentConfirmedEvent{
		EventID:       eventID,
		UserID:        userID,
		ApplicationID: app.ID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &ConfirmResult{Success: true, Message: "결제가 완료되었습니다."}, nil
}

func (s *applicationService) Cancel(ctx context.Context, userID, eventID uuid.UUID) (*CancelResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// The row lock orders this cancel after any approval already holding the
	// application, so UsedCoins is read after that approval's refund.
	app, err := uow.EventApplicationRepository().GetByEventAndUserForUpdate(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return nil, errApplicationNotFound()
	}

	deleted, err := uow.EventApplicationRepository().Delete(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete application: %w", err)
	}
	if !deleted {
		return nil, errApplicationNotFound()
	}

	if app.HasEscrow() {
		ref := CoinRef{EventID: &app.EventID, ApplicationID: &app.ID}
		if _, err := CreditCoins(ctx, uow, userID, app.UsedCoins, models.CoinTransactionCancelRefund, ref); err != nil {
			return nil, err
		}
	}

	uow.EventBus().Publish(events.ApplicationCancelledEvent{
		EventID:       eventID,
		UserID:        userID,
		ApplicationID: app.ID,
		RefundedCoins: app.UsedCoins,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	message := "신청이 취소되었습니다."
	if app.HasEscrow() {
		message = fmt.Sprintf("신청이 취소되었습니다. 코인 %d개가 환불되었습니다.", app.UsedCoins)
	}

	return &CancelResult{Success: true, Message: message, RefundedCoins: app.UsedCoins}, nil
}

func (s *applicationService) ListApplications(ctx context.Context, eventID uuid.UUID) ([]*ApplicationView, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, errEventNotFound()
	}

	rows, err := uow.EventApplicationRepository().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	views := make([]*ApplicationView, 0, len(rows))
	for _, row := range rows {
		views = append(views, &ApplicationView{
			ID:                  row.ID,
			UserID:              row.UserID,
			Username:            row.Username,
			DiscordID:           row.DiscordID,
			ApplicationOrder:    row.ApplicationOrder,
			Status:              row.Status.AdminView(),
			IsOverCapacity:      row.IsOverCapacity(event.MaxParticipants),
			LibraryMessageCount: row.LibraryMessageCount,
			CreatedAt:           row.CreatedAt,
			IsTerras:            row.IsTerras,
		})
	}

	return views, nil
}
