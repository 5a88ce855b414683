package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookclub/events"
	"bookclub/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventInput is the payload for creating an event
type EventInput struct {
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Date            time.Time `json:"date"`
	Location        string    `json:"location"`
	MaxParticipants int       `json:"maxParticipants"`
	RequiredCoins   int64     `json:"requiredCoins"`
	Price           int64     `json:"price"`
	EventType       string    `json:"eventType"`
}

// EventPatch carries optional field updates; nil fields are left unchanged
type EventPatch struct {
	Title           *string    `json:"title"`
	Content         *string    `json:"content"`
	Date            *time.Time `json:"date"`
	Location        *string    `json:"location"`
	MaxParticipants *int       `json:"maxParticipants"`
	RequiredCoins   *int64     `json:"requiredCoins"`
	Price           *int64     `json:"price"`
	EventType       *string    `json:"eventType"`
}

type eventService struct {
	uowFactory UnitOfWorkFactory
}

// NewEventService creates a new event service
func NewEventService(uowFactory UnitOfWorkFactory) EventService {
	return &eventService{uowFactory: uowFactory}
}

func validateEvent(event *models.Event) error {
	if strings.TrimSpace(event.Title) == "" {
		return &ValidationError{Message: "title is required"}
	}
	if event.MaxParticipants < 1 {
		return &ValidationError{Message: "maxParticipants must be at least 1"}
	}
	if event.RequiredCoins < 0 {
		return &ValidationError{Message: "requiredCoins cannot be negative"}
	}
	if event.Price < 0 {
		return &ValidationError{Message: "price cannot be negative"}
	}
	return nil
}

func (s *eventService) Create(ctx context.Context, input EventInput) (*models.Event, error) {
	event := &models.Event{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(input.Title),
		Content:         input.Content,
		Date:            input.Date,
		Location:        input.Location,
		MaxParticipants: input.MaxParticipants,
		RequiredCoins:   input.RequiredCoins,
		Price:           input.Price,
		EventType:       input.EventType,
	}
	if event.EventType == "" {
		event.EventType = models.DefaultEventType
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.EventRepository().Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID":         event.ID,
		"title":           event.Title,
		"maxParticipants": event.MaxParticipants,
	}).Info("Event created")

	return event, nil
}

func (s *eventService) Get(ctx context.Context, id uuid.UUID) (*models.EventSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, errEventNotFound()
	}

	count, err := uow.EventRepository().CountApplications(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}

	return &models.EventSummary{Event: event, CurrentParticipants: count}, nil
}

func (s *eventService) List(ctx context.Context) ([]*models.EventSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	list, err := uow.EventRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	counts, err := uow.EventRepository().CountApplicationsByEvent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}

	summaries := make([]*models.EventSummary, 0, len(list))
	for _, event := range list {
		summaries = append(summaries, &models.EventSummary{
			Event:               event,
			CurrentParticipants: counts[event.ID],
		})
	}
	return summaries, nil
}

func (s *eventService) Update(ctx context.Context, id uuid.UUID, patch EventPatch) (*models.Event, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, errEventNotFound()
	}

	if patch.Title != nil {
		event.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		event.Content = *patch.Content
	}
	if patch.Date != nil {
		event.Date = *patch.Date
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.MaxParticipants != nil {
		event.MaxParticipants = *patch.MaxParticipants
	}
	if patch.RequiredCoins != nil {
		event.RequiredCoins = *patch.RequiredCoins
	}
	if patch.Price != nil {
		event.Price = *patch.Price
	}
	if patch.EventType != nil && *patch.EventType != "" {
		event.EventType = *patch.EventType
	}

	if err := validateEvent(event); err != nil {
		return nil, err
	}

	if err := uow.EventRepository().Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return event, nil
}

func (s *eventService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Locking the event keeps new guarantees out until the delete commits
	event, err := uow.EventRepository().GetByIDForUpdate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return errEventNotFound()
	}

	refunded, err := refundEscrow(ctx, uow, event.ID)
	if err != nil {
		return err
	}

	deleted, err := uow.EventRepository().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if !deleted {
		return errEventNotFound()
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID":      id,
		"refundedApps": refunded,
	}).Info("Event deleted")
	return nil
}

// refundEscrow returns held coins for every application of the event before
// the cascade removes them. It returns the number of applications refunded.
func refundEscrow(ctx context.Context, uow UnitOfWork, eventID uuid.UUID) (int, error) {
	escrowed, err := uow.EventApplicationRepository().ListEscrowedByEventForUpdate(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to list escrowed applications: %w", err)
	}

	for _, app := range escrowed {
		ref := CoinRef{EventID: &app.EventID, ApplicationID: &app.ID}
		if _, err := CreditCoins(ctx, uow, app.UserID, app.UsedCoins, models.CoinTransactionCancelRefund, ref); err != nil {
			return 0, err
		}
		uow.EventBus().Publish(events.ApplicationCancelledEvent{
			EventID:       app.EventID,
			UserID:        app.UserID,
			ApplicationID: app.ID,
			RefundedCoins: app.UsedCoins,
		})
	}
	return len(escrowed), nil
}
