package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"bookclub/events"
	"bookclub/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentDMs bounds the number of payment DMs in flight per approval batch
const maxConcurrentDMs = 5

const defaultDMTimeout = 10 * time.Second

// CoinRefund describes coins returned to a guaranteed applicant on approval
type CoinRefund struct {
	UserID    uuid.UUID `json:"userId"`
	DiscordID string    `json:"discordId"`
	Coins     int64     `json:"coins"`
}

// ApprovalResult summarizes a bulk approval
type ApprovalResult struct {
	Success     bool          `json:"success"`
	Approved    int           `json:"approved"`
	DMSent      int           `json:"dmSent"`
	CoinRefunds []*CoinRefund `json:"coinRefunded"`
}

// approvalOutcome is one settled application waiting for its payment DM
type approvalOutcome struct {
	app       *models.EventApplication
	user      *models.User
	refunded  int64
	confirmed bool
}

type approvalService struct {
	uowFactory UnitOfWorkFactory
	notifier   PaymentNotifier
	emitter    EventEmitter
	dmTimeout  time.Duration
}

// NewApprovalService creates a new approval service.
// notifier may be nil when the bot is disabled; DMs are then skipped.
func NewApprovalService(uowFactory UnitOfWorkFactory, notifier PaymentNotifier, emitter EventEmitter, dmTimeout time.Duration) ApprovalService {
	if dmTimeout <= 0 {
		dmTimeout = defaultDMTimeout
	}
	return &approvalService{
		uowFactory: uowFactory,
		notifier:   notifier,
		emitter:    emitter,
		dmTimeout:  dmTimeout,
	}
}

func (s *approvalService) Approve(ctx context.Context, eventID uuid.UUID, applicationIDs []uuid.UUID) (*ApprovalResult, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	result := &ApprovalResult{Success: true, CoinRefunds: []*CoinRefund{}}
	var outcomes []*approvalOutcome

	// Each application settles in its own transaction so one failure does not undo the batch
	for _, appID := range applicationIDs {
		outcome, err := s.approveOne(ctx, eventID, appID)
		if err != nil {
			log.WithFields(log.Fields{
				"eventID":       eventID,
				"applicationID": appID,
				"error":         err,
			}).Error("Failed to approve application")
			continue
		}
		if outcome == nil {
			continue
		}

		result.Approved++
		outcomes = append(outcomes, outcome)
		if outcome.refunded > 0 {
			result.CoinRefunds = append(result.CoinRefunds, &CoinRefund{
				UserID:    outcome.user.ID,
				DiscordID: outcome.user.DiscordID,
				Coins:     outcome.refunded,
			})
		}
	}

	result.DMSent = s.sendPaymentNotices(ctx, event, outcomes)

	log.WithFields(log.Fields{
		"eventID":   eventID,
		"requested": len(applicationIDs),
		"approved":  result.Approved,
		"dmSent":    result.DMSent,
		"refunds":   len(result.CoinRefunds),
	}).Info("Approval batch processed")

	return result, nil
}

func (s *approvalService) loadEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
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
	return event, nil
}

// approveOne settles a single application. A nil outcome means the id was skipped.
func (s *approvalService) approveOne(ctx context.Context, eventID, appID uuid.UUID) (*approvalOutcome, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	app, err := uow.EventApplicationRepository().GetByIDForUpdate(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock application: %w", err)
	}
	if app == nil || app.EventID != eventID || app.Status.IsSettled() {
		return nil, nil
	}

	user, err := uow.UserRepository().GetByID(ctx, app.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	refunded := app.UsedCoins
	if refunded > 0 {
		ref := CoinRef{EventID: &app.EventID, ApplicationID: &app.ID}
		if _, err := CreditCoins(ctx, uow, user.ID, refunded, models.CoinTransactionApprovalRefund, ref); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	app.ApprovedAt = &now
	app.UsedCoins = 0
	if user.IsTerras {
		app.Status = models.ApplicationStatusConfirmed
		app.PaidAt = &now
	} else {
		app.Status = models.ApplicationStatusApproved
	}

	if err := uow.EventApplicationRepository().Update(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	uow.EventBus().Publish(events.ApplicationApprovedEvent{
		EventID:       eventID,
		UserID:        user.ID,
		ApplicationID: app.ID,
		NewStatus:     app.Status,
		RefundedCoins: refunded,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &approvalOutcome{
		app:       app,
		user:      user,
		refunded:  refunded,
		confirmed: user.IsTerras,
	}, nil
}

// sendPaymentNotices delivers DMs after all approvals committed. Failures are
// logged and counted as unsent; they never affect approval state.
func (s *approvalService) sendPaymentNotices(ctx context.Context, event *models.Event, outcomes []*approvalOutcome) int {
	if s.notifier == nil || len(outcomes) == 0 {
		return 0
	}

	var sent atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentDMs)

	for _, outcome := range outcomes {
		if outcome.confirmed {
			continue
		}
		g.Go(func() error {
			dmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.dmTimeout)
			defer cancel()

			notice := PaymentNotice{
				DiscordID:        outcome.user.DiscordID,
				UserID:           outcome.user.ID,
				EventID:          event.ID,
				EventTitle:       event.Title,
				Price:            event.Price,
				ApplicationOrder: outcome.app.ApplicationOrder,
				RefundedCoins:    outcome.refunded,
			}

			err := s.notifier.SendPaymentNotice(dmCtx, notice)
			if err != nil {
				log.WithFields(log.Fields{
					"eventID":   event.ID,
					"discordID": outcome.user.DiscordID,
					"error":     err,
				}).Warn("Failed to send payment DM")
			} else {
				sent.Add(1)
			}

			if s.emitter != nil {
				s.emitter.Emit(context.WithoutCancel(ctx), events.NotificationSentEvent{
					EventID:   event.ID,
					UserID:    outcome.user.ID,
					DiscordID: outcome.user.DiscordID,
					Success:   err == nil,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(sent.Load())
}
