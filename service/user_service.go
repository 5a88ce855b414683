package service

import (
	"context"
	"fmt"

	"bookclub/events"
	"bookclub/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// InitialTerrasCoins is granted once to members who join with the terras role
const InitialTerrasCoins int64 = 5

// MemberProfile is what the club knows about a Discord account at sync time
type MemberProfile struct {
	DiscordID     string
	Username      string
	Email         *string // nil keeps the stored email
	IsGuildMember bool
	IsTerras      bool
}

type userService struct {
	uowFactory UnitOfWorkFactory
	adminIDs   map[string]struct{}
}

// NewUserService creates a new user service.
// adminDiscordIDs always resolve to the ADMIN role.
func NewUserService(uowFactory UnitOfWorkFactory, adminDiscordIDs []string) UserService {
	admins := make(map[string]struct{}, len(adminDiscordIDs))
	for _, id := range adminDiscordIDs {
		admins[id] = struct{}{}
	}
	return &userService{
		uowFactory: uowFactory,
		adminIDs:   admins,
	}
}

func (s *userService) roleFor(profile MemberProfile) models.UserRole {
	if _, ok := s.adminIDs[profile.DiscordID]; ok {
		return models.UserRoleAdmin
	}
	if profile.IsGuildMember {
		return models.UserRoleMember
	}
	return models.UserRoleVisitor
}

// SyncMember creates the user on first sight, otherwise refreshes profile,
// role and terras flag. Coins are only set at creation.
func (s *userService) SyncMember(ctx context.Context, profile MemberProfile) (*models.User, bool, error) {
	if profile.DiscordID == "" {
		return nil, false, &ValidationError{Message: "discord id is required"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	role := s.roleFor(profile)

	user, err := uow.UserRepository().GetByDiscordID(ctx, profile.DiscordID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing user: %w", err)
	}

	isNew := user == nil
	if isNew {
		user = &models.User{
			ID:        uuid.New(),
			DiscordID: profile.DiscordID,
			Username:  profile.Username,
			Email:     profile.Email,
			Role:      role,
			IsTerras:  profile.IsTerras,
		}
		if profile.IsTerras {
			user.Coins = InitialTerrasCoins
		}

		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, false, fmt.Errorf("failed to create user: %w", err)
		}

		if user.Coins > 0 {
			history := &models.CoinHistory{
				UserID:          user.ID,
				ChangeAmount:    user.Coins,
				BalanceAfter:    user.Coins,
				TransactionType: models.CoinTransactionInitial,
			}
			if err := RecordCoinChange(ctx, uow, history); err != nil {
				return nil, false, err
			}
		}
	} else {
		user.Username = profile.Username
		if profile.Email != nil {
			user.Email = profile.Email
		}
		user.Role = role
		user.IsTerras = profile.IsTerras

		if err := uow.UserRepository().UpdateProfile(ctx, user); err != nil {
			return nil, false, fmt.Errorf("failed to update user: %w", err)
		}
	}

	uow.EventBus().Publish(events.UserSyncedEvent{
		UserID:    user.ID,
		DiscordID: user.DiscordID,
		Role:      user.Role,
		IsTerras:  user.IsTerras,
		IsNew:     isNew,
	})

	if err := uow.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"discordID": user.DiscordID,
		"role":      user.Role,
		"isTerras":  user.IsTerras,
		"isNew":     isNew,
	}).Debug("Member synced")

	return user, isNew, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errUserNotFound()
	}
	return user, nil
}

func (s *userService) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errUserNotFound()
	}
	return user, nil
}

// CoinHistory returns the newest ledger entries for the user
func (s *userService) CoinHistory(ctx context.Context, id uuid.UUID, limit int) ([]*models.CoinHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	history, err := uow.CoinHistoryRepository().ListByUser(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get coin history: %w", err)
	}
	return history, nil
}
