package service

import (
	"context"
	"time"

	"bookclub/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockApplicationService is a mock implementation of ApplicationService
type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) CheckEligibility(ctx context.Context, userID, eventID uuid.UUID) (*Eligibility, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Eligibility), args.Error(1)
}

func (m *MockApplicationService) Apply(ctx context.Context, userID, eventID uuid.UUID, useCoins bool) (*ApplyResult, error) {
	args := m.Called(ctx, userID, eventID, useCoins)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ApplyResult), args.Error(1)
}

func (m *MockApplicationService) ConfirmPayment(ctx context.Context, userID, eventID uuid.UUID) (*ConfirmResult, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ConfirmResult), args.Error(1)
}

func (m *MockApplicationService) Cancel(ctx context.Context, userID, eventID uuid.UUID) (*CancelResult, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CancelResult), args.Error(1)
}

func (m *MockApplicationService) ListApplications(ctx context.Context, eventID uuid.UUID) ([]*ApplicationView, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ApplicationView), args.Error(1)
}

// MockApprovalService is a mock implementation of ApprovalService
type MockApprovalService struct {
	mock.Mock
}

func (m *MockApprovalService) Approve(ctx context.Context, eventID uuid.UUID, applicationIDs []uuid.UUID) (*ApprovalResult, error) {
	args := m.Called(ctx, eventID, applicationIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ApprovalResult), args.Error(1)
}

// MockEventService is a mock implementation of EventService
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) Create(ctx context.Context, input EventInput) (*models.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) Get(ctx context.Context, id uuid.UUID) (*models.EventSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventSummary), args.Error(1)
}

func (m *MockEventService) List(ctx context.Context) ([]*models.EventSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventSummary), args.Error(1)
}

func (m *MockEventService) Update(ctx context.Context, id uuid.UUID, patch EventPatch) (*models.Event, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) SyncMember(ctx context.Context, profile MemberProfile) (*models.User, bool, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) CoinHistory(ctx context.Context, id uuid.UUID, limit int) ([]*models.CoinHistory, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CoinHistory), args.Error(1)
}

// MockVoiceActivityService is a mock implementation of VoiceActivityService
type MockVoiceActivityService struct {
	mock.Mock
}

func (m *MockVoiceActivityService) RecordJoin(ctx context.Context, discordUserID, username, channelName string) error {
	args := m.Called(ctx, discordUserID, username, channelName)
	return args.Error(0)
}

func (m *MockVoiceActivityService) RecordLeave(ctx context.Context, discordUserID, username, channelName string, duration time.Duration) error {
	args := m.Called(ctx, discordUserID, username, channelName, duration)
	return args.Error(0)
}

func (m *MockVoiceActivityService) RecentLogs(ctx context.Context, discordUserID string, limit int) ([]*models.TableLog, error) {
	args := m.Called(ctx, discordUserID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TableLog), args.Error(1)
}

func (m *MockVoiceActivityService) Summary(ctx context.Context, discordUserID string) (*models.VoiceSummary, error) {
	args := m.Called(ctx, discordUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoiceSummary), args.Error(1)
}
