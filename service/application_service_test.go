package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookclub/events"
	"bookclub/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type applicationFixture struct {
	ctx         context.Context
	uow         *MockUnitOfWork
	factory     *MockUnitOfWorkFactory
	userRepo    *MockUserRepository
	eventRepo   *MockEventRepository
	appRepo     *MockEventApplicationRepository
	historyRepo *MockCoinHistoryRepository
	oracle      *MockActivityOracle
	service     ApplicationService
}

func newApplicationFixture() *applicationFixture {
	f := &applicationFixture{
		ctx:         context.Background(),
		uow:         new(MockUnitOfWork),
		factory:     new(MockUnitOfWorkFactory),
		userRepo:    new(MockUserRepository),
		eventRepo:   new(MockEventRepository),
		appRepo:     new(MockEventApplicationRepository),
		historyRepo: new(MockCoinHistoryRepository),
		oracle:      new(MockActivityOracle),
	}
	f.uow.SetRepositories(f.userRepo, f.eventRepo, f.appRepo, f.historyRepo, nil)
	f.factory.On("Create").Return(f.uow)
	f.uow.On("Begin", f.ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.service = NewApplicationService(f.factory, f.oracle)
	return f
}

func (f *applicationFixture) assertExpectations(t *testing.T) {
	f.factory.AssertExpectations(t)
	f.uow.AssertExpectations(t)
	f.userRepo.AssertExpectations(t)
	f.eventRepo.AssertExpectations(t)
	f.appRepo.AssertExpectations(t)
	f.historyRepo.AssertExpectations(t)
	f.oracle.AssertExpectations(t)
}

func testUser(coins int64, terras bool) *models.User {
	return &models.User{
		ID:        uuid.New(),
		DiscordID: "123456789",
		Username:  "reader",
		Role:      models.UserRoleMember,
		IsTerras:  terras,
		Coins:     coins,
	}
}

func testEvent(maxParticipants int, requiredCoins int64) *models.Event {
	return &models.Event{
		ID:              uuid.New(),
		Title:           "10월 정기 모임",
		Date:            time.Date(2026, 10, 25, 19, 0, 0, 0, time.UTC),
		MaxParticipants: maxParticipants,
		RequiredCoins:   requiredCoins,
		Price:           15000,
		EventType:       models.DefaultEventType,
	}
}

func TestApplicationService_CheckEligibility_Eligible(t *testing.T) {
	f := newApplicationFixture()
	user := testUser(3, false)
	event := testEvent(10, 5)

	f.userRepo.On("GetByID", f.ctx, user.ID).Return(user, nil)
	f.eventRepo.On("GetByID", f.ctx, event.ID).Return(event, nil)
	f.eventRepo.On("CountApplications", f.ctx, event.ID).Return(4, nil)
	f.appRepo.On("GetByEventAndUser", f.ctx, event.ID, user.ID).Return(nil, nil)
	f.oracle.On("CheckActivity", f.ctx, user.DiscordID).Return(ActivityResult{HasActivity: true, MessageCount: 7})

	result, err := f.service.CheckEligibility(f.ctx, user.ID, event.ID)

	require.NoError(t, err)
	assert.True(t, result.Eligible)
	assert.Empty(t, result.Reason)
	assert.Equal(t, 5, result.CurrentOrder)
	assert.False(t, result.IsOverCapacity)
	assert.Equal(t, int64(5), result.RequiredCoins)
	assert.Equal(t, int64(3), result.UserCoins)
	assert.Equal(t, 7, result.LibraryMessageCount)
	assert.False(t, result.AlreadyApplied)
	assert.False(t, result.IsFree)

	f.assertExpectations(t)
	f.uow.AssertNotCalled(t, "Commit")
}

func TestApplicationService_CheckEligibility_AlreadyAppliedSkipsOracle(t *testing.T) {
	f := newApplicationFixture()
	user := testUser(0, false)
	event := testEvent(4, 5)

	existing := &models.EventApplication{
		ID:                  uuid.New(),
		EventID:             event.ID,
		UserID:              user.ID,
		ApplicationOrder:    3,
		Status:              models.ApplicationStatusPending,
		LibraryMessageCount: 4,
	}

	f.userRepo.On("GetByID", f.ctx, user.ID).Return(user, nil)
	f.eventRepo.On("GetByID", f.ctx, event.ID).Return(event, nil)
	f.eventRepo.On("CountApplications", f.ctx, event.ID).Return(9, nil)
	f.appRepo.On("GetByEventAndUser", f.ctx, event.ID, user.ID).Return(existing, nil)

	result, err := f.service.CheckEligibility(f.ctx, user.ID, event.ID)

	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.True(t, result.AlreadyApplied)
	assert.Equal(t, msgAlreadyApplied, result.Reason)
	assert.Equal(t, 3, result.CurrentOrder, "order comes from the stored application")
	assert.False(t, result.IsOverCapacity, "capacity is judged on the stored order, not the next free one")
	assert.Equal(t, models.ApplicationStatusPending, result.ExistingStatus)
	assert.Equal(t, 4, result.LibraryMessageCount)

	f.assertExpectations(t)
	f.oracle.AssertNotCalled(t, "CheckActivity", mock.Anything, mock.Anything)
}

func TestApplicationService_CheckEligibility_NoActivity(t *testing.T) {
	f := newApplicationFixture()
	user := testUser(0, false)
	event := testEvent(1, 5)

	f.userRepo.On("GetByID", f.ctx, user.ID).Return(user, nil)
	f.eventRepo.On("GetByID", f.ctx, event.ID).Return(event, nil)
	f.eventRepo.On("CountApplications", f.ctx, event.ID).Return(1, nil)
	f.appRepo.On("GetByEventAndUser", f.ctx, event.ID, user.ID).Return(nil, nil)
	f.oracle.On("CheckActivity", f.ctx, user.DiscordID).Return(ActivityResult{HasActivity: false, MessageCount: 2})

	result, err := f.service.CheckEligibility(f.ctx, user.ID, event.ID)

	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.False(t, result.AlreadyApplied)
	assert.Equal(t, msgActivityRequired, result.Reason)
	assert.Equal(t, 2, result.CurrentOrder)
	assert.True(t, result.IsOverCapacity)
	assert.Equal(t, 2, result.LibraryMessageCount)

	f.assertExpectations(t)
}

func TestApplicationService_CheckEligibility_NotFound(t *testing.T) {
	t.Run("user", func(t *testing.T) {
		f := newApplicationFixture()
		userID := uuid.New()
		f.userRepo.On("GetByID", f.ctx, userID).Return(nil, nil)

		result, err := f.service.CheckEligibility(f.ctx, userID, uuid.New())

		assert.Nil(t, result)
		assert.True(t, IsNotFound(err))
		assert.Equal(t, msgUserNotFound, err.Error())
	})

	t.Run("event", func(t *testing.T) {
		f := newApplicationFixture()
		user := testUser(0, false)
		eventID := uuid.New()
		f.userRepo.On("GetByID", f.ctx, user.ID).Return(user, nil)
		f.eventRepo.On("GetByID", f.ctx, eventID).Return(nil, nil)

		result, err := f.service.CheckEligibility(f.ctx, user.ID, eventID)

		assert.Nil(t, result)
		assert.True(t, IsNotFound(err))
		assert.Equal(t, msgEventNotFound, err.Error())
	})
}

// expectApplyReads wires the read phase and the locked write phase of Apply
func (f *applicationFixture) expectApplyReads(user *models.User, event *models.Event, count int) {
	f.userRepo.On("GetByID", f.ctx, user.ID).Return(user, nil)
	f.eventRepo.On("GetByID", f.ctx, event.ID).Return(event, nil)
	f.eventRepo.On("GetByIDForUpdate", f.ctx, event.ID).Return(event, nil)
	f.eventRepo.On("CountApplications", f.ctx, event.ID).Return(count, nil)
	f.appRepo.On("GetByEventAndUser", f.ctx, event.ID, user.ID).Return(nil, nil)
}

func TestApplicationService_Apply_TerrasMemberIsConfirmed(t *testing.T) {
	f := newApplicationFixture()
	user := testUser(5, true)
	event := testEvent(1, 5)

	f.expectApplyReads(user, event, 3)
	f.oracle.On("CheckActivity", f.ctx, user.DiscordID).Return(ActivityResult{HasActivity: true, MessageCount: 1})
	f.appRepo.On("Create", f.ctx, mock.MatchedBy(func(app *models.EventApplication) bool {
		return app.Status == models.ApplicationStatusConfirmed &&
			app.UsedCoins == 0 &&
			app.PaidAt != nil &&
			app.ApplicationOrder == 4 &&
			app.LibraryMessageCount == 1
	})).Return(nil)
	f.uow.On("Commit").Return(nil)

	result, err := f.service.Apply(f.ctx, user.ID, event.ID, true)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.ApplicationStatusConfirmed, result.Status)
	assert.Equal(t, int64(0), result.UsedCoins)
	assert.True(t, result.IsFree)
	assert.Equal(t, "4번째로 신청 완료되었습니다. (테라스 멤버 무료)", result.Message)

	f.assertExpectations(t)
	f.userRepo.AssertNotCalled(t, "DeductCoins", mock.Anything, mock.Anything, mock.Anything)
}

func TestApplicationService_Apply_CoinGuaranteeDebitsCoins(t *testing.T) {
	f := newApplicationFixture()
	user := testUser(5, false)
	event := testEvent(10, 5)

	f.expectApplyReads(user, event, 0)
	f.oracle.On("CheckActivity", f.ctx, user.DiscordID).Return(ActivityResult{HasActivity: true, MessageCount: 3})
	f.appRepo.On("Create", f.ctx, mock.MatchedBy(func(app *models.EventApplication) bool {
		return app.Status == models.ApplicationStatusCoinGuaranteed && app.UsedCoins == 5
	})).Return(nil)
	f.userRepo.On("DeductCoins", f.ctx, user.ID, int64(5)).Return(int64(0), nil)
	f.historyRepo.On("Record", f.ctx, mock.MatchedBy(func(h *models.CoinHistory) bool {
		return h.UserID == user.ID &&
			h.ChangeAmount == -5 &&
			h.BalanceAfter == 0 &&
			h.TransactionType == models.CoinTransactionGuaranteeDebit &&
			*h.EventID == event.ID
	})).Return(nil)
	f.uow.On("Commit").Return(nil)

	result, err := f.service.Apply(f.ctx, user.ID, event.ID, true)

	require.NoError(t, err)
	assert.Equal(t, 1, result.ApplicationOrder)
	assert.Equal(t, models.ApplicationStatusCoinGuaranteed, result.Status)
	assert.Equal(t, int64(5), result.UsedCoins)
	assert.Equal(t, "1번째로 신청되었습니다. 코인 5개를 사용하여 정원 외 보장됩니다.", result.Message)

	published := f.uow.Bus().Events()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventTypeCoinBalanceChanged, published[0].Type())
	created, ok := published[1].(events.ApplicationCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, 1, created.ApplicationOrder)

	f.assertExpectations(t)
}

func TestApplicationService_Apply_InsufficientCoins(t *testing.T) {
	f := newApplicationFixture()
	user := testUser(2, false)
	event := testEvent(10, 5)

	f.expectApplyReads(user, event, 0)
	f.oracle.On("CheckActivity", f.ctx, user.DiscordID).Return(ActivityResult{HasActivity: true})

	result, err := f.service.Apply(f.ctx, user.ID, event.ID, true)

	assert.Nil(t, result)
	insufficient, ok := AsInsufficientCoins(err)
	require.True(t, ok)
	assert.Equal(t, int64(5), insufficient.Required)
	assert.Equal(t, int64(2), insufficient.Held)

	f.assertExpectations(t)
	f.appRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.userRepo.AssertNotCalled(t, "DeductCoins", mock.Anything, mock.Anything, mock.Anything)
	f.uow.AssertNotCalled(t, "Commit")
}

func TestApplicationService_Apply_ConcurrentDebitFailure(t *testing.T) {
	f := newApplicationFixture()
	user := testUser(5, false)
	event := testEvent(10, 5)

	f.expectApplyReads(user, event, 0)
	f.oracle.On("CheckActivity", f.ctx, user.DiscordID).Return(ActivityResult{HasActivity: true})
	f.appRepo.On("Create", f.ctx, mock.Anything).Return(nil)
	f.userRepo.On("DeductCoins", f.ctx, user.ID, int64(5)).Return(int64(0), ErrCoinBalanceTooLow)

	_, err := f.service.Apply(f.ctx, user.ID, event.ID, true)

	_, ok := AsInsufficientCoins(err)
	assert.True(t, ok)
	f.uow.AssertNotCalled(t, "Commit")
}

func TestApplicationService_Apply_PendingMessages(t *testing.T) {
	tests := []struct {
		name     string
		max      int
		count    int
		expected string
	}{
		{"within capacity", 5, 1, "2번째로 신청되었습니다. 관리자 승인 후 결제 안내를 받으실 수 있습니다."},
		{"over capacity", 2, 2, "3번째로 신청되었습니다. 정원 초과이므로 관리자 승인 후 결제 안내를 받으실 수 있습니다."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newApplicationFixture()
			user := testUser(10, false)
			event := testEvent(tt.max, 5)

			f.expectApplyReads(user, event, tt.count)
			f.oracle.On("CheckActivity", f.ctx, user.DiscordID).Return(ActivityResult{HasActivity: true})
			f.appRepo.On("Create", f.ctx, mock.MatchedBy(func(app *models.EventApplication) bool {
				return app.Status == models.ApplicationStatusPending && app.UsedCoins == 0 && app.PaidAt == nil
			})).Return(nil)
			f.uow.On("Commit").Return(nil)

			result, err := f.service.Apply(f.ctx, user.ID, event.ID, false)

			require.NoError(t, err)
			assert.Equal(t, models.ApplicationStatusPending, result.Status)
			assert.Equal(t, tt.expected, result.Message)
			f.userRepo.AssertNotCalled(t, "DeductCoins", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestApplicationService_Apply_NoActivityIsForbidden(t *testing.T) {
	f := newApplicationFixture()
	user := testUser(0, false)
	event := testEvent(10, 5)

	f.userRepo.On("GetByID", f.ctx, user.ID).Return(user, nil)
	f.eventRepo.On("GetByID", f.ctx, event.ID).Return(event, nil)
	f.eventRepo.On("CountApplications", f.ctx, event.ID).Return(0, nil)
	f.appRepo.On("GetByEventAndUser", f.ctx, event.ID, user.ID).Return(nil, nil)
	f.oracle.On("CheckActivity", f.ctx, user.DiscordID).Return(ActivityResult{HasActivity: false})

	result, err := f.service.Apply(f.ctx, user.ID, event.ID, false)

	assert.Nil(t, result)
	assert.True(t, IsForbidden(err))
	f.eventRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
}

func TestApplicationService_Apply_DuplicateIsConflict(t *testing.T) {
	f := newApplicationFixture()
	user := testUser(0, false)
	event := testEvent(10, 5)

	f.userRepo.On("GetByID", f.ctx, user.ID).Return(user, nil)
	f.eventRepo.On("GetByID", f.ctx, event.ID).Return(event, nil)
	f.eventRepo.On("CountApplications", f.ctx, event.ID).Return(1, nil)
	f.appRepo.On("GetByEventAndUser", f.ctx, event.ID, user.ID).Return(&models.EventApplication{ID: uuid.New()}, nil)

	result, err := f.service.Apply(f.ctx, user.ID, event.ID, false)

	assert.Nil(t, result)
	assert.True(t, IsConflict(err))
	f.oracle.AssertNotCalled(t, "CheckActivity", mock.Anything, mock.Anything)
}

func TestApplicationService_Apply_UniqueViolationIsConflict(t *testing.T) {
	f := newApplicationFixture()
	user := testUser(0, false)
	event := testEvent(10, 5)

	f.expectApplyReads(user, event, 0)
	f.oracle.On("CheckActivity", f.ctx, user.DiscordID).Return(ActivityResult{HasActivity: true})
	f.appRepo.On("Create", f.ctx, mock.Anything).Return(ErrDuplicateApplication)

	result, err := f.service.Apply(f.ctx, user.ID, event.ID, false)

	assert.Nil(t, result)
	assert.True(t, IsConflict(err))
	f.uow.AssertNotCalled(t, "Commit")
}

func TestApplicationService_ConfirmPayment(t *testing.T) {
	f := newApplicationFixture()
	userID, eventID := uuid.New(), uuid.New()
	app := &models.EventApplication{
		ID:      uuid.New(),
		EventID: eventID,
		UserID:  userID,
		Status:  models.ApplicationStatusApproved,
	}

	f.appRepo.On("GetByEventAndUserForUpdate", f.ctx, eventID, userID).Return(app, nil)
	f.appRepo.On("MarkConfirmed", f.ctx, app.ID, mock.AnythingOfType("time.Time")).Return(true, nil)
	f.uow.On("Commit").Return(nil)

	result, err := f.service.ConfirmPayment(f.ctx, userID, eventID)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "결제가 완료되었습니다.", result.Message)
	f.appRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.appRepo.AssertNotCalled(t, "GetByEventAndUser", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestApplicationService_ConfirmPayment_GuaranteedKeepsEscrow(t *testing.T) {
	f := newApplicationFixture()
	userID, eventID := uuid.New(), uuid.New()
	app := &models.EventApplication{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    userID,
		Status:    models.ApplicationStatusCoinGuaranteed,
		UsedCoins: 5,
	}

	f.appRepo.On("GetByEventAndUserForUpdate", f.ctx, eventID, userID).Return(app, nil)
	f.appRepo.On("MarkConfirmed", f.ctx, app.ID, mock.AnythingOfType("time.Time")).Return(true, nil)
	f.uow.On("Commit").Return(nil)

	_, err := f.service.ConfirmPayment(f.ctx, userID, eventID)

	require.NoError(t, err)
	f.appRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.userRepo.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
	f.userRepo.AssertNotCalled(t, "DeductCoins", mock.Anything, mock.Anything, mock.Anything)
}

func TestApplicationService_ConfirmPayment_RowVanished(t *testing.T) {
	f := newApplicationFixture()
	userID, eventID := uuid.New(), uuid.New()
	app := &models.EventApplication{ID: uuid.New(), EventID: eventID, UserID: userID}

	f.appRepo.On("GetByEventAndUserForUpdate", f.ctx, eventID, userID).Return(app, nil)
	f.appRepo.On("MarkConfirmed", f.ctx, app.ID, mock.AnythingOfType("time.Time")).Return(false, nil)

	result, err := f.service.ConfirmPayment(f.ctx, userID, eventID)

	assert.Nil(t, result)
	assert.True(t, IsNotFound(err))
	f.uow.AssertNotCalled(t, "Commit")
}

func TestApplicationService_ConfirmPayment_NotFound(t *testing.T) {
	f := newApplicationFixture()
	userID, eventID := uuid.New(), uuid.New()
	f.appRepo.On("GetByEventAndUserForUpdate", f.ctx, eventID, userID).Return(nil, nil)

	result, err := f.service.ConfirmPayment(f.ctx, userID, eventID)

	assert.Nil(t, result)
	assert.True(t, IsNotFound(err))
}

func TestApplicationService_Cancel_RefundsEscrow(t *testing.T) {
	f := newApplicationFixture()
	userID, eventID := uuid.New(), uuid.New()
	app := &models.EventApplication{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    userID,
		Status:    models.ApplicationStatusCoinGuaranteed,
		UsedCoins: 3,
	}

	f.appRepo.On("GetByEventAndUserForUpdate", f.ctx, eventID, userID).Return(app, nil)
	f.appRepo.On("Delete", f.ctx, app.ID).Return(true, nil)
	f.userRepo.On("AddCoins", f.ctx, userID, int64(3)).Return(int64(3), nil)
	f.historyRepo.On("Record", f.ctx, mock.MatchedBy(func(h *models.CoinHistory) bool {
		return h.ChangeAmount == 3 && h.TransactionType == models.CoinTransactionCancelRefund
	})).Return(nil)
	f.uow.On("Commit").Return(nil)

	result, err := f.service.Cancel(f.ctx, userID, eventID)

	require.NoError(t, err)
	assert.Equal(t, int64(3), result.RefundedCoins)
	assert.Equal(t, "신청이 취소되었습니다. 코인 3개가 환불되었습니다.", result.Message)
	f.assertExpectations(t)
}

func TestApplicationService_Cancel_WithoutEscrow(t *testing.T) {
	f := newApplicationFixture()
	userID, eventID := uuid.New(), uuid.New()
	app := &models.EventApplication{ID: uuid.New(), EventID: eventID, UserID: userID, Status: models.ApplicationStatusConfirmed}

	f.appRepo.On("GetByEventAndUserForUpdate", f.ctx, eventID, userID).Return(app, nil)
	f.appRepo.On("Delete", f.ctx, app.ID).Return(true, nil)
	f.uow.On("Commit").Return(nil)

	result, err := f.service.Cancel(f.ctx, userID, eventID)

	require.NoError(t, err)
	assert.Equal(t, int64(0), result.RefundedCoins)
	assert.Equal(t, "신청이 취소되었습니다.", result.Message)
	f.userRepo.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
}

func TestApplicationService_Cancel_LostDeleteRaceRefundsNothing(t *testing.T) {
	f := newApplicationFixture()
	userID, eventID := uuid.New(), uuid.New()
	app := &models.EventApplication{ID: uuid.New(), EventID: eventID, UserID: userID, UsedCoins: 5}

	f.appRepo.On("GetByEventAndUserForUpdate", f.ctx, eventID, userID).Return(app, nil)
	f.appRepo.On("Delete", f.ctx, app.ID).Return(false, nil)

	result, err := f.service.Cancel(f.ctx, userID, eventID)

	assert.Nil(t, result)
	assert.True(t, IsNotFound(err))
	f.userRepo.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
	f.uow.AssertNotCalled(t, "Commit")
}

func TestApplicationService_Cancel_DeleteError(t *testing.T) {
	f := newApplicationFixture()
	userID, eventID := uuid.New(), uuid.New()
	app := &models.EventApplication{ID: uuid.New(), EventID: eventID, UserID: userID}

	f.appRepo.On("GetByEventAndUserForUpdate", f.ctx, eventID, userID).Return(app, nil)
	f.appRepo.On("Delete", f.ctx, app.ID).Return(false, errors.New("connection reset"))

	_, err := f.service.Cancel(f.ctx, userID, eventID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete application")
}

func TestApplicationService_Cancel_AfterApprovalRefundsNothing(t *testing.T) {
	f := newApplicationFixture()
	userID, eventID := uuid.New(), uuid.New()
	// The locked read sees the row as the approval left it: escrow already returned
	approvedAt := time.Now().UTC()
	app := &models.EventApplication{
		ID:         uuid.New(),
		EventID:    eventID,
		UserID:     userID,
		Status:     models.ApplicationStatusApproved,
		UsedCoins:  0,
		ApprovedAt: &approvedAt,
	}

	f.appRepo.On("GetByEventAndUserForUpdate", f.ctx, eventID, userID).Return(app, nil)
	f.appRepo.On("Delete", f.ctx, app.ID).Return(true, nil)
	f.uow.On("Commit").Return(nil)

	result, err := f.service.Cancel(f.ctx, userID, eventID)

	require.NoError(t, err)
	assert.Equal(t, int64(0), result.RefundedCoins)
	f.appRepo.AssertNotCalled(t, "GetByEventAndUser", mock.Anything, mock.Anything, mock.Anything)
	f.userRepo.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
	f.historyRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestApplicationService_ListApplications_MasksGuarantees(t *testing.T) {
	f := newApplicationFixture()
	event := testEvent(1, 5)

	rows := []*models.ApplicationWithUser{
		{
			EventApplication: models.EventApplication{ID: uuid.New(), ApplicationOrder: 1, Status: models.ApplicationStatusApproved},
			Username:         "first",
		},
		{
			EventApplication: models.EventApplication{ID: uuid.New(), ApplicationOrder: 2, Status: models.ApplicationStatusCoinGuaranteed, UsedCoins: 5},
			Username:         "second",
		},
	}

	f.eventRepo.On("GetByID", f.ctx, event.ID).Return(event, nil)
	f.appRepo.On("ListByEvent", f.ctx, event.ID).Return(rows, nil)

	views, err := f.service.ListApplications(f.ctx, event.ID)

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, models.ApplicationStatusApproved, views[0].Status)
	assert.False(t, views[0].IsOverCapacity)
	assert.Equal(t, models.ApplicationStatusPending, views[1].Status)
	assert.True(t, views[1].IsOverCapacity)
	assert.Equal(t, "second", views[1].Username)
}

func TestApplicationService_ListApplications_UnknownEvent(t *testing.T) {
	f := newApplicationFixture()
	eventID := uuid.New()
	f.eventRepo.On("GetByID", f.ctx, eventID).Return(nil, nil)

	_, err := f.service.ListApplications(f.ctx, eventID)

	assert.True(t, IsNotFound(err))
}
