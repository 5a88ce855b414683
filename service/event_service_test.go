package service

import (
	"context"
	"testing"

	"bookclub/events"
	"bookclub/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newEventServiceMocks() (context.Context, *MockUnitOfWork, *MockUnitOfWorkFactory, *MockEventRepository) {
	ctx := context.Background()
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockEventRepo := new(MockEventRepository)

	mockUoW.SetRepositories(nil, mockEventRepo, nil, nil, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	return ctx, mockUoW, mockFactory, mockEventRepo
}

func TestEventService_Create_DefaultsEventType(t *testing.T) {
	ctx, mockUoW, mockFactory, mockEventRepo := newEventServiceMocks()
	mockUoW.On("Commit").Return(nil)
	mockEventRepo.On("Create", ctx, mock.MatchedBy(func(e *models.Event) bool {
		return e.EventType == models.DefaultEventType && e.Title == "북토크" && e.ID != uuid.Nil
	})).Return(nil)

	service := NewEventService(mockFactory)
	event, err := service.Create(ctx, EventInput{Title: "  북토크 ", MaxParticipants: 8, RequiredCoins: 3, Price: 12000})

	require.NoError(t, err)
	assert.Equal(t, "북토크", event.Title)
	mockEventRepo.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
}

func TestEventService_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input EventInput
	}{
		{"missing title", EventInput{MaxParticipants: 1}},
		{"zero capacity", EventInput{Title: "x", MaxParticipants: 0}},
		{"negative coins", EventInput{Title: "x", MaxParticipants: 1, RequiredCoins: -1}},
		{"negative price", EventInput{Title: "x", MaxParticipants: 1, Price: -100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _, mockFactory, mockEventRepo := newEventServiceMocks()
			service := NewEventService(mockFactory)

			_, err := service.Create(ctx, tt.input)

			assert.True(t, IsValidation(err))
			mockEventRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestEventService_Get_IncludesParticipantCount(t *testing.T) {
	ctx, _, mockFactory, mockEventRepo := newEventServiceMocks()
	event := testEvent(4, 2)
	mockEventRepo.On("GetByID", ctx, event.ID).Return(event, nil)
	mockEventRepo.On("CountApplications", ctx, event.ID).Return(3, nil)

	summary, err := NewEventService(mockFactory).Get(ctx, event.ID)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.CurrentParticipants)
	assert.Equal(t, 4, summary.NextOrder())
}

func TestEventService_List(t *testing.T) {
	ctx, _, mockFactory, mockEventRepo := newEventServiceMocks()
	a, b := testEvent(4, 2), testEvent(10, 0)
	mockEventRepo.On("List", ctx).Return([]*models.Event{a, b}, nil)
	mockEventRepo.On("CountApplicationsByEvent", ctx).Return(map[uuid.UUID]int{a.ID: 2}, nil)

	summaries, err := NewEventService(mockFactory).List(ctx)

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, summaries[0].CurrentParticipants)
	assert.Equal(t, 0, summaries[1].CurrentParticipants)
}

func TestEventService_Update_AppliesPatch(t *testing.T) {
	ctx, mockUoW, mockFactory, mockEventRepo := newEventServiceMocks()
	event := testEvent(4, 2)
	capacity := 12
	location := "합정 북카페"

	mockUoW.On("Commit").Return(nil)
	mockEventRepo.On("GetByIDForUpdate", ctx, event.ID).Return(event, nil)
	mockEventRepo.On("Update", ctx, mock.MatchedBy(func(e *models.Event) bool {
		return e.MaxParticipants == 12 && e.Location == location && e.RequiredCoins == 2
	})).Return(nil)

	updated, err := NewEventService(mockFactory).Update(ctx, event.ID, EventPatch{MaxParticipants: &capacity, Location: &location})

	require.NoError(t, err)
	assert.Equal(t, 12, updated.MaxParticipants)
	mockEventRepo.AssertExpectations(t)
}

func TestEventService_Update_RejectsInvalidCapacity(t *testing.T) {
	ctx, _, mockFactory, mockEventRepo := newEventServiceMocks()
	event := testEvent(4, 2)
	capacity := 0
	mockEventRepo.On("GetByIDForUpdate", ctx, event.ID).Return(event, nil)

	_, err := NewEventService(mockFactory).Update(ctx, event.ID, EventPatch{MaxParticipants: &capacity})

	assert.True(t, IsValidation(err))
	mockEventRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestEventService_Delete(t *testing.T) {
	t.Run("existing", func(t *testing.T) {
		ctx, mockUoW, mockFactory, mockEventRepo := newEventServiceMocks()
		mockAppRepo := new(MockEventApplicationRepository)
		mockUoW.SetRepositories(nil, mockEventRepo, mockAppRepo, nil, nil)
		event := testEvent(4, 2)
		mockUoW.On("Commit").Return(nil)
		mockEventRepo.On("GetByIDForUpdate", ctx, event.ID).Return(event, nil)
		mockAppRepo.On("ListEscrowedByEventForUpdate", ctx, event.ID).Return([]*models.EventApplication{}, nil)
		mockEventRepo.On("Delete", ctx, event.ID).Return(true, nil)

		require.NoError(t, NewEventService(mockFactory).Delete(ctx, event.ID))
		mockUoW.AssertExpectations(t)
		assert.Empty(t, mockUoW.Bus().Events())
	})

	t.Run("missing", func(t *testing.T) {
		ctx, mockUoW, mockFactory, mockEventRepo := newEventServiceMocks()
		id := uuid.New()
		mockEventRepo.On("GetByIDForUpdate", ctx, id).Return(nil, nil)

		err := NewEventService(mockFactory).Delete(ctx, id)

		assert.True(t, IsNotFound(err))
		mockEventRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		mockUoW.AssertNotCalled(t, "Commit")
	})

	t.Run("refunds escrowed applications", func(t *testing.T) {
		ctx, mockUoW, mockFactory, mockEventRepo := newEventServiceMocks()
		mockUserRepo := new(MockUserRepository)
		mockAppRepo := new(MockEventApplicationRepository)
		mockHistoryRepo := new(MockCoinHistoryRepository)
		mockUoW.SetRepositories(mockUserRepo, mockEventRepo, mockAppRepo, mockHistoryRepo, nil)

		event := testEvent(4, 3)
		first := &models.EventApplication{ID: uuid.New(), EventID: event.ID, UserID: uuid.New(), Status: models.ApplicationStatusCoinGuaranteed, UsedCoins: 3}
		second := &models.EventApplication{ID: uuid.New(), EventID: event.ID, UserID: uuid.New(), Status: models.ApplicationStatusCoinGuaranteed, UsedCoins: 5}

		mockEventRepo.On("GetByIDForUpdate", ctx, event.ID).Return(event, nil)
		mockAppRepo.On("ListEscrowedByEventForUpdate", ctx, event.ID).Return([]*models.EventApplication{first, second}, nil)
		mockUserRepo.On("AddCoins", ctx, first.UserID, int64(3)).Return(int64(10), nil)
		mockUserRepo.On("AddCoins", ctx, second.UserID, int64(5)).Return(int64(5), nil)
		mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.CoinHistory) bool {
			return h.TransactionType == models.CoinTransactionCancelRefund &&
				h.EventID != nil && *h.EventID == event.ID &&
				h.ApplicationID != nil
		})).Return(nil).Twice()
		mockEventRepo.On("Delete", ctx, event.ID).Return(true, nil)
		mockUoW.On("Commit").Return(nil)

		require.NoError(t, NewEventService(mockFactory).Delete(ctx, event.ID))

		mockUserRepo.AssertExpectations(t)
		mockHistoryRepo.AssertExpectations(t)
		mockEventRepo.AssertExpectations(t)

		var refunded []uuid.UUID
		for _, e := range mockUoW.Bus().Events() {
			if cancelled, ok := e.(events.ApplicationCancelledEvent); ok {
				refunded = append(refunded, cancelled.ApplicationID)
			}
		}
		assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, refunded)
	})

	t.Run("refund failure keeps the event", func(t *testing.T) {
		ctx, mockUoW, mockFactory, mockEventRepo := newEventServiceMocks()
		mockUserRepo := new(MockUserRepository)
		mockAppRepo := new(MockEventApplicationRepository)
		mockUoW.SetRepositories(mockUserRepo, mockEventRepo, mockAppRepo, nil, nil)

		event := testEvent(4, 3)
		app := &models.EventApplication{ID: uuid.New(), EventID: event.ID, UserID: uuid.New(), UsedCoins: 3}

		mockEventRepo.On("GetByIDForUpdate", ctx, event.ID).Return(event, nil)
		mockAppRepo.On("ListEscrowedByEventForUpdate", ctx, event.ID).Return([]*models.EventApplication{app}, nil)
		mockUserRepo.On("AddCoins", ctx, app.UserID, int64(3)).Return(int64(0), assert.AnError)

		err := NewEventService(mockFactory).Delete(ctx, event.ID)

		require.Error(t, err)
		mockEventRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		mockUoW.AssertNotCalled(t, "Commit")
	})
}
