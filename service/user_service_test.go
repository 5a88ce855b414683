package service

import (
	"context"
	"errors"
	"testing"

	"bookclub/events"
	"bookclub/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserServiceMocks() (context.Context, *MockUnitOfWork, *MockUnitOfWorkFactory, *MockUserRepository, *MockCoinHistoryRepository) {
	ctx := context.Background()
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockHistoryRepo := new(MockCoinHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, mockHistoryRepo, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	return ctx, mockUoW, mockFactory, mockUserRepo, mockHistoryRepo
}

func TestUserService_SyncMember_NewTerrasMemberGetsInitialCoins(t *testing.T) {
	ctx, mockUoW, mockFactory, mockUserRepo, mockHistoryRepo := newUserServiceMocks()
	mockUoW.On("Commit").Return(nil)

	mockUserRepo.On("GetByDiscordID", ctx, "123").Return(nil, nil)
	mockUserRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.DiscordID == "123" && u.Coins == InitialTerrasCoins && u.IsTerras && u.Role == models.UserRoleMember
	})).Return(nil)
	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.CoinHistory) bool {
		return h.ChangeAmount == InitialTerrasCoins && h.TransactionType == models.CoinTransactionInitial
	})).Return(nil)

	service := NewUserService(mockFactory, []string{"999"})
	user, isNew, err := service.SyncMember(ctx, MemberProfile{DiscordID: "123", Username: "책벌레", IsGuildMember: true, IsTerras: true})

	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, InitialTerrasCoins, user.Coins)

	published := mockUoW.Bus().Events()
	require.Len(t, published, 2)
	synced, ok := published[1].(events.UserSyncedEvent)
	require.True(t, ok)
	assert.True(t, synced.IsNew)

	mockUserRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
}

func TestUserService_SyncMember_NewVisitorStartsWithZeroCoins(t *testing.T) {
	ctx, mockUoW, mockFactory, mockUserRepo, mockHistoryRepo := newUserServiceMocks()
	mockUoW.On("Commit").Return(nil)

	mockUserRepo.On("GetByDiscordID", ctx, "456").Return(nil, nil)
	mockUserRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Coins == 0 && u.Role == models.UserRoleVisitor
	})).Return(nil)

	service := NewUserService(mockFactory, nil)
	user, isNew, err := service.SyncMember(ctx, MemberProfile{DiscordID: "456", Username: "guest"})

	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, models.UserRoleVisitor, user.Role)
	mockHistoryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestUserService_SyncMember_ExistingUserKeepsCoins(t *testing.T) {
	ctx, mockUoW, mockFactory, mockUserRepo, _ := newUserServiceMocks()
	mockUoW.On("Commit").Return(nil)

	email := "old@example.com"
	existing := &models.User{ID: uuid.New(), DiscordID: "999", Username: "old", Email: &email, Role: models.UserRoleMember, Coins: 2}
	mockUserRepo.On("GetByDiscordID", ctx, "999").Return(existing, nil)
	mockUserRepo.On("UpdateProfile", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "new" && u.Role == models.UserRoleAdmin && u.IsTerras && u.Coins == 2 && *u.Email == email
	})).Return(nil)

	service := NewUserService(mockFactory, []string{"999"})
	user, isNew, err := service.SyncMember(ctx, MemberProfile{DiscordID: "999", Username: "new", IsGuildMember: true, IsTerras: true})

	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, int64(2), user.Coins)
	mockUserRepo.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
	mockUserRepo.AssertExpectations(t)
}

func TestUserService_SyncMember_CreateError(t *testing.T) {
	ctx, mockUoW, mockFactory, mockUserRepo, _ := newUserServiceMocks()

	mockUserRepo.On("GetByDiscordID", ctx, "123").Return(nil, nil)
	mockUserRepo.On("Create", ctx, mock.Anything).Return(errors.New("database error"))

	_, _, err := NewUserService(mockFactory, nil).SyncMember(ctx, MemberProfile{DiscordID: "123", Username: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create user")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestUserService_SyncMember_RequiresDiscordID(t *testing.T) {
	_, _, mockFactory, _, _ := newUserServiceMocks()

	_, _, err := NewUserService(mockFactory, nil).SyncMember(context.Background(), MemberProfile{})

	assert.True(t, IsValidation(err))
	mockFactory.AssertNotCalled(t, "Create")
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	ctx, _, mockFactory, mockUserRepo, _ := newUserServiceMocks()
	id := uuid.New()
	mockUserRepo.On("GetByID", ctx, id).Return(nil, nil)

	_, err := NewUserService(mockFactory, nil).GetByID(ctx, id)

	assert.True(t, IsNotFound(err))
}

func TestUserService_CoinHistory_ClampsLimit(t *testing.T) {
	ctx, _, mockFactory, _, mockHistoryRepo := newUserServiceMocks()
	id := uuid.New()
	mockHistoryRepo.On("ListByUser", ctx, id, 50).Return([]*models.CoinHistory{}, nil)

	history, err := NewUserService(mockFactory, nil).CoinHistory(ctx, id, 1000)

	require.NoError(t, err)
	assert.Empty(t, history)
	mockHistoryRepo.AssertExpectations(t)
}
