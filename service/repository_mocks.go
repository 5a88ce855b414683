package service

import (
	"context"
	"sync"
	"time"

	"bookclub/events"
	"bookclub/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) AddCoins(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) DeductCoins(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) List(ctx context.Context) ([]*models.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockEventRepository) Update(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventRepository) CountApplications(ctx context.Context, eventID uuid.UUID) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockEventRepository) CountApplicationsByEvent(ctx context.Context) (map[uuid.UUID]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

// MockEventApplicationRepository is a mock implementation of EventApplicationRepository
type MockEventApplicationRepository struct {
	mock.Mock
}

func (m *MockEventApplicationRepository) Create(ctx context.Context, app *models.EventApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockEventApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EventApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventApplication), args.Error(1)
}

func (m *MockEventApplicationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EventApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventApplication), args.Error(1)
}

func (m *MockEventApplicationRepository) GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.EventApplication, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventApplication), args.Error(1)
}

func (m *MockEventApplicationRepository) GetByEventAndUserForUpdate(ctx context.Context, eventID, userID uuid.UUID) (*models.EventApplication, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventApplication), args.Error(1)
}

func (m *MockEventApplicationRepository) ListEscrowedByEventForUpdate(ctx context.Context, eventID uuid.UUID) ([]*models.EventApplication, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventApplication), args.Error(1)
}

func (m *MockEventApplicationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.ApplicationWithUser, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ApplicationWithUser), args.Error(1)
}

func (m *MockEventApplicationRepository) Update(ctx context.Context, app *models.EventApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockEventApplicationRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, id, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventApplicationRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockCoinHistoryRepository is a mock implementation of CoinHistoryRepository
type MockCoinHistoryRepository struct {
	mock.Mock
}

func (m *MockCoinHistoryRepository) Record(ctx context.Context, history *models.CoinHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockCoinHistoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.CoinHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CoinHistory), args.Error(1)
}

// MockTableLogRepository is a mock implementation of TableLogRepository
type MockTableLogRepository struct {
	mock.Mock
}

func (m *MockTableLogRepository) Create(ctx context.Context, entry *models.TableLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTableLogRepository) ListByDiscordUser(ctx context.Context, discordUserID string, limit int) ([]*models.TableLog, error) {
	args := m.Called(ctx, discordUserID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TableLog), args.Error(1)
}

func (m *MockTableLogRepository) Summarize(ctx context.Context, discordUserID string) (*models.VoiceSummary, error) {
	args := m.Called(ctx, discordUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoiceSummary), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of everything published so far
func (m *MockEventPublisher) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, len(m.events))
	copy(out, m.events)
	return out
}

// MockEventEmitter is a mock implementation of EventEmitter
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) Emit(ctx context.Context, event events.Event) {
	m.Called(ctx, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Repository getters return whatever SetRepositories installed.
type MockUnitOfWork struct {
	mock.Mock

	userRepo        UserRepository
	eventRepo       EventRepository
	applicationRepo EventApplicationRepository
	coinHistoryRepo CoinHistoryRepository
	tableLogRepo    TableLogRepository
	bus             *MockEventPublisher
}

// SetRepositories installs the repositories returned by the getters. Nil values are allowed.
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, eventRepo EventRepository, applicationRepo EventApplicationRepository, coinHistoryRepo CoinHistoryRepository, tableLogRepo TableLogRepository) {
	m.userRepo = userRepo
	m.eventRepo = eventRepo
	m.applicationRepo = applicationRepo
	m.coinHistoryRepo = coinHistoryRepo
	m.tableLogRepo = tableLogRepo
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) EventRepository() EventRepository {
	return m.eventRepo
}

func (m *MockUnitOfWork) EventApplicationRepository() EventApplicationRepository {
	return m.applicationRepo
}

func (m *MockUnitOfWork) CoinHistoryRepository() CoinHistoryRepository {
	return m.coinHistoryRepo
}

func (m *MockUnitOfWork) TableLogRepository() TableLogRepository {
	return m.tableLogRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.Bus()
}

// Bus returns the recording publisher behind EventBus
func (m *MockUnitOfWork) Bus() *MockEventPublisher {
	if m.bus == nil {
		m.bus = &MockEventPublisher{}
	}
	return m.bus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockActivityOracle is a mock implementation of ActivityOracle
type MockActivityOracle struct {
	mock.Mock
}

func (m *MockActivityOracle) CheckActivity(ctx context.Context, discordUserID string) ActivityResult {
	args := m.Called(ctx, discordUserID)
	return args.Get(0).(ActivityResult)
}

// MockPaymentNotifier is a mock implementation of PaymentNotifier
type MockPaymentNotifier struct {
	mock.Mock
}

func (m *MockPaymentNotifier) SendPaymentNotice(ctx context.Context, notice PaymentNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}
