package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	storageclient "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/client"
	storagereservation "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reservations/models"
)

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetItemsByReservationID(ctx context.Context, reservationID int64) ([]*domain.ReservationItem, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReservationItem), args.Error(1)
}

func (m *MockReservationRepository) GetByClientID(ctx context.Context, clientID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error) {
	args := m.Called(ctx, clientID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) UpdateSchedule(ctx context.Context, id int64, startsAt, endsAt time.Time, employeeID *int64, notes *string) error {
	args := m.Called(ctx, id, startsAt, endsAt, employeeID, notes)
	return args.Error(0)
}

func (m *MockReservationRepository) Cancel(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) GetByExternalID(ctx context.Context, externalUserID int64) (*domain.Client, error) {
	args := m.Called(ctx, externalUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, entry *domain.StatusHistoryEntry) (*domain.StatusHistoryEntry, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatusHistoryEntry), args.Error(1)
}

func (m *MockHistoryRepository) ListByReservationID(ctx context.Context, reservationID int64) ([]*domain.StatusHistoryEntry, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StatusHistoryEntry), args.Error(1)
}

// stubTxManager прозрачный transaction manager: выполняет fn в том же контексте
type stubTxManager struct{}

func (s *stubTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *stubTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// trackingTxManager отмечает, выполняется ли сейчас fn,
// чтобы проверять, какие чтения происходят внутри транзакции
type trackingTxManager struct {
	inTx bool
}

func (s *trackingTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	s.inTx = true
	defer func() { s.inTx = false }()
	return fn(ctx)
}

func (s *trackingTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Do(ctx, fn)
}

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type testEnv struct {
	reservations *MockReservationRepository
	clients      *MockClientRepository
	history      *MockHistoryRepository
	svc          *Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		reservations: new(MockReservationRepository),
		clients:      new(MockClientRepository),
		history:      new(MockHistoryRepository),
	}
	env.svc = NewService(env.reservations, env.clients, env.history, &stubTxManager{}, nopLogger{})
	return env
}

var (
	testStart = time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	testEnd   = testStart.Add(time.Hour)
)

func activeReservation() *domain.Reservation {
	return &domain.Reservation{
		ID:        100,
		CompanyID: 10,
		ClientID:  7,
		StartsAt:  testStart,
		EndsAt:    testEnd,
		Status:    domain.StatusPending,
		Source:    "api",
		CreatedAt: testStart.Add(-time.Hour),
		UpdatedAt: testStart.Add(-time.Hour),
	}
}

func TestGetByID_Success(t *testing.T) {
	env := newTestEnv()

	env.reservations.On("GetByID", mock.Anything, int64(100)).Return(activeReservation(), nil)
	env.clients.On("GetByExternalID", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	env.reservations.On("GetItemsByReservationID", mock.Anything, int64(100)).
		Return([]*domain.ReservationItem{
			{ID: 1, ReservationID: 100, ServiceID: 5, Price: 1500, Currency: "RUB", DurationMinutes: 60},
		}, nil)

	resp, err := env.svc.GetByID(context.Background(), 100, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(100), resp.ID)
	assert.Equal(t, "pending", resp.Status)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(5), resp.Items[0].ServiceID)
}

func TestGetByID_NotFound(t *testing.T) {
	env := newTestEnv()

	env.reservations.On("GetByID", mock.Anything, int64(100)).
		Return(nil, storagereservation.ErrReservationNotFound)

	_, err := env.svc.GetByID(context.Background(), 100, 42)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestGetByID_AccessDenied(t *testing.T) {
	env := newTestEnv()

	env.reservations.On("GetByID", mock.Anything, int64(100)).Return(activeReservation(), nil)
	// Другой клиент
	env.clients.On("GetByExternalID", mock.Anything, int64(99)).Return(&domain.Client{ID: 8}, nil)

	_, err := env.svc.GetByID(context.Background(), 100, 99)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetByID_UnknownClientDenied(t *testing.T) {
	env := newTestEnv()

	env.reservations.On("GetByID", mock.Anything, int64(100)).Return(activeReservation(), nil)
	env.clients.On("GetByExternalID", mock.Anything, int64(99)).
		Return(nil, storageclient.ErrClientNotFound)

	_, err := env.svc.GetByID(context.Background(), 100, 99)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetClientReservations_UnknownClientReturnsEmpty(t *testing.T) {
	env := newTestEnv()

	env.clients.On("GetByExternalID", mock.Anything, int64(42)).
		Return(nil, storageclient.ErrClientNotFound)

	resp, err := env.svc.GetClientReservations(context.Background(), &models.GetClientReservationsRequest{
		ExternalUserID: 42,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Reservations)
}

func TestGetClientReservations_InvalidStatus(t *testing.T) {
	env := newTestEnv()

	bad := "unknown"
	_, err := env.svc.GetClientReservations(context.Background(), &models.GetClientReservationsRequest{
		ExternalUserID: 42,
		Status:         &bad,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetClientReservations_WithStatusFilter(t *testing.T) {
	env := newTestEnv()

	status := "pending"
	expected := domain.StatusPending

	env.clients.On("GetByExternalID", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	env.reservations.On("GetByClientID", mock.Anything, int64(7), &expected).
		Return([]*domain.Reservation{activeReservation()}, nil)

	resp, err := env.svc.GetClientReservations(context.Background(), &models.GetClientReservationsRequest{
		ExternalUserID: 42,
		Status:         &status,
	})
	require.NoError(t, err)
	require.Len(t, resp.Reservations, 1)
	assert.Equal(t, int64(100), resp.Reservations[0].ID)
}

func TestReschedule_PreservesDuration(t *testing.T) {
	env := newTestEnv()

	newStart := testStart.Add(48 * time.Hour)

	env.reservations.On("GetByID", mock.Anything, int64(100)).Return(activeReservation(), nil)
	env.clients.On("GetByExternalID", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)

	// Новое время окончания = новое начало + прежняя длительность (час)
	env.reservations.On("UpdateSchedule", mock.Anything, int64(100),
		newStart, newStart.Add(time.Hour), (*int64)(nil), (*string)(nil)).Return(nil)
	env.history.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.StatusHistoryEntry) bool {
		return e.ReservationID == 100 &&
			e.FromStatus == domain.StatusPending &&
			e.ToStatus == domain.StatusPending &&
			e.Reason == domain.HistoryReasonModified
	})).Return(&domain.StatusHistoryEntry{ID: 1}, nil)
	env.reservations.On("GetItemsByReservationID", mock.Anything, int64(100)).
		Return([]*domain.ReservationItem{}, nil)

	_, err := env.svc.Reschedule(context.Background(), 100, &models.RescheduleRequest{
		ExternalUserID: 42,
		StartsAt:       &newStart,
	})
	require.NoError(t, err)

	env.reservations.AssertExpectations(t)
	env.history.AssertExpectations(t)
}

func TestReschedule_CancelledRejected(t *testing.T) {
	env := newTestEnv()

	cancelled := activeReservation()
	cancelled.Status = domain.StatusCancelled

	env.reservations.On("GetByID", mock.Anything, int64(100)).Return(cancelled, nil)
	env.clients.On("GetByExternalID", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)

	newStart := testStart.Add(48 * time.Hour)
	_, err := env.svc.Reschedule(context.Background(), 100, &models.RescheduleRequest{
		ExternalUserID: 42,
		StartsAt:       &newStart,
	})

	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	env.reservations.AssertNotCalled(t, "UpdateSchedule",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReschedule_NoChanges(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Reschedule(context.Background(), 100, &models.RescheduleRequest{
		ExternalUserID: 42,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCancel_AppendsHistory(t *testing.T) {
	env := newTestEnv()

	env.reservations.On("GetByID", mock.Anything, int64(100)).Return(activeReservation(), nil).Once()
	env.clients.On("GetByExternalID", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	env.reservations.On("Cancel", mock.Anything, int64(100), "передумал").Return(nil)
	env.history.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.StatusHistoryEntry) bool {
		return e.FromStatus == domain.StatusPending &&
			e.ToStatus == domain.StatusCancelled &&
			e.Reason == "передумал"
	})).Return(&domain.StatusHistoryEntry{ID: 2}, nil)

	// Повторное чтение после отмены
	cancelled := activeReservation()
	cancelled.Status = domain.StatusCancelled
	env.reservations.On("GetByID", mock.Anything, int64(100)).Return(cancelled, nil)
	env.reservations.On("GetItemsByReservationID", mock.Anything, int64(100)).
		Return([]*domain.ReservationItem{}, nil)

	resp, err := env.svc.Cancel(context.Background(), 100, &models.CancelRequest{
		ExternalUserID: 42,
		Reason:         "передумал",
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	env.history.AssertNumberOfCalls(t, "Append", 1)
}

func TestCancel_Idempotent(t *testing.T) {
	env := newTestEnv()

	cancelled := activeReservation()
	cancelled.Status = domain.StatusCancelled

	env.reservations.On("GetByID", mock.Anything, int64(100)).Return(cancelled, nil)
	env.clients.On("GetByExternalID", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	env.reservations.On("GetItemsByReservationID", mock.Anything, int64(100)).
		Return([]*domain.ReservationItem{}, nil)

	resp, err := env.svc.Cancel(context.Background(), 100, &models.CancelRequest{
		ExternalUserID: 42,
		Reason:         "повтор",
	})

	// Повторная отмена возвращает текущее состояние без новых записей
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	env.reservations.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
	env.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

// Проверка статуса должна идти под блокировкой строки, то есть внутри
// транзакции: иначе две одновременные отмены обе записали бы журнал
func TestCancel_StatusCheckedInsideTransaction(t *testing.T) {
	env := newTestEnv()
	txm := &trackingTxManager{}
	env.svc = NewService(env.reservations, env.clients, env.history, txm, nopLogger{})

	var readInTx bool
	env.reservations.On("GetByID", mock.Anything, int64(100)).
		Return(activeReservation(), nil).
		Run(func(args mock.Arguments) { readInTx = txm.inTx }).
		Once()
	env.clients.On("GetByExternalID", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	env.reservations.On("Cancel", mock.Anything, int64(100), "передумал").Return(nil)
	env.history.On("Append", mock.Anything, mock.Anything).
		Return(&domain.StatusHistoryEntry{ID: 2}, nil)

	cancelled := activeReservation()
	cancelled.Status = domain.StatusCancelled
	env.reservations.On("GetByID", mock.Anything, int64(100)).Return(cancelled, nil)
	env.reservations.On("GetItemsByReservationID", mock.Anything, int64(100)).
		Return([]*domain.ReservationItem{}, nil)

	_, err := env.svc.Cancel(context.Background(), 100, &models.CancelRequest{
		ExternalUserID: 42,
		Reason:         "передумал",
	})

	require.NoError(t, err)
	assert.True(t, readInTx)
}

func TestGetHistory_Ordered(t *testing.T) {
	env := newTestEnv()

	env.reservations.On("GetByID", mock.Anything, int64(100)).Return(activeReservation(), nil)
	env.clients.On("GetByExternalID", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	env.history.On("ListByReservationID", mock.Anything, int64(100)).
		Return([]*domain.StatusHistoryEntry{
			{ID: 1, ReservationID: 100, FromStatus: "", ToStatus: domain.StatusPending, Reason: domain.HistoryReasonCreated},
			{ID: 2, ReservationID: 100, FromStatus: domain.StatusPending, ToStatus: domain.StatusCancelled, Reason: "передумал"},
		}, nil)

	resp, err := env.svc.GetHistory(context.Background(), 100, 42)
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "", resp.Entries[0].FromStatus)
	assert.Equal(t, "pending", resp.Entries[0].ToStatus)
	assert.Equal(t, "cancelled", resp.Entries[1].ToStatus)
}
