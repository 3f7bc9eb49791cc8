package create_booking

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/companyservice"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifyservice"
)

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, rsv *domain.Reservation) (*domain.Reservation, error) {
	args := m.Called(ctx, rsv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) CreateItem(ctx context.Context, item *domain.ReservationItem) (*domain.ReservationItem, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReservationItem), args.Error(1)
}

func (m *MockReservationRepository) GetItemsByReservationID(ctx context.Context, reservationID int64) ([]*domain.ReservationItem, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReservationItem), args.Error(1)
}

func (m *MockReservationRepository) CountOverlapping(ctx context.Context, employeeID int64, start, end time.Time) (int, error) {
	args := m.Called(ctx, employeeID, start, end)
	return args.Int(0), args.Error(1)
}

func (m *MockReservationRepository) FindDuplicate(ctx context.Context, clientID, companyID int64, startFrom, startTo, createdAfter time.Time, firstServiceID int64) (*domain.Reservation, error) {
	args := m.Called(ctx, clientID, companyID, startFrom, startTo, createdAfter, firstServiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) GetOrCreate(ctx context.Context, externalUserID int64) (*domain.Client, error) {
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

type MockCompanyServiceClient struct {
	mock.Mock
}

func (m *MockCompanyServiceClient) GetCompany(ctx context.Context, companyID int64) (*companyservice.Company, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*companyservice.Company), args.Error(1)
}

func (m *MockCompanyServiceClient) GetService(ctx context.Context, companyID, serviceID int64) (*companyservice.Service, error) {
	args := m.Called(ctx, companyID, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*companyservice.Service), args.Error(1)
}

func (m *MockCompanyServiceClient) ListEmployees(ctx context.Context, companyID int64) ([]companyservice.Employee, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]companyservice.Employee), args.Error(1)
}

type MockNotifyServiceClient struct {
	mock.Mock
}

func (m *MockNotifyServiceClient) SendBookingConfirmation(ctx context.Context, confirmation *notifyservice.BookingConfirmation) error {
	args := m.Called(ctx, confirmation)
	return args.Error(0)
}

// stubTxManager прозрачный transaction manager: выполняет fn в том же контексте
type stubTxManager struct {
	beginErr error
}

func (s *stubTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.beginErr != nil {
		return s.beginErr
	}
	return fn(ctx)
}

// fixedTimeProvider провайдер фиксированного времени
type fixedTimeProvider struct {
	now time.Time
}

func (p *fixedTimeProvider) Now() time.Time {
	return p.now
}

// nopLogger глушит логи в тестах
type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}
