package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/companyservice"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifyservice"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	Create(ctx context.Context, rsv *domain.Reservation) (*domain.Reservation, error)
	CreateItem(ctx context.Context, item *domain.ReservationItem) (*domain.ReservationItem, error)
	GetItemsByReservationID(ctx context.Context, reservationID int64) ([]*domain.ReservationItem, error)
	CountOverlapping(ctx context.Context, employeeID int64, start, end time.Time) (int, error)
	FindDuplicate(ctx context.Context, clientID, companyID int64, startFrom, startTo, createdAfter time.Time, firstServiceID int64) (*domain.Reservation, error)
}

// ClientRepository интерфейс репозитория клиентов
type ClientRepository interface {
	GetOrCreate(ctx context.Context, externalUserID int64) (*domain.Client, error)
}

// HistoryRepository интерфейс репозитория журнала статусов
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.StatusHistoryEntry) (*domain.StatusHistoryEntry, error)
}

// CompanyServiceClient интерфейс клиента для CompanyService
type CompanyServiceClient interface {
	GetCompany(ctx context.Context, companyID int64) (*companyservice.Company, error)
	GetService(ctx context.Context, companyID, serviceID int64) (*companyservice.Service, error)
	ListEmployees(ctx context.Context, companyID int64) ([]companyservice.Employee, error)
}

// NotifyServiceClient интерфейс клиента для NotifyService
type NotifyServiceClient interface {
	SendBookingConfirmation(ctx context.Context, confirmation *notifyservice.BookingConfirmation) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
