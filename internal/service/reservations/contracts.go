package reservations

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetItemsByReservationID(ctx context.Context, reservationID int64) ([]*domain.ReservationItem, error)
	GetByClientID(ctx context.Context, clientID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error)
	UpdateSchedule(ctx context.Context, id int64, startsAt, endsAt time.Time, employeeID *int64, notes *string) error
	Cancel(ctx context.Context, id int64, reason string) error
}

// ClientRepository интерфейс репозитория клиентов
type ClientRepository interface {
	GetByExternalID(ctx context.Context, externalUserID int64) (*domain.Client, error)
}

// HistoryRepository интерфейс репозитория журнала статусов
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.StatusHistoryEntry) (*domain.StatusHistoryEntry, error)
	ListByReservationID(ctx context.Context, reservationID int64) ([]*domain.StatusHistoryEntry, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
