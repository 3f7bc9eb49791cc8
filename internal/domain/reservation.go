package domain

import "time"

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Reservation represents one booked appointment slot for one service item
// Мультисервисный запрос создает несколько связанных бронирований,
// идущих друг за другом по времени (time chaining)
type Reservation struct {
	ID        int64
	CompanyID int64
	ClientID  int64

	// EmployeeID nil = сотрудник не назначен, бронирование ждет ручного распределения
	EmployeeID *int64
	LocationID *int64

	StartsAt time.Time
	EndsAt   time.Time
	Status   ReservationStatus

	Notes  *string
	Source string

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the reservation occupies its time interval
// (считается при проверке пересечений)
func (r *Reservation) IsActive() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// IsCancelled returns true if the reservation has been cancelled
func (r *Reservation) IsCancelled() bool {
	return r.Status == StatusCancelled
}

// CanBeRescheduled returns true if the reservation can still be modified
func (r *Reservation) CanBeRescheduled() bool {
	return r.Status != StatusCancelled
}

// IsStaffed returns true if an employee is assigned to the reservation
func (r *Reservation) IsStaffed() bool {
	return r.EmployeeID != nil
}

// Duration returns the reservation duration
func (r *Reservation) Duration() time.Duration {
	return r.EndsAt.Sub(r.StartsAt)
}

// Overlaps проверяет пересечение с интервалом [start, end)
// Полуоткрытые интервалы: соприкасающиеся границы пересечением не считаются
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartsAt.Before(end) && r.EndsAt.After(start)
}

// ReservationItem содержит детали услуги, привязанной к бронированию
type ReservationItem struct {
	ID            int64
	ReservationID int64
	ServiceID     int64

	// EmployeeID может отличаться от сотрудника бронирования при ручном перераспределении
	EmployeeID *int64

	Price           float64
	Currency        string
	DurationMinutes int
}
