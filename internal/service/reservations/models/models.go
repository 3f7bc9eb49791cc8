package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid reservation status")
)

// Request модели

// RescheduleRequest запрос на перенос бронирования
type RescheduleRequest struct {
	ExternalUserID int64 `json:"-"`

	// StartsAt новое время начала; nil - время не меняется
	StartsAt *time.Time `json:"startsAt,omitempty"`

	// EmployeeID новый сотрудник; nil - сотрудник не меняется
	EmployeeID *int64 `json:"employeeId,omitempty"`

	// Notes новые заметки; nil - заметки не меняются
	Notes *string `json:"notes,omitempty"`
}

// HasChanges возвращает true, если запрос меняет хотя бы одно поле
func (r *RescheduleRequest) HasChanges() bool {
	return r.StartsAt != nil || r.EmployeeID != nil || r.Notes != nil
}

// CancelRequest запрос на отмену бронирования
type CancelRequest struct {
	ExternalUserID int64  `json:"-"`
	Reason         string `json:"reason"`
}

// GetClientReservationsRequest запрос на получение бронирований клиента
type GetClientReservationsRequest struct {
	ExternalUserID int64   `json:"-"`
	Status         *string `json:"status,omitempty"`
}

// Response модели

// ReservationResponse ответ с данными бронирования
type ReservationResponse struct {
	ID         int64  `json:"id"`
	CompanyID  int64  `json:"companyId"`
	ClientID   int64  `json:"clientId"`
	EmployeeID *int64 `json:"employeeId,omitempty"`
	LocationID *int64 `json:"locationId,omitempty"`

	StartsAt string `json:"startsAt"` // RFC3339
	EndsAt   string `json:"endsAt"`   // RFC3339
	Status   string `json:"status"`
	Staffed  bool   `json:"staffed"`

	Notes  *string `json:"notes,omitempty"`
	Source string  `json:"source"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`

	Items []ItemResponse `json:"items,omitempty"`
}

// ItemResponse позиция бронирования
type ItemResponse struct {
	ID              int64   `json:"id"`
	ServiceID       int64   `json:"serviceId"`
	EmployeeID      *int64  `json:"employeeId,omitempty"`
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
	DurationMinutes int     `json:"durationMinutes"`
}

// ReservationListResponse список бронирований
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
}

// HistoryEntryResponse запись append-only журнала статусов
type HistoryEntryResponse struct {
	ID            int64  `json:"id"`
	ReservationID int64  `json:"reservationId"`
	FromStatus    string `json:"fromStatus,omitempty"`
	ToStatus      string `json:"toStatus"`
	ChangedBy     int64  `json:"changedBy"`
	Reason        string `json:"reason"`
	CreatedAt     string `json:"createdAt"`
}

// HistoryResponse журнал статусов бронирования
type HistoryResponse struct {
	ReservationID int64                  `json:"reservationId"`
	Entries       []HistoryEntryResponse `json:"entries"`
}

// Конвертеры

// FromDomainReservation конвертирует доменное бронирование в response
func FromDomainReservation(rsv *domain.Reservation, items []*domain.ReservationItem) *ReservationResponse {
	resp := &ReservationResponse{
		ID:                 rsv.ID,
		CompanyID:          rsv.CompanyID,
		ClientID:           rsv.ClientID,
		EmployeeID:         rsv.EmployeeID,
		LocationID:         rsv.LocationID,
		StartsAt:           rsv.StartsAt.Format(time.RFC3339),
		EndsAt:             rsv.EndsAt.Format(time.RFC3339),
		Status:             string(rsv.Status),
		Staffed:            rsv.IsStaffed(),
		Notes:              rsv.Notes,
		Source:             rsv.Source,
		CancellationReason: rsv.CancellationReason,
		CreatedAt:          rsv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          rsv.UpdatedAt.Format(time.RFC3339),
		Items:              make([]ItemResponse, 0, len(items)),
	}

	if rsv.CancelledAt != nil {
		cancelledAt := rsv.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledAt
	}

	for _, item := range items {
		resp.Items = append(resp.Items, ItemResponse{
			ID:              item.ID,
			ServiceID:       item.ServiceID,
			EmployeeID:      item.EmployeeID,
			Price:           item.Price,
			Currency:        item.Currency,
			DurationMinutes: item.DurationMinutes,
		})
	}

	return resp
}

// FromDomainReservationList конвертирует список доменных бронирований в response
func FromDomainReservationList(reservations []*domain.Reservation) *ReservationListResponse {
	resp := &ReservationListResponse{
		Reservations: make([]ReservationResponse, 0, len(reservations)),
	}
	for _, rsv := range reservations {
		resp.Reservations = append(resp.Reservations, *FromDomainReservation(rsv, nil))
	}
	return resp
}

// FromDomainHistory конвертирует журнал бронирования в response
func FromDomainHistory(reservationID int64, entries []*domain.StatusHistoryEntry) *HistoryResponse {
	resp := &HistoryResponse{
		ReservationID: reservationID,
		Entries:       make([]HistoryEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, HistoryEntryResponse{
			ID:            e.ID,
			ReservationID: e.ReservationID,
			FromStatus:    string(e.FromStatus),
			ToStatus:      string(e.ToStatus),
			ChangedBy:     e.ChangedBy,
			Reason:        e.Reason,
			CreatedAt:     e.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

// ToDomainReservationStatus конвертирует строку в доменный статус с валидацией
func ToDomainReservationStatus(s string) (domain.ReservationStatus, error) {
	status := domain.ReservationStatus(s)
	for _, valid := range domain.ValidStatuses {
		if status == valid {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}
