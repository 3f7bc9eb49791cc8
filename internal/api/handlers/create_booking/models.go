package create_booking

import (
	"errors"
	"time"

	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
)

// ErrInvalidStartsAt возвращается при некорректном формате времени начала
var ErrInvalidStartsAt = errors.New("invalid startsAt format")

// BookingItemRequest одна услуга в запросе на бронирование
type BookingItemRequest struct {
	ServiceID  int64    `json:"serviceId"`
	StartsAt   *string  `json:"startsAt,omitempty"` // RFC3339, по умолчанию продолжает цепочку
	EmployeeID *int64   `json:"employeeId,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	Currency   string   `json:"currency,omitempty"`
}

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	CompanyID  int64                `json:"companyId"`
	StartsAt   string               `json:"startsAt"` // RFC3339
	EmployeeID *int64               `json:"employeeId,omitempty"`
	LocationID *int64               `json:"locationId,omitempty"`
	Notes      *string              `json:"notes,omitempty"`
	Source     string               `json:"source,omitempty"`
	Items      []BookingItemRequest `json:"items"`
}

// BookingItemResponse одна созданная позиция бронирования
type BookingItemResponse struct {
	ReservationID   int64   `json:"reservationId"`
	ServiceID       int64   `json:"serviceId"`
	StartsAt        string  `json:"startsAt"`
	EndsAt          string  `json:"endsAt"`
	EmployeeID      *int64  `json:"employeeId,omitempty"`
	Staffed         bool    `json:"staffed"`
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
	DurationMinutes int     `json:"durationMinutes"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	ReservationID int64                 `json:"reservationId"`
	Status        string                `json:"status"`
	Deduplicated  bool                  `json:"deduplicated"`
	FullyStaffed  bool                  `json:"fullyStaffed"`
	Items         []BookingItemResponse `json:"items"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(externalUserID int64) (*createBooking.Request, error) {
	startsAt, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return nil, ErrInvalidStartsAt
	}

	items := make([]createBooking.RequestedItem, 0, len(r.Items))
	for _, item := range r.Items {
		var itemStartsAt *time.Time
		if item.StartsAt != nil {
			parsed, err := time.Parse(time.RFC3339, *item.StartsAt)
			if err != nil {
				return nil, ErrInvalidStartsAt
			}
			itemStartsAt = &parsed
		}

		items = append(items, createBooking.RequestedItem{
			ServiceID:  item.ServiceID,
			StartsAt:   itemStartsAt,
			EmployeeID: item.EmployeeID,
			Price:      item.Price,
			Currency:   item.Currency,
		})
	}

	return &createBooking.Request{
		ExternalUserID: externalUserID,
		CompanyID:      r.CompanyID,
		StartsAt:       startsAt,
		EmployeeID:     r.EmployeeID,
		LocationID:     r.LocationID,
		Notes:          r.Notes,
		Source:         r.Source,
		Items:          items,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	items := make([]BookingItemResponse, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, BookingItemResponse{
			ReservationID:   item.ReservationID,
			ServiceID:       item.ServiceID,
			StartsAt:        item.StartsAt.Format(time.RFC3339),
			EndsAt:          item.EndsAt.Format(time.RFC3339),
			EmployeeID:      item.EmployeeID,
			Staffed:         item.Staffed,
			Price:           item.Price,
			Currency:        item.Currency,
			DurationMinutes: item.DurationMinutes,
		})
	}

	return &CreateBookingResponse{
		ReservationID: resp.ReservationID,
		Status:        resp.Status,
		Deduplicated:  resp.Deduplicated,
		FullyStaffed:  resp.FullyStaffed,
		Items:         items,
	}
}
