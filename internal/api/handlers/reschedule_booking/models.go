package reschedule_booking

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/service/reservations/models"
)

// ErrInvalidStartsAt возвращается при некорректном формате времени начала
var ErrInvalidStartsAt = errors.New("invalid startsAt format")

// RescheduleBookingRequest HTTP request model
type RescheduleBookingRequest struct {
	StartsAt   *string `json:"startsAt,omitempty"` // RFC3339
	EmployeeID *int64  `json:"employeeId,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *RescheduleBookingRequest) ToServiceRequest(externalUserID int64) (*models.RescheduleRequest, error) {
	req := &models.RescheduleRequest{
		ExternalUserID: externalUserID,
		EmployeeID:     r.EmployeeID,
		Notes:          r.Notes,
	}

	if r.StartsAt != nil {
		startsAt, err := time.Parse(time.RFC3339, *r.StartsAt)
		if err != nil {
			return nil, ErrInvalidStartsAt
		}
		req.StartsAt = &startsAt
	}

	return req, nil
}
