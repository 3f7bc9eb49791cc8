package cancel_booking

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/reservations/models"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(externalUserID int64) *models.CancelRequest {
	reason := ""
	if r.Reason != nil {
		reason = *r.Reason
	}

	return &models.CancelRequest{
		ExternalUserID: externalUserID,
		Reason:         reason,
	}
}
