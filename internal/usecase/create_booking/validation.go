package create_booking

import (
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса до любых обращений к БД
func validateRequest(req *Request) error {
	if req.ExternalUserID <= 0 {
		return fmt.Errorf("%w: externalUserID must be positive", ErrInvalidInput)
	}

	if req.CompanyID <= 0 {
		return fmt.Errorf("%w: companyID must be positive", ErrInvalidInput)
	}

	if req.StartsAt.IsZero() {
		return fmt.Errorf("%w: startsAt is required", ErrInvalidInput)
	}

	if len(req.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}

	if len(req.Items) > domain.MaxItemsPerRequest {
		return fmt.Errorf("%w: at most %d items per request", ErrInvalidInput, domain.MaxItemsPerRequest)
	}

	for i, item := range req.Items {
		if item.ServiceID <= 0 {
			return fmt.Errorf("%w: items[%d].serviceID must be positive", ErrInvalidInput, i)
		}
		if item.Price != nil && *item.Price < 0 {
			return fmt.Errorf("%w: items[%d].price must not be negative", ErrInvalidInput, i)
		}
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	return nil
}
