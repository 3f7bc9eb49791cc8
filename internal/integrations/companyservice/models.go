package companyservice

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Company модель компании из CompanyService
type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	// Timezone IANA идентификатор таймзоны компании (например, "Africa/Algiers")
	Timezone string `json:"timezone"`

	// OpeningWindows окна приёма; возможны несколько окон на один день недели
	OpeningWindows []OpeningWindow `json:"opening_windows"`
}

// OpeningWindow окно приёма: день недели (0=воскресенье..6=суббота) и локальный интервал
type OpeningWindow struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"` // "09:00"
	End     string `json:"end"`   // "18:00"
}

// DomainOpeningWindows конвертирует окна приёма в доменную модель с валидацией формата времени
func (c *Company) DomainOpeningWindows() ([]domain.OpeningWindow, error) {
	windows := make([]domain.OpeningWindow, 0, len(c.OpeningWindows))
	for _, w := range c.OpeningWindows {
		start, err := types.NewTimeStringFromString(w.Start)
		if err != nil {
			return nil, err
		}
		end, err := types.NewTimeStringFromString(w.End)
		if err != nil {
			return nil, err
		}
		windows = append(windows, domain.OpeningWindow{
			Weekday: w.Weekday,
			Start:   start,
			End:     end,
		})
	}
	return windows, nil
}

// Service модель услуги из CompanyService
type Service struct {
	ID              int64    `json:"id"`
	CompanyID       int64    `json:"company_id"`
	Name            string   `json:"name"`
	DurationMinutes int      `json:"duration_minutes"`
	Price           *float64 `json:"price,omitempty"`
	Currency        string   `json:"currency"`
}

// Employee модель сотрудника из CompanyService
type Employee struct {
	ID     int64 `json:"id"`
	Active bool  `json:"active"`

	// ServiceIDs услуги, которые сотрудник умеет выполнять
	ServiceIDs []int64 `json:"service_ids"`
}

// CanPerform возвращает true, если сотрудник умеет выполнять услугу
func (e *Employee) CanPerform(serviceID int64) bool {
	for _, id := range e.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// ErrorResponse модель ошибки от CompanyService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
