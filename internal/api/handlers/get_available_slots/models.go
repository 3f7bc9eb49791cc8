package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date      string          `json:"date"`
	CompanyID int64           `json:"companyId"`
	ServiceID int64           `json:"serviceId"`
	Slots     []AvailableSlot `json:"slots"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	StartTime          string `json:"startTime"` // "10:00" в таймзоне компании
	DurationMinutes    int    `json:"durationMinutes"`
	AvailableEmployees int    `json:"availableEmployees"`
	TotalEmployees     int    `json:"totalEmployees"`
	IsBookable         bool   `json:"isBookable"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartTime:          slot.StartTime.String(),
			DurationMinutes:    slot.DurationMinutes,
			AvailableEmployees: slot.AvailableEmployees,
			TotalEmployees:     slot.TotalEmployees,
			IsBookable:         slot.IsBookable(),
		}
	}

	return &AvailableSlotsResponse{
		Date:      resp.Date.Format(domain.DateFormat),
		CompanyID: resp.CompanyID,
		ServiceID: resp.ServiceID,
		Slots:     slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(companyID, serviceID int64, dateStr string) (*getAvailableSlots.Request, error) {
	// Парсим дату
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		CompanyID: companyID,
		ServiceID: serviceID,
		Date:      date,
	}, nil
}
