package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	CompanyID int64
	ServiceID int64

	// Date локальный день компании, на который запрашиваются слоты (без времени)
	Date time.Time
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date      time.Time
	CompanyID int64
	ServiceID int64
	Slots     []Slot
}

// Slot один возможный слот начала услуги
type Slot struct {
	// StartTime локальное время начала в таймзоне компании
	StartTime       types.TimeString
	DurationMinutes int

	// AvailableEmployees количество подходящих сотрудников, свободных на весь интервал
	AvailableEmployees int

	// TotalEmployees общее количество активных сотрудников, умеющих выполнять услугу
	TotalEmployees int
}

// IsBookable возвращает true, если слот можно забронировать с назначением сотрудника
func (s *Slot) IsBookable() bool {
	return s.AvailableEmployees > 0
}
