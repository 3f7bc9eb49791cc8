package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/companyservice"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// generateStartTimes генерирует возможные локальные времена начала услуги
// в окнах приёма на указанный день недели
//
// Внутри каждого окна старты идут с шагом stepMinutes от начала окна;
// старт допустим, только если услуга целиком помещается в окно
func generateStartTimes(windows []domain.OpeningWindow, weekday int, durationMinutes, stepMinutes int) []types.TimeString {
	starts := make([]types.TimeString, 0)

	for _, w := range windows {
		if w.Weekday != weekday {
			continue
		}

		windowStart := w.Start.Minutes()
		windowEnd := w.End.Minutes()

		for startMin := windowStart; startMin+durationMinutes <= windowEnd; startMin += stepMinutes {
			starts = append(starts, minutesToTimeString(startMin))
		}
	}

	return starts
}

// countFreeEmployees считает подходящих сотрудников, свободных на интервале [start, end)
// Занятость определяется по активным бронированиям; полуоткрытые интервалы -
// соприкасающиеся границы пересечением не считаются
func countFreeEmployees(
	employees []companyservice.Employee,
	serviceID int64,
	reservations []*domain.Reservation,
	start, end time.Time,
) (free int, total int) {
	for _, e := range employees {
		if !e.Active || !e.CanPerform(serviceID) {
			continue
		}
		total++

		if !employeeBusy(e.ID, reservations, start, end) {
			free++
		}
	}
	return free, total
}

// employeeBusy проверяет, занят ли сотрудник на интервале [start, end)
func employeeBusy(employeeID int64, reservations []*domain.Reservation, start, end time.Time) bool {
	for _, rsv := range reservations {
		if rsv.EmployeeID == nil || *rsv.EmployeeID != employeeID {
			continue
		}
		if !rsv.IsActive() {
			continue
		}
		if rsv.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// minutesToTimeString переводит минуты с полуночи в TimeString
func minutesToTimeString(minutes int) types.TimeString {
	t := time.Date(2000, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC)
	return types.NewTimeString(t)
}
