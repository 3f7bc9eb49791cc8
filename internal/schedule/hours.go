package schedule

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ValidateInterval проверяет, что интервал [start, start+duration) целиком попадает
// хотя бы в одно окно приёма компании на соответствующий день недели
//
// Проверяется только расписание компании - персональные графики сотрудников
// на этом уровне не учитываются, их занятость обеспечивается проверкой пересечений
//
// Интервал, пересекающий локальную полночь, не содержится ни в одном окне
// и отклоняется как ErrOutsideHours
func ValidateInterval(windows []domain.OpeningWindow, timezone string, start time.Time, durationMinutes int) error {
	clock, err := ToLocal(start, timezone)
	if err != nil {
		return err
	}

	startMin := clock.Minutes()
	endMin := startMin + durationMinutes

	dayWindows := windowsForWeekday(windows, clock.Weekday)
	if len(dayWindows) == 0 {
		return ErrClosedDay
	}

	for _, w := range dayWindows {
		if w.Contains(startMin, endMin) {
			return nil
		}
	}

	return ErrOutsideHours
}

// windowsForWeekday отбирает окна приёма на указанный день недели
func windowsForWeekday(windows []domain.OpeningWindow, weekday int) []domain.OpeningWindow {
	result := make([]domain.OpeningWindow, 0, len(windows))
	for _, w := range windows {
		if w.Weekday == weekday {
			result = append(result, w)
		}
	}
	return result
}
