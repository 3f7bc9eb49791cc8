package domain

import "github.com/m04kA/SMC-AppointmentService/pkg/types"

// OpeningWindow одно окно приёма компании: день недели и локальный интервал времени
// Нумерация дней недели: 0=воскресенье .. 6=суббота (как в time.Weekday)
// У компании может быть несколько окон на один день (разрывной график)
type OpeningWindow struct {
	Weekday int
	Start   types.TimeString
	End     types.TimeString
}

// Contains проверяет, что окно полностью содержит интервал минут [startMin, endMin)
// Минуты считаются от локальной полуночи; конец окна "24:00" означает конец суток
func (w OpeningWindow) Contains(startMin, endMin int) bool {
	return startMin >= w.Start.Minutes() && endMin <= w.End.Minutes()
}
