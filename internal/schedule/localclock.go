package schedule

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// LocalClock настенное время компании: момент UTC, переведенный в её таймзону
// Нумерация дней недели: 0=воскресенье .. 6=суббота
type LocalClock struct {
	Weekday int
	Hour    int
	Minute  int

	// DayStart локальная полночь этого дня (как абсолютный момент времени)
	DayStart time.Time
}

// Minutes возвращает количество минут с локальной полуночи
func (c LocalClock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// ToLocal переводит абсолютный момент времени в настенное время компании
// по правилам IANA базы таймзон (включая переходы на летнее время)
func ToLocal(instant time.Time, timezone string) (LocalClock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return LocalClock{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, timezone, err)
	}

	local := instant.In(loc)
	year, month, day := local.Date()

	return LocalClock{
		Weekday:  int(local.Weekday()),
		Hour:     local.Hour(),
		Minute:   local.Minute(),
		DayStart: time.Date(year, month, day, 0, 0, 0, 0, loc),
	}, nil
}

// ApplyLocalTimeToDay возвращает абсолютный момент времени: локальное время localTime
// в день day в указанной таймзоне. Обратная операция к ToLocal
func ApplyLocalTimeToDay(day time.Time, localTime types.TimeString, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, timezone, err)
	}

	if err := localTime.Validate(); err != nil {
		return time.Time{}, err
	}

	local := day.In(loc)
	year, month, d := local.Date()
	minutes := localTime.Minutes()

	return time.Date(year, month, d, minutes/60, minutes%60, 0, 0, loc), nil
}
