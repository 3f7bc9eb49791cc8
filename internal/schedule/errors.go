package schedule

import "errors"

var (
	// ErrInvalidTimezone возвращается при неизвестном IANA идентификаторе таймзоны
	// Это ошибка конфигурации компании, фатальная для запроса
	ErrInvalidTimezone = errors.New("schedule: invalid timezone identifier")

	// ErrClosedDay возвращается, когда у компании нет ни одного окна приёма
	// на запрошенный день недели
	ErrClosedDay = errors.New("schedule: company is closed on this day")

	// ErrOutsideHours возвращается, когда ни одно окно приёма не содержит
	// запрошенный интервал целиком
	ErrOutsideHours = errors.New("schedule: interval is outside opening hours")
)
