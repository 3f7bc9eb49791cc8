package create_booking

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrCompanyNotFound возвращается, когда компания не найдена
	ErrCompanyNotFound = errors.New("create_booking: company not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrClosedDay возвращается, когда у компании нет окон приёма на запрошенный день
	ErrClosedDay = errors.New("create_booking: company is closed on this day")

	// ErrOutsideHours возвращается, когда интервал позиции не помещается
	// целиком ни в одно окно приёма
	ErrOutsideHours = errors.New("create_booking: interval is outside opening hours")

	// ErrInvalidConfiguration возвращается при некорректной конфигурации компании
	// (неизвестная таймзона, битый формат окон приёма)
	ErrInvalidConfiguration = errors.New("create_booking: invalid company configuration")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
