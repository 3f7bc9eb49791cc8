package domain

// Дефолтные значения движка бронирования
const (
	// DefaultDedupWindowSeconds окно, в котором повторный запрос клиента
	// на то же время считается дублем (double click, ретрай сети)
	DefaultDedupWindowSeconds = 60

	// DedupStartToleranceSeconds допустимое отклонение времени начала,
	// при котором запросы считаются одинаковыми
	DedupStartToleranceSeconds = 60

	// DefaultSource источник бронирования по умолчанию
	DefaultSource = "api"
)

// Ограничения валидации
const (
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
	MaxItemsPerRequest          = 10
)

// Форматы времени
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses статусы, при которых бронирование занимает свой интервал
// Используется при проверке пересечений и поиске дублей
var ActiveStatuses = []ReservationStatus{
	StatusPending,
	StatusConfirmed,
}

// ValidStatuses все допустимые статусы бронирования
var ValidStatuses = []ReservationStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
	StatusCancelled,
}
