package create_booking

import "time"

// RequestedItem одна запрошенная услуга
type RequestedItem struct {
	ServiceID int64

	// StartsAt явное время начала; если nil, позиция продолжает цепочку
	// (начинается с конца предыдущей позиции)
	StartsAt *time.Time

	// EmployeeID предпочитаемый сотрудник для этой позиции
	EmployeeID *int64

	// Price цена, зафиксированная на момент запроса; если nil, берется из каталога услуг
	Price    *float64
	Currency string
}

// Request модель запроса на создание бронирования
type Request struct {
	ExternalUserID int64 // Внешний идентификатор пользователя (X-User-ID)
	CompanyID      int64
	StartsAt       time.Time // Время начала первой позиции

	// EmployeeID предпочитаемый сотрудник для всех позиций без собственного
	EmployeeID *int64
	LocationID *int64
	Notes      *string
	Source     string

	Items []RequestedItem
}

// ItemResult результат создания одной позиции
type ItemResult struct {
	ReservationID int64
	ServiceID     int64
	StartsAt      time.Time
	EndsAt        time.Time

	// EmployeeID nil вместе с Staffed=false: позиция создана без сотрудника
	// и ждет ручного распределения
	EmployeeID *int64
	Staffed    bool

	Price           float64
	Currency        string
	DurationMinutes int
}

// Response модель ответа с созданным бронированием
type Response struct {
	// ReservationID основной идентификатор бронирования (первая созданная позиция)
	ReservationID int64
	Status        string

	// Deduplicated true, если запрос распознан как повтор и возвращено
	// уже существующее бронирование
	Deduplicated bool

	// FullyStaffed false, если хотя бы одна позиция осталась без сотрудника
	FullyStaffed bool

	Items []ItemResult
}
