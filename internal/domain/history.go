package domain

import "time"

// StatusHistoryEntry одна запись append-only журнала переходов статуса бронирования
// Записи никогда не изменяются и не удаляются
type StatusHistoryEntry struct {
	ID            int64
	ReservationID int64

	// FromStatus пустой для записи о создании бронирования
	FromStatus ReservationStatus
	ToStatus   ReservationStatus

	// ChangedBy ID клиента или сотрудника, инициировавшего переход
	ChangedBy int64
	Reason    string

	CreatedAt time.Time
}

// Причины переходов, записываемые в журнал
const (
	HistoryReasonCreated  = "created"
	HistoryReasonModified = "modified"
)
