package notifyservice

// BookingConfirmation запрос на отправку подтверждения бронирования клиенту
type BookingConfirmation struct {
	// MessageID уникальный идентификатор сообщения, защищает NotifyService
	// от повторной отправки при ретраях
	MessageID string `json:"message_id"`

	ClientID      int64  `json:"client_id"`
	ReservationID int64  `json:"reservation_id"`
	CompanyName   string `json:"company_name"`

	// StartsAtLocal время начала в таймзоне компании, формат RFC3339
	StartsAtLocal string `json:"starts_at_local"`
}
