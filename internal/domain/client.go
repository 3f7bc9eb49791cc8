package domain

import "time"

// Client запись клиента, лениво создаваемая при первом бронировании
// Ключ - внешний идентификатор пользователя из заголовка X-User-ID
type Client struct {
	ID             int64
	ExternalUserID int64
	CreatedAt      time.Time
}
