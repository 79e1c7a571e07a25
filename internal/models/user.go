package models

import "github.com/google/uuid"

// User — минимальная проекция профиля из users-service,
// достаточная для упоминаний и адресации уведомлений.
type User struct {
	ID       uuid.UUID
	Username string
	Name     string
	Email    string
}

// DisplayName возвращает имя для заголовков уведомлений.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}

	return u.Username
}
