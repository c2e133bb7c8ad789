package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы пользователя.
const (
	UserStatusActive   int16 = 0
	UserStatusDisabled int16 = 1
)

// User — модель пользователя в системе.
// PasswordHash никогда не сериализуется наружу: на клиент уходит
// только проекция PublicUser, в которой поля хэша нет вовсе.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Status       int16
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser — публичная проекция пользователя для ответов API.
// Отсутствие секретных полей обеспечено структурой типа,
// а не дисциплиной на точках вызова.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public возвращает публичную проекцию пользователя.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
	}
}
