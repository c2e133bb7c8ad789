// service содержит бизнес-логику сервиса:
// регистрацию/аутентификацию пользователей, выпуск/проверку access-токенов
// и работу с хранилищем через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются наружу и маппятся HTTP-слоем в единый ответ
//     (см. internal/http/response и комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/pribylovaa/go-service-template/internal/config"
	"github.com/pribylovaa/go-service-template/internal/pkg/password"
	"github.com/pribylovaa/go-service-template/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна, пользователь не найден
	// или учётная запись отключена. Наружу всегда 401 invalid_credentials:
	// перечисление пользователей по различию ответов недопустимо.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenMissing — на защищённом маршруте отсутствует bearer-токен.
	// HTTP: 401 token_missing.
	ErrTokenMissing = errors.New("token missing")

	// ErrInvalidToken — токен некорректен по структуре или подписи.
	// HTTP: 401 token_invalid.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк.
	// HTTP: 401 token_expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrUsernameTaken — username уже занят другим пользователем.
	// HTTP: 409 resource_conflict.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken — e-mail уже занят другим пользователем.
	// HTTP: 409 resource_conflict.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail — e-mail имеет некорректный формат.
	// HTTP: 422 validation_failed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidUsername — username пустой или вне границ 3..20 символов.
	// HTTP: 422 validation_failed.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrWeakPassword — пароль короче 8 символов.
	// HTTP: 422 validation_failed.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrPasswordMismatch — пароль и подтверждение не совпадают.
	// HTTP: 422 validation_failed.
	ErrPasswordMismatch = errors.New("password confirmation mismatch")
)

// Service описывает бизнес-логику сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	hasher  *password.Hasher
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig, hasher *password.Hasher) *Service {
	if hasher == nil {
		hasher = password.New(password.DefaultParams())
	}

	return &Service{
		storage: storage,
		cfg:     cfg,
		hasher:  hasher,
	}
}
