package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-service-template/internal/models"
	"github.com/pribylovaa/go-service-template/internal/pkg/log"
	"github.com/pribylovaa/go-service-template/internal/pkg/redact"
	"github.com/pribylovaa/go-service-template/internal/storage"
)

// Session — результат успешного входа: пользователь, access-токен
// и срок его жизни в секундах.
type Session struct {
	User        *models.User
	AccessToken string
	ExpiresIn   int64
}

// RegisterUser регистрирует нового пользователя.
func (s *Service) RegisterUser(ctx context.Context, username, email, pw, pwConfirm string) (*models.User, error) {
	const op = "service.auth.RegisterUser"

	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validatePassword(pw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if pw != pwConfirm {
		return nil, fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	if _, err := s.storage.UserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.storage.UserByEmail(ctx, normEmail); err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        normEmail,
		PasswordHash: hash,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// Гонка с параллельной регистрацией: уникальный индекс сработал
			// после наших предварительных проверок.
			return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_registered",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
	)

	return user, nil
}

// LoginUser выполняет вход по username-или-email и паролю.
//
// Любая причина отказа (пользователь не найден, учётка отключена,
// пароль не подошёл) наружу выглядит одинаково — ErrInvalidCredentials.
func (s *Service) LoginUser(ctx context.Context, login, pw string) (*Session, error) {
	const op = "service.auth.LoginUser"

	lg := log.From(ctx)

	login = strings.TrimSpace(login)
	if login == "" || pw == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.Status != models.UserStatusActive {
		lg.Warn("login_inactive_user",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	ok, err := s.hasher.Verify(pw, user.PasswordHash)
	if err != nil {
		// Битый хэш в хранилище — внутренняя проблема, не "неверный пароль".
		lg.Error("password_hash_malformed",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.generateAccessToken(ctx, user.ID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Session{
		User:        user,
		AccessToken: token,
		ExpiresIn:   int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// UserByID возвращает пользователя по идентификатору.
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "service.auth.UserByID"

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// validateUsername проверяет границы длины username (3..20 символов).
func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < 3 || n > 20 {
		return ErrInvalidUsername
	}

	return nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", ErrInvalidEmail
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю (длина >= 8).
func validatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < 8 {
		return ErrWeakPassword
	}

	return nil
}
