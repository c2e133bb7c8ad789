package response

import (
	"errors"
	"net/http"

	"github.com/pribylovaa/go-service-template/internal/service"
	"github.com/pribylovaa/go-service-template/internal/storage"
)

// Kind — закрытый набор видов ошибок API.
// Каждому виду соответствует фиксированная пара HTTP-статус + reason;
// маппинг тотален: любая ошибка нижних слоёв классифицируется ровно
// в один вид, неизвестные — в KindInternal без утечки деталей.
type Kind int

const (
	KindInvalidCredentials Kind = iota
	KindTokenMissing
	KindTokenExpired
	KindTokenInvalid
	KindRateLimited
	KindValidationFailed
	KindConflict
	KindNotFound
	KindInternal
)

// HTTP возвращает статус, reason и безопасное сообщение для вида ошибки.
func (k Kind) HTTP() (int, string, string) {
	switch k {
	case KindInvalidCredentials:
		return http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	case KindTokenMissing:
		return http.StatusUnauthorized, "token_missing", "authorization token required"
	case KindTokenExpired:
		return http.StatusUnauthorized, "token_expired", "token expired"
	case KindTokenInvalid:
		return http.StatusUnauthorized, "token_invalid", "invalid token"
	case KindRateLimited:
		return http.StatusTooManyRequests, "rate_limited", "too many requests"
	case KindValidationFailed:
		return http.StatusUnprocessableEntity, "validation_failed", "validation failed"
	case KindConflict:
		return http.StatusConflict, "resource_conflict", "resource already exists"
	case KindNotFound:
		return http.StatusNotFound, "not_found", "not found"
	case KindInternal:
		return http.StatusInternalServerError, "internal_error", "internal error"
	default:
		return http.StatusInternalServerError, "internal_error", "internal error"
	}
}

// Classify сводит ошибку нижних слоёв к виду из таксономии.
//
// Malformed-токен и битая подпись намеренно неразличимы для клиента
// (оба — KindTokenInvalid), чтобы не помогать подбору токенов;
// истёкший срок оставлен отдельным видом ради UX повторного входа.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, service.ErrTokenMissing):
		return KindTokenMissing
	case errors.Is(err, service.ErrTokenExpired):
		return KindTokenExpired
	case errors.Is(err, service.ErrInvalidToken):
		return KindTokenInvalid
	case errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrPasswordMismatch):
		return KindValidationFailed
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, storage.ErrAlreadyExists):
		return KindConflict
	case errors.Is(err, storage.ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// ToHTTP конвертирует ошибку в HTTP-статус и тело ошибки.
// err == nil — программная ошибка вызова: возвращаем 500/internal_error,
// чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
func ToHTTP(err error) (int, ErrorBody) {
	kind := KindInternal
	if err != nil {
		kind = Classify(err)
	}

	status, reason, msg := kind.HTTP()
	return status, ErrorBody{Reason: reason, Message: msg}
}

// WriteError — хелпер для HTTP-хендлеров: классифицирует ошибку,
// пишет корректный статус/конверт, добавляет request_id из заголовка.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := ToHTTP(err)
	writeErrorBody(w, r, status, body)
}

// WriteKind пишет ошибку заданного вида напрямую (без классификации) —
// для мест, где вид известен статически, например отказа rate limiter.
func WriteKind(w http.ResponseWriter, r *http.Request, kind Kind) {
	status, reason, msg := kind.HTTP()
	writeErrorBody(w, r, status, ErrorBody{Reason: reason, Message: msg})
}

func writeErrorBody(w http.ResponseWriter, r *http.Request, status int, body ErrorBody) {
	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		body.RequestID = rid
	}

	WriteJSON(w, status, Failure(body))
}
