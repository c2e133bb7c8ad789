package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-service-template/internal/models"
	"github.com/pribylovaa/go-service-template/internal/service"
	"github.com/pribylovaa/go-service-template/internal/storage"
)

func TestSuccess_EnvelopeShape(t *testing.T) {
	user := models.PublicUser{
		ID:       uuid.New().String(),
		Username: "alice",
		Email:    "alice@example.com",
	}

	raw, err := json.Marshal(Success("User", user))
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &env))

	// api_version и data присутствуют, error — нет.
	require.Contains(t, env, "api_version")
	require.Contains(t, env, "data")
	require.NotContains(t, env, "error")

	var version string
	require.NoError(t, json.Unmarshal(env["api_version"], &version))
	require.Equal(t, APIVersion, version)

	// Поля нагрузки лежат на одном уровне с kind.
	var data map[string]any
	require.NoError(t, json.Unmarshal(env["data"], &data))
	require.Equal(t, "User", data["kind"])
	require.Equal(t, "alice", data["username"])
	require.Equal(t, "alice@example.com", data["email"])
	require.Equal(t, user.ID, data["id"])
}

func TestSuccess_PublicUser_HasNoPasswordFields(t *testing.T) {
	full := models.User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$...",
	}

	raw, err := json.Marshal(Success("User", full.Public()))
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &env))

	var data map[string]any
	require.NoError(t, json.Unmarshal(env["data"], &data))

	// Структурная проекция: полей пароля нет в принципе.
	require.NotContains(t, data, "password")
	require.NotContains(t, data, "password_hash")
	require.NotContains(t, data, "status")
}

func TestFailure_EnvelopeShape(t *testing.T) {
	raw, err := json.Marshal(Failure(ErrorBody{Reason: "not_found", Message: "not found"}))
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &env))

	require.Contains(t, env, "api_version")
	require.Contains(t, env, "error")
	require.NotContains(t, env, "data")

	var body ErrorBody
	require.NoError(t, json.Unmarshal(env["error"], &body))
	require.Equal(t, "not_found", body.Reason)
	require.Equal(t, "not found", body.Message)
}

func TestData_KindFieldIsReserved(t *testing.T) {
	// Одноимённое поле нагрузки не перетирает дискриминатор.
	payload := map[string]any{"kind": "Imposter", "value": 42}

	raw, err := json.Marshal(Data{Kind: "Session", Content: payload})
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal(raw, &data))
	require.Equal(t, "Session", data["kind"])
	require.Equal(t, float64(42), data["value"])
}

func TestKind_HTTPMapping(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
		reason string
	}{
		{KindInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{KindTokenMissing, http.StatusUnauthorized, "token_missing"},
		{KindTokenExpired, http.StatusUnauthorized, "token_expired"},
		{KindTokenInvalid, http.StatusUnauthorized, "token_invalid"},
		{KindRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{KindValidationFailed, http.StatusUnprocessableEntity, "validation_failed"},
		{KindConflict, http.StatusConflict, "resource_conflict"},
		{KindNotFound, http.StatusNotFound, "not_found"},
		{KindInternal, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.reason, func(t *testing.T) {
			status, reason, msg := tc.kind.HTTP()
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.reason, reason)
			require.NotEmpty(t, msg)
		})
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"invalid credentials", service.ErrInvalidCredentials, KindInvalidCredentials},
		{"token missing", service.ErrTokenMissing, KindTokenMissing},
		{"token expired", service.ErrTokenExpired, KindTokenExpired},
		{"token invalid", service.ErrInvalidToken, KindTokenInvalid},
		{"invalid username", service.ErrInvalidUsername, KindValidationFailed},
		{"invalid email", service.ErrInvalidEmail, KindValidationFailed},
		{"weak password", service.ErrWeakPassword, KindValidationFailed},
		{"password mismatch", service.ErrPasswordMismatch, KindValidationFailed},
		{"username taken", service.ErrUsernameTaken, KindConflict},
		{"email taken", service.ErrEmailTaken, KindConflict},
		{"storage already exists", storage.ErrAlreadyExists, KindConflict},
		{"storage not found", storage.ErrNotFound, KindNotFound},
		{"unknown error", errors.New("db down"), KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.err))

			// Классификация смотрит сквозь обёртки fmt.Errorf.
			wrapped := fmt.Errorf("service.auth.Op: %w", tc.err)
			require.Equal(t, tc.want, Classify(wrapped))
		})
	}
}

func TestToHTTP_NilError_IsInternal(t *testing.T) {
	status, body := ToHTTP(nil)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "internal_error", body.Reason)
}

func TestWriteError_WritesEnvelopeAndRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/user/me", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()

	WriteError(rec, req, fmt.Errorf("op: %w", service.ErrTokenMissing))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, APIVersion, env.APIVersion)
	require.Nil(t, env.Data)
	require.NotNil(t, env.Error)
	require.Equal(t, "token_missing", env.Error.Reason)
	require.Equal(t, "req-123", env.Error.RequestID)
}

func TestWriteKind_RateLimited(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/user/login", nil)
	rec := httptest.NewRecorder()

	WriteKind(rec, req, KindRateLimited)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	require.Equal(t, "rate_limited", env.Error.Reason)
	require.Empty(t, env.Error.RequestID)
}
