package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-service-template/internal/http/response"
	"github.com/pribylovaa/go-service-template/internal/ratelimit"
	"github.com/pribylovaa/go-service-template/internal/service"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusOK)
	}), mw("outer"), mw("inner"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var ctxID string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := RequestIDFrom(r.Context())
		require.True(t, ok)
		ctxID = id
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	got := rec.Header().Get("X-Request-Id")
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), got)
	require.Equal(t, got, ctxID)
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := RequestIDFrom(r.Context())
		require.Equal(t, "incoming-id", id)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "incoming-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "incoming-id", rec.Header().Get("X-Request-Id"))
}

// stubVerifier — TokenVerifier с фиксированным ответом.
type stubVerifier struct {
	uid uuid.UUID
	err error

	gotToken string
}

func (s *stubVerifier) ValidateToken(_ context.Context, token string) (uuid.UUID, error) {
	s.gotToken = token
	return s.uid, s.err
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()

	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	require.Nil(t, env.Data)
	return *env.Error
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	h := RequireAuth(&stubVerifier{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/user/me", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "token_missing", decodeError(t, rec).Reason)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"no bearer prefix", "Token abc"},
		{"empty bearer", "Bearer "},
		{"lowercase scheme", "bearer abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := RequireAuth(&stubVerifier{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("handler must not be reached")
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/user/me", nil)
			req.Header.Set("Authorization", tc.value)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "token_invalid", decodeError(t, rec).Reason)
		})
	}
}

func TestRequireAuth_VerifierErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		reason string
	}{
		{"expired", fmt.Errorf("op: %w", service.ErrTokenExpired), "token_expired"},
		{"invalid", fmt.Errorf("op: %w", service.ErrInvalidToken), "token_invalid"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := RequireAuth(&stubVerifier{err: tc.err})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("handler must not be reached")
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/user/me", nil)
			req.Header.Set("Authorization", "Bearer some-token")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, tc.reason, decodeError(t, rec).Reason)
		})
	}
}

func TestRequireAuth_Success_PutsIdentityInContext(t *testing.T) {
	uid := uuid.New()
	verifier := &stubVerifier{uid: uid}

	var gotID uuid.UUID
	h := RequireAuth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		require.True(t, ok)
		gotID = id
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/user/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uid, gotID)
	require.Equal(t, "valid-token", verifier.gotToken)
}

func TestRateLimit_RejectsBeyondLimit(t *testing.T) {
	store := ratelimit.NewMemoryStore(0)
	limiter := ratelimit.New(store)
	p := ratelimit.Policy{Name: "auth", Limit: 2, Window: time.Minute}

	h := RateLimit(limiter, p)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/user/login", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/user/login", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "rate_limited", decodeError(t, rec).Reason)
}

func TestRateLimit_StrictestPolicyWins(t *testing.T) {
	store := ratelimit.NewMemoryStore(0)
	limiter := ratelimit.New(store)

	global := ratelimit.Policy{Name: "global", Limit: 100, Window: time.Minute}
	auth := ratelimit.Policy{Name: "auth", Limit: 1, Window: time.Minute}

	h := RateLimit(limiter, global, auth)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/user/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/user/login", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("store unavailable")
}

func TestRateLimit_StoreFailure_FailsOpen(t *testing.T) {
	limiter := ratelimit.New(failingStore{})
	p := ratelimit.Policy{Name: "auth", Limit: 1, Window: time.Second}

	h := RateLimit(limiter, p)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Недоступное хранилище счётчиков не блокирует трафик.
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/user/login", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	h := Recover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeError(t, rec)
	require.Equal(t, "internal_error", body.Reason)
	// Детали паники не утекают на клиент.
	require.NotContains(t, rec.Body.String(), "boom")
}

func TestTimeout_SetsDeadline(t *testing.T) {
	h := Timeout(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Deadline()
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTimeout_NonPositive_IsNoop(t *testing.T) {
	h := Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Deadline()
		require.False(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
