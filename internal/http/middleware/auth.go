package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-service-template/internal/http/response"
	"github.com/pribylovaa/go-service-template/internal/service"
)

// TokenVerifier проверяет access-токен и возвращает идентификатор субъекта.
// Реализуется *service.Service.
type TokenVerifier interface {
	ValidateToken(ctx context.Context, accessToken string) (uuid.UUID, error)
}

// RequireAuth — аутентификация защищённых маршрутов.
//
// Шаги для каждого запроса: извлечение Bearer-токена из Authorization ->
// проверка через TokenVerifier -> идентичность в контекст -> downstream
// обработчик. Любой отказ терминален: ответ немедленно уходит через
// response без ретраев.
func RequireAuth(tokens TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				response.WriteError(w, r, service.ErrTokenMissing)
				return
			}

			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				response.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				response.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			userID, err := tokens.ValidateToken(r.Context(), token)
			if err != nil {
				response.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), userID)))
		})
	}
}
