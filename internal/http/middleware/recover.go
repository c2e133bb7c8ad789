package middleware

import (
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-service-template/internal/http/response"
	logctx "github.com/pribylovaa/go-service-template/internal/pkg/log"
)

// Recover перехватывает panic, конвертирует в 500/internal_error и пишет
// унифицированный ответ. Детали паники не утекают на клиент.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					// Безопасно логируем факт паники; детали наружу не отдаем.
					logctx.From(r.Context()).
						LogAttrs(r.Context(), slog.LevelError, "panic",
							slog.String("path", r.URL.Path),
							slog.Any("reason", rec),
						)
					response.WriteKind(w, r, response.KindInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
