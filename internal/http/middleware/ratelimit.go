package middleware

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/pribylovaa/go-service-template/internal/http/response"
	logctx "github.com/pribylovaa/go-service-template/internal/pkg/log"
	"github.com/pribylovaa/go-service-template/internal/ratelimit"
)

// RateLimit применяет к запросу политики лимитера в порядке перечисления;
// ключ клиента — его сетевой адрес. Отказ любой политики терминален
// (самая строгая побеждает), запрос при этом уже учтён в счётчиках.
//
// Ошибка хранилища счётчиков (например, недоступный Redis) не валит
// запрос: лимитер деградирует в fail-open с записью в лог.
func RateLimit(limiter *ratelimit.Limiter, policies ...ratelimit.Policy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			for _, p := range policies {
				allowed, err := limiter.Allow(r.Context(), p, key)
				if err != nil {
					logctx.From(r.Context()).Warn("rate_limit_store_failed",
						slog.String("policy", p.Name),
						slog.String("err", err.Error()),
					)
					continue
				}

				if !allowed {
					response.WriteKind(w, r, response.KindRateLimited)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey выделяет IP клиента из RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
