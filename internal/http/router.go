package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/pribylovaa/go-service-template/internal/config"
	"github.com/pribylovaa/go-service-template/internal/http/handlers"
	"github.com/pribylovaa/go-service-template/internal/http/middleware"
	"github.com/pribylovaa/go-service-template/internal/ratelimit"
	"github.com/pribylovaa/go-service-template/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration

	// Политики лимитера: Global применяется ко всем маршрутам,
	// Auth — дополнительно к login/register.
	GlobalPolicy ratelimit.Policy
	AuthPolicy   ratelimit.Policy

	// CORS применяется ко всем маршрутам; preflight-запросы (OPTIONS)
	// обслуживаются до роутинга и лимитера.
	CORS config.CORSConfig
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
//
// Порядок конвейера для каждого запроса фиксированный:
// rate limiter -> (на защищённых маршрутах) аутентификация -> хендлер;
// /health не проходит ни лимитер, ни аутентификацию.
func NewRouter(svc *service.Service, limiter *ratelimit.Limiter, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   opts.CORS.AllowedHeaders,
			ExposedHeaders:   opts.CORS.ExposedHeaders,
			AllowCredentials: opts.CORS.AllowCredentials,
			MaxAge:           opts.CORS.MaxAgeSeconds,
		}),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// health — вне лимитера и аутентификации.
	root.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h := handlers.New(svc)

	root.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter, opts.GlobalPolicy))

		r.Route("/v1/user", func(r chi.Router) {
			// Маршруты аутентификации — обе политики, побеждает более строгая.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(limiter, opts.AuthPolicy))
				r.Post("/register", h.Register)
				r.Post("/login", h.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(svc))
				r.Get("/me", h.Me)
			})
		})
	})

	return root
}
