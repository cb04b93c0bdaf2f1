package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/runease-api/internal/config"
	"github.com/runease-api/internal/metrics"
	"github.com/runease-api/internal/transport/http/handler"
	appmiddleware "github.com/runease-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. The returned limiter
// must be closed on shutdown.
func NewRouter(cfg *config.Config, deps *Deps) (http.Handler, *appmiddleware.RateLimiter) {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(appmiddleware.HTTPLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Applied to every endpoint that sends mail or checks a code or password.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(deps.Verification)
	userH := handler.NewUserHandler(deps.Users)
	authH := handler.NewAuthHandler(deps.Auth)
	statsH := handler.NewStatisticsHandler(deps.Statistics)

	r.NotFound(healthH.NotFound)
	r.MethodNotAllowed(healthH.MethodNotAllowed)

	r.Get("/health", healthH.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(sensitiveRL.Limit)
		r.Post("/send-otp", otpH.Send)
		r.Post("/verify-otp", otpH.Verify)
		r.Post("/users", userH.Register)
		r.Post("/login", authH.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.Auth(deps.Tokens))
		r.Get("/me", userH.Me)
	})

	r.Get("/users/{id}", userH.Get)
	r.Get("/athletes/{id}/statistics", statsH.ForAthlete)

	return r, sensitiveRL
}
