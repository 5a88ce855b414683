package api

import (
	"net/http"
	"time"

	"bookclub/metrics"
	"bookclub/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 60 * time.Second

// RouterConfig carries the settings the router needs besides its handlers
type RouterConfig struct {
	JWTSecret string
	Limiter   *RateLimiter
}

// NewRouter builds the HTTP surface of the club API
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	limited := func(next http.Handler) http.Handler { return next }
	if cfg.Limiter != nil {
		limited = cfg.Limiter.Handler
	}

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)

			// Admin views carry no role check
			r.Get("/applications", h.ListApplications)
			r.Post("/approve", h.Approve)

			r.With(OptionalAuth(cfg.JWTSecret)).Post("/confirm-payment", h.ConfirmPayment)

			r.Group(func(r chi.Router) {
				r.Use(JWTAuth(cfg.JWTSecret))
				r.Get("/eligibility", h.CheckEligibility)
				r.With(limited).Post("/apply", h.Apply)
				r.Delete("/cancel", h.Cancel)
			})
		})
	})

	r.Route("/me", func(r chi.Router) {
		r.Use(JWTAuth(cfg.JWTSecret))
		r.Get("/", h.Me)
		r.Get("/coins/history", h.CoinHistory)
	})

	r.Route("/admin/events", func(r chi.Router) {
		r.Use(JWTAuth(cfg.JWTSecret))
		r.Use(RequireRole(models.UserRoleAdmin))
		r.Use(limited)
		r.Post("/", h.CreateEvent)
		r.Patch("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
	})

	return r
}
