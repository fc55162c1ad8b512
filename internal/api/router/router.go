package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/salon-booking-web/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/salon-booking-web/internal/http/middleware"
	"github.com/wolfman30/salon-booking-web/internal/visitor"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	App                *handlers.AppHandler
	Visitors           *visitor.Signer
	SecureCookies      bool
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimiter is optional; nil disables per-client throttling of /app.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.App == nil || cfg.Visitors == nil {
		return r
	}

	r.Route("/app", func(app chi.Router) {
		app.Use(visitor.Middleware(cfg.Visitors, cfg.SecureCookies))
		if cfg.Logger != nil {
			app.Use(httpmiddleware.RequestLogger(cfg.Logger))
		}
		if cfg.RateLimiter != nil {
			app.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}

		h := cfg.App
		app.Get("/view", h.View)
		app.Post("/book-now", h.BookNow)
		app.Post("/home", h.Home)
		app.Post("/back", h.BackToBooking)

		app.Post("/auth/show", h.ShowAuth)
		app.Post("/auth/login", h.Login)
		app.Post("/auth/register", h.Register)
		app.Post("/logout", h.Logout)

		app.Post("/slots/{slotID}/select", h.SelectSlot)
		app.Post("/confirm", h.Confirm)
		app.Post("/confirm/cancel", h.CancelConfirmation)
		app.Post("/modify", h.Modify)
		app.Get("/booking.ics", h.Invite)
		app.Get("/calendar/stream", h.CalendarStream)

		app.Post("/dashboard/toggle", h.ToggleDashboard)
		app.Post("/dashboard/cancel/{token}", h.CancelBooking)
		app.Put("/profile", h.UpdateProfile)

		app.Route("/admin", func(admin chi.Router) {
			admin.Post("/overlay", h.OpenAdminOverlay)
			admin.Delete("/overlay", h.CloseAdminOverlay)
			admin.Post("/login", h.AdminLogin)
			admin.Post("/logout", h.AdminLogout)
			admin.Get("/slots", h.AdminSlots)
			admin.Post("/slots", h.AdminCreateSlot)
			admin.Delete("/slots/{slotID}", h.AdminDeleteSlot)
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
