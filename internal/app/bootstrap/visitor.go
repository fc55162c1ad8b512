package bootstrap

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wolfman30/salon-booking-web/internal/admin"
	appconfig "github.com/wolfman30/salon-booking-web/internal/config"
	"github.com/wolfman30/salon-booking-web/internal/dashboard"
	"github.com/wolfman30/salon-booking-web/internal/flow"
	"github.com/wolfman30/salon-booking-web/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-web/internal/salonapi"
	"github.com/wolfman30/salon-booking-web/internal/session"
	"github.com/wolfman30/salon-booking-web/internal/slots"
	"github.com/wolfman30/salon-booking-web/internal/submission"
	"github.com/wolfman30/salon-booking-web/internal/visitor"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

// NewVisitorFactory returns a factory that gives every visitor its own API
// client, and with it its own remote session, wired into a fresh controller.
func NewVisitorFactory(cfg *appconfig.Config, m *metrics.BookingMetrics, logger *logging.Logger) visitor.Factory {
	if logger == nil {
		logger = logging.Default()
	}
	return func(visitorID string) *visitor.Session {
		log := logger.With("visitor_id", visitorID)
		api := salonapi.NewClient(cfg.SalonAPIBaseURL, log,
			salonapi.WithTimeout(cfg.SalonAPITimeout),
			salonapi.WithMetrics(m),
		)
		dir := slots.NewDirectory(api, log).
			WithInterval(cfg.SlotPollInterval).
			WithMetrics(m)
		submitter := submission.NewSubmitter(api, log).WithMetrics(m)

		controller := flow.NewController(flow.Deps{
			Sessions:  session.NewResolver(api, log),
			Auth:      api,
			Slots:     dir,
			Bookings:  submitter,
			Dashboard: dashboard.NewService(api, submitter, log),
			Admin:     admin.NewConsole(api, dir, log),
		}, log).WithMetrics(m)

		return &visitor.Session{
			ID:         visitorID,
			Controller: controller,
			Remote:     api,
			Slots:      dir,
		}
	}
}

// VisitorSigner builds the cookie signer. Without a configured secret a random
// one is generated, which invalidates visitor cookies on every restart.
func VisitorSigner(cfg *appconfig.Config, logger *logging.Logger) (*visitor.Signer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	secret := cfg.VisitorSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("bootstrap: VISITOR_SECRET is required in production")
		}
		logger.Warn("VISITOR_SECRET not set; generating an ephemeral secret")
		secret = uuid.NewString() + uuid.NewString()
	}
	return visitor.NewSigner(secret, cfg.VisitorTTL)
}
