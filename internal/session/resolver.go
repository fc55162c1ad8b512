// Package session determines who the visitor is when the booking flow starts.
package session

import (
	"context"

	"github.com/wolfman30/salon-booking-web/internal/salon"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

// Introspector is the remote session check.
type Introspector interface {
	Me(ctx context.Context) (salon.User, error)
}

// Resolver asks the remote API once for the current identity.
type Resolver struct {
	api    Introspector
	logger *logging.Logger
}

func NewResolver(api Introspector, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{api: api, logger: logger}
}

// Resolve never fails: any problem with the session check means Anonymous.
func (r *Resolver) Resolve(ctx context.Context) salon.Identity {
	if r == nil || r.api == nil {
		return salon.Anonymous()
	}
	user, err := r.api.Me(ctx)
	if err != nil {
		r.logger.Debug("session check failed, continuing as anonymous", "error", err)
		return salon.Anonymous()
	}
	if user.Username == "" {
		r.logger.Debug("session check returned no user, continuing as anonymous")
		return salon.Anonymous()
	}
	return user.Identity()
}
