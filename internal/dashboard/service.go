// Package dashboard serves a signed-in customer's own bookings.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/salon-booking-web/internal/salon"
	"github.com/wolfman30/salon-booking-web/internal/salonapi"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

// API is the remote account surface.
type API interface {
	UserAppointments(ctx context.Context) (salon.Bookings, error)
	UpdateProfile(ctx context.Context, update salonapi.ProfileUpdate) error
}

// Canceller cancels by token; see submission.Submitter.
type Canceller interface {
	Cancel(ctx context.Context, token string) error
}

type Service struct {
	api       API
	canceller Canceller
	logger    *logging.Logger
}

func NewService(api API, canceller Canceller, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{api: api, canceller: canceller, logger: logger}
}

// Load returns upcoming and past bookings as partitioned by the remote API.
func (s *Service) Load(ctx context.Context) (salon.Bookings, error) {
	bookings, err := s.api.UserAppointments(ctx)
	if err != nil {
		return salon.Bookings{}, fmt.Errorf("dashboard: load: %w", err)
	}
	if bookings.Upcoming == nil {
		bookings.Upcoming = []salon.Appointment{}
	}
	if bookings.History == nil {
		bookings.History = []salon.Appointment{}
	}
	return bookings, nil
}

// Cancel cancels one booking. Cancelling the same token twice is not an error.
func (s *Service) Cancel(ctx context.Context, token string) error {
	if err := s.canceller.Cancel(ctx, token); err != nil {
		return fmt.Errorf("dashboard: cancel: %w", err)
	}
	return nil
}

// UpdateProfile trims and sends the contact details and returns what the
// remote accepted.
func (s *Service) UpdateProfile(ctx context.Context, email, phone string) (salonapi.ProfileUpdate, error) {
	update := salonapi.ProfileUpdate{Email: strings.TrimSpace(email), Phone: strings.TrimSpace(phone)}
	if update.Email == "" {
		return salonapi.ProfileUpdate{}, &salon.ValidationError{Field: "email", Message: "Email is required."}
	}
	if err := s.api.UpdateProfile(ctx, update); err != nil {
		return salonapi.ProfileUpdate{}, fmt.Errorf("dashboard: update profile: %w", err)
	}
	s.logger.Info("profile updated")
	return update, nil
}
