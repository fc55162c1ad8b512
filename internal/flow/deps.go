package flow

import (
	"context"
	"time"

	"github.com/wolfman30/salon-booking-web/internal/salon"
	"github.com/wolfman30/salon-booking-web/internal/salonapi"
)

// IdentityResolver runs the one-off session check at start.
type IdentityResolver interface {
	Resolve(ctx context.Context) salon.Identity
}

// Authenticator opens and closes remote sessions.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (salon.User, error)
	Register(ctx context.Context, req salonapi.RegisterRequest) error
	Logout(ctx context.Context) error
}

// SlotSource is the slot directory as seen by the controller.
type SlotSource interface {
	Refresh(ctx context.Context) error
	Available() []salon.TimeSlot
	All() []salon.TimeSlot
	Find(id int64) (salon.TimeSlot, bool)
}

// Booker performs booking side effects.
type Booker interface {
	Book(ctx context.Context, slot salon.TimeSlot, details salon.ClientDetails, previous *salon.Appointment) (salon.Appointment, error)
}

// Dashboard loads and edits the customer's bookings.
type Dashboard interface {
	Load(ctx context.Context) (salon.Bookings, error)
	Cancel(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, email, phone string) (salonapi.ProfileUpdate, error)
}

// AdminConsoleService manages slot inventory.
type AdminConsoleService interface {
	List() []salon.TimeSlot
	Reload(ctx context.Context) error
	Create(ctx context.Context, start, end time.Time) (salon.TimeSlot, error)
	Delete(ctx context.Context, id int64) error
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Sessions  IdentityResolver
	Auth      Authenticator
	Slots     SlotSource
	Bookings  Booker
	Dashboard Dashboard
	Admin     AdminConsoleService
}
