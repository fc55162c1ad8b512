package flow

import (
	"errors"

	"github.com/wolfman30/salon-booking-web/internal/salon"
)

// ErrNoView is returned for a flag combination that renders nothing.
var ErrNoView = errors.New("flow: no view for flag combination")

// Flags is the flat flag tuple the booking screen used to be computed from.
// States no longer store it; it is derived for compatibility checks.
type Flags struct {
	Identity       salon.IdentityKind `json:"identity"`
	AuthRequested  bool               `json:"authRequested"`
	SelectedSlot   bool               `json:"selectedSlot"`
	LastBooking    bool               `json:"lastBooking"`
	BookingSuccess bool               `json:"bookingSuccess"`
	GuestMode      bool               `json:"guestMode"`
	ShowDashboard  bool               `json:"showDashboard"`
}

// FlagsOf projects a state and identity onto the flag tuple.
func FlagsOf(id salon.Identity, s State) Flags {
	f := s.flags()
	f.Identity = id.Kind
	if id.IsAnonymous() {
		f.Identity = salon.KindAnonymous
	}
	return f
}

// Resolve picks the view for a flag tuple. Rules are checked in order and the
// first match wins.
func Resolve(f Flags) (View, error) {
	anonymous := f.Identity == "" || f.Identity == salon.KindAnonymous
	customer := f.Identity == salon.KindCustomer

	switch {
	case f.Identity == salon.KindAdmin:
		return ViewAdminConsole, nil
	case f.ShowDashboard && customer:
		return ViewCustomerDashboard, nil
	case anonymous && !f.BookingSuccess && !f.SelectedSlot && !f.GuestMode:
		if f.AuthRequested {
			return ViewAuthForm, nil
		}
		return ViewLanding, nil
	case f.BookingSuccess && f.LastBooking:
		return ViewSuccessScreen, nil
	case f.SelectedSlot:
		return ViewConfirmationForm, nil
	case f.GuestMode || customer:
		return ViewSlotCalendar, nil
	default:
		return "", ErrNoView
	}
}
