// Package flow is the booking flow controller: it owns the visitor's identity
// and decides which single view is rendered at any moment.
package flow

import "github.com/wolfman30/salon-booking-web/internal/salon"

// View names the screen a state renders.
type View string

const (
	ViewLanding           View = "landing"
	ViewAuthForm          View = "auth_form"
	ViewSlotCalendar      View = "slot_calendar"
	ViewConfirmationForm  View = "confirmation_form"
	ViewSuccessScreen     View = "success_screen"
	ViewCustomerDashboard View = "customer_dashboard"
	ViewAdminConsole      View = "admin_console"
)

// Views lists every view in resolution order.
var Views = []View{
	ViewAdminConsole,
	ViewCustomerDashboard,
	ViewLanding,
	ViewAuthForm,
	ViewSuccessScreen,
	ViewConfirmationForm,
	ViewSlotCalendar,
}

// State is one of the seven flow variants. Each variant carries only the data
// its view needs, so no ambiguous combination can be built.
type State interface {
	View() View
	flags() Flags
}

// AuthMode selects the login or registration half of the auth form.
type AuthMode string

const (
	AuthModeLogin    AuthMode = "login"
	AuthModeRegister AuthMode = "register"
)

// Landing is the anonymous home screen with the Book Now entry point.
type Landing struct{}

// AuthForm is the customer login/registration form.
type AuthForm struct {
	Mode   AuthMode `json:"mode"`
	Error  string   `json:"error,omitempty"`
	Notice string   `json:"notice,omitempty"`
}

// SlotCalendar lists bookable slots. Guest is set for anonymous visitors.
type SlotCalendar struct {
	Guest bool `json:"guest"`
}

// ReturnTo is where cancelling the confirmation form leads.
type ReturnTo string

const (
	ReturnCalendar  ReturnTo = "calendar"
	ReturnDashboard ReturnTo = "dashboard"
)

// ConfirmationForm collects client details for Slot. Previous is set while
// modifying an existing booking.
type ConfirmationForm struct {
	Slot     salon.TimeSlot      `json:"slot"`
	Previous *salon.Appointment  `json:"previousAppointment,omitempty"`
	Details  salon.ClientDetails `json:"details"`
	Return   ReturnTo            `json:"return"`
	Guest    bool                `json:"guest"`
	Error    string              `json:"error,omitempty"`
}

// SuccessScreen shows the booking that was just made.
type SuccessScreen struct {
	Booking salon.Appointment `json:"booking"`
	Guest   bool              `json:"guest"`
}

// CustomerDashboard lists the customer's own bookings.
type CustomerDashboard struct {
	Bookings salon.Bookings `json:"bookings"`
	Error    string         `json:"error,omitempty"`
	Notice   string         `json:"notice,omitempty"`
}

// AdminConsole manages slot inventory.
type AdminConsole struct {
	Error string `json:"error,omitempty"`
}

// AdminLoginOverlay is rendered on top of any non-admin state.
type AdminLoginOverlay struct {
	Error string `json:"error,omitempty"`
}

func (Landing) View() View           { return ViewLanding }
func (AuthForm) View() View          { return ViewAuthForm }
func (SlotCalendar) View() View      { return ViewSlotCalendar }
func (ConfirmationForm) View() View  { return ViewConfirmationForm }
func (SuccessScreen) View() View     { return ViewSuccessScreen }
func (CustomerDashboard) View() View { return ViewCustomerDashboard }
func (AdminConsole) View() View      { return ViewAdminConsole }

func (Landing) flags() Flags  { return Flags{} }
func (AuthForm) flags() Flags { return Flags{AuthRequested: true} }

func (s SlotCalendar) flags() Flags { return Flags{GuestMode: s.Guest} }

func (s ConfirmationForm) flags() Flags {
	return Flags{SelectedSlot: true, LastBooking: s.Previous != nil, GuestMode: s.Guest}
}

func (s SuccessScreen) flags() Flags {
	return Flags{BookingSuccess: true, LastBooking: true, GuestMode: s.Guest}
}

func (CustomerDashboard) flags() Flags { return Flags{ShowDashboard: true} }
func (AdminConsole) flags() Flags      { return Flags{} }
