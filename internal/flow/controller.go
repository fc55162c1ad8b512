package flow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/salon-booking-web/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-web/internal/salon"
	"github.com/wolfman30/salon-booking-web/internal/salonapi"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

const registeredNotice = "Registration successful! Please login."

// cookieKeeper is implemented by API clients whose remote session lives in a cookie jar.
type cookieKeeper interface {
	Cookies() []*http.Cookie
	SetCookies([]*http.Cookie)
}

// Controller is the single decision point for what a visitor sees. Events are
// serialized: each method holds the controller lock for its whole duration,
// including the remote calls it makes.
type Controller struct {
	deps    Deps
	logger  *logging.Logger
	metrics *metrics.BookingMetrics

	mu       sync.Mutex
	started  bool
	identity salon.Identity
	state    State
	overlay  *AdminLoginOverlay
	bookings salon.Bookings
}

func NewController(deps Deps, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{
		deps:     deps,
		logger:   logger,
		identity: salon.Anonymous(),
		state:    Landing{},
	}
}

func (c *Controller) WithMetrics(m *metrics.BookingMetrics) *Controller {
	c.metrics = m
	return c
}

// Start resolves the identity once. Later calls are no-ops.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true

	if c.deps.Sessions != nil {
		c.identity = c.deps.Sessions.Resolve(ctx)
	}
	switch {
	case c.identity.IsAdmin():
		c.setState(c.adminConsole(ctx))
	case c.identity.IsCustomer():
		c.loadBookings(ctx)
		c.enterCalendar(ctx)
	default:
		c.setState(Landing{})
	}
	c.logger.Debug("booking flow started", "identity", c.identity.Kind, "view", c.state.View())
}

// Started reports whether Start has run.
func (c *Controller) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func (c *Controller) Identity() salon.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.View()
}

// Flags returns the legacy flag tuple for the current state.
func (c *Controller) Flags() Flags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FlagsOf(c.identity, c.state)
}

// Overlay returns the admin login overlay, or nil when closed.
func (c *Controller) Overlay() *AdminLoginOverlay {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay == nil {
		return nil
	}
	o := *c.overlay
	return &o
}

// BookNow starts guest booking from the landing screen.
func (c *Controller) BookNow(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.identity.IsAnonymous() || !c.in(ViewLanding, ViewAuthForm) {
		return invalid("book now", c.state.View())
	}
	c.enterCalendar(ctx)
	return nil
}

// BackToHome leaves guest booking.
func (c *Controller) BackToHome() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cal, ok := c.state.(SlotCalendar)
	if !ok || !cal.Guest || !c.identity.IsAnonymous() {
		return invalid("back to home", c.state.View())
	}
	c.setState(Landing{})
	return nil
}

// ShowAuth opens the auth form in the given mode.
func (c *Controller) ShowAuth(mode AuthMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.identity.IsAnonymous() || !c.in(ViewLanding, ViewAuthForm) {
		return invalid("show auth", c.state.View())
	}
	if mode != AuthModeRegister {
		mode = AuthModeLogin
	}
	c.setState(AuthForm{Mode: mode})
	return nil
}

// Login signs a customer in from the auth form. Bad credentials stay on the
// form with an inline error.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.identity.IsAnonymous() || !c.in(ViewLanding, ViewAuthForm) {
		return invalid("login", c.state.View())
	}
	if strings.TrimSpace(username) == "" || password == "" {
		c.setState(AuthForm{Mode: AuthModeLogin, Error: "Username and password are required"})
		return nil
	}
	user, err := c.deps.Auth.Login(ctx, username, password)
	if err != nil {
		c.logger.Debug("customer login failed", "error", err)
		c.setState(AuthForm{Mode: AuthModeLogin, Error: authMessage(err)})
		return nil
	}
	c.identity = user.Identity()
	c.logger.Info("visitor signed in", "identity", c.identity.Kind, "username", c.identity.Username)
	if c.identity.IsAdmin() {
		c.overlay = nil
		c.setState(c.adminConsole(ctx))
		return nil
	}
	c.enterDashboard(ctx, "")
	return nil
}

// Register creates an account and returns to the login form with a notice.
func (c *Controller) Register(ctx context.Context, req salonapi.RegisterRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.identity.IsAnonymous() || !c.in(ViewLanding, ViewAuthForm) {
		return invalid("register", c.state.View())
	}
	if err := c.deps.Auth.Register(ctx, req); err != nil {
		c.logger.Debug("registration failed", "error", err)
		c.setState(AuthForm{Mode: AuthModeRegister, Error: authMessage(err)})
		return nil
	}
	c.setState(AuthForm{Mode: AuthModeLogin, Notice: registeredNotice})
	return nil
}

// Logout ends the remote session and returns to the landing screen.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity.IsAnonymous() {
		return invalid("logout", c.state.View())
	}
	c.signOut(ctx)
	return nil
}

// SelectSlot opens the confirmation form for a slot from the calendar or the
// dashboard. Selecting again from the form swaps the slot and keeps the rest.
func (c *Controller) SelectSlot(ctx context.Context, slotID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity.IsAdmin() || !c.in(ViewSlotCalendar, ViewCustomerDashboard, ViewConfirmationForm) {
		return invalid("select slot", c.state.View())
	}

	var previous *salon.Appointment
	if form, ok := c.state.(ConfirmationForm); ok {
		previous = form.Previous
	}
	slot, err := c.lookupSlot(ctx, slotID, previous)
	if err != nil {
		return err
	}

	next := ConfirmationForm{Slot: slot, Return: ReturnCalendar, Guest: c.identity.IsAnonymous()}
	switch cur := c.state.(type) {
	case ConfirmationForm:
		next.Previous = cur.Previous
		next.Details = cur.Details
		next.Return = cur.Return
	case CustomerDashboard:
		next.Return = ReturnDashboard
	}
	c.setState(next)
	return nil
}

// Confirm submits the confirmation form. Failures stay on the form with the
// slot still selected.
func (c *Controller) Confirm(ctx context.Context, details salon.ClientDetails) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	form, ok := c.state.(ConfirmationForm)
	if !ok {
		return invalid("confirm", c.state.View())
	}

	appt, err := c.deps.Bookings.Book(ctx, form.Slot, details, form.Previous)
	if err != nil {
		form.Details = details
		form.Error = salon.UserMessage(err)
		var partial *salon.PartialModifyFailure
		if errors.As(err, &partial) {
			form.Previous = nil
			c.refreshSlots(ctx)
			if c.identity.IsCustomer() {
				c.loadBookings(ctx)
			}
		}
		c.logger.Info("booking submission failed", "slot_id", form.Slot.ID, "error", err)
		c.setState(form)
		return nil
	}

	if c.identity.IsCustomer() {
		c.loadBookings(ctx)
	}
	c.refreshSlots(ctx)
	c.setState(SuccessScreen{Booking: appt, Guest: c.identity.IsAnonymous()})
	return nil
}

// CancelConfirmation drops the selected slot and goes back where it came from.
func (c *Controller) CancelConfirmation(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	form, ok := c.state.(ConfirmationForm)
	if !ok {
		return invalid("cancel confirmation", c.state.View())
	}
	if form.Return == ReturnDashboard && c.identity.IsCustomer() {
		c.enterDashboard(ctx, "")
		return nil
	}
	c.enterCalendar(ctx)
	return nil
}

// Modify reopens the confirmation form pre-filled from the booking just made.
// Submitting it cancels that booking before creating the new one.
func (c *Controller) Modify() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	success, ok := c.state.(SuccessScreen)
	if !ok {
		return invalid("modify", c.state.View())
	}
	previous := success.Booking
	c.setState(ConfirmationForm{
		Slot:     previous.Slot(),
		Previous: &previous,
		Details:  previous.Details(),
		Return:   ReturnCalendar,
		Guest:    success.Guest,
	})
	return nil
}

// BackToBooking clears transient state from the success screen or dashboard.
func (c *Controller) BackToBooking(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.in(ViewSuccessScreen, ViewCustomerDashboard) {
		return invalid("back to booking", c.state.View())
	}
	if c.identity.IsCustomer() {
		c.enterCalendar(ctx)
		return nil
	}
	c.setState(Landing{})
	return nil
}

// ToggleDashboard flips a customer between the dashboard and the calendar.
func (c *Controller) ToggleDashboard(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.identity.IsCustomer() {
		return invalid("toggle dashboard", c.state.View())
	}
	if c.in(ViewCustomerDashboard) {
		c.enterCalendar(ctx)
		return nil
	}
	c.enterDashboard(ctx, "")
	return nil
}

// CancelBooking cancels one of the customer's bookings and reloads the dashboard.
func (c *Controller) CancelBooking(ctx context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.identity.IsCustomer() || !c.in(ViewCustomerDashboard) {
		return invalid("cancel booking", c.state.View())
	}
	if err := c.deps.Dashboard.Cancel(ctx, token); err != nil {
		c.logger.Warn("dashboard cancel failed", "error", err)
		dash := c.state.(CustomerDashboard)
		dash.Error = salon.UserMessage(err)
		dash.Notice = ""
		c.setState(dash)
		return nil
	}
	c.refreshSlots(ctx)
	c.enterDashboard(ctx, "Appointment cancelled.")
	return nil
}

// UpdateProfile changes the customer's contact details.
func (c *Controller) UpdateProfile(ctx context.Context, email, phone string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.identity.IsCustomer() || !c.in(ViewCustomerDashboard) {
		return invalid("update profile", c.state.View())
	}
	saved, err := c.deps.Dashboard.UpdateProfile(ctx, email, phone)
	if err != nil {
		c.logger.Warn("profile update failed", "error", err)
		dash := c.state.(CustomerDashboard)
		dash.Error = salon.UserMessage(err)
		dash.Notice = ""
		c.setState(dash)
		return nil
	}
	c.identity.Email = saved.Email
	c.identity.Phone = saved.Phone
	c.enterDashboard(ctx, "Profile updated.")
	return nil
}

// OpenAdminOverlay shows the admin login overlay over the current state.
func (c *Controller) OpenAdminOverlay() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity.IsAdmin() {
		return invalid("open admin overlay", c.state.View())
	}
	c.overlay = &AdminLoginOverlay{}
	return nil
}

// CloseAdminOverlay hides the overlay. Closing a closed overlay is a no-op.
func (c *Controller) CloseAdminOverlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay = nil
}

// AdminLogin authenticates through the overlay. Only the ADMIN role gets in;
// any other account is signed out again and the visitor's identity is left
// exactly as it was.
func (c *Controller) AdminLogin(ctx context.Context, username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay == nil || c.identity.IsAdmin() {
		return invalid("admin login", c.state.View())
	}
	if strings.TrimSpace(username) == "" || password == "" {
		c.overlay = &AdminLoginOverlay{Error: "Invalid credentials"}
		return nil
	}

	var saved []*http.Cookie
	keeper, hasJar := c.deps.Auth.(cookieKeeper)
	if hasJar {
		saved = keeper.Cookies()
	}

	user, err := c.deps.Auth.Login(ctx, username, password)
	if err != nil {
		c.logger.Debug("admin login failed", "error", err)
		c.overlay = &AdminLoginOverlay{Error: adminLoginMessage(err)}
		return nil
	}

	if !strings.EqualFold(user.Role, salon.RoleAdmin) {
		c.logger.Warn("admin login refused for non-admin account", "username", user.Username)
		if err := c.deps.Auth.Logout(ctx); err != nil {
			c.logger.Warn("discarding non-admin session failed", "error", err)
		}
		if hasJar && len(saved) > 0 {
			keeper.SetCookies(saved)
		}
		c.overlay = &AdminLoginOverlay{Error: salon.UserMessage(salon.ErrAccessDenied)}
		return nil
	}

	c.identity = user.Identity()
	c.overlay = nil
	c.bookings = salon.Bookings{}
	c.logger.Info("admin signed in", "username", c.identity.Username)
	c.setState(c.adminConsole(ctx))
	return nil
}

// AdminLogout signs the admin out and returns to the landing screen.
func (c *Controller) AdminLogout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.identity.IsAdmin() {
		return invalid("admin logout", c.state.View())
	}
	c.signOut(ctx)
	return nil
}

// AdminReload refetches the slot listing for the console.
func (c *Controller) AdminReload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.identity.IsAdmin() {
		return invalid("admin reload", c.state.View())
	}
	c.setState(c.adminConsole(ctx))
	return nil
}

// AdminCreateSlot publishes a slot. Validation and remote failures are shown inline.
func (c *Controller) AdminCreateSlot(ctx context.Context, start, end time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.identity.IsAdmin() {
		return invalid("admin create slot", c.state.View())
	}
	if _, err := c.deps.Admin.Create(ctx, start, end); err != nil {
		c.logger.Info("slot create refused", "error", err)
		c.setState(AdminConsole{Error: salon.UserMessage(err)})
		return nil
	}
	c.setState(AdminConsole{})
	return nil
}

// AdminDeleteSlot removes a slot that has no bookings.
func (c *Controller) AdminDeleteSlot(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.identity.IsAdmin() {
		return invalid("admin delete slot", c.state.View())
	}
	if err := c.deps.Admin.Delete(ctx, id); err != nil {
		c.logger.Info("slot delete refused", "slot_id", id, "error", err)
		c.setState(AdminConsole{Error: salon.UserMessage(err)})
		return nil
	}
	c.setState(AdminConsole{})
	return nil
}

// LastBooking returns the booking on the success screen.
func (c *Controller) LastBooking() (salon.Appointment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	success, ok := c.state.(SuccessScreen)
	if !ok {
		return salon.Appointment{}, false
	}
	return success.Booking, true
}

func (c *Controller) in(views ...View) bool {
	current := c.state.View()
	for _, v := range views {
		if v == current {
			return true
		}
	}
	return false
}

func (c *Controller) setState(next State) {
	from := c.state.View()
	c.state = next
	c.metrics.ObserveViewChange(string(from), string(next.View()))
}

func (c *Controller) signOut(ctx context.Context) {
	if c.deps.Auth != nil {
		if err := c.deps.Auth.Logout(ctx); err != nil {
			c.logger.Warn("remote logout failed", "error", err)
		}
	}
	c.logger.Info("visitor signed out", "identity", c.identity.Kind, "username", c.identity.Username)
	c.identity = salon.Anonymous()
	c.bookings = salon.Bookings{}
	c.overlay = nil
	c.setState(Landing{})
}

func (c *Controller) enterCalendar(ctx context.Context) {
	c.refreshSlots(ctx)
	c.setState(SlotCalendar{Guest: c.identity.IsAnonymous()})
}

func (c *Controller) enterDashboard(ctx context.Context, notice string) {
	dash := CustomerDashboard{Notice: notice}
	if err := c.loadBookings(ctx); err != nil {
		dash.Error = salon.UserMessage(err)
		dash.Notice = ""
	}
	dash.Bookings = c.bookings
	c.setState(dash)
}

func (c *Controller) adminConsole(ctx context.Context) AdminConsole {
	if c.deps.Admin == nil {
		return AdminConsole{}
	}
	if err := c.deps.Admin.Reload(ctx); err != nil {
		c.logger.Warn("admin slot reload failed", "error", err)
		return AdminConsole{Error: salon.UserMessage(err)}
	}
	return AdminConsole{}
}

func (c *Controller) loadBookings(ctx context.Context) error {
	if c.deps.Dashboard == nil {
		return nil
	}
	bookings, err := c.deps.Dashboard.Load(ctx)
	if err != nil {
		c.logger.Warn("loading bookings failed", "error", err)
		return err
	}
	c.bookings = bookings
	return nil
}

func (c *Controller) refreshSlots(ctx context.Context) {
	if c.deps.Slots == nil {
		return
	}
	if err := c.deps.Slots.Refresh(ctx); err != nil {
		c.logger.Warn("slot refresh failed", "error", err)
	}
}

// lookupSlot finds a bookable slot, refreshing once if the snapshot is stale.
// The slot held by the booking being modified counts as bookable.
func (c *Controller) lookupSlot(ctx context.Context, id int64, previous *salon.Appointment) (salon.TimeSlot, error) {
	if previous != nil && previous.Slot().ID == id {
		return previous.Slot(), nil
	}
	if c.deps.Slots == nil {
		return salon.TimeSlot{}, fmt.Errorf("flow: select slot %d: %w", id, salon.ErrSlotNotFound)
	}
	slot, ok := c.deps.Slots.Find(id)
	if !ok || !slot.Available {
		c.refreshSlots(ctx)
		slot, ok = c.deps.Slots.Find(id)
	}
	if !ok {
		return salon.TimeSlot{}, fmt.Errorf("flow: select slot %d: %w", id, salon.ErrSlotNotFound)
	}
	if !slot.Available {
		return salon.TimeSlot{}, fmt.Errorf("flow: select slot %d: %w", id, salon.ErrBookingConflict)
	}
	return slot, nil
}

func authMessage(err error) string {
	var authErr *salon.AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return salon.UserMessage(err)
}

func adminLoginMessage(err error) string {
	var authErr *salon.AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return "Login failed"
}
