package flow

import (
	"encoding/json"
	"fmt"

	"github.com/wolfman30/salon-booking-web/internal/salon"
)

// Snapshot is the rendered view model handed to the browser.
type Snapshot struct {
	View           View               `json:"view"`
	Identity       salon.Identity     `json:"identity"`
	AdminOverlay   *AdminLoginOverlay `json:"adminOverlay,omitempty"`
	State          State              `json:"state"`
	AvailableSlots []salon.TimeSlot   `json:"availableSlots,omitempty"`
	Slots          []salon.TimeSlot   `json:"slots,omitempty"`
	Bookings       *salon.Bookings    `json:"bookings,omitempty"`
}

// Snapshot renders the current state together with the data its view shows.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		View:     c.state.View(),
		Identity: c.identity,
		State:    c.state,
	}
	if c.overlay != nil {
		o := *c.overlay
		snap.AdminOverlay = &o
	}
	switch c.state.(type) {
	case SlotCalendar, ConfirmationForm:
		if c.deps.Slots != nil {
			snap.AvailableSlots = c.deps.Slots.Available()
		}
	case AdminConsole:
		if c.deps.Admin != nil {
			snap.Slots = c.deps.Admin.List()
		}
	}
	if c.identity.IsCustomer() {
		b := c.bookings
		snap.Bookings = &b
	}
	return snap
}

// Memento is the persistable form of a controller.
type Memento struct {
	Started  bool               `json:"started"`
	Identity salon.Identity     `json:"identity"`
	View     View               `json:"view"`
	State    json.RawMessage    `json:"state"`
	Overlay  *AdminLoginOverlay `json:"overlay,omitempty"`
	Bookings salon.Bookings     `json:"bookings"`
}

// Memento captures identity and state so the flow can be restored later.
func (c *Controller) Memento() (Memento, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(c.state)
	if err != nil {
		return Memento{}, fmt.Errorf("flow: memento: %w", err)
	}
	m := Memento{
		Started:  c.started,
		Identity: c.identity,
		View:     c.state.View(),
		State:    raw,
		Bookings: c.bookings,
	}
	if c.overlay != nil {
		o := *c.overlay
		m.Overlay = &o
	}
	return m, nil
}

// Restore replaces the controller's state with m. A memento whose state does
// not match its identity is rejected.
func (c *Controller) Restore(m Memento) error {
	state, err := decodeState(m.View, m.State)
	if err != nil {
		return err
	}
	if got, err := Resolve(FlagsOf(m.Identity, state)); err != nil || got != m.View {
		return fmt.Errorf("flow: restore: state %s inconsistent with identity %s", m.View, m.Identity.Kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = m.Started
	c.identity = m.Identity
	if c.identity.Kind == "" {
		c.identity = salon.Anonymous()
	}
	c.state = state
	c.bookings = m.Bookings
	c.overlay = nil
	if m.Overlay != nil && !c.identity.IsAdmin() {
		o := *m.Overlay
		c.overlay = &o
	}
	return nil
}

func decodeState(view View, raw json.RawMessage) (State, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	var (
		state State
		err   error
	)
	switch view {
	case ViewLanding:
		state = Landing{}
	case ViewAuthForm:
		var s AuthForm
		err = json.Unmarshal(raw, &s)
		state = s
	case ViewSlotCalendar:
		var s SlotCalendar
		err = json.Unmarshal(raw, &s)
		state = s
	case ViewConfirmationForm:
		var s ConfirmationForm
		err = json.Unmarshal(raw, &s)
		state = s
	case ViewSuccessScreen:
		var s SuccessScreen
		err = json.Unmarshal(raw, &s)
		state = s
	case ViewCustomerDashboard:
		var s CustomerDashboard
		err = json.Unmarshal(raw, &s)
		state = s
	case ViewAdminConsole:
		var s AdminConsole
		err = json.Unmarshal(raw, &s)
		state = s
	default:
		return nil, fmt.Errorf("flow: restore: unknown view %q", view)
	}
	if err != nil {
		return nil, fmt.Errorf("flow: restore %s: %w", view, err)
	}
	return state, nil
}
