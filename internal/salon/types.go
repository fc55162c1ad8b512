// Package salon contains the domain model shared by the booking front end:
// identities, time slots, appointments and the error taxonomy surfaced to visitors.
package salon

import (
	"strings"
	"time"
)

// IdentityKind tags which variant an Identity holds.
type IdentityKind string

const (
	KindAnonymous IdentityKind = "anonymous"
	KindCustomer  IdentityKind = "customer"
	KindAdmin     IdentityKind = "admin"
)

// RoleAdmin is the remote role string that grants access to the admin console.
const RoleAdmin = "ADMIN"

// Identity is who the visitor currently is. Only the flow controller mutates it.
type Identity struct {
	Kind     IdentityKind `json:"kind"`
	ID       int64        `json:"id,omitempty"`
	Username string       `json:"username,omitempty"`
	Email    string       `json:"email,omitempty"`
	Phone    string       `json:"phone,omitempty"`
}

// Anonymous returns the identity of a visitor without a session.
func Anonymous() Identity {
	return Identity{Kind: KindAnonymous}
}

// Customer builds an authenticated customer identity.
func Customer(id int64, username, email, phone string) Identity {
	return Identity{Kind: KindCustomer, ID: id, Username: username, Email: email, Phone: phone}
}

// Admin builds an authenticated admin identity.
func Admin(id int64, username string) Identity {
	return Identity{Kind: KindAdmin, ID: id, Username: username}
}

func (i Identity) IsAnonymous() bool { return i.Kind == "" || i.Kind == KindAnonymous }
func (i Identity) IsCustomer() bool  { return i.Kind == KindCustomer }
func (i Identity) IsAdmin() bool     { return i.Kind == KindAdmin }

// User is the account record returned by the remote auth endpoints.
type User struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Identity maps the remote role onto an identity variant.
func (u User) Identity() Identity {
	if strings.EqualFold(u.Role, RoleAdmin) {
		return Admin(u.ID, u.Username)
	}
	return Customer(u.ID, u.Username, u.Email, u.Phone)
}

// AppointmentSummary is the nested appointment view the admin listing carries per slot.
type AppointmentSummary struct {
	ClientName  string `json:"clientName"`
	ClientEmail string `json:"clientEmail,omitempty"`
	ClientPhone string `json:"clientPhone,omitempty"`
	Service     string `json:"service,omitempty"`
	Location    string `json:"location,omitempty"`
}

// TimeSlot is a bookable interval published by an administrator.
// A slot with Available == false always has at least one appointment.
type TimeSlot struct {
	ID           int64                `json:"id"`
	StartTime    Timestamp            `json:"startTime"`
	EndTime      Timestamp            `json:"endTime"`
	Available    bool                 `json:"available"`
	Appointments []AppointmentSummary `json:"appointments,omitempty"`
}

// Deletable reports whether an admin may remove the slot.
func (s TimeSlot) Deletable() bool {
	return s.Available && len(s.Appointments) == 0
}

// Overlaps reports whether two slots share any instant.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.StartTime.Before(other.EndTime.Time) && other.StartTime.Before(s.EndTime.Time)
}

// Appointment is a customer's booking against exactly one slot.
type Appointment struct {
	ID                int64     `json:"id"`
	TimeSlotID        int64     `json:"timeSlotId,omitempty"`
	CustomerName      string    `json:"customerName"`
	CustomerEmail     string    `json:"customerEmail"`
	CustomerPhone     string    `json:"customerPhone"`
	Service           string    `json:"service"`
	Location          string    `json:"location"`
	CancellationToken string    `json:"cancellationToken"`
	StartTime         Timestamp `json:"startTime"`
	EndTime           Timestamp `json:"endTime"`
	TimeSlot          *TimeSlot `json:"timeSlot,omitempty"`
}

// Slot returns the slot the appointment was booked on. The remote API embeds it;
// when it does not, the appointment's own fields are used.
func (a Appointment) Slot() TimeSlot {
	if a.TimeSlot != nil {
		return *a.TimeSlot
	}
	return TimeSlot{ID: a.TimeSlotID, StartTime: a.StartTime, EndTime: a.EndTime}
}

// Details returns the client details the appointment was booked with.
func (a Appointment) Details() ClientDetails {
	return ClientDetails{
		CustomerName:  a.CustomerName,
		CustomerEmail: a.CustomerEmail,
		CustomerPhone: a.CustomerPhone,
		Service:       a.Service,
		Location:      a.Location,
	}
}

// ClientDetails is what the confirmation form collects.
type ClientDetails struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	Service       string `json:"service"`
	Location      string `json:"location"`
}

// Validate checks that every form field is filled in.
func (d ClientDetails) Validate() error {
	fields := []struct{ name, value string }{
		{"customerName", d.CustomerName},
		{"customerEmail", d.CustomerEmail},
		{"customerPhone", d.CustomerPhone},
		{"service", d.Service},
		{"location", d.Location},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name, Message: f.name + " is required"}
		}
	}
	return nil
}

// Bookings is a customer's dashboard listing.
type Bookings struct {
	Upcoming []Appointment `json:"upcoming"`
	History  []Appointment `json:"history"`
}

// Timestamp is a time.Time that accepts the ISO-8601 variants the remote API and
// its clients produce, including minute precision without seconds.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// At wraps t as a Timestamp.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses s using the accepted layouts. Zone-less values are UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Timestamp{Time: t}, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return Timestamp{}, firstErr
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
