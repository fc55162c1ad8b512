package flow

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/wolfman30/salon-booking-web/internal/admin"
	"github.com/wolfman30/salon-booking-web/internal/dashboard"
	"github.com/wolfman30/salon-booking-web/internal/salon"
	"github.com/wolfman30/salon-booking-web/internal/salonapi"
	"github.com/wolfman30/salon-booking-web/internal/session"
	"github.com/wolfman30/salon-booking-web/internal/slots"
	"github.com/wolfman30/salon-booking-web/internal/submission"
)

type account struct {
	password string
	user     salon.User
}

// fakeRemote is an in-memory salon API holding one browser session.
type fakeRemote struct {
	mu       sync.Mutex
	accounts map[string]*account
	session  string
	slots    map[int64]*salon.TimeSlot
	appts    map[string]*salon.Appointment
	owners   map[string]string
	nextID   int64
	calls    []string

	createErr error
	cancelErr error
}

func newFakeRemote() *fakeRemote {
	r := &fakeRemote{
		accounts: map[string]*account{},
		slots:    map[int64]*salon.TimeSlot{},
		appts:    map[string]*salon.Appointment{},
		owners:   map[string]string{},
		nextID:   100,
	}
	r.accounts["ann"] = &account{password: "pw", user: salon.User{ID: 1, Username: "ann", Email: "ann@x.com", Phone: "555", Role: "CUSTOMER"}}
	r.accounts["bob"] = &account{password: "pw", user: salon.User{ID: 2, Username: "bob", Email: "bob@x.com", Role: "CUSTOMER"}}
	r.accounts["root"] = &account{password: "pw", user: salon.User{ID: 9, Username: "root", Role: "ADMIN"}}
	return r
}

func (r *fakeRemote) addSlot(id int64, start string) salon.TimeSlot {
	ts, err := salon.ParseTimestamp(start)
	if err != nil {
		panic(err)
	}
	slot := &salon.TimeSlot{ID: id, StartTime: ts, EndTime: salon.At(ts.Add(30 * time.Minute)), Available: true}
	r.mu.Lock()
	r.slots[id] = slot
	r.mu.Unlock()
	return *slot
}

func (r *fakeRemote) record(call string) {
	r.calls = append(r.calls, call)
}

func (r *fakeRemote) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRemote) activeOn(slotID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.appts {
		if a.TimeSlotID == slotID {
			n++
		}
	}
	return n
}

func (r *fakeRemote) Me(context.Context) (salon.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("me")
	acct, ok := r.accounts[r.session]
	if !ok {
		return salon.User{}, salon.ErrSession
	}
	return acct.user, nil
}

func (r *fakeRemote) Login(_ context.Context, username, password string) (salon.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("login")
	acct, ok := r.accounts[username]
	if !ok || acct.password != password {
		return salon.User{}, &salon.AuthError{Message: "Invalid credentials"}
	}
	r.session = username
	return acct.user, nil
}

func (r *fakeRemote) Register(_ context.Context, req salonapi.RegisterRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("register")
	if _, taken := r.accounts[req.Username]; taken {
		return &salon.AuthError{Message: "Username or email already exists"}
	}
	r.accounts[req.Username] = &account{password: req.Password, user: salon.User{ID: int64(len(r.accounts) + 1), Username: req.Username, Email: req.Email, Phone: req.Phone, Role: "CUSTOMER"}}
	return nil
}

func (r *fakeRemote) Logout(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("logout")
	r.session = ""
	return nil
}

func (r *fakeRemote) Cookies() []*http.Cookie {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == "" {
		return nil
	}
	return []*http.Cookie{{Name: "jwt", Value: r.session}}
}

func (r *fakeRemote) SetCookies(cookies []*http.Cookie) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cookies {
		if c.Name == "jwt" {
			r.session = c.Value
		}
	}
}

func (r *fakeRemote) UserAppointments(context.Context) (salon.Bookings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("user_appointments")
	if r.session == "" {
		return salon.Bookings{}, salon.ErrNotAuthorized
	}
	var b salon.Bookings
	for token, a := range r.appts {
		if r.owners[token] == r.session {
			b.Upcoming = append(b.Upcoming, *a)
		}
	}
	sort.Slice(b.Upcoming, func(i, j int) bool { return b.Upcoming[i].ID < b.Upcoming[j].ID })
	return b, nil
}

func (r *fakeRemote) UpdateProfile(_ context.Context, u salonapi.ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("update_profile")
	acct, ok := r.accounts[r.session]
	if !ok {
		return salon.ErrNotAuthorized
	}
	acct.user.Email = u.Email
	acct.user.Phone = u.Phone
	return nil
}

func (r *fakeRemote) ListTimeSlots(context.Context) ([]salon.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]salon.TimeSlot, 0, len(r.slots))
	for _, s := range r.slots {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeRemote) CreateTimeSlot(_ context.Context, start, end time.Time) (salon.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("create_timeslot")
	r.nextID++
	slot := &salon.TimeSlot{ID: r.nextID, StartTime: salon.At(start), EndTime: salon.At(end), Available: true}
	r.slots[slot.ID] = slot
	return *slot, nil
}

func (r *fakeRemote) DeleteTimeSlot(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("delete_timeslot")
	slot, ok := r.slots[id]
	if !ok {
		return salon.ErrSlotNotFound
	}
	if len(slot.Appointments) > 0 {
		return salon.ErrSlotHasAppointments
	}
	delete(r.slots, id)
	return nil
}

func (r *fakeRemote) CreateAppointment(_ context.Context, slotID int64, d salon.ClientDetails) (salon.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("create_appointment")
	if r.createErr != nil {
		return salon.Appointment{}, r.createErr
	}
	slot, ok := r.slots[slotID]
	if !ok || !slot.Available {
		return salon.Appointment{}, salon.ErrBookingConflict
	}
	r.nextID++
	token := "tok-" + strconv.FormatInt(r.nextID, 10)
	slot.Available = false
	slot.Appointments = []salon.AppointmentSummary{{ClientName: d.CustomerName, Service: d.Service}}
	appt := &salon.Appointment{
		ID: r.nextID, TimeSlotID: slotID, CancellationToken: token,
		CustomerName: d.CustomerName, CustomerEmail: d.CustomerEmail, CustomerPhone: d.CustomerPhone,
		Service: d.Service, Location: d.Location,
		StartTime: slot.StartTime, EndTime: slot.EndTime,
	}
	r.appts[token] = appt
	r.owners[token] = r.session
	return *appt, nil
}

func (r *fakeRemote) CancelAppointment(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("cancel_appointment")
	if r.cancelErr != nil {
		return r.cancelErr
	}
	appt, ok := r.appts[token]
	if !ok {
		return salon.ErrAlreadyCanceled
	}
	delete(r.appts, token)
	delete(r.owners, token)
	if slot, ok := r.slots[appt.TimeSlotID]; ok {
		slot.Available = true
		slot.Appointments = nil
	}
	return nil
}

// takeSlot simulates another visitor booking id.
func (r *fakeRemote) takeSlot(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot, ok := r.slots[id]; ok {
		slot.Available = false
		slot.Appointments = []salon.AppointmentSummary{{ClientName: "someone else"}}
	}
}

func newTestController(t *testing.T, remote *fakeRemote) *Controller {
	t.Helper()
	dir := slots.NewDirectory(remote, nil)
	sub := submission.NewSubmitter(remote, nil)
	return NewController(Deps{
		Sessions:  session.NewResolver(remote, nil),
		Auth:      remote,
		Slots:     dir,
		Bookings:  sub,
		Dashboard: dashboard.NewService(remote, sub, nil),
		Admin:     admin.NewConsole(remote, dir, nil),
	}, nil)
}
