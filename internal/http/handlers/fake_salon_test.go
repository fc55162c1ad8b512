package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/salon-booking-web/internal/salon"
)

// fakeSalon is a minimal remote salon API served over HTTP.
type fakeSalon struct {
	mu       sync.Mutex
	slots    map[int64]*salon.TimeSlot
	appts    map[string]*salon.Appointment
	users    map[string]salon.User
	sessions map[string]string
	nextID   int64
	slotHits int
}

func newFakeSalon(t *testing.T) (*fakeSalon, *httptest.Server) {
	t.Helper()
	f := &fakeSalon{
		slots:    map[int64]*salon.TimeSlot{},
		appts:    map[string]*salon.Appointment{},
		sessions: map[string]string{},
		users: map[string]salon.User{
			"ann":  {ID: 1, Username: "ann", Email: "ann@example.com", Phone: "555-0100", Role: "CUSTOMER"},
			"root": {ID: 9, Username: "root", Role: "ADMIN"},
		},
		nextID: 500,
	}

	r := chi.NewRouter()
	r.Get("/api/auth/me", f.me)
	r.Post("/api/auth/login", f.login)
	r.Post("/api/auth/logout", f.logout)
	r.Get("/api/timeslots", f.listSlots)
	r.Post("/api/appointments", f.createAppointment)
	r.Delete("/api/appointments/cancel/{token}", f.cancelAppointment)
	r.Get("/api/user/appointments", f.userAppointments)
	r.Delete("/api/timeslots/{id}", f.deleteSlot)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeSalon) addSlot(id int64, start time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots[id] = &salon.TimeSlot{
		ID:        id,
		StartTime: salon.At(start),
		EndTime:   salon.At(start.Add(time.Hour)),
		Available: true,
	}
}

func (f *fakeSalon) takeSlot(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.slots[id]; ok {
		s.Available = false
		s.Appointments = []salon.AppointmentSummary{{ClientName: "someone"}}
	}
}

func (f *fakeSalon) slotPolls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slotHits
}

func (f *fakeSalon) user(r *http.Request) (salon.User, bool) {
	c, err := r.Cookie("jwt")
	if err != nil {
		return salon.User{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.sessions[c.Value]
	if !ok {
		return salon.User{}, false
	}
	return f.users[name], true
}

func (f *fakeSalon) me(w http.ResponseWriter, r *http.Request) {
	u, ok := f.user(r)
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	respond(w, http.StatusOK, u)
}

func (f *fakeSalon) login(w http.ResponseWriter, r *http.Request) {
	var creds struct{ Username, Password string }
	_ = json.NewDecoder(r.Body).Decode(&creds)
	f.mu.Lock()
	u, ok := f.users[creds.Username]
	if !ok || creds.Password != "pw" {
		f.mu.Unlock()
		respond(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	f.nextID++
	token := "sess-" + strconv.FormatInt(f.nextID, 10)
	f.sessions[token] = u.Username
	f.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: "jwt", Value: token, Path: "/"})
	respond(w, http.StatusOK, map[string]any{"message": "Login successful", "user": u})
}

func (f *fakeSalon) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie("jwt"); err == nil {
		f.mu.Lock()
		delete(f.sessions, c.Value)
		f.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: "jwt", Value: "", Path: "/", MaxAge: -1})
	respond(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (f *fakeSalon) listSlots(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	f.slotHits++
	out := make([]salon.TimeSlot, 0, len(f.slots))
	for _, s := range f.slots {
		out = append(out, *s)
	}
	f.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	respond(w, http.StatusOK, out)
}

func (f *fakeSalon) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerName  string `json:"customerName"`
		CustomerEmail string `json:"customerEmail"`
		CustomerPhone string `json:"customerPhone"`
		TimeSlotID    int64  `json:"timeSlotId"`
		Service       string `json:"service"`
		Location      string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[req.TimeSlotID]
	if !ok || !slot.Available {
		respond(w, http.StatusBadRequest, map[string]string{"error": "Time slot is not available"})
		return
	}
	slot.Available = false
	slot.Appointments = []salon.AppointmentSummary{{ClientName: req.CustomerName}}
	f.nextID++
	appt := &salon.Appointment{
		ID:                f.nextID,
		TimeSlotID:        slot.ID,
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		CustomerPhone:     req.CustomerPhone,
		Service:           req.Service,
		Location:          req.Location,
		CancellationToken: "tok-" + strconv.FormatInt(f.nextID, 10),
		StartTime:         slot.StartTime,
		EndTime:           slot.EndTime,
	}
	f.appts[appt.CancellationToken] = appt
	respond(w, http.StatusCreated, appt)
}

func (f *fakeSalon) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.appts[token]
	if !ok {
		respond(w, http.StatusNotFound, map[string]string{"error": "Appointment not found"})
		return
	}
	delete(f.appts, token)
	if s, ok := f.slots[appt.TimeSlotID]; ok {
		s.Available = true
		s.Appointments = nil
	}
	respond(w, http.StatusOK, map[string]string{"message": "Appointment cancelled"})
}

func (f *fakeSalon) userAppointments(w http.ResponseWriter, r *http.Request) {
	u, ok := f.user(r)
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := salon.Bookings{Upcoming: []salon.Appointment{}, History: []salon.Appointment{}}
	for _, a := range f.appts {
		if a.CustomerEmail == u.Email {
			out.Upcoming = append(out.Upcoming, *a)
		}
	}
	respond(w, http.StatusOK, out)
}

func (f *fakeSalon) deleteSlot(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	switch {
	case !ok:
		respond(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case !s.Available:
		respond(w, http.StatusBadRequest, map[string]string{"error": "has appointments"})
	default:
		delete(f.slots, id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
