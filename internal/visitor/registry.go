package visitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/wolfman30/salon-booking-web/internal/flow"
	"github.com/wolfman30/salon-booking-web/internal/slots"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

// CookieJar is the remote session carried by a visitor's API client.
type CookieJar interface {
	Cookies() []*http.Cookie
	SetCookies([]*http.Cookie)
}

// Session is one visitor's live booking flow and the remote client behind it.
type Session struct {
	ID         string
	Controller *flow.Controller
	Remote     CookieJar
	Slots      *slots.Directory

	mu sync.Mutex
}

// Lock serializes request handling for the visitor, so the memento saved after
// an event matches the state that event produced.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Factory builds a fresh, unstarted session for a visitor id.
type Factory func(visitorID string) *Session

type entry struct {
	session  *Session
	once     sync.Once
	lastSeen time.Time
}

// Registry keeps one live Session per visitor and drops idle ones.
type Registry struct {
	factory Factory
	store   *Store
	idle    time.Duration
	logger  *logging.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewRegistry(factory Factory, store *Store, idle time.Duration, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Registry{
		factory: factory,
		store:   store,
		idle:    idle,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get returns the visitor's session, creating it on first use. A new session
// is restored from the store when a record exists and started otherwise.
func (r *Registry) Get(ctx context.Context, visitorID string) *Session {
	r.mu.Lock()
	e, ok := r.entries[visitorID]
	if !ok {
		e = &entry{session: r.factory(visitorID)}
		r.entries[visitorID] = e
	}
	e.lastSeen = r.now()
	r.mu.Unlock()

	e.once.Do(func() { r.init(ctx, e.session) })
	return e.session
}

func (r *Registry) init(ctx context.Context, s *Session) {
	rec, err := r.store.Load(ctx, s.ID)
	if err != nil {
		r.logger.Warn("visitor state load failed", "visitor_id", s.ID, "error", err)
	}
	if rec != nil {
		if s.Remote != nil && len(rec.Cookies) > 0 {
			cookies := make([]*http.Cookie, 0, len(rec.Cookies))
			for _, c := range rec.Cookies {
				cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
			}
			s.Remote.SetCookies(cookies)
		}
		err := s.Controller.Restore(rec.Memento)
		if err == nil {
			if s.Slots != nil {
				if err := s.Slots.Refresh(ctx); err != nil {
					r.logger.Warn("slot refresh after restore failed", "visitor_id", s.ID, "error", err)
				}
			}
			r.logger.Debug("visitor restored", "visitor_id", s.ID, "view", s.Controller.View())
			return
		}
		r.logger.Warn("visitor state discarded", "visitor_id", s.ID, "error", err)
	}
	s.Controller.Start(ctx)
}

// Save persists the session's current state.
func (r *Registry) Save(ctx context.Context, s *Session) error {
	m, err := s.Controller.Memento()
	if err != nil {
		return err
	}
	rec := Record{Memento: m, SavedAt: r.now().UTC()}
	if s.Remote != nil {
		for _, c := range s.Remote.Cookies() {
			rec.Cookies = append(rec.Cookies, StoredCookie{Name: c.Name, Value: c.Value})
		}
	}
	return r.store.Save(ctx, s.ID, rec)
}

// Evict drops sessions idle for longer than the idle timeout and returns how
// many were removed. Their persisted state stays in the store.
func (r *Registry) Evict() int {
	cutoff := r.now().Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Run evicts idle sessions until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.logger.Debug("evicted idle visitors", "count", n, "live", r.Len())
			}
		}
	}
}
