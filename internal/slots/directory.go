// Package slots keeps the latest snapshot of the salon's time slots and
// refreshes it on an interval while a calendar is watching.
package slots

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wolfman30/salon-booking-web/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-web/internal/salon"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

const defaultPollInterval = 30 * time.Second

// Lister fetches the full slot listing from the remote API.
type Lister interface {
	ListTimeSlots(ctx context.Context) ([]salon.TimeSlot, error)
}

// Directory is the single source of slot data for the calendar and the admin console.
type Directory struct {
	api      Lister
	logger   *logging.Logger
	metrics  *metrics.BookingMetrics
	interval time.Duration

	mu        sync.RWMutex
	snapshot  []salon.TimeSlot
	fetchedAt time.Time
}

func NewDirectory(api Lister, logger *logging.Logger) *Directory {
	if logger == nil {
		logger = logging.Default()
	}
	return &Directory{
		api:      api,
		logger:   logger,
		interval: defaultPollInterval,
	}
}

func (d *Directory) WithInterval(interval time.Duration) *Directory {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

func (d *Directory) WithMetrics(m *metrics.BookingMetrics) *Directory {
	d.metrics = m
	return d
}

// Interval reports the polling period used by Subscribe.
func (d *Directory) Interval() time.Duration {
	return d.interval
}

// Refresh replaces the snapshot with a fresh listing. On error the previous
// snapshot is kept.
func (d *Directory) Refresh(ctx context.Context) error {
	if d.api == nil {
		return fmt.Errorf("slots: refresh: no api configured")
	}
	list, err := d.api.ListTimeSlots(ctx)
	d.metrics.ObserveSlotPoll(err == nil)
	if err != nil {
		return fmt.Errorf("slots: refresh: %w", err)
	}
	sorted := make([]salon.TimeSlot, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime.Time)
	})

	d.mu.Lock()
	d.snapshot = sorted
	d.fetchedAt = time.Now()
	d.mu.Unlock()
	return nil
}

// All returns every slot from the last fetch, including nested appointment summaries.
func (d *Directory) All() []salon.TimeSlot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]salon.TimeSlot, len(d.snapshot))
	copy(out, d.snapshot)
	return out
}

// Available returns the bookable slots from the last fetch.
func (d *Directory) Available() []salon.TimeSlot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]salon.TimeSlot, 0, len(d.snapshot))
	for _, slot := range d.snapshot {
		if slot.Available {
			out = append(out, slot)
		}
	}
	return out
}

// Find looks up a slot in the last fetch.
func (d *Directory) Find(id int64) (salon.TimeSlot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, slot := range d.snapshot {
		if slot.ID == id {
			return slot, true
		}
	}
	return salon.TimeSlot{}, false
}

// FetchedAt is the time of the last successful refresh, zero if none.
func (d *Directory) FetchedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fetchedAt
}
