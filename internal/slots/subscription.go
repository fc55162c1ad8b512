package slots

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/salon-booking-web/internal/salon"
)

// Subscription is a running poll loop bound to a mounted calendar.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Subscribe refreshes immediately and then every interval until Stop is called
// or ctx is cancelled. onUpdate receives the available projection after each
// successful refresh and runs on the poll goroutine.
func (d *Directory) Subscribe(ctx context.Context, onUpdate func([]salon.TimeSlot)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	d.metrics.CalendarMounted(true)
	go func() {
		defer close(sub.done)
		defer d.metrics.CalendarMounted(false)
		d.poll(ctx, onUpdate)
	}()
	return sub
}

// Stop ends polling and waits for the loop to exit. Safe to call more than once.
func (s *Subscription) Stop() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed once the poll loop has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (d *Directory) poll(ctx context.Context, onUpdate func([]salon.TimeSlot)) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	d.tick(ctx, onUpdate)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx, onUpdate)
		}
	}
}

func (d *Directory) tick(ctx context.Context, onUpdate func([]salon.TimeSlot)) {
	if err := d.Refresh(ctx); err != nil {
		if ctx.Err() == nil {
			d.logger.Warn("slot poll failed", "error", err)
		}
		return
	}
	if onUpdate != nil && ctx.Err() == nil {
		onUpdate(d.Available())
	}
}
