package slots

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-booking-web/internal/salon"
)

type fakeLister struct {
	mu    sync.Mutex
	slots []salon.TimeSlot
	err   error
	calls int32
}

func (f *fakeLister) ListTimeSlots(context.Context) ([]salon.TimeSlot, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.slots, nil
}

func (f *fakeLister) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeLister) count() int32 { return atomic.LoadInt32(&f.calls) }

func slotAt(id int64, hour int, available bool) salon.TimeSlot {
	start := time.Date(2025, 3, 1, hour, 0, 0, 0, time.UTC)
	slot := salon.TimeSlot{ID: id, StartTime: salon.At(start), EndTime: salon.At(start.Add(30 * time.Minute)), Available: available}
	if !available {
		slot.Appointments = []salon.AppointmentSummary{{ClientName: "Bo"}}
	}
	return slot
}

func TestDirectory_Projections(t *testing.T) {
	api := &fakeLister{slots: []salon.TimeSlot{slotAt(2, 11, false), slotAt(1, 10, true), slotAt(3, 12, true)}}
	d := NewDirectory(api, nil)

	require.NoError(t, d.Refresh(context.Background()))

	all := d.All()
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID, "sorted by start time")
	assert.Len(t, all[1].Appointments, 1)

	available := d.Available()
	require.Len(t, available, 2)
	for _, s := range available {
		assert.True(t, s.Available)
	}

	slot, ok := d.Find(2)
	assert.True(t, ok)
	assert.False(t, slot.Available)
	_, ok = d.Find(99)
	assert.False(t, ok)
	assert.False(t, d.FetchedAt().IsZero())
}

func TestDirectory_RefreshErrorKeepsSnapshot(t *testing.T) {
	api := &fakeLister{slots: []salon.TimeSlot{slotAt(1, 10, true)}}
	d := NewDirectory(api, nil)
	require.NoError(t, d.Refresh(context.Background()))

	api.setErr(errors.New("boom"))
	assert.Error(t, d.Refresh(context.Background()))
	assert.Len(t, d.All(), 1)
}

func TestSubscribe_FetchesImmediatelyAndPolls(t *testing.T) {
	api := &fakeLister{slots: []salon.TimeSlot{slotAt(1, 10, true), slotAt(2, 11, false)}}
	d := NewDirectory(api, nil).WithInterval(10 * time.Millisecond)

	updates := make(chan []salon.TimeSlot, 16)
	sub := d.Subscribe(context.Background(), func(s []salon.TimeSlot) {
		select {
		case updates <- s:
		default:
		}
	})
	defer sub.Stop()

	select {
	case first := <-updates:
		assert.Len(t, first, 1)
	case <-time.After(time.Second):
		t.Fatal("no initial update")
	}

	assert.Eventually(t, func() bool { return api.count() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestSubscribe_StopHaltsPolling(t *testing.T) {
	api := &fakeLister{}
	d := NewDirectory(api, nil).WithInterval(5 * time.Millisecond)

	sub := d.Subscribe(context.Background(), nil)
	assert.Eventually(t, func() bool { return api.count() >= 2 }, time.Second, time.Millisecond)

	sub.Stop()
	sub.Stop()
	after := api.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, api.count(), "no fetches after Stop")

	select {
	case <-sub.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
}

func TestSubscribe_ContextCancelStops(t *testing.T) {
	api := &fakeLister{}
	d := NewDirectory(api, nil).WithInterval(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	sub := d.Subscribe(ctx, nil)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("poller did not exit on context cancel")
	}
	after := api.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, api.count())
}

func TestSubscribe_ErrorsDoNotStopPolling(t *testing.T) {
	api := &fakeLister{err: errors.New("unavailable")}
	d := NewDirectory(api, nil).WithInterval(5 * time.Millisecond)

	called := false
	sub := d.Subscribe(context.Background(), func([]salon.TimeSlot) { called = true })
	assert.Eventually(t, func() bool { return api.count() >= 3 }, time.Second, time.Millisecond)
	sub.Stop()
	assert.False(t, called)
}
