// Package admin implements slot inventory management for administrators.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/salon-booking-web/internal/salon"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

// SlotAPI is the remote slot CRUD surface.
type SlotAPI interface {
	CreateTimeSlot(ctx context.Context, start, end time.Time) (salon.TimeSlot, error)
	DeleteTimeSlot(ctx context.Context, id int64) error
}

// Directory is the slot snapshot the console lists from. The console keeps no
// copy of its own.
type Directory interface {
	Refresh(ctx context.Context) error
	All() []salon.TimeSlot
	Find(id int64) (salon.TimeSlot, bool)
}

// Console validates admin slot changes before sending them to the remote API.
type Console struct {
	api    SlotAPI
	slots  Directory
	logger *logging.Logger
}

func NewConsole(api SlotAPI, slots Directory, logger *logging.Logger) *Console {
	if logger == nil {
		logger = logging.Default()
	}
	return &Console{api: api, slots: slots, logger: logger}
}

// List returns every slot from the directory's last fetch.
func (c *Console) List() []salon.TimeSlot {
	return c.slots.All()
}

// Reload refetches the listing.
func (c *Console) Reload(ctx context.Context) error {
	if err := c.slots.Refresh(ctx); err != nil {
		return fmt.Errorf("admin: reload: %w", err)
	}
	return nil
}

// Create publishes an available slot. Both times are required, start must be
// before end, and the slot may not overlap one already listed.
func (c *Console) Create(ctx context.Context, start, end time.Time) (salon.TimeSlot, error) {
	if start.IsZero() {
		return salon.TimeSlot{}, &salon.ValidationError{Field: "startTime", Message: "Start time is required."}
	}
	if end.IsZero() {
		return salon.TimeSlot{}, &salon.ValidationError{Field: "endTime", Message: "End time is required."}
	}
	if !start.Before(end) {
		return salon.TimeSlot{}, fmt.Errorf("admin: create: %w", salon.ErrInvalidSlot)
	}

	candidate := salon.TimeSlot{StartTime: salon.At(start), EndTime: salon.At(end)}
	for _, existing := range c.slots.All() {
		if candidate.Overlaps(existing) {
			return salon.TimeSlot{}, fmt.Errorf("admin: create overlaps slot %d: %w", existing.ID, salon.ErrSlotOverlap)
		}
	}

	slot, err := c.api.CreateTimeSlot(ctx, start, end)
	if err != nil {
		return salon.TimeSlot{}, fmt.Errorf("admin: create: %w", err)
	}
	c.logger.Info("time slot created", "slot_id", slot.ID, "start", start.UTC(), "end", end.UTC())
	if err := c.Reload(ctx); err != nil {
		c.logger.Warn("reload after create failed", "error", err)
	}
	return slot, nil
}

// Delete removes a slot that is available and has no appointments. Booked
// slots are refused; nothing is cascaded.
func (c *Console) Delete(ctx context.Context, id int64) error {
	slot, ok := c.slots.Find(id)
	if !ok {
		return fmt.Errorf("admin: delete %d: %w", id, salon.ErrSlotNotFound)
	}
	if !slot.Deletable() {
		return fmt.Errorf("admin: delete %d: %w", id, salon.ErrSlotHasAppointments)
	}
	if err := c.api.DeleteTimeSlot(ctx, id); err != nil {
		return fmt.Errorf("admin: delete: %w", err)
	}
	c.logger.Info("time slot deleted", "slot_id", id)
	if err := c.Reload(ctx); err != nil {
		c.logger.Warn("reload after delete failed", "error", err)
	}
	return nil
}
