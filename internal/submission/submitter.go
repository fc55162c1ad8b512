// Package submission performs the booking side effects: create, cancel and the
// two-step modify. It never decides what the visitor sees next.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/salon-booking-web/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-web/internal/salon"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

// AppointmentAPI is the subset of the remote API used for bookings.
type AppointmentAPI interface {
	CreateAppointment(ctx context.Context, slotID int64, details salon.ClientDetails) (salon.Appointment, error)
	CancelAppointment(ctx context.Context, token string) error
}

// Submitter issues booking requests sequentially.
type Submitter struct {
	api     AppointmentAPI
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

func NewSubmitter(api AppointmentAPI, logger *logging.Logger) *Submitter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Submitter{api: api, logger: logger}
}

func (s *Submitter) WithMetrics(m *metrics.BookingMetrics) *Submitter {
	s.metrics = m
	return s
}

// Book creates an appointment on slot. When previous is set this is a modify:
// previous is canceled first and the create is only issued once that cancel
// has succeeded. If the cancel succeeds and the create fails the result is a
// *salon.PartialModifyFailure and the previous booking stays canceled.
func (s *Submitter) Book(ctx context.Context, slot salon.TimeSlot, details salon.ClientDetails, previous *salon.Appointment) (salon.Appointment, error) {
	kind := "create"
	if previous != nil {
		kind = "modify"
	}
	if err := details.Validate(); err != nil {
		s.metrics.ObserveSubmission(kind, "invalid")
		return salon.Appointment{}, err
	}

	if previous != nil {
		if err := s.cancel(ctx, previous.CancellationToken); err != nil {
			s.metrics.ObserveSubmission(kind, "cancel_failed")
			s.logger.Warn("modify aborted: cancel of previous booking failed", "appointment_id", previous.ID, "error", err)
			return salon.Appointment{}, fmt.Errorf("submission: cancel previous: %w", err)
		}
	}

	appt, err := s.api.CreateAppointment(ctx, slot.ID, details)
	if err != nil {
		if previous != nil {
			s.metrics.ObserveSubmission(kind, "partial_failure")
			s.logger.Warn("modify left previous booking canceled", "appointment_id", previous.ID, "slot_id", slot.ID, "error", err)
			return salon.Appointment{}, &salon.PartialModifyFailure{CanceledToken: previous.CancellationToken, Err: err}
		}
		outcome := "failed"
		if errors.Is(err, salon.ErrBookingConflict) {
			outcome = "conflict"
		}
		s.metrics.ObserveSubmission(kind, outcome)
		return salon.Appointment{}, fmt.Errorf("submission: create: %w", err)
	}

	if appt.StartTime.IsZero() {
		appt.StartTime = slot.StartTime
		appt.EndTime = slot.EndTime
	}
	if appt.TimeSlot == nil {
		booked := slot
		booked.Available = false
		appt.TimeSlot = &booked
	}
	s.metrics.ObserveSubmission(kind, "success")
	s.logger.Info("appointment booked", "appointment_id", appt.ID, "slot_id", slot.ID, "kind", kind)
	return appt, nil
}

// Cancel cancels the appointment behind token. A token that is already spent
// is treated as success.
func (s *Submitter) Cancel(ctx context.Context, token string) error {
	if err := s.cancel(ctx, token); err != nil {
		s.metrics.ObserveSubmission("cancel", "failed")
		return fmt.Errorf("submission: cancel: %w", err)
	}
	s.metrics.ObserveSubmission("cancel", "success")
	return nil
}

func (s *Submitter) cancel(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return &salon.ValidationError{Field: "cancellationToken", Message: "cancellationToken is required"}
	}
	err := s.api.CancelAppointment(ctx, token)
	if errors.Is(err, salon.ErrAlreadyCanceled) {
		s.logger.Debug("cancel of spent token ignored")
		return nil
	}
	return err
}
