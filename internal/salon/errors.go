package salon

import (
	"errors"
	"fmt"
)

var (
	// ErrSession means there is no usable remote session. It is recovered locally
	// by treating the visitor as anonymous.
	ErrSession = errors.New("salon: no active session")

	// ErrAccessDenied is returned when a valid login lacks the admin role.
	ErrAccessDenied = errors.New("salon: admin privileges required")

	// ErrBookingConflict is returned when the slot was taken before submission.
	ErrBookingConflict = errors.New("salon: time slot is not available")

	// ErrAlreadyCanceled is returned by the remote API for unknown or used tokens.
	ErrAlreadyCanceled = errors.New("salon: appointment already canceled")

	// ErrSlotHasAppointments is returned when deleting a slot with live bookings.
	ErrSlotHasAppointments = errors.New("salon: time slot has appointments")

	// ErrSlotOverlap is returned when a new slot intersects an existing one.
	ErrSlotOverlap = errors.New("salon: time slot overlaps an existing slot")

	// ErrInvalidSlot is returned when a slot's start is missing or not before its end.
	ErrInvalidSlot = errors.New("salon: start time must be before end time")

	// ErrSlotNotFound is returned for slot ids missing from the directory.
	ErrSlotNotFound = errors.New("salon: time slot not found")

	// ErrNotAuthorized is returned when an operation needs an identity the visitor lacks.
	ErrNotAuthorized = errors.New("salon: not authorized")
)

// AuthError carries bad credentials or a registration conflict. Identity is unchanged.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "salon: auth: " + e.Message
}

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "salon: invalid " + e.Field + ": " + e.Message
}

// PartialModifyFailure is returned by the modify flow when the previous appointment
// was canceled but the replacement could not be created. The previous booking stays
// canceled; nothing is rolled back.
type PartialModifyFailure struct {
	CanceledToken string
	Err           error
}

func (e *PartialModifyFailure) Error() string {
	return fmt.Sprintf("salon: previous appointment canceled but rebooking failed: %v", e.Err)
}

func (e *PartialModifyFailure) Unwrap() error {
	return e.Err
}

// UserMessage renders err as the inline text shown to the visitor.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var auth *AuthError
	var validation *ValidationError
	var partial *PartialModifyFailure
	switch {
	case errors.As(err, &partial):
		return "Your previous booking was canceled, but the new booking could not be created. Please choose another time."
	case errors.As(err, &auth):
		return auth.Message
	case errors.As(err, &validation):
		return validation.Message
	case errors.Is(err, ErrAccessDenied):
		return "Access denied. Admin privileges required."
	case errors.Is(err, ErrBookingConflict):
		return "Appointment is not available."
	case errors.Is(err, ErrSlotHasAppointments):
		return "Cannot delete a time slot that is already booked."
	case errors.Is(err, ErrSlotOverlap):
		return "Time slot overlaps with an existing slot."
	case errors.Is(err, ErrInvalidSlot):
		return "Start time must be before end time."
	case errors.Is(err, ErrSlotNotFound):
		return "Time slot not found."
	case errors.Is(err, ErrNotAuthorized):
		return "Please sign in to continue."
	default:
		return "Something went wrong. Please try again."
	}
}
