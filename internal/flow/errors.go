package flow

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an event does not apply to the current state.
var ErrInvalidTransition = errors.New("flow: event not allowed in current state")

func invalid(event string, from View) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, from)
}
