package dialogue

import (
	"errors"
	"fmt"
)

var (
	// ErrWaitTimeout ends a single-shot wait that saw no matching event.
	ErrWaitTimeout = errors.New("dialogue: wait timed out")
	// ErrWindowElapsed ends a subscription whose window ran out.
	ErrWindowElapsed = errors.New("dialogue: action window elapsed")
	// ErrStreamClosed ends a wait or subscription closed by the event source.
	ErrStreamClosed = errors.New("dialogue: event stream closed")
	// ErrDelivery matches every *DeliveryError.
	ErrDelivery = errors.New("dialogue: delivery failed")
	// ErrInvalidTransition guards the phase order of a session.
	ErrInvalidTransition = errors.New("dialogue: invalid phase transition")
)

// DeliveryError is an outbound call that failed. It is fatal to the session.
type DeliveryError struct {
	Op     string
	Status int
	Err    error
}

// NewDeliveryError wraps err for op. Status is the platform HTTP status when known.
func NewDeliveryError(op string, status int, err error) *DeliveryError {
	return &DeliveryError{Op: op, Status: status, Err: err}
}

func (e *DeliveryError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("dialogue: %s failed (%d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("dialogue: %s failed: %v", e.Op, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDelivery) hold for any delivery failure.
func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

// StatusCode returns the platform HTTP status, or 0.
func (e *DeliveryError) StatusCode() int { return e.Status }

// asDelivery keeps an adapter supplied *DeliveryError and wraps anything else.
func asDelivery(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		if de.Op == "" {
			de.Op = op
		}
		return err
	}
	return NewDeliveryError(op, 0, err)
}
