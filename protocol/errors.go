package protocol

import (
	"errors"
	"fmt"
	"time"
)

// ErrControllerTimeout is matched by every TimeoutError.
var ErrControllerTimeout = errors.New("efuse controller timeout")

// TimeoutError is returned when the controller stays busy past the burn timeout.
type TimeoutError struct {
	// Operation is the step that was waiting
	Operation string

	// Timeout is the wall-clock limit that elapsed
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s waiting for efuse controller command to complete",
		e.Operation, e.Timeout)
}

// Is reports whether target is ErrControllerTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrControllerTimeout
}

// IsTimeoutError returns true if err is or wraps a TimeoutError.
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// CrystalError is returned by SetTiming for an unsupported crystal.
type CrystalError struct {
	MHz int
}

func (e *CrystalError) Error() string {
	return fmt.Sprintf("the eFuse supports only xtal=%dM (xtal was %d)", RequiredCrystalMHz, e.MHz)
}
