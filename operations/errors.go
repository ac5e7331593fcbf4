package operations

import "errors"

var (
	// ErrBurnFailed indicates that the readback after a burn did not show
	// the requested state
	ErrBurnFailed = errors.New("the burn was not successful")

	// ErrInvalidArgument indicates inconsistent command arguments
	ErrInvalidArgument = errors.New("invalid argument")
)
