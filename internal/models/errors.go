package models

import (
	"errors"
	"fmt"
)

// Domain errors returned across the service boundary. Everything else is
// an infrastructure failure and propagates unchanged.
var (
	ErrNotFound = errors.New("not found")

	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrRewardNotFound = fmt.Errorf("reward %w", ErrNotFound)

	ErrRewardUnavailable  = errors.New("reward unavailable")
	ErrInsufficientPoints = errors.New("insufficient points")

	// lock wait on the user row exceeded the configured timeout
	ErrBusy = errors.New("balance is busy, try again")
)
