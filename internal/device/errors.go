package device

import "errors"

var (
	// ErrNotFound is returned when a device ID does not exist.
	ErrNotFound = errors.New("device not found")

	// ErrInvalidTitle is returned when a device title fails validation.
	ErrInvalidTitle = errors.New("invalid device title")

	// ErrInvalidType is returned for an unknown device type.
	ErrInvalidType = errors.New("invalid device type")

	// ErrInvalidPower is returned for a negative power rating.
	ErrInvalidPower = errors.New("invalid device power")
)
