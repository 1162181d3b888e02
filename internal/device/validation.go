package device

import (
	"fmt"
	"strings"
)

const maxTitleLength = 100

// ValidateTitle checks a device title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidTitle)
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidTitle, maxTitleLength)
	}
	return nil
}

// Validate checks a device before persistence.
func Validate(d *Device) error {
	if err := ValidateTitle(d.Title); err != nil {
		return err
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}
	if d.Power < 0 {
		return fmt.Errorf("%w: power cannot be negative", ErrInvalidPower)
	}
	return nil
}
