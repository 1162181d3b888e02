package room

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxLocationLength = 100

var (
	// ErrNotFound is returned when a room ID does not exist.
	ErrNotFound = errors.New("room not found")

	// ErrInvalidLocation is returned when a room location fails validation.
	ErrInvalidLocation = errors.New("invalid room location")
)

// Room represents a physical space within the home.
type Room struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	ManagerID *string   `json:"manager_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks a room before persistence.
func Validate(r *Room) error {
	location := strings.TrimSpace(r.Location)
	if location == "" {
		return fmt.Errorf("%w: location cannot be empty", ErrInvalidLocation)
	}
	if len(location) > maxLocationLength {
		return fmt.Errorf("%w: location exceeds %d characters", ErrInvalidLocation, maxLocationLength)
	}
	return nil
}
