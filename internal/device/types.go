package device

import (
	"strings"
	"time"
)

// Type classifies a device for automation rule matching.
type Type string

// Device type values.
const (
	TypeLight       Type = "LIGHT"
	TypeThermostat  Type = "THERMOSTAT"
	TypeHumidifier  Type = "HUMIDIFIER"
	TypeVentilation Type = "VENTILATION"
	TypeSpeaker     Type = "SPEAKER"
	TypeOther       Type = "OTHER"
)

// AllTypes lists every valid device type.
var AllTypes = []Type{
	TypeLight, TypeThermostat, TypeHumidifier,
	TypeVentilation, TypeSpeaker, TypeOther,
}

// Valid reports whether t is a known device type.
func (t Type) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseType normalizes a string to a device type, case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

// Device represents a controllable appliance.
type Device struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      Type      `json:"type"`
	Power     float64   `json:"power"`
	Active    bool      `json:"active"`
	RoomID    *string   `json:"room_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
