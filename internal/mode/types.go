package mode

import (
	"errors"
	"strings"
	"time"

	"github.com/hearthlabs/hearth-core/internal/device"
)

var (
	// ErrNotFound is returned when a mode ID or type does not exist.
	ErrNotFound = errors.New("mode not found")

	// ErrRuleNotFound is returned when a mode rule ID does not exist.
	ErrRuleNotFound = errors.New("mode rule not found")

	// ErrInvalidModeType is returned for an unknown mode type.
	ErrInvalidModeType = errors.New("invalid mode type")

	// ErrInvalidMusicType is returned for an unknown music type.
	ErrInvalidMusicType = errors.New("invalid music type")

	// ErrModeTypeExists is returned when creating a mode whose type is taken.
	ErrModeTypeExists = errors.New("mode type already exists")

	// ErrNoRules is returned when activating a mode that has no rules.
	ErrNoRules = errors.New("no rules configured for mode")
)

// ModeType names an automation preset.
type ModeType string

// Mode type values.
const (
	TypeEco     ModeType = "ECO"
	TypeAuto    ModeType = "AUTO"
	TypeComfort ModeType = "COMFORT"
)

// Valid reports whether t is a known mode type.
func (t ModeType) Valid() bool {
	switch t {
	case TypeEco, TypeAuto, TypeComfort:
		return true
	}
	return false
}

// ParseModeType normalizes a string to a mode type, case-insensitively.
func ParseModeType(s string) (ModeType, error) {
	t := ModeType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidModeType
	}
	return t, nil
}

// MusicType names the background music style a mode selects.
type MusicType string

// Music type values.
const (
	MusicClassical MusicType = "CLASSICAL"
	MusicPop       MusicType = "POP"
	MusicHardRock  MusicType = "HARD_ROCK"
)

// Valid reports whether t is a known music type.
func (t MusicType) Valid() bool {
	switch t {
	case MusicClassical, MusicPop, MusicHardRock:
		return true
	}
	return false
}

// ParseMusicType normalizes a string to a music type, case-insensitively.
// An empty string parses to the zero value: a mode may carry no music.
func ParseMusicType(s string) (MusicType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t := MusicType(strings.ToUpper(s))
	if !t.Valid() {
		return "", ErrInvalidMusicType
	}
	return t, nil
}

// Mode is an automation preset with environmental targets. Targets are
// pointers: a nil target means the mode does not steer that quantity.
type Mode struct {
	ID             string    `json:"id"`
	Type           ModeType  `json:"type"`
	MusicType      MusicType `json:"music_type,omitempty"`
	TargetTemp     *int      `json:"target_temp,omitempty"`
	TargetHumidity *int      `json:"target_humidity,omitempty"`
	TargetCO2      *int      `json:"target_co2,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Rule decides whether devices matching its filters should be active
// under a mode. Filters are conjunctive; nil filters match everything.
// Among a mode's rules the highest-priority match wins per device.
type Rule struct {
	ID             string      `json:"id"`
	ModeType       ModeType    `json:"mode_type"`
	DeviceType     device.Type `json:"device_type"`
	TitlePattern   string      `json:"title_pattern,omitempty"`
	MinPower       *float64    `json:"min_power,omitempty"`
	MaxPower       *float64    `json:"max_power,omitempty"`
	ShouldBeActive bool        `json:"should_be_active"`
	Priority       int         `json:"priority"`
	CreatedAt      time.Time   `json:"created_at"`
}
