package mode

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hearthlabs/hearth-core/internal/device"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
)

// Service applies modes to the device catalog and performs bulk device
// control: the automation side of the mode package.
type Service struct {
	modes   Repository
	devices device.Repository
	logger  *logging.Logger
}

// NewService creates the mode application service.
func NewService(modes Repository, devices device.Repository, logger *logging.Logger) *Service {
	return &Service{
		modes:   modes,
		devices: devices,
		logger:  logger.With("component", "mode"),
	}
}

// ActivationResult reports what applying a mode changed.
type ActivationResult struct {
	Mode           ModeType `json:"mode"`
	DevicesChanged int      `json:"devices_changed"`
}

// Activate applies a mode: every device is evaluated against the mode's
// rules in priority order, the first matching rule decides whether the
// device should be active, and devices whose state disagrees are flipped.
// Devices no rule matches are left alone.
func (s *Service) Activate(ctx context.Context, t ModeType) (*ActivationResult, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidModeType, t)
	}

	rules, err := s.modes.RulesForMode(ctx, t)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		s.logger.Warn("mode has no rules", "mode", string(t))
		return nil, fmt.Errorf("%w: %s", ErrNoRules, t)
	}

	devices, err := s.devices.List(ctx)
	if err != nil {
		return nil, err
	}

	changed := 0
	for i := range devices {
		d := &devices[i]
		shouldBeActive, matched := s.evaluate(d, rules)
		if !matched || d.Active == shouldBeActive {
			continue
		}
		if err := s.devices.SetActive(ctx, d.ID, shouldBeActive); err != nil {
			return nil, fmt.Errorf("toggling device %s: %w", d.ID, err)
		}
		changed++
	}

	s.logger.Info("mode activated", "mode", string(t), "devices_changed", changed)
	return &ActivationResult{Mode: t, DevicesChanged: changed}, nil
}

// ActivateNight turns off every active device except thermostats, so the
// climate keeps running overnight.
func (s *Service) ActivateNight(ctx context.Context) (int, error) {
	devices, err := s.devices.List(ctx)
	if err != nil {
		return 0, err
	}

	turnedOff := 0
	for i := range devices {
		d := &devices[i]
		if d.Type == device.TypeThermostat || !d.Active {
			continue
		}
		if err := s.devices.SetActive(ctx, d.ID, false); err != nil {
			return turnedOff, fmt.Errorf("toggling device %s: %w", d.ID, err)
		}
		turnedOff++
	}

	s.logger.Info("night mode activated", "devices_turned_off", turnedOff)
	return turnedOff, nil
}

// SetAll flips every device to the given state and returns how many
// actually changed.
func (s *Service) SetAll(ctx context.Context, active bool) (int, error) {
	devices, err := s.devices.List(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range devices {
		d := &devices[i]
		if d.Active == active {
			continue
		}
		if err := s.devices.SetActive(ctx, d.ID, active); err != nil {
			return changed, fmt.Errorf("toggling device %s: %w", d.ID, err)
		}
		changed++
	}

	s.logger.Info("bulk device toggle", "active", active, "devices_changed", changed)
	return changed, nil
}

// TotalPowerConsumption sums the power rating of every active device.
func (s *Service) TotalPowerConsumption(ctx context.Context) (float64, error) {
	devices, err := s.devices.List(ctx)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, d := range devices {
		if d.Active {
			total += d.Power
		}
	}
	return total, nil
}

// evaluate walks the rules (already priority-ordered) and returns the
// first match's verdict. matched is false when no rule applies.
func (s *Service) evaluate(d *device.Device, rules []Rule) (shouldBeActive, matched bool) {
	for i := range rules {
		if s.matches(d, &rules[i]) {
			return rules[i].ShouldBeActive, true
		}
	}
	return false, false
}

// matches checks a device against one rule's conjunctive filters.
func (s *Service) matches(d *device.Device, rule *Rule) bool {
	if rule.DeviceType != "" && d.Type != rule.DeviceType {
		return false
	}

	if rule.TitlePattern != "" {
		pattern, err := regexp.Compile("(?i)" + rule.TitlePattern)
		if err != nil {
			s.logger.Warn("unparseable rule title pattern",
				"rule_id", rule.ID, "pattern", rule.TitlePattern)
			return false
		}
		if !pattern.MatchString(d.Title) {
			return false
		}
	}

	if rule.MinPower != nil && d.Power < *rule.MinPower {
		return false
	}
	if rule.MaxPower != nil && d.Power > *rule.MaxPower {
		return false
	}
	return true
}
