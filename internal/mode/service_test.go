package mode

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/hearthlabs/hearth-core/internal/device"
)

// serviceFixture builds a service over a seeded device catalog.
func serviceFixture(t *testing.T) (*sql.DB, *Service, *device.SQLiteRepository) {
	t.Helper()

	db := testDB(t)
	devices := device.NewRepository(db)
	svc := NewService(NewRepository(db), devices, testLogger())
	return db, svc, devices
}

func seedDevice(t *testing.T, repo device.Repository, title string, typ device.Type, power float64, active bool) *device.Device {
	t.Helper()

	d := &device.Device{Title: title, Type: typ, Power: power, Active: active}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("creating device %s: %v", title, err)
	}
	return d
}

func TestActivate(t *testing.T) {
	db, svc, devices := serviceFixture(t)
	modes := NewRepository(db)

	lamp := seedDevice(t, devices, "Floor Lamp", device.TypeLight, 60, true)
	heater := seedDevice(t, devices, "Heater", device.TypeThermostat, 2000, false)
	speaker := seedDevice(t, devices, "Speaker", device.TypeSpeaker, 30, true)

	// Eco: lights off, thermostats on. Speakers are not covered by a rule.
	rules := []*Rule{
		{ModeType: TypeEco, DeviceType: device.TypeLight, ShouldBeActive: false, Priority: 1},
		{ModeType: TypeEco, DeviceType: device.TypeThermostat, ShouldBeActive: true, Priority: 1},
	}
	for _, rule := range rules {
		if err := modes.CreateRule(context.Background(), rule); err != nil {
			t.Fatalf("CreateRule() error = %v", err)
		}
	}

	result, err := svc.Activate(context.Background(), TypeEco)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if result.DevicesChanged != 2 {
		t.Errorf("DevicesChanged = %d, want 2", result.DevicesChanged)
	}

	assertActive(t, devices, lamp.ID, false)
	assertActive(t, devices, heater.ID, true)
	assertActive(t, devices, speaker.ID, true)
}

func TestActivate_HighestPriorityWins(t *testing.T) {
	db, svc, devices := serviceFixture(t)
	modes := NewRepository(db)

	lamp := seedDevice(t, devices, "Desk Lamp", device.TypeLight, 40, false)

	// A generic low-priority off rule and a specific high-priority on rule.
	rules := []*Rule{
		{ModeType: TypeComfort, DeviceType: device.TypeLight, ShouldBeActive: false, Priority: 1},
		{ModeType: TypeComfort, DeviceType: device.TypeLight, TitlePattern: "desk", ShouldBeActive: true, Priority: 10},
	}
	for _, rule := range rules {
		if err := modes.CreateRule(context.Background(), rule); err != nil {
			t.Fatalf("CreateRule() error = %v", err)
		}
	}

	if _, err := svc.Activate(context.Background(), TypeComfort); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	assertActive(t, devices, lamp.ID, true)
}

func TestActivate_PowerBounds(t *testing.T) {
	db, svc, devices := serviceFixture(t)
	modes := NewRepository(db)

	small := seedDevice(t, devices, "Night Light", device.TypeLight, 5, true)
	big := seedDevice(t, devices, "Floodlight", device.TypeLight, 500, true)

	// Eco turns off only power-hungry lights.
	rule := &Rule{
		ModeType:       TypeEco,
		DeviceType:     device.TypeLight,
		MinPower:       floatPtr(100),
		ShouldBeActive: false,
		Priority:       1,
	}
	if err := modes.CreateRule(context.Background(), rule); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	if _, err := svc.Activate(context.Background(), TypeEco); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	assertActive(t, devices, small.ID, true)
	assertActive(t, devices, big.ID, false)
}

func TestActivate_NoRules(t *testing.T) {
	_, svc, _ := serviceFixture(t)

	if _, err := svc.Activate(context.Background(), TypeAuto); !errors.Is(err, ErrNoRules) {
		t.Errorf("Activate() error = %v, want ErrNoRules", err)
	}
}

func TestActivate_InvalidType(t *testing.T) {
	_, svc, _ := serviceFixture(t)

	if _, err := svc.Activate(context.Background(), "PARTY"); !errors.Is(err, ErrInvalidModeType) {
		t.Errorf("Activate() error = %v, want ErrInvalidModeType", err)
	}
}

func TestActivateNight(t *testing.T) {
	_, svc, devices := serviceFixture(t)

	lamp := seedDevice(t, devices, "Lamp", device.TypeLight, 60, true)
	heater := seedDevice(t, devices, "Heater", device.TypeThermostat, 2000, true)
	vent := seedDevice(t, devices, "Vent", device.TypeVentilation, 120, false)

	turnedOff, err := svc.ActivateNight(context.Background())
	if err != nil {
		t.Fatalf("ActivateNight() error = %v", err)
	}
	if turnedOff != 1 {
		t.Errorf("turnedOff = %d, want 1", turnedOff)
	}

	assertActive(t, devices, lamp.ID, false)
	assertActive(t, devices, heater.ID, true)
	assertActive(t, devices, vent.ID, false)
}

func TestSetAll(t *testing.T) {
	_, svc, devices := serviceFixture(t)

	on := seedDevice(t, devices, "Lamp", device.TypeLight, 60, true)
	off := seedDevice(t, devices, "Vent", device.TypeVentilation, 120, false)

	changed, err := svc.SetAll(context.Background(), true)
	if err != nil {
		t.Fatalf("SetAll(true) error = %v", err)
	}
	if changed != 1 {
		t.Errorf("SetAll(true) changed = %d, want 1", changed)
	}
	assertActive(t, devices, on.ID, true)
	assertActive(t, devices, off.ID, true)

	changed, err = svc.SetAll(context.Background(), false)
	if err != nil {
		t.Fatalf("SetAll(false) error = %v", err)
	}
	if changed != 2 {
		t.Errorf("SetAll(false) changed = %d, want 2", changed)
	}
}

func TestTotalPowerConsumption(t *testing.T) {
	_, svc, devices := serviceFixture(t)

	seedDevice(t, devices, "Lamp", device.TypeLight, 60, true)
	seedDevice(t, devices, "Heater", device.TypeThermostat, 2000, true)
	seedDevice(t, devices, "Vent", device.TypeVentilation, 120, false)

	total, err := svc.TotalPowerConsumption(context.Background())
	if err != nil {
		t.Fatalf("TotalPowerConsumption() error = %v", err)
	}
	if total != 2060 {
		t.Errorf("TotalPowerConsumption() = %v, want 2060", total)
	}
}

func assertActive(t *testing.T, repo device.Repository, id string, want bool) {
	t.Helper()

	got, err := repo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	if got.Active != want {
		t.Errorf("device %s active = %v, want %v", got.Title, got.Active, want)
	}
}
