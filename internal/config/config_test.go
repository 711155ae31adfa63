package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/san-kum/gainctl/internal/gain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Period() != 20*time.Millisecond {
		t.Errorf("expected period 20ms, got %v", cfg.Period())
	}
	if len(cfg.Profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(cfg.Profiles))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s: got nil", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
		if _, err := cfg.BuildMotion(); err != nil {
			t.Errorf("preset %s: motion: %v", name, err)
		}
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPreset_ReturnsCopy(t *testing.T) {
	a := GetPreset("elevator")
	a.Profiles[0].P = 99
	*a.Motion.MaxVelocity = 1

	b := GetPreset("elevator")
	if b.Profiles[0].P == 99 {
		t.Error("preset profiles were mutated through a copy")
	}
	if *b.Motion.MaxVelocity == 1 {
		t.Error("preset motion was mutated through a copy")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	want := []string{"arm", "drivetrain", "elevator", "flywheel"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PeriodMs = 0
	cfg.CAN.DeviceID = 100
	cfg.Profiles[0].Range = -1
	cfg.Motion.MinVelocity = f64(3)
	cfg.Sim.Feedback = "torque"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if n := len(multierr.Errors(err)); n != 5 {
		t.Errorf("expected 5 errors, got %d: %v", n, err)
	}
}

func TestValidateNoProfiles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Profiles = nil

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "at least one profile") {
		t.Errorf("expected missing profile error, got %v", err)
	}
}

func TestBuildProfiles(t *testing.T) {
	cfg := GetPreset("elevator")
	profiles := cfg.BuildProfiles()

	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].P() != 2.0 || profiles[0].Range() != 0.8 {
		t.Errorf("unexpected slot 0 gains: %+v", profiles[0].Gains())
	}

	cfg.Profiles[0].Range = 0
	if r := cfg.BuildProfiles()[0].Range(); r != gain.DefaultRange {
		t.Errorf("expected zero range to default to %v, got %v", gain.DefaultRange, r)
	}
}

func TestBuildMotion(t *testing.T) {
	cfg := GetPreset("elevator")
	m, err := cfg.BuildMotion()
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind() != gain.MotionMagic {
		t.Errorf("expected motion magic, got %s", m.Kind())
	}
	if s, ok := m.SCurveStrength(); !ok || s != 2 {
		t.Errorf("expected s-curve 2, got %d (%v)", s, ok)
	}
	if m.Timeout != 10*time.Millisecond {
		t.Errorf("expected timeout 10ms, got %v", m.Timeout)
	}

	cfg.Motion.Family = "warp"
	if _, err := cfg.BuildMotion(); err == nil {
		t.Error("expected error for unknown family")
	}
}

func TestSaveLoadCapture(t *testing.T) {
	cfg := GetPreset("flywheel")
	profiles := cfg.BuildProfiles()
	motion, err := cfg.BuildMotion()
	if err != nil {
		t.Fatal(err)
	}
	profiles[1].SetP(0.03)
	motion.SetMinVelocity(12)
	cfg.Capture(profiles, motion)

	path := filepath.Join(t.TempDir(), "flywheel.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Profiles[1].P != 0.03 {
		t.Errorf("expected tuned P 0.03, got %v", loaded.Profiles[1].P)
	}
	if loaded.Motion.MinVelocity == nil || *loaded.Motion.MinVelocity != 12 {
		t.Errorf("expected min velocity 12, got %v", loaded.Motion.MinVelocity)
	}
	if loaded.Motion.SCurveStrength != nil {
		t.Error("smart motion config should not carry an s-curve strength")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
