package config

import (
	"sort"

	"github.com/san-kum/gainctl/internal/gain"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

// Presets are starting points for common mechanisms. Slot order follows
// profile.Mode: position, velocity, acceleration.
var Presets = map[string]*Config{
	"elevator": {
		Name: "elevator", PeriodMs: 20, TimeoutMs: 10,
		CAN: CANConfig{Interface: DefaultInterface, DeviceID: 11},
		Profiles: []ProfileConfig{
			{Name: "position", Gains: gain.Gains{P: 2.0, I: 0.02, D: 0.1, FF: 0, Range: 0.8, Tolerance: 0.01}},
			{Name: "velocity", Gains: gain.Gains{P: 0.1, FF: 0.09, Range: 1.0, Tolerance: 0.05}},
		},
		Motion: MotionConfig{
			Family: gain.MotionMagic.String(), MaxVelocity: f64(1200), MaxAcceleration: f64(2400),
			IntegralZone: f64(50), SCurveStrength: intp(2),
		},
		Plant: PlantConfig{Gain: 4, TimeConstant: 0.15, Load: -0.05},
		Sim:   SimConfig{Feedback: "position", Setpoint: 1.2, Duration: 4},
	},
	"arm": {
		Name: "arm", PeriodMs: 20, TimeoutMs: 10,
		CAN: CANConfig{Interface: DefaultInterface, DeviceID: 12},
		Profiles: []ProfileConfig{
			{Name: "position", Gains: gain.Gains{P: 1.5, I: 0.01, D: 0.05, Range: 0.6, Tolerance: 0.02}},
		},
		Motion: MotionConfig{Family: gain.Basic.String(), IntegralZone: f64(20)},
		Plant:  PlantConfig{Gain: 6, TimeConstant: 0.08},
		Sim:    SimConfig{Feedback: "position", Setpoint: 0.7, Duration: 3},
	},
	"flywheel": {
		Name: "flywheel", PeriodMs: 10, TimeoutMs: 10,
		CAN: CANConfig{Interface: DefaultInterface, DeviceID: 21},
		Profiles: []ProfileConfig{
			{Name: "position", Gains: gain.Gains{P: 0.5, Range: 1.0}},
			{Name: "velocity", Gains: gain.Gains{P: 0.02, I: 0.01, FF: 0.0105, Range: 1.0, Tolerance: 2}},
		},
		Motion: MotionConfig{Family: gain.SmartMotion.String(), MaxVelocity: f64(5000), MaxAcceleration: f64(3000), MinVelocity: f64(0)},
		Plant:  PlantConfig{Gain: 95, TimeConstant: 0.4},
		Sim:    SimConfig{Slot: 1, Feedback: "velocity", Setpoint: 60, Duration: 4},
	},
	"drivetrain": {
		Name: "drivetrain", PeriodMs: 20, TimeoutMs: 10,
		CAN: CANConfig{Interface: DefaultInterface, DeviceID: 1},
		Profiles: []ProfileConfig{
			{Name: "position", Gains: gain.Gains{P: 0.8, D: 0.02, Range: 0.5, Tolerance: 0.05}},
			{Name: "velocity", Gains: gain.Gains{P: 0.05, FF: 0.25, Range: 1.0, Tolerance: 0.1}},
		},
		Motion: MotionConfig{Family: gain.Basic.String()},
		Plant:  PlantConfig{Gain: 4, TimeConstant: 0.25},
		Sim:    SimConfig{Slot: 1, Feedback: "velocity", Setpoint: 2, Duration: 3},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
