// Package config loads and saves motor configurations: loop timing, device
// addressing, per-slot gains, motion constants and the simulated plant.
package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gainctl/internal/gain"
)

const (
	DefaultPeriodMs  = 20
	DefaultTimeoutMs = 10
	DefaultInterface = "can0"
	DefaultDuration  = 3.0
	DefaultPlantGain = 10.0
	DefaultTau       = 0.1
	maxDeviceID      = 0x3f
)

type Config struct {
	Name      string          `yaml:"name"`
	PeriodMs  int             `yaml:"period_ms"`
	TimeoutMs int             `yaml:"timeout_ms"`
	CAN       CANConfig       `yaml:"can"`
	Profiles  []ProfileConfig `yaml:"profiles"`
	Motion    MotionConfig    `yaml:"motion"`
	Plant     PlantConfig     `yaml:"plant"`
	Sim       SimConfig       `yaml:"sim"`
}

type CANConfig struct {
	Interface string `yaml:"interface"`
	DeviceID  int    `yaml:"device_id"`
}

// ProfileConfig is one slot. Slots are numbered in file order.
type ProfileConfig struct {
	Name       string `yaml:"name"`
	gain.Gains `yaml:",inline"`
}

// MotionConfig holds optional motion constants; nil fields are not pushed.
type MotionConfig struct {
	Family          string   `yaml:"family"`
	MaxVelocity     *float64 `yaml:"max_velocity,omitempty"`
	MaxAcceleration *float64 `yaml:"max_acceleration,omitempty"`
	IntegralZone    *float64 `yaml:"integral_zone,omitempty"`
	SCurveStrength  *int     `yaml:"s_curve_strength,omitempty"`
	MinVelocity     *float64 `yaml:"min_velocity,omitempty"`
	StatusFrames    []int    `yaml:"status_frames,omitempty"`
	Reset           bool     `yaml:"reset,omitempty"`
}

// PlantConfig describes the first-order motor used by simulations.
type PlantConfig struct {
	Gain         float64 `yaml:"gain"`
	TimeConstant float64 `yaml:"time_constant"`
	Load         float64 `yaml:"load"`
}

type SimConfig struct {
	Slot     int     `yaml:"slot"`
	Feedback string  `yaml:"feedback"`
	Setpoint float64 `yaml:"setpoint"`
	Duration float64 `yaml:"duration"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:      "motor",
		PeriodMs:  DefaultPeriodMs,
		TimeoutMs: DefaultTimeoutMs,
		CAN:       CANConfig{Interface: DefaultInterface, DeviceID: 1},
		Profiles: []ProfileConfig{
			{Name: "position", Gains: gain.Gains{P: 1.0, Range: gain.DefaultRange, Tolerance: 0.01}},
		},
		Motion: MotionConfig{Family: gain.Basic.String()},
		Plant:  PlantConfig{Gain: DefaultPlantGain, TimeConstant: DefaultTau},
		Sim:    SimConfig{Feedback: "position", Setpoint: 1.0, Duration: DefaultDuration},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Period() time.Duration  { return time.Duration(c.PeriodMs) * time.Millisecond }
func (c *Config) Timeout() time.Duration { return time.Duration(c.TimeoutMs) * time.Millisecond }

// Validate reports every problem found, not just the first.
func (c *Config) Validate() error {
	var err error
	if c.PeriodMs <= 0 {
		err = multierr.Append(err, fmt.Errorf("period_ms must be positive, got %d", c.PeriodMs))
	}
	if c.TimeoutMs < 0 {
		err = multierr.Append(err, fmt.Errorf("timeout_ms must not be negative, got %d", c.TimeoutMs))
	}
	if c.CAN.DeviceID < 0 || c.CAN.DeviceID > maxDeviceID {
		err = multierr.Append(err, fmt.Errorf("can.device_id %d out of range [0, %d]", c.CAN.DeviceID, maxDeviceID))
	}
	if len(c.Profiles) == 0 {
		err = multierr.Append(err, fmt.Errorf("at least one profile is required"))
	}
	for i, p := range c.Profiles {
		if p.Range < 0 {
			err = multierr.Append(err, fmt.Errorf("profile %d (%s): range must not be negative", i, p.Name))
		}
		if p.Tolerance < 0 {
			err = multierr.Append(err, fmt.Errorf("profile %d (%s): tolerance must not be negative", i, p.Name))
		}
	}
	err = multierr.Append(err, c.Motion.validate())
	if c.Plant.TimeConstant <= 0 {
		err = multierr.Append(err, fmt.Errorf("plant.time_constant must be positive"))
	}
	if c.Sim.Slot < 0 || c.Sim.Slot >= len(c.Profiles) {
		err = multierr.Append(err, fmt.Errorf("sim.slot %d has no profile", c.Sim.Slot))
	}
	if c.Sim.Feedback != "position" && c.Sim.Feedback != "velocity" {
		err = multierr.Append(err, fmt.Errorf("sim.feedback must be position or velocity, got %q", c.Sim.Feedback))
	}
	if c.Sim.Duration <= 0 {
		err = multierr.Append(err, fmt.Errorf("sim.duration must be positive"))
	}
	return err
}

func (m MotionConfig) validate() error {
	kind, err := gain.ParseExtraKind(m.Family)
	if err != nil {
		return fmt.Errorf("motion.family: %w", err)
	}
	if m.SCurveStrength != nil && kind != gain.MotionMagic {
		err = multierr.Append(err, fmt.Errorf("motion.s_curve_strength requires family %s", gain.MotionMagic))
	}
	if m.MinVelocity != nil && kind != gain.SmartMotion {
		err = multierr.Append(err, fmt.Errorf("motion.min_velocity requires family %s", gain.SmartMotion))
	}
	if m.SCurveStrength != nil && (*m.SCurveStrength < 0 || *m.SCurveStrength > 8) {
		err = multierr.Append(err, fmt.Errorf("motion.s_curve_strength must be in [0, 8]"))
	}
	return err
}

// BuildProfiles returns one gain profile per configured slot.
func (c *Config) BuildProfiles() []*gain.Profile {
	out := make([]*gain.Profile, len(c.Profiles))
	for i, p := range c.Profiles {
		out[i] = gain.FromGains(p.Gains)
	}
	return out
}

func (c *Config) BuildMotion() (*gain.Motion, error) {
	kind, err := gain.ParseExtraKind(c.Motion.Family)
	if err != nil {
		return nil, err
	}
	m := gain.NewMotion(kind)
	if v := c.Motion.MaxVelocity; v != nil {
		m.SetMaxVelocity(*v)
	}
	if v := c.Motion.MaxAcceleration; v != nil {
		m.SetMaxAcceleration(*v)
	}
	if v := c.Motion.IntegralZone; v != nil {
		m.SetIntegralZone(*v)
	}
	if v := c.Motion.SCurveStrength; v != nil {
		m.SetSCurveStrength(*v)
	}
	if v := c.Motion.MinVelocity; v != nil {
		m.SetMinVelocity(*v)
	}
	m.AddStatusFrames(c.Motion.StatusFrames...)
	m.Reset = c.Motion.Reset
	if c.TimeoutMs > 0 {
		m.Timeout = c.Timeout()
	}
	if c.PeriodMs > 0 {
		m.Period = c.Period()
	}
	return m, nil
}

// Capture copies live values back so a tuned session can be saved.
// Profiles beyond len(c.Profiles) are ignored.
func (c *Config) Capture(profiles []*gain.Profile, motion *gain.Motion) {
	for i := range c.Profiles {
		if i < len(profiles) && profiles[i] != nil {
			c.Profiles[i].Gains = profiles[i].Gains()
		}
	}
	if motion == nil {
		return
	}
	v := motion.Values()
	c.Motion.Family = v.Kind.String()
	c.Motion.MaxVelocity = v.MaxVelocity
	c.Motion.MaxAcceleration = v.MaxAcceleration
	c.Motion.IntegralZone = v.IntegralZone
	c.Motion.SCurveStrength = nil
	c.Motion.MinVelocity = nil
	if v.Extra != nil {
		switch v.Kind {
		case gain.MotionMagic:
			s := int(*v.Extra)
			c.Motion.SCurveStrength = &s
		case gain.SmartMotion:
			mv := *v.Extra
			c.Motion.MinVelocity = &mv
		}
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Profiles = append([]ProfileConfig(nil), c.Profiles...)
	out.Motion.StatusFrames = append([]int(nil), c.Motion.StatusFrames...)
	out.Motion.MaxVelocity = clonePtr(c.Motion.MaxVelocity)
	out.Motion.MaxAcceleration = clonePtr(c.Motion.MaxAcceleration)
	out.Motion.IntegralZone = clonePtr(c.Motion.IntegralZone)
	out.Motion.SCurveStrength = clonePtr(c.Motion.SCurveStrength)
	out.Motion.MinVelocity = clonePtr(c.Motion.MinVelocity)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
