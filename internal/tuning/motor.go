package tuning

import (
	"math"
	"time"

	"github.com/san-kum/gainctl/internal/gain"
	"github.com/san-kum/gainctl/internal/hardware"
)

// Entry labels bound by MotorTuner.
const (
	LabelP               = "P Gain"
	LabelI               = "I Gain"
	LabelD               = "D Gain"
	LabelFF              = "Feed Forward"
	LabelIntegralZone    = "I Zone"
	LabelMaxOutput       = "Max Output"
	LabelMinOutput       = "Min Output"
	LabelMaxVelocity     = "Max Velocity"
	LabelMaxAcceleration = "Max Acceleration"
	LabelSCurveStrength  = "S Curve Strength"
	LabelMinVelocity     = "Min Vel"
)

// MotorTuner binds the standard motor tuning entries for one gain profile
// and motion configuration.
type MotorTuner struct {
	*Bridge
	gains  *gain.Profile
	motion *gain.Motion
}

// NewMotorTuner creates a tuner over store. A nil motion is treated as a
// basic configuration with nothing set.
func NewMotorTuner(store Store, gains *gain.Profile, motion *gain.Motion, opts Options) (*MotorTuner, error) {
	if gains == nil {
		return nil, ErrNilGains
	}
	if motion == nil {
		motion = gain.NewMotion(gain.Basic)
	}
	b, err := NewBridge(store, opts)
	if err != nil {
		return nil, err
	}
	return &MotorTuner{Bridge: b, gains: gains, motion: motion}, nil
}

func (t *MotorTuner) Gains() *gain.Profile { return t.gains }
func (t *MotorTuner) Motion() *gain.Motion { return t.motion }

// Bind binds every entry to act's slot. It reports whether the
// configuration's variant extra ("S Curve Strength" for motion magic,
// "Min Vel" for smart motion) was bound as well.
func (t *MotorTuner) Bind(act hardware.Actuator, slot int) (bool, error) {
	if act == nil {
		return false, ErrNoActuator
	}
	timeout := t.motion.Timeout
	if timeout <= 0 {
		timeout = gain.DefaultTimeout
	}
	push := func(p hardware.Param) ActuatorUpdater {
		return configurer(act, slot, p, timeout)
	}

	g, m := t.gains, t.motion
	fields := []struct {
		label    string
		initial  float64
		storage  StorageUpdater
		actuator ActuatorUpdater
	}{
		{LabelP, g.P(), func(v float64) { g.SetP(v) }, push(hardware.ParamP)},
		{LabelI, g.I(), func(v float64) { g.SetI(v) }, push(hardware.ParamI)},
		{LabelD, g.D(), func(v float64) { g.SetD(v) }, push(hardware.ParamD)},
		{LabelFF, g.FF(), func(v float64) { g.SetFF(v) }, push(hardware.ParamF)},
		{LabelIntegralZone, orZero(m.IntegralZone()), func(v float64) { m.SetIntegralZone(math.Trunc(v)) }, truncated(push(hardware.ParamIntegralZone))},
		{LabelMaxOutput, g.Range(), func(v float64) { g.SetRange(v) }, push(hardware.ParamPeakOutputForward)},
		{LabelMinOutput, -g.Range(), func(v float64) { g.SetRange(-v) }, push(hardware.ParamPeakOutputReverse)},
		{LabelMaxVelocity, orZero(m.MaxVelocity()), func(v float64) { m.SetMaxVelocity(v) }, push(hardware.ParamMaxVelocity)},
		{LabelMaxAcceleration, orZero(m.MaxAcceleration()), func(v float64) { m.SetMaxAcceleration(v) }, push(hardware.ParamMaxAcceleration)},
	}
	for _, f := range fields {
		if err := t.BindField(f.label, f.initial, f.storage, f.actuator); err != nil {
			return false, err
		}
	}

	switch m.Kind() {
	case gain.MotionMagic:
		s, _ := m.SCurveStrength()
		err := t.BindField(LabelSCurveStrength, float64(s),
			func(v float64) { m.SetSCurveStrength(int(v)) },
			func(v float64) error {
				return act.Configure(slot, hardware.ParamSCurveStrength, math.Trunc(v), timeout)
			})
		return err == nil, err
	case gain.SmartMotion:
		err := t.BindField(LabelMinVelocity, orZero(m.MinVelocity()),
			func(v float64) { m.SetMinVelocity(v) },
			func(v float64) error {
				return act.Configure(slot, hardware.ParamMinVelocity, math.Trunc(v), timeout)
			})
		return err == nil, err
	}
	return false, nil
}

func configurer(act hardware.Actuator, slot int, p hardware.Param, timeout time.Duration) ActuatorUpdater {
	return func(v float64) error {
		return act.Configure(slot, p, v, timeout)
	}
}

// truncated drops the fraction of integer-valued device constants.
func truncated(u ActuatorUpdater) ActuatorUpdater {
	return func(v float64) error { return u(math.Trunc(v)) }
}

func orZero(v float64, ok bool) float64 {
	if !ok {
		return 0
	}
	return v
}
