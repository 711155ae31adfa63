package gain

import (
	"fmt"
	"time"
)

// ExtraKind tags the vendor-specific constant carried by a Motion.
type ExtraKind int

const (
	// Basic carries no extra constant.
	Basic ExtraKind = iota
	// MotionMagic carries an S-curve strength (CTRE Talon family).
	MotionMagic
	// SmartMotion carries a minimum output velocity (REV Spark family).
	SmartMotion
)

func (k ExtraKind) String() string {
	switch k {
	case Basic:
		return "basic"
	case MotionMagic:
		return "motion_magic"
	case SmartMotion:
		return "smart_motion"
	default:
		return fmt.Sprintf("ExtraKind(%d)", int(k))
	}
}

// ParseExtraKind accepts the names produced by String; the empty string is Basic.
func ParseExtraKind(s string) (ExtraKind, error) {
	switch s {
	case "", "basic":
		return Basic, nil
	case "motion_magic":
		return MotionMagic, nil
	case "smart_motion":
		return SmartMotion, nil
	}
	return Basic, fmt.Errorf("unknown motion family %q", s)
}

const (
	DefaultTimeout = 10 * time.Millisecond
	DefaultPeriod  = 10 * time.Millisecond
)

// Motion holds the non-PID constants a controller needs for motion-profiled
// moves. Unset constants leave the hardware default untouched.
//
// The tunable constants are atomic. StatusFrames, Reset, Timeout and Period
// are set-up values and must not change once the motion is shared. Only
// Timeout reaches the device; StatusFrames, Reset and Period are carried so
// a loaded configuration saves back unchanged.
type Motion struct {
	kind ExtraKind

	maxVel       optionalFloat
	maxAccel     optionalFloat
	integralZone optionalFloat
	extra        optionalFloat

	StatusFrames []int
	Reset        bool
	Timeout      time.Duration
	Period       time.Duration
}

func NewMotion(kind ExtraKind) *Motion {
	m := &Motion{
		kind:    kind,
		Timeout: DefaultTimeout,
		Period:  DefaultPeriod,
	}
	m.maxVel.Clear()
	m.maxAccel.Clear()
	m.integralZone.Clear()
	m.extra.Clear()
	return m
}

func (m *Motion) Kind() ExtraKind { return m.kind }

func (m *Motion) MaxVelocity() (float64, bool)     { return m.maxVel.Get() }
func (m *Motion) MaxAcceleration() (float64, bool) { return m.maxAccel.Get() }
func (m *Motion) IntegralZone() (float64, bool)    { return m.integralZone.Get() }

func (m *Motion) SetMaxVelocity(v float64) *Motion {
	m.maxVel.Set(v)
	return m
}

func (m *Motion) SetMaxAcceleration(v float64) *Motion {
	m.maxAccel.Set(v)
	return m
}

func (m *Motion) SetIntegralZone(v float64) *Motion {
	m.integralZone.Set(v)
	return m
}

func (m *Motion) ClearMaxVelocity()     { m.maxVel.Clear() }
func (m *Motion) ClearMaxAcceleration() { m.maxAccel.Clear() }
func (m *Motion) ClearIntegralZone()    { m.integralZone.Clear() }

// Extra returns the variant constant. ok is false for Basic or when unset.
func (m *Motion) Extra() (float64, bool) {
	if m.kind == Basic {
		return 0, false
	}
	return m.extra.Get()
}

// SCurveStrength is only meaningful for MotionMagic.
func (m *Motion) SCurveStrength() (int, bool) {
	if m.kind != MotionMagic {
		return 0, false
	}
	v, ok := m.extra.Get()
	return int(v), ok
}

// MinVelocity is only meaningful for SmartMotion.
func (m *Motion) MinVelocity() (float64, bool) {
	if m.kind != SmartMotion {
		return 0, false
	}
	return m.extra.Get()
}

// SetExtra stores the variant constant. It is ignored for Basic.
func (m *Motion) SetExtra(v float64) *Motion {
	if m.kind != Basic {
		m.extra.Set(v)
	}
	return m
}

func (m *Motion) SetSCurveStrength(strength int) *Motion {
	if m.kind == MotionMagic {
		m.extra.Set(float64(strength))
	}
	return m
}

func (m *Motion) SetMinVelocity(v float64) *Motion {
	if m.kind == SmartMotion {
		m.extra.Set(v)
	}
	return m
}

func (m *Motion) AddStatusFrames(frames ...int) *Motion {
	m.StatusFrames = append(m.StatusFrames, frames...)
	return m
}

// MotionValues is a plain snapshot; nil means unset.
type MotionValues struct {
	Kind            ExtraKind
	MaxVelocity     *float64
	MaxAcceleration *float64
	IntegralZone    *float64
	Extra           *float64
}

func (m *Motion) Values() MotionValues {
	v := MotionValues{
		Kind:            m.kind,
		MaxVelocity:     m.maxVel.ptr(),
		MaxAcceleration: m.maxAccel.ptr(),
		IntegralZone:    m.integralZone.ptr(),
	}
	if m.kind != Basic {
		v.Extra = m.extra.ptr()
	}
	return v
}
