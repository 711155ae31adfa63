package control

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/san-kum/gainctl/internal/gain"
	"github.com/san-kum/gainctl/internal/mathutil"
)

// DefaultPeriod matches a 50 Hz robot loop.
const DefaultPeriod = 20 * time.Millisecond

// PID is a fixed-period PIDF accumulator. The feed-forward term is
// kF * setpoint. The integral is bounded so the I term alone never exceeds
// the profile's output range.
type PID struct {
	gains  *gain.Profile
	period float64

	setpoint    atomic.Uint64
	hasSetpoint atomic.Bool
	lastErr     atomic.Uint64
	measured    atomic.Bool
	resetReq    atomic.Bool

	// owned by the control goroutine
	integral float64
	prevErr  float64
	havePrev bool
}

func NewPID(gains *gain.Profile, period time.Duration) *PID {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &PID{
		gains:  gains,
		period: period.Seconds(),
	}
}

func (c *PID) Gains() *gain.Profile { return c.gains }

func (c *PID) SetSetpoint(v float64) {
	c.setpoint.Store(math.Float64bits(v))
	c.hasSetpoint.Store(true)
}

func (c *PID) Setpoint() float64 {
	return math.Float64frombits(c.setpoint.Load())
}

func (c *PID) HasSetpoint() bool { return c.hasSetpoint.Load() }

// Reset asks the control goroutine to clear integral and derivative
// history before its next Calculate.
func (c *PID) Reset() {
	c.resetReq.Store(true)
}

// Calculate advances the accumulator by one period. Non-finite measurements
// return 0 and leave the history untouched.
func (c *PID) Calculate(measurement float64) float64 {
	if c.resetReq.CompareAndSwap(true, false) {
		c.integral = 0
		c.prevErr = 0
		c.havePrev = false
		c.measured.Store(false)
	}
	if math.IsNaN(measurement) || math.IsInf(measurement, 0) {
		return 0
	}

	sp := c.Setpoint()
	err := sp - measurement
	kp, ki, kd, kf := c.gains.P(), c.gains.I(), c.gains.D(), c.gains.FF()

	c.integral += err * c.period
	if ki != 0 {
		bound := math.Abs(c.gains.Range() / ki)
		c.integral = mathutil.Limit(c.integral, bound)
	}

	derivative := 0.0
	if c.havePrev {
		derivative = (err - c.prevErr) / c.period
	}
	c.prevErr = err
	c.havePrev = true
	c.lastErr.Store(math.Float64bits(err))
	c.measured.Store(true)

	return kp*err + ki*c.integral + kd*derivative + kf*sp
}

// AtSetpoint reports whether the last error was within the profile
// tolerance. It is false until Calculate has run.
func (c *PID) AtSetpoint() bool {
	if !c.measured.Load() {
		return false
	}
	err := math.Float64frombits(c.lastErr.Load())
	return math.Abs(err) <= c.gains.Tolerance()
}

// GetParams returns tunable parameters for live adjustment.
func (c *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     c.gains.P(),
		"Ki":     c.gains.I(),
		"Kd":     c.gains.D(),
		"Kf":     c.gains.FF(),
		"Target": c.Setpoint(),
	}
}

// SetParam adjusts a PID parameter by the names GetParams reports.
func (c *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		c.gains.SetP(value)
	case "Ki":
		c.gains.SetI(value)
	case "Kd":
		c.gains.SetD(value)
	case "Kf":
		c.gains.SetFF(value)
	case "Target":
		c.SetSetpoint(value)
	default:
		return ErrUnknownParam
	}
	return nil
}
