// Package hardware pushes gain profiles to motor controllers that run PID
// on the device and keeps the device's active slot in step with a
// [profile.Store].
//
// The device is reached through [Actuator], an opaque "configure one
// constant" and "select slot" capability. [CANActuator] speaks it over
// SocketCAN; [Recorder] keeps it in memory.
package hardware

import (
	"fmt"
	"time"
)

// Param identifies one device constant.
type Param int

const (
	ParamP Param = iota
	ParamI
	ParamD
	ParamF
	ParamIntegralZone
	ParamPeakOutputForward
	ParamPeakOutputReverse
	ParamMaxVelocity
	ParamMaxAcceleration
	ParamSCurveStrength
	ParamMinVelocity
	numParams
)

var paramNames = [...]string{
	ParamP:                 "kP",
	ParamI:                 "kI",
	ParamD:                 "kD",
	ParamF:                 "kF",
	ParamIntegralZone:      "integral_zone",
	ParamPeakOutputForward: "peak_output_forward",
	ParamPeakOutputReverse: "peak_output_reverse",
	ParamMaxVelocity:       "max_velocity",
	ParamMaxAcceleration:   "max_acceleration",
	ParamSCurveStrength:    "s_curve_strength",
	ParamMinVelocity:       "min_velocity",
}

func (p Param) String() string {
	if p < 0 || p >= numParams {
		return fmt.Sprintf("Param(%d)", int(p))
	}
	return paramNames[p]
}

func (p Param) Valid() bool { return p >= 0 && p < numParams }

// Actuator is a motor controller with slot-indexed configuration. Errors
// are transport or device failures and are returned to the caller as-is.
type Actuator interface {
	// Configure writes one constant for slot. timeout bounds the device
	// acknowledgement and is not interpreted by callers.
	Configure(slot int, param Param, value float64, timeout time.Duration) error
	// SelectSlot makes slot the device's active PID slot.
	SelectSlot(slot int) error
}
