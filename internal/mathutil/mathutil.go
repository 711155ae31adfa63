package mathutil

import "math"

const (
	// DefaultDeadband is the joystick deadband used by FitDeadband.
	DefaultDeadband = 0.08
	// TicksPerDegree assumes a 4096 count-per-revolution magnetic encoder.
	TicksPerDegree = 4096.0 / 360
)

// Limit clamps value to [-minmax, +minmax]. A negative bound is treated
// by magnitude so the window is always symmetric around zero.
func Limit(value, minmax float64) float64 {
	m := math.Abs(minmax)
	return LimitRange(value, -m, m)
}

// LimitRange clamps value to [min, max].
func LimitRange(value, min, max float64) float64 {
	if value > max {
		return max
	}
	if value < min {
		return min
	}
	return value
}

// FitDeadband zeroes inputs inside the deadband and shifts the rest toward
// zero by the deadband width, saturating at ±1.
func FitDeadband(value, deadband float64) float64 {
	if math.Abs(value) < deadband {
		return 0
	}
	switch {
	case value >= 1:
		return 1
	case value <= -1:
		return -1
	case value > 0:
		return value - deadband
	case value < 0:
		return value + deadband
	}
	return 0
}

// WrapToCircle maps angle into [0, fullCircle).
func WrapToCircle(angle, fullCircle float64) float64 {
	angle = math.Mod(angle, fullCircle)
	if angle < 0 {
		return fullCircle + angle
	}
	return angle
}

// WithinTolerance reports |value-target| < tolerance.
func WithinTolerance(value, target, tolerance float64) bool {
	return math.Abs(value-target) < tolerance
}

func DegreesToTicks(degrees, ticksPerDegree float64) float64 {
	return degrees * ticksPerDegree
}

func TicksToDegrees(ticks, ticksPerDegree float64) float64 {
	return ticks / ticksPerDegree
}

// Magnitude returns the euclidean norm of values.
func Magnitude(values ...float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v * v
	}
	return math.Sqrt(sum)
}
