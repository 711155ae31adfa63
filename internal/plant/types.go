// Package plant simulates a motor driven by a control.Evaluator so gain
// profiles can be exercised without hardware.
package plant

import "math"

// State is [position, velocity].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a continuous-time plant driven by a scalar command.
type System interface {
	Derivative(x State, u, t float64) State
}

// Metric accumulates a figure of merit over a run.
type Metric interface {
	Name() string
	Observe(t, measured, setpoint, output float64)
	Value() float64
	Reset()
}

// FeedbackKind selects which state the controller sees.
type FeedbackKind int

const (
	Position FeedbackKind = iota
	Velocity
)

func (k FeedbackKind) String() string {
	if k == Velocity {
		return "velocity"
	}
	return "position"
}

func ParseFeedback(s string) (FeedbackKind, bool) {
	switch s {
	case "", "position":
		return Position, true
	case "velocity":
		return Velocity, true
	}
	return Position, false
}

// Motor is a first-order DC motor: velocity approaches Gain*(u+Load) with
// time constant TimeConstant, and position integrates velocity.
type Motor struct {
	Gain         float64
	TimeConstant float64
	Load         float64
}

func (m Motor) Derivative(x State, u, _ float64) State {
	v := x[1]
	return State{v, (m.Gain*(u+m.Load) - v) / m.TimeConstant}
}
