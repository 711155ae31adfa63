package plant

import (
	"time"

	"github.com/san-kum/gainctl/internal/control"
)

// Mechanism couples a System to an Evaluator. Each Step runs one control
// period: the evaluator is sampled once and the plant integrated over the
// period in substeps.
type Mechanism struct {
	sys      System
	eval     *control.Evaluator
	rk       *RK4
	x        State
	t        float64
	dt       float64
	substeps int
	output   float64
}

// NewMechanism starts at rest. substeps < 1 is treated as 1.
func NewMechanism(sys System, eval *control.Evaluator, period time.Duration, substeps int) *Mechanism {
	if substeps < 1 {
		substeps = 1
	}
	return &Mechanism{
		sys:      sys,
		eval:     eval,
		rk:       NewRK4(),
		x:        State{0, 0},
		dt:       period.Seconds(),
		substeps: substeps,
	}
}

// Reset puts the mechanism at x0 and time zero.
func (m *Mechanism) Reset(x0 State) {
	m.x = x0.Clone()
	m.t = 0
	m.output = 0
}

// SetPosition sets the evaluator's setpoint on the selected slot.
func (m *Mechanism) SetPosition(target float64) { m.eval.SetSetpoint(target) }

func (m *Mechanism) Position() float64 { return m.x[0] }
func (m *Mechanism) Velocity() float64 { return m.x[1] }
func (m *Mechanism) Time() float64     { return m.t }
func (m *Mechanism) Output() float64   { return m.output }
func (m *Mechanism) State() State      { return m.x.Clone() }

// Read returns the state the given feedback kind observes.
func (m *Mechanism) Read(kind FeedbackKind) float64 {
	if kind == Velocity {
		return m.x[1]
	}
	return m.x[0]
}

// Step samples the evaluator and advances one control period.
func (m *Mechanism) Step() float64 {
	u := m.eval.Calculate()
	h := m.dt / float64(m.substeps)
	for i := 0; i < m.substeps; i++ {
		m.x = m.rk.Step(m.sys, m.x, u, m.t, h)
		m.t += h
	}
	m.output = u
	return u
}
