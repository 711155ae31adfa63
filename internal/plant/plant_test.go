package plant

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/san-kum/gainctl/internal/control"
	"github.com/san-kum/gainctl/internal/gain"
)

const period = 20 * time.Millisecond

func newEvaluator(t *testing.T, profiles ...*gain.Profile) *control.Evaluator {
	t.Helper()
	e, err := control.NewEvaluator(period, profiles...)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

type exponential struct{ rate float64 }

func (e exponential) Derivative(x State, _, _ float64) State {
	return State{e.rate * x[0], 0}
}

func TestRK4Exponential(t *testing.T) {
	rk := NewRK4()
	x := State{1, 0}
	for i := 0; i < 100; i++ {
		x = rk.Step(exponential{rate: -1}, x, 0, float64(i)*0.01, 0.01)
	}
	if math.Abs(x[0]-math.Exp(-1)) > 1e-8 {
		t.Errorf("expected e^-1, got %v", x[0])
	}
}

func TestMotorSteadyState(t *testing.T) {
	m := Motor{Gain: 10, TimeConstant: 0.1}
	rk := NewRK4()
	x := State{0, 0}
	for i := 0; i < 200; i++ {
		x = rk.Step(m, x, 0.5, 0, 0.01)
	}
	if math.Abs(x[1]-5) > 1e-3 {
		t.Errorf("expected velocity 5, got %v", x[1])
	}
}

func TestMechanismDisabledHolds(t *testing.T) {
	e := newEvaluator(t, gain.NewPID(1, 0, 0))
	mech := NewMechanism(Motor{Gain: 10, TimeConstant: 0.1}, e, period, 4)
	e.SupplyFeedback(0, func() float64 { return mech.Position() })
	mech.SetPosition(1)

	for i := 0; i < 50; i++ {
		if u := mech.Step(); u != 0 {
			t.Fatalf("step %d: expected 0 output while disabled, got %v", i, u)
		}
	}
	if mech.Position() != 0 {
		t.Errorf("expected mechanism at rest, got %v", mech.Position())
	}
	if math.Abs(mech.Time()-1.0) > 1e-9 {
		t.Errorf("expected 1s elapsed, got %v", mech.Time())
	}
}

func TestRunSettlesPosition(t *testing.T) {
	e := newEvaluator(t, gain.NewPID(1, 0, 0))
	sim := New(Motor{Gain: 10, TimeConstant: 0.1}, e)

	tr, err := sim.Run(context.Background(), Config{
		Period:   period,
		Duration: 3 * time.Second,
		Substeps: 4,
		Feedback: Position,
		Setpoint: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if tr.Len() != 150 {
		t.Errorf("expected 150 samples, got %d", tr.Len())
	}
	final := tr.Positions[len(tr.Positions)-1]
	if math.Abs(final-1) > 0.02 {
		t.Errorf("expected position to settle at 1, got %v", final)
	}
	for i, u := range tr.Outputs {
		if math.Abs(u) > 1 {
			t.Fatalf("sample %d: output %v outside range", i, u)
		}
	}
	if e.Enabled() {
		t.Error("evaluator should be disabled after a run")
	}
}

func TestRunVelocitySlot(t *testing.T) {
	e := newEvaluator(t,
		gain.NewPID(1, 0, 0),
		gain.NewPIDF(0.05, 0.5, 0, 0.1),
	)
	sim := New(Motor{Gain: 10, TimeConstant: 0.1}, e)

	tr, err := sim.Run(context.Background(), Config{
		Period:   period,
		Duration: 4 * time.Second,
		Slot:     1,
		Feedback: Velocity,
		Setpoint: 5,
	})
	if err != nil {
		t.Fatal(err)
	}

	if tr.Feedback != "velocity" || tr.Slot != 1 {
		t.Errorf("unexpected trace header: %s slot %d", tr.Feedback, tr.Slot)
	}
	measured := tr.Measured()
	if final := measured[len(measured)-1]; math.Abs(final-5) > 0.1 {
		t.Errorf("expected velocity near 5, got %v", final)
	}
	if e.Store().Current() != 1 {
		t.Errorf("expected slot 1 selected, got %d", e.Store().Current())
	}
}

type countMetric struct{ n int }

func (c *countMetric) Name() string               { return "count" }
func (c *countMetric) Observe(_, _, _, _ float64) { c.n++ }
func (c *countMetric) Value() float64             { return float64(c.n) }
func (c *countMetric) Reset()                     { c.n = 0 }

func TestRunMetrics(t *testing.T) {
	e := newEvaluator(t, gain.NewPID(1, 0, 0))
	sim := New(Motor{Gain: 10, TimeConstant: 0.1}, e)
	sim.AddMetric(&countMetric{})

	tr, err := sim.Run(context.Background(), Config{Period: period, Duration: time.Second, Setpoint: 1})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Metrics["count"] != 50 {
		t.Errorf("expected 50 observations, got %v", tr.Metrics["count"])
	}
}

func TestRunErrors(t *testing.T) {
	e := newEvaluator(t, gain.NewPID(1, 0, 0))
	sim := New(Motor{Gain: 10, TimeConstant: 0.1}, e)

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero period", Config{Duration: time.Second}, ErrBadConfig},
		{"zero duration", Config{Period: period}, ErrBadConfig},
		{"bad initial", Config{Period: period, Duration: time.Second, Initial: State{1}}, ErrDimensionMismatch},
		{"missing slot", Config{Period: period, Duration: time.Second, Slot: 3}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

type diverging struct{}

func (diverging) Derivative(x State, _, _ float64) State {
	return State{math.NaN(), 0}
}

func TestRunInvalidState(t *testing.T) {
	e := newEvaluator(t, gain.NewPID(1, 0, 0))
	sim := New(diverging{}, e)

	_, err := sim.Run(context.Background(), Config{Period: period, Duration: time.Second, Setpoint: 1})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	var runErr *RunError
	if !errors.As(err, &runErr) || runErr.Step != 0 {
		t.Errorf("expected RunError at step 0, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	e := newEvaluator(t, gain.NewPID(1, 0, 0))
	sim := New(Motor{Gain: 10, TimeConstant: 0.1}, e)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, Config{Period: period, Duration: time.Second, Setpoint: 1})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseFeedback(t *testing.T) {
	if k, ok := ParseFeedback("velocity"); !ok || k != Velocity {
		t.Errorf("expected velocity, got %v %v", k, ok)
	}
	if _, ok := ParseFeedback("torque"); ok {
		t.Error("expected torque to be rejected")
	}
}
