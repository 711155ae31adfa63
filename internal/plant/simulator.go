package plant

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/gainctl/internal/control"
)

type Config struct {
	Period   time.Duration
	Duration time.Duration
	Substeps int
	Slot     int
	Feedback FeedbackKind
	Setpoint float64
	Initial  State
}

// Trace is the sampled history of a run, one entry per control period.
// Metrics holds each registered Metric's final value.
type Trace struct {
	Slot       int                `json:"slot"`
	Feedback   string             `json:"feedback"`
	Setpoint   float64            `json:"setpoint"`
	Times      []float64          `json:"-"`
	Positions  []float64          `json:"-"`
	Velocities []float64          `json:"-"`
	Outputs    []float64          `json:"-"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Measured returns the series the controller observed.
func (tr *Trace) Measured() []float64 {
	if tr.Feedback == Velocity.String() {
		return tr.Velocities
	}
	return tr.Positions
}

func (tr *Trace) Len() int { return len(tr.Times) }

type Simulator struct {
	sys     System
	eval    *control.Evaluator
	metrics []Metric
	log     logr.Logger
}

func New(sys System, eval *control.Evaluator) *Simulator {
	return &Simulator{sys: sys, eval: eval, log: logr.Discard()}
}

func (s *Simulator) AddMetric(m Metric)            { s.metrics = append(s.metrics, m) }
func (s *Simulator) SetLogger(l logr.Logger)       { s.log = l.WithName("plant") }
func (s *Simulator) Evaluator() *control.Evaluator { return s.eval }

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Period <= 0 {
		return fmt.Errorf("%w: period must be positive, got %v", ErrBadConfig, cfg.Period)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrBadConfig, cfg.Duration)
	}
	if cfg.Initial != nil && len(cfg.Initial) != 2 {
		return fmt.Errorf("%w: got %d values", ErrDimensionMismatch, len(cfg.Initial))
	}
	return nil
}

// Run selects cfg.Slot, wires the mechanism as its feedback, enables the
// evaluator and steps until Duration has elapsed. The evaluator is left
// disabled afterwards.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Trace, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	mech := NewMechanism(s.sys, s.eval, cfg.Period, cfg.Substeps)
	if cfg.Initial != nil {
		mech.Reset(cfg.Initial)
	}
	s.eval.Select(cfg.Slot)
	if err := s.eval.SupplyFeedback(cfg.Slot, func() float64 { return mech.Read(cfg.Feedback) }); err != nil {
		return nil, fmt.Errorf("slot %d: %w", cfg.Slot, err)
	}
	s.eval.SetSetpoint(cfg.Setpoint)
	s.eval.Enable()
	defer s.eval.Disable()

	for _, m := range s.metrics {
		m.Reset()
	}

	steps := int(cfg.Duration / cfg.Period)
	tr := &Trace{
		Slot:       cfg.Slot,
		Feedback:   cfg.Feedback.String(),
		Setpoint:   cfg.Setpoint,
		Times:      make([]float64, 0, steps),
		Positions:  make([]float64, 0, steps),
		Velocities: make([]float64, 0, steps),
		Outputs:    make([]float64, 0, steps),
		Metrics:    make(map[string]float64),
	}
	s.log.V(1).Info("run started", "slot", cfg.Slot, "feedback", tr.Feedback, "setpoint", cfg.Setpoint, "steps", steps)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return tr, ctx.Err()
		default:
		}

		u := mech.Step()
		measured := mech.Read(cfg.Feedback)
		for _, m := range s.metrics {
			m.Observe(mech.Time(), measured, cfg.Setpoint, u)
		}
		if !mech.x.IsValid() {
			return tr, &RunError{Step: i, Time: mech.Time(), State: mech.State(), Wrapped: ErrInvalidState}
		}

		tr.Times = append(tr.Times, mech.Time())
		tr.Positions = append(tr.Positions, mech.Position())
		tr.Velocities = append(tr.Velocities, mech.Velocity())
		tr.Outputs = append(tr.Outputs, u)
	}

	for _, m := range s.metrics {
		tr.Metrics[m.Name()] = m.Value()
	}
	return tr, nil
}
