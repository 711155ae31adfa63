// Package task runs one-shot motion commands against a positioner.
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/gainctl/internal/mathutil"
)

// NoLimit disables a soft limit.
const NoLimit = -1.0

// Positioner is a mechanism that accepts a position target and reports
// where it is.
type Positioner interface {
	SetPosition(target float64)
	Position() float64
}

// Clock is injectable for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Reason says why a task finished.
type Reason int

const (
	Running Reason = iota
	Reached
	TimedOut
	ForwardLimit
	ReverseLimit
)

func (r Reason) String() string {
	switch r {
	case Running:
		return "running"
	case Reached:
		return "reached"
	case TimedOut:
		return "timed out"
	case ForwardLimit:
		return "forward limit"
	case ReverseLimit:
		return "reverse limit"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// SetPosition commands Target once and finishes when the position is
// within MaxError of it, when Timeout has elapsed, or when a soft limit is
// crossed. Limits equal to NoLimit are ignored.
type SetPosition struct {
	Target       float64
	MaxError     float64
	Timeout      time.Duration
	ForwardLimit float64
	ReverseLimit float64

	pos     Positioner
	clock   Clock
	started time.Time
}

// NewSetPosition builds a task with both limits disabled.
func NewSetPosition(pos Positioner, target, maxError float64, timeout time.Duration) *SetPosition {
	return &SetPosition{
		Target:       target,
		MaxError:     maxError,
		Timeout:      timeout,
		ForwardLimit: NoLimit,
		ReverseLimit: NoLimit,
		pos:          pos,
		clock:        realClock{},
	}
}

// WithLimits sets the soft limits; pass NoLimit to leave one disabled.
func (t *SetPosition) WithLimits(forward, reverse float64) *SetPosition {
	t.ForwardLimit = forward
	t.ReverseLimit = reverse
	return t
}

func (t *SetPosition) WithClock(c Clock) *SetPosition {
	t.clock = c
	return t
}

// Initialize commands the target and starts the timeout.
func (t *SetPosition) Initialize() {
	t.pos.SetPosition(t.Target)
	t.started = t.clock.Now()
}

func (t *SetPosition) TimedOut() bool {
	return !t.started.IsZero() && t.clock.Now().Sub(t.started) > t.Timeout
}

// Status reports Running until a finish condition holds.
func (t *SetPosition) Status() Reason {
	p := t.pos.Position()
	switch {
	case mathutil.WithinTolerance(p, t.Target, t.MaxError):
		return Reached
	case t.TimedOut():
		return TimedOut
	case t.ForwardLimit != NoLimit && p >= t.ForwardLimit:
		return ForwardLimit
	case t.ReverseLimit != NoLimit && p <= t.ReverseLimit:
		return ReverseLimit
	}
	return Running
}

func (t *SetPosition) Finished() bool { return t.Status() != Running }

// Run initializes the task and polls it every period until it finishes or
// ctx is done. step, when non-nil, is called before each poll and is where
// a simulated mechanism advances.
func (t *SetPosition) Run(ctx context.Context, period time.Duration, step func(), log logr.Logger) (Reason, error) {
	if period <= 0 {
		return Running, fmt.Errorf("task: period must be positive, got %v", period)
	}
	t.Initialize()
	log.V(1).Info("set position", "target", t.Target, "max_error", t.MaxError, "timeout", t.Timeout)

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		if step != nil {
			step()
		}
		if r := t.Status(); r != Running {
			log.V(1).Info("set position finished", "reason", r.String(), "position", t.pos.Position())
			return r, nil
		}
		select {
		case <-ctx.Done():
			return Running, ctx.Err()
		case <-ticker.C:
		}
	}
}
