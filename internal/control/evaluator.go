package control

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/gainctl/internal/gain"
	"github.com/san-kum/gainctl/internal/mathutil"
	"github.com/san-kum/gainctl/internal/profile"
)

// Feedback reads the current process value for a slot.
type Feedback func() float64

// State is the evaluator's externally visible condition.
type State int

const (
	Disabled State = iota
	EnabledNoSetpoint
	Running
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case EnabledNoSetpoint:
		return "enabled (no setpoint)"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Evaluator runs one PID per profile slot and returns the output of the
// selected slot, saturated to that profile's range. Every invalid condition
// yields 0 so a disabled or misconfigured loop never commands motion.
//
// Switching slots keeps each slot's integral and derivative history;
// re-enabling clears all of them.
type Evaluator struct {
	store    *profile.Store
	slots    []*PID
	feedback []atomic.Pointer[Feedback]
	enabled  atomic.Bool
	log      logr.Logger
}

// NewEvaluator starts disabled with slot 0 selected.
func NewEvaluator(period time.Duration, profiles ...*gain.Profile) (*Evaluator, error) {
	store, err := profile.New(profiles...)
	if err != nil {
		return nil, err
	}
	e := &Evaluator{
		store:    store,
		slots:    make([]*PID, store.Len()),
		feedback: make([]atomic.Pointer[Feedback], store.Len()),
		log:      logr.Discard(),
	}
	for i, p := range store.Profiles() {
		e.slots[i] = NewPID(p, period)
	}
	return e, nil
}

func (e *Evaluator) SetLogger(l logr.Logger) {
	e.log = l.WithName("evaluator")
}

func (e *Evaluator) Store() *profile.Store { return e.store }

// Slot returns the accumulator for index.
func (e *Evaluator) Slot(index int) (*PID, error) {
	if _, err := e.store.Profile(index); err != nil {
		return nil, err
	}
	return e.slots[index], nil
}

func (e *Evaluator) Enable() {
	if !e.enabled.Swap(true) {
		for _, s := range e.slots {
			s.Reset()
		}
		e.log.V(1).Info("enabled", "slot", e.store.Current())
	}
}

// Disable freezes output at 0 on the next Calculate. Selection and
// setpoints are kept.
func (e *Evaluator) Disable() {
	if e.enabled.Swap(false) {
		e.log.V(1).Info("disabled", "slot", e.store.Current())
	}
}

func (e *Evaluator) Enabled() bool { return e.enabled.Load() }

func (e *Evaluator) State() State {
	if !e.Enabled() {
		return Disabled
	}
	i := e.store.Current()
	if i < 0 || i >= len(e.slots) || !e.slots[i].HasSetpoint() {
		return EnabledNoSetpoint
	}
	return Running
}

// Select forwards to the store; see profile.Store.Select.
func (e *Evaluator) Select(index int) bool {
	changed := e.store.Select(index)
	if changed {
		e.log.V(1).Info("slot selected", "slot", index, "valid", e.store.Valid())
	}
	return changed
}

func (e *Evaluator) SelectMode(mode profile.Mode) bool {
	return e.Select(mode.Index())
}

// SetSetpoint applies v to the selected slot and reports whether the
// selection was valid.
func (e *Evaluator) SetSetpoint(v float64) bool {
	i := e.store.Current()
	if i < 0 || i >= len(e.slots) {
		return false
	}
	e.slots[i].SetSetpoint(v)
	return true
}

// SupplyFeedback registers the process-value source used by Calculate for
// slot index. A later call replaces the earlier supplier.
func (e *Evaluator) SupplyFeedback(index int, fn Feedback) error {
	if fn == nil {
		return ErrNilFeedback
	}
	if _, err := e.store.Profile(index); err != nil {
		return err
	}
	e.feedback[index].Store(&fn)
	return nil
}

func (e *Evaluator) SupplyFeedbackMode(mode profile.Mode, fn Feedback) error {
	return e.SupplyFeedback(mode.Index(), fn)
}

// Calculate reads the selected slot's feedback supplier and evaluates it.
// It returns 0 when disabled, when the selection is invalid, or when no
// supplier is registered for the slot.
func (e *Evaluator) Calculate() float64 {
	if !e.enabled.Load() {
		return 0
	}
	i := e.store.Current()
	if i < 0 || i >= len(e.slots) {
		return 0
	}
	fn := e.feedback[i].Load()
	if fn == nil {
		return 0
	}
	return e.CalculateWith((*fn)())
}

// CalculateWith evaluates the selected slot against feedback. Only the
// selection gates it; the enabled flag is checked by Calculate.
func (e *Evaluator) CalculateWith(feedback float64) float64 {
	i := e.store.Current()
	if i < 0 || i >= len(e.slots) {
		return 0
	}
	slot := e.slots[i]
	out := slot.Calculate(feedback)
	if math.IsNaN(out) {
		return 0
	}
	return mathutil.Limit(out, slot.gains.Range())
}

// AtSetpoint reports whether the selected slot is within tolerance.
func (e *Evaluator) AtSetpoint() bool {
	i := e.store.Current()
	if i < 0 || i >= len(e.slots) {
		return false
	}
	return e.slots[i].AtSetpoint()
}
