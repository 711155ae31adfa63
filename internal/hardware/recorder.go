package hardware

import (
	"sync"
	"time"
)

// CallKind distinguishes recorded actuator calls.
type CallKind int

const (
	CallConfigure CallKind = iota
	CallSelectSlot
)

// Call is one recorded actuator invocation.
type Call struct {
	Kind    CallKind
	Slot    int
	Param   Param
	Value   float64
	Timeout time.Duration
}

type slotParam struct {
	slot  int
	param Param
}

// Recorder is an in-memory Actuator. It keeps the call log and the last
// value written per (slot, param), and can be told to fail.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	values map[slotParam]float64
	active int
	err    error
}

func NewRecorder() *Recorder {
	return &Recorder{
		values: make(map[slotParam]float64),
		active: -1,
	}
}

// FailWith makes every later call return err. nil restores success.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Configure(slot int, param Param, value float64, timeout time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, Call{Kind: CallConfigure, Slot: slot, Param: param, Value: value, Timeout: timeout})
	r.values[slotParam{slot, param}] = value
	return nil
}

func (r *Recorder) SelectSlot(slot int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, Call{Kind: CallSelectSlot, Slot: slot})
	r.active = slot
	return nil
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many calls of kind were recorded.
func (r *Recorder) Count(kind CallKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Value returns the last value written for (slot, param).
func (r *Recorder) Value(slot int, param Param) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[slotParam{slot, param}]
	return v, ok
}

// ActiveSlot is -1 until SelectSlot succeeds.
func (r *Recorder) ActiveSlot() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Clear drops the call log but keeps device state.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
