// Package dashboard is a live-editable key/value store for tuning values,
// in the spirit of a robot dashboard table.
//
// Local code publishes initial values with [Table.Publish]; operators edit
// them with [Table.Set] (directly, through [NewHandler] over HTTP, or through
// the terminal [Editor]). Every Set runs the label's listeners synchronously
// on the calling goroutine.
package dashboard

import (
	"errors"
	"sort"
	"sync"
)

var ErrUnknownLabel = errors.New("dashboard: unknown label")

// Handle identifies one listener registration.
type Handle uint64

// Listener receives the new value of an edited entry.
type Listener func(value float64)

type Table struct {
	mu        sync.RWMutex
	values    map[string]float64
	listeners map[string]map[Handle]Listener
	owners    map[Handle]string
	next      Handle
}

func NewTable() *Table {
	return &Table{
		values:    make(map[string]float64),
		listeners: make(map[string]map[Handle]Listener),
		owners:    make(map[Handle]string),
	}
}

// Publish creates or overwrites label without notifying listeners.
func (t *Table) Publish(label string, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[label] = value
}

// Set stores value and runs the label's listeners in registration order.
// The table lock is not held while listeners run.
func (t *Table) Set(label string, value float64) {
	t.mu.Lock()
	t.values[label] = value
	subs := t.listeners[label]
	handles := make([]Handle, 0, len(subs))
	for h := range subs {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	fns := make([]Listener, len(handles))
	for i, h := range handles {
		fns[i] = subs[h]
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

func (t *Table) Get(label string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[label]
	return v, ok
}

// Labels returns every entry label, sorted.
func (t *Table) Labels() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.values))
	for k := range t.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (t *Table) Snapshot() map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]float64, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Delete removes the entry. Listeners stay registered until unsubscribed.
func (t *Table) Delete(label string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.values[label]; !ok {
		return ErrUnknownLabel
	}
	delete(t.values, label)
	return nil
}

func (t *Table) Subscribe(label string, fn Listener) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := t.next
	subs, ok := t.listeners[label]
	if !ok {
		subs = make(map[Handle]Listener)
		t.listeners[label] = subs
	}
	subs[h] = fn
	t.owners[h] = label
	return h
}

// Unsubscribe removes the registration; unknown handles are ignored.
func (t *Table) Unsubscribe(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	label, ok := t.owners[h]
	if !ok {
		return
	}
	delete(t.owners, h)
	delete(t.listeners[label], h)
	if len(t.listeners[label]) == 0 {
		delete(t.listeners, label)
	}
}

// Listeners returns how many registrations label has.
func (t *Table) Listeners(label string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.listeners[label])
}
