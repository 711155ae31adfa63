// Package tuning binds live-editable dashboard entries to gain storage and
// to motor controller configuration.
//
// A binding publishes an initial value and, on every external edit, runs its
// storage updater followed by its actuator updater on the goroutine that
// delivered the edit. [MotorTuner] binds the standard set of motor entries
// for one controller slot.
package tuning

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"github.com/san-kum/gainctl/internal/dashboard"
)

// Store is the dashboard capability a Bridge needs. *dashboard.Table and
// *dashboard.Tab satisfy it.
type Store interface {
	Publish(label string, value float64)
	Subscribe(label string, fn dashboard.Listener) dashboard.Handle
	Unsubscribe(h dashboard.Handle)
	Delete(label string) error
}

// StorageUpdater records an edited value in local configuration.
type StorageUpdater func(value float64)

// ActuatorUpdater pushes an edited value to hardware.
type ActuatorUpdater func(value float64) error

type Options struct {
	Logger logr.Logger
	// OnError receives actuator failures. Defaults to logging them.
	OnError func(label string, err error)
	// OnEdit is called after both updaters have run.
	OnEdit func(label string, value float64)
}

type Bridge struct {
	store   Store
	log     logr.Logger
	onError func(string, error)
	onEdit  func(string, float64)

	mu       sync.Mutex
	bindings map[string]dashboard.Handle
}

func NewBridge(store Store, opts Options) (*Bridge, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	b := &Bridge{
		store:    store,
		log:      opts.Logger,
		onError:  opts.OnError,
		onEdit:   opts.OnEdit,
		bindings: make(map[string]dashboard.Handle),
	}
	if b.log.GetSink() == nil {
		b.log = logr.Discard()
	}
	if b.onError == nil {
		b.onError = func(label string, err error) {
			b.log.Error(err, "actuator update failed", "label", label)
		}
	}
	return b, nil
}

// BindField publishes initial under label and forwards later edits to
// storage and then actuator. Either updater may be nil. Binding a label
// twice replaces the earlier registration.
func (b *Bridge) BindField(label string, initial float64, storage StorageUpdater, actuator ActuatorUpdater) error {
	if label == "" {
		return ErrEmptyLabel
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.bindings[label]; ok {
		b.store.Unsubscribe(old)
	}
	b.store.Publish(label, initial)
	b.bindings[label] = b.store.Subscribe(label, func(v float64) {
		if storage != nil {
			storage(v)
		}
		if actuator != nil {
			if err := actuator(v); err != nil {
				b.onError(label, fmt.Errorf("%s: %w", label, err))
			}
		}
		b.log.V(1).Info("tuning edit", "label", label, "value", v)
		if b.onEdit != nil {
			b.onEdit(label, v)
		}
	})
	return nil
}

// Initialized reports whether any label is bound.
func (b *Bridge) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bindings) > 0
}

// Labels returns the bound labels, sorted.
func (b *Bridge) Labels() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.bindings))
	for l := range b.bindings {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Unbind removes every registration and, if removeEntries is set, deletes
// the entries from the store. Calling it again is a no-op.
func (b *Bridge) Unbind(removeEntries bool) error {
	b.mu.Lock()
	bound := b.bindings
	b.bindings = make(map[string]dashboard.Handle)
	b.mu.Unlock()

	labels := make([]string, 0, len(bound))
	for l := range bound {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var err error
	for _, l := range labels {
		b.store.Unsubscribe(bound[l])
		if removeEntries {
			if derr := b.store.Delete(l); derr != nil {
				err = multierr.Append(err, fmt.Errorf("delete %q: %w", l, derr))
			}
		}
	}
	if len(labels) > 0 {
		b.log.V(1).Info("tuning unbound", "labels", len(labels), "removed", removeEntries)
	}
	return err
}
