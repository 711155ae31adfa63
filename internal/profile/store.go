// Package profile manages a fixed set of gain profiles and which one is
// active.
//
// Disabling is expressed by selecting an index outside [0, N), normally
// [Disabled]; there is no separate flag. Dependents use the boolean returned
// by [Store.Select] to decide whether a switch happened.
package profile

import (
	"fmt"
	"sync/atomic"

	"github.com/san-kum/gainctl/internal/gain"
)

// Disabled is the selection sentinel meaning "no active profile".
const Disabled = -1

// Mode names the conventional slot layout.
type Mode int

const (
	Position Mode = iota
	Velocity
	Acceleration
)

var modeNames = []string{"position", "velocity", "acceleration"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Index is the slot index the mode occupies.
func (m Mode) Index() int { return int(m) }

// ParseMode accepts the names produced by String.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

type Store struct {
	profiles []*gain.Profile
	current  atomic.Int64
}

func New(profiles ...*gain.Profile) (*Store, error) {
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}
	for i, p := range profiles {
		if p == nil {
			return nil, fmt.Errorf("slot %d: %w", i, ErrNilProfile)
		}
	}
	s := &Store{profiles: append([]*gain.Profile(nil), profiles...)}
	s.current.Store(0)
	return s, nil
}

func (s *Store) Len() int { return len(s.profiles) }

func (s *Store) Profile(index int) (*gain.Profile, error) {
	if index < 0 || index >= len(s.profiles) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(s.profiles))
	}
	return s.profiles[index], nil
}

func (s *Store) ProfileFor(mode Mode) (*gain.Profile, error) {
	return s.Profile(mode.Index())
}

// Profiles returns the profiles in slot order. The slice is a copy; the
// profiles are shared.
func (s *Store) Profiles() []*gain.Profile {
	return append([]*gain.Profile(nil), s.profiles...)
}

// Select stores index without bounds checking and reports whether it
// differs from the previous selection.
func (s *Store) Select(index int) bool {
	prev := s.current.Swap(int64(index))
	return prev != int64(index)
}

func (s *Store) SelectMode(mode Mode) bool {
	return s.Select(mode.Index())
}

// Disable selects Disabled.
func (s *Store) Disable() bool {
	return s.Select(Disabled)
}

func (s *Store) Current() int {
	return int(s.current.Load())
}

func (s *Store) Valid() bool {
	return s.validIndex(s.Current())
}

func (s *Store) validIndex(i int) bool {
	return i >= 0 && i < len(s.profiles)
}

// CurrentProfile returns the selected profile, or false when the selection
// is invalid.
func (s *Store) CurrentProfile() (*gain.Profile, bool) {
	i := s.Current()
	if !s.validIndex(i) {
		return nil, false
	}
	return s.profiles[i], true
}

// CurrentMode maps the selection onto Mode. It is false for invalid
// selections and for slots beyond the named modes.
func (s *Store) CurrentMode() (Mode, bool) {
	i := s.Current()
	if !s.validIndex(i) || i >= len(modeNames) {
		return 0, false
	}
	return Mode(i), true
}
