package hardware

import (
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/gainctl/internal/gain"
	"github.com/san-kum/gainctl/internal/profile"
)

// Options configures a ProfileSync.
type Options struct {
	// Timeout is passed to every Configure call. Zero means gain.DefaultTimeout.
	Timeout time.Duration
	// Motion, when set, is pushed to every slot alongside the gains.
	Motion *gain.Motion
	// Observer, when set, sees every hardware call after it succeeds.
	Observer Observer
	Logger   logr.Logger
}

// Observer is notified of hardware traffic, e.g. for metrics.
type Observer interface {
	Configured(slot int, param Param)
	SlotSelected(slot int)
}

// ProfileSync owns the mapping from profile slots to device slots. Each
// constant is written exactly once per slot at construction; afterwards
// only slot changes reach the device.
type ProfileSync struct {
	store   *profile.Store
	act     Actuator
	timeout time.Duration
	obs     Observer
	log     logr.Logger

	mu sync.Mutex
}

// NewProfileSync writes every profile to its slot in order, then selects
// slot 0 on the device. The first actuator error aborts construction and is
// returned unwrapped.
func NewProfileSync(act Actuator, opts Options, profiles ...*gain.Profile) (*ProfileSync, error) {
	store, err := profile.New(profiles...)
	if err != nil {
		return nil, err
	}
	s := &ProfileSync{
		store:   store,
		act:     act,
		timeout: opts.Timeout,
		obs:     opts.Observer,
		log:     opts.Logger,
	}
	if s.timeout <= 0 {
		s.timeout = gain.DefaultTimeout
	}
	if s.log.GetSink() == nil {
		s.log = logr.Discard()
	}
	s.log = s.log.WithName("profile-sync")

	for slot, p := range store.Profiles() {
		if err := s.applyGains(slot, p); err != nil {
			return nil, err
		}
		if opts.Motion != nil {
			if err := s.applyMotion(slot, opts.Motion); err != nil {
				return nil, err
			}
		}
	}
	if err := s.selectSlot(0); err != nil {
		return nil, err
	}
	s.log.V(1).Info("profiles applied", "slots", store.Len())
	return s, nil
}

func (s *ProfileSync) Store() *profile.Store { return s.store }

// Select records index and, when it changed to a valid slot, issues one
// SelectSlot. Out-of-range indices disable the selection without touching
// the device. If SelectSlot fails the previous selection is restored, so
// the store never reports a slot the device is not on.
func (s *ProfileSync) Select(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.store.Current()
	if !s.store.Select(index) {
		return false, nil
	}
	if !s.store.Valid() {
		s.log.V(1).Info("selection disabled", "index", index)
		return true, nil
	}
	if err := s.selectSlot(index); err != nil {
		s.store.Select(prev)
		return false, err
	}
	return true, nil
}

func (s *ProfileSync) SelectMode(mode profile.Mode) (bool, error) {
	return s.Select(mode.Index())
}

// ApplyProfile rewrites one slot's gains, e.g. after an offline edit.
func (s *ProfileSync) ApplyProfile(slot int) error {
	p, err := s.store.Profile(slot)
	if err != nil {
		return err
	}
	return s.applyGains(slot, p)
}

func (s *ProfileSync) applyGains(slot int, p *gain.Profile) error {
	for _, c := range []struct {
		param Param
		value float64
	}{
		{ParamP, p.P()},
		{ParamI, p.I()},
		{ParamD, p.D()},
		{ParamF, p.FF()},
	} {
		if err := s.configure(slot, c.param, c.value); err != nil {
			return err
		}
	}
	return nil
}

type motionConst struct {
	param Param
	get   func() (float64, bool)
}

// applyMotion skips every unset constant.
func (s *ProfileSync) applyMotion(slot int, m *gain.Motion) error {
	consts := []motionConst{
		{ParamMaxVelocity, m.MaxVelocity},
		{ParamMaxAcceleration, m.MaxAcceleration},
		{ParamIntegralZone, m.IntegralZone},
	}
	switch m.Kind() {
	case gain.MotionMagic:
		consts = append(consts, motionConst{ParamSCurveStrength, m.Extra})
	case gain.SmartMotion:
		consts = append(consts, motionConst{ParamMinVelocity, m.Extra})
	}
	for _, c := range consts {
		v, ok := c.get()
		if !ok {
			continue
		}
		if err := s.configure(slot, c.param, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProfileSync) configure(slot int, param Param, value float64) error {
	if err := s.act.Configure(slot, param, value, s.timeout); err != nil {
		return err
	}
	if s.obs != nil {
		s.obs.Configured(slot, param)
	}
	return nil
}

func (s *ProfileSync) selectSlot(slot int) error {
	if err := s.act.SelectSlot(slot); err != nil {
		return err
	}
	if s.obs != nil {
		s.obs.SlotSelected(slot)
	}
	s.log.V(1).Info("slot selected", "slot", slot)
	return nil
}
