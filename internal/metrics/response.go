package metrics

import "math"

// Overshoot is the largest excursion past the setpoint, as a fraction of
// the setpoint magnitude (absolute when the setpoint is 0). The direction
// of approach is taken from the first sample.
type Overshoot struct {
	name    string
	dir     float64
	peak    float64
	sp      float64
	started bool
}

func NewOvershoot() *Overshoot { return &Overshoot{name: "overshoot"} }

func (o *Overshoot) Name() string { return o.name }

func (o *Overshoot) Observe(_, measured, setpoint, _ float64) {
	if !o.started {
		o.started = true
		o.sp = setpoint
		o.dir = 1
		if measured > setpoint {
			o.dir = -1
		}
	}
	if past := o.dir * (measured - setpoint); past > o.peak {
		o.peak = past
	}
}

func (o *Overshoot) Value() float64 {
	if o.sp == 0 {
		return o.peak
	}
	return o.peak / math.Abs(o.sp)
}

func (o *Overshoot) Reset() {
	o.peak = 0
	o.sp = 0
	o.started = false
}

// SettlingTime is the time after which the measurement stays within band
// (a fraction of the setpoint magnitude, or absolute when the setpoint is
// 0). It is -1 if the run ends outside the band.
type SettlingTime struct {
	name    string
	band    float64
	settled float64
	inside  bool
}

func NewSettlingTime(band float64) *SettlingTime {
	return &SettlingTime{name: "settling_time", band: band, settled: -1}
}

func (s *SettlingTime) Name() string { return s.name }

func (s *SettlingTime) Observe(t, measured, setpoint, _ float64) {
	tol := s.band
	if setpoint != 0 {
		tol = s.band * math.Abs(setpoint)
	}
	if math.Abs(measured-setpoint) <= tol {
		if !s.inside {
			s.inside = true
			s.settled = t
		}
		return
	}
	s.inside = false
	s.settled = -1
}

func (s *SettlingTime) Value() float64 { return s.settled }

func (s *SettlingTime) Reset() {
	s.settled = -1
	s.inside = false
}

// SteadyStateError is the mean absolute error over the last window samples.
type SteadyStateError struct {
	name   string
	window int
	errs   []float64
	next   int
	filled bool
}

func NewSteadyStateError(window int) *SteadyStateError {
	if window < 1 {
		window = 1
	}
	return &SteadyStateError{name: "steady_state_error", window: window, errs: make([]float64, window)}
}

func (s *SteadyStateError) Name() string { return s.name }

func (s *SteadyStateError) Observe(_, measured, setpoint, _ float64) {
	s.errs[s.next] = math.Abs(setpoint - measured)
	s.next = (s.next + 1) % s.window
	if s.next == 0 {
		s.filled = true
	}
}

func (s *SteadyStateError) Value() float64 {
	n := s.next
	if s.filled {
		n = s.window
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range s.errs[:n] {
		sum += e
	}
	return sum / float64(n)
}

func (s *SteadyStateError) Reset() {
	for i := range s.errs {
		s.errs[i] = 0
	}
	s.next = 0
	s.filled = false
}

// Metric matches plant.Metric.
type Metric interface {
	Name() string
	Observe(t, measured, setpoint, output float64)
	Value() float64
	Reset()
}

// Standard returns the metric set used by gainctl sim.
func Standard(outputLimit float64) []Metric {
	return []Metric{
		NewControlEffort(),
		NewSaturation(outputLimit),
		NewOvershoot(),
		NewSettlingTime(0.02),
		NewSteadyStateError(25),
	}
}
