package metrics

import "math"

// Saturation is the fraction of samples whose output magnitude reached
// limit. A loop that lives on its output clamp is usually over-tuned.
type Saturation struct {
	name    string
	limit   float64
	hits    int
	samples int
}

func NewSaturation(limit float64) *Saturation {
	return &Saturation{
		name:  "saturation",
		limit: math.Abs(limit),
	}
}

func (s *Saturation) Name() string {
	return s.name
}

func (s *Saturation) Observe(_, _, _, output float64) {
	s.samples++
	if math.Abs(output) >= s.limit {
		s.hits++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.hits) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.hits = 0
	s.samples = 0
}
