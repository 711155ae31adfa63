package gain

// DefaultRange is the output range used when none is given.
const DefaultRange = 1.0

// Gains is a plain snapshot of a Profile.
type Gains struct {
	P         float64 `yaml:"p" json:"p"`
	I         float64 `yaml:"i" json:"i"`
	D         float64 `yaml:"d" json:"d"`
	FF        float64 `yaml:"ff" json:"ff"`
	Range     float64 `yaml:"range" json:"range"`
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
}

// Profile is one slot's PIDF configuration. Range is the maximum output
// magnitude the loop may command; its negation is the minimum.
type Profile struct {
	p, i, d, ff atomicFloat
	outRange    atomicFloat
	tolerance   atomicFloat
}

func NewProfile(p, i, d, ff, outRange float64) *Profile {
	pr := &Profile{}
	pr.p.Store(p)
	pr.i.Store(i)
	pr.d.Store(d)
	pr.ff.Store(ff)
	pr.outRange.Store(outRange)
	return pr
}

func NewPIDF(p, i, d, ff float64) *Profile {
	return NewProfile(p, i, d, ff, DefaultRange)
}

func NewPID(p, i, d float64) *Profile {
	return NewProfile(p, i, d, 0, DefaultRange)
}

// FromGains builds a Profile from a snapshot. A zero range falls back to
// DefaultRange.
func FromGains(g Gains) *Profile {
	r := g.Range
	if r == 0 {
		r = DefaultRange
	}
	return NewProfile(g.P, g.I, g.D, g.FF, r).SetTolerance(g.Tolerance)
}

func (pr *Profile) P() float64         { return pr.p.Load() }
func (pr *Profile) I() float64         { return pr.i.Load() }
func (pr *Profile) D() float64         { return pr.d.Load() }
func (pr *Profile) FF() float64        { return pr.ff.Load() }
func (pr *Profile) Range() float64     { return pr.outRange.Load() }
func (pr *Profile) Tolerance() float64 { return pr.tolerance.Load() }

func (pr *Profile) SetP(v float64) *Profile {
	pr.p.Store(v)
	return pr
}

func (pr *Profile) SetI(v float64) *Profile {
	pr.i.Store(v)
	return pr
}

func (pr *Profile) SetD(v float64) *Profile {
	pr.d.Store(v)
	return pr
}

func (pr *Profile) SetFF(v float64) *Profile {
	pr.ff.Store(v)
	return pr
}

func (pr *Profile) SetRange(v float64) *Profile {
	pr.outRange.Store(v)
	return pr
}

func (pr *Profile) SetTolerance(v float64) *Profile {
	pr.tolerance.Store(v)
	return pr
}

// Gains returns the current values. Fields are loaded one at a time.
func (pr *Profile) Gains() Gains {
	return Gains{
		P:         pr.P(),
		I:         pr.I(),
		D:         pr.D(),
		FF:        pr.FF(),
		Range:     pr.Range(),
		Tolerance: pr.Tolerance(),
	}
}
