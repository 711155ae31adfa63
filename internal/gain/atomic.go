package gain

import (
	"math"
	"sync/atomic"
)

type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// optionalFloat uses NaN as the unset marker.
type optionalFloat struct {
	atomicFloat
}

func (o *optionalFloat) Get() (float64, bool) {
	v := o.Load()
	return v, !math.IsNaN(v)
}

func (o *optionalFloat) Set(v float64) {
	o.Store(v)
}

func (o *optionalFloat) Clear() {
	o.Store(math.NaN())
}

// ptr returns nil when unset; used for config round-trips.
func (o *optionalFloat) ptr() *float64 {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return &v
}
