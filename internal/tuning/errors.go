package tuning

import "errors"

var (
	ErrEmptyLabel = errors.New("tuning: empty label")
	ErrNilStore   = errors.New("tuning: nil store")
	ErrNilGains   = errors.New("tuning: nil gain profile")
	ErrNoActuator = errors.New("tuning: nil actuator")
)
