package optim

import "errors"

var (
	ErrUnknownParam  = errors.New("optim: unknown gain parameter")
	ErrEmptyAxis     = errors.New("optim: axis has no values")
	ErrUnknownMetric = errors.New("optim: metric not produced by run")
	ErrNoCandidate   = errors.New("optim: no candidate produced a finite cost")
)
