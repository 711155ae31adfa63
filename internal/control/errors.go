package control

import "errors"

var (
	// ErrUnknownParam indicates a SetParam name the controller does not expose.
	ErrUnknownParam = errors.New("control: unknown parameter")

	// ErrNilFeedback indicates a nil feedback supplier.
	ErrNilFeedback = errors.New("control: nil feedback supplier")
)
