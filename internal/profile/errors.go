package profile

import "errors"

var (
	// ErrIndexOutOfRange is returned by direct profile lookups only; selection
	// never fails so that Disabled can be stored.
	ErrIndexOutOfRange = errors.New("profile: index out of range")

	// ErrNoProfiles indicates a store built with an empty profile list.
	ErrNoProfiles = errors.New("profile: at least one profile is required")

	// ErrNilProfile indicates a nil entry in the profile list.
	ErrNilProfile = errors.New("profile: nil profile")
)
