package glstate

import (
	"errors"

	"github.com/gogpu/glstate/internal/texbind"
)

// Context errors.
var (
	// ErrNilDevice is returned by New when the device is nil.
	ErrNilDevice = errors.New("glstate: device is nil")

	// ErrContextActive is returned by New when another live Context already
	// tracks the same device.
	ErrContextActive = errors.New("glstate: a context is already active for this device")

	// ErrInvalidTexture is returned by BindTexture for the InvalidID handle.
	ErrInvalidTexture = errors.New("glstate: invalid texture handle")

	// ErrCapacityExhausted is returned (wrapped) by BindTexture when the
	// Context has no texture unit to assign.
	ErrCapacityExhausted = texbind.ErrCapacityExhausted
)
