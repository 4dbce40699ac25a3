package glfwsurface

import (
	"errors"
	"fmt"
)

// Window creation errors.
var (
	// ErrWindowCreationFailed is returned when GLFW cannot create the window.
	ErrWindowCreationFailed = errors.New("glfwsurface: failed to create window")

	// ErrNoPrimaryMonitor is returned by fullscreen modes without a monitor.
	ErrNoPrimaryMonitor = errors.New("glfwsurface: no primary monitor")

	// ErrNoVideoMode is returned when the primary monitor reports no video
	// mode.
	ErrNoVideoMode = errors.New("glfwsurface: no video mode")
)

// InitError is returned when GLFW fails to initialize.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("glfwsurface: initialization error: %v", e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// GraphicsStateError is returned when the GL device or the glstate.Context
// cannot be created, typically because the device already has a live
// context (glstate.ErrContextActive).
type GraphicsStateError struct {
	Err error
}

func (e *GraphicsStateError) Error() string {
	return fmt.Sprintf("glfwsurface: failed to get graphics state: %v", e.Err)
}

func (e *GraphicsStateError) Unwrap() error {
	return e.Err
}
