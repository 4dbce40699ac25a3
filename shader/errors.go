package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/glstate/device"
)

// Linker errors.
var (
	// ErrNilDevice is returned when a linker or cache is created without a device.
	ErrNilDevice = errors.New("shader: device is nil")

	// ErrLinkerClosed is returned when a linker that already linked, failed
	// or was closed is used again.
	ErrLinkerClosed = errors.New("shader: linker is closed")

	// ErrNoStages is returned by Link when there is nothing to link.
	ErrNoStages = errors.New("shader: no stages to link")

	// ErrNilStage is returned by Link when a nil stage is passed.
	ErrNilStage = errors.New("shader: nil stage")

	// ErrStageConsumed is returned by Link when a stage was already linked
	// or released.
	ErrStageConsumed = errors.New("shader: stage already linked or released")

	// ErrForeignStage is returned by Link when a stage was compiled on a
	// different device than the linker's.
	ErrForeignStage = errors.New("shader: stage belongs to another device")

	// ErrInvalidStageKind is returned by AttachStage for an unknown kind.
	ErrInvalidStageKind = errors.New("shader: invalid stage kind")
)

// StageCompileError reports a shader stage the device refused to compile.
// The linker state is unchanged; the caller may retry with corrected source.
type StageCompileError struct {
	// Kind is the stage kind that failed.
	Kind device.StageKind

	// Diagnostic is the compiler log.
	Diagnostic string

	// Err is the error returned by the device.
	Err error
}

// Error implements the error interface.
func (e *StageCompileError) Error() string {
	return fmt.Sprintf("shader: %s stage failed to compile: %s", e.Kind, e.Diagnostic)
}

// Unwrap returns the device error.
func (e *StageCompileError) Unwrap() error {
	return e.Err
}

// LinkError reports a program the device refused to link. Every stage
// passed to Link has been released by the time it is returned.
type LinkError struct {
	// Diagnostic is the linker log.
	Diagnostic string

	// Err is the error returned by the device.
	Err error
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	return "shader: program failed to link: " + e.Diagnostic
}

// Unwrap returns the device error.
func (e *LinkError) Unwrap() error {
	return e.Err
}

// diagnosticOf extracts the compiler or linker log from a device error.
func diagnosticOf(err error) string {
	var d *device.Diagnostic
	if errors.As(err, &d) {
		return d.Error()
	}
	return err.Error()
}
