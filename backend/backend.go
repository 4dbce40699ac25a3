package backend

import (
	"errors"

	"github.com/gogpu/glstate/device"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoBackend is returned by Default when no backend could open a device.
	ErrNoBackend = errors.New("backend: no backend available")
)

// Backend name constants.
const (
	// BackendGL is the name of the OpenGL 3.3 core backend (go-gl/gl).
	BackendGL = "gl"
	// BackendNative is the name of the Pure Go WebGPU HAL backend (gogpu/wgpu).
	BackendNative = "native"
	// BackendSoftware is the name of the in-memory recording backend.
	BackendSoftware = "software"
)

// Factory opens a new device.
//
// A factory may fail when its platform requirement is missing (no current
// GL context, no GPU adapter). Default then moves on to the next backend.
type Factory func() (device.Device, error)
