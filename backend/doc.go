// Package backend provides a registry of device backends.
//
// Each backend package registers a factory from its init() function and is
// selected at runtime by name or by priority:
//
//	import _ "github.com/gogpu/glstate/backend/software"
//
//	// Open the best available device
//	dev, name, err := backend.Default()
//
//	// Or request a specific backend
//	dev, err := backend.Get(backend.BackendSoftware)
//
// # Available Backends
//
//   - "gl": OpenGL 3.3 core via go-gl/gl (needs a current GL context)
//   - "native": Pure Go WebGPU HAL via gogpu/wgpu
//   - "software": in-memory recording device (always available)
package backend
