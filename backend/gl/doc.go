// Package gl implements device.Device on OpenGL 3.3 core through go-gl.
//
// Every method must be called on the thread that owns a current GL context,
// typically the main thread locked with runtime.LockOSThread. The package
// is excluded from builds without cgo or with the nogl build tag.
//
// The backend is not registered on import because opening it requires a
// current context. Call [Register] once a context is current:
//
//	window.MakeContextCurrent()
//	gl.Register()
//	dev, err := backend.Get(backend.BackendGL)
//
// Stage kinds map to GL shader types. Tessellation and compute stages need
// GL 4.x; on a 3.3 context CompileStage reports them as unsupported.
package gl
