// Package shader manages the lifecycle of shader stage and program objects.
//
// A [Linker] drives one program build through a small state machine:
//
//	Empty --AttachStage--> StagesAttached --Link--> Linked
//	                                      \--Link--> LinkFailed (terminal)
//
// Compiling a stage that the device rejects returns a [*StageCompileError]
// and leaves the linker unchanged, so the caller can retry with corrected
// source:
//
//	l := shader.NewLinker(dev)
//	vs, err := l.AttachStage(vertexSrc, device.StageVertex)
//	fs, err := l.AttachStage(fragmentSrc, device.StageFragment)
//	prog, err := l.Link(vs, fs)
//	defer prog.Release()
//
// # Ownership
//
// Every [Stage] is released exactly once. Passing a stage to [Linker.Link]
// moves its ownership into Link, which resolves it to a single
// Device.ReleaseStage on every exit path: after a successful link (the
// device no longer needs linked stages), after a device link failure, and
// after an early validation failure. A stage that was already linked or
// released is rejected and never released a second time.
//
// A [Program] returned by Link belongs to the caller and must be released
// with [Program.Release]. Programs obtained from a [Cache] belong to the
// cache and are released when evicted.
//
// # Thread Safety
//
// Linker, Stage, Program and Cache are confined to the thread owning the
// device context and are not safe for concurrent use.
package shader
