// Package software provides an in-memory device that records every call.
//
// The software device implements device.Device with reference semantics:
// it keeps real texture unit bindings and a current program, enforces the
// stage link rules of a GL 3.3 core driver, and counts how many times each
// stage and program handle is released. It is the mock collaborator used by
// the glstate test suites and the default backend of cmd/glstate-replay.
//
// Importing the package registers it as the "software" backend:
//
//	import _ "github.com/gogpu/glstate/backend/software"
//
// Shader sources are accepted as opaque text. A source containing a line
// starting with "#error" fails to compile with that line as the
// diagnostic. With [WithWGSLValidation] sources are parsed as WGSL by
// gogpu/naga instead.
//
// [Device.Foreign] returns a handle that changes bindings without going
// through glstate, the way an embedded third-party renderer would.
package software
