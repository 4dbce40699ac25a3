// Package device defines the collaborator contract between glstate and a
// stateful, OpenGL-style graphics device.
//
// glstate never talks to a graphics API directly. Everything it needs from
// the device is expressed by the [Device] interface:
//
//   - shader stage compilation and program linking,
//   - release of stage and program objects,
//   - binding a texture to a texture unit,
//   - making a program current,
//   - the number of texture units the device exposes,
//   - issuing a draw call.
//
// # Handles
//
// Device objects are referred to by opaque IDs ([TextureID], [StageID],
// [ProgramID]). IDs are uint64 to accommodate various backend handle sizes;
// the zero value [InvalidID] never names a live object. glstate only stores
// and compares IDs, it never creates or destroys textures.
//
//	+--------------------+
//	|  glstate.Context   |  texture unit cache, current program
//	+---------+----------+
//	          |
//	+---------v----------+
//	|   device.Device    |
//	+---------+----------+
//	          |
//	+---------+----------+--------------------+
//	|                    |                    |
//	backend/gl      backend/native     backend/software
//	(go-gl/gl)      (gogpu/wgpu HAL)   (in-memory recorder)
//
// # Thread Safety
//
// A Device models a single implicit "current context" bound to one thread.
// Implementations are not required to be safe for concurrent use and glstate
// never calls them from more than one goroutine at a time.
package device
