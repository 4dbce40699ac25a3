// Package glstate tracks device binding state and GPU object lifetimes for
// a stateful OpenGL-style device.
//
// # Overview
//
// A stateful graphics device has global binding points: a fixed array of
// texture units and a single current program. Every redundant bind costs a
// driver call, and a bind cache that drifts from the real device state
// produces wrong draws. glstate sits between rendering code and the device
// and keeps that state for it:
//
//   - [Context.BindTexture] assigns textures to units with an LRU policy
//     and only calls the device when the texture is not already resident.
//   - [Context.UseProgram] skips program switches to the current program.
//   - [Context.Reset] drops all tracked state after foreign code touched
//     the device.
//
// Program objects are built with the shader package and passes are run in
// order with the pipeline package.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/glstate"
//		"github.com/gogpu/glstate/backend/software"
//		"github.com/gogpu/glstate/device"
//	)
//
//	ctx, err := glstate.New(software.New())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ctx.Release()
//
//	linker, _ := ctx.NewLinker()
//	vs, _ := linker.AttachStage(vertexSrc, device.StageVertex)
//	fs, _ := linker.AttachStage(fragmentSrc, device.StageFragment)
//	prog, err := linker.Link(vs, fs)
//
//	ctx.UseProgram(prog.ID())
//	unit, err := ctx.BindTexture(tex)
//
// # Architecture
//
// The module is organized into:
//   - Public API: Context (this package), shader, pipeline, device
//   - Internal: texunit (slot table), texbind (reverse index and LRU)
//   - Backends: gl (go-gl), native (gogpu/wgpu HAL), software (recorder)
//
// # Thread Safety
//
// A Context is confined to the thread that owns the device context and is
// not safe for concurrent use. At most one live Context exists per device.
// The package logger and the live-context registry are safe for concurrent
// use.
package glstate

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
