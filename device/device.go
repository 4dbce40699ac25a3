package device

// Device abstracts over a stateful graphics device with global binding
// points: a texture unit array and a single current program.
//
// This interface is the narrow contract glstate consumes. Implementations
// live in backend/gl (OpenGL 3.3 core), backend/native (gogpu/wgpu HAL) and
// backend/software (in-memory recorder used by tests and tooling).
//
// Object lifecycle:
//   - Stages are created by CompileStage and must be released exactly once
//     via ReleaseStage, whether or not they were linked.
//   - Programs are created by LinkProgram and must be released exactly once
//     via ReleaseProgram.
//   - Textures belong to the application; the device only binds them.
//   - Releasing an object while it is in use by a draw is undefined behavior.
type Device interface {
	// === Shader objects ===

	// CompileStage compiles a single shader stage.
	//
	// On failure the device releases any partial object itself and returns
	// a *Diagnostic carrying the compiler log.
	CompileStage(source string, kind StageKind) (StageID, error)

	// LinkProgram links the given compiled stages into a program.
	//
	// The stages stay alive; the caller releases them afterwards. On failure
	// the device releases the partial program itself and returns a
	// *Diagnostic carrying the linker log.
	LinkProgram(stages []StageID) (ProgramID, error)

	// ReleaseStage destroys a compiled stage.
	ReleaseStage(id StageID)

	// ReleaseProgram destroys a linked program.
	ReleaseProgram(id ProgramID)

	// === Binding points ===

	// BindTextureUnit binds tex to the given texture unit.
	BindTextureUnit(unit TextureUnit, tex TextureID)

	// UseProgram makes id the current program. InvalidID unbinds.
	UseProgram(id ProgramID)

	// MaxTextureUnits returns the number of texture units usable by a draw.
	MaxTextureUnits() int

	// === Drawing ===

	// Draw issues a draw call with the current program and texture units.
	Draw(call DrawCall) error
}

// TextureAllocator is implemented by devices that can create textures for
// tools and tests. Rendering code normally owns its textures and only hands
// their IDs to glstate.
type TextureAllocator interface {
	// CreateTexture creates an RGBA texture of the given size without
	// changing any binding point.
	CreateTexture(width, height int) (TextureID, error)

	// DestroyTexture destroys a texture created by CreateTexture.
	DestroyTexture(id TextureID)
}
