package pipeline

import (
	"errors"
	"fmt"

	"github.com/gogpu/glstate"
	"github.com/gogpu/glstate/device"
	"github.com/gogpu/glstate/shader"
)

// Pass validation errors, reported as PassError causes.
var (
	// ErrMissingProgram is the cause when a pass has no live program.
	ErrMissingProgram = errors.New("pipeline: pass has no program")

	// ErrMissingTexture is the cause when a pass lists an invalid texture.
	ErrMissingTexture = errors.New("pipeline: pass references an invalid texture")

	// ErrNilContext is returned by Run on an executor without a context.
	ErrNilContext = errors.New("pipeline: executor has no context")
)

// TextureBinding assigns a texture to a sampler uniform of the pass program.
type TextureBinding struct {
	// Sampler is the sampler uniform name.
	Sampler string

	// Texture is the texture to sample.
	Texture device.TextureID
}

// Pass is one render pass: a program, its textures and a draw call.
type Pass struct {
	// Label names the pass in errors and logs.
	Label string

	// Program is the program the pass draws with.
	Program *shader.Program

	// Textures are bound in order before the draw.
	Textures []TextureBinding

	// Draw describes the draw. Its Samplers field is filled in by the
	// executor from Textures; entries already present are kept first.
	// A pass may list at most Context.Capacity distinct textures.
	Draw device.DrawCall
}

// PassError reports the first pass that failed.
type PassError struct {
	// Index is the position of the failed pass in the slice given to Run.
	Index int

	// Label is the label of the failed pass.
	Label string

	// Cause is the underlying failure.
	Cause error
}

// Error implements the error interface.
func (e *PassError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("pipeline: pass %d (%s): %v", e.Index, e.Label, e.Cause)
	}
	return fmt.Sprintf("pipeline: pass %d: %v", e.Index, e.Cause)
}

// Unwrap returns the cause.
func (e *PassError) Unwrap() error {
	return e.Cause
}

// Executor runs passes on a Context.
type Executor struct {
	ctx *glstate.Context
}

// New creates an executor for ctx.
func New(ctx *glstate.Context) *Executor {
	return &Executor{ctx: ctx}
}

// Run executes passes in order and stops at the first failure.
//
// It returns nil when every pass ran, or a *PassError for the first pass
// that failed. Earlier passes are not rolled back and the failed pass is
// not retried. An empty pass list is a no-op.
func (e *Executor) Run(passes []Pass) error {
	if e.ctx == nil {
		return ErrNilContext
	}
	for i := range passes {
		if err := e.runPass(&passes[i]); err != nil {
			glstate.Logger().Warn("pipeline: pass failed", "index", i, "label", passes[i].Label, "err", err)
			return &PassError{Index: i, Label: passes[i].Label, Cause: err}
		}
	}
	return nil
}

func (e *Executor) runPass(p *Pass) error {
	if p.Program == nil || p.Program.Released() {
		return ErrMissingProgram
	}
	e.ctx.UseProgram(p.Program.ID())

	distinct := make(map[device.TextureID]struct{}, len(p.Textures))
	for _, tb := range p.Textures {
		if tb.Texture == device.InvalidID {
			return fmt.Errorf("%w: sampler %q", ErrMissingTexture, tb.Sampler)
		}
		distinct[tb.Texture] = struct{}{}
	}
	// Binding more distinct textures than there are units would evict a
	// texture an earlier sampler of the same pass already reads.
	if n, capacity := len(distinct), e.ctx.Capacity(); n > capacity {
		return fmt.Errorf("%d textures for %d units: %w", n, capacity, glstate.ErrCapacityExhausted)
	}

	call := p.Draw
	call.Samplers = make([]device.SamplerBinding, 0, len(p.Draw.Samplers)+len(p.Textures))
	call.Samplers = append(call.Samplers, p.Draw.Samplers...)
	for _, tb := range p.Textures {
		unit, err := e.ctx.BindTexture(tb.Texture)
		if err != nil {
			return fmt.Errorf("bind %q: %w", tb.Sampler, err)
		}
		call.Samplers = append(call.Samplers, device.SamplerBinding{Name: tb.Sampler, Unit: unit, Texture: tb.Texture})
	}

	if err := e.ctx.Device().Draw(call); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	glstate.Logger().Debug("pipeline: pass done", "label", p.Label, "textures", len(p.Textures))
	return nil
}
