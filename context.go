package glstate

import (
	"fmt"

	"github.com/gogpu/glstate/device"
	"github.com/gogpu/glstate/internal/texbind"
	"github.com/gogpu/glstate/internal/texunit"
	"github.com/gogpu/glstate/shader"
)

// Stats holds Context counters. Counters only grow; Reset does not clear them.
type Stats struct {
	// Binds is the number of BindTextureUnit calls issued to the device.
	Binds uint64

	// BindHits is the number of BindTexture calls served from the cache.
	BindHits uint64

	// Evictions is the number of binds that displaced a resident texture.
	Evictions uint64

	// StaleEntries is the number of cache entries found inconsistent with
	// the unit table and discarded.
	StaleEntries uint64

	// ProgramSwitches is the number of UseProgram calls issued to the device.
	ProgramSwitches uint64

	// ProgramHits is the number of UseProgram calls skipped because the
	// program was already current.
	ProgramHits uint64

	// Resets is the number of Reset calls.
	Resets uint64
}

// Context is the shadow of a device's binding points.
//
// Context records which texture sits in which unit and which program is
// current, and uses that record to skip redundant device calls. The record
// is only correct while all binding changes go through the Context; see
// Reset for what to do when they do not.
//
// Context is not safe for concurrent use.
type Context struct {
	dev   device.Device
	table *texunit.Table
	binds *texbind.Cache

	program      device.ProgramID
	programKnown bool

	reserved int
	stats    Stats
}

// New creates the Context of dev.
//
// The number of usable texture units is Device.MaxTextureUnits, capped by
// WithMaxTextureUnits; units reserved with WithReservedUnits are excluded.
// It returns ErrContextActive if dev already has a live Context; Release
// frees the slot.
func New(dev device.Device, opts ...Option) (*Context, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	units := dev.MaxTextureUnits()
	if o.maxUnits >= 0 && o.maxUnits < units {
		units = o.maxUnits
	}
	reserved := min(o.reserved, units)

	table := texunit.NewWithBase(units-reserved, device.TextureUnit(reserved))
	c := &Context{
		dev:      dev,
		table:    table,
		binds:    texbind.New(table),
		reserved: reserved,
	}
	if err := acquire(dev, c); err != nil {
		return nil, err
	}

	propagateLogger(dev, Logger())
	Logger().Info("glstate: context created",
		"units", table.Capacity(), "reserved", reserved, "device_units", dev.MaxTextureUnits())
	return c, nil
}

// Device returns the tracked device.
func (c *Context) Device() device.Device {
	return c.dev
}

// Capacity returns the number of texture units the Context assigns.
func (c *Context) Capacity() int {
	return c.table.Capacity()
}

// ReservedUnits returns the number of low units left to foreign code.
func (c *Context) ReservedUnits() int {
	return c.reserved
}

// BindTexture makes tex available to shaders and returns its texture unit.
//
// If tex is already resident in a unit, that unit is returned without a
// device call. Otherwise the first empty unit, or the least recently used
// one, is bound to tex. InvalidID returns ErrInvalidTexture. A Context
// without usable units returns an error wrapping ErrCapacityExhausted.
func (c *Context) BindTexture(tex device.TextureID) (device.TextureUnit, error) {
	if tex == device.InvalidID {
		return device.NoUnit, ErrInvalidTexture
	}

	res, err := c.binds.Resolve(tex)
	if err != nil {
		return device.NoUnit, fmt.Errorf("glstate: bind texture %d: %w", tex, err)
	}
	if res.Stale {
		c.stats.StaleEntries++
		Logger().Warn("glstate: stale bind cache entry discarded", "texture", uint64(tex))
	}
	if !res.BindRequired {
		c.stats.BindHits++
		return res.Unit, nil
	}

	if res.Evicted != device.InvalidID {
		c.stats.Evictions++
		Logger().Debug("glstate: texture evicted",
			"unit", int(res.Unit), "evicted", uint64(res.Evicted), "texture", uint64(tex))
	}
	c.dev.BindTextureUnit(res.Unit, tex)
	c.stats.Binds++
	return res.Unit, nil
}

// BoundUnit returns the unit tex is tracked in, without binding anything.
func (c *Context) BoundUnit(tex device.TextureID) (device.TextureUnit, bool) {
	return c.binds.Lookup(tex)
}

// UseProgram makes id the current program.
//
// The device is only called when id differs from the tracked current
// program, or when the current program is unknown (after New or Reset).
// InvalidID unbinds the current program.
func (c *Context) UseProgram(id device.ProgramID) {
	if c.programKnown && c.program == id {
		c.stats.ProgramHits++
		return
	}
	c.dev.UseProgram(id)
	c.program = id
	c.programKnown = true
	c.stats.ProgramSwitches++
	Logger().Debug("glstate: program switched", "program", uint64(id))
}

// CurrentProgram returns the tracked current program. The second result is
// false when the current program is unknown.
func (c *Context) CurrentProgram() (device.ProgramID, bool) {
	return c.program, c.programKnown
}

// Reset forgets every tracked binding: all texture units become empty, the
// texture-to-unit map is cleared and the current program becomes unknown.
// No device call is made and Reset never fails.
//
// Reset is the escape hatch for code that changes device bindings without
// going through the Context, such as an embedded third-party renderer.
// After such code ran, cached decisions may be wrong; Reset restores
// correctness at the cost of rebinding everything on next use.
//
// Reset is unsafe: it must be called on the thread that owns the device
// context, with no draw in flight that relies on the tracked bindings.
// Calling it at any other time leaves the tracked state meaningless.
func (c *Context) Reset() {
	c.binds.Reset()
	c.program = device.InvalidID
	c.programKnown = false
	c.stats.Resets++
	Logger().Debug("glstate: state reset")
}

// ForgetTexture drops tex from the bind cache and frees its unit. Call it
// before destroying the texture object: devices may reuse the handle for
// a new texture, which must then be bound again.
func (c *Context) ForgetTexture(tex device.TextureID) bool {
	_, ok := c.binds.Forget(tex)
	return ok
}

// DeleteProgram releases p. If p is the tracked current program, the
// current program becomes unknown so that a later program reusing the same
// handle is bound again.
func (c *Context) DeleteProgram(p *shader.Program) {
	if p == nil || p.Released() {
		return
	}
	c.forgetProgram(p.ID())
	p.Release()
}

func (c *Context) forgetProgram(id device.ProgramID) {
	if c.programKnown && c.program == id {
		c.program = device.InvalidID
		c.programKnown = false
	}
}

// NewLinker returns a shader linker for the Context's device.
func (c *Context) NewLinker() (*shader.Linker, error) {
	return shader.NewLinker(c.dev)
}

// NewProgramCache returns a program cache of the given size for the
// Context's device. Programs evicted from the cache are scrubbed from the
// tracked state before they are released.
//
// The cache owns its programs. A *shader.Program obtained from it is only
// valid until the cache evicts it, Remove drops it or Purge runs; a
// pipeline.Pass still holding it afterwards fails with
// pipeline.ErrMissingProgram when run. Build passes from the cache right
// before running them, or size the cache to hold every program in use.
func (c *Context) NewProgramCache(size int) (*shader.Cache, error) {
	cache, err := shader.NewCache(c.dev, size)
	if err != nil {
		return nil, err
	}
	cache.SetOnEvict(func(p *shader.Program) {
		c.forgetProgram(p.ID())
	})
	return cache, nil
}

// Stats returns a snapshot of the Context counters.
func (c *Context) Stats() Stats {
	return c.stats
}

// Release frees the device slot so that a new Context may be created for
// the device. It makes no device call and does not release programs.
// The Context must not be used afterwards.
func (c *Context) Release() {
	release(c.dev, c)
	Logger().Info("glstate: context released")
}
