package glstate

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/glstate/backend/software"
	"github.com/gogpu/glstate/device"
	"github.com/gogpu/glstate/shader"
)

const (
	vertexSrc   = "void main() { gl_Position = vec4(0.0); }"
	fragmentSrc = "uniform sampler2D tex; out vec4 color; void main() { color = texture(tex, vec2(0.0)); }"
)

func newContext(t *testing.T, units int, opts ...Option) (*Context, *software.Device) {
	t.Helper()
	dev := software.New(software.WithMaxTextureUnits(units))
	ctx, err := New(dev, opts...)
	require.NoError(t, err)
	t.Cleanup(ctx.Release)
	return ctx, dev
}

func linkProgram(t *testing.T, ctx *Context) *shader.Program {
	t.Helper()
	l, err := ctx.NewLinker()
	require.NoError(t, err)
	vs, err := l.AttachStage(vertexSrc, device.StageVertex)
	require.NoError(t, err)
	fs, err := l.AttachStage(fragmentSrc, device.StageFragment)
	require.NoError(t, err)
	p, err := l.Link(vs, fs)
	require.NoError(t, err)
	return p
}

func TestNewNilDevice(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNilDevice)
}

func TestNewOneContextPerDevice(t *testing.T) {
	dev := software.New()
	first, err := New(dev)
	require.NoError(t, err)
	assert.Same(t, first, Active(dev))

	_, err = New(dev)
	require.ErrorIs(t, err, ErrContextActive)

	// A different device is independent.
	other, err := New(software.New())
	require.NoError(t, err)
	other.Release()

	first.Release()
	assert.Nil(t, Active(dev))

	second, err := New(dev)
	require.NoError(t, err)
	second.Release()
	// Releasing a stale context does not free the slot of a newer one.
	third, err := New(dev)
	require.NoError(t, err)
	first.Release()
	assert.Same(t, third, Active(dev))
	third.Release()
}

func TestBindTextureHitSkipsDevice(t *testing.T) {
	ctx, dev := newContext(t, 4)

	u1, err := ctx.BindTexture(10)
	require.NoError(t, err)
	u2, err := ctx.BindTexture(10)
	require.NoError(t, err)

	assert.Equal(t, u1, u2)
	assert.Equal(t, 1, dev.CountCalls(software.CallBindTextureUnit))
	assert.Equal(t, device.TextureID(10), dev.BoundTexture(u1))

	stats := ctx.Stats()
	assert.Equal(t, uint64(1), stats.Binds)
	assert.Equal(t, uint64(1), stats.BindHits)
}

func TestBindTextureEvictsLeastRecentlyUsed(t *testing.T) {
	const a, b, c device.TextureID = 1, 2, 3
	ctx, dev := newContext(t, 8, WithMaxTextureUnits(2))

	for _, tex := range []device.TextureID{a, b, a} {
		_, err := ctx.BindTexture(tex)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, dev.CountCalls(software.CallBindTextureUnit))
	unitB, ok := ctx.BoundUnit(b)
	require.True(t, ok)

	unitC, err := ctx.BindTexture(c)
	require.NoError(t, err)
	assert.Equal(t, unitB, unitC, "C must take B's unit")
	assert.Equal(t, 3, dev.CountCalls(software.CallBindTextureUnit))
	assert.Equal(t, uint64(1), ctx.Stats().Evictions)

	_, ok = ctx.BoundUnit(a)
	assert.True(t, ok)
	_, ok = ctx.BoundUnit(b)
	assert.False(t, ok)
}

func TestBindTextureZeroCapacity(t *testing.T) {
	ctx, dev := newContext(t, 8, WithMaxTextureUnits(0))

	unit, err := ctx.BindTexture(1)
	require.ErrorIs(t, err, ErrCapacityExhausted)
	assert.Equal(t, device.NoUnit, unit)
	assert.Empty(t, dev.Calls())
}

func TestBindTextureInvalid(t *testing.T) {
	ctx, dev := newContext(t, 4)
	_, err := ctx.BindTexture(device.InvalidID)
	require.ErrorIs(t, err, ErrInvalidTexture)
	assert.Empty(t, dev.Calls())
}

func TestBindTextureMatchesDevice(t *testing.T) {
	ctx, dev := newContext(t, 4)
	rng := rand.New(rand.NewPCG(3, 5))

	for n := 0; n < 500; n++ {
		tex := device.TextureID(1 + rng.IntN(10))
		unit, err := ctx.BindTexture(tex)
		require.NoError(t, err)
		require.Equal(t, tex, dev.BoundTexture(unit), "request %d", n)
	}
}

func TestReservedUnitsNeverAssigned(t *testing.T) {
	ctx, dev := newContext(t, 6, WithReservedUnits(2))

	for tex := device.TextureID(1); tex <= 20; tex++ {
		unit, err := ctx.BindTexture(tex)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, int(unit), 2)
	}
	for _, c := range dev.Calls() {
		assert.GreaterOrEqual(t, int(c.Unit), 2, "call %s", c)
	}
}

func TestUseProgramSkipsCurrent(t *testing.T) {
	ctx, dev := newContext(t, 4)
	p := linkProgram(t, ctx)
	defer ctx.DeleteProgram(p)

	ctx.UseProgram(p.ID())
	ctx.UseProgram(p.ID())
	assert.Equal(t, 1, dev.CountCalls(software.CallUseProgram))

	ctx.UseProgram(device.InvalidID)
	ctx.UseProgram(p.ID())
	assert.Equal(t, 3, dev.CountCalls(software.CallUseProgram))

	id, known := ctx.CurrentProgram()
	assert.True(t, known)
	assert.Equal(t, p.ID(), id)

	stats := ctx.Stats()
	assert.Equal(t, uint64(3), stats.ProgramSwitches)
	assert.Equal(t, uint64(1), stats.ProgramHits)
}

func TestResetMakesNoDeviceCalls(t *testing.T) {
	ctx, dev := newContext(t, 4)
	p := linkProgram(t, ctx)
	defer ctx.DeleteProgram(p)
	ctx.UseProgram(p.ID())
	_, err := ctx.BindTexture(1)
	require.NoError(t, err)

	before := len(dev.Calls())
	ctx.Reset()
	ctx.Reset()
	assert.Len(t, dev.Calls(), before)

	_, known := ctx.CurrentProgram()
	assert.False(t, known)
	_, ok := ctx.BoundUnit(1)
	assert.False(t, ok)
	assert.Equal(t, uint64(2), ctx.Stats().Resets)
}

func TestUseProgramAfterResetReachesDevice(t *testing.T) {
	ctx, dev := newContext(t, 4)
	p := linkProgram(t, ctx)
	defer ctx.DeleteProgram(p)

	ctx.UseProgram(p.ID())
	ctx.Reset()
	ctx.UseProgram(p.ID())
	assert.Equal(t, 2, dev.CountCalls(software.CallUseProgram))
}

// Foreign code rebinds a unit the context believes it owns. Without Reset
// the context serves a stale hit; after Reset the next bind is issued and
// the device state is correct again.
func TestResetRecoversFromForeignBinds(t *testing.T) {
	ctx, dev := newContext(t, 4)
	p := linkProgram(t, ctx)
	defer ctx.DeleteProgram(p)

	ctx.UseProgram(p.ID())
	unit, err := ctx.BindTexture(1)
	require.NoError(t, err)

	dev.Foreign().BindTextureUnit(unit, 99)
	dev.Foreign().UseProgram(device.InvalidID)

	stale, err := ctx.BindTexture(1)
	require.NoError(t, err)
	assert.Equal(t, unit, stale)
	assert.Equal(t, device.TextureID(99), dev.BoundTexture(unit), "cache cannot see foreign binds")

	ctx.Reset()

	unit, err = ctx.BindTexture(1)
	require.NoError(t, err)
	assert.Equal(t, device.TextureID(1), dev.BoundTexture(unit))
	ctx.UseProgram(p.ID())
	assert.Equal(t, p.ID(), dev.CurrentProgram())
}

func TestForgetTexture(t *testing.T) {
	ctx, dev := newContext(t, 2)
	_, _ = ctx.BindTexture(1)
	_, _ = ctx.BindTexture(2)

	assert.True(t, ctx.ForgetTexture(1))
	assert.False(t, ctx.ForgetTexture(1))

	// Texture 3 takes the freed unit; texture 2 stays resident.
	_, err := ctx.BindTexture(3)
	require.NoError(t, err)
	_, ok := ctx.BoundUnit(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), ctx.Stats().Evictions)

	// Re-binding 1 now requires a device call.
	_, err = ctx.BindTexture(1)
	require.NoError(t, err)
	assert.Equal(t, 4, dev.CountCalls(software.CallBindTextureUnit))
}

func TestDeleteProgramScrubsCurrent(t *testing.T) {
	ctx, dev := newContext(t, 4)
	p := linkProgram(t, ctx)
	id := p.ID()

	ctx.UseProgram(id)
	ctx.DeleteProgram(p)
	ctx.DeleteProgram(p)
	assert.Equal(t, 1, dev.ProgramReleases(id))

	_, known := ctx.CurrentProgram()
	assert.False(t, known)

	// Unrelated programs are not affected.
	q := linkProgram(t, ctx)
	r := linkProgram(t, ctx)
	ctx.UseProgram(q.ID())
	ctx.DeleteProgram(r)
	cur, known := ctx.CurrentProgram()
	assert.True(t, known)
	assert.Equal(t, q.ID(), cur)
	ctx.DeleteProgram(q)
	ctx.DeleteProgram(nil)
}

func TestProgramCacheEvictionScrubsCurrent(t *testing.T) {
	ctx, dev := newContext(t, 4)
	cache, err := ctx.NewProgramCache(1)
	require.NoError(t, err)

	srcA := []shader.Source{{Kind: device.StageVertex, Code: vertexSrc}, {Kind: device.StageFragment, Code: fragmentSrc}}
	srcB := []shader.Source{{Kind: device.StageVertex, Code: vertexSrc + " "}, {Kind: device.StageFragment, Code: fragmentSrc}}

	a, err := cache.Program(srcA...)
	require.NoError(t, err)
	ctx.UseProgram(a.ID())
	idA := a.ID()

	_, err = cache.Program(srcB...)
	require.NoError(t, err)
	assert.True(t, a.Released())
	assert.Equal(t, 1, dev.ProgramReleases(idA))

	_, known := ctx.CurrentProgram()
	assert.False(t, known, "evicted current program must be forgotten")

	cache.Purge()
	assert.Equal(t, 0, dev.LivePrograms())

	_, err = ctx.NewProgramCache(0)
	require.Error(t, err)
}

func TestContextAccessors(t *testing.T) {
	ctx, dev := newContext(t, 8, WithReservedUnits(1))
	assert.Same(t, dev, ctx.Device())
	assert.Equal(t, 7, ctx.Capacity())
	assert.Equal(t, 1, ctx.ReservedUnits())
}
