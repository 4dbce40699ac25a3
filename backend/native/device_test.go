//go:build !nogpu

package native

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/glstate/backend"
	"github.com/gogpu/glstate/device"
)

const shaderWGSL = `@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    let x = f32(idx) - 1.0;
    return vec4<f32>(x, 0.0, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

// createNoopHAL opens a noop HAL device for tests.
func createNoopHAL(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	require.NoError(t, err)
	adapters := instance.EnumerateAdapters(nil)
	require.NotEmpty(t, adapters)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	require.NoError(t, err)
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func newTestDevice(t *testing.T, opts ...Option) *Device {
	t.Helper()
	dev, queue := createNoopHAL(t)
	d, err := New(dev, queue, opts...)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func linkTestProgram(t *testing.T, d *Device) device.ProgramID {
	t.Helper()
	vs, err := d.CompileStage(shaderWGSL, device.StageVertex)
	require.NoError(t, err)
	fs, err := d.CompileStage(shaderWGSL, device.StageFragment)
	require.NoError(t, err)
	prog, err := d.LinkProgram([]device.StageID{vs, fs})
	require.NoError(t, err)
	d.ReleaseStage(vs)
	d.ReleaseStage(fs)
	return prog
}

func TestRegistered(t *testing.T) {
	assert.True(t, backend.IsRegistered(backend.BackendNative))
}

func TestNewRejectsNil(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestMaxTextureUnits(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want int
	}{
		{"default", nil, int(gputypes.DefaultLimits().MaxSampledTexturesPerShaderStage)},
		{"smaller", []Option{WithMaxTextureUnits(4)}, 4},
		{"clamped to limit", []Option{WithMaxTextureUnits(1 << 20)}, int(gputypes.DefaultLimits().MaxSampledTexturesPerShaderStage)},
		{"negative", []Option{WithMaxTextureUnits(-1)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDevice(t, tt.opts...)
			assert.Equal(t, tt.want, d.MaxTextureUnits())
		})
	}
}

func TestCompileStageDiagnostics(t *testing.T) {
	d := newTestDevice(t)

	tests := []struct {
		name   string
		source string
		kind   device.StageKind
	}{
		{"invalid kind", shaderWGSL, device.StageKind(99)},
		{"geometry", shaderWGSL, device.StageGeometry},
		{"tessellation", shaderWGSL, device.StageTessControl},
		{"empty", "  \n", device.StageVertex},
		{"missing entry point", "@fragment fn main() -> @location(0) vec4<f32> { return vec4<f32>(0.0); }", device.StageFragment},
		{"syntax error", "fn fs_main( {", device.StageFragment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := d.CompileStage(tt.source, tt.kind)
			var diag *device.Diagnostic
			require.ErrorAs(t, err, &diag)
			assert.NotEmpty(t, diag.Log)
			assert.Equal(t, device.StageID(device.InvalidID), id)
		})
	}
	assert.Equal(t, 0, d.LiveStages())
}

func TestLinkProgram(t *testing.T) {
	d := newTestDevice(t)
	prog := linkTestProgram(t, d)

	assert.NotEqual(t, device.ProgramID(device.InvalidID), prog)
	assert.Equal(t, 0, d.LiveStages())
	assert.Equal(t, 1, d.LivePrograms())
}

func TestLinkRules(t *testing.T) {
	d := newTestDevice(t)
	vs, err := d.CompileStage(shaderWGSL, device.StageVertex)
	require.NoError(t, err)
	fs, err := d.CompileStage(shaderWGSL, device.StageFragment)
	require.NoError(t, err)

	tests := []struct {
		name   string
		stages []device.StageID
	}{
		{"vertex only", []device.StageID{vs}},
		{"fragment only", []device.StageID{fs}},
		{"duplicate vertex", []device.StageID{vs, vs, fs}},
		{"unknown stage", []device.StageID{vs, 999}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.LinkProgram(tt.stages)
			var diag *device.Diagnostic
			require.ErrorAs(t, err, &diag)
		})
	}
	assert.Equal(t, 0, d.LivePrograms())
	assert.Equal(t, 2, d.LiveStages(), "failed links must not consume stages")
}

func TestReleaseUnknownIsHarmless(t *testing.T) {
	d := newTestDevice(t)
	d.ReleaseStage(42)
	d.ReleaseProgram(42)
	d.DestroyTexture(42)
}

func TestDraw(t *testing.T) {
	d := newTestDevice(t, WithMaxTextureUnits(16))
	prog := linkTestProgram(t, d)
	tex, err := d.CreateTexture(4, 4)
	require.NoError(t, err)

	call := device.DrawCall{
		Count:    3,
		Samplers: []device.SamplerBinding{{Name: "t_unit0", Unit: 0}},
	}

	err = d.Draw(call)
	require.ErrorIs(t, err, ErrNoProgram)

	d.UseProgram(prog)
	err = d.Draw(call)
	require.ErrorIs(t, err, ErrUnboundSampler)

	d.BindTextureUnit(0, tex)
	require.NoError(t, d.Draw(call))
	assert.Equal(t, 1, d.Draws())

	for prim := range topologies {
		require.NoError(t, d.Draw(device.DrawCall{Primitive: prim, Count: 3, Instances: 2}))
	}

	err = d.Draw(device.DrawCall{Count: 3, Samplers: []device.SamplerBinding{{Name: "t", Unit: 16}}})
	require.ErrorIs(t, err, ErrUnitOutOfRange)

	err = d.Draw(device.DrawCall{Count: 3, Samplers: []device.SamplerBinding{{Name: "t", Unit: 0, Texture: tex + 1}}})
	require.ErrorIs(t, err, ErrWrongTexture)
	require.NoError(t, d.Draw(device.DrawCall{Count: 3, Samplers: []device.SamplerBinding{{Name: "t", Unit: 0, Texture: tex}}}))
}

func TestReleaseCurrentProgram(t *testing.T) {
	d := newTestDevice(t)
	prog := linkTestProgram(t, d)
	d.UseProgram(prog)

	d.ReleaseProgram(prog)
	assert.Equal(t, device.ProgramID(device.InvalidID), d.CurrentProgram())
	assert.Equal(t, 0, d.LivePrograms())
	require.ErrorIs(t, d.Draw(device.DrawCall{Count: 3}), ErrNoProgram)
}

func TestBindTextureUnit(t *testing.T) {
	d := newTestDevice(t, WithMaxTextureUnits(2))
	tex, err := d.CreateTexture(1, 1)
	require.NoError(t, err)

	d.BindTextureUnit(1, tex)
	assert.Equal(t, tex, d.BoundTexture(1))

	d.BindTextureUnit(5, tex)
	assert.Equal(t, device.TextureID(device.InvalidID), d.BoundTexture(5))

	d.DestroyTexture(tex)
	assert.Equal(t, device.TextureID(device.InvalidID), d.BoundTexture(1), "destroyed texture must leave its unit")
}

func TestCreateTextureInvalidSize(t *testing.T) {
	d := newTestDevice(t)
	_, err := d.CreateTexture(0, 4)
	require.Error(t, err)
}

func TestClose(t *testing.T) {
	dev, queue := createNoopHAL(t)
	d, err := New(dev, queue)
	require.NoError(t, err)
	linkTestProgram(t, d)

	d.Close()
	d.Close()
	assert.Equal(t, 0, d.LivePrograms())

	_, err = d.CompileStage(shaderWGSL, device.StageVertex)
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, d.Draw(device.DrawCall{}), ErrClosed)
}

type testProvider struct {
	dev    hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
}

func (p testProvider) Device() gpucontext.Device { return p.dev }
func (p testProvider) Queue() gpucontext.Queue { return p.queue }
func (p testProvider) SurfaceFormat() gputypes.TextureFormat { return p.format }
func (p testProvider) Adapter() gpucontext.Adapter { return nil }
func (p testProvider) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{} }
func (p testProvider) HalDevice() any { return p.dev }
func (p testProvider) HalQueue() any { return p.queue }

type plainProvider struct{ testProvider }

// HalDevice shadows the embedded method with an unusable value.
func (plainProvider) HalDevice() any { return "not a device" }

func TestNewFromProvider(t *testing.T) {
	dev, queue := createNoopHAL(t)

	d, err := NewFromProvider(testProvider{dev: dev, queue: queue, format: gputypes.TextureFormatRGBA8Unorm})
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, gputypes.TextureFormatRGBA8Unorm, d.opts.format)

	d2, err := NewFromProvider(testProvider{dev: dev, queue: queue})
	require.NoError(t, err)
	defer d2.Close()
	assert.Equal(t, DefaultTargetFormat, d2.opts.format, "undefined surface format keeps the default")

	_, err = NewFromProvider(plainProvider{testProvider{dev: dev, queue: queue}})
	require.Error(t, err)
}

func TestOpenBackendUnavailable(t *testing.T) {
	_, err := OpenBackend(gputypes.Backend(200))
	require.Error(t, err)
}
