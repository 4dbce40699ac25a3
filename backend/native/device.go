//go:build !nogpu

package native

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glstate/device"
)

// Draw errors.
var (
	// ErrNoProgram is returned by Draw when no live program is current.
	ErrNoProgram = errors.New("native: no program in use")

	// ErrComputeProgram is returned by Draw when the current program is a
	// compute program.
	ErrComputeProgram = errors.New("native: cannot draw with a compute program")

	// ErrUnitOutOfRange is returned by Draw when a sampler refers to a unit
	// the device does not have.
	ErrUnitOutOfRange = errors.New("native: texture unit out of range")

	// ErrUnboundSampler is returned by Draw when a sampler reads an empty unit.
	ErrUnboundSampler = errors.New("native: sampler reads an empty texture unit")

	// ErrWrongTexture is returned by Draw when a sampler's unit holds a
	// different texture than the one it expects.
	ErrWrongTexture = errors.New("native: sampler unit holds another texture")

	// ErrClosed is returned by operations on a closed device.
	ErrClosed = errors.New("native: device closed")
)

type stageObject struct {
	kind   device.StageKind
	module hal.ShaderModule
}

type programObject struct {
	res programResources
}

func (p *programObject) isCompute() bool {
	return p.res.compute != nil
}

type textureObject struct {
	texture hal.Texture
	view    hal.TextureView
}

// Device implements device.Device and device.TextureAllocator with a HAL
// device and queue.
type Device struct {
	mu     sync.Mutex
	opts   options
	logger *slog.Logger

	device   hal.Device
	queue    hal.Queue
	instance hal.Instance // non-nil only when Open created the device
	owned    bool

	nextID atomic.Uint64

	stages   map[device.StageID]*stageObject
	programs map[device.ProgramID]*programObject
	textures map[device.TextureID]*textureObject

	units   []device.TextureID
	current device.ProgramID

	sampler     hal.Sampler
	placeholder textureObject
	target      textureObject

	draws  int
	closed bool
}

var (
	_ device.Device           = (*Device)(nil)
	_ device.TextureAllocator = (*Device)(nil)
)

// New creates a device over an existing HAL device and queue. The caller
// keeps ownership of both; Close releases only objects created by the
// returned Device.
func New(dev hal.Device, queue hal.Queue, opts ...Option) (*Device, error) {
	if dev == nil || queue == nil {
		return nil, errors.New("native: nil HAL device or queue")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d := &Device{
		opts:     o,
		logger:   slog.New(discardHandler{}),
		device:   dev,
		queue:    queue,
		stages:   make(map[device.StageID]*stageObject),
		programs: make(map[device.ProgramID]*programObject),
		textures: make(map[device.TextureID]*textureObject),
		units:    make([]device.TextureID, o.maxUnits),
	}
	// 0 is InvalidID
	d.nextID.Store(1)

	if err := d.createSharedResources(); err != nil {
		d.destroySharedResources()
		return nil, err
	}
	return d, nil
}

// NewFromProvider creates a device sharing the GPU device of a host
// application. The provider must also expose HalDevice() and HalQueue()
// returning hal.Device and hal.Queue. The provider's surface format is used
// as the render target format unless overridden by an option.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("native: provider does not expose HAL types")
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("native: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("native: provider HalQueue is not hal.Queue")
	}

	opts = append([]Option{WithTargetFormat(provider.SurfaceFormat())}, opts...)
	return New(dev, queue, opts...)
}

// createSharedResources creates the sampler, the placeholder texture bound
// to empty units and the offscreen render target.
func (d *Device) createSharedResources() error {
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "glstate_linear_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("native: create sampler: %w", err)
	}
	d.sampler = sampler

	d.placeholder, err = d.createTexture("glstate_placeholder", 1, 1,
		gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		return err
	}

	d.target, err = d.createTexture("glstate_target", d.opts.width, d.opts.height,
		d.opts.format,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	return err
}

func (d *Device) createTexture(label string, w, h uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) (textureObject, error) {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return textureObject{}, fmt.Errorf("native: create texture %s: %w", label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return textureObject{}, fmt.Errorf("native: create texture view %s: %w", label, err)
	}
	return textureObject{texture: tex, view: view}, nil
}

func (d *Device) destroyTexture(t textureObject) {
	if t.view != nil {
		d.device.DestroyTextureView(t.view)
	}
	if t.texture != nil {
		d.device.DestroyTexture(t.texture)
	}
}

func (d *Device) destroySharedResources() {
	d.destroyTexture(d.target)
	d.destroyTexture(d.placeholder)
	d.target, d.placeholder = textureObject{}, textureObject{}
	if d.sampler != nil {
		d.device.DestroySampler(d.sampler)
		d.sampler = nil
	}
}

func (d *Device) allocID() uint64 {
	return d.nextID.Add(1) - 1
}

// SetLogger sets the device logger. Called by glstate.SetLogger.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discardHandler{})
	}
	d.mu.Lock()
	d.logger = l
	d.mu.Unlock()
}

// CompileStage implements device.Device.
func (d *Device) CompileStage(source string, kind device.StageKind) (device.StageID, error) {
	if !kind.Valid() {
		return device.InvalidID, device.Diagnosticf("0:0: error: unsupported shader type %d", uint8(kind))
	}
	if entryPoint(kind) == "" {
		return device.InvalidID, device.Diagnosticf("0:0: error: %s shaders are not supported by WebGPU", kind)
	}

	spirv, err := compileWGSL(source, kind)
	if err != nil {
		return device.InvalidID, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return device.InvalidID, ErrClosed
	}

	id := device.StageID(d.allocID())
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  fmt.Sprintf("glstate_%s_%d", kind, id),
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return device.InvalidID, &device.Diagnostic{Log: err.Error()}
	}
	d.stages[id] = &stageObject{kind: kind, module: module}
	d.logger.Debug("native: stage compiled", "stage", uint64(id), "kind", kind.String(), "words", len(spirv))
	return id, nil
}

// LinkProgram implements device.Device. A program is either a lone compute
// stage or one vertex plus one fragment stage.
func (d *Device) LinkProgram(ids []device.StageID) (device.ProgramID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return device.InvalidID, ErrClosed
	}

	byKind := make(map[device.StageKind]*stageObject, len(ids))
	for _, sid := range ids {
		s, ok := d.stages[sid]
		if !ok {
			return device.InvalidID, device.Diagnosticf("error: stage %d is not a compiled shader", sid)
		}
		if _, dup := byKind[s.kind]; dup {
			return device.InvalidID, device.Diagnosticf("error: more than one %s shader attached", s.kind)
		}
		byKind[s.kind] = s
	}

	compute, isCompute := byKind[device.StageCompute]
	switch {
	case isCompute && len(byKind) != 1:
		return device.InvalidID, device.Diagnosticf("error: a compute shader must be linked alone")
	case !isCompute && byKind[device.StageVertex] == nil:
		return device.InvalidID, device.Diagnosticf("error: no vertex shader attached")
	case !isCompute && byKind[device.StageFragment] == nil:
		return device.InvalidID, device.Diagnosticf("error: no fragment shader attached")
	}

	id := device.ProgramID(d.allocID())
	p := &programObject{res: programResources{device: d.device}}
	var err error
	if isCompute {
		err = d.buildCompute(id, &p.res, compute)
	} else {
		err = d.buildRender(id, &p.res, byKind[device.StageVertex], byKind[device.StageFragment])
	}
	if err != nil {
		p.res.destroy()
		return device.InvalidID, &device.Diagnostic{Log: err.Error()}
	}

	d.programs[id] = p
	d.logger.Debug("native: program linked", "program", uint64(id), "compute", isCompute)
	return id, nil
}

// buildLayout creates the shared unit layout: one texture binding per unit
// followed by the sampler.
func (d *Device) buildLayout(id device.ProgramID, res *programResources, visibility gputypes.ShaderStages) error {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(d.units)+1)
	for i := range d.units {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i), //nolint:gosec // unit count fits uint32
			Visibility: visibility,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding:    uint32(len(d.units)), //nolint:gosec // unit count fits uint32
		Visibility: visibility,
		Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
	})

	bgl, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   fmt.Sprintf("glstate_units_%d", id),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	res.bindGroup = bgl

	layout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            fmt.Sprintf("glstate_layout_%d", id),
		BindGroupLayouts: []hal.BindGroupLayout{bgl},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	res.layout = layout
	return nil
}

func (d *Device) buildRender(id device.ProgramID, res *programResources, vs, fs *stageObject) error {
	if err := d.buildLayout(id, res, gputypes.ShaderStageVertex|gputypes.ShaderStageFragment); err != nil {
		return err
	}

	res.render = make(map[device.Primitive]hal.RenderPipeline, len(topologies))
	for prim, topology := range topologies {
		pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
			Label:  fmt.Sprintf("glstate_program_%d_%d", id, prim),
			Layout: res.layout,
			Vertex: hal.VertexState{
				Module:     vs.module,
				EntryPoint: entryVertex,
			},
			Fragment: &hal.FragmentState{
				Module:     fs.module,
				EntryPoint: entryFragment,
				Targets: []gputypes.ColorTargetState{
					{
						Format:    d.opts.format,
						WriteMask: gputypes.ColorWriteMaskAll,
					},
				},
			},
			Primitive: gputypes.PrimitiveState{
				Topology: topology,
				CullMode: gputypes.CullModeNone,
			},
			Multisample: gputypes.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
		})
		if err != nil {
			return fmt.Errorf("create render pipeline: %w", err)
		}
		res.render[prim] = pipeline
	}
	return nil
}

func (d *Device) buildCompute(id device.ProgramID, res *programResources, cs *stageObject) error {
	if err := d.buildLayout(id, res, gputypes.ShaderStageCompute); err != nil {
		return err
	}
	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  fmt.Sprintf("glstate_program_%d", id),
		Layout: res.layout,
		Compute: hal.ComputeState{
			Module:     cs.module,
			EntryPoint: entryCompute,
		},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	res.compute = pipeline
	return nil
}

// ReleaseStage implements device.Device.
func (d *Device) ReleaseStage(id device.StageID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.stages[id]
	if !ok {
		d.logger.Warn("native: release of unknown stage", "stage", uint64(id))
		return
	}
	delete(d.stages, id)
	d.device.DestroyShaderModule(s.module)
}

// ReleaseProgram implements device.Device. Releasing the current program
// leaves no program current.
func (d *Device) ReleaseProgram(id device.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.programs[id]
	if !ok {
		d.logger.Warn("native: release of unknown program", "program", uint64(id))
		return
	}
	delete(d.programs, id)
	p.res.destroy()
	if d.current == id {
		d.current = device.InvalidID
	}
}

// BindTextureUnit implements device.Device. Units beyond MaxTextureUnits are
// ignored.
func (d *Device) BindTextureUnit(unit device.TextureUnit, tex device.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if unit < 0 || int(unit) >= len(d.units) {
		d.logger.Warn("native: bind to texture unit out of range", "unit", int(unit), "max", len(d.units))
		return
	}
	d.units[unit] = tex
}

// UseProgram implements device.Device.
func (d *Device) UseProgram(id device.ProgramID) {
	d.mu.Lock()
	d.current = id
	d.mu.Unlock()
}

// MaxTextureUnits implements device.Device.
func (d *Device) MaxTextureUnits() int {
	return len(d.units)
}

// Draw implements device.Device. It records one render pass into the
// offscreen target and waits for the GPU to finish it.
func (d *Device) Draw(call device.DrawCall) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	p, ok := d.programs[d.current]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrNoProgram, d.current)
	}
	if p.isCompute() {
		return fmt.Errorf("%w: program %d", ErrComputeProgram, d.current)
	}
	pipeline, ok := p.res.render[call.Primitive]
	if !ok {
		return fmt.Errorf("native: unsupported primitive %d", call.Primitive)
	}
	for _, s := range call.Samplers {
		if s.Unit < 0 || int(s.Unit) >= len(d.units) {
			return fmt.Errorf("%w: sampler %q unit %d", ErrUnitOutOfRange, s.Name, s.Unit)
		}
		if _, bound := d.textures[d.units[s.Unit]]; !bound {
			return fmt.Errorf("%w: sampler %q unit %d", ErrUnboundSampler, s.Name, s.Unit)
		}
		if s.Texture != device.InvalidID && d.units[s.Unit] != s.Texture {
			return fmt.Errorf("%w: sampler %q unit %d", ErrWrongTexture, s.Name, s.Unit)
		}
	}

	bindGroup, err := d.unitBindGroup(p)
	if err != nil {
		return err
	}
	defer d.device.DestroyBindGroup(bindGroup)

	if err := d.encodeDraw(pipeline, bindGroup, call); err != nil {
		return err
	}
	d.draws++
	return nil
}

// unitBindGroup builds bind group 0 from the current unit array.
func (d *Device) unitBindGroup(p *programObject) (hal.BindGroup, error) {
	entries := make([]gputypes.BindGroupEntry, 0, len(d.units)+1)
	for i, tex := range d.units {
		view := d.placeholder.view
		if t, ok := d.textures[tex]; ok {
			view = t.view
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i), //nolint:gosec // unit count fits uint32
			Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()},
		})
	}
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  uint32(len(d.units)), //nolint:gosec // unit count fits uint32
		Resource: gputypes.SamplerBinding{Sampler: d.sampler.NativeHandle()},
	})

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "glstate_units",
		Layout:  p.res.bindGroup,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create bind group: %w", err)
	}
	return bg, nil
}

func (d *Device) encodeDraw(pipeline hal.RenderPipeline, bindGroup hal.BindGroup, call device.DrawCall) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "glstate_draw_encoder"})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("glstate_draw"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "glstate_draw_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    d.target.view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(uint32(max(call.Count, 0)), uint32(call.InstanceCount()), uint32(max(call.First, 0)), 0) //nolint:gosec // clamped to non-negative
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("native: wait for GPU: %w", err)
	}
	return nil
}

// CreateTexture implements device.TextureAllocator. Texture IDs share the
// object ID space with stages and programs.
func (d *Device) CreateTexture(width, height int) (device.TextureID, error) {
	if width <= 0 || height <= 0 {
		return device.InvalidID, fmt.Errorf("native: invalid texture size %dx%d", width, height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return device.InvalidID, ErrClosed
	}

	id := device.TextureID(d.allocID())
	t, err := d.createTexture(fmt.Sprintf("glstate_texture_%d", id),
		uint32(width), uint32(height), //nolint:gosec // checked positive above
		gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		return device.InvalidID, err
	}
	d.textures[id] = &t
	return id, nil
}

// DestroyTexture implements device.TextureAllocator. Units holding the
// texture become empty.
func (d *Device) DestroyTexture(id device.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.textures[id]
	if !ok {
		d.logger.Warn("native: destroy of unknown texture", "texture", uint64(id))
		return
	}
	delete(d.textures, id)
	d.destroyTexture(*t)
	for i, bound := range d.units {
		if bound == id {
			d.units[i] = device.InvalidID
		}
	}
}

// BoundTexture returns the texture bound to unit.
func (d *Device) BoundTexture(unit device.TextureUnit) device.TextureID {
	d.mu.Lock()
	defer d.mu.Unlock()
	if unit < 0 || int(unit) >= len(d.units) {
		return device.InvalidID
	}
	return d.units[unit]
}

// CurrentProgram returns the current program.
func (d *Device) CurrentProgram() device.ProgramID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// LiveStages returns the number of compiled stages not yet released.
func (d *Device) LiveStages() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.stages)
}

// LivePrograms returns the number of linked programs not yet released.
func (d *Device) LivePrograms() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.programs)
}

// Draws returns the number of successful draws.
func (d *Device) Draws() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draws
}

// Close destroys every object created by the device. A device opened with
// Open also destroys the HAL device and instance. Close is idempotent.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true

	for id, p := range d.programs {
		p.res.destroy()
		delete(d.programs, id)
	}
	for id, s := range d.stages {
		d.device.DestroyShaderModule(s.module)
		delete(d.stages, id)
	}
	for id, t := range d.textures {
		d.destroyTexture(*t)
		delete(d.textures, id)
	}
	d.destroySharedResources()
	clear(d.units)
	d.current = device.InvalidID

	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
}

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
