package software

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gogpu/naga"

	"github.com/gogpu/glstate/backend"
	"github.com/gogpu/glstate/device"
)

// Draw errors.
var (
	// ErrNoProgram is returned by Draw when no live program is current.
	ErrNoProgram = errors.New("software: no program in use")

	// ErrUnitOutOfRange is returned by Draw when a sampler refers to a unit
	// the device does not have.
	ErrUnitOutOfRange = errors.New("software: texture unit out of range")

	// ErrUnboundSampler is returned by Draw when a sampler reads an empty unit.
	ErrUnboundSampler = errors.New("software: sampler reads an empty texture unit")

	// ErrWrongTexture is returned by Draw when a sampler's unit holds a
	// different texture than the one it expects.
	ErrWrongTexture = errors.New("software: sampler unit holds another texture")
)

func init() {
	backend.Register(backend.BackendSoftware, func() (device.Device, error) {
		return New(), nil
	})
}

type stageObject struct {
	kind   device.StageKind
	source string
}

type programObject struct {
	kinds []device.StageKind
}

// Device is an in-memory device.Device.
//
// Device is safe for concurrent use, which lets tests inspect it from a
// different goroutine than the one driving it.
type Device struct {
	mu     sync.Mutex
	opts   options
	logger *slog.Logger

	nextID   uint64
	stages   map[device.StageID]stageObject
	programs map[device.ProgramID]programObject

	textures map[device.TextureID][2]int
	units    []device.TextureID
	current  device.ProgramID

	calls           []Call
	stageReleases   map[device.StageID]int
	programReleases map[device.ProgramID]int
	draws           int

	failLinks      int
	failLinkLog    string
	failCompiles   int
	failCompileLog string
}

var (
	_ device.Device           = (*Device)(nil)
	_ device.TextureAllocator = (*Device)(nil)
)

// New creates a software device.
func New(opts ...Option) *Device {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Device{
		opts:            o,
		logger:          slog.New(discardHandler{}),
		nextID:          1,
		stages:          make(map[device.StageID]stageObject),
		programs:        make(map[device.ProgramID]programObject),
		textures:        make(map[device.TextureID][2]int),
		units:           make([]device.TextureID, o.maxUnits),
		stageReleases:   make(map[device.StageID]int),
		programReleases: make(map[device.ProgramID]int),
	}
}

// SetLogger sets the logger used for device anomalies such as releasing
// an unknown handle. Called by glstate.SetLogger.
func (d *Device) SetLogger(l *slog.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l == nil {
		l = slog.New(discardHandler{})
	}
	d.logger = l
}

// allocID returns the next object ID. IDs are never reused.
func (d *Device) allocID() uint64 {
	id := d.nextID
	d.nextID++
	return id
}

// CompileStage implements device.Device.
func (d *Device) CompileStage(source string, kind device.StageKind) (device.StageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Kind: CallCompileStage})
	if err := d.checkSource(source, kind); err != nil {
		return device.InvalidID, err
	}

	id := device.StageID(d.allocID())
	d.stages[id] = stageObject{kind: kind, source: source}
	d.calls[len(d.calls)-1].Stage = id
	return id, nil
}

func (d *Device) checkSource(source string, kind device.StageKind) error {
	if !kind.Valid() {
		return device.Diagnosticf("0:0: error: unsupported shader type %d", uint8(kind))
	}
	if d.failCompiles > 0 {
		d.failCompiles--
		return &device.Diagnostic{Log: d.failCompileLog}
	}
	if strings.TrimSpace(source) == "" {
		return device.Diagnosticf("0:0: error: empty %s shader", kind)
	}
	if d.opts.validateWGSL {
		if _, err := naga.Compile(source); err != nil {
			return &device.Diagnostic{Log: err.Error()}
		}
		return nil
	}

	sc := bufio.NewScanner(strings.NewReader(source))
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if msg, ok := strings.CutPrefix(text, "#error"); ok {
			return device.Diagnosticf("0:%d: error: %s", line, strings.TrimSpace(msg))
		}
	}
	return nil
}

// LinkProgram implements device.Device.
//
// A program links either exactly one vertex and one fragment stage (plus
// at most one geometry, tess-control and tess-eval stage) or a single
// compute stage. The stages stay alive.
func (d *Device) LinkProgram(stages []device.StageID) (device.ProgramID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Kind: CallLinkProgram})
	if d.failLinks > 0 {
		d.failLinks--
		return device.InvalidID, &device.Diagnostic{Log: d.failLinkLog}
	}

	kinds := make([]device.StageKind, 0, len(stages))
	count := make(map[device.StageKind]int, len(stages))
	for _, id := range stages {
		obj, ok := d.stages[id]
		if !ok {
			return device.InvalidID, device.Diagnosticf("error: stage %d is not a compiled shader object", id)
		}
		kinds = append(kinds, obj.kind)
		count[obj.kind]++
	}
	if err := checkLinkRules(count); err != nil {
		return device.InvalidID, err
	}

	id := device.ProgramID(d.allocID())
	d.programs[id] = programObject{kinds: kinds}
	d.calls[len(d.calls)-1].Program = id
	return id, nil
}

func checkLinkRules(count map[device.StageKind]int) error {
	if count[device.StageCompute] > 0 {
		if count[device.StageCompute] != 1 || len(count) != 1 {
			return device.Diagnosticf("error: a compute shader must be linked alone")
		}
		return nil
	}
	for kind, n := range count {
		if n > 1 {
			return device.Diagnosticf("error: %d %s shaders attached, at most one allowed", n, kind)
		}
	}
	if count[device.StageVertex] == 0 {
		return device.Diagnosticf("error: no vertex shader attached")
	}
	if count[device.StageFragment] == 0 {
		return device.Diagnosticf("error: no fragment shader attached")
	}
	if (count[device.StageTessControl] == 0) != (count[device.StageTessEval] == 0) {
		return device.Diagnosticf("error: tessellation requires both control and evaluation shaders")
	}
	return nil
}

// ReleaseStage implements device.Device.
func (d *Device) ReleaseStage(id device.StageID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Kind: CallReleaseStage, Stage: id})
	d.stageReleases[id]++
	if _, ok := d.stages[id]; !ok {
		d.logger.Warn("software: release of unknown stage", "stage", uint64(id), "count", d.stageReleases[id])
		return
	}
	delete(d.stages, id)
}

// ReleaseProgram implements device.Device.
// Releasing the current program keeps it current, as in GL.
func (d *Device) ReleaseProgram(id device.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Kind: CallReleaseProgram, Program: id})
	d.programReleases[id]++
	if _, ok := d.programs[id]; !ok {
		d.logger.Warn("software: release of unknown program", "program", uint64(id), "count", d.programReleases[id])
		return
	}
	delete(d.programs, id)
}

// BindTextureUnit implements device.Device.
func (d *Device) BindTextureUnit(unit device.TextureUnit, tex device.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bind(unit, tex, false)
}

func (d *Device) bind(unit device.TextureUnit, tex device.TextureID, foreign bool) {
	d.calls = append(d.calls, Call{Kind: CallBindTextureUnit, Unit: unit, Texture: tex, Foreign: foreign})
	if unit < 0 || int(unit) >= len(d.units) {
		d.logger.Warn("software: bind to texture unit out of range", "unit", int(unit), "max", len(d.units))
		return
	}
	d.units[unit] = tex
}

// UseProgram implements device.Device.
func (d *Device) UseProgram(id device.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.use(id, false)
}

func (d *Device) use(id device.ProgramID, foreign bool) {
	d.calls = append(d.calls, Call{Kind: CallUseProgram, Program: id, Foreign: foreign})
	d.current = id
}

// MaxTextureUnits implements device.Device.
func (d *Device) MaxTextureUnits() int {
	return d.opts.maxUnits
}

// Draw implements device.Device. It checks that a live program is current
// and that every sampler reads a bound unit holding the texture it expects.
func (d *Device) Draw(call device.DrawCall) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Kind: CallDraw, Program: d.current, Draw: call})
	if _, ok := d.programs[d.current]; !ok {
		return fmt.Errorf("%w: program %d", ErrNoProgram, d.current)
	}
	for _, s := range call.Samplers {
		if s.Unit < 0 || int(s.Unit) >= len(d.units) {
			return fmt.Errorf("%w: sampler %q unit %d", ErrUnitOutOfRange, s.Name, s.Unit)
		}
		if d.units[s.Unit] == device.InvalidID {
			return fmt.Errorf("%w: sampler %q unit %d", ErrUnboundSampler, s.Name, s.Unit)
		}
		if s.Texture != device.InvalidID && d.units[s.Unit] != s.Texture {
			return fmt.Errorf("%w: sampler %q unit %d has texture %d, want %d",
				ErrWrongTexture, s.Name, s.Unit, d.units[s.Unit], s.Texture)
		}
	}
	d.draws++
	return nil
}

// CreateTexture implements device.TextureAllocator. Texture IDs share the
// object ID space with stages and programs.
func (d *Device) CreateTexture(width, height int) (device.TextureID, error) {
	if width <= 0 || height <= 0 {
		return device.InvalidID, fmt.Errorf("software: invalid texture size %dx%d", width, height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := device.TextureID(d.allocID())
	d.textures[id] = [2]int{width, height}
	return id, nil
}

// DestroyTexture implements device.TextureAllocator.
func (d *Device) DestroyTexture(id device.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[id]; !ok {
		d.logger.Warn("software: destroy of unknown texture", "texture", uint64(id))
		return
	}
	delete(d.textures, id)
}

// LiveTextures returns the number of textures created and not destroyed.
func (d *Device) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// === Fault injection ===

// FailLinks makes the next n LinkProgram calls fail with log.
func (d *Device) FailLinks(n int, log string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failLinks = n
	d.failLinkLog = log
}

// FailCompiles makes the next n CompileStage calls fail with log.
func (d *Device) FailCompiles(n int, log string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failCompiles = n
	d.failCompileLog = log
}

// === Inspection ===

// Calls returns a copy of every recorded call, oldest first.
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// CountCalls returns the number of recorded calls of the given kind made
// through glstate (foreign calls are excluded).
func (d *Device) CountCalls(kind CallKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.Kind == kind && !c.Foreign {
			n++
		}
	}
	return n
}

// ClearCalls drops the call log. Bindings and objects are kept.
func (d *Device) ClearCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = d.calls[:0]
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

// CurrentProgram returns the program last passed to UseProgram.
func (d *Device) CurrentProgram() device.ProgramID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// StageReleases returns how many times ReleaseStage was called for id.
func (d *Device) StageReleases(id device.StageID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stageReleases[id]
}

// ProgramReleases returns how many times ReleaseProgram was called for id.
func (d *Device) ProgramReleases(id device.ProgramID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.programReleases[id]
}

// CompiledStages returns the IDs of every stage ever compiled, in order.
func (d *Device) CompiledStages() []device.StageID {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []device.StageID
	for _, c := range d.calls {
		if c.Kind == CallCompileStage && c.Stage != device.InvalidID {
			ids = append(ids, c.Stage)
		}
	}
	return ids
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

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
