//go:build cgo && !nogl

package gl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	ogl "github.com/go-gl/gl/v3.3-core/gl"

	"github.com/gogpu/glstate/backend"
	"github.com/gogpu/glstate/device"
)

// ErrNoProgram is returned by Draw when no program is in use.
var ErrNoProgram = errors.New("gl: no program in use")

// Register registers the GL backend. Call it after a GL context was made
// current on the calling thread.
func Register() {
	backend.Register(backend.BackendGL, func() (device.Device, error) {
		return New()
	})
}

type uniformKey struct {
	program uint32
	name    string
}

// Device is an OpenGL 3.3 core device.Device.
type Device struct {
	logger   *slog.Logger
	maxUnits int
	vao      uint32
	current  uint32
	uniforms map[uniformKey]int32
}

var (
	_ device.Device           = (*Device)(nil)
	_ device.TextureAllocator = (*Device)(nil)
)

// New loads the GL entry points for the current context and creates the
// vertex array object used by Draw.
func New() (*Device, error) {
	if err := ogl.Init(); err != nil {
		return nil, fmt.Errorf("gl: init: %w", err)
	}

	var units int32
	ogl.GetIntegerv(ogl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &units)

	d := &Device{
		logger:   slog.New(discardHandler{}),
		maxUnits: int(units),
		uniforms: make(map[uniformKey]int32),
	}
	ogl.GenVertexArrays(1, &d.vao)
	return d, nil
}

// Version returns the GL_VERSION string of the current context.
func (d *Device) Version() string {
	return ogl.GoStr(ogl.GetString(ogl.VERSION))
}

// SetLogger sets the device logger. Called by glstate.SetLogger.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discardHandler{})
	}
	d.logger = l
}

// CompileStage implements device.Device. A shader that fails to compile is
// deleted before the diagnostic is returned.
func (d *Device) CompileStage(source string, kind device.StageKind) (device.StageID, error) {
	typ, ok := shaderType(kind)
	if !ok {
		return device.InvalidID, device.Diagnosticf("error: unknown stage kind %d", uint8(kind))
	}
	handle := ogl.CreateShader(typ)
	if handle == 0 {
		return device.InvalidID, device.Diagnosticf("error: %s shaders are not supported by GL %s", kind, d.Version())
	}

	csources, free := ogl.Strs(cString(source))
	ogl.ShaderSource(handle, 1, csources, nil)
	free()
	ogl.CompileShader(handle)

	var status int32
	ogl.GetShaderiv(handle, ogl.COMPILE_STATUS, &status)
	if status == ogl.FALSE {
		var logLength int32
		ogl.GetShaderiv(handle, ogl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		ogl.GetShaderInfoLog(handle, logLength, nil, ogl.Str(msg))
		ogl.DeleteShader(handle)
		return device.InvalidID, &device.Diagnostic{Log: strings.TrimRight(msg, "\x00")}
	}
	return device.StageID(handle), nil
}

// LinkProgram implements device.Device. The stages are detached after
// linking so that releasing them frees them immediately.
func (d *Device) LinkProgram(stages []device.StageID) (device.ProgramID, error) {
	handle := ogl.CreateProgram()
	for _, s := range stages {
		ogl.AttachShader(handle, uint32(s))
	}
	ogl.LinkProgram(handle)
	for _, s := range stages {
		ogl.DetachShader(handle, uint32(s))
	}

	var status int32
	ogl.GetProgramiv(handle, ogl.LINK_STATUS, &status)
	if status == ogl.FALSE {
		var logLength int32
		ogl.GetProgramiv(handle, ogl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		ogl.GetProgramInfoLog(handle, logLength, nil, ogl.Str(msg))
		ogl.DeleteProgram(handle)
		return device.InvalidID, &device.Diagnostic{Log: strings.TrimRight(msg, "\x00")}
	}
	return device.ProgramID(handle), nil
}

// ReleaseStage implements device.Device.
func (d *Device) ReleaseStage(id device.StageID) {
	ogl.DeleteShader(uint32(id))
}

// ReleaseProgram implements device.Device.
func (d *Device) ReleaseProgram(id device.ProgramID) {
	for k := range d.uniforms {
		if k.program == uint32(id) {
			delete(d.uniforms, k)
		}
	}
	ogl.DeleteProgram(uint32(id))
}

// BindTextureUnit implements device.Device.
func (d *Device) BindTextureUnit(unit device.TextureUnit, tex device.TextureID) {
	ogl.ActiveTexture(ogl.TEXTURE0 + uint32(unit))
	ogl.BindTexture(ogl.TEXTURE_2D, uint32(tex))
}

// UseProgram implements device.Device.
func (d *Device) UseProgram(id device.ProgramID) {
	ogl.UseProgram(uint32(id))
	d.current = uint32(id)
}

// MaxTextureUnits implements device.Device.
func (d *Device) MaxTextureUnits() int {
	return d.maxUnits
}

// Draw implements device.Device. Sampler uniforms of the current program are
// pointed at their units, then the vertices are drawn from the device's
// attribute-less vertex array.
func (d *Device) Draw(call device.DrawCall) error {
	if d.current == 0 {
		return ErrNoProgram
	}
	for _, s := range call.Samplers {
		if loc := d.uniformLocation(d.current, s.Name); loc >= 0 {
			ogl.Uniform1i(loc, int32(s.Unit))
		}
	}
	ogl.BindVertexArray(d.vao)
	ogl.DrawArraysInstanced(primitiveMode(call.Primitive), int32(call.First), int32(call.Count), int32(call.InstanceCount()))
	if e := ogl.GetError(); e != ogl.NO_ERROR {
		return fmt.Errorf("gl: draw: error 0x%04X", e)
	}
	return nil
}

func (d *Device) uniformLocation(program uint32, name string) int32 {
	key := uniformKey{program: program, name: name}
	if loc, ok := d.uniforms[key]; ok {
		return loc
	}
	loc := ogl.GetUniformLocation(program, ogl.Str(cString(name)))
	if loc < 0 {
		d.logger.Warn("gl: sampler uniform not found", "program", program, "name", name)
	}
	d.uniforms[key] = loc
	return loc
}

// CreateTexture implements device.TextureAllocator. The previous binding of
// the active unit is restored.
func (d *Device) CreateTexture(width, height int) (device.TextureID, error) {
	if width <= 0 || height <= 0 {
		return device.InvalidID, fmt.Errorf("gl: invalid texture size %dx%d", width, height)
	}
	var prev int32
	ogl.GetIntegerv(ogl.TEXTURE_BINDING_2D, &prev)

	var tex uint32
	ogl.GenTextures(1, &tex)
	ogl.BindTexture(ogl.TEXTURE_2D, tex)
	ogl.TexImage2D(ogl.TEXTURE_2D, 0, ogl.RGBA8, int32(width), int32(height), 0, ogl.RGBA, ogl.UNSIGNED_BYTE, nil)
	ogl.TexParameteri(ogl.TEXTURE_2D, ogl.TEXTURE_MIN_FILTER, ogl.LINEAR)
	ogl.TexParameteri(ogl.TEXTURE_2D, ogl.TEXTURE_MAG_FILTER, ogl.LINEAR)
	ogl.BindTexture(ogl.TEXTURE_2D, uint32(prev))

	if e := ogl.GetError(); e != ogl.NO_ERROR {
		ogl.DeleteTextures(1, &tex)
		return device.InvalidID, fmt.Errorf("gl: create texture: error 0x%04X", e)
	}
	return device.TextureID(tex), nil
}

// DestroyTexture implements device.TextureAllocator.
func (d *Device) DestroyTexture(id device.TextureID) {
	tex := uint32(id)
	ogl.DeleteTextures(1, &tex)
}

// QueryBoundTexture asks GL which texture is bound to unit. It changes the
// active texture unit and is meant for debugging the bind cache.
func (d *Device) QueryBoundTexture(unit device.TextureUnit) device.TextureID {
	var v int32
	ogl.ActiveTexture(ogl.TEXTURE0 + uint32(unit))
	ogl.GetIntegerv(ogl.TEXTURE_BINDING_2D, &v)
	return device.TextureID(v)
}

// QueryCurrentProgram asks GL which program is current.
func (d *Device) QueryCurrentProgram() device.ProgramID {
	var v int32
	ogl.GetIntegerv(ogl.CURRENT_PROGRAM, &v)
	return device.ProgramID(v)
}

// Close deletes the device's vertex array object.
func (d *Device) Close() {
	if d.vao != 0 {
		ogl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
