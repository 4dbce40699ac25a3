package device

import (
	"fmt"
	"strings"
)

// Resource IDs
//
// These opaque IDs represent device objects. Each backend maintains the
// mapping between IDs and actual API objects.

// TextureID is an opaque handle to a device texture.
type TextureID uint64

// StageID is an opaque handle to a compiled shader stage.
type StageID uint64

// ProgramID is an opaque handle to a linked shader program.
type ProgramID uint64

// InvalidID is the zero value, representing an invalid/null object.
const InvalidID = 0

// TextureUnit is the index of a device texture unit, 0..N-1 where N is
// reported by Device.MaxTextureUnits.
type TextureUnit int

// NoUnit is returned alongside errors where no unit could be chosen.
const NoUnit TextureUnit = -1

// StageKind identifies the pipeline stage a shader is compiled for.
type StageKind uint8

// Stage kinds.
const (
	// StageVertex is a vertex shader.
	StageVertex StageKind = iota + 1

	// StageFragment is a fragment shader.
	StageFragment

	// StageGeometry is a geometry shader.
	StageGeometry

	// StageTessControl is a tessellation control shader.
	StageTessControl

	// StageTessEval is a tessellation evaluation shader.
	StageTessEval

	// StageCompute is a compute shader. It links alone.
	StageCompute
)

var stageKindNames = map[StageKind]string{
	StageVertex:      "vertex",
	StageFragment:    "fragment",
	StageGeometry:    "geometry",
	StageTessControl: "tess-control",
	StageTessEval:    "tess-eval",
	StageCompute:     "compute",
}

// String returns the lowercase name of the stage kind.
func (k StageKind) String() string {
	if name, ok := stageKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("StageKind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared stage kinds.
func (k StageKind) Valid() bool {
	_, ok := stageKindNames[k]
	return ok
}

// ParseStageKind returns the stage kind named by s (as printed by String).
func ParseStageKind(s string) (StageKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range stageKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("device: unknown stage kind %q", s)
}

// Primitive is the topology used by a draw call.
type Primitive uint8

// Primitive topologies.
const (
	// PrimitiveTriangles draws independent triangles.
	PrimitiveTriangles Primitive = iota

	// PrimitiveTriangleStrip draws a triangle strip.
	PrimitiveTriangleStrip

	// PrimitiveLines draws independent lines.
	PrimitiveLines

	// PrimitivePoints draws points.
	PrimitivePoints
)

// SamplerBinding tells the device which texture unit a sampler uniform of
// the current program must read from.
type SamplerBinding struct {
	// Name is the sampler uniform name in the shader source.
	Name string

	// Unit is the texture unit the sampled texture is bound to.
	Unit TextureUnit

	// Texture is the texture the sampler expects to find in Unit.
	// InvalidID skips the check.
	Texture TextureID
}

// DrawCall describes a single non-indexed draw issued with the current
// program and texture units.
type DrawCall struct {
	// Primitive is the topology.
	Primitive Primitive

	// First is the first vertex.
	First int

	// Count is the number of vertices.
	Count int

	// Instances is the instance count. Zero means one instance.
	Instances int

	// Samplers maps sampler uniforms to the texture units chosen for them.
	Samplers []SamplerBinding
}

// InstanceCount returns the effective instance count (at least 1).
func (c DrawCall) InstanceCount() int {
	if c.Instances <= 0 {
		return 1
	}
	return c.Instances
}

// Diagnostic is the error returned by a device when it rejects a shader
// stage or a program. Log holds the compiler or linker output verbatim.
type Diagnostic struct {
	Log string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return strings.TrimSpace(d.Log)
}

// Diagnosticf builds a Diagnostic from a format string.
func Diagnosticf(format string, args ...any) *Diagnostic {
	return &Diagnostic{Log: fmt.Sprintf(format, args...)}
}
