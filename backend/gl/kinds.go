package gl

import "github.com/gogpu/glstate/device"

// GL enum values used by the kind mappings. They are fixed by the GL
// registry; the tessellation and compute values are not exported by the
// 3.3 core bindings.
const (
	glVertexShader         = 0x8B31
	glFragmentShader       = 0x8B30
	glGeometryShader       = 0x8DD9
	glTessControlShader    = 0x8E88
	glTessEvaluationShader = 0x8E87
	glComputeShader        = 0x91B9

	glPoints        = 0x0000
	glLines         = 0x0001
	glTriangles     = 0x0004
	glTriangleStrip = 0x0005
)

var shaderTypes = map[device.StageKind]uint32{
	device.StageVertex:      glVertexShader,
	device.StageFragment:    glFragmentShader,
	device.StageGeometry:    glGeometryShader,
	device.StageTessControl: glTessControlShader,
	device.StageTessEval:    glTessEvaluationShader,
	device.StageCompute:     glComputeShader,
}

// shaderType returns the GL shader type for kind.
func shaderType(kind device.StageKind) (uint32, bool) {
	t, ok := shaderTypes[kind]
	return t, ok
}

// primitiveMode returns the GL draw mode for p. Unknown values draw
// triangles.
func primitiveMode(p device.Primitive) uint32 {
	switch p {
	case device.PrimitiveTriangleStrip:
		return glTriangleStrip
	case device.PrimitiveLines:
		return glLines
	case device.PrimitivePoints:
		return glPoints
	default:
		return glTriangles
	}
}

// cString returns s NUL-terminated, as go-gl expects.
func cString(s string) string {
	return s + "\x00"
}
