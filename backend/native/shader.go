//go:build !nogpu

package native

import (
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glstate/device"
)

// Entry points every WGSL stage must declare for its kind.
const (
	entryVertex   = "vs_main"
	entryFragment = "fs_main"
	entryCompute  = "cs_main"
)

// entryPoint returns the WGSL entry point for kind, or "" for kinds WebGPU
// cannot express.
func entryPoint(kind device.StageKind) string {
	switch kind {
	case device.StageVertex:
		return entryVertex
	case device.StageFragment:
		return entryFragment
	case device.StageCompute:
		return entryCompute
	default:
		return ""
	}
}

// compileWGSL compiles WGSL source to SPIR-V words. naga errors are returned
// as a device.Diagnostic so the shader package can report them.
func compileWGSL(source string, kind device.StageKind) ([]uint32, error) {
	if strings.TrimSpace(source) == "" {
		return nil, device.Diagnosticf("0:0: error: empty %s shader", kind)
	}
	if entry := entryPoint(kind); !strings.Contains(source, entry) {
		return nil, device.Diagnosticf("0:0: error: %s shader has no entry point %s", kind, entry)
	}

	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, &device.Diagnostic{Log: err.Error()}
	}

	// SPIR-V is little-endian 32-bit words
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirv, nil
}

// topologies lists the primitive topologies a render program is linked
// for. WebGPU bakes topology into the pipeline, so each program carries one
// pipeline per entry.
var topologies = map[device.Primitive]gputypes.PrimitiveTopology{
	device.PrimitiveTriangles:     gputypes.PrimitiveTopologyTriangleList,
	device.PrimitiveTriangleStrip: gputypes.PrimitiveTopologyTriangleStrip,
	device.PrimitiveLines:         gputypes.PrimitiveTopologyLineList,
	device.PrimitivePoints:        gputypes.PrimitiveTopologyPointList,
}

// programResources holds the HAL objects owned by one linked program.
type programResources struct {
	device    hal.Device
	bindGroup hal.BindGroupLayout
	layout    hal.PipelineLayout
	render    map[device.Primitive]hal.RenderPipeline
	compute   hal.ComputePipeline
}

// destroy releases every resource in dependency order: pipelines, then the
// pipeline layout, then the bind group layout. Nil members are skipped.
func (r *programResources) destroy() {
	if r.device == nil {
		return
	}
	for _, p := range r.render {
		if p != nil {
			r.device.DestroyRenderPipeline(p)
		}
	}
	if r.compute != nil {
		r.device.DestroyComputePipeline(r.compute)
	}
	if r.layout != nil {
		r.device.DestroyPipelineLayout(r.layout)
	}
	if r.bindGroup != nil {
		r.device.DestroyBindGroupLayout(r.bindGroup)
	}
	*r = programResources{}
}
