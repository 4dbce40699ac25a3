//go:build !nogpu

// Package native implements device.Device on top of the gogpu/wgpu HAL.
//
// WebGPU has no global binding points, so the device emulates them: it
// keeps its own texture unit array and current program, and every Draw
// encodes one render pass whose bind group is built from that state.
//
// # Bind Group Layout
//
// Every program is linked against the same layout, bind group 0:
//
//	@group(0) @binding(0..N-1)  var t_unitN: texture_2d<f32>;
//	@group(0) @binding(N)       var s_linear: sampler;
//
// where N is MaxTextureUnits. Binding i is texture unit i. Empty units are
// filled with a 1x1 placeholder texture.
//
// # Shader Stages
//
// Stages are WGSL. They are compiled to SPIR-V with naga and wrapped in a
// HAL shader module. Entry points are vs_main, fs_main and cs_main.
// Geometry and tessellation stages have no WebGPU equivalent and are
// rejected with a diagnostic.
//
// # Device Sources
//
//	dev, err := native.Open()                     // own Vulkan device
//	dev, err := native.NewFromProvider(provider)  // shared with a host app
//	dev, err := native.New(halDevice, halQueue)   // explicit HAL objects
//
// Open is registered with the backend registry as "native".
//
// # Thread Safety
//
// Device is safe for concurrent use. All state is protected by a mutex,
// but the glstate.Context driving it is single-threaded.
//
// # Build Tags
//
// Build with -tags nogpu to exclude the package.
package native
