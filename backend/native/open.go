//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/glstate/backend"
	"github.com/gogpu/glstate/device"
)

func init() {
	backend.Register(backend.BackendNative, func() (device.Device, error) {
		return Open()
	})
}

// Open creates a Vulkan instance, opens the first discrete or integrated
// GPU (or the first adapter if neither is present) and wraps it. Close
// destroys the HAL device and instance.
func Open(opts ...Option) (*Device, error) {
	return OpenBackend(gputypes.BackendVulkan, opts...)
}

// OpenBackend is Open for an arbitrary registered HAL backend variant.
func OpenBackend(variant gputypes.Backend, opts ...Option) (*Device, error) {
	api, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("native: %v backend not available", variant)
	}
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("native: no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	d, err := New(openDev.Device, openDev.Queue, opts...)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	d.owned = true
	return d, nil
}
