package glstate

import (
	"sync"

	"github.com/gogpu/glstate/device"
)

// The live-context registry. A device has at most one live Context;
// a second one would keep a second, diverging shadow of the same binding
// points.
var (
	activeMu sync.Mutex
	active   = make(map[device.Device]*Context)
)

// acquire registers c as the live context of dev.
// Devices are map keys, so they must be comparable (pointer types).
func acquire(dev device.Device, c *Context) error {
	activeMu.Lock()
	defer activeMu.Unlock()
	if _, ok := active[dev]; ok {
		return ErrContextActive
	}
	active[dev] = c
	return nil
}

// release removes c from the registry if it is still the live context of dev.
func release(dev device.Device, c *Context) {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active[dev] == c {
		delete(active, dev)
	}
}

// activeDevices returns the devices of every live context.
func activeDevices() []device.Device {
	activeMu.Lock()
	defer activeMu.Unlock()
	devs := make([]device.Device, 0, len(active))
	for dev := range active {
		devs = append(devs, dev)
	}
	return devs
}

// Active returns the live Context of dev, or nil if there is none.
func Active(dev device.Device) *Context {
	activeMu.Lock()
	defer activeMu.Unlock()
	return active[dev]
}
