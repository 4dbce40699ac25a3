package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/glstate/device"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// GL > Native > Software (Software is the fallback).
	backendPriority = []string{BackendGL, BackendNative, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get opens a device from the named backend.
func Get(name string) (device.Device, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	return dev, nil
}

// Default opens a device from the best available backend based on priority.
// Priority order: gl > native > software, then any other registered backend.
// Factories that fail are skipped.
func Default() (device.Device, string, error) {
	registryMu.RLock()
	names := make([]string, 0, len(backends))
	names = append(names, backendPriority...)
	var others []string
	for name := range backends {
		if !isPriority(name) {
			others = append(others, name)
		}
	}
	sort.Strings(others)
	names = append(names, others...)
	factories := make(map[string]Factory, len(backends))
	for name, f := range backends {
		factories[name] = f
	}
	registryMu.RUnlock()

	for _, name := range names {
		factory, ok := factories[name]
		if !ok {
			continue
		}
		if dev, err := factory(); err == nil && dev != nil {
			return dev, name, nil
		}
	}
	return nil, "", ErrNoBackend
}

// MustDefault returns the default device or panics.
func MustDefault() device.Device {
	dev, _, err := Default()
	if err != nil {
		panic(err)
	}
	return dev
}

func isPriority(name string) bool {
	for _, p := range backendPriority {
		if p == name {
			return true
		}
	}
	return false
}
