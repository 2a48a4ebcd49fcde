package backend

import (
	"fmt"
	"slices"
	"sync"
)

// registry holds registered hosts.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]HostFactory)
	// Priority order for host selection (first available wins).
	// Soft is first because it is the only host that can read back.
	hostPriority = []string{NameSoft, NameWGPU}
)

// Register registers a host factory with the given name.
// This is typically called from init() functions in host packages.
// If a host with the same name is already registered, it will be replaced.
func Register(name string, factory HostFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a host from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered host names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a host with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get creates a host by name.
func Get(name string, width, height int) (Host, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return factory(width, height)
}

// Default creates the best available host based on priority, falling back
// to the remaining registered hosts in name order.
func Default(width, height int) (Host, error) {
	var lastErr error
	for _, name := range order() {
		h, err := Get(name, width, height)
		if err == nil {
			return h, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrBackendNotAvailable
}

// order returns registered names, prioritized ones first.
func order() []string {
	available := Available()
	names := make([]string, 0, len(available))
	for _, name := range hostPriority {
		if slices.Contains(available, name) {
			names = append(names, name)
		}
	}
	for _, name := range available {
		if !slices.Contains(hostPriority, name) {
			names = append(names, name)
		}
	}
	return names
}
