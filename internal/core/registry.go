package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Dataset)
	registryMu sync.RWMutex
)

// Register adds a dataset to the registry.
// Panics if the key is already registered or the definition is malformed.
func Register(ds Dataset) {
	if v, ok := ds.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			panic(err.Error())
		}
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	key := ds.Info().Key
	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", key))
	}
	registry[key] = ds
}

// Get returns a dataset by key.
// Returns false if not found.
func Get(key string) (Dataset, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ds, ok := registry[key]
	return ds, ok
}

// All returns all registered datasets sorted by key.
func All() []Dataset {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Dataset, 0, len(registry))
	for _, ds := range registry {
		result = append(result, ds)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info().Key < result[j].Info().Key
	})

	return result
}

// Count returns the number of registered datasets.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered datasets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Dataset)
}
