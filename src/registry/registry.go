package registry

import (
	"fmt"
	"sort"
	"sync"

	"resource-streamer/src/models"
)

// -----------------------------------------------------------------------------
// Registry is the single source of truth mapping a resource key to its live
// subscription state. Pure data structure: all mutation is serialized behind
// one mutex, and no business logic lives here.
// -----------------------------------------------------------------------------

type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry // keyed by "<resource_type>/<resource_id>"
}

// -----------------------------------------------------------------------------

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// -----------------------------------------------------------------------------

// Key builds the registry key for one resource. Resource ids are unique only
// within a type ("AAPL" can be both market_data and tick_news), so the key
// carries both.
func Key(resourceType models.MResourceType, resourceID string) string {
	return string(resourceType) + "/" + resourceID
}

// -----------------------------------------------------------------------------

// Insert adds a new entry. It fails if the key is already live; callers
// serialize check-then-insert at their level.
func (r *Registry) Insert(entry *Entry) error {
	key := Key(entry.Descriptor.ResourceType, entry.Descriptor.ResourceID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("resource '%s' is already registered", key)
	}
	r.entries[key] = entry
	return nil
}

// -----------------------------------------------------------------------------

// Get returns the live entry for one resource, if any
func (r *Registry) Get(resourceType models.MResourceType, resourceID string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[Key(resourceType, resourceID)]
	return entry, ok
}

// -----------------------------------------------------------------------------

// Remove deletes and returns the entry for one resource
func (r *Registry) Remove(resourceType models.MResourceType, resourceID string) (*Entry, bool) {
	key := Key(resourceType, resourceID)

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if ok {
		delete(r.entries, key)
	}
	return entry, ok
}

// -----------------------------------------------------------------------------

// List returns every live entry sorted by type then id, so callers get a
// stable, type-grouped view.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry)
	}

	sort.Slice(result, func(i, j int) bool {
		di, dj := result[i].Descriptor, result[j].Descriptor
		if di.ResourceType != dj.ResourceType {
			return di.ResourceType < dj.ResourceType
		}
		return di.ResourceID < dj.ResourceID
	})
	return result
}

// -----------------------------------------------------------------------------

// ListByType returns the live entries of one type sorted by id
func (r *Registry) ListByType(resourceType models.MResourceType) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Entry
	for _, entry := range r.entries {
		if entry.Descriptor.ResourceType == resourceType {
			result = append(result, entry)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Descriptor.ResourceID < result[j].Descriptor.ResourceID
	})
	return result
}

// -----------------------------------------------------------------------------

// Len returns the number of live entries
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
