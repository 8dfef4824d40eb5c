package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"resource-streamer/src/models"
)

// -----------------------------------------------------------------------------
// Entry is the live subscription state for one resource: the attach handle,
// the raw event channel, the pump lifecycle hooks and the materialized
// snapshot. The snapshot has exactly one writer (the resource's own pump) and
// many readers, so it is published as an immutable value through an atomic
// pointer; readers never observe a partial merge.
// -----------------------------------------------------------------------------

type Entry struct {
	Descriptor models.MResourceDescriptor
	Handle     models.MAttachHandle
	Events     <-chan models.MEvent

	// Cancel stops the pump; Done is closed by the pump when it has fully
	// exited. Stop waits on Done so no late event can write into a removed
	// entry.
	Cancel context.CancelFunc
	Done   chan struct{}

	snapshot atomic.Pointer[models.MSnapshot]

	mu            sync.RWMutex
	status        models.MResourceStatus
	lastEventTime time.Time
}

// -----------------------------------------------------------------------------

// NewEntry creates the state for a freshly attached resource
func NewEntry(desc models.MResourceDescriptor, handle models.MAttachHandle, events <-chan models.MEvent) *Entry {
	return &Entry{
		Descriptor: desc,
		Handle:     handle,
		Events:     events,
		Done:       make(chan struct{}),
		status:     models.StatusSubscribed,
	}
}

// -----------------------------------------------------------------------------

// SetSnapshot atomically replaces the materialized snapshot. Only the
// entry's own pump calls this.
func (e *Entry) SetSnapshot(snap *models.MSnapshot) {
	e.snapshot.Store(snap)
}

// -----------------------------------------------------------------------------

// Snapshot returns the latest materialized snapshot, or nil when no event has
// been merged yet (subscribed with no data is a valid state, not an error).
func (e *Entry) Snapshot() *models.MSnapshot {
	return e.snapshot.Load()
}

// -----------------------------------------------------------------------------

// MarkErrored flips the entry into the errored state after a poison event.
// The entry stays in the registry until an explicit stop.
func (e *Entry) MarkErrored() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = models.StatusErrored
}

// -----------------------------------------------------------------------------

// Status returns the current lifecycle status
func (e *Entry) Status() models.MResourceStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// -----------------------------------------------------------------------------

// Touch records the arrival time of the latest merged event
func (e *Entry) Touch(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastEventTime = t
}

// -----------------------------------------------------------------------------

// LastEventTime returns when the latest event was merged (zero if none)
func (e *Entry) LastEventTime() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastEventTime
}

// -----------------------------------------------------------------------------

// Info builds the list() row for this entry
func (e *Entry) Info() models.MResourceInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return models.MResourceInfo{
		MResourceDescriptor: e.Descriptor,
		Status:              e.status,
		LastEventTime:       e.lastEventTime,
	}
}
