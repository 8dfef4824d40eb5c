package streamer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resource-streamer/src/bridge"
	"resource-streamer/src/config"
	"resource-streamer/src/interfaces"
	"resource-streamer/src/logger"
	"resource-streamer/src/models"
	"resource-streamer/src/registry"
)

// -----------------------------------------------------------------------------
// Manager is the public control surface of the subsystem: start, stop, list
// and read. It owns all registry mutation, derives resource ids, and composes
// the bridge, the pumps and the aggregation view.
//
// Control operations are serialized by one mutex; the cardinality of live
// resources is small, so global serialization beats per-id bookkeeping. Reads
// never take the control lock: they go through the registry's read path and
// the entries' atomic snapshots.
// -----------------------------------------------------------------------------

type Manager struct {
	Name     string
	config   *config.Config
	logger   *logger.Logger
	bridge   *bridge.Bridge
	registry *registry.Registry
	notifier interfaces.INotifier
	view     *AggregationView

	mu chan struct{} // control-operation lock, acquirable with a context
}

// -----------------------------------------------------------------------------

// NewManager creates a new Manager instance
func NewManager(cfg *config.Config, log *logger.Logger, br *bridge.Bridge, notifier interfaces.INotifier) *Manager {
	reg := registry.NewRegistry()

	m := &Manager{
		Name:     "SubscriptionManager",
		config:   cfg,
		logger:   log,
		bridge:   br,
		registry: reg,
		notifier: notifier,
		view:     NewAggregationView(reg, cfg.Streaming.AggregateCap),
		mu:       make(chan struct{}, 1),
	}
	return m
}

// -----------------------------------------------------------------------------

// lock acquires the control lock or gives up when ctx expires
func (m *Manager) lock(ctx context.Context) error {
	select {
	case m.mu <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("control operation cancelled: %w", ctx.Err())
	}
}

func (m *Manager) unlock() {
	<-m.mu
}

// -----------------------------------------------------------------------------
// Control surface
// -----------------------------------------------------------------------------

// Start subscribes a resource. Idempotent by derived id: a second start for
// the same id returns the existing descriptor with already_subscribed and
// performs no gateway call.
func (m *Manager) Start(ctx context.Context, resourceType models.MResourceType, params models.MResourceParams) (models.MResourceDescriptor, models.MStartStatus, error) {
	var zero models.MResourceDescriptor

	if !resourceType.Valid() {
		return zero, "", fmt.Errorf("%w: unknown resource type '%s'", ErrInvalidResource, resourceType)
	}

	resourceID, err := DeriveResourceID(resourceType, params)
	if err != nil {
		return zero, "", err
	}
	uri := ResourceURI(m.config.Scheme, resourceType, resourceID)

	if err := m.lock(ctx); err != nil {
		return zero, "", err
	}
	defer m.unlock()

	// Check-then-insert is atomic under the control lock
	if existing, ok := m.registry.Get(resourceType, resourceID); ok {
		m.logger.Info("%s : %s already subscribed", m.Name, uri)
		return existing.Descriptor, models.StartAlreadySubscribed, nil
	}

	// Attach with a bounded wait; on timeout nothing was inserted yet, so
	// there is no partial state to roll back.
	attachCtx, cancel := context.WithTimeout(ctx, m.config.AttachTimeout())
	defer cancel()

	handle, events, err := m.bridge.Attach(attachCtx, resourceType, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, "", fmt.Errorf("%w: %s", ErrAttachTimeout, uri)
		}
		return zero, "", fmt.Errorf("failed to start %s: %w", uri, err)
	}

	desc := models.MResourceDescriptor{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		URI:          uri,
		Params:       params,
		CreatedAt:    time.Now(),
	}

	entry := registry.NewEntry(desc, handle, events)

	pumpCtx, pumpCancel := context.WithCancel(context.Background())
	entry.Cancel = pumpCancel

	if err := m.registry.Insert(entry); err != nil {
		// Cannot happen while the control lock is held; detach defensively
		// so the gateway does not leak the attachment.
		pumpCancel()
		_ = m.bridge.Detach(context.Background(), handle)
		return zero, "", fmt.Errorf("failed to register %s: %w", uri, err)
	}

	pump := newStreamPump(entry, m.notifier, m.logger, m.config.Streaming.HeadlineCap)
	go pump.run(pumpCtx)

	m.logger.Info("%s : subscribed %s", m.Name, uri)
	return desc, models.StartSubscribed, nil
}

// -----------------------------------------------------------------------------

// Stop halts the pump, detaches from the gateway and removes the resource.
// The pump has fully exited before Stop returns, so no late event can write
// into the removed slot.
func (m *Manager) Stop(ctx context.Context, resourceType models.MResourceType, resourceID string) error {
	if err := m.lock(ctx); err != nil {
		return err
	}
	defer m.unlock()

	return m.stopLocked(ctx, resourceType, resourceID)
}

// -----------------------------------------------------------------------------

// stopLocked does the actual teardown; callers hold the control lock
func (m *Manager) stopLocked(ctx context.Context, resourceType models.MResourceType, resourceID string) error {
	entry, ok := m.registry.Get(resourceType, resourceID)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, resourceType, resourceID)
	}

	// 1. Cancel the pump and wait for it to drain out completely
	entry.Cancel()
	<-entry.Done

	// 2. Remove the registry entry. This happens before the detach ack so
	// the slot is gone even if the gateway is slow to answer.
	m.registry.Remove(resourceType, resourceID)

	// 3. Detach the gateway attachment (idempotent under double detach)
	detachCtx, cancel := context.WithTimeout(ctx, m.config.DetachTimeout())
	defer cancel()

	if err := m.bridge.Detach(detachCtx, entry.Handle); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrDetachTimeout, entry.Descriptor.URI)
		}
		return fmt.Errorf("failed to stop %s: %w", entry.Descriptor.URI, err)
	}

	m.logger.Info("%s : stopped %s", m.Name, entry.Descriptor.URI)
	return nil
}

// -----------------------------------------------------------------------------

// Read returns the latest materialized snapshot for one resource, or the
// wildcard aggregate when resourceID is "*". A subscribed resource with no
// events yet reads as a valid empty snapshot, not an error.
func (m *Manager) Read(resourceType models.MResourceType, resourceID string) (*models.MSnapshot, error) {
	if !resourceType.Valid() {
		return nil, fmt.Errorf("%w: unknown resource type '%s'", ErrInvalidResource, resourceType)
	}

	if resourceID == models.WildcardID {
		return m.view.Read(resourceType)
	}

	entry, ok := m.registry.Get(resourceType, resourceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotSubscribed, resourceType, resourceID)
	}

	if entry.Status() == models.StatusErrored {
		return nil, fmt.Errorf("%w: %s", ErrConnectionLost, entry.Descriptor.URI)
	}

	if snap := entry.Snapshot(); snap != nil {
		return snap, nil
	}

	// Subscribed, nothing merged yet
	return &models.MSnapshot{
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}, nil
}

// -----------------------------------------------------------------------------

// List returns every live resource with status and last event time, grouped
// by type (the registry sorts type-first).
func (m *Manager) List() []models.MResourceInfo {
	entries := m.registry.List()

	infos := make([]models.MResourceInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, entry.Info())
	}
	return infos
}

// -----------------------------------------------------------------------------

// Close tears the subsystem down: every outstanding pump is cancelled and
// every gateway attachment detached. Individual failures are logged and do
// not stop the sweep.
func (m *Manager) Close(ctx context.Context) error {
	if err := m.lock(ctx); err != nil {
		return err
	}
	defer m.unlock()

	var lastErr error
	for _, entry := range m.registry.List() {
		desc := entry.Descriptor
		if err := m.stopLocked(ctx, desc.ResourceType, desc.ResourceID); err != nil {
			m.logger.Error("%s : failed to stop %s during shutdown: %v", m.Name, desc.URI, err)
			lastErr = err
		}
	}

	m.logger.Info("%s : shut down, %d resources remaining", m.Name, m.registry.Len())
	return lastErr
}
