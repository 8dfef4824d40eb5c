package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resource-streamer/src/interfaces"
	"resource-streamer/src/logger"
	"resource-streamer/src/models"
)

// -----------------------------------------------------------------------------
// Bridge adapts the gateway's synchronous event callbacks into one bounded
// channel per subscription. The callback body only enqueues and returns, so
// the gateway's dispatch goroutine is never blocked; on a full channel the
// oldest buffered event is evicted and the new one takes its place
// (latest-wins coalescing).
// -----------------------------------------------------------------------------

type Bridge struct {
	Name    string
	gateway interfaces.IGatewayClient
	logger  *logger.Logger
	bufSize int

	mu       sync.Mutex
	channels map[models.MAttachHandle]chan models.MEvent
}

// -----------------------------------------------------------------------------

// NewBridge creates the bridge and registers its disconnect handler with the
// gateway, so a lost session turns into a poison event on every live channel
// instead of a silently stalled stream.
func NewBridge(gateway interfaces.IGatewayClient, log *logger.Logger, bufSize int) *Bridge {
	if bufSize <= 0 {
		bufSize = 256
	}

	b := &Bridge{
		Name:     "EventBridge",
		gateway:  gateway,
		logger:   log,
		bufSize:  bufSize,
		channels: make(map[models.MAttachHandle]chan models.MEvent),
	}

	gateway.OnDisconnect(b.handleDisconnect)
	return b
}

// -----------------------------------------------------------------------------

// Attach subscribes one feed with the gateway and returns the handle plus the
// channel its events will arrive on. The ctx deadline bounds the gateway
// acknowledgment wait.
func (b *Bridge) Attach(ctx context.Context, resourceType models.MResourceType, params models.MResourceParams) (models.MAttachHandle, <-chan models.MEvent, error) {
	ch := make(chan models.MEvent, b.bufSize)

	onEvent := func(ev models.MEvent) {
		enqueue(ch, ev)
	}

	handle, err := b.gateway.Attach(ctx, resourceType, params, onEvent)
	if err != nil {
		return 0, nil, fmt.Errorf("gateway attach failed for %s: %w", resourceType, err)
	}

	b.mu.Lock()
	b.channels[handle] = ch
	b.mu.Unlock()

	b.logger.Debug("%s : attached handle %d for %s", b.Name, handle, resourceType)
	return handle, ch, nil
}

// -----------------------------------------------------------------------------

// Detach cancels one attachment. Idempotent: a second detach of the same
// handle is a no-op.
func (b *Bridge) Detach(ctx context.Context, handle models.MAttachHandle) error {
	b.mu.Lock()
	_, known := b.channels[handle]
	delete(b.channels, handle)
	b.mu.Unlock()

	if !known {
		return nil
	}

	if err := b.gateway.Detach(ctx, handle); err != nil {
		return fmt.Errorf("gateway detach failed for handle %d: %w", handle, err)
	}

	b.logger.Debug("%s : detached handle %d", b.Name, handle)
	return nil
}

// -----------------------------------------------------------------------------

// handleDisconnect pushes the terminal poison event for one lost handle
func (b *Bridge) handleDisconnect(handle models.MAttachHandle) {
	b.mu.Lock()
	ch, ok := b.channels[handle]
	b.mu.Unlock()

	if !ok {
		return
	}

	b.logger.Warning("%s : upstream disconnect for handle %d, delivering poison event", b.Name, handle)
	enqueue(ch, models.MEvent{
		Kind:      models.EventKindDisconnect,
		Timestamp: time.Now(),
	})
}

// -----------------------------------------------------------------------------

// enqueue performs the non-blocking coalescing send: if the channel is full,
// drop the oldest buffered event to make room for the newest one. The
// producer never waits.
func enqueue(ch chan models.MEvent, ev models.MEvent) {
	select {
	case ch <- ev:
		return
	default:
	}

	// Channel full: evict one, then retry once. If a concurrent consumer
	// drained everything in between, the retry simply succeeds.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}
