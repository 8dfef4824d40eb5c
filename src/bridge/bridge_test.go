package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"resource-streamer/src/logger"
	"resource-streamer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

type stubGateway struct {
	mu           sync.Mutex
	nextHandle   uint64
	callbacks    map[models.MAttachHandle]func(models.MEvent)
	detaches     []models.MAttachHandle
	onDisconnect func(models.MAttachHandle)
}

func newStubGateway() *stubGateway {
	return &stubGateway{callbacks: make(map[models.MAttachHandle]func(models.MEvent))}
}

func (s *stubGateway) Connect(ctx context.Context) error { return nil }
func (s *stubGateway) Disconnect() error                 { return nil }
func (s *stubGateway) IsConnected() bool                 { return true }
func (s *stubGateway) GetName() string                   { return "stub" }
func (s *stubGateway) GetType() string                   { return "stub" }

func (s *stubGateway) Attach(ctx context.Context, resourceType models.MResourceType, params models.MResourceParams, onEvent func(models.MEvent)) (models.MAttachHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHandle++
	handle := models.MAttachHandle(s.nextHandle)
	s.callbacks[handle] = onEvent
	return handle, nil
}

func (s *stubGateway) Detach(ctx context.Context, handle models.MAttachHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detaches = append(s.detaches, handle)
	return nil
}

func (s *stubGateway) OnDisconnect(handler func(models.MAttachHandle)) {
	s.onDisconnect = handler
}

func (s *stubGateway) emit(handle models.MAttachHandle, ev models.MEvent) {
	s.mu.Lock()
	cb := s.callbacks[handle]
	s.mu.Unlock()
	cb(ev)
}

// -----------------------------------------------------------------------------

func newTestBridge(bufSize int) (*Bridge, *stubGateway) {
	gw := newStubGateway()
	log := logger.NewLogger(nil, "test")
	return NewBridge(gw, log, bufSize), gw
}

func tickEvent(last float64) models.MEvent {
	return models.MEvent{
		Kind:      models.EventKindPriceTick,
		Timestamp: time.Now(),
		PriceTick: &models.MPriceTick{Last: &last},
	}
}

// -----------------------------------------------------------------------------

func TestAttachDeliversEvents(t *testing.T) {
	b, gw := newTestBridge(16)

	handle, events, err := b.Attach(context.Background(), models.ResourceMarketData, models.MResourceParams{Symbol: "AAPL"})
	require.NoError(t, err)

	gw.emit(handle, tickEvent(101.5))

	select {
	case ev := <-events:
		assert.Equal(t, models.EventKindPriceTick, ev.Kind)
		assert.Equal(t, 101.5, *ev.PriceTick.Last)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestFullChannelCoalescesToLatest(t *testing.T) {
	b, gw := newTestBridge(1)

	handle, events, err := b.Attach(context.Background(), models.ResourceMarketData, models.MResourceParams{Symbol: "AAPL"})
	require.NoError(t, err)

	// No consumer draining: each enqueue on the full channel evicts the
	// previous event
	gw.emit(handle, tickEvent(1))
	gw.emit(handle, tickEvent(2))
	gw.emit(handle, tickEvent(3))

	ev := <-events
	assert.Equal(t, 3.0, *ev.PriceTick.Last)

	select {
	case <-events:
		t.Fatal("stale event survived coalescing")
	default:
	}
}

func TestProducerNeverBlocks(t *testing.T) {
	b, gw := newTestBridge(1)

	handle, _, err := b.Attach(context.Background(), models.ResourceMarketData, models.MResourceParams{Symbol: "AAPL"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			gw.emit(handle, tickEvent(float64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked on a full channel")
	}
}

func TestDetachIsIdempotent(t *testing.T) {
	b, gw := newTestBridge(16)

	handle, _, err := b.Attach(context.Background(), models.ResourceMarketData, models.MResourceParams{Symbol: "AAPL"})
	require.NoError(t, err)

	require.NoError(t, b.Detach(context.Background(), handle))
	require.NoError(t, b.Detach(context.Background(), handle))

	// The gateway saw exactly one detach
	assert.Len(t, gw.detaches, 1)
}

func TestDetachUnknownHandleIsNoop(t *testing.T) {
	b, gw := newTestBridge(16)
	require.NoError(t, b.Detach(context.Background(), 42))
	assert.Empty(t, gw.detaches)
}

func TestDisconnectDeliversPoisonEvent(t *testing.T) {
	b, gw := newTestBridge(16)

	handle, events, err := b.Attach(context.Background(), models.ResourceMarketData, models.MResourceParams{Symbol: "AAPL"})
	require.NoError(t, err)

	gw.onDisconnect(handle)

	select {
	case ev := <-events:
		assert.Equal(t, models.EventKindDisconnect, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("poison event not delivered")
	}
}

func TestDisconnectAfterDetachIsSilent(t *testing.T) {
	b, gw := newTestBridge(16)

	handle, events, err := b.Attach(context.Background(), models.ResourceMarketData, models.MResourceParams{Symbol: "AAPL"})
	require.NoError(t, err)
	require.NoError(t, b.Detach(context.Background(), handle))

	gw.onDisconnect(handle)

	select {
	case <-events:
		t.Fatal("event delivered for detached handle")
	case <-time.After(50 * time.Millisecond):
	}
}
