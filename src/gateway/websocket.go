package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"resource-streamer/src/config"
	"resource-streamer/src/logger"
	"resource-streamer/src/models"
	"resource-streamer/src/utils"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------

// subscription tracks one live attachment on the wire
type subscription struct {
	resourceType models.MResourceType
	params       models.MResourceParams
	onEvent      func(models.MEvent)
}

// -----------------------------------------------------------------------------

// WebSocketGateway implements IGatewayClient against a trading-gateway bridge
// speaking JSON frames over WebSocket
type WebSocketGateway struct {
	name   string
	config *config.Config
	logger *logger.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex // gorilla allows one concurrent writer only

	mu           sync.RWMutex
	isConnected  bool
	subs         map[uint64]*subscription
	pendingAcks  map[uint64]chan error
	onDisconnect func(models.MAttachHandle)
	done         chan struct{}

	nextSubID atomic.Uint64
}

// -----------------------------------------------------------------------------

// NewWebSocketGateway creates a new gateway client
func NewWebSocketGateway(cfg *config.Config, log *logger.Logger) *WebSocketGateway {
	return &WebSocketGateway{
		name:        "WebSocketGateway",
		config:      cfg,
		logger:      log,
		subs:        make(map[uint64]*subscription),
		pendingAcks: make(map[uint64]chan error),
		done:        make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// Connect dials the bridge endpoint and starts the read loop
func (g *WebSocketGateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.isConnected {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: g.config.HandshakeTimeout(),
	}

	conn, _, err := dialer.DialContext(ctx, g.config.Gateway.Endpoint, nil)
	if err != nil {
		g.logger.Error("%s : failed to connect to %s: %v", g.name, utils.MaskEndpoint(g.config.Gateway.Endpoint), err)
		return fmt.Errorf("failed to connect to %s: %w", utils.MaskEndpoint(g.config.Gateway.Endpoint), err)
	}

	g.conn = conn
	g.isConnected = true
	g.done = make(chan struct{})

	g.logger.Info("%s : connected to %s", g.name, utils.MaskEndpoint(g.config.Gateway.Endpoint))

	go g.readLoop(ctx)
	return nil
}

// -----------------------------------------------------------------------------

// Disconnect closes the connection. Live attachments are not detached on the
// wire; the bridge drops them with the session.
func (g *WebSocketGateway) Disconnect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isConnected {
		return nil
	}

	g.isConnected = false
	close(g.done)

	if g.conn != nil {
		err := g.conn.Close()
		g.conn = nil
		if err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	g.logger.Info("%s : disconnected from %s", g.name, utils.MaskEndpoint(g.config.Gateway.Endpoint))
	return nil
}

// -----------------------------------------------------------------------------

// IsConnected returns the connection status
func (g *WebSocketGateway) IsConnected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.isConnected
}

// -----------------------------------------------------------------------------

// GetName returns the client name
func (g *WebSocketGateway) GetName() string {
	return g.name
}

// -----------------------------------------------------------------------------

// GetType returns the transport type
func (g *WebSocketGateway) GetType() string {
	return "websocket"
}

// -----------------------------------------------------------------------------

// OnDisconnect registers the handler invoked once per live attachment when
// the session is lost for good
func (g *WebSocketGateway) OnDisconnect(handler func(models.MAttachHandle)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onDisconnect = handler
}

// -----------------------------------------------------------------------------

// Attach requests one feed from the bridge and waits for its ack. The ctx
// deadline bounds the wait; on timeout the pending subscription is discarded.
func (g *WebSocketGateway) Attach(ctx context.Context, resourceType models.MResourceType, params models.MResourceParams, onEvent func(models.MEvent)) (models.MAttachHandle, error) {
	if !g.IsConnected() {
		return 0, fmt.Errorf("gateway is not connected")
	}

	subID := g.nextSubID.Add(1)
	ack := make(chan error, 1)

	g.mu.Lock()
	g.subs[subID] = &subscription{
		resourceType: resourceType,
		params:       params,
		onEvent:      onEvent,
	}
	g.pendingAcks[subID] = ack
	g.mu.Unlock()

	req := ControlFrame{
		Op:           opAttach,
		SubID:        subID,
		ResourceType: resourceType,
		Params:       &params,
	}
	if err := g.writeFrame(&req); err != nil {
		g.dropSub(subID)
		return 0, fmt.Errorf("failed to send attach for %s: %w", resourceType, err)
	}

	select {
	case err := <-ack:
		if err != nil {
			g.dropSub(subID)
			return 0, fmt.Errorf("attach rejected for %s: %w", resourceType, err)
		}
		return models.MAttachHandle(subID), nil
	case <-ctx.Done():
		g.dropSub(subID)
		return 0, fmt.Errorf("attach not acknowledged for %s: %w", resourceType, ctx.Err())
	}
}

// -----------------------------------------------------------------------------

// Detach cancels one attachment on the wire and waits for the ack
func (g *WebSocketGateway) Detach(ctx context.Context, handle models.MAttachHandle) error {
	subID := uint64(handle)

	g.mu.Lock()
	_, known := g.subs[subID]
	if !known {
		g.mu.Unlock()
		return nil
	}
	delete(g.subs, subID)

	if !g.isConnected {
		// Session already gone, nothing to tell the bridge
		g.mu.Unlock()
		return nil
	}

	ack := make(chan error, 1)
	g.pendingAcks[subID] = ack
	g.mu.Unlock()

	req := ControlFrame{Op: opDetach, SubID: subID}
	if err := g.writeFrame(&req); err != nil {
		g.dropAck(subID)
		return fmt.Errorf("failed to send detach for handle %d: %w", handle, err)
	}

	select {
	case err := <-ack:
		if err != nil {
			return fmt.Errorf("detach rejected for handle %d: %w", handle, err)
		}
		return nil
	case <-ctx.Done():
		g.dropAck(subID)
		return fmt.Errorf("detach not acknowledged for handle %d: %w", handle, ctx.Err())
	}
}

// -----------------------------------------------------------------------------

func (g *WebSocketGateway) writeFrame(frame *ControlFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	g.mu.RLock()
	conn := g.conn
	g.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("connection is nil")
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send frame: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (g *WebSocketGateway) dropSub(subID uint64) {
	g.mu.Lock()
	delete(g.subs, subID)
	delete(g.pendingAcks, subID)
	g.mu.Unlock()
}

func (g *WebSocketGateway) dropAck(subID uint64) {
	g.mu.Lock()
	delete(g.pendingAcks, subID)
	g.mu.Unlock()
}

// -----------------------------------------------------------------------------

// readLoop receives frames until the session dies. Read errors trigger a
// bounded reconnect with re-attach of all live subscriptions; when attempts
// are exhausted every live attachment gets a disconnect notification.
func (g *WebSocketGateway) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.done:
			return
		default:
		}

		g.mu.RLock()
		conn := g.conn
		g.mu.RUnlock()
		if conn == nil {
			return
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			// Check if we are shutting down
			select {
			case <-g.done:
				return
			default:
			}

			g.logger.Error("%s : read error: %v", g.name, err)

			if g.reconnectWithRetries(ctx) {
				continue
			}

			g.fanOutDisconnect()
			return
		}

		if messageType == websocket.TextMessage {
			g.handleFrame(message)
		}
	}
}

// -----------------------------------------------------------------------------

// reconnectWithRetries runs the configured number of reconnect attempts and
// reports whether a new session was established
func (g *WebSocketGateway) reconnectWithRetries(ctx context.Context) bool {
	for attempt := 1; attempt <= g.config.Gateway.ReconnectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-g.done:
			return false
		default:
		}

		g.logger.Info("%s : attempting to reconnect (attempt %d/%d)", g.name, attempt, g.config.Gateway.ReconnectAttempts)
		if g.attemptReconnect(ctx) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// handleFrame routes one inbound frame to its ack waiter or event callback
func (g *WebSocketGateway) handleFrame(data []byte) {
	frame := &InboundFrame{}
	if err := json.Unmarshal(data, frame); err != nil {
		g.logger.Warning("%s : dropping malformed frame: %v", g.name, err)
		return
	}

	if frame.IsControl() {
		g.handleControlFrame(frame)
		return
	}

	g.mu.RLock()
	sub, ok := g.subs[frame.SubID]
	g.mu.RUnlock()
	if !ok {
		// Late event for an already-detached subscription
		g.logger.Debug("%s : dropping event for unknown sub %d", g.name, frame.SubID)
		return
	}

	ev, err := DecodeEvent(frame)
	if err != nil {
		g.logger.Warning("%s : dropping event for sub %d: %v", g.name, frame.SubID, err)
		return
	}

	sub.onEvent(ev)
}

// -----------------------------------------------------------------------------

func (g *WebSocketGateway) handleControlFrame(frame *InboundFrame) {
	g.mu.Lock()
	ack, ok := g.pendingAcks[frame.SubID]
	delete(g.pendingAcks, frame.SubID)
	g.mu.Unlock()

	if !ok {
		g.logger.Debug("%s : unexpected %s for sub %d", g.name, frame.Op, frame.SubID)
		return
	}

	switch frame.Op {
	case opAck:
		ack <- nil
	case opError:
		ack <- fmt.Errorf("%s", frame.Message)
	default:
		ack <- fmt.Errorf("unexpected control op '%s'", frame.Op)
	}
}

// -----------------------------------------------------------------------------

// attemptReconnect redials and re-attaches every live subscription; returns
// true on success
func (g *WebSocketGateway) attemptReconnect(ctx context.Context) bool {
	g.mu.Lock()
	if g.conn != nil {
		g.conn.Close()
		g.conn = nil
	}
	g.mu.Unlock()

	select {
	case <-ctx.Done():
		return false
	case <-g.done:
		return false
	case <-time.After(g.config.ReconnectWait()):
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: g.config.HandshakeTimeout(),
	}

	conn, _, err := dialer.DialContext(ctx, g.config.Gateway.Endpoint, nil)
	if err != nil {
		g.logger.Error("%s : reconnection failed: %v", g.name, err)
		return false
	}

	g.mu.Lock()
	g.conn = conn
	g.mu.Unlock()

	g.logger.Info("%s : reconnected to %s", g.name, utils.MaskEndpoint(g.config.Gateway.Endpoint))
	g.reattachAll()
	return true
}

// -----------------------------------------------------------------------------

// reattachAll replays attach frames for all live subscriptions after a
// reconnect. Acks are not awaited here; a rejected re-attach surfaces as a
// disconnect for that subscription.
func (g *WebSocketGateway) reattachAll() {
	g.mu.RLock()
	subs := make(map[uint64]*subscription, len(g.subs))
	for id, sub := range g.subs {
		subs[id] = sub
	}
	g.mu.RUnlock()

	for id, sub := range subs {
		req := ControlFrame{
			Op:           opAttach,
			SubID:        id,
			ResourceType: sub.resourceType,
			Params:       &sub.params,
		}
		if err := g.writeFrame(&req); err != nil {
			g.logger.Error("%s : failed to re-attach sub %d: %v", g.name, id, err)
		}
	}
}

// -----------------------------------------------------------------------------

// fanOutDisconnect notifies every live attachment that the session is gone
func (g *WebSocketGateway) fanOutDisconnect() {
	g.mu.Lock()
	g.isConnected = false
	handler := g.onDisconnect
	handles := make([]models.MAttachHandle, 0, len(g.subs))
	for id := range g.subs {
		handles = append(handles, models.MAttachHandle(id))
	}
	g.mu.Unlock()

	g.logger.Error("%s : session lost, notifying %d subscriptions", g.name, len(handles))

	if handler == nil {
		return
	}
	for _, handle := range handles {
		handler(handle)
	}
}
