package interfaces

import (
	"context"

	"resource-streamer/src/models"
)

// -----------------------------------------------------------------------------

// IGatewayClient defines the boundary to the trading-API collaborator that
// supplies push events and attach/detach primitives. The onEvent callback is
// invoked from the gateway's own dispatch goroutine and must return quickly;
// implementations on the consuming side only enqueue.
type IGatewayClient interface {
	// Connect establishes the gateway session
	Connect(ctx context.Context) error

	// Disconnect closes the session
	Disconnect() error

	// IsConnected returns the session status
	IsConnected() bool

	// GetName returns the client name
	GetName() string

	// GetType returns the transport type
	GetType() string

	// Attach subscribes one feed and returns the opaque handle for it.
	// Events for the feed are delivered through onEvent until Detach.
	Attach(ctx context.Context, resourceType models.MResourceType, params models.MResourceParams, onEvent func(models.MEvent)) (models.MAttachHandle, error)

	// Detach cancels one attachment. Detaching an unknown handle is a no-op.
	Detach(ctx context.Context, handle models.MAttachHandle) error

	// OnDisconnect registers the handler invoked, once per live handle,
	// when the gateway session is lost for good.
	OnDisconnect(handler func(handle models.MAttachHandle))
}
