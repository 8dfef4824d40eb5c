package interfaces

import "resource-streamer/src/models"

// -----------------------------------------------------------------------------

// INotifier defines the interface for publishing resource-changed notifications
type INotifier interface {
	// ResourceChanged announces that the snapshot for desc was replaced.
	// Fire-and-forget: implementations must not block the caller on
	// delivery.
	ResourceChanged(desc models.MResourceDescriptor)

	// Connect establishes connection to the message broker
	Connect() error

	// Disconnect closes the connection to the message broker
	Disconnect() error

	// IsConnected returns the current connection status
	IsConnected() bool
}
