package notifiers

import (
	"resource-streamer/src/interfaces"
	"resource-streamer/src/models"
)

// -----------------------------------------------------------------------------
// NoopNotifier is used when NATS is disabled in the configuration
// -----------------------------------------------------------------------------

type NoopNotifier struct{}

// NewNoopNotifier creates a notifier that drops all notifications
func NewNoopNotifier() interfaces.INotifier {
	return &NoopNotifier{}
}

func (n *NoopNotifier) ResourceChanged(desc models.MResourceDescriptor) {}

func (n *NoopNotifier) Connect() error { return nil }

func (n *NoopNotifier) Disconnect() error { return nil }

func (n *NoopNotifier) IsConnected() bool { return false }
