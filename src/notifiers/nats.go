package notifiers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"resource-streamer/src/interfaces"
	"resource-streamer/src/logger"
	"resource-streamer/src/models"

	"github.com/nats-io/nats.go"
)

// -----------------------------------------------------------------------------
// NATSNotifier implements interfaces.INotifier and publishes resource-changed
// notifications on "<prefix>.changed.<type>.<id>"
// -----------------------------------------------------------------------------

type NATSNotifier struct {
	name   string
	config *models.MNATSConfig
	logger *logger.Logger

	useJetStream bool

	mu sync.RWMutex

	nc         *nats.Conn             // NATS core connection
	js         nats.JetStreamContext  // JetStream context (if enabled)
	serializer interfaces.ISerializer // serialize notification before sending

	connected bool
}

// -----------------------------------------------------------------------------

// NewNATSNotifier creates a new NATS notifier instance
func NewNATSNotifier(config *models.MNATSConfig, logger *logger.Logger, serializer interfaces.ISerializer) interfaces.INotifier {
	return &NATSNotifier{
		name:   config.ClientID,
		config: config,
		logger: logger,

		serializer: serializer,
	}
}

// -----------------------------------------------------------------------------

// ResourceChanged publishes one change notification. Fire-and-forget: the
// pump must never stall on a slow broker, so failures are logged and dropped.
func (nn *NATSNotifier) ResourceChanged(desc models.MResourceDescriptor) {
	change := models.MResourceChange{
		URI:          desc.URI,
		ResourceType: desc.ResourceType,
		ResourceID:   desc.ResourceID,
		Timestamp:    time.Now(),
	}

	subject := fmt.Sprintf("changed.%s.%s", desc.ResourceType, sanitizeToken(desc.ResourceID))

	data, err := nn.serializer.Marshal(&change)
	if err != nil {
		nn.logger.Error("%s : failed to serialize change for %s: %v", nn.name, desc.URI, err)
		return
	}

	if nn.useJetStream {
		err = nn.publishJetStream(subject, data)
	} else {
		err = nn.publish(subject, data)
	}

	if err != nil {
		nn.logger.Error("%s : failed to publish change for %s to subject %s: %v",
			nn.name, desc.URI, subject, err)
	}
}

// -----------------------------------------------------------------------------

// publish sends raw data to a NATS core subject
func (nn *NATSNotifier) publish(subject string, data []byte) error {
	if !nn.IsConnected() {
		return fmt.Errorf("nats client not connected")
	}
	return nn.nc.Publish(nn.getSubject(subject), data)
}

// -----------------------------------------------------------------------------

// publishJetStream sends raw data with persistence and delivery acknowledgement
func (nn *NATSNotifier) publishJetStream(subject string, data []byte) error {
	if !nn.IsConnected() {
		return fmt.Errorf("nats client not connected")
	}
	if nn.js == nil {
		return fmt.Errorf("jetstream is not initialized or enabled")
	}

	fullSubject := nn.getSubject(subject)

	_, err := nn.js.Publish(fullSubject, data)
	if err != nil {
		nn.logger.Error("%s : jetstream publish failed for %s: %v", nn.name, fullSubject, err)
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Connect establishes connection to NATS server and sets up JetStream context if configured
func (nn *NATSNotifier) Connect() error {
	nn.mu.Lock()
	defer nn.mu.Unlock()

	if nn.nc != nil && nn.nc.IsConnected() {
		return nil
	}

	opts := []nats.Option{
		nats.Name(nn.config.ClientID),
		nats.Timeout(secondsOr(nn.config.ConnectTimeoutSec, 5*time.Second)),
		nats.ReconnectWait(secondsOr(nn.config.ReconnectWaitSec, 2*time.Second)),
		nats.MaxReconnects(nn.config.MaxReconnects),
		nats.FlusherTimeout(secondsOr(nn.config.FlushTimeoutSec, 5*time.Second)),

		// Connection event handlers
		nats.RetryOnFailedConnect(true),
		nats.ClosedHandler(func(nc *nats.Conn) {
			nn.logger.Error("%s : NATS connection closed unexpectedly", nn.name)
			nn.setConnected(false)
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			nn.logger.Warning("%s : NATS disconnected, attempting reconnect: %v", nn.name, err)
			nn.setConnected(false)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			nn.logger.Info("%s : NATS successfully reconnected to %s", nn.name, nc.ConnectedUrl())
			nn.setConnected(true)
		}),
	}

	var err error
	nn.nc, err = nats.Connect(strings.Join(nn.config.Servers, ","), opts...)
	if err != nil {
		return fmt.Errorf("nats connection failed: %w", err)
	}

	nn.setConnected(true)
	nn.logger.Info("%s : successfully connected to NATS at %s", nn.name, nn.nc.ConnectedUrl())

	if nn.config.JetStream != nil && nn.config.JetStream.Enabled {
		nn.useJetStream = true
		nn.logger.Info("%s : notifier using NATS JetStream for persistent notifications", nn.name)

		nn.js, err = nn.nc.JetStream()
		if err != nil {
			nn.logger.Error("%s : failed to create JetStream context: %v", nn.name, err)
			return fmt.Errorf("jetstream context creation failed: %w", err)
		}

		if err := nn.ensureStreamExists(); err != nil {
			nn.logger.Warning("%s : failed to ensure stream exists: %v (continuing anyway)", nn.name, err)
			// Allow publishing to fail later if the stream really is missing
		}
	} else {
		nn.useJetStream = false
		nn.logger.Info("%s : notifier using NATS Core (fire-and-forget)", nn.name)
	}

	return nil
}

// -----------------------------------------------------------------------------

// ensureStreamExists creates the JetStream stream if it is not there yet
func (nn *NATSNotifier) ensureStreamExists() error {
	if nn.js == nil || nn.config.JetStream == nil {
		return fmt.Errorf("jetstream not initialized")
	}

	streamName := nn.config.JetStream.StreamName
	if streamName == "" {
		return fmt.Errorf("stream name not configured")
	}

	stream, err := nn.js.StreamInfo(streamName)
	if err == nil {
		nn.logger.Info("%s : JetStream stream '%s' already exists with %d subjects",
			nn.name, streamName, len(stream.Config.Subjects))
		return nil
	}

	nn.logger.Info("%s : creating JetStream stream '%s'", nn.name, streamName)

	maxAge := time.Duration(nn.config.JetStream.MaxAgeHours) * time.Hour
	if maxAge == 0 {
		maxAge = 72 * time.Hour
	}

	streamConfig := &nats.StreamConfig{
		Name:       streamName,
		Subjects:   nn.config.JetStream.Subjects,
		Retention:  nats.LimitsPolicy,
		Storage:    nats.FileStorage,
		Replicas:   nn.config.JetStream.Replicas,
		MaxAge:     maxAge,
		MaxMsgs:    nn.config.JetStream.MaxMsgs,
		MaxBytes:   nn.config.JetStream.MaxBytes,
		MaxMsgSize: int32(nn.config.JetStream.MaxMsgSize),
		Discard:    nats.DiscardOld,
	}

	_, err = nn.js.AddStream(streamConfig)
	if err != nil {
		return fmt.Errorf("failed to create stream '%s': %w", streamName, err)
	}

	nn.logger.Info("%s : successfully created JetStream stream '%s' with subjects: %v",
		nn.name, streamName, nn.config.JetStream.Subjects)
	return nil
}

// -----------------------------------------------------------------------------

// Disconnect closes the NATS connection
func (nn *NATSNotifier) Disconnect() error {
	nn.mu.Lock()
	defer nn.mu.Unlock()

	if nn.nc == nil || nn.nc.IsClosed() {
		return nil
	}

	nn.nc.Close()
	nn.setConnected(false)
	nn.logger.Info("%s : NATS connection closed successfully", nn.name)
	return nil
}

// -----------------------------------------------------------------------------

// IsConnected returns connection status
func (nn *NATSNotifier) IsConnected() bool {
	nn.mu.RLock()
	defer nn.mu.RUnlock()
	return nn.connected
}

// -----------------------------------------------------------------------------

// setConnected updates the connection status; called from NATS event handlers
// running on their own goroutines
func (nn *NATSNotifier) setConnected(status bool) {
	nn.connected = status
}

// -----------------------------------------------------------------------------

// getSubject prepends the configured subject prefix if it exists
func (nn *NATSNotifier) getSubject(subject string) string {
	if nn.config.SubjectPrefix != "" {
		return fmt.Sprintf("%s.%s", nn.config.SubjectPrefix, subject)
	}
	return subject
}

// -----------------------------------------------------------------------------

// sanitizeToken makes a resource id safe to embed as one NATS subject token.
// Ids like "EUR.USD" contain the token separator.
func sanitizeToken(id string) string {
	return strings.ReplaceAll(id, ".", "_")
}

// -----------------------------------------------------------------------------

func secondsOr(sec int, fallback time.Duration) time.Duration {
	if sec <= 0 {
		return fallback
	}
	return time.Duration(sec) * time.Second
}
