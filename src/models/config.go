package models

// -----------------------------------------------------------------------------

// MConfig Structure
type MConfig struct {
	Name     string `yaml:"name"`
	Scheme   string `yaml:"scheme"` // resource URI scheme, e.g. "tws"
	LogLevel string `yaml:"log_level"`

	RestHost string `yaml:"rest_host"`
	RestPort int    `yaml:"rest_port"`
	GRPCHost string `yaml:"grpc_host"`
	GRPCPort int    `yaml:"grpc_port"`

	Serialization string `yaml:"serialization"` // "json" or "gob"

	Gateway   MGatewayConfig   `yaml:"gateway"`
	NATS      MNATSConfig      `yaml:"nats"`
	Streaming MStreamingConfig `yaml:"streaming"`
}

// -----------------------------------------------------------------------------

// MGatewayConfig configures the trading-gateway WebSocket client.
// Timeouts are expressed in seconds in the YAML file.
type MGatewayConfig struct {
	Endpoint            string `yaml:"endpoint"`
	HandshakeTimeoutSec int    `yaml:"handshake_timeout_sec"`
	AttachTimeoutSec    int    `yaml:"attach_timeout_sec"`
	DetachTimeoutSec    int    `yaml:"detach_timeout_sec"`
	ReconnectAttempts   int    `yaml:"reconnect_attempts"`
	ReconnectWaitSec    int    `yaml:"reconnect_wait_sec"`
	ChannelBuffer       int    `yaml:"channel_buffer"` // per-subscription event queue size
}

// -----------------------------------------------------------------------------

// MNATSConfig configures the resource-changed notification publisher
type MNATSConfig struct {
	Enabled           bool     `yaml:"enabled"`
	Servers           []string `yaml:"servers"`
	ClientID          string   `yaml:"client_id"`
	SubjectPrefix     string   `yaml:"subject_prefix"`
	ConnectTimeoutSec int      `yaml:"connect_timeout_sec"`
	ReconnectWaitSec  int      `yaml:"reconnect_wait_sec"`
	MaxReconnects     int      `yaml:"max_reconnects"`
	FlushTimeoutSec   int      `yaml:"flush_timeout_sec"`

	JetStream *MJetStreamConfig `yaml:"jetstream,omitempty"`
}

// -----------------------------------------------------------------------------

// MJetStreamConfig enables persistent publishing of change notifications
type MJetStreamConfig struct {
	Enabled     bool     `yaml:"enabled"`
	StreamName  string   `yaml:"stream_name"`
	Subjects    []string `yaml:"subjects"`
	Replicas    int      `yaml:"replicas"`
	MaxAgeHours int      `yaml:"max_age_hours"`
	MaxMsgs     int64    `yaml:"max_msgs"`
	MaxBytes    int64    `yaml:"max_bytes"`
	MaxMsgSize  int      `yaml:"max_msg_size"`
}

// -----------------------------------------------------------------------------

// MStreamingConfig holds the subsystem caps
type MStreamingConfig struct {
	// HeadlineCap is the per-resource ring buffer capacity for
	// headlines and bulletins
	HeadlineCap int `yaml:"headline_cap"`

	// AggregateCap is the maximum number of items returned by a
	// wildcard read
	AggregateCap int `yaml:"aggregate_cap"`
}
