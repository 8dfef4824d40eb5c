package config

import (
	"fmt"
	"os"
	"time"

	"resource-streamer/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Default caps and timeouts applied when the YAML file leaves them unset
const (
	DefaultScheme            = "tws"
	DefaultHeadlineCap       = 100
	DefaultAggregateCap      = 100
	DefaultChannelBuffer     = 256
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultAttachTimeout     = 5 * time.Second
	DefaultDetachTimeout     = 5 * time.Second
	DefaultReconnectAttempts = 3
	DefaultReconnectWait     = 1 * time.Second
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	return NewConfigFromModel(&modelConfig)
}

// -----------------------------------------------------------------------------

// NewConfigFromModel wraps an already-built models.MConfig (used by tests and
// by the probe harness, which assembles its config programmatically).
func NewConfigFromModel(modelConfig *models.MConfig) (*Config, error) {
	config := &Config{MConfig: modelConfig}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills the optional knobs that are zero after unmarshaling
func (c *Config) applyDefaults() {
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	if c.Serialization == "" {
		c.Serialization = "json"
	}
	if c.Streaming.HeadlineCap <= 0 {
		c.Streaming.HeadlineCap = DefaultHeadlineCap
	}
	if c.Streaming.AggregateCap <= 0 {
		c.Streaming.AggregateCap = DefaultAggregateCap
	}
	if c.Gateway.ChannelBuffer <= 0 {
		c.Gateway.ChannelBuffer = DefaultChannelBuffer
	}
	if c.Gateway.ReconnectAttempts <= 0 {
		c.Gateway.ReconnectAttempts = DefaultReconnectAttempts
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation and checks the gateway,
// NATS and server sub-configs.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config name cannot be empty")
	}

	// Validate application ports
	if c.RestPort <= 1024 || c.RestPort > 65535 {
		return fmt.Errorf("invalid REST port number: %d (must be between 1025 and 65535)", c.RestPort)
	}
	if c.GRPCPort <= 1024 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port number: %d (must be between 1025 and 65535)", c.GRPCPort)
	}

	// Validate gateway
	if c.Gateway.Endpoint == "" {
		return fmt.Errorf("gateway endpoint cannot be empty")
	}

	// Validate serialization choice
	if c.Serialization != "json" && c.Serialization != "gob" {
		return fmt.Errorf("invalid serialization '%s' (must be 'json' or 'gob')", c.Serialization)
	}

	// Validation of NATS config (minimal check, only when enabled)
	if c.NATS.Enabled && len(c.NATS.Servers) == 0 {
		return fmt.Errorf("NATS servers list cannot be empty when NATS is enabled")
	}

	return nil
}

// -----------------------------------------------------------------------------
// Duration helpers (the YAML file carries integer seconds)
// -----------------------------------------------------------------------------

func (c *Config) HandshakeTimeout() time.Duration {
	return secondsOr(c.Gateway.HandshakeTimeoutSec, DefaultHandshakeTimeout)
}

func (c *Config) AttachTimeout() time.Duration {
	return secondsOr(c.Gateway.AttachTimeoutSec, DefaultAttachTimeout)
}

func (c *Config) DetachTimeout() time.Duration {
	return secondsOr(c.Gateway.DetachTimeoutSec, DefaultDetachTimeout)
}

func (c *Config) ReconnectWait() time.Duration {
	return secondsOr(c.Gateway.ReconnectWaitSec, DefaultReconnectWait)
}

// -----------------------------------------------------------------------------

func secondsOr(sec int, fallback time.Duration) time.Duration {
	if sec <= 0 {
		return fallback
	}
	return time.Duration(sec) * time.Second
}
