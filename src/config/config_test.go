package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"resource-streamer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func validModel() *models.MConfig {
	return &models.MConfig{
		Name:     "test",
		RestPort: 8090,
		GRPCPort: 50051,
		Gateway: models.MGatewayConfig{
			Endpoint: "ws://127.0.0.1:5000/bridge",
		},
	}
}

// -----------------------------------------------------------------------------

func TestDefaultsApplied(t *testing.T) {
	cfg, err := NewConfigFromModel(validModel())
	require.NoError(t, err)

	assert.Equal(t, "tws", cfg.Scheme)
	assert.Equal(t, "json", cfg.Serialization)
	assert.Equal(t, DefaultHeadlineCap, cfg.Streaming.HeadlineCap)
	assert.Equal(t, DefaultAggregateCap, cfg.Streaming.AggregateCap)
	assert.Equal(t, DefaultChannelBuffer, cfg.Gateway.ChannelBuffer)
	assert.Equal(t, DefaultAttachTimeout, cfg.AttachTimeout())
	assert.Equal(t, DefaultHandshakeTimeout, cfg.HandshakeTimeout())
}

func TestDurationHelpersUseConfiguredSeconds(t *testing.T) {
	model := validModel()
	model.Gateway.AttachTimeoutSec = 7
	model.Gateway.DetachTimeoutSec = 2
	model.Gateway.ReconnectWaitSec = 3

	cfg, err := NewConfigFromModel(model)
	require.NoError(t, err)

	assert.Equal(t, 7*time.Second, cfg.AttachTimeout())
	assert.Equal(t, 2*time.Second, cfg.DetachTimeout())
	assert.Equal(t, 3*time.Second, cfg.ReconnectWait())
}

func TestValidateRejectsEmptyName(t *testing.T) {
	model := validModel()
	model.Name = ""
	_, err := NewConfigFromModel(model)
	assert.Error(t, err)
}

func TestValidateRejectsBadPorts(t *testing.T) {
	model := validModel()
	model.RestPort = 80
	_, err := NewConfigFromModel(model)
	assert.Error(t, err)

	model = validModel()
	model.GRPCPort = 70000
	_, err = NewConfigFromModel(model)
	assert.Error(t, err)
}

func TestValidateRejectsMissingEndpoint(t *testing.T) {
	model := validModel()
	model.Gateway.Endpoint = ""
	_, err := NewConfigFromModel(model)
	assert.Error(t, err)
}

func TestValidateRejectsUnknownSerialization(t *testing.T) {
	model := validModel()
	model.Serialization = "xml"
	_, err := NewConfigFromModel(model)
	assert.Error(t, err)
}

func TestValidateRejectsNATSWithoutServers(t *testing.T) {
	model := validModel()
	model.NATS.Enabled = true
	_, err := NewConfigFromModel(model)
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestNewConfigFromYAML(t *testing.T) {
	yaml := `
name: streamer
scheme: ibg
rest_port: 8090
grpc_port: 50051
serialization: gob
gateway:
  endpoint: ws://127.0.0.1:5000/bridge
  attach_timeout_sec: 15
nats:
  enabled: true
  servers:
    - nats://127.0.0.1:4222
  client_id: streamer
streaming:
  headline_cap: 50
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "streamer", cfg.Name)
	assert.Equal(t, "ibg", cfg.Scheme)
	assert.Equal(t, "gob", cfg.Serialization)
	assert.Equal(t, 15*time.Second, cfg.AttachTimeout())
	assert.Equal(t, 50, cfg.Streaming.HeadlineCap)
	assert.True(t, cfg.NATS.Enabled)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig("/nonexistent/config.yaml")
	assert.Error(t, err)
}
