package notifiers

import (
	"testing"
	"time"

	"resource-streamer/src/models"

	"github.com/stretchr/testify/assert"
)

// -----------------------------------------------------------------------------

func TestSanitizeToken(t *testing.T) {
	// "EUR.USD" would otherwise span two subject tokens
	assert.Equal(t, "EUR_USD", sanitizeToken("EUR.USD"))
	assert.Equal(t, "AAPL", sanitizeToken("AAPL"))
}

func TestSecondsOr(t *testing.T) {
	assert.Equal(t, 5*time.Second, secondsOr(0, 5*time.Second))
	assert.Equal(t, 5*time.Second, secondsOr(-1, 5*time.Second))
	assert.Equal(t, 8*time.Second, secondsOr(8, 5*time.Second))
}

func TestNoopNotifier(t *testing.T) {
	n := NewNoopNotifier()
	assert.NoError(t, n.Connect())
	assert.False(t, n.IsConnected())

	// Must be safe to call without a broker
	n.ResourceChanged(models.MResourceDescriptor{URI: "tws://market_data/AAPL"})
	assert.NoError(t, n.Disconnect())
}
