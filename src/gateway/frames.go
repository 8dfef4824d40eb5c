package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"resource-streamer/src/models"
)

// -----------------------------------------------------------------------------
// Wire frames exchanged with the trading-gateway bridge. Outbound control
// frames carry an op; inbound frames are either control acks or data frames
// keyed by sub_id and kind.
// -----------------------------------------------------------------------------

const (
	opAttach = "attach"
	opDetach = "detach"
	opAck    = "ack"
	opError  = "error"
)

// Wire event kinds as the bridge emits them
const (
	wireKindPriceTick    = "price_tick"
	wireKindPosition     = "position"
	wireKindAccountValue = "account_value"
	wireKindHeadline     = "headline"
	wireKindBulletin     = "bulletin"
)

// -----------------------------------------------------------------------------

// ControlFrame is an outbound attach/detach request
type ControlFrame struct {
	Op           string                 `json:"op"`
	SubID        uint64                 `json:"sub_id"`
	ResourceType models.MResourceType   `json:"resource_type,omitempty"`
	Params       *models.MResourceParams `json:"params,omitempty"`
}

// -----------------------------------------------------------------------------

// InboundFrame is everything the bridge sends: control acks (op set) and
// data frames (kind set). Data stays raw until the kind is known.
type InboundFrame struct {
	Op        string          `json:"op,omitempty"`
	SubID     uint64          `json:"sub_id"`
	Kind      string          `json:"kind,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitzero"`
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// IsControl reports whether the frame is a control ack rather than a data frame
func (f *InboundFrame) IsControl() bool {
	return f.Op != ""
}

// -----------------------------------------------------------------------------

// DecodeEvent converts a data frame into a typed event. The frame's timestamp
// is used when set, otherwise receipt time stands in.
func DecodeEvent(f *InboundFrame) (models.MEvent, error) {
	ev := models.MEvent{Timestamp: f.Timestamp}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	switch f.Kind {
	case wireKindPriceTick:
		payload := &models.MPriceTick{}
		if err := json.Unmarshal(f.Data, payload); err != nil {
			return ev, fmt.Errorf("malformed %s frame: %w", f.Kind, err)
		}
		ev.Kind = models.EventKindPriceTick
		ev.PriceTick = payload

	case wireKindPosition:
		payload := &models.MPositionUpdate{}
		if err := json.Unmarshal(f.Data, payload); err != nil {
			return ev, fmt.Errorf("malformed %s frame: %w", f.Kind, err)
		}
		ev.Kind = models.EventKindPosition
		ev.Position = payload

	case wireKindAccountValue:
		payload := &models.MAccountValueUpdate{}
		if err := json.Unmarshal(f.Data, payload); err != nil {
			return ev, fmt.Errorf("malformed %s frame: %w", f.Kind, err)
		}
		ev.Kind = models.EventKindAccountValue
		ev.AccountValue = payload

	case wireKindHeadline:
		payload := &models.MNewsHeadline{}
		if err := json.Unmarshal(f.Data, payload); err != nil {
			return ev, fmt.Errorf("malformed %s frame: %w", f.Kind, err)
		}
		ev.Kind = models.EventKindHeadline
		ev.Headline = payload

	case wireKindBulletin:
		payload := &models.MBulletin{}
		if err := json.Unmarshal(f.Data, payload); err != nil {
			return ev, fmt.Errorf("malformed %s frame: %w", f.Kind, err)
		}
		ev.Kind = models.EventKindBulletin
		ev.Bulletin = payload

	default:
		return ev, fmt.Errorf("unknown event kind '%s'", f.Kind)
	}

	return ev, nil
}
