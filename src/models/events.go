package models

import (
	"time"
)

// -----------------------------------------------------------------------------

// EventKind defines the type of a streaming event
type MEventKind string

const (
	EventKindPriceTick    MEventKind = "PRICE_TICK"
	EventKindPosition     MEventKind = "POSITION_UPDATE"
	EventKindAccountValue MEventKind = "ACCOUNT_VALUE"
	EventKindHeadline     MEventKind = "NEWS_HEADLINE"
	EventKindBulletin     MEventKind = "BULLETIN"

	// EventKindDisconnect is the terminal poison event: the upstream gateway
	// lost its feed and no further events will arrive for this subscription.
	EventKindDisconnect MEventKind = "DISCONNECT"
)

// -----------------------------------------------------------------------------

// MEvent represents a single timestamped event delivered by the trading gateway.
// This single struct handles all event kinds by utilizing omitempty on the
// kind-specific payload pointers; exactly one payload is set per event.
type MEvent struct {
	Kind      MEventKind `json:"kind"`
	Timestamp time.Time  `json:"timestamp"`

	PriceTick    *MPriceTick          `json:"price_tick,omitempty"`
	Position     *MPositionUpdate     `json:"position,omitempty"`
	AccountValue *MAccountValueUpdate `json:"account_value,omitempty"`
	Headline     *MNewsHeadline       `json:"headline,omitempty"`
	Bulletin     *MBulletin           `json:"bulletin,omitempty"`
}

// -----------------------------------------------------------------------------

// MPriceTick carries a partial market data update. Fields are pointers because
// the gateway sends only the fields that changed; absent fields must not
// overwrite previously known values.
type MPriceTick struct {
	Bid     *float64 `json:"bid,omitempty"`
	Ask     *float64 `json:"ask,omitempty"`
	Last    *float64 `json:"last,omitempty"`
	Volume  *float64 `json:"volume,omitempty"`
	BidSize *float64 `json:"bid_size,omitempty"`
	AskSize *float64 `json:"ask_size,omitempty"`
	High    *float64 `json:"high,omitempty"`
	Low     *float64 `json:"low,omitempty"`
	Close   *float64 `json:"close,omitempty"`
}

// -----------------------------------------------------------------------------

// MPositionUpdate replaces the full row for one symbol in a portfolio
type MPositionUpdate struct {
	Account       string  `json:"account"`
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	AvgCost       float64 `json:"avg_cost"`
	MarketPrice   float64 `json:"market_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPNL float64 `json:"unrealized_pnl"`
	RealizedPNL   float64 `json:"realized_pnl"`
}

// -----------------------------------------------------------------------------

// MAccountValueUpdate replaces the value for one account tag (e.g. "NetLiquidation")
type MAccountValueUpdate struct {
	Account  string `json:"account"`
	Tag      string `json:"tag"`
	Value    string `json:"value"`
	Currency string `json:"currency,omitempty"`
}

// -----------------------------------------------------------------------------

// MNewsHeadline is a real-time news headline tick for a symbol
type MNewsHeadline struct {
	ProviderCode string    `json:"provider_code"`
	ArticleID    string    `json:"article_id"`
	Headline     string    `json:"headline"`
	Time         time.Time `json:"time"`
	ExtraData    string    `json:"extra_data,omitempty"`
}

// -----------------------------------------------------------------------------

// MBulletin is a gateway system message or trading alert
type MBulletin struct {
	MsgID        int    `json:"msg_id"`
	MsgType      string `json:"msg_type"`
	Message      string `json:"message"`
	OrigExchange string `json:"orig_exchange,omitempty"`
}
