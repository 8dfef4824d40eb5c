package models

import (
	"time"
)

// -----------------------------------------------------------------------------

// MResourceType identifies one family of subscribable live feeds
type MResourceType string

const (
	ResourceMarketData    MResourceType = "market_data"
	ResourcePortfolio     MResourceType = "portfolio"
	ResourceNewsBulletins MResourceType = "news_bulletins"
	ResourceTickNews      MResourceType = "tick_news"
	ResourceBroadtapeNews MResourceType = "broadtape_news"
)

// WildcardID is the virtual aggregate identifier. It is readable but never
// startable as a standalone subscription.
const WildcardID = "*"

// -----------------------------------------------------------------------------

// Valid reports whether t is one of the known resource types
func (t MResourceType) Valid() bool {
	switch t {
	case ResourceMarketData, ResourcePortfolio, ResourceNewsBulletins,
		ResourceTickNews, ResourceBroadtapeNews:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------

// MResourceParams holds the structured parameters a resource is started with.
// Which fields are meaningful depends on the resource type.
type MResourceParams struct {
	Symbol      string `json:"symbol,omitempty"`
	SecType     string `json:"sec_type,omitempty"` // STK, CASH, OPT, FUT...
	Exchange    string `json:"exchange,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Account     string `json:"account,omitempty"`
	AllMessages bool   `json:"all_messages,omitempty"`
}

// -----------------------------------------------------------------------------

// MResourceDescriptor identifies one subscribable feed
type MResourceDescriptor struct {
	ResourceType MResourceType   `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	URI          string          `json:"uri"`
	Params       MResourceParams `json:"params"`
	CreatedAt    time.Time       `json:"created_at"`
}

// -----------------------------------------------------------------------------

// MResourceStatus is the lifecycle status of a live subscription
type MResourceStatus string

const (
	StatusSubscribed MResourceStatus = "SUBSCRIBED"
	StatusErrored    MResourceStatus = "ERRORED"
)

// -----------------------------------------------------------------------------

// MStartStatus is the outcome of a start call. already_subscribed is an
// informational outcome, not a failure.
type MStartStatus string

const (
	StartSubscribed        MStartStatus = "subscribed"
	StartAlreadySubscribed MStartStatus = "already_subscribed"
)

// -----------------------------------------------------------------------------

// MResourceInfo is one row of the list() output
type MResourceInfo struct {
	MResourceDescriptor
	Status        MResourceStatus `json:"status"`
	LastEventTime time.Time       `json:"last_event_time"`
}

// -----------------------------------------------------------------------------

// MAttachHandle is the opaque handle returned by the gateway for one
// attachment; detach requires it back.
type MAttachHandle uint64

// -----------------------------------------------------------------------------

// MSnapshot is the last materialized state of one resource, suitable for a
// synchronous read. It is immutable once published: the pump builds a fresh
// value per merge and readers only ever see complete ones.
type MSnapshot struct {
	ResourceType MResourceType `json:"resource_type"`
	ResourceID   string        `json:"resource_id"`
	UpdatedAt    time.Time     `json:"updated_at,omitzero"`

	// Tick is set for market_data resources
	Tick *MTickSnapshot `json:"tick,omitempty"`

	// Portfolio is set for portfolio resources
	Portfolio *MPortfolioSnapshot `json:"portfolio,omitempty"`

	// News holds the ring-buffered recent items for news_bulletins,
	// tick_news and broadtape_news resources (oldest first). For the
	// virtual wildcard resource the items are merged newest first.
	News []MNewsItem `json:"news,omitempty"`

	// EmptyAggregate marks a wildcard read with zero underlying concrete
	// subscriptions; distinct from an error.
	EmptyAggregate bool `json:"empty_aggregate,omitempty"`
}

// -----------------------------------------------------------------------------

// MTickSnapshot is the merged view of all price ticks received so far.
// Nil fields have never been reported by the gateway.
type MTickSnapshot struct {
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

// MPortfolioSnapshot is the merged portfolio state for one account
type MPortfolioSnapshot struct {
	Account       string                         `json:"account"`
	Positions     map[string]MPositionUpdate     `json:"positions"`      // keyed by symbol
	AccountValues map[string]MAccountValueUpdate `json:"account_values"` // keyed by tag
}

// -----------------------------------------------------------------------------

// MNewsItem is one entry of a news history buffer. It covers both headline
// ticks and bulletins by utilizing omitempty on the kind-specific fields,
// the same way MEvent does.
type MNewsItem struct {
	Symbol    string    `json:"symbol,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Headline fields
	ProviderCode string `json:"provider_code,omitempty"`
	ArticleID    string `json:"article_id,omitempty"`
	Headline     string `json:"headline,omitempty"`

	// Bulletin fields
	MsgID   int    `json:"msg_id,omitempty"`
	MsgType string `json:"msg_type,omitempty"`
	Message string `json:"message,omitempty"`
}

// -----------------------------------------------------------------------------

// MResourceChange is the payload published on the notification bus whenever a
// resource's snapshot is replaced
type MResourceChange struct {
	URI          string        `json:"uri"`
	ResourceType MResourceType `json:"resource_type"`
	ResourceID   string        `json:"resource_id"`
	Timestamp    time.Time     `json:"timestamp"`
}
