package streamer

import (
	"fmt"
	"strings"

	"resource-streamer/src/models"
)

// -----------------------------------------------------------------------------
// Resource id derivation: one small pure function per resource type, mapping
// structured params to the canonical id. Deterministic: the same params always
// derive the same id, which is what makes start idempotent.
// -----------------------------------------------------------------------------

// Fixed ids for the singleton resources
const (
	BulletinsResourceID = "bulletins"
	BroadtapeResourceID = "broadtape"
)

// SecType value marking a currency pair instrument
const secTypeForex = "CASH"

// -----------------------------------------------------------------------------

// DeriveResourceID computes the canonical resource id for (type, params)
func DeriveResourceID(resourceType models.MResourceType, params models.MResourceParams) (string, error) {
	switch resourceType {
	case models.ResourceMarketData:
		return deriveMarketDataID(params)
	case models.ResourcePortfolio:
		return derivePortfolioID(params)
	case models.ResourceTickNews:
		return deriveTickNewsID(params)
	case models.ResourceNewsBulletins:
		return BulletinsResourceID, nil
	case models.ResourceBroadtapeNews:
		return BroadtapeResourceID, nil
	default:
		return "", fmt.Errorf("%w: unknown resource type '%s'", ErrInvalidResource, resourceType)
	}
}

// -----------------------------------------------------------------------------

// deriveMarketDataID: bare symbol for stocks, SYMBOL.CURRENCY for currency
// pairs, where the plain symbol would be ambiguous (USD alone names no pair).
func deriveMarketDataID(params models.MResourceParams) (string, error) {
	if params.Symbol == "" {
		return "", fmt.Errorf("%w: market_data requires a symbol", ErrInvalidResource)
	}

	symbol := strings.ToUpper(params.Symbol)
	if strings.EqualFold(params.SecType, secTypeForex) {
		if params.Currency == "" {
			return "", fmt.Errorf("%w: currency pair requires a currency", ErrInvalidResource)
		}
		return symbol + "." + strings.ToUpper(params.Currency), nil
	}
	return symbol, nil
}

// -----------------------------------------------------------------------------

// derivePortfolioID: the account code
func derivePortfolioID(params models.MResourceParams) (string, error) {
	if params.Account == "" {
		return "", fmt.Errorf("%w: portfolio requires an account", ErrInvalidResource)
	}
	return params.Account, nil
}

// -----------------------------------------------------------------------------

// deriveTickNewsID: the symbol. The wildcard never derives: it is a read-time
// view, not a subscription.
func deriveTickNewsID(params models.MResourceParams) (string, error) {
	if params.Symbol == "" {
		return "", fmt.Errorf("%w: tick_news requires a symbol", ErrInvalidResource)
	}
	if params.Symbol == models.WildcardID {
		return "", ErrWildcardNotStartable
	}
	return strings.ToUpper(params.Symbol), nil
}

// -----------------------------------------------------------------------------

// ResourceURI renders the canonical identifier grammar:
// <scheme>://<resource_type>/<resource_id>
func ResourceURI(scheme string, resourceType models.MResourceType, resourceID string) string {
	return fmt.Sprintf("%s://%s/%s", scheme, resourceType, resourceID)
}
