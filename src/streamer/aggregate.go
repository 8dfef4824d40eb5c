package streamer

import (
	"sort"

	"resource-streamer/src/models"
	"resource-streamer/src/registry"
)

// -----------------------------------------------------------------------------
// AggregationView computes the virtual wildcard resource lazily: a wildcard
// read enumerates the live entries of the requested type and merges their
// ring-buffered items at read time. Nothing is maintained incrementally, so a
// resource started after the first wildcard read shows up on the next one
// with no extra bookkeeping.
// -----------------------------------------------------------------------------

type AggregationView struct {
	registry *registry.Registry
	cap      int
}

// -----------------------------------------------------------------------------

// NewAggregationView builds the view over the shared registry. cap bounds the
// number of items a wildcard read returns.
func NewAggregationView(reg *registry.Registry, cap int) *AggregationView {
	if cap <= 0 {
		cap = 100
	}
	return &AggregationView{
		registry: reg,
		cap:      cap,
	}
}

// -----------------------------------------------------------------------------

// Read merges the snapshots of every live resource of resourceType, newest
// first, truncated to the configured cap. Zero live resources of the type is
// reported as ErrEmptyAggregate: distinct from NotSubscribed, because the
// wildcard itself is never subscribed.
func (v *AggregationView) Read(resourceType models.MResourceType) (*models.MSnapshot, error) {
	entries := v.registry.ListByType(resourceType)
	if len(entries) == 0 {
		return nil, ErrEmptyAggregate
	}

	var merged []models.MNewsItem
	for _, entry := range entries {
		snap := entry.Snapshot()
		if snap == nil {
			continue
		}
		merged = append(merged, snap.News...)
	}

	// Newest first across all underliers
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	if len(merged) > v.cap {
		merged = merged[:v.cap]
	}

	return &models.MSnapshot{
		ResourceType: resourceType,
		ResourceID:   models.WildcardID,
		News:         merged,
	}, nil
}
