package streamer

import (
	"testing"
	"time"

	"resource-streamer/src/models"
	"resource-streamer/src/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func insertNewsEntry(t *testing.T, reg *registry.Registry, id string, items []models.MNewsItem) *registry.Entry {
	t.Helper()
	entry, _ := newTestEntry(models.ResourceTickNews, id, models.MResourceParams{Symbol: id})
	if items != nil {
		entry.SetSnapshot(&models.MSnapshot{
			ResourceType: models.ResourceTickNews,
			ResourceID:   id,
			News:         items,
		})
	}
	require.NoError(t, reg.Insert(entry))
	return entry
}

func newsItem(id string, ts time.Time) models.MNewsItem {
	return models.MNewsItem{ArticleID: id, Timestamp: ts, Headline: id}
}

// -----------------------------------------------------------------------------

func TestAggregateEmptyWhenNoResources(t *testing.T) {
	view := NewAggregationView(registry.NewRegistry(), 10)
	_, err := view.Read(models.ResourceTickNews)
	assert.ErrorIs(t, err, ErrEmptyAggregate)
}

func TestAggregateMergesNewestFirst(t *testing.T) {
	reg := registry.NewRegistry()
	base := time.Now()

	insertNewsEntry(t, reg, "AAPL", []models.MNewsItem{
		newsItem("a1", base),
		newsItem("a2", base.Add(2*time.Second)),
	})
	insertNewsEntry(t, reg, "TSLA", []models.MNewsItem{
		newsItem("t1", base.Add(time.Second)),
		newsItem("t2", base.Add(3*time.Second)),
	})

	view := NewAggregationView(reg, 10)
	snap, err := view.Read(models.ResourceTickNews)
	require.NoError(t, err)

	assert.Equal(t, models.WildcardID, snap.ResourceID)
	require.Len(t, snap.News, 4)
	assert.Equal(t, "t2", snap.News[0].ArticleID)
	assert.Equal(t, "a2", snap.News[1].ArticleID)
	assert.Equal(t, "t1", snap.News[2].ArticleID)
	assert.Equal(t, "a1", snap.News[3].ArticleID)
}

func TestAggregateTruncatesToCap(t *testing.T) {
	reg := registry.NewRegistry()
	base := time.Now()

	var items []models.MNewsItem
	for i := 0; i < 8; i++ {
		items = append(items, newsItem(string(rune('a'+i)), base.Add(time.Duration(i)*time.Second)))
	}
	insertNewsEntry(t, reg, "AAPL", items)

	view := NewAggregationView(reg, 3)
	snap, err := view.Read(models.ResourceTickNews)
	require.NoError(t, err)

	require.Len(t, snap.News, 3)
	assert.Equal(t, "h", snap.News[0].ArticleID)
	assert.Equal(t, "f", snap.News[2].ArticleID)
}

func TestAggregateSkipsEntriesWithoutSnapshots(t *testing.T) {
	reg := registry.NewRegistry()
	base := time.Now()

	// Subscribed but no events merged yet
	insertNewsEntry(t, reg, "MSFT", nil)
	insertNewsEntry(t, reg, "AAPL", []models.MNewsItem{newsItem("a1", base)})

	view := NewAggregationView(reg, 10)
	snap, err := view.Read(models.ResourceTickNews)
	require.NoError(t, err)
	require.Len(t, snap.News, 1)
	assert.Equal(t, "a1", snap.News[0].ArticleID)
}

func TestAggregateSeesLateJoiners(t *testing.T) {
	reg := registry.NewRegistry()
	view := NewAggregationView(reg, 10)

	_, err := view.Read(models.ResourceTickNews)
	require.ErrorIs(t, err, ErrEmptyAggregate)

	// A resource started after the first read shows up on the next one
	insertNewsEntry(t, reg, "AAPL", []models.MNewsItem{newsItem("a1", time.Now())})

	snap, err := view.Read(models.ResourceTickNews)
	require.NoError(t, err)
	assert.Len(t, snap.News, 1)
}
