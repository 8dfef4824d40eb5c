package streamer

import (
	"context"
	"testing"
	"time"

	"resource-streamer/src/logger"
	"resource-streamer/src/models"
	"resource-streamer/src/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newTestEntry(resourceType models.MResourceType, resourceID string, params models.MResourceParams) (*registry.Entry, chan models.MEvent) {
	events := make(chan models.MEvent, 16)
	desc := models.MResourceDescriptor{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		URI:          ResourceURI("tws", resourceType, resourceID),
		Params:       params,
		CreatedAt:    time.Now(),
	}
	return registry.NewEntry(desc, 1, events), events
}

func startPump(t *testing.T, entry *registry.Entry, headlineCap int) context.CancelFunc {
	t.Helper()
	cfg := testConfig(t)
	log := logger.NewLogger(cfg, "test")

	ctx, cancel := context.WithCancel(context.Background())
	go newStreamPump(entry, &recordNotifier{}, log, headlineCap).run(ctx)
	return cancel
}

func waitSnapshot(t *testing.T, entry *registry.Entry, ok func(*models.MSnapshot) bool) *models.MSnapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := entry.Snapshot()
		return snap != nil && ok(snap)
	}, time.Second, 5*time.Millisecond)
	return entry.Snapshot()
}

// -----------------------------------------------------------------------------
// Merge semantics
// -----------------------------------------------------------------------------

func TestPumpMergesPartialTicks(t *testing.T) {
	entry, events := newTestEntry(models.ResourceMarketData, "AAPL", models.MResourceParams{Symbol: "AAPL"})
	cancel := startPump(t, entry, 4)
	defer cancel()

	events <- models.MEvent{
		Kind:      models.EventKindPriceTick,
		Timestamp: time.Now(),
		PriceTick: &models.MPriceTick{Bid: ptr(100.0), Ask: ptr(100.2)},
	}
	// Second update carries only the bid; the ask must survive
	events <- models.MEvent{
		Kind:      models.EventKindPriceTick,
		Timestamp: time.Now(),
		PriceTick: &models.MPriceTick{Bid: ptr(100.1)},
	}

	snap := waitSnapshot(t, entry, func(s *models.MSnapshot) bool {
		return s.Tick != nil && s.Tick.Bid != nil && *s.Tick.Bid == 100.1
	})
	require.NotNil(t, snap.Tick.Ask)
	assert.Equal(t, 100.2, *snap.Tick.Ask)
}

func TestPumpReplacesPositionRows(t *testing.T) {
	entry, events := newTestEntry(models.ResourcePortfolio, "DU111", models.MResourceParams{Account: "DU111"})
	cancel := startPump(t, entry, 4)
	defer cancel()

	events <- models.MEvent{
		Kind:      models.EventKindPosition,
		Timestamp: time.Now(),
		Position:  &models.MPositionUpdate{Account: "DU111", Symbol: "AAPL", Quantity: 100, AvgCost: 150},
	}
	events <- models.MEvent{
		Kind:      models.EventKindPosition,
		Timestamp: time.Now(),
		Position:  &models.MPositionUpdate{Account: "DU111", Symbol: "AAPL", Quantity: 50, AvgCost: 155},
	}
	events <- models.MEvent{
		Kind:         models.EventKindAccountValue,
		Timestamp:    time.Now(),
		AccountValue: &models.MAccountValueUpdate{Account: "DU111", Tag: "NetLiquidation", Value: "250000", Currency: "USD"},
	}

	snap := waitSnapshot(t, entry, func(s *models.MSnapshot) bool {
		return s.Portfolio != nil && len(s.Portfolio.AccountValues) == 1
	})

	require.Len(t, snap.Portfolio.Positions, 1)
	assert.Equal(t, 50.0, snap.Portfolio.Positions["AAPL"].Quantity)
	assert.Equal(t, "250000", snap.Portfolio.AccountValues["NetLiquidation"].Value)
	assert.Equal(t, "DU111", snap.Portfolio.Account)
}

func TestPumpBoundsHeadlineHistory(t *testing.T) {
	entry, events := newTestEntry(models.ResourceTickNews, "AAPL", models.MResourceParams{Symbol: "AAPL"})
	cancel := startPump(t, entry, 3)
	defer cancel()

	base := time.Now()
	for i := 0; i < 5; i++ {
		events <- models.MEvent{
			Kind:      models.EventKindHeadline,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Headline:  &models.MNewsHeadline{ArticleID: string(rune('a' + i)), Headline: "h"},
		}
	}

	snap := waitSnapshot(t, entry, func(s *models.MSnapshot) bool {
		return len(s.News) == 3 && s.News[2].ArticleID == "e"
	})

	// Oldest two evicted, remainder in arrival order
	assert.Equal(t, "c", snap.News[0].ArticleID)
	assert.Equal(t, "e", snap.News[2].ArticleID)
	assert.Equal(t, "AAPL", snap.News[0].Symbol)
}

func TestPumpRecordsBulletins(t *testing.T) {
	entry, events := newTestEntry(models.ResourceNewsBulletins, "bulletins", models.MResourceParams{})
	cancel := startPump(t, entry, 4)
	defer cancel()

	events <- models.MEvent{
		Kind:      models.EventKindBulletin,
		Timestamp: time.Now(),
		Bulletin:  &models.MBulletin{MsgID: 7, MsgType: "EXCHANGE", Message: "halted"},
	}

	snap := waitSnapshot(t, entry, func(s *models.MSnapshot) bool {
		return len(s.News) == 1
	})
	assert.Equal(t, 7, snap.News[0].MsgID)
	assert.Equal(t, "halted", snap.News[0].Message)
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

func TestPumpPoisonMarksErroredAndExits(t *testing.T) {
	entry, events := newTestEntry(models.ResourceMarketData, "AAPL", models.MResourceParams{Symbol: "AAPL"})
	cancel := startPump(t, entry, 4)
	defer cancel()

	events <- models.MEvent{Kind: models.EventKindDisconnect, Timestamp: time.Now()}

	select {
	case <-entry.Done:
	case <-time.After(time.Second):
		t.Fatal("pump did not exit on poison event")
	}
	assert.Equal(t, models.StatusErrored, entry.Status())
}

func TestPumpCancelClosesDone(t *testing.T) {
	entry, _ := newTestEntry(models.ResourceMarketData, "AAPL", models.MResourceParams{Symbol: "AAPL"})
	cancel := startPump(t, entry, 4)

	cancel()
	select {
	case <-entry.Done:
	case <-time.After(time.Second):
		t.Fatal("pump did not exit on cancel")
	}
	assert.Equal(t, models.StatusSubscribed, entry.Status())
}

func TestPumpNoWritesAfterExit(t *testing.T) {
	entry, events := newTestEntry(models.ResourceMarketData, "AAPL", models.MResourceParams{Symbol: "AAPL"})
	cancel := startPump(t, entry, 4)

	events <- models.MEvent{
		Kind:      models.EventKindPriceTick,
		Timestamp: time.Now(),
		PriceTick: &models.MPriceTick{Last: ptr(1.0)},
	}
	waitSnapshot(t, entry, func(s *models.MSnapshot) bool { return s.Tick != nil })

	cancel()
	<-entry.Done

	before := entry.Snapshot()

	// Events after exit are never merged
	events <- models.MEvent{
		Kind:      models.EventKindPriceTick,
		Timestamp: time.Now(),
		PriceTick: &models.MPriceTick{Last: ptr(2.0)},
	}
	time.Sleep(20 * time.Millisecond)
	assert.Same(t, before, entry.Snapshot())
}
