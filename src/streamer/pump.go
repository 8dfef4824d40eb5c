package streamer

import (
	"context"

	"resource-streamer/src/interfaces"
	"resource-streamer/src/logger"
	"resource-streamer/src/models"
	"resource-streamer/src/registry"
	"resource-streamer/src/utils"
)

// -----------------------------------------------------------------------------
// streamPump is the single consumer for one subscription. It drains the
// bridge channel in arrival order, merges every event into its private
// working state, publishes a fresh immutable snapshot, then fires the
// resource-changed hook. Merge-before-notify keeps a slow notifier from
// ever delaying the snapshot itself.
// -----------------------------------------------------------------------------

type streamPump struct {
	entry    *registry.Entry
	events   <-chan models.MEvent
	notifier interfaces.INotifier
	logger   *logger.Logger

	// Working state, owned by the pump goroutine exclusively. The published
	// snapshots are copies; nothing outside the pump ever sees these.
	tick      models.MTickSnapshot
	positions map[string]models.MPositionUpdate
	accounts  map[string]models.MAccountValueUpdate
	ring      *utils.NewsRing
}

// -----------------------------------------------------------------------------

func newStreamPump(entry *registry.Entry, notifier interfaces.INotifier, log *logger.Logger, headlineCap int) *streamPump {
	return &streamPump{
		entry:     entry,
		events:    entry.Events,
		notifier:  notifier,
		logger:    log,
		positions: make(map[string]models.MPositionUpdate),
		accounts:  make(map[string]models.MAccountValueUpdate),
		ring:      utils.NewNewsRing(headlineCap),
	}
}

// -----------------------------------------------------------------------------

// run is the pump loop. It exits on cancel (stop path) or on a poison event
// (upstream disconnect); the poison path marks the entry errored but leaves
// it registered, because removal is stop's job.
func (p *streamPump) run(ctx context.Context) {
	defer close(p.entry.Done)

	desc := p.entry.Descriptor
	p.logger.Info("StreamPump : started for %s", desc.URI)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("StreamPump : cancelled for %s", desc.URI)
			return

		case ev := <-p.events:
			if ev.Kind == models.EventKindDisconnect {
				p.entry.MarkErrored()
				p.logger.Warning("StreamPump : upstream connection lost for %s, pump halted", desc.URI)
				return
			}

			p.merge(ev)
			p.entry.Touch(ev.Timestamp)
			p.entry.SetSnapshot(p.buildSnapshot(ev))

			// Notification fires after the merge so draining continues
			// even when the notifier is slow.
			p.notifier.ResourceChanged(desc)
		}
	}
}

// -----------------------------------------------------------------------------

// merge applies one event to the working state using the type-specific rules
func (p *streamPump) merge(ev models.MEvent) {
	switch ev.Kind {
	case models.EventKindPriceTick:
		if ev.PriceTick != nil {
			p.mergeTick(ev.PriceTick)
		}

	case models.EventKindPosition:
		if ev.Position != nil {
			// Position updates replace the full per-symbol row
			p.positions[ev.Position.Symbol] = *ev.Position
		}

	case models.EventKindAccountValue:
		if ev.AccountValue != nil {
			p.accounts[ev.AccountValue.Tag] = *ev.AccountValue
		}

	case models.EventKindHeadline:
		if ev.Headline != nil {
			p.ring.Append(models.MNewsItem{
				Symbol:       p.entry.Descriptor.Params.Symbol,
				Timestamp:    ev.Timestamp,
				ProviderCode: ev.Headline.ProviderCode,
				ArticleID:    ev.Headline.ArticleID,
				Headline:     ev.Headline.Headline,
			})
		}

	case models.EventKindBulletin:
		if ev.Bulletin != nil {
			p.ring.Append(models.MNewsItem{
				Timestamp: ev.Timestamp,
				MsgID:     ev.Bulletin.MsgID,
				MsgType:   ev.Bulletin.MsgType,
				Message:   ev.Bulletin.Message,
			})
		}

	default:
		p.logger.Warning("StreamPump : dropping event of unknown kind '%s' for %s", ev.Kind, p.entry.Descriptor.URI)
	}
}

// -----------------------------------------------------------------------------

// mergeTick overwrites only the fields present in the update
func (p *streamPump) mergeTick(tick *models.MPriceTick) {
	if tick.Bid != nil {
		p.tick.Bid = tick.Bid
	}
	if tick.Ask != nil {
		p.tick.Ask = tick.Ask
	}
	if tick.Last != nil {
		p.tick.Last = tick.Last
	}
	if tick.Volume != nil {
		p.tick.Volume = tick.Volume
	}
	if tick.BidSize != nil {
		p.tick.BidSize = tick.BidSize
	}
	if tick.AskSize != nil {
		p.tick.AskSize = tick.AskSize
	}
	if tick.High != nil {
		p.tick.High = tick.High
	}
	if tick.Low != nil {
		p.tick.Low = tick.Low
	}
	if tick.Close != nil {
		p.tick.Close = tick.Close
	}
}

// -----------------------------------------------------------------------------

// buildSnapshot assembles a fresh immutable snapshot from the working state.
// Maps and slices are copied; the float pointers inside the tick view are
// never written again once published.
func (p *streamPump) buildSnapshot(ev models.MEvent) *models.MSnapshot {
	desc := p.entry.Descriptor
	snap := &models.MSnapshot{
		ResourceType: desc.ResourceType,
		ResourceID:   desc.ResourceID,
		UpdatedAt:    ev.Timestamp,
	}

	switch desc.ResourceType {
	case models.ResourceMarketData:
		tick := p.tick
		snap.Tick = &tick

	case models.ResourcePortfolio:
		positions := make(map[string]models.MPositionUpdate, len(p.positions))
		for k, v := range p.positions {
			positions[k] = v
		}
		accounts := make(map[string]models.MAccountValueUpdate, len(p.accounts))
		for k, v := range p.accounts {
			accounts[k] = v
		}
		snap.Portfolio = &models.MPortfolioSnapshot{
			Account:       desc.Params.Account,
			Positions:     positions,
			AccountValues: accounts,
		}

	case models.ResourceNewsBulletins, models.ResourceTickNews, models.ResourceBroadtapeNews:
		snap.News = p.ring.All()
	}

	return snap
}
