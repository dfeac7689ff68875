package workers

import (
	"context"
	"fmt"

	"github.com/luguas/priceye/internal/queue"
	"github.com/luguas/priceye/internal/records"
	"github.com/luguas/priceye/internal/storage/sqlite"
)

// Processor persists record envelopes from the signal topic into the
// storage adapter, routing each source to its table.
type Processor struct {
	store *sqlite.Store
}

func NewProcessor(store *sqlite.Store) *Processor {
	return &Processor{store: store}
}

// Handle upserts one record. Unroutable sources are an error so the worker
// loop logs them instead of dropping silently.
func (p *Processor) Handle(ctx context.Context, env *queue.Envelope) error {
	table, ok := tableFor(env.Record.Source)
	if !ok {
		return fmt.Errorf("no table for source %q", env.Record.Source)
	}
	res, err := p.store.Upsert(ctx, table, []records.Record{env.Record})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", env.Record.Key(), err)
	}
	if res.Failed > 0 {
		return fmt.Errorf("record %s failed schema validation", env.Record.Key())
	}
	return nil
}

func tableFor(src records.Source) (string, bool) {
	switch src {
	case records.SourceCompetitor:
		return "competitor_listings", true
	case records.SourceWeather:
		return "weather_data", true
	case records.SourceCurrency:
		return "currency_rates", true
	}
	return "", false
}
