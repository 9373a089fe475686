package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/boilerevents/boiler-events/app/cache"
	"github.com/boilerevents/boiler-events/app/events"
)

// The listing fetch and the model call are each a single point of failure
// for the whole request, so both get a bounded retry.
const maxRetries = 2

type ListingFetcher interface {
	Run(ctx context.Context, audience events.Audience) ([]events.RawEventListing, error)
}

type DetailEnricher interface {
	Run(ctx context.Context, listings []events.RawEventListing) []events.EnrichedEventListing
}

type Normalizer interface {
	Run(ctx context.Context, batch []events.EnrichedEventListing, referenceDate time.Time) ([]events.NormalizedEvent, error)
}

// Pipeline sequences cache lookup, listing fetch, detail enrichment,
// filter-and-cap, normalization, and the cache write for one audience. It
// is the only caller of the other pipeline components.
type Pipeline struct {
	fetcher    ListingFetcher
	enricher   DetailEnricher
	normalizer Normalizer
	store      cache.Store
	ttl        time.Duration
	batchSize  int

	now        func() time.Time
	newBackOff func() backoff.BackOff
}

func New(fetcher ListingFetcher, enricher DetailEnricher, normalizer Normalizer, store cache.Store, ttl time.Duration, batchSize int) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		enricher:   enricher,
		normalizer: normalizer,
		store:      store,
		ttl:        ttl,
		batchSize:  batchSize,
		now:        time.Now,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// Run serves one audience request: the cached array on a hit, otherwise the
// full scrape -> enrich -> normalize pass with the result written back
// under the audience's key. Concurrent misses for the same audience may
// race to repopulate the key; last writer wins, which is fine since every
// writer derives the same TTL-bounded value from the same upstream.
func (p *Pipeline) Run(ctx context.Context, audience events.Audience) ([]events.NormalizedEvent, error) {
	key := cacheKey(audience)

	if cached, ok := p.lookup(ctx, key); ok {
		slog.Info("Cache hit", "audience", audience, "events", len(cached))
		return cached, nil
	}

	var listings []events.RawEventListing
	err := p.retry(ctx, func() error {
		var err error
		listings, err = p.fetcher.Run(ctx, audience)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing fetch failed: %w", err)
	}

	enriched := p.enricher.Run(ctx, listings)
	batch := filterAndCap(enriched, p.batchSize)

	slog.Info("Pipeline batch assembled",
		"audience", audience, "scraped", len(listings), "complete", len(batch))

	if len(batch) == 0 {
		// Nothing complete enough to normalize. Not cached, so a transient
		// empty listing page does not pin an empty result for the full TTL.
		return []events.NormalizedEvent{}, nil
	}

	var normalized []events.NormalizedEvent
	err = p.retry(ctx, func() error {
		var err error
		normalized, err = p.normalizer.Run(ctx, batch, p.now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("normalization failed: %w", err)
	}

	p.write(ctx, key, normalized)

	return normalized, nil
}

func (p *Pipeline) retry(ctx context.Context, op func() error) error {
	bo := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), maxRetries), ctx)
	return backoff.Retry(op, bo)
}

// lookup returns the cached array for key if present, unexpired, and still
// decodable. Backend errors degrade to a miss.
func (p *Pipeline) lookup(ctx context.Context, key string) ([]events.NormalizedEvent, bool) {
	raw, found, err := p.store.Get(ctx, key)
	if err != nil {
		slog.Warn("Cache lookup failed, proceeding without cache", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var cached []events.NormalizedEvent
	if err := json.Unmarshal(raw, &cached); err != nil {
		slog.Warn("Cached entry is not decodable, treating as miss", "key", key, "error", err)
		return nil, false
	}

	return cached, true
}

func (p *Pipeline) write(ctx context.Context, key string, normalized []events.NormalizedEvent) {
	raw, err := json.Marshal(normalized)
	if err != nil {
		slog.Warn("Failed to encode result for caching", "key", key, "error", err)
		return
	}
	if err := p.store.Set(ctx, key, raw, p.ttl); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
		return
	}
	slog.Debug("Result cached", "key", key, "ttl", p.ttl)
}

// filterAndCap drops listings missing title, date, link, or description
// and truncates to the batch maximum, preserving scrape order. Ranking
// happens later inside normalization.
func filterAndCap(enriched []events.EnrichedEventListing, max int) []events.EnrichedEventListing {
	batch := make([]events.EnrichedEventListing, 0, len(enriched))
	for _, e := range enriched {
		if !e.Complete() {
			continue
		}
		batch = append(batch, e)
		if len(batch) == max {
			break
		}
	}
	return batch
}

func cacheKey(audience events.Audience) string {
	return "events:" + string(audience)
}
