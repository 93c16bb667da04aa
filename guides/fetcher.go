package guides

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"repairindex/normalize"
)

// PageSource returns one page of the teardown-guide listing.
// Implemented by the iFixit client.
type PageSource interface {
	GetGuides(ctx context.Context, offset, limit int) ([]RawGuide, error)
}

// FetcherConfig configures the concurrent page aggregation.
type FetcherConfig struct {
	Workers  int
	PageSize int
}

// Fetcher aggregates the paginated guide listing into ranked
// per-category lists.
type Fetcher struct {
	source PageSource
	tables Tables
	ranker *Ranker
	config FetcherConfig
	logger *slog.Logger
}

// NewFetcher creates a fetcher. Zero config fields get defaults
// (8 workers, pages of 200).
func NewFetcher(source PageSource, tables Tables, config FetcherConfig, logger *slog.Logger) *Fetcher {
	if config.Workers <= 0 {
		config.Workers = 8
	}
	if config.PageSize <= 0 {
		config.PageSize = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		source: source,
		tables: tables,
		ranker: NewRanker(tables),
		config: config,
		logger: logger,
	}
}

// FetchAll retrieves every page of the listing, fetching a fixed-size
// batch of offsets concurrently and stopping once a whole batch comes
// back empty. Page failures count as empty pages; they never abort the
// aggregation. The returned map is keyed by the normalized category
// key, each list deduplicated and ranked.
func (f *Fetcher) FetchAll(ctx context.Context) (map[string][]Guide, error) {
	results := make(map[string][]Guide)
	offset := 0
	batchSpan := f.config.Workers * f.config.PageSize

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := f.fetchBatch(ctx, offset)
		if len(batch) == 0 {
			break
		}
		for category, pageGuides := range batch {
			results[category] = append(results[category], pageGuides...)
		}
		offset += batchSpan
		f.logger.Debug("Processed guide batch", "next_offset", offset)
	}

	// Distinct raw spellings can normalize to the same key; their
	// lists merge before ranking, in sorted raw-name order so the
	// merge never depends on map iteration.
	categories := make([]string, 0, len(results))
	for category := range results {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	grouped := make(map[string][]Guide, len(results))
	rawName := make(map[string]string, len(results))
	for _, category := range categories {
		key := normalize.Key(category)
		if _, ok := rawName[key]; !ok {
			rawName[key] = category
		}
		grouped[key] = append(grouped[key], results[category]...)
	}

	ranked := make(map[string][]Guide, len(grouped))
	for key, categoryGuides := range grouped {
		ranked[key] = f.ranker.Rank(rawName[key], categoryGuides)
	}
	f.logger.Info("Fetched teardown guides", "categories", len(ranked))
	return ranked, nil
}

// fetchBatch fetches config.Workers consecutive pages concurrently and
// merges them by raw category name. Completion order does not matter:
// every page's guides are grouped by key and the final ordering is
// restored by the ranker.
func (f *Fetcher) fetchBatch(ctx context.Context, startOffset int) map[string][]Guide {
	merged := make(map[string][]Guide)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < f.config.Workers; i++ {
		pageOffset := startOffset + i*f.config.PageSize
		wg.Add(1)
		go func() {
			defer wg.Done()
			page := f.fetchPage(ctx, pageOffset)
			if len(page) == 0 {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for category, pageGuides := range page {
				merged[category] = append(merged[category], pageGuides...)
			}
		}()
	}
	wg.Wait()
	return merged
}

func (f *Fetcher) fetchPage(ctx context.Context, offset int) map[string][]Guide {
	raw, err := f.source.GetGuides(ctx, offset, f.config.PageSize)
	if err != nil {
		f.logger.Error("Failed to fetch guide page", "offset", offset, "error", err)
		return nil
	}

	page := make(map[string][]Guide)
	for _, rg := range raw {
		if rg.Title == "" || rg.URL == "" || rg.Category == "" {
			continue
		}
		page[rg.Category] = append(page[rg.Category], Guide{
			Title:      rg.Title,
			URL:        rg.URL,
			Tags:       f.tables.TagsFromFlags(rg.Flags),
			Difficulty: rg.Difficulty,
		})
	}
	return page
}
