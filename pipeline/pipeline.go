// Package pipeline orchestrates a full collection run: category
// traversal, guide aggregation, per-device score fetches, French
// catalog matching and the final report write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"repairindex/frenchindex"
	"repairindex/guides"
	"repairindex/hierarchy"
	"repairindex/ifixit"
	"repairindex/normalize"
	"repairindex/report"
)

const deviceLinkBase = "https://www.ifixit.com/Device/"

// Catalog is the slice of the iFixit client the pipeline consumes.
type Catalog interface {
	GetCategoryHierarchy(ctx context.Context) (*hierarchy.Node, error)
	GetDevice(ctx context.Context, wikiTitle string) (ifixit.DeviceInfo, error)
	GetGuides(ctx context.Context, offset, limit int) ([]guides.RawGuide, error)
	GetRepairabilityPageHTML(ctx context.Context, old bool) (string, error)
}

// FrenchSource produces the French catalog records.
type FrenchSource interface {
	Scrape(ctx context.Context) ([]frenchindex.ScoreRecord, error)
}

// MatchStrategy selects how French scores are joined to devices.
type MatchStrategy string

const (
	MatchExact  MatchStrategy = "exact"
	MatchStrict MatchStrategy = "strict"
)

// Config controls one pipeline run. Zero values select the defaults.
type Config struct {
	Categories      []string
	ExcludeSubtrees map[string][]string
	Workers         int
	OutputPath      string
	XLSXPath        string
	MatchStrategy   MatchStrategy
	Logger          *slog.Logger
}

// Summary reports what a run produced.
type Summary struct {
	RunID         string
	Devices       int
	WithScore     int
	WithGuides    int
	FrenchMatched int
	Failures      int
}

// Pipeline wires the collection stages together.
type Pipeline struct {
	catalog Catalog
	french  FrenchSource
	cfg     Config
	logger  *slog.Logger
}

// New builds a pipeline. french may be nil to skip the French catalog
// stage.
func New(catalog Catalog, french FrenchSource, cfg Config) *Pipeline {
	if len(cfg.Categories) == 0 {
		cfg.Categories = []string{"iPhone", "Android Phone"}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.MatchStrategy == "" {
		cfg.MatchStrategy = MatchExact
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{catalog: catalog, french: french, cfg: cfg, logger: cfg.Logger}
}

// Run executes the full collection and writes the report. Individual
// device failures and enrichment-stage failures are tolerated, and a
// missing category hierarchy yields an empty report rather than an
// error; the error return covers failures that leave the run unable
// to report at all.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	summary := Summary{RunID: runID}

	logger.Info("run started", "categories", p.cfg.Categories)

	names, err := p.collectDeviceNames(ctx, logger)
	if err != nil {
		return summary, err
	}
	summary.Devices = len(names)
	if len(names) == 0 {
		logger.Warn("no devices found under the requested categories")
	} else {
		logger.Info("devices collected", "count", len(names))
	}

	guidesByKey := p.fetchGuides(ctx, logger)

	results := p.fetchScores(ctx, logger, names)
	for _, r := range results {
		if r.Score != nil {
			summary.WithScore++
		}
		if r.Err != nil {
			summary.Failures++
		}
		if _, ok := guidesByKey[normalize.Key(r.Name)]; ok {
			summary.WithGuides++
		}
	}

	matcher := p.buildMatcher(ctx, logger)
	scorecards := p.fetchScorecards(ctx, logger)

	assembler := report.NewAssembler(guidesByKey, matcher, scorecards)
	entries := assembler.Assemble(results)
	for _, e := range entries {
		if e.FrenchScore != nil {
			summary.FrenchMatched++
		}
	}

	if p.cfg.OutputPath != "" {
		if err := report.WriteJSONAtomic(p.cfg.OutputPath, entries); err != nil {
			return summary, fmt.Errorf("write report: %w", err)
		}
		logger.Info("report written", "path", p.cfg.OutputPath, "entries", len(entries))
	}
	if p.cfg.XLSXPath != "" {
		if err := report.WriteXLSX(p.cfg.XLSXPath, entries); err != nil {
			return summary, fmt.Errorf("write spreadsheet: %w", err)
		}
		logger.Info("spreadsheet written", "path", p.cfg.XLSXPath)
	}

	logger.Info("run finished",
		"devices", summary.Devices,
		"with_score", summary.WithScore,
		"with_guides", summary.WithGuides,
		"french_matched", summary.FrenchMatched,
		"failures", summary.Failures)
	return summary, nil
}

// collectDeviceNames walks the category tree and flattens the target
// categories' leaves into one deduplicated list. A NotFound hierarchy
// means no data, not a broken run: it collects as an empty tree.
func (p *Pipeline) collectDeviceNames(ctx context.Context, logger *slog.Logger) ([]string, error) {
	root, err := p.catalog.GetCategoryHierarchy(ctx)
	if err != nil {
		if !errors.Is(err, ifixit.ErrNotFound) {
			return nil, fmt.Errorf("fetch category hierarchy: %w", err)
		}
		logger.Warn("category hierarchy not found, treating it as empty")
		root = nil
	}

	byCategory := hierarchy.Collect(root, p.cfg.Categories, p.cfg.ExcludeSubtrees)

	seen := make(map[string]struct{})
	var names []string
	for _, category := range p.cfg.Categories {
		for _, name := range byCategory[category] {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names, nil
}

func (p *Pipeline) fetchGuides(ctx context.Context, logger *slog.Logger) map[string][]guides.Guide {
	fetcher := guides.NewFetcher(p.catalog, guides.DefaultTables(), guides.FetcherConfig{}, logger)
	guidesByKey, err := fetcher.FetchAll(ctx)
	if err != nil {
		logger.Error("guide aggregation failed, continuing without guides", "error", err)
		return nil
	}
	logger.Info("guides aggregated", "categories", len(guidesByKey))
	return guidesByKey
}

// fetchScores runs the per-device score fetch over a bounded worker
// pool. The shared client limiter keeps the aggregate request rate in
// bounds regardless of worker count.
func (p *Pipeline) fetchScores(ctx context.Context, logger *slog.Logger, names []string) []report.DeviceResult {
	jobs := make(chan int)
	results := make([]report.DeviceResult, len(names))

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.fetchOneScore(ctx, logger, names[i])
			}
		}()
	}
	for i := range names {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (p *Pipeline) fetchOneScore(ctx context.Context, logger *slog.Logger, name string) report.DeviceResult {
	title := normalize.WikiTitle(name)
	result := report.DeviceResult{Name: name, Title: title}

	info, err := p.catalog.GetDevice(ctx, title)
	if err != nil {
		if !errors.Is(err, ifixit.ErrNotFound) {
			result.Err = err
			logger.Error("device fetch failed", "device", name, "error", err)
		} else {
			logger.Debug("device has no page", "device", name)
		}
		return result
	}

	result.Score = info.RepairabilityScore
	if brand := info.Brand(); brand != "" {
		result.Brand = &brand
	}
	link := deviceLinkBase + title
	result.Link = &link
	return result
}

func (p *Pipeline) buildMatcher(ctx context.Context, logger *slog.Logger) frenchindex.Matcher {
	if p.french == nil {
		return nil
	}

	records, err := p.french.Scrape(ctx)
	if err != nil {
		logger.Error("french catalog scrape failed, continuing without french scores", "error", err)
		return nil
	}
	logger.Info("french catalog scraped", "products", len(records))

	if p.cfg.MatchStrategy == MatchStrict {
		return frenchindex.NewStrictMatcher(records, logger)
	}
	return frenchindex.NewExactMatcher(records)
}

func (p *Pipeline) fetchScorecards(ctx context.Context, logger *slog.Logger) map[string]string {
	scorecards, err := report.ScorecardVersions(ctx, p.catalog, logger)
	if err != nil {
		logger.Error("scorecard scrape failed, continuing without versions", "error", err)
		return nil
	}
	return scorecards
}
