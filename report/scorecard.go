package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var scorecardVersionRe = regexp.MustCompile(`v(\d+\.\d+)`)

// repairabilityPages is the slice of the catalog client the scorecard
// scraper needs.
type repairabilityPages interface {
	GetRepairabilityPageHTML(ctx context.Context, old bool) (string, error)
}

// ScorecardVersions scrapes both the current and the older-devices
// repairability pages and maps each device URL to the scoring-rubric
// version its scorecard links to. Devices missing any of name, URL or
// version are skipped.
func ScorecardVersions(ctx context.Context, src repairabilityPages, logger *slog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	versions := make(map[string]string)
	for _, old := range []bool{false, true} {
		page, err := src.GetRepairabilityPageHTML(ctx, old)
		if err != nil {
			return nil, fmt.Errorf("fetch repairability page (old=%v): %w", old, err)
		}
		if err := parseScorecards(page, versions); err != nil {
			return nil, fmt.Errorf("parse repairability page (old=%v): %w", old, err)
		}
	}

	logger.Info("scorecard versions scraped", "devices", len(versions))
	return versions, nil
}

func parseScorecards(page string, out map[string]string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return err
	}

	doc.Find("div.wp-block-column.is-layout-flow.wp-block-column-is-layout-flow").Each(func(_ int, block *goquery.Selection) {
		name := strings.TrimSpace(block.Find("h1.wp-block-heading").First().Text())
		if name == "" {
			return
		}

		deviceURL, _ := block.Find("figure.wp-block-image a[href]").First().Attr("href")
		if deviceURL == "" {
			return
		}

		link := block.Find("p.has-text-align-center.has-small-font-size a[href]").First()
		m := scorecardVersionRe.FindStringSubmatch(link.Text())
		if m == nil {
			return
		}

		out[deviceURL] = m[1]
	})
	return nil
}
