package frenchindex

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"repairindex/normalize"
)

// DefaultBaseURL is the smartphone listing of the French
// repairability-index catalog.
const DefaultBaseURL = "https://www.indicereparabilite.fr/appareils/smartphone"

// defaultTotalPages is used when the pagination widget cannot be read.
const defaultTotalPages = 38

var pageNumberRe = regexp.MustCompile(`/page/(\d+)/`)

// PageCache stores fetched listing pages so repeated runs skip the
// network. Implementations decide expiry.
type PageCache interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Put(ctx context.Context, url string, body []byte) error
}

// ScraperConfig controls the catalog scraper. Zero values select the
// defaults.
type ScraperConfig struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	Retries     int
	Concurrency int
	RateLimit   rate.Limit
	Cache       PageCache
	Logger      *slog.Logger
}

// Scraper fetches the paginated smartphone catalog and parses product
// cards into ScoreRecords.
type Scraper struct {
	cfg     ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewScraper builds a Scraper, applying defaults for unset config
// fields.
func NewScraper(cfg ScraperConfig) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "repairindex/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = rate.Limit(2)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scraper{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(cfg.RateLimit, 1),
		logger:  cfg.Logger,
	}
}

// Scrape walks every listing page and returns the parsed records,
// ordered by page number. Individual page failures are logged and
// skipped; the error return covers only a failed first page, which
// leaves nothing to work with.
func (s *Scraper) Scrape(ctx context.Context) ([]ScoreRecord, error) {
	firstPage, err := s.fetchPage(ctx, s.pageURL(1))
	if err != nil {
		return nil, fmt.Errorf("fetch first catalog page: %w", err)
	}

	totalPages := s.totalPages(firstPage)
	s.logger.Info("scraping catalog", "pages", totalPages)

	byPage := make(map[int][]ScoreRecord, totalPages)
	byPage[1], err = s.parseProducts(firstPage)
	if err != nil {
		return nil, fmt.Errorf("parse first catalog page: %w", err)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	pages := make(chan int)

	for i := 0; i < s.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range pages {
				records, err := s.scrapePage(ctx, page)
				if err != nil {
					s.logger.Error("page scrape failed", "page", page, "error", err)
					continue
				}
				mu.Lock()
				byPage[page] = records
				mu.Unlock()
			}
		}()
	}

	for page := 2; page <= totalPages; page++ {
		pages <- page
	}
	close(pages)
	wg.Wait()

	pageOrder := make([]int, 0, len(byPage))
	for page := range byPage {
		pageOrder = append(pageOrder, page)
	}
	sort.Ints(pageOrder)

	var records []ScoreRecord
	for _, page := range pageOrder {
		records = append(records, byPage[page]...)
	}
	s.logger.Info("catalog scraped", "products", len(records))
	return records, nil
}

func (s *Scraper) pageURL(page int) string {
	return fmt.Sprintf("%s/page/%d/", strings.TrimRight(s.cfg.BaseURL, "/"), page)
}

func (s *Scraper) scrapePage(ctx context.Context, page int) ([]ScoreRecord, error) {
	body, err := s.fetchPage(ctx, s.pageURL(page))
	if err != nil {
		return nil, err
	}
	return s.parseProducts(body)
}

// fetchPage retrieves one listing page, going through the cache when
// one is configured and retrying transient failures.
func (s *Scraper) fetchPage(ctx context.Context, url string) ([]byte, error) {
	if s.cfg.Cache != nil {
		body, ok, err := s.cfg.Cache.Get(ctx, url)
		if err != nil {
			s.logger.Warn("cache read failed", "url", url, "error", err)
		} else if ok {
			return body, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < s.cfg.Retries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := s.fetchOnce(ctx, url)
		if err == nil {
			if s.cfg.Cache != nil {
				if err := s.cfg.Cache.Put(ctx, url, body); err != nil {
					s.logger.Warn("cache write failed", "url", url, "error", err)
				}
			}
			return body, nil
		}

		lastErr = err
		s.logger.Warn("fetch failed", "url", url, "attempt", attempt+1, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", url, s.cfg.Retries, lastErr)
}

func (s *Scraper) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// totalPages reads the pagination widget off the first listing page.
// Numbered links carry the page in their href; the current page is a
// span holding the bare number.
func (s *Scraper) totalPages(firstPage []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(firstPage))
	if err != nil {
		s.logger.Warn("pagination parse failed, using default", "error", err)
		return defaultTotalPages
	}

	maxPage := 0
	doc.Find("ul.page-numbers li a.page-numbers, ul.page-numbers li span.page-numbers").Each(func(_ int, item *goquery.Selection) {
		node := item.Get(0)
		if node.Type != html.ElementNode {
			return
		}
		switch node.Data {
		case "a":
			href, _ := item.Attr("href")
			if m := pageNumberRe.FindStringSubmatch(href); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil && n > maxPage {
					maxPage = n
				}
			}
		case "span":
			if item.HasClass("current") {
				if n, err := strconv.Atoi(strings.TrimSpace(item.Text())); err == nil && n > maxPage {
					maxPage = n
				}
			}
		}
	})

	if maxPage == 0 {
		s.logger.Warn("no pagination found, using default", "pages", defaultTotalPages)
		return defaultTotalPages
	}
	return maxPage
}

// parseProducts extracts the product cards from one listing page.
// Cards without a parseable score are logged and dropped.
func (s *Scraper) parseProducts(page []byte) ([]ScoreRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	var records []ScoreRecord
	doc.Find("ul.products li.product").Each(func(_ int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find("h4.card-title a").First().Text())
		if name == "" {
			return
		}

		scoreText := strings.TrimSpace(card.Find("div.footer .price h4 span").First().Text())
		if scoreText == "" {
			s.logger.Warn("product without score", "product", name)
			return
		}
		scoreText = strings.ReplaceAll(strings.ReplaceAll(scoreText, "€", ""), ",", ".")
		score, err := strconv.ParseFloat(scoreText, 64)
		if err != nil {
			s.logger.Warn("unparseable score", "product", name, "score", scoreText)
			return
		}

		brand := strings.TrimSpace(card.Find("div.card-description table tbody tr:nth-child(1) strong").First().Text())
		model := strings.TrimSpace(card.Find("div.card-description table tbody tr:nth-child(2) strong").First().Text())
		updated := strings.TrimSpace(card.Find("div.card-description table tbody tr:nth-child(3) strong").First().Text())

		records = append(records, ScoreRecord{
			Name:               name,
			NormalizedName:     normalizeProductName(name, brand),
			Brand:              brand,
			Model:              model,
			LastUpdated:        updated,
			RepairabilityScore: score,
		})
	})
	return records, nil
}

// normalizeProductName strips the catalog's leading product-type word
// ("Smartphone APPLE iPhone 13") before running the shared device-name
// normalizer, so both catalogs produce identical keys.
func normalizeProductName(name, brand string) string {
	fields := strings.Fields(name)
	if len(fields) > 1 && strings.EqualFold(fields[0], "smartphone") {
		name = strings.Join(fields[1:], " ")
	}
	return normalize.Name(name, brand)
}
