// Package ifixit is a client for the iFixit API v2.0 endpoints used by
// the aggregator: the category hierarchy, per-device category pages,
// the teardown-guide listing and the repairability HTML pages.
//
// Every request acquires the shared rate limiter before hitting the
// network and runs through a bounded retry loop with exponential
// backoff; a 404 surfaces as ErrNotFound so callers can treat it as
// "no data" instead of a failure.
package ifixit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"repairindex/guides"
	"repairindex/hierarchy"
)

// DefaultBaseURL is the iFixit API v2.0 root.
const DefaultBaseURL = "https://www.ifixit.com/api/2.0"

// DefaultSiteURL is the root of the public site, used for the
// repairability HTML pages.
const DefaultSiteURL = "https://www.ifixit.com"

// ErrNotFound marks a 404 response. Callers treat it as an empty tree
// or a missing score, never as a run failure.
var ErrNotFound = errors.New("not found")

// Config configures the client. Zero fields get defaults.
type Config struct {
	BaseURL   string
	SiteURL   string
	AuthToken string
	AppID     string
	UserAgent string
	Timeout   time.Duration
	// RateLimit and Burst describe the shared token bucket; every
	// request waits for a token before being issued.
	RateLimit rate.Limit
	Burst     int
	Backoff   BackoffPolicy
	Logger    *slog.Logger
}

// Client is safe for concurrent use; the rate limiter is the only
// synchronization point between workers.
type Client struct {
	baseURL   string
	siteURL   string
	authToken string
	appID     string
	userAgent string

	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    BackoffPolicy
	logger     *slog.Logger
}

// NewClient creates a client from the config, filling in defaults for
// zero values.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.SiteURL == "" {
		config.SiteURL = DefaultSiteURL
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = rate.Limit(4)
	}
	if config.Burst == 0 {
		config.Burst = 1
		if config.RateLimit != rate.Inf && config.RateLimit > 1 {
			config.Burst = int(config.RateLimit)
		}
	}
	if config.Backoff.MaxAttempts == 0 {
		config.Backoff = DefaultBackoffPolicy()
	}
	if config.UserAgent == "" {
		config.UserAgent = "repairindex/1.0"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		siteURL:    strings.TrimRight(config.SiteURL, "/"),
		authToken:  config.AuthToken,
		appID:      config.AppID,
		userAgent:  config.UserAgent,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(config.RateLimit, config.Burst),
		backoff:    config.Backoff,
		logger:     config.Logger,
	}
}

// DeviceInfo is the category page payload for one device.
type DeviceInfo struct {
	RepairabilityScore *float64    `json:"repairability_score"`
	Info               []InfoEntry `json:"info"`
}

// InfoEntry is one name/value attribute of a device page.
type InfoEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Brand returns the "Device Brand" attribute, or "" when absent.
func (d DeviceInfo) Brand() string {
	for _, entry := range d.Info {
		if entry.Name == "Device Brand" {
			return entry.Value
		}
	}
	return ""
}

// GetCategoryHierarchy fetches the full category tree. A 404 returns
// ErrNotFound; callers substitute an empty tree.
func (c *Client) GetCategoryHierarchy(ctx context.Context) (*hierarchy.Node, error) {
	params := url.Values{}
	params.Set("display", "hierarchy")
	body, err := c.get(ctx, c.baseURL+"/wikis/CATEGORY", params)
	if err != nil {
		return nil, err
	}
	tree, err := hierarchy.ParseTree(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hierarchy: %w", err)
	}
	return tree, nil
}

// GetDevice fetches the category page for one device wiki title.
func (c *Client) GetDevice(ctx context.Context, wikiTitle string) (DeviceInfo, error) {
	var info DeviceInfo
	body, err := c.get(ctx, c.baseURL+"/wikis/CATEGORY/"+wikiTitle, nil)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return info, fmt.Errorf("failed to decode device %s: %w", wikiTitle, err)
	}
	return info, nil
}

// GetGuides fetches one page of the teardown-guide listing.
func (c *Client) GetGuides(ctx context.Context, offset, limit int) ([]guides.RawGuide, error) {
	params := url.Values{}
	params.Set("filter", "teardown")
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("offset", fmt.Sprintf("%d", offset))
	body, err := c.get(ctx, c.baseURL+"/guides", params)
	if err != nil {
		return nil, err
	}
	var page []guides.RawGuide
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode guides page at offset %d: %w", offset, err)
	}
	return page, nil
}

// GetWikiPageHTML fetches the rendered HTML of a wiki page.
func (c *Client) GetWikiPageHTML(ctx context.Context, title string) (string, error) {
	body, err := c.get(ctx, c.siteURL+"/Wiki/"+title, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetRepairabilityPageHTML fetches the smartphone repairability page;
// old selects the archived-devices listing.
func (c *Client) GetRepairabilityPageHTML(ctx context.Context, old bool) (string, error) {
	pageURL := c.siteURL + "/repairability/smartphone-repairability-scores"
	if old {
		pageURL = c.siteURL + "/repairability/smartphone-repairability-scores/older-devices"
	}
	body, err := c.get(ctx, pageURL, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// get runs one rate-limited GET through the retry state machine and
// returns the response body.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	fullURL := rawURL
	if len(params) > 0 {
		fullURL = rawURL + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.backoff.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		body, outcome, retryAfter, err := c.attempt(ctx, fullURL)
		switch outcome {
		case attemptSuccess:
			return body, nil
		case attemptTerminal:
			return nil, err
		case attemptRetry:
			lastErr = err
			if attempt < c.backoff.MaxAttempts-1 {
				delay := c.backoff.delayForAttempt(attempt, retryAfter)
				c.logger.Debug("Retrying request",
					"url", fullURL,
					"attempt", attempt+1,
					"delay", delay,
					"error", err)
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.backoff.MaxAttempts, lastErr)
}

// attempt issues one request and classifies the result.
func (c *Client) attempt(ctx context.Context, fullURL string) ([]byte, attemptOutcome, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, attemptTerminal, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.authToken != "" {
		req.Header.Set("Authorization", "api "+c.authToken)
	}
	if c.appID != "" {
		req.Header.Set("X-App-Id", c.appID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, attemptTerminal, "", ctx.Err()
		}
		return nil, attemptRetry, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, attemptTerminal, "", fmt.Errorf("%s: %w", fullURL, ErrNotFound)
	case retryableStatus(resp.StatusCode):
		return nil, attemptRetry, resp.Header.Get("Retry-After"),
			fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, attemptTerminal, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, attemptRetry, "", fmt.Errorf("failed to read response: %w", err)
	}
	return body, attemptSuccess, "", nil
}
