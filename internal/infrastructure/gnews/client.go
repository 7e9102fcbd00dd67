package gnews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// minArticlePathLen rejects homepages and section roots like "/" or "/ai/".
const minArticlePathLen = 10

// Client queries the GNews search API once per configured topic.
type Client struct {
	client    *http.Client
	cfg       config.SearchConfig
	allowlist map[string]struct{}
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

var _ ports.ArticleSource = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets a 15s timeout.
func NewClient(httpClient *http.Client, cfg config.SearchConfig, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	allow := make(map[string]struct{}, len(cfg.Allowlist))
	for _, host := range cfg.Allowlist {
		allow[normalizeHost(host)] = struct{}{}
	}
	return &Client{
		client:    httpClient,
		cfg:       cfg,
		allowlist: allow,
		logger:    log,
		sleep:     sleepContext,
	}
}

type searchResponse struct {
	TotalArticles int             `json:"totalArticles"`
	Articles      []searchArticle `json:"articles"`
}

type searchArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"source"`
}

// FetchBatch runs every topic query and returns allowlisted sources first.
// A failing query is logged and skipped; only context cancellation is returned.
func (c *Client) FetchBatch(ctx context.Context, batchID domain.BatchID) ([]domain.Candidate, error) {
	seen := map[string]struct{}{}
	var preferred, fallback []domain.Candidate

	for i, query := range c.cfg.Queries {
		if i > 0 {
			if err := c.sleep(ctx, c.cfg.QueryDelay); err != nil {
				return nil, err
			}
		}

		articles, err := c.search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.warn("query failed", "query", query, "error", err)
			continue
		}
		c.debug("query done", "query", query, "results", len(articles))

		for _, art := range articles {
			if art.URL == "" || !isArticleURL(art.URL) {
				continue
			}
			if _, ok := seen[art.URL]; ok {
				continue
			}
			seen[art.URL] = struct{}{}

			candidate := toCandidate(art, batchID)
			if _, ok := c.allowlist[candidate.SourceHost]; ok && candidate.SourceHost != "" {
				preferred = append(preferred, candidate)
			} else {
				fallback = append(fallback, candidate)
			}
		}
	}

	c.debug("fetch done", "preferred", len(preferred), "fallback", len(fallback))
	return append(preferred, fallback...), nil
}

func (c *Client) search(ctx context.Context, query string) ([]searchArticle, error) {
	endpoint, err := buildSearchURL(c.cfg, query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsDigest/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 150))
		return nil, fmt.Errorf("gnews returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return payload.Articles, nil
}

func toCandidate(art searchArticle, batchID domain.BatchID) domain.Candidate {
	raw := art.Content
	if strings.TrimSpace(raw) == "" {
		raw = art.Description
	}

	candidate := domain.Candidate{
		SourceURL:  art.URL,
		TitleEn:    strings.TrimSpace(art.Title),
		SourceName: strings.TrimSpace(art.Source.Name),
		SourceHost: hostOf(art.Source.URL),
		ImageURL:   art.Image,
		RawContent: plainText(raw),
		BatchID:    batchID,
	}
	if published, err := time.Parse(time.RFC3339, art.PublishedAt); err == nil {
		published = published.UTC()
		candidate.PublishedAt = &published
	}
	return candidate
}

func isArticleURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return false
	}
	return len(parsed.Path) > minArticlePathLen
}

func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return normalizeHost(parsed.Hostname())
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}

// plainText flattens HTML fragments some publishers leave in content.
func plainText(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.ContainsAny(raw, "<>&") {
		return raw
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func buildSearchURL(cfg config.SearchConfig, query string) (string, error) {
	parsed, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/search")
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", cfg.BaseURL, err)
	}

	params := parsed.Query()
	params.Set("q", query)
	params.Set("lang", cfg.Language)
	params.Set("country", cfg.Country)
	params.Set("max", strconv.Itoa(cfg.MaxResults))
	params.Set("sortby", "publishedAt")
	params.Set("apikey", cfg.APIKey)
	parsed.RawQuery = params.Encode()
	return parsed.String(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Client) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
