package gnews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"NewsDigest/internal/config"
)

func testConfig(base string) config.SearchConfig {
	return config.SearchConfig{
		BaseURL:    base,
		APIKey:     "secret",
		Queries:    []string{"artificial intelligence", "machine learning", "AI regulation"},
		Language:   "en",
		Country:    "us",
		MaxResults: 10,
		QueryDelay: 600 * time.Millisecond,
		Allowlist:  []string{"techcrunch.com", "www.wired.com"},
	}
}

func TestBuildSearchURL(t *testing.T) {
	t.Parallel()

	u, err := buildSearchURL(testConfig("https://gnews.io/api/v4/"), "machine learning")
	if err != nil {
		t.Fatalf("buildSearchURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if parsed.Host != "gnews.io" || parsed.Path != "/api/v4/search" {
		t.Fatalf("unexpected url: %s", u)
	}

	q := parsed.Query()
	want := map[string]string{
		"q": "machine learning", "lang": "en", "country": "us",
		"max": "10", "sortby": "publishedAt", "apikey": "secret",
	}
	for key, value := range want {
		if q.Get(key) != value {
			t.Fatalf("expected %s=%s, got %s", key, value, q.Get(key))
		}
	}
}

func TestIsArticleURL(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"https://techcrunch.com/":                          false,
		"https://techcrunch.com/ai/":                       false,
		"https://techcrunch.com/2024/03/05/openai-launch/": true,
		"not a url":                                        false,
		"https://example.com/abcdefghi":                    false,
		"https://example.com/abcdefghij":                   true,
	}
	for raw, want := range cases {
		if got := isArticleURL(raw); got != want {
			t.Fatalf("isArticleURL(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	got := plainText("<p>Hello <b>world</b></p>\n<p>again</p>")
	if got != "Hello world again" {
		t.Fatalf("unexpected text: %q", got)
	}
	if plainText("  plain  ") != "plain" {
		t.Fatal("plain text must only be trimmed")
	}
}

func TestFetchBatch(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Query().Get("q") {
		case "artificial intelligence":
			_, _ = w.Write([]byte(`{"totalArticles":3,"articles":[
				{"title":"Other Source","url":"https://blog.example.net/posts/other-story","description":"desc only",
				 "source":{"name":"Example","url":"https://blog.example.net"},"publishedAt":"2024-03-05T00:10:00Z"},
				{"title":"Homepage","url":"https://techcrunch.com/","source":{"name":"TC","url":"https://techcrunch.com"}},
				{"title":"Allowed","url":"https://techcrunch.com/2024/03/05/allowed-story/","content":"<p>full content</p>",
				 "image":"https://img/1.png","source":{"name":"TechCrunch","url":"https://www.techcrunch.com"}}
			]}`))
		case "machine learning":
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"errors":["quota"]}`))
		default:
			_, _ = w.Write([]byte(`{"totalArticles":2,"articles":[
				{"title":"Duplicate","url":"https://techcrunch.com/2024/03/05/allowed-story/","source":{"url":"https://techcrunch.com"}},
				{"title":"Wired","url":"https://www.wired.com/story/ai-regulation-bill/","content":"regulation",
				 "source":{"name":"WIRED","url":"https://wired.com"}},
				{"title":"","url":""}
			]}`))
		}
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(server.Client(), testConfig(server.URL), nil)
	client.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	got, err := client.FetchBatch(context.Background(), "2024-03-05-08")
	if err != nil {
		t.Fatalf("FetchBatch error: %v", err)
	}

	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 queries, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != 600*time.Millisecond {
		t.Fatalf("unexpected throttling: %v", slept)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %+v", len(got), got)
	}
	wantOrder := []string{
		"https://techcrunch.com/2024/03/05/allowed-story/",
		"https://www.wired.com/story/ai-regulation-bill/",
		"https://blog.example.net/posts/other-story",
	}
	for i, want := range wantOrder {
		if got[i].SourceURL != want {
			t.Fatalf("position %d: got %s, want %s", i, got[i].SourceURL, want)
		}
		if got[i].BatchID != "2024-03-05-08" {
			t.Fatalf("missing batch id on %s", got[i].SourceURL)
		}
	}

	if got[0].RawContent != "full content" || got[0].SourceHost != "techcrunch.com" || got[0].ImageURL != "https://img/1.png" {
		t.Fatalf("unexpected first candidate: %+v", got[0])
	}
	if got[2].RawContent != "desc only" {
		t.Fatalf("expected description fallback, got %q", got[2].RawContent)
	}
	if got[2].PublishedAt == nil || !strings.HasPrefix(got[2].PublishedAt.Format(time.RFC3339), "2024-03-05T00:10:00") {
		t.Fatalf("unexpected published at: %v", got[2].PublishedAt)
	}
	if got[0].PublishedAt != nil {
		t.Fatal("missing publishedAt must stay nil")
	}
}

func TestFetchBatchStopsOnCancel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"articles":[]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(server.Client(), testConfig(server.URL), nil)
	client.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	if _, err := client.FetchBatch(ctx, "2024-03-05-08"); err == nil {
		t.Fatal("expected context error")
	}
}
