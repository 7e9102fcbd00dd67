package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/enrichment"
	"NewsDigest/internal/ports"
)

// MaxEnrichAttempts bounds calls to the model per candidate.
const MaxEnrichAttempts = 3

var (
	rateLimitBackoff = []time.Duration{30 * time.Second, 60 * time.Second}
	errorBackoff     = []time.Duration{2 * time.Second, 4 * time.Second}
)

// Enricher classifies and translates candidates one at a time.
type Enricher struct {
	chat      ports.ChatClient
	itemDelay time.Duration
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewEnricher wires the chat client; itemDelay is the pause between items.
func NewEnricher(chat ports.ChatClient, itemDelay time.Duration, log *slog.Logger) *Enricher {
	return &Enricher{
		chat:      chat,
		itemDelay: itemDelay,
		logger:    log,
		sleep:     sleepContext,
	}
}

// EnrichAll returns one entry per candidate, index aligned. A nil entry marks
// a candidate whose enrichment failed. Only context cancellation is an error.
func (e *Enricher) EnrichAll(ctx context.Context, candidates []domain.Candidate) ([]*domain.Enrichment, error) {
	results := make([]*domain.Enrichment, len(candidates))
	for i, c := range candidates {
		if i > 0 {
			if err := e.sleep(ctx, e.itemDelay); err != nil {
				return nil, err
			}
		}

		res, err := e.Enrich(ctx, c)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.warn("enrichment failed", "url", c.SourceURL, "error", err)
			continue
		}
		results[i] = res
	}
	return results, nil
}

// Enrich calls the model with bounded retries. Rate limited attempts back off
// longer than other failures; unparseable output counts as a failure.
func (e *Enricher) Enrich(ctx context.Context, c domain.Candidate) (*domain.Enrichment, error) {
	user := enrichment.UserPrompt(c)

	var lastErr error
	for attempt := 1; attempt <= MaxEnrichAttempts; attempt++ {
		res, err := e.attempt(ctx, user)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == MaxEnrichAttempts {
			break
		}

		delay := retryDelay(err, attempt)
		e.debug("retrying enrichment", "url", c.SourceURL, "attempt", attempt, "delay", delay, "error", err)
		if err := e.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (e *Enricher) attempt(ctx context.Context, user string) (*domain.Enrichment, error) {
	raw, err := e.chat.Complete(ctx, enrichment.SystemPrompt, user)
	if err != nil {
		return nil, err
	}
	return enrichment.Parse(raw)
}

// retryDelay picks the wait before attempt+1.
func retryDelay(err error, attempt int) time.Duration {
	table := errorBackoff
	if errors.Is(err, ports.ErrRateLimited) {
		table = rateLimitBackoff
	}
	idx := attempt - 1
	if idx >= len(table) {
		idx = len(table) - 1
	}
	return table[idx]
}

func (e *Enricher) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e *Enricher) warn(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
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
