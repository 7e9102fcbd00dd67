package ports

import (
	"context"
	"errors"
	"time"

	"NewsDigest/internal/domain"
)

// ErrRateLimited marks provider responses that asked the caller to slow down.
var ErrRateLimited = errors.New("rate limited")

// ArticleSource pulls candidate articles from the search provider.
type ArticleSource interface {
	FetchBatch(ctx context.Context, batchID domain.BatchID) ([]domain.Candidate, error)
}

// ArticleRepository persists enriched articles and answers novelty lookups.
type ArticleRepository interface {
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
	InsertBatch(ctx context.Context, records []domain.ArticleRecord) (int, error)
	ListByBatch(ctx context.Context, batchID domain.BatchID) ([]domain.ArticleRecord, error)
}

// SubscriberRepository lists digest recipients.
type SubscriberRepository interface {
	DigestSubscribers(ctx context.Context) ([]domain.Subscriber, error)
}

// ChatClient sends one system+user exchange to a generation model.
// Implementations wrap ErrRateLimited when the provider throttles.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Message is a rendered HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer submits rendered emails to the transport.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// TemplateRenderer fills a named email template with {{TOKEN}} values.
type TemplateRenderer interface {
	Render(name string, vars map[string]string) (string, error)
}

// RunReporter streams pipeline outcomes to an operator channel.
type RunReporter interface {
	ReportRun(ctx context.Context, result domain.RunResult, runErr error) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
