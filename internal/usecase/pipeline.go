package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// ErrRunInProgress is returned when a run is attempted while another is active.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Digester sends the digest of a freshly stored batch.
type Digester interface {
	Dispatch(ctx context.Context, batchID domain.BatchID) (DigestStats, error)
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Repository ports.ArticleRepository
	Enricher   *Enricher
	Digester   Digester
	Reporter   ports.RunReporter
	Logger     *slog.Logger
	Now        func() time.Time
}

// Pipeline implements the ingestion, enrichment and fan-out workflow.
type Pipeline struct {
	source     ports.ArticleSource
	repository ports.ArticleRepository
	novelty    *NoveltyFilter
	enricher   *Enricher
	digester   Digester
	reporter   ports.RunReporter
	logger     *slog.Logger
	now        func() time.Time

	running sync.Mutex
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		source:     deps.Source,
		repository: deps.Repository,
		novelty:    NewNoveltyFilter(deps.Repository),
		enricher:   deps.Enricher,
		digester:   deps.Digester,
		reporter:   deps.Reporter,
		logger:     deps.Logger,
		now:        now,
	}
}

// Run executes one batch: fetch, drop known URLs, enrich, persist and, for
// scheduled runs that stored something, send the digest.
func (p *Pipeline) Run(ctx context.Context, trigger domain.Trigger) (domain.RunResult, error) {
	if !p.running.TryLock() {
		return domain.RunResult{}, ErrRunInProgress
	}
	defer p.running.Unlock()

	started := p.now()
	batchID := domain.NewBatchID(started)
	log := p.logger
	if log != nil {
		log = log.With("run_id", uuid.NewString(), "batch", batchID, "trigger", trigger)
	}

	result, err := p.run(ctx, log, batchID, trigger, started)
	if err != nil {
		logError(log, "pipeline failed", "error", err)
	} else {
		logInfo(log, "pipeline complete", "articles_added", result.ArticlesAdded, "elapsed", time.Since(started))
	}

	if p.reporter != nil {
		if rErr := p.reporter.ReportRun(ctx, result, err); rErr != nil {
			logWarn(log, "run report failed", "error", rErr)
		}
	}
	return result, err
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, batchID domain.BatchID, trigger domain.Trigger, started time.Time) (domain.RunResult, error) {
	result := domain.RunResult{BatchID: batchID}
	logInfo(log, "pipeline started")

	candidates, err := p.source.FetchBatch(ctx, batchID)
	if err != nil {
		return result, fmt.Errorf("fetch batch: %w", err)
	}
	logInfo(log, "fetched candidates", "count", len(candidates))

	fresh, err := p.novelty.Filter(ctx, candidates)
	if err != nil {
		return result, err
	}
	logInfo(log, "novel candidates", "count", len(fresh))
	if len(fresh) == 0 {
		return result, nil
	}

	var enriched []*domain.Enrichment
	if p.enricher != nil {
		enriched, err = p.enricher.EnrichAll(ctx, fresh)
		if err != nil {
			return result, fmt.Errorf("enrich: %w", err)
		}
	}

	records := Assemble(fresh, enriched, started)
	added, err := p.repository.InsertBatch(ctx, records)
	if err != nil {
		return result, fmt.Errorf("persist batch: %w", err)
	}
	result.ArticlesAdded = added
	logInfo(log, "persisted batch", "inserted", added, "assembled", len(records))

	if trigger == domain.TriggerScheduler && added > 0 && p.digester != nil {
		stats, dErr := p.digester.Dispatch(ctx, batchID)
		if dErr != nil {
			logError(log, "digest failed", "error", dErr)
		} else {
			logInfo(log, "digest done", "sent", stats.Sent, "skipped", stats.Skipped, "failed", stats.Failed)
		}
	}
	return result, nil
}

func logInfo(log *slog.Logger, msg string, args ...interface{}) {
	if log != nil {
		log.Info(msg, args...)
	}
}

func logWarn(log *slog.Logger, msg string, args ...interface{}) {
	if log != nil {
		log.Warn(msg, args...)
	}
}

func logError(log *slog.Logger, msg string, args ...interface{}) {
	if log != nil {
		log.Error(msg, args...)
	}
}
