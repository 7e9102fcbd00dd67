package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// Scheduler wires the time driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: log}
}

// Start registers a scheduled pipeline run with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(fired time.Time) {
		logInfo(s.logger, "scheduled run triggered", "at", fired)
		result, err := s.pipeline.Run(ctx, domain.TriggerScheduler)
		switch {
		case errors.Is(err, ErrRunInProgress):
			logWarn(s.logger, "scheduled run skipped, previous run still active")
		case err != nil:
			logError(s.logger, "scheduled run failed", "error", err)
		default:
			logInfo(s.logger, "scheduled run complete", "batch", result.BatchID, "articles_added", result.ArticlesAdded)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
