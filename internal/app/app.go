package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/infrastructure/gnews"
	"NewsDigest/internal/infrastructure/httpapi"
	"NewsDigest/internal/infrastructure/llm"
	"NewsDigest/internal/infrastructure/mail"
	"NewsDigest/internal/infrastructure/scheduler"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/infrastructure/telegram"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	closers   []io.Closer
}

// New opens storage and builds every adapter the pipeline needs.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store)
	if cfg.Database.Driver == storage.DriverSQLite {
		if err := store.Migrate(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	chat, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if closer, ok := chat.(io.Closer); ok {
		a.closers = append(a.closers, closer)
	}

	templates := mail.NewTemplates(cfg.Email.TemplatesDir)
	mailer := mail.NewSMTPMailer(cfg.Email, templates, baseLogger.With("component", "mail"))

	digest := usecase.NewDigestDispatcher(usecase.DigestDeps{
		Articles:    store,
		Subscribers: store,
		Templates:   templates,
		Mailer:      mailer,
	}, usecase.DigestConfig{
		AppURL:     cfg.Email.AppURL,
		ChunkSize:  cfg.Email.ChunkSize,
		ChunkPause: cfg.Email.ChunkPause,
	}, baseLogger.With("component", "digest"))

	var reporter ports.RunReporter
	tg := cfg.Notifications.Telegram
	if notifier := telegram.NewNotifier(tg.BotToken, tg.ChatID); notifier.Enabled() {
		reporter = notifier
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     gnews.NewClient(nil, cfg.Search, baseLogger.With("component", "gnews")),
		Repository: store,
		Enricher:   usecase.NewEnricher(chat, cfg.LLM.ItemDelay, baseLogger.With("component", "enricher")),
		Digester:   digest,
		Reporter:   reporter,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	driver := scheduler.NewDailyScheduler(cfg.Scheduler.Hours, cfg.Scheduler.Location(), baseLogger.With("component", "scheduler"))
	a.scheduler = usecase.NewScheduler(driver, a.pipeline, baseLogger.With("component", "scheduler"))

	return a, nil
}

// RunOnce executes a single pipeline run.
func (a *Application) RunOnce(ctx context.Context, trigger domain.Trigger) (domain.RunResult, error) {
	return a.pipeline.Run(ctx, trigger)
}

// Serve starts the scheduler and the refresh endpoint and blocks until ctx
// is cancelled or the server fails.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	handler := httpapi.NewRefreshHandler(a.pipeline, a.logger.With("component", "http"))
	server := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           httpapi.NewMux(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	return serveErr
}

// Close releases storage and provider connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
