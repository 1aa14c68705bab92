package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"PressTopics/internal/analysis"
	"PressTopics/internal/api"
	"PressTopics/internal/config"
	"PressTopics/internal/domain"
	"PressTopics/internal/infrastructure/export"
	"PressTopics/internal/infrastructure/parser"
	"PressTopics/internal/infrastructure/storage"
	"PressTopics/internal/infrastructure/telegram"
	"PressTopics/internal/logging"
	"PressTopics/internal/scanner"
	"PressTopics/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	orchestrator *usecase.Orchestrator
	artifacts    *export.FileWriter
}

// New builds the application: discovery strategies, crawler, analyzer and
// the job orchestrator over the configured SQLite store.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	client := &http.Client{Timeout: cfg.Crawler.RequestTimeout}

	registry := scanner.NewRegistry()
	registry.Register(parser.SeedDiscoverer{})
	registry.Register(parser.NewSearchDiscoverer(
		client,
		cfg.Crawler.SearchURL,
		cfg.Crawler.BaseURL,
		cfg.Crawler.PageSize,
		baseLogger.With("component", "scanner.search"),
	))
	source := parser.NewStrategySource(registry, baseLogger.With("component", "source"))

	fetcher := parser.NewPageFetcher(client, baseLogger.With("component", "fetcher"))
	crawler := usecase.NewCrawler(fetcher, cfg.Crawler.MinDelay, cfg.Crawler.MaxDelay, baseLogger.With("component", "crawler"))

	segmenter, err := analysis.NewKagomeSegmenter()
	if err != nil {
		return nil, fmt.Errorf("init tokenizer: %w", err)
	}
	artifacts := export.NewFileWriter(cfg.Artifacts.Dir, baseLogger.With("component", "export"))
	analyzer := usecase.NewAnalyzer(segmenter, artifacts, baseLogger.With("component", "analyzer"))

	deps := usecase.OrchestratorDeps{
		Stores:   storage.SQLiteOpener{Path: cfg.Database.Path},
		URLs:     source,
		Crawler:  crawler,
		Analyzer: analyzer,
		Logger:   baseLogger.With("component", "orchestrator"),
	}
	tg := cfg.Notifications.Telegram
	if notifier := telegram.NewNotifier(tg.BotToken, tg.ChatID); notifier.Enabled() {
		deps.Notifier = notifier
	}

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		orchestrator: usecase.NewOrchestrator(deps),
		artifacts:    artifacts,
	}, nil
}

// JobParams fills unset request fields from configuration.
func (a *Application) JobParams(p domain.JobParams) domain.JobParams {
	p = a.cfg.Analysis.JobDefaults(p)
	if p.MaxArticles == 0 {
		p.MaxArticles = a.cfg.Crawler.MaxArticles
	}
	return p
}

// Handler returns the HTTP handler of the job control API.
func (a *Application) Handler() http.Handler {
	return api.NewRouter(api.NewJobHandler(a.orchestrator, a.artifacts, a.JobParams))
}

// Serve runs the HTTP API until ctx is cancelled, then shuts the server down
// and stops the running job.
func (a *Application) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("api listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		return errors.Join(err, a.orchestrator.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

// RunJob executes one job in the foreground and returns its result. Cancelling
// ctx stops the job.
func (a *Application) RunJob(ctx context.Context, params domain.JobParams) (domain.JobResult, error) {
	cfg, err := domain.NewJobConfig(a.JobParams(params))
	if err != nil {
		return domain.JobResult{}, err
	}

	id, err := a.orchestrator.Start(ctx, cfg)
	if err != nil {
		return domain.JobResult{}, err
	}
	a.logger.Info("job running", "job", id, "crawl", cfg.ShouldCrawl())

	stopped := context.AfterFunc(ctx, func() { a.orchestrator.Stop() })
	defer stopped()

	if err := a.orchestrator.Wait(context.WithoutCancel(ctx)); err != nil {
		return domain.JobResult{}, err
	}
	return a.orchestrator.Result()
}
