package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"PressTopics/internal/domain"
	"PressTopics/internal/ports"
)

// CrawlRunner crawls a URL list into a store.
type CrawlRunner interface {
	Run(ctx context.Context, urls []string, store ports.ArticleStore, opts CrawlOptions) (CrawlStats, error)
}

// CorpusAnalyzer fits the topic models over the selected corpus.
type CorpusAnalyzer interface {
	Run(ctx context.Context, jobID string, store ports.ArticleStore, cfg domain.JobConfig, stop *StopToken) (domain.JobResult, error)
}

var (
	_ CrawlRunner    = (*Crawler)(nil)
	_ CorpusAnalyzer = (*Analyzer)(nil)
)

// Stage names recorded on job errors.
const (
	StageInitialize = "initialize"
	StageDiscover   = "discover"
	StageCrawl      = "crawl"
	StageAnalyze    = "analyze"
)

// OrchestratorDeps wires the driven adapters and use cases of a job.
type OrchestratorDeps struct {
	Stores   ports.StoreOpener
	URLs     ports.URLSource
	Crawler  CrawlRunner
	Analyzer CorpusAnalyzer
	Notifier ports.Notifier
	Logger   *slog.Logger
}

// job is the state of one run. Every field after config is guarded by the
// orchestrator mutex.
type job struct {
	id     string
	config domain.JobConfig
	stop   *StopToken
	done   chan struct{}

	status   domain.JobStatus
	progress float64
	result   *domain.JobResult
	err      *domain.JobError
}

// Orchestrator runs at most one crawl-and-analyze job at a time.
type Orchestrator struct {
	stores   ports.StoreOpener
	urls     ports.URLSource
	crawler  CrawlRunner
	analyzer CorpusAnalyzer
	notifier ports.Notifier
	logger   *slog.Logger
	newID    func() string

	mu      sync.Mutex
	current *job
}

// NewOrchestrator constructs the job orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		stores:   deps.Stores,
		urls:     deps.URLs,
		crawler:  deps.Crawler,
		analyzer: deps.Analyzer,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		newID:    uuid.NewString,
	}
}

// Start launches a job for cfg on its own goroutine and returns its id. It
// fails with domain.ErrJobRunning while another job is processing. The job
// outlives ctx's cancellation but keeps its values.
func (o *Orchestrator) Start(ctx context.Context, cfg domain.JobConfig) (string, error) {
	if o.stores == nil || o.analyzer == nil {
		return "", fmt.Errorf("orchestrator is not configured")
	}
	if cfg.ShouldCrawl() && (o.urls == nil || o.crawler == nil) {
		return "", fmt.Errorf("crawling is not configured")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil && o.current.status.Processing() {
		return "", domain.ErrJobRunning
	}

	j := &job{
		id:     o.newID(),
		config: cfg,
		stop:   NewStopToken(),
		done:   make(chan struct{}),
		status: domain.StatusIdle,
	}
	if !o.moveLocked(j, domain.StatusInitializing) {
		return "", fmt.Errorf("job %s cannot start from %s", j.id, j.status)
	}
	o.current = j

	o.info("job started", "job", j.id, "crawl", cfg.ShouldCrawl())
	go o.run(context.WithoutCancel(ctx), j)
	return j.id, nil
}

// Stop cancels the processing job: its status returns to IDLE with progress
// 0 and the worker exits at its next checkpoint. It reports whether a job was
// stopped.
func (o *Orchestrator) Stop() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	j := o.current
	if j == nil || !j.status.Processing() {
		return false
	}

	j.stop.Stop()
	o.moveLocked(j, domain.StatusIdle)
	j.progress = 0
	o.info("job stopped", "job", j.id)
	return true
}

// Status returns the current job's state and progress.
func (o *Orchestrator) Status() domain.JobSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil {
		return domain.JobSnapshot{State: domain.StatusIdle}
	}
	return domain.JobSnapshot{
		ID:       o.current.id,
		State:    o.current.status,
		Progress: o.current.progress,
	}
}

// Result returns the completed job's result, or the job error, or one of
// domain.ErrNoJob, domain.ErrResultPending and domain.ErrStopped.
func (o *Orchestrator) Result() (domain.JobResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	j := o.current
	switch {
	case j == nil:
		return domain.JobResult{}, domain.ErrNoJob
	case j.status == domain.StatusComplete && j.result != nil:
		return *j.result, nil
	case j.status == domain.StatusError && j.err != nil:
		return domain.JobResult{}, j.err
	case j.stop.Stopped():
		return domain.JobResult{}, domain.ErrStopped
	default:
		return domain.JobResult{}, domain.ErrResultPending
	}
}

// Wait blocks until the current job's worker has exited or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	j := o.current
	o.mu.Unlock()

	if j == nil {
		return nil
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the current job and waits for its worker.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.Stop()
	return o.Wait(ctx)
}

func (o *Orchestrator) run(ctx context.Context, j *job) {
	defer close(j.done)

	stage := StageInitialize
	defer func() {
		if r := recover(); r != nil {
			o.fail(j, stage, fmt.Errorf("panic: %v", r), string(debug.Stack()))
		}
	}()

	store, err := o.stores.Open(ctx)
	if err != nil {
		o.fail(j, stage, fmt.Errorf("open store: %w", err), string(debug.Stack()))
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			o.warn("close store", "job", j.id, "error", err)
		}
	}()

	if j.stop.Stopped() {
		return
	}

	if j.config.ShouldCrawl() {
		stage = StageDiscover
		urls, err := o.urls.URLs(ctx, j.config)
		if err != nil {
			o.fail(j, stage, err, string(debug.Stack()))
			return
		}
		o.info("urls discovered", "job", j.id, "count", len(urls))

		if !o.move(j, domain.StatusCrawling) {
			return
		}

		stage = StageCrawl
		stats, err := o.crawler.Run(ctx, urls, store, CrawlOptions{
			MaxArticles:      j.config.MaxArticles(),
			IndustryOverride: j.config.IndustryLabel(),
			Stop:             j.stop,
			OnProgress:       func(p float64) { o.setProgress(j, p) },
		})
		if errors.Is(err, domain.ErrStopped) {
			return
		}
		if err != nil {
			o.fail(j, stage, err, string(debug.Stack()))
			return
		}
		o.info("crawl finished", "job", j.id, "visited", stats.Visited, "inserted", stats.Inserted, "failed", stats.Failed)
	}

	if !o.move(j, domain.StatusAnalyzing) {
		return
	}

	stage = StageAnalyze
	result, err := o.analyzer.Run(ctx, j.id, store, j.config, j.stop)
	if errors.Is(err, domain.ErrStopped) {
		return
	}
	if err != nil {
		o.fail(j, stage, err, string(debug.Stack()))
		return
	}

	if !o.complete(j, result) {
		return
	}
	o.info("job complete", "job", j.id, "top_terms", len(result.TopTerms))
	o.notify(ctx, j.id, result)
}

// move applies a worker transition unless the job was stopped meanwhile.
func (o *Orchestrator) move(j *job, to domain.JobStatus) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if j.stop.Stopped() {
		return false
	}
	return o.moveLocked(j, to)
}

func (o *Orchestrator) moveLocked(j *job, to domain.JobStatus) bool {
	if !domain.CanTransition(j.status, to) {
		o.warn("illegal transition", "job", j.id, "from", j.status, "to", to)
		return false
	}
	o.debug("transition", "job", j.id, "from", j.status, "to", to)
	j.status = to
	return true
}

// complete publishes the result and the COMPLETE state in one step.
func (o *Orchestrator) complete(j *job, result domain.JobResult) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if j.stop.Stopped() || !domain.CanTransition(j.status, domain.StatusComplete) {
		return false
	}
	j.result = &result
	j.status = domain.StatusComplete
	return true
}

func (o *Orchestrator) fail(j *job, stage string, err error, trace string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if j.stop.Stopped() || !domain.CanTransition(j.status, domain.StatusError) {
		return
	}
	j.err = &domain.JobError{Stage: stage, Err: err, Trace: trace}
	j.status = domain.StatusError
	o.logError("job failed", "job", j.id, "stage", stage, "error", err)
}

func (o *Orchestrator) setProgress(j *job, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if j.stop.Stopped() || j.status != domain.StatusCrawling || progress < j.progress {
		return
	}
	j.progress = progress
}

func (o *Orchestrator) notify(ctx context.Context, jobID string, result domain.JobResult) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.PublishDigest(ctx, buildDigestMessage(jobID, result)); err != nil {
		o.warn("publish digest", "job", jobID, "error", err)
	}
}

func (o *Orchestrator) debug(msg string, args ...interface{}) {
	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}

func (o *Orchestrator) info(msg string, args ...interface{}) {
	if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o *Orchestrator) warn(msg string, args ...interface{}) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}

func (o *Orchestrator) logError(msg string, args ...interface{}) {
	if o.logger != nil {
		o.logger.Error(msg, args...)
	}
}
