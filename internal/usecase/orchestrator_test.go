package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"PressTopics/internal/domain"
)

func analysisParams() domain.JobParams {
	return domain.JobParams{
		Query:       "SELECT * FROM articles",
		StopWords:   []string{"common"},
		NComponents: 2,
		NFeatures:   1000,
		NTopWords:   5,
		NTopicWords: 5,
	}
}

func mustConfig(t *testing.T, p domain.JobParams) domain.JobConfig {
	t.Helper()
	cfg, err := domain.NewJobConfig(p)
	require.NoError(t, err)
	return cfg
}

func newTestOrchestrator(fetcher *fakeFetcher, store *memStore, urls staticURLs, notifier *recordingNotifier) *Orchestrator {
	deps := OrchestratorDeps{
		Stores:   memOpener{store: store},
		URLs:     urls,
		Crawler:  newTestCrawler(fetcher),
		Analyzer: NewAnalyzer(wordSegmenter{}, nil, nil),
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	o := NewOrchestrator(deps)
	o.newID = func() string { return "job-1" }
	return o
}

func waitJob(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, o.Wait(ctx))
}

func TestOrchestratorSeedScenario(t *testing.T) {
	t.Parallel()

	urls := urlList(3)
	fetcher := &fakeFetcher{failures: map[string]bool{urls[1]: true}}
	store := newMemStore(corpusTexts...)
	notifier := &recordingNotifier{}
	o := newTestOrchestrator(fetcher, store, staticURLs{urls: urls}, notifier)

	params := analysisParams()
	params.SeedURLs = urls
	id, err := o.Start(context.Background(), mustConfig(t, params))
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)

	waitJob(t, o)

	assert.Equal(t, len(corpusTexts)+2, store.Len())
	snap := o.Status()
	assert.Equal(t, domain.StatusComplete, snap.State)
	assert.Equal(t, 100.0, snap.Progress)
	assert.Equal(t, "job-1", snap.ID)

	result, err := o.Result()
	require.NoError(t, err)
	assert.Len(t, result.TopTerms, 5)
	for _, model := range []domain.ModelResult{result.Factorization, result.Allocation} {
		require.Len(t, model.Model.Topics, 2)
		for _, topic := range model.Model.Topics {
			assert.Len(t, topic, 5)
		}
		assert.Len(t, model.Documents, len(corpusTexts)+2)
	}
	for _, row := range result.Allocation.Documents {
		assert.InDelta(t, 1.0, floats.Sum(row.Weights), 1e-9)
	}

	require.Len(t, notifier.Digests(), 1)
	assert.Contains(t, notifier.Digests()[0], "job-1")
}

func TestOrchestratorAnalysisOnly(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	store := newMemStore(corpusTexts...)
	o := newTestOrchestrator(fetcher, store, staticURLs{}, nil)

	_, err := o.Start(context.Background(), mustConfig(t, analysisParams()))
	require.NoError(t, err)
	waitJob(t, o)

	assert.Equal(t, domain.StatusComplete, o.Status().State)
	assert.Zero(t, fetcher.Calls())
	assert.Equal(t, len(corpusTexts), store.Len())

	result, err := o.Result()
	require.NoError(t, err)
	for _, tc := range result.TopTerms {
		assert.NotEqual(t, "common", tc.Term)
	}
}

func TestOrchestratorRejectsStartWhileAnalyzing(t *testing.T) {
	t.Parallel()

	store := newMemStore(corpusTexts...)
	store.gate = make(chan struct{})
	store.entered = make(chan struct{})
	o := newTestOrchestrator(&fakeFetcher{}, store, staticURLs{}, nil)

	_, err := o.Start(context.Background(), mustConfig(t, analysisParams()))
	require.NoError(t, err)

	select {
	case <-store.entered:
	case <-time.After(10 * time.Second):
		t.Fatal("analysis did not start")
	}

	before := o.Status()
	require.Equal(t, domain.StatusAnalyzing, before.State)

	_, err = o.Start(context.Background(), mustConfig(t, analysisParams()))
	assert.ErrorIs(t, err, domain.ErrJobRunning)
	assert.Equal(t, before, o.Status())

	_, err = o.Result()
	assert.ErrorIs(t, err, domain.ErrResultPending)

	close(store.gate)
	waitJob(t, o)
	assert.Equal(t, domain.StatusComplete, o.Status().State)
}

func TestOrchestratorStopMidCrawl(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	fetcher := &fakeFetcher{}
	o := newTestOrchestrator(fetcher, store, staticURLs{urls: urlList(5)}, nil)
	fetcher.onFetch = func(call int, _ string) {
		if call == 2 {
			assert.True(t, o.Stop())
		}
	}

	params := analysisParams()
	industry := 3
	params.Keyword = "AI"
	params.Industry = &industry
	_, err := o.Start(context.Background(), mustConfig(t, params))
	require.NoError(t, err)
	waitJob(t, o)

	snap := o.Status()
	assert.Equal(t, domain.StatusIdle, snap.State)
	assert.Zero(t, snap.Progress)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 2, fetcher.Calls())

	_, err = o.Result()
	assert.ErrorIs(t, err, domain.ErrStopped)
	assert.False(t, o.Stop())
}

func TestOrchestratorDiscoveryErrorCapturesTrace(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(&fakeFetcher{}, newMemStore(), staticURLs{err: domain.ErrNoURLs}, nil)

	params := analysisParams()
	params.SeedURLs = []string{"https://example.com/1"}
	_, err := o.Start(context.Background(), mustConfig(t, params))
	require.NoError(t, err)
	waitJob(t, o)

	assert.Equal(t, domain.StatusError, o.Status().State)

	_, err = o.Result()
	assert.ErrorIs(t, err, domain.ErrDiscovery)
	var jobErr *domain.JobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, StageDiscover, jobErr.Stage)
	assert.NotEmpty(t, jobErr.Trace)
	assert.NotContains(t, jobErr.Error(), "goroutine")
}

func TestOrchestratorEmptyCorpusIsFatal(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(&fakeFetcher{}, newMemStore(), staticURLs{}, nil)
	_, err := o.Start(context.Background(), mustConfig(t, analysisParams()))
	require.NoError(t, err)
	waitJob(t, o)

	_, err = o.Result()
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
	assert.True(t, domain.IsCorpusError(err))

	// a new job may start once the previous one is terminal
	_, err = o.Start(context.Background(), mustConfig(t, analysisParams()))
	assert.NoError(t, err)
	waitJob(t, o)
}

func TestOrchestratorRecoversPanics(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(OrchestratorDeps{
		Stores:   memOpener{store: newMemStore(corpusTexts...)},
		Analyzer: panickingAnalyzer{},
	})
	_, err := o.Start(context.Background(), mustConfig(t, analysisParams()))
	require.NoError(t, err)
	waitJob(t, o)

	_, err = o.Result()
	var jobErr *domain.JobError
	require.True(t, errors.As(err, &jobErr))
	assert.Equal(t, StageAnalyze, jobErr.Stage)
	assert.Contains(t, jobErr.Err.Error(), "boom")
	assert.Contains(t, jobErr.Trace, "goroutine")
}

func TestOrchestratorWithoutJob(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(&fakeFetcher{}, newMemStore(), staticURLs{}, nil)

	_, err := o.Result()
	assert.ErrorIs(t, err, domain.ErrNoJob)
	assert.Equal(t, domain.JobSnapshot{State: domain.StatusIdle}, o.Status())
	assert.False(t, o.Stop())
	assert.NoError(t, o.Wait(context.Background()))
}

func TestOrchestratorRequiresCrawlDeps(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(OrchestratorDeps{
		Stores:   memOpener{store: newMemStore()},
		Analyzer: NewAnalyzer(wordSegmenter{}, nil, nil),
	})
	params := analysisParams()
	params.SeedURLs = []string{"https://example.com/1"}

	_, err := o.Start(context.Background(), mustConfig(t, params))
	assert.Error(t, err)
	assert.Equal(t, domain.JobSnapshot{State: domain.StatusIdle}, o.Status())
}

func TestBuildDigestMessage(t *testing.T) {
	t.Parallel()

	msg := buildDigestMessage("job-9", domain.JobResult{
		TopTerms: []domain.TermCount{{Term: "サービス", Count: 4}},
		Allocation: domain.ModelResult{
			Model: domain.TopicModel{
				Family: domain.FamilyAllocation,
				Topics: [][]domain.TermWeight{{{Term: "開発", Weight: 0.4}}},
			},
			Documents: []domain.DocumentTopicRow{{ArticleID: 1}},
		},
	})

	assert.Contains(t, msg, "job-9")
	assert.Contains(t, msg, "サービス (4)")
	assert.Contains(t, msg, "Topic 0: 開発")
	assert.NotContains(t, msg, string(domain.FamilyFactorization))
}
