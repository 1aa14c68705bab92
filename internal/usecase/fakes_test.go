package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"PressTopics/internal/analysis"
	"PressTopics/internal/domain"
	"PressTopics/internal/ports"
)

// wordSegmenter treats every whitespace-separated field as a common noun.
type wordSegmenter struct{}

func (wordSegmenter) Segment(text string) []analysis.Morpheme {
	var out []analysis.Morpheme
	for _, f := range strings.Fields(text) {
		out = append(out, analysis.Morpheme{Surface: f, POS: []string{"名詞", "一般", "*", "*"}})
	}
	return out
}

var corpusTexts = []string{
	"alpha beta gamma common",
	"alpha beta gamma common alpha",
	"alpha beta delta common",
	"beta gamma delta common",
	"alpha gamma delta common",
	"epsilon zeta eta common",
	"epsilon zeta theta common",
	"epsilon eta theta common",
	"zeta eta theta common",
	"epsilon zeta eta theta common",
}

// fakeFetcher serves canned articles; URLs listed in failures return ErrFetch.
type fakeFetcher struct {
	mu       sync.Mutex
	failures map[string]bool
	calls    []string
	onFetch  func(call int, url string)
}

func (f *fakeFetcher) FetchAndExtract(_ context.Context, url, industry string) (domain.Article, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	call := len(f.calls)
	hook := f.onFetch
	fail := f.failures[url]
	f.mu.Unlock()

	if hook != nil {
		hook(call, url)
	}
	if fail {
		return domain.Article{}, fmt.Errorf("%w: %s returned 503", domain.ErrFetch, url)
	}
	return domain.Article{
		Title:    "title " + url,
		Link:     url,
		Industry: industry,
		Content:  corpusTexts[(call-1)%len(corpusTexts)],
	}, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memStore is an in-memory ArticleStore. When gate is set, Query signals
// entered and blocks until gate is closed.
type memStore struct {
	mu        sync.Mutex
	articles  []domain.Article
	nextID    int64
	insertErr error

	gate    chan struct{}
	entered chan struct{}
}

var _ ports.ArticleStore = (*memStore)(nil)

func newMemStore(contents ...string) *memStore {
	s := &memStore{}
	for i, c := range contents {
		_, _ = s.Insert(context.Background(), domain.Article{
			Title:   fmt.Sprintf("seeded %d", i),
			Link:    fmt.Sprintf("https://example.com/seeded/%d", i),
			Content: c,
		})
	}
	return s
}

func (s *memStore) Insert(_ context.Context, a domain.Article) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.nextID++
	a.ID = s.nextID
	s.articles = append(s.articles, a)
	return a.ID, nil
}

func (s *memStore) Query(_ context.Context, _ string) ([]domain.Article, error) {
	if s.gate != nil {
		close(s.entered)
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Article(nil), s.articles...), nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles)
}

type memOpener struct{ store *memStore }

func (o memOpener) Open(context.Context) (ports.ArticleStore, error) { return o.store, nil }

type staticURLs struct {
	urls []string
	err  error
}

func (s staticURLs) URLs(context.Context, domain.JobConfig) ([]string, error) {
	return s.urls, s.err
}

type recordingNotifier struct {
	mu      sync.Mutex
	digests []string
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digests = append(n.digests, digest)
	return nil
}

func (n *recordingNotifier) Digests() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.digests...)
}

type panickingAnalyzer struct{}

func (panickingAnalyzer) Run(context.Context, string, ports.ArticleStore, domain.JobConfig, *StopToken) (domain.JobResult, error) {
	panic("boom")
}
