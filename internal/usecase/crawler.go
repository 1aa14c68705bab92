package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"PressTopics/internal/domain"
	"PressTopics/internal/ports"
)

// CrawlOptions tune one crawl run.
type CrawlOptions struct {
	// MaxArticles caps the number of URLs visited; 0 means no cap.
	MaxArticles int
	// IndustryOverride replaces the scraped industry label when set.
	IndustryOverride string
	Stop             *StopToken
	OnProgress       func(progress float64)
}

// CrawlStats summarizes a finished or interrupted crawl.
type CrawlStats struct {
	Visited  int
	Inserted int
	Failed   int
}

// Crawler fetches URLs one by one with a randomized pause and persists every
// extracted article.
type Crawler struct {
	fetcher  ports.PageFetcher
	logger   *slog.Logger
	minDelay time.Duration
	maxDelay time.Duration

	sleep  func(ctx context.Context, d time.Duration, stop *StopToken) error
	jitter func() float64
}

// NewCrawler wires a fetcher and the pacing bounds.
func NewCrawler(fetcher ports.PageFetcher, minDelay, maxDelay time.Duration, log *slog.Logger) *Crawler {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Crawler{
		fetcher:  fetcher,
		logger:   log,
		minDelay: minDelay,
		maxDelay: maxDelay,
		sleep:    sleepContext,
		jitter:   rand.Float64,
	}
}

// Run crawls urls in order into store. It returns domain.ErrStopped when the
// stop token is seen at a checkpoint; fetch and extract failures are skipped.
func (c *Crawler) Run(ctx context.Context, urls []string, store ports.ArticleStore, opts CrawlOptions) (CrawlStats, error) {
	var stats CrawlStats
	if c.fetcher == nil || store == nil {
		return stats, fmt.Errorf("crawler is not configured")
	}

	denominator := len(urls)
	if opts.MaxArticles > 0 {
		denominator = opts.MaxArticles
	}

	for i, u := range urls {
		if opts.MaxArticles > 0 && i >= opts.MaxArticles {
			break
		}

		if err := c.sleep(ctx, c.delay(), opts.Stop); err != nil {
			return stats, err
		}
		if opts.Stop.Stopped() {
			return stats, domain.ErrStopped
		}

		stats.Visited++
		article, err := c.fetcher.FetchAndExtract(ctx, u, opts.IndustryOverride)
		if opts.Stop.Stopped() {
			return stats, domain.ErrStopped
		}
		if err != nil {
			stats.Failed++
			c.warn("fail", "index", fmt.Sprintf("%d/%d", i+1, len(urls)), "url", u, "error", err)
			continue
		}

		if _, err := store.Insert(ctx, article); err != nil {
			return stats, fmt.Errorf("store %s: %w", u, err)
		}
		stats.Inserted++
		if opts.Stop.Stopped() {
			return stats, domain.ErrStopped
		}

		progress := math.Round(float64(i+1)/float64(denominator)*1000) / 10
		c.debug("stored", "index", fmt.Sprintf("%d/%d", i+1, len(urls)), "title", article.Title, "progress", progress)
		if opts.OnProgress != nil {
			opts.OnProgress(progress)
		}
	}

	return stats, nil
}

// delay picks a pause in [minDelay, maxDelay] rounded to 100ms.
func (c *Crawler) delay() time.Duration {
	span := float64(c.maxDelay - c.minDelay)
	raw := float64(c.minDelay) + c.jitter()*span
	step := float64(100 * time.Millisecond)
	return time.Duration(math.Round(raw/step) * step)
}

func sleepContext(ctx context.Context, d time.Duration, stop *StopToken) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stop.Done():
		return nil
	case <-timer.C:
		return nil
	}
}

func (c *Crawler) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Crawler) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
