package ports

import (
	"context"

	"PressTopics/internal/domain"
)

// ArticleStore is the durable corpus shared by the crawler and the analyzer.
type ArticleStore interface {
	Insert(ctx context.Context, article domain.Article) (int64, error)
	Query(ctx context.Context, selection string) ([]domain.Article, error)
	Close() error
}

// StoreOpener opens the article store for the lifetime of one job.
type StoreOpener interface {
	Open(ctx context.Context) (ArticleStore, error)
}

// PageFetcher retrieves one press-release page and extracts an article.
type PageFetcher interface {
	FetchAndExtract(ctx context.Context, url, industryOverride string) (domain.Article, error)
}

// URLSource resolves a crawl request into an ordered URL list.
type URLSource interface {
	URLs(ctx context.Context, cfg domain.JobConfig) ([]string, error)
}

// ArtifactWriter exports model tables and visualizations.
type ArtifactWriter interface {
	WriteModel(ctx context.Context, jobID string, model ModelArtifacts) ([]domain.Artifact, error)
}

// ModelArtifacts carries the inputs an ArtifactWriter renders for one family.
type ModelArtifacts struct {
	Result   domain.ModelResult
	Topics   [][]float64
	TopTerms []domain.TermCount
}

// Notifier streams a completion digest to an outbound channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}
