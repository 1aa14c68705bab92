package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"PressTopics/internal/analysis"
	"PressTopics/internal/domain"
	"PressTopics/internal/ports"
)

// Analyzer turns the selected corpus into both topic models.
type Analyzer struct {
	segmenter analysis.Segmenter
	artifacts ports.ArtifactWriter
	logger    *slog.Logger
}

// NewAnalyzer wires the segmenter and an optional artifact writer.
func NewAnalyzer(seg analysis.Segmenter, artifacts ports.ArtifactWriter, log *slog.Logger) *Analyzer {
	return &Analyzer{
		segmenter: seg,
		artifacts: artifacts,
		logger:    log,
	}
}

// Run queries store with the job's selection, vectorizes the articles and
// fits the factorization and allocation models. The stop token is checked
// between stages.
func (a *Analyzer) Run(ctx context.Context, jobID string, store ports.ArticleStore, cfg domain.JobConfig, stop *StopToken) (domain.JobResult, error) {
	if a.segmenter == nil || store == nil {
		return domain.JobResult{}, fmt.Errorf("analyzer is not configured")
	}

	articles, err := store.Query(ctx, cfg.Query())
	if err != nil {
		return domain.JobResult{}, fmt.Errorf("query corpus: %w", err)
	}
	if len(articles) == 0 {
		return domain.JobResult{}, domain.ErrEmptyCorpus
	}
	if stop.Stopped() {
		return domain.JobResult{}, domain.ErrStopped
	}

	corpus := make([]string, len(articles))
	for i, art := range articles {
		corpus[i] = art.Content
	}

	tok := analysis.NewTokenizer(a.segmenter, cfg.StopWords())
	terms, err := analysis.Vectorize(corpus, tok, cfg.NFeatures())
	if err != nil {
		return domain.JobResult{}, fmt.Errorf("vectorize %d articles: %w", len(articles), err)
	}
	a.debug("vectorized", "articles", len(articles), "terms", len(terms.CountVocabulary))

	result := domain.JobResult{
		TopTerms: analysis.OverallTopTerms(terms.Counts, terms.CountVocabulary, cfg.NTopWords()),
	}

	inputs := []struct {
		family domain.ModelFamily
		matrix *mat.Dense
		vocab  []string
		target *domain.ModelResult
	}{
		{domain.FamilyFactorization, terms.Weighted, terms.WeightedVocabulary, &result.Factorization},
		{domain.FamilyAllocation, terms.Counts, terms.CountVocabulary, &result.Allocation},
	}

	for _, in := range inputs {
		if stop.Stopped() {
			return domain.JobResult{}, domain.ErrStopped
		}

		fitted, err := analysis.FitTopicModel(in.family, in.matrix, in.vocab, cfg.NComponents(), cfg.NTopicWords())
		if err != nil {
			return domain.JobResult{}, err
		}

		model := domain.ModelResult{
			Model:     fitted.Model,
			Documents: analysis.DocumentRows(articles, fitted.DocTopics),
		}
		a.debug("model fitted", "family", in.family, "topics", len(model.Model.Topics))

		if a.artifacts != nil {
			written, err := a.artifacts.WriteModel(ctx, jobID, ports.ModelArtifacts{
				Result:   model,
				Topics:   rowsOf(fitted.Components),
				TopTerms: result.TopTerms,
			})
			if err != nil {
				return domain.JobResult{}, fmt.Errorf("export %s artifacts: %w", in.family, err)
			}
			model.Artifacts = written
		}

		*in.target = model
	}

	return result, nil
}

func rowsOf(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		mat.Row(out[i], i, m)
	}
	return out
}

func (a *Analyzer) debug(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
