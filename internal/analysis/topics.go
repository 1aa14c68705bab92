package analysis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"PressTopics/internal/domain"
)

// FittedModel is one fitted topic model: its top terms, the full topic-term
// weights and the document-topic matrix (docs × k).
type FittedModel struct {
	Model      domain.TopicModel
	Components *mat.Dense
	DocTopics  *mat.Dense
}

// FitTopicModel fits the given family to matrix and extracts the
// nTopicWords heaviest terms of every topic.
func FitTopicModel(family domain.ModelFamily, matrix mat.Matrix, vocab []string, k, nTopicWords int) (FittedModel, error) {
	_, cols := matrix.Dims()
	if cols != len(vocab) {
		return FittedModel{}, fmt.Errorf("matrix has %d columns, vocabulary %d terms", cols, len(vocab))
	}
	if cols == 0 {
		return FittedModel{}, domain.ErrEmptyVocabulary
	}

	var (
		components, docTopics *mat.Dense
		err                   error
	)
	switch family {
	case domain.FamilyFactorization:
		docTopics, components, err = NMF(matrix, k)
	case domain.FamilyAllocation:
		components, docTopics, err = LDA(matrix, k)
	default:
		return FittedModel{}, fmt.Errorf("unknown model family %q", family)
	}
	if err != nil {
		return FittedModel{}, fmt.Errorf("fit %s model: %w", family, err)
	}

	return FittedModel{
		Model: domain.TopicModel{
			Family: family,
			Topics: TopicTerms(components, vocab, nTopicWords),
		},
		Components: components,
		DocTopics:  docTopics,
	}, nil
}

// TopicTerms returns, per topic row, the n highest-weighted terms. Equal
// weights keep vocabulary order.
func TopicTerms(components mat.Matrix, vocab []string, n int) [][]domain.TermWeight {
	k, cols := components.Dims()
	limit := min(max(n, 0), cols)

	topics := make([][]domain.TermWeight, k)
	order := make([]int, cols)
	for t := 0; t < k; t++ {
		for j := range order {
			order[j] = j
		}
		sort.SliceStable(order, func(a, b int) bool {
			return components.At(t, order[a]) > components.At(t, order[b])
		})

		terms := make([]domain.TermWeight, limit)
		for r := 0; r < limit; r++ {
			j := order[r]
			terms[r] = domain.TermWeight{Term: vocab[j], Weight: components.At(t, j)}
		}
		topics[t] = terms
	}
	return topics
}

// DocumentRows pairs each article with its row of docTopics.
func DocumentRows(articles []domain.Article, docTopics mat.Matrix) []domain.DocumentTopicRow {
	rows, k := docTopics.Dims()
	n := min(rows, len(articles))

	out := make([]domain.DocumentTopicRow, n)
	for i := 0; i < n; i++ {
		weights := make([]float64, k)
		mat.Row(weights, i, docTopics)
		out[i] = domain.DocumentTopicRow{
			ArticleID: articles[i].ID,
			Title:     articles[i].Title,
			Link:      articles[i].Link,
			Weights:   weights,
		}
	}
	return out
}
