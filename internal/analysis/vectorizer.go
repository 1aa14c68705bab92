package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"PressTopics/internal/domain"
)

// Document-frequency bounds shared by both matrices.
const (
	maxDocFraction = 0.95
	minDocCount    = 2
)

// DocumentTerms holds the two document-term matrices built from one corpus.
// Rows follow the corpus order, columns follow the vocabulary.
type DocumentTerms struct {
	Weighted           *mat.Dense
	WeightedVocabulary []string
	Counts             *mat.Dense
	CountVocabulary    []string
}

// Vectorize tokenizes every document once and builds a TF-IDF matrix and a
// raw count matrix, each capped at nFeatures terms.
func Vectorize(corpus []string, tok *Tokenizer, nFeatures int) (DocumentTerms, error) {
	if len(corpus) == 0 {
		return DocumentTerms{}, domain.ErrEmptyCorpus
	}
	if nFeatures < 1 {
		return DocumentTerms{}, fmt.Errorf("n_features must be >= 1, got %d", nFeatures)
	}

	docs := make([]map[string]int, len(corpus))
	df := map[string]int{}
	tf := map[string]int{}
	for i, text := range corpus {
		counts := map[string]int{}
		for _, term := range tok.Tokenize(text) {
			counts[term]++
			tf[term]++
		}
		for term := range counts {
			df[term]++
		}
		docs[i] = counts
	}

	vocab := selectVocabulary(df, tf, len(corpus), nFeatures)
	if len(vocab) == 0 {
		return DocumentTerms{}, domain.ErrEmptyVocabulary
	}

	counts := countMatrix(docs, vocab)
	weighted := tfidf(counts)

	return DocumentTerms{
		Weighted:           weighted,
		WeightedVocabulary: vocab,
		Counts:             counts,
		CountVocabulary:    append([]string(nil), vocab...),
	}, nil
}

// selectVocabulary applies the document-frequency bounds, keeps the nFeatures
// most frequent terms and returns them in lexical order.
func selectVocabulary(df, tf map[string]int, nDocs, nFeatures int) []string {
	maxDocs := maxDocFraction * float64(nDocs)

	kept := make([]string, 0, len(df))
	for term, n := range df {
		if n < minDocCount || float64(n) > maxDocs {
			continue
		}
		kept = append(kept, term)
	}

	sort.Slice(kept, func(i, j int) bool {
		if tf[kept[i]] != tf[kept[j]] {
			return tf[kept[i]] > tf[kept[j]]
		}
		return kept[i] < kept[j]
	})
	if len(kept) > nFeatures {
		kept = kept[:nFeatures]
	}
	sort.Strings(kept)
	return kept
}

func countMatrix(docs []map[string]int, vocab []string) *mat.Dense {
	index := make(map[string]int, len(vocab))
	for j, term := range vocab {
		index[term] = j
	}

	m := mat.NewDense(len(docs), len(vocab), nil)
	for i, counts := range docs {
		for term, n := range counts {
			if j, ok := index[term]; ok {
				m.Set(i, j, float64(n))
			}
		}
	}
	return m
}

// tfidf weights counts by smoothed idf, ln((1+n)/(1+df))+1, and L2-normalizes
// each non-empty row.
func tfidf(counts *mat.Dense) *mat.Dense {
	rows, cols := counts.Dims()

	idf := make([]float64, cols)
	for j := 0; j < cols; j++ {
		df := 0
		for i := 0; i < rows; i++ {
			if counts.At(i, j) > 0 {
				df++
			}
		}
		idf[j] = math.Log(float64(1+rows)/float64(1+df)) + 1
	}

	weighted := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		row := weighted.RawRowView(i)
		mat.Row(row, i, counts)
		floats.Mul(row, idf)
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
	}
	return weighted
}

// OverallTopTerms sums each term over all documents and returns the n largest
// totals in descending order. Equal totals keep vocabulary order.
func OverallTopTerms(counts mat.Matrix, vocab []string, n int) []domain.TermCount {
	rows, cols := counts.Dims()
	if cols > len(vocab) {
		cols = len(vocab)
	}

	totals := make([]domain.TermCount, cols)
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += counts.At(i, j)
		}
		totals[j] = domain.TermCount{Term: vocab[j], Count: int(math.Round(sum))}
	}

	sort.SliceStable(totals, func(a, b int) bool {
		return totals[a].Count > totals[b].Count
	})
	if n < len(totals) {
		totals = totals[:max(n, 0)]
	}
	return totals
}
