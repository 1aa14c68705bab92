package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"PressTopics/internal/domain"
)

// fieldSegmenter splits on whitespace. A field "surface/pos0/pos1/..." sets
// the part-of-speech path; bare fields are common nouns.
type fieldSegmenter struct{}

func (fieldSegmenter) Segment(text string) []Morpheme {
	var out []Morpheme
	for _, field := range strings.Fields(text) {
		parts := strings.Split(field, "/")
		pos := []string{"名詞", "一般", "*", "*"}
		if len(parts) > 1 {
			pos = parts[1:]
		}
		out = append(out, Morpheme{Surface: parts[0], POS: pos})
	}
	return out
}

var clusteredCorpus = []string{
	"alpha beta gamma common",
	"alpha beta gamma common alpha",
	"alpha beta delta common rare",
	"beta gamma delta common noise",
	"alpha gamma delta common noise",
	"epsilon zeta eta common",
	"epsilon zeta theta common",
	"epsilon eta theta common noise",
	"zeta eta theta common",
	"epsilon zeta eta theta common",
}

func newTestTokenizer(stop ...string) *Tokenizer {
	return NewTokenizer(fieldSegmenter{}, stop)
}

func TestTokenizeFiltersPartsOfSpeech(t *testing.T) {
	t.Parallel()

	tok := newTestTokenizer("stop")
	text := "Apple/名詞/一般 三/名詞/数 it/名詞/代名詞/一般 toyota/名詞/固有名詞/組織 " +
		"taro/名詞/固有名詞/人名 run/動詞/自立 Banana/名詞/サ変接続 stop/名詞/一般 " +
		"ness/名詞/接尾/一般 koto/名詞/非自立/一般 tokyo/名詞/固有名詞/地域"

	assert.Equal(t, []string{"apple", "banana", "tokyo"}, tok.Tokenize(text))
}

func TestTokenizeIsDeterministic(t *testing.T) {
	t.Parallel()

	tok := newTestTokenizer("noise")
	for _, doc := range clusteredCorpus {
		assert.Equal(t, tok.Tokenize(doc), tok.Tokenize(doc))
	}
}

func TestKagomeTokenizerKeepsContentNouns(t *testing.T) {
	t.Parallel()

	seg, err := NewKagomeSegmenter()
	require.NoError(t, err)
	tok := NewTokenizer(seg, []string{"開発"})

	tokens := tok.Tokenize("私は新しいサービスを発表しました。")
	assert.Contains(t, tokens, "サービス")
	assert.NotContains(t, tokens, "私")
	assert.NotContains(t, tokens, "は")

	withStop := tok.Tokenize("新しいサービスを開発しました。")
	assert.NotContains(t, withStop, "開発")
	assert.Equal(t, withStop, tok.Tokenize("新しいサービスを開発しました。"))
}

func TestVectorizeAppliesFrequencyBounds(t *testing.T) {
	t.Parallel()

	terms, err := Vectorize(clusteredCorpus, newTestTokenizer("noise"), 1000)
	require.NoError(t, err)

	want := []string{"alpha", "beta", "delta", "epsilon", "eta", "gamma", "theta", "zeta"}
	assert.Equal(t, want, terms.WeightedVocabulary)
	assert.Equal(t, want, terms.CountVocabulary)

	rows, cols := terms.Counts.Dims()
	assert.Equal(t, 10, rows)
	assert.Equal(t, 8, cols)
	assert.Equal(t, 2.0, terms.Counts.At(1, 0), "alpha twice in doc 1")

	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, floats.Norm(terms.Weighted.RawRowView(i), 2), 1e-9)
	}
}

func TestVectorizeCapsFeatures(t *testing.T) {
	t.Parallel()

	terms, err := Vectorize(clusteredCorpus, newTestTokenizer("noise"), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "epsilon"}, terms.WeightedVocabulary)
}

func TestVectorizeNeverKeepsStopWords(t *testing.T) {
	t.Parallel()

	for _, stop := range [][]string{{"alpha"}, {"beta", "zeta"}, {"noise", "theta", "eta"}} {
		terms, err := Vectorize(clusteredCorpus, newTestTokenizer(stop...), 1000)
		require.NoError(t, err)
		for _, w := range stop {
			assert.NotContains(t, terms.WeightedVocabulary, w)
			assert.NotContains(t, terms.CountVocabulary, w)
		}
	}
}

func TestVectorizeCorpusErrors(t *testing.T) {
	t.Parallel()

	_, err := Vectorize(nil, newTestTokenizer(), 10)
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)

	_, err = Vectorize([]string{"alpha", "beta"}, newTestTokenizer(), 10)
	assert.ErrorIs(t, err, domain.ErrEmptyVocabulary)
	assert.True(t, domain.IsCorpusError(err))
}

func TestOverallTopTerms(t *testing.T) {
	t.Parallel()

	counts := mat.NewDense(2, 3, []float64{
		1, 2, 0,
		0, 2, 1,
	})
	vocab := []string{"a", "b", "c"}

	assert.Equal(t, []domain.TermCount{{Term: "b", Count: 4}, {Term: "a", Count: 1}}, OverallTopTerms(counts, vocab, 2))
	assert.Len(t, OverallTopTerms(counts, vocab, 10), 3)
	assert.Equal(t, "c", OverallTopTerms(counts, vocab, 3)[2].Term)
}

func TestTopicTermsTieBreak(t *testing.T) {
	t.Parallel()

	components := mat.NewDense(1, 4, []float64{0.5, 0.9, 0.5, 0.1})
	topics := TopicTerms(components, []string{"a", "b", "c", "d"}, 3)

	require.Len(t, topics, 1)
	assert.Equal(t, []domain.TermWeight{{Term: "b", Weight: 0.9}, {Term: "a", Weight: 0.5}, {Term: "c", Weight: 0.5}}, topics[0])
}

func TestFitTopicModelsOnSmallCorpus(t *testing.T) {
	t.Parallel()

	terms, err := Vectorize(clusteredCorpus, newTestTokenizer("noise"), 1000)
	require.NoError(t, err)
	require.Len(t, terms.WeightedVocabulary, 8)

	nmf, err := FitTopicModel(domain.FamilyFactorization, terms.Weighted, terms.WeightedVocabulary, 2, 5)
	require.NoError(t, err)
	lda, err := FitTopicModel(domain.FamilyAllocation, terms.Counts, terms.CountVocabulary, 2, 5)
	require.NoError(t, err)

	for _, fitted := range []FittedModel{nmf, lda} {
		require.Len(t, fitted.Model.Topics, 2)
		for _, topic := range fitted.Model.Topics {
			assert.Len(t, topic, 5)
		}
		rows, k := fitted.DocTopics.Dims()
		assert.Equal(t, 10, rows)
		assert.Equal(t, 2, k)
	}

	for i := 0; i < 10; i++ {
		row := lda.DocTopics.RawRowView(i)
		assert.InDelta(t, 1.0, floats.Sum(row), 1e-9)
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
		}
		for _, v := range nmf.DocTopics.RawRowView(i) {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}

	wide, err := FitTopicModel(domain.FamilyAllocation, terms.Counts, terms.CountVocabulary, 2, 20)
	require.NoError(t, err)
	assert.Len(t, wide.Model.Topics[0], 8)
}

func TestFactorizationSeparatesClusters(t *testing.T) {
	t.Parallel()

	terms, err := Vectorize(clusteredCorpus, newTestTokenizer("noise"), 1000)
	require.NoError(t, err)

	fitted, err := FitTopicModel(domain.FamilyFactorization, terms.Weighted, terms.WeightedVocabulary, 2, 4)
	require.NoError(t, err)

	rows := DocumentRows(make([]domain.Article, 10), fitted.DocTopics)
	first := rows[0].DominantTopic()
	second := rows[5].DominantTopic()
	assert.NotEqual(t, first, second)
	for i := 1; i < 5; i++ {
		assert.Equal(t, first, rows[i].DominantTopic(), "doc %d", i)
	}
	for i := 6; i < 10; i++ {
		assert.Equal(t, second, rows[i].DominantTopic(), "doc %d", i)
	}
}

func TestFitTopicModelIsReproducible(t *testing.T) {
	t.Parallel()

	terms, err := Vectorize(clusteredCorpus, newTestTokenizer("noise"), 1000)
	require.NoError(t, err)

	for _, k := range []int{2, 9} {
		for _, family := range []domain.ModelFamily{domain.FamilyFactorization, domain.FamilyAllocation} {
			matrix, vocab := terms.Weighted, terms.WeightedVocabulary
			if family == domain.FamilyAllocation {
				matrix, vocab = terms.Counts, terms.CountVocabulary
			}

			a, err := FitTopicModel(family, matrix, vocab, k, 5)
			require.NoError(t, err)
			b, err := FitTopicModel(family, matrix, vocab, k, 5)
			require.NoError(t, err)

			assert.Equal(t, a.Model, b.Model, "%s k=%d", family, k)
			assert.True(t, mat.Equal(a.DocTopics, b.DocTopics), "%s k=%d", family, k)
		}
	}
}

func TestFitTopicModelRejectsMismatch(t *testing.T) {
	t.Parallel()

	_, err := FitTopicModel(domain.FamilyFactorization, mat.NewDense(2, 2, []float64{1, 0, 0, 1}), []string{"a"}, 1, 1)
	assert.Error(t, err)

	_, err = FitTopicModel("other", mat.NewDense(2, 2, []float64{1, 0, 0, 1}), []string{"a", "b"}, 1, 1)
	assert.Error(t, err)
}

func TestDocumentRows(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{{ID: 7, Title: "t", Link: "l"}}
	rows := DocumentRows(articles, mat.NewDense(1, 2, []float64{0.25, 0.75}))

	require.Len(t, rows, 1)
	assert.Equal(t, domain.DocumentTopicRow{ArticleID: 7, Title: "t", Link: "l", Weights: []float64{0.25, 0.75}}, rows[0])
	assert.Equal(t, 1, rows[0].DominantTopic())
}
