package export

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PressTopics/internal/domain"
	"PressTopics/internal/ports"
)

func sampleModel(family domain.ModelFamily) ports.ModelArtifacts {
	return ports.ModelArtifacts{
		Result: domain.ModelResult{
			Model: domain.TopicModel{
				Family: family,
				Topics: [][]domain.TermWeight{
					{{Term: "サービス", Weight: 0.9}, {Term: "開発", Weight: 0.5}},
					{{Term: "決算", Weight: 0.8}, {Term: "増益", Weight: 0.2}},
				},
			},
			Documents: []domain.DocumentTopicRow{
				{ArticleID: 1, Title: "新サービス, 提供開始", Link: "https://example.com/1", Weights: []float64{0.9, 0.1}},
				{ArticleID: 2, Title: "決算発表", Link: "https://example.com/2", Weights: []float64{0.2, 0.8}},
				{ArticleID: 3, Title: "提携", Link: "https://example.com/3", Weights: []float64{0.6, 0.4}},
			},
		},
		Topics: [][]float64{
			{5, 3, 0.1, 0.1},
			{0.1, 0.1, 4, 2},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func newTestWriter(t *testing.T) *FileWriter {
	t.Helper()
	w := NewFileWriter(filepath.Join(t.TempDir(), "artifacts"), nil)
	w.embed = func(rows [][]float64) [][]float64 {
		out := make([][]float64, len(rows))
		for i := range rows {
			out[i] = []float64{float64(i), float64(i * i)}
		}
		return out
	}
	return w
}

func TestWriteFactorizationArtifacts(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t)
	artifacts, err := w.WriteModel(context.Background(), "job-1", sampleModel(domain.FamilyFactorization))
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	assert.Equal(t, "job-1_factorization_topics.csv", artifacts[0].Name)
	assert.Equal(t, KindTopicTable, artifacts[0].Kind)
	assert.Equal(t, "job-1_factorization_documents.csv", artifacts[1].Name)
	assert.Equal(t, "job-1_factorization.html", artifacts[2].Name)

	topics := readCSV(t, artifacts[0].Path)
	require.Len(t, topics, 5)
	assert.Equal(t, []string{"topic", "rank", "term", "weight"}, topics[0])
	assert.Equal(t, []string{"0", "1", "サービス", "0.9"}, topics[1])
	assert.Equal(t, []string{"1", "2", "増益", "0.2"}, topics[4])

	docs := readCSV(t, artifacts[1].Path)
	require.Len(t, docs, 4)
	assert.Equal(t, []string{"id", "title", "link", "topic_0", "topic_1"}, docs[0])
	assert.Equal(t, "新サービス, 提供開始", docs[1][1])

	page, err := os.ReadFile(artifacts[2].Path)
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "<svg")
	assert.Equal(t, 3, strings.Count(html, "<circle"))
	assert.Contains(t, html, "決算発表")
	assert.Contains(t, html, "Topic 1: 決算 増益")
}

func TestWriteAllocationArtifacts(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t)
	artifacts, err := w.WriteModel(context.Background(), "job-1", sampleModel(domain.FamilyAllocation))
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	page, err := os.ReadFile(artifacts[2].Path)
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "Jensen-Shannon")
	assert.Contains(t, html, "0.000")
	assert.Contains(t, html, "サービス 開発")
}

func TestWriteModelRejectsBadInput(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t)
	_, err := w.WriteModel(context.Background(), "../escape", sampleModel(domain.FamilyAllocation))
	assert.Error(t, err)

	_, err = w.WriteModel(context.Background(), "job-1", sampleModel("other"))
	assert.Error(t, err)
}

func TestPathRejectsTraversal(t *testing.T) {
	t.Parallel()

	w := NewFileWriter("/srv/artifacts", nil)
	_, err := w.Path("../secret")
	assert.Error(t, err)
	_, err = w.Path(".hidden")
	assert.Error(t, err)

	p, err := w.Path("job-1_allocation.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/artifacts", "job-1_allocation.html"), p)
}

func TestJSDistance(t *testing.T) {
	t.Parallel()

	p := []float64{1, 0}
	q := []float64{0, 1}
	assert.InDelta(t, 0, jsDistance(p, p), 1e-12)
	assert.InDelta(t, 1, jsDistance(p, q), 1e-12)
	assert.Equal(t, jsDistance(p, q), jsDistance(q, p))
}

func TestStandardizeAndScale(t *testing.T) {
	t.Parallel()

	z := standardize([][]float64{{1, 5}, {3, 5}})
	assert.InDelta(t, -1, z[0][0], 1e-12)
	assert.InDelta(t, 1, z[1][0], 1e-12)
	assert.Zero(t, z[0][1])

	scaled := scaleToPlot([][]float64{{0, 2}, {10, 2}})
	assert.InDelta(t, plotMargin, scaled[0][0], 1e-9)
	assert.InDelta(t, plotSize-plotMargin, scaled[1][0], 1e-9)
	assert.Equal(t, plotSize/2, scaled[0][1])

	small := tsneEmbed([][]float64{{1, 2, 3}, {4, 5, 6}})
	assert.Equal(t, [][]float64{{1, 2}, {4, 5}}, small)
	assert.False(t, math.IsNaN(small[0][0]))
}
