package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"PressTopics/internal/domain"
)

const (
	plotSize   = 640.0
	plotMargin = 24.0

	tsnePerplexity = 30.0
	tsneLearnRate  = 200.0
	tsneMaxIter    = 500
	tsneMinPoints  = 4
)

var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

type topicSummary struct {
	Index      int
	Color      string
	Terms      string
	Prevalence float64
	Percent    string
	BarWidth   float64
}

type scatterPoint struct {
	X, Y  float64
	Color string
	Topic int
	Title string
	Link  string
}

type factorizationView struct {
	JobID  string
	Size   float64
	Points []scatterPoint
	Topics []topicSummary
}

type allocationView struct {
	JobID     string
	Topics    []topicSummary
	Labels    []int
	Distances [][]string
}

func colorOf(topic int) string {
	if topic < 0 {
		return "#000000"
	}
	return palette[topic%len(palette)]
}

// summarizeTopics joins each topic's terms and computes its mean document weight.
func summarizeTopics(result domain.ModelResult) []topicSummary {
	topics := result.Model.Topics
	out := make([]topicSummary, len(topics))

	maxPrev := 0.0
	for t, terms := range topics {
		words := make([]string, len(terms))
		for i, tw := range terms {
			words[i] = tw.Term
		}

		weights := make([]float64, 0, len(result.Documents))
		for _, row := range result.Documents {
			if t < len(row.Weights) {
				weights = append(weights, row.Weights[t])
			}
		}
		prevalence := 0.0
		if len(weights) > 0 {
			prevalence = stat.Mean(weights, nil)
		}
		maxPrev = math.Max(maxPrev, prevalence)

		out[t] = topicSummary{
			Index:      t,
			Color:      colorOf(t),
			Terms:      strings.Join(words, " "),
			Prevalence: prevalence,
		}
	}

	for i := range out {
		out[i].Percent = fmt.Sprintf("%.1f", out[i].Prevalence*100)
		if maxPrev > 0 {
			out[i].BarWidth = out[i].Prevalence / maxPrev * 100
		}
	}
	return out
}

// buildFactorizationView lays documents out by a 2-D embedding of their
// standardized topic weights.
func buildFactorizationView(jobID string, result domain.ModelResult, embed func([][]float64) [][]float64) factorizationView {
	weights := make([][]float64, len(result.Documents))
	for i, row := range result.Documents {
		weights[i] = row.Weights
	}

	coords := scaleToPlot(embed(standardize(weights)))
	points := make([]scatterPoint, len(result.Documents))
	for i, row := range result.Documents {
		topic := row.DominantTopic()
		points[i] = scatterPoint{
			X:     coords[i][0],
			Y:     coords[i][1],
			Color: colorOf(topic),
			Topic: topic,
			Title: row.Title,
			Link:  row.Link,
		}
	}

	return factorizationView{
		JobID:  jobID,
		Size:   plotSize,
		Points: points,
		Topics: summarizeTopics(result),
	}
}

// buildAllocationView adds the pairwise Jensen-Shannon distance between
// topic-term distributions.
func buildAllocationView(jobID string, result domain.ModelResult, topicWeights [][]float64) allocationView {
	dists := make([][]float64, len(topicWeights))
	for i, row := range topicWeights {
		dists[i] = normalized(row)
	}

	labels := make([]int, len(dists))
	table := make([][]string, len(dists))
	for i := range dists {
		labels[i] = i
		table[i] = make([]string, len(dists))
		for j := range dists {
			table[i][j] = fmt.Sprintf("%.3f", jsDistance(dists[i], dists[j]))
		}
	}

	return allocationView{
		JobID:     jobID,
		Topics:    summarizeTopics(result),
		Labels:    labels,
		Distances: table,
	}
}

func normalized(row []float64) []float64 {
	out := append([]float64(nil), row...)
	if sum := floats.Sum(out); sum > 0 {
		floats.Scale(1/sum, out)
	}
	return out
}

// jsDistance is the square root of the base-2 Jensen-Shannon divergence,
// bounded to [0, 1].
func jsDistance(p, q []float64) float64 {
	if len(p) != len(q) || len(p) == 0 {
		return 0
	}
	d := stat.JensenShannon(p, q) / math.Ln2
	if d <= 0 || math.IsNaN(d) {
		return 0
	}
	return math.Sqrt(math.Min(d, 1))
}

// standardize rescales every column to zero mean and unit variance.
// Constant columns become zero.
func standardize(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	cols := len(rows[0])
	out := make([][]float64, len(rows))
	for i := range out {
		out[i] = make([]float64, cols)
	}

	column := make([]float64, len(rows))
	for j := 0; j < cols; j++ {
		for i, row := range rows {
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		for i := range rows {
			if std > 0 {
				out[i][j] = (column[i] - mean) / std
			}
		}
	}
	return out
}

// tsneEmbed projects rows to two dimensions with t-SNE. Tiny inputs are
// projected onto their first two columns instead.
func tsneEmbed(rows [][]float64) [][]float64 {
	n := len(rows)
	if n == 0 {
		return nil
	}
	dims := len(rows[0])

	if n < tsneMinPoints || dims == 0 {
		out := make([][]float64, n)
		for i, row := range rows {
			out[i] = make([]float64, 2)
			copy(out[i], row)
		}
		return out
	}

	x := mat.NewDense(n, dims, nil)
	for i, row := range rows {
		x.SetRow(i, row)
	}

	perplexity := math.Max(1, math.Min(tsnePerplexity, float64(n-1)/3))
	t := tsne.NewTSNE(2, perplexity, tsneLearnRate, tsneMaxIter, false)
	t.EmbedData(x, nil)

	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{t.Y.At(i, 0), t.Y.At(i, 1)}
	}
	return out
}

// scaleToPlot maps coordinates into the plot box, centering degenerate axes.
func scaleToPlot(coords [][]float64) [][]float64 {
	out := make([][]float64, len(coords))
	if len(coords) == 0 {
		return out
	}

	lo := []float64{math.Inf(1), math.Inf(1)}
	hi := []float64{math.Inf(-1), math.Inf(-1)}
	for _, c := range coords {
		for a := 0; a < 2; a++ {
			lo[a] = math.Min(lo[a], c[a])
			hi[a] = math.Max(hi[a], c[a])
		}
	}

	span := plotSize - 2*plotMargin
	for i, c := range coords {
		out[i] = make([]float64, 2)
		for a := 0; a < 2; a++ {
			if hi[a] > lo[a] {
				out[i][a] = plotMargin + (c[a]-lo[a])/(hi[a]-lo[a])*span
			} else {
				out[i][a] = plotSize / 2
			}
		}
	}
	return out
}
