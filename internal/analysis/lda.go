package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// Fixed allocation settings for online variational Bayes.
const (
	ldaSeed           = 0
	ldaPasses         = 5
	ldaBatchSize      = 128
	ldaLearningOffset = 50.0
	ldaLearningDecay  = 0.7
	ldaMaxDocIter     = 100
	ldaMeanChangeTol  = 1e-3
	ldaInitGamma      = 100.0
)

var machineEpsilon = math.Nextafter(1, 2) - 1

// LDA fits a latent Dirichlet allocation model to a count matrix and returns
// the topic-word weights (k × terms) and the per-document topic
// distributions (docs × k, rows summing to 1).
func LDA(counts mat.Matrix, k int) (components, docTopics *mat.Dense, err error) {
	rows, cols := counts.Dims()
	if k < 1 {
		return nil, nil, fmt.Errorf("n_components must be >= 1, got %d", k)
	}
	if rows == 0 || cols == 0 {
		return nil, nil, fmt.Errorf("allocate empty matrix %dx%d", rows, cols)
	}

	m := &ldaModel{
		k:     k,
		prior: 1 / float64(k),
		src:   rand.NewPCG(ldaSeed, 0),
		docs:  sparseRows(counts),
		terms: cols,
	}

	m.init()
	batchIter := 1
	for pass := 0; pass < ldaPasses; pass++ {
		for start := 0; start < rows; start += ldaBatchSize {
			end := min(start+ldaBatchSize, rows)
			m.emStep(start, end, rows, batchIter)
			batchIter++
		}
	}

	docTopics = m.transform()
	return m.components, docTopics, nil
}

type sparseRow struct {
	ids  []int
	cnts []float64
}

func sparseRows(counts mat.Matrix) []sparseRow {
	rows, cols := counts.Dims()
	out := make([]sparseRow, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := counts.At(i, j); v != 0 {
				out[i].ids = append(out[i].ids, j)
				out[i].cnts = append(out[i].cnts, v)
			}
		}
	}
	return out
}

type ldaModel struct {
	k     int
	terms int
	prior float64
	src   rand.Source
	docs  []sparseRow

	components *mat.Dense
	expTopic   *mat.Dense
}

func (m *ldaModel) gamma(shape, rate float64) distuv.Gamma {
	return distuv.Gamma{Alpha: shape, Beta: rate, Src: m.src}
}

func (m *ldaModel) init() {
	g := m.gamma(ldaInitGamma, ldaInitGamma)
	m.components = mat.NewDense(m.k, m.terms, nil)
	for t := 0; t < m.k; t++ {
		for j := 0; j < m.terms; j++ {
			m.components.Set(t, j, g.Rand())
		}
	}
	m.refreshExpTopic()
}

func (m *ldaModel) refreshExpTopic() {
	m.expTopic = mat.NewDense(m.k, m.terms, nil)
	for t := 0; t < m.k; t++ {
		expDirichlet(m.expTopic.RawRowView(t), m.components.RawRowView(t))
	}
}

// emStep runs the E-step on docs[start:end] and blends the resulting
// sufficient statistics into the components.
func (m *ldaModel) emStep(start, end, total, batchIter int) {
	_, stats := m.eStep(start, end, true)

	weight := math.Pow(ldaLearningOffset+float64(batchIter), -ldaLearningDecay)
	docRatio := float64(total) / float64(end-start)

	m.components.Apply(func(t, j int, v float64) float64 {
		return v*(1-weight) + weight*(m.prior+docRatio*stats.At(t, j))
	}, m.components)
	m.refreshExpTopic()
}

// eStep infers topic proportions for docs[start:end]. Fitting draws the
// starting proportions at random; inference starts from ones.
func (m *ldaModel) eStep(start, end int, fitting bool) (*mat.Dense, *mat.Dense) {
	n := end - start
	docTopic := mat.NewDense(n, m.k, nil)
	if fitting {
		g := m.gamma(ldaInitGamma, ldaInitGamma)
		docTopic.Apply(func(_, _ int, _ float64) float64 { return g.Rand() }, docTopic)
	} else {
		docTopic.Apply(func(_, _ int, _ float64) float64 { return 1 }, docTopic)
	}

	var stats *mat.Dense
	if fitting {
		stats = mat.NewDense(m.k, m.terms, nil)
	}

	expDocTopic := make([]float64, m.k)
	lastDoc := make([]float64, m.k)
	for d := 0; d < n; d++ {
		doc := m.docs[start+d]
		thetaD := docTopic.RawRowView(d)
		expDirichlet(expDocTopic, thetaD)

		if len(doc.ids) == 0 {
			for t := range thetaD {
				thetaD[t] = m.prior
			}
			continue
		}

		normPhi := make([]float64, len(doc.ids))
		ratio := make([]float64, len(doc.ids))
		for iter := 0; iter < ldaMaxDocIter; iter++ {
			copy(lastDoc, thetaD)
			m.ratios(doc, expDocTopic, normPhi, ratio)

			for t := 0; t < m.k; t++ {
				dot := 0.0
				for w, id := range doc.ids {
					dot += ratio[w] * m.expTopic.At(t, id)
				}
				thetaD[t] = m.prior + expDocTopic[t]*dot
			}
			expDirichlet(expDocTopic, thetaD)

			if meanAbsChange(lastDoc, thetaD) < ldaMeanChangeTol {
				break
			}
		}

		if fitting {
			m.ratios(doc, expDocTopic, normPhi, ratio)
			for t := 0; t < m.k; t++ {
				for w, id := range doc.ids {
					stats.Set(t, id, stats.At(t, id)+expDocTopic[t]*ratio[w])
				}
			}
		}
	}

	if fitting {
		stats.MulElem(stats, m.expTopic)
	}
	return docTopic, stats
}

// ratios fills ratio with cnt/(expDocTopic·expTopic[:,id] + eps).
func (m *ldaModel) ratios(doc sparseRow, expDocTopic, normPhi, ratio []float64) {
	for w, id := range doc.ids {
		sum := 0.0
		for t := 0; t < m.k; t++ {
			sum += expDocTopic[t] * m.expTopic.At(t, id)
		}
		normPhi[w] = sum + machineEpsilon
		ratio[w] = doc.cnts[w] / normPhi[w]
	}
}

// transform infers normalized topic distributions for every document.
func (m *ldaModel) transform() *mat.Dense {
	docTopic, _ := m.eStep(0, len(m.docs), false)
	rows, _ := docTopic.Dims()
	for i := 0; i < rows; i++ {
		row := docTopic.RawRowView(i)
		if sum := floats.Sum(row); sum > 0 {
			floats.Scale(1/sum, row)
		}
	}
	return docTopic
}

// expDirichlet writes exp(E[log x]) for x ~ Dirichlet(alpha) into dst.
func expDirichlet(dst, alpha []float64) {
	total := mathext.Digamma(floats.Sum(alpha))
	for i, a := range alpha {
		dst[i] = math.Exp(mathext.Digamma(a) - total)
	}
}

func meanAbsChange(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum / float64(len(a))
}
