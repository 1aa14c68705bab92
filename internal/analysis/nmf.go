package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Fixed factorization settings.
const (
	nmfSeed    = 1
	nmfMaxIter = 200
	nmfTol     = 1e-4
	nmfL1      = 0.05
	nmfL2      = 0.05
	nmfEpsilon = 1e-6
)

// NMF factorizes x (docs × terms) as W·H with W (docs × k) and H (k × terms)
// non-negative, using regularized coordinate descent.
func NMF(x mat.Matrix, k int) (w, h *mat.Dense, err error) {
	rows, cols := x.Dims()
	if k < 1 {
		return nil, nil, fmt.Errorf("n_components must be >= 1, got %d", k)
	}
	if rows == 0 || cols == 0 {
		return nil, nil, fmt.Errorf("factorize empty matrix %dx%d", rows, cols)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if x.At(i, j) < 0 {
				return nil, nil, fmt.Errorf("factorize negative entry at (%d,%d)", i, j)
			}
		}
	}

	if k <= min(rows, cols) {
		w, h, err = nndsvdInit(x, k)
		if err != nil {
			return nil, nil, err
		}
	} else {
		w, h = randomInit(x, k)
	}

	// Coordinate descent works on H transposed so both updates share a shape.
	ht := mat.DenseCopyOf(h.T())
	xt := mat.DenseCopyOf(x.T())

	var initial float64
	for iter := 1; iter <= nmfMaxIter; iter++ {
		violation := coordinateDescent(x, w, ht)
		violation += coordinateDescent(xt, ht, w)

		if iter == 1 {
			initial = violation
		}
		if initial == 0 || violation/initial <= nmfTol {
			break
		}
	}

	return w, mat.DenseCopyOf(ht.T()), nil
}

// coordinateDescent updates w in place for fixed ht and returns the
// projected-gradient violation.
func coordinateDescent(x mat.Matrix, w, ht *mat.Dense) float64 {
	rows, k := w.Dims()

	var hht mat.Dense
	hht.Mul(ht.T(), ht)
	for t := 0; t < k; t++ {
		hht.Set(t, t, hht.At(t, t)+nmfL2)
	}

	var xht mat.Dense
	xht.Mul(x, ht)

	violation := 0.0
	for t := 0; t < k; t++ {
		hess := hht.At(t, t)
		for i := 0; i < rows; i++ {
			grad := -(xht.At(i, t) - nmfL1)
			for r := 0; r < k; r++ {
				grad += hht.At(t, r) * w.At(i, r)
			}

			pg := grad
			if w.At(i, t) == 0 {
				pg = math.Min(0, grad)
			}
			violation += math.Abs(pg)

			if hess != 0 {
				w.Set(i, t, math.Max(w.At(i, t)-grad/hess, 0))
			}
		}
	}
	return violation
}

// nndsvdInit seeds W and H from the leading singular triplets of x.
func nndsvdInit(x mat.Matrix, k int) (*mat.Dense, *mat.Dense, error) {
	rows, cols := x.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, nil, fmt.Errorf("svd factorization failed")
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	w := mat.NewDense(rows, k, nil)
	h := mat.NewDense(k, cols, nil)

	uc := make([]float64, rows)
	vc := make([]float64, cols)

	mat.Col(uc, 0, &u)
	mat.Col(vc, 0, &v)
	root := math.Sqrt(s[0])
	for i, val := range uc {
		w.Set(i, 0, root*math.Abs(val))
	}
	for j, val := range vc {
		h.Set(0, j, root*math.Abs(val))
	}

	xp, xn := make([]float64, rows), make([]float64, rows)
	yp, yn := make([]float64, cols), make([]float64, cols)
	for c := 1; c < k; c++ {
		mat.Col(uc, c, &u)
		mat.Col(vc, c, &v)
		splitSigns(uc, xp, xn)
		splitSigns(vc, yp, yn)

		xpn, ypn := floats.Norm(xp, 2), floats.Norm(yp, 2)
		xnn, ynn := floats.Norm(xn, 2), floats.Norm(yn, 2)
		mp, mn := xpn*ypn, xnn*ynn

		uvec, vvec, unorm, vnorm, sigma := xp, yp, xpn, ypn, mp
		if mp <= mn {
			uvec, vvec, unorm, vnorm, sigma = xn, yn, xnn, ynn, mn
		}
		if sigma == 0 {
			continue
		}

		lbd := math.Sqrt(s[c] * sigma)
		for i, val := range uvec {
			w.Set(i, c, lbd*val/unorm)
		}
		for j, val := range vvec {
			h.Set(c, j, lbd*val/vnorm)
		}
	}

	zeroBelow(w, nmfEpsilon)
	zeroBelow(h, nmfEpsilon)
	return w, h, nil
}

func splitSigns(src, pos, neg []float64) {
	for i, v := range src {
		pos[i] = math.Max(v, 0)
		neg[i] = math.Abs(math.Min(v, 0))
	}
}

func zeroBelow(m *mat.Dense, eps float64) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if m.At(i, j) < eps {
				m.Set(i, j, 0)
			}
		}
	}
}

// randomInit scales half-normal draws to the magnitude of x.
func randomInit(x mat.Matrix, k int) (*mat.Dense, *mat.Dense) {
	rows, cols := x.Dims()
	avg := math.Sqrt(mat.Sum(x) / float64(rows*cols) / float64(k))

	rng := rand.New(rand.NewPCG(nmfSeed, 0))
	h := mat.NewDense(k, cols, nil)
	h.Apply(func(_, _ int, _ float64) float64 { return avg * math.Abs(rng.NormFloat64()) }, h)
	w := mat.NewDense(rows, k, nil)
	w.Apply(func(_, _ int, _ float64) float64 { return avg * math.Abs(rng.NormFloat64()) }, w)
	return w, h
}
