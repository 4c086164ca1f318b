// Package eigen computes truncated eigendecompositions of instantaneous
// Hamiltonians: an exact dense path through the real-symmetric embedding of
// a Hermitian matrix, and a warm-started Lanczos path for sparse operators.
package eigen

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/op/go-logging"
	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/linalg"
)

var log = logging.MustGetLogger("eigen")

// Decomposition holds the low end of the spectrum at a single time:
// eigenvalues in ascending order and the matching orthonormal eigenvectors
// in the columns of Vectors (dim×lvl). Decompositions are ephemeral and
// recomputed on every evaluation.
type Decomposition struct {
	Values  []float64
	Vectors *mat.CDense
}

// dropTol separates a genuinely new embedded eigenvector from the
// conjugate duplicate of one already extracted.
const dropTol = 1e-6

// DenseLowest computes the lvl lowest eigenpairs of the Hermitian matrix h
// exactly. The n×n complex problem is embedded into the 2n×2n real
// symmetric matrix [[Re H, −Im H],[Im H, Re H]]; every complex eigenpair
// appears twice there, so duplicates are collapsed by Gram–Schmidt while
// walking the ascending spectrum.
func DenseLowest(h mat.CMatrix, lvl int) (*Decomposition, error) {
	dim, c := h.Dims()
	if dim != c {
		return nil, fmt.Errorf("eigen: matrix is %d×%d, not square", dim, c)
	}
	if lvl < 1 || lvl > dim {
		return nil, fmt.Errorf("eigen: truncation level %d outside [1, %d]", lvl, dim)
	}
	emb := mat.NewSymDense(2*dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			re := real(h.At(i, j))
			emb.SetSym(i, j, re)
			emb.SetSym(dim+i, dim+j, re)
		}
		for j := 0; j < dim; j++ {
			emb.SetSym(i, dim+j, -imag(h.At(i, j)))
		}
	}
	var es mat.EigenSym
	if ok := es.Factorize(emb, true); !ok {
		return nil, errors.New("eigen: symmetric factorization failed")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	dec := &Decomposition{
		Values:  make([]float64, 0, lvl),
		Vectors: mat.NewCDense(dim, lvl, nil),
	}
	cand := make([]complex128, dim)
	kept := make([][]complex128, 0, lvl)
	for k := 0; k < 2*dim && len(kept) < lvl; k++ {
		for i := 0; i < dim; i++ {
			cand[i] = complex(vecs.At(i, k), vecs.At(dim+i, k))
		}
		// Project out everything already accepted; a duplicate of an
		// extracted eigenvector collapses to numerical noise.
		for _, q := range kept {
			linalg.Axpy(-linalg.Dot(q, cand), q, cand)
		}
		n := linalg.Norm(cand)
		if n < dropTol {
			continue
		}
		linalg.Scale(complex(1/n, 0), cand)
		fixPhase(cand)
		col := len(kept)
		for i := 0; i < dim; i++ {
			dec.Vectors.Set(i, col, cand[i])
		}
		kept = append(kept, append([]complex128(nil), cand...))
		dec.Values = append(dec.Values, vals[k])
	}
	if len(kept) < lvl {
		return nil, fmt.Errorf("eigen: extracted only %d of %d eigenvectors", len(kept), lvl)
	}
	return dec, nil
}

// fixPhase rotates v so its largest component is real positive, making the
// decomposition deterministic across repeated solves.
func fixPhase(v []complex128) {
	best, mag := 0, 0.0
	for i, x := range v {
		if a := linalg.Abs2(x); a > mag {
			best, mag = i, a
		}
	}
	if mag == 0 {
		return
	}
	a := cmplx.Abs(v[best])
	phase := complex(a, 0) / v[best]
	linalg.Scale(phase, v)
}

// orthonormalize subtracts the components of v along the first n basis
// vectors and normalizes; returns false when v is numerically inside the
// spanned subspace.
func orthonormalize(v []complex128, basis [][]complex128, n int) bool {
	for pass := 0; pass < 2; pass++ {
		for i := 0; i < n; i++ {
			linalg.Axpy(-linalg.Dot(basis[i], v), basis[i], v)
		}
	}
	nrm := linalg.Norm(v)
	if nrm < 1e-12 || math.IsNaN(nrm) {
		return false
	}
	linalg.Scale(complex(1/nrm, 0), v)
	return true
}
