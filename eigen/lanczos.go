package eigen

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/linalg"
)

// ErrNotConverged is returned when the iterative solver exhausts its sweep
// budget without meeting the residual tolerance. It is fatal: unconverged
// eigenpairs would corrupt all downstream physics.
var ErrNotConverged = errors.New("eigen: iterative solver failed to converge")

// breakdownTol detects an invariant subspace during the Lanczos recursion.
const breakdownTol = 1e-14

// LanczosSettings bound the iterative solver. Zero values select defaults.
type LanczosSettings struct {
	// Tol is the relative residual tolerance per eigenpair (default 1e-10).
	Tol float64
	// MaxSweeps bounds restart sweeps; each sweep costs at most NCV
	// operator applications (default 300).
	MaxSweeps int
	// NCV is the Krylov subspace size, at least 2·lvl+1
	// (default max(2·lvl+1, 20), capped at the dimension).
	NCV int
	// Seed drives the deterministic pseudo-random initial guess.
	Seed uint64
}

// Lanczos is a warm-started iterative eigensolver for Hermitian operators.
// It keeps the previous ground eigenvector as the starting guess for the
// next solve, relying on smooth time variation between calls; the guess is
// committed only after a fully successful decomposition. One instance
// drives exactly one time-stepping loop and is not safe for concurrent use.
type Lanczos struct {
	dim, lvl, ncv, maxSweeps int
	tol                      float64

	v0 []complex128

	basis       [][]complex128
	w           []complex128
	alpha, beta []float64

	// LastSweeps records the sweeps spent by the latest successful solve.
	LastSweeps int

	rng *rand.Rand
}

// NewLanczos prepares a solver for dim-dimensional operators truncated to
// the lvl lowest eigenpairs. The truncation level must be strictly below
// the dimension and the dimension large enough for a Krylov recursion.
func NewLanczos(dim, lvl int, set *LanczosSettings) (*Lanczos, error) {
	if dim < 3 {
		return nil, fmt.Errorf("eigen: dimension %d is too small for the iterative solver", dim)
	}
	if lvl < 1 || lvl >= dim {
		return nil, fmt.Errorf("eigen: truncation level %d must lie in [1, %d) for the iterative solver", lvl, dim)
	}
	var s LanczosSettings
	if set != nil {
		s = *set
	}
	if s.Tol == 0 {
		s.Tol = 1e-10
	}
	if s.MaxSweeps == 0 {
		s.MaxSweeps = 300
	}
	if s.NCV == 0 {
		s.NCV = 2*lvl + 1
		if s.NCV < 20 {
			s.NCV = 20
		}
	}
	if s.NCV < 2*lvl+1 {
		return nil, fmt.Errorf("eigen: ncv=%d below 2·lvl+1=%d", s.NCV, 2*lvl+1)
	}
	if s.NCV > dim {
		s.NCV = dim
		if s.NCV < 2*lvl+1 {
			log.Warningf("dimension %d caps the Krylov size below 2·lvl+1 = %d, convergence may need more sweeps", dim, 2*lvl+1)
		}
	}
	l := &Lanczos{
		dim:       dim,
		lvl:       lvl,
		ncv:       s.NCV,
		maxSweeps: s.MaxSweeps,
		tol:       s.Tol,
		v0:        make([]complex128, dim),
		w:         make([]complex128, dim),
		alpha:     make([]float64, s.NCV),
		beta:      make([]float64, s.NCV),
		rng:       rand.New(rand.NewSource(s.Seed + 1)),
	}
	l.basis = make([][]complex128, s.NCV+1)
	for i := range l.basis {
		l.basis[i] = make([]complex128, dim)
	}
	l.randomGuess(l.v0)
	return l, nil
}

// Lvl returns the truncation level the solver was sized for.
func (l *Lanczos) Lvl() int { return l.lvl }

// SetGuess replaces the warm-start vector.
func (l *Lanczos) SetGuess(v []complex128) error {
	if len(v) != l.dim {
		return fmt.Errorf("eigen: guess length %d, want %d", len(v), l.dim)
	}
	copy(l.v0, v)
	return nil
}

func (l *Lanczos) randomGuess(dst []complex128) {
	for i := range dst {
		dst[i] = complex(l.rng.Float64()-0.5, l.rng.Float64()-0.5)
	}
	linalg.Scale(complex(1/linalg.Norm(dst), 0), dst)
}

// Lowest computes the lvl lowest eigenpairs of the Hermitian operator op,
// warm-started from the previous solve. On success the warm-start vector
// is overwritten with the new ground eigenvector; on failure it is left
// untouched.
func (l *Lanczos) Lowest(op linalg.Applier) (*Decomposition, error) {
	if r, c := op.Dims(); r != l.dim || c != l.dim {
		return nil, fmt.Errorf("eigen: operator is %d×%d, solver sized for %d", r, c, l.dim)
	}
	q := l.basis
	copy(q[0], l.v0)
	if n := linalg.Norm(q[0]); n > 0 {
		linalg.Scale(complex(1/n, 0), q[0])
	} else {
		l.randomGuess(q[0])
	}

	for sweep := 0; sweep < l.maxSweeps; sweep++ {
		m := l.ncv
	krylov:
		for j := 0; j < l.ncv; j++ {
			op.MulVecTo(l.w, q[j])
			if j > 0 {
				linalg.Axpy(complex(-l.beta[j-1], 0), q[j-1], l.w)
			}
			l.alpha[j] = real(linalg.Dot(q[j], l.w))
			linalg.Axpy(complex(-l.alpha[j], 0), q[j], l.w)
			// Full reorthogonalization, two passes; classic Lanczos loses
			// orthogonality long before convergence otherwise.
			for pass := 0; pass < 2; pass++ {
				for i := 0; i <= j; i++ {
					linalg.Axpy(-linalg.Dot(q[i], l.w), q[i], l.w)
				}
			}
			b := linalg.Norm(l.w)
			if b < breakdownTol {
				// Invariant subspace: decouple the recursion with a fresh
				// orthogonal direction. beta=0 keeps the tridiagonal exact.
				l.beta[j] = 0
				if j+1 == l.ncv {
					continue
				}
				if j+1 >= l.dim {
					// The basis already spans the full space.
					m = j + 1
					break krylov
				}
				for try := 0; ; try++ {
					l.randomGuess(q[j+1])
					if orthonormalize(q[j+1], q, j+1) {
						break
					}
					if try == 4 {
						m = j + 1
						break krylov
					}
				}
				continue
			}
			l.beta[j] = b
			copy(q[j+1], l.w)
			linalg.Scale(complex(1/b, 0), q[j+1])
		}
		if m < l.lvl {
			// Cannot happen with ncv ≥ 2·lvl+1 unless the operator rank
			// collapsed; treat as a failed sweep and restart fresh.
			l.randomGuess(q[0])
			continue
		}

		tri := mat.NewSymDense(m, nil)
		for i := 0; i < m; i++ {
			tri.SetSym(i, i, l.alpha[i])
			if i+1 < m {
				tri.SetSym(i, i+1, l.beta[i])
			}
		}
		var es mat.EigenSym
		if ok := es.Factorize(tri, true); !ok {
			return nil, errors.New("eigen: tridiagonal factorization failed")
		}
		vals := es.Values(nil)
		var ritz mat.Dense
		es.VectorsTo(&ritz)

		scale := vals[m-1] - vals[0]
		if scale < 1 {
			scale = 1
		}
		converged := true
		for k := 0; k < l.lvl; k++ {
			if resid := l.beta[m-1] * ritzAbs(&ritz, m-1, k); resid > l.tol*scale {
				converged = false
				break
			}
		}
		if converged {
			dec := l.assemble(vals, &ritz, m)
			l.LastSweeps = sweep + 1
			return dec, nil
		}

		// Restart with the sum of the wanted Ritz vectors so every target
		// eigenvector keeps a component in the next Krylov space.
		for i := range l.w {
			l.w[i] = 0
		}
		for k := 0; k < l.lvl; k++ {
			for j := 0; j < m; j++ {
				linalg.Axpy(complex(ritz.At(j, k), 0), q[j], l.w)
			}
		}
		if n := linalg.Norm(l.w); n > breakdownTol {
			copy(q[0], l.w)
			linalg.Scale(complex(1/n, 0), q[0])
		} else {
			l.randomGuess(q[0])
		}
	}
	return nil, fmt.Errorf("%w after %d sweeps (tol=%g, ncv=%d)", ErrNotConverged, l.maxSweeps, l.tol, l.ncv)
}

func ritzAbs(s *mat.Dense, i, j int) float64 {
	return math.Abs(s.At(i, j))
}

// assemble forms the truncated decomposition from the Ritz pairs and
// commits the new warm-start vector.
func (l *Lanczos) assemble(vals []float64, ritz *mat.Dense, m int) *Decomposition {
	dec := &Decomposition{
		Values:  append([]float64(nil), vals[:l.lvl]...),
		Vectors: mat.NewCDense(l.dim, l.lvl, nil),
	}
	y := make([]complex128, l.dim)
	for k := 0; k < l.lvl; k++ {
		for i := range y {
			y[i] = 0
		}
		for j := 0; j < m; j++ {
			linalg.Axpy(complex(ritz.At(j, k), 0), l.basis[j], y)
		}
		if n := linalg.Norm(y); n > 0 {
			linalg.Scale(complex(1/n, 0), y)
		}
		fixPhase(y)
		for i := 0; i < l.dim; i++ {
			dec.Vectors.Set(i, k, y[i])
		}
		if k == 0 {
			copy(l.v0, y)
		}
	}
	return dec
}
