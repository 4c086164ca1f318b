// Package ham defines the time-dependent Hamiltonian boundary consumed by
// the eigensolvers and master-equation operators, together with
// schedule-combination implementations for annealing-style Hamiltonians
// H(s) = Σ f_i(s)·H_i on the reduced time s ∈ [0,1].
package ham

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/linalg"
)

// Schedule is a time-dependent coefficient on the reduced time s.
type Schedule func(s float64) float64

// Constant returns a schedule fixed at c.
func Constant(c float64) Schedule {
	return func(float64) float64 { return c }
}

// Linear returns a schedule interpolating from a at s=0 to b at s=1.
func Linear(a, b float64) Schedule {
	return func(s float64) float64 { return a + (b-a)*s }
}

// Hamiltonian is the instantaneous-Hamiltonian contract. Implementations
// are immutable for a run.
type Hamiltonian interface {
	// Dim returns the Hilbert-space dimension.
	Dim() int
	// IsSparse reports whether the iterative eigensolver path applies.
	IsSparse() bool
	// EvalTo writes the Hermitian matrix H(s) into dst (Dim×Dim).
	EvalTo(dst *mat.CDense, s float64)
}

// Assembler is implemented by sparse Hamiltonians able to assemble
// themselves in compressed sparse row form.
type Assembler interface {
	Hamiltonian
	// At assembles H(s). The returned matrix is an internal scratch
	// buffer, valid only until the next call.
	At(s float64) *linalg.CSR
}

// Framer is implemented by Hamiltonians natively expressed in the
// adiabatic (moving) frame.
type Framer interface {
	Hamiltonian
	// AddFrame adds the frame unitary generator −i[tf·diag(ω(s)) + G(s), u]
	// into du, where G is the geometric term that does not scale with the
	// anneal time tf.
	AddFrame(du, u *mat.CDense, tf, s float64)
	// Gaps returns the instantaneous level energies ω(s) in the frame.
	Gaps(s float64) []float64
}

// Dense is a dense schedule-combination Hamiltonian.
type Dense struct {
	dim       int
	schedules []Schedule
	terms     []*mat.CDense
}

// NewDense builds H(s) = Σ schedules[i](s)·terms[i] from square Hermitian
// terms of equal dimension.
func NewDense(schedules []Schedule, terms []*mat.CDense) (*Dense, error) {
	if len(schedules) != len(terms) || len(terms) == 0 {
		return nil, errors.New("ham: need equal, nonzero numbers of schedules and terms")
	}
	dim, c := terms[0].Dims()
	if dim != c {
		return nil, fmt.Errorf("ham: term 0 is %d×%d, not square", dim, c)
	}
	for i, t := range terms[1:] {
		r, c := t.Dims()
		if r != dim || c != dim {
			return nil, fmt.Errorf("ham: term %d is %d×%d, want %d×%d", i+1, r, c, dim, dim)
		}
	}
	return &Dense{dim: dim, schedules: schedules, terms: terms}, nil
}

// Dim returns the Hilbert-space dimension.
func (h *Dense) Dim() int { return h.dim }

// IsSparse reports the dense trait.
func (h *Dense) IsSparse() bool { return false }

// EvalTo writes H(s) into dst.
func (h *Dense) EvalTo(dst *mat.CDense, s float64) {
	dst.Zero()
	for k, t := range h.terms {
		f := complex(h.schedules[k](s), 0)
		for i := 0; i < h.dim; i++ {
			for j := 0; j < h.dim; j++ {
				dst.Set(i, j, dst.At(i, j)+f*t.At(i, j))
			}
		}
	}
}

// Sparse is a schedule-combination Hamiltonian over CSR terms. The terms
// are re-expressed on their union sparsity pattern at construction so each
// evaluation is a single pass over the stored entries.
type Sparse struct {
	dim       int
	schedules []Schedule
	terms     []*linalg.CSR
	coeffs    []complex128
	scratch   *linalg.CSR
}

// NewSparse builds H(s) = Σ schedules[i](s)·terms[i] in CSR form.
func NewSparse(schedules []Schedule, terms []*linalg.CSR) (*Sparse, error) {
	if len(schedules) != len(terms) || len(terms) == 0 {
		return nil, errors.New("ham: need equal, nonzero numbers of schedules and terms")
	}
	dim, c := terms[0].Dims()
	if dim != c {
		return nil, fmt.Errorf("ham: term 0 is %d×%d, not square", dim, c)
	}
	aligned, err := linalg.AlignPatterns(terms)
	if err != nil {
		return nil, fmt.Errorf("ham: %w", err)
	}
	return &Sparse{
		dim:       dim,
		schedules: schedules,
		terms:     aligned,
		coeffs:    make([]complex128, len(terms)),
		scratch:   aligned[0].Clone(),
	}, nil
}

// Dim returns the Hilbert-space dimension.
func (h *Sparse) Dim() int { return h.dim }

// IsSparse reports the sparse trait.
func (h *Sparse) IsSparse() bool { return true }

// At assembles H(s) into the internal scratch matrix.
func (h *Sparse) At(s float64) *linalg.CSR {
	for i, f := range h.schedules {
		h.coeffs[i] = complex(f(s), 0)
	}
	// Patterns are aligned at construction, Combine cannot fail here.
	_ = linalg.Combine(h.scratch, h.coeffs, h.terms)
	return h.scratch
}

// EvalTo writes H(s) densely into dst.
func (h *Sparse) EvalTo(dst *mat.CDense, s float64) {
	h.At(s).DenseTo(dst)
}
