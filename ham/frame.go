package ham

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/linalg"
)

// AdiabaticFrame is a Hamiltonian expressed in its own moving frame: a
// diagonal of instantaneous level energies ω(s) plus a geometric coupling
// term G(s) arising from the frame rotation. In the frame, the energies
// scale with the anneal time while the geometric term does not.
type AdiabaticFrame struct {
	dim       int
	levels    func(s float64) []float64
	geometric func(dst *mat.CDense, s float64)

	g, cu, uc *mat.CDense
}

// NewAdiabaticFrame builds a frame Hamiltonian from the level energies and
// a writer for the geometric coupling term.
func NewAdiabaticFrame(dim int, levels func(s float64) []float64, geometric func(dst *mat.CDense, s float64)) (*AdiabaticFrame, error) {
	if dim < 2 {
		return nil, errors.New("ham: frame Hamiltonian needs dimension ≥ 2")
	}
	return &AdiabaticFrame{
		dim:       dim,
		levels:    levels,
		geometric: geometric,
		g:         mat.NewCDense(dim, dim, nil),
		cu:        mat.NewCDense(dim, dim, nil),
		uc:        mat.NewCDense(dim, dim, nil),
	}, nil
}

// Dim returns the Hilbert-space dimension.
func (h *AdiabaticFrame) Dim() int { return h.dim }

// IsSparse reports the dense trait.
func (h *AdiabaticFrame) IsSparse() bool { return false }

// EvalTo writes the tf=1 frame Hamiltonian diag(ω(s)) + G(s) into dst.
func (h *AdiabaticFrame) EvalTo(dst *mat.CDense, s float64) {
	h.geometric(dst, s)
	for i, w := range h.levels(s) {
		dst.Set(i, i, dst.At(i, i)+complex(w, 0))
	}
}

// AddFrame adds −i[tf·diag(ω(s)) + G(s), u] into du.
func (h *AdiabaticFrame) AddFrame(du, u *mat.CDense, tf, s float64) {
	h.geometric(h.g, s)
	for i, w := range h.levels(s) {
		h.g.Set(i, i, h.g.At(i, i)+complex(tf*w, 0))
	}
	linalg.MulInto(h.cu, h.g, u)
	linalg.MulInto(h.uc, u, h.g)
	for i := 0; i < h.dim; i++ {
		for j := 0; j < h.dim; j++ {
			du.Set(i, j, du.At(i, j)-1i*(h.cu.At(i, j)-h.uc.At(i, j)))
		}
	}
}

// Gaps returns the instantaneous level energies ω(s).
func (h *AdiabaticFrame) Gaps(s float64) []float64 { return h.levels(s) }
