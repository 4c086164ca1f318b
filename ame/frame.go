package ame

import (
	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/bath"
	"github.com/qsimlab/goame/ham"
	"github.com/qsimlab/goame/linalg"
)

// FrameOperator applies the AME to Hamiltonians natively expressed in the
// adiabatic frame: the Hamiltonian supplies the unitary generator directly
// and the dissipator acts in the working basis, with the gap matrix taken
// from the frame's own level energies.
type FrameOperator struct {
	h      ham.Framer
	davies *Davies
	dim    int

	omega   *mat.Dense
	ident   *mat.CDense
	scratch *mat.CDense
}

// NewFrameOperator builds the adiabatic-frame operator. No truncation
// applies: the frame already is the working basis.
func NewFrameOperator(h ham.Framer, b bath.Bath, set *Settings) (*FrameOperator, error) {
	if err := set.checkControl(); err != nil {
		return nil, err
	}
	dim := h.Dim()
	if _, err := checkCouplings(b, dim); err != nil {
		return nil, err
	}
	ident := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		ident.Set(i, i, 1)
	}
	return &FrameOperator{
		h:       h,
		davies:  NewDavies(b, dim, dim),
		dim:     dim,
		omega:   mat.NewDense(dim, dim, nil),
		ident:   ident,
		scratch: mat.NewCDense(dim, dim, nil),
	}, nil
}

// Evaluate writes dρ/dt for the frame-basis state u at time t into du.
func (f *FrameOperator) Evaluate(du, u *mat.CDense, p Params, t float64) error {
	if err := checkState(du, u, f.dim); err != nil {
		return err
	}
	s, _ := p.Reduce(t)
	gaps := f.h.Gaps(s)
	for a := 0; a < f.dim; a++ {
		for b := 0; b < f.dim; b++ {
			f.omega.Set(a, b, gaps[b]-gaps[a])
		}
	}
	rp := Params{TF: p.TF}
	if !p.UnitTime {
		du.Zero()
		f.h.AddFrame(du, u, p.TF, s)
		f.davies.Add(du, u, f.omega, f.ident, rp, s)
		return nil
	}
	// The unit-time right-hand side is the reduced-time one divided by TF.
	f.scratch.Zero()
	f.h.AddFrame(f.scratch, u, p.TF, s)
	f.davies.Add(f.scratch, u, f.omega, f.ident, rp, s)
	linalg.ScaleTo(du, complex(1/p.TF, 0), f.scratch)
	return nil
}
