package ame

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/bath"
	"github.com/qsimlab/goame/eigen"
	"github.com/qsimlab/goame/ham"
	"github.com/qsimlab/goame/linalg"
)

// Operator is the master-equation right-hand side consumed by an external
// integrator: Evaluate fills du with dρ/dt for the lab-frame density
// matrix u at integrator time t. Operators own mutable scratch buffers and
// are therefore bound to a single time-stepping loop; parallel trajectories
// need one operator instance each.
type Operator interface {
	Evaluate(du, u *mat.CDense, p Params, t float64) error
}

// Liouvillian evaluates the AME right-hand side in the instantaneous
// eigenbasis: diagonalize H(s), rotate the state in, add the unitary term
// −i·sc·[diag(w), ρ] and the Davies dissipator, and rotate the result back
// to the lab frame. The dense or warm-started sparse diagonalization path
// is fixed once at construction from the Hamiltonian trait.
type Liouvillian struct {
	h      ham.Hamiltonian
	davies *Davies
	eigs   eigen.Routine
	dim    int
	lvl    int

	rho, drho *mat.CDense
	rtmp      *mat.CDense
	btmp      *mat.CDense
	omega     *mat.Dense
}

// NewLiouvillian builds the eigenbasis operator truncated to lvl levels.
func NewLiouvillian(h ham.Hamiltonian, b bath.Bath, lvl int, set *Settings) (*Liouvillian, error) {
	if err := set.checkControl(); err != nil {
		return nil, err
	}
	dim := h.Dim()
	if _, err := checkCouplings(b, dim); err != nil {
		return nil, err
	}
	eigs, lvl, err := eigen.New(h, lvl, set.lanczos())
	if err != nil {
		return nil, err
	}
	log.Debugf("eigenbasis operator: dim=%d lvl=%d sparse=%v", dim, lvl, h.IsSparse())
	return &Liouvillian{
		h:      h,
		davies: NewDavies(b, dim, lvl),
		eigs:   eigs,
		dim:    dim,
		lvl:    lvl,
		rho:    mat.NewCDense(lvl, lvl, nil),
		drho:   mat.NewCDense(lvl, lvl, nil),
		rtmp:   mat.NewCDense(lvl, dim, nil),
		btmp:   mat.NewCDense(dim, lvl, nil),
		omega:  mat.NewDense(lvl, lvl, nil),
	}, nil
}

// Lvl returns the truncation level in effect, after any construction-time
// reduction on the iterative path.
func (l *Liouvillian) Lvl() int { return l.lvl }

// Evaluate writes dρ/dt for the lab-frame state u at time t into du.
func (l *Liouvillian) Evaluate(du, u *mat.CDense, p Params, t float64) error {
	if err := checkState(du, u, l.dim); err != nil {
		return err
	}
	s, sc := p.Reduce(t)
	dec, err := l.eigs(s)
	if err != nil {
		return fmt.Errorf("ame: diagonalization at s=%g: %w", s, err)
	}
	v := dec.Vectors
	w := dec.Values
	linalg.Rotate(l.rho, l.rtmp, v, u)
	for a := 0; a < l.lvl; a++ {
		for b := 0; b < l.lvl; b++ {
			l.omega.Set(a, b, w[b]-w[a])
			l.drho.Set(a, b, complex(0, -sc*(w[a]-w[b]))*l.rho.At(a, b))
		}
	}
	l.davies.Add(l.drho, l.rho, l.omega, v, p, t)
	linalg.RotateBack(du, l.btmp, v, l.drho)
	return nil
}
