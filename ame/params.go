// Package ame implements the adiabatic-master-equation generator: the
// Davies dissipator assembled in the instantaneous eigenbasis and the
// right-hand-side operators consumed by an external integrator.
package ame

import (
	"errors"
	"fmt"

	"github.com/op/go-logging"
	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/bath"
	"github.com/qsimlab/goame/eigen"
)

var log = logging.MustGetLogger("ame")

// Params carries the integrator-owned settings through an evaluation.
type Params struct {
	// TF is the total anneal time.
	TF float64
	// UnitTime selects the time convention. When false the operator is
	// driven on the reduced time s ∈ [0,1] and all rates carry a factor
	// TF; when true it is driven on t ∈ [0,TF], the Hamiltonian and
	// couplings are evaluated at t/TF, and rates are left unscaled. The
	// two conventions produce identical trajectories under t ↔ TF·s.
	UnitTime bool
}

// Reduce maps the integrator time t to the reduced time s and the rate
// scale for the selected convention.
func (p Params) Reduce(t float64) (s, scale float64) {
	if p.UnitTime {
		return t / p.TF, 1
	}
	return t, p.TF
}

// Settings selects construction-time solver behavior for the operators.
type Settings struct {
	// Lanczos configures the iterative eigensolver on the sparse path.
	Lanczos *eigen.LanczosSettings
	// Control is reserved for future controller hooks; construction fails
	// when it is set, and nil selects the plain evaluation path.
	Control any
}

func (s *Settings) lanczos() *eigen.LanczosSettings {
	if s == nil {
		return nil
	}
	return s.Lanczos
}

func (s *Settings) checkControl() error {
	if s != nil && s.Control != nil {
		return errors.New("ame: control hooks are reserved and not supported")
	}
	return nil
}

// checkCouplings validates the coupling operators against the system
// dimension and returns the channel count.
func checkCouplings(b bath.Bath, dim int) (int, error) {
	ops := b.Coupling(0)
	if len(ops) == 0 {
		return 0, errors.New("ame: bath has no coupling operators")
	}
	for i, op := range ops {
		r, c := op.Dims()
		if r != dim || c != dim {
			return 0, fmt.Errorf("ame: coupling %d is %d×%d, want %d×%d", i, r, c, dim, dim)
		}
	}
	return len(ops), nil
}

// checkState validates the integrator-supplied buffers.
func checkState(du, u *mat.CDense, dim int) error {
	if r, c := u.Dims(); r != dim || c != dim {
		return fmt.Errorf("ame: state is %d×%d, want %d×%d", r, c, dim, dim)
	}
	if r, c := du.Dims(); r != dim || c != dim {
		return fmt.Errorf("ame: derivative buffer is %d×%d, want %d×%d", r, c, dim, dim)
	}
	return nil
}
