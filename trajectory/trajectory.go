// Package trajectory implements the quantum-trajectory (wavefunction)
// unraveling of the adiabatic master equation: a non-Hermitian effective
// generator evolving the state between jumps, and a weighted sampler over
// the exhaustive set of jump channels.
package trajectory

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/ame"
	"github.com/qsimlab/goame/bath"
	"github.com/qsimlab/goame/eigen"
	"github.com/qsimlab/goame/ham"
	"github.com/qsimlab/goame/linalg"
)

// Operator maintains the effective generator of a single trajectory and
// samples its jump events. One instance drives exactly one trajectory;
// parallel trajectories need one instance (and one random source) each.
type Operator struct {
	h    ham.Hamiltonian
	b    bath.Bath
	eigs eigen.Routine
	dim  int
	lvl  int

	src rand.Source

	rates []complex128
	phi   []float64
	abs   []*mat.CDense
	rtmp  *mat.CDense
	diag  *mat.CDense
	btmp  *mat.CDense

	tags    []Tag
	weights []float64
}

// New builds a trajectory operator truncated to lvl levels. src seeds all
// jump sampling for this trajectory; a fixed seed reproduces the
// unraveling exactly.
func New(h ham.Hamiltonian, b bath.Bath, lvl int, src rand.Source, set *ame.Settings) (*Operator, error) {
	dim := h.Dim()
	ops := b.Coupling(0)
	if len(ops) == 0 {
		return nil, fmt.Errorf("trajectory: bath has no coupling operators")
	}
	for i, op := range ops {
		r, c := op.Dims()
		if r != dim || c != dim {
			return nil, fmt.Errorf("trajectory: coupling %d is %d×%d, want %d×%d", i, r, c, dim, dim)
		}
	}
	var lset *eigen.LanczosSettings
	if set != nil {
		if set.Control != nil {
			return nil, fmt.Errorf("trajectory: control hooks are reserved and not supported")
		}
		lset = set.Lanczos
	}
	eigs, lvl, err := eigen.New(h, lvl, lset)
	if err != nil {
		return nil, err
	}
	abs := make([]*mat.CDense, len(ops))
	for i := range abs {
		abs[i] = mat.NewCDense(lvl, lvl, nil)
	}
	nc := len(ops)
	return &Operator{
		h:       h,
		b:       b,
		eigs:    eigs,
		dim:     dim,
		lvl:     lvl,
		src:     src,
		rates:   make([]complex128, lvl),
		phi:     make([]float64, lvl),
		abs:     abs,
		rtmp:    mat.NewCDense(lvl, dim, nil),
		diag:    mat.NewCDense(lvl, lvl, nil),
		btmp:    mat.NewCDense(dim, lvl, nil),
		tags:    make([]Tag, 0, nc*(lvl*(lvl-1)+1)),
		weights: make([]float64, 0, nc*(lvl*(lvl-1)+1)),
	}, nil
}

// Lvl returns the truncation level in effect.
func (o *Operator) Lvl() int { return o.lvl }

// UpdateCache overwrites heff (dim×dim) with the non-Hermitian effective
// generator G = −i·H_eff driving the deterministic segment between jumps:
// per level b the complex rate combines the unitary phase −i·sc·w_b with
// the damping/shift contribution −(½γ_ab + i·S_ab)·|A_ab|² summed over all
// channels and all origin levels a ≠ b.
func (o *Operator) UpdateCache(heff *mat.CDense, p ame.Params, t float64) error {
	if r, c := heff.Dims(); r != o.dim || c != o.dim {
		return fmt.Errorf("trajectory: cache is %d×%d, want %d×%d", r, c, o.dim, o.dim)
	}
	s, sc := p.Reduce(t)
	dec, err := o.eigs(s)
	if err != nil {
		return fmt.Errorf("trajectory: diagonalization at s=%g: %w", s, err)
	}
	w := dec.Values
	v := dec.Vectors
	for b := 0; b < o.lvl; b++ {
		o.rates[b] = complex(0, -sc*w[b])
	}
	for _, op := range o.b.Coupling(s) {
		linalg.Rotate(o.abs[0], o.rtmp, v, op)
		ab := o.abs[0]
		for b := 0; b < o.lvl; b++ {
			for a := 0; a < o.lvl; a++ {
				if a == b {
					continue
				}
				a2 := linalg.Abs2(ab.At(a, b))
				g := sc * o.b.Gamma(w[b]-w[a])
				sh := sc * o.b.Shift(w[b]-w[a])
				o.rates[b] -= complex(0.5*g*a2, sh*a2)
			}
		}
	}
	o.diag.Zero()
	for b := 0; b < o.lvl; b++ {
		o.diag.Set(b, b, o.rates[b])
	}
	linalg.RotateBack(heff, o.btmp, v, o.diag)
	return nil
}

// overlap2 returns |⟨v_col|u⟩|².
func overlap2(v *mat.CDense, col int, u []complex128) float64 {
	var acc complex128
	for k := range u {
		x := v.At(k, col)
		acc += complex(real(x), -imag(x)) * u[k]
	}
	return linalg.Abs2(acc)
}

func sqrt(x float64) complex128 {
	return complex(math.Sqrt(x), 0)
}
