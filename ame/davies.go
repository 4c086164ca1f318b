package ame

import (
	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/bath"
	"github.com/qsimlab/goame/linalg"
)

// Davies assembles the weak-coupling-limit dissipator in an instantaneous
// eigenbasis. All contributions are accumulated into a caller-supplied
// buffer so the unitary term can be composed separately. A Davies instance
// owns its scratch matrices and must not be shared across goroutines.
type Davies struct {
	b   bath.Bath
	lvl int

	gm, sm, ga *mat.Dense
	gout, hls  []float64
	ab, rtmp   *mat.CDense
}

// NewDavies prepares a dissipator for couplings of dimension dim truncated
// to lvl levels.
func NewDavies(b bath.Bath, dim, lvl int) *Davies {
	return &Davies{
		b:    b,
		lvl:  lvl,
		gm:   mat.NewDense(lvl, lvl, nil),
		sm:   mat.NewDense(lvl, lvl, nil),
		ga:   mat.NewDense(lvl, lvl, nil),
		gout: make([]float64, lvl),
		hls:  make([]float64, lvl),
		ab:   mat.NewCDense(lvl, lvl, nil),
		rtmp: mat.NewCDense(lvl, dim, nil),
	}
}

// Add accumulates dρ/dt contributions for the eigenbasis density matrix u
// into du. omega.At(a,b) must hold the signed Bohr frequency w[b]−w[a] and
// v the eigenvectors in its columns (dim×lvl). Population transfer between
// level pairs uses γ_ab·|A_ab|², coherences decay with half the total
// outgoing rates of both endpoints corrected by the pure-dephasing term
// γ(0)·A_aa·A_bb, and the diagonal Lamb-shift Hamiltonian enters as
// −i[H_ls, ρ].
func (d *Davies) Add(du, u *mat.CDense, omega *mat.Dense, v *mat.CDense, p Params, t float64) {
	s, sc := p.Reduce(t)
	lvl := d.lvl
	for a := 0; a < lvl; a++ {
		for b := 0; b < lvl; b++ {
			w := omega.At(a, b)
			d.gm.Set(a, b, sc*d.b.Gamma(w))
			d.sm.Set(a, b, sc*d.b.Shift(w))
		}
	}
	g0 := sc * d.b.Gamma(0)

	for _, op := range d.b.Coupling(s) {
		linalg.Rotate(d.ab, d.rtmp, v, op)
		for b := 0; b < lvl; b++ {
			d.gout[b] = 0
		}
		for a := 0; a < lvl; a++ {
			for b := 0; b < lvl; b++ {
				g := d.gm.At(a, b) * linalg.Abs2(d.ab.At(a, b))
				d.ga.Set(a, b, g)
				d.gout[b] += g
			}
		}
		for a := 0; a < lvl; a++ {
			for b := 0; b < a; b++ {
				gab := complex(d.ga.At(a, b), 0)
				gba := complex(d.ga.At(b, a), 0)
				du.Set(a, a, du.At(a, a)+gab*u.At(b, b)-gba*u.At(a, a))
				du.Set(b, b, du.At(b, b)+gba*u.At(a, a)-gab*u.At(b, b))
				c := complex(-0.5*(d.gout[a]+d.gout[b]), 0) +
					complex(g0, 0)*d.ab.At(a, a)*d.ab.At(b, b)
				du.Set(a, b, du.At(a, b)+c*u.At(a, b))
				du.Set(b, a, du.At(b, a)+c*u.At(b, a))
			}
		}
		for a := 0; a < lvl; a++ {
			h := 0.0
			for b := 0; b < lvl; b++ {
				h += d.sm.At(b, a) * linalg.Abs2(d.ab.At(b, a))
			}
			d.hls[a] = h
		}
		for a := 0; a < lvl; a++ {
			for b := 0; b < lvl; b++ {
				if d.hls[a] == d.hls[b] {
					continue
				}
				du.Set(a, b, du.At(a, b)-1i*complex(d.hls[a]-d.hls[b], 0)*u.At(a, b))
			}
		}
	}
}
