// Package bath implements the Davies-generator data: the spectral rate
// density γ(ω), the Lamb-shift density S(ω), and the system coupling
// operators. The rate density is nonnegative and encodes detailed balance
// through its dependence on the signed Bohr frequency; the shift density is
// real. Both are evaluated, never enforced, by the operator packages.
package bath

import (
	"gonum.org/v1/gonum/mat"
)

// Spectrum evaluates the two spectral densities of a bath model.
type Spectrum interface {
	// Gamma returns the rate density at signed Bohr frequency w; it must
	// be nonnegative.
	Gamma(w float64) float64
	// Shift returns the Lamb-shift density at w.
	Shift(w float64) float64
}

// Bath couples a spectrum to the system operators it acts through.
type Bath interface {
	Spectrum
	// Coupling returns the coupling operators at reduced time s. The
	// length and order of the returned sequence are invariant over a run.
	Coupling(s float64) []*mat.CDense
}

// Custom is a Spectrum built from user-supplied closures.
type Custom struct {
	G, S func(w float64) float64
}

// Gamma evaluates the rate density closure.
func (c Custom) Gamma(w float64) float64 { return c.G(w) }

// Shift evaluates the Lamb-shift closure; a nil closure means no shift.
func (c Custom) Shift(w float64) float64 {
	if c.S == nil {
		return 0
	}
	return c.S(w)
}

type fixed struct {
	Spectrum
	ops []*mat.CDense
}

func (b fixed) Coupling(float64) []*mat.CDense { return b.ops }

// Fixed attaches time-independent coupling operators to a spectrum.
func Fixed(sp Spectrum, ops ...*mat.CDense) Bath {
	return fixed{Spectrum: sp, ops: ops}
}

type varying struct {
	Spectrum
	f func(s float64) []*mat.CDense
}

func (b varying) Coupling(s float64) []*mat.CDense { return b.f(s) }

// Varying attaches time-dependent coupling operators to a spectrum. The
// callback must keep the channel count and order fixed.
func Varying(sp Spectrum, f func(s float64) []*mat.CDense) Bath {
	return varying{Spectrum: sp, f: f}
}
