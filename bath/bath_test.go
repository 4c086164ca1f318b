package bath

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const smallDiff = 1e-10

func TestOhmicDetailedBalance(tst *testing.T) {
	o, err := NewOhmic(0.01, 4, 2)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	for _, w := range []float64{0.1, 0.5, 1, 2.7, 8} {
		lhs := o.Gamma(-w)
		rhs := math.Exp(-2*w) * o.Gamma(w)
		if d := math.Abs(lhs - rhs); d > smallDiff*o.Gamma(w) {
			tst.Errorf("γ(−%v)=%v, e^{−βω}·γ(%v)=%v", w, lhs, w, rhs)
		}
		if o.Gamma(w) < 0 || o.Gamma(-w) < 0 {
			tst.Errorf("Negative rate density at ±%v", w)
		}
	}
}

func TestOhmicZeroFrequency(tst *testing.T) {
	const eta, wc, beta = 0.02, 8, 1.5
	o, err := NewOhmic(eta, wc, beta)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	want := 2 * math.Pi * eta / beta
	if g := o.Gamma(0); math.Abs(g-want) > smallDiff {
		tst.Error("Expected γ(0)=2πη/β, got", g)
	}
	// the exact formula must approach the limit continuously
	for _, w := range []float64{1e-6, -1e-6} {
		if g := o.Gamma(w); math.Abs(g-want) > 1e-4*want {
			tst.Errorf("γ(%v)=%v far from the ω→0 limit %v", w, g, want)
		}
	}
}

func TestOhmicShift(tst *testing.T) {
	o, err := NewOhmic(0.01, 4, 2)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	var prev float64
	for i, w := range []float64{-3, -1, 0, 1, 3} {
		s := o.Shift(w)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			tst.Fatalf("S(%v) is not finite: %v", w, s)
		}
		if i > 0 && s == prev {
			tst.Errorf("S is flat between consecutive frequencies near %v", w)
		}
		prev = s
	}
	// continuity across the pole subtraction
	if d := math.Abs(o.Shift(1) - o.Shift(1.0001)); d > 1e-4 {
		tst.Error("S jumps across nearby frequencies:", d)
	}
	// far beyond the cutoff the density decays like 1/ω
	if math.Abs(o.Shift(200)) > math.Abs(o.Shift(1)) {
		tst.Error("S does not decay at large frequencies")
	}
}

func TestOhmicParameterValidation(tst *testing.T) {
	for _, p := range [][3]float64{{0, 1, 1}, {1, -1, 1}, {1, 1, 0}} {
		if _, err := NewOhmic(p[0], p[1], p[2]); err == nil {
			tst.Error("Expected error for parameters", p)
		}
	}
}

func TestCustomSpectrum(tst *testing.T) {
	c := Custom{G: func(w float64) float64 { return 2 * w }}
	if c.Gamma(3) != 6 {
		tst.Error("Custom rate closure not applied")
	}
	if c.Shift(3) != 0 {
		tst.Error("Nil shift closure must evaluate to 0")
	}
	c.S = func(w float64) float64 { return -w }
	if c.Shift(3) != -3 {
		tst.Error("Custom shift closure not applied")
	}
}

func TestCouplingWrappers(tst *testing.T) {
	sp := Custom{G: func(float64) float64 { return 1 }}
	op := mat.NewCDense(2, 2, []complex128{0, 1, 1, 0})

	f := Fixed(sp, op)
	for _, s := range []float64{0, 0.5, 1} {
		ops := f.Coupling(s)
		if len(ops) != 1 || ops[0] != op {
			tst.Fatal("Fixed coupling must return the same operators at every s")
		}
	}

	called := 0.0
	v := Varying(sp, func(s float64) []*mat.CDense {
		called = s
		return []*mat.CDense{op}
	})
	if ops := v.Coupling(0.7); len(ops) != 1 || called != 0.7 {
		tst.Error("Varying coupling did not evaluate the callback")
	}
	if v.Gamma(2) != 1 {
		tst.Error("Spectrum not promoted through the wrapper")
	}
}
