package ham

import (
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/linalg"
)

const smallDiff = 1e-12

func matDiff(tst *testing.T, got, want *mat.CDense, tol float64, label string) {
	r, c := want.Dims()
	gr, gc := got.Dims()
	if gr != r || gc != c {
		tst.Fatalf("%s: got %d×%d, want %d×%d", label, gr, gc, r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if cmplx.Abs(got.At(i, j)-want.At(i, j)) > tol {
				tst.Errorf("%s (%d,%d): got %v, want %v", label, i, j, got.At(i, j), want.At(i, j))
			}
		}
	}
}

func TestSchedules(tst *testing.T) {
	c := Constant(2.5)
	if c(0) != 2.5 || c(1) != 2.5 {
		tst.Error("Constant schedule is not constant")
	}
	l := Linear(1, -1)
	if l(0) != 1 || l(1) != -1 || l(0.5) != 0 {
		tst.Error("Linear schedule interpolates wrong")
	}
}

func TestDenseSparseAgree(tst *testing.T) {
	const n = 3
	driver := SumOnQubits(SigmaX(), n)
	problem := IsingChain(n, 1)
	schedules := []Schedule{Linear(1, 0), Linear(0, 1)}

	hd, err := NewDense(schedules, []*mat.CDense{driver, problem})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	hs, err := NewSparse(schedules, []*linalg.CSR{CSROf(driver), CSROf(problem)})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if hd.IsSparse() || !hs.IsSparse() {
		tst.Error("Sparse traits are wrong")
	}
	if hd.Dim() != 1<<n || hs.Dim() != 1<<n {
		tst.Error("Wrong dimensions: ", hd.Dim(), hs.Dim())
	}

	bd := mat.NewCDense(1<<n, 1<<n, nil)
	bs := mat.NewCDense(1<<n, 1<<n, nil)
	for _, s := range []float64{0, 0.25, 0.6, 1} {
		hd.EvalTo(bd, s)
		hs.EvalTo(bs, s)
		matDiff(tst, bs, bd, smallDiff, "H(s)")
	}
}

func TestPauliBuilders(tst *testing.T) {
	// σx² = 1
	matDiff(tst, mulDense(SigmaX(), SigmaX()), Identity(2), smallDiff, "σx²")
	// σy² = 1
	matDiff(tst, mulDense(SigmaY(), SigmaY()), Identity(2), smallDiff, "σy²")
	// embedding on the right qubit
	matDiff(tst, OnQubit(SigmaZ(), 1, 2), Kron(Identity(2), SigmaZ()), smallDiff, "1⊗σz")
	// Σσz on 2 qubits counts the magnetization
	want := mat.NewCDense(4, 4, nil)
	for i, m := range []float64{2, 0, 0, -2} {
		want.Set(i, i, complex(m, 0))
	}
	matDiff(tst, SumOnQubits(SigmaZ(), 2), want, smallDiff, "Σσz")
	// ferromagnetic two-qubit chain
	want = mat.NewCDense(4, 4, nil)
	for i, m := range []float64{-1, 1, 1, -1} {
		want.Set(i, i, complex(m, 0))
	}
	matDiff(tst, IsingChain(2, 1), want, smallDiff, "Ising")
}

func TestAdiabaticFrame(tst *testing.T) {
	levels := func(s float64) []float64 { return []float64{0, 1 + 0.5*s} }
	geometric := func(dst *mat.CDense, s float64) {
		dst.Zero()
		g := complex(0, -0.3*s)
		dst.Set(0, 1, g)
		dst.Set(1, 0, -g)
	}
	h, err := NewAdiabaticFrame(2, levels, geometric)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if h.Dim() != 2 || h.IsSparse() {
		tst.Error("Wrong traits")
	}
	const s, tf = 0.4, 7.0

	// EvalTo is the tf=1 frame Hamiltonian
	buf := mat.NewCDense(2, 2, nil)
	h.EvalTo(buf, s)
	want := mat.NewCDense(2, 2, nil)
	geometric(want, s)
	want.Set(1, 1, want.At(1, 1)+complex(1+0.5*s, 0))
	matDiff(tst, buf, want, smallDiff, "EvalTo")

	if g := h.Gaps(s); g[0] != 0 || g[1] != 1+0.5*s {
		tst.Error("Wrong gaps: ", g)
	}

	// AddFrame accumulates −i[tf·diag(ω) + G, u] on top of du
	u := mat.NewCDense(2, 2, []complex128{0.3, 0.1 + 0.2i, 0.1 - 0.2i, 0.7})
	du := mat.NewCDense(2, 2, []complex128{1, 0, 0, 1})
	h.AddFrame(du, u, tf, s)

	gen := mat.NewCDense(2, 2, nil)
	geometric(gen, s)
	gen.Set(1, 1, gen.At(1, 1)+complex(tf*(1+0.5*s), 0))
	expect := mat.NewCDense(2, 2, nil)
	cu := mat.NewCDense(2, 2, nil)
	uc := mat.NewCDense(2, 2, nil)
	linalg.MulInto(cu, gen, u)
	linalg.MulInto(uc, u, gen)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			base := complex128(0)
			if i == j {
				base = 1
			}
			expect.Set(i, j, base-1i*(cu.At(i, j)-uc.At(i, j)))
		}
	}
	matDiff(tst, du, expect, 1e-10, "AddFrame")
}

func TestConstructorErrors(tst *testing.T) {
	if _, err := NewDense(nil, nil); err == nil {
		tst.Error("Expected error for empty dense Hamiltonian")
	}
	if _, err := NewDense(
		[]Schedule{Constant(1), Constant(1)},
		[]*mat.CDense{Identity(2), Identity(4)},
	); err == nil {
		tst.Error("Expected error for mismatched term dimensions")
	}
	if _, err := NewSparse(
		[]Schedule{Constant(1)},
		[]*linalg.CSR{CSROf(Identity(2)), CSROf(Identity(2))},
	); err == nil {
		tst.Error("Expected error for schedule/term count mismatch")
	}
	if _, err := NewAdiabaticFrame(1, nil, nil); err == nil {
		tst.Error("Expected error for dimension 1 frame")
	}
}
