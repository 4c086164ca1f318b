package eigen

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/op/go-logging"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/linalg"
)

const smallDiff = 1e-9

func init() {
	// fallbacks are exercised on purpose below
	logging.SetLevel(logging.ERROR, "eigen")
}

func randomHermitian(rng *rand.Rand, dim int) *mat.CDense {
	h := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		h.Set(i, i, complex(rng.NormFloat64(), 0))
		for j := i + 1; j < dim; j++ {
			v := complex(rng.NormFloat64(), rng.NormFloat64())
			h.Set(i, j, v)
			h.Set(j, i, cmplx.Conj(v))
		}
	}
	return h
}

func checkDecomposition(tst *testing.T, h *mat.CDense, dec *Decomposition) {
	dim, _ := h.Dims()
	lvl := len(dec.Values)
	for k := 1; k < lvl; k++ {
		if dec.Values[k] < dec.Values[k-1] {
			tst.Errorf("Eigenvalues not ascending: w[%d]=%v > w[%d]=%v",
				k-1, dec.Values[k-1], k, dec.Values[k])
		}
	}
	col := func(k int) []complex128 {
		c := make([]complex128, dim)
		for i := range c {
			c[i] = dec.Vectors.At(i, k)
		}
		return c
	}
	for a := 0; a < lvl; a++ {
		for b := 0; b < lvl; b++ {
			d := linalg.Dot(col(a), col(b))
			want := complex128(0)
			if a == b {
				want = 1
			}
			if cmplx.Abs(d-want) > smallDiff {
				tst.Errorf("⟨v%d|v%d⟩ = %v, want %v", a, b, d, want)
			}
		}
	}
	// residual ‖H·v − λ·v‖
	hv := make([]complex128, dim)
	for k := 0; k < lvl; k++ {
		v := col(k)
		linalg.DenseApplier{M: h}.MulVecTo(hv, v)
		linalg.Axpy(complex(-dec.Values[k], 0), v, hv)
		if r := linalg.Norm(hv); r > 1e-8 {
			tst.Errorf("Residual for pair %d: %v", k, r)
		}
	}
}

func TestDenseLowestRandom(tst *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		dim := 2 + rng.Intn(7)
		lvl := 1 + rng.Intn(dim)
		h := randomHermitian(rng, dim)
		dec, err := DenseLowest(h, lvl)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		checkDecomposition(tst, h, dec)
	}
}

func TestDenseLowestDegenerate(tst *testing.T) {
	// Three-fold degenerate ground space must still come out orthonormal.
	h := mat.NewCDense(4, 4, nil)
	h.Set(3, 3, 5)
	dec, err := DenseLowest(h, 3)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	checkDecomposition(tst, h, dec)
	for k := 0; k < 3; k++ {
		if math.Abs(dec.Values[k]) > smallDiff {
			tst.Error("Expected 0 eigenvalue, got", dec.Values[k])
		}
	}
}

func TestDenseLowestKnownSpectrum(tst *testing.T) {
	// σx has eigenvalues ∓1 with known eigenvectors.
	h := mat.NewCDense(2, 2, []complex128{0, 1, 1, 0})
	dec, err := DenseLowest(h, 2)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if math.Abs(dec.Values[0]+1) > smallDiff || math.Abs(dec.Values[1]-1) > smallDiff {
		tst.Error("Expected (-1, 1), got", dec.Values)
	}
	// phase-invariant check of the (1,-1)/√2 ground state
	ov := dec.Vectors.At(0, 0) * cmplx.Conj(dec.Vectors.At(1, 0))
	if cmplx.Abs(ov+0.5) > smallDiff {
		tst.Error("Ground state is not (1,-1)/√2 up to phase, overlap", ov)
	}
}
