package ham

import (
	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/linalg"
)

// Pauli matrices and tensor-product helpers for building spin systems.

// SigmaX returns the Pauli X matrix.
func SigmaX() *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{0, 1, 1, 0})
}

// SigmaY returns the Pauli Y matrix.
func SigmaY() *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{0, -1i, 1i, 0})
}

// SigmaZ returns the Pauli Z matrix.
func SigmaZ() *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{1, 0, 0, -1})
}

// Identity returns the n×n identity matrix.
func Identity(n int) *mat.CDense {
	m := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Kron returns the tensor product a⊗b.
func Kron(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	m := mat.NewCDense(ar*br, ac*bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			v := a.At(i, j)
			if v == 0 {
				continue
			}
			for k := 0; k < br; k++ {
				for l := 0; l < bc; l++ {
					m.Set(i*br+k, j*bc+l, v*b.At(k, l))
				}
			}
		}
	}
	return m
}

// OnQubit embeds the single-qubit operator op on qubit k of an n-qubit
// register (qubit 0 is the leftmost tensor factor).
func OnQubit(op *mat.CDense, k, n int) *mat.CDense {
	res := mat.NewCDense(1, 1, []complex128{1})
	for i := 0; i < n; i++ {
		if i == k {
			res = Kron(res, op)
		} else {
			res = Kron(res, Identity(2))
		}
	}
	return res
}

// SumOnQubits returns Σ_k op_k over an n-qubit register, the standard
// transverse-field driver shape when op is σx.
func SumOnQubits(op *mat.CDense, n int) *mat.CDense {
	dim := 1 << n
	res := mat.NewCDense(dim, dim, nil)
	for k := 0; k < n; k++ {
		t := OnQubit(op, k, n)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				res.Set(i, j, res.At(i, j)+t.At(i, j))
			}
		}
	}
	return res
}

// IsingChain returns −Σ J·σz_k σz_{k+1} on n qubits.
func IsingChain(n int, J float64) *mat.CDense {
	dim := 1 << n
	res := mat.NewCDense(dim, dim, nil)
	for k := 0; k+1 < n; k++ {
		zz := mulDense(OnQubit(SigmaZ(), k, n), OnQubit(SigmaZ(), k+1, n))
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				res.Set(i, j, res.At(i, j)-complex(J, 0)*zz.At(i, j))
			}
		}
	}
	return res
}

func mulDense(a, b *mat.CDense) *mat.CDense {
	r, _ := a.Dims()
	_, c := b.Dims()
	m := mat.NewCDense(r, c, nil)
	linalg.MulInto(m, a, b)
	return m
}

// CSROf converts a dense operator to CSR form, dropping exact zeros.
func CSROf(a *mat.CDense) *linalg.CSR {
	return linalg.CSRFromDense(a, 0)
}
