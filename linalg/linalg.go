// Package linalg provides the complex linear-algebra primitives shared by
// the solver and operator packages: thin vector wrappers over cblas128,
// eigenbasis rotations, and a compressed sparse row matrix for Hamiltonians
// too large to store densely.
package linalg

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// Applier is anything able to apply itself to a complex vector. It is the
// minimal contract iterative eigensolvers need.
type Applier interface {
	Dims() (r, c int)
	// MulVecTo computes dst = A·x. dst and x must not alias.
	MulVecTo(dst, x []complex128)
}

// Vec wraps a contiguous complex slice as a cblas128 vector.
func Vec(x []complex128) cblas128.Vector {
	return cblas128.Vector{N: len(x), Inc: 1, Data: x}
}

// Dot returns ⟨x,y⟩ with conjugation on x.
func Dot(x, y []complex128) complex128 {
	return cblas128.Dotc(Vec(x), Vec(y))
}

// Norm returns the Euclidean norm of x.
func Norm(x []complex128) float64 {
	return cblas128.Nrm2(Vec(x))
}

// Axpy computes y += alpha·x.
func Axpy(alpha complex128, x, y []complex128) {
	cblas128.Axpy(alpha, Vec(x), Vec(y))
}

// Scale computes x *= alpha.
func Scale(alpha complex128, x []complex128) {
	cblas128.Scal(alpha, Vec(x))
}

// Abs2 returns |v|² without the square root of cmplx.Abs.
func Abs2(v complex128) float64 {
	re, im := real(v), imag(v)
	return re*re + im*im
}

// DenseApplier adapts a dense complex matrix to the Applier contract.
type DenseApplier struct {
	M *mat.CDense
}

// Dims returns the dimensions of the wrapped matrix.
func (d DenseApplier) Dims() (r, c int) { return d.M.Dims() }

// MulVecTo computes dst = M·x.
func (d DenseApplier) MulVecTo(dst, x []complex128) {
	cblas128.Gemv(blas.NoTrans, 1, d.M.RawCMatrix(), Vec(x), 0, Vec(dst))
}

// MulInto computes dst = a·b. dst must not alias a or b.
func MulInto(dst, a, b *mat.CDense) {
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, a.RawCMatrix(), b.RawCMatrix(), 0, dst.RawCMatrix())
}

// ScaleTo computes dst = alpha·a. dst and a may be the same matrix.
func ScaleTo(dst *mat.CDense, alpha complex128, a *mat.CDense) {
	dst.Copy(a)
	g := dst.RawCMatrix()
	for i := 0; i < g.Rows; i++ {
		cblas128.Scal(alpha, cblas128.Vector{N: g.Cols, Inc: 1, Data: g.Data[i*g.Stride:]})
	}
}

// Rotate computes dst = v†·a·v using tmp as scratch. With v of size
// dim×lvl, dst and tmp must be lvl×lvl and lvl×dim respectively.
func Rotate(dst, tmp, v, a *mat.CDense) {
	cblas128.Gemm(blas.ConjTrans, blas.NoTrans, 1, v.RawCMatrix(), a.RawCMatrix(), 0, tmp.RawCMatrix())
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, tmp.RawCMatrix(), v.RawCMatrix(), 0, dst.RawCMatrix())
}

// RotateBack computes dst = v·a·v† using tmp as scratch. With v of size
// dim×lvl, tmp must be dim×lvl and dst dim×dim.
func RotateBack(dst, tmp, v, a *mat.CDense) {
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, v.RawCMatrix(), a.RawCMatrix(), 0, tmp.RawCMatrix())
	cblas128.Gemm(blas.NoTrans, blas.ConjTrans, 1, tmp.RawCMatrix(), v.RawCMatrix(), 0, dst.RawCMatrix())
}
