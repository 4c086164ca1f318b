package linalg

import (
	"errors"
	"fmt"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Triplet is a single explicit entry of a sparse matrix.
type Triplet struct {
	Row, Col int
	V        complex128
}

// CSR is a complex matrix in compressed sparse row form. It implements
// both mat.CMatrix and Applier.
type CSR struct {
	rows, cols int
	indptr     []int
	idx        []int
	data       []complex128
}

// NewCSR builds a CSR matrix from triplets. Duplicate positions are summed.
func NewCSR(rows, cols int, ts []Triplet) (*CSR, error) {
	if rows < 1 || cols < 1 {
		return nil, errors.New("linalg: matrix dimensions should be > 0")
	}
	sorted := make([]Triplet, len(ts))
	copy(sorted, ts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})
	merged := sorted[:0]
	for _, t := range sorted {
		if t.Row < 0 || t.Row >= rows || t.Col < 0 || t.Col >= cols {
			return nil, fmt.Errorf("linalg: triplet (%d,%d) outside %d×%d matrix", t.Row, t.Col, rows, cols)
		}
		if n := len(merged); n > 0 && merged[n-1].Row == t.Row && merged[n-1].Col == t.Col {
			merged[n-1].V += t.V
			continue
		}
		merged = append(merged, t)
	}
	m := &CSR{
		rows:   rows,
		cols:   cols,
		indptr: make([]int, rows+1),
		idx:    make([]int, len(merged)),
		data:   make([]complex128, len(merged)),
	}
	for k, t := range merged {
		m.idx[k] = t.Col
		m.data[k] = t.V
		m.indptr[t.Row+1]++
	}
	for i := 0; i < rows; i++ {
		m.indptr[i+1] += m.indptr[i]
	}
	return m, nil
}

// CSRFromDense extracts entries of a with magnitude above tol.
func CSRFromDense(a mat.CMatrix, tol float64) *CSR {
	rows, cols := a.Dims()
	var ts []Triplet
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := a.At(i, j); cmplx.Abs(v) > tol {
				ts = append(ts, Triplet{i, j, v})
			}
		}
	}
	m, _ := NewCSR(rows, cols, ts)
	return m
}

// Dims returns the matrix dimensions.
func (m *CSR) Dims() (r, c int) { return m.rows, m.cols }

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.data) }

// At returns the element at (i, j).
func (m *CSR) At(i, j int) complex128 {
	lo, hi := m.indptr[i], m.indptr[i+1]
	k := lo + sort.SearchInts(m.idx[lo:hi], j)
	if k < hi && m.idx[k] == j {
		return m.data[k]
	}
	return 0
}

// H returns the conjugate transpose as a new CSR matrix.
func (m *CSR) H() mat.CMatrix {
	ts := make([]Triplet, 0, len(m.data))
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			ts = append(ts, Triplet{m.idx[k], i, cmplx.Conj(m.data[k])})
		}
	}
	h, _ := NewCSR(m.cols, m.rows, ts)
	return h
}

// T returns the plain transpose as a new CSR matrix.
func (m *CSR) T() mat.CMatrix {
	ts := make([]Triplet, 0, len(m.data))
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			ts = append(ts, Triplet{m.idx[k], i, m.data[k]})
		}
	}
	t, _ := NewCSR(m.cols, m.rows, ts)
	return t
}

// DenseTo scatters the matrix into dst, overwriting it.
func (m *CSR) DenseTo(dst *mat.CDense) {
	dst.Zero()
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			dst.Set(i, m.idx[k], m.data[k])
		}
	}
}

// MulVecTo computes dst = M·x.
func (m *CSR) MulVecTo(dst, x []complex128) {
	for i := 0; i < m.rows; i++ {
		var s complex128
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			s += m.data[k] * x[m.idx[k]]
		}
		dst[i] = s
	}
}

// Clone returns a deep copy.
func (m *CSR) Clone() *CSR {
	n := &CSR{
		rows:   m.rows,
		cols:   m.cols,
		indptr: append([]int(nil), m.indptr...),
		idx:    append([]int(nil), m.idx...),
		data:   append([]complex128(nil), m.data...),
	}
	return n
}

// AlignPatterns re-expresses the given matrices on the union of their
// sparsity patterns, so linear combinations reduce to combining the data
// slices entry by entry. The inputs must share dimensions.
func AlignPatterns(ms []*CSR) ([]*CSR, error) {
	if len(ms) == 0 {
		return nil, errors.New("linalg: no matrices to align")
	}
	rows, cols := ms[0].Dims()
	for _, m := range ms[1:] {
		r, c := m.Dims()
		if r != rows || c != cols {
			return nil, fmt.Errorf("linalg: dimension mismatch %d×%d vs %d×%d", r, c, rows, cols)
		}
	}
	seen := make(map[[2]int]bool)
	var union []Triplet
	for _, m := range ms {
		for i := 0; i < rows; i++ {
			for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
				p := [2]int{i, m.idx[k]}
				if !seen[p] {
					seen[p] = true
					union = append(union, Triplet{p[0], p[1], 0})
				}
			}
		}
	}
	out := make([]*CSR, len(ms))
	for i, m := range ms {
		a, err := NewCSR(rows, cols, union)
		if err != nil {
			return nil, err
		}
		for r := 0; r < rows; r++ {
			for k := m.indptr[r]; k < m.indptr[r+1]; k++ {
				j := a.indptr[r] + sort.SearchInts(a.idx[a.indptr[r]:a.indptr[r+1]], m.idx[k])
				a.data[j] = m.data[k]
			}
		}
		out[i] = a
	}
	return out, nil
}

// Combine computes dst = Σ coeffs[i]·terms[i]. All matrices, dst included,
// must share the exact sparsity pattern (see AlignPatterns).
func Combine(dst *CSR, coeffs []complex128, terms []*CSR) error {
	if len(coeffs) != len(terms) {
		return errors.New("linalg: coefficient/term count mismatch")
	}
	for k := range dst.data {
		dst.data[k] = 0
	}
	for i, t := range terms {
		if len(t.data) != len(dst.data) {
			return errors.New("linalg: sparsity patterns not aligned")
		}
		c := coeffs[i]
		for k, v := range t.data {
			dst.data[k] += c * v
		}
	}
	return nil
}
