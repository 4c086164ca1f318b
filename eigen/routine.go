package eigen

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/qsimlab/goame/ham"
)

// Routine computes the truncated eigendecomposition of the instantaneous
// Hamiltonian at reduced time s. The concrete path (dense or warm-started
// Lanczos) is fixed once at construction.
type Routine func(s float64) (*Decomposition, error)

// New builds a Routine for h truncated to lvl levels and returns the level
// actually used. Recoverable configuration problems are repaired in place
// with a diagnostic: a 2-level Hamiltonian is too small for the iterative
// path and falls back to dense, and a truncation level equal to the full
// dimension is reduced by one since a Krylov subspace cannot supply that
// many vectors. set only applies to the iterative path and may be nil.
func New(h ham.Hamiltonian, lvl int, set *LanczosSettings) (Routine, int, error) {
	dim := h.Dim()
	if lvl < 1 || lvl > dim {
		return nil, 0, fmt.Errorf("eigen: truncation level %d outside [1, %d]", lvl, dim)
	}
	if !h.IsSparse() {
		return denseRoutine(h, lvl), lvl, nil
	}
	if dim == 2 {
		log.Warning("2-level Hamiltonian is ill-posed for the iterative solver, falling back to dense decomposition")
		return denseRoutine(h, lvl), lvl, nil
	}
	asm, ok := h.(ham.Assembler)
	if !ok {
		// Sparse trait without a sparse assembly; the dense path is the
		// only option left.
		log.Warning("sparse Hamiltonian provides no CSR assembly, using dense decomposition")
		return denseRoutine(h, lvl), lvl, nil
	}
	if lvl == dim {
		log.Warningf("truncation level %d equals the dimension, reducing to %d for the iterative solver", lvl, lvl-1)
		lvl--
	}
	lan, err := NewLanczos(dim, lvl, set)
	if err != nil {
		return nil, 0, err
	}
	return func(s float64) (*Decomposition, error) {
		return lan.Lowest(asm.At(s))
	}, lvl, nil
}

func denseRoutine(h ham.Hamiltonian, lvl int) Routine {
	buf := mat.NewCDense(h.Dim(), h.Dim(), nil)
	return func(s float64) (*Decomposition, error) {
		h.EvalTo(buf, s)
		return DenseLowest(buf, lvl)
	}
}
