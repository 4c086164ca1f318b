package trajectory

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/qsimlab/goame/ame"
	"github.com/qsimlab/goame/eigen"
	"github.com/qsimlab/goame/linalg"
)

// Tag identifies a sampled jump event. Ordinary events carry the coupling
// channel and the ordered level pair of the transition operator
// |Dest⟩⟨Origin|; Dest == Origin == 0 is the sentinel for the aggregated
// dephasing event of the channel, which has no distinguishable level pair.
type Tag struct {
	Channel int
	Dest    int
	Origin  int
}

// IsDephasing reports whether the tag is the aggregated dephasing event.
func (t Tag) IsDephasing() bool { return t.Dest == t.Origin }

// buildCandidates fills the tag and weight scratch with the exhaustive
// candidate set for state u: every ordered pair of distinct levels per
// channel, weighted by the physical transition rate times the origin-level
// population, plus one dephasing sentinel per channel weighted by the
// channel's total diagonal-weighted dephasing rate.
func (o *Operator) buildCandidates(u []complex128, p ame.Params, t float64) (*eigen.Decomposition, float64, error) {
	if len(u) != o.dim {
		return nil, 0, fmt.Errorf("trajectory: state length %d, want %d", len(u), o.dim)
	}
	s, sc := p.Reduce(t)
	dec, err := o.eigs(s)
	if err != nil {
		return nil, 0, fmt.Errorf("trajectory: diagonalization at s=%g: %w", s, err)
	}
	w := dec.Values
	v := dec.Vectors
	for b := 0; b < o.lvl; b++ {
		o.phi[b] = overlap2(v, b, u)
	}
	g0 := sc * o.b.Gamma(0)

	o.tags = o.tags[:0]
	o.weights = o.weights[:0]
	for i, op := range o.b.Coupling(s) {
		linalg.Rotate(o.abs[i], o.rtmp, v, op)
		ab := o.abs[i]
		deph := 0.0
		for b := 0; b < o.lvl; b++ {
			for a := 0; a < o.lvl; a++ {
				if a == b {
					continue
				}
				g := sc * o.b.Gamma(w[b]-w[a])
				o.tags = append(o.tags, Tag{Channel: i, Dest: a, Origin: b})
				o.weights = append(o.weights, g*linalg.Abs2(ab.At(a, b))*o.phi[b])
			}
			deph += linalg.Abs2(ab.At(b, b)) * o.phi[b]
		}
		o.tags = append(o.tags, Tag{Channel: i})
		o.weights = append(o.weights, g0*deph)
	}
	return dec, sc, nil
}

// SampleJump draws exactly one jump event for the (possibly unnormalized)
// trajectory state u at time t and returns its tag together with the jump
// operator to apply.
func (o *Operator) SampleJump(u []complex128, p ame.Params, t float64) (Tag, *mat.CDense, error) {
	dec, sc, err := o.buildCandidates(u, p, t)
	if err != nil {
		return Tag{}, nil, err
	}
	sampler := sampleuv.NewWeighted(o.weights, o.src)
	k, ok := sampler.Take()
	if !ok {
		return Tag{}, nil, errors.New("trajectory: all jump weights vanish")
	}
	tag := o.tags[k]
	return tag, o.jumpOperator(tag, dec, sc), nil
}

// TotalRate returns the sum of all candidate weights for state u, which is
// the instantaneous total dissipation rate implied by the trace-decreasing
// part of the effective generator.
func (o *Operator) TotalRate(u []complex128, p ame.Params, t float64) (float64, error) {
	if _, _, err := o.buildCandidates(u, p, t); err != nil {
		return 0, err
	}
	return floats.Sum(o.weights), nil
}

// jumpOperator materializes the operator for a sampled tag: the rank-1
// transition √γ_ab·A_ab·|a⟩⟨b| for an ordinary tag, or the aggregate
// dephasing projector Σ_k √γ(0)·A_kk·|k⟩⟨k| for the sentinel.
func (o *Operator) jumpOperator(tag Tag, dec *eigen.Decomposition, sc float64) *mat.CDense {
	res := mat.NewCDense(o.dim, o.dim, nil)
	ab := o.abs[tag.Channel]
	v := dec.Vectors
	if tag.IsDephasing() {
		coeff := sqrt(sc * o.b.Gamma(0))
		for k := 0; k < o.lvl; k++ {
			addOuter(res, coeff*ab.At(k, k), v, k, k)
		}
		return res
	}
	a, b := tag.Dest, tag.Origin
	g := sc * o.b.Gamma(dec.Values[b]-dec.Values[a])
	addOuter(res, sqrt(g)*ab.At(a, b), v, a, b)
	return res
}

// addOuter accumulates c·|col a⟩⟨col b| of v into res.
func addOuter(res *mat.CDense, c complex128, v *mat.CDense, a, b int) {
	dim, _ := v.Dims()
	for i := 0; i < dim; i++ {
		va := c * v.At(i, a)
		if va == 0 {
			continue
		}
		for j := 0; j < dim; j++ {
			x := v.At(j, b)
			res.Set(i, j, res.At(i, j)+va*complex(real(x), -imag(x)))
		}
	}
}
