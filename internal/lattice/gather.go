package lattice

import (
	"fmt"

	"github.com/born-ml/ctc/internal/tensor"
)

// GatherStates selects, for every timestep, the score of each lattice state's
// class:
//
//	out[t][n][s] = scores[t][n][states[n][s]]
//
// scores is [T, N, C], states is [N, Lp]; the result is [T, N, Lp] with the
// dtype of scores. A class index outside [0, C) is an ErrLabelOutOfRange.
func GatherStates(scores, states *tensor.RawTensor) (*tensor.RawTensor, error) {
	T, n, c := scores.Shape()[0], scores.Shape()[1], scores.Shape()[2]
	if len(states.Shape()) != 2 || states.Shape()[0] != n {
		return nil, fmt.Errorf("gather states: states %v do not match scores %v: %w", states.Shape(), scores.Shape(), ErrShapeMismatch)
	}
	lp := states.Shape()[1]

	idx := states.AsInt64()
	for i, v := range idx {
		if v < 0 || v >= int64(c) {
			return nil, fmt.Errorf("gather states: element %d state %d has class %d, want [0, %d): %w", i/lp, i%lp, v, c, ErrLabelOutOfRange)
		}
	}

	out := tensor.MustRaw(tensor.Shape{T, n, lp}, scores.DType(), tensor.CPU)
	switch scores.DType() {
	case tensor.Float32:
		gather(out.AsFloat32(), scores.AsFloat32(), idx, T, n, c, lp)
	case tensor.Float64:
		gather(out.AsFloat64(), scores.AsFloat64(), idx, T, n, c, lp)
	default:
		return nil, fmt.Errorf("gather states: unsupported dtype %s: %w", scores.DType(), ErrShapeMismatch)
	}
	return out, nil
}

func gather[F tensor.Float](dst, src []F, idx []int64, T, n, c, lp int) {
	for t := 0; t < T; t++ {
		for b := 0; b < n; b++ {
			in := src[(t*n+b)*c : (t*n+b+1)*c]
			out := dst[(t*n+b)*lp : (t*n+b+1)*lp]
			for s, k := range idx[b*lp : (b+1)*lp] {
				out[s] = in[k]
			}
		}
	}
}

// ScatterStates is the adjoint of GatherStates: it scatter-adds a per-state
// gradient [T, N, Lp] back onto classes, producing [T, N, numClasses].
// Every blank state of an element accumulates into class Blank.
func ScatterStates(grad, states *tensor.RawTensor, numClasses int) (*tensor.RawTensor, error) {
	if len(grad.Shape()) != 3 || !states.Shape().Equal(grad.Shape()[1:]) {
		return nil, fmt.Errorf("scatter states: grad %v does not match states %v: %w", grad.Shape(), states.Shape(), ErrShapeMismatch)
	}
	T, n, lp := grad.Shape()[0], grad.Shape()[1], grad.Shape()[2]

	out, err := tensor.NewRaw(tensor.Shape{T, n, numClasses}, grad.DType(), tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("scatter states: %w", err)
	}
	idx := states.AsInt64()
	for _, v := range idx {
		if v < 0 || v >= int64(numClasses) {
			return nil, fmt.Errorf("scatter states: class %d outside [0, %d): %w", v, numClasses, ErrLabelOutOfRange)
		}
	}

	switch grad.DType() {
	case tensor.Float32:
		scatter(out.AsFloat32(), grad.AsFloat32(), idx, T, n, numClasses, lp)
	case tensor.Float64:
		scatter(out.AsFloat64(), grad.AsFloat64(), idx, T, n, numClasses, lp)
	default:
		return nil, fmt.Errorf("scatter states: unsupported dtype %s: %w", grad.DType(), ErrShapeMismatch)
	}
	return out, nil
}

func scatter[F tensor.Float](dst, src []F, idx []int64, T, n, c, lp int) {
	for t := 0; t < T; t++ {
		for b := 0; b < n; b++ {
			in := src[(t*n+b)*lp : (t*n+b+1)*lp]
			out := dst[(t*n+b)*c : (t*n+b+1)*c]
			for s, k := range idx[b*lp : (b+1)*lp] {
				out[k] += in[s]
			}
		}
	}
}
