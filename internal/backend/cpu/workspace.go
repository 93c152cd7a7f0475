package cpu

import (
	"fmt"

	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/tensor"
)

// workspace is a typed view over one engine problem.
type workspace[F tensor.Float] struct {
	T, N, Lp int

	scores  []F // [T, N, Lp]
	alpha   []F // [T+1, N, Lp]
	beta    []F // [T+1, N, Lp]
	mask    []bool
	bwdMask []bool
	lengths []int64
}

func newWorkspace[F tensor.Float](p *engine.Problem, alpha, beta *tensor.RawTensor) (*workspace[F], error) {
	T, n, lp := p.Dims()
	want := tensor.Shape{T + 1, n, lp}
	if alpha != nil && !alpha.Shape().Equal(want) {
		return nil, fmt.Errorf("cpu: alpha shape %v, want %v", alpha.Shape(), want)
	}
	if beta != nil && !beta.Shape().Equal(want) {
		return nil, fmt.Errorf("cpu: beta shape %v, want %v", beta.Shape(), want)
	}

	w := &workspace[F]{
		T: T, N: n, Lp: lp,
		scores:  tensor.View[F](p.StateScores),
		mask:    p.RepeatMask.AsBool(),
		bwdMask: p.BackwardMask.AsBool(),
		lengths: p.InputLengths.AsInt64(),
	}
	if alpha != nil {
		w.alpha = tensor.View[F](alpha)
	}
	if beta != nil {
		w.beta = tensor.View[F](beta)
	}
	return w, nil
}

// row returns the offset of [t][n][0] in a [*, N, Lp] table.
func (w *workspace[F]) row(t, n int) int {
	return (t*w.N + n) * w.Lp
}

// alphaT copies alpha[input_length[n]][n] for every element into [N, Lp].
func (w *workspace[F]) alphaT(dtype tensor.DataType) *tensor.RawTensor {
	out := tensor.MustRaw(tensor.Shape{w.N, w.Lp}, dtype, tensor.CPU)
	dst := tensor.View[F](out)
	for n := 0; n < w.N; n++ {
		src := w.row(int(w.lengths[n]), n)
		copy(dst[n*w.Lp:(n+1)*w.Lp], w.alpha[src:src+w.Lp])
	}
	return out
}
