package cpu

import (
	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/parallel"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// forwardKernel runs the alpha recurrence with two rolling rows per
// element and records the row at the element's input length. One is
// registered under every variant that has a forward-backward kernel.
type forwardKernel[F tensor.Float] struct {
	variant engine.Variant
	sr      semiring.Semiring[F]
	cfg     parallel.Config
}

func (k *forwardKernel[F]) Variant() engine.Variant {
	return k.variant
}

func (k *forwardKernel[F]) Forward(p *engine.Problem) (*tensor.RawTensor, error) {
	w, err := newWorkspace[F](p, nil, nil)
	if err != nil {
		return nil, err
	}
	sr := k.sr
	out := tensor.MustRaw(tensor.Shape{w.N, w.Lp}, p.DType(), tensor.CPU)
	dst := tensor.View[F](out)

	parallel.For(w.N, func(n int) {
		length := int(w.lengths[n])
		mask := w.mask[n*w.Lp : (n+1)*w.Lp]
		prev := make([]F, w.Lp)
		cur := make([]F, w.Lp)
		for s := range prev {
			prev[s] = sr.Zero()
		}
		prev[0] = sr.One()

		for t := 1; t <= length; t++ {
			score := w.scores[w.row(t-1, n):]
			for s := 0; s < w.Lp; s++ {
				step, skip := sr.Zero(), sr.Zero()
				if s >= 1 {
					step = prev[s-1]
				}
				if s >= 2 && !mask[s] {
					skip = prev[s-2]
				}
				cur[s] = sr.Mul(score[s], sr.Sum3(prev[s], step, skip))
			}
			prev, cur = cur, prev
		}
		copy(dst[n*w.Lp:(n+1)*w.Lp], prev)
	}, k.cfg)

	return out, nil
}
