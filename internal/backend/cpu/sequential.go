package cpu

import (
	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/parallel"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// sequentialKernel evaluates the recurrence one state at a time.
// Batch elements are independent and may run on the worker pool.
type sequentialKernel[F tensor.Float] struct {
	variant engine.Variant
	sr      semiring.Semiring[F]
	cfg     parallel.Config
}

func (k *sequentialKernel[F]) Variant() engine.Variant { return k.variant }

func (k *sequentialKernel[F]) FwdBwd(p *engine.Problem, alpha, beta *tensor.RawTensor) (*tensor.RawTensor, error) {
	w, err := newWorkspace[F](p, alpha, beta)
	if err != nil {
		return nil, err
	}
	parallel.For(w.N, func(n int) {
		forwardScalar(k.sr, w, n)
		backwardScalar(k.sr, w, n)
	}, k.cfg)
	return w.alphaT(p.DType()), nil
}

func forwardScalar[F tensor.Float](sr semiring.Semiring[F], w *workspace[F], n int) {
	zero := sr.Zero()
	mask := w.mask[n*w.Lp : (n+1)*w.Lp]
	for t := 1; t <= w.T; t++ {
		prev := w.alpha[w.row(t-1, n):]
		cur := w.alpha[w.row(t, n):]
		score := w.scores[w.row(t-1, n):]
		for s := 0; s < w.Lp; s++ {
			stay, step, skip := prev[s], zero, zero
			if s >= 1 {
				step = prev[s-1]
			}
			if s >= 2 && !mask[s] {
				skip = prev[s-2]
			}
			cur[s] = sr.Mul(score[s], sr.Sum3(stay, step, skip))
		}
	}
}

func backwardScalar[F tensor.Float](sr semiring.Semiring[F], w *workspace[F], n int) {
	zero := sr.Zero()
	mask := w.bwdMask[n*w.Lp : (n+1)*w.Lp]
	for t := int(w.lengths[n]); t >= 1; t-- {
		next := w.beta[w.row(t, n):]
		cur := w.beta[w.row(t-1, n):]
		score := w.scores[w.row(t-1, n):]
		for s := 0; s < w.Lp; s++ {
			stay, step, skip := sr.Mul(next[s], score[s]), zero, zero
			if s+1 < w.Lp {
				step = sr.Mul(next[s+1], score[s+1])
			}
			if s+2 < w.Lp && !mask[s] {
				skip = sr.Mul(next[s+2], score[s+2])
			}
			cur[s] = sr.Sum3(stay, step, skip)
		}
	}
}
