package cpu

import (
	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// batchedKernel advances all N×Lp states of a timestep with whole-row
// vector operations over shifted copies of the previous row.
type batchedKernel[F tensor.Float] struct {
	variant engine.Variant
	sr      semiring.Semiring[F]
}

func (k *batchedKernel[F]) Variant() engine.Variant { return k.variant }

func (k *batchedKernel[F]) FwdBwd(p *engine.Problem, alpha, beta *tensor.RawTensor) (*tensor.RawTensor, error) {
	w, err := newWorkspace[F](p, alpha, beta)
	if err != nil {
		return nil, err
	}
	sr := k.sr
	size := w.N * w.Lp
	step := make([]F, size)
	skip := make([]F, size)
	prod := make([]F, size)

	for t := 1; t <= w.T; t++ {
		prev := w.alpha[(t-1)*size : t*size]
		cur := w.alpha[t*size : (t+1)*size]
		shiftRight(step, prev, w.Lp, 1, sr.Zero())
		shiftRight(skip, prev, w.Lp, 2, sr.Zero())
		where(skip, w.mask, sr.Zero())
		semiring.Sum3Into(sr, cur, prev, step, skip)
		semiring.MulInto(sr, cur, w.scores[(t-1)*size:t*size], cur)
	}

	for t := w.T; t >= 1; t-- {
		semiring.MulInto(sr, prod, w.beta[t*size:(t+1)*size], w.scores[(t-1)*size:t*size])
		shiftLeft(step, prod, w.Lp, 1, sr.Zero())
		shiftLeft(skip, prod, w.Lp, 2, sr.Zero())
		where(skip, w.bwdMask, sr.Zero())
		semiring.Sum3Into(sr, prod, prod, step, skip)
		for n := 0; n < w.N; n++ {
			if int64(t) <= w.lengths[n] {
				copy(w.beta[w.row(t-1, n):w.row(t-1, n)+w.Lp], prod[n*w.Lp:(n+1)*w.Lp])
			}
		}
	}

	return w.alphaT(p.DType()), nil
}

// shiftRight writes src shifted k positions towards higher state indices
// within every row of width lp, filling the vacated slots with fill.
func shiftRight[F tensor.Float](dst, src []F, lp, k int, fill F) {
	for off := 0; off < len(src); off += lp {
		d, s := dst[off:off+lp], src[off:off+lp]
		for i := 0; i < k && i < lp; i++ {
			d[i] = fill
		}
		if k < lp {
			copy(d[k:], s[:lp-k])
		}
	}
}

// shiftLeft is shiftRight towards lower indices.
func shiftLeft[F tensor.Float](dst, src []F, lp, k int, fill F) {
	for off := 0; off < len(src); off += lp {
		d, s := dst[off:off+lp], src[off:off+lp]
		if k < lp {
			copy(d[:lp-k], s[k:])
		}
		for i := max(lp-k, 0); i < lp; i++ {
			d[i] = fill
		}
	}
}

// where sets x[i] = fill wherever mask[i] is true.
func where[F tensor.Float](x []F, mask []bool, fill F) {
	for i, m := range mask {
		if m {
			x[i] = fill
		}
	}
}
