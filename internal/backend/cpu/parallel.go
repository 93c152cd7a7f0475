package cpu

import (
	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/parallel"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

const (
	dirForward  = 0
	dirBackward = 1
)

// parallelKernel launches an N×2 grid of jobs. Job (n, dir) owns the alpha
// (dir 0) or beta (dir 1) table of element n and is itself run by a group of
// workers, each owning a contiguous slice of the state axis. Workers share a
// pair of padded scratch rows and cross a barrier after every timestep.
type parallelKernel[F tensor.Float] struct {
	variant engine.Variant
	sr      semiring.Semiring[F]
	cfg     Config
}

func (k *parallelKernel[F]) Variant() engine.Variant { return k.variant }

func (k *parallelKernel[F]) FwdBwd(p *engine.Problem, alpha, beta *tensor.RawTensor) (*tensor.RawTensor, error) {
	w, err := newWorkspace[F](p, alpha, beta)
	if err != nil {
		return nil, err
	}
	workers := max((w.Lp+k.cfg.StatesPerWorker-1)/k.cfg.StatesPerWorker, 1)

	parallel.ForGrid(w.N, 2, func(n, dir int) {
		// Two rows of Lp+2: the current and previous timestep.
		scratch := make([]F, 2*(w.Lp+2))
		if dir == dirForward {
			parallel.Group(workers, func(id int, b *parallel.Barrier) {
				k.forward(w, n, scratch, workers, id, b)
			})
		} else {
			parallel.Group(workers, func(id int, b *parallel.Barrier) {
				k.backward(w, n, scratch, workers, id, b)
			})
		}
	}, k.cfg.Parallel)

	return w.alphaT(p.DType()), nil
}

// forward keeps alpha rows at offset 2 of each scratch row so that the
// s-1 and s-2 predecessors of state 0 read the zero padding.
func (k *parallelKernel[F]) forward(w *workspace[F], n int, scratch []F, workers, id int, b *parallel.Barrier) {
	sr := k.sr
	width := w.Lp + 2
	lo, hi := parallel.Span(w.Lp, workers, id)
	mask := w.mask[n*w.Lp : (n+1)*w.Lp]

	if id == 0 {
		for i := range scratch {
			scratch[i] = sr.Zero()
		}
		copy(scratch[2:width], w.alpha[w.row(0, n):w.row(0, n)+w.Lp])
	}
	b.Wait()

	for t := 1; t <= w.T; t++ {
		prev := scratch[((t-1)%2)*width : ((t-1)%2+1)*width]
		cur := scratch[(t%2)*width : (t%2+1)*width]
		score := w.scores[w.row(t-1, n):]
		out := w.alpha[w.row(t, n):]
		for s := lo; s < hi; s++ {
			skip := prev[s]
			if mask[s] {
				skip = sr.Zero()
			}
			v := sr.Mul(score[s], sr.Sum3(prev[s+2], prev[s+1], skip))
			cur[s+2] = v
			out[s] = v
		}
		b.Wait()
	}
}

// backward keeps beta rows at offset 0 with two trailing zero slots so the
// s+1 and s+2 successors of the last states read the padding.
func (k *parallelKernel[F]) backward(w *workspace[F], n int, scratch []F, workers, id int, b *parallel.Barrier) {
	sr := k.sr
	width := w.Lp + 2
	lo, hi := parallel.Span(w.Lp, workers, id)
	mask := w.bwdMask[n*w.Lp : (n+1)*w.Lp]
	length := int(w.lengths[n])

	if id == 0 {
		for i := range scratch {
			scratch[i] = sr.Zero()
		}
		start := (length % 2) * width
		copy(scratch[start:start+w.Lp], w.beta[w.row(length, n):w.row(length, n)+w.Lp])
	}
	b.Wait()

	for t := length; t >= 1; t-- {
		next := scratch[(t%2)*width : (t%2+1)*width]
		cur := scratch[((t-1)%2)*width : ((t-1)%2+1)*width]
		score := w.scores[w.row(t-1, n):]
		out := w.beta[w.row(t-1, n):]
		for s := lo; s < hi; s++ {
			stay := sr.Mul(next[s], score[s])
			step, skip := sr.Zero(), sr.Zero()
			if s+1 < w.Lp {
				step = sr.Mul(next[s+1], score[s+1])
			}
			if s+2 < w.Lp && !mask[s] {
				skip = sr.Mul(next[s+2], score[s+2])
			}
			v := sr.Sum3(stay, step, skip)
			cur[s] = v
			out[s] = v
		}
		b.Wait()
	}
}
