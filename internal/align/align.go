// Package align extracts frame-level alignments from the CTC lattice.
//
// Viterbi returns the single best path as a one-hot [T, N, Lp] tensor, Soft
// returns the posterior state occupancy. Both are gradients of the
// log-partition with respect to detached state scores, in the Max and Log
// semirings respectively, so they come out of the same kernels as the loss.
package align

import (
	"fmt"

	"github.com/born-ml/ctc/internal/autodiff"
	"github.com/born-ml/ctc/internal/autodiff/ops"
	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/lattice"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// Viterbi computes hard best-path alignments.
//
// Shapes follow lattice.Prepare. The result is [T, N, Lp] with exactly one
// 1 per valid (t, n) and zeros for t >= input_length[n].
func Viterbi(b engine.Backend, strategy engine.Strategy, logits, targets, inputLengths, targetLengths *tensor.RawTensor) (*tensor.RawTensor, error) {
	g, err := occupancy(b, strategy, semiring.Max, logits, targets, inputLengths, targetLengths)
	if err != nil {
		return nil, fmt.Errorf("viterbi alignments: %w", err)
	}
	return g, nil
}

// Soft computes posterior state occupancy at inverse temperature beta.
//
// beta = 1 gives the true posterior; larger values sharpen it towards the
// Viterbi path and smaller ones flatten it. Every valid (t, n) row sums to 1.
func Soft(b engine.Backend, strategy engine.Strategy, logits, targets, inputLengths, targetLengths *tensor.RawTensor, beta float64) (*tensor.RawTensor, error) {
	scaled := ops.Scale(logits, beta).Output()
	g, err := occupancy(b, strategy, semiring.Log, scaled, targets, inputLengths, targetLengths)
	if err != nil {
		return nil, fmt.Errorf("soft alignments: %w", err)
	}
	return g, nil
}

// States returns the lattice targets interleave into, for reading the state
// axis of an alignment.
func States(targets *tensor.RawTensor) (*tensor.RawTensor, error) {
	return lattice.InterleaveBlanks(targets, lattice.Blank)
}

func occupancy(b engine.Backend, strategy engine.Strategy, kind semiring.Kind, logits, targets, inputLengths, targetLengths *tensor.RawTensor) (*tensor.RawTensor, error) {
	in, err := lattice.Prepare(ops.LogSoftmax(logits).Output(), targets, inputLengths, targetLengths)
	if err != nil {
		return nil, err
	}
	k, err := b.Kernel(engine.Variant{Strategy: strategy, DType: logits.DType(), Semiring: kind})
	if err != nil {
		return nil, err
	}
	op, err := ops.NewLogz(kind, k, in)
	if err != nil {
		return nil, err
	}
	return op.Backward(autodiff.Ones(op.Output()))[0], nil
}
