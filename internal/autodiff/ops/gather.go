package ops

import (
	"github.com/born-ml/ctc/internal/lattice"
	"github.com/born-ml/ctc/internal/tensor"
)

// GatherStatesOp selects lattice-state scores from class scores.
//
// Forward:
//
//	output[t][n][s] = scores[t][n][states[n][s]]
//
// Backward:
//
//	Scatter-add gradOutput back onto classes. All blank states of an
//	element, and every repeat of a label, accumulate into the same class.
type GatherStatesOp struct {
	input      *tensor.RawTensor // [T, N, C]
	states     *tensor.RawTensor // [N, Lp] int64
	output     *tensor.RawTensor // [T, N, Lp]
	numClasses int
}

// NewGatherStatesOp records a gather already computed by lattice.Prepare.
func NewGatherStatesOp(input *tensor.RawTensor, in *lattice.Inputs) *GatherStatesOp {
	return &GatherStatesOp{
		input:      input,
		states:     in.States,
		output:     in.StateScores,
		numClasses: input.Shape()[2],
	}
}

// Inputs returns the input tensor.
// The state index tensor doesn't need a gradient.
func (op *GatherStatesOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the gathered state scores.
func (op *GatherStatesOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward scatters the state gradient onto classes.
func (op *GatherStatesOp) Backward(gradOutput *tensor.RawTensor) []*tensor.RawTensor {
	grad, err := lattice.ScatterStates(gradOutput, op.states, op.numClasses)
	if err != nil {
		panic(err)
	}
	return []*tensor.RawTensor{grad}
}
