// Package ops defines the differentiable operations of the CTC loss graph.
//
// Each operation implements the Operation interface, which provides:
//   - Forward pass: computed by the constructor, which stores whatever the
//     backward pass needs
//   - Backward pass: computes gradients for inputs given the output gradient
//
// Supported operations:
//   - LogSoftmaxOp, SoftmaxOp: normalization over the class axis
//   - ScaleOp: temperature scaling (d(βx)/dx = β)
//   - GatherStatesOp: class scores to lattice-state scores (backward scatter-adds)
//   - LogzOp: forward-backward log-partition in the Log, Max or Prob semiring
//   - LossOp: per-element normalization by target length, then reduction
package ops

import "github.com/born-ml/ctc/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor;
	// a nil entry means the input is not differentiable.
	//
	// Example for LogzOp:
	//   inputs: [stateScores, repeatMask, finalStates, inputLengths]
	//   outputGrad: dL/dlogz, [N]
	//   returns: [dL/dstateScores, nil, nil, nil]
	Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
