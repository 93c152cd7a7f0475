// Package autodiff implements reverse-mode differentiation of the CTC loss graph.
//
// Architecture:
//   - Operation interface: each op (LogSoftmax, GatherStates, Logz, Loss)
//     computes its forward result eagerly and implements the backward pass
//   - GradientTape: records operations during the forward pass
//   - Reverse-mode AD: walks the tape backwards applying the chain rule
//
// Usage:
//
//	tape := autodiff.NewGradientTape()
//	tape.StartRecording()
//	lsm := autodiff.Apply(tape, ops.LogSoftmax(logits))
//	...
//	grads := autodiff.Backward(tape, loss)
//	dLogits := grads[logits]
package autodiff

import (
	"github.com/born-ml/ctc/internal/autodiff/ops"
	"github.com/born-ml/ctc/internal/tensor"
)

// Apply records op on the tape and returns its output.
func Apply(tape *GradientTape, op ops.Operation) *tensor.RawTensor {
	tape.Record(op)
	return op.Output()
}
