// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff exposes the gradient tape and differentiable CTC operations.
//
// This package implements reverse-mode automatic differentiation
// (backpropagation) using a gradient tape. Use it to place the CTC
// log-partition inside a larger graph, e.g. when the state scores come from
// something other than a log-softmax over logits.
//
// Example:
//
//	import (
//	    "github.com/born-ml/ctc/autodiff"
//	    "github.com/born-ml/ctc/backend/cpu"
//	    "github.com/born-ml/ctc/ctc"
//	)
//
//	func main() {
//	    tape := autodiff.NewGradientTape()
//	    tape.StartRecording()
//
//	    scores := autodiff.Apply(tape, autodiff.LogSoftmax(logits))
//	    in, _ := ctc.Prepare(scores, targets, inputLengths, targetLengths)
//	    autodiff.Apply(tape, autodiff.GatherStates(scores, in))
//	    logz, _ := ctc.LogPartition(ctc.DefaultConfig(), in)
//	    autodiff.Apply(tape, logz)
//
//	    // Gradients of sum(logZ)
//	    grads := autodiff.Backward(tape, logz.Output())
//	    dLogits := grads[logits]
//	}
package autodiff

import (
	"github.com/born-ml/ctc/internal/autodiff"
	"github.com/born-ml/ctc/internal/autodiff/ops"
	"github.com/born-ml/ctc/internal/lattice"
	"github.com/born-ml/ctc/internal/tensor"
)

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// Operation is a differentiable operation recorded on a tape.
type Operation = ops.Operation

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// Apply records op on the tape and returns its output.
func Apply(tape *GradientTape, op Operation) *tensor.RawTensor {
	return autodiff.Apply(tape, op)
}

// Backward computes gradients via backpropagation, seeding output with ones.
func Backward(tape *GradientTape, output *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(tape, output)
}

// LogSoftmax normalises the last axis in log space.
func LogSoftmax(x *tensor.RawTensor) Operation {
	return ops.LogSoftmax(x)
}

// Softmax normalises the last axis.
func Softmax(x *tensor.RawTensor) Operation {
	return ops.Softmax(x)
}

// Scale multiplies x by a constant.
func Scale(x *tensor.RawTensor, factor float64) Operation {
	return ops.Scale(x, factor)
}

// GatherStates records the class-to-state gather done by ctc.Prepare, so
// state gradients flow back onto classes.
func GatherStates(input *tensor.RawTensor, in *lattice.Inputs) Operation {
	return ops.NewGatherStatesOp(input, in)
}
