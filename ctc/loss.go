// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ctc

import (
	"fmt"

	"github.com/born-ml/ctc/internal/autodiff"
	"github.com/born-ml/ctc/internal/autodiff/ops"
	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/lattice"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// Inputs is a prepared lattice: state scores, repeat mask and final states.
type Inputs = lattice.Inputs

// LogzOp is the differentiable log-partition. It holds the alpha and beta
// tables between its forward and backward steps.
type LogzOp = ops.LogzOp

// Result is the output of LossAndGrad.
type Result struct {
	// Loss is reduced per Config.Reduction: a scalar, or [N] for None.
	Loss *tensor.RawTensor
	// LogZ is the per-element log-partition [N].
	LogZ *tensor.RawTensor
	// Grad is ∂Loss/∂logits [T, N, C].
	Grad *tensor.RawTensor
	// StateGrad is ∂Loss/∂state scores [T, N, Lp].
	StateGrad *tensor.RawTensor
	// Infinite marks elements without a feasible alignment.
	Infinite []bool
}

// Prepare builds the state lattice for already normalised scores [T, N, C].
func Prepare(scores, targets, inputLengths, targetLengths *tensor.RawTensor) (*Inputs, error) {
	return lattice.Prepare(scores, targets, inputLengths, targetLengths)
}

// NewLogz runs kernel k over in and returns the differentiable op.
func NewLogz(kind Semiring, k engine.Kernel, in *Inputs) (*LogzOp, error) {
	return ops.NewLogz(kind, k, in)
}

// LogPartition runs the kernel selected by cfg over a prepared lattice.
func LogPartition(cfg Config, in *Inputs) (*LogzOp, error) {
	k, err := cfg.backend().Kernel(engine.Variant{
		Strategy: cfg.Strategy,
		DType:    in.StateScores.DType(),
		Semiring: cfg.Semiring,
	})
	if err != nil {
		return nil, fmt.Errorf("ctc: %w", err)
	}
	return ops.NewLogz(cfg.Semiring, k, in)
}

// Loss computes the CTC loss without keeping tables for a gradient.
//
// logits [T, N, C] are unnormalised; they go through log-softmax, or softmax
// for the Prob semiring.
func Loss(cfg Config, logits, targets, inputLengths, targetLengths *tensor.RawTensor) (*tensor.RawTensor, error) {
	in, err := lattice.Prepare(normalize(cfg.Semiring, logits).Output(), targets, inputLengths, targetLengths)
	if err != nil {
		return nil, fmt.Errorf("ctc loss: %w", err)
	}
	k, err := cfg.backend().ForwardKernel(engine.Variant{
		Strategy: cfg.Strategy,
		DType:    in.StateScores.DType(),
		Semiring: cfg.Semiring,
	})
	if err != nil {
		return nil, fmt.Errorf("ctc loss: %w", err)
	}
	tables, err := engine.Forward(engine.NewProblem(in, cfg.Semiring), k)
	if err != nil {
		return nil, fmt.Errorf("ctc loss: %w", err)
	}
	logz := ops.ToLogSpace(cfg.Semiring, tables.LogZ)
	return ops.NewLoss(logz, targetLengths, cfg.Reduction, cfg.ZeroInfinity).Output(), nil
}

// LossAndGrad computes the CTC loss and its gradient with respect to logits.
func LossAndGrad(cfg Config, logits, targets, inputLengths, targetLengths *tensor.RawTensor) (*Result, error) {
	tape := autodiff.NewGradientTape()
	tape.StartRecording()

	scores := autodiff.Apply(tape, normalize(cfg.Semiring, logits))
	in, err := lattice.Prepare(scores, targets, inputLengths, targetLengths)
	if err != nil {
		return nil, fmt.Errorf("ctc loss: %w", err)
	}
	stateScores := autodiff.Apply(tape, ops.NewGatherStatesOp(scores, in))

	logzOp, err := LogPartition(cfg, in)
	if err != nil {
		return nil, fmt.Errorf("ctc loss: %w", err)
	}
	logz := autodiff.Apply(tape, logzOp)

	lossOp := ops.NewLoss(logz, targetLengths, cfg.Reduction, cfg.ZeroInfinity)
	loss := autodiff.Apply(tape, lossOp)
	tape.StopRecording()

	grads := autodiff.Backward(tape, loss)
	return &Result{
		Loss:      loss,
		LogZ:      logz,
		Grad:      grads[logits],
		StateGrad: grads[stateScores],
		Infinite:  lossOp.Infinite(),
	}, nil
}

func normalize(kind Semiring, logits *tensor.RawTensor) ops.Operation {
	if kind == semiring.Prob {
		return ops.Softmax(logits)
	}
	return ops.LogSoftmax(logits)
}
