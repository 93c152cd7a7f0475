// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ctc

import (
	"sync"

	"github.com/born-ml/ctc/internal/autodiff/ops"
	"github.com/born-ml/ctc/internal/backend/cpu"
	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/lattice"
	"github.com/born-ml/ctc/internal/semiring"
)

// Backend serves forward-backward kernels.
type Backend = engine.Backend

// Strategy selects how the recurrence is executed.
type Strategy = engine.Strategy

// Execution strategies.
const (
	Sequential = engine.Sequential
	Batched    = engine.Batched
	Parallel   = engine.Parallel
)

// Semiring selects the algebra the lattice is evaluated in.
type Semiring = semiring.Kind

// Semirings.
const (
	Log  = semiring.Log
	Max  = semiring.Max
	Prob = semiring.Prob
)

// Reduction selects how per-element losses are combined.
type Reduction = ops.Reduction

// Reductions.
const (
	Mean = ops.Mean
	Sum  = ops.Sum
	None = ops.None
)

// Blank is the reserved blank class.
const Blank = lattice.Blank

// Errors returned by the package.
var (
	ErrShapeMismatch   = lattice.ErrShapeMismatch
	ErrEmptyTarget     = lattice.ErrEmptyTarget
	ErrLabelOutOfRange = lattice.ErrLabelOutOfRange
	ErrNoKernelVariant = engine.ErrNoKernelVariant
)

// Config selects the backend, kernel and loss options.
type Config struct {
	// Backend runs the kernels. Nil means a default CPU backend.
	Backend Backend
	// Strategy picks the kernel.
	Strategy Strategy
	// Semiring is Log for the standard loss.
	Semiring Semiring
	// Reduction combines per-element losses.
	Reduction Reduction
	// ZeroInfinity replaces infinite losses (no feasible alignment) with
	// zero and drops their gradient.
	ZeroInfinity bool
}

// DefaultConfig returns the standard CTC loss on the CPU parallel kernel.
func DefaultConfig() Config {
	return Config{
		Strategy:  Parallel,
		Semiring:  Log,
		Reduction: Mean,
	}
}

var defaultBackend = sync.OnceValue(func() Backend { return cpu.New() })

func (c Config) backend() Backend {
	if c.Backend == nil {
		return defaultBackend()
	}
	return c.Backend
}
