// Package sample generates random CTC batches for tests and benchmarks.
package sample

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/ctc/internal/tensor"
)

// Config bounds a random batch.
type Config struct {
	TMin, TMax int // bounds on the number of time steps
	N          int // batch size
	C          int // alphabet size, blank included
	LMin, LMax int // bounds on target length
	Seed       uint64
	DType      tensor.DataType
}

// DefaultConfig returns a small float32 batch.
func DefaultConfig() Config {
	return Config{TMin: 50, TMax: 100, N: 8, C: 20, LMin: 5, LMax: 20, Seed: 1, DType: tensor.Float32}
}

// Batch is a generated problem.
type Batch struct {
	Logits        *tensor.RawTensor // [TMax, N, C], standard normal
	Targets       *tensor.RawTensor // [N, LMax], uniform in [1, C)
	InputLengths  *tensor.RawTensor // [N], uniform in [TMin, TMax]
	TargetLengths *tensor.RawTensor // [N], uniform in [LMin, LMax]
}

// Validate checks the bounds are usable.
func (c Config) Validate() error {
	switch {
	case c.TMin < 0 || c.TMax < 1 || c.TMin > c.TMax:
		return fmt.Errorf("sample: bad time bounds [%d, %d]", c.TMin, c.TMax)
	case c.N < 1:
		return fmt.Errorf("sample: batch size %d", c.N)
	case c.C < 2:
		return fmt.Errorf("sample: alphabet size %d leaves no labels", c.C)
	case c.LMin < 1 || c.LMin > c.LMax:
		return fmt.Errorf("sample: bad target length bounds [%d, %d]", c.LMin, c.LMax)
	case !c.DType.IsFloat():
		return fmt.Errorf("sample: dtype %s is not floating point", c.DType)
	}
	return nil
}

// Generate draws a batch. The same Config always yields the same batch.
// Input lengths are not checked against target lengths, so an element may be
// infeasible.
func Generate(cfg Config) (*Batch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	logits := make([]float64, cfg.TMax*cfg.N*cfg.C)
	for i := range logits {
		logits[i] = rng.NormFloat64()
	}
	targets := make([]int64, cfg.N*cfg.LMax)
	for i := range targets {
		targets[i] = 1 + rng.Int64N(int64(cfg.C-1))
	}
	inputLengths := make([]int64, cfg.N)
	for i := range inputLengths {
		inputLengths[i] = int64(cfg.TMin + rng.IntN(cfg.TMax-cfg.TMin+1))
	}
	targetLengths := make([]int64, cfg.N)
	for i := range targetLengths {
		targetLengths[i] = int64(cfg.LMin + rng.IntN(cfg.LMax-cfg.LMin+1))
	}

	l, err := tensor.FromSlice(logits, tensor.Shape{cfg.TMax, cfg.N, cfg.C})
	if err != nil {
		return nil, err
	}
	tg, err := tensor.FromSlice(targets, tensor.Shape{cfg.N, cfg.LMax})
	if err != nil {
		return nil, err
	}
	il, err := tensor.FromSlice(inputLengths, tensor.Shape{cfg.N})
	if err != nil {
		return nil, err
	}
	tl, err := tensor.FromSlice(targetLengths, tensor.Shape{cfg.N})
	if err != nil {
		return nil, err
	}
	return &Batch{
		Logits:        tensor.Cast(l, cfg.DType),
		Targets:       tg,
		InputLengths:  il,
		TargetLengths: tl,
	}, nil
}
