// Package cpu implements the native CTC kernels.
//
// Every (strategy, dtype, semiring) combination is registered except the
// parallel float32 direct-probability kernel: probabilities underflow too
// quickly in single precision for it to be useful.
package cpu

import (
	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/parallel"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// Config tunes the CPU kernels.
type Config struct {
	// Parallel controls the worker pool shared by all kernels.
	Parallel parallel.Config
	// StatesPerWorker is how many lattice states one worker of a parallel
	// group owns. Lower values mean more workers per sequence.
	StatesPerWorker int
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	return Config{
		Parallel:        parallel.DefaultConfig(),
		StatesPerWorker: 64,
	}
}

// CPUBackend serves CTC kernels computed on the host.
type CPUBackend struct {
	device tensor.Device
	cfg    Config
	*engine.Registry
}

// New creates a CPU backend with the default configuration.
func New() *CPUBackend {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a CPU backend with cfg.
func NewWithConfig(cfg Config) *CPUBackend {
	if cfg.StatesPerWorker < 1 {
		cfg.StatesPerWorker = 1
	}
	cpu := &CPUBackend{
		device:   tensor.CPU,
		cfg:      cfg,
		Registry: engine.NewRegistry(),
	}
	registerAll[float32](cpu, tensor.Float32)
	registerAll[float64](cpu, tensor.Float64)
	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Config returns the kernel configuration.
func (cpu *CPUBackend) Config() Config {
	return cpu.cfg
}

func registerAll[F tensor.Float](cpu *CPUBackend, dtype tensor.DataType) {
	for _, kind := range []semiring.Kind{semiring.Log, semiring.Max, semiring.Prob} {
		sr := semiring.For[F](kind)
		v := engine.Variant{DType: dtype, Semiring: kind}

		v.Strategy = engine.Sequential
		cpu.Register(&sequentialKernel[F]{variant: v, sr: sr, cfg: cpu.cfg.Parallel})
		cpu.RegisterForward(&forwardKernel[F]{variant: v, sr: sr, cfg: cpu.cfg.Parallel})

		v.Strategy = engine.Batched
		cpu.Register(&batchedKernel[F]{variant: v, sr: sr})
		cpu.RegisterForward(&forwardKernel[F]{variant: v, sr: sr, cfg: cpu.cfg.Parallel})

		if dtype != tensor.Float32 || kind != semiring.Prob {
			v.Strategy = engine.Parallel
			cpu.Register(&parallelKernel[F]{variant: v, sr: sr, cfg: cpu.cfg})
			cpu.RegisterForward(&forwardKernel[F]{variant: v, sr: sr, cfg: cpu.cfg.Parallel})
		}
	}
}
