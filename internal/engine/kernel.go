package engine

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// ErrNoKernelVariant is returned when a backend has no kernel for the
// requested (strategy, dtype, semiring) combination. There is no fallback.
var ErrNoKernelVariant = errors.New("engine: no kernel registered for variant")

// Strategy selects how the recurrence is executed.
type Strategy int

// Execution strategies. All of them produce the same tables.
const (
	// Sequential walks the lattice one scalar at a time, per batch element.
	Sequential Strategy = iota
	// Batched advances whole [N, Lp] rows per timestep.
	Batched
	// Parallel runs forward and backward concurrently per element, splitting
	// the state axis across a worker group with a barrier per timestep.
	Parallel
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case Sequential:
		return "sequential"
	case Batched:
		return "batched"
	case Parallel:
		return "parallel"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses a strategy name as produced by Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "sequential", "py", "scalar":
		return Sequential, nil
	case "batched", "tensor":
		return Batched, nil
	case "parallel", "kernel":
		return Parallel, nil
	default:
		return 0, fmt.Errorf("engine: unknown strategy %q", s)
	}
}

// Variant identifies one compiled kernel.
type Variant struct {
	Strategy Strategy
	DType    tensor.DataType
	Semiring semiring.Kind
}

func (v Variant) String() string {
	return fmt.Sprintf("%s/%s/%s", v.Strategy, v.DType, v.Semiring)
}

// Kernel runs the full forward-backward recurrence.
//
// alpha and beta arrive seeded and sized [T+1, N, Lp]; the kernel fills them
// in place and returns alpha at each element's input length, [N, Lp].
type Kernel interface {
	Variant() Variant
	FwdBwd(p *Problem, alpha, beta *tensor.RawTensor) (*tensor.RawTensor, error)
}

// ForwardKernel runs only the alpha recurrence, keeping one row per element.
type ForwardKernel interface {
	Variant() Variant
	Forward(p *Problem) (*tensor.RawTensor, error)
}

// Backend provides kernels for one device.
type Backend interface {
	// Name returns a human-readable backend name.
	Name() string
	// Device returns the device the backend computes on.
	Device() tensor.Device
	// Kernel returns the forward-backward kernel for v.
	Kernel(v Variant) (Kernel, error)
	// ForwardKernel returns the forward-only kernel for v.
	ForwardKernel(v Variant) (ForwardKernel, error)
}

// Registry maps variants to kernels. Backends embed one and fill it at
// construction; it is read-only afterwards.
type Registry struct {
	kernels map[Variant]Kernel
	forward map[Variant]ForwardKernel
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		kernels: make(map[Variant]Kernel),
		forward: make(map[Variant]ForwardKernel),
	}
}

// Register adds k under its own variant.
func (r *Registry) Register(k Kernel) {
	r.kernels[k.Variant()] = k
}

// RegisterForward adds a forward-only kernel under its own variant.
func (r *Registry) RegisterForward(k ForwardKernel) {
	r.forward[k.Variant()] = k
}

// Kernel looks up v.
func (r *Registry) Kernel(v Variant) (Kernel, error) {
	k, ok := r.kernels[v]
	if !ok {
		return nil, fmt.Errorf("%s: %w", v, ErrNoKernelVariant)
	}
	return k, nil
}

// ForwardKernel looks up the forward-only kernel for v.
func (r *Registry) ForwardKernel(v Variant) (ForwardKernel, error) {
	k, ok := r.forward[v]
	if !ok {
		return nil, fmt.Errorf("forward %s: %w", v, ErrNoKernelVariant)
	}
	return k, nil
}

// Variants lists the registered forward-backward variants in a stable order.
func (r *Registry) Variants() []Variant {
	out := make([]Variant, 0, len(r.kernels))
	for v := range r.kernels {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b Variant) int {
		return cmp.Or(
			cmp.Compare(a.Strategy, b.Strategy),
			cmp.Compare(a.DType, b.DType),
			cmp.Compare(a.Semiring, b.Semiring),
		)
	})
	return out
}
