// Package engine drives the CTC forward-backward recurrence.
//
// The engine owns table allocation and seeding and the final log-partition
// gather. The recurrence itself is delegated to a Kernel obtained from a
// Backend, one per (strategy, dtype, semiring) variant:
//
//	alpha[t][s]  = score[t-1][s] ⊗ (alpha[t-1][s] ⊕ alpha[t-1][s-1] ⊕ alpha[t-1][s-2]†)
//	beta[t-1][s] = (beta[t][s]⊗score[t-1][s]) ⊕ (beta[t][s+1]⊗score[t-1][s+1]) ⊕ (beta[t][s+2]⊗score[t-1][s+2])‡
//	logZ[n]      = ⊕ alpha[input_length[n]][n][f]   for f in final[n]
//
// † dropped where the repeat mask is set, ‡ where the shifted mask is set.
// beta[t-1] is written only while t <= input_length[n].
package engine

import (
	"fmt"

	"github.com/born-ml/ctc/internal/lattice"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// Problem is the read-only input shared by all kernels.
type Problem struct {
	StateScores  *tensor.RawTensor // [T, N, Lp]
	RepeatMask   *tensor.RawTensor // [N, Lp] bool
	BackwardMask *tensor.RawTensor // [N, Lp] bool, RepeatMask shifted left by two
	FinalStates  *tensor.RawTensor // [N, 2] int64
	InputLengths *tensor.RawTensor // [N] int64
	Semiring     semiring.Kind
}

// NewProblem wraps prepared lattice inputs for the given semiring.
func NewProblem(in *lattice.Inputs, kind semiring.Kind) *Problem {
	return &Problem{
		StateScores:  in.StateScores,
		RepeatMask:   in.RepeatMask,
		BackwardMask: lattice.BackwardRepeatMask(in.RepeatMask),
		FinalStates:  in.FinalStates,
		InputLengths: in.InputLengths,
		Semiring:     kind,
	}
}

// Dims returns (T, N, Lp).
func (p *Problem) Dims() (int, int, int) {
	s := p.StateScores.Shape()
	return s[0], s[1], s[2]
}

// DType returns the precision of the state scores.
func (p *Problem) DType() tensor.DataType {
	return p.StateScores.DType()
}

// Variant returns the kernel variant needed to solve p with strategy.
func (p *Problem) Variant(strategy Strategy) Variant {
	return Variant{Strategy: strategy, DType: p.DType(), Semiring: p.Semiring}
}

// Tables holds the output of one engine invocation.
// Alpha and Beta are nil after a forward-only run.
type Tables struct {
	Alpha  *tensor.RawTensor // [T+1, N, Lp]
	Beta   *tensor.RawTensor // [T+1, N, Lp]
	AlphaT *tensor.RawTensor // [N, Lp], alpha at each element's input length
	LogZ   *tensor.RawTensor // [N], in the semiring's own algebra
}

// Run allocates and seeds alpha and beta, runs k over them and gathers
// the log-partition.
func Run(p *Problem, k Kernel) (*Tables, error) {
	if err := checkVariant(p, k.Variant()); err != nil {
		return nil, fmt.Errorf("engine run: %w", err)
	}

	alpha, beta, err := seed(p)
	if err != nil {
		return nil, fmt.Errorf("engine run: %w", err)
	}

	alphaT, err := k.FwdBwd(p, alpha, beta)
	if err != nil {
		return nil, fmt.Errorf("engine run (%s): %w", k.Variant(), err)
	}

	return &Tables{
		Alpha:  alpha,
		Beta:   beta,
		AlphaT: alphaT,
		LogZ:   logPartition(p, alphaT),
	}, nil
}

// Forward runs only the alpha recurrence. No tables are kept, so the result
// cannot be differentiated.
func Forward(p *Problem, k ForwardKernel) (*Tables, error) {
	if err := checkVariant(p, k.Variant()); err != nil {
		return nil, fmt.Errorf("engine forward: %w", err)
	}

	alphaT, err := k.Forward(p)
	if err != nil {
		return nil, fmt.Errorf("engine forward (%s): %w", k.Variant(), err)
	}
	return &Tables{AlphaT: alphaT, LogZ: logPartition(p, alphaT)}, nil
}

func checkVariant(p *Problem, v Variant) error {
	if v.DType != p.DType() || v.Semiring != p.Semiring {
		return fmt.Errorf("kernel %s cannot solve %s/%s: %w", v, p.DType(), p.Semiring, ErrNoKernelVariant)
	}
	return nil
}

func seed(p *Problem) (*tensor.RawTensor, *tensor.RawTensor, error) {
	switch p.DType() {
	case tensor.Float32:
		return seedTables[float32](p)
	case tensor.Float64:
		return seedTables[float64](p)
	default:
		return nil, nil, fmt.Errorf("unsupported dtype %s", p.DType())
	}
}

func seedTables[F tensor.Float](p *Problem) (*tensor.RawTensor, *tensor.RawTensor, error) {
	T, n, lp := p.Dims()
	sr := semiring.For[F](p.Semiring)
	shape := tensor.Shape{T + 1, n, lp}

	alpha, err := tensor.Full(shape, sr.Zero())
	if err != nil {
		return nil, nil, err
	}
	beta, err := tensor.Full(shape, sr.Zero())
	if err != nil {
		return nil, nil, err
	}

	a := tensor.View[F](alpha)
	b := tensor.View[F](beta)
	lengths := p.InputLengths.AsInt64()
	finals := p.FinalStates.AsInt64()
	for i := 0; i < n; i++ {
		a[i*lp] = sr.One()
		row := (int(lengths[i])*n + i) * lp
		b[row+int(finals[2*i])] = sr.One()
		b[row+int(finals[2*i+1])] = sr.One()
	}
	return alpha, beta, nil
}

func logPartition(p *Problem, alphaT *tensor.RawTensor) *tensor.RawTensor {
	switch p.DType() {
	case tensor.Float32:
		return gatherFinal[float32](p, alphaT)
	case tensor.Float64:
		return gatherFinal[float64](p, alphaT)
	default:
		panic(fmt.Sprintf("engine: unsupported dtype %s", p.DType()))
	}
}

func gatherFinal[F tensor.Float](p *Problem, alphaT *tensor.RawTensor) *tensor.RawTensor {
	_, n, lp := p.Dims()
	sr := semiring.For[F](p.Semiring)
	src := tensor.View[F](alphaT)
	finals := p.FinalStates.AsInt64()

	out := tensor.MustRaw(tensor.Shape{n}, p.DType(), tensor.CPU)
	dst := tensor.View[F](out)
	for i := 0; i < n; i++ {
		row := src[i*lp : (i+1)*lp]
		dst[i] = sr.Sum([]F{row[finals[2*i]], row[finals[2*i+1]]})
	}
	return out
}
