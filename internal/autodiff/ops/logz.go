package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/lattice"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// probEpsilon keeps the Prob gradient denominator away from zero.
const probEpsilon = 1e-38

// LogzOp is the CTC log-partition of prepared lattice inputs.
//
// Forward runs the forward-backward engine in the op's semiring and keeps
// alpha and beta until Backward. The output is logZ [N]; for the Prob
// semiring it is log(z).
//
// Backward, for every t < input_length[n] (later rows are zero):
//
//	Log:  ∂/∂score[t][n][s] = softmax_s(alpha[t+1] + beta[t+1]) · g[n]
//	Max:  one-hot at argmax_s(alpha[t+1] + beta[t+1]) · g[n]
//	Prob: (alpha[t+1]·beta[t+1] / score[t]) · g[n] / (Σ_s alpha[t+1]·beta[t+1] + 1e-38)
type LogzOp struct {
	kind    semiring.Kind
	problem *engine.Problem
	tables  *engine.Tables
	output  *tensor.RawTensor
}

// NewLogz runs kernel k over in and returns the op holding the tables.
func NewLogz(kind semiring.Kind, k engine.Kernel, in *lattice.Inputs) (*LogzOp, error) {
	p := engine.NewProblem(in, kind)
	tables, err := engine.Run(p, k)
	if err != nil {
		return nil, fmt.Errorf("logz: %w", err)
	}

	return &LogzOp{kind: kind, problem: p, tables: tables, output: ToLogSpace(kind, tables.LogZ)}, nil
}

// Inputs returns (state scores, repeat mask, final states, input lengths).
func (op *LogzOp) Inputs() []*tensor.RawTensor {
	p := op.problem
	return []*tensor.RawTensor{p.StateScores, p.RepeatMask, p.FinalStates, p.InputLengths}
}

// Output returns logZ [N].
func (op *LogzOp) Output() *tensor.RawTensor {
	return op.output
}

// Semiring returns the algebra the op was evaluated in.
func (op *LogzOp) Semiring() semiring.Kind {
	return op.kind
}

// Tables exposes the alpha and beta tables for inspection.
func (op *LogzOp) Tables() *engine.Tables {
	return op.tables
}

// Backward returns the state-score gradient; the mask, final states and
// lengths are not differentiable.
func (op *LogzOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	grad := tensor.MustRaw(op.problem.StateScores.Shape(), op.problem.DType(), tensor.CPU)
	switch op.problem.DType() {
	case tensor.Float32:
		logzBackward(op.kind, op.problem, op.tables, grad.AsFloat32(), outputGrad.AsFloat32())
	case tensor.Float64:
		logzBackward(op.kind, op.problem, op.tables, grad.AsFloat64(), outputGrad.AsFloat64())
	default:
		panic(fmt.Sprintf("LogzOp: unsupported dtype %s", op.problem.DType()))
	}
	return []*tensor.RawTensor{grad, nil, nil, nil}
}

func logzBackward[F tensor.Float](kind semiring.Kind, p *engine.Problem, tables *engine.Tables, dst, g []F) {
	T, n, lp := p.Dims()
	alpha := tensor.View[F](tables.Alpha)
	beta := tensor.View[F](tables.Beta)
	scores := tensor.View[F](p.StateScores)
	lengths := p.InputLengths.AsInt64()
	occ := make([]F, lp)

	for t := 0; t < T; t++ {
		for b := 0; b < n; b++ {
			if maskedLength(lengths, t, b) {
				continue
			}
			in := ((t+1)*n + b) * lp
			out := dst[(t*n+b)*lp : (t*n+b+1)*lp]
			a, bt := alpha[in:in+lp], beta[in:in+lp]

			switch kind {
			case semiring.Log:
				for s := range occ {
					occ[s] = a[s] + bt[s]
				}
				softmaxRows(out, occ, 1, lp)
				for s := range out {
					out[s] *= g[b]
				}
			case semiring.Max:
				best := 0
				for s := 1; s < lp; s++ {
					if a[s]+bt[s] > a[best]+bt[best] {
						best = s
					}
				}
				out[best] = g[b]
			case semiring.Prob:
				score := scores[(t*n+b)*lp : (t*n+b+1)*lp]
				var total F
				for s := range occ {
					occ[s] = a[s] * bt[s]
					total += occ[s]
				}
				denom := total + F(probEpsilon)
				for s := range out {
					out[s] = (occ[s] / score[s]) * g[b] / denom
				}
			}
		}
	}
}

// ToLogSpace maps a partition value computed in kind to log space: the
// identity for Log and Max, log(z) for Prob.
func ToLogSpace(kind semiring.Kind, z *tensor.RawTensor) *tensor.RawTensor {
	if kind != semiring.Prob {
		return z
	}
	return logOf(z)
}

func logOf(x *tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), x.DType(), x.Device())
	switch x.DType() {
	case tensor.Float32:
		for i, v := range x.AsFloat32() {
			out.AsFloat32()[i] = float32(math.Log(float64(v)))
		}
	case tensor.Float64:
		for i, v := range x.AsFloat64() {
			out.AsFloat64()[i] = math.Log(v)
		}
	}
	return out
}
