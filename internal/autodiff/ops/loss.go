package ops

import (
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// Reduction selects how per-element losses are combined.
type Reduction int

// Reductions.
const (
	// Mean averages -logz/target_length over the batch.
	Mean Reduction = iota
	// Sum adds -logz/target_length over the batch.
	Sum
	// None keeps the per-element losses, shape [N].
	None
)

// String returns the reduction name.
func (r Reduction) String() string {
	switch r {
	case Mean:
		return "mean"
	case Sum:
		return "sum"
	case None:
		return "none"
	default:
		return fmt.Sprintf("Reduction(%d)", int(r))
	}
}

// ParseReduction parses a reduction name.
func ParseReduction(s string) (Reduction, error) {
	switch strings.ToLower(s) {
	case "mean":
		return Mean, nil
	case "sum":
		return Sum, nil
	case "none":
		return None, nil
	default:
		return 0, fmt.Errorf("ops: unknown reduction %q", s)
	}
}

// Infeasible reports whether a log-partition value means no alignment path
// exists: the semiring zero (or anything within a factor two of it) or -Inf.
func Infeasible(logz float64) bool {
	return logz <= semiring.NegInf/2 || math.IsInf(logz, -1)
}

// LossOp turns log-partitions into the CTC loss.
//
// Forward:
//
//	loss[n] = -logz[n] / target_length[n]     (+Inf when infeasible)
//	output  = mean(loss) | sum(loss) | loss
//
// With zeroInfinity, infinite element losses become 0 and pass no gradient.
type LossOp struct {
	logz          *tensor.RawTensor // [N]
	targetLengths *tensor.RawTensor // [N] int64
	output        *tensor.RawTensor
	reduction     Reduction
	zeroInfinity  bool
	infinite      []bool
}

// NewLoss computes the reduced loss and returns the op.
func NewLoss(logz, targetLengths *tensor.RawTensor, reduction Reduction, zeroInfinity bool) *LossOp {
	values := tensor.Float64s(logz)
	lengths := targetLengths.AsInt64()
	losses := make([]float64, len(values))
	infinite := make([]bool, len(values))

	for i, z := range values {
		if Infeasible(z) {
			infinite[i] = true
			if !zeroInfinity {
				losses[i] = math.Inf(1)
			}
			continue
		}
		losses[i] = -z / float64(lengths[i])
	}

	var reduced []float64
	shape := tensor.Shape{}
	switch reduction {
	case Mean, Sum:
		var total float64
		for _, l := range losses {
			total += l
		}
		if reduction == Mean {
			total /= float64(len(losses))
		}
		reduced = []float64{total}
	case None:
		reduced = losses
		shape = tensor.Shape{len(losses)}
	default:
		panic(fmt.Sprintf("loss: unknown reduction %d", int(reduction)))
	}

	return &LossOp{
		logz:          logz,
		targetLengths: targetLengths,
		output:        fromFloat64s(reduced, shape, logz.DType()),
		reduction:     reduction,
		zeroInfinity:  zeroInfinity,
		infinite:      infinite,
	}
}

// Inputs returns (logz, target lengths).
func (op *LossOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logz, op.targetLengths}
}

// Output returns the reduced loss: a scalar, or [N] for None.
func (op *LossOp) Output() *tensor.RawTensor {
	return op.output
}

// Infinite reports which batch elements had no feasible alignment.
func (op *LossOp) Infinite() []bool {
	return op.infinite
}

// Backward computes ∂L/∂logz[n] = -g / target_length[n] (divided by N for Mean).
func (op *LossOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	upstream := tensor.Float64s(outputGrad)
	lengths := op.targetLengths.AsInt64()
	n := len(lengths)
	grad := make([]float64, n)

	for i := range grad {
		if op.infinite[i] && op.zeroInfinity {
			continue
		}
		var g float64
		switch op.reduction {
		case Mean:
			g = upstream[0] / float64(n)
		case Sum:
			g = upstream[0]
		case None:
			g = upstream[i]
		}
		grad[i] = -g / float64(lengths[i])
	}
	return []*tensor.RawTensor{fromFloat64s(grad, op.logz.Shape(), op.logz.DType()), nil}
}

func fromFloat64s(values []float64, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	r, err := tensor.FromSlice(values, shape)
	if err != nil {
		panic(err)
	}
	if dtype == tensor.Float64 {
		return r
	}
	return tensor.Cast(r, dtype)
}
