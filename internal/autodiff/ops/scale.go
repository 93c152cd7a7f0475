package ops

import (
	"fmt"

	"github.com/born-ml/ctc/internal/tensor"
)

// ScaleOp multiplies every element by a constant: y = β·x, ∂L/∂x = β·∂L/∂y.
// Soft alignments use it as an inverse temperature on the logits.
type ScaleOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	factor float64
}

// Scale computes factor·x and returns the op.
func Scale(x *tensor.RawTensor, factor float64) *ScaleOp {
	return &ScaleOp{input: x, output: scaled(x, factor), factor: factor}
}

// Inputs returns the input tensors.
func (op *ScaleOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *ScaleOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes factor·outputGrad.
func (op *ScaleOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{scaled(outputGrad, op.factor)}
}

func scaled(x *tensor.RawTensor, factor float64) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), x.DType(), x.Device())
	switch x.DType() {
	case tensor.Float32:
		scaleInto(out.AsFloat32(), x.AsFloat32(), float32(factor))
	case tensor.Float64:
		scaleInto(out.AsFloat64(), x.AsFloat64(), factor)
	default:
		panic(fmt.Sprintf("scale: unsupported dtype %s", x.DType()))
	}
	return out
}

func scaleInto[F tensor.Float](dst, src []F, factor F) {
	for i, v := range src {
		dst[i] = v * factor
	}
}
