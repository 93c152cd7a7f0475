package autodiff

import (
	"fmt"

	"github.com/born-ml/ctc/internal/tensor"
)

// Backward seeds the gradient of output with ones and walks the tape.
//
// output must be the output of the last recorded operation, typically the
// reduced loss. Returns a map from RawTensor to its gradient.
func Backward(tape *GradientTape, output *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call StartRecording()?)")
	}
	return tape.Backward(Ones(output))
}

// Ones returns a tensor of ones shaped like x.
func Ones(x *tensor.RawTensor) *tensor.RawTensor {
	switch x.DType() {
	case tensor.Float32:
		r, err := tensor.Full(x.Shape(), float32(1))
		if err != nil {
			panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
		}
		return r
	case tensor.Float64:
		r, err := tensor.Full(x.Shape(), 1.0)
		if err != nil {
			panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
		}
		return r
	default:
		panic(fmt.Sprintf("backward: unsupported dtype %s", x.DType()))
	}
}
