package ops

import (
	"fmt"

	"github.com/born-ml/ctc/internal/tensor"
)

// Accumulate returns a + b for two float tensors of the same shape.
// The tape uses it when a tensor feeds more than one operation.
func Accumulate(a, b *tensor.RawTensor) *tensor.RawTensor {
	if !a.Shape().Equal(b.Shape()) || a.DType() != b.DType() {
		panic(fmt.Sprintf("accumulate: %s and %s differ", a, b))
	}
	out := a.Clone()
	switch out.DType() {
	case tensor.Float32:
		addInto(out.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		addInto(out.AsFloat64(), b.AsFloat64())
	default:
		panic(fmt.Sprintf("accumulate: unsupported dtype %s", out.DType()))
	}
	return out
}

func addInto[F tensor.Float](dst, src []F) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// rows splits the last axis off shape: (number of rows, row width).
func rows(shape tensor.Shape) (int, int) {
	if len(shape) == 0 {
		return 1, 1
	}
	width := shape[len(shape)-1]
	return shape.NumElements() / width, width
}

// maskedLength reports whether timestep t lies inside element n's input.
func maskedLength(lengths []int64, t, n int) bool {
	return int64(t) >= lengths[n]
}
