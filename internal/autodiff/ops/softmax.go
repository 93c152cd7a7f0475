package ops

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/ctc/internal/tensor"
)

// SoftmaxOp represents the softmax operation along the last dimension.
//
// Forward (for each row):
//
//	softmax(x)_i = exp(x_i - max(x)) / Σ_j exp(x_j - max(x))
//
// Backward:
//
//	∂L/∂x_j = softmax_j * (∂L/∂softmax_j - Σ_i (∂L/∂softmax_i * softmax_i))
//
// The direct-probability loss feeds the Prob semiring with it.
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // Cached softmax output for backward pass
}

// Softmax computes softmax over the last axis of x and returns the op.
func Softmax(x *tensor.RawTensor) *SoftmaxOp {
	out := tensor.MustRaw(x.Shape(), x.DType(), x.Device())
	n, c := rows(x.Shape())
	switch x.DType() {
	case tensor.Float32:
		softmaxRows(out.AsFloat32(), x.AsFloat32(), n, c)
	case tensor.Float64:
		softmaxRows(out.AsFloat64(), x.AsFloat64(), n, c)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}
	return &SoftmaxOp{input: x, output: out}
}

// Inputs returns the input tensors.
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SoftmaxOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the gradient with respect to input.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	inputGrad := tensor.MustRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	n, c := rows(op.input.Shape())
	switch op.input.DType() {
	case tensor.Float32:
		softmaxBackward(inputGrad.AsFloat32(), outputGrad.AsFloat32(), op.output.AsFloat32(), n, c)
	case tensor.Float64:
		softmaxBackward(inputGrad.AsFloat64(), outputGrad.AsFloat64(), op.output.AsFloat64(), n, c)
	default:
		panic("SoftmaxOp: backward only supports float32 and float64")
	}
	return []*tensor.RawTensor{inputGrad}
}

func softmaxBackward[F tensor.Float](dx, dy, y []F, n, c int) {
	for b := 0; b < n; b++ {
		off := b * c
		// Σ_i (grad_output[i] * softmax[i])
		var dot F
		for j := 0; j < c; j++ {
			dot += dy[off+j] * y[off+j]
		}
		for j := 0; j < c; j++ {
			dx[off+j] = y[off+j] * (dy[off+j] - dot)
		}
	}
}

// LogSoftmaxOp represents the log-softmax operation along the last dimension.
//
// Forward:
//
//	log_softmax(x)_i = x_i - log(Σ_j exp(x_j))
//
// Backward:
//
//	∂L/∂x_j = ∂L/∂log_softmax_j - softmax_j * Σ_i ∂L/∂log_softmax_i
type LogSoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // log_softmax output; softmax is exp(output)
}

// LogSoftmax computes log-softmax over the last axis of x and returns the op.
func LogSoftmax(x *tensor.RawTensor) *LogSoftmaxOp {
	out := tensor.MustRaw(x.Shape(), x.DType(), x.Device())
	n, c := rows(x.Shape())
	switch x.DType() {
	case tensor.Float32:
		logSoftmaxFloat32(out.AsFloat32(), x.AsFloat32(), n, c)
	case tensor.Float64:
		logSoftmaxFloat64(out.AsFloat64(), x.AsFloat64(), n, c)
	default:
		panic(fmt.Sprintf("log softmax: unsupported dtype %s", x.DType()))
	}
	return &LogSoftmaxOp{input: x, output: out}
}

// Inputs returns the input tensors.
func (op *LogSoftmaxOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *LogSoftmaxOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes gradient for log-softmax.
func (op *LogSoftmaxOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	inputGrad := tensor.MustRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	n, c := rows(op.input.Shape())
	switch op.input.DType() {
	case tensor.Float32:
		logSoftmaxBackward(inputGrad.AsFloat32(), outputGrad.AsFloat32(), op.output.AsFloat32(), n, c)
	case tensor.Float64:
		logSoftmaxBackward(inputGrad.AsFloat64(), outputGrad.AsFloat64(), op.output.AsFloat64(), n, c)
	default:
		panic("LogSoftmaxOp: backward only supports float32 and float64")
	}
	return []*tensor.RawTensor{inputGrad}
}

func logSoftmaxBackward[F tensor.Float](dx, dy, y []F, n, c int) {
	for b := 0; b < n; b++ {
		off := b * c
		var sum F
		for j := 0; j < c; j++ {
			sum += dy[off+j]
		}
		for j := 0; j < c; j++ {
			dx[off+j] = dy[off+j] - F(math.Exp(float64(y[off+j])))*sum
		}
	}
}

func softmaxRows[F tensor.Float](dst, src []F, n, c int) {
	for b := 0; b < n; b++ {
		in, out := src[b*c:(b+1)*c], dst[b*c:(b+1)*c]
		m := in[0]
		for _, v := range in[1:] {
			m = max(m, v)
		}
		var sum float64
		for j, v := range in {
			e := math.Exp(float64(v - m))
			out[j] = F(e)
			sum += e
		}
		for j := range out {
			out[j] = F(float64(out[j]) / sum)
		}
	}
}

func logSoftmaxFloat64(dst, src []float64, n, c int) {
	for b := 0; b < n; b++ {
		in, out := src[b*c:(b+1)*c], dst[b*c:(b+1)*c]
		lse := floats.LogSumExp(in)
		copy(out, in)
		floats.AddConst(-lse, out)
	}
}

func logSoftmaxFloat32(dst, src []float32, n, c int) {
	for b := 0; b < n; b++ {
		in, out := src[b*c:(b+1)*c], dst[b*c:(b+1)*c]
		m := in[0]
		for _, v := range in[1:] {
			m = max(m, v)
		}
		var sum float64
		for _, v := range in {
			sum += math.Exp(float64(v - m))
		}
		lse := float64(m) + math.Log(sum)
		for j, v := range in {
			out[j] = float32(float64(v) - lse)
		}
	}
}
