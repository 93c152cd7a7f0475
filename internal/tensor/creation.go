package tensor

import "fmt"

// Zeros creates a zero-filled CPU tensor.
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return NewRaw(shape, dtype, CPU)
}

// Full creates a CPU tensor with every element set to value.
//
// Example:
//
//	alpha, _ := tensor.Full[float32](tensor.Shape{T + 1, N, Lp}, -1e38)
func Full[T DType](shape Shape, value T) (*RawTensor, error) {
	r, err := NewRaw(shape, DataTypeOf[T](), CPU)
	if err != nil {
		return nil, err
	}
	data := View[T](r)
	for i := range data {
		data[i] = value
	}
	return r, nil
}

// FromSlice creates a CPU tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	r, err := NewRaw(shape, DataTypeOf[T](), CPU)
	if err != nil {
		return nil, err
	}
	copy(View[T](r), data)
	return r, nil
}

// FromRows creates a 2-D int64 tensor from equally long rows.
func FromRows(rows [][]int64) (*RawTensor, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("FromRows: no rows")
	}
	width := len(rows[0])
	flat := make([]int64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("FromRows: row %d has %d columns, want %d", i, len(row), width)
		}
		flat = append(flat, row...)
	}
	return FromSlice(flat, Shape{len(rows), width})
}

// Float64s returns a float64 copy of a floating-point tensor, whatever its precision.
func Float64s(r *RawTensor) []float64 {
	switch r.DType() {
	case Float64:
		return append([]float64(nil), r.AsFloat64()...)
	case Float32:
		src := r.AsFloat32()
		out := make([]float64, len(src))
		for i, v := range src {
			out[i] = float64(v)
		}
		return out
	default:
		panic(fmt.Sprintf("Float64s: unsupported dtype %s", r.DType()))
	}
}

// Cast converts a floating-point tensor to the requested floating-point dtype.
func Cast(r *RawTensor, dtype DataType) *RawTensor {
	if r.DType() == dtype {
		return r.Clone()
	}
	out := MustRaw(r.Shape(), dtype, r.Device())
	switch {
	case r.DType() == Float32 && dtype == Float64:
		dst := out.AsFloat64()
		for i, v := range r.AsFloat32() {
			dst[i] = float64(v)
		}
	case r.DType() == Float64 && dtype == Float32:
		dst := out.AsFloat32()
		for i, v := range r.AsFloat64() {
			dst[i] = float32(v)
		}
	default:
		panic(fmt.Sprintf("Cast: unsupported conversion %s -> %s", r.DType(), dtype))
	}
	return out
}
