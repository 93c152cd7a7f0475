// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/ctc/internal/tensor"
)

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Type-safe data access via AsFloat32(), AsInt64(), etc.
//   - Deep copies via Clone()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32()  // Type-safe access
//	clone := raw.Clone()     // Independent copy
type RawTensor = tensor.RawTensor

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// DataType identifies the element type.
type DataType = tensor.DataType

// DType is the constraint satisfied by supported element types.
type DType = tensor.DType

// Float is the constraint satisfied by floating-point element types.
type Float = tensor.Float

// Device identifies where a tensor was produced.
type Device = tensor.Device

// Data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Int64   = tensor.Int64
	Bool    = tensor.Bool
)

// Devices.
const (
	CPU    = tensor.CPU
	WebGPU = tensor.WebGPU
)

// NewRaw creates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Zeros creates a zero-filled CPU tensor.
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype)
}

// Full creates a CPU tensor with every element set to value.
func Full[T DType](shape Shape, value T) (*RawTensor, error) {
	return tensor.Full(shape, value)
}

// FromSlice copies data into a new CPU tensor.
//
// Example:
//
//	logits, err := tensor.FromSlice(data, tensor.Shape{T, N, C})
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromRows creates a 2-D int64 tensor, e.g. a padded target batch.
func FromRows(rows [][]int64) (*RawTensor, error) {
	return tensor.FromRows(rows)
}

// Cast converts a floating-point tensor to dtype.
func Cast(r *RawTensor, dtype DataType) *RawTensor {
	return tensor.Cast(r, dtype)
}
