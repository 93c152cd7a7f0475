// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensor type used by the CTC API.
//
// # Overview
//
// A RawTensor is a contiguous row-major buffer with a shape, a data type and
// the device it was produced on. The CTC API takes and returns RawTensors:
//   - logits [T, N, C] float32 or float64
//   - targets [N, L] int64, zero-padded
//   - input and target lengths [N] int64
//
// # Basic Usage
//
//	import "github.com/born-ml/ctc/tensor"
//
//	func main() {
//	    logits, _ := tensor.FromSlice(data, tensor.Shape{T, N, C})
//	    targets, _ := tensor.FromRows([][]int64{{1, 2, 2}, {3, 1, 0}})
//	    lengths, _ := tensor.FromSlice([]int64{T, T}, tensor.Shape{2})
//	}
//
// # Supported Data Types
//
// The tensor package supports the following data types via the DType constraint:
//   - float32, float64 (floating-point)
//   - int64 (labels and lengths)
//   - bool (repeat masks)
//
// # Device Support
//
// Tensors can be produced on different devices:
//   - CPU: Pure Go implementation
//   - WebGPU: Zero-CGO GPU kernels (Windows)
//
// Results are always copied back to host memory, so every tensor can be read
// with AsFloat32, AsFloat64, AsInt64 or AsBool.
package tensor
