// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated CTC kernels.
//
// WebGPU is a cross-platform graphics and compute API. The kernels are
// built on Windows; elsewhere New returns an error and IsAvailable reports
// false, so callers can fall back to the CPU backend.
//
// Only the parallel strategy in float32 with the Log and Max semirings is
// served, for lattices of up to MaxStates states.
//
// Example:
//
//	import (
//	    "github.com/born-ml/ctc/backend/webgpu"
//	    "github.com/born-ml/ctc/ctc"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    cfg := ctc.DefaultConfig()
//	    cfg.Backend = gpu
//	}
package webgpu

import (
	"github.com/born-ml/ctc/ctc"
	internalwebgpu "github.com/born-ml/ctc/internal/backend/webgpu"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements ctc.Backend.
var _ ctc.Backend = (*Backend)(nil)

// MaxStates is the largest lattice (2*L+1) the GPU kernel accepts.
const MaxStates = internalwebgpu.MaxStates

// New creates a new WebGPU backend.
//
// Call Release() when done to free GPU resources. Returns an error if
// WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	cfg := ctc.DefaultConfig()
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    cfg.Backend = gpu
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
