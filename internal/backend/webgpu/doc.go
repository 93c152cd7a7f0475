// Package webgpu runs the parallel CTC kernel as a WGSL compute shader.
//
// One workgroup handles one (batch element, direction) pair: workgroup
// (n, 0) fills alpha and (n, 1) fills beta. Each invocation owns one lattice
// state, neighbours are exchanged through ping-pong workgroup memory, and a
// workgroupBarrier separates timesteps.
//
// Only single-precision Log and Max kernels exist, with at most
// MaxStates lattice states. Uses go-webgpu (github.com/go-webgpu/webgpu)
// for zero-CGO WebGPU bindings; the GPU path builds on windows only and New
// reports an error elsewhere.
package webgpu

// MaxStates is the largest lattice (2*Lmax+1) one workgroup can hold.
const MaxStates = 256
