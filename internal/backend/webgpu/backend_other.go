//go:build !windows

package webgpu

import (
	"errors"

	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/tensor"
)

// ErrUnsupported is returned by New on platforms without the GPU path.
var ErrUnsupported = errors.New("webgpu: backend is only built on windows")

// Backend is a placeholder that registers no kernels.
type Backend struct {
	*engine.Registry
}

// New always fails on this platform.
func New() (*Backend, error) {
	return nil, ErrUnsupported
}

// Release is a no-op.
func (b *Backend) Release() {}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// IsAvailable reports false on this platform.
func IsAvailable() bool {
	return false
}
