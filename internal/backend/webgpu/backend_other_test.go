//go:build !windows

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ctc/internal/tensor"
)

func TestNewUnsupported(t *testing.T) {
	b, err := New()
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Nil(t, b)
	assert.False(t, IsAvailable())

	var stub Backend
	assert.Equal(t, "WebGPU", stub.Name())
	assert.Equal(t, tensor.WebGPU, stub.Device())
}
