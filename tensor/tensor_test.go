// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ctc/tensor"
)

// TestRawTensorAPI verifies RawTensor type alias exposes expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	assert.True(t, raw.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, tensor.CPU, raw.Device())
	assert.Equal(t, 6, raw.NumElements())
	assert.Equal(t, 24, raw.ByteSize())

	data := raw.AsFloat32()
	data[0] = 1.5
	clone := raw.Clone()
	data[0] = 2.5
	assert.Equal(t, float32(1.5), clone.AsFloat32()[0])
}

func TestConstructors(t *testing.T) {
	full, err := tensor.Full(tensor.Shape{3}, 2.0)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 2}, full.AsFloat64())

	rows, err := tensor.FromRows([][]int64{{1, 2}, {3, 0}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, rows.Shape())
	assert.Equal(t, tensor.Int64, rows.DType())

	x, err := tensor.FromSlice([]float64{0.5, -1}, tensor.Shape{2})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1}, tensor.Cast(x, tensor.Float32).AsFloat32())

	_, err = tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2})
	assert.Error(t, err)
}
