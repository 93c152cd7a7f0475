package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ctc/internal/tensor"
)

func TestGenerate(t *testing.T) {
	cfg := Config{TMin: 10, TMax: 20, N: 16, C: 6, LMin: 2, LMax: 5, Seed: 3, DType: tensor.Float64}
	b, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{20, 16, 6}, b.Logits.Shape())
	assert.Equal(t, tensor.Float64, b.Logits.DType())
	assert.Equal(t, tensor.Shape{16, 5}, b.Targets.Shape())

	for _, v := range b.Targets.AsInt64() {
		assert.True(t, v >= 1 && v < 6, "target %d", v)
	}
	for _, v := range b.InputLengths.AsInt64() {
		assert.True(t, v >= 10 && v <= 20, "input length %d", v)
	}
	for _, v := range b.TargetLengths.AsInt64() {
		assert.True(t, v >= 2 && v <= 5, "target length %d", v)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Logits.AsFloat32(), b.Logits.AsFloat32())
	assert.Equal(t, a.Targets.AsInt64(), b.Targets.AsInt64())

	cfg.Seed++
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Logits.AsFloat32(), c.Logits.AsFloat32())
}

func TestConfigValidate(t *testing.T) {
	base := DefaultConfig()
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"time bounds", func(c *Config) { c.TMin = c.TMax + 1 }},
		{"batch", func(c *Config) { c.N = 0 }},
		{"alphabet", func(c *Config) { c.C = 1 }},
		{"target bounds", func(c *Config) { c.LMin = 0 }},
		{"dtype", func(c *Config) { c.DType = tensor.Int64 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
			_, err := Generate(cfg)
			assert.Error(t, err)
		})
	}
}
