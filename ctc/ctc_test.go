// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ctc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ctc/internal/sample"
	"github.com/born-ml/ctc/internal/tensor"
)

var strategies = []Strategy{Sequential, Batched, Parallel}

func smallBatch(t *testing.T, seed uint64, dtype tensor.DataType) *sample.Batch {
	t.Helper()
	b, err := sample.Generate(sample.Config{
		TMin: 3, TMax: 5, N: 3, C: 3, LMin: 1, LMax: 2,
		Seed: seed, DType: dtype,
	})
	require.NoError(t, err)
	return b
}

func ints(t *testing.T, v ...int64) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(v, tensor.Shape{len(v)})
	require.NoError(t, err)
	return r
}

func rows(t *testing.T, v ...[]int64) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromRows(v)
	require.NoError(t, err)
	return r
}

// uniformLogits returns [T, N, C] logits with a mild per-frame bias.
func uniformLogits(t *testing.T, T, n, c int) *tensor.RawTensor {
	t.Helper()
	data := make([]float64, T*n*c)
	for i := range data {
		data[i] = 0.3 * math.Sin(float64(i))
	}
	r, err := tensor.FromSlice(data, tensor.Shape{T, n, c})
	require.NoError(t, err)
	return r
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Nil(t, cfg.Backend)
	assert.Equal(t, Parallel, cfg.Strategy)
	assert.Equal(t, Log, cfg.Semiring)
	assert.Equal(t, Mean, cfg.Reduction)
	assert.False(t, cfg.ZeroInfinity)
	assert.Equal(t, "CPU", cfg.backend().Name())
}

func TestLoss_MatchesExactEnumeration(t *testing.T) {
	for _, kind := range []Semiring{Log, Max, Prob} {
		for _, strategy := range strategies {
			t.Run(kind.String()+"/"+strategy.String(), func(t *testing.T) {
				for seed := uint64(1); seed <= 4; seed++ {
					b := smallBatch(t, seed, tensor.Float64)
					cfg := Config{Strategy: strategy, Semiring: kind, Reduction: None}

					res, err := LossAndGrad(cfg, b.Logits, b.Targets, b.InputLengths, b.TargetLengths)
					require.NoError(t, err)

					shape := b.Logits.Shape()
					T, n, c := shape[0], shape[1], shape[2]
					logp := logSoftmax(b.Logits)
					targets := b.Targets.AsInt64()
					width := b.Targets.Shape()[1]
					got := res.Loss.AsFloat64()
					for i := 0; i < n; i++ {
						tl := b.TargetLengths.AsInt64()[i]
						target := targets[i*width : i*width+int(tl)]
						want := -exactScore(logp, T, n, c, i, int(b.InputLengths.AsInt64()[i]), target, kind == Max) / float64(tl)
						assert.InEpsilon(t, want, got[i], 1e-6, "seed %d element %d", seed, i)
					}
				}
			})
		}
	}
}

func TestLoss_MatchesLossAndGrad(t *testing.T) {
	b := smallBatch(t, 11, tensor.Float32)
	for _, strategy := range strategies {
		cfg := DefaultConfig()
		cfg.Strategy = strategy

		loss, err := Loss(cfg, b.Logits, b.Targets, b.InputLengths, b.TargetLengths)
		require.NoError(t, err)
		res, err := LossAndGrad(cfg, b.Logits, b.Targets, b.InputLengths, b.TargetLengths)
		require.NoError(t, err)

		assert.Equal(t, tensor.Shape{}, loss.Shape())
		assert.InEpsilon(t, res.Loss.AsFloat32()[0], loss.AsFloat32()[0], 1e-5, strategy.String())
		assert.Equal(t, b.Logits.Shape(), res.Grad.Shape())
	}
}

func TestLossAndGrad_FiniteDifference(t *testing.T) {
	const h = 1e-5
	b := smallBatch(t, 5, tensor.Float64)

	for _, kind := range []Semiring{Log, Prob} {
		t.Run(kind.String(), func(t *testing.T) {
			cfg := Config{Strategy: Sequential, Semiring: kind, Reduction: Mean}
			res, err := LossAndGrad(cfg, b.Logits, b.Targets, b.InputLengths, b.TargetLengths)
			require.NoError(t, err)
			analytic := res.Grad.AsFloat64()

			base := b.Logits.AsFloat64()
			lossAt := func(i int, delta float64) float64 {
				x := append([]float64(nil), base...)
				x[i] += delta
				logits, err := tensor.FromSlice(x, b.Logits.Shape())
				require.NoError(t, err)
				loss, err := Loss(cfg, logits, b.Targets, b.InputLengths, b.TargetLengths)
				require.NoError(t, err)
				return loss.AsFloat64()[0]
			}

			for i := range base {
				numeric := (lossAt(i, h) - lossAt(i, -h)) / (2 * h)
				assert.InDelta(t, numeric, analytic[i], 1e-2*math.Max(1, math.Abs(numeric)), "logit %d", i)
			}
		})
	}
}

func TestLoss_Feasibility(t *testing.T) {
	logits := uniformLogits(t, 5, 1, 3)
	targets := rows(t, []int64{1, 2})
	cfg := Config{Strategy: Batched, Semiring: Log, Reduction: None}

	loss, err := Loss(cfg, logits, targets, ints(t, 5), ints(t, 2))
	require.NoError(t, err)
	assert.False(t, math.IsInf(loss.AsFloat64()[0], 0))
	assert.Greater(t, loss.AsFloat64()[0], 0.0)

	loss, err = Loss(cfg, logits, targets, ints(t, 1), ints(t, 2))
	require.NoError(t, err)
	assert.True(t, math.IsInf(loss.AsFloat64()[0], 1))
}

func TestLossAndGrad_ZeroInfinity(t *testing.T) {
	logits := uniformLogits(t, 5, 2, 3)
	targets := rows(t, []int64{1, 2}, []int64{2, 1})
	inputLengths := ints(t, 1, 5)
	targetLengths := ints(t, 2, 2)

	cfg := Config{Strategy: Parallel, Semiring: Log, Reduction: None, ZeroInfinity: true}
	res, err := LossAndGrad(cfg, logits, targets, inputLengths, targetLengths)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false}, res.Infinite)
	loss := res.Loss.AsFloat64()
	assert.Equal(t, 0.0, loss[0])
	assert.Greater(t, loss[1], 0.0)

	grad := res.Grad.AsFloat64()
	var nonZero bool
	for step := 0; step < 5; step++ {
		for k := 0; k < 3; k++ {
			assert.Equal(t, 0.0, grad[(step*2+0)*3+k], "frame %d class %d", step, k)
			nonZero = nonZero || grad[(step*2+1)*3+k] != 0
		}
	}
	assert.True(t, nonZero)

	cfg.ZeroInfinity = false
	res, err = LossAndGrad(cfg, logits, targets, inputLengths, targetLengths)
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Loss.AsFloat64()[0], 1))
}

func TestLoss_EmptyTarget(t *testing.T) {
	logits := uniformLogits(t, 4, 1, 3)
	_, err := Loss(DefaultConfig(), logits, rows(t, []int64{1, 2}), ints(t, 4), ints(t, 0))
	require.ErrorIs(t, err, ErrEmptyTarget)

	_, err = LossAndGrad(DefaultConfig(), logits, rows(t, []int64{1, 2}), ints(t, 4), ints(t, 0))
	require.ErrorIs(t, err, ErrEmptyTarget)
}

func TestLoss_Errors(t *testing.T) {
	logits := uniformLogits(t, 4, 1, 3)

	_, err := Loss(DefaultConfig(), logits, rows(t, []int64{1, 5}), ints(t, 4), ints(t, 2))
	require.ErrorIs(t, err, ErrLabelOutOfRange)

	_, err = Loss(DefaultConfig(), logits, rows(t, []int64{1, 2}), ints(t, 4, 4), ints(t, 2))
	require.ErrorIs(t, err, ErrShapeMismatch)

	cfg := Config{Strategy: Parallel, Semiring: Prob, Reduction: Mean}
	_, err = LossAndGrad(cfg, tensor.Cast(logits, tensor.Float32), rows(t, []int64{1, 2}), ints(t, 4), ints(t, 2))
	require.ErrorIs(t, err, ErrNoKernelVariant)
}

func TestLoss_UnregisteredVariant(t *testing.T) {
	logits := tensor.Cast(uniformLogits(t, 4, 1, 3), tensor.Float32)
	targets, inputLengths, targetLengths := rows(t, []int64{1, 2}), ints(t, 4), ints(t, 2)

	for _, cfg := range []Config{
		{Strategy: Parallel, Semiring: Prob, Reduction: Mean},
		{Strategy: Strategy(42), Semiring: Log, Reduction: Mean},
	} {
		_, err := Loss(cfg, logits, targets, inputLengths, targetLengths)
		require.ErrorIs(t, err, ErrNoKernelVariant, cfg.Strategy.String())
	}

	cfg := Config{Strategy: Batched, Semiring: Prob, Reduction: Mean}
	_, err := Loss(cfg, logits, targets, inputLengths, targetLengths)
	require.NoError(t, err)
}

func TestRepeatedLabelsForbidSkip(t *testing.T) {
	logits := uniformLogits(t, 4, 1, 3)
	targets := rows(t, []int64{1, 1})
	inputLengths, targetLengths := ints(t, 4), ints(t, 2)

	scores, err := tensor.FromSlice(logSoftmax(logits), logits.Shape())
	require.NoError(t, err)
	in, err := Prepare(scores, targets, inputLengths, targetLengths)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, true, false}, in.RepeatMask.AsBool())

	cfg := Config{Strategy: Sequential, Semiring: Log, Reduction: None}
	masked, err := LogPartition(cfg, in)
	require.NoError(t, err)

	want := exactScore(logSoftmax(logits), 4, 1, 3, 0, 4, []int64{1, 1}, false)
	assert.InEpsilon(t, want, masked.Output().AsFloat64()[0], 1e-9)

	open := *in
	open.RepeatMask, err = tensor.Zeros(in.RepeatMask.Shape(), tensor.Bool)
	require.NoError(t, err)
	skipping, err := LogPartition(cfg, &open)
	require.NoError(t, err)
	assert.Greater(t, skipping.Output().AsFloat64()[0], masked.Output().AsFloat64()[0]+1e-6)

	loss, err := Loss(cfg, logits, targets, inputLengths, targetLengths)
	require.NoError(t, err)
	assert.InEpsilon(t, -want/2, loss.AsFloat64()[0], 1e-9)
}

func TestAlignmentsAndDecode(t *testing.T) {
	b := smallBatch(t, 3, tensor.Float32)
	cfg := DefaultConfig()

	hard, err := ViterbiAlignments(cfg, b.Logits, b.Targets, b.InputLengths, b.TargetLengths)
	require.NoError(t, err)
	paths, err := AlignmentPath(hard, b.InputLengths)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	states, err := States(b.Targets)
	require.NoError(t, err)
	lp := states.Shape()[1]
	for n, path := range paths {
		assert.Len(t, path, int(b.InputLengths.AsInt64()[n]))
		segs := Segments(path, states.AsInt64()[n*lp:(n+1)*lp])
		assert.Len(t, segs, int(b.TargetLengths.AsInt64()[n]))
	}

	soft, err := SoftAlignments(cfg, b.Logits, b.Targets, b.InputLengths, b.TargetLengths, 1)
	require.NoError(t, err)
	assert.Equal(t, hard.Shape(), soft.Shape())

	seqs, err := BestPath(b.Logits, b.InputLengths)
	require.NoError(t, err)
	for n, seq := range seqs {
		assert.Len(t, seq.Frames, int(b.InputLengths.AsInt64()[n]))
		assert.NotContains(t, seq.Labels, int64(Blank))
	}
}
