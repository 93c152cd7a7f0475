package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ctc/internal/tensor"
)

func mustRows(t *testing.T, rows [][]int64) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromRows(rows)
	require.NoError(t, err)
	return r
}

func mustInts(t *testing.T, v ...int64) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(v, tensor.Shape{len(v)})
	require.NoError(t, err)
	return r
}

func TestInterleaveBlanks(t *testing.T) {
	targets := mustRows(t, [][]int64{{1, 2}, {3, 3}})

	states, err := InterleaveBlanks(targets, Blank)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{2, 5}, states.Shape())
	assert.Equal(t, []int64{0, 1, 0, 2, 0, 0, 3, 0, 3, 0}, states.AsInt64())
}

func TestInterleaveBlanksRejectsFloat(t *testing.T) {
	f, err := tensor.Zeros(tensor.Shape{1, 2}, tensor.Float32)
	require.NoError(t, err)

	_, err = InterleaveBlanks(f, Blank)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRepeatMask(t *testing.T) {
	tests := []struct {
		name    string
		targets [][]int64
		want    []bool
	}{
		{"distinct", [][]int64{{1, 2}}, []bool{false, false, true, false, true}},
		{"repeat", [][]int64{{1, 1}}, []bool{false, false, true, true, true}},
		{"single", [][]int64{{4}}, []bool{false, false, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			states, err := InterleaveBlanks(mustRows(t, tt.targets), Blank)
			require.NoError(t, err)
			assert.Equal(t, tt.want, RepeatMask(states).AsBool())
		})
	}
}

func TestBackwardRepeatMask(t *testing.T) {
	states, err := InterleaveBlanks(mustRows(t, [][]int64{{1, 1}}), Blank)
	require.NoError(t, err)

	bwd := BackwardRepeatMask(RepeatMask(states))
	// Forward [F F T T T] shifted left by two.
	assert.Equal(t, []bool{true, true, true, false, false}, bwd.AsBool())
}

func TestFinalStates(t *testing.T) {
	got := FinalStates(mustInts(t, 1, 3, 2))
	assert.Equal(t, tensor.Shape{3, 2}, got.Shape())
	assert.Equal(t, []int64{1, 2, 5, 6, 3, 4}, got.AsInt64())
}

func TestMinInputLength(t *testing.T) {
	assert.Equal(t, 0, MinInputLength(nil))
	assert.Equal(t, 2, MinInputLength([]int64{1, 2}))
	assert.Equal(t, 3, MinInputLength([]int64{1, 1}))
	assert.Equal(t, 5, MinInputLength([]int64{1, 1, 1}))
	assert.Equal(t, 4, MinInputLength([]int64{1, 2, 2}))
}

func TestGatherStates(t *testing.T) {
	// T=2, N=1, C=3 with distinguishable values.
	scores, err := tensor.FromSlice([]float64{
		0.0, 0.1, 0.2,
		1.0, 1.1, 1.2,
	}, tensor.Shape{2, 1, 3})
	require.NoError(t, err)
	states := mustRows(t, [][]int64{{0, 2, 0}})

	got, err := GatherStates(scores, states)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{2, 1, 3}, got.Shape())
	assert.Equal(t, []float64{0.0, 0.2, 0.0, 1.0, 1.2, 1.0}, got.AsFloat64())
}

func TestGatherStatesOutOfRange(t *testing.T) {
	scores, err := tensor.Zeros(tensor.Shape{2, 1, 3}, tensor.Float32)
	require.NoError(t, err)

	_, err = GatherStates(scores, mustRows(t, [][]int64{{0, 3, 0}}))
	assert.ErrorIs(t, err, ErrLabelOutOfRange)

	_, err = GatherStates(scores, mustRows(t, [][]int64{{0, -1, 0}}))
	assert.ErrorIs(t, err, ErrLabelOutOfRange)
}

func TestScatterStatesIsAdjoint(t *testing.T) {
	states := mustRows(t, [][]int64{{0, 1, 0, 1, 0}})
	grad, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5}, tensor.Shape{1, 1, 5})
	require.NoError(t, err)

	got, err := ScatterStates(grad, states, 3)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 1, 3}, got.Shape())
	assert.Equal(t, []float32{9, 6, 0}, got.AsFloat32())
}

func TestPrepare(t *testing.T) {
	T, c := 4, 3
	scores, err := tensor.Zeros(tensor.Shape{T, 2, c}, tensor.Float64)
	require.NoError(t, err)
	targets := mustRows(t, [][]int64{{1, 2}, {2, 0}})

	in, err := Prepare(scores, targets, mustInts(t, 4, 3), mustInts(t, 2, 1))
	require.NoError(t, err)

	gotT, gotN, gotLp := in.Dims()
	assert.Equal(t, []int{4, 2, 5}, []int{gotT, gotN, gotLp})
	assert.Equal(t, []int64{1, 2, 1, 2}, in.FinalStates.AsInt64())
	assert.Equal(t, tensor.Shape{2, 5}, in.RepeatMask.Shape())
	assert.Equal(t, tensor.Shape{T, 2, 5}, in.StateScores.Shape())
}

func TestPrepareErrors(t *testing.T) {
	scores, err := tensor.Zeros(tensor.Shape{4, 1, 3}, tensor.Float32)
	require.NoError(t, err)
	targets := mustRows(t, [][]int64{{1, 2}})

	tests := []struct {
		name          string
		targets       *tensor.RawTensor
		inputLengths  *tensor.RawTensor
		targetLengths *tensor.RawTensor
		want          error
	}{
		{"empty target", targets, mustInts(t, 4), mustInts(t, 0), ErrEmptyTarget},
		{"target too long", targets, mustInts(t, 4), mustInts(t, 3), ErrShapeMismatch},
		{"input too long", targets, mustInts(t, 5), mustInts(t, 2), ErrShapeMismatch},
		{"batch mismatch", targets, mustInts(t, 4, 4), mustInts(t, 2), ErrShapeMismatch},
		{"label out of range", mustRows(t, [][]int64{{1, 7}}), mustInts(t, 4), mustInts(t, 2), ErrLabelOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(scores, tt.targets, tt.inputLengths, tt.targetLengths)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPrepareReportsInputLengthsFirst(t *testing.T) {
	scores, err := tensor.Zeros(tensor.Shape{4, 1, 3}, tensor.Float32)
	require.NoError(t, err)
	targets := mustRows(t, [][]int64{{1, 2}})

	for i := 0; i < 20; i++ {
		_, err := Prepare(scores, targets, mustInts(t, 4, 4), mustInts(t, 2, 2))
		require.ErrorIs(t, err, ErrShapeMismatch)
		assert.Contains(t, err.Error(), "input lengths")
	}
}
