package align

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ctc/internal/backend/cpu"
	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/tensor"
)

type batch struct {
	logits, targets, inputLengths, targetLengths *tensor.RawTensor
	lp                                           int
}

func fixture(t *testing.T) batch {
	t.Helper()
	T, n, c := 12, 2, 5
	data := make([]float64, T*n*c)
	for i := range data {
		data[i] = math.Cos(float64(i)*0.9) * 2
	}
	logits, err := tensor.FromSlice(data, tensor.Shape{T, n, c})
	require.NoError(t, err)
	targets, err := tensor.FromRows([][]int64{{2, 2, 4}, {1, 3, 1}})
	require.NoError(t, err)
	il, err := tensor.FromSlice([]int64{12, 9}, tensor.Shape{2})
	require.NoError(t, err)
	tl, err := tensor.FromSlice([]int64{3, 2}, tensor.Shape{2})
	require.NoError(t, err)
	return batch{logits, targets, il, tl, 7}
}

func TestViterbi_ValidPath(t *testing.T) {
	b := fixture(t)
	for _, st := range []engine.Strategy{engine.Sequential, engine.Batched, engine.Parallel} {
		t.Run(st.String(), func(t *testing.T) {
			a, err := Viterbi(cpu.New(), st, b.logits, b.targets, b.inputLengths, b.targetLengths)
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{12, 2, b.lp}, a.Shape())

			paths, err := Path(a, b.inputLengths)
			require.NoError(t, err)
			states, err := States(b.targets)
			require.NoError(t, err)

			for n, path := range paths {
				tl := int(b.targetLengths.AsInt64()[n])
				row := states.AsInt64()[n*b.lp : (n+1)*b.lp]
				assert.Len(t, path, int(b.inputLengths.AsInt64()[n]))

				assert.LessOrEqual(t, path[0], 1, "path must start at the first blank or label")
				last := path[len(path)-1]
				assert.Contains(t, []int{2*tl - 1, 2 * tl}, last, "path must end in a final state")
				for i := 1; i < len(path); i++ {
					d := path[i] - path[i-1]
					assert.True(t, d >= 0 && d <= 2, "non-monotone step %d -> %d", path[i-1], path[i])
					if d == 2 {
						assert.NotEqual(t, row[path[i]], row[path[i-1]], "skip over a required blank")
					}
				}

				segs := Segments(path, row)
				require.Len(t, segs, tl, "each label must be visited exactly once")
				for i, seg := range segs {
					assert.Equal(t, i, seg.Index)
					assert.Equal(t, row[2*i+1], seg.Label)
				}
			}
		})
	}
}

func TestViterbi_OneHotAndMasked(t *testing.T) {
	b := fixture(t)
	a, err := Viterbi(cpu.New(), engine.Batched, b.logits, b.targets, b.inputLengths, b.targetLengths)
	require.NoError(t, err)

	occ := a.AsFloat64()
	for ti := 0; ti < 12; ti++ {
		for n := 0; n < 2; n++ {
			var sum float64
			for _, v := range occ[(ti*2+n)*b.lp : (ti*2+n+1)*b.lp] {
				sum += v
			}
			if int64(ti) < b.inputLengths.AsInt64()[n] {
				assert.Equal(t, 1.0, sum)
			} else {
				assert.Equal(t, 0.0, sum)
			}
		}
	}
}

func TestSoft_SumsToOne(t *testing.T) {
	b := fixture(t)
	for _, beta := range []float64{0.5, 1, 4} {
		a, err := Soft(cpu.New(), engine.Parallel, b.logits, b.targets, b.inputLengths, b.targetLengths, beta)
		require.NoError(t, err)

		occ := a.AsFloat64()
		for ti := 0; ti < int(b.inputLengths.AsInt64()[1]); ti++ {
			var sum float64
			for _, v := range occ[(ti*2+1)*b.lp : (ti*2+2)*b.lp] {
				assert.GreaterOrEqual(t, v, 0.0)
				sum += v
			}
			assert.InDelta(t, 1.0, sum, 1e-9, "beta=%g t=%d", beta, ti)
		}
	}
}

func TestViterbi_UnknownVariant(t *testing.T) {
	b := fixture(t)
	_, err := Viterbi(cpu.New(), engine.Strategy(9), b.logits, b.targets, b.inputLengths, b.targetLengths)
	assert.ErrorIs(t, err, engine.ErrNoKernelVariant)
}

func TestSegments(t *testing.T) {
	// states for targets [5 5]: [_ 5 _ 5 _]
	states := []int64{0, 5, 0, 5, 0}
	path := []int{0, 1, 1, 2, 3, 3, 3, 4}

	got := Segments(path, states)
	assert.Equal(t, []Segment{
		{Label: 5, Index: 0, Start: 1, End: 3},
		{Label: 5, Index: 1, Start: 4, End: 7},
	}, got)

	assert.Empty(t, Segments([]int{0, 0, 0}, states))
}

func TestPath_ShapeMismatch(t *testing.T) {
	a, err := tensor.Zeros(tensor.Shape{3, 2, 5}, tensor.Float64)
	require.NoError(t, err)
	il, err := tensor.FromSlice([]int64{3}, tensor.Shape{1})
	require.NoError(t, err)

	_, err = Path(a, il)
	assert.Error(t, err)
}
