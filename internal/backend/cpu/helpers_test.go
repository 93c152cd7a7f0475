package cpu

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/lattice"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

type problemSize struct {
	T, N, C, L int
	seed       uint64
}

// randomProblem builds log-softmax (or softmax for Prob) scores and a
// random target batch, then prepares the lattice.
func randomProblem(t testing.TB, size problemSize, dtype tensor.DataType, kind semiring.Kind) *engine.Problem {
	t.Helper()
	rng := rand.New(rand.NewPCG(size.seed, 7))

	scores := make([]float64, size.T*size.N*size.C)
	for i := 0; i < size.T*size.N; i++ {
		row := scores[i*size.C : (i+1)*size.C]
		m := math.Inf(-1)
		for c := range row {
			row[c] = rng.NormFloat64()
			m = max(m, row[c])
		}
		var z float64
		for _, v := range row {
			z += math.Exp(v - m)
		}
		for c := range row {
			row[c] -= m + math.Log(z)
			if kind == semiring.Prob {
				row[c] = math.Exp(row[c])
			}
		}
	}

	targets := make([]int64, size.N*size.L)
	for i := range targets {
		targets[i] = 1 + rng.Int64N(int64(size.C-1))
	}
	inputLengths := make([]int64, size.N)
	targetLengths := make([]int64, size.N)
	for i := 0; i < size.N; i++ {
		inputLengths[i] = int64(size.T/2 + rng.IntN(size.T-size.T/2+1))
		targetLengths[i] = 1 + rng.Int64N(int64(size.L))
	}

	s, err := tensor.FromSlice(scores, tensor.Shape{size.T, size.N, size.C})
	require.NoError(t, err)
	s = tensor.Cast(s, dtype)
	tg, err := tensor.FromSlice(targets, tensor.Shape{size.N, size.L})
	require.NoError(t, err)
	il, err := tensor.FromSlice(inputLengths, tensor.Shape{size.N})
	require.NoError(t, err)
	tl, err := tensor.FromSlice(targetLengths, tensor.Shape{size.N})
	require.NoError(t, err)

	in, err := lattice.Prepare(s, tg, il, tl)
	require.NoError(t, err)
	return engine.NewProblem(in, kind)
}

// assertClose compares element-wise with a relative tolerance.
func assertClose(t *testing.T, want, got []float64, rtol float64, msg string) {
	t.Helper()
	require.Len(t, got, len(want), msg)
	for i := range want {
		a, b := want[i], got[i]
		if a == b {
			continue
		}
		if math.Abs(a-b) > rtol*max(math.Abs(a), math.Abs(b))+1e-30 {
			t.Fatalf("%s: index %d: want %g, got %g", msg, i, a, b)
		}
	}
}
