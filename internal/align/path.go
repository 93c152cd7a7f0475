package align

import (
	"fmt"

	"github.com/born-ml/ctc/internal/tensor"
)

// Path reduces an alignment [T, N, Lp] to the most occupied state per
// frame. Element n's path has input_length[n] entries.
func Path(alignment, inputLengths *tensor.RawTensor) ([][]int, error) {
	shape := alignment.Shape()
	if len(shape) != 3 || inputLengths.NumElements() != shape[1] {
		return nil, fmt.Errorf("path: alignment %v does not match %d input lengths", shape, inputLengths.NumElements())
	}
	T, n, lp := shape[0], shape[1], shape[2]
	occ := tensor.Float64s(alignment)
	lengths := inputLengths.AsInt64()

	paths := make([][]int, n)
	for b := 0; b < n; b++ {
		steps := min(int(lengths[b]), T)
		path := make([]int, steps)
		for t := 0; t < steps; t++ {
			row := occ[(t*n+b)*lp : (t*n+b+1)*lp]
			best := 0
			for s := 1; s < lp; s++ {
				if row[s] > row[best] {
					best = s
				}
			}
			path[t] = best
		}
		paths[b] = path
	}
	return paths, nil
}

// Segment is a run of frames spent on one target label.
type Segment struct {
	Label int64 // class index
	Index int   // position of the label in the target sequence
	Start int   // first frame
	End   int   // one past the last frame
}

// Segments groups a state path into label segments, dropping blank frames.
// states is one element's row of the interleaved lattice.
func Segments(path []int, states []int64) []Segment {
	var out []Segment
	for t := 0; t < len(path); {
		s := path[t]
		end := t + 1
		for end < len(path) && path[end] == s {
			end++
		}
		if s%2 == 1 {
			out = append(out, Segment{Label: states[s], Index: s / 2, Start: t, End: end})
		}
		t = end
	}
	return out
}
