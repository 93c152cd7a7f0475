// Package decode turns per-frame class scores into label sequences.
package decode

import (
	"fmt"

	"github.com/born-ml/ctc/internal/tensor"
)

// Sequence is one decoded batch element.
type Sequence struct {
	Frames []int     // argmax class per frame
	Scores []float64 // score of the argmax class per frame
	Labels []int64   // Frames with repeats merged and blanks dropped
}

// Collapse merges consecutive repeats and then removes blanks, the CTC
// many-to-one mapping from frame labels to a label sequence.
func Collapse(frames []int, blank int) []int64 {
	out := make([]int64, 0, len(frames))
	prev := -1
	for _, c := range frames {
		if c != prev && c != blank {
			out = append(out, int64(c))
		}
		prev = c
	}
	return out
}

// Greedy performs best-path decoding of scores [T, N, C] (logits,
// log-probabilities or probabilities; only the per-frame argmax matters).
// Element n is decoded over its first inputLengths[n] frames.
func Greedy(scores, inputLengths *tensor.RawTensor, blank int) ([]Sequence, error) {
	shape := scores.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("greedy decode: scores must be [T, N, C], got %v", shape)
	}
	T, n, c := shape[0], shape[1], shape[2]
	if inputLengths.DType() != tensor.Int64 || inputLengths.NumElements() != n {
		return nil, fmt.Errorf("greedy decode: need %d int64 input lengths, got %s", n, inputLengths)
	}
	if blank < 0 || blank >= c {
		return nil, fmt.Errorf("greedy decode: blank %d outside [0, %d)", blank, c)
	}

	data := tensor.Float64s(scores)
	lengths := inputLengths.AsInt64()
	out := make([]Sequence, n)
	for b := 0; b < n; b++ {
		steps := min(int(lengths[b]), T)
		seq := Sequence{Frames: make([]int, steps), Scores: make([]float64, steps)}
		for t := 0; t < steps; t++ {
			row := data[(t*n+b)*c : (t*n+b+1)*c]
			best := 0
			for k := 1; k < c; k++ {
				if row[k] > row[best] {
					best = k
				}
			}
			seq.Frames[t] = best
			seq.Scores[t] = row[best]
		}
		seq.Labels = Collapse(seq.Frames, blank)
		out[b] = seq
	}
	return out, nil
}
