// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ctc

import (
	"math"

	"github.com/born-ml/ctc/internal/decode"
	"github.com/born-ml/ctc/internal/tensor"
)

// logSoftmax normalises each class row of a [T, N, C] tensor.
func logSoftmax(logits *tensor.RawTensor) []float64 {
	c := logits.Shape()[2]
	x := tensor.Float64s(logits)
	out := make([]float64, len(x))
	for i := 0; i < len(x); i += c {
		m := math.Inf(-1)
		for _, v := range x[i : i+c] {
			m = math.Max(m, v)
		}
		var z float64
		for _, v := range x[i : i+c] {
			z += math.Exp(v - m)
		}
		for k := 0; k < c; k++ {
			out[i+k] = x[i+k] - m - math.Log(z)
		}
	}
	return out
}

// exactScore enumerates every frame labelling of element n that collapses
// to target and combines their log-probabilities: log-sum-exp when viterbi
// is false, max otherwise. Returns -Inf when no labelling matches.
func exactScore(logp []float64, T, N, C, n, inputLength int, target []int64, viterbi bool) float64 {
	frames := make([]int, inputLength)
	best := math.Inf(-1)
	var terms []float64
	for {
		if collapsesTo(frames, target) {
			var s float64
			for t, k := range frames {
				s += logp[(t*N+n)*C+k]
			}
			terms = append(terms, s)
			best = math.Max(best, s)
		}
		i := 0
		for ; i < inputLength; i++ {
			frames[i]++
			if frames[i] < C {
				break
			}
			frames[i] = 0
		}
		if i == inputLength {
			break
		}
	}
	if viterbi || math.IsInf(best, -1) {
		return best
	}
	var z float64
	for _, s := range terms {
		z += math.Exp(s - best)
	}
	return best + math.Log(z)
}

func collapsesTo(frames []int, target []int64) bool {
	got := decode.Collapse(frames, Blank)
	if len(got) != len(target) {
		return false
	}
	for i := range got {
		if got[i] != target[i] {
			return false
		}
	}
	return true
}
