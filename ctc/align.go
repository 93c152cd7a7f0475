// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ctc

import (
	"github.com/born-ml/ctc/internal/align"
	"github.com/born-ml/ctc/internal/decode"
	"github.com/born-ml/ctc/internal/tensor"
)

// Segment is a run of frames aligned to one target label.
type Segment = align.Segment

// Sequence is a greedy decoding of one batch element.
type Sequence = decode.Sequence

// ViterbiAlignments returns one-hot best-path alignments [T, N, Lp].
// cfg.Semiring is ignored.
func ViterbiAlignments(cfg Config, logits, targets, inputLengths, targetLengths *tensor.RawTensor) (*tensor.RawTensor, error) {
	return align.Viterbi(cfg.backend(), cfg.Strategy, logits, targets, inputLengths, targetLengths)
}

// SoftAlignments returns posterior state occupancy [T, N, Lp] at inverse
// temperature beta. cfg.Semiring is ignored.
func SoftAlignments(cfg Config, logits, targets, inputLengths, targetLengths *tensor.RawTensor, beta float64) (*tensor.RawTensor, error) {
	return align.Soft(cfg.backend(), cfg.Strategy, logits, targets, inputLengths, targetLengths, beta)
}

// States returns the blank-interleaved lattice [N, 2L+1] for targets.
func States(targets *tensor.RawTensor) (*tensor.RawTensor, error) {
	return align.States(targets)
}

// AlignmentPath reads the state index of every valid frame off a one-hot
// alignment.
func AlignmentPath(alignment, inputLengths *tensor.RawTensor) ([][]int, error) {
	return align.Path(alignment, inputLengths)
}

// Segments groups a state path into label spans. states is one row of
// States.
func Segments(path []int, states []int64) []Segment {
	return align.Segments(path, states)
}

// BestPath greedily decodes logits [T, N, C], collapsing repeats and
// dropping blanks.
func BestPath(logits, inputLengths *tensor.RawTensor) ([]Sequence, error) {
	return decode.Greedy(logits, inputLengths, Blank)
}
