// Package labels encodes transcripts as CTC target sequences.
//
// Class 0 is always the blank; vocabulary entries occupy classes 1..C-1.
package labels

import (
	"fmt"

	"github.com/born-ml/ctc/internal/lattice"
	"github.com/born-ml/ctc/internal/tensor"
)

// Vocabulary maps text to class indices and back, excluding the blank.
type Vocabulary interface {
	// Encode converts text to classes in [1, NumClasses()).
	Encode(text string) ([]int64, error)
	// Decode converts classes back to text.
	Decode(classes []int64) (string, error)
	// NumClasses is the alphabet size C, blank included.
	NumClasses() int
	// Name identifies the vocabulary.
	Name() string
}

// Batch encodes texts into padded targets [N, Lmax] and target lengths [N].
// Padding uses the blank class and is never read by the loss.
func Batch(v Vocabulary, texts []string) (*tensor.RawTensor, *tensor.RawTensor, error) {
	if len(texts) == 0 {
		return nil, nil, fmt.Errorf("labels: empty batch")
	}
	encoded := make([][]int64, len(texts))
	width := 0
	for i, text := range texts {
		classes, err := v.Encode(text)
		if err != nil {
			return nil, nil, fmt.Errorf("labels: text %d: %w", i, err)
		}
		if len(classes) == 0 {
			return nil, nil, fmt.Errorf("labels: text %d encodes to nothing: %w", i, lattice.ErrEmptyTarget)
		}
		encoded[i] = classes
		width = max(width, len(classes))
	}

	rows := make([][]int64, len(texts))
	lengths := make([]int64, len(texts))
	for i, classes := range encoded {
		row := make([]int64, width)
		copy(row, classes)
		rows[i] = row
		lengths[i] = int64(len(classes))
	}

	targets, err := tensor.FromRows(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("labels: %w", err)
	}
	targetLengths, err := tensor.FromSlice(lengths, tensor.Shape{len(lengths)})
	if err != nil {
		return nil, nil, fmt.Errorf("labels: %w", err)
	}
	return targets, targetLengths, nil
}
