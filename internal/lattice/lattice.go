// Package lattice builds the CTC state lattice from target label sequences.
//
// For a target of length L the lattice has 2L+1 states: blanks at the even
// indices and the labels, in order, at the odd ones. A batch is padded to
// Lp = 2*Lmax+1 states.
//
//	targets:  [a b b]
//	states:   [_ a _ b _ b _]
//	repeat:   [0 0 1 0 1 1 1]  (skip s-2 -> s forbidden)
//
// The repeat mask is true wherever states[s] == states[s-2], which covers
// every blank past the first and any label that immediately repeats the one
// before it: in both cases the path must not jump over the state in between.
package lattice

import (
	"errors"
	"fmt"

	"github.com/born-ml/ctc/internal/tensor"
)

// Blank is the class index reserved for the blank symbol.
const Blank = 0

// Errors returned by the builder. They are wrapped with context, so compare
// with errors.Is.
var (
	ErrShapeMismatch   = errors.New("lattice: shape mismatch")
	ErrEmptyTarget     = errors.New("lattice: target length 0 is not supported")
	ErrLabelOutOfRange = errors.New("lattice: label index out of range")
)

// Inputs is everything the forward-backward engine consumes.
type Inputs struct {
	StateScores  *tensor.RawTensor // [T, N, Lp] float32 or float64
	RepeatMask   *tensor.RawTensor // [N, Lp] bool
	FinalStates  *tensor.RawTensor // [N, 2] int64
	InputLengths *tensor.RawTensor // [N] int64

	// States is the interleaved lattice the scores were gathered with.
	// It is kept so gradients can be scattered back onto classes.
	States *tensor.RawTensor // [N, Lp] int64
}

// Dims returns (T, N, Lp).
func (in *Inputs) Dims() (int, int, int) {
	s := in.StateScores.Shape()
	return s[0], s[1], s[2]
}

// WithStateScores returns a copy of in that uses stateScores instead.
// The remaining tensors are shared; they are never mutated after Prepare.
func (in *Inputs) WithStateScores(stateScores *tensor.RawTensor) *Inputs {
	out := *in
	out.StateScores = stateScores
	return &out
}

// InterleaveBlanks expands targets [N, L] into the state lattice [N, 2L+1],
// blank at even positions and targets[:, i] at position 2i+1.
// Label values are not validated here.
func InterleaveBlanks(targets *tensor.RawTensor, blank int) (*tensor.RawTensor, error) {
	if targets.DType() != tensor.Int64 || len(targets.Shape()) != 2 {
		return nil, fmt.Errorf("interleave blanks: targets must be [N, L] int64, got %s: %w", targets, ErrShapeMismatch)
	}
	n, l := targets.Shape()[0], targets.Shape()[1]
	lp := 2*l + 1

	states := tensor.MustRaw(tensor.Shape{n, lp}, tensor.Int64, tensor.CPU)
	src := targets.AsInt64()
	dst := states.AsInt64()
	for b := 0; b < n; b++ {
		row := dst[b*lp : (b+1)*lp]
		for s := range row {
			row[s] = int64(blank)
		}
		for i := 0; i < l; i++ {
			row[2*i+1] = src[b*l+i]
		}
	}
	return states, nil
}

// RepeatMask marks states equal to the state two positions earlier.
// Positions 0 and 1 have no earlier pair and are always false.
func RepeatMask(states *tensor.RawTensor) *tensor.RawTensor {
	n, lp := states.Shape()[0], states.Shape()[1]
	mask := tensor.MustRaw(tensor.Shape{n, lp}, tensor.Bool, tensor.CPU)
	src := states.AsInt64()
	dst := mask.AsBool()
	for b := 0; b < n; b++ {
		for s := 2; s < lp; s++ {
			dst[b*lp+s] = src[b*lp+s] == src[b*lp+s-2]
		}
	}
	return mask
}

// BackwardRepeatMask is the repeat mask as seen by the backward recurrence:
// shifted left by two, so entry s forbids the skip s -> s+2.
// The two trailing positions take the (always false) leading entries.
func BackwardRepeatMask(mask *tensor.RawTensor) *tensor.RawTensor {
	n, lp := mask.Shape()[0], mask.Shape()[1]
	out := tensor.MustRaw(tensor.Shape{n, lp}, tensor.Bool, tensor.CPU)
	src := mask.AsBool()
	dst := out.AsBool()
	for b := 0; b < n; b++ {
		for s := 0; s < lp; s++ {
			dst[b*lp+s] = src[b*lp+(s+2)%lp]
		}
	}
	return out
}

// FinalStates returns [N, 2] with the two admissible terminal states
// (2*targetLength-1, 2*targetLength) of every batch element.
func FinalStates(targetLengths *tensor.RawTensor) *tensor.RawTensor {
	lengths := targetLengths.AsInt64()
	out := tensor.MustRaw(tensor.Shape{len(lengths), 2}, tensor.Int64, tensor.CPU)
	dst := out.AsInt64()
	for i, l := range lengths {
		dst[2*i] = 2*l - 1
		dst[2*i+1] = 2 * l
	}
	return out
}

// MinInputLength returns the fewest timesteps that can emit labels: one
// frame per label plus a separating blank for each immediate repeat.
func MinInputLength(labels []int64) int {
	n := len(labels)
	for i := 1; i < len(labels); i++ {
		if labels[i] == labels[i-1] {
			n++
		}
	}
	return n
}

// Prepare builds the lattice for targets and gathers per-state scores.
//
// Shapes:
//   - scores:        [T, N, C] float32 or float64
//   - targets:       [N, L] int64, labels in [1, C)
//   - inputLengths:  [N] int64, each in [0, T]
//   - targetLengths: [N] int64, each in [1, L]
//
// Only the true target lengths are used to locate final states, so padding
// past a target's length never influences its loss.
func Prepare(scores, targets, inputLengths, targetLengths *tensor.RawTensor) (*Inputs, error) {
	if err := validate(scores, targets, inputLengths, targetLengths); err != nil {
		return nil, err
	}

	states, err := InterleaveBlanks(targets, Blank)
	if err != nil {
		return nil, err
	}
	stateScores, err := GatherStates(scores, states)
	if err != nil {
		return nil, err
	}

	return &Inputs{
		StateScores:  stateScores,
		RepeatMask:   RepeatMask(states),
		FinalStates:  FinalStates(targetLengths),
		InputLengths: inputLengths,
		States:       states,
	}, nil
}

func validate(scores, targets, inputLengths, targetLengths *tensor.RawTensor) error {
	if !scores.DType().IsFloat() || len(scores.Shape()) != 3 {
		return fmt.Errorf("prepare: scores must be [T, N, C] float, got %s: %w", scores, ErrShapeMismatch)
	}
	T, n := scores.Shape()[0], scores.Shape()[1]

	if targets.DType() != tensor.Int64 || len(targets.Shape()) != 2 || targets.Shape()[0] != n {
		return fmt.Errorf("prepare: targets must be [%d, L] int64, got %s: %w", n, targets, ErrShapeMismatch)
	}
	l := targets.Shape()[1]

	lengths := []struct {
		name string
		v    *tensor.RawTensor
	}{
		{"input lengths", inputLengths},
		{"target lengths", targetLengths},
	}
	for _, length := range lengths {
		if v := length.v; v.DType() != tensor.Int64 || len(v.Shape()) != 1 || v.Shape()[0] != n {
			return fmt.Errorf("prepare: %s must be [%d] int64, got %s: %w", length.name, n, v, ErrShapeMismatch)
		}
	}

	for i, il := range inputLengths.AsInt64() {
		if il < 0 || il > int64(T) {
			return fmt.Errorf("prepare: input length %d of element %d outside [0, %d]: %w", il, i, T, ErrShapeMismatch)
		}
	}
	for i, tl := range targetLengths.AsInt64() {
		if tl == 0 {
			return fmt.Errorf("prepare: element %d: %w", i, ErrEmptyTarget)
		}
		if tl < 0 || tl > int64(l) {
			return fmt.Errorf("prepare: target length %d of element %d outside [1, %d]: %w", tl, i, l, ErrShapeMismatch)
		}
	}
	return nil
}
