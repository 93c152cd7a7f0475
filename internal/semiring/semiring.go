// Package semiring defines the three algebras the CTC forward-backward
// recurrence is evaluated in.
//
// A semiring is the 4-tuple (zero, one, mul, sum):
//   - Log:  (-1e38, 0, +, log-sum-exp)  standard CTC in the log domain
//   - Max:  (-1e38, 0, +, max)          Viterbi best-path scores
//   - Prob: (0, 1, ×, Σ)                direct probabilities
//
// The log-domain zero is a large negative constant rather than -Inf so that
// zero ⊗ zero and zero - zero never produce NaN.
package semiring

import (
	"fmt"
	"strings"

	"github.com/born-ml/ctc/internal/tensor"
)

// NegInf is the additive identity of the Log and Max semirings.
const NegInf = -1e38

// Kind selects one of the fixed semiring instances.
type Kind int

// Supported semirings.
const (
	Log Kind = iota
	Max
	Prob
)

// String returns the semiring name.
func (k Kind) String() string {
	switch k {
	case Log:
		return "log"
	case Max:
		return "max"
	case Prob:
		return "prob"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses a semiring name as produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "log":
		return Log, nil
	case "max", "viterbi":
		return Max, nil
	case "prob", "direct":
		return Prob, nil
	default:
		return 0, fmt.Errorf("semiring: unknown kind %q", s)
	}
}

// Semiring is the algebra parameterizing the recurrence.
//
// Invariants (within float tolerance):
//
//	Sum([x]) == x
//	Mul(x, One()) == x
//	Mul(x, Zero()) == Zero()
type Semiring[F tensor.Float] interface {
	// Kind identifies the instance.
	Kind() Kind
	// Zero is the additive identity and multiplicative absorbing element.
	Zero() F
	// One is the multiplicative identity.
	One() F
	// Mul combines two path weights.
	Mul(a, b F) F
	// Sum3 aggregates the three predecessor terms of one lattice state.
	Sum3(a, b, c F) F
	// Sum aggregates along an axis passed as a contiguous slice.
	// The empty sum is Zero.
	Sum(xs []F) F
}

// For returns the semiring instance for kind.
func For[F tensor.Float](kind Kind) Semiring[F] {
	switch kind {
	case Log:
		return logSemiring[F]{}
	case Max:
		return maxSemiring[F]{}
	case Prob:
		return probSemiring[F]{}
	default:
		panic(fmt.Sprintf("semiring: unknown kind %d", int(kind)))
	}
}

// MulInto computes dst[i] = a[i] ⊗ b[i].
func MulInto[F tensor.Float](sr Semiring[F], dst, a, b []F) {
	for i := range dst {
		dst[i] = sr.Mul(a[i], b[i])
	}
}

// Sum3Into computes dst[i] = a[i] ⊕ b[i] ⊕ c[i].
// dst may alias any of the inputs.
func Sum3Into[F tensor.Float](sr Semiring[F], dst, a, b, c []F) {
	for i := range dst {
		dst[i] = sr.Sum3(a[i], b[i], c[i])
	}
}
