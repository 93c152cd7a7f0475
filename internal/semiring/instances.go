package semiring

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/ctc/internal/tensor"
)

type logSemiring[F tensor.Float] struct{}

func (logSemiring[F]) Kind() Kind   { return Log }
func (logSemiring[F]) Zero() F      { return F(NegInf) }
func (logSemiring[F]) One() F       { return 0 }
func (logSemiring[F]) Mul(a, b F) F { return a + b }

func (logSemiring[F]) Sum3(a, b, c F) F {
	m := max(a, b, c)
	x, y, z, mf := float64(a), float64(b), float64(c), float64(m)
	return F(mf + math.Log(math.Exp(x-mf)+math.Exp(y-mf)+math.Exp(z-mf)))
}

func (logSemiring[F]) Sum(xs []F) F {
	if len(xs) == 0 {
		return F(NegInf)
	}
	if f64, ok := any(xs).([]float64); ok {
		return F(floats.LogSumExp(f64))
	}
	m := xs[0]
	for _, x := range xs[1:] {
		m = max(m, x)
	}
	mf := float64(m)
	var acc float64
	for _, x := range xs {
		acc += math.Exp(float64(x) - mf)
	}
	return F(mf + math.Log(acc))
}

type maxSemiring[F tensor.Float] struct{}

func (maxSemiring[F]) Kind() Kind       { return Max }
func (maxSemiring[F]) Zero() F          { return F(NegInf) }
func (maxSemiring[F]) One() F           { return 0 }
func (maxSemiring[F]) Mul(a, b F) F     { return a + b }
func (maxSemiring[F]) Sum3(a, b, c F) F { return max(a, b, c) }

func (maxSemiring[F]) Sum(xs []F) F {
	m := F(NegInf)
	for _, x := range xs {
		m = max(m, x)
	}
	return m
}

type probSemiring[F tensor.Float] struct{}

func (probSemiring[F]) Kind() Kind       { return Prob }
func (probSemiring[F]) Zero() F          { return 0 }
func (probSemiring[F]) One() F           { return 1 }
func (probSemiring[F]) Mul(a, b F) F     { return a * b }
func (probSemiring[F]) Sum3(a, b, c F) F { return a + b + c }

func (probSemiring[F]) Sum(xs []F) F {
	var s F
	for _, x := range xs {
		s += x
	}
	return s
}
