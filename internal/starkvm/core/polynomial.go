package core

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// Polynomial is a dense univariate polynomial, coefficient i holding
// the coefficient of x^i. Trailing zeros are permitted; Degree ignores
// them.
type Polynomial struct {
	Coefficients []goldilocks.Element
}

// NewPolynomial wraps a coefficient slice without copying.
func NewPolynomial(coefficients []goldilocks.Element) Polynomial {
	return Polynomial{Coefficients: coefficients}
}

// ZeroPolynomial returns the zero polynomial.
func ZeroPolynomial() Polynomial {
	return Polynomial{}
}

// Degree returns the degree, or -1 for the zero polynomial.
func (p Polynomial) Degree() int {
	for i := len(p.Coefficients) - 1; i >= 0; i-- {
		if !p.Coefficients[i].IsZero() {
			return i
		}
	}
	return -1
}

// IsZero reports whether every coefficient is zero.
func (p Polynomial) IsZero() bool {
	return p.Degree() == -1
}

// EvaluateAt evaluates the polynomial at x by Horner's rule.
func (p Polynomial) EvaluateAt(x goldilocks.Element) goldilocks.Element {
	var acc goldilocks.Element
	for i := len(p.Coefficients) - 1; i >= 0; i-- {
		acc.Mul(&acc, &x)
		acc.Add(&acc, &p.Coefficients[i])
	}
	return acc
}

// Add returns p + q.
func (p Polynomial) Add(q Polynomial) Polynomial {
	n := len(p.Coefficients)
	if len(q.Coefficients) > n {
		n = len(q.Coefficients)
	}
	sum := make([]goldilocks.Element, n)
	copy(sum, p.Coefficients)
	for i := range q.Coefficients {
		sum[i].Add(&sum[i], &q.Coefficients[i])
	}
	return Polynomial{Coefficients: sum}
}

// Sub returns p - q.
func (p Polynomial) Sub(q Polynomial) Polynomial {
	n := len(p.Coefficients)
	if len(q.Coefficients) > n {
		n = len(q.Coefficients)
	}
	diff := make([]goldilocks.Element, n)
	copy(diff, p.Coefficients)
	for i := range q.Coefficients {
		diff[i].Sub(&diff[i], &q.Coefficients[i])
	}
	return Polynomial{Coefficients: diff}
}

// Mul returns p * q by schoolbook multiplication. Inputs here are
// small; codeword-sized products go through the NTT instead.
func (p Polynomial) Mul(q Polynomial) Polynomial {
	if p.IsZero() || q.IsZero() {
		return ZeroPolynomial()
	}
	product := make([]goldilocks.Element, len(p.Coefficients)+len(q.Coefficients)-1)
	for i := range p.Coefficients {
		if p.Coefficients[i].IsZero() {
			continue
		}
		for j := range q.Coefficients {
			var t goldilocks.Element
			t.Mul(&p.Coefficients[i], &q.Coefficients[j])
			product[i+j].Add(&product[i+j], &t)
		}
	}
	return Polynomial{Coefficients: product}
}

// ScalarMul returns s * p.
func (p Polynomial) ScalarMul(s goldilocks.Element) Polynomial {
	scaled := make([]goldilocks.Element, len(p.Coefficients))
	for i := range p.Coefficients {
		scaled[i].Mul(&p.Coefficients[i], &s)
	}
	return Polynomial{Coefficients: scaled}
}

// AreColinear reports whether the three points lie on one line,
// via (by-ay)*(cx-ax) == (cy-ay)*(bx-ax).
func AreColinear(ax, ay, bx, by, cx, cy goldilocks.Element) bool {
	var dyAB, dxAC, dyAC, dxAB, lhs, rhs goldilocks.Element
	dyAB.Sub(&by, &ay)
	dxAC.Sub(&cx, &ax)
	dyAC.Sub(&cy, &ay)
	dxAB.Sub(&bx, &ax)
	lhs.Mul(&dyAB, &dxAC)
	rhs.Mul(&dyAC, &dxAB)
	return lhs.Equal(&rhs)
}
