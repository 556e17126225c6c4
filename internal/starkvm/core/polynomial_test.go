package core

import (
	"testing"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/stretchr/testify/assert"
)

func TestPolynomialDegree(t *testing.T) {
	assert.Equal(t, -1, ZeroPolynomial().Degree())
	assert.Equal(t, -1, NewPolynomial(elementsFromUint64([]uint64{0, 0})).Degree())
	assert.Equal(t, 0, NewPolynomial(elementsFromUint64([]uint64{5})).Degree())
	assert.Equal(t, 2, NewPolynomial(elementsFromUint64([]uint64{1, 0, 3, 0})).Degree())
}

func TestPolynomialArithmetic(t *testing.T) {
	// p = 1 + 2x, q = 3 + x^2
	p := NewPolynomial(elementsFromUint64([]uint64{1, 2}))
	q := NewPolynomial(elementsFromUint64([]uint64{3, 0, 1}))

	sum := p.Add(q)
	assert.Equal(t, 2, sum.Degree())

	product := p.Mul(q)
	// (1+2x)(3+x^2) = 3 + 6x + x^2 + 2x^3
	expected := elementsFromUint64([]uint64{3, 6, 1, 2})
	assert.Equal(t, 3, product.Degree())
	for i := range expected {
		assert.True(t, expected[i].Equal(&product.Coefficients[i]), "coefficient %d", i)
	}

	diff := sum.Sub(q)
	assert.Equal(t, p.Degree(), diff.Degree())
	for i := range p.Coefficients {
		assert.True(t, p.Coefficients[i].Equal(&diff.Coefficients[i]), "coefficient %d", i)
	}
}

func TestPolynomialEvaluateAt(t *testing.T) {
	// p(x) = 2 + 3x + x^2, p(5) = 42
	p := NewPolynomial(elementsFromUint64([]uint64{2, 3, 1}))
	got := p.EvaluateAt(goldilocks.NewElement(5))
	want := goldilocks.NewElement(42)
	assert.True(t, got.Equal(&want))
}

func TestAreColinear(t *testing.T) {
	e := func(v uint64) goldilocks.Element { return goldilocks.NewElement(v) }

	// on the line y = 2x + 1
	assert.True(t, AreColinear(e(0), e(1), e(1), e(3), e(5), e(11)))
	// off the line
	assert.False(t, AreColinear(e(0), e(1), e(1), e(3), e(5), e(12)))
	// vertical-ish degenerate case: equal x, different y
	assert.False(t, AreColinear(e(1), e(1), e(1), e(2), e(2), e(3)))
}
