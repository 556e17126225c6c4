package core

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// ArithmeticDomain is the coset offset * <generator> of a power-of-two
// order subgroup. Offset 1 gives the plain subgroup used for traces;
// the multiplicative generator offsets the FRI evaluation coset so it
// is disjoint from every trace domain.
type ArithmeticDomain struct {
	Offset    goldilocks.Element
	Generator goldilocks.Element
	Length    int
}

// NewArithmeticDomain builds a coset domain of the given power-of-two
// length.
func NewArithmeticDomain(offset goldilocks.Element, length int) (*ArithmeticDomain, error) {
	if length <= 0 || length&(length-1) != 0 {
		return nil, fmt.Errorf("domain length %d is not a power of two", length)
	}
	generator, err := PrimitiveRootOfUnity(uint64(length))
	if err != nil {
		return nil, fmt.Errorf("domain of length %d: %w", length, err)
	}
	return &ArithmeticDomain{Offset: offset, Generator: generator, Length: length}, nil
}

// ValueAt returns offset * generator^i.
func (d *ArithmeticDomain) ValueAt(i int) goldilocks.Element {
	i = ((i % d.Length) + d.Length) % d.Length
	x := d.Offset
	g := d.Generator
	for ; i > 0; i >>= 1 {
		if i&1 == 1 {
			x.Mul(&x, &g)
		}
		g.Square(&g)
	}
	return x
}

// Values returns all domain points in order.
func (d *ArithmeticDomain) Values() []goldilocks.Element {
	values := make([]goldilocks.Element, d.Length)
	x := d.Offset
	for i := 0; i < d.Length; i++ {
		values[i] = x
		x.Mul(&x, &d.Generator)
	}
	return values
}

// Evaluate computes the codeword of the polynomial over the domain via
// a coset NTT. The polynomial must fit the domain.
func (d *ArithmeticDomain) Evaluate(p Polynomial) ([]goldilocks.Element, error) {
	if p.Degree() >= d.Length {
		return nil, fmt.Errorf("polynomial degree %d does not fit domain of length %d", p.Degree(), d.Length)
	}
	// scale coefficient i by offset^i, then transform
	scaled := make([]goldilocks.Element, d.Length)
	power := goldilocks.NewElement(1)
	for i := range p.Coefficients {
		scaled[i].Mul(&p.Coefficients[i], &power)
		power.Mul(&power, &d.Offset)
	}
	return NTT(scaled)
}

// Interpolate recovers the polynomial taking codeword[i] at ValueAt(i).
func (d *ArithmeticDomain) Interpolate(codeword []goldilocks.Element) (Polynomial, error) {
	if len(codeword) != d.Length {
		return Polynomial{}, fmt.Errorf("codeword length %d does not match domain length %d", len(codeword), d.Length)
	}
	coeffs, err := INTT(codeword)
	if err != nil {
		return Polynomial{}, err
	}
	var offsetInv goldilocks.Element
	offsetInv.Inverse(&d.Offset)
	power := goldilocks.NewElement(1)
	for i := range coeffs {
		coeffs[i].Mul(&coeffs[i], &power)
		power.Mul(&power, &offsetInv)
	}
	return Polynomial{Coefficients: coeffs}, nil
}

// Halve returns the domain of squares, half the length.
func (d *ArithmeticDomain) Halve() (*ArithmeticDomain, error) {
	if d.Length < 2 {
		return nil, fmt.Errorf("cannot halve domain of length %d", d.Length)
	}
	var offset, generator goldilocks.Element
	offset.Square(&d.Offset)
	generator.Square(&d.Generator)
	return &ArithmeticDomain{Offset: offset, Generator: generator, Length: d.Length / 2}, nil
}
