package protocols

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/proofworks/starkvm/internal/starkvm/core"
	"github.com/proofworks/starkvm/internal/starkvm/utils"
)

// Composer turns an AIR into the nonlinear combination proved by FRI.
// The term order is fixed and shared by prover and verifier: the
// randomizer codeword, each raw trace column, each transition quotient,
// each boundary quotient. One transcript weight per term.
type Composer struct {
	air         Air
	traceDomain *core.ArithmeticDomain

	// oLast is the last trace domain point, excluded from the
	// transition vanishing set.
	oLast goldilocks.Element
}

// NewComposer precomputes the trace domain of the AIR.
func NewComposer(air Air) (*Composer, error) {
	n := air.TraceLength()
	traceDomain, err := core.NewArithmeticDomain(goldilocks.NewElement(1), n)
	if err != nil {
		return nil, fmt.Errorf("%w: trace length %d", ErrDomainSizeMismatch, n)
	}
	return &Composer{
		air:         air,
		traceDomain: traceDomain,
		oLast:       traceDomain.ValueAt(n - 1),
	}, nil
}

// TraceDomain returns the plain subgroup domain of the trace.
func (c *Composer) TraceDomain() *core.ArithmeticDomain {
	return c.traceDomain
}

// NumWeights is the number of combination terms: one randomizer, one
// per trace column, one per transition constraint, one per boundary
// constraint.
func (c *Composer) NumWeights() int {
	return 1 + c.air.Width() + len(c.air.TransitionConstraints()) + len(c.air.BoundaryConstraints())
}

// SqueezeWeights draws all combination weights in term order.
func (c *Composer) SqueezeWeights(channel *utils.Channel) []goldilocks.Element {
	weights := make([]goldilocks.Element, c.NumWeights())
	for i := range weights {
		weights[i] = channel.SqueezeFieldElement()
	}
	return weights
}

// TermDegreeBounds returns the degree bound of every term except the
// randomizer, which always gets MaxDegreeBound itself. A degree-d
// transition constraint composes columns of degree N-1 into a numerator
// of degree d(N-1); dividing by the transition zerofier of degree N-1
// leaves (d-1)(N-1).
func (c *Composer) TermDegreeBounds() []int {
	n := c.air.TraceLength()
	bounds := make([]int, 0, c.NumWeights()-1)
	for i := 0; i < c.air.Width(); i++ {
		bounds = append(bounds, n-1)
	}
	for _, constraint := range c.air.TransitionConstraints() {
		bounds = append(bounds, (constraint.Degree-1)*(n-1))
	}
	for range c.air.BoundaryConstraints() {
		bounds = append(bounds, n-2)
	}
	return bounds
}

// MaxDegreeBound is the combination codeword's degree bound: the
// largest term bound rounded up to the next power of two minus one, so
// the FRI domain length is a power of two.
func (c *Composer) MaxDegreeBound() int {
	max := 0
	for _, bound := range c.TermDegreeBounds() {
		if bound > max {
			max = bound
		}
	}
	return int(utils.RoundUpPowerOfTwo(uint64(max)+1)) - 1
}

// FriDomainLength is the evaluation domain length for the given
// expansion factor.
func (c *Composer) FriDomainLength(expansionFactor int) int {
	return (c.MaxDegreeBound() + 1) * expansionFactor
}

// zerofierInverseCodeword evaluates 1/Z_T over the FRI domain, where
// Z_T(x) = (x^N - 1)/(x - oLast) vanishes on all trace points except
// the last. The denominator x^N - 1 only takes L/N distinct values
// over the coset, so one small batch inversion covers the domain.
func (c *Composer) zerofierInverseCodeword(friDomain *core.ArithmeticDomain) ([]goldilocks.Element, error) {
	n := c.air.TraceLength()
	unitDistance := friDomain.Length / n

	bigN := new(big.Int).SetUint64(uint64(n))
	var offsetN, generatorN goldilocks.Element
	offsetN.Exp(friDomain.Offset, bigN)
	generatorN.Exp(friDomain.Generator, bigN)

	one := goldilocks.NewElement(1)
	denominators := make([]goldilocks.Element, unitDistance)
	acc := offsetN
	for k := 0; k < unitDistance; k++ {
		denominators[k].Sub(&acc, &one)
		acc.Mul(&acc, &generatorN)
	}
	inverses, err := core.BatchInvert(denominators)
	if err != nil {
		return nil, fmt.Errorf("transition zerofier: %w", err)
	}

	values := friDomain.Values()
	out := make([]goldilocks.Element, friDomain.Length)
	utils.Parallelize(friDomain.Length, func(start, end int) {
		for i := start; i < end; i++ {
			var numerator goldilocks.Element
			numerator.Sub(&values[i], &c.oLast)
			out[i].Mul(&numerator, &inverses[i%unitDistance])
		}
	})
	return out, nil
}

// TermCodewords builds every combination term over the FRI domain, in
// weight order. traceColumns and publicColumns are the extended
// codewords of the trace and public columns; randomizer is the random
// codeword committed alongside the trace.
func (c *Composer) TermCodewords(
	friDomain *core.ArithmeticDomain,
	traceColumns [][]goldilocks.Element,
	randomizer []goldilocks.Element,
	publicColumns [][]goldilocks.Element,
) ([][]goldilocks.Element, error) {
	n := c.air.TraceLength()
	length := friDomain.Length
	if length%n != 0 {
		return nil, fmt.Errorf("%w: fri domain length %d not a multiple of trace length %d", ErrDomainSizeMismatch, length, n)
	}
	unitDistance := length / n
	values := friDomain.Values()

	terms := make([][]goldilocks.Element, 0, c.NumWeights())
	terms = append(terms, randomizer)
	terms = append(terms, traceColumns...)

	zerofierInv, err := c.zerofierInverseCodeword(friDomain)
	if err != nil {
		return nil, err
	}
	width := c.air.Width()
	for _, constraint := range c.air.TransitionConstraints() {
		quotient := make([]goldilocks.Element, length)
		utils.Parallelize(length, func(start, end int) {
			current := make([]goldilocks.Element, width)
			next := make([]goldilocks.Element, width)
			public := make([]goldilocks.Element, len(publicColumns))
			for i := start; i < end; i++ {
				j := (i + unitDistance) % length
				for col := 0; col < width; col++ {
					current[col] = traceColumns[col][i]
					next[col] = traceColumns[col][j]
				}
				for col := range publicColumns {
					public[col] = publicColumns[col][i]
				}
				v := constraint.Evaluate(current, next, public)
				quotient[i].Mul(&v, &zerofierInv[i])
			}
		})
		terms = append(terms, quotient)
	}

	for _, boundary := range c.air.BoundaryConstraints() {
		point := c.traceDomain.ValueAt(boundary.Row)
		denominators := make([]goldilocks.Element, length)
		for i := range denominators {
			denominators[i].Sub(&values[i], &point)
		}
		inverses, err := core.BatchInvert(denominators)
		if err != nil {
			return nil, fmt.Errorf("boundary zerofier %q: %w", boundary.Name, err)
		}
		column := traceColumns[boundary.Column]
		value := boundary.Value
		quotient := make([]goldilocks.Element, length)
		utils.Parallelize(length, func(start, end int) {
			for i := start; i < end; i++ {
				var numerator goldilocks.Element
				numerator.Sub(&column[i], &value)
				quotient[i].Mul(&numerator, &inverses[i])
			}
		})
		terms = append(terms, quotient)
	}

	return terms, nil
}

// CheckTermDegrees interpolates every non-randomizer term and verifies
// it against its declared bound. A failure means the AIR's degree
// metadata or the trace generator is broken.
func (c *Composer) CheckTermDegrees(friDomain *core.ArithmeticDomain, terms [][]goldilocks.Element) error {
	bounds := c.TermDegreeBounds()
	names := c.termNames()
	for t, bound := range bounds {
		poly, err := friDomain.Interpolate(terms[t+1])
		if err != nil {
			return err
		}
		if poly.Degree() > bound {
			return fmt.Errorf("%w: term %q has degree %d, bound %d", ErrConstraintDegreeExceeded, names[t], poly.Degree(), bound)
		}
	}
	return nil
}

func (c *Composer) termNames() []string {
	names := append([]string(nil), c.air.ColumnNames()...)
	for _, constraint := range c.air.TransitionConstraints() {
		names = append(names, "transition/"+constraint.Name)
	}
	for _, boundary := range c.air.BoundaryConstraints() {
		names = append(names, "boundary/"+boundary.Name)
	}
	return names
}

// Combine folds the terms into the combination codeword with the given
// weights.
func (c *Composer) Combine(weights []goldilocks.Element, terms [][]goldilocks.Element) ([]goldilocks.Element, error) {
	if len(weights) != len(terms) {
		return nil, fmt.Errorf("%d weights for %d terms", len(weights), len(terms))
	}
	length := len(terms[0])
	combination := make([]goldilocks.Element, length)
	utils.Parallelize(length, func(start, end int) {
		for i := start; i < end; i++ {
			var acc, t goldilocks.Element
			for w := range weights {
				t.Mul(&weights[w], &terms[w][i])
				acc.Add(&acc, &t)
			}
			combination[i] = acc
		}
	})
	return combination, nil
}

// EvaluateCombinationAt recomputes the combination value at one domain
// point from an opened trace row, its successor row, the randomizer
// value and the interpolated public column polynomials. The verifier
// compares the result against the FRI layer-0 evaluation.
func (c *Composer) EvaluateCombinationAt(
	x goldilocks.Element,
	weights []goldilocks.Element,
	row, nextRow []goldilocks.Element,
	randomizerValue goldilocks.Element,
	publicPolynomials []core.Polynomial,
) (goldilocks.Element, error) {
	n := c.air.TraceLength()
	width := c.air.Width()
	var result goldilocks.Element
	if len(row) != width || len(nextRow) != width {
		return result, fmt.Errorf("%w: opened row width mismatch", ErrTranscriptDesync)
	}

	terms := make([]goldilocks.Element, 0, c.NumWeights())
	terms = append(terms, randomizerValue)
	terms = append(terms, row...)

	public := make([]goldilocks.Element, len(publicPolynomials))
	for i := range publicPolynomials {
		public[i] = publicPolynomials[i].EvaluateAt(x)
	}

	// 1/Z_T(x) = (x - oLast)/(x^N - 1)
	var xN, zerofier, zerofierInv goldilocks.Element
	xN.Exp(x, new(big.Int).SetUint64(uint64(n)))
	one := goldilocks.NewElement(1)
	zerofier.Sub(&xN, &one)
	if zerofier.IsZero() {
		return result, fmt.Errorf("%w: sample point lies on the trace domain", ErrCompositionMismatch)
	}
	zerofierInv.Inverse(&zerofier)
	var linear goldilocks.Element
	linear.Sub(&x, &c.oLast)
	zerofierInv.Mul(&zerofierInv, &linear)

	for _, constraint := range c.air.TransitionConstraints() {
		v := constraint.Evaluate(row, nextRow, public)
		v.Mul(&v, &zerofierInv)
		terms = append(terms, v)
	}

	for _, boundary := range c.air.BoundaryConstraints() {
		point := c.traceDomain.ValueAt(boundary.Row)
		var denominator, numerator, quotient goldilocks.Element
		denominator.Sub(&x, &point)
		if denominator.IsZero() {
			return result, fmt.Errorf("%w: sample point lies on the trace domain", ErrCompositionMismatch)
		}
		denominator.Inverse(&denominator)
		numerator.Sub(&row[boundary.Column], &boundary.Value)
		quotient.Mul(&numerator, &denominator)
		terms = append(terms, quotient)
	}

	if len(weights) != len(terms) {
		return result, fmt.Errorf("%w: %d weights for %d terms", ErrTranscriptDesync, len(weights), len(terms))
	}
	var t goldilocks.Element
	for w := range weights {
		t.Mul(&weights[w], &terms[w])
		result.Add(&result, &t)
	}
	return result, nil
}
