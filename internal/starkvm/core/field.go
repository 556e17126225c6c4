// Package core provides the arithmetic building blocks of the proof
// system: roots of unity in the Goldilocks field, number-theoretic
// transforms, dense polynomials, coset evaluation domains and blake2b
// Merkle trees.
package core

import (
	"fmt"
	"math/bits"

	"github.com/consensys/gnark-crypto/field/goldilocks"
)

const (
	// TwoAdicity is the largest k with 2^k dividing p-1 for the
	// Goldilocks prime p = 2^64 - 2^32 + 1.
	TwoAdicity = 32

	// MultiplicativeGenerator generates the full multiplicative group
	// and serves as the coset offset for evaluation domains.
	MultiplicativeGenerator = 7

	// powerOfTwoGenerator has multiplicative order 2^TwoAdicity.
	powerOfTwoGenerator = 1753635133440165772
)

// PrimitiveRootOfUnity returns an element of multiplicative order
// `order`, which must be a power of two not exceeding 2^TwoAdicity.
func PrimitiveRootOfUnity(order uint64) (goldilocks.Element, error) {
	var root goldilocks.Element
	if order == 0 || order&(order-1) != 0 {
		return root, fmt.Errorf("order %d is not a power of two", order)
	}
	logOrder := bits.TrailingZeros64(order)
	if logOrder > TwoAdicity {
		return root, fmt.Errorf("order 2^%d exceeds the field's two-adicity %d", logOrder, TwoAdicity)
	}
	root = goldilocks.NewElement(powerOfTwoGenerator)
	for i := 0; i < TwoAdicity-logOrder; i++ {
		root.Square(&root)
	}
	return root, nil
}

// CosetOffset returns the standard evaluation coset offset.
func CosetOffset() goldilocks.Element {
	return goldilocks.NewElement(MultiplicativeGenerator)
}
