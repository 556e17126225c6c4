package core

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// BatchInvert inverts all elements with a single field inversion using
// Montgomery's trick. Fails if any element is zero.
func BatchInvert(elements []goldilocks.Element) ([]goldilocks.Element, error) {
	n := len(elements)
	if n == 0 {
		return nil, nil
	}

	// prefix[i] = elements[0] * ... * elements[i]
	prefix := make([]goldilocks.Element, n)
	prefix[0] = elements[0]
	for i := 1; i < n; i++ {
		prefix[i].Mul(&prefix[i-1], &elements[i])
	}
	if prefix[n-1].IsZero() {
		for i := range elements {
			if elements[i].IsZero() {
				return nil, fmt.Errorf("batch inversion: element %d is zero", i)
			}
		}
	}

	var acc goldilocks.Element
	acc.Inverse(&prefix[n-1])

	inverses := make([]goldilocks.Element, n)
	for i := n - 1; i > 0; i-- {
		inverses[i].Mul(&acc, &prefix[i-1])
		acc.Mul(&acc, &elements[i])
	}
	inverses[0] = acc
	return inverses, nil
}
