package core

import (
	"fmt"
	"math/bits"

	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// NTT evaluates the polynomial with the given coefficients over the
// subgroup generated by a primitive len(coeffs)-th root of unity, in
// natural order. The length must be a power of two.
func NTT(coeffs []goldilocks.Element) ([]goldilocks.Element, error) {
	n := len(coeffs)
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("ntt length %d is not a power of two", n)
	}
	omega, err := PrimitiveRootOfUnity(uint64(n))
	if err != nil {
		return nil, err
	}
	out := make([]goldilocks.Element, n)
	copy(out, coeffs)
	transform(out, omega)
	return out, nil
}

// INTT interpolates the codeword over the subgroup generated by a
// primitive len(values)-th root of unity, returning coefficients in
// natural order.
func INTT(values []goldilocks.Element) ([]goldilocks.Element, error) {
	n := len(values)
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("intt length %d is not a power of two", n)
	}
	omega, err := PrimitiveRootOfUnity(uint64(n))
	if err != nil {
		return nil, err
	}
	var omegaInv goldilocks.Element
	omegaInv.Inverse(&omega)

	out := make([]goldilocks.Element, n)
	copy(out, values)
	transform(out, omegaInv)

	var nInv goldilocks.Element
	nInv.SetUint64(uint64(n))
	nInv.Inverse(&nInv)
	for i := range out {
		out[i].Mul(&out[i], &nInv)
	}
	return out, nil
}

// transform is an in-place iterative radix-2 Cooley-Tukey transform
// with the given primitive root. Input and output are in natural order.
func transform(a []goldilocks.Element, omega goldilocks.Element) {
	n := len(a)
	logN := bits.TrailingZeros64(uint64(n))

	for i := 0; i < n; i++ {
		j := int(bits.Reverse64(uint64(i)) >> (64 - logN))
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		// wSize has order `size`
		wSize := omega
		for s := size; s < n; s <<= 1 {
			wSize.Square(&wSize)
		}
		half := size >> 1
		for start := 0; start < n; start += size {
			w := goldilocks.NewElement(1)
			for k := 0; k < half; k++ {
				var t, u goldilocks.Element
				t.Mul(&a[start+k+half], &w)
				u = a[start+k]
				a[start+k].Add(&u, &t)
				a[start+k+half].Sub(&u, &t)
				w.Mul(&w, &wSize)
			}
		}
	}
}
