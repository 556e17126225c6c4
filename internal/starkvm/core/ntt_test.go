package core

import (
	"testing"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elementsFromUint64(words []uint64) []goldilocks.Element {
	out := make([]goldilocks.Element, len(words))
	for i, w := range words {
		out[i].SetUint64(w)
	}
	return out
}

func TestPrimitiveRootOfUnityOrder(t *testing.T) {
	for _, order := range []uint64{1, 2, 4, 256, 1 << 20} {
		root, err := PrimitiveRootOfUnity(order)
		require.NoError(t, err)

		acc := goldilocks.NewElement(1)
		one := goldilocks.NewElement(1)
		if order > 1 {
			// root^(order/2) must not be 1
			half := root
			for k := order / 2; k > 1; k /= 2 {
				half.Square(&half)
			}
			assert.False(t, half.Equal(&one), "order %d: root has smaller order", order)
			acc.Square(&half)
		}
		assert.True(t, acc.Equal(&one), "order %d: root^order != 1", order)
	}

	_, err := PrimitiveRootOfUnity(3)
	assert.Error(t, err)
	_, err = PrimitiveRootOfUnity(1 << 33)
	assert.Error(t, err)
}

func TestNTTMatchesDirectEvaluation(t *testing.T) {
	coeffs := elementsFromUint64([]uint64{3, 1, 4, 1, 5, 9, 2, 6})
	poly := NewPolynomial(coeffs)

	values, err := NTT(coeffs)
	require.NoError(t, err)

	omega, err := PrimitiveRootOfUnity(8)
	require.NoError(t, err)
	x := goldilocks.NewElement(1)
	for i := 0; i < 8; i++ {
		expected := poly.EvaluateAt(x)
		assert.True(t, expected.Equal(&values[i]), "index %d", i)
		x.Mul(&x, &omega)
	}
}

func TestNTTRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("intt(ntt(x)) == x", prop.ForAll(
		func(words []uint64) bool {
			coeffs := elementsFromUint64(words)
			values, err := NTT(coeffs)
			if err != nil {
				return false
			}
			back, err := INTT(values)
			if err != nil {
				return false
			}
			for i := range coeffs {
				if !back[i].Equal(&coeffs[i]) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(16, gen.UInt64()),
	))
	properties.TestingRun(t)
}

func TestNTTRejectsBadLength(t *testing.T) {
	_, err := NTT(make([]goldilocks.Element, 12))
	assert.Error(t, err)
	_, err = INTT(nil)
	assert.Error(t, err)
}

func TestBatchInvert(t *testing.T) {
	elements := elementsFromUint64([]uint64{1, 2, 3, 12345, 1 << 40})
	inverses, err := BatchInvert(elements)
	require.NoError(t, err)
	one := goldilocks.NewElement(1)
	for i := range elements {
		var product goldilocks.Element
		product.Mul(&elements[i], &inverses[i])
		assert.True(t, product.Equal(&one), "index %d", i)
	}
}

func TestBatchInvertRejectsZero(t *testing.T) {
	elements := elementsFromUint64([]uint64{1, 0, 3})
	_, err := BatchInvert(elements)
	assert.Error(t, err)
}
