package utils

import (
	"fmt"
	"math/bits"
)

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 returns log2(n) for a power-of-two n.
func Log2(n int) (int, error) {
	if !IsPowerOfTwo(n) {
		return 0, fmt.Errorf("log2 of non-power-of-two %d", n)
	}
	return bits.TrailingZeros64(uint64(n)), nil
}

// Log2Ceil returns the smallest k with 2^k >= n. Log2Ceil(0) == 0.
func Log2Ceil(n uint64) int {
	if n <= 1 {
		return 0
	}
	return 64 - bits.LeadingZeros64(n-1)
}

// RoundUpPowerOfTwo returns the smallest power of two >= n. n must be
// at most 2^63.
func RoundUpPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << Log2Ceil(n)
}
