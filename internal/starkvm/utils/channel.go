package utils

import (
	"encoding/binary"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/field/goldilocks"
	"golang.org/x/crypto/blake2b"
)

// Channel is a Fiat-Shamir transcript. Both parties drive an identical
// channel: the prover absorbs each commitment as it is produced, the
// verifier absorbs the same bytes while replaying the proof, so both
// squeeze the same challenges. The channel is strictly sequential and
// must never be shared across goroutines.
type Channel struct {
	state [blake2b.Size256]byte
}

// NewChannel creates a channel seeded with a domain separator.
func NewChannel(domainSeparator string) *Channel {
	c := &Channel{}
	c.state = blake2b.Sum256([]byte(domainSeparator))
	return c
}

// Absorb mixes data into the channel state.
func (c *Channel) Absorb(data []byte) {
	buf := make([]byte, 0, len(c.state)+len(data))
	buf = append(buf, c.state[:]...)
	buf = append(buf, data...)
	c.state = blake2b.Sum256(buf)
}

// ratchet advances the state so consecutive squeezes are independent.
func (c *Channel) ratchet() {
	c.state = blake2b.Sum256(c.state[:])
}

// SqueezeFieldElement derives a pseudorandom field element. The full
// 256-bit state is reduced modulo p, so the bias is negligible.
func (c *Channel) SqueezeFieldElement() goldilocks.Element {
	c.ratchet()
	var e goldilocks.Element
	e.SetBytes(c.state[:])
	return e
}

// SqueezeIndex derives a pseudorandom index in [0, bound).
func (c *Channel) SqueezeIndex(bound int) int {
	c.ratchet()
	v := binary.BigEndian.Uint64(c.state[:8])
	return int(v % uint64(bound))
}

// SqueezeIndices derives count distinct indices in [0, bound), drawn
// without replacement.
func (c *Channel) SqueezeIndices(count, bound int) ([]int, error) {
	if count > bound {
		return nil, fmt.Errorf("cannot draw %d distinct indices from [0, %d)", count, bound)
	}
	seen := bitset.New(uint(bound))
	indices := make([]int, 0, count)
	for len(indices) < count {
		idx := c.SqueezeIndex(bound)
		if seen.Test(uint(idx)) {
			continue
		}
		seen.Set(uint(idx))
		indices = append(indices, idx)
	}
	return indices, nil
}

// State returns a copy of the current channel state.
func (c *Channel) State() [blake2b.Size256]byte {
	return c.state
}
