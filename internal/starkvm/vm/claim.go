package vm

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"
	"golang.org/x/crypto/blake2b"
)

// Claim is the public statement a proof attests to: running the
// program with the given digest on Input yields Output.
type Claim struct {
	ProgramDigest [blake2b.Size256]byte
	Input         goldilocks.Element
	Output        goldilocks.Element
}

// NewClaim binds a program digest.
func NewClaim(programDigest [blake2b.Size256]byte) Claim {
	return Claim{ProgramDigest: programDigest}
}

// WithInput sets the public input.
func (c Claim) WithInput(input goldilocks.Element) Claim {
	c.Input = input
	return c
}

// WithOutput sets the claimed output.
func (c Claim) WithOutput(output goldilocks.Element) Claim {
	c.Output = output
	return c
}

// Seed returns the canonical claim encoding absorbed into the
// transcript before any commitment. Any change to the claim changes
// every challenge, so a proof cannot be replayed for another claim.
func (c Claim) Seed() []byte {
	buf := make([]byte, 0, len(c.ProgramDigest)+2*goldilocks.Bytes)
	buf = append(buf, c.ProgramDigest[:]...)
	in := c.Input.Bytes()
	buf = append(buf, in[:]...)
	out := c.Output.Bytes()
	buf = append(buf, out[:]...)
	return buf
}
