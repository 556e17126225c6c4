// Package starkvm ties the proof system together: it hands a trace and
// its AIR to the staged prover and replays proofs through the
// verifier.
package starkvm

import (
	"github.com/proofworks/starkvm/internal/starkvm/protocols"
	"github.com/proofworks/starkvm/internal/starkvm/utils"
)

// Stark bundles a parameter set with a prover and verifier.
type Stark struct {
	parameters utils.Parameters
	prover     *protocols.Prover
	verifier   *protocols.Verifier
}

// New builds a Stark instance after validating the parameters.
func New(parameters utils.Parameters) (*Stark, error) {
	prover, err := protocols.NewProver(parameters)
	if err != nil {
		return nil, err
	}
	verifier, err := protocols.NewVerifier(parameters)
	if err != nil {
		return nil, err
	}
	return &Stark{parameters: parameters, prover: prover, verifier: verifier}, nil
}

// Parameters returns the parameter set.
func (s *Stark) Parameters() utils.Parameters {
	return s.parameters
}

// Prove produces a proof that the table satisfies the AIR under the
// given claim seed.
func (s *Stark) Prove(air protocols.Air, table *protocols.Table, claimSeed []byte) (*protocols.Proof, error) {
	return s.prover.Prove(air, table, claimSeed)
}

// DecodeProof parses a binary proof encoding.
func DecodeProof(data []byte) (*protocols.Proof, error) {
	proof := &protocols.Proof{}
	if err := proof.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return proof, nil
}

// Verify replays the proof. It returns whether the proof is accepted
// and, if not, the rejection reason; err carries the detail.
func (s *Stark) Verify(air protocols.Air, claimSeed []byte, proof *protocols.Proof) (bool, protocols.RejectReason, error) {
	err := s.verifier.Verify(air, claimSeed, proof)
	if err == nil {
		return true, protocols.RejectNone, nil
	}
	return false, protocols.ReasonOf(err), err
}
