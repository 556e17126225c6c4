package starkvm

import (
	starkvm "github.com/proofworks/starkvm/internal/starkvm"
	"github.com/proofworks/starkvm/internal/starkvm/protocols"
	"github.com/proofworks/starkvm/internal/starkvm/utils"
)

// Re-exported protocol types.
type (
	Air                  = protocols.Air
	Table                = protocols.Table
	Proof                = protocols.Proof
	Parameters           = utils.Parameters
	RejectReason         = protocols.RejectReason
	TransitionConstraint = protocols.TransitionConstraint
	BoundaryConstraint   = protocols.BoundaryConstraint
)

// Rejection reasons.
const (
	RejectNone             = protocols.RejectNone
	RejectMerkleProof      = protocols.RejectMerkleProof
	RejectComposition      = protocols.RejectComposition
	RejectFRIConsistency   = protocols.RejectFRIConsistency
	RejectDegreeBound      = protocols.RejectDegreeBound
	RejectTranscriptDesync = protocols.RejectTranscriptDesync
)

// Prover-side sentinel errors.
var (
	ErrMalformedTrace           = protocols.ErrMalformedTrace
	ErrDomainSizeMismatch       = protocols.ErrDomainSizeMismatch
	ErrConstraintDegreeExceeded = protocols.ErrConstraintDegreeExceeded
)

// Engine bundles a prover and verifier for one parameter set.
type Engine = starkvm.Stark

// New builds an engine after validating the parameters.
func New(parameters Parameters) (*Engine, error) {
	return starkvm.New(parameters)
}

// DefaultParameters returns the standard parameter set.
func DefaultParameters() Parameters {
	return utils.DefaultParameters()
}

// DecodeProof parses a binary proof encoding.
func DecodeProof(data []byte) (*Proof, error) {
	return starkvm.DecodeProof(data)
}
