package protocols

import "errors"

// Prover-side errors. All of them are fatal: the prover never emits a
// partial proof.
var (
	// ErrMalformedTrace means the execution trace violates its own
	// AIR before any proving work starts.
	ErrMalformedTrace = errors.New("malformed execution trace")

	// ErrDomainSizeMismatch means the trace height is not a power of
	// two, exceeds the configured cap, or disagrees with the AIR.
	ErrDomainSizeMismatch = errors.New("evaluation domain size mismatch")

	// ErrConstraintDegreeExceeded means a quotient did not fit its
	// declared degree bound, i.e. the AIR metadata is wrong.
	ErrConstraintDegreeExceeded = errors.New("constraint degree exceeds declared bound")
)

// Verifier-side rejection causes. The verifier reports the first
// failure it encounters; any of these means the proof is rejected,
// never that the verifier itself failed.
var (
	ErrMerkleProofInvalid    = errors.New("merkle authentication path invalid")
	ErrCompositionMismatch   = errors.New("composition value mismatch at sampled point")
	ErrFRIConsistencyFailure = errors.New("fri colinearity or layer consistency failure")
	ErrDegreeBoundViolated   = errors.New("final fri codeword exceeds degree bound")
	ErrTranscriptDesync      = errors.New("proof stream does not match expected transcript")
)

// RejectReason classifies why a proof was rejected.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectMerkleProof
	RejectComposition
	RejectFRIConsistency
	RejectDegreeBound
	RejectTranscriptDesync
)

// String returns a human-readable reason name.
func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "accepted"
	case RejectMerkleProof:
		return "merkle proof invalid"
	case RejectComposition:
		return "composition mismatch"
	case RejectFRIConsistency:
		return "fri consistency failure"
	case RejectDegreeBound:
		return "degree bound violated"
	case RejectTranscriptDesync:
		return "transcript desync"
	default:
		return "unknown"
	}
}

// ReasonOf maps a verification error to its rejection class. Unknown
// errors, including decode failures, count as transcript desync.
func ReasonOf(err error) RejectReason {
	switch {
	case err == nil:
		return RejectNone
	case errors.Is(err, ErrMerkleProofInvalid):
		return RejectMerkleProof
	case errors.Is(err, ErrCompositionMismatch):
		return RejectComposition
	case errors.Is(err, ErrFRIConsistencyFailure):
		return RejectFRIConsistency
	case errors.Is(err, ErrDegreeBoundViolated):
		return RejectDegreeBound
	default:
		return RejectTranscriptDesync
	}
}
