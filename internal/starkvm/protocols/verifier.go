package protocols

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/proofworks/starkvm/internal/starkvm/core"
	"github.com/proofworks/starkvm/internal/starkvm/utils"
)

// Verifier replays a proof against an AIR and a claim seed. It never
// trusts challenges embedded in the proof; every weight, alpha and
// query index is re-derived from the replayed transcript. A nil return
// means the proof is accepted.
type Verifier struct {
	parameters utils.Parameters
}

// NewVerifier validates the parameters once.
func NewVerifier(parameters utils.Parameters) (*Verifier, error) {
	if err := parameters.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{parameters: parameters}, nil
}

// Verify checks the proof. The returned error wraps one of the
// rejection sentinels; classify it with ReasonOf.
func (v *Verifier) Verify(air Air, claimSeed []byte, proof *Proof) error {
	if air.TraceLength() > v.parameters.MaxTraceLength {
		return fmt.Errorf("%w: trace length %d exceeds cap %d", ErrDomainSizeMismatch, air.TraceLength(), v.parameters.MaxTraceLength)
	}
	composer, err := NewComposer(air)
	if err != nil {
		return err
	}
	fri, err := NewFri(
		core.CosetOffset(),
		composer.FriDomainLength(v.parameters.ExpansionFactor),
		v.parameters.ExpansionFactor,
		v.parameters.NumQueries,
	)
	if err != nil {
		return err
	}
	friDomain := fri.Domain()
	unitDistance := friDomain.Length / air.TraceLength()

	channel := utils.NewChannel(transcriptDomainSeparator)
	channel.Absorb(claimSeed)
	stream := NewProofReader(proof, channel)

	logHeight, err := stream.DequeuePaddedHeightLog2()
	if err != nil {
		return err
	}
	if logHeight >= 63 || 1<<logHeight != air.TraceLength() {
		return fmt.Errorf("%w: announced height 2^%d, air wants %d", ErrTranscriptDesync, logHeight, air.TraceLength())
	}

	traceRoot, err := stream.DequeueMerkleRoot()
	if err != nil {
		return err
	}
	weights := composer.SqueezeWeights(channel)
	combinationRoot, err := stream.DequeueMerkleRoot()
	if err != nil {
		return err
	}

	evaluations, err := fri.Verify(stream, combinationRoot)
	if err != nil {
		return err
	}

	traceOpening, err := stream.DequeueTraceOpening()
	if err != nil {
		return err
	}
	width := air.Width()
	rows := make(map[int][]goldilocks.Element, len(traceOpening.Rows))
	for _, opening := range traceOpening.Rows {
		index := int(opening.Index)
		if index < 0 || index >= friDomain.Length {
			return fmt.Errorf("%w: trace opening index %d out of range", ErrTranscriptDesync, index)
		}
		if len(opening.Values) != width+1 {
			return fmt.Errorf("%w: trace row carries %d values, want %d", ErrTranscriptDesync, len(opening.Values), width+1)
		}
		if !core.VerifyPath(traceRoot, index, leafBytes(opening.Values), opening.Path) {
			return fmt.Errorf("trace row %d: %w", index, ErrMerkleProofInvalid)
		}
		rows[index] = opening.Values
	}

	publicColumns := air.PublicColumns()
	publicPolynomials := make([]core.Polynomial, len(publicColumns))
	traceDomain := composer.TraceDomain()
	for i, column := range publicColumns {
		publicPolynomials[i], err = traceDomain.Interpolate(column)
		if err != nil {
			return err
		}
	}

	for _, evaluation := range evaluations {
		row, ok := rows[evaluation.Index]
		if !ok {
			return fmt.Errorf("%w: no trace row opened at index %d", ErrTranscriptDesync, evaluation.Index)
		}
		nextRow, ok := rows[(evaluation.Index+unitDistance)%friDomain.Length]
		if !ok {
			return fmt.Errorf("%w: no successor row opened for index %d", ErrTranscriptDesync, evaluation.Index)
		}
		x := friDomain.ValueAt(evaluation.Index)
		expected, err := composer.EvaluateCombinationAt(
			x, weights, row[:width], nextRow[:width], row[width], publicPolynomials,
		)
		if err != nil {
			return err
		}
		if !expected.Equal(&evaluation.Value) {
			return fmt.Errorf("%w: index %d", ErrCompositionMismatch, evaluation.Index)
		}
	}
	return nil
}
