package utils

import (
	"fmt"
	"math"
)

// Parameters holds the knobs of the proof system. The defaults target
// roughly 80 bits of query soundness at a 4x blowup.
type Parameters struct {
	// ExpansionFactor is the blowup from degree bound to evaluation
	// domain length. Must be a power of two, at least 4.
	ExpansionFactor int

	// NumQueries is the number of colinearity checks per FRI round and
	// the number of composition spot checks.
	NumQueries int

	// FoldingFactor is the arity of each FRI fold. Only 2 is supported.
	FoldingFactor int

	// MaxTraceLength caps the padded trace height accepted by the
	// prover and verifier.
	MaxTraceLength int
}

// DefaultParameters returns the standard parameter set.
func DefaultParameters() Parameters {
	return Parameters{
		ExpansionFactor: 4,
		NumQueries:      40,
		FoldingFactor:   2,
		MaxTraceLength:  1 << 20,
	}
}

// WithExpansionFactor returns a copy with the expansion factor replaced.
func (p Parameters) WithExpansionFactor(factor int) Parameters {
	p.ExpansionFactor = factor
	return p
}

// WithNumQueries returns a copy with the query count replaced.
func (p Parameters) WithNumQueries(n int) Parameters {
	p.NumQueries = n
	return p
}

// WithMaxTraceLength returns a copy with the trace length cap replaced.
func (p Parameters) WithMaxTraceLength(n int) Parameters {
	p.MaxTraceLength = n
	return p
}

// Validate checks that the parameter set is usable.
func (p Parameters) Validate() error {
	if !IsPowerOfTwo(p.ExpansionFactor) || p.ExpansionFactor < 4 {
		return fmt.Errorf("expansion factor must be a power of two >= 4, got %d", p.ExpansionFactor)
	}
	if p.NumQueries < 1 {
		return fmt.Errorf("number of queries must be positive, got %d", p.NumQueries)
	}
	if p.FoldingFactor != 2 {
		return fmt.Errorf("only folding factor 2 is supported, got %d", p.FoldingFactor)
	}
	if !IsPowerOfTwo(p.MaxTraceLength) {
		return fmt.Errorf("max trace length must be a power of two, got %d", p.MaxTraceLength)
	}
	return nil
}

// SecurityLevel estimates the query soundness in bits,
// NumQueries * log2(ExpansionFactor).
func (p Parameters) SecurityLevel() int {
	return int(float64(p.NumQueries) * math.Log2(float64(p.ExpansionFactor)))
}
