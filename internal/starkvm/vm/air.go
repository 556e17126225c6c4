package vm

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/proofworks/starkvm/internal/starkvm/protocols"
)

// Column indices of the processor trace.
const (
	colClk = iota
	colAcc
	numColumns
)

// ProcessorAir is the AIR of the accumulator machine. The program is
// baked into two public columns (multiplier, addend), one row per
// cycle; both parties interpolate them, so the prover cannot swap in
// another program.
type ProcessorAir struct {
	claim       Claim
	height      int
	multipliers []goldilocks.Element
	addends     []goldilocks.Element
}

// NewProcessorAir compiles the program and binds the claim. The claim
// digest must match the program.
func NewProcessorAir(program *Program, claim Claim) (*ProcessorAir, error) {
	if program.Digest() != claim.ProgramDigest {
		return nil, fmt.Errorf("claim digest does not match program")
	}
	height := program.PaddedLength()
	multipliers, addends, err := program.Compile(height)
	if err != nil {
		return nil, err
	}
	return &ProcessorAir{
		claim:       claim,
		height:      height,
		multipliers: multipliers,
		addends:     addends,
	}, nil
}

// Name identifies the AIR.
func (a *ProcessorAir) Name() string { return "processor" }

// Width returns the trace column count.
func (a *ProcessorAir) Width() int { return numColumns }

// ColumnNames returns the trace column names.
func (a *ProcessorAir) ColumnNames() []string { return []string{"clk", "acc"} }

// TraceLength returns the padded trace height.
func (a *ProcessorAir) TraceLength() int { return a.height }

// PublicColumns returns the compiled program columns.
func (a *ProcessorAir) PublicColumns() [][]goldilocks.Element {
	return [][]goldilocks.Element{a.multipliers, a.addends}
}

// TransitionConstraints returns the cycle constraints: the clock
// increments and the accumulator follows the affine action of the
// scheduled instruction.
func (a *ProcessorAir) TransitionConstraints() []protocols.TransitionConstraint {
	one := goldilocks.NewElement(1)
	return []protocols.TransitionConstraint{
		{
			Name:   "clk-increments",
			Degree: 1,
			Evaluate: func(current, next, public []goldilocks.Element) goldilocks.Element {
				var v goldilocks.Element
				v.Sub(&next[colClk], &current[colClk])
				v.Sub(&v, &one)
				return v
			},
		},
		{
			Name:   "acc-affine-step",
			Degree: 2,
			Evaluate: func(current, next, public []goldilocks.Element) goldilocks.Element {
				var v goldilocks.Element
				v.Mul(&public[0], &current[colAcc])
				v.Add(&v, &public[1])
				v.Sub(&next[colAcc], &v)
				return v
			},
		},
	}
}

// BoundaryConstraints pin the initial clock and accumulator and the
// claimed output in the last row.
func (a *ProcessorAir) BoundaryConstraints() []protocols.BoundaryConstraint {
	return []protocols.BoundaryConstraint{
		{Name: "clk-starts-at-zero", Column: colClk, Row: 0, Value: goldilocks.Element{}},
		{Name: "acc-starts-at-input", Column: colAcc, Row: 0, Value: a.claim.Input},
		{Name: "acc-ends-at-output", Column: colAcc, Row: a.height - 1, Value: a.claim.Output},
	}
}
