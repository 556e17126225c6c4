package vm

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/proofworks/starkvm/internal/starkvm/protocols"
)

// Machine executes programs and records the execution trace.
type Machine struct {
	program *Program
}

// NewMachine wraps a program.
func NewMachine(program *Program) *Machine {
	return &Machine{program: program}
}

// Run executes the program on the input and returns the padded trace
// table (columns clk, acc) together with the final accumulator. Row i
// holds the machine state before cycle i; padding cycles execute Halt,
// which leaves the accumulator in place, so the output sits in the
// last row.
func (m *Machine) Run(input goldilocks.Element) (*protocols.Table, goldilocks.Element, error) {
	height := m.program.PaddedLength()
	multipliers, addends, err := m.program.Compile(height)
	if err != nil {
		return nil, goldilocks.Element{}, err
	}

	clk := make([]goldilocks.Element, height)
	acc := make([]goldilocks.Element, height)
	state := input
	for i := 0; i < height; i++ {
		clk[i] = goldilocks.NewElement(uint64(i))
		acc[i] = state
		var t goldilocks.Element
		t.Mul(&multipliers[i], &state)
		state.Add(&t, &addends[i])
	}

	table, err := protocols.NewTable([]string{"clk", "acc"}, [][]goldilocks.Element{clk, acc})
	if err != nil {
		return nil, goldilocks.Element{}, fmt.Errorf("trace assembly: %w", err)
	}
	return table, acc[height-1], nil
}
