// Package vm implements a minimal accumulator machine whose execution
// traces the proof system can attest to. Every instruction acts as an
// affine map acc' = m*acc + a, which keeps the processor AIR at degree
// two.
package vm

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// Opcode enumerates the instruction set.
type Opcode uint8

const (
	// Nop leaves the accumulator unchanged.
	Nop Opcode = iota

	// Set overwrites the accumulator with the argument.
	Set

	// Inc adds one to the accumulator.
	Inc

	// AddConst adds the argument to the accumulator.
	AddConst

	// MulConst multiplies the accumulator by the argument.
	MulConst

	// Halt stops execution; padding cycles all execute Halt.
	Halt
)

// String returns the mnemonic.
func (op Opcode) String() string {
	switch op {
	case Nop:
		return "nop"
	case Set:
		return "set"
	case Inc:
		return "inc"
	case AddConst:
		return "add"
	case MulConst:
		return "mul"
	case Halt:
		return "halt"
	default:
		return fmt.Sprintf("opcode(%d)", uint8(op))
	}
}

// HasArgument reports whether the opcode consumes an argument.
func (op Opcode) HasArgument() bool {
	switch op {
	case Set, AddConst, MulConst:
		return true
	default:
		return false
	}
}

// Instruction is one machine instruction.
type Instruction struct {
	Op  Opcode
	Arg goldilocks.Element
}

// Affine returns the multiplier and addend of the instruction's action
// acc' = m*acc + a.
func (ins Instruction) Affine() (m, a goldilocks.Element) {
	one := goldilocks.NewElement(1)
	switch ins.Op {
	case Set:
		return goldilocks.Element{}, ins.Arg
	case Inc:
		return one, one
	case AddConst:
		return one, ins.Arg
	case MulConst:
		return ins.Arg, goldilocks.Element{}
	default: // Nop, Halt
		return one, goldilocks.Element{}
	}
}

// String renders the instruction in assembly form.
func (ins Instruction) String() string {
	if ins.Op.HasArgument() {
		return fmt.Sprintf("%s %s", ins.Op, ins.Arg.String())
	}
	return ins.Op.String()
}
