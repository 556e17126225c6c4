package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"golang.org/x/crypto/blake2b"

	"github.com/proofworks/starkvm/internal/starkvm/utils"
)

// Program is an instruction sequence.
type Program struct {
	Instructions []Instruction
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{}
}

// Add appends an instruction and returns the program for chaining.
func (p *Program) Add(op Opcode, arg uint64) *Program {
	p.Instructions = append(p.Instructions, Instruction{Op: op, Arg: goldilocks.NewElement(arg)})
	return p
}

// PaddedLength is the power-of-two trace height: one row per executed
// cycle plus the initial state, padded with Halt cycles. At least 2.
func (p *Program) PaddedLength() int {
	n := int(utils.RoundUpPowerOfTwo(uint64(len(p.Instructions)) + 1))
	if n < 2 {
		n = 2
	}
	return n
}

// Compile lays the program out as the two public columns (multiplier,
// addend) of the processor AIR, padded with Halt to the given height.
func (p *Program) Compile(height int) (multipliers, addends []goldilocks.Element, err error) {
	if height < p.PaddedLength() {
		return nil, nil, fmt.Errorf("height %d below padded program length %d", height, p.PaddedLength())
	}
	multipliers = make([]goldilocks.Element, height)
	addends = make([]goldilocks.Element, height)
	halt := Instruction{Op: Halt}
	for i := 0; i < height; i++ {
		ins := halt
		if i < len(p.Instructions) {
			ins = p.Instructions[i]
		}
		multipliers[i], addends[i] = ins.Affine()
	}
	return multipliers, addends, nil
}

// Encode serializes the program canonically, one opcode byte and an
// 8-byte argument per instruction.
func (p *Program) Encode() []byte {
	buf := make([]byte, 0, 9*len(p.Instructions))
	for _, ins := range p.Instructions {
		buf = append(buf, byte(ins.Op))
		arg := ins.Arg.Bytes()
		buf = append(buf, arg[:]...)
	}
	return buf
}

// Digest hashes the canonical encoding. Claims carry it so a proof
// only verifies against the program it was produced for.
func (p *Program) Digest() [blake2b.Size256]byte {
	return blake2b.Sum256(p.Encode())
}

// String renders the program in assembly form, one instruction per
// line.
func (p *Program) String() string {
	var sb strings.Builder
	for _, ins := range p.Instructions {
		sb.WriteString(ins.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseProgram parses assembly text: one instruction per line,
// mnemonics as in Opcode.String, '#' starts a comment.
func ParseProgram(source string) (*Program, error) {
	program := NewProgram()
	for lineNo, line := range strings.Split(source, "\n") {
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		var op Opcode
		switch fields[0] {
		case "nop":
			op = Nop
		case "set":
			op = Set
		case "inc":
			op = Inc
		case "add":
			op = AddConst
		case "mul":
			op = MulConst
		case "halt":
			op = Halt
		default:
			return nil, fmt.Errorf("line %d: unknown mnemonic %q", lineNo+1, fields[0])
		}
		if op.HasArgument() {
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: %s needs exactly one argument", lineNo+1, op)
			}
			arg, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad argument %q: %w", lineNo+1, fields[1], err)
			}
			program.Add(op, arg)
		} else {
			if len(fields) != 1 {
				return nil, fmt.Errorf("line %d: %s takes no argument", lineNo+1, op)
			}
			program.Add(op, 0)
		}
	}
	return program, nil
}
