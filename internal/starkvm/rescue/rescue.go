// Package rescue implements the Rescue-Prime permutation over the
// Goldilocks field and its AIR, the algebraic-hash companion to the
// accumulator machine. Width 3 (rate 2, capacity 1), exponent 7,
// 15 rounds, so one permutation fills a 16-row trace exactly.
package rescue

import (
	"encoding/binary"
	"math/big"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"golang.org/x/crypto/blake2b"

	"github.com/proofworks/starkvm/internal/starkvm/protocols"
)

const (
	// Width is the permutation state size.
	Width = 3

	// Rate is the number of absorbing state elements.
	Rate = 2

	// NumRounds is the round count; the trace has NumRounds+1 rows.
	NumRounds = 15

	// alphaInv is the inverse of 7 modulo p-1, the exponent of the
	// backward S-box.
	alphaInv = 10540996611094048183

	constantSeed = "rescue-prime/goldilocks/w3/a7/r15"
)

var (
	alphaInvBig = new(big.Int).SetUint64(alphaInv)

	// forwardConstants[r] is injected after the first half of round r,
	// backwardConstants[r] after the second half.
	forwardConstants  [NumRounds][Width]goldilocks.Element
	backwardConstants [NumRounds][Width]goldilocks.Element

	// quarter is 1/4, the off-diagonal weight of the inverse MDS
	// matrix (I+J)^-1 = I - J/4.
	quarter goldilocks.Element
)

func init() {
	counter := uint64(0)
	next := func() goldilocks.Element {
		buf := make([]byte, 0, len(constantSeed)+8)
		buf = append(buf, constantSeed...)
		buf = binary.BigEndian.AppendUint64(buf, counter)
		counter++
		digest := blake2b.Sum256(buf)
		var e goldilocks.Element
		e.SetBytes(digest[:])
		return e
	}
	for r := 0; r < NumRounds; r++ {
		for i := 0; i < Width; i++ {
			forwardConstants[r][i] = next()
		}
		for i := 0; i < Width; i++ {
			backwardConstants[r][i] = next()
		}
	}
	quarter.SetUint64(4)
	quarter.Inverse(&quarter)
}

// sbox raises x to the 7th power.
func sbox(x goldilocks.Element) goldilocks.Element {
	var x2, x4, out goldilocks.Element
	x2.Square(&x)
	x4.Square(&x2)
	out.Mul(&x4, &x2)
	out.Mul(&out, &x)
	return out
}

// invSbox raises x to the power 1/7.
func invSbox(x goldilocks.Element) goldilocks.Element {
	var out goldilocks.Element
	out.Exp(x, alphaInvBig)
	return out
}

// applyMDS multiplies the state by I+J: out_i = s_i + sum(s).
func applyMDS(state [Width]goldilocks.Element) [Width]goldilocks.Element {
	var sum goldilocks.Element
	for i := range state {
		sum.Add(&sum, &state[i])
	}
	var out [Width]goldilocks.Element
	for i := range state {
		out[i].Add(&state[i], &sum)
	}
	return out
}

// round applies one full Rescue-Prime round.
func round(state [Width]goldilocks.Element, r int) [Width]goldilocks.Element {
	for i := range state {
		state[i] = sbox(state[i])
	}
	state = applyMDS(state)
	for i := range state {
		state[i].Add(&state[i], &forwardConstants[r][i])
	}
	for i := range state {
		state[i] = invSbox(state[i])
	}
	state = applyMDS(state)
	for i := range state {
		state[i].Add(&state[i], &backwardConstants[r][i])
	}
	return state
}

// Permute applies all rounds.
func Permute(state [Width]goldilocks.Element) [Width]goldilocks.Element {
	for r := 0; r < NumRounds; r++ {
		state = round(state, r)
	}
	return state
}

// Digest hashes two rate elements: absorb, permute, squeeze the first
// state element.
func Digest(x, y goldilocks.Element) goldilocks.Element {
	state := Permute([Width]goldilocks.Element{x, y})
	return state[0]
}

// TraceTable records the permutation of (x, y, 0) as a trace table:
// row 0 is the initial state, row r+1 the state after round r.
func TraceTable(x, y goldilocks.Element) (*protocols.Table, error) {
	columns := make([][]goldilocks.Element, Width)
	for i := range columns {
		columns[i] = make([]goldilocks.Element, NumRounds+1)
	}
	state := [Width]goldilocks.Element{x, y}
	for i := 0; i < Width; i++ {
		columns[i][0] = state[i]
	}
	for r := 0; r < NumRounds; r++ {
		state = round(state, r)
		for i := 0; i < Width; i++ {
			columns[i][r+1] = state[i]
		}
	}
	return protocols.NewTable([]string{"s0", "s1", "s2"}, columns)
}
