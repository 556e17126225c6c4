package protocols_test

import (
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofworks/starkvm/internal/starkvm/protocols"
	"github.com/proofworks/starkvm/internal/starkvm/utils"
	"github.com/proofworks/starkvm/internal/starkvm/vm"
)

func testParameters() utils.Parameters {
	return utils.DefaultParameters().WithNumQueries(12)
}

func proveProgram(t *testing.T, program *vm.Program, input goldilocks.Element) (*vm.ProcessorAir, vm.Claim, *protocols.Proof) {
	t.Helper()
	table, output, err := vm.NewMachine(program).Run(input)
	require.NoError(t, err)
	claim := vm.NewClaim(program.Digest()).WithInput(input).WithOutput(output)
	air, err := vm.NewProcessorAir(program, claim)
	require.NoError(t, err)

	prover, err := protocols.NewProver(testParameters())
	require.NoError(t, err)
	proof, err := prover.Prove(air, table, claim.Seed())
	require.NoError(t, err)
	return air, claim, proof
}

func TestProveVerifyRoundTrip(t *testing.T) {
	program := vm.NewProgram().
		Add(vm.Set, 3).
		Add(vm.AddConst, 4).
		Add(vm.MulConst, 6)
	air, claim, proof := proveProgram(t, program, goldilocks.NewElement(100))

	verifier, err := protocols.NewVerifier(testParameters())
	require.NoError(t, err)
	assert.NoError(t, verifier.Verify(air, claim.Seed(), proof))
}

func TestVerifyRejectsWrongOutput(t *testing.T) {
	program := vm.NewProgram().Add(vm.Inc, 0).Add(vm.Inc, 0)
	air, claim, proof := proveProgram(t, program, goldilocks.NewElement(7))

	verifier, err := protocols.NewVerifier(testParameters())
	require.NoError(t, err)
	require.NoError(t, verifier.Verify(air, claim.Seed(), proof))

	badClaim := claim.WithOutput(goldilocks.NewElement(999))
	badAir, err := vm.NewProcessorAir(program, badClaim)
	require.NoError(t, err)
	err = verifier.Verify(badAir, badClaim.Seed(), proof)
	require.Error(t, err)
	assert.NotEqual(t, protocols.RejectNone, protocols.ReasonOf(err))
}

func TestVerifyRejectsWrongProgram(t *testing.T) {
	program := vm.NewProgram().Add(vm.AddConst, 5)
	_, claim, proof := proveProgram(t, program, goldilocks.NewElement(1))

	other := vm.NewProgram().Add(vm.AddConst, 6)
	otherClaim := vm.NewClaim(other.Digest()).
		WithInput(claim.Input).
		WithOutput(goldilocks.NewElement(7))
	otherAir, err := vm.NewProcessorAir(other, otherClaim)
	require.NoError(t, err)

	verifier, err := protocols.NewVerifier(testParameters())
	require.NoError(t, err)
	assert.Error(t, verifier.Verify(otherAir, otherClaim.Seed(), proof))
}

func TestVerifyRejectsTruncatedProof(t *testing.T) {
	program := vm.NewProgram().Add(vm.Inc, 0)
	air, claim, proof := proveProgram(t, program, goldilocks.NewElement(0))

	verifier, err := protocols.NewVerifier(testParameters())
	require.NoError(t, err)

	truncated := &protocols.Proof{Items: proof.Items[:len(proof.Items)-1]}
	err = verifier.Verify(air, claim.Seed(), truncated)
	require.Error(t, err)
	assert.True(t, errors.Is(err, protocols.ErrTranscriptDesync))
}

func TestVerifyRejectsReorderedItems(t *testing.T) {
	program := vm.NewProgram().Add(vm.Inc, 0)
	air, claim, proof := proveProgram(t, program, goldilocks.NewElement(0))

	verifier, err := protocols.NewVerifier(testParameters())
	require.NoError(t, err)

	reordered := &protocols.Proof{Items: append([]protocols.ProofItem(nil), proof.Items...)}
	reordered.Items[0], reordered.Items[1] = reordered.Items[1], reordered.Items[0]
	err = verifier.Verify(air, claim.Seed(), reordered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, protocols.ErrTranscriptDesync))
}

func TestVerifyRejectsTamperedTraceRoot(t *testing.T) {
	program := vm.NewProgram().Add(vm.MulConst, 3).Add(vm.AddConst, 1)
	air, claim, proof := proveProgram(t, program, goldilocks.NewElement(2))

	verifier, err := protocols.NewVerifier(testParameters())
	require.NoError(t, err)

	tampered := &protocols.Proof{Items: append([]protocols.ProofItem(nil), proof.Items...)}
	for i := range tampered.Items {
		if tampered.Items[i].Kind == protocols.ItemMerkleRoot {
			tampered.Items[i].Root[0] ^= 1
			break
		}
	}
	assert.Error(t, verifier.Verify(air, claim.Seed(), tampered))
}

func TestProofsAreRandomized(t *testing.T) {
	program := vm.NewProgram().Add(vm.AddConst, 9)
	air, claim, proofA := proveProgram(t, program, goldilocks.NewElement(5))
	_, _, proofB := proveProgram(t, program, goldilocks.NewElement(5))

	bytesA, err := proofA.MarshalBinary()
	require.NoError(t, err)
	bytesB, err := proofB.MarshalBinary()
	require.NoError(t, err)
	// the randomizer column makes honest proofs of the same claim
	// differ
	assert.NotEqual(t, bytesA, bytesB)

	verifier, err := protocols.NewVerifier(testParameters())
	require.NoError(t, err)
	assert.NoError(t, verifier.Verify(air, claim.Seed(), proofA))
	assert.NoError(t, verifier.Verify(air, claim.Seed(), proofB))
}

func TestProverRejectsInvalidTrace(t *testing.T) {
	program := vm.NewProgram().Add(vm.Inc, 0).Add(vm.Inc, 0).Add(vm.Inc, 0)
	input := goldilocks.NewElement(4)
	table, output, err := vm.NewMachine(program).Run(input)
	require.NoError(t, err)

	claim := vm.NewClaim(program.Digest()).WithInput(input).WithOutput(output)
	air, err := vm.NewProcessorAir(program, claim)
	require.NoError(t, err)

	// flip one accumulator cell
	one := goldilocks.NewElement(1)
	table.Columns[1][2].Add(&table.Columns[1][2], &one)

	prover, err := protocols.NewProver(testParameters())
	require.NoError(t, err)
	_, err = prover.Prove(air, table, claim.Seed())
	require.Error(t, err)
	assert.True(t, errors.Is(err, protocols.ErrMalformedTrace))
}

func TestProverRejectsOversizedTrace(t *testing.T) {
	program := vm.NewProgram()
	for i := 0; i < 16; i++ {
		program.Add(vm.Inc, 0)
	}
	input := goldilocks.NewElement(0)
	table, output, err := vm.NewMachine(program).Run(input)
	require.NoError(t, err)
	claim := vm.NewClaim(program.Digest()).WithInput(input).WithOutput(output)
	air, err := vm.NewProcessorAir(program, claim)
	require.NoError(t, err)

	params := testParameters().WithMaxTraceLength(16)
	prover, err := protocols.NewProver(params)
	require.NoError(t, err)
	_, err = prover.Prove(air, table, claim.Seed())
	require.Error(t, err)
	assert.True(t, errors.Is(err, protocols.ErrDomainSizeMismatch))
}
