package integration

import (
	"testing"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	starkvm "github.com/proofworks/starkvm/pkg/starkvm"

	"github.com/proofworks/starkvm/internal/starkvm/rescue"
	"github.com/proofworks/starkvm/internal/starkvm/vm"
)

// Proves a multi-step accumulator program end to end, ships the proof
// through its binary encoding and verifies it, then checks that a
// tampered claim and a tampered proof are both rejected.
func TestAccumulatorProgramEndToEnd(t *testing.T) {
	// 10! by repeated multiplication
	program := vm.NewProgram().Add(vm.Set, 1)
	for k := uint64(2); k <= 10; k++ {
		program.Add(vm.MulConst, k)
	}
	t.Logf("program:\n%s", program)

	input := goldilocks.NewElement(0)
	table, output, err := vm.NewMachine(program).Run(input)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	want := goldilocks.NewElement(3628800)
	if !output.Equal(&want) {
		t.Fatalf("10! = %s, want %s", output.String(), want.String())
	}
	t.Logf("trace height: %d", table.Height())

	claim := vm.NewClaim(program.Digest()).WithInput(input).WithOutput(output)
	air, err := vm.NewProcessorAir(program, claim)
	if err != nil {
		t.Fatalf("air construction failed: %v", err)
	}

	engine, err := starkvm.New(starkvm.DefaultParameters().WithNumQueries(16))
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	proof, err := engine.Prove(air, table, claim.Seed())
	if err != nil {
		t.Fatalf("proving failed: %v", err)
	}

	encoded, err := proof.MarshalBinary()
	if err != nil {
		t.Fatalf("proof encoding failed: %v", err)
	}
	t.Logf("proof size: %d bytes", len(encoded))

	decoded, err := starkvm.DecodeProof(encoded)
	if err != nil {
		t.Fatalf("proof decoding failed: %v", err)
	}
	accepted, reason, err := engine.Verify(air, claim.Seed(), decoded)
	if !accepted {
		t.Fatalf("honest proof rejected (%s): %v", reason, err)
	}

	// wrong output claim must fail
	badClaim := claim.WithOutput(goldilocks.NewElement(3628801))
	badAir, err := vm.NewProcessorAir(program, badClaim)
	if err != nil {
		t.Fatalf("air construction failed: %v", err)
	}
	accepted, reason, _ = engine.Verify(badAir, badClaim.Seed(), decoded)
	if accepted {
		t.Fatal("proof accepted for a wrong output claim")
	}
	t.Logf("wrong output rejected: %s", reason)

	// a flipped proof byte must fail, whatever byte it is
	corrupted := append([]byte(nil), encoded...)
	corrupted[len(corrupted)/2] ^= 1
	if decoded, err := starkvm.DecodeProof(corrupted); err == nil {
		if accepted, reason, _ := engine.Verify(air, claim.Seed(), decoded); accepted {
			t.Fatal("corrupted proof accepted")
		} else {
			t.Logf("corrupted proof rejected: %s", reason)
		}
	} else {
		t.Logf("corrupted proof rejected at decode: %v", err)
	}
}

// Proves one Rescue-Prime permutation and rejects a forged digest.
func TestRescueDigestEndToEnd(t *testing.T) {
	x := goldilocks.NewElement(31415)
	y := goldilocks.NewElement(92653)
	digest := rescue.Digest(x, y)

	table, err := rescue.TraceTable(x, y)
	if err != nil {
		t.Fatalf("trace generation failed: %v", err)
	}
	claim := rescue.Claim{Input: [rescue.Rate]goldilocks.Element{x, y}, Digest: digest}
	air := rescue.NewHashAir(claim)

	engine, err := starkvm.New(starkvm.DefaultParameters().WithNumQueries(16))
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	proof, err := engine.Prove(air, table, claim.Seed())
	if err != nil {
		t.Fatalf("proving failed: %v", err)
	}
	accepted, reason, err := engine.Verify(air, claim.Seed(), proof)
	if !accepted {
		t.Fatalf("honest proof rejected (%s): %v", reason, err)
	}

	var forged goldilocks.Element
	one := goldilocks.NewElement(1)
	forged.Add(&digest, &one)
	forgedClaim := rescue.Claim{Input: claim.Input, Digest: forged}
	forgedAir := rescue.NewHashAir(forgedClaim)
	accepted, reason, _ = engine.Verify(forgedAir, forgedClaim.Seed(), proof)
	if accepted {
		t.Fatal("proof accepted for a forged digest")
	}
	t.Logf("forged digest rejected: %s", reason)
}

// The two AIRs must not accept each other's proofs even with matching
// seeds, because the transcript binds the trace commitment.
func TestProofsDoNotTransferBetweenAirs(t *testing.T) {
	program := vm.NewProgram().Add(vm.Inc, 0)
	input := goldilocks.NewElement(3)
	table, output, err := vm.NewMachine(program).Run(input)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	claim := vm.NewClaim(program.Digest()).WithInput(input).WithOutput(output)
	air, err := vm.NewProcessorAir(program, claim)
	if err != nil {
		t.Fatalf("air construction failed: %v", err)
	}

	engine, err := starkvm.New(starkvm.DefaultParameters().WithNumQueries(16))
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	proof, err := engine.Prove(air, table, claim.Seed())
	if err != nil {
		t.Fatalf("proving failed: %v", err)
	}

	x := goldilocks.NewElement(1)
	y := goldilocks.NewElement(2)
	rescueClaim := rescue.Claim{Input: [rescue.Rate]goldilocks.Element{x, y}, Digest: rescue.Digest(x, y)}
	rescueAir := rescue.NewHashAir(rescueClaim)
	accepted, _, _ := engine.Verify(rescueAir, rescueClaim.Seed(), proof)
	if accepted {
		t.Fatal("processor proof accepted by the rescue air")
	}
}
