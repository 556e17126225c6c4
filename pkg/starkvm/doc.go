// Package starkvm is the public API of the proof engine. It re-exports
// the pieces needed to prove and verify executions of the accumulator
// machine and the Rescue-Prime permutation: parameter handling, the
// staged prover, the verifier and the binary proof codec.
//
// Basic usage:
//
//	program := vmpkg.NewProgram().Add(vmpkg.Set, 3).Add(vmpkg.MulConst, 14)
//	table, output, _ := vmpkg.NewMachine(program).Run(input)
//	claim := vmpkg.NewClaim(program.Digest()).WithInput(input).WithOutput(output)
//	air, _ := vmpkg.NewProcessorAir(program, claim)
//
//	engine, _ := starkvm.New(starkvm.DefaultParameters())
//	proof, _ := engine.Prove(air, table, claim.Seed())
//	accepted, _, _ := engine.Verify(air, claim.Seed(), proof)
package starkvm
