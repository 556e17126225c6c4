// Command starkvm proves and verifies accumulator machine executions.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	starkvm "github.com/proofworks/starkvm/internal/starkvm"
	"github.com/proofworks/starkvm/internal/starkvm/utils"
	"github.com/proofworks/starkvm/internal/starkvm/vm"
)

var (
	logger zerolog.Logger

	flagProgram   string
	flagInput     uint64
	flagOutput    uint64
	flagProof     string
	flagExpansion int
	flagQueries   int
	flagVerbose   bool
)

func main() {
	root := &cobra.Command{
		Use:           "starkvm",
		Short:         "prove and verify accumulator machine executions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if flagVerbose {
				level = zerolog.DebugLevel
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
		},
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().IntVar(&flagExpansion, "expansion", 4, "FRI expansion factor (power of two, >= 4)")
	root.PersistentFlags().IntVar(&flagQueries, "queries", 40, "number of FRI queries")

	root.AddCommand(newProveCommand(), newVerifyCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parameters() utils.Parameters {
	return utils.DefaultParameters().
		WithExpansionFactor(flagExpansion).
		WithNumQueries(flagQueries)
}

func loadProgram(path string) (*vm.Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	program, err := vm.ParseProgram(string(source))
	if err != nil {
		return nil, fmt.Errorf("parse program: %w", err)
	}
	return program, nil
}

func newProveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "run a program and prove the execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := loadProgram(flagProgram)
			if err != nil {
				return err
			}
			input := goldilocks.NewElement(flagInput)

			start := time.Now()
			table, output, err := vm.NewMachine(program).Run(input)
			if err != nil {
				return fmt.Errorf("execute: %w", err)
			}
			logger.Debug().
				Int("trace_height", table.Height()).
				Dur("elapsed", time.Since(start)).
				Msg("execution traced")

			claim := vm.NewClaim(program.Digest()).WithInput(input).WithOutput(output)
			air, err := vm.NewProcessorAir(program, claim)
			if err != nil {
				return err
			}
			stark, err := starkvm.New(parameters())
			if err != nil {
				return err
			}

			start = time.Now()
			proof, err := stark.Prove(air, table, claim.Seed())
			if err != nil {
				return fmt.Errorf("prove: %w", err)
			}
			encoded, err := proof.MarshalBinary()
			if err != nil {
				return fmt.Errorf("encode proof: %w", err)
			}
			if err := os.WriteFile(flagProof, encoded, 0o644); err != nil {
				return fmt.Errorf("write proof: %w", err)
			}
			logger.Info().
				Str("output", output.String()).
				Int("proof_bytes", len(encoded)).
				Int("security_bits", parameters().SecurityLevel()).
				Dur("elapsed", time.Since(start)).
				Msg("proof written")
			fmt.Println(output.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&flagProgram, "program", "", "program assembly file")
	cmd.Flags().Uint64Var(&flagInput, "input", 0, "public input")
	cmd.Flags().StringVar(&flagProof, "proof", "starkvm.proof", "proof output file")
	_ = cmd.MarkFlagRequired("program")
	return cmd
}

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "verify a proof against a program, input and output",
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := loadProgram(flagProgram)
			if err != nil {
				return err
			}
			encoded, err := os.ReadFile(flagProof)
			if err != nil {
				return fmt.Errorf("read proof: %w", err)
			}
			claim := vm.NewClaim(program.Digest()).
				WithInput(goldilocks.NewElement(flagInput)).
				WithOutput(goldilocks.NewElement(flagOutput))
			air, err := vm.NewProcessorAir(program, claim)
			if err != nil {
				return err
			}
			stark, err := starkvm.New(parameters())
			if err != nil {
				return err
			}

			decoded, err := starkvm.DecodeProof(encoded)
			if err != nil {
				logger.Warn().Err(err).Msg("proof rejected")
				return fmt.Errorf("proof rejected: %w", err)
			}
			start := time.Now()
			accepted, reason, err := stark.Verify(air, claim.Seed(), decoded)
			if !accepted {
				logger.Warn().
					Stringer("reason", reason).
					Err(err).
					Dur("elapsed", time.Since(start)).
					Msg("proof rejected")
				return fmt.Errorf("proof rejected: %s", reason)
			}
			logger.Info().Dur("elapsed", time.Since(start)).Msg("proof accepted")
			fmt.Println("accepted")
			return nil
		},
	}
	cmd.Flags().StringVar(&flagProgram, "program", "", "program assembly file")
	cmd.Flags().Uint64Var(&flagInput, "input", 0, "public input")
	cmd.Flags().Uint64Var(&flagOutput, "output", 0, "claimed output")
	cmd.Flags().StringVar(&flagProof, "proof", "starkvm.proof", "proof file")
	_ = cmd.MarkFlagRequired("program")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
