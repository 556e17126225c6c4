package protocols

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/proofworks/starkvm/internal/starkvm/core"
	"github.com/proofworks/starkvm/internal/starkvm/utils"
)

// transcriptDomainSeparator seeds every transcript of this proof
// system version.
const transcriptDomainSeparator = "starkvm.stark.v1"

// The prover is a staged pipeline. Each stage is its own type and only
// the previous stage can construct the next one, so the transcript
// order is enforced at compile time:
//
//	TraceReady -> Extended -> Committed -> CompositionDrawn ->
//	CompositionCommitted -> FRIComplete -> QueriesAnswered -> Proof
//
// Every error is fatal; no partial proof is ever emitted.

// TraceReady holds a validated trace and the proof parameters.
type TraceReady struct {
	air        Air
	table      *Table
	claimSeed  []byte
	parameters utils.Parameters
}

// NewTraceReady validates the parameters and the trace against the
// AIR.
func NewTraceReady(air Air, table *Table, claimSeed []byte, parameters utils.Parameters) (*TraceReady, error) {
	if err := parameters.Validate(); err != nil {
		return nil, err
	}
	if air.TraceLength() > parameters.MaxTraceLength {
		return nil, fmt.Errorf("%w: trace length %d exceeds cap %d", ErrDomainSizeMismatch, air.TraceLength(), parameters.MaxTraceLength)
	}
	if err := ValidateTrace(air, table); err != nil {
		return nil, err
	}
	return &TraceReady{
		air:        air,
		table:      table,
		claimSeed:  append([]byte(nil), claimSeed...),
		parameters: parameters,
	}, nil
}

// Extended holds the low-degree extensions of all columns over the FRI
// domain, plus the randomizer codeword.
type Extended struct {
	*TraceReady
	composer      *Composer
	fri           *Fri
	friDomain     *core.ArithmeticDomain
	traceColumns  [][]goldilocks.Element
	randomizer    []goldilocks.Element
	publicColumns [][]goldilocks.Element
}

// Extend interpolates every trace and public column over the trace
// domain and evaluates it over the FRI coset, columns in parallel, and
// samples the randomizer codeword.
func (t *TraceReady) Extend() (*Extended, error) {
	composer, err := NewComposer(t.air)
	if err != nil {
		return nil, err
	}
	fri, err := NewFri(
		core.CosetOffset(),
		composer.FriDomainLength(t.parameters.ExpansionFactor),
		t.parameters.ExpansionFactor,
		t.parameters.NumQueries,
	)
	if err != nil {
		return nil, err
	}
	friDomain := fri.Domain()
	traceDomain := composer.TraceDomain()

	extendColumns := func(columns [][]goldilocks.Element) ([][]goldilocks.Element, error) {
		extended := make([][]goldilocks.Element, len(columns))
		errs := make([]error, len(columns))
		utils.Parallelize(len(columns), func(start, end int) {
			for i := start; i < end; i++ {
				poly, err := traceDomain.Interpolate(columns[i])
				if err != nil {
					errs[i] = err
					continue
				}
				extended[i], errs[i] = friDomain.Evaluate(poly)
			}
		})
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		return extended, nil
	}

	traceColumns, err := extendColumns(t.table.Columns)
	if err != nil {
		return nil, err
	}
	publicColumns, err := extendColumns(t.air.PublicColumns())
	if err != nil {
		return nil, err
	}

	// The randomizer is a uniformly random polynomial of maximal
	// degree, mixed into the combination so revealed combination
	// values leak nothing about the trace.
	coefficients := make([]goldilocks.Element, composer.MaxDegreeBound()+1)
	for i := range coefficients {
		if _, err := coefficients[i].SetRandom(); err != nil {
			return nil, fmt.Errorf("randomizer sampling: %w", err)
		}
	}
	randomizer, err := friDomain.Evaluate(core.NewPolynomial(coefficients))
	if err != nil {
		return nil, err
	}

	return &Extended{
		TraceReady:    t,
		composer:      composer,
		fri:           fri,
		friDomain:     friDomain,
		traceColumns:  traceColumns,
		randomizer:    randomizer,
		publicColumns: publicColumns,
	}, nil
}

// Committed holds the trace commitment and the open transcript.
type Committed struct {
	*Extended
	stream    *ProofStream
	traceTree *core.MerkleTree
	rows      [][]goldilocks.Element
}

// Commit opens the transcript with the claim seed, announces the
// padded height and commits to the extended trace rows. Each leaf is
// one domain index: all trace columns plus the randomizer value.
func (e *Extended) Commit() (*Committed, error) {
	channel := utils.NewChannel(transcriptDomainSeparator)
	channel.Absorb(e.claimSeed)
	stream := NewProofStream(channel)

	logHeight, err := utils.Log2(e.air.TraceLength())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDomainSizeMismatch, err)
	}
	stream.Enqueue(ProofItem{Kind: ItemPaddedHeightLog2, Height: uint8(logHeight)})

	width := e.air.Width()
	rows := make([][]goldilocks.Element, e.friDomain.Length)
	leaves := make([][]byte, e.friDomain.Length)
	utils.Parallelize(e.friDomain.Length, func(start, end int) {
		for i := start; i < end; i++ {
			row := make([]goldilocks.Element, width+1)
			for col := 0; col < width; col++ {
				row[col] = e.traceColumns[col][i]
			}
			row[width] = e.randomizer[i]
			rows[i] = row
			leaves[i] = leafBytes(row)
		}
	})
	tree, err := core.NewMerkleTree(leaves)
	if err != nil {
		return nil, err
	}
	stream.Enqueue(ProofItem{Kind: ItemMerkleRoot, Root: tree.Root()})

	return &Committed{Extended: e, stream: stream, traceTree: tree, rows: rows}, nil
}

// CompositionDrawn holds the weighted combination codeword.
type CompositionDrawn struct {
	*Committed
	weights     []goldilocks.Element
	combination []goldilocks.Element
}

// DrawComposition squeezes the combination weights, builds all terms,
// checks their degrees and combines them.
func (c *Committed) DrawComposition() (*CompositionDrawn, error) {
	weights := c.composer.SqueezeWeights(c.stream.Channel())
	terms, err := c.composer.TermCodewords(c.friDomain, c.traceColumns, c.randomizer, c.publicColumns)
	if err != nil {
		return nil, err
	}
	if err := c.composer.CheckTermDegrees(c.friDomain, terms); err != nil {
		return nil, err
	}
	combination, err := c.composer.Combine(weights, terms)
	if err != nil {
		return nil, err
	}
	return &CompositionDrawn{Committed: c, weights: weights, combination: combination}, nil
}

// CompositionCommitted holds the combination commitment.
type CompositionCommitted struct {
	*CompositionDrawn
	combinationRoot core.Digest
}

// CommitComposition commits to the combination codeword. FRI opens its
// layer 0 on the same codeword, so the verifier can pin the two
// together.
func (c *CompositionDrawn) CommitComposition() (*CompositionCommitted, error) {
	tree, err := core.NewMerkleTree(elementLeaves(c.combination))
	if err != nil {
		return nil, err
	}
	c.stream.Enqueue(ProofItem{Kind: ItemMerkleRoot, Root: tree.Root()})
	return &CompositionCommitted{CompositionDrawn: c, combinationRoot: tree.Root()}, nil
}

// FRIComplete remembers which layer-0 indices the FRI queries touched.
type FRIComplete struct {
	*CompositionCommitted
	queryIndices []int
}

// RunFRI proves the combination codeword's degree bound.
func (c *CompositionCommitted) RunFRI() (*FRIComplete, error) {
	indices, err := c.fri.Prove(c.combination, c.stream)
	if err != nil {
		return nil, err
	}
	return &FRIComplete{CompositionCommitted: c, queryIndices: indices}, nil
}

// QueriesAnswered holds the finished transcript.
type QueriesAnswered struct {
	*FRIComplete
}

// AnswerQueries opens the trace rows the composition check needs: each
// queried index and its next-row partner one unit distance further.
func (f *FRIComplete) AnswerQueries() (*QueriesAnswered, error) {
	unitDistance := f.friDomain.Length / f.air.TraceLength()
	revealed := bitset.New(uint(f.friDomain.Length))
	opening := &TraceOpening{}
	for _, q := range f.queryIndices {
		for _, idx := range []int{q, (q + unitDistance) % f.friDomain.Length} {
			if revealed.Test(uint(idx)) {
				continue
			}
			revealed.Set(uint(idx))
			path, err := f.traceTree.Open(idx)
			if err != nil {
				return nil, err
			}
			opening.Rows = append(opening.Rows, Opening{
				Index:  uint32(idx),
				Values: f.rows[idx],
				Path:   path,
			})
		}
	}
	f.stream.Enqueue(ProofItem{Kind: ItemTraceOpening, Trace: opening})
	return &QueriesAnswered{FRIComplete: f}, nil
}

// Finalize returns the proof.
func (q *QueriesAnswered) Finalize() *Proof {
	return q.stream.Proof()
}

// Prover drives the whole pipeline.
type Prover struct {
	parameters utils.Parameters
}

// NewProver validates the parameters once.
func NewProver(parameters utils.Parameters) (*Prover, error) {
	if err := parameters.Validate(); err != nil {
		return nil, err
	}
	return &Prover{parameters: parameters}, nil
}

// Prove runs all stages and returns the proof. claimSeed binds the
// proof to the public claim; the verifier must be given the same
// bytes.
func (p *Prover) Prove(air Air, table *Table, claimSeed []byte) (*Proof, error) {
	traceReady, err := NewTraceReady(air, table, claimSeed, p.parameters)
	if err != nil {
		return nil, err
	}
	extended, err := traceReady.Extend()
	if err != nil {
		return nil, err
	}
	committed, err := extended.Commit()
	if err != nil {
		return nil, err
	}
	drawn, err := committed.DrawComposition()
	if err != nil {
		return nil, err
	}
	compositionCommitted, err := drawn.CommitComposition()
	if err != nil {
		return nil, err
	}
	friComplete, err := compositionCommitted.RunFRI()
	if err != nil {
		return nil, err
	}
	answered, err := friComplete.AnswerQueries()
	if err != nil {
		return nil, err
	}
	return answered.Finalize(), nil
}
