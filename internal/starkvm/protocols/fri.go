package protocols

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/proofworks/starkvm/internal/starkvm/core"
	"github.com/proofworks/starkvm/internal/starkvm/utils"
)

// Fri runs the FRI low-degree test over a coset domain. The prover
// repeatedly commits and folds the codeword until the remainder is
// small enough to send in the clear; the verifier replays the
// commitments and spot-checks each fold by colinearity.
type Fri struct {
	domain               *core.ArithmeticDomain
	expansionFactor      int
	numColinearityChecks int
}

// CodewordEvaluation is a Merkle-verified value of the layer-0
// codeword, handed back to the orchestrator for its own checks.
type CodewordEvaluation struct {
	Index int
	Value goldilocks.Element
}

// NewFri builds a FRI instance over the coset offset*<omega> of the
// given power-of-two length.
func NewFri(offset goldilocks.Element, domainLength, expansionFactor, numColinearityChecks int) (*Fri, error) {
	if !utils.IsPowerOfTwo(expansionFactor) || expansionFactor < 4 {
		return nil, fmt.Errorf("expansion factor must be a power of two >= 4, got %d", expansionFactor)
	}
	if numColinearityChecks < 1 {
		return nil, fmt.Errorf("need at least one colinearity check")
	}
	if domainLength < expansionFactor {
		return nil, fmt.Errorf("domain length %d below expansion factor %d", domainLength, expansionFactor)
	}
	domain, err := core.NewArithmeticDomain(offset, domainLength)
	if err != nil {
		return nil, err
	}
	return &Fri{
		domain:               domain,
		expansionFactor:      expansionFactor,
		numColinearityChecks: numColinearityChecks,
	}, nil
}

// Domain returns the layer-0 evaluation domain.
func (f *Fri) Domain() *core.ArithmeticDomain {
	return f.domain
}

// NumRounds returns the folding round count and the degree the final
// codeword may have. Rounds stop early when the colinearity check
// count exceeds the expansion factor, since beyond that point further
// folding no longer improves soundness.
func (f *Fri) NumRounds() (int, int) {
	maxDegree := f.domain.Length/f.expansionFactor - 1
	rounds := utils.Log2Ceil(uint64(maxDegree) + 1)
	lastMaxDegree := 0
	if f.expansionFactor < f.numColinearityChecks {
		missed := utils.Log2Ceil(uint64((f.numColinearityChecks + f.expansionFactor - 1) / f.expansionFactor))
		if missed > rounds {
			missed = rounds
		}
		rounds -= missed
		lastMaxDegree = 1<<missed - 1
	}
	return rounds, lastMaxDegree
}

// Prove commits all layers, sends the final codeword in the clear and
// answers the sampled queries. It returns the layer-0 indices the
// queries touched, for the orchestrator to open its own commitments at
// the same positions.
func (f *Fri) Prove(codeword []goldilocks.Element, stream *ProofStream) ([]int, error) {
	if len(codeword) != f.domain.Length {
		return nil, fmt.Errorf("codeword length %d does not match fri domain length %d", len(codeword), f.domain.Length)
	}
	numRounds, _ := f.NumRounds()

	// commit phase
	codewords := make([][]goldilocks.Element, 0, numRounds+1)
	trees := make([]*core.MerkleTree, 0, numRounds+1)
	domain := f.domain
	current := codeword
	for r := 0; ; r++ {
		tree, err := core.NewMerkleTree(elementLeaves(current))
		if err != nil {
			return nil, fmt.Errorf("fri layer %d: %w", r, err)
		}
		codewords = append(codewords, current)
		trees = append(trees, tree)
		stream.Enqueue(ProofItem{Kind: ItemMerkleRoot, Root: tree.Root()})
		if r == numRounds {
			break
		}
		alpha := stream.Channel().SqueezeFieldElement()
		current, err = foldCodeword(current, domain, alpha)
		if err != nil {
			return nil, fmt.Errorf("fri fold %d: %w", r, err)
		}
		domain, err = domain.Halve()
		if err != nil {
			return nil, err
		}
	}
	final := append([]goldilocks.Element(nil), current...)
	stream.Enqueue(ProofItem{Kind: ItemFieldElements, Elements: final})

	topIndices, err := f.sampleIndices(stream.Channel(), numRounds)
	if err != nil {
		return nil, err
	}

	// query phase
	cIndices := append([]int(nil), topIndices...)
	for r := 0; r < numRounds; r++ {
		half := len(codewords[r]) / 2
		for j := range cIndices {
			cIndices[j] %= half
		}
		round := &FriRoundOpening{}
		for _, c := range cIndices {
			a, b := c, c+half
			aOpen, err := openCodeword(trees[r], codewords[r], a)
			if err != nil {
				return nil, err
			}
			bOpen, err := openCodeword(trees[r], codewords[r], b)
			if err != nil {
				return nil, err
			}
			cOpen, err := openCodeword(trees[r+1], codewords[r+1], c)
			if err != nil {
				return nil, err
			}
			round.A = append(round.A, aOpen)
			round.B = append(round.B, bOpen)
			round.C = append(round.C, cOpen)
		}
		stream.Enqueue(ProofItem{Kind: ItemFriRoundOpening, FriRound: round})
	}

	return f.queryIndices(topIndices, numRounds), nil
}

// Verify replays the commit phase, checks the final codeword against
// its root and degree bound, and spot-checks every fold. On success it
// returns the Merkle-verified layer-0 evaluations at the query
// indices.
func (f *Fri) Verify(stream *ProofStream, expectedFirstRoot core.Digest) ([]CodewordEvaluation, error) {
	numRounds, lastMaxDegree := f.NumRounds()

	roots := make([]core.Digest, 0, numRounds+1)
	alphas := make([]goldilocks.Element, 0, numRounds)
	for r := 0; r <= numRounds; r++ {
		root, err := stream.DequeueMerkleRoot()
		if err != nil {
			return nil, err
		}
		roots = append(roots, root)
		if r < numRounds {
			alphas = append(alphas, stream.Channel().SqueezeFieldElement())
		}
	}
	if roots[0] != expectedFirstRoot {
		return nil, fmt.Errorf("%w: layer-0 root does not match the composition commitment", ErrFRIConsistencyFailure)
	}

	final, err := stream.DequeueFieldElements()
	if err != nil {
		return nil, err
	}
	lastLength := f.domain.Length >> numRounds
	if len(final) != lastLength {
		return nil, fmt.Errorf("%w: final codeword length %d, want %d", ErrFRIConsistencyFailure, len(final), lastLength)
	}
	finalTree, err := core.NewMerkleTree(elementLeaves(final))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFRIConsistencyFailure, err)
	}
	if finalTree.Root() != roots[numRounds] {
		return nil, fmt.Errorf("%w: final codeword does not match its commitment", ErrFRIConsistencyFailure)
	}
	lastDomain := f.domain
	for r := 0; r < numRounds; r++ {
		lastDomain, err = lastDomain.Halve()
		if err != nil {
			return nil, err
		}
	}
	finalPoly, err := lastDomain.Interpolate(final)
	if err != nil {
		return nil, err
	}
	if finalPoly.Degree() > lastMaxDegree {
		return nil, fmt.Errorf("%w: final codeword degree %d exceeds %d", ErrDegreeBoundViolated, finalPoly.Degree(), lastMaxDegree)
	}

	topIndices, err := f.sampleIndices(stream.Channel(), numRounds)
	if err != nil {
		return nil, err
	}

	if numRounds == 0 {
		evaluations := make([]CodewordEvaluation, len(topIndices))
		for j, idx := range topIndices {
			evaluations[j] = CodewordEvaluation{Index: idx, Value: final[idx]}
		}
		return evaluations, nil
	}

	evaluations := make([]CodewordEvaluation, 0, 2*len(topIndices))
	cIndices := append([]int(nil), topIndices...)
	domain := f.domain
	for r := 0; r < numRounds; r++ {
		half := (f.domain.Length >> r) / 2
		for j := range cIndices {
			cIndices[j] %= half
		}
		round, err := stream.DequeueFriRoundOpening()
		if err != nil {
			return nil, err
		}
		if len(round.A) != len(cIndices) || len(round.B) != len(cIndices) || len(round.C) != len(cIndices) {
			return nil, fmt.Errorf("%w: fri round %d has wrong opening count", ErrTranscriptDesync, r)
		}
		for j, c := range cIndices {
			a, b := c, c+half
			aOpen, bOpen, cOpen := round.A[j], round.B[j], round.C[j]
			if err := checkOpening(aOpen, a, roots[r]); err != nil {
				return nil, fmt.Errorf("fri round %d query %d: %w", r, j, err)
			}
			if err := checkOpening(bOpen, b, roots[r]); err != nil {
				return nil, fmt.Errorf("fri round %d query %d: %w", r, j, err)
			}
			if err := checkOpening(cOpen, c, roots[r+1]); err != nil {
				return nil, fmt.Errorf("fri round %d query %d: %w", r, j, err)
			}
			ax := domain.ValueAt(a)
			bx := domain.ValueAt(b)
			if !core.AreColinear(ax, aOpen.Values[0], bx, bOpen.Values[0], alphas[r], cOpen.Values[0]) {
				return nil, fmt.Errorf("%w: fold %d not colinear at query %d", ErrFRIConsistencyFailure, r, j)
			}
			if r == 0 {
				evaluations = append(evaluations,
					CodewordEvaluation{Index: a, Value: aOpen.Values[0]},
					CodewordEvaluation{Index: b, Value: bOpen.Values[0]},
				)
			}
		}
		domain, err = domain.Halve()
		if err != nil {
			return nil, err
		}
	}
	return evaluations, nil
}

// sampleIndices draws the query positions: distinct indices on the
// final layer, lifted layer by layer to the top by randomly adding the
// half-domain offset.
func (f *Fri) sampleIndices(channel *utils.Channel, numRounds int) ([]int, error) {
	lastLength := f.domain.Length >> numRounds
	count := f.numColinearityChecks
	if count > lastLength {
		count = lastLength
	}
	indices, err := channel.SqueezeIndices(count, lastLength)
	if err != nil {
		return nil, err
	}
	for i := 1; i < numRounds; i++ {
		layerLength := lastLength << i
		for j := range indices {
			if channel.SqueezeIndex(2) == 1 {
				indices[j] += layerLength / 2
			}
		}
	}
	return indices, nil
}

// queryIndices expands the top-level fold positions into all layer-0
// indices touched by the queries.
func (f *Fri) queryIndices(topIndices []int, numRounds int) []int {
	if numRounds == 0 {
		return append([]int(nil), topIndices...)
	}
	half := f.domain.Length / 2
	indices := make([]int, 0, 2*len(topIndices))
	for _, idx := range topIndices {
		indices = append(indices, idx)
	}
	for _, idx := range topIndices {
		indices = append(indices, idx+half)
	}
	return indices
}

// foldCodeword halves the codeword:
// f'(i) = ((1 + a/x_i) f(i) + (1 - a/x_i) f(i + n/2)) / 2,
// the evaluation of the even/odd split combined with alpha over the
// squared domain.
func foldCodeword(codeword []goldilocks.Element, domain *core.ArithmeticDomain, alpha goldilocks.Element) ([]goldilocks.Element, error) {
	half := len(codeword) / 2
	xInverses, err := core.BatchInvert(domain.Values()[:half])
	if err != nil {
		return nil, err
	}
	var twoInv goldilocks.Element
	twoInv.SetUint64(2)
	twoInv.Inverse(&twoInv)
	one := goldilocks.NewElement(1)

	folded := make([]goldilocks.Element, half)
	utils.Parallelize(half, func(start, end int) {
		for i := start; i < end; i++ {
			var ax, plus, minus, left, right goldilocks.Element
			ax.Mul(&alpha, &xInverses[i])
			plus.Add(&one, &ax)
			minus.Sub(&one, &ax)
			left.Mul(&plus, &codeword[i])
			right.Mul(&minus, &codeword[i+half])
			folded[i].Add(&left, &right)
			folded[i].Mul(&folded[i], &twoInv)
		}
	})
	return folded, nil
}

// checkOpening verifies a single-value opening against a layer root.
func checkOpening(opening Opening, index int, root core.Digest) error {
	if int(opening.Index) != index {
		return fmt.Errorf("%w: opening index %d, want %d", ErrTranscriptDesync, opening.Index, index)
	}
	if len(opening.Values) != 1 {
		return fmt.Errorf("%w: fri opening carries %d values, want 1", ErrTranscriptDesync, len(opening.Values))
	}
	if !core.VerifyPath(root, index, leafBytes(opening.Values), opening.Path) {
		return ErrMerkleProofInvalid
	}
	return nil
}

// openCodeword builds a single-value opening with its path.
func openCodeword(tree *core.MerkleTree, codeword []goldilocks.Element, index int) (Opening, error) {
	path, err := tree.Open(index)
	if err != nil {
		return Opening{}, err
	}
	return Opening{
		Index:  uint32(index),
		Values: []goldilocks.Element{codeword[index]},
		Path:   path,
	}, nil
}

// elementLeaves encodes each codeword element as one Merkle leaf.
func elementLeaves(codeword []goldilocks.Element) [][]byte {
	leaves := make([][]byte, len(codeword))
	for i := range codeword {
		b := codeword[i].Bytes()
		leaves[i] = b[:]
	}
	return leaves
}

// leafBytes concatenates the canonical encodings of a leaf's values.
func leafBytes(values []goldilocks.Element) []byte {
	buf := make([]byte, 0, goldilocks.Bytes*len(values))
	return appendElements(buf, values)
}
