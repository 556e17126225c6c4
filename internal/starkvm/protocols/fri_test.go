package protocols

import (
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofworks/starkvm/internal/starkvm/core"
	"github.com/proofworks/starkvm/internal/starkvm/utils"
)

func randomPolynomial(t *testing.T, numCoefficients int) core.Polynomial {
	t.Helper()
	coefficients := make([]goldilocks.Element, numCoefficients)
	for i := range coefficients {
		_, err := coefficients[i].SetRandom()
		require.NoError(t, err)
	}
	return core.NewPolynomial(coefficients)
}

func friProveVerify(t *testing.T, codeword []goldilocks.Element, fri *Fri) ([]CodewordEvaluation, error) {
	t.Helper()

	proverStream := NewProofStream(utils.NewChannel("fri-test"))
	_, err := fri.Prove(codeword, proverStream)
	require.NoError(t, err)

	firstTree, err := core.NewMerkleTree(elementLeaves(codeword))
	require.NoError(t, err)

	verifierStream := NewProofReader(proverStream.Proof(), utils.NewChannel("fri-test"))
	return fri.Verify(verifierStream, firstTree.Root())
}

func TestFriAcceptsLowDegreeCodeword(t *testing.T) {
	const domainLength = 256
	const expansion = 4
	fri, err := NewFri(core.CosetOffset(), domainLength, expansion, 8)
	require.NoError(t, err)

	poly := randomPolynomial(t, domainLength/expansion)
	codeword, err := fri.Domain().Evaluate(poly)
	require.NoError(t, err)

	evaluations, err := friProveVerify(t, codeword, fri)
	require.NoError(t, err)
	require.NotEmpty(t, evaluations)
	for _, evaluation := range evaluations {
		expected := poly.EvaluateAt(fri.Domain().ValueAt(evaluation.Index))
		assert.True(t, expected.Equal(&evaluation.Value), "index %d", evaluation.Index)
	}
}

func TestFriRejectsHighDegreeCodeword(t *testing.T) {
	const domainLength = 256
	fri, err := NewFri(core.CosetOffset(), domainLength, 4, 8)
	require.NoError(t, err)

	// full-degree codeword: random values are w.h.p. not low degree
	codeword := make([]goldilocks.Element, domainLength)
	for i := range codeword {
		_, err := codeword[i].SetRandom()
		require.NoError(t, err)
	}

	_, err = friProveVerify(t, codeword, fri)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegreeBoundViolated), "got %v", err)
}

func TestFriRejectsWrongFirstRoot(t *testing.T) {
	const domainLength = 128
	fri, err := NewFri(core.CosetOffset(), domainLength, 4, 8)
	require.NoError(t, err)

	poly := randomPolynomial(t, domainLength/4)
	codeword, err := fri.Domain().Evaluate(poly)
	require.NoError(t, err)

	proverStream := NewProofStream(utils.NewChannel("fri-test"))
	_, err = fri.Prove(codeword, proverStream)
	require.NoError(t, err)

	verifierStream := NewProofReader(proverStream.Proof(), utils.NewChannel("fri-test"))
	var bogus core.Digest
	bogus[0] = 0xff
	_, err = fri.Verify(verifierStream, bogus)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFRIConsistencyFailure))
}

func TestFriFoldHalvesDegree(t *testing.T) {
	domain, err := core.NewArithmeticDomain(core.CosetOffset(), 64)
	require.NoError(t, err)

	poly := randomPolynomial(t, 11)
	codeword, err := domain.Evaluate(poly)
	require.NoError(t, err)

	alpha := utils.NewChannel("alpha").SqueezeFieldElement()
	folded, err := foldCodeword(codeword, domain, alpha)
	require.NoError(t, err)

	halved, err := domain.Halve()
	require.NoError(t, err)
	foldedPoly, err := halved.Interpolate(folded)
	require.NoError(t, err)
	assert.LessOrEqual(t, foldedPoly.Degree(), poly.Degree()/2)
}

func TestFriNumRounds(t *testing.T) {
	tests := []struct {
		domainLength  int
		expansion     int
		checks        int
		wantRounds    int
		wantLastBound int
	}{
		// 64 max degree positions, more checks than expansion
		{256, 4, 8, 5, 1},
		{256, 4, 40, 2, 15},
		// checks below expansion: fold all the way down
		{256, 4, 2, 6, 0},
		{64, 4, 40, 0, 15},
	}
	for _, tc := range tests {
		fri, err := NewFri(core.CosetOffset(), tc.domainLength, tc.expansion, tc.checks)
		require.NoError(t, err)
		rounds, lastBound := fri.NumRounds()
		assert.Equal(t, tc.wantRounds, rounds, "domain %d checks %d", tc.domainLength, tc.checks)
		assert.Equal(t, tc.wantLastBound, lastBound, "domain %d checks %d", tc.domainLength, tc.checks)
	}
}

func TestFriTamperedProofRejected(t *testing.T) {
	const domainLength = 256
	fri, err := NewFri(core.CosetOffset(), domainLength, 4, 8)
	require.NoError(t, err)

	poly := randomPolynomial(t, domainLength/4)
	codeword, err := fri.Domain().Evaluate(poly)
	require.NoError(t, err)

	proverStream := NewProofStream(utils.NewChannel("fri-test"))
	_, err = fri.Prove(codeword, proverStream)
	require.NoError(t, err)
	proof := proverStream.Proof()

	// flip one opened value
	for i := range proof.Items {
		if proof.Items[i].Kind == ItemFriRoundOpening {
			one := goldilocks.NewElement(1)
			proof.Items[i].FriRound.A[0].Values[0].Add(&proof.Items[i].FriRound.A[0].Values[0], &one)
			break
		}
	}

	firstTree, err := core.NewMerkleTree(elementLeaves(codeword))
	require.NoError(t, err)
	verifierStream := NewProofReader(proof, utils.NewChannel("fri-test"))
	_, err = fri.Verify(verifierStream, firstTree.Root())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMerkleProofInvalid), "got %v", err)
}
