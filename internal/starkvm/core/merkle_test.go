package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLeaves(n int) [][]byte {
	leaves := make([][]byte, n)
	for i := range leaves {
		leaves[i] = []byte(fmt.Sprintf("leaf-%d", i))
	}
	return leaves
}

func TestMerkleOpenVerify(t *testing.T) {
	leaves := testLeaves(16)
	tree, err := NewMerkleTree(leaves)
	require.NoError(t, err)
	assert.Equal(t, 16, tree.NumLeaves())

	root := tree.Root()
	for i := range leaves {
		path, err := tree.Open(i)
		require.NoError(t, err)
		require.Len(t, path, 4)
		assert.True(t, VerifyPath(root, i, leaves[i], path), "leaf %d", i)
	}
}

func TestMerkleRejectsTamperedLeaf(t *testing.T) {
	leaves := testLeaves(8)
	tree, err := NewMerkleTree(leaves)
	require.NoError(t, err)

	path, err := tree.Open(3)
	require.NoError(t, err)

	assert.False(t, VerifyPath(tree.Root(), 3, []byte("tampered"), path))
	assert.False(t, VerifyPath(tree.Root(), 4, leaves[3], path))

	tampered := append([]Digest(nil), path...)
	tampered[1][0] ^= 1
	assert.False(t, VerifyPath(tree.Root(), 3, leaves[3], tampered))
}

func TestMerkleRejectsOutOfRangeIndex(t *testing.T) {
	tree, err := NewMerkleTree(testLeaves(4))
	require.NoError(t, err)
	_, err = tree.Open(4)
	assert.Error(t, err)
	_, err = tree.Open(-1)
	assert.Error(t, err)

	path, err := tree.Open(0)
	require.NoError(t, err)
	assert.False(t, VerifyPath(tree.Root(), 7, []byte("leaf-0"), path))
}

func TestMerkleRejectsBadLeafCount(t *testing.T) {
	_, err := NewMerkleTree(testLeaves(6))
	assert.Error(t, err)
	_, err = NewMerkleTree(nil)
	assert.Error(t, err)
}

func TestMerkleSingleLeaf(t *testing.T) {
	tree, err := NewMerkleTree(testLeaves(1))
	require.NoError(t, err)
	path, err := tree.Open(0)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.True(t, VerifyPath(tree.Root(), 0, []byte("leaf-0"), path))
}
