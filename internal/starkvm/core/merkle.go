package core

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/proofworks/starkvm/internal/starkvm/utils"
)

// Digest is a blake2b-256 hash.
type Digest = [blake2b.Size256]byte

// MerkleTree commits to an ordered list of byte leaves. The leaf count
// must be a power of two so that authentication paths have uniform
// length.
type MerkleTree struct {
	// levels[0] holds the leaf digests, the last level the root.
	levels [][]Digest
}

// NewMerkleTree hashes the leaves in parallel and builds the tree.
func NewMerkleTree(leaves [][]byte) (*MerkleTree, error) {
	n := len(leaves)
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("merkle tree needs a power-of-two leaf count, got %d", n)
	}

	leafDigests := make([]Digest, n)
	utils.Parallelize(n, func(start, end int) {
		for i := start; i < end; i++ {
			leafDigests[i] = blake2b.Sum256(leaves[i])
		}
	})

	levels := [][]Digest{leafDigests}
	for len(levels[len(levels)-1]) > 1 {
		prev := levels[len(levels)-1]
		next := make([]Digest, len(prev)/2)
		utils.Parallelize(len(next), func(start, end int) {
			var buf [2 * blake2b.Size256]byte
			for i := start; i < end; i++ {
				copy(buf[:blake2b.Size256], prev[2*i][:])
				copy(buf[blake2b.Size256:], prev[2*i+1][:])
				next[i] = blake2b.Sum256(buf[:])
			}
		})
		levels = append(levels, next)
	}
	return &MerkleTree{levels: levels}, nil
}

// NumLeaves returns the leaf count.
func (t *MerkleTree) NumLeaves() int {
	return len(t.levels[0])
}

// Root returns the tree root.
func (t *MerkleTree) Root() Digest {
	return t.levels[len(t.levels)-1][0]
}

// Open returns the authentication path for the leaf at index: the
// sibling digests from the leaf level up to just below the root.
func (t *MerkleTree) Open(index int) ([]Digest, error) {
	if index < 0 || index >= t.NumLeaves() {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", index, t.NumLeaves())
	}
	path := make([]Digest, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		path = append(path, level[index^1])
		index >>= 1
	}
	return path, nil
}

// VerifyPath checks an authentication path against a root. The index
// determines the left/right orientation at every level.
func VerifyPath(root Digest, index int, leaf []byte, path []Digest) bool {
	if index < 0 || index >= 1<<len(path) {
		return false
	}
	current := blake2b.Sum256(leaf)
	var buf [2 * blake2b.Size256]byte
	for _, sibling := range path {
		if index&1 == 0 {
			copy(buf[:blake2b.Size256], current[:])
			copy(buf[blake2b.Size256:], sibling[:])
		} else {
			copy(buf[:blake2b.Size256], sibling[:])
			copy(buf[blake2b.Size256:], current[:])
		}
		current = blake2b.Sum256(buf[:])
		index >>= 1
	}
	return bytes.Equal(current[:], root[:])
}
