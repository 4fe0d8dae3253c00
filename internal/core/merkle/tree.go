package merkle

import (
	"errors"
	"fmt"
)

var (
	// ErrTreeFull is returned when appending to a tree at capacity
	ErrTreeFull = errors.New("merkle tree is full")

	// ErrIndexOutOfBounds is returned for an index past the last appended leaf
	ErrIndexOutOfBounds = errors.New("leaf index out of bounds")
)

// Tree is an in-memory full merkle tree. It keeps every node so it can
// produce proofs for any leaf; it mirrors the root of the on-chain
// accumulator when fed the same leaves.
type Tree struct {
	depth  uint32
	levels [][]Hash
}

// NewTree returns an empty tree of the given depth.
func NewTree(depth uint32) (*Tree, error) {
	if depth == 0 || depth > MaxDepth {
		return nil, fmt.Errorf("depth %d out of range 1..%d", depth, MaxDepth)
	}
	return &Tree{depth: depth, levels: make([][]Hash, depth+1)}, nil
}

// Depth returns the tree depth.
func (t *Tree) Depth() uint32 { return t.depth }

// Len returns the number of appended leaves.
func (t *Tree) Len() uint32 { return uint32(len(t.levels[0])) }

// Capacity returns the number of leaves the tree can hold.
func (t *Tree) Capacity() uint64 { return uint64(1) << t.depth }

// Append adds leaf at the next free index and returns that index.
func (t *Tree) Append(leaf Hash) (uint32, error) {
	if uint64(t.Len()) >= t.Capacity() {
		return 0, ErrTreeFull
	}
	index := t.Len()
	t.levels[0] = append(t.levels[0], leaf)
	t.refresh(index)
	return index, nil
}

// Replace overwrites the leaf at index.
func (t *Tree) Replace(index uint32, leaf Hash) error {
	if index >= t.Len() {
		return ErrIndexOutOfBounds
	}
	t.levels[0][index] = leaf
	t.refresh(index)
	return nil
}

// Leaf returns the leaf at index.
func (t *Tree) Leaf(index uint32) (Hash, error) {
	if index >= t.Len() {
		return Zero, ErrIndexOutOfBounds
	}
	return t.levels[0][index], nil
}

// Root returns the current root.
func (t *Tree) Root() Hash {
	if t.Len() == 0 {
		return EmptyNode(t.depth)
	}
	return t.levels[t.depth][0]
}

// Proof returns the sibling path of the leaf at index, leaf level first.
func (t *Tree) Proof(index uint32) ([]Hash, error) {
	if index >= t.Len() {
		return nil, ErrIndexOutOfBounds
	}
	proof := make([]Hash, t.depth)
	idx := index
	for level := uint32(0); level < t.depth; level++ {
		proof[level] = t.node(level, idx^1)
		idx >>= 1
	}
	return proof, nil
}

func (t *Tree) node(level, idx uint32) Hash {
	if int(idx) < len(t.levels[level]) {
		return t.levels[level][idx]
	}
	return EmptyNode(level)
}

// refresh recomputes the ancestors of the leaf at index.
func (t *Tree) refresh(index uint32) {
	idx := index
	for level := uint32(0); level < t.depth; level++ {
		parent := HashPair(t.node(level, idx&^1), t.node(level, idx|1))
		idx >>= 1
		up := t.levels[level+1]
		if int(idx) < len(up) {
			up[idx] = parent
		} else {
			up = append(up, parent)
		}
		t.levels[level+1] = up
	}
}
