package merkle

//go:generate mockgen -source verifier.go -destination verifier_mock.go -package merkle

// Verifier authenticates a leaf at an index under a root. Leaf encoding is
// the caller's concern.
type Verifier interface {
	// Verify reports whether proof places leaf at index under root.
	Verify(root Hash, proof []Hash, index uint32, leaf Hash) bool
}

// KeccakVerifier verifies proofs of keccak-256 binary trees.
type KeccakVerifier struct{}

func (KeccakVerifier) Verify(root Hash, proof []Hash, index uint32, leaf Hash) bool {
	if len(proof) > MaxDepth {
		return false
	}
	if len(proof) < 32 && uint64(index) >= uint64(1)<<uint(len(proof)) {
		return false
	}
	return ComputeRoot(leaf, proof, index) == root
}
