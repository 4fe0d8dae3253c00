// Package merkle implements the keccak-256 sparse merkle tree shared by the
// compression program and the tooling that builds proofs for it.
package merkle

import (
	"encoding/hex"
	"fmt"

	crypto "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/crypto/common"
)

// MaxDepth is the deepest tree supported.
const MaxDepth = 30

// Hash is a 32-byte tree node.
type Hash [32]byte

// Zero is the empty leaf.
var Zero Hash

var emptyNodes [MaxDepth + 1]Hash

func init() {
	for i := 1; i <= MaxDepth; i++ {
		emptyNodes[i] = HashPair(emptyNodes[i-1], emptyNodes[i-1])
	}
}

// HashPair returns keccak(left || right).
func HashPair(left, right Hash) Hash {
	return crypto.Keccak256(left[:], right[:])
}

// EmptyNode returns the root of an empty subtree of the given height.
func EmptyNode(level uint32) Hash {
	if level > MaxDepth {
		panic(fmt.Sprintf("merkle: level %d exceeds max depth %d", level, MaxDepth))
	}
	return emptyNodes[level]
}

// ComputeRoot folds proof into leaf. Bit i of index selects whether the
// node at level i is a right child.
func ComputeRoot(leaf Hash, proof []Hash, index uint32) Hash {
	node := leaf
	for i, sibling := range proof {
		if (index>>uint(i))&1 == 0 {
			node = HashPair(node, sibling)
		} else {
			node = HashPair(sibling, node)
		}
	}
	return node
}

// HashFromBytes copies b into a Hash. It fails unless b has 32 bytes.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != len(h) {
		return h, fmt.Errorf("hash must be 32 bytes, got %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash) IsZero() bool { return h == Zero }

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	v, err := HashFromBytes(b)
	if err != nil {
		return err
	}
	*h = v
	return nil
}
