package merkle

import (
	"testing"

	crypto "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/crypto/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(i byte) Hash {
	return crypto.Keccak256([]byte{i})
}

func TestEmptyNodes(t *testing.T) {
	assert.Equal(t, Zero, EmptyNode(0))
	assert.Equal(t, HashPair(Zero, Zero), EmptyNode(1))
	assert.Equal(t, HashPair(EmptyNode(2), EmptyNode(2)), EmptyNode(3))
	assert.Panics(t, func() { EmptyNode(MaxDepth + 1) })

	tree, err := NewTree(5)
	require.NoError(t, err)
	assert.Equal(t, EmptyNode(5), tree.Root())
}

func TestTreeProofs(t *testing.T) {
	tree, err := NewTree(3)
	require.NoError(t, err)

	for i := byte(0); i < 5; i++ {
		idx, err := tree.Append(leaf(i))
		require.NoError(t, err)
		assert.Equal(t, uint32(i), idx)
	}

	v := KeccakVerifier{}
	for i := uint32(0); i < tree.Len(); i++ {
		proof, err := tree.Proof(i)
		require.NoError(t, err)
		require.Len(t, proof, 3)
		assert.True(t, v.Verify(tree.Root(), proof, i, leaf(byte(i))), "leaf %d", i)
		assert.False(t, v.Verify(tree.Root(), proof, i, leaf(99)), "leaf %d", i)
	}

	// two leaves by hand
	small, err := NewTree(1)
	require.NoError(t, err)
	_, err = small.Append(leaf(1))
	require.NoError(t, err)
	_, err = small.Append(leaf(2))
	require.NoError(t, err)
	assert.Equal(t, HashPair(leaf(1), leaf(2)), small.Root())
}

func TestTreeReplace(t *testing.T) {
	tree, err := NewTree(4)
	require.NoError(t, err)
	for i := byte(0); i < 3; i++ {
		_, err := tree.Append(leaf(i))
		require.NoError(t, err)
	}

	oldRoot := tree.Root()
	oldProof, err := tree.Proof(1)
	require.NoError(t, err)

	require.NoError(t, tree.Replace(1, leaf(42)))
	assert.NotEqual(t, oldRoot, tree.Root())

	v := KeccakVerifier{}
	assert.False(t, v.Verify(tree.Root(), oldProof, 1, leaf(1)))
	proof, err := tree.Proof(1)
	require.NoError(t, err)
	assert.True(t, v.Verify(tree.Root(), proof, 1, leaf(42)))

	assert.ErrorIs(t, tree.Replace(3, leaf(0)), ErrIndexOutOfBounds)
	_, err = tree.Proof(7)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestTreeFull(t *testing.T) {
	tree, err := NewTree(1)
	require.NoError(t, err)
	_, err = tree.Append(leaf(0))
	require.NoError(t, err)
	_, err = tree.Append(leaf(1))
	require.NoError(t, err)
	_, err = tree.Append(leaf(2))
	assert.ErrorIs(t, err, ErrTreeFull)

	_, err = NewTree(0)
	assert.Error(t, err)
	_, err = NewTree(MaxDepth + 1)
	assert.Error(t, err)
}

func TestVerifierRejectsIndexOutsideProof(t *testing.T) {
	tree, err := NewTree(2)
	require.NoError(t, err)
	_, err = tree.Append(leaf(0))
	require.NoError(t, err)
	proof, err := tree.Proof(0)
	require.NoError(t, err)
	assert.False(t, KeccakVerifier{}.Verify(tree.Root(), proof, 4, leaf(0)))
}

func TestHashText(t *testing.T) {
	h := leaf(7)
	text, err := h.MarshalText()
	require.NoError(t, err)

	var decoded Hash
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, h, decoded)
	assert.Error(t, decoded.UnmarshalText([]byte("abcd")))
}
