package compression

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/merkle"
)

// Tree limits
const (
	MinDepth      = 3
	MaxDepth      = merkle.MaxDepth
	MinBufferSize = 8
	MaxBufferSize = 2048

	headerSize = 4 + 4 + 32
	stateSize  = 8 + 8 + 8 + 32
)

var (
	ErrNotInitialized = errors.New("merkle tree account is not initialized")
	ErrInvalidProof   = errors.New("invalid merkle proof")
)

// TreeAccountSize returns the data length of a tree of the given depth.
func TreeAccountSize(depth uint32) int {
	return headerSize + stateSize + 32*int(depth)
}

// TreeAccount is the on-chain state of a concurrent merkle tree: a header
// naming the authority, the current root and the right frontier used to
// append without the full tree.
type TreeAccount struct {
	MaxDepth uint32
	// MaxBufferSize is recorded for the account layout only. There is no
	// changelog buffer: every replace must prove against the current root.
	MaxBufferSize  uint32
	Authority      solana.PublicKey
	Sequence       uint64
	ActiveIndex    uint64
	RightmostIndex uint64
	Root           merkle.Hash
	FilledSubtrees []merkle.Hash
}

// NewTreeAccount returns an empty tree.
func NewTreeAccount(depth, bufferSize uint32, authority solana.PublicKey) *TreeAccount {
	return &TreeAccount{
		MaxDepth:       depth,
		MaxBufferSize:  bufferSize,
		Authority:      authority,
		Root:           merkle.EmptyNode(depth),
		FilledSubtrees: make([]merkle.Hash, depth),
	}
}

// Capacity returns the number of leaves the tree can hold.
func (t *TreeAccount) Capacity() uint64 {
	return uint64(1) << t.MaxDepth
}

// Append adds leaf at index RightmostIndex.
func (t *TreeAccount) Append(leaf merkle.Hash) error {
	if t.RightmostIndex >= t.Capacity() {
		return merkle.ErrTreeFull
	}
	node := leaf
	idx := t.RightmostIndex
	for i := uint32(0); i < t.MaxDepth; i++ {
		if idx&1 == 0 {
			t.FilledSubtrees[i] = node
			node = merkle.HashPair(node, merkle.EmptyNode(i))
		} else {
			node = merkle.HashPair(t.FilledSubtrees[i], node)
		}
		idx >>= 1
	}
	t.Root = node
	t.ActiveIndex = t.RightmostIndex
	t.RightmostIndex++
	t.Sequence++
	return nil
}

// Replace swaps previous for leaf at index. root must be the current root
// and proof must authenticate previous under it.
func (t *TreeAccount) Replace(v merkle.Verifier, root, previous, leaf merkle.Hash, index uint32, proof []merkle.Hash) error {
	if uint64(index) >= t.RightmostIndex {
		return merkle.ErrIndexOutOfBounds
	}
	if len(proof) != int(t.MaxDepth) || root != t.Root || !v.Verify(root, proof, index, previous) {
		return ErrInvalidProof
	}

	last := t.RightmostIndex - 1
	node := leaf
	for i := uint32(0); i < t.MaxDepth; i++ {
		if uint64(index>>i) == (last>>i)&^1 {
			t.FilledSubtrees[i] = node
		}
		if (index>>i)&1 == 0 {
			node = merkle.HashPair(node, proof[i])
		} else {
			node = merkle.HashPair(proof[i], node)
		}
	}
	t.Root = node
	t.ActiveIndex = uint64(index)
	t.Sequence++
	return nil
}

// Verify checks that proof places leaf at index under the current root.
func (t *TreeAccount) Verify(v merkle.Verifier, root, leaf merkle.Hash, index uint32, proof []merkle.Hash) error {
	if uint64(index) >= t.RightmostIndex {
		return merkle.ErrIndexOutOfBounds
	}
	if len(proof) != int(t.MaxDepth) || root != t.Root || !v.Verify(root, proof, index, leaf) {
		return ErrInvalidProof
	}
	return nil
}

func (t TreeAccount) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint32(t.MaxDepth, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteUint32(t.MaxBufferSize, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteBytes(t.Authority[:], false); err != nil {
		return err
	}
	for _, v := range []uint64{t.Sequence, t.ActiveIndex, t.RightmostIndex} {
		if err := enc.WriteUint64(v, bin.LE); err != nil {
			return err
		}
	}
	if err := enc.WriteBytes(t.Root[:], false); err != nil {
		return err
	}
	for _, h := range t.FilledSubtrees {
		if err := enc.WriteBytes(h[:], false); err != nil {
			return err
		}
	}
	return nil
}

func (t *TreeAccount) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if t.MaxDepth, err = dec.ReadUint32(bin.LE); err != nil {
		return err
	}
	if t.MaxDepth == 0 {
		return ErrNotInitialized
	}
	if t.MaxDepth > MaxDepth {
		return fmt.Errorf("tree depth %d exceeds %d", t.MaxDepth, MaxDepth)
	}
	if t.MaxBufferSize, err = dec.ReadUint32(bin.LE); err != nil {
		return err
	}
	if err := readBytes(dec, t.Authority[:]); err != nil {
		return err
	}
	if t.Sequence, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if t.ActiveIndex, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if t.RightmostIndex, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if err := readBytes(dec, t.Root[:]); err != nil {
		return err
	}
	t.FilledSubtrees = make([]merkle.Hash, t.MaxDepth)
	for i := range t.FilledSubtrees {
		if err := readBytes(dec, t.FilledSubtrees[i][:]); err != nil {
			return err
		}
	}
	return nil
}

func readBytes(dec *bin.Decoder, dst []byte) error {
	b, err := dec.ReadNBytes(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// Pack encodes the tree.
func (t *TreeAccount) Pack() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := t.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnpackTree decodes an initialized tree account.
func UnpackTree(data []byte) (*TreeAccount, error) {
	var t TreeAccount
	if len(data) < headerSize+stateSize {
		return nil, ErrNotInitialized
	}
	if err := t.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, err
	}
	if len(data) != TreeAccountSize(t.MaxDepth) {
		return nil, fmt.Errorf("tree account has %d bytes, want %d", len(data), TreeAccountSize(t.MaxDepth))
	}
	return &t, nil
}
