package bubblegum

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Account sizes, including the 8-byte discriminator.
const (
	discriminatorSize = 8
	TreeConfigSize    = discriminatorSize + 32 + 32 + 8 + 8 + 8 + 1
	MintRequestSize   = discriminatorSize + 32 + 8 + 8 + 8
	leafSchemaSize    = 1 + 32 + 32 + 32 + 8 + 32 + 32
	VoucherSize       = discriminatorSize + leafSchemaSize + 4 + 32
)

var (
	treeConfigDiscriminator  = bin.Sighash("account", "TreeConfig")
	mintRequestDiscriminator = bin.Sighash("account", "MintRequest")
	voucherDiscriminator     = bin.Sighash("account", "Voucher")

	// ErrAccountDiscriminator is returned when account data belongs to
	// another account type.
	ErrAccountDiscriminator = errors.New("account discriminator mismatch")
)

// TreeConfig is the bubblegum record of a tree. Its address is the tree's
// authority, so only this program can change the tree.
type TreeConfig struct {
	TreeCreator       solana.PublicKey `json:"tree_creator"`
	TreeDelegate      solana.PublicKey `json:"tree_delegate"`
	TotalMintCapacity uint64           `json:"total_mint_capacity"`
	NumMintsApproved  uint64           `json:"num_mints_approved"`
	NumMinted         uint64           `json:"num_minted"`
	IsPublic          bool             `json:"is_public"`
}

// RemainingCapacity returns how many more leaves can be minted without an
// approved request.
func (c *TreeConfig) RemainingCapacity() uint64 {
	used := c.NumMinted + c.NumMintsApproved
	if used >= c.TotalMintCapacity {
		return 0
	}
	return c.TotalMintCapacity - used
}

// IsAdmin reports whether key is the tree creator or delegate.
func (c *TreeConfig) IsAdmin(key solana.PublicKey) bool {
	return key.Equals(c.TreeCreator) || key.Equals(c.TreeDelegate)
}

// Pack encodes the tree config.
func (c *TreeConfig) Pack() ([]byte, error) {
	return packAccount(treeConfigDiscriminator, c, TreeConfigSize)
}

// UnpackTreeConfig decodes a tree config.
func UnpackTreeConfig(data []byte) (*TreeConfig, error) {
	var c TreeConfig
	if err := unpackAccount(treeConfigDiscriminator, data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// MintRequest tracks the mints a third party asked for and was granted.
type MintRequest struct {
	MintAuthority solana.PublicKey `json:"mint_authority"`
	NumMinted     uint64           `json:"num_minted"`
	NumRequested  uint64           `json:"num_requested"`
	NumApproved   uint64           `json:"num_approved"`
}

// Available returns the approved mints not used yet.
func (m *MintRequest) Available() uint64 {
	if m.NumMinted >= m.NumApproved {
		return 0
	}
	return m.NumApproved - m.NumMinted
}

// Pack encodes the request.
func (m *MintRequest) Pack() ([]byte, error) {
	return packAccount(mintRequestDiscriminator, m, MintRequestSize)
}

// UnpackMintRequest decodes a mint request.
func UnpackMintRequest(data []byte) (*MintRequest, error) {
	var m MintRequest
	if err := unpackAccount(mintRequestDiscriminator, data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Voucher holds a redeemed leaf until it is decompressed or put back.
type Voucher struct {
	LeafSchema LeafSchema       `json:"leaf_schema"`
	Index      uint32           `json:"index"`
	MerkleTree solana.PublicKey `json:"merkle_tree"`
}

func (v Voucher) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := v.LeafSchema.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := enc.WriteUint32(v.Index, bin.LE); err != nil {
		return err
	}
	return enc.WriteBytes(v.MerkleTree[:], false)
}

func (v *Voucher) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if err := v.LeafSchema.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	if v.Index, err = dec.ReadUint32(bin.LE); err != nil {
		return err
	}
	return readInto(dec, v.MerkleTree[:])
}

// Pack encodes the voucher.
func (v *Voucher) Pack() ([]byte, error) {
	return packAccount(voucherDiscriminator, v, VoucherSize)
}

// UnpackVoucher decodes a voucher.
func UnpackVoucher(data []byte) (*Voucher, error) {
	var v Voucher
	if err := unpackAccount(voucherDiscriminator, data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func packAccount(discriminator []byte, v any, size int) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator)
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	if buf.Len() > size {
		return nil, fmt.Errorf("encoded account is %d bytes, limit %d", buf.Len(), size)
	}
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out, nil
}

func unpackAccount(discriminator, data []byte, v any) error {
	if len(data) < discriminatorSize || !bytes.Equal(data[:discriminatorSize], discriminator) {
		return ErrAccountDiscriminator
	}
	return bin.NewBorshDecoder(data[discriminatorSize:]).Decode(v)
}
