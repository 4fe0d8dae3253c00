package bubblegum

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/merkle"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
	crypto "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/crypto/common"
)

// Version is the leaf schema version.
type Version uint8

// V1 is the only schema in use.
const V1 Version = 1

// TokenProgramVersion selects the token program a decompressed asset is
// minted with.
type TokenProgramVersion uint8

const (
	TokenProgramOriginal TokenProgramVersion = iota
	TokenProgramToken2022
)

// MetadataArgs is the full plaintext metadata of a compressed asset. Only
// its hash is kept on chain.
type MetadataArgs struct {
	Name                 string                    `json:"name"`
	Symbol               string                    `json:"symbol"`
	URI                  string                    `json:"uri"`
	SellerFeeBasisPoints uint16                    `json:"seller_fee_basis_points"`
	PrimarySaleHappened  bool                      `json:"primary_sale_happened"`
	IsMutable            bool                      `json:"is_mutable"`
	EditionNonce         *uint8                    `json:"edition_nonce,omitempty"`
	TokenStandard        *uint8                    `json:"token_standard,omitempty"`
	Collection           *tokenmetadata.Collection `json:"collection,omitempty"`
	Uses                 *tokenmetadata.Uses       `json:"uses,omitempty"`
	TokenProgramVersion  TokenProgramVersion       `json:"token_program_version"`
	Creators             []tokenmetadata.Creator   `json:"creators"`
}

func (m MetadataArgs) MarshalWithEncoder(enc *bin.Encoder) error {
	for _, s := range []string{m.Name, m.Symbol, m.URI} {
		if err := enc.WriteString(s); err != nil {
			return err
		}
	}
	if err := enc.WriteUint16(m.SellerFeeBasisPoints, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteBool(m.PrimarySaleHappened); err != nil {
		return err
	}
	if err := enc.WriteBool(m.IsMutable); err != nil {
		return err
	}
	for _, v := range []*uint8{m.EditionNonce, m.TokenStandard} {
		if err := enc.WriteBool(v != nil); err != nil {
			return err
		}
		if v != nil {
			if err := enc.WriteUint8(*v); err != nil {
				return err
			}
		}
	}
	if err := enc.WriteBool(m.Collection != nil); err != nil {
		return err
	}
	if m.Collection != nil {
		if err := m.Collection.MarshalWithEncoder(enc); err != nil {
			return err
		}
	}
	if err := enc.WriteBool(m.Uses != nil); err != nil {
		return err
	}
	if m.Uses != nil {
		if err := m.Uses.MarshalWithEncoder(enc); err != nil {
			return err
		}
	}
	if err := enc.WriteUint8(uint8(m.TokenProgramVersion)); err != nil {
		return err
	}
	return tokenmetadata.WriteCreators(enc, m.Creators)
}

// Bytes returns the borsh encoding of m.
func (m MetadataArgs) Bytes() []byte {
	buf := new(bytes.Buffer)
	// Writes to a bytes.Buffer do not fail.
	_ = m.MarshalWithEncoder(bin.NewBorshEncoder(buf))
	return buf.Bytes()
}

// HashMetadata returns the data hash of m. The royalty basis points are
// hashed a second time on top of the encoded metadata.
func HashMetadata(m MetadataArgs) merkle.Hash {
	inner := crypto.Keccak256(m.Bytes())
	bps := make([]byte, 2)
	binary.LittleEndian.PutUint16(bps, m.SellerFeeBasisPoints)
	return crypto.Keccak256(inner[:], bps)
}

// HashCreators returns the creator hash of creators. The hash depends on
// their order.
func HashCreators(creators []tokenmetadata.Creator) merkle.Hash {
	data := make([]byte, 0, len(creators)*(solana.PublicKeyLength+2))
	for _, c := range creators {
		verified := byte(0)
		if c.Verified {
			verified = 1
		}
		data = append(data, c.Address[:]...)
		data = append(data, verified, c.Share)
	}
	return crypto.Keccak256(data)
}

// LeafSchema is the plaintext of one version of a compressed asset.
type LeafSchema struct {
	Version     Version          `json:"version"`
	ID          solana.PublicKey `json:"id"`
	Owner       solana.PublicKey `json:"owner"`
	Delegate    solana.PublicKey `json:"delegate"`
	Nonce       uint64           `json:"nonce"`
	DataHash    merkle.Hash      `json:"data_hash"`
	CreatorHash merkle.Hash      `json:"creator_hash"`
}

// NewLeaf returns the V1 leaf of the asset minted at nonce in tree.
func NewLeaf(tree, owner, delegate solana.PublicKey, nonce uint64, dataHash, creatorHash merkle.Hash) LeafSchema {
	return LeafSchema{
		Version:     V1,
		ID:          AssetID(tree, nonce),
		Owner:       owner,
		Delegate:    delegate,
		Nonce:       nonce,
		DataHash:    dataHash,
		CreatorHash: creatorHash,
	}
}

// Hash returns the value committed to the tree for l.
func (l LeafSchema) Hash() merkle.Hash {
	nonce := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonce, l.Nonce)
	return crypto.Keccak256(
		[]byte{byte(l.Version)},
		l.ID[:],
		l.Owner[:],
		l.Delegate[:],
		nonce,
		l.DataHash[:],
		l.CreatorHash[:],
	)
}

func (l LeafSchema) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint8(uint8(l.Version)); err != nil {
		return err
	}
	for _, k := range []solana.PublicKey{l.ID, l.Owner, l.Delegate} {
		if err := enc.WriteBytes(k[:], false); err != nil {
			return err
		}
	}
	if err := enc.WriteUint64(l.Nonce, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteBytes(l.DataHash[:], false); err != nil {
		return err
	}
	return enc.WriteBytes(l.CreatorHash[:], false)
}

func (l *LeafSchema) UnmarshalWithDecoder(dec *bin.Decoder) error {
	v, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	l.Version = Version(v)
	for _, dst := range [][]byte{l.ID[:], l.Owner[:], l.Delegate[:]} {
		if err := readInto(dec, dst); err != nil {
			return err
		}
	}
	if l.Nonce, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if err := readInto(dec, l.DataHash[:]); err != nil {
		return err
	}
	return readInto(dec, l.CreatorHash[:])
}

func readInto(dec *bin.Decoder, dst []byte) error {
	b, err := dec.ReadNBytes(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// AssetID returns the stable identifier of the asset minted at nonce in
// tree. It survives every change of the leaf.
func AssetID(tree solana.PublicKey, nonce uint64) solana.PublicKey {
	return keylet.AssetID(tree, nonce).Key
}
