// Package tokenmetadata implements the metadata registry that attaches a
// name, royalty schedule and collection to a token mint.
package tokenmetadata

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Registry limits
const (
	MaxNameLength     = 32
	MaxSymbolLength   = 10
	MaxURILength      = 200
	MaxCreatorLimit   = 5
	MaxBasisPoints    = 10000
	MaxMetadataLength = 679
)

// Key tags the account kind in the first byte.
type Key uint8

const (
	KeyUninitialized Key = 0
	KeyMetadataV1    Key = 4
)

// ErrNotMetadata is returned when decoding an account that is not a metadata
// record.
var ErrNotMetadata = errors.New("account is not a metadata record")

// Creator is a royalty recipient. Shares across creators sum to 100.
type Creator struct {
	Address  solana.PublicKey `json:"address"`
	Verified bool             `json:"verified"`
	Share    uint8            `json:"share"`
}

func (c Creator) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBytes(c.Address[:], false); err != nil {
		return err
	}
	if err := enc.WriteBool(c.Verified); err != nil {
		return err
	}
	return enc.WriteUint8(c.Share)
}

func (c *Creator) UnmarshalWithDecoder(dec *bin.Decoder) error {
	if err := readKey(dec, &c.Address); err != nil {
		return err
	}
	var err error
	if c.Verified, err = dec.ReadBool(); err != nil {
		return err
	}
	c.Share, err = dec.ReadUint8()
	return err
}

// Collection links a mint to the mint of its collection.
type Collection struct {
	Verified bool             `json:"verified"`
	Key      solana.PublicKey `json:"key"`
}

func (c Collection) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBool(c.Verified); err != nil {
		return err
	}
	return enc.WriteBytes(c.Key[:], false)
}

func (c *Collection) UnmarshalWithDecoder(dec *bin.Decoder) error {
	var err error
	if c.Verified, err = dec.ReadBool(); err != nil {
		return err
	}
	return readKey(dec, &c.Key)
}

// UseMethod describes how a limited-use asset is consumed.
type UseMethod uint8

const (
	UseBurn UseMethod = iota
	UseMultiple
	UseSingle
)

// Uses tracks how many times an asset may still be used.
type Uses struct {
	UseMethod UseMethod `json:"use_method"`
	Remaining uint64    `json:"remaining"`
	Total     uint64    `json:"total"`
}

func (u Uses) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint8(uint8(u.UseMethod)); err != nil {
		return err
	}
	if err := enc.WriteUint64(u.Remaining, bin.LE); err != nil {
		return err
	}
	return enc.WriteUint64(u.Total, bin.LE)
}

func (u *Uses) UnmarshalWithDecoder(dec *bin.Decoder) error {
	m, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	u.UseMethod = UseMethod(m)
	if u.Remaining, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	u.Total, err = dec.ReadUint64(bin.LE)
	return err
}

// Data is the mutable part of a metadata record.
type Data struct {
	Name                 string    `json:"name"`
	Symbol               string    `json:"symbol"`
	URI                  string    `json:"uri"`
	SellerFeeBasisPoints uint16    `json:"seller_fee_basis_points"`
	Creators             []Creator `json:"creators,omitempty"`
}

func (d Data) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := writeStrings(enc, d.Name, d.Symbol, d.URI); err != nil {
		return err
	}
	if err := enc.WriteUint16(d.SellerFeeBasisPoints, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteBool(d.Creators != nil); err != nil {
		return err
	}
	if d.Creators == nil {
		return nil
	}
	return WriteCreators(enc, d.Creators)
}

func (d *Data) UnmarshalWithDecoder(dec *bin.Decoder) error {
	var err error
	if d.Name, err = dec.ReadString(); err != nil {
		return err
	}
	if d.Symbol, err = dec.ReadString(); err != nil {
		return err
	}
	if d.URI, err = dec.ReadString(); err != nil {
		return err
	}
	if d.SellerFeeBasisPoints, err = dec.ReadUint16(bin.LE); err != nil {
		return err
	}
	some, err := dec.ReadBool()
	if err != nil || !some {
		return err
	}
	d.Creators, err = ReadCreators(dec)
	return err
}

// Metadata is the registry record stored at the metadata address of a mint.
type Metadata struct {
	Key                 Key              `json:"key"`
	UpdateAuthority     solana.PublicKey `json:"update_authority"`
	Mint                solana.PublicKey `json:"mint"`
	Data                Data             `json:"data"`
	PrimarySaleHappened bool             `json:"primary_sale_happened"`
	IsMutable           bool             `json:"is_mutable"`
	EditionNonce        *uint8           `json:"edition_nonce,omitempty"`
	TokenStandard       *uint8           `json:"token_standard,omitempty"`
	Collection          *Collection      `json:"collection,omitempty"`
	Uses                *Uses            `json:"uses,omitempty"`
}

func (m Metadata) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint8(uint8(m.Key)); err != nil {
		return err
	}
	if err := enc.WriteBytes(m.UpdateAuthority[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(m.Mint[:], false); err != nil {
		return err
	}
	if err := m.Data.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := enc.WriteBool(m.PrimarySaleHappened); err != nil {
		return err
	}
	if err := enc.WriteBool(m.IsMutable); err != nil {
		return err
	}
	if err := writeOptionalU8(enc, m.EditionNonce); err != nil {
		return err
	}
	if err := writeOptionalU8(enc, m.TokenStandard); err != nil {
		return err
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
		return m.Uses.MarshalWithEncoder(enc)
	}
	return nil
}

func (m *Metadata) UnmarshalWithDecoder(dec *bin.Decoder) error {
	key, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	if Key(key) != KeyMetadataV1 {
		return ErrNotMetadata
	}
	m.Key = Key(key)
	if err := readKey(dec, &m.UpdateAuthority); err != nil {
		return err
	}
	if err := readKey(dec, &m.Mint); err != nil {
		return err
	}
	if err := m.Data.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	if m.PrimarySaleHappened, err = dec.ReadBool(); err != nil {
		return err
	}
	if m.IsMutable, err = dec.ReadBool(); err != nil {
		return err
	}
	if m.EditionNonce, err = readOptionalU8(dec); err != nil {
		return err
	}
	if m.TokenStandard, err = readOptionalU8(dec); err != nil {
		return err
	}
	some, err := dec.ReadBool()
	if err != nil {
		return err
	}
	if some {
		m.Collection = new(Collection)
		if err := m.Collection.UnmarshalWithDecoder(dec); err != nil {
			return err
		}
	}
	if some, err = dec.ReadBool(); err != nil || !some {
		return err
	}
	m.Uses = new(Uses)
	return m.Uses.UnmarshalWithDecoder(dec)
}

// Pack encodes m padded to the fixed record length.
func (m *Metadata) Pack() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := m.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, err
	}
	if buf.Len() > MaxMetadataLength {
		return nil, fmt.Errorf("metadata record is %d bytes, limit %d", buf.Len(), MaxMetadataLength)
	}
	out := make([]byte, MaxMetadataLength)
	copy(out, buf.Bytes())
	return out, nil
}

// Unpack decodes a metadata record, ignoring trailing padding.
func Unpack(data []byte) (*Metadata, error) {
	if len(data) == 0 {
		return nil, ErrNotMetadata
	}
	var m Metadata
	if err := m.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &m, nil
}

func readKey(dec *bin.Decoder, key *solana.PublicKey) error {
	b, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(key[:], b)
	return nil
}

func writeStrings(enc *bin.Encoder, values ...string) error {
	for _, v := range values {
		if err := enc.WriteString(v); err != nil {
			return err
		}
	}
	return nil
}

// WriteCreators encodes a borsh Vec<Creator>.
func WriteCreators(enc *bin.Encoder, creators []Creator) error {
	if err := enc.WriteUint32(uint32(len(creators)), bin.LE); err != nil {
		return err
	}
	for _, c := range creators {
		if err := c.MarshalWithEncoder(enc); err != nil {
			return err
		}
	}
	return nil
}

// ReadCreators decodes a borsh Vec<Creator>.
func ReadCreators(dec *bin.Decoder) ([]Creator, error) {
	n, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	if n > MaxCreatorLimit {
		return nil, fmt.Errorf("%d creators exceeds limit of %d", n, MaxCreatorLimit)
	}
	creators := make([]Creator, n)
	for i := range creators {
		if err := creators[i].UnmarshalWithDecoder(dec); err != nil {
			return nil, err
		}
	}
	return creators, nil
}

func writeOptionalU8(enc *bin.Encoder, v *uint8) error {
	if err := enc.WriteBool(v != nil); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return enc.WriteUint8(*v)
}

func readOptionalU8(dec *bin.Decoder) (*uint8, error) {
	some, err := dec.ReadBool()
	if err != nil || !some {
		return nil, err
	}
	v, err := dec.ReadUint8()
	if err != nil {
		return nil, err
	}
	return &v, nil
}
