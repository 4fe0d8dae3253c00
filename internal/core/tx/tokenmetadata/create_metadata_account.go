package tokenmetadata

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
)

// CreateMetadataAccount creates the metadata record of Mint. The mint
// authority must sign.
type CreateMetadataAccount struct {
	Mint            solana.PublicKey `json:"mint"`
	MintAuthority   solana.PublicKey `json:"mint_authority"`
	Payer           solana.PublicKey `json:"payer"`
	UpdateAuthority solana.PublicKey `json:"update_authority"`
	Data            Data             `json:"data"`
	IsMutable       bool             `json:"is_mutable"`
	Collection      *Collection      `json:"collection,omitempty" bin:"optional"`
}

func (c *CreateMetadataAccount) ProgramID() solana.PublicKey { return ProgramID }
func (c *CreateMetadataAccount) Name() string                { return "create_metadata_account" }

func (c *CreateMetadataAccount) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(keylet.Metadata(c.Mint).Key),
		tx.ReadOnly(c.Mint),
		tx.ReadOnly(c.MintAuthority),
		tx.Writable(c.Payer),
		tx.ReadOnly(c.UpdateAuthority),
		tx.ReadOnly(solana.SystemProgramID),
	}
}

func (c *CreateMetadataAccount) Validate() error {
	if c.Mint.IsZero() || c.MintAuthority.IsZero() || c.Payer.IsZero() || c.UpdateAuthority.IsZero() {
		return errors.New("mint, mint authority, payer and update authority are required")
	}
	return nil
}

func (c *CreateMetadataAccount) Apply(ctx *tx.ApplyContext) tx.Result {
	md := keylet.Metadata(c.Mint)
	existing, r := ctx.Account(md.Key)
	if r != tx.TesSUCCESS {
		return r
	}
	if existing != nil {
		return ResultAlreadyInitialized
	}

	mint, _, r := token.LoadMint(ctx, c.Mint)
	if r != tx.TesSUCCESS {
		return r
	}
	if mint.MintAuthority == nil || !mint.MintAuthority.Equals(c.MintAuthority) {
		return ResultInvalidMintAuthority
	}
	if r := ctx.RequireSigner(c.MintAuthority); r != tx.TesSUCCESS {
		return r
	}

	d := c.Data
	if r := ValidateData(d.Name, d.Symbol, d.URI, d.SellerFeeBasisPoints, d.Creators, ctx.IsSigner); r != tx.TesSUCCESS {
		return r
	}
	if c.Collection != nil && c.Collection.Verified {
		return ResultCollectionMustBeUnverified
	}

	if r := system.InvokeCreateRentExempt(ctx, c.Payer, md.Key, MaxMetadataLength, ProgramID, md.SignerSeeds()); r != tx.TesSUCCESS {
		return r
	}
	acct, r := ctx.Account(md.Key)
	if r != tx.TesSUCCESS {
		return r
	}
	return store(ctx, md.Key, acct, &Metadata{
		Key:             KeyMetadataV1,
		UpdateAuthority: c.UpdateAuthority,
		Mint:            c.Mint,
		Data:            d,
		IsMutable:       c.IsMutable,
		Collection:      c.Collection,
	})
}

// InvokeCreateMetadataAccount creates a metadata record through a
// cross-program call. signerSeeds sign for a PDA mint authority or payer.
func InvokeCreateMetadataAccount(ctx *tx.ApplyContext, ix *CreateMetadataAccount, signerSeeds ...[][]byte) tx.Result {
	cpi, r := ctx.InvokeSigned(ProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return ix.Apply(cpi)
}

// SignMetadata marks Creator as verified on the metadata of Mint. The
// creator must sign.
type SignMetadata struct {
	Mint    solana.PublicKey `json:"mint"`
	Creator solana.PublicKey `json:"creator"`
}

func (s *SignMetadata) ProgramID() solana.PublicKey { return ProgramID }
func (s *SignMetadata) Name() string                { return "sign_metadata" }

func (s *SignMetadata) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(keylet.Metadata(s.Mint).Key), tx.ReadOnly(s.Creator)}
}

func (s *SignMetadata) Validate() error {
	if s.Mint.IsZero() || s.Creator.IsZero() {
		return errors.New("mint and creator are required")
	}
	return nil
}

func (s *SignMetadata) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.RequireSigner(s.Creator); r != tx.TesSUCCESS {
		return r
	}
	key := keylet.Metadata(s.Mint).Key
	md, acct, r := Load(ctx, key)
	if r != tx.TesSUCCESS {
		return r
	}
	for i := range md.Data.Creators {
		if md.Data.Creators[i].Address.Equals(s.Creator) {
			md.Data.Creators[i].Verified = true
			return store(ctx, key, acct, md)
		}
	}
	return ResultCreatorNotFound
}
