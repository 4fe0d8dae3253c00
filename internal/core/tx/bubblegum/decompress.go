package bubblegum

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
)

// DecompressV1 turns the voucher of the asset minted at Nonce in Tree into
// a regular supply-1 token held by the owner's associated token account.
// The mint lives at an address derived from the asset id and its mint
// authority is dropped once the token exists.
type DecompressV1 struct {
	Tree      solana.PublicKey `json:"tree"`
	Nonce     uint64           `json:"nonce"`
	LeafOwner solana.PublicKey `json:"leaf_owner"`
	Message   MetadataArgs     `json:"message"`
}

func (d *DecompressV1) ProgramID() solana.PublicKey { return ProgramID }
func (d *DecompressV1) Name() string                { return "decompress_v1" }

func (d *DecompressV1) Accounts() []tx.AccountMeta {
	mint := keylet.AssetMint(AssetID(d.Tree, d.Nonce)).Key
	return []tx.AccountMeta{
		tx.Writable(keylet.Voucher(d.Tree, d.Nonce).Key),
		tx.Writable(d.LeafOwner),
		tx.Writable(mint),
		tx.ReadOnly(keylet.AssetMintAuthority(mint).Key),
		tx.Writable(keylet.AssociatedToken(d.LeafOwner, mint).Key),
		tx.Writable(keylet.Metadata(mint).Key),
		tx.ReadOnly(solana.SystemProgramID),
		tx.ReadOnly(solana.TokenProgramID),
		tx.ReadOnly(solana.SPLAssociatedTokenAccountProgramID),
		tx.ReadOnly(tokenmetadata.ProgramID),
	}
}

func (d *DecompressV1) Validate() error {
	if d.Tree.IsZero() || d.LeafOwner.IsZero() {
		return errors.New("tree and owner are required")
	}
	return nil
}

func (d *DecompressV1) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.RequireSigner(d.LeafOwner); r != tx.TesSUCCESS {
		return r
	}
	voucherKey := keylet.Voucher(d.Tree, d.Nonce).Key
	v, _, r := loadVoucher(ctx, voucherKey)
	if r != tx.TesSUCCESS {
		return r
	}
	leaf := v.LeafSchema
	if leaf.Version != V1 {
		return ResultUnsupportedSchemaVersion
	}
	if !leaf.Owner.Equals(d.LeafOwner) {
		return ResultAssetOwnerMismatch
	}
	if d.Message.TokenProgramVersion != TokenProgramOriginal {
		return ResultUnsupportedSchemaVersion
	}
	expected := NewLeaf(v.MerkleTree, leaf.Owner, leaf.Delegate, leaf.Nonce, HashMetadata(d.Message), HashCreators(d.Message.Creators))
	if expected.Hash() != leaf.Hash() {
		return ResultHashingMismatch
	}

	mint := keylet.AssetMint(leaf.ID)
	mintAuthority := keylet.AssetMintAuthority(mint.Key)
	if r := system.InvokeCreateRentExempt(ctx, d.LeafOwner, mint.Key, token.MintSize, solana.TokenProgramID, mint.SignerSeeds()); r != tx.TesSUCCESS {
		return r
	}
	if r := token.InvokeInitializeMint(ctx, mint.Key, 0, mintAuthority.Key, nil); r != tx.TesSUCCESS {
		return r
	}
	ata, r := token.InvokeCreateAssociatedAccount(ctx, d.LeafOwner, d.LeafOwner, mint.Key)
	if r != tx.TesSUCCESS {
		return r
	}
	if r := token.InvokeMintTo(ctx, mint.Key, ata, mintAuthority.Key, 1, mintAuthority.SignerSeeds()); r != tx.TesSUCCESS {
		return r
	}

	// The registry only accepts verified creators that sign, so the
	// decompressed record starts unverified.
	var creators []tokenmetadata.Creator
	for _, c := range d.Message.Creators {
		creators = append(creators, tokenmetadata.Creator{Address: c.Address, Share: c.Share})
	}
	var collection *tokenmetadata.Collection
	if d.Message.Collection != nil {
		collection = &tokenmetadata.Collection{Key: d.Message.Collection.Key}
	}
	md := &tokenmetadata.CreateMetadataAccount{
		Mint:            mint.Key,
		MintAuthority:   mintAuthority.Key,
		Payer:           d.LeafOwner,
		UpdateAuthority: mintAuthority.Key,
		Data: tokenmetadata.Data{
			Name:                 d.Message.Name,
			Symbol:               d.Message.Symbol,
			URI:                  d.Message.URI,
			SellerFeeBasisPoints: d.Message.SellerFeeBasisPoints,
			Creators:             creators,
		},
		IsMutable:  d.Message.IsMutable,
		Collection: collection,
	}
	if r := tokenmetadata.InvokeCreateMetadataAccount(ctx, md, mintAuthority.SignerSeeds()); r != tx.TesSUCCESS {
		return r
	}
	if r := token.InvokeSetAuthority(ctx, mint.Key, mintAuthority.Key, token.AuthorityMintTokens, nil, mintAuthority.SignerSeeds()); r != tx.TesSUCCESS {
		return r
	}

	ctx.Logf("decompressed asset %s into mint %s", leaf.ID, mint.Key)
	return closeAccount(ctx, voucherKey, d.LeafOwner)
}
