package bubblegum

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/compression"
)

// MintV1 appends a new compressed asset owned by LeafOwner. Tree admins
// and anyone on a public tree draw on the tree's free capacity; other
// minters spend an approved mint request.
type MintV1 struct {
	Tree         solana.PublicKey `json:"tree"`
	LeafOwner    solana.PublicKey `json:"leaf_owner"`
	LeafDelegate solana.PublicKey `json:"leaf_delegate"`
	Minter       solana.PublicKey `json:"minter"`
	Message      MetadataArgs     `json:"message"`
}

func (m *MintV1) ProgramID() solana.PublicKey { return ProgramID }
func (m *MintV1) Name() string                { return "mint_v1" }

func (m *MintV1) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(keylet.TreeAuthority(m.Tree).Key),
		tx.Writable(keylet.MintRequest(m.Minter, m.Tree).Key),
		tx.Writable(m.Tree),
		tx.ReadOnly(m.LeafOwner),
		tx.ReadOnly(m.LeafDelegate),
		tx.ReadOnly(m.Minter),
		tx.ReadOnly(compression.ProgramID),
	}
}

func (m *MintV1) Validate() error {
	if m.Tree.IsZero() || m.LeafOwner.IsZero() || m.Minter.IsZero() {
		return errors.New("tree, leaf owner and minter are required")
	}
	return nil
}

func (m *MintV1) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.RequireSigner(m.Minter); r != tx.TesSUCCESS {
		return r
	}
	config, configAcct, r := LoadTreeConfig(ctx, m.Tree)
	if r != tx.TesSUCCESS {
		return r
	}

	if config.IsAdmin(m.Minter) || config.IsPublic {
		if config.RemainingCapacity() == 0 {
			return ResultInsufficientMintCapacity
		}
	} else {
		req, reqAcct, r := loadMintRequest(ctx, m.Minter, m.Tree)
		if r == ResultUninitializedAccount {
			return ResultMintRequestNotApproved
		}
		if r != tx.TesSUCCESS {
			return r
		}
		if req.Available() == 0 {
			return ResultMintRequestNotApproved
		}
		req.NumMinted++
		config.NumMintsApproved--
		if r := store(ctx, keylet.MintRequest(m.Minter, m.Tree).Key, reqAcct, req); r != tx.TesSUCCESS {
			return r
		}
	}

	if r := validateMetadata(m.Message, ctx.IsSigner); r != tx.TesSUCCESS {
		return r
	}
	if m.Message.Collection != nil && m.Message.Collection.Verified {
		return ResultCollectionCannotBeVerified
	}

	delegate := m.LeafDelegate
	if delegate.IsZero() {
		delegate = m.LeafOwner
	}
	nonce := config.NumMinted
	leaf := NewLeaf(m.Tree, m.LeafOwner, delegate, nonce, HashMetadata(m.Message), HashCreators(m.Message.Creators))

	authority := keylet.TreeAuthority(m.Tree)
	if r := compression.InvokeAppend(ctx, m.Tree, authority.Key, leaf.Hash(), authority.SignerSeeds()); r != tx.TesSUCCESS {
		return r
	}
	config.NumMinted++
	ctx.Logf("minted asset %s at nonce %d", leaf.ID, nonce)
	return store(ctx, authority.Key, configAcct, config)
}
