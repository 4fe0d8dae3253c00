package bubblegum

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/merkle"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/compression"
)

func leafAccounts(tree solana.PublicKey, keys ...solana.PublicKey) []tx.AccountMeta {
	metas := []tx.AccountMeta{
		tx.ReadOnly(keylet.TreeAuthority(tree).Key),
		tx.Writable(tree),
		tx.ReadOnly(compression.ProgramID),
	}
	for _, k := range keys {
		if !k.IsZero() {
			metas = append(metas, tx.ReadOnly(k))
		}
	}
	return metas
}

// Transfer gives the asset to NewLeafOwner. The owner or the delegate
// signs, and the delegate is reset to the new owner.
type Transfer struct {
	LeafArgs
	Tree         solana.PublicKey `json:"tree"`
	LeafOwner    solana.PublicKey `json:"leaf_owner"`
	LeafDelegate solana.PublicKey `json:"leaf_delegate"`
	NewLeafOwner solana.PublicKey `json:"new_leaf_owner"`
}

func (t *Transfer) ProgramID() solana.PublicKey { return ProgramID }
func (t *Transfer) Name() string                { return "transfer" }

func (t *Transfer) Accounts() []tx.AccountMeta {
	return leafAccounts(t.Tree, t.LeafOwner, t.LeafDelegate, t.NewLeafOwner)
}

func (t *Transfer) Validate() error {
	if t.Tree.IsZero() || t.LeafOwner.IsZero() || t.LeafDelegate.IsZero() || t.NewLeafOwner.IsZero() {
		return errors.New("tree, owner, delegate and new owner are required")
	}
	return t.validate()
}

func (t *Transfer) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := checkLeafSigner(ctx, t.LeafOwner, t.LeafDelegate); r != tx.TesSUCCESS {
		return r
	}
	previous := t.leaf(t.Tree, t.LeafOwner, t.LeafDelegate)
	next := t.leaf(t.Tree, t.NewLeafOwner, t.NewLeafOwner)
	return replaceLeaf(ctx, t.Tree, t.LeafArgs, previous.Hash(), next.Hash())
}

// Delegate lets NewLeafDelegate transfer or burn the asset. The owner or
// the current delegate signs.
type Delegate struct {
	LeafArgs
	Tree                 solana.PublicKey `json:"tree"`
	LeafOwner            solana.PublicKey `json:"leaf_owner"`
	PreviousLeafDelegate solana.PublicKey `json:"previous_leaf_delegate"`
	NewLeafDelegate      solana.PublicKey `json:"new_leaf_delegate"`
}

func (d *Delegate) ProgramID() solana.PublicKey { return ProgramID }
func (d *Delegate) Name() string                { return "delegate" }

func (d *Delegate) Accounts() []tx.AccountMeta {
	return leafAccounts(d.Tree, d.LeafOwner, d.PreviousLeafDelegate, d.NewLeafDelegate)
}

func (d *Delegate) Validate() error {
	if d.Tree.IsZero() || d.LeafOwner.IsZero() || d.PreviousLeafDelegate.IsZero() || d.NewLeafDelegate.IsZero() {
		return errors.New("tree, owner, previous and new delegate are required")
	}
	return d.validate()
}

func (d *Delegate) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := checkLeafSigner(ctx, d.LeafOwner, d.PreviousLeafDelegate); r != tx.TesSUCCESS {
		return r
	}
	previous := d.leaf(d.Tree, d.LeafOwner, d.PreviousLeafDelegate)
	next := d.leaf(d.Tree, d.LeafOwner, d.NewLeafDelegate)
	return replaceLeaf(ctx, d.Tree, d.LeafArgs, previous.Hash(), next.Hash())
}

// Burn destroys the asset by replacing its leaf with the empty hash. The
// owner or the delegate signs.
type Burn struct {
	LeafArgs
	Tree         solana.PublicKey `json:"tree"`
	LeafOwner    solana.PublicKey `json:"leaf_owner"`
	LeafDelegate solana.PublicKey `json:"leaf_delegate"`
}

func (b *Burn) ProgramID() solana.PublicKey { return ProgramID }
func (b *Burn) Name() string                { return "burn" }

func (b *Burn) Accounts() []tx.AccountMeta {
	return leafAccounts(b.Tree, b.LeafOwner, b.LeafDelegate)
}

func (b *Burn) Validate() error {
	if b.Tree.IsZero() || b.LeafOwner.IsZero() || b.LeafDelegate.IsZero() {
		return errors.New("tree, owner and delegate are required")
	}
	return b.validate()
}

func (b *Burn) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := checkLeafSigner(ctx, b.LeafOwner, b.LeafDelegate); r != tx.TesSUCCESS {
		return r
	}
	previous := b.leaf(b.Tree, b.LeafOwner, b.LeafDelegate)
	ctx.Logf("burning asset %s", previous.ID)
	return replaceLeaf(ctx, b.Tree, b.LeafArgs, previous.Hash(), merkle.Zero)
}
