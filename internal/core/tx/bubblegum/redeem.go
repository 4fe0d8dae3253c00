package bubblegum

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/merkle"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
)

func loadVoucher(ctx *tx.ApplyContext, key solana.PublicKey) (*Voucher, *ledger.Account, tx.Result) {
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return nil, nil, r
	}
	if acct == nil {
		return nil, nil, ResultUninitializedAccount
	}
	if !acct.Owner.Equals(ProgramID) {
		return nil, nil, ResultIncorrectOwner
	}
	v, err := UnpackVoucher(acct.Data)
	if err != nil {
		ctx.Logf("voucher %s: %v", key, err)
		return nil, nil, ResultUninitializedAccount
	}
	return v, acct, tx.TesSUCCESS
}

// Redeem takes the asset out of the tree and parks its leaf in a voucher,
// paid for by the owner, until it is decompressed or put back.
type Redeem struct {
	LeafArgs
	Tree         solana.PublicKey `json:"tree"`
	LeafOwner    solana.PublicKey `json:"leaf_owner"`
	LeafDelegate solana.PublicKey `json:"leaf_delegate"`
}

func (r *Redeem) ProgramID() solana.PublicKey { return ProgramID }
func (r *Redeem) Name() string                { return "redeem" }

func (r *Redeem) Accounts() []tx.AccountMeta {
	return append(leafAccounts(r.Tree, r.LeafDelegate, solana.SystemProgramID),
		tx.Writable(keylet.Voucher(r.Tree, r.Nonce).Key),
		tx.Writable(r.LeafOwner),
	)
}

func (r *Redeem) Validate() error {
	if r.Tree.IsZero() || r.LeafOwner.IsZero() || r.LeafDelegate.IsZero() {
		return errors.New("tree, owner and delegate are required")
	}
	return r.validate()
}

func (r *Redeem) Apply(ctx *tx.ApplyContext) tx.Result {
	if res := ctx.RequireSigner(r.LeafOwner); res != tx.TesSUCCESS {
		return res
	}
	leaf := r.leaf(r.Tree, r.LeafOwner, r.LeafDelegate)
	if res := replaceLeaf(ctx, r.Tree, r.LeafArgs, leaf.Hash(), merkle.Zero); res != tx.TesSUCCESS {
		return res
	}

	voucher := keylet.Voucher(r.Tree, r.Nonce)
	if res := system.InvokeCreateRentExempt(ctx, r.LeafOwner, voucher.Key, VoucherSize, ProgramID, voucher.SignerSeeds()); res != tx.TesSUCCESS {
		return res
	}
	acct, res := ctx.Account(voucher.Key)
	if res != tx.TesSUCCESS {
		return res
	}
	ctx.Logf("redeemed asset %s into voucher %s", leaf.ID, voucher.Key)
	return store(ctx, voucher.Key, acct, &Voucher{LeafSchema: leaf, Index: r.Index, MerkleTree: r.Tree})
}

// CancelRedeem puts a redeemed leaf back at its index and closes the
// voucher. Root is the tree's current root and Proof authenticates the
// empty leaf left by redeem.
type CancelRedeem struct {
	Tree      solana.PublicKey `json:"tree"`
	LeafOwner solana.PublicKey `json:"leaf_owner"`
	Voucher   solana.PublicKey `json:"voucher"`
	Root      merkle.Hash      `json:"root"`
	Proof     []merkle.Hash    `json:"proof"`
}

func (c *CancelRedeem) ProgramID() solana.PublicKey { return ProgramID }
func (c *CancelRedeem) Name() string                { return "cancel_redeem" }

func (c *CancelRedeem) Accounts() []tx.AccountMeta {
	return append(leafAccounts(c.Tree),
		tx.Writable(c.Voucher),
		tx.Writable(c.LeafOwner),
	)
}

func (c *CancelRedeem) Validate() error {
	if c.Tree.IsZero() || c.LeafOwner.IsZero() || c.Voucher.IsZero() {
		return errors.New("tree, owner and voucher are required")
	}
	if len(c.Proof) > merkle.MaxDepth {
		return errProofTooLong
	}
	return nil
}

func (c *CancelRedeem) Apply(ctx *tx.ApplyContext) tx.Result {
	v, _, r := loadVoucher(ctx, c.Voucher)
	if r != tx.TesSUCCESS {
		return r
	}
	if !v.MerkleTree.Equals(c.Tree) {
		return ResultPublicKeyMismatch
	}
	if !v.LeafSchema.Owner.Equals(c.LeafOwner) {
		return ResultAssetOwnerMismatch
	}
	if r := ctx.RequireSigner(c.LeafOwner); r != tx.TesSUCCESS {
		return r
	}

	args := LeafArgs{Root: c.Root, Index: v.Index, Proof: c.Proof}
	if r := replaceLeaf(ctx, c.Tree, args, merkle.Zero, v.LeafSchema.Hash()); r != tx.TesSUCCESS {
		return r
	}
	return closeAccount(ctx, c.Voucher, c.LeafOwner)
}
