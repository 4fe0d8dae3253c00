package bubblegum

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
)

// loadMintRequest reads the request of mintAuthority on tree.
func loadMintRequest(ctx *tx.ApplyContext, mintAuthority, tree solana.PublicKey) (*MintRequest, *ledger.Account, tx.Result) {
	key := keylet.MintRequest(mintAuthority, tree).Key
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
	m, err := UnpackMintRequest(acct.Data)
	if err != nil {
		ctx.Logf("mint request %s: %v", key, err)
		return nil, nil, ResultUninitializedAccount
	}
	if !m.MintAuthority.Equals(mintAuthority) {
		return nil, nil, ResultPublicKeyMismatch
	}
	return m, acct, tx.TesSUCCESS
}

// RequestMintAuthority asks the tree admins for MintCapacity mints. A
// second request adds to the first.
type RequestMintAuthority struct {
	Tree          solana.PublicKey `json:"tree"`
	MintAuthority solana.PublicKey `json:"mint_authority"`
	Payer         solana.PublicKey `json:"payer"`
	MintCapacity  uint64           `json:"mint_capacity"`
}

func (q *RequestMintAuthority) ProgramID() solana.PublicKey { return ProgramID }
func (q *RequestMintAuthority) Name() string                { return "request_mint_authority" }

func (q *RequestMintAuthority) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(keylet.MintRequest(q.MintAuthority, q.Tree).Key),
		tx.ReadOnly(keylet.TreeAuthority(q.Tree).Key),
		tx.ReadOnly(q.Tree),
		tx.ReadOnly(q.MintAuthority),
		tx.Writable(q.Payer),
		tx.ReadOnly(solana.SystemProgramID),
	}
}

func (q *RequestMintAuthority) Validate() error {
	if q.Tree.IsZero() || q.MintAuthority.IsZero() || q.Payer.IsZero() {
		return errors.New("tree, mint authority and payer are required")
	}
	return nil
}

func (q *RequestMintAuthority) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.RequireSigner(q.MintAuthority); r != tx.TesSUCCESS {
		return r
	}
	config, _, r := LoadTreeConfig(ctx, q.Tree)
	if r != tx.TesSUCCESS {
		return r
	}
	if q.MintCapacity > config.RemainingCapacity() {
		ctx.Logf("requested %d mints, %d left", q.MintCapacity, config.RemainingCapacity())
		return ResultInsufficientMintCapacity
	}

	key := keylet.MintRequest(q.MintAuthority, q.Tree)
	acct, r := ctx.Account(key.Key)
	if r != tx.TesSUCCESS {
		return r
	}
	if acct == nil {
		if r := system.InvokeCreateRentExempt(ctx, q.Payer, key.Key, MintRequestSize, ProgramID, key.SignerSeeds()); r != tx.TesSUCCESS {
			return r
		}
		acct, _ = ctx.Account(key.Key)
		return store(ctx, key.Key, acct, &MintRequest{MintAuthority: q.MintAuthority, NumRequested: q.MintCapacity})
	}

	m, acct, r := loadMintRequest(ctx, q.MintAuthority, q.Tree)
	if r != tx.TesSUCCESS {
		return r
	}
	if m.NumRequested+q.MintCapacity < m.NumRequested {
		return ResultNumericalOverflow
	}
	m.NumRequested += q.MintCapacity
	return store(ctx, key.Key, acct, m)
}

// ApproveMintAuthorityRequest grants NumMintsToApprove of a pending
// request. The tree creator or delegate signs.
type ApproveMintAuthorityRequest struct {
	Tree              solana.PublicKey `json:"tree"`
	TreeAuthority     solana.PublicKey `json:"tree_authority"`
	MintAuthority     solana.PublicKey `json:"mint_authority"`
	NumMintsToApprove uint64           `json:"num_mints_to_approve"`
}

func (a *ApproveMintAuthorityRequest) ProgramID() solana.PublicKey { return ProgramID }
func (a *ApproveMintAuthorityRequest) Name() string {
	return "approve_mint_authority_request"
}

func (a *ApproveMintAuthorityRequest) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(keylet.MintRequest(a.MintAuthority, a.Tree).Key),
		tx.Writable(keylet.TreeAuthority(a.Tree).Key),
		tx.ReadOnly(a.Tree),
		tx.ReadOnly(a.TreeAuthority),
		tx.ReadOnly(a.MintAuthority),
	}
}

func (a *ApproveMintAuthorityRequest) Validate() error {
	if a.Tree.IsZero() || a.TreeAuthority.IsZero() || a.MintAuthority.IsZero() {
		return errors.New("tree, tree authority and mint authority are required")
	}
	return nil
}

func (a *ApproveMintAuthorityRequest) Apply(ctx *tx.ApplyContext) tx.Result {
	config, configAcct, r := LoadTreeConfig(ctx, a.Tree)
	if r != tx.TesSUCCESS {
		return r
	}
	if !config.IsAdmin(a.TreeAuthority) || !ctx.IsSigner(a.TreeAuthority) {
		return ResultTreeAuthorityIncorrect
	}
	m, acct, r := loadMintRequest(ctx, a.MintAuthority, a.Tree)
	if r != tx.TesSUCCESS {
		return r
	}
	if a.NumMintsToApprove > m.NumRequested {
		ctx.Logf("approving %d of %d requested mints", a.NumMintsToApprove, m.NumRequested)
		return ResultMintRequestExceeded
	}
	if a.NumMintsToApprove > config.RemainingCapacity() {
		return ResultInsufficientMintCapacity
	}

	m.NumRequested -= a.NumMintsToApprove
	m.NumApproved += a.NumMintsToApprove
	config.NumMintsApproved += a.NumMintsToApprove
	if r := store(ctx, keylet.MintRequest(a.MintAuthority, a.Tree).Key, acct, m); r != tx.TesSUCCESS {
		return r
	}
	return store(ctx, keylet.TreeAuthority(a.Tree).Key, configAcct, config)
}

// CloseMintRequest gives the unused part of a request back to the tree and
// returns the request's rent to the mint authority. The mint authority or
// a tree admin signs.
type CloseMintRequest struct {
	Tree          solana.PublicKey `json:"tree"`
	MintAuthority solana.PublicKey `json:"mint_authority"`
	Authority     solana.PublicKey `json:"authority"`
}

func (c *CloseMintRequest) ProgramID() solana.PublicKey { return ProgramID }
func (c *CloseMintRequest) Name() string                { return "close_mint_request" }

func (c *CloseMintRequest) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(keylet.MintRequest(c.MintAuthority, c.Tree).Key),
		tx.Writable(keylet.TreeAuthority(c.Tree).Key),
		tx.ReadOnly(c.Tree),
		tx.Writable(c.MintAuthority),
		tx.ReadOnly(c.Authority),
	}
}

func (c *CloseMintRequest) Validate() error {
	if c.Tree.IsZero() || c.MintAuthority.IsZero() || c.Authority.IsZero() {
		return errors.New("tree, mint authority and authority are required")
	}
	return nil
}

func (c *CloseMintRequest) Apply(ctx *tx.ApplyContext) tx.Result {
	config, configAcct, r := LoadTreeConfig(ctx, c.Tree)
	if r != tx.TesSUCCESS {
		return r
	}
	if !ctx.IsSigner(c.Authority) || !(c.Authority.Equals(c.MintAuthority) || config.IsAdmin(c.Authority)) {
		return ResultTreeAuthorityIncorrect
	}
	m, _, r := loadMintRequest(ctx, c.MintAuthority, c.Tree)
	if r != tx.TesSUCCESS {
		return r
	}
	unused := m.Available()
	if unused > config.NumMintsApproved {
		return ResultNumericalOverflow
	}
	config.NumMintsApproved -= unused
	if r := store(ctx, keylet.TreeAuthority(c.Tree).Key, configAcct, config); r != tx.TesSUCCESS {
		return r
	}
	return closeAccount(ctx, keylet.MintRequest(c.MintAuthority, c.Tree).Key, c.MintAuthority)
}
