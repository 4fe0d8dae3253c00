package token

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// Approve lets Delegate move up to Amount tokens out of Source. It replaces
// any earlier delegation.
type Approve struct {
	Source   solana.PublicKey `json:"source"`
	Delegate solana.PublicKey `json:"delegate"`
	Owner    solana.PublicKey `json:"owner"`
	Amount   uint64           `json:"amount"`
}

func (a *Approve) ProgramID() solana.PublicKey { return solana.TokenProgramID }
func (a *Approve) Name() string                { return "approve" }

func (a *Approve) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(a.Source), tx.ReadOnly(a.Delegate), tx.ReadOnly(a.Owner)}
}

func (a *Approve) Validate() error {
	if a.Source.IsZero() || a.Delegate.IsZero() || a.Owner.IsZero() {
		return errors.New("source, delegate and owner are required")
	}
	return nil
}

func (a *Approve) Apply(ctx *tx.ApplyContext) tx.Result {
	src, acct, r := LoadAccount(ctx, a.Source)
	if r != tx.TesSUCCESS {
		return r
	}
	if src.State == StateFrozen {
		return ResultAccountFrozen
	}
	if r := validateOwner(ctx, src.Owner, a.Owner); r != tx.TesSUCCESS {
		return r
	}
	delegate := a.Delegate
	src.Delegate = &delegate
	src.DelegatedAmount = a.Amount
	return storeAccount(ctx, a.Source, acct, src)
}

// InvokeApprove approves a delegate through a cross-program call.
func InvokeApprove(ctx *tx.ApplyContext, source, delegate, owner solana.PublicKey, amount uint64, signerSeeds ...[][]byte) tx.Result {
	cpi, r := ctx.InvokeSigned(solana.TokenProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&Approve{Source: source, Delegate: delegate, Owner: owner, Amount: amount}).Apply(cpi)
}

// Revoke clears the delegate of Source. Authority is the owner, or the
// delegate giving up its own allowance.
type Revoke struct {
	Source    solana.PublicKey `json:"source"`
	Authority solana.PublicKey `json:"authority"`
}

func (v *Revoke) ProgramID() solana.PublicKey { return solana.TokenProgramID }
func (v *Revoke) Name() string                { return "revoke" }

func (v *Revoke) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(v.Source), tx.ReadOnly(v.Authority)}
}

func (v *Revoke) Validate() error {
	if v.Source.IsZero() || v.Authority.IsZero() {
		return errors.New("source and authority are required")
	}
	return nil
}

func (v *Revoke) Apply(ctx *tx.ApplyContext) tx.Result {
	src, acct, r := LoadAccount(ctx, v.Source)
	if r != tx.TesSUCCESS {
		return r
	}
	if src.State == StateFrozen {
		return ResultAccountFrozen
	}
	if src.Delegate != nil && src.Delegate.Equals(v.Authority) {
		if r := ctx.RequireSigner(v.Authority); r != tx.TesSUCCESS {
			return r
		}
	} else if r := validateOwner(ctx, src.Owner, v.Authority); r != tx.TesSUCCESS {
		return r
	}
	src.Delegate = nil
	src.DelegatedAmount = 0
	return storeAccount(ctx, v.Source, acct, src)
}

// InvokeRevoke revokes a delegate through a cross-program call.
func InvokeRevoke(ctx *tx.ApplyContext, source, authority solana.PublicKey, signerSeeds ...[][]byte) tx.Result {
	cpi, r := ctx.InvokeSigned(solana.TokenProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&Revoke{Source: source, Authority: authority}).Apply(cpi)
}
