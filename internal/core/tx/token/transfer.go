package token

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// Transfer moves Amount tokens from Source to Destination. Authority is the
// source owner or its delegate.
type Transfer struct {
	Source      solana.PublicKey `json:"source"`
	Destination solana.PublicKey `json:"destination"`
	Authority   solana.PublicKey `json:"authority"`
	Amount      uint64           `json:"amount"`
}

func (t *Transfer) ProgramID() solana.PublicKey { return solana.TokenProgramID }
func (t *Transfer) Name() string                { return "transfer" }

func (t *Transfer) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(t.Source), tx.Writable(t.Destination), tx.ReadOnly(t.Authority)}
}

func (t *Transfer) Validate() error {
	if t.Source.IsZero() || t.Destination.IsZero() || t.Authority.IsZero() {
		return errors.New("source, destination and authority are required")
	}
	return nil
}

func (t *Transfer) Apply(ctx *tx.ApplyContext) tx.Result {
	src, srcAcct, r := LoadAccount(ctx, t.Source)
	if r != tx.TesSUCCESS {
		return r
	}
	dst, dstAcct, r := LoadAccount(ctx, t.Destination)
	if r != tx.TesSUCCESS {
		return r
	}
	if src.State == StateFrozen || dst.State == StateFrozen {
		return ResultAccountFrozen
	}
	if src.Amount < t.Amount {
		ctx.Logf("transfer: %s holds %d, need %d", t.Source, src.Amount, t.Amount)
		return ResultInsufficientFunds
	}
	if !src.Mint.Equals(dst.Mint) {
		return ResultMintMismatch
	}

	if r := spendAuthority(ctx, src, t.Authority, t.Amount); r != tx.TesSUCCESS {
		return r
	}
	if t.Source.Equals(t.Destination) {
		return storeAccount(ctx, t.Source, srcAcct, src)
	}

	if dst.Amount+t.Amount < dst.Amount {
		return ResultOverflow
	}
	src.Amount -= t.Amount
	dst.Amount += t.Amount

	if r := storeAccount(ctx, t.Source, srcAcct, src); r != tx.TesSUCCESS {
		return r
	}
	if r := storeAccount(ctx, t.Destination, dstAcct, dst); r != tx.TesSUCCESS {
		return r
	}
	if isNative(src) {
		return ctx.MoveLamports(t.Source, t.Destination, t.Amount)
	}
	return tx.TesSUCCESS
}

// spendAuthority checks that authority may move amount out of a and
// consumes the delegated allowance when authority is the delegate.
func spendAuthority(ctx *tx.ApplyContext, a *Account, authority solana.PublicKey, amount uint64) tx.Result {
	if a.Delegate != nil && a.Delegate.Equals(authority) && !a.Owner.Equals(authority) {
		if r := ctx.RequireSigner(authority); r != tx.TesSUCCESS {
			return r
		}
		if a.DelegatedAmount < amount {
			ctx.Logf("delegate %s allowed %d, need %d", authority, a.DelegatedAmount, amount)
			return ResultInsufficientFunds
		}
		a.DelegatedAmount -= amount
		if a.DelegatedAmount == 0 {
			a.Delegate = nil
		}
		return tx.TesSUCCESS
	}
	return validateOwner(ctx, a.Owner, authority)
}

// InvokeTransfer transfers tokens through a cross-program call.
func InvokeTransfer(ctx *tx.ApplyContext, source, destination, authority solana.PublicKey, amount uint64, signerSeeds ...[][]byte) tx.Result {
	if amount == 0 {
		return tx.TesSUCCESS
	}
	cpi, r := ctx.InvokeSigned(solana.TokenProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&Transfer{
		Source:      source,
		Destination: destination,
		Authority:   authority,
		Amount:      amount,
	}).Apply(cpi)
}
