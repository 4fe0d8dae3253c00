package token

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// Burn destroys Amount tokens held in Account and reduces the mint supply.
type Burn struct {
	Account   solana.PublicKey `json:"account"`
	Mint      solana.PublicKey `json:"mint"`
	Authority solana.PublicKey `json:"authority"`
	Amount    uint64           `json:"amount"`
}

func (b *Burn) ProgramID() solana.PublicKey { return solana.TokenProgramID }
func (b *Burn) Name() string                { return "burn" }

func (b *Burn) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(b.Account), tx.Writable(b.Mint), tx.ReadOnly(b.Authority)}
}

func (b *Burn) Validate() error {
	if b.Account.IsZero() || b.Mint.IsZero() || b.Authority.IsZero() {
		return errors.New("account, mint and authority are required")
	}
	return nil
}

func (b *Burn) Apply(ctx *tx.ApplyContext) tx.Result {
	src, acct, r := LoadAccount(ctx, b.Account)
	if r != tx.TesSUCCESS {
		return r
	}
	if src.State == StateFrozen {
		return ResultAccountFrozen
	}
	if isNative(src) {
		return ResultInvalidMint
	}
	if !src.Mint.Equals(b.Mint) {
		return ResultMintMismatch
	}
	if src.Amount < b.Amount {
		return ResultInsufficientFunds
	}
	mint, mintAcct, r := LoadMint(ctx, b.Mint)
	if r != tx.TesSUCCESS {
		return r
	}
	if r := spendAuthority(ctx, src, b.Authority, b.Amount); r != tx.TesSUCCESS {
		return r
	}
	if mint.Supply < b.Amount {
		return ResultOverflow
	}
	src.Amount -= b.Amount
	mint.Supply -= b.Amount

	if r := storeAccount(ctx, b.Account, acct, src); r != tx.TesSUCCESS {
		return r
	}
	return storeMint(ctx, b.Mint, mintAcct, mint)
}

// InvokeBurn burns tokens through a cross-program call.
func InvokeBurn(ctx *tx.ApplyContext, account, mint, authority solana.PublicKey, amount uint64, signerSeeds ...[][]byte) tx.Result {
	cpi, r := ctx.InvokeSigned(solana.TokenProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&Burn{Account: account, Mint: mint, Authority: authority, Amount: amount}).Apply(cpi)
}
