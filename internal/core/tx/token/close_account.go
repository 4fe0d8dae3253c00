package token

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// CloseAccount erases a token account and sends its lamports to
// Destination. Authority is the close authority if set, else the owner.
type CloseAccount struct {
	Account     solana.PublicKey `json:"account"`
	Destination solana.PublicKey `json:"destination"`
	Authority   solana.PublicKey `json:"authority"`
}

func (c *CloseAccount) ProgramID() solana.PublicKey { return solana.TokenProgramID }
func (c *CloseAccount) Name() string                { return "close_account" }

func (c *CloseAccount) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(c.Account), tx.Writable(c.Destination), tx.ReadOnly(c.Authority)}
}

func (c *CloseAccount) Validate() error {
	if c.Account.IsZero() || c.Destination.IsZero() || c.Authority.IsZero() {
		return errors.New("account, destination and authority are required")
	}
	if c.Account.Equals(c.Destination) {
		return errors.New("cannot close an account into itself")
	}
	return nil
}

func (c *CloseAccount) Apply(ctx *tx.ApplyContext) tx.Result {
	src, acct, r := LoadAccount(ctx, c.Account)
	if r != tx.TesSUCCESS {
		return r
	}
	if !isNative(src) && src.Amount != 0 {
		return ResultNonNativeHasBalance
	}
	authority := src.Owner
	if src.CloseAuthority != nil {
		authority = *src.CloseAuthority
	}
	if r := validateOwner(ctx, authority, c.Authority); r != tx.TesSUCCESS {
		return r
	}

	lamports := acct.Lamports
	if r := ctx.Store(c.Account, &ledger.Account{Owner: acct.Owner, Data: make([]byte, AccountSize), Lamports: lamports}); r != tx.TesSUCCESS {
		return r
	}
	return ctx.MoveLamports(c.Account, c.Destination, lamports)
}

// InvokeCloseAccount closes a token account through a cross-program call.
func InvokeCloseAccount(ctx *tx.ApplyContext, account, destination, authority solana.PublicKey, signerSeeds ...[][]byte) tx.Result {
	cpi, r := ctx.InvokeSigned(solana.TokenProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&CloseAccount{Account: account, Destination: destination, Authority: authority}).Apply(cpi)
}
