package system

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// CreateAccount funds a new account from From, allocates Space zeroed bytes
// and assigns it to Owner. Both accounts must sign.
type CreateAccount struct {
	From       solana.PublicKey `json:"from"`
	NewAccount solana.PublicKey `json:"new_account"`
	Lamports   uint64           `json:"lamports"`
	Space      uint64           `json:"space"`
	Owner      solana.PublicKey `json:"owner"`
}

func (c *CreateAccount) ProgramID() solana.PublicKey { return solana.SystemProgramID }
func (c *CreateAccount) Name() string                { return "create_account" }

func (c *CreateAccount) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(c.From), tx.Writable(c.NewAccount)}
}

func (c *CreateAccount) Validate() error {
	if c.From.IsZero() || c.NewAccount.IsZero() {
		return errors.New("from and new account are required")
	}
	if c.From.Equals(c.NewAccount) {
		return errors.New("from and new account must differ")
	}
	return nil
}

func (c *CreateAccount) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.RequireSigner(c.From); r != tx.TesSUCCESS {
		return r
	}
	if r := ctx.RequireSigner(c.NewAccount); r != tx.TesSUCCESS {
		return r
	}
	if c.Space > MaxPermittedDataLength {
		return ResultInvalidAccountDataLength
	}

	existing, r := ctx.Account(c.NewAccount)
	if r != tx.TesSUCCESS {
		return r
	}
	if existing != nil {
		ctx.Logf("create account: %s already in use", c.NewAccount)
		return ResultAccountAlreadyInUse
	}

	if r := debit(ctx, c.From, c.NewAccount, c.Lamports); r != tx.TesSUCCESS {
		return r
	}
	return ctx.Store(c.NewAccount, &ledger.Account{
		Lamports: c.Lamports,
		Owner:    c.Owner,
		Data:     make([]byte, c.Space),
	})
}

// InvokeCreateAccount creates an account through a cross-program call.
// signerSeeds sign for PDAs among from and newAccount.
func InvokeCreateAccount(ctx *tx.ApplyContext, from, newAccount solana.PublicKey, lamports, space uint64, owner solana.PublicKey, signerSeeds ...[][]byte) tx.Result {
	cpi, r := ctx.InvokeSigned(solana.SystemProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&CreateAccount{
		From:       from,
		NewAccount: newAccount,
		Lamports:   lamports,
		Space:      space,
		Owner:      owner,
	}).Apply(cpi)
}

// InvokeCreateRentExempt creates an account funded with exactly the
// rent-exempt minimum for space.
func InvokeCreateRentExempt(ctx *tx.ApplyContext, payer, newAccount solana.PublicKey, space uint64, owner solana.PublicKey, signerSeeds ...[][]byte) tx.Result {
	lamports := ctx.Rent().MinimumBalance(int(space))
	return InvokeCreateAccount(ctx, payer, newAccount, lamports, space, owner, signerSeeds...)
}
