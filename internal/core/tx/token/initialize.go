package token

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// InitializeMint sets up a mint account previously allocated to the token
// program.
type InitializeMint struct {
	Mint            solana.PublicKey  `json:"mint"`
	Decimals        uint8             `json:"decimals"`
	MintAuthority   solana.PublicKey  `json:"mint_authority"`
	FreezeAuthority *solana.PublicKey `json:"freeze_authority,omitempty" bin:"optional"`
}

func (i *InitializeMint) ProgramID() solana.PublicKey { return solana.TokenProgramID }
func (i *InitializeMint) Name() string                { return "initialize_mint" }

func (i *InitializeMint) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(i.Mint)}
}

func (i *InitializeMint) Validate() error {
	if i.Mint.IsZero() || i.MintAuthority.IsZero() {
		return errors.New("mint and mint authority are required")
	}
	return nil
}

func (i *InitializeMint) Apply(ctx *tx.ApplyContext) tx.Result {
	acct, r := ctx.Account(i.Mint)
	if r != tx.TesSUCCESS {
		return r
	}
	if acct == nil || !acct.Owner.Equals(solana.TokenProgramID) {
		return ResultInvalidAccountOwner
	}
	if len(acct.Data) != MintSize {
		return ResultInvalidState
	}
	existing, err := UnpackMint(acct.Data)
	if err != nil {
		return ResultInvalidState
	}
	if existing.IsInitialized {
		return ResultAlreadyInUse
	}
	if !ctx.Rent().IsExempt(acct.Lamports, len(acct.Data)) {
		return ResultNotRentExempt
	}

	mintAuthority := i.MintAuthority
	return storeMint(ctx, i.Mint, acct, &Mint{
		MintAuthority:   &mintAuthority,
		Decimals:        i.Decimals,
		IsInitialized:   true,
		FreezeAuthority: i.FreezeAuthority,
	})
}

// InvokeInitializeMint initializes a mint through a cross-program call.
func InvokeInitializeMint(ctx *tx.ApplyContext, mint solana.PublicKey, decimals uint8, mintAuthority solana.PublicKey, freezeAuthority *solana.PublicKey) tx.Result {
	cpi, r := ctx.Invoke(solana.TokenProgramID)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&InitializeMint{
		Mint:            mint,
		Decimals:        decimals,
		MintAuthority:   mintAuthority,
		FreezeAuthority: freezeAuthority,
	}).Apply(cpi)
}

// InitializeAccount sets up a token account for Owner holding Mint. A token
// account of the native mint tracks its lamports above the rent reserve.
type InitializeAccount struct {
	Account solana.PublicKey `json:"account"`
	Mint    solana.PublicKey `json:"mint"`
	Owner   solana.PublicKey `json:"owner"`
}

func (i *InitializeAccount) ProgramID() solana.PublicKey { return solana.TokenProgramID }
func (i *InitializeAccount) Name() string                { return "initialize_account" }

func (i *InitializeAccount) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(i.Account), tx.ReadOnly(i.Mint)}
}

func (i *InitializeAccount) Validate() error {
	if i.Account.IsZero() || i.Mint.IsZero() || i.Owner.IsZero() {
		return errors.New("account, mint and owner are required")
	}
	return nil
}

func (i *InitializeAccount) Apply(ctx *tx.ApplyContext) tx.Result {
	acct, r := ctx.Account(i.Account)
	if r != tx.TesSUCCESS {
		return r
	}
	if acct == nil || !acct.Owner.Equals(solana.TokenProgramID) {
		return ResultInvalidAccountOwner
	}
	if len(acct.Data) != AccountSize {
		return ResultInvalidState
	}
	existing, err := UnpackAccount(acct.Data)
	if err != nil {
		return ResultInvalidState
	}
	if existing.State != StateUninitialized {
		return ResultAlreadyInUse
	}
	reserve := ctx.Rent().MinimumBalance(AccountSize)
	if acct.Lamports < reserve {
		return ResultNotRentExempt
	}

	a := &Account{
		Mint:  i.Mint,
		Owner: i.Owner,
		State: StateInitialized,
	}
	if i.Mint.Equals(NativeMint) {
		a.IsNative = &reserve
		a.Amount = acct.Lamports - reserve
	} else if _, _, r := LoadMint(ctx, i.Mint); r != tx.TesSUCCESS {
		return ResultInvalidMint
	}
	return storeAccount(ctx, i.Account, acct, a)
}

// InvokeInitializeAccount initializes a token account through a
// cross-program call.
func InvokeInitializeAccount(ctx *tx.ApplyContext, account, mint, owner solana.PublicKey) tx.Result {
	cpi, r := ctx.Invoke(solana.TokenProgramID)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&InitializeAccount{Account: account, Mint: mint, Owner: owner}).Apply(cpi)
}
