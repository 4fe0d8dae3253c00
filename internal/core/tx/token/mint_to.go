package token

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// MintTo issues Amount new tokens of Mint into Destination.
type MintTo struct {
	Mint        solana.PublicKey `json:"mint"`
	Destination solana.PublicKey `json:"destination"`
	Authority   solana.PublicKey `json:"authority"`
	Amount      uint64           `json:"amount"`
}

func (m *MintTo) ProgramID() solana.PublicKey { return solana.TokenProgramID }
func (m *MintTo) Name() string                { return "mint_to" }

func (m *MintTo) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(m.Mint), tx.Writable(m.Destination), tx.ReadOnly(m.Authority)}
}

func (m *MintTo) Validate() error {
	if m.Mint.IsZero() || m.Destination.IsZero() || m.Authority.IsZero() {
		return errors.New("mint, destination and authority are required")
	}
	return nil
}

func (m *MintTo) Apply(ctx *tx.ApplyContext) tx.Result {
	dst, dstAcct, r := LoadAccount(ctx, m.Destination)
	if r != tx.TesSUCCESS {
		return r
	}
	if dst.State == StateFrozen {
		return ResultAccountFrozen
	}
	if isNative(dst) {
		return ResultInvalidMint
	}
	if !dst.Mint.Equals(m.Mint) {
		return ResultMintMismatch
	}

	mint, mintAcct, r := LoadMint(ctx, m.Mint)
	if r != tx.TesSUCCESS {
		return r
	}
	if mint.MintAuthority == nil {
		return ResultFixedSupply
	}
	if r := validateOwner(ctx, *mint.MintAuthority, m.Authority); r != tx.TesSUCCESS {
		return r
	}

	if mint.Supply+m.Amount < mint.Supply || dst.Amount+m.Amount < dst.Amount {
		return ResultOverflow
	}
	mint.Supply += m.Amount
	dst.Amount += m.Amount

	if r := storeAccount(ctx, m.Destination, dstAcct, dst); r != tx.TesSUCCESS {
		return r
	}
	return storeMint(ctx, m.Mint, mintAcct, mint)
}

// InvokeMintTo mints tokens through a cross-program call.
func InvokeMintTo(ctx *tx.ApplyContext, mint, destination, authority solana.PublicKey, amount uint64, signerSeeds ...[][]byte) tx.Result {
	cpi, r := ctx.InvokeSigned(solana.TokenProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&MintTo{
		Mint:        mint,
		Destination: destination,
		Authority:   authority,
		Amount:      amount,
	}).Apply(cpi)
}
