package token

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
)

// CreateAssociatedAccount creates and initializes the associated token
// account of (Wallet, Mint), funded by Payer. It succeeds without changes
// when the account already holds Mint for Wallet.
type CreateAssociatedAccount struct {
	Payer  solana.PublicKey `json:"payer"`
	Wallet solana.PublicKey `json:"wallet"`
	Mint   solana.PublicKey `json:"mint"`
}

func (c *CreateAssociatedAccount) ProgramID() solana.PublicKey {
	return solana.SPLAssociatedTokenAccountProgramID
}
func (c *CreateAssociatedAccount) Name() string { return "create_associated_account" }

func (c *CreateAssociatedAccount) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(c.Payer),
		tx.Writable(keylet.AssociatedToken(c.Wallet, c.Mint).Key),
		tx.ReadOnly(c.Wallet),
		tx.ReadOnly(c.Mint),
		tx.ReadOnly(solana.SystemProgramID),
		tx.ReadOnly(solana.TokenProgramID),
	}
}

func (c *CreateAssociatedAccount) Validate() error {
	if c.Payer.IsZero() || c.Wallet.IsZero() || c.Mint.IsZero() {
		return errors.New("payer, wallet and mint are required")
	}
	return nil
}

func (c *CreateAssociatedAccount) Apply(ctx *tx.ApplyContext) tx.Result {
	ata := keylet.AssociatedToken(c.Wallet, c.Mint)

	existing, r := ctx.Account(ata.Key)
	if r != tx.TesSUCCESS {
		return r
	}
	if existing != nil && existing.Owner.Equals(solana.TokenProgramID) {
		a, _, r := LoadAccount(ctx, ata.Key)
		if r != tx.TesSUCCESS {
			return r
		}
		if !a.Mint.Equals(c.Mint) || !a.Owner.Equals(c.Wallet) {
			return ResultInvalidAssociatedAddress
		}
		return tx.TesSUCCESS
	}
	if existing != nil {
		return ResultAlreadyInUse
	}

	if r := system.InvokeCreateRentExempt(ctx, c.Payer, ata.Key, AccountSize, solana.TokenProgramID, ata.SignerSeeds()); r != tx.TesSUCCESS {
		return r
	}
	return InvokeInitializeAccount(ctx, ata.Key, c.Mint, c.Wallet)
}

// InvokeCreateAssociatedAccount creates wallet's associated token account
// for mint if it does not exist yet and returns its address.
func InvokeCreateAssociatedAccount(ctx *tx.ApplyContext, payer, wallet, mint solana.PublicKey, signerSeeds ...[][]byte) (solana.PublicKey, tx.Result) {
	cpi, r := ctx.InvokeSigned(solana.SPLAssociatedTokenAccountProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return solana.PublicKey{}, r
	}
	ix := &CreateAssociatedAccount{Payer: payer, Wallet: wallet, Mint: mint}
	return keylet.AssociatedToken(wallet, mint).Key, ix.Apply(cpi)
}
