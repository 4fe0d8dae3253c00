package testing

import (
	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
)

// Asset is a mint with metadata and the token account holding its supply.
type Asset struct {
	Mint         solana.PublicKey
	TokenAccount solana.PublicKey
	Metadata     solana.PublicKey
}

// CreateAccountIx returns the instruction allocating a rent-exempt account
// of space bytes for owner, funded by payer.
func (e *TestEnv) CreateAccountIx(payer, account solana.PublicKey, space int, owner solana.PublicKey) tx.Instruction {
	return &system.CreateAccount{
		From:       payer,
		NewAccount: account,
		Lamports:   e.Rent().MinimumBalance(space),
		Space:      uint64(space),
		Owner:      owner,
	}
}

// CreateMint creates and initializes a mint controlled by authority.
func (e *TestEnv) CreateMint(payer *Account, authority solana.PublicKey, decimals uint8) solana.PublicKey {
	e.t.Helper()
	mint := e.NewKeypair("mint")
	e.MustSubmit([]*Account{payer, mint},
		e.CreateAccountIx(payer.PublicKey(), mint.PublicKey(), token.MintSize, solana.TokenProgramID),
		&token.InitializeMint{
			Mint:          mint.PublicKey(),
			Decimals:      decimals,
			MintAuthority: authority,
		},
	)
	return mint.PublicKey()
}

// CreateTokenAccount creates a token account at a fresh keypair address.
func (e *TestEnv) CreateTokenAccount(payer *Account, owner, mint solana.PublicKey) solana.PublicKey {
	e.t.Helper()
	account := e.NewKeypair("token-account")
	e.MustSubmit([]*Account{payer, account},
		e.CreateAccountIx(payer.PublicKey(), account.PublicKey(), token.AccountSize, solana.TokenProgramID),
		&token.InitializeAccount{
			Account: account.PublicKey(),
			Mint:    mint,
			Owner:   owner,
		},
	)
	return account.PublicKey()
}

// CreateAssociatedTokenAccount creates wallet's associated token account.
func (e *TestEnv) CreateAssociatedTokenAccount(payer *Account, wallet, mint solana.PublicKey) solana.PublicKey {
	e.t.Helper()
	e.MustSubmit([]*Account{payer}, &token.CreateAssociatedAccount{
		Payer:  payer.PublicKey(),
		Wallet: wallet,
		Mint:   mint,
	})
	return keylet.AssociatedToken(wallet, mint).Key
}

// MintTo mints amount tokens into destination.
func (e *TestEnv) MintTo(authority *Account, mint, destination solana.PublicKey, amount uint64) {
	e.t.Helper()
	e.MustSubmit([]*Account{authority}, &token.MintTo{
		Mint:        mint,
		Destination: destination,
		Authority:   authority.PublicKey(),
		Amount:      amount,
	})
}

// CreateMetadata creates the metadata record of mint. mintAuthority pays
// and becomes the update authority; extra signers can verify creators.
func (e *TestEnv) CreateMetadata(mintAuthority *Account, mint solana.PublicKey, data tokenmetadata.Data, extra ...*Account) solana.PublicKey {
	e.t.Helper()
	signers := append([]*Account{mintAuthority}, extra...)
	e.MustSubmit(signers, &tokenmetadata.CreateMetadataAccount{
		Mint:            mint,
		MintAuthority:   mintAuthority.PublicKey(),
		Payer:           mintAuthority.PublicKey(),
		UpdateAuthority: mintAuthority.PublicKey(),
		Data:            data,
		IsMutable:       true,
	})
	return keylet.Metadata(mint).Key
}

// CreateAsset creates a decimals-0 mint owned by owner with supply tokens in
// owner's associated token account and a metadata record.
func (e *TestEnv) CreateAsset(owner *Account, supply uint64, data tokenmetadata.Data, extra ...*Account) Asset {
	e.t.Helper()
	mint := e.CreateMint(owner, owner.PublicKey(), 0)
	ata := e.CreateAssociatedTokenAccount(owner, owner.PublicKey(), mint)
	e.MintTo(owner, mint, ata, supply)
	md := e.CreateMetadata(owner, mint, data, extra...)
	return Asset{Mint: mint, TokenAccount: ata, Metadata: md}
}

// DefaultData returns metadata with a single unverified creator taking
// every share and a 5% royalty.
func DefaultData(creator solana.PublicKey) tokenmetadata.Data {
	return tokenmetadata.Data{
		Name:                 "Test Asset",
		Symbol:               "TST",
		URI:                  "https://example.com/asset.json",
		SellerFeeBasisPoints: 500,
		Creators: []tokenmetadata.Creator{
			{Address: creator, Share: 100},
		},
	}
}
