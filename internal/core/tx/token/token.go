// Package token implements an SPL-token compatible program: mints, token
// accounts, associated token accounts and their transfer primitives.
package token

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	spltoken "github.com/gagliardetto/solana-go/programs/token"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// Packed layout sizes
const (
	MintSize    = 82
	AccountSize = 165
)

// Mint and Account use the canonical SPL packed layouts.
type (
	Mint    = spltoken.Mint
	Account = spltoken.Account
)

// Account states
const (
	StateUninitialized = spltoken.Uninitialized
	StateInitialized   = spltoken.Initialized
	StateFrozen        = spltoken.Frozen
)

// NativeMint is the mint of wrapped lamports.
var NativeMint = solana.SolMint

var (
	ResultNotRentExempt             = tx.RegisterResult(200, "Token.NotRentExempt", "Lamport balance below rent-exempt threshold.")
	ResultInsufficientFunds         = tx.RegisterResult(201, "Token.InsufficientFunds", "Insufficient funds.")
	ResultInvalidMint               = tx.RegisterResult(202, "Token.InvalidMint", "Invalid mint.")
	ResultMintMismatch              = tx.RegisterResult(203, "Token.MintMismatch", "Account not associated with this mint.")
	ResultOwnerMismatch             = tx.RegisterResult(204, "Token.OwnerMismatch", "Owner does not match.")
	ResultFixedSupply               = tx.RegisterResult(205, "Token.FixedSupply", "Fixed supply.")
	ResultAlreadyInUse              = tx.RegisterResult(206, "Token.AlreadyInUse", "Already in use.")
	ResultUninitializedState        = tx.RegisterResult(207, "Token.UninitializedState", "State is uninitialized.")
	ResultOverflow                  = tx.RegisterResult(208, "Token.Overflow", "Operation overflowed.")
	ResultAccountFrozen             = tx.RegisterResult(209, "Token.AccountFrozen", "Account is frozen.")
	ResultNonNativeHasBalance       = tx.RegisterResult(210, "Token.NonNativeHasBalance", "Non-native account can only be closed if its balance is zero.")
	ResultInvalidAccountOwner       = tx.RegisterResult(211, "Token.InvalidAccountOwner", "Account is not owned by the token program.")
	ResultInvalidAssociatedAddress  = tx.RegisterResult(212, "Token.InvalidAssociatedAddress", "Associated token account address does not match seed derivation.")
	ResultAuthorityTypeNotSupported = tx.RegisterResult(213, "Token.AuthorityTypeNotSupported", "Account does not support specified authority type.")
	ResultInvalidState              = tx.RegisterResult(214, "Token.InvalidState", "Account data has an unexpected size.")
)

func init() {
	tx.RegisterProgram(solana.TokenProgramID, "token")
	tx.RegisterProgram(solana.SPLAssociatedTokenAccountProgramID, "associated-token")

	tx.Register(solana.TokenProgramID, "initialize_mint", func() tx.Instruction { return &InitializeMint{} })
	tx.Register(solana.TokenProgramID, "initialize_account", func() tx.Instruction { return &InitializeAccount{} })
	tx.Register(solana.TokenProgramID, "mint_to", func() tx.Instruction { return &MintTo{} })
	tx.Register(solana.TokenProgramID, "transfer", func() tx.Instruction { return &Transfer{} })
	tx.Register(solana.TokenProgramID, "approve", func() tx.Instruction { return &Approve{} })
	tx.Register(solana.TokenProgramID, "revoke", func() tx.Instruction { return &Revoke{} })
	tx.Register(solana.TokenProgramID, "burn", func() tx.Instruction { return &Burn{} })
	tx.Register(solana.TokenProgramID, "close_account", func() tx.Instruction { return &CloseAccount{} })
	tx.Register(solana.TokenProgramID, "set_authority", func() tx.Instruction { return &SetAuthority{} })
	tx.Register(solana.SPLAssociatedTokenAccountProgramID, "create_associated_account", func() tx.Instruction { return &CreateAssociatedAccount{} })
}

// UnpackMint decodes an initialized mint.
func UnpackMint(data []byte) (*Mint, error) {
	if len(data) != MintSize {
		return nil, fmt.Errorf("mint has %d bytes, want %d", len(data), MintSize)
	}
	var m Mint
	if err := bin.NewBinDecoder(data).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// PackMint encodes a mint.
func PackMint(m *Mint) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBinEncoder(buf).Encode(*m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnpackAccount decodes a token account.
func UnpackAccount(data []byte) (*Account, error) {
	if len(data) != AccountSize {
		return nil, fmt.Errorf("token account has %d bytes, want %d", len(data), AccountSize)
	}
	var a Account
	if err := bin.NewBinDecoder(data).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// PackAccount encodes a token account.
func PackAccount(a *Account) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBinEncoder(buf).Encode(*a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadMint reads an initialized mint owned by the token program.
func LoadMint(ctx *tx.ApplyContext, key solana.PublicKey) (*Mint, *ledger.Account, tx.Result) {
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return nil, nil, r
	}
	if acct == nil {
		ctx.Logf("mint %s does not exist", key)
		return nil, nil, ResultUninitializedState
	}
	if !acct.Owner.Equals(solana.TokenProgramID) {
		return nil, nil, ResultInvalidAccountOwner
	}
	m, err := UnpackMint(acct.Data)
	if err != nil {
		ctx.Logf("mint %s: %v", key, err)
		return nil, nil, ResultInvalidMint
	}
	if !m.IsInitialized {
		return nil, nil, ResultUninitializedState
	}
	return m, acct, tx.TesSUCCESS
}

// LoadAccount reads an initialized token account owned by the token program.
func LoadAccount(ctx *tx.ApplyContext, key solana.PublicKey) (*Account, *ledger.Account, tx.Result) {
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return nil, nil, r
	}
	if acct == nil {
		ctx.Logf("token account %s does not exist", key)
		return nil, nil, ResultUninitializedState
	}
	if !acct.Owner.Equals(solana.TokenProgramID) {
		return nil, nil, ResultInvalidAccountOwner
	}
	a, err := UnpackAccount(acct.Data)
	if err != nil {
		ctx.Logf("token account %s: %v", key, err)
		return nil, nil, ResultInvalidState
	}
	if a.State == StateUninitialized {
		return nil, nil, ResultUninitializedState
	}
	return a, acct, tx.TesSUCCESS
}

// ReadAccount decodes the token account under key without a context. It
// returns nil when the account is absent or not a token account.
func ReadAccount(view tx.LedgerView, key solana.PublicKey) (*Account, error) {
	acct, err := view.Read(key)
	if err != nil || acct == nil || !acct.Owner.Equals(solana.TokenProgramID) || len(acct.Data) != AccountSize {
		return nil, err
	}
	return UnpackAccount(acct.Data)
}

// ReadMint decodes the mint under key without a context.
func ReadMint(view tx.LedgerView, key solana.PublicKey) (*Mint, error) {
	acct, err := view.Read(key)
	if err != nil || acct == nil || !acct.Owner.Equals(solana.TokenProgramID) || len(acct.Data) != MintSize {
		return nil, err
	}
	return UnpackMint(acct.Data)
}

func storeMint(ctx *tx.ApplyContext, key solana.PublicKey, acct *ledger.Account, m *Mint) tx.Result {
	data, err := PackMint(m)
	if err != nil {
		ctx.Logf("pack mint: %v", err)
		return tx.TefINTERNAL
	}
	acct.Data = data
	return ctx.Store(key, acct)
}

func storeAccount(ctx *tx.ApplyContext, key solana.PublicKey, acct *ledger.Account, a *Account) tx.Result {
	data, err := PackAccount(a)
	if err != nil {
		ctx.Logf("pack token account: %v", err)
		return tx.TefINTERNAL
	}
	acct.Data = data
	return ctx.Store(key, acct)
}

// validateOwner checks that authority is the expected owner and signed.
func validateOwner(ctx *tx.ApplyContext, expected, authority solana.PublicKey) tx.Result {
	if !expected.Equals(authority) {
		ctx.Logf("owner mismatch: expected %s, got %s", expected, authority)
		return ResultOwnerMismatch
	}
	return ctx.RequireSigner(authority)
}

func isNative(a *Account) bool {
	return a.IsNative != nil
}
