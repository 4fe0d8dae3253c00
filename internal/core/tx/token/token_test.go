package token_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
	jtx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenFixture struct {
	env   *jtx.TestEnv
	alice *jtx.Account
	bob   *jtx.Account
	mint  solana.PublicKey
	src   solana.PublicKey
	dst   solana.PublicKey
}

func newTokenFixture(t *testing.T) *tokenFixture {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	env.Fund(alice, bob)

	mint := env.CreateMint(alice, alice.PublicKey(), 0)
	src := env.CreateAssociatedTokenAccount(alice, alice.PublicKey(), mint)
	dst := env.CreateAssociatedTokenAccount(alice, bob.PublicKey(), mint)
	env.MintTo(alice, mint, src, 10)

	return &tokenFixture{env: env, alice: alice, bob: bob, mint: mint, src: src, dst: dst}
}

func TestLayoutSizes(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	delegate := owner
	data, err := token.PackAccount(&token.Account{
		Mint:     solana.NewWallet().PublicKey(),
		Owner:    owner,
		Amount:   5,
		Delegate: &delegate,
		State:    token.StateInitialized,
	})
	require.NoError(t, err)
	assert.Len(t, data, token.AccountSize)

	decoded, err := token.UnpackAccount(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), decoded.Amount)
	require.NotNil(t, decoded.Delegate)
	assert.Equal(t, owner, *decoded.Delegate)

	mint, err := token.PackMint(&token.Mint{MintAuthority: &delegate, Supply: 1, IsInitialized: true})
	require.NoError(t, err)
	assert.Len(t, mint, token.MintSize)

	_, err = token.UnpackMint(data)
	assert.Error(t, err)
}

func TestAssociatedAccount(t *testing.T) {
	f := newTokenFixture(t)

	ata := keylet.AssociatedToken(f.bob.PublicKey(), f.mint).Key
	assert.Equal(t, ata, f.dst)
	acct := f.env.TokenAccount(ata)
	require.NotNil(t, acct)
	assert.Equal(t, f.bob.PublicKey(), acct.Owner)
	assert.Equal(t, f.mint, acct.Mint)
	jtx.RequireBalance(t, f.env, ata, f.env.Rent().MinimumBalance(token.AccountSize))

	// creating it again changes nothing
	result := f.env.Submit(f.alice, &token.CreateAssociatedAccount{
		Payer:  f.alice.PublicKey(),
		Wallet: f.bob.PublicKey(),
		Mint:   f.mint,
	})
	jtx.RequireTxSuccess(t, result)
}

func TestTransfer(t *testing.T) {
	tests := []struct {
		name      string
		signer    func(f *tokenFixture) *jtx.Account
		authority func(f *tokenFixture) solana.PublicKey
		amount    uint64
		expected  tx.Result
	}{
		{
			name:      "owner transfers",
			signer:    func(f *tokenFixture) *jtx.Account { return f.alice },
			authority: func(f *tokenFixture) solana.PublicKey { return f.alice.PublicKey() },
			amount:    4,
			expected:  tx.TesSUCCESS,
		},
		{
			name:      "insufficient funds",
			signer:    func(f *tokenFixture) *jtx.Account { return f.alice },
			authority: func(f *tokenFixture) solana.PublicKey { return f.alice.PublicKey() },
			amount:    11,
			expected:  token.ResultInsufficientFunds,
		},
		{
			name:      "wrong owner",
			signer:    func(f *tokenFixture) *jtx.Account { return f.bob },
			authority: func(f *tokenFixture) solana.PublicKey { return f.bob.PublicKey() },
			amount:    1,
			expected:  token.ResultOwnerMismatch,
		},
		{
			name:      "owner did not sign",
			signer:    func(f *tokenFixture) *jtx.Account { return f.bob },
			authority: func(f *tokenFixture) solana.PublicKey { return f.alice.PublicKey() },
			amount:    1,
			expected:  tx.TefMISSING_REQUIRED_SIGNATURE,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newTokenFixture(t)
			result := f.env.Submit(tc.signer(f), &token.Transfer{
				Source:      f.src,
				Destination: f.dst,
				Authority:   tc.authority(f),
				Amount:      tc.amount,
			})
			if tc.expected == tx.TesSUCCESS {
				jtx.RequireTxSuccess(t, result)
				jtx.RequireTokenBalance(t, f.env, f.src, 10-tc.amount)
				jtx.RequireTokenBalance(t, f.env, f.dst, tc.amount)
				return
			}
			jtx.RequireTxFail(t, result, tc.expected)
			jtx.RequireTokenBalance(t, f.env, f.src, 10)
		})
	}
}

func TestTransferMintMismatch(t *testing.T) {
	f := newTokenFixture(t)
	other := f.env.CreateMint(f.alice, f.alice.PublicKey(), 0)
	otherAccount := f.env.CreateAssociatedTokenAccount(f.alice, f.bob.PublicKey(), other)

	result := f.env.Submit(f.alice, &token.Transfer{
		Source:      f.src,
		Destination: otherAccount,
		Authority:   f.alice.PublicKey(),
		Amount:      1,
	})
	jtx.RequireTxFail(t, result, token.ResultMintMismatch)
}

func TestDelegateAllowance(t *testing.T) {
	f := newTokenFixture(t)
	carol := jtx.NewAccount("carol")
	f.env.Fund(carol)

	jtx.RequireTxSuccess(t, f.env.Submit(f.alice, &token.Approve{
		Source:   f.src,
		Delegate: carol.PublicKey(),
		Owner:    f.alice.PublicKey(),
		Amount:   3,
	}))

	transfer := func(amount uint64) tx.ApplyResult {
		return f.env.Submit(carol, &token.Transfer{
			Source:      f.src,
			Destination: f.dst,
			Authority:   carol.PublicKey(),
			Amount:      amount,
		})
	}

	jtx.RequireTxFail(t, transfer(4), token.ResultInsufficientFunds)
	jtx.RequireTxSuccess(t, transfer(2))

	acct := f.env.TokenAccount(f.src)
	require.NotNil(t, acct.Delegate)
	assert.Equal(t, uint64(1), acct.DelegatedAmount)

	jtx.RequireTxSuccess(t, transfer(1))
	acct = f.env.TokenAccount(f.src)
	assert.Nil(t, acct.Delegate, "delegate is cleared once the allowance is spent")
	assert.Zero(t, acct.DelegatedAmount)

	jtx.RequireTxFail(t, transfer(1), token.ResultOwnerMismatch)
	jtx.RequireTokenBalance(t, f.env, f.dst, 3)
}

func TestRevoke(t *testing.T) {
	f := newTokenFixture(t)
	carol := jtx.NewAccount("carol")
	f.env.Fund(carol)

	approve := &token.Approve{Source: f.src, Delegate: carol.PublicKey(), Owner: f.alice.PublicKey(), Amount: 5}
	jtx.RequireTxSuccess(t, f.env.Submit(f.alice, approve))

	// a stranger cannot revoke
	jtx.RequireTxFail(t, f.env.Submit(f.bob, &token.Revoke{Source: f.src, Authority: f.bob.PublicKey()}), token.ResultOwnerMismatch)

	// the delegate can give up its own allowance
	jtx.RequireTxSuccess(t, f.env.Submit(carol, &token.Revoke{Source: f.src, Authority: carol.PublicKey()}))
	assert.Nil(t, f.env.TokenAccount(f.src).Delegate)

	jtx.RequireTxSuccess(t, f.env.Submit(f.alice, approve))
	jtx.RequireTxSuccess(t, f.env.Submit(f.alice, &token.Revoke{Source: f.src, Authority: f.alice.PublicKey()}))
	assert.Nil(t, f.env.TokenAccount(f.src).Delegate)
}

func TestMintAndBurn(t *testing.T) {
	f := newTokenFixture(t)

	jtx.RequireTxFail(t, f.env.Submit(f.bob, &token.MintTo{
		Mint:        f.mint,
		Destination: f.dst,
		Authority:   f.bob.PublicKey(),
		Amount:      1,
	}), token.ResultOwnerMismatch)

	jtx.RequireTxSuccess(t, f.env.Submit(f.alice, &token.Burn{
		Account:   f.src,
		Mint:      f.mint,
		Authority: f.alice.PublicKey(),
		Amount:    4,
	}))
	jtx.RequireTokenBalance(t, f.env, f.src, 6)
	assert.Equal(t, uint64(6), f.env.Mint(f.mint).Supply)

	// dropping the mint authority fixes the supply
	jtx.RequireTxSuccess(t, f.env.Submit(f.alice, &token.SetAuthority{
		Target:        f.mint,
		Authority:     f.alice.PublicKey(),
		AuthorityType: token.AuthorityMintTokens,
	}))
	jtx.RequireTxFail(t, f.env.Submit(f.alice, &token.MintTo{
		Mint:        f.mint,
		Destination: f.src,
		Authority:   f.alice.PublicKey(),
		Amount:      1,
	}), token.ResultFixedSupply)
}

func TestCloseAccount(t *testing.T) {
	f := newTokenFixture(t)
	closeIx := &token.CloseAccount{
		Account:     f.src,
		Destination: f.alice.PublicKey(),
		Authority:   f.alice.PublicKey(),
	}
	jtx.RequireTxFail(t, f.env.Submit(f.alice, closeIx), token.ResultNonNativeHasBalance)

	jtx.RequireTxSuccess(t, f.env.Submit(f.alice, &token.Transfer{
		Source:      f.src,
		Destination: f.dst,
		Authority:   f.alice.PublicKey(),
		Amount:      10,
	}))

	before := f.env.Balance(f.alice.PublicKey())
	rent := f.env.Balance(f.src)
	jtx.RequireTxSuccess(t, f.env.Submit(f.alice, closeIx))
	jtx.RequireAccountNotExists(t, f.env, f.src)
	jtx.RequireBalance(t, f.env, f.alice.PublicKey(), before+rent-f.env.Fee(1))
}

func TestInitializeTwice(t *testing.T) {
	f := newTokenFixture(t)
	result := f.env.Submit(f.alice, &token.InitializeMint{
		Mint:          f.mint,
		MintAuthority: f.bob.PublicKey(),
	})
	jtx.RequireTxFail(t, result, token.ResultAlreadyInUse)
}

func TestNativeAccount(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	env.Fund(alice, bob)

	src := env.CreateAssociatedTokenAccount(alice, alice.PublicKey(), token.NativeMint)
	dst := env.CreateAssociatedTokenAccount(bob, bob.PublicKey(), token.NativeMint)
	jtx.RequireTokenBalance(t, env, dst, 0)

	acct := env.Account(src)
	a, err := token.UnpackAccount(acct.Data)
	require.NoError(t, err)
	require.NotNil(t, a.IsNative)
	assert.Equal(t, env.Rent().MinimumBalance(token.AccountSize), *a.IsNative)
	assert.Zero(t, a.Amount)
}
