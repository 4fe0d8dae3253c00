package testing

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	alice1 := NewAccount("alice")
	alice2 := NewAccount("alice")

	// Same name should produce same account
	assert.Equal(t, alice1.PublicKey(), alice2.PublicKey())
	assert.Equal(t, alice1.Key, alice2.Key)

	bob := NewAccount("bob")
	assert.NotEqual(t, alice1.PublicKey(), bob.PublicKey())
	assert.Contains(t, alice1.String(), "alice")
}

func TestAmounts(t *testing.T) {
	assert.Equal(t, uint64(2_000_000_000), SOL(2))
	assert.Equal(t, uint64(7), Lamports(7))
}

func TestFundAndTransfer(t *testing.T) {
	env := NewTestEnv(t)
	alice := NewAccount("alice")
	bob := NewAccount("bob")
	env.Fund(alice)

	RequireBalance(t, env, alice.PublicKey(), DefaultFunding)
	RequireAccountNotExists(t, env, bob.PublicKey())

	result := env.Submit(alice, &system.Transfer{
		From:     alice.PublicKey(),
		To:       bob.PublicKey(),
		Lamports: SOL(1),
	})
	RequireTxSuccess(t, result)
	RequireBalance(t, env, bob.PublicKey(), SOL(1))
	RequireBalance(t, env, alice.PublicKey(), DefaultFunding-SOL(1)-env.Fee(1))
}

func TestTransferBelowRentFails(t *testing.T) {
	env := NewTestEnv(t)
	alice := NewAccount("alice")
	env.Fund(alice)

	result := env.Submit(alice, &system.Transfer{
		From:     alice.PublicKey(),
		To:       NewAccount("carol").PublicKey(),
		Lamports: 1,
	})
	RequireTxFail(t, result, tx.TefINSUFFICIENT_FUNDS_FOR_RENT)
	RequireBalance(t, env, alice.PublicKey(), DefaultFunding-env.Fee(1))
}

func TestFixtures(t *testing.T) {
	env := NewTestEnv(t)
	alice := NewAccount("alice")
	env.Fund(alice)

	asset := env.CreateAsset(alice, 6, DefaultData(alice.PublicKey()))

	mint := env.Mint(asset.Mint)
	require.NotNil(t, mint)
	assert.Equal(t, uint64(6), mint.Supply)
	RequireTokenBalance(t, env, asset.TokenAccount, 6)

	md := env.Metadata(asset.Mint)
	require.NotNil(t, md)
	assert.Equal(t, "Test Asset", md.Data.Name)
	assert.Equal(t, asset.Mint, md.Mint)
	assert.False(t, md.Data.Creators[0].Verified)

	dave := NewAccount("dave")
	other := env.CreateTokenAccount(alice, dave.PublicKey(), asset.Mint)
	RequireTokenBalance(t, env, other, 0)
	held := env.TokenAccount(other)
	require.NotNil(t, held)
	assert.Equal(t, dave.PublicKey(), held.Owner)
	assert.Equal(t, asset.Mint, held.Mint)
}

func TestCreateTokenAccountRequiresOwner(t *testing.T) {
	env := NewTestEnv(t)
	alice := NewAccount("alice")
	env.Fund(alice)
	mint := env.CreateMint(alice, alice.PublicKey(), 0)

	account := env.NewKeypair("token-account")
	result := env.SubmitSigned([]*Account{alice, account},
		env.CreateAccountIx(alice.PublicKey(), account.PublicKey(), token.AccountSize, solana.TokenProgramID),
		&token.InitializeAccount{Account: account.PublicKey(), Mint: mint, Owner: solana.PublicKey{}},
	)
	RequireTxFail(t, result, tx.TemINVALID_INSTRUCTION_DATA)
}
