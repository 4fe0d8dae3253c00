package testing

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/stretchr/testify/require"
)

// RequireTxSuccess asserts that a transaction result indicates success.
func RequireTxSuccess(t *testing.T, result tx.ApplyResult) {
	t.Helper()
	require.Equal(t, tx.TesSUCCESS, result.Result,
		"Expected tesSUCCESS, got %s: %s", result.Result, FormatLogs(result))
	require.True(t, result.Applied, "Expected writes to be applied")
}

// RequireTxFail asserts that a transaction result indicates failure with a specific code.
func RequireTxFail(t *testing.T, result tx.ApplyResult, expected tx.Result) {
	t.Helper()
	require.False(t, result.Applied,
		"Expected transaction failure with code %s, but transaction succeeded", expected)
	require.Equal(t, expected, result.Result,
		"Expected failure code %s, got %s: %s", expected, result.Result, FormatLogs(result))
}

// RequireBalance asserts that an account holds the expected lamports.
func RequireBalance(t *testing.T, env *TestEnv, key solana.PublicKey, expected uint64) {
	t.Helper()
	actual := env.Balance(key)
	require.Equal(t, expected, actual,
		"Account %s balance mismatch: expected %d lamports, got %d lamports", key, expected, actual)
}

// RequireTokenBalance asserts that a token account holds the expected amount.
func RequireTokenBalance(t *testing.T, env *TestEnv, key solana.PublicKey, expected uint64) {
	t.Helper()
	actual := env.TokenBalance(key)
	require.Equal(t, expected, actual,
		"Token account %s balance mismatch: expected %d, got %d", key, expected, actual)
}

// RequireAccountExists asserts that an account exists.
func RequireAccountExists(t *testing.T, env *TestEnv, key solana.PublicKey) {
	t.Helper()
	require.NotNil(t, env.Account(key), "Expected account %s to exist", key)
}

// RequireAccountNotExists asserts that an account does not exist.
func RequireAccountNotExists(t *testing.T, env *TestEnv, key solana.PublicKey) {
	t.Helper()
	require.Nil(t, env.Account(key), "Expected account %s to not exist", key)
}
