package ledger

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestAccountClone(t *testing.T) {
	owner := solana.SystemProgramID
	a := NewAccount(42, 3, owner)
	a.Data[0] = 7

	c := a.Clone()
	require.True(t, a.Equal(c))

	c.Data[0] = 9
	require.Equal(t, byte(7), a.Data[0])
	require.False(t, a.Equal(c))
}

func TestAccountEmptyAndClosed(t *testing.T) {
	var missing *Account
	require.True(t, missing.DataIsEmpty())
	require.True(t, missing.IsClosed())

	a := &Account{Lamports: 1}
	require.True(t, a.DataIsEmpty())
	require.False(t, a.IsClosed())

	a.Data = []byte{1}
	a.Lamports = 0
	require.False(t, a.DataIsEmpty())
	require.True(t, a.IsClosed())
}
