package state

import (
	"bytes"
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/database/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	k[0] = b
	return k
}

func TestStoreRoundTrip(t *testing.T) {
	for _, comp := range []string{"none", "lz4"} {
		t.Run(comp, func(t *testing.T) {
			db := memory.NewDB()
			s, err := New(db, Config{Compression: comp, CacheSize: 2})
			require.NoError(t, err)

			acct := &ledger.Account{
				Lamports: 42,
				Owner:    solana.TokenProgramID,
				Data:     bytes.Repeat([]byte{7}, 165),
			}
			require.NoError(t, s.ApplyBatch([]ledger.Change{
				{Key: newKey(1), Action: ledger.ActionInsert, Account: acct},
			}))

			got, err := s.Read(newKey(1))
			require.NoError(t, err)
			assert.True(t, acct.Equal(got))

			// Bypass the cache
			fresh, err := New(db, Config{Compression: "none"})
			require.NoError(t, err)
			got, err = fresh.Read(newKey(1))
			require.NoError(t, err)
			assert.True(t, acct.Equal(got), "records written with %s must decode under any configured compressor", comp)
		})
	}
}

func TestStoreReadMissing(t *testing.T) {
	s, err := New(memory.NewDB(), Config{})
	require.NoError(t, err)

	got, err := s.Read(newKey(9))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreEraseAndCopies(t *testing.T) {
	s, err := New(memory.NewDB(), Config{})
	require.NoError(t, err)

	require.NoError(t, s.SetAccount(newKey(1), &ledger.Account{Lamports: 10, Data: []byte{1}}))

	got, err := s.Read(newKey(1))
	require.NoError(t, err)
	got.Data[0] = 99
	got.Lamports = 0

	again, err := s.Read(newKey(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), again.Lamports, "reads must return copies")
	assert.Equal(t, byte(1), again.Data[0])

	require.NoError(t, s.ApplyBatch([]ledger.Change{{Key: newKey(1), Action: ledger.ActionErase}}))
	gone, err := s.Read(newKey(1))
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestStoreForEach(t *testing.T) {
	s, err := New(memory.NewDB(), Config{Compression: "lz4"})
	require.NoError(t, err)

	for i := byte(3); i > 0; i-- {
		require.NoError(t, s.SetAccount(newKey(i), &ledger.Account{Lamports: uint64(i)}))
	}

	var seen []uint64
	require.NoError(t, s.ForEach(context.Background(), func(key solana.PublicKey, acct *ledger.Account) bool {
		assert.Equal(t, key[0], byte(acct.Lamports))
		seen = append(seen, acct.Lamports)
		return true
	}))
	assert.Equal(t, []uint64{1, 2, 3}, seen)
}
