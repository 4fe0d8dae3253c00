package auctionhouse

import (
	"math"
	"testing"

	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/stretchr/testify/assert"
)

func TestCheckPartialPrice(t *testing.T) {
	tests := []struct {
		name                string
		totalPrice, total   uint64
		partialSize, actual uint64
		want                tx.Result
	}{
		{"half of six", 600_000_000, 6, 3, 300_000_000, tx.TesSUCCESS},
		{"one unit", 600_000_000, 6, 1, 100_000_000, tx.TesSUCCESS},
		{"whole listing", 600_000_000, 6, 6, 600_000_000, tx.TesSUCCESS},
		{"one lamport short", 600_000_000, 6, 3, 299_999_999, ResultPartialPriceMismatch},
		{"one lamport over", 600_000_000, 6, 3, 300_000_001, ResultPartialPriceMismatch},
		{"truncated unit price", 10, 3, 2, 6, tx.TesSUCCESS},
		{"fair price rejected", 10, 3, 2, 7, ResultPartialPriceMismatch},
		{"odd over odd", 1_000_001, 7, 7, 1_000_001, ResultPartialPriceMismatch},
		{"odd over odd truncated", 1_000_001, 7, 7, 1_000_001 / 7 * 7, tx.TesSUCCESS},
		{"price below size", 5, 10, 4, 0, tx.TesSUCCESS},
		{"overflow", math.MaxUint64, 1, 2, 0, ResultNumericalOverflow},
		{"zero size listing", 100, 0, 1, 100, ResultNumericalOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPartialPrice(tt.totalPrice, tt.total, tt.partialSize, tt.actual))
		})
	}
}

func TestPartialPriceTruncatesFirst(t *testing.T) {
	// (10 / 3) * 3 = 9, not 10 * 3 / 3.
	got, ok := PartialPrice(10, 3, 3)
	assert.True(t, ok)
	assert.Equal(t, uint64(9), got)
}

func TestTradeState(t *testing.T) {
	assert.False(t, ParseTradeState(nil).Live())
	assert.False(t, ParseTradeState([]byte{0}).Live())
	assert.True(t, ParseTradeState([]byte{254}).Live())
	assert.Equal(t, []byte{7}, TradeState{Bump: 7}.Bytes())
	assert.Equal(t, Closed, ParseTradeState([]byte{}))
}

func TestOrderSeeds(t *testing.T) {
	o := Order{Price: 1, Size: 2}
	assert.Len(t, o.Seeds(), 8)
	assert.Len(t, o.PublicSeeds(), 7)
}
