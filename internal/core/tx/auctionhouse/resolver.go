package auctionhouse

import (
	"math"
	"math/bits"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// AuctioneerPrice is the price seed of listings made through an auctioneer,
// which are not committed to a price.
const AuctioneerPrice = math.MaxUint64

// verifyAddress fails with DerivedKeyInvalid unless key derives from seeds
// and bump under the program.
func verifyAddress(ctx *tx.ApplyContext, seeds [][]byte, bump uint8, key solana.PublicKey) tx.Result {
	if err := keylet.Verify(ProgramID, seeds, bump, key); err != nil {
		ctx.Logf("%v", err)
		return ResultDerivedKeyInvalid
	}
	return tx.TesSUCCESS
}

// verifyEscrow checks the escrow payment account of wallet.
func verifyEscrow(ctx *tx.ApplyContext, house, wallet, escrow solana.PublicKey, bump uint8) tx.Result {
	return verifyAddress(ctx, keylet.EscrowSeeds(house, wallet), bump, escrow)
}

// Order identifies a standing order by the fields its trade state address
// commits to.
type Order struct {
	Wallet       solana.PublicKey
	House        solana.PublicKey
	TokenAccount solana.PublicKey
	TreasuryMint solana.PublicKey
	TokenMint    solana.PublicKey
	Price        uint64
	Size         uint64
}

// Seeds returns the trade state seeds of an order bound to its token
// account.
func (o Order) Seeds() [][]byte {
	return keylet.TradeStateSeeds(o.Wallet, o.House, o.TokenAccount, o.TreasuryMint, o.TokenMint, o.Price, o.Size)
}

// PublicSeeds returns the trade state seeds of a public bid.
func (o Order) PublicSeeds() [][]byte {
	return keylet.PublicTradeStateSeeds(o.Wallet, o.House, o.TreasuryMint, o.TokenMint, o.Price, o.Size)
}

// loadTradeState reads the marker stored under key.
func loadTradeState(ctx *tx.ApplyContext, key solana.PublicKey) (TradeState, tx.Result) {
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return Closed, r
	}
	if acct == nil {
		return Closed, tx.TesSUCCESS
	}
	if !acct.Owner.Equals(ProgramID) {
		return Closed, ResultIncorrectOwner
	}
	return ParseTradeState(acct.Data), tx.TesSUCCESS
}

// ValidateBuyerTradeState checks that key is the live trade state of the
// buyer's order, bound either to the token account or public. The stored
// bump takes part in the derivation, so a zeroed marker never matches.
func ValidateBuyerTradeState(ctx *tx.ApplyContext, order Order, key solana.PublicKey) tx.Result {
	ts, r := loadTradeState(ctx, key)
	if r != tx.TesSUCCESS {
		return r
	}
	if !ts.Live() {
		ctx.Logf("buyer trade state %s is not live", key)
		return ResultBothPartiesNeedToAgreeToSale
	}
	if keylet.Verify(ProgramID, order.Seeds(), ts.Bump, key) == nil {
		return tx.TesSUCCESS
	}
	if keylet.Verify(ProgramID, order.PublicSeeds(), ts.Bump, key) == nil {
		return tx.TesSUCCESS
	}
	ctx.Logf("buyer trade state %s does not match price %d size %d", key, order.Price, order.Size)
	return ResultBuyerTradeStateNotValid
}

// ValidateSellerTradeState checks that key is the live trade state of the
// seller's listing.
func ValidateSellerTradeState(ctx *tx.ApplyContext, order Order, key solana.PublicKey) tx.Result {
	ts, r := loadTradeState(ctx, key)
	if r != tx.TesSUCCESS {
		return r
	}
	if !ts.Live() {
		ctx.Logf("seller trade state %s is not live", key)
		return ResultBothPartiesNeedToAgreeToSale
	}
	return verifyAddress(ctx, order.Seeds(), ts.Bump, key)
}

// PartialPrice returns the price of size units of a listing of totalSize
// units at totalPrice. The unit price is truncated before multiplying, so
// callers must quote exact multiples of it.
func PartialPrice(totalPrice, totalSize, size uint64) (uint64, bool) {
	if totalSize == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(totalPrice/totalSize, size)
	return lo, hi == 0
}

// CheckPartialPrice fails with PartialPriceMismatch unless price is the
// truncated proportional price of size units.
func CheckPartialPrice(totalPrice, totalSize, size, price uint64) tx.Result {
	expected, ok := PartialPrice(totalPrice, totalSize, size)
	if !ok {
		return ResultNumericalOverflow
	}
	if expected != price {
		return ResultPartialPriceMismatch
	}
	return tx.TesSUCCESS
}
