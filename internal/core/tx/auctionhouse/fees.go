package auctionhouse

import (
	"math/bits"

	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
)

// MaxBasisPoints is 100%.
const MaxBasisPoints = 10000

// Royalty is one creator's cut of a sale.
type Royalty struct {
	Creator solana.PublicKey
	Amount  uint64
}

// Split apportions a gross sale price. Royalties, HouseFee and Seller
// always add up to the gross price.
type Split struct {
	Royalties []Royalty
	HouseFee  uint64
	Seller    uint64
}

// TotalRoyalties sums the creator payments.
func (s Split) TotalRoyalties() uint64 {
	var total uint64
	for _, r := range s.Royalties {
		total += r.Amount
	}
	return total
}

// mulDiv returns a*b/d computed in 128 bits, and false when the quotient
// does not fit in 64 bits.
func mulDiv(a, b, d uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, true
}

// Apportion splits price between the creators of an asset with the given
// royalty rate, the house and the seller. Each creator receives its share
// of the total royalty; division dust stays with the seller.
func Apportion(price uint64, royaltyBasisPoints uint16, creators []tokenmetadata.Creator, houseBasisPoints uint16) (Split, bool) {
	if royaltyBasisPoints > MaxBasisPoints || houseBasisPoints > MaxBasisPoints {
		return Split{}, false
	}
	royalty, ok := mulDiv(price, uint64(royaltyBasisPoints), MaxBasisPoints)
	if !ok {
		return Split{}, false
	}

	split := Split{Royalties: make([]Royalty, 0, len(creators))}
	var paid uint64
	for _, c := range creators {
		amount, ok := mulDiv(royalty, uint64(c.Share), 100)
		if !ok {
			return Split{}, false
		}
		split.Royalties = append(split.Royalties, Royalty{Creator: c.Address, Amount: amount})
		paid += amount
	}
	if paid > royalty {
		return Split{}, false
	}

	if split.HouseFee, ok = mulDiv(price, uint64(houseBasisPoints), MaxBasisPoints); !ok {
		return Split{}, false
	}
	if paid+split.HouseFee < paid || paid+split.HouseFee > price {
		return Split{}, false
	}
	split.Seller = price - paid - split.HouseFee
	return split, true
}

// purse moves settlement currency out of a buyer's escrow. Native escrows
// are system accounts that sign for themselves; token escrows are owned by
// the house, which signs for them.
type purse struct {
	house       *AuctionHouse
	houseKey    solana.PublicKey
	escrow      solana.PublicKey
	escrowSeeds [][]byte
	payer       payer
}

// pay transfers amount to a wallet for native houses, or to a token
// account for token houses. Zero amounts are skipped.
func (p *purse) pay(ctx *tx.ApplyContext, to solana.PublicKey, amount uint64) tx.Result {
	if amount == 0 {
		return tx.TesSUCCESS
	}
	if p.house.IsNative() {
		return system.InvokeTransfer(ctx, p.escrow, to, amount, p.escrowSeeds)
	}
	return token.InvokeTransfer(ctx, p.escrow, to, p.houseKey, amount, houseSignerSeeds(p.house))
}

// payCreators pays every royalty. Token royalties go to the creator's
// associated token account, created on demand.
func (p *purse) payCreators(ctx *tx.ApplyContext, royalties []Royalty) tx.Result {
	for _, royalty := range royalties {
		if royalty.Amount == 0 {
			continue
		}
		dest := royalty.Creator
		if !p.house.IsNative() {
			ata, r := token.InvokeCreateAssociatedAccount(ctx, p.payer.Key, royalty.Creator, p.house.TreasuryMint, p.payer.signers()...)
			if r != tx.TesSUCCESS {
				return r
			}
			dest = ata
		}
		if r := p.pay(ctx, dest, royalty.Amount); r != tx.TesSUCCESS {
			ctx.Logf("royalty to %s failed: %s", royalty.Creator, r)
			return r
		}
	}
	return tx.TesSUCCESS
}

// payHouseFee pays the house fee into the treasury.
func (p *purse) payHouseFee(ctx *tx.ApplyContext, fee uint64) tx.Result {
	return p.pay(ctx, p.house.AuctionHouseTreasury, fee)
}
