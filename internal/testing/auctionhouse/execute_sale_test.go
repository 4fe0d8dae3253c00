package auctionhouse_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	ahtx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/auctionhouse"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
	jtx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/testing"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/testing/auctionhouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTokenMarket is a market settling in a 6-decimal token. The buyer holds
// one billion base units of it.
func newTokenMarket(t *testing.T, data func(seller solana.PublicKey) tokenmetadata.Data) *market {
	t.Helper()
	env := jtx.NewTestEnv(t)
	m := &market{
		env:       env,
		authority: jtx.NewAccount("authority"),
		seller:    jtx.NewAccount("seller"),
		buyer:     jtx.NewAccount("buyer"),
	}
	issuer := jtx.NewAccount("issuer")
	env.Fund(m.authority, m.seller, m.buyer, issuer)

	mint := env.CreateMint(issuer, issuer.PublicKey(), 6)
	m.house = auctionhouse.Setup(env, auctionhouse.CreateHouse(m.authority).TreasuryMint(mint).SellerFeeBasisPoints(500))
	wallet := env.CreateAssociatedTokenAccount(m.buyer, m.buyer.PublicKey(), mint)
	env.MintTo(issuer, mint, wallet, 1_000_000_000)

	m.data = data(m.seller.PublicKey())
	m.asset = env.CreateAsset(m.seller, 6, m.data, m.seller)
	return m
}

// withCreators returns metadata paying a royalty to creators with the
// given shares.
func withCreators(bps uint16, creators ...tokenmetadata.Creator) func(solana.PublicKey) tokenmetadata.Data {
	return func(seller solana.PublicKey) tokenmetadata.Data {
		data := jtx.DefaultData(seller)
		data.SellerFeeBasisPoints = bps
		data.Creators = creators
		return data
	}
}

// ===== Literal scenario =====

func TestExecuteSale_PartialFills(t *testing.T) {
	m := newMarket(t, nil, 6, royaltyFree)
	env, h := m.env, m.house
	seller := m.seller.PublicKey()
	buyerReceipt := keylet.AssociatedToken(m.buyer.PublicKey(), m.asset.Mint).Key
	rentTradeState := env.Rent().MinimumBalance(ahtx.TradeStateSize)

	l := m.list(t, 600_000_000, 6)

	// First fill: 3 of 6 units for 300,000,000.
	b := m.bid(t, 300_000_000, 3)
	sellerBefore := env.Balance(seller)
	treasuryBefore := env.Balance(h.Treasury)
	feeBefore := env.Balance(h.FeeAccount)

	jtx.RequireTxSuccess(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)))

	jtx.RequireBalance(t, env, seller, sellerBefore+285_000_000)
	jtx.RequireBalance(t, env, h.Treasury, treasuryBefore+15_000_000)
	jtx.RequireBalance(t, env, h.Escrow(m.buyer).Key, env.Rent().MinimumBalance(0))
	jtx.RequireBalance(t, env, h.FeeAccount, feeBefore-env.Rent().MinimumBalance(token.AccountSize))
	jtx.RequireTokenBalance(t, env, buyerReceipt, 3)
	jtx.RequireTokenBalance(t, env, m.asset.TokenAccount, 3)

	// The seller still holds tokens, so both orders stay open.
	jtx.RequireAccountExists(t, env, l.TradeState().Key)
	jtx.RequireAccountExists(t, env, b.TradeState().Key)
	holding := env.TokenAccount(m.asset.TokenAccount)
	require.NotNil(t, holding.Delegate)
	assert.Equal(t, uint64(3), holding.DelegatedAmount)

	// Second fill takes the rest and closes everything.
	b = m.bid(t, 300_000_000, 3)
	sellerBefore = env.Balance(seller)
	feeBefore = env.Balance(h.FeeAccount)

	jtx.RequireTxSuccess(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)))

	jtx.RequireBalance(t, env, seller, sellerBefore+285_000_000)
	jtx.RequireBalance(t, env, h.Treasury, treasuryBefore+30_000_000)
	jtx.RequireTokenBalance(t, env, buyerReceipt, 6)
	jtx.RequireTokenBalance(t, env, m.asset.TokenAccount, 0)
	jtx.RequireAccountNotExists(t, env, l.TradeState().Key)
	jtx.RequireAccountNotExists(t, env, b.TradeState().Key)
	jtx.RequireAccountNotExists(t, env, l.FreeTradeState().Key)
	jtx.RequireBalance(t, env, h.FeeAccount, feeBefore+2*rentTradeState)
	assert.Nil(t, env.TokenAccount(m.asset.TokenAccount).Delegate)
}

func TestExecuteSale_PartialFillsInToken(t *testing.T) {
	m := newTokenMarket(t, royaltyFree)
	env, h := m.env, m.house
	sellerReceipt := keylet.AssociatedToken(m.seller.PublicKey(), h.TreasuryMint).Key
	buyerWallet := h.PaymentAccount(m.buyer)

	l := m.list(t, 600_000_000, 6)
	b := m.bid(t, 300_000_000, 3)
	jtx.RequireTokenBalance(t, env, h.Escrow(m.buyer).Key, 300_000_000)
	jtx.RequireTokenBalance(t, env, buyerWallet, 700_000_000)

	jtx.RequireTxSuccess(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)))
	jtx.RequireTokenBalance(t, env, sellerReceipt, 285_000_000)
	jtx.RequireTokenBalance(t, env, h.Treasury, 15_000_000)
	jtx.RequireTokenBalance(t, env, h.Escrow(m.buyer).Key, 0)
	jtx.RequireAccountExists(t, env, l.TradeState().Key)

	b = m.bid(t, 300_000_000, 3)
	jtx.RequireTxSuccess(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)))
	jtx.RequireTokenBalance(t, env, sellerReceipt, 570_000_000)
	jtx.RequireTokenBalance(t, env, h.Treasury, 30_000_000)
	jtx.RequireTokenBalance(t, env, buyerWallet, 400_000_000)
	jtx.RequireTokenBalance(t, env, m.asset.TokenAccount, 0)
	jtx.RequireAccountNotExists(t, env, l.TradeState().Key)
	jtx.RequireAccountNotExists(t, env, b.TradeState().Key)
}

// ===== Trade state liveness =====

func TestExecuteSale_Liveness(t *testing.T) {
	t.Run("no bid", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(1), 1)
		b := auctionhouse.Offer(m.house, m.buyer, m.asset, jtx.SOL(1), 1)
		m.env.MustSubmit([]*jtx.Account{m.buyer}, auctionhouse.Deposit(m.house, m.buyer, jtx.SOL(1)))
		jtx.RequireTxFail(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)), ahtx.ResultBothPartiesNeedToAgreeToSale)
	})

	t.Run("cancelled listing", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(1), 1)
		b := m.bid(t, jtx.SOL(1), 1)
		m.env.MustSubmit([]*jtx.Account{m.seller}, l.Cancel())
		m.env.MustSubmit([]*jtx.Account{m.seller}, &token.Approve{
			Source:   m.asset.TokenAccount,
			Delegate: keylet.ProgramAsSigner().Key,
			Owner:    m.seller.PublicKey(),
			Amount:   1,
		})
		jtx.RequireTxFail(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)), ahtx.ResultBothPartiesNeedToAgreeToSale)
	})

	t.Run("replay after a full sale", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(1), 1)
		b := m.bid(t, jtx.SOL(1), 1)
		sale := auctionhouse.Sale(l, b, m.creators()...)
		jtx.RequireTxSuccess(t, m.settle(sale))

		// The seller gets another unit and re-delegates it, but neither
		// order survives the first settlement.
		m.env.MintTo(m.seller, m.asset.Mint, m.asset.TokenAccount, 1)
		m.env.MustSubmit([]*jtx.Account{m.seller}, &token.Approve{
			Source:   m.asset.TokenAccount,
			Delegate: keylet.ProgramAsSigner().Key,
			Owner:    m.seller.PublicKey(),
			Amount:   1,
		})
		m.env.MustSubmit([]*jtx.Account{m.buyer}, auctionhouse.Deposit(m.house, m.buyer, jtx.SOL(1)))

		jtx.RequireTxFail(t, m.settle(sale), ahtx.ResultBothPartiesNeedToAgreeToSale)
		jtx.RequireTokenBalance(t, m.env, m.asset.TokenAccount, 1)
	})

	t.Run("token account not delegated to the program", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(1), 1)
		b := m.bid(t, jtx.SOL(1), 1)
		m.env.MustSubmit([]*jtx.Account{m.seller}, &token.Revoke{
			Source:    m.asset.TokenAccount,
			Authority: m.seller.PublicKey(),
		})
		jtx.RequireTxFail(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)), ahtx.ResultPublicKeyMismatch)
	})
}

// ===== Partial fill pricing =====

func TestExecuteSale_PartialPrice(t *testing.T) {
	m := newMarket(t, nil, 6, royaltyFree)
	l := m.list(t, 600_000_000, 6)
	b := m.bid(t, 300_000_000, 3)
	bidState := b.TradeState().Key

	tests := []struct {
		name string
		sale *auctionhouse.SaleBuilder
		want tx.Result
	}{
		{
			name: "one lamport short",
			sale: auctionhouse.Sale(l, b, m.creators()...).Partial(3, 299_999_999).BuyerTradeState(bidState),
			want: ahtx.ResultPartialPriceMismatch,
		},
		{
			name: "one lamport over",
			sale: auctionhouse.Sale(l, b, m.creators()...).Partial(3, 300_000_001).BuyerTradeState(bidState),
			want: ahtx.ResultPartialPriceMismatch,
		},
		{
			name: "size without price",
			sale: auctionhouse.Sale(l, b, m.creators()...).PartialSizeOnly(3).BuyerTradeState(bidState),
			want: ahtx.ResultMissingElementForPartialOrder,
		},
		{
			name: "more than listed",
			sale: auctionhouse.Sale(l, b, m.creators()...).Partial(7, 700_000_000).BuyerTradeState(bidState),
			want: ahtx.ResultInvalidTokenAmount,
		},
		{
			name: "terms differ from the bid",
			sale: auctionhouse.Sale(l, b, m.creators()...).Partial(2, 200_000_000).BuyerTradeState(bidState),
			want: ahtx.ResultBuyerTradeStateNotValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jtx.RequireTxFail(t, m.settle(tt.sale), tt.want)
			jtx.RequireTokenBalance(t, m.env, m.asset.TokenAccount, 6)
		})
	}
}

func TestExecuteSale_TruncatedUnitPrice(t *testing.T) {
	m := newMarket(t, nil, 3, royaltyFree)
	l := m.list(t, 1_000_000_001, 3)

	// The proportional price of 2 units rounds to 666,666,667, but only
	// the truncated unit price times 2 is accepted.
	fair := m.bid(t, 666_666_667, 2)
	jtx.RequireTxFail(t, m.settle(auctionhouse.Sale(l, fair, m.creators()...)), ahtx.ResultPartialPriceMismatch)

	exact := m.bid(t, 666_666_666, 2)
	jtx.RequireTxSuccess(t, m.settle(auctionhouse.Sale(l, exact, m.creators()...)))
	jtx.RequireTokenBalance(t, m.env, m.asset.TokenAccount, 1)
}

// ===== Fee conservation =====

func TestExecuteSale_FeeConservation(t *testing.T) {
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	royalties := withCreators(1000,
		tokenmetadata.Creator{Address: alice.PublicKey(), Share: 60},
		tokenmetadata.Creator{Address: bob.PublicKey(), Share: 40},
	)

	t.Run("native", func(t *testing.T) {
		m := newMarket(t, nil, 1, royalties)
		m.env.Fund(alice, bob)
		price := jtx.SOL(10) + 7
		l := m.list(t, price, 1)
		b := m.bid(t, price, 1)

		keys := []solana.PublicKey{alice.PublicKey(), bob.PublicKey(), m.house.Treasury, m.seller.PublicKey()}
		before := make([]uint64, len(keys))
		for i, k := range keys {
			before[i] = m.env.Balance(k)
		}
		jtx.RequireTxSuccess(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)))

		var total uint64
		for i, k := range keys {
			total += m.env.Balance(k) - before[i]
		}
		assert.Equal(t, price, total)
		assert.Equal(t, uint64(600_000_000), m.env.Balance(alice.PublicKey())-before[0])
		assert.Equal(t, uint64(400_000_000), m.env.Balance(bob.PublicKey())-before[1])
		assert.Equal(t, uint64(500_000_000), m.env.Balance(m.house.Treasury)-before[2])
		jtx.RequireBalance(t, m.env, m.house.Escrow(m.buyer).Key, m.env.Rent().MinimumBalance(0))
	})

	t.Run("token", func(t *testing.T) {
		m := newTokenMarket(t, royalties)
		price := uint64(1_000_003)
		l := m.list(t, price, 6)
		b := m.bid(t, price, 6)
		jtx.RequireTxSuccess(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)))

		mint := m.house.TreasuryMint
		aliceGot := m.env.TokenBalance(keylet.AssociatedToken(alice.PublicKey(), mint).Key)
		bobGot := m.env.TokenBalance(keylet.AssociatedToken(bob.PublicKey(), mint).Key)
		houseGot := m.env.TokenBalance(m.house.Treasury)
		sellerGot := m.env.TokenBalance(keylet.AssociatedToken(m.seller.PublicKey(), mint).Key)

		assert.Equal(t, uint64(60_000), aliceGot)
		assert.Equal(t, uint64(40_000), bobGot)
		assert.Equal(t, uint64(50_000), houseGot)
		assert.Equal(t, price, aliceGot+bobGot+houseGot+sellerGot)
		jtx.RequireTokenBalance(t, m.env, m.house.Escrow(m.buyer).Key, 0)
	})

	t.Run("creator accounts out of order", func(t *testing.T) {
		m := newMarket(t, nil, 1, royalties)
		m.env.Fund(alice, bob)
		l := m.list(t, jtx.SOL(1), 1)
		b := m.bid(t, jtx.SOL(1), 1)
		sale := auctionhouse.Sale(l, b, bob.PublicKey(), alice.PublicKey())
		jtx.RequireTxFail(t, m.settle(sale), ahtx.ResultPublicKeyMismatch)
	})
}

// ===== Seller holdings and metadata =====

func TestExecuteSale_SellerHoldings(t *testing.T) {
	t.Run("partial fill above the delegated amount", func(t *testing.T) {
		m := newMarket(t, nil, 6, royaltyFree)
		l := m.list(t, 600_000_000, 6)
		m.env.MustSubmit([]*jtx.Account{m.seller}, &token.Approve{
			Source:   m.asset.TokenAccount,
			Delegate: keylet.ProgramAsSigner().Key,
			Owner:    m.seller.PublicKey(),
			Amount:   2,
		})
		b := m.bid(t, 300_000_000, 3)

		jtx.RequireTxFail(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)), ahtx.ResultNotEnoughTokensAvailable)
		jtx.RequireTokenBalance(t, m.env, m.asset.TokenAccount, 6)
		jtx.RequireAccountExists(t, m.env, l.TradeState().Key)
		jtx.RequireAccountExists(t, m.env, b.TradeState().Key)
	})

	t.Run("size above the token balance", func(t *testing.T) {
		m := newMarket(t, nil, 6, royaltyFree)
		l := m.list(t, 600_000_000, 6)
		elsewhere := m.env.CreateTokenAccount(m.seller, m.seller.PublicKey(), m.asset.Mint)
		m.env.MustSubmit([]*jtx.Account{m.seller}, &token.Transfer{
			Source:      m.asset.TokenAccount,
			Destination: elsewhere,
			Authority:   m.seller.PublicKey(),
			Amount:      2,
		})
		b := m.bid(t, 600_000_000, 6)

		jtx.RequireTxFail(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)), ahtx.ResultNotEnoughTokensAvailable)
		jtx.RequireTokenBalance(t, m.env, m.asset.TokenAccount, 4)
		jtx.RequireAccountExists(t, m.env, b.TradeState().Key)
	})
}

func TestExecuteSale_Metadata(t *testing.T) {
	t.Run("derived from another mint", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		other := m.env.CreateAsset(m.seller, 1, m.data, m.seller)
		l := m.list(t, jtx.SOL(1), 1)
		b := m.bid(t, jtx.SOL(1), 1)

		sale := auctionhouse.Sale(l, b, m.creators()...).Metadata(other.Metadata)
		jtx.RequireTxFail(t, m.settle(sale), ahtx.ResultDerivedKeyInvalid)
		jtx.RequireTokenBalance(t, m.env, m.asset.TokenAccount, 1)
	})

	t.Run("missing account", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(1), 1)
		b := m.bid(t, jtx.SOL(1), 1)
		m.env.SetAccount(m.asset.Metadata, nil)

		jtx.RequireTxFail(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)), ahtx.ResultMetadataDoesntExist)
		jtx.RequireTokenBalance(t, m.env, m.asset.TokenAccount, 1)
		jtx.RequireAccountExists(t, m.env, l.TradeState().Key)
	})
}

// ===== Receipt delegates =====

func TestExecuteSale_ReceiptDelegates(t *testing.T) {
	thief := jtx.NewAccount("thief")

	t.Run("seller receipt", func(t *testing.T) {
		m := newTokenMarket(t, royaltyFree)
		l := m.list(t, 1_000, 6)
		b := m.bid(t, 1_000, 6)

		receipt := m.env.CreateAssociatedTokenAccount(m.seller, m.seller.PublicKey(), m.house.TreasuryMint)
		m.env.MustSubmit([]*jtx.Account{m.seller}, &token.Approve{
			Source:   receipt,
			Delegate: thief.PublicKey(),
			Owner:    m.seller.PublicKey(),
			Amount:   1_000,
		})

		jtx.RequireTxFail(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)), ahtx.ResultSellerATACannotHaveDelegate)
		jtx.RequireTokenBalance(t, m.env, m.house.Escrow(m.buyer).Key, 1_000)
		jtx.RequireTokenBalance(t, m.env, receipt, 0)
	})

	t.Run("buyer receipt", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(1), 1)
		b := m.bid(t, jtx.SOL(1), 1)

		receipt := m.env.CreateAssociatedTokenAccount(m.buyer, m.buyer.PublicKey(), m.asset.Mint)
		m.env.MustSubmit([]*jtx.Account{m.buyer}, &token.Approve{
			Source:   receipt,
			Delegate: thief.PublicKey(),
			Owner:    m.buyer.PublicKey(),
			Amount:   1,
		})

		sellerBefore := m.env.Balance(m.seller.PublicKey())
		jtx.RequireTxFail(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)), ahtx.ResultBuyerATACannotHaveDelegate)
		jtx.RequireBalance(t, m.env, m.seller.PublicKey(), sellerBefore)
		jtx.RequireTokenBalance(t, m.env, m.asset.TokenAccount, 1)
	})

	t.Run("checked before royalties", func(t *testing.T) {
		alice := jtx.NewAccount("alice")
		m := newTokenMarket(t, withCreators(1000, tokenmetadata.Creator{Address: alice.PublicKey(), Share: 100}))
		l := m.list(t, 1_000, 6)
		b := m.bid(t, 1_000, 6)

		receipt := m.env.CreateAssociatedTokenAccount(m.buyer, m.buyer.PublicKey(), m.asset.Mint)
		m.env.MustSubmit([]*jtx.Account{m.buyer}, &token.Approve{
			Source:   receipt,
			Delegate: thief.PublicKey(),
			Owner:    m.buyer.PublicKey(),
			Amount:   6,
		})
		// An empty fee account cannot fund alice's royalty account.
		m.env.SetAccount(m.house.FeeAccount, nil)
		aliceATA := keylet.AssociatedToken(alice.PublicKey(), m.house.TreasuryMint).Key

		jtx.RequireTxFail(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)), ahtx.ResultBuyerATACannotHaveDelegate)
		jtx.RequireAccountNotExists(t, m.env, aliceATA)
		jtx.RequireTokenBalance(t, m.env, m.house.Escrow(m.buyer).Key, 1_000)
		jtx.RequireTokenBalance(t, m.env, m.house.Treasury, 0)

		m.env.MustSubmit([]*jtx.Account{m.buyer}, &token.Revoke{Source: receipt, Authority: m.buyer.PublicKey()})
		jtx.RequireTxFail(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)), system.ResultInsufficientFunds)
		jtx.RequireAccountNotExists(t, m.env, aliceATA)
	})

	t.Run("native proceeds go to the seller", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(1), 1)
		b := m.bid(t, jtx.SOL(1), 1)
		sale := auctionhouse.Sale(l, b, m.creators()...).SellerReceipt(thief.PublicKey())
		jtx.RequireTxFail(t, m.settle(sale), ahtx.ResultExpectedSolAccount)
	})
}

// ===== Teardown and sign-off =====

func TestExecuteSale_FreeSale(t *testing.T) {
	t.Run("needs the authority or the seller", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, 0, 1)
		b := m.bid(t, 0, 1)
		result := m.env.SubmitSigned([]*jtx.Account{m.buyer}, auctionhouse.Sale(l, b, m.creators()...).Build())
		jtx.RequireTxFail(t, result, ahtx.ResultCannotMatchFreeSalesWithoutSignoff)
	})

	t.Run("closes every trade state", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, 0, 1)
		b := m.bid(t, 0, 1)
		jtx.RequireAccountExists(t, m.env, l.FreeTradeState().Key)
		feeBefore := m.env.Balance(m.house.FeeAccount)

		jtx.RequireTxSuccess(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)))
		jtx.RequireAccountNotExists(t, m.env, l.TradeState().Key)
		jtx.RequireAccountNotExists(t, m.env, l.FreeTradeState().Key)
		jtx.RequireAccountNotExists(t, m.env, b.TradeState().Key)
		jtx.RequireTokenBalance(t, m.env, keylet.AssociatedToken(m.buyer.PublicKey(), m.asset.Mint).Key, 1)

		reclaimed := 2 * m.env.Rent().MinimumBalance(ahtx.TradeStateSize)
		jtx.RequireBalance(t, m.env, m.house.FeeAccount, feeBefore+reclaimed-m.env.Rent().MinimumBalance(token.AccountSize))
	})
}

func TestExecuteSale_Payer(t *testing.T) {
	t.Run("seller pays without the authority", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(1), 1)
		b := m.bid(t, jtx.SOL(1), 1)
		feeBefore := m.env.Balance(m.house.FeeAccount)

		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.seller}, auctionhouse.Sale(l, b, m.creators()...).Build()))
		jtx.RequireBalance(t, m.env, m.house.FeeAccount, feeBefore)
	})

	t.Run("sign-off house", func(t *testing.T) {
		m := newMarket(t, auctionhouse.CreateHouse(jtx.NewAccount("authority")).RequiresSignOff(), 1, royaltyFree)
		l := auctionhouse.List(m.house, m.seller, m.asset, jtx.SOL(1), 1)
		m.env.MustSubmit([]*jtx.Account{m.seller, m.authority}, l.Build())
		b := auctionhouse.Offer(m.house, m.buyer, m.asset, jtx.SOL(1), 1)
		m.env.MustSubmit([]*jtx.Account{m.buyer, m.authority}, b.Build())

		sale := auctionhouse.Sale(l, b, m.creators()...).Build()
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.seller}, sale), ahtx.ResultCannotTakeThisActionWithoutSignOff)
		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.authority}, sale))
	})

	t.Run("nobody signs", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(1), 1)
		b := m.bid(t, jtx.SOL(1), 1)
		stranger := jtx.NewAccount("stranger")
		m.env.Fund(stranger)
		result := m.env.SubmitSigned([]*jtx.Account{stranger}, auctionhouse.Sale(l, b, m.creators()...).Build())
		jtx.RequireTxFail(t, result, ahtx.ResultNoPayerPresent)
	})
}

// ===== Auctioneer =====

func TestAuctioneer(t *testing.T) {
	auctioneer := jtx.NewAccount("auctioneer")

	t.Run("delegation", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		m.env.Fund(auctioneer)
		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.authority},
			auctionhouse.DelegateAuctioneer(m.house, auctioneer, ahtx.ScopeSell, ahtx.ScopeExecuteSale)))

		house, err := ahtx.ReadHouse(m.env.Store(), m.house.Key)
		require.NoError(t, err)
		record := keylet.Auctioneer(m.house.Key, auctioneer.PublicKey()).Key
		assert.True(t, house.HasAuctioneer)
		assert.Equal(t, record, house.AuctioneerAddress)
		assert.True(t, house.HasScope(ahtx.ScopeSell))
		assert.True(t, house.HasScope(ahtx.ScopeExecuteSale))
		assert.False(t, house.HasScope(ahtx.ScopeCancel))
		jtx.RequireAccountExists(t, m.env, record)

		again := auctionhouse.DelegateAuctioneer(m.house, auctioneer, ahtx.ScopeSell)
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.authority}, again), ahtx.ResultAuctionHouseAlreadyDelegated)
	})

	t.Run("too many scopes", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		scopes := make([]ahtx.AuthorityScope, ahtx.MaxScopes+1)
		ix := auctionhouse.DelegateAuctioneer(m.house, auctioneer, scopes...)
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.authority}, ix), ahtx.ResultTooManyScopes)
	})

	t.Run("not delegated", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		m.env.Fund(auctioneer)
		l := auctionhouse.List(m.house, m.seller, m.asset, jtx.SOL(1), 1).Auctioneer(auctioneer)
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.seller, auctioneer}, l.Build()), ahtx.ResultNoAuctioneerProgramSet)
	})

	t.Run("sale", func(t *testing.T) {
		m := newMarket(t, nil, 2, royaltyFree)
		m.env.Fund(auctioneer)
		m.env.MustSubmit([]*jtx.Account{m.authority},
			auctionhouse.DelegateAuctioneer(m.house, auctioneer, ahtx.ScopeSell, ahtx.ScopeExecuteSale))

		l := auctionhouse.List(m.house, m.seller, m.asset, jtx.SOL(2), 2).Auctioneer(auctioneer)
		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.seller, auctioneer}, l.Build()))
		assert.Equal(t, keylet.TradeState(m.seller.PublicKey(), m.house.Key, m.asset.TokenAccount, solana.SolMint, m.asset.Mint, ahtx.AuctioneerPrice, 2).Key, l.TradeState().Key)
		jtx.RequireAccountExists(t, m.env, l.TradeState().Key)
		jtx.RequireAccountExists(t, m.env, l.FreeTradeState().Key)

		b := m.bid(t, jtx.SOL(2), 2)
		sale := auctionhouse.Sale(l, b, m.creators()...).Build().(*ahtx.AuctioneerExecuteSale)

		direct := sale.ExecuteSale
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.authority}, &direct), ahtx.ResultMustUseAuctioneerHandler)
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.authority}, sale), tx.TefMISSING_REQUIRED_SIGNATURE)

		sellerBefore := m.env.Balance(m.seller.PublicKey())
		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.authority, auctioneer}, sale))
		jtx.RequireBalance(t, m.env, m.seller.PublicKey(), sellerBefore+jtx.SOL(2)-jtx.SOL(2)*500/10000)
		jtx.RequireAccountNotExists(t, m.env, l.TradeState().Key)
		jtx.RequireAccountNotExists(t, m.env, l.FreeTradeState().Key)
		jtx.RequireAccountNotExists(t, m.env, b.TradeState().Key)
	})

	t.Run("missing execute scope", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		m.env.Fund(auctioneer)
		m.env.MustSubmit([]*jtx.Account{m.authority}, auctionhouse.DelegateAuctioneer(m.house, auctioneer, ahtx.ScopeSell))

		l := auctionhouse.List(m.house, m.seller, m.asset, jtx.SOL(1), 1).Auctioneer(auctioneer)
		m.env.MustSubmit([]*jtx.Account{m.seller, auctioneer}, l.Build())
		b := m.bid(t, jtx.SOL(1), 1)

		result := m.env.SubmitSigned([]*jtx.Account{m.authority, auctioneer}, auctionhouse.Sale(l, b, m.creators()...).Build())
		jtx.RequireTxFail(t, result, ahtx.ResultMissingAuctioneerScope)
	})

	t.Run("cancel auctioneer listing", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		m.env.Fund(auctioneer)
		m.env.MustSubmit([]*jtx.Account{m.authority}, auctionhouse.DelegateAuctioneer(m.house, auctioneer, ahtx.ScopeSell))
		l := auctionhouse.List(m.house, m.seller, m.asset, jtx.SOL(1), 1).Auctioneer(auctioneer)
		m.env.MustSubmit([]*jtx.Account{m.seller, auctioneer}, l.Build())

		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.seller}, l.Cancel()))
		jtx.RequireAccountNotExists(t, m.env, l.TradeState().Key)
	})
}
