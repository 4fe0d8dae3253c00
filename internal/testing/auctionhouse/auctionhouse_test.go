package auctionhouse_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	ahtx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/auctionhouse"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
	jtx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/testing"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/testing/auctionhouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// market is a funded house with a seller holding an asset and a buyer.
type market struct {
	env       *jtx.TestEnv
	authority *jtx.Account
	seller    *jtx.Account
	buyer     *jtx.Account
	house     auctionhouse.House
	asset     jtx.Asset
	data      tokenmetadata.Data
}

func (m *market) creators() []solana.PublicKey {
	keys := make([]solana.PublicKey, len(m.data.Creators))
	for i, c := range m.data.Creators {
		keys[i] = c.Address
	}
	return keys
}

// royaltyFree returns metadata crediting seller with no royalty.
func royaltyFree(seller solana.PublicKey) tokenmetadata.Data {
	data := jtx.DefaultData(seller)
	data.SellerFeeBasisPoints = 0
	return data
}

func newMarket(t *testing.T, house *auctionhouse.CreateHouseBuilder, supply uint64, data func(seller solana.PublicKey) tokenmetadata.Data) *market {
	t.Helper()
	env := jtx.NewTestEnv(t)
	m := &market{
		env:       env,
		authority: jtx.NewAccount("authority"),
		seller:    jtx.NewAccount("seller"),
		buyer:     jtx.NewAccount("buyer"),
	}
	env.Fund(m.authority, m.seller, m.buyer)
	if house == nil {
		house = auctionhouse.CreateHouse(m.authority).SellerFeeBasisPoints(500)
	}
	m.house = auctionhouse.Setup(env, house)
	m.data = data(m.seller.PublicKey())
	m.asset = env.CreateAsset(m.seller, supply, m.data, m.seller)
	return m
}

func (m *market) list(t *testing.T, price, size uint64) *auctionhouse.Listing {
	t.Helper()
	l := auctionhouse.List(m.house, m.seller, m.asset, price, size)
	m.env.MustSubmit([]*jtx.Account{m.seller}, l.Build())
	return l
}

func (m *market) bid(t *testing.T, price, size uint64) *auctionhouse.Bid {
	t.Helper()
	b := auctionhouse.Offer(m.house, m.buyer, m.asset, price, size)
	m.env.MustSubmit([]*jtx.Account{m.buyer}, b.Build())
	return b
}

// settle executes the sale with the house authority paying.
func (m *market) settle(sale *auctionhouse.SaleBuilder) tx.ApplyResult {
	return m.env.SubmitSigned([]*jtx.Account{m.authority}, sale.Build())
}

// ===== House setup =====

func TestCreateAuctionHouse(t *testing.T) {
	t.Run("native", func(t *testing.T) {
		env := jtx.NewTestEnv(t)
		authority := jtx.NewAccount("authority")
		env.Fund(authority)

		b := auctionhouse.CreateHouse(authority).SellerFeeBasisPoints(250).RequiresSignOff()
		jtx.RequireTxSuccess(t, env.SubmitSigned([]*jtx.Account{authority}, b.Build()))

		h := b.House()
		house, err := ahtx.ReadHouse(env.Store(), h.Key)
		require.NoError(t, err)
		assert.Equal(t, authority.PublicKey(), house.Authority)
		assert.Equal(t, authority.PublicKey(), house.Creator)
		assert.Equal(t, solana.SolMint, house.TreasuryMint)
		assert.Equal(t, h.FeeAccount, house.AuctionHouseFeeAccount)
		assert.Equal(t, h.Treasury, house.AuctionHouseTreasury)
		assert.Equal(t, uint16(250), house.SellerFeeBasisPoints)
		assert.True(t, house.RequiresSignOff)
		assert.False(t, house.CanChangeSalePrice)
		assert.False(t, house.HasAuctioneer)
		jtx.RequireBalance(t, env, h.Treasury, env.Rent().MinimumBalance(0))
	})

	t.Run("token treasury", func(t *testing.T) {
		env := jtx.NewTestEnv(t)
		authority := jtx.NewAccount("authority")
		env.Fund(authority)
		mint := env.CreateMint(authority, authority.PublicKey(), 6)

		b := auctionhouse.CreateHouse(authority).TreasuryMint(mint)
		jtx.RequireTxSuccess(t, env.SubmitSigned([]*jtx.Account{authority}, b.Build()))

		h := b.House()
		treasury := env.TokenAccount(h.Treasury)
		require.NotNil(t, treasury)
		assert.Equal(t, h.Key, treasury.Owner)
		assert.Equal(t, mint, treasury.Mint)
		jtx.RequireAccountExists(t, env, keylet.AssociatedToken(authority.PublicKey(), mint).Key)
	})

	t.Run("basis points above 100%", func(t *testing.T) {
		env := jtx.NewTestEnv(t)
		authority := jtx.NewAccount("authority")
		env.Fund(authority)

		b := auctionhouse.CreateHouse(authority).SellerFeeBasisPoints(10001)
		jtx.RequireTxFail(t, env.SubmitSigned([]*jtx.Account{authority}, b.Build()), ahtx.ResultInvalidBasisPoints)
		jtx.RequireAccountNotExists(t, env, b.House().Key)
	})

	t.Run("wrong bump", func(t *testing.T) {
		env := jtx.NewTestEnv(t)
		authority := jtx.NewAccount("authority")
		env.Fund(authority)

		ix := auctionhouse.CreateHouse(authority).Build()
		ix.Bump--
		result := env.SubmitSigned([]*jtx.Account{authority}, ix)
		require.False(t, result.Applied)
	})
}

// ===== Escrow =====

func TestDepositWithdraw(t *testing.T) {
	m := newMarket(t, nil, 1, royaltyFree)
	env, h := m.env, m.house
	escrow := h.Escrow(m.buyer).Key
	rentMin := env.Rent().MinimumBalance(0)

	jtx.RequireTxSuccess(t, env.SubmitSigned([]*jtx.Account{m.buyer}, auctionhouse.Deposit(h, m.buyer, jtx.SOL(2))))
	jtx.RequireBalance(t, env, escrow, jtx.SOL(2)+rentMin)

	t.Run("cannot strand dust", func(t *testing.T) {
		result := env.SubmitSigned([]*jtx.Account{m.buyer}, auctionhouse.Withdraw(h, m.buyer, jtx.SOL(2)+rentMin-1))
		jtx.RequireTxFail(t, result, ahtx.ResultEscrowUnderRentExemption)
	})

	t.Run("more than held", func(t *testing.T) {
		result := env.SubmitSigned([]*jtx.Account{m.buyer}, auctionhouse.Withdraw(h, m.buyer, jtx.SOL(3)))
		require.False(t, result.Applied)
		jtx.RequireBalance(t, env, escrow, jtx.SOL(2)+rentMin)
	})

	t.Run("nobody with standing signed", func(t *testing.T) {
		stranger := jtx.NewAccount("stranger")
		env.Fund(stranger)
		result := env.SubmitSigned([]*jtx.Account{stranger}, auctionhouse.Withdraw(h, m.buyer, jtx.SOL(1)))
		jtx.RequireTxFail(t, result, ahtx.ResultNoValidSignerPresent)
	})

	t.Run("authority withdraws for the wallet", func(t *testing.T) {
		before := env.Balance(m.buyer.PublicKey())
		jtx.RequireTxSuccess(t, env.SubmitSigned([]*jtx.Account{m.authority}, auctionhouse.Withdraw(h, m.buyer, jtx.SOL(1))))
		jtx.RequireBalance(t, env, m.buyer.PublicKey(), before+jtx.SOL(1))
	})

	t.Run("wallet empties the escrow", func(t *testing.T) {
		jtx.RequireTxSuccess(t, env.SubmitSigned([]*jtx.Account{m.buyer}, auctionhouse.Withdraw(h, m.buyer, jtx.SOL(1)+rentMin)))
		jtx.RequireAccountNotExists(t, env, escrow)
	})

	t.Run("native deposit from another account", func(t *testing.T) {
		ix := auctionhouse.Deposit(h, m.buyer, 1)
		ix.PaymentAccount = m.seller.PublicKey()
		result := env.SubmitSigned([]*jtx.Account{m.buyer}, ix)
		jtx.RequireTxFail(t, result, ahtx.ResultExpectedSolAccount)
	})
}

func TestHouseWithdrawals(t *testing.T) {
	m := newMarket(t, nil, 1, royaltyFree)
	env, h := m.env, m.house

	t.Run("fee account", func(t *testing.T) {
		before := env.Balance(m.authority.PublicKey())
		jtx.RequireTxSuccess(t, env.SubmitSigned([]*jtx.Account{m.authority}, auctionhouse.WithdrawFromFee(h, jtx.SOL(1)/2)))
		jtx.RequireBalance(t, env, m.authority.PublicKey(), before+jtx.SOL(1)/2-env.Fee(1))
	})

	t.Run("fee account needs the authority", func(t *testing.T) {
		ix := auctionhouse.WithdrawFromFee(h, 1)
		result := env.SubmitSigned([]*jtx.Account{m.seller}, ix)
		require.False(t, result.Applied)
	})

	t.Run("treasury", func(t *testing.T) {
		l := m.list(t, jtx.SOL(10), 1)
		b := m.bid(t, jtx.SOL(10), 1)
		jtx.RequireTxSuccess(t, m.settle(auctionhouse.Sale(l, b, m.creators()...)))

		fee := jtx.SOL(10) * 500 / 10000
		jtx.RequireBalance(t, env, h.Treasury, env.Rent().MinimumBalance(0)+fee)
		jtx.RequireTxSuccess(t, env.SubmitSigned([]*jtx.Account{m.authority}, auctionhouse.WithdrawFromTreasury(h, fee)))
		jtx.RequireBalance(t, env, h.Treasury, env.Rent().MinimumBalance(0))
	})
}

// ===== Listings and bids =====

func TestSell(t *testing.T) {
	t.Run("lists and delegates", func(t *testing.T) {
		m := newMarket(t, nil, 5, royaltyFree)
		l := m.list(t, jtx.SOL(5), 4)

		state := m.env.Account(l.TradeState().Key)
		require.NotNil(t, state)
		assert.Equal(t, []byte{l.TradeState().Bump}, state.Data)
		assert.Equal(t, ahtx.ProgramID, state.Owner)
		jtx.RequireAccountNotExists(t, m.env, l.FreeTradeState().Key)

		holding := m.env.TokenAccount(m.asset.TokenAccount)
		require.NotNil(t, holding.Delegate)
		assert.Equal(t, keylet.ProgramAsSigner().Key, *holding.Delegate)
		assert.Equal(t, uint64(4), holding.DelegatedAmount)
	})

	t.Run("listing again is idempotent", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(1), 1)
		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.seller}, l.Build()))
	})

	t.Run("free listing creates the free trade state", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, 0, 1)
		assert.Equal(t, l.TradeState().Key, l.FreeTradeState().Key)
		jtx.RequireAccountExists(t, m.env, l.FreeTradeState().Key)
	})

	t.Run("more than held", func(t *testing.T) {
		m := newMarket(t, nil, 2, royaltyFree)
		l := auctionhouse.List(m.house, m.seller, m.asset, jtx.SOL(1), 3)
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.seller}, l.Build()), ahtx.ResultInvalidTokenAmount)
	})

	t.Run("someone else's tokens", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := auctionhouse.List(m.house, m.buyer, m.asset, jtx.SOL(1), 1)
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.buyer}, l.Build()), ahtx.ResultIncorrectOwner)
	})

	t.Run("seller must sign", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := auctionhouse.List(m.house, m.seller, m.asset, jtx.SOL(1), 1)
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.buyer}, l.Build()), ahtx.ResultSaleRequiresSigner)
	})

	t.Run("authority reprices a free listing", func(t *testing.T) {
		m := newMarket(t, auctionhouse.CreateHouse(jtx.NewAccount("authority")).CanChangeSalePrice(), 1, royaltyFree)
		m.list(t, 0, 1)

		l := auctionhouse.List(m.house, m.seller, m.asset, jtx.SOL(3), 1)
		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.authority}, l.Build()))
		jtx.RequireAccountExists(t, m.env, l.TradeState().Key)
	})

	t.Run("authority cannot list unlisted tokens", func(t *testing.T) {
		m := newMarket(t, auctionhouse.CreateHouse(jtx.NewAccount("authority")).CanChangeSalePrice(), 1, royaltyFree)
		l := auctionhouse.List(m.house, m.seller, m.asset, jtx.SOL(3), 1)
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.authority}, l.Build()), ahtx.ResultSaleRequiresSigner)
	})
}

func TestBuy(t *testing.T) {
	t.Run("funds escrow to the price", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		before := m.env.Balance(m.buyer.PublicKey())
		b := m.bid(t, jtx.SOL(3), 1)

		escrow := m.house.Escrow(m.buyer).Key
		jtx.RequireBalance(t, m.env, escrow, jtx.SOL(3)+m.env.Rent().MinimumBalance(0))
		jtx.RequireAccountExists(t, m.env, b.TradeState().Key)
		spent := jtx.SOL(3) + m.env.Rent().MinimumBalance(0) + m.env.Rent().MinimumBalance(ahtx.TradeStateSize) + m.env.Fee(1)
		jtx.RequireBalance(t, m.env, m.buyer.PublicKey(), before-spent)
	})

	t.Run("escrowed deposit covers the bid", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		m.env.MustSubmit([]*jtx.Account{m.buyer}, auctionhouse.Deposit(m.house, m.buyer, jtx.SOL(5)))
		m.bid(t, jtx.SOL(3), 1)
		jtx.RequireBalance(t, m.env, m.house.Escrow(m.buyer).Key, jtx.SOL(5)+m.env.Rent().MinimumBalance(0))
	})

	t.Run("public bid", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		b := auctionhouse.Offer(m.house, m.buyer, m.asset, jtx.SOL(1), 1).AnyAccount()
		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.buyer}, b.Build()))
		jtx.RequireAccountExists(t, m.env, b.TradeState().Key)
	})

	t.Run("sign-off house rejects a lone buyer", func(t *testing.T) {
		m := newMarket(t, auctionhouse.CreateHouse(jtx.NewAccount("authority")).RequiresSignOff(), 1, royaltyFree)
		b := auctionhouse.Offer(m.house, m.buyer, m.asset, jtx.SOL(1), 1)
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.buyer}, b.Build()), ahtx.ResultCannotTakeThisActionWithoutSignOff)
	})

	t.Run("sign-off house with the authority", func(t *testing.T) {
		m := newMarket(t, auctionhouse.CreateHouse(jtx.NewAccount("authority")).RequiresSignOff(), 1, royaltyFree)
		feeBefore := m.env.Balance(m.house.FeeAccount)
		b := auctionhouse.Offer(m.house, m.buyer, m.asset, jtx.SOL(1), 1)
		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.buyer, m.authority}, b.Build()))

		// The fee account pays the escrow rent and the trade state.
		paid := m.env.Rent().MinimumBalance(0) + m.env.Rent().MinimumBalance(ahtx.TradeStateSize)
		jtx.RequireBalance(t, m.env, m.house.FeeAccount, feeBefore-paid)
	})
}

func TestCancel(t *testing.T) {
	t.Run("listing", func(t *testing.T) {
		m := newMarket(t, nil, 2, royaltyFree)
		l := m.list(t, jtx.SOL(2), 2)
		before := m.env.Balance(m.seller.PublicKey())

		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.seller}, l.Cancel()))
		jtx.RequireAccountNotExists(t, m.env, l.TradeState().Key)
		assert.Nil(t, m.env.TokenAccount(m.asset.TokenAccount).Delegate)
		jtx.RequireBalance(t, m.env, m.seller.PublicKey(), before+m.env.Rent().MinimumBalance(ahtx.TradeStateSize)-m.env.Fee(1))

		result := m.env.SubmitSigned([]*jtx.Account{m.seller}, l.Cancel())
		jtx.RequireTxFail(t, result, ahtx.ResultTradeStateDoesntExist)
	})

	t.Run("bid keeps the seller's delegation", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		m.list(t, jtx.SOL(2), 1)
		b := m.bid(t, jtx.SOL(2), 1)

		jtx.RequireTxSuccess(t, m.env.SubmitSigned([]*jtx.Account{m.buyer}, b.Cancel()))
		jtx.RequireAccountNotExists(t, m.env, b.TradeState().Key)
		require.NotNil(t, m.env.TokenAccount(m.asset.TokenAccount).Delegate)
	})

	t.Run("terms must match", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(2), 1)
		ix := l.Cancel()
		ix.BuyerPrice++
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.seller}, ix), ahtx.ResultDerivedKeyInvalid)
	})

	t.Run("stranger", func(t *testing.T) {
		m := newMarket(t, nil, 1, royaltyFree)
		l := m.list(t, jtx.SOL(2), 1)
		jtx.RequireTxFail(t, m.env.SubmitSigned([]*jtx.Account{m.buyer}, l.Cancel()), ahtx.ResultNoValidSignerPresent)
	})
}
