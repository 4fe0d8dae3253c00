package auctionhouse

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
)

// Sell lists TokenSize units held in TokenAccount at BuyerPrice. The wallet
// approves the program signer as delegate of the listed units; tokens stay
// in the seller's account until a sale executes.
type Sell struct {
	Wallet               solana.PublicKey `json:"wallet"`
	TokenAccount         solana.PublicKey `json:"token_account"`
	Metadata             solana.PublicKey `json:"metadata"`
	Authority            solana.PublicKey `json:"authority"`
	AuctionHouse         solana.PublicKey `json:"auction_house"`
	SellerTradeState     solana.PublicKey `json:"seller_trade_state"`
	FreeSellerTradeState solana.PublicKey `json:"free_seller_trade_state"`
	TradeStateBump       uint8            `json:"trade_state_bump"`
	FreeTradeStateBump   uint8            `json:"free_trade_state_bump"`
	ProgramAsSignerBump  uint8            `json:"program_as_signer_bump"`
	BuyerPrice           uint64           `json:"buyer_price"`
	TokenSize            uint64           `json:"token_size"`
}

func (s *Sell) ProgramID() solana.PublicKey { return ProgramID }
func (s *Sell) Name() string                { return "sell" }

func (s *Sell) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(s.Wallet),
		tx.Writable(s.TokenAccount),
		tx.ReadOnly(s.Metadata),
		tx.ReadOnly(s.Authority),
		tx.ReadOnly(s.AuctionHouse),
		tx.Writable(keylet.AuctionHouseFeeAccount(s.AuctionHouse).Key),
		tx.Writable(s.SellerTradeState),
		tx.Writable(s.FreeSellerTradeState),
		tx.ReadOnly(keylet.ProgramAsSigner().Key),
	}
}

func (s *Sell) Validate() error {
	if s.Wallet.IsZero() || s.TokenAccount.IsZero() || s.AuctionHouse.IsZero() {
		return errors.New("wallet, token account and auction house are required")
	}
	if s.SellerTradeState.IsZero() || s.FreeSellerTradeState.IsZero() {
		return errors.New("trade state accounts are required")
	}
	return nil
}

func (s *Sell) Apply(ctx *tx.ApplyContext) tx.Result {
	h, r := checkHouse(ctx, s.AuctionHouse, s.Authority, solana.PublicKey{})
	if r != tx.TesSUCCESS {
		return r
	}
	return s.list(ctx, h, s.BuyerPrice, false)
}

// list records the listing at price. Auctioneer listings also get a free
// trade state.
func (s *Sell) list(ctx *tx.ApplyContext, h *AuctionHouse, price uint64, auctioneer bool) tx.Result {
	walletSigned := ctx.IsSigner(s.Wallet)
	if !walletSigned {
		// The house may reprice an existing free listing on the seller's behalf.
		free, r := loadTradeState(ctx, s.FreeSellerTradeState)
		if r != tx.TesSUCCESS {
			return r
		}
		if price == 0 || !free.Live() || !ctx.IsSigner(h.Authority) || !h.CanChangeSalePrice {
			return ResultSaleRequiresSigner
		}
	}

	a, _, r := token.LoadAccount(ctx, s.TokenAccount)
	if r != tx.TesSUCCESS {
		return r
	}
	if !a.Owner.Equals(s.Wallet) {
		return ResultIncorrectOwner
	}
	if s.TokenSize == 0 || a.Amount < s.TokenSize {
		ctx.Logf("listing %d of %d held", s.TokenSize, a.Amount)
		return ResultInvalidTokenAmount
	}
	if _, r := loadMetadata(ctx, a.Mint, s.Metadata); r != tx.TesSUCCESS {
		return r
	}
	p, r := selectPayer(ctx, s.AuctionHouse, h, s.Wallet)
	if r != tx.TesSUCCESS {
		return r
	}

	order := Order{
		Wallet:       s.Wallet,
		House:        s.AuctionHouse,
		TokenAccount: s.TokenAccount,
		TreasuryMint: h.TreasuryMint,
		TokenMint:    a.Mint,
		Price:        price,
		Size:         s.TokenSize,
	}
	if r := verifyAddress(ctx, order.Seeds(), s.TradeStateBump, s.SellerTradeState); r != tx.TesSUCCESS {
		return r
	}
	freeOrder := order
	freeOrder.Price = 0
	if r := verifyAddress(ctx, freeOrder.Seeds(), s.FreeTradeStateBump, s.FreeSellerTradeState); r != tx.TesSUCCESS {
		return r
	}
	programAsSigner := keylet.ProgramAsSigner().Key
	if r := verifyAddress(ctx, keylet.ProgramAsSignerSeeds(), s.ProgramAsSignerBump, programAsSigner); r != tx.TesSUCCESS {
		return r
	}

	if walletSigned {
		if r := token.InvokeApprove(ctx, s.TokenAccount, programAsSigner, s.Wallet, s.TokenSize); r != tx.TesSUCCESS {
			return r
		}
	}
	if r := createTradeState(ctx, p, s.SellerTradeState, order.Seeds(), s.TradeStateBump); r != tx.TesSUCCESS {
		return r
	}
	if price == 0 || auctioneer {
		return createTradeState(ctx, p, s.FreeSellerTradeState, freeOrder.Seeds(), s.FreeTradeStateBump)
	}
	return tx.TesSUCCESS
}

// AuctioneerSell lists through the delegated auctioneer. The trade state
// commits to AuctioneerPrice instead of a price.
type AuctioneerSell struct {
	Sell
	AuctioneerAuthority solana.PublicKey `json:"auctioneer_authority"`
}

func (s *AuctioneerSell) Name() string { return "auctioneer_sell" }

func (s *AuctioneerSell) Accounts() []tx.AccountMeta {
	return append(s.Sell.Accounts(),
		tx.ReadOnly(s.AuctioneerAuthority),
		tx.ReadOnly(keylet.Auctioneer(s.AuctionHouse, s.AuctioneerAuthority).Key),
	)
}

func (s *AuctioneerSell) Validate() error {
	if s.AuctioneerAuthority.IsZero() {
		return errors.New("auctioneer authority is required")
	}
	return s.Sell.Validate()
}

func (s *AuctioneerSell) Apply(ctx *tx.ApplyContext) tx.Result {
	h, r := checkHouse(ctx, s.AuctionHouse, s.Authority, solana.PublicKey{})
	if r != tx.TesSUCCESS {
		return r
	}
	if r := loadAuctioneer(ctx, s.AuctionHouse, h, s.AuctioneerAuthority, ScopeSell); r != tx.TesSUCCESS {
		return r
	}
	if !ctx.IsSigner(s.Wallet) {
		return ResultSaleRequiresSigner
	}
	return s.list(ctx, h, AuctioneerPrice, true)
}
