package auctionhouse

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
)

// Bid holds the accounts and terms shared by private and public bids. The
// escrow is topped up so that it covers BuyerPrice.
type Bid struct {
	Wallet            solana.PublicKey `json:"wallet"`
	PaymentAccount    solana.PublicKey `json:"payment_account"`
	TransferAuthority solana.PublicKey `json:"transfer_authority"`
	TreasuryMint      solana.PublicKey `json:"treasury_mint"`
	TokenAccount      solana.PublicKey `json:"token_account"`
	Metadata          solana.PublicKey `json:"metadata"`
	Authority         solana.PublicKey `json:"authority"`
	AuctionHouse      solana.PublicKey `json:"auction_house"`
	BuyerTradeState   solana.PublicKey `json:"buyer_trade_state"`
	EscrowPaymentBump uint8            `json:"escrow_payment_bump"`
	TradeStateBump    uint8            `json:"trade_state_bump"`
	BuyerPrice        uint64           `json:"buyer_price"`
	TokenSize         uint64           `json:"token_size"`
}

func (b *Bid) ProgramID() solana.PublicKey { return ProgramID }

func (b *Bid) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(b.Wallet),
		tx.Writable(b.PaymentAccount),
		tx.ReadOnly(b.TransferAuthority),
		tx.ReadOnly(b.TreasuryMint),
		tx.ReadOnly(b.TokenAccount),
		tx.ReadOnly(b.Metadata),
		tx.Writable(keylet.Escrow(b.AuctionHouse, b.Wallet).Key),
		tx.ReadOnly(b.Authority),
		tx.ReadOnly(b.AuctionHouse),
		tx.Writable(keylet.AuctionHouseFeeAccount(b.AuctionHouse).Key),
		tx.Writable(b.BuyerTradeState),
	}
}

func (b *Bid) Validate() error {
	if b.Wallet.IsZero() || b.PaymentAccount.IsZero() || b.AuctionHouse.IsZero() {
		return errors.New("wallet, payment account and auction house are required")
	}
	if b.TokenAccount.IsZero() || b.BuyerTradeState.IsZero() {
		return errors.New("token account and trade state are required")
	}
	if b.TokenSize == 0 {
		return errors.New("token size must be positive")
	}
	return nil
}

// place funds the escrow and records the bid under the trade state derived
// from seeds.
func (b *Bid) place(ctx *tx.ApplyContext, public bool) tx.Result {
	h, r := checkHouse(ctx, b.AuctionHouse, b.Authority, b.TreasuryMint)
	if r != tx.TesSUCCESS {
		return r
	}
	if r := ctx.RequireSigner(b.Wallet); r != tx.TesSUCCESS {
		return r
	}
	a, _, r := token.LoadAccount(ctx, b.TokenAccount)
	if r != tx.TesSUCCESS {
		return r
	}
	if _, r := loadMetadata(ctx, a.Mint, b.Metadata); r != tx.TesSUCCESS {
		return r
	}
	escrow := escrowKey(b.AuctionHouse, b.Wallet)
	if r := verifyEscrow(ctx, b.AuctionHouse, b.Wallet, escrow, b.EscrowPaymentBump); r != tx.TesSUCCESS {
		return r
	}
	p, r := selectPayer(ctx, b.AuctionHouse, h, b.Wallet)
	if r != tx.TesSUCCESS {
		return r
	}

	order := Order{
		Wallet:       b.Wallet,
		House:        b.AuctionHouse,
		TokenAccount: b.TokenAccount,
		TreasuryMint: h.TreasuryMint,
		TokenMint:    a.Mint,
		Price:        b.BuyerPrice,
		Size:         b.TokenSize,
	}
	seeds := order.Seeds()
	if public {
		seeds = order.PublicSeeds()
	}
	if r := verifyAddress(ctx, seeds, b.TradeStateBump, b.BuyerTradeState); r != tx.TesSUCCESS {
		return r
	}

	escrowSeeds := keylet.WithBump(keylet.EscrowSeeds(b.AuctionHouse, b.Wallet), b.EscrowPaymentBump)
	if r := ensureEscrow(ctx, p, b.AuctionHouse, h, escrow, escrowSeeds); r != tx.TesSUCCESS {
		return r
	}
	balance, r := escrowBalance(ctx, h, escrow)
	if r != tx.TesSUCCESS {
		return r
	}
	if h.IsNative() {
		if !b.PaymentAccount.Equals(b.Wallet) {
			return ResultExpectedSolAccount
		}
		target := b.BuyerPrice + ctx.Rent().MinimumBalance(0)
		if target < b.BuyerPrice {
			return ResultNumericalOverflow
		}
		if balance < target {
			if r := system.InvokeTransfer(ctx, b.Wallet, escrow, target-balance); r != tx.TesSUCCESS {
				return r
			}
		}
	} else if balance < b.BuyerPrice {
		if r := token.InvokeTransfer(ctx, b.PaymentAccount, escrow, b.TransferAuthority, b.BuyerPrice-balance); r != tx.TesSUCCESS {
			return r
		}
	}
	return createTradeState(ctx, p, b.BuyerTradeState, seeds, b.TradeStateBump)
}

// Buy places a bid on the units held in a specific token account.
type Buy struct {
	Bid
}

func (b *Buy) Name() string                         { return "buy" }
func (b *Buy) Apply(ctx *tx.ApplyContext) tx.Result { return b.place(ctx, false) }

// PublicBuy places a bid on any token account holding the mint.
type PublicBuy struct {
	Bid
}

func (b *PublicBuy) Name() string                         { return "public_buy" }
func (b *PublicBuy) Apply(ctx *tx.ApplyContext) tx.Result { return b.place(ctx, true) }
