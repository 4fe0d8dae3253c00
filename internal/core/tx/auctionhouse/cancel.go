package auctionhouse

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
)

// Cancel withdraws a listing or bid. The trade state is closed and, for a
// listing, the program signer gives up its delegation of the token
// account.
type Cancel struct {
	Wallet       solana.PublicKey `json:"wallet"`
	TokenAccount solana.PublicKey `json:"token_account"`
	TokenMint    solana.PublicKey `json:"token_mint"`
	Authority    solana.PublicKey `json:"authority"`
	AuctionHouse solana.PublicKey `json:"auction_house"`
	TradeState   solana.PublicKey `json:"trade_state"`
	BuyerPrice   uint64           `json:"buyer_price"`
	TokenSize    uint64           `json:"token_size"`
}

func (c *Cancel) ProgramID() solana.PublicKey { return ProgramID }
func (c *Cancel) Name() string                { return "cancel" }

func (c *Cancel) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(c.Wallet),
		tx.Writable(c.TokenAccount),
		tx.ReadOnly(c.TokenMint),
		tx.ReadOnly(c.Authority),
		tx.ReadOnly(c.AuctionHouse),
		tx.Writable(keylet.AuctionHouseFeeAccount(c.AuctionHouse).Key),
		tx.Writable(c.TradeState),
		tx.ReadOnly(keylet.ProgramAsSigner().Key),
	}
}

func (c *Cancel) Validate() error {
	if c.Wallet.IsZero() || c.TokenAccount.IsZero() || c.AuctionHouse.IsZero() || c.TradeState.IsZero() {
		return errors.New("wallet, token account, auction house and trade state are required")
	}
	return nil
}

func (c *Cancel) Apply(ctx *tx.ApplyContext) tx.Result {
	h, r := checkHouse(ctx, c.AuctionHouse, c.Authority, solana.PublicKey{})
	if r != tx.TesSUCCESS {
		return r
	}
	if !ctx.IsSigner(c.Wallet) && !ctx.IsSigner(c.Authority) {
		return ResultNoValidSignerPresent
	}

	ts, r := loadTradeState(ctx, c.TradeState)
	if r != tx.TesSUCCESS {
		return r
	}
	if !ts.Live() {
		return ResultTradeStateDoesntExist
	}
	order := Order{
		Wallet:       c.Wallet,
		House:        c.AuctionHouse,
		TokenAccount: c.TokenAccount,
		TreasuryMint: h.TreasuryMint,
		TokenMint:    c.TokenMint,
		Price:        c.BuyerPrice,
		Size:         c.TokenSize,
	}
	auctioneerOrder := order
	auctioneerOrder.Price = AuctioneerPrice
	matched := false
	for _, seeds := range [][][]byte{order.Seeds(), order.PublicSeeds(), auctioneerOrder.Seeds()} {
		if keylet.Verify(ProgramID, seeds, ts.Bump, c.TradeState) == nil {
			matched = true
			break
		}
	}
	if !matched {
		ctx.Logf("trade state %s does not match the order", c.TradeState)
		return ResultDerivedKeyInvalid
	}

	p, r := selectPayer(ctx, c.AuctionHouse, h, c.Wallet)
	if r != tx.TesSUCCESS {
		return r
	}
	if r := revokeListing(ctx, c.Wallet, c.TokenAccount); r != tx.TesSUCCESS {
		return r
	}
	return closeProgramAccount(ctx, c.TradeState, p.Key)
}

// revokeListing clears the program signer's delegation of a seller's token
// account. Accounts delegated elsewhere or held by others are left alone.
func revokeListing(ctx *tx.ApplyContext, wallet, tokenAccount solana.PublicKey) tx.Result {
	acct, r := ctx.Account(tokenAccount)
	if r != tx.TesSUCCESS || acct == nil || !acct.Owner.Equals(solana.TokenProgramID) {
		return r
	}
	a, _, r := token.LoadAccount(ctx, tokenAccount)
	if r != tx.TesSUCCESS {
		return r
	}
	signer := keylet.ProgramAsSigner()
	if !a.Owner.Equals(wallet) || a.Delegate == nil || !a.Delegate.Equals(signer.Key) {
		return tx.TesSUCCESS
	}
	return token.InvokeRevoke(ctx, tokenAccount, signer.Key, signer.SignerSeeds())
}
