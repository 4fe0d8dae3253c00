package auctionhouse

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
)

// AuthorizationKind selects who is settling a sale.
type AuthorizationKind uint8

const (
	// AuthorizeDirect settles with the house's own authority rules.
	AuthorizeDirect AuthorizationKind = iota
	// AuthorizeAuctioneer settles through a delegated auctioneer.
	AuthorizeAuctioneer
)

// AuthorizationContext carries the settling party into the shared
// settlement path.
type AuthorizationContext struct {
	Kind                AuthorizationKind
	AuctioneerAuthority solana.PublicKey
}

// Direct returns the context of a sale settled without an auctioneer.
func Direct() AuthorizationContext {
	return AuthorizationContext{Kind: AuthorizeDirect}
}

// ViaAuctioneer returns the context of a sale settled by authority under
// its delegation record.
func ViaAuctioneer(authority solana.PublicKey) AuthorizationContext {
	return AuthorizationContext{Kind: AuthorizeAuctioneer, AuctioneerAuthority: authority}
}

// authorize checks that the settling party may execute sales on house.
func (a AuthorizationContext) authorize(ctx *tx.ApplyContext, house solana.PublicKey, h *AuctionHouse) tx.Result {
	switch a.Kind {
	case AuthorizeDirect:
		if h.HasAuctioneer {
			return ResultMustUseAuctioneerHandler
		}
		return tx.TesSUCCESS
	case AuthorizeAuctioneer:
		return loadAuctioneer(ctx, house, h, a.AuctioneerAuthority, ScopeExecuteSale)
	default:
		return ResultInstructionMismatch
	}
}

// listingPrice returns the price the seller trade state commits to.
func (a AuthorizationContext) listingPrice(price uint64) uint64 {
	if a.Kind == AuthorizeAuctioneer {
		return AuctioneerPrice
	}
	return price
}

// ExecuteSale settles a matched listing and bid. It pays creators and the
// house out of the buyer's escrow, pays the seller the rest, and moves the
// tokens with the program signer's delegation. PartialOrderSize and
// PartialOrderPrice fill part of the listing; they are given together or
// not at all.
type ExecuteSale struct {
	Buyer                       solana.PublicKey   `json:"buyer"`
	Seller                      solana.PublicKey   `json:"seller"`
	TokenAccount                solana.PublicKey   `json:"token_account"`
	TokenMint                   solana.PublicKey   `json:"token_mint"`
	Metadata                    solana.PublicKey   `json:"metadata"`
	TreasuryMint                solana.PublicKey   `json:"treasury_mint"`
	SellerPaymentReceiptAccount solana.PublicKey   `json:"seller_payment_receipt_account"`
	BuyerReceiptTokenAccount    solana.PublicKey   `json:"buyer_receipt_token_account"`
	Authority                   solana.PublicKey   `json:"authority"`
	AuctionHouse                solana.PublicKey   `json:"auction_house"`
	BuyerTradeState             solana.PublicKey   `json:"buyer_trade_state"`
	SellerTradeState            solana.PublicKey   `json:"seller_trade_state"`
	FreeTradeState              solana.PublicKey   `json:"free_trade_state"`
	EscrowPaymentBump           uint8              `json:"escrow_payment_bump"`
	FreeTradeStateBump          uint8              `json:"free_trade_state_bump"`
	ProgramAsSignerBump         uint8              `json:"program_as_signer_bump"`
	BuyerPrice                  uint64             `json:"buyer_price"`
	TokenSize                   uint64             `json:"token_size"`
	PartialOrderSize            *uint64            `json:"partial_order_size,omitempty" bin:"optional"`
	PartialOrderPrice           *uint64            `json:"partial_order_price,omitempty" bin:"optional"`
	Creators                    []solana.PublicKey `json:"creators,omitempty"`
}

func (e *ExecuteSale) ProgramID() solana.PublicKey { return ProgramID }
func (e *ExecuteSale) Name() string                { return "execute_sale" }

func (e *ExecuteSale) Accounts() []tx.AccountMeta {
	metas := []tx.AccountMeta{
		tx.Writable(e.Buyer),
		tx.Writable(e.Seller),
		tx.Writable(e.TokenAccount),
		tx.ReadOnly(e.TokenMint),
		tx.ReadOnly(e.Metadata),
		tx.ReadOnly(e.TreasuryMint),
		tx.Writable(keylet.Escrow(e.AuctionHouse, e.Buyer).Key),
		tx.Writable(e.SellerPaymentReceiptAccount),
		tx.Writable(e.BuyerReceiptTokenAccount),
		tx.ReadOnly(e.Authority),
		tx.ReadOnly(e.AuctionHouse),
		tx.Writable(keylet.AuctionHouseFeeAccount(e.AuctionHouse).Key),
		tx.Writable(keylet.AuctionHouseTreasury(e.AuctionHouse).Key),
		tx.Writable(e.BuyerTradeState),
		tx.Writable(e.SellerTradeState),
		tx.Writable(e.FreeTradeState),
		tx.ReadOnly(keylet.ProgramAsSigner().Key),
	}
	native := e.TreasuryMint.Equals(solana.SolMint)
	for _, c := range e.Creators {
		if native {
			metas = append(metas, tx.Writable(c))
			continue
		}
		metas = append(metas, tx.ReadOnly(c), tx.Writable(keylet.AssociatedToken(c, e.TreasuryMint).Key))
	}
	return metas
}

func (e *ExecuteSale) Validate() error {
	if e.Buyer.IsZero() || e.Seller.IsZero() || e.AuctionHouse.IsZero() {
		return errors.New("buyer, seller and auction house are required")
	}
	if e.TokenAccount.IsZero() || e.TokenMint.IsZero() || e.TreasuryMint.IsZero() {
		return errors.New("token account, token mint and treasury mint are required")
	}
	if e.BuyerTradeState.IsZero() || e.SellerTradeState.IsZero() || e.FreeTradeState.IsZero() {
		return errors.New("trade state accounts are required")
	}
	if e.TokenSize == 0 {
		return errors.New("token size must be positive")
	}
	return nil
}

func (e *ExecuteSale) Apply(ctx *tx.ApplyContext) tx.Result {
	return e.settle(ctx, Direct())
}

// fill returns the price and size being settled.
func (e *ExecuteSale) fill() (price, size uint64, partial bool) {
	if e.PartialOrderSize != nil && e.PartialOrderPrice != nil {
		return *e.PartialOrderPrice, *e.PartialOrderSize, true
	}
	return e.BuyerPrice, e.TokenSize, false
}

// settle runs every check, then the transfers and the teardown.
func (e *ExecuteSale) settle(ctx *tx.ApplyContext, auth AuthorizationContext) tx.Result {
	h, r := checkHouse(ctx, e.AuctionHouse, e.Authority, e.TreasuryMint)
	if r != tx.TesSUCCESS {
		return r
	}
	if r := auth.authorize(ctx, e.AuctionHouse, h); r != tx.TesSUCCESS {
		return r
	}

	if e.BuyerPrice == 0 && !ctx.IsSigner(h.Authority) && !ctx.IsSigner(e.Seller) {
		return ResultCannotMatchFreeSalesWithoutSignoff
	}
	p, r := selectPayer(ctx, e.AuctionHouse, h, e.Seller, e.Buyer)
	if r != tx.TesSUCCESS {
		return r
	}

	programAsSigner := keylet.ProgramAsSigner().Key
	if r := verifyAddress(ctx, keylet.ProgramAsSignerSeeds(), e.ProgramAsSignerBump, programAsSigner); r != tx.TesSUCCESS {
		return r
	}
	holding, _, r := token.LoadAccount(ctx, e.TokenAccount)
	if r != tx.TesSUCCESS {
		return r
	}
	if !holding.Mint.Equals(e.TokenMint) {
		ctx.Logf("token account %s holds %s, not %s", e.TokenAccount, holding.Mint, e.TokenMint)
		return ResultPublicKeyMismatch
	}
	if !holding.Owner.Equals(e.Seller) {
		return ResultIncorrectOwner
	}
	if holding.Delegate == nil || !holding.Delegate.Equals(programAsSigner) {
		ctx.Logf("token account %s is not delegated to the program signer", e.TokenAccount)
		return ResultPublicKeyMismatch
	}

	buyerState, r := loadTradeState(ctx, e.BuyerTradeState)
	if r != tx.TesSUCCESS {
		return r
	}
	sellerState, r := loadTradeState(ctx, e.SellerTradeState)
	if r != tx.TesSUCCESS {
		return r
	}
	if !buyerState.Live() || !sellerState.Live() {
		return ResultBothPartiesNeedToAgreeToSale
	}

	if (e.PartialOrderSize == nil) != (e.PartialOrderPrice == nil) {
		return ResultMissingElementForPartialOrder
	}
	price, size, partial := e.fill()
	if partial {
		if size == 0 || size > e.TokenSize {
			return ResultInvalidTokenAmount
		}
		if r := CheckPartialPrice(e.BuyerPrice, e.TokenSize, size, price); r != tx.TesSUCCESS {
			ctx.Logf("partial fill of %d at %d does not match %d for %d", size, price, e.BuyerPrice, e.TokenSize)
			return r
		}
	}
	bid := Order{
		Wallet:       e.Buyer,
		House:        e.AuctionHouse,
		TokenAccount: e.TokenAccount,
		TreasuryMint: h.TreasuryMint,
		TokenMint:    e.TokenMint,
		Price:        price,
		Size:         size,
	}
	if r := ValidateBuyerTradeState(ctx, bid, e.BuyerTradeState); r != tx.TesSUCCESS {
		return r
	}
	listing := Order{
		Wallet:       e.Seller,
		House:        e.AuctionHouse,
		TokenAccount: e.TokenAccount,
		TreasuryMint: h.TreasuryMint,
		TokenMint:    e.TokenMint,
		Price:        auth.listingPrice(e.BuyerPrice),
		Size:         e.TokenSize,
	}
	if r := ValidateSellerTradeState(ctx, listing, e.SellerTradeState); r != tx.TesSUCCESS {
		return r
	}
	freeListing := listing
	freeListing.Price = 0
	if r := verifyAddress(ctx, freeListing.Seeds(), e.FreeTradeStateBump, e.FreeTradeState); r != tx.TesSUCCESS {
		return r
	}
	escrow := escrowKey(e.AuctionHouse, e.Buyer)
	if r := verifyEscrow(ctx, e.AuctionHouse, e.Buyer, escrow, e.EscrowPaymentBump); r != tx.TesSUCCESS {
		return r
	}

	if holding.Amount < size {
		return ResultNotEnoughTokensAvailable
	}
	if partial && holding.DelegatedAmount < size {
		return ResultNotEnoughTokensAvailable
	}

	md, r := loadMetadata(ctx, e.TokenMint, e.Metadata)
	if r != tx.TesSUCCESS {
		return r
	}
	if len(md.Data.Creators) != len(e.Creators) {
		ctx.Logf("expected %d creator accounts, got %d", len(md.Data.Creators), len(e.Creators))
		return ResultPublicKeyMismatch
	}
	for i, c := range md.Data.Creators {
		if !c.Address.Equals(e.Creators[i]) {
			return ResultPublicKeyMismatch
		}
	}
	split, ok := Apportion(price, md.Data.SellerFeeBasisPoints, md.Data.Creators, h.SellerFeeBasisPoints)
	if !ok {
		return ResultNumericalOverflow
	}
	balance, r := escrowBalance(ctx, h, escrow)
	if r != tx.TesSUCCESS {
		return r
	}
	if balance < price {
		ctx.Logf("escrow holds %d, sale needs %d", balance, price)
		return ResultNotEnoughTokensAvailable
	}
	if h.IsNative() && !e.SellerPaymentReceiptAccount.Equals(e.Seller) {
		return ResultExpectedSolAccount
	}

	// Receipts that already exist are checked before anything moves.
	if !h.IsNative() {
		if _, r := inspectReceipt(ctx, e.Seller, h.TreasuryMint, e.SellerPaymentReceiptAccount, ResultSellerATACannotHaveDelegate); r != tx.TesSUCCESS {
			return r
		}
	}
	if _, r := inspectReceipt(ctx, e.Buyer, e.TokenMint, e.BuyerReceiptTokenAccount, ResultBuyerATACannotHaveDelegate); r != tx.TesSUCCESS {
		return r
	}

	// (a) keep a native escrow rent-exempt after the payout.
	if h.IsNative() {
		minimum := ctx.Rent().MinimumBalance(0)
		if remaining := balance - price; remaining < minimum {
			if r := system.InvokeTransfer(ctx, p.Key, escrow, minimum-remaining, p.signers()...); r != tx.TesSUCCESS {
				return r
			}
		}
	}

	funds := &purse{
		house:       h,
		houseKey:    e.AuctionHouse,
		escrow:      escrow,
		escrowSeeds: keylet.WithBump(keylet.EscrowSeeds(e.AuctionHouse, e.Buyer), e.EscrowPaymentBump),
		payer:       p,
	}
	// (b) royalties, (c) house fee.
	if r := funds.payCreators(ctx, split.Royalties); r != tx.TesSUCCESS {
		return r
	}
	if r := funds.payHouseFee(ctx, split.HouseFee); r != tx.TesSUCCESS {
		return r
	}

	// (d) seller proceeds.
	if !h.IsNative() {
		if r := ensureReceipt(ctx, p, e.Seller, h.TreasuryMint, e.SellerPaymentReceiptAccount, ResultSellerATACannotHaveDelegate); r != tx.TesSUCCESS {
			return r
		}
	}
	if r := funds.pay(ctx, e.SellerPaymentReceiptAccount, split.Seller); r != tx.TesSUCCESS {
		return r
	}

	// (e) tokens to the buyer.
	if r := ensureReceipt(ctx, p, e.Buyer, e.TokenMint, e.BuyerReceiptTokenAccount, ResultBuyerATACannotHaveDelegate); r != tx.TesSUCCESS {
		return r
	}
	signer := keylet.WithBump(keylet.ProgramAsSignerSeeds(), e.ProgramAsSignerBump)
	if r := token.InvokeTransfer(ctx, e.TokenAccount, e.BuyerReceiptTokenAccount, programAsSigner, size, signer); r != tx.TesSUCCESS {
		return r
	}
	ctx.Logf("sold %d of %s to %s for %d (royalties %d, fee %d)",
		size, e.TokenMint, e.Buyer, price, split.TotalRoyalties(), split.HouseFee)

	// (f) teardown once the seller holds nothing more.
	return e.teardown(ctx, p, signer)
}

// teardown closes the seller, buyer and free trade states to the fee payer
// once the seller's token account is empty, and drops the delegation.
func (e *ExecuteSale) teardown(ctx *tx.ApplyContext, p payer, signer [][]byte) tx.Result {
	holding, _, r := token.LoadAccount(ctx, e.TokenAccount)
	if r != tx.TesSUCCESS {
		return r
	}
	if holding.Amount > 0 {
		return tx.TesSUCCESS
	}
	if holding.Delegate != nil {
		if r := token.InvokeRevoke(ctx, e.TokenAccount, *holding.Delegate, signer); r != tx.TesSUCCESS {
			return r
		}
	}
	if r := closeProgramAccount(ctx, e.SellerTradeState, p.Key); r != tx.TesSUCCESS {
		return r
	}
	if r := closeProgramAccount(ctx, e.BuyerTradeState, p.Key); r != tx.TesSUCCESS {
		return r
	}
	if e.FreeTradeState.Equals(e.SellerTradeState) {
		return tx.TesSUCCESS
	}
	free, r := loadTradeState(ctx, e.FreeTradeState)
	if r != tx.TesSUCCESS || !free.Live() {
		return r
	}
	return closeProgramAccount(ctx, e.FreeTradeState, p.Key)
}

// AuctioneerExecuteSale settles a sale through the delegated auctioneer.
// The listing's trade state commits to AuctioneerPrice.
type AuctioneerExecuteSale struct {
	ExecuteSale
	AuctioneerAuthority solana.PublicKey `json:"auctioneer_authority"`
}

func (e *AuctioneerExecuteSale) Name() string { return "auctioneer_execute_sale" }

func (e *AuctioneerExecuteSale) Accounts() []tx.AccountMeta {
	return append(e.ExecuteSale.Accounts(),
		tx.ReadOnly(e.AuctioneerAuthority),
		tx.ReadOnly(keylet.Auctioneer(e.AuctionHouse, e.AuctioneerAuthority).Key),
	)
}

func (e *AuctioneerExecuteSale) Validate() error {
	if e.AuctioneerAuthority.IsZero() {
		return errors.New("auctioneer authority is required")
	}
	return e.ExecuteSale.Validate()
}

func (e *AuctioneerExecuteSale) Apply(ctx *tx.ApplyContext) tx.Result {
	return e.settle(ctx, ViaAuctioneer(e.AuctioneerAuthority))
}
