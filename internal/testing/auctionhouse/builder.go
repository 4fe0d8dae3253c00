// Package auctionhouse provides builders for auction house instructions and
// the fixtures needed to trade in tests.
package auctionhouse

import (
	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	ahtx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/auctionhouse"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/testing"
)

// House holds the addresses of an auction house.
type House struct {
	Authority    *testing.Account
	TreasuryMint solana.PublicKey
	Key          solana.PublicKey
	FeeAccount   solana.PublicKey
	Treasury     solana.PublicKey
}

// NewHouse derives the addresses of the house of authority settling in
// treasuryMint.
func NewHouse(authority *testing.Account, treasuryMint solana.PublicKey) House {
	key := keylet.AuctionHouse(authority.PublicKey(), treasuryMint).Key
	return House{
		Authority:    authority,
		TreasuryMint: treasuryMint,
		Key:          key,
		FeeAccount:   keylet.AuctionHouseFeeAccount(key).Key,
		Treasury:     keylet.AuctionHouseTreasury(key).Key,
	}
}

// IsNative reports whether the house settles in lamports.
func (h House) IsNative() bool {
	return h.TreasuryMint.Equals(solana.SolMint)
}

// Escrow returns the escrow of wallet in the house.
func (h House) Escrow(wallet *testing.Account) keylet.Keylet {
	return keylet.Escrow(h.Key, wallet.PublicKey())
}

// PaymentAccount returns where wallet pays from or gets paid to: the wallet
// itself for native houses, its associated token account otherwise.
func (h House) PaymentAccount(wallet *testing.Account) solana.PublicKey {
	if h.IsNative() {
		return wallet.PublicKey()
	}
	return keylet.AssociatedToken(wallet.PublicKey(), h.TreasuryMint).Key
}

// CreateHouseBuilder builds create_auction_house.
type CreateHouseBuilder struct {
	payer        *testing.Account
	authority    *testing.Account
	treasuryMint solana.PublicKey
	bps          uint16
	signOff      bool
	canChange    bool
}

// CreateHouse starts a native house owned and paid for by authority.
func CreateHouse(authority *testing.Account) *CreateHouseBuilder {
	return &CreateHouseBuilder{
		payer:        authority,
		authority:    authority,
		treasuryMint: solana.SolMint,
	}
}

// TreasuryMint makes the house settle in mint.
func (b *CreateHouseBuilder) TreasuryMint(mint solana.PublicKey) *CreateHouseBuilder {
	b.treasuryMint = mint
	return b
}

// SellerFeeBasisPoints sets the house fee.
func (b *CreateHouseBuilder) SellerFeeBasisPoints(bps uint16) *CreateHouseBuilder {
	b.bps = bps
	return b
}

// RequiresSignOff makes every order need the authority's signature.
func (b *CreateHouseBuilder) RequiresSignOff() *CreateHouseBuilder {
	b.signOff = true
	return b
}

// CanChangeSalePrice lets the authority reprice free listings.
func (b *CreateHouseBuilder) CanChangeSalePrice() *CreateHouseBuilder {
	b.canChange = true
	return b
}

// House returns the addresses the built instruction creates.
func (b *CreateHouseBuilder) House() House {
	return NewHouse(b.authority, b.treasuryMint)
}

// Build constructs the instruction.
func (b *CreateHouseBuilder) Build() *ahtx.CreateAuctionHouse {
	house := keylet.AuctionHouse(b.authority.PublicKey(), b.treasuryMint)
	return &ahtx.CreateAuctionHouse{
		Payer:                              b.payer.PublicKey(),
		Authority:                          b.authority.PublicKey(),
		TreasuryMint:                       b.treasuryMint,
		FeeWithdrawalDestination:           b.authority.PublicKey(),
		TreasuryWithdrawalDestinationOwner: b.authority.PublicKey(),
		Bump:                               house.Bump,
		FeePayerBump:                       keylet.AuctionHouseFeeAccount(house.Key).Bump,
		TreasuryBump:                       keylet.AuctionHouseTreasury(house.Key).Bump,
		SellerFeeBasisPoints:               b.bps,
		RequiresSignOff:                    b.signOff,
		CanChangeSalePrice:                 b.canChange,
	}
}

// Setup creates the house and funds its fee account with one SOL.
func Setup(env *testing.TestEnv, b *CreateHouseBuilder) House {
	env.MustSubmit([]*testing.Account{b.payer}, b.Build())
	h := b.House()
	env.FundAmount(h.FeeAccount, testing.SOL(1))
	return h
}

// Deposit builds a deposit of amount into wallet's escrow.
func Deposit(h House, wallet *testing.Account, amount uint64) *ahtx.Deposit {
	return &ahtx.Deposit{
		Wallet:            wallet.PublicKey(),
		PaymentAccount:    h.PaymentAccount(wallet),
		TransferAuthority: wallet.PublicKey(),
		TreasuryMint:      h.TreasuryMint,
		Authority:         h.Authority.PublicKey(),
		AuctionHouse:      h.Key,
		EscrowPaymentBump: h.Escrow(wallet).Bump,
		Amount:            amount,
	}
}

// Withdraw builds a withdrawal of amount from wallet's escrow.
func Withdraw(h House, wallet *testing.Account, amount uint64) *ahtx.Withdraw {
	return &ahtx.Withdraw{
		Wallet:            wallet.PublicKey(),
		ReceiptAccount:    h.PaymentAccount(wallet),
		TreasuryMint:      h.TreasuryMint,
		Authority:         h.Authority.PublicKey(),
		AuctionHouse:      h.Key,
		EscrowPaymentBump: h.Escrow(wallet).Bump,
		Amount:            amount,
	}
}

// Listing is a seller's order on the units of an asset.
type Listing struct {
	House  House
	Seller *testing.Account
	Asset  testing.Asset
	Price  uint64
	Size   uint64

	auctioneer *testing.Account
}

// List describes seller offering size units of asset at price.
func List(h House, seller *testing.Account, asset testing.Asset, price, size uint64) *Listing {
	return &Listing{House: h, Seller: seller, Asset: asset, Price: price, Size: size}
}

// Auctioneer routes the listing through a delegated auctioneer.
func (l *Listing) Auctioneer(authority *testing.Account) *Listing {
	l.auctioneer = authority
	return l
}

func (l *Listing) seedPrice() uint64 {
	if l.auctioneer != nil {
		return ahtx.AuctioneerPrice
	}
	return l.Price
}

// TradeState returns the seller's trade state.
func (l *Listing) TradeState() keylet.Keylet {
	return keylet.TradeState(l.Seller.PublicKey(), l.House.Key, l.Asset.TokenAccount, l.House.TreasuryMint, l.Asset.Mint, l.seedPrice(), l.Size)
}

// FreeTradeState returns the zero-price companion trade state.
func (l *Listing) FreeTradeState() keylet.Keylet {
	return keylet.FreeTradeState(l.Seller.PublicKey(), l.House.Key, l.Asset.TokenAccount, l.House.TreasuryMint, l.Asset.Mint, l.Size)
}

// Build constructs sell, or auctioneer_sell for auctioneer listings.
func (l *Listing) Build() tx.Instruction {
	sell := ahtx.Sell{
		Wallet:               l.Seller.PublicKey(),
		TokenAccount:         l.Asset.TokenAccount,
		Metadata:             l.Asset.Metadata,
		Authority:            l.House.Authority.PublicKey(),
		AuctionHouse:         l.House.Key,
		SellerTradeState:     l.TradeState().Key,
		FreeSellerTradeState: l.FreeTradeState().Key,
		TradeStateBump:       l.TradeState().Bump,
		FreeTradeStateBump:   l.FreeTradeState().Bump,
		ProgramAsSignerBump:  keylet.ProgramAsSigner().Bump,
		BuyerPrice:           l.Price,
		TokenSize:            l.Size,
	}
	if l.auctioneer != nil {
		return &ahtx.AuctioneerSell{Sell: sell, AuctioneerAuthority: l.auctioneer.PublicKey()}
	}
	return &sell
}

// Cancel builds the cancellation of the listing.
func (l *Listing) Cancel() *ahtx.Cancel {
	return &ahtx.Cancel{
		Wallet:       l.Seller.PublicKey(),
		TokenAccount: l.Asset.TokenAccount,
		TokenMint:    l.Asset.Mint,
		Authority:    l.House.Authority.PublicKey(),
		AuctionHouse: l.House.Key,
		TradeState:   l.TradeState().Key,
		BuyerPrice:   l.seedPrice(),
		TokenSize:    l.Size,
	}
}

// Bid is a buyer's order on the units of an asset.
type Bid struct {
	House  House
	Buyer  *testing.Account
	Asset  testing.Asset
	Price  uint64
	Size   uint64
	Public bool
}

// Offer describes buyer bidding price for size units of asset.
func Offer(h House, buyer *testing.Account, asset testing.Asset, price, size uint64) *Bid {
	return &Bid{House: h, Buyer: buyer, Asset: asset, Price: price, Size: size}
}

// AnyAccount makes the bid public: it is not bound to the token account.
func (b *Bid) AnyAccount() *Bid {
	b.Public = true
	return b
}

// TradeState returns the buyer's trade state.
func (b *Bid) TradeState() keylet.Keylet {
	if b.Public {
		return keylet.PublicTradeState(b.Buyer.PublicKey(), b.House.Key, b.House.TreasuryMint, b.Asset.Mint, b.Price, b.Size)
	}
	return keylet.TradeState(b.Buyer.PublicKey(), b.House.Key, b.Asset.TokenAccount, b.House.TreasuryMint, b.Asset.Mint, b.Price, b.Size)
}

// Build constructs buy, or public_buy for public bids.
func (b *Bid) Build() tx.Instruction {
	bid := ahtx.Bid{
		Wallet:            b.Buyer.PublicKey(),
		PaymentAccount:    b.House.PaymentAccount(b.Buyer),
		TransferAuthority: b.Buyer.PublicKey(),
		TreasuryMint:      b.House.TreasuryMint,
		TokenAccount:      b.Asset.TokenAccount,
		Metadata:          b.Asset.Metadata,
		Authority:         b.House.Authority.PublicKey(),
		AuctionHouse:      b.House.Key,
		BuyerTradeState:   b.TradeState().Key,
		EscrowPaymentBump: b.House.Escrow(b.Buyer).Bump,
		TradeStateBump:    b.TradeState().Bump,
		BuyerPrice:        b.Price,
		TokenSize:         b.Size,
	}
	if b.Public {
		return &ahtx.PublicBuy{Bid: bid}
	}
	return &ahtx.Buy{Bid: bid}
}

// Cancel builds the cancellation of the bid.
func (b *Bid) Cancel() *ahtx.Cancel {
	return &ahtx.Cancel{
		Wallet:       b.Buyer.PublicKey(),
		TokenAccount: b.Asset.TokenAccount,
		TokenMint:    b.Asset.Mint,
		Authority:    b.House.Authority.PublicKey(),
		AuctionHouse: b.House.Key,
		TradeState:   b.TradeState().Key,
		BuyerPrice:   b.Price,
		TokenSize:    b.Size,
	}
}

// SaleBuilder builds execute_sale for a listing and a bid.
type SaleBuilder struct {
	listing       *Listing
	bid           *Bid
	creators      []solana.PublicKey
	partialSize   *uint64
	partialPrice  *uint64
	buyerState    *solana.PublicKey
	sellerReceipt *solana.PublicKey
	metadata      *solana.PublicKey
}

// Sale matches bid against listing. When the bid is smaller than the
// listing it is settled as a partial fill at the bid's terms.
func Sale(listing *Listing, bid *Bid, creators ...solana.PublicKey) *SaleBuilder {
	b := &SaleBuilder{listing: listing, bid: bid, creators: creators}
	if bid.Size != listing.Size {
		size, price := bid.Size, bid.Price
		b.partialSize, b.partialPrice = &size, &price
	}
	return b
}

// Partial overrides the partial fill terms.
func (b *SaleBuilder) Partial(size, price uint64) *SaleBuilder {
	b.partialSize, b.partialPrice = &size, &price
	return b
}

// PartialSizeOnly sends a partial size without a partial price.
func (b *SaleBuilder) PartialSizeOnly(size uint64) *SaleBuilder {
	b.partialSize, b.partialPrice = &size, nil
	return b
}

// BuyerTradeState overrides the buyer trade state account.
func (b *SaleBuilder) BuyerTradeState(key solana.PublicKey) *SaleBuilder {
	b.buyerState = &key
	return b
}

// SellerReceipt overrides the account receiving the seller's proceeds.
func (b *SaleBuilder) SellerReceipt(key solana.PublicKey) *SaleBuilder {
	b.sellerReceipt = &key
	return b
}

// Metadata overrides the metadata account passed for the asset.
func (b *SaleBuilder) Metadata(key solana.PublicKey) *SaleBuilder {
	b.metadata = &key
	return b
}

// Build constructs execute_sale, or auctioneer_execute_sale when the
// listing was made through an auctioneer.
func (b *SaleBuilder) Build() tx.Instruction {
	l, h := b.listing, b.listing.House
	buyerState := b.bid.TradeState().Key
	if b.buyerState != nil {
		buyerState = *b.buyerState
	}
	sellerReceipt := h.PaymentAccount(l.Seller)
	if b.sellerReceipt != nil {
		sellerReceipt = *b.sellerReceipt
	}
	metadata := l.Asset.Metadata
	if b.metadata != nil {
		metadata = *b.metadata
	}
	sale := ahtx.ExecuteSale{
		Buyer:                       b.bid.Buyer.PublicKey(),
		Seller:                      l.Seller.PublicKey(),
		TokenAccount:                l.Asset.TokenAccount,
		TokenMint:                   l.Asset.Mint,
		Metadata:                    metadata,
		TreasuryMint:                h.TreasuryMint,
		SellerPaymentReceiptAccount: sellerReceipt,
		BuyerReceiptTokenAccount:    keylet.AssociatedToken(b.bid.Buyer.PublicKey(), l.Asset.Mint).Key,
		Authority:                   h.Authority.PublicKey(),
		AuctionHouse:                h.Key,
		BuyerTradeState:             buyerState,
		SellerTradeState:            l.TradeState().Key,
		FreeTradeState:              l.FreeTradeState().Key,
		EscrowPaymentBump:           h.Escrow(b.bid.Buyer).Bump,
		FreeTradeStateBump:          l.FreeTradeState().Bump,
		ProgramAsSignerBump:         keylet.ProgramAsSigner().Bump,
		BuyerPrice:                  l.Price,
		TokenSize:                   l.Size,
		PartialOrderSize:            b.partialSize,
		PartialOrderPrice:           b.partialPrice,
		Creators:                    b.creators,
	}
	if l.auctioneer != nil {
		return &ahtx.AuctioneerExecuteSale{ExecuteSale: sale, AuctioneerAuthority: l.auctioneer.PublicKey()}
	}
	return &sale
}

// DelegateAuctioneer builds the delegation of scopes to auctioneer.
func DelegateAuctioneer(h House, auctioneer *testing.Account, scopes ...ahtx.AuthorityScope) *ahtx.DelegateAuctioneer {
	return &ahtx.DelegateAuctioneer{
		AuctionHouse:        h.Key,
		Authority:           h.Authority.PublicKey(),
		AuctioneerAuthority: auctioneer.PublicKey(),
		Scopes:              scopes,
	}
}

// WithdrawFromFee builds a withdrawal from the fee account to the
// authority.
func WithdrawFromFee(h House, amount uint64) *ahtx.WithdrawFromFee {
	return &ahtx.WithdrawFromFee{
		Authority:                h.Authority.PublicKey(),
		FeeWithdrawalDestination: h.Authority.PublicKey(),
		AuctionHouse:             h.Key,
		Amount:                   amount,
	}
}

// WithdrawFromTreasury builds a withdrawal of collected fees to the
// authority, or its associated token account for token houses.
func WithdrawFromTreasury(h House, amount uint64) *ahtx.WithdrawFromTreasury {
	return &ahtx.WithdrawFromTreasury{
		Authority:                     h.Authority.PublicKey(),
		TreasuryMint:                  h.TreasuryMint,
		TreasuryWithdrawalDestination: h.PaymentAccount(h.Authority),
		AuctionHouse:                  h.Key,
		Amount:                        amount,
	}
}
