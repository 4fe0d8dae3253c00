package auctionhouse

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AuthorityScope is an operation an auctioneer may perform on behalf of a
// house.
type AuthorityScope uint8

const (
	ScopeDeposit AuthorityScope = iota
	ScopeBuy
	ScopePublicBuy
	ScopeExecuteSale
	ScopeSell
	ScopeCancel
	ScopeWithdraw

	// MaxScopes is the number of defined scopes.
	MaxScopes = 7
)

var scopeNames = [MaxScopes]string{"deposit", "buy", "public_buy", "execute_sale", "sell", "cancel", "withdraw"}

func (s AuthorityScope) String() string {
	if int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return fmt.Sprintf("scope(%d)", uint8(s))
}

// Account sizes, including the 8-byte discriminator.
const (
	discriminatorSize = 8
	AuctionHouseSize  = discriminatorSize + 7*32 + 3 + 2 + 2 + 1 + 1 + 32 + MaxScopes
	AuctioneerSize    = discriminatorSize + 32 + 32 + 1
	TradeStateSize    = 1
)

var (
	auctionHouseDiscriminator = bin.Sighash("account", "AuctionHouse")
	auctioneerDiscriminator   = bin.Sighash("account", "Auctioneer")

	// ErrAccountDiscriminator is returned when account data belongs to
	// another account type.
	ErrAccountDiscriminator = errors.New("account discriminator mismatch")
)

// AuctionHouse is the configuration of one marketplace instance. It is not
// modified by sales.
type AuctionHouse struct {
	AuctionHouseFeeAccount        solana.PublicKey `json:"auction_house_fee_account"`
	AuctionHouseTreasury          solana.PublicKey `json:"auction_house_treasury"`
	TreasuryWithdrawalDestination solana.PublicKey `json:"treasury_withdrawal_destination"`
	FeeWithdrawalDestination      solana.PublicKey `json:"fee_withdrawal_destination"`
	TreasuryMint                  solana.PublicKey `json:"treasury_mint"`
	Authority                     solana.PublicKey `json:"authority"`
	Creator                       solana.PublicKey `json:"creator"`
	Bump                          uint8            `json:"bump"`
	TreasuryBump                  uint8            `json:"treasury_bump"`
	FeePayerBump                  uint8            `json:"fee_payer_bump"`
	SellerFeeBasisPoints          uint16           `json:"seller_fee_basis_points"`
	RequiresSignOff               bool             `json:"requires_sign_off"`
	CanChangeSalePrice            bool             `json:"can_change_sale_price"`
	EscrowPaymentBump             uint8            `json:"escrow_payment_bump"`
	HasAuctioneer                 bool             `json:"has_auctioneer"`
	AuctioneerAddress             solana.PublicKey `json:"auctioneer_address"`
	Scopes                        [MaxScopes]bool  `json:"scopes"`
}

// IsNative reports whether the house settles in lamports.
func (h *AuctionHouse) IsNative() bool {
	return h.TreasuryMint.Equals(solana.SolMint)
}

// HasScope reports whether the delegated auctioneer may perform scope.
func (h *AuctionHouse) HasScope(scope AuthorityScope) bool {
	return int(scope) < MaxScopes && h.Scopes[scope]
}

// Pack encodes the house record padded to AuctionHouseSize.
func (h *AuctionHouse) Pack() ([]byte, error) {
	return packAccount(auctionHouseDiscriminator, h, AuctionHouseSize)
}

// UnpackAuctionHouse decodes a house record.
func UnpackAuctionHouse(data []byte) (*AuctionHouse, error) {
	var h AuctionHouse
	if err := unpackAccount(auctionHouseDiscriminator, data, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Auctioneer records the delegation of a house to an auctioneer authority.
type Auctioneer struct {
	AuctioneerAuthority solana.PublicKey `json:"auctioneer_authority"`
	AuctionHouse        solana.PublicKey `json:"auction_house"`
	Bump                uint8            `json:"bump"`
}

// Pack encodes the delegation record.
func (a *Auctioneer) Pack() ([]byte, error) {
	return packAccount(auctioneerDiscriminator, a, AuctioneerSize)
}

// UnpackAuctioneer decodes a delegation record.
func UnpackAuctioneer(data []byte) (*Auctioneer, error) {
	var a Auctioneer
	if err := unpackAccount(auctioneerDiscriminator, data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func packAccount(discriminator []byte, v any, size int) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator)
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	if buf.Len() > size {
		return nil, fmt.Errorf("encoded account is %d bytes, limit %d", buf.Len(), size)
	}
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out, nil
}

func unpackAccount(discriminator, data []byte, v any) error {
	if len(data) < discriminatorSize || !bytes.Equal(data[:discriminatorSize], discriminator) {
		return ErrAccountDiscriminator
	}
	return bin.NewBorshDecoder(data[discriminatorSize:]).Decode(v)
}

// TradeState is the liveness marker of a standing order. A live order
// stores its derivation bump; a closed one is empty, zeroed or absent.
type TradeState struct {
	Bump uint8
}

// Closed is the state of a consumed, cancelled or never created order.
var Closed = TradeState{}

// ParseTradeState reads the marker from account data.
func ParseTradeState(data []byte) TradeState {
	if len(data) == 0 {
		return Closed
	}
	return TradeState{Bump: data[0]}
}

// Live reports whether the order can still be matched.
func (s TradeState) Live() bool {
	return s.Bump != 0
}

// Bytes returns the account data of the marker.
func (s TradeState) Bytes() []byte {
	return []byte{s.Bump}
}
