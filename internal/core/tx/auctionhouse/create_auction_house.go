package auctionhouse

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
)

// CreateAuctionHouse creates a marketplace instance for Authority settling
// in TreasuryMint. For token houses the treasury is a token account owned
// by the house; for native houses it is a system account funded to the
// rent-exempt minimum.
type CreateAuctionHouse struct {
	Payer                              solana.PublicKey `json:"payer"`
	Authority                          solana.PublicKey `json:"authority"`
	TreasuryMint                       solana.PublicKey `json:"treasury_mint"`
	FeeWithdrawalDestination           solana.PublicKey `json:"fee_withdrawal_destination"`
	TreasuryWithdrawalDestinationOwner solana.PublicKey `json:"treasury_withdrawal_destination_owner"`
	Bump                               uint8            `json:"bump"`
	FeePayerBump                       uint8            `json:"fee_payer_bump"`
	TreasuryBump                       uint8            `json:"treasury_bump"`
	SellerFeeBasisPoints               uint16           `json:"seller_fee_basis_points"`
	RequiresSignOff                    bool             `json:"requires_sign_off"`
	CanChangeSalePrice                 bool             `json:"can_change_sale_price"`
}

func (c *CreateAuctionHouse) ProgramID() solana.PublicKey { return ProgramID }
func (c *CreateAuctionHouse) Name() string                { return "create_auction_house" }

// TreasuryWithdrawalDestination is the owner itself for native houses and
// its associated token account otherwise.
func (c *CreateAuctionHouse) TreasuryWithdrawalDestination() solana.PublicKey {
	if c.TreasuryMint.Equals(solana.SolMint) {
		return c.TreasuryWithdrawalDestinationOwner
	}
	return keylet.AssociatedToken(c.TreasuryWithdrawalDestinationOwner, c.TreasuryMint).Key
}

func (c *CreateAuctionHouse) Accounts() []tx.AccountMeta {
	house := keylet.AuctionHouse(c.Authority, c.TreasuryMint).Key
	return []tx.AccountMeta{
		tx.Writable(c.Payer),
		tx.ReadOnly(c.Authority),
		tx.ReadOnly(c.TreasuryMint),
		tx.ReadOnly(c.FeeWithdrawalDestination),
		tx.ReadOnly(c.TreasuryWithdrawalDestinationOwner),
		tx.Writable(c.TreasuryWithdrawalDestination()),
		tx.Writable(house),
		tx.Writable(keylet.AuctionHouseFeeAccount(house).Key),
		tx.Writable(keylet.AuctionHouseTreasury(house).Key),
	}
}

func (c *CreateAuctionHouse) Validate() error {
	if c.Payer.IsZero() || c.Authority.IsZero() || c.TreasuryMint.IsZero() {
		return errors.New("payer, authority and treasury mint are required")
	}
	if c.FeeWithdrawalDestination.IsZero() || c.TreasuryWithdrawalDestinationOwner.IsZero() {
		return errors.New("withdrawal destinations are required")
	}
	return nil
}

func (c *CreateAuctionHouse) Apply(ctx *tx.ApplyContext) tx.Result {
	if c.SellerFeeBasisPoints > MaxBasisPoints {
		return ResultInvalidBasisPoints
	}
	if r := ctx.RequireSigner(c.Payer); r != tx.TesSUCCESS {
		return r
	}

	houseSeeds := keylet.AuctionHouseSeeds(c.Authority, c.TreasuryMint)
	house := keylet.AuctionHouse(c.Authority, c.TreasuryMint).Key
	if r := verifyAddress(ctx, houseSeeds, c.Bump, house); r != tx.TesSUCCESS {
		return r
	}
	feeAccount := keylet.AuctionHouseFeeAccount(house).Key
	if r := verifyAddress(ctx, keylet.AuctionHouseFeeAccountSeeds(house), c.FeePayerBump, feeAccount); r != tx.TesSUCCESS {
		return r
	}
	treasurySeeds := keylet.AuctionHouseTreasurySeeds(house)
	treasury := keylet.AuctionHouseTreasury(house).Key
	if r := verifyAddress(ctx, treasurySeeds, c.TreasuryBump, treasury); r != tx.TesSUCCESS {
		return r
	}
	native := c.TreasuryMint.Equals(solana.SolMint)
	if native {
		if r := fundToRentExempt(ctx, c.Payer, treasury); r != tx.TesSUCCESS {
			return r
		}
	} else {
		if _, _, r := token.LoadMint(ctx, c.TreasuryMint); r != tx.TesSUCCESS {
			return r
		}
		if r := system.InvokeCreateRentExempt(ctx, c.Payer, treasury, token.AccountSize, solana.TokenProgramID,
			keylet.WithBump(treasurySeeds, c.TreasuryBump)); r != tx.TesSUCCESS {
			return r
		}
		if r := token.InvokeInitializeAccount(ctx, treasury, c.TreasuryMint, house); r != tx.TesSUCCESS {
			return r
		}
		if _, r := token.InvokeCreateAssociatedAccount(ctx, c.Payer, c.TreasuryWithdrawalDestinationOwner, c.TreasuryMint); r != tx.TesSUCCESS {
			return r
		}
	}

	if r := system.InvokeCreateRentExempt(ctx, c.Payer, house, AuctionHouseSize, ProgramID,
		keylet.WithBump(houseSeeds, c.Bump)); r != tx.TesSUCCESS {
		return r
	}
	return storeHouse(ctx, house, &AuctionHouse{
		AuctionHouseFeeAccount:        feeAccount,
		AuctionHouseTreasury:          treasury,
		TreasuryWithdrawalDestination: c.TreasuryWithdrawalDestination(),
		FeeWithdrawalDestination:      c.FeeWithdrawalDestination,
		TreasuryMint:                  c.TreasuryMint,
		Authority:                     c.Authority,
		Creator:                       c.Authority,
		Bump:                          c.Bump,
		TreasuryBump:                  c.TreasuryBump,
		FeePayerBump:                  c.FeePayerBump,
		SellerFeeBasisPoints:          c.SellerFeeBasisPoints,
		RequiresSignOff:               c.RequiresSignOff,
		CanChangeSalePrice:            c.CanChangeSalePrice,
	})
}

// fundToRentExempt tops a data-free system account up to the rent-exempt
// minimum from payer.
func fundToRentExempt(ctx *tx.ApplyContext, from solana.PublicKey, key solana.PublicKey, signerSeeds ...[][]byte) tx.Result {
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return r
	}
	minimum := ctx.Rent().MinimumBalance(0)
	var have uint64
	if acct != nil {
		have = acct.Lamports
	}
	if have >= minimum {
		return tx.TesSUCCESS
	}
	return system.InvokeTransfer(ctx, from, key, minimum-have, signerSeeds...)
}
