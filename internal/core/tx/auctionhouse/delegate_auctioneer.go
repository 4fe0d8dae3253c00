package auctionhouse

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
)

// DelegateAuctioneer hands a set of operations of a house to an auctioneer
// program authority. A house can be delegated once.
type DelegateAuctioneer struct {
	AuctionHouse        solana.PublicKey `json:"auction_house"`
	Authority           solana.PublicKey `json:"authority"`
	AuctioneerAuthority solana.PublicKey `json:"auctioneer_authority"`
	Scopes              []AuthorityScope `json:"scopes"`
}

func (d *DelegateAuctioneer) ProgramID() solana.PublicKey { return ProgramID }
func (d *DelegateAuctioneer) Name() string                { return "delegate_auctioneer" }

func (d *DelegateAuctioneer) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(d.AuctionHouse),
		tx.Writable(d.Authority),
		tx.ReadOnly(d.AuctioneerAuthority),
		tx.Writable(keylet.Auctioneer(d.AuctionHouse, d.AuctioneerAuthority).Key),
	}
}

func (d *DelegateAuctioneer) Validate() error {
	if d.AuctionHouse.IsZero() || d.Authority.IsZero() || d.AuctioneerAuthority.IsZero() {
		return errors.New("auction house, authority and auctioneer authority are required")
	}
	return nil
}

func (d *DelegateAuctioneer) Apply(ctx *tx.ApplyContext) tx.Result {
	if len(d.Scopes) > MaxScopes {
		return ResultTooManyScopes
	}
	h, r := LoadHouse(ctx, d.AuctionHouse)
	if r != tx.TesSUCCESS {
		return r
	}
	if !h.Authority.Equals(d.Authority) {
		return ResultPublicKeyMismatch
	}
	if r := ctx.RequireSigner(d.Authority); r != tx.TesSUCCESS {
		return r
	}
	if h.HasAuctioneer {
		return ResultAuctionHouseAlreadyDelegated
	}

	record := keylet.Auctioneer(d.AuctionHouse, d.AuctioneerAuthority)
	existing, r := ctx.Account(record.Key)
	if r != tx.TesSUCCESS {
		return r
	}
	if existing != nil {
		return ResultAuctionHouseAlreadyDelegated
	}
	if r := system.InvokeCreateRentExempt(ctx, d.Authority, record.Key, AuctioneerSize, ProgramID, record.SignerSeeds()); r != tx.TesSUCCESS {
		return r
	}
	acct, r := ctx.Account(record.Key)
	if r != tx.TesSUCCESS {
		return r
	}
	data, err := (&Auctioneer{
		AuctioneerAuthority: d.AuctioneerAuthority,
		AuctionHouse:        d.AuctionHouse,
		Bump:                record.Bump,
	}).Pack()
	if err != nil {
		ctx.Logf("pack auctioneer: %v", err)
		return tx.TefINTERNAL
	}
	acct.Data = data
	if r := ctx.Store(record.Key, acct); r != tx.TesSUCCESS {
		return r
	}

	h.HasAuctioneer = true
	h.AuctioneerAddress = record.Key
	h.Scopes = [MaxScopes]bool{}
	for _, s := range d.Scopes {
		if int(s) >= MaxScopes {
			return ResultMissingAuctioneerScope
		}
		h.Scopes[s] = true
	}
	return storeHouse(ctx, d.AuctionHouse, h)
}

// loadAuctioneer checks that the house delegates to auctioneerAuthority
// and that the authority signed.
func loadAuctioneer(ctx *tx.ApplyContext, house solana.PublicKey, h *AuctionHouse, auctioneerAuthority solana.PublicKey, scope AuthorityScope) tx.Result {
	if !h.HasAuctioneer {
		return ResultNoAuctioneerProgramSet
	}
	record := keylet.Auctioneer(house, auctioneerAuthority).Key
	if !h.AuctioneerAddress.Equals(record) {
		ctx.Logf("auctioneer %s is not delegated by %s", auctioneerAuthority, house)
		return ResultInvalidSeedsOrNotDelegated
	}
	acct, r := ctx.Account(record)
	if r != tx.TesSUCCESS {
		return r
	}
	if acct == nil || !acct.Owner.Equals(ProgramID) {
		return ResultInvalidSeedsOrNotDelegated
	}
	a, err := UnpackAuctioneer(acct.Data)
	if err != nil || !a.AuctionHouse.Equals(house) || !a.AuctioneerAuthority.Equals(auctioneerAuthority) {
		return ResultInvalidSeedsOrNotDelegated
	}
	if r := ctx.RequireSigner(auctioneerAuthority); r != tx.TesSUCCESS {
		return r
	}
	if !h.HasScope(scope) {
		ctx.Logf("auctioneer lacks scope %s", scope)
		return ResultMissingAuctioneerScope
	}
	return tx.TesSUCCESS
}
