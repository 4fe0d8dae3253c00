// Package auctionhouse implements an escrowed NFT marketplace. Sellers list
// by approving the program as delegate of their token account, buyers bid
// by funding a per-house escrow, and execute_sale settles a matched pair
// with royalties and a house fee, supporting partial fills.
package auctionhouse

import (
	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
)

// ProgramID is the auction house program.
var ProgramID = keylet.AuctionHouseProgramID

func init() {
	tx.RegisterProgram(ProgramID, "auction-house")
	tx.Register(ProgramID, "create_auction_house", func() tx.Instruction { return &CreateAuctionHouse{} })
	tx.Register(ProgramID, "delegate_auctioneer", func() tx.Instruction { return &DelegateAuctioneer{} })
	tx.Register(ProgramID, "deposit", func() tx.Instruction { return &Deposit{} })
	tx.Register(ProgramID, "withdraw", func() tx.Instruction { return &Withdraw{} })
	tx.Register(ProgramID, "withdraw_from_fee", func() tx.Instruction { return &WithdrawFromFee{} })
	tx.Register(ProgramID, "withdraw_from_treasury", func() tx.Instruction { return &WithdrawFromTreasury{} })
	tx.Register(ProgramID, "sell", func() tx.Instruction { return &Sell{} })
	tx.Register(ProgramID, "auctioneer_sell", func() tx.Instruction { return &AuctioneerSell{} })
	tx.Register(ProgramID, "buy", func() tx.Instruction { return &Buy{} })
	tx.Register(ProgramID, "public_buy", func() tx.Instruction { return &PublicBuy{} })
	tx.Register(ProgramID, "cancel", func() tx.Instruction { return &Cancel{} })
	tx.Register(ProgramID, "execute_sale", func() tx.Instruction { return &ExecuteSale{} })
	tx.Register(ProgramID, "auctioneer_execute_sale", func() tx.Instruction { return &AuctioneerExecuteSale{} })
}

// LoadHouse reads the house record stored under key.
func LoadHouse(ctx *tx.ApplyContext, key solana.PublicKey) (*AuctionHouse, tx.Result) {
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return nil, r
	}
	if acct == nil {
		return nil, ResultUninitializedAccount
	}
	if !acct.Owner.Equals(ProgramID) {
		return nil, ResultIncorrectOwner
	}
	h, err := UnpackAuctionHouse(acct.Data)
	if err != nil {
		ctx.Logf("auction house %s: %v", key, err)
		return nil, ResultUninitializedAccount
	}
	return h, tx.TesSUCCESS
}

// ReadHouse decodes the house record under key without a context. It
// returns nil when the account is absent or not a house.
func ReadHouse(view tx.LedgerView, key solana.PublicKey) (*AuctionHouse, error) {
	acct, err := view.Read(key)
	if err != nil || acct == nil || !acct.Owner.Equals(ProgramID) {
		return nil, err
	}
	return UnpackAuctionHouse(acct.Data)
}

func storeHouse(ctx *tx.ApplyContext, key solana.PublicKey, h *AuctionHouse) tx.Result {
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return r
	}
	data, err := h.Pack()
	if err != nil {
		ctx.Logf("pack auction house: %v", err)
		return tx.TefINTERNAL
	}
	acct.Data = data
	return ctx.Store(key, acct)
}

func houseSignerSeeds(h *AuctionHouse) [][]byte {
	return keylet.WithBump(keylet.AuctionHouseSeeds(h.Creator, h.TreasuryMint), h.Bump)
}

func feeSignerSeeds(house solana.PublicKey, h *AuctionHouse) [][]byte {
	return keylet.WithBump(keylet.AuctionHouseFeeAccountSeeds(house), h.FeePayerBump)
}

// payer funds account creation and rent top-ups. seeds is nil when the
// payer signed the transaction itself.
type payer struct {
	Key   solana.PublicKey
	seeds [][]byte
}

// signers returns extra followed by the payer's own signer seeds.
func (p payer) signers(extra ...[][]byte) [][][]byte {
	if p.seeds != nil {
		extra = append(extra, p.seeds)
	}
	return extra
}

// selectPayer picks who pays for an operation. When the house authority
// signs, the house fee account pays. Otherwise the first signing wallet
// pays, unless the house requires sign-off.
func selectPayer(ctx *tx.ApplyContext, house solana.PublicKey, h *AuctionHouse, wallets ...solana.PublicKey) (payer, tx.Result) {
	if ctx.IsSigner(h.Authority) {
		return payer{Key: h.AuctionHouseFeeAccount, seeds: feeSignerSeeds(house, h)}, tx.TesSUCCESS
	}
	for _, w := range wallets {
		if !ctx.IsSigner(w) {
			continue
		}
		if h.RequiresSignOff {
			return payer{}, ResultCannotTakeThisActionWithoutSignOff
		}
		return payer{Key: w}, tx.TesSUCCESS
	}
	return payer{}, ResultNoPayerPresent
}

// createTradeState allocates a live trade state at the address derived
// from seeds and bump, unless one is already live there.
func createTradeState(ctx *tx.ApplyContext, p payer, key solana.PublicKey, seeds [][]byte, bump uint8) tx.Result {
	ts, r := loadTradeState(ctx, key)
	if r != tx.TesSUCCESS {
		return r
	}
	if ts.Live() {
		return tx.TesSUCCESS
	}
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return r
	}
	if acct == nil {
		signer := keylet.WithBump(seeds, bump)
		if r := system.InvokeCreateRentExempt(ctx, p.Key, key, TradeStateSize, ProgramID, p.signers(signer)...); r != tx.TesSUCCESS {
			return r
		}
		if acct, r = ctx.Account(key); r != tx.TesSUCCESS {
			return r
		}
	}
	acct.Data = TradeState{Bump: bump}.Bytes()
	return ctx.Store(key, acct)
}

// closeProgramAccount zeroes an account owned by the program and moves its
// lamports to dest, which erases it.
func closeProgramAccount(ctx *tx.ApplyContext, key, dest solana.PublicKey) tx.Result {
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return r
	}
	if acct == nil {
		return tx.TesSUCCESS
	}
	if !acct.Owner.Equals(ProgramID) {
		return ResultIncorrectOwner
	}
	lamports := acct.Lamports
	if r := ctx.Store(key, &ledger.Account{Lamports: lamports, Owner: ProgramID, Data: make([]byte, len(acct.Data))}); r != tx.TesSUCCESS {
		return r
	}
	return ctx.MoveLamports(key, dest, lamports)
}

// ensureReceipt creates wallet's associated token account for mint at
// receipt when absent. An existing account with a delegate fails with
// delegateErr.
func ensureReceipt(ctx *tx.ApplyContext, p payer, wallet, mint, receipt solana.PublicKey, delegateErr tx.Result) tx.Result {
	missing, r := inspectReceipt(ctx, wallet, mint, receipt, delegateErr)
	if r != tx.TesSUCCESS || !missing {
		return r
	}
	_, r = token.InvokeCreateAssociatedAccount(ctx, p.Key, wallet, mint, p.signers()...)
	return r
}

// inspectReceipt checks receipt without changing anything. It must be the
// associated account of wallet for mint and, when it exists, pass
// checkReceipt. missing reports that it is yet to be created.
func inspectReceipt(ctx *tx.ApplyContext, wallet, mint, receipt solana.PublicKey, delegateErr tx.Result) (missing bool, r tx.Result) {
	if !receipt.Equals(keylet.AssociatedToken(wallet, mint).Key) {
		ctx.Logf("receipt %s is not the associated account of %s", receipt, wallet)
		return false, ResultPublicKeyMismatch
	}
	acct, r := ctx.Account(receipt)
	if r != tx.TesSUCCESS {
		return false, r
	}
	if acct == nil {
		return true, tx.TesSUCCESS
	}
	return false, checkReceipt(ctx, wallet, mint, receipt, delegateErr)
}

// checkReceipt validates an existing receipt token account.
func checkReceipt(ctx *tx.ApplyContext, wallet, mint, receipt solana.PublicKey, delegateErr tx.Result) tx.Result {
	a, _, r := token.LoadAccount(ctx, receipt)
	if r != tx.TesSUCCESS {
		return r
	}
	if !a.Owner.Equals(wallet) {
		return ResultIncorrectOwner
	}
	if !a.Mint.Equals(mint) {
		return ResultPublicKeyMismatch
	}
	if a.Delegate != nil {
		ctx.Logf("receipt %s has delegate %s", receipt, *a.Delegate)
		return delegateErr
	}
	return tx.TesSUCCESS
}

// loadMetadata checks that key is the metadata record of mint and reads it.
func loadMetadata(ctx *tx.ApplyContext, mint, key solana.PublicKey) (*tokenmetadata.Metadata, tx.Result) {
	if !keylet.Metadata(mint).Key.Equals(key) {
		ctx.Logf("metadata %s does not derive from mint %s", key, mint)
		return nil, ResultDerivedKeyInvalid
	}
	md, _, r := tokenmetadata.Load(ctx, key)
	if r != tx.TesSUCCESS {
		ctx.Logf("metadata %s: %s", key, r)
		return nil, ResultMetadataDoesntExist
	}
	if !md.Mint.Equals(mint) {
		return nil, ResultPublicKeyMismatch
	}
	return md, tx.TesSUCCESS
}

// escrowKey returns the escrow payment account of wallet in house.
func escrowKey(house, wallet solana.PublicKey) solana.PublicKey {
	return keylet.Escrow(house, wallet).Key
}
