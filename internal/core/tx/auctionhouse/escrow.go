package auctionhouse

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
)

// ensureEscrow prepares a buyer's escrow to receive funds. A native escrow
// is topped up to the rent-exempt minimum; a token escrow is created as a
// token account owned by the house.
func ensureEscrow(ctx *tx.ApplyContext, p payer, house solana.PublicKey, h *AuctionHouse, escrow solana.PublicKey, escrowSeeds [][]byte) tx.Result {
	if h.IsNative() {
		return fundToRentExempt(ctx, p.Key, escrow, p.signers()...)
	}
	acct, r := ctx.Account(escrow)
	if r != tx.TesSUCCESS {
		return r
	}
	if acct != nil {
		a, _, r := token.LoadAccount(ctx, escrow)
		if r != tx.TesSUCCESS {
			return r
		}
		if !a.Owner.Equals(house) || !a.Mint.Equals(h.TreasuryMint) {
			return ResultPublicKeyMismatch
		}
		return tx.TesSUCCESS
	}
	if r := system.InvokeCreateRentExempt(ctx, p.Key, escrow, token.AccountSize, solana.TokenProgramID, p.signers(escrowSeeds)...); r != tx.TesSUCCESS {
		return r
	}
	return token.InvokeInitializeAccount(ctx, escrow, h.TreasuryMint, house)
}

// escrowBalance returns the lamports of a native escrow or the token amount
// of a token escrow.
func escrowBalance(ctx *tx.ApplyContext, h *AuctionHouse, escrow solana.PublicKey) (uint64, tx.Result) {
	acct, r := ctx.Account(escrow)
	if r != tx.TesSUCCESS || acct == nil {
		return 0, r
	}
	if h.IsNative() {
		return acct.Lamports, tx.TesSUCCESS
	}
	a, _, r := token.LoadAccount(ctx, escrow)
	if r != tx.TesSUCCESS {
		return 0, r
	}
	return a.Amount, tx.TesSUCCESS
}

// checkHouse loads the house and checks the authority and treasury mint
// named by an instruction against it.
func checkHouse(ctx *tx.ApplyContext, house, authority, treasuryMint solana.PublicKey) (*AuctionHouse, tx.Result) {
	h, r := LoadHouse(ctx, house)
	if r != tx.TesSUCCESS {
		return nil, r
	}
	if !h.Authority.Equals(authority) {
		ctx.Logf("authority %s does not match house authority %s", authority, h.Authority)
		return nil, ResultPublicKeyMismatch
	}
	if !treasuryMint.IsZero() && !h.TreasuryMint.Equals(treasuryMint) {
		ctx.Logf("treasury mint %s does not match house mint %s", treasuryMint, h.TreasuryMint)
		return nil, ResultPublicKeyMismatch
	}
	return h, tx.TesSUCCESS
}

// Deposit moves funds from a wallet into its escrow in a house.
type Deposit struct {
	Wallet            solana.PublicKey `json:"wallet"`
	PaymentAccount    solana.PublicKey `json:"payment_account"`
	TransferAuthority solana.PublicKey `json:"transfer_authority"`
	TreasuryMint      solana.PublicKey `json:"treasury_mint"`
	Authority         solana.PublicKey `json:"authority"`
	AuctionHouse      solana.PublicKey `json:"auction_house"`
	EscrowPaymentBump uint8            `json:"escrow_payment_bump"`
	Amount            uint64           `json:"amount"`
}

func (d *Deposit) ProgramID() solana.PublicKey { return ProgramID }
func (d *Deposit) Name() string                { return "deposit" }

func (d *Deposit) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(d.Wallet),
		tx.Writable(d.PaymentAccount),
		tx.ReadOnly(d.TransferAuthority),
		tx.Writable(keylet.Escrow(d.AuctionHouse, d.Wallet).Key),
		tx.ReadOnly(d.TreasuryMint),
		tx.ReadOnly(d.Authority),
		tx.ReadOnly(d.AuctionHouse),
		tx.Writable(keylet.AuctionHouseFeeAccount(d.AuctionHouse).Key),
	}
}

func (d *Deposit) Validate() error {
	if d.Wallet.IsZero() || d.PaymentAccount.IsZero() || d.AuctionHouse.IsZero() {
		return errors.New("wallet, payment account and auction house are required")
	}
	return nil
}

func (d *Deposit) Apply(ctx *tx.ApplyContext) tx.Result {
	h, r := checkHouse(ctx, d.AuctionHouse, d.Authority, d.TreasuryMint)
	if r != tx.TesSUCCESS {
		return r
	}
	if r := ctx.RequireSigner(d.Wallet); r != tx.TesSUCCESS {
		return r
	}
	escrow := escrowKey(d.AuctionHouse, d.Wallet)
	if r := verifyEscrow(ctx, d.AuctionHouse, d.Wallet, escrow, d.EscrowPaymentBump); r != tx.TesSUCCESS {
		return r
	}
	p, r := selectPayer(ctx, d.AuctionHouse, h, d.Wallet)
	if r != tx.TesSUCCESS {
		return r
	}
	escrowSeeds := keylet.WithBump(keylet.EscrowSeeds(d.AuctionHouse, d.Wallet), d.EscrowPaymentBump)
	if r := ensureEscrow(ctx, p, d.AuctionHouse, h, escrow, escrowSeeds); r != tx.TesSUCCESS {
		return r
	}

	if h.IsNative() {
		if !d.PaymentAccount.Equals(d.Wallet) {
			return ResultExpectedSolAccount
		}
		return system.InvokeTransfer(ctx, d.Wallet, escrow, d.Amount)
	}
	return token.InvokeTransfer(ctx, d.PaymentAccount, escrow, d.TransferAuthority, d.Amount)
}

// Withdraw returns escrowed funds to a wallet. Either the wallet or the
// house authority may sign.
type Withdraw struct {
	Wallet            solana.PublicKey `json:"wallet"`
	ReceiptAccount    solana.PublicKey `json:"receipt_account"`
	TreasuryMint      solana.PublicKey `json:"treasury_mint"`
	Authority         solana.PublicKey `json:"authority"`
	AuctionHouse      solana.PublicKey `json:"auction_house"`
	EscrowPaymentBump uint8            `json:"escrow_payment_bump"`
	Amount            uint64           `json:"amount"`
}

func (w *Withdraw) ProgramID() solana.PublicKey { return ProgramID }
func (w *Withdraw) Name() string                { return "withdraw" }

func (w *Withdraw) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.ReadOnly(w.Wallet),
		tx.Writable(w.ReceiptAccount),
		tx.Writable(keylet.Escrow(w.AuctionHouse, w.Wallet).Key),
		tx.ReadOnly(w.TreasuryMint),
		tx.ReadOnly(w.Authority),
		tx.ReadOnly(w.AuctionHouse),
		tx.Writable(keylet.AuctionHouseFeeAccount(w.AuctionHouse).Key),
	}
}

func (w *Withdraw) Validate() error {
	if w.Wallet.IsZero() || w.ReceiptAccount.IsZero() || w.AuctionHouse.IsZero() {
		return errors.New("wallet, receipt account and auction house are required")
	}
	return nil
}

func (w *Withdraw) Apply(ctx *tx.ApplyContext) tx.Result {
	h, r := checkHouse(ctx, w.AuctionHouse, w.Authority, w.TreasuryMint)
	if r != tx.TesSUCCESS {
		return r
	}
	if !ctx.IsSigner(w.Wallet) && !ctx.IsSigner(w.Authority) {
		return ResultNoValidSignerPresent
	}
	escrow := escrowKey(w.AuctionHouse, w.Wallet)
	if r := verifyEscrow(ctx, w.AuctionHouse, w.Wallet, escrow, w.EscrowPaymentBump); r != tx.TesSUCCESS {
		return r
	}
	p, r := selectPayer(ctx, w.AuctionHouse, h, w.Wallet)
	if r != tx.TesSUCCESS {
		return r
	}

	if h.IsNative() {
		if !w.ReceiptAccount.Equals(w.Wallet) {
			return ResultExpectedSolAccount
		}
		balance, r := escrowBalance(ctx, h, escrow)
		if r != tx.TesSUCCESS {
			return r
		}
		if w.Amount > balance {
			return system.ResultInsufficientFunds
		}
		if left := balance - w.Amount; left > 0 && left < ctx.Rent().MinimumBalance(0) {
			ctx.Logf("escrow would keep %d lamports", left)
			return ResultEscrowUnderRentExemption
		}
		escrowSeeds := keylet.WithBump(keylet.EscrowSeeds(w.AuctionHouse, w.Wallet), w.EscrowPaymentBump)
		return system.InvokeTransfer(ctx, escrow, w.Wallet, w.Amount, escrowSeeds)
	}

	if r := ensureReceipt(ctx, p, w.Wallet, h.TreasuryMint, w.ReceiptAccount, ResultBuyerATACannotHaveDelegate); r != tx.TesSUCCESS {
		return r
	}
	return token.InvokeTransfer(ctx, escrow, w.ReceiptAccount, w.AuctionHouse, w.Amount, houseSignerSeeds(h))
}

// WithdrawFromFee moves lamports out of the house fee account.
type WithdrawFromFee struct {
	Authority                solana.PublicKey `json:"authority"`
	FeeWithdrawalDestination solana.PublicKey `json:"fee_withdrawal_destination"`
	AuctionHouse             solana.PublicKey `json:"auction_house"`
	Amount                   uint64           `json:"amount"`
}

func (w *WithdrawFromFee) ProgramID() solana.PublicKey { return ProgramID }
func (w *WithdrawFromFee) Name() string                { return "withdraw_from_fee" }

func (w *WithdrawFromFee) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.ReadOnly(w.Authority),
		tx.Writable(w.FeeWithdrawalDestination),
		tx.Writable(keylet.AuctionHouseFeeAccount(w.AuctionHouse).Key),
		tx.ReadOnly(w.AuctionHouse),
	}
}

func (w *WithdrawFromFee) Validate() error {
	if w.Authority.IsZero() || w.AuctionHouse.IsZero() {
		return errors.New("authority and auction house are required")
	}
	return nil
}

func (w *WithdrawFromFee) Apply(ctx *tx.ApplyContext) tx.Result {
	h, r := checkHouse(ctx, w.AuctionHouse, w.Authority, solana.PublicKey{})
	if r != tx.TesSUCCESS {
		return r
	}
	if r := ctx.RequireSigner(w.Authority); r != tx.TesSUCCESS {
		return r
	}
	if !h.FeeWithdrawalDestination.Equals(w.FeeWithdrawalDestination) {
		return ResultPublicKeyMismatch
	}
	return system.InvokeTransfer(ctx, h.AuctionHouseFeeAccount, w.FeeWithdrawalDestination, w.Amount, feeSignerSeeds(w.AuctionHouse, h))
}

// WithdrawFromTreasury moves collected house fees to the treasury
// withdrawal destination.
type WithdrawFromTreasury struct {
	Authority                     solana.PublicKey `json:"authority"`
	TreasuryMint                  solana.PublicKey `json:"treasury_mint"`
	TreasuryWithdrawalDestination solana.PublicKey `json:"treasury_withdrawal_destination"`
	AuctionHouse                  solana.PublicKey `json:"auction_house"`
	Amount                        uint64           `json:"amount"`
}

func (w *WithdrawFromTreasury) ProgramID() solana.PublicKey { return ProgramID }
func (w *WithdrawFromTreasury) Name() string                { return "withdraw_from_treasury" }

func (w *WithdrawFromTreasury) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.ReadOnly(w.Authority),
		tx.ReadOnly(w.TreasuryMint),
		tx.Writable(w.TreasuryWithdrawalDestination),
		tx.Writable(keylet.AuctionHouseTreasury(w.AuctionHouse).Key),
		tx.ReadOnly(w.AuctionHouse),
	}
}

func (w *WithdrawFromTreasury) Validate() error {
	if w.Authority.IsZero() || w.AuctionHouse.IsZero() {
		return errors.New("authority and auction house are required")
	}
	return nil
}

func (w *WithdrawFromTreasury) Apply(ctx *tx.ApplyContext) tx.Result {
	h, r := checkHouse(ctx, w.AuctionHouse, w.Authority, w.TreasuryMint)
	if r != tx.TesSUCCESS {
		return r
	}
	if r := ctx.RequireSigner(w.Authority); r != tx.TesSUCCESS {
		return r
	}
	if !h.TreasuryWithdrawalDestination.Equals(w.TreasuryWithdrawalDestination) {
		return ResultPublicKeyMismatch
	}
	if h.IsNative() {
		treasurySeeds := keylet.WithBump(keylet.AuctionHouseTreasurySeeds(w.AuctionHouse), h.TreasuryBump)
		return system.InvokeTransfer(ctx, h.AuctionHouseTreasury, w.TreasuryWithdrawalDestination, w.Amount, treasurySeeds)
	}
	return token.InvokeTransfer(ctx, h.AuctionHouseTreasury, w.TreasuryWithdrawalDestination, w.AuctionHouse, w.Amount, houseSignerSeeds(h))
}
