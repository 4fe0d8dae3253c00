// Package system implements account creation and lamport transfers.
package system

import (
	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// MaxPermittedDataLength is the largest account the system program allocates.
const MaxPermittedDataLength = 10 * 1024 * 1024

var (
	ResultAccountAlreadyInUse      = tx.RegisterResult(100, "System.AccountAlreadyInUse", "An account with the same address already exists.")
	ResultInsufficientFunds        = tx.RegisterResult(101, "System.InsufficientFunds", "Account does not have enough lamports to perform the operation.")
	ResultInvalidAccountDataLength = tx.RegisterResult(102, "System.InvalidAccountDataLength", "Cannot allocate account data of this length.")
	ResultTransferFromDataAccount  = tx.RegisterResult(103, "System.TransferFromDataAccount", "Transfers must come from an account that carries no data.")
	ResultNotSystemOwned           = tx.RegisterResult(104, "System.NotSystemOwned", "The source account is not owned by the system program.")
)

func init() {
	tx.RegisterProgram(solana.SystemProgramID, "system")
	tx.Register(solana.SystemProgramID, "create_account", func() tx.Instruction { return &CreateAccount{} })
	tx.Register(solana.SystemProgramID, "transfer", func() tx.Instruction { return &Transfer{} })
}

// debit removes lamports from a system-owned, data-free account.
func debit(ctx *tx.ApplyContext, from, to solana.PublicKey, lamports uint64) tx.Result {
	src, r := ctx.Account(from)
	if r != tx.TesSUCCESS {
		return r
	}
	if src == nil || src.Lamports < lamports {
		ctx.Logf("transfer: insufficient lamports in %s, need %d", from, lamports)
		return ResultInsufficientFunds
	}
	if !src.Owner.Equals(solana.SystemProgramID) {
		return ResultNotSystemOwned
	}
	if !src.DataIsEmpty() {
		return ResultTransferFromDataAccount
	}
	return ctx.MoveLamports(from, to, lamports)
}
