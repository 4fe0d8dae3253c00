package system

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// Transfer moves lamports between accounts. From must sign.
type Transfer struct {
	From     solana.PublicKey `json:"from"`
	To       solana.PublicKey `json:"to"`
	Lamports uint64           `json:"lamports"`
}

func (t *Transfer) ProgramID() solana.PublicKey { return solana.SystemProgramID }
func (t *Transfer) Name() string                { return "transfer" }

func (t *Transfer) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(t.From), tx.Writable(t.To)}
}

func (t *Transfer) Validate() error {
	if t.From.IsZero() || t.To.IsZero() {
		return errors.New("from and to are required")
	}
	return nil
}

func (t *Transfer) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.RequireSigner(t.From); r != tx.TesSUCCESS {
		return r
	}
	if t.From.Equals(t.To) {
		return tx.TesSUCCESS
	}
	return debit(ctx, t.From, t.To, t.Lamports)
}

// InvokeTransfer transfers lamports through a cross-program call.
func InvokeTransfer(ctx *tx.ApplyContext, from, to solana.PublicKey, lamports uint64, signerSeeds ...[][]byte) tx.Result {
	if lamports == 0 {
		return tx.TesSUCCESS
	}
	cpi, r := ctx.InvokeSigned(solana.SystemProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&Transfer{From: from, To: to, Lamports: lamports}).Apply(cpi)
}
