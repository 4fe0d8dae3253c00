package tx

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"go.uber.org/zap"
)

// MaxInvokeDepth is the deepest chain of cross-program invocations allowed
// below a top-level instruction.
const MaxInvokeDepth = 4

// ApplyContext provides all the state and helpers needed to apply an
// instruction. Each cross-program invocation gets its own context sharing
// the transaction sandbox.
type ApplyContext struct {
	// View is the transaction sandbox
	View *ApplyStateTable

	// Config holds engine configuration (rent, fees)
	Config EngineConfig

	// Program is the program currently executing
	Program solana.PublicKey

	// FeePayer is the transaction fee payer
	FeePayer solana.PublicKey

	// TxID is the fee payer's signature
	TxID solana.Signature

	signers map[solana.PublicKey]bool
	depth   int
	logs    *[]string
	logger  *zap.Logger
}

func newApplyContext(view *ApplyStateTable, cfg EngineConfig, t *Transaction, program solana.PublicKey, logs *[]string) *ApplyContext {
	return &ApplyContext{
		View:     view,
		Config:   cfg,
		Program:  program,
		FeePayer: t.FeePayer,
		TxID:     t.ID(),
		signers:  t.Signers(),
		logs:     logs,
		logger:   cfg.logger(),
	}
}

// IsSigner reports whether key signed the transaction or was signed for by
// the invoking program.
func (c *ApplyContext) IsSigner(key solana.PublicKey) bool {
	return c.signers[key]
}

// RequireSigner fails with TefMISSING_REQUIRED_SIGNATURE unless key signed.
func (c *ApplyContext) RequireSigner(key solana.PublicKey) Result {
	if !c.IsSigner(key) {
		c.Logf("missing required signature for %s", key)
		return TefMISSING_REQUIRED_SIGNATURE
	}
	return TesSUCCESS
}

// Invoke returns a context for calling program with the current signers.
func (c *ApplyContext) Invoke(program solana.PublicKey) (*ApplyContext, Result) {
	return c.InvokeSigned(program)
}

// InvokeSigned returns a context for calling program in which every address
// derived from signerSeeds under the calling program is a signer. Each entry
// of signerSeeds must include the bump.
func (c *ApplyContext) InvokeSigned(program solana.PublicKey, signerSeeds ...[][]byte) (*ApplyContext, Result) {
	if c.depth+1 > MaxInvokeDepth {
		return nil, TefCALL_DEPTH
	}

	signers := make(map[solana.PublicKey]bool, len(c.signers)+len(signerSeeds))
	for key := range c.signers {
		signers[key] = true
	}
	for _, seeds := range signerSeeds {
		pda, err := solana.CreateProgramAddress(seeds, c.Program)
		if err != nil {
			c.Logf("invalid signer seeds: %v", err)
			return nil, TefINVALID_SEEDS
		}
		signers[pda] = true
	}

	child := *c
	child.Program = program
	child.signers = signers
	child.depth = c.depth + 1
	return &child, TesSUCCESS
}

// Account returns a copy of the account stored under key, or nil when it
// does not exist.
func (c *ApplyContext) Account(key solana.PublicKey) (*ledger.Account, Result) {
	acct, err := c.View.Read(key)
	if err != nil {
		return nil, c.viewError(err)
	}
	return acct, TesSUCCESS
}

// Store writes acct under key, enforcing the ownership rules: only the
// owning program may change data, reassign the owner or debit lamports.
// Setting lamports to zero closes the account.
func (c *ApplyContext) Store(key solana.PublicKey, acct *ledger.Account) Result {
	old, err := c.View.Read(key)
	if err != nil {
		return c.viewError(err)
	}
	if old == nil {
		old = &ledger.Account{Owner: solana.SystemProgramID}
	}

	if acct.Executable != old.Executable {
		return TefEXTERNAL_ACCOUNT_DATA_MODIFIED
	}
	if !old.Owner.Equals(c.Program) {
		if acct.Lamports < old.Lamports {
			c.Logf("debit of %s by non-owner", key)
			return TefEXTERNAL_ACCOUNT_LAMPORT_SPEND
		}
		if !bytes.Equal(acct.Data, old.Data) {
			c.Logf("data of %s modified by non-owner", key)
			return TefEXTERNAL_ACCOUNT_DATA_MODIFIED
		}
		if !acct.Owner.Equals(old.Owner) {
			return TefINVALID_ACCOUNT_OWNER
		}
	} else if !acct.Owner.Equals(old.Owner) && !isZeroed(acct.Data) {
		return TefINVALID_ACCOUNT_OWNER
	}

	if err := c.View.Write(key, acct); err != nil {
		return c.viewError(err)
	}
	return TesSUCCESS
}

// MoveLamports debits from and credits to. The executing program must own
// from.
func (c *ApplyContext) MoveLamports(from, to solana.PublicKey, amount uint64) Result {
	if amount == 0 {
		return TesSUCCESS
	}
	src, r := c.Account(from)
	if r != TesSUCCESS {
		return r
	}
	if src == nil || src.Lamports < amount {
		c.Logf("insufficient lamports in %s: need %d", from, amount)
		return TefINSUFFICIENT_LAMPORTS
	}
	src.Lamports -= amount
	if r := c.Store(from, src); r != TesSUCCESS {
		return r
	}
	return c.Credit(to, amount)
}

// Credit adds lamports to key, creating a system-owned account if needed.
func (c *ApplyContext) Credit(key solana.PublicKey, amount uint64) Result {
	if amount == 0 {
		return TesSUCCESS
	}
	dst, r := c.Account(key)
	if r != TesSUCCESS {
		return r
	}
	if dst == nil {
		dst = &ledger.Account{Owner: solana.SystemProgramID}
	}
	if dst.Lamports+amount < dst.Lamports {
		return TefUNBALANCED_TRANSACTION
	}
	dst.Lamports += amount
	return c.Store(key, dst)
}

// Rent returns the rent parameters in force.
func (c *ApplyContext) Rent() Rent {
	return c.Config.Rent
}

// Depth returns the number of invocations between this context and the
// top-level instruction.
func (c *ApplyContext) Depth() int {
	return c.depth
}

// Logf appends a program log line.
func (c *ApplyContext) Logf(format string, args ...any) {
	line := fmt.Sprintf("Program %s: %s", ProgramName(c.Program), fmt.Sprintf(format, args...))
	if c.logs != nil {
		*c.logs = append(*c.logs, line)
	}
	c.logger.Debug("program log", zap.String("line", line))
}

func (c *ApplyContext) viewError(err error) Result {
	switch {
	case errors.Is(err, ErrAccountNotDeclared):
		c.Logf("%v", err)
		return TefACCOUNT_NOT_DECLARED
	case errors.Is(err, ErrReadonlyAccount):
		c.Logf("%v", err)
		return TefREADONLY_ACCOUNT_MODIFIED
	default:
		c.logger.Error("ledger view failure", zap.Error(err))
		return TefINTERNAL
	}
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
