package tx

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"go.uber.org/zap"
)

// DefaultLamportsPerSignature is the default fee per transaction signature.
const DefaultLamportsPerSignature = 5000

// LedgerView provides read access to committed account state
type LedgerView interface {
	// Read returns the account stored under key, or nil when absent
	Read(key solana.PublicKey) (*ledger.Account, error)
}

// BatchApplier commits the writes of one transaction atomically
type BatchApplier interface {
	ApplyBatch(changes []ledger.Change) error
}

// Store is the account store the engine applies transactions against
type Store interface {
	LedgerView
	BatchApplier
}

// EngineConfig holds configuration for the transaction engine
type EngineConfig struct {
	// LamportsPerSignature is the fee charged per signature
	LamportsPerSignature uint64

	// Rent holds the rent-exemption parameters
	Rent Rent

	// SkipSignatureVerification skips ed25519 checks (for testing/standalone).
	// The fee payer must still be listed as a signer.
	SkipSignatureVerification bool

	// Logger receives engine and program logs. Nil disables logging.
	Logger *zap.Logger
}

// DefaultEngineConfig returns the mainnet fee and rent parameters.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		LamportsPerSignature: DefaultLamportsPerSignature,
		Rent:                 DefaultRent(),
	}
}

func (c EngineConfig) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// ApplyResult contains the result of applying a transaction
type ApplyResult struct {
	// Result is the transaction result code
	Result Result

	// Applied indicates if the instructions' writes were committed
	Applied bool

	// Fee is the fee charged (in lamports). Zero when the transaction was
	// rejected before preclaim passed.
	Fee uint64

	// Metadata contains the changes made by the transaction
	Metadata *Metadata

	// Message is a human-readable result message
	Message string

	// Logs holds the program log lines
	Logs []string

	// FailedInstruction is the index of the failing instruction, or -1
	FailedInstruction int
}

// Engine processes transactions against an account store
type Engine struct {
	store  Store
	config EngineConfig
	log    *zap.Logger
}

// NewEngine creates a new transaction engine
func NewEngine(store Store, config EngineConfig) *Engine {
	return &Engine{
		store:  store,
		config: config,
		log:    config.logger().Named("engine"),
	}
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Apply processes a transaction: preflight, preclaim, then apply. Once
// preclaim passes the fee is committed whatever the outcome; instruction
// writes are committed only if every instruction succeeds.
func (e *Engine) Apply(t *Transaction) ApplyResult {
	// Step 1: Preflight checks (syntax and signatures)
	if result, msg := e.preflight(t); !result.IsSuccess() {
		return e.reject(t, result, msg)
	}

	// Step 2: Preclaim checks (validate against ledger state)
	fee := e.calculateFee(t)
	if result := e.preclaim(t, fee); !result.IsSuccess() {
		return e.reject(t, result, result.Message())
	}

	// Step 3: Charge the fee and apply the instructions
	table := NewApplyStateTable(e.store, t.AccountLocks())
	if err := e.chargeFee(table, t.FeePayer, fee); err != nil {
		e.log.Error("failed to charge fee", zap.Error(err))
		return e.reject(t, TefINTERNAL, err.Error())
	}
	feeOnly := table.Snapshot()

	var logs []string
	result, failed := e.doApply(table, t, &logs)
	if result.IsSuccess() {
		result = e.checkInvariants(table, fee, &logs)
	}
	if !result.IsSuccess() {
		table.Restore(feeOnly)
	}

	// Step 4: Commit
	metadata := &Metadata{
		AffectedNodes:     table.AffectedNodes(),
		TransactionResult: result,
		Fee:               fee,
		Logs:              logs,
	}
	if err := e.store.ApplyBatch(table.Changes()); err != nil {
		e.log.Error("failed to commit transaction",
			zap.Stringer("signature", t.ID()),
			zap.Error(err),
		)
		return ApplyResult{
			Result:            TefINTERNAL,
			Message:           "failed to commit: " + err.Error(),
			Logs:              logs,
			FailedInstruction: -1,
		}
	}

	fields := []zap.Field{
		zap.Stringer("signature", t.ID()),
		zap.Stringer("result", result),
		zap.Uint64("fee", fee),
		zap.Int("accounts", len(metadata.AffectedNodes)),
	}
	if result.IsSuccess() {
		e.log.Debug("transaction applied", fields...)
	} else {
		e.log.Info("transaction failed", append(fields, zap.Int("instruction", failed))...)
	}

	return ApplyResult{
		Result:            result,
		Applied:           result.IsSuccess(),
		Fee:               fee,
		Metadata:          metadata,
		Message:           result.Message(),
		Logs:              logs,
		FailedInstruction: failed,
	}
}

func (e *Engine) reject(t *Transaction, result Result, msg string) ApplyResult {
	e.log.Info("transaction rejected",
		zap.Stringer("signature", t.ID()),
		zap.Stringer("result", result),
		zap.String("message", msg),
	)
	return ApplyResult{
		Result:            result,
		Message:           msg,
		FailedInstruction: -1,
	}
}

// preflight performs checks that need no ledger state
func (e *Engine) preflight(t *Transaction) (Result, string) {
	if t.FeePayer.IsZero() {
		return TemBAD_FEE_PAYER, TemBAD_FEE_PAYER.Message()
	}
	if len(t.Instructions) == 0 {
		return TemNO_INSTRUCTIONS, TemNO_INSTRUCTIONS.Message()
	}
	if len(t.Instructions) > MaxInstructions {
		return TemTOO_MANY_INSTRUCTIONS, TemTOO_MANY_INSTRUCTIONS.Message()
	}
	for i, ix := range t.Instructions {
		if ix == nil {
			return TemMALFORMED, fmt.Sprintf("instruction %d is empty", i)
		}
		if err := ix.Validate(); err != nil {
			return TemINVALID_INSTRUCTION_DATA, fmt.Sprintf("instruction %d (%s): %v", i, ix.Name(), err)
		}
	}

	if !t.Signers()[t.FeePayer] {
		return TefMISSING_SIGNATURE, "fee payer did not sign"
	}
	if e.config.SkipSignatureVerification {
		return TesSUCCESS, ""
	}

	msg, err := t.Message()
	if err != nil {
		return TemMALFORMED, fmt.Sprintf("encode message: %v", err)
	}
	for _, s := range t.Signatures {
		if !s.PublicKey.Verify(msg, s.Signature) {
			return TefBAD_SIGNATURE, fmt.Sprintf("bad signature for %s", s.PublicKey)
		}
	}
	return TesSUCCESS, ""
}

// preclaim validates the fee payer against ledger state
func (e *Engine) preclaim(t *Transaction, fee uint64) Result {
	payer, err := e.store.Read(t.FeePayer)
	if err != nil {
		e.log.Error("failed to read fee payer", zap.Error(err))
		return TefINTERNAL
	}
	if payer.IsClosed() {
		return TerNO_ACCOUNT
	}
	if payer.Lamports < fee {
		return TerINSUF_FEE_B
	}
	return TesSUCCESS
}

func (e *Engine) calculateFee(t *Transaction) uint64 {
	return e.config.LamportsPerSignature * uint64(len(t.Signatures))
}

func (e *Engine) chargeFee(table *ApplyStateTable, payer solana.PublicKey, fee uint64) error {
	if fee == 0 {
		return nil
	}
	acct, err := table.Read(payer)
	if err != nil {
		return err
	}
	acct.Lamports -= fee
	return table.Write(payer, acct)
}

// doApply runs every instruction in order and stops at the first failure
func (e *Engine) doApply(table *ApplyStateTable, t *Transaction, logs *[]string) (Result, int) {
	for i, ix := range t.Instructions {
		ctx := newApplyContext(table, e.config, t, ix.ProgramID(), logs)
		ctx.Logf("invoke %s", ix.Name())
		result := e.applyInstruction(ctx, ix)
		if !result.IsSuccess() {
			ctx.Logf("%s failed: %s", ix.Name(), result)
			return result, i
		}
		ctx.Logf("success")
	}
	return TesSUCCESS, -1
}

// applyInstruction converts a program panic into TefINTERNAL so a faulty
// program cannot take the node down.
func (e *Engine) applyInstruction(ctx *ApplyContext, ix Instruction) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("instruction panicked",
				zap.String("instruction", ix.Name()),
				zap.Any("panic", r),
			)
			result = TefINTERNAL
		}
	}()
	return ix.Apply(ctx)
}

// checkInvariants verifies lamport conservation and rent exemption
func (e *Engine) checkInvariants(table *ApplyStateTable, fee uint64, logs *[]string) Result {
	before, after := table.LamportTotals()
	if before != after+fee {
		e.log.Error("unbalanced transaction",
			zap.Uint64("before", before),
			zap.Uint64("after", after),
			zap.Uint64("fee", fee),
		)
		return TefUNBALANCED_TRANSACTION
	}
	if key, ok := table.CheckRent(e.config.Rent); !ok {
		*logs = append(*logs, fmt.Sprintf("account %s left below rent-exempt minimum", key))
		return TefINSUFFICIENT_FUNDS_FOR_RENT
	}
	return TesSUCCESS
}
