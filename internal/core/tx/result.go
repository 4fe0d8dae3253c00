package tx

import (
	"fmt"
	"sync"
)

// Result represents an instruction or transaction result code
type Result int

// Runtime result codes, organized by category: tes, tef, tem, ter.
// Positive codes are custom program errors registered with RegisterResult.
const (
	// tesSUCCESS
	TesSUCCESS Result = 0

	// tefFAILURE and related codes (-199 to -100)
	// Transaction failed while applying. The fee is kept, writes are discarded.
	TefFAILURE                        Result = -199
	TefINTERNAL                       Result = -198
	TefBAD_SIGNATURE                  Result = -197
	TefMISSING_SIGNATURE              Result = -196
	TefACCOUNT_NOT_DECLARED           Result = -195
	TefREADONLY_ACCOUNT_MODIFIED      Result = -194
	TefEXTERNAL_ACCOUNT_DATA_MODIFIED Result = -193
	TefEXTERNAL_ACCOUNT_LAMPORT_SPEND Result = -192
	TefMISSING_REQUIRED_SIGNATURE     Result = -191
	TefINVALID_SEEDS                  Result = -190
	TefNOT_ENOUGH_ACCOUNT_KEYS        Result = -189
	TefINSUFFICIENT_FUNDS_FOR_RENT    Result = -188
	TefCALL_DEPTH                     Result = -187
	TefUNBALANCED_TRANSACTION         Result = -186
	TefINVALID_ACCOUNT_OWNER          Result = -185
	TefUNKNOWN_PROGRAM                Result = -184
	TefINSUFFICIENT_LAMPORTS          Result = -183

	// temMALFORMED and related codes (-299 to -200)
	// Malformed transaction, rejected before touching state
	TemMALFORMED                Result = -299
	TemNO_INSTRUCTIONS          Result = -298
	TemINVALID_INSTRUCTION_DATA Result = -297
	TemBAD_FEE_PAYER            Result = -296
	TemTOO_MANY_INSTRUCTIONS    Result = -295

	// terRETRY and related codes (-99 to -1)
	// Retry later
	TerRETRY       Result = -99
	TerNO_ACCOUNT  Result = -98
	TerINSUF_FEE_B Result = -97
)

type resultInfo struct {
	token   string
	message string
}

var (
	resultsMu sync.RWMutex
	results   = map[Result]resultInfo{
		TesSUCCESS: {"tesSUCCESS", "The transaction was applied."},

		TefFAILURE:                        {"tefFAILURE", "Failed to apply."},
		TefINTERNAL:                       {"tefINTERNAL", "Internal error."},
		TefBAD_SIGNATURE:                  {"tefBAD_SIGNATURE", "Invalid signature."},
		TefMISSING_SIGNATURE:              {"tefMISSING_SIGNATURE", "A required transaction signature is missing."},
		TefACCOUNT_NOT_DECLARED:           {"tefACCOUNT_NOT_DECLARED", "An instruction accessed an account the transaction did not declare."},
		TefREADONLY_ACCOUNT_MODIFIED:      {"tefREADONLY_ACCOUNT_MODIFIED", "An instruction modified an account declared read-only."},
		TefEXTERNAL_ACCOUNT_DATA_MODIFIED: {"tefEXTERNAL_ACCOUNT_DATA_MODIFIED", "A program modified the data of an account it does not own."},
		TefEXTERNAL_ACCOUNT_LAMPORT_SPEND: {"tefEXTERNAL_ACCOUNT_LAMPORT_SPEND", "A program debited lamports from an account it does not own."},
		TefMISSING_REQUIRED_SIGNATURE:     {"tefMISSING_REQUIRED_SIGNATURE", "An instruction requires a signer that did not sign."},
		TefINVALID_SEEDS:                  {"tefINVALID_SEEDS", "Signer seeds do not derive a valid program address."},
		TefNOT_ENOUGH_ACCOUNT_KEYS:        {"tefNOT_ENOUGH_ACCOUNT_KEYS", "The instruction is missing required accounts."},
		TefINSUFFICIENT_FUNDS_FOR_RENT:    {"tefINSUFFICIENT_FUNDS_FOR_RENT", "An account would be left below the rent-exempt minimum."},
		TefCALL_DEPTH:                     {"tefCALL_DEPTH", "Cross-program invocation depth exceeded."},
		TefUNBALANCED_TRANSACTION:         {"tefUNBALANCED_TRANSACTION", "Lamports were created or destroyed."},
		TefINVALID_ACCOUNT_OWNER:          {"tefINVALID_ACCOUNT_OWNER", "An account owner may only be reassigned while its data is zeroed."},
		TefUNKNOWN_PROGRAM:                {"tefUNKNOWN_PROGRAM", "No program is registered under the invoked id."},
		TefINSUFFICIENT_LAMPORTS:          {"tefINSUFFICIENT_LAMPORTS", "An account has too few lamports for the requested debit."},

		TemMALFORMED:                {"temMALFORMED", "The transaction is ill-formed."},
		TemNO_INSTRUCTIONS:          {"temNO_INSTRUCTIONS", "The transaction carries no instructions."},
		TemINVALID_INSTRUCTION_DATA: {"temINVALID_INSTRUCTION_DATA", "Instruction arguments are invalid."},
		TemBAD_FEE_PAYER:            {"temBAD_FEE_PAYER", "The fee payer is missing."},
		TemTOO_MANY_INSTRUCTIONS:    {"temTOO_MANY_INSTRUCTIONS", "The transaction carries too many instructions."},

		TerRETRY:       {"terRETRY", "Retry transaction."},
		TerNO_ACCOUNT:  {"terNO_ACCOUNT", "The fee payer account does not exist."},
		TerINSUF_FEE_B: {"terINSUF_FEE_B", "Account balance can't pay fee."},
	}
)

// RegisterResult registers a custom program result. It panics if code is not
// positive or is already taken, so registration belongs in package init.
func RegisterResult(code Result, token, message string) Result {
	if code <= 0 {
		panic(fmt.Sprintf("tx: custom result %d must be positive", code))
	}
	resultsMu.Lock()
	defer resultsMu.Unlock()
	if prev, ok := results[code]; ok {
		panic(fmt.Sprintf("tx: result %d already registered as %s", code, prev.token))
	}
	results[code] = resultInfo{token: token, message: message}
	return code
}

func lookupResult(r Result) (resultInfo, bool) {
	resultsMu.RLock()
	defer resultsMu.RUnlock()
	info, ok := results[r]
	return info, ok
}

// String returns the string representation of the result code
func (r Result) String() string {
	if info, ok := lookupResult(r); ok {
		return info.token
	}
	return fmt.Sprintf("Unknown(%d)", int(r))
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	if info, ok := lookupResult(r); ok && info.message != "" {
		return info.message
	}
	return r.String()
}

// IsSuccess returns true if the result indicates success
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// IsTer returns true if this is a ter (retry) code
func (r Result) IsTer() bool {
	return r >= -99 && r <= -1
}

// IsCustom returns true if the code was raised by a program
func (r Result) IsCustom() bool {
	return r > 0
}

// ShouldRetry returns true if the transaction should be retried later
func (r Result) ShouldRetry() bool {
	return r.IsTer()
}
