package tx

import (
	"github.com/gagliardetto/solana-go"
)

// AccountMeta declares an account an instruction touches. The union of
// every instruction's metas is the transaction's account lock set.
type AccountMeta struct {
	PublicKey  solana.PublicKey `json:"pubkey"`
	IsWritable bool             `json:"is_writable"`
}

// Writable declares key as read-write.
func Writable(key solana.PublicKey) AccountMeta {
	return AccountMeta{PublicKey: key, IsWritable: true}
}

// ReadOnly declares key as read-only.
func ReadOnly(key solana.PublicKey) AccountMeta {
	return AccountMeta{PublicKey: key}
}

// Instruction is a single program invocation inside a transaction.
// Exported fields of the implementing struct are its borsh payload.
type Instruction interface {
	// ProgramID is the program that executes the instruction
	ProgramID() solana.PublicKey

	// Name is the snake_case instruction name used for the discriminator
	// and the JSON envelope
	Name() string

	// Accounts lists every account the instruction, and any program it
	// invokes, reads or writes
	Accounts() []AccountMeta

	// Validate performs stateless argument checks
	Validate() error

	// Apply executes the instruction against the transaction sandbox
	Apply(ctx *ApplyContext) Result
}
