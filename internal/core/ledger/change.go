package ledger

import "github.com/gagliardetto/solana-go"

// Action identifies what happened to an account inside a transaction.
type Action int

const (
	// ActionCache means the account was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new account was created
	ActionInsert
	// ActionModify means an existing account was modified
	ActionModify
	// ActionErase means an account was deleted
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionCache:
		return "cached"
	case ActionInsert:
		return "created"
	case ActionModify:
		return "modified"
	case ActionErase:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is a single committed write. Account is nil for erasures.
type Change struct {
	Key     solana.PublicKey
	Action  Action
	Account *Account
}
