package ledger

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// Account is the unit of state addressed by a 32-byte key. An account with
// zero lamports does not exist.
type Account struct {
	Lamports   uint64           `json:"lamports"`
	Owner      solana.PublicKey `json:"owner"`
	Executable bool             `json:"executable"`
	Data       []byte           `json:"data"`
}

// NewAccount returns an account of the given size owned by owner, with zeroed data.
func NewAccount(lamports uint64, space int, owner solana.PublicKey) *Account {
	return &Account{
		Lamports: lamports,
		Owner:    owner,
		Data:     make([]byte, space),
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.Data != nil {
		c.Data = make([]byte, len(a.Data))
		copy(c.Data, a.Data)
	}
	return &c
}

// DataIsEmpty reports whether the account is absent or carries no data.
func (a *Account) DataIsEmpty() bool {
	return a == nil || len(a.Data) == 0
}

// IsClosed reports whether the account should be treated as nonexistent.
func (a *Account) IsClosed() bool {
	return a == nil || a.Lamports == 0
}

// Equal compares every field of two accounts.
func (a *Account) Equal(b *Account) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Lamports == b.Lamports &&
		a.Owner.Equals(b.Owner) &&
		a.Executable == b.Executable &&
		bytes.Equal(a.Data, b.Data)
}
