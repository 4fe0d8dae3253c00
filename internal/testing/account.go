package testing

import (
	"crypto/ed25519"
	"crypto/sha512"

	"github.com/gagliardetto/solana-go"
)

// Account represents a test account with a deterministic ed25519 keypair.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// Key is the 64-byte ed25519 private key.
	Key solana.PrivateKey
}

// NewAccount creates a test account whose keypair is derived from the name.
// Using the same name always produces the same account, making tests
// reproducible.
func NewAccount(name string) *Account {
	hash := sha512.Sum512([]byte(name))
	key := ed25519.NewKeyFromSeed(hash[:ed25519.SeedSize])
	return &Account{Name: name, Key: solana.PrivateKey(key)}
}

// PublicKey returns the account address.
func (a *Account) PublicKey() solana.PublicKey {
	return a.Key.PublicKey()
}

// String returns the name and address of the account.
func (a *Account) String() string {
	return a.Name + " (" + a.PublicKey().String() + ")"
}

// Keys returns the public keys of accounts.
func Keys(accounts ...*Account) []solana.PublicKey {
	keys := make([]solana.PublicKey, len(accounts))
	for i, a := range accounts {
		keys[i] = a.PublicKey()
	}
	return keys
}
