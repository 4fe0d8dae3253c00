package testing

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL uint64 = 1_000_000_000

// DefaultFunding is the balance Fund gives each account.
const DefaultFunding = 1_000 * LamportsPerSOL

// SOL converts a SOL amount to lamports.
// For example, SOL(2) returns 2,000,000,000 lamports.
func SOL(n uint64) uint64 {
	return n * LamportsPerSOL
}

// Lamports returns the lamport amount unchanged.
// This is a convenience function for clarity when specifying amounts in lamports.
func Lamports(n uint64) uint64 {
	return n
}
