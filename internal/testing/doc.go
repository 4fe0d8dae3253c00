// Package testing provides test infrastructure for driving the programs
// through the real transaction engine.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: an in-memory account store with an engine applying signed
//     transactions
//   - Account: deterministic ed25519 keypairs derived from a name
//   - Amount helpers: SOL and lamport conversions
//   - Fixtures: mints, token accounts and metadata records
//   - Assertions: result and balance checks
//
// # Basic Usage
//
//	func TestTransfer(t *testing.T) {
//	    env := testing.NewTestEnv(t)
//
//	    alice := testing.NewAccount("alice")
//	    bob := testing.NewAccount("bob")
//	    env.Fund(alice, bob)
//
//	    result := env.Submit(alice, &system.Transfer{
//	        From:     alice.PublicKey(),
//	        To:       bob.PublicKey(),
//	        Lamports: testing.SOL(1),
//	    })
//	    testing.RequireTxSuccess(t, result)
//	}
//
// # Fixtures
//
// Fixtures submit ordinary transactions and fail the test on error:
//
//	mint := env.CreateMint(alice, alice.PublicKey(), 0)
//	ata := env.CreateAssociatedTokenAccount(alice, alice.PublicKey(), mint)
//	env.MintTo(alice, mint, ata, 1)
//	env.CreateMetadata(alice, mint, testing.DefaultData(alice.PublicKey()))
//
// Programs hosted by the engine register themselves when their package is
// imported; tests import the programs they exercise.
package testing
