// Package compression implements the concurrent merkle tree program that
// anchors compressed asset leaves on chain.
package compression

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/merkle"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// ProgramID is the compression program.
var ProgramID = keylet.CompressionProgramID

var (
	ResultInvalidDepth         = tx.RegisterResult(400, "Compression.InvalidDepth", "Tree depth is out of range.")
	ResultInvalidBufferSize    = tx.RegisterResult(401, "Compression.InvalidBufferSize", "Tree buffer size is out of range.")
	ResultAlreadyInitialized   = tx.RegisterResult(402, "Compression.AlreadyInitialized", "Tree account is already initialized.")
	ResultInvalidAccountSize   = tx.RegisterResult(403, "Compression.InvalidAccountSize", "Tree account size does not match its depth.")
	ResultNotInitialized       = tx.RegisterResult(404, "Compression.NotInitialized", "Tree account is not initialized.")
	ResultIncorrectAuthority   = tx.RegisterResult(405, "Compression.IncorrectAuthority", "Signer is not the tree authority.")
	ResultTreeFull             = tx.RegisterResult(406, "Compression.TreeFull", "Tree is full.")
	ResultInvalidProof         = tx.RegisterResult(407, "Compression.InvalidProof", "Proof does not authenticate the leaf under the current root.")
	ResultLeafIndexOutOfBounds = tx.RegisterResult(408, "Compression.LeafIndexOutOfBounds", "Leaf index is past the last appended leaf.")
	ResultIncorrectOwner       = tx.RegisterResult(409, "Compression.IncorrectOwner", "Tree account is not owned by the compression program.")
)

// verifier authenticates proofs for replace_leaf and verify_leaf.
var verifier merkle.Verifier = merkle.KeccakVerifier{}

func init() {
	tx.RegisterProgram(ProgramID, "compression")
	tx.Register(ProgramID, "init_empty_merkle_tree", func() tx.Instruction { return &InitEmptyMerkleTree{} })
	tx.Register(ProgramID, "append", func() tx.Instruction { return &Append{} })
	tx.Register(ProgramID, "replace_leaf", func() tx.Instruction { return &ReplaceLeaf{} })
	tx.Register(ProgramID, "verify_leaf", func() tx.Instruction { return &VerifyLeaf{} })
}

// Load reads the initialized tree stored under key.
func Load(ctx *tx.ApplyContext, key solana.PublicKey) (*TreeAccount, *ledger.Account, tx.Result) {
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return nil, nil, r
	}
	if acct == nil {
		return nil, nil, ResultNotInitialized
	}
	if !acct.Owner.Equals(ProgramID) {
		return nil, nil, ResultIncorrectOwner
	}
	t, err := UnpackTree(acct.Data)
	if err != nil {
		if errors.Is(err, ErrNotInitialized) {
			return nil, nil, ResultNotInitialized
		}
		ctx.Logf("tree %s: %v", key, err)
		return nil, nil, ResultInvalidAccountSize
	}
	return t, acct, tx.TesSUCCESS
}

// ReadTree decodes the tree stored under key without a context.
func ReadTree(view tx.LedgerView, key solana.PublicKey) (*TreeAccount, error) {
	acct, err := view.Read(key)
	if err != nil {
		return nil, err
	}
	if acct == nil || !acct.Owner.Equals(ProgramID) {
		return nil, ErrNotInitialized
	}
	return UnpackTree(acct.Data)
}

func store(ctx *tx.ApplyContext, key solana.PublicKey, acct *ledger.Account, t *TreeAccount) tx.Result {
	data, err := t.Pack()
	if err != nil {
		ctx.Logf("pack tree: %v", err)
		return tx.TefINTERNAL
	}
	acct.Data = data
	return ctx.Store(key, acct)
}

// authorize loads the tree and checks that authority is its signing
// authority.
func authorize(ctx *tx.ApplyContext, tree, authority solana.PublicKey) (*TreeAccount, *ledger.Account, tx.Result) {
	t, acct, r := Load(ctx, tree)
	if r != tx.TesSUCCESS {
		return nil, nil, r
	}
	if !t.Authority.Equals(authority) {
		ctx.Logf("tree authority is %s, got %s", t.Authority, authority)
		return nil, nil, ResultIncorrectAuthority
	}
	if r := ctx.RequireSigner(authority); r != tx.TesSUCCESS {
		return nil, nil, r
	}
	return t, acct, tx.TesSUCCESS
}

func treeError(err error) tx.Result {
	switch {
	case errors.Is(err, merkle.ErrTreeFull):
		return ResultTreeFull
	case errors.Is(err, merkle.ErrIndexOutOfBounds):
		return ResultLeafIndexOutOfBounds
	case errors.Is(err, ErrInvalidProof):
		return ResultInvalidProof
	default:
		return tx.TefINTERNAL
	}
}
