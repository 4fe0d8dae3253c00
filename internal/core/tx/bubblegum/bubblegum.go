// Package bubblegum implements compressed NFTs. An asset lives only as a
// leaf hash in a concurrent merkle tree owned by the compression program;
// every instruction that changes an asset takes the leaf plaintext and a
// proof, recomputes the old and new hashes and swaps them in the tree
// under the tree config's signature.
package bubblegum

import (
	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/merkle"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/compression"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
)

// ProgramID is the bubblegum program.
var ProgramID = keylet.BubblegumProgramID

func init() {
	tx.RegisterProgram(ProgramID, "bubblegum")
	tx.Register(ProgramID, "create_tree", func() tx.Instruction { return &CreateTree{} })
	tx.Register(ProgramID, "set_tree_delegate", func() tx.Instruction { return &SetTreeDelegate{} })
	tx.Register(ProgramID, "request_mint_authority", func() tx.Instruction { return &RequestMintAuthority{} })
	tx.Register(ProgramID, "approve_mint_authority_request", func() tx.Instruction { return &ApproveMintAuthorityRequest{} })
	tx.Register(ProgramID, "close_mint_request", func() tx.Instruction { return &CloseMintRequest{} })
	tx.Register(ProgramID, "mint_v1", func() tx.Instruction { return &MintV1{} })
	tx.Register(ProgramID, "transfer", func() tx.Instruction { return &Transfer{} })
	tx.Register(ProgramID, "delegate", func() tx.Instruction { return &Delegate{} })
	tx.Register(ProgramID, "burn", func() tx.Instruction { return &Burn{} })
	tx.Register(ProgramID, "verify_creator", func() tx.Instruction { return &VerifyCreator{} })
	tx.Register(ProgramID, "unverify_creator", func() tx.Instruction { return &UnverifyCreator{} })
	tx.Register(ProgramID, "verify_collection", func() tx.Instruction { return &VerifyCollection{} })
	tx.Register(ProgramID, "unverify_collection", func() tx.Instruction { return &UnverifyCollection{} })
	tx.Register(ProgramID, "set_and_verify_collection", func() tx.Instruction { return &SetAndVerifyCollection{} })
	tx.Register(ProgramID, "redeem", func() tx.Instruction { return &Redeem{} })
	tx.Register(ProgramID, "cancel_redeem", func() tx.Instruction { return &CancelRedeem{} })
	tx.Register(ProgramID, "decompress_v1", func() tx.Instruction { return &DecompressV1{} })
}

// LoadTreeConfig reads the config of tree.
func LoadTreeConfig(ctx *tx.ApplyContext, tree solana.PublicKey) (*TreeConfig, *ledger.Account, tx.Result) {
	key := keylet.TreeAuthority(tree).Key
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return nil, nil, r
	}
	if acct == nil {
		return nil, nil, ResultUninitializedAccount
	}
	if !acct.Owner.Equals(ProgramID) {
		return nil, nil, ResultIncorrectOwner
	}
	c, err := UnpackTreeConfig(acct.Data)
	if err != nil {
		ctx.Logf("tree config %s: %v", key, err)
		return nil, nil, ResultUninitializedAccount
	}
	return c, acct, tx.TesSUCCESS
}

// ReadTreeConfig decodes the config of tree without a context. It returns
// nil when the tree has no config.
func ReadTreeConfig(view tx.LedgerView, tree solana.PublicKey) (*TreeConfig, error) {
	acct, err := view.Read(keylet.TreeAuthority(tree).Key)
	if err != nil || acct == nil || !acct.Owner.Equals(ProgramID) {
		return nil, err
	}
	return UnpackTreeConfig(acct.Data)
}

// ReadVoucher decodes the voucher under key without a context.
func ReadVoucher(view tx.LedgerView, key solana.PublicKey) (*Voucher, error) {
	acct, err := view.Read(key)
	if err != nil || acct == nil || !acct.Owner.Equals(ProgramID) {
		return nil, err
	}
	return UnpackVoucher(acct.Data)
}

type packer interface {
	Pack() ([]byte, error)
}

func store(ctx *tx.ApplyContext, key solana.PublicKey, acct *ledger.Account, v packer) tx.Result {
	data, err := v.Pack()
	if err != nil {
		ctx.Logf("pack %s: %v", key, err)
		return tx.TefINTERNAL
	}
	acct.Data = data
	return ctx.Store(key, acct)
}

// closeAccount zeroes an account owned by the program and moves its
// lamports to dest, which erases it.
func closeAccount(ctx *tx.ApplyContext, key, dest solana.PublicKey) tx.Result {
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return r
	}
	if acct == nil {
		return tx.TesSUCCESS
	}
	if !acct.Owner.Equals(ProgramID) {
		return ResultIncorrectOwner
	}
	lamports := acct.Lamports
	if r := ctx.Store(key, &ledger.Account{Lamports: lamports, Owner: ProgramID, Data: make([]byte, len(acct.Data))}); r != tx.TesSUCCESS {
		return r
	}
	return ctx.MoveLamports(key, dest, lamports)
}

// LeafArgs locates the current version of a leaf and proves it. The proof
// runs from the leaf's sibling up to the child of the root.
type LeafArgs struct {
	Root        merkle.Hash   `json:"root"`
	DataHash    merkle.Hash   `json:"data_hash"`
	CreatorHash merkle.Hash   `json:"creator_hash"`
	Nonce       uint64        `json:"nonce"`
	Index       uint32        `json:"index"`
	Proof       []merkle.Hash `json:"proof"`
}

func (a LeafArgs) leaf(tree, owner, delegate solana.PublicKey) LeafSchema {
	return NewLeaf(tree, owner, delegate, a.Nonce, a.DataHash, a.CreatorHash)
}

func (a LeafArgs) validate() error {
	if len(a.Proof) > merkle.MaxDepth {
		return errProofTooLong
	}
	return nil
}

// replaceLeaf swaps previous for next at the leaf's index, signing as the
// tree authority.
func replaceLeaf(ctx *tx.ApplyContext, tree solana.PublicKey, a LeafArgs, previous, next merkle.Hash) tx.Result {
	authority := keylet.TreeAuthority(tree)
	ix := &compression.ReplaceLeaf{
		Tree:         tree,
		Authority:    authority.Key,
		Root:         a.Root,
		PreviousLeaf: previous,
		NewLeaf:      next,
		Index:        a.Index,
		Proof:        a.Proof,
	}
	return compression.InvokeReplaceLeaf(ctx, ix, authority.SignerSeeds())
}

// checkLeafSigner requires the owner or the delegate of a leaf to sign.
func checkLeafSigner(ctx *tx.ApplyContext, owner, delegate solana.PublicKey) tx.Result {
	if ctx.IsSigner(owner) || ctx.IsSigner(delegate) {
		return tx.TesSUCCESS
	}
	ctx.Logf("neither owner %s nor delegate %s signed", owner, delegate)
	return ResultLeafAuthorityMustSign
}

// checkHashes recomputes the data and creator hashes of message and
// compares them with the caller's.
func checkHashes(message MetadataArgs, a LeafArgs) tx.Result {
	if HashMetadata(message) != a.DataHash {
		return ResultDataHashMismatch
	}
	if HashCreators(message.Creators) != a.CreatorHash {
		return ResultCreatorHashMismatch
	}
	return tx.TesSUCCESS
}

// validateMetadata applies the registry's limits to a compressed asset.
// An asset may have no creators at all.
func validateMetadata(m MetadataArgs, isSigner func(solana.PublicKey) bool) tx.Result {
	r := tokenmetadata.ValidateData(m.Name, m.Symbol, m.URI, m.SellerFeeBasisPoints, registryCreators(m.Creators), isSigner)
	switch r {
	case tx.TesSUCCESS:
		return r
	case tokenmetadata.ResultNameTooLong:
		return ResultMetadataNameTooLong
	case tokenmetadata.ResultSymbolTooLong:
		return ResultMetadataSymbolTooLong
	case tokenmetadata.ResultURITooLong:
		return ResultMetadataURITooLong
	case tokenmetadata.ResultInvalidBasisPoints:
		return ResultMetadataBasisPointsTooHigh
	case tokenmetadata.ResultCreatorsTooLong:
		return ResultCreatorsTooLong
	case tokenmetadata.ResultCreatorsMustBeAtLeastOne:
		return ResultNoCreatorsPresent
	case tokenmetadata.ResultDuplicateCreatorAddress:
		return ResultDuplicateCreatorAddress
	case tokenmetadata.ResultShareTotalMustBe100:
		return ResultCreatorShareTotalMustBe100
	case tokenmetadata.ResultCannotVerifyAnotherCreator:
		return ResultCreatorDidNotVerify
	default:
		return r
	}
}

// registryCreators returns creators in the form the metadata registry
// expects, where an empty list is absent.
func registryCreators(creators []tokenmetadata.Creator) []tokenmetadata.Creator {
	if len(creators) == 0 {
		return nil
	}
	return creators
}
