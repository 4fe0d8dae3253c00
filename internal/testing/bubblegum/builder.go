// Package bubblegum provides a tree fixture for compressed asset tests. It
// mirrors every successful leaf change in an in-memory tree so tests can
// hand the program current roots and proofs.
package bubblegum

import (
	gotesting "testing"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/merkle"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	bgtx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/bubblegum"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/compression"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/testing"
	"github.com/stretchr/testify/require"
)

// DefaultBufferSize is the buffer size of fixture trees.
const DefaultBufferSize = 64

// Asset is the plaintext of a compressed asset as the fixture knows it.
type Asset struct {
	Owner    solana.PublicKey
	Delegate solana.PublicKey
	Nonce    uint64
	Index    uint32
	Message  bgtx.MetadataArgs
}

// ID returns the asset id.
func (a Asset) ID(tree solana.PublicKey) solana.PublicKey {
	return bgtx.AssetID(tree, a.Nonce)
}

// Leaf returns the leaf schema of a in tree.
func (a Asset) Leaf(tree solana.PublicKey) bgtx.LeafSchema {
	return bgtx.NewLeaf(tree, a.Owner, a.Delegate, a.Nonce, bgtx.HashMetadata(a.Message), bgtx.HashCreators(a.Message.Creators))
}

// DefaultMessage returns metadata with creator taking every share,
// unverified, and a 5% royalty.
func DefaultMessage(creator solana.PublicKey) bgtx.MetadataArgs {
	return bgtx.MetadataArgs{
		Name:                 "Compressed",
		Symbol:               "CNFT",
		URI:                  "https://example.com/cnft.json",
		SellerFeeBasisPoints: 500,
		IsMutable:            true,
		Creators: []tokenmetadata.Creator{
			{Address: creator, Share: 100},
		},
	}
}

// Tree is a bubblegum tree and its off-chain mirror.
type Tree struct {
	t       *gotesting.T
	env     *testing.TestEnv
	Key     solana.PublicKey
	Creator *testing.Account
	mirror  *merkle.Tree
}

// CreateTree allocates a tree of depth and initializes it with creator as
// tree creator.
func CreateTree(t *gotesting.T, env *testing.TestEnv, creator *testing.Account, depth uint32, public bool) *Tree {
	t.Helper()
	tree := env.NewKeypair("tree")
	env.MustSubmit([]*testing.Account{creator, tree},
		env.CreateAccountIx(creator.PublicKey(), tree.PublicKey(), compression.TreeAccountSize(depth), compression.ProgramID),
		CreateTreeIx(creator, tree.PublicKey(), depth, public),
	)
	mirror, err := merkle.NewTree(depth)
	require.NoError(t, err)
	return &Tree{t: t, env: env, Key: tree.PublicKey(), Creator: creator, mirror: mirror}
}

// CreateTreeIx returns create_tree for an allocated tree paid for by
// creator.
func CreateTreeIx(creator *testing.Account, tree solana.PublicKey, depth uint32, public bool) *bgtx.CreateTree {
	return &bgtx.CreateTree{
		Tree:          tree,
		Payer:         creator.PublicKey(),
		TreeCreator:   creator.PublicKey(),
		MaxDepth:      depth,
		MaxBufferSize: DefaultBufferSize,
		Public:        public,
	}
}

// Config returns the tree config.
func (tr *Tree) Config() *bgtx.TreeConfig {
	tr.t.Helper()
	c, err := bgtx.ReadTreeConfig(tr.env.Store(), tr.Key)
	require.NoError(tr.t, err)
	require.NotNil(tr.t, c, "tree %s has no config", tr.Key)
	return c
}

// Account returns the compression account of the tree.
func (tr *Tree) Account() *compression.TreeAccount {
	tr.t.Helper()
	a, err := compression.ReadTree(tr.env.Store(), tr.Key)
	require.NoError(tr.t, err)
	return a
}

// Root returns the mirrored root.
func (tr *Tree) Root() merkle.Hash {
	return tr.mirror.Root()
}

// Args returns the leaf arguments proving a against the current root.
func (tr *Tree) Args(a Asset) bgtx.LeafArgs {
	tr.t.Helper()
	proof, err := tr.mirror.Proof(a.Index)
	require.NoError(tr.t, err)
	return bgtx.LeafArgs{
		Root:        tr.mirror.Root(),
		DataHash:    bgtx.HashMetadata(a.Message),
		CreatorHash: bgtx.HashCreators(a.Message.Creators),
		Nonce:       a.Nonce,
		Index:       a.Index,
		Proof:       proof,
	}
}

// MintIx returns mint_v1 for an asset owned and delegated to owner.
func (tr *Tree) MintIx(minter, owner solana.PublicKey, message bgtx.MetadataArgs) *bgtx.MintV1 {
	return &bgtx.MintV1{
		Tree:         tr.Key,
		LeafOwner:    owner,
		LeafDelegate: owner,
		Minter:       minter,
		Message:      message,
	}
}

// Mint mints message to owner. signers sign after minter, who pays.
func (tr *Tree) Mint(minter *testing.Account, owner solana.PublicKey, message bgtx.MetadataArgs, signers ...*testing.Account) (Asset, tx.ApplyResult) {
	tr.t.Helper()
	nonce := tr.Config().NumMinted
	res := tr.env.SubmitSigned(append([]*testing.Account{minter}, signers...), tr.MintIx(minter.PublicKey(), owner, message))
	a := Asset{Owner: owner, Delegate: owner, Nonce: nonce, Index: tr.mirror.Len(), Message: message}
	if res.Result == tx.TesSUCCESS {
		_, err := tr.mirror.Append(a.Leaf(tr.Key).Hash())
		require.NoError(tr.t, err)
	}
	return a, res
}

// MustMint mints and fails the test unless it succeeds.
func (tr *Tree) MustMint(minter *testing.Account, owner solana.PublicKey, message bgtx.MetadataArgs, signers ...*testing.Account) Asset {
	tr.t.Helper()
	a, res := tr.Mint(minter, owner, message, signers...)
	testing.RequireTxSuccess(tr.t, res)
	return a
}

// submit applies ix and, when it succeeds, writes leaf at index in the
// mirror and runs commit.
func (tr *Tree) submit(signers []*testing.Account, ix tx.Instruction, index uint32, leaf merkle.Hash, commit func()) tx.ApplyResult {
	tr.t.Helper()
	res := tr.env.SubmitSigned(signers, ix)
	if res.Result == tx.TesSUCCESS {
		require.NoError(tr.t, tr.mirror.Replace(index, leaf))
		if commit != nil {
			commit()
		}
	}
	return res
}

// Transfer moves a to newOwner with signer as owner or delegate.
func (tr *Tree) Transfer(signer *testing.Account, a *Asset, newOwner solana.PublicKey) tx.ApplyResult {
	tr.t.Helper()
	ix := &bgtx.Transfer{
		LeafArgs:     tr.Args(*a),
		Tree:         tr.Key,
		LeafOwner:    a.Owner,
		LeafDelegate: a.Delegate,
		NewLeafOwner: newOwner,
	}
	next := *a
	next.Owner, next.Delegate = newOwner, newOwner
	return tr.submit([]*testing.Account{signer}, ix, a.Index, next.Leaf(tr.Key).Hash(), func() { *a = next })
}

// Delegate sets the delegate of a with signer as owner or delegate.
func (tr *Tree) Delegate(signer *testing.Account, a *Asset, delegate solana.PublicKey) tx.ApplyResult {
	tr.t.Helper()
	ix := &bgtx.Delegate{
		LeafArgs:             tr.Args(*a),
		Tree:                 tr.Key,
		LeafOwner:            a.Owner,
		PreviousLeafDelegate: a.Delegate,
		NewLeafDelegate:      delegate,
	}
	next := *a
	next.Delegate = delegate
	return tr.submit([]*testing.Account{signer}, ix, a.Index, next.Leaf(tr.Key).Hash(), func() { *a = next })
}

// Burn destroys a with signer as owner or delegate.
func (tr *Tree) Burn(signer *testing.Account, a Asset) tx.ApplyResult {
	tr.t.Helper()
	ix := &bgtx.Burn{LeafArgs: tr.Args(a), Tree: tr.Key, LeafOwner: a.Owner, LeafDelegate: a.Delegate}
	return tr.submit([]*testing.Account{signer}, ix, a.Index, merkle.Zero, nil)
}

// VerifyCreator sets the verified flag of creator on a.
func (tr *Tree) VerifyCreator(creator *testing.Account, a *Asset, verified bool) tx.ApplyResult {
	tr.t.Helper()
	change := bgtx.CreatorChange{
		LeafArgs:     tr.Args(*a),
		Tree:         tr.Key,
		LeafOwner:    a.Owner,
		LeafDelegate: a.Delegate,
		Creator:      creator.PublicKey(),
		Message:      a.Message,
	}
	var ix tx.Instruction = &bgtx.VerifyCreator{CreatorChange: change}
	if !verified {
		ix = &bgtx.UnverifyCreator{CreatorChange: change}
	}
	next := *a
	next.Message.Creators = append([]tokenmetadata.Creator(nil), a.Message.Creators...)
	for i := range next.Message.Creators {
		if next.Message.Creators[i].Address.Equals(creator.PublicKey()) {
			next.Message.Creators[i].Verified = verified
		}
	}
	return tr.submit([]*testing.Account{creator}, ix, a.Index, next.Leaf(tr.Key).Hash(), func() { *a = next })
}

func (tr *Tree) collectionChange(authority *testing.Account, a Asset, mint solana.PublicKey) bgtx.CollectionChange {
	return bgtx.CollectionChange{
		LeafArgs:            tr.Args(a),
		Tree:                tr.Key,
		LeafOwner:           a.Owner,
		LeafDelegate:        a.Delegate,
		CollectionAuthority: authority.PublicKey(),
		CollectionMint:      mint,
		Message:             a.Message,
	}
}

func withCollection(a Asset, mint solana.PublicKey, verified bool) Asset {
	a.Message.Collection = &tokenmetadata.Collection{Key: mint, Verified: verified}
	return a
}

// VerifyCollection sets the verified flag of a's collection, whose update
// authority is authority.
func (tr *Tree) VerifyCollection(authority *testing.Account, a *Asset, mint solana.PublicKey, verified bool) tx.ApplyResult {
	tr.t.Helper()
	change := tr.collectionChange(authority, *a, mint)
	var ix tx.Instruction = &bgtx.VerifyCollection{CollectionChange: change}
	if !verified {
		ix = &bgtx.UnverifyCollection{CollectionChange: change}
	}
	next := withCollection(*a, mint, verified)
	return tr.submit([]*testing.Account{authority}, ix, a.Index, next.Leaf(tr.Key).Hash(), func() { *a = next })
}

// SetAndVerifyCollection puts a in the collection of mint and verifies it.
// The tree creator signs as tree delegate.
func (tr *Tree) SetAndVerifyCollection(authority *testing.Account, a *Asset, mint solana.PublicKey) tx.ApplyResult {
	tr.t.Helper()
	ix := &bgtx.SetAndVerifyCollection{
		CollectionChange: tr.collectionChange(authority, *a, mint),
		TreeDelegate:     tr.Creator.PublicKey(),
	}
	next := withCollection(*a, mint, true)
	signers := []*testing.Account{authority}
	if !authority.PublicKey().Equals(tr.Creator.PublicKey()) {
		signers = append(signers, tr.Creator)
	}
	return tr.submit(signers, ix, a.Index, next.Leaf(tr.Key).Hash(), func() { *a = next })
}

// Voucher returns the voucher address of a.
func (tr *Tree) Voucher(a Asset) solana.PublicKey {
	return keylet.Voucher(tr.Key, a.Nonce).Key
}

// Redeem moves a into its voucher. owner signs and pays.
func (tr *Tree) Redeem(owner *testing.Account, a Asset) tx.ApplyResult {
	tr.t.Helper()
	ix := &bgtx.Redeem{LeafArgs: tr.Args(a), Tree: tr.Key, LeafOwner: a.Owner, LeafDelegate: a.Delegate}
	return tr.submit([]*testing.Account{owner}, ix, a.Index, merkle.Zero, nil)
}

// CancelRedeem puts a back from its voucher.
func (tr *Tree) CancelRedeem(owner *testing.Account, a Asset) tx.ApplyResult {
	tr.t.Helper()
	proof, err := tr.mirror.Proof(a.Index)
	require.NoError(tr.t, err)
	ix := &bgtx.CancelRedeem{
		Tree:      tr.Key,
		LeafOwner: a.Owner,
		Voucher:   tr.Voucher(a),
		Root:      tr.mirror.Root(),
		Proof:     proof,
	}
	return tr.submit([]*testing.Account{owner}, ix, a.Index, a.Leaf(tr.Key).Hash(), nil)
}

// Decompress turns the voucher of a into a token held by owner.
func (tr *Tree) Decompress(owner *testing.Account, a Asset) tx.ApplyResult {
	tr.t.Helper()
	return tr.env.SubmitSigned([]*testing.Account{owner}, &bgtx.DecompressV1{
		Tree:      tr.Key,
		Nonce:     a.Nonce,
		LeafOwner: a.Owner,
		Message:   a.Message,
	})
}
