package bubblegum_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/merkle"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	bgtx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/bubblegum"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/compression"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
	jtx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/testing"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/testing/bubblegum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture is a private depth-3 tree with a funded owner and stranger.
type fixture struct {
	env      *jtx.TestEnv
	creator  *jtx.Account
	owner    *jtx.Account
	stranger *jtx.Account
	tree     *bubblegum.Tree
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := jtx.NewTestEnv(t)
	f := &fixture{
		env:      env,
		creator:  jtx.NewAccount("creator"),
		owner:    jtx.NewAccount("owner"),
		stranger: jtx.NewAccount("stranger"),
	}
	env.Fund(f.creator, f.owner, f.stranger)
	f.tree = bubblegum.CreateTree(t, env, f.creator, 3, false)
	return f
}

// requireRootInSync checks that the on-chain root matches the mirror.
func (f *fixture) requireRootInSync(t *testing.T) {
	t.Helper()
	require.Equal(t, f.tree.Root(), f.tree.Account().Root)
}

func (f *fixture) mint(t *testing.T) bubblegum.Asset {
	t.Helper()
	return f.tree.MustMint(f.creator, f.owner.PublicKey(), bubblegum.DefaultMessage(f.creator.PublicKey()))
}

func TestCreateTree(t *testing.T) {
	f := newFixture(t)

	c := f.tree.Config()
	assert.Equal(t, f.creator.PublicKey(), c.TreeCreator)
	assert.Equal(t, f.creator.PublicKey(), c.TreeDelegate)
	assert.Equal(t, uint64(8), c.TotalMintCapacity)
	assert.Zero(t, c.NumMinted)
	assert.False(t, c.IsPublic)

	acct := f.tree.Account()
	assert.Equal(t, keylet.TreeAuthority(f.tree.Key).Key, acct.Authority)
	assert.Equal(t, uint32(3), acct.MaxDepth)
	f.requireRootInSync(t)

	t.Run("twice", func(t *testing.T) {
		res := f.env.Submit(f.creator, bubblegum.CreateTreeIx(f.creator, f.tree.Key, 3, false))
		jtx.RequireTxFail(t, res, bgtx.ResultTreeAlreadyInitialized)
	})

	t.Run("creator signs", func(t *testing.T) {
		tree := f.env.NewKeypair("tree")
		ix := bubblegum.CreateTreeIx(f.creator, tree.PublicKey(), 3, false)
		ix.Payer = f.stranger.PublicKey()
		res := f.env.SubmitSigned([]*jtx.Account{f.stranger, tree},
			f.env.CreateAccountIx(f.stranger.PublicKey(), tree.PublicKey(), compression.TreeAccountSize(3), compression.ProgramID),
			ix,
		)
		jtx.RequireTxFail(t, res, tx.TefMISSING_REQUIRED_SIGNATURE)
	})

	t.Run("depth out of range", func(t *testing.T) {
		tree := f.env.NewKeypair("tree")
		res := f.env.SubmitSigned([]*jtx.Account{f.creator, tree},
			f.env.CreateAccountIx(f.creator.PublicKey(), tree.PublicKey(), compression.TreeAccountSize(2), compression.ProgramID),
			bubblegum.CreateTreeIx(f.creator, tree.PublicKey(), 2, false),
		)
		jtx.RequireTxFail(t, res, compression.ResultInvalidDepth)
		jtx.RequireAccountNotExists(t, f.env, keylet.TreeAuthority(tree.PublicKey()).Key)
	})
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	buyer := jtx.NewAccount("buyer")
	agent := jtx.NewAccount("agent")
	f.env.Fund(buyer, agent)

	a := f.mint(t)
	assert.Equal(t, uint64(0), a.Nonce)
	assert.Equal(t, uint64(1), f.tree.Config().NumMinted)
	f.requireRootInSync(t)

	jtx.RequireTxSuccess(t, f.tree.Transfer(f.owner, &a, buyer.PublicKey()))
	assert.Equal(t, buyer.PublicKey(), a.Owner)
	f.requireRootInSync(t)

	jtx.RequireTxSuccess(t, f.tree.Delegate(buyer, &a, agent.PublicKey()))
	f.requireRootInSync(t)

	// The delegate moves the asset back and loses its rights.
	jtx.RequireTxSuccess(t, f.tree.Transfer(agent, &a, f.owner.PublicKey()))
	assert.Equal(t, f.owner.PublicKey(), a.Delegate)
	f.requireRootInSync(t)
	jtx.RequireTxFail(t, f.tree.Transfer(agent, &a, agent.PublicKey()), bgtx.ResultLeafAuthorityMustSign)

	jtx.RequireTxSuccess(t, f.tree.Burn(f.owner, a))
	f.requireRootInSync(t)

	// A burned asset cannot be proven any more.
	res := f.tree.Transfer(f.owner, &a, buyer.PublicKey())
	jtx.RequireTxFail(t, res, compression.ResultInvalidProof)
}

func TestLeafAuthority(t *testing.T) {
	f := newFixture(t)
	a := f.mint(t)

	t.Run("stranger transfer", func(t *testing.T) {
		jtx.RequireTxFail(t, f.tree.Transfer(f.stranger, &a, f.stranger.PublicKey()), bgtx.ResultLeafAuthorityMustSign)
	})

	t.Run("stranger burn", func(t *testing.T) {
		jtx.RequireTxFail(t, f.tree.Burn(f.stranger, a), bgtx.ResultLeafAuthorityMustSign)
	})

	t.Run("owner or delegate changes the delegate", func(t *testing.T) {
		outsider := jtx.NewAccount("outsider")
		f.env.Fund(outsider)
		jtx.RequireTxFail(t, f.tree.Delegate(f.stranger, &a, f.stranger.PublicKey()), bgtx.ResultLeafAuthorityMustSign)

		jtx.RequireTxSuccess(t, f.tree.Delegate(f.owner, &a, f.stranger.PublicKey()))
		assert.Equal(t, f.stranger.PublicKey(), a.Delegate)
		jtx.RequireTxFail(t, f.tree.Delegate(outsider, &a, outsider.PublicKey()), bgtx.ResultLeafAuthorityMustSign)

		jtx.RequireTxSuccess(t, f.tree.Delegate(f.stranger, &a, f.owner.PublicKey()))
		assert.Equal(t, f.owner.PublicKey(), a.Delegate)
		f.requireRootInSync(t)
	})

	t.Run("claiming ownership does not prove it", func(t *testing.T) {
		ix := &bgtx.Transfer{
			LeafArgs:     f.tree.Args(a),
			Tree:         f.tree.Key,
			LeafOwner:    f.stranger.PublicKey(),
			LeafDelegate: f.stranger.PublicKey(),
			NewLeafOwner: f.stranger.PublicKey(),
		}
		jtx.RequireTxFail(t, f.env.Submit(f.stranger, ix), compression.ResultInvalidProof)
		f.requireRootInSync(t)
	})

	t.Run("long proof", func(t *testing.T) {
		args := f.tree.Args(a)
		args.Proof = append(args.Proof, make([]merkle.Hash, 28)...)
		ix := &bgtx.Burn{LeafArgs: args, Tree: f.tree.Key, LeafOwner: a.Owner, LeafDelegate: a.Delegate}
		jtx.RequireTxFail(t, f.env.Submit(f.owner, ix), tx.TemINVALID_INSTRUCTION_DATA)
	})
}

func TestStaleRoot(t *testing.T) {
	f := newFixture(t)
	a := f.mint(t)
	b := f.mint(t)

	stale := f.tree.Args(a)
	jtx.RequireTxSuccess(t, f.tree.Transfer(f.owner, &b, f.stranger.PublicKey()))
	before := f.tree.Account()

	ix := &bgtx.Transfer{
		LeafArgs:     stale,
		Tree:         f.tree.Key,
		LeafOwner:    a.Owner,
		LeafDelegate: a.Delegate,
		NewLeafOwner: f.stranger.PublicKey(),
	}
	jtx.RequireTxFail(t, f.env.Submit(f.owner, ix), compression.ResultInvalidProof)

	after := f.tree.Account()
	assert.Equal(t, before.Root, after.Root)
	assert.Equal(t, before.Sequence, after.Sequence)

	// A fresh proof goes through.
	jtx.RequireTxSuccess(t, f.tree.Transfer(f.owner, &a, f.stranger.PublicKey()))
	f.requireRootInSync(t)
}

func TestMintCapacity(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 8; i++ {
		a := f.mint(t)
		assert.Equal(t, uint64(i), a.Nonce)
	}
	_, res := f.tree.Mint(f.creator, f.owner.PublicKey(), bubblegum.DefaultMessage(f.creator.PublicKey()))
	jtx.RequireTxFail(t, res, bgtx.ResultInsufficientMintCapacity)
	assert.Equal(t, uint64(8), f.tree.Config().NumMinted)
	f.requireRootInSync(t)
}

func TestMintValidation(t *testing.T) {
	f := newFixture(t)
	cosigner := jtx.NewAccount("cosigner")
	f.env.Fund(cosigner)

	tests := []struct {
		name    string
		message func(m *bgtx.MetadataArgs)
		signers []*jtx.Account
		want    tx.Result
	}{
		{
			name:    "long name",
			message: func(m *bgtx.MetadataArgs) { m.Name = string(make([]byte, 33)) },
			want:    bgtx.ResultMetadataNameTooLong,
		},
		{
			name:    "royalty above 100%",
			message: func(m *bgtx.MetadataArgs) { m.SellerFeeBasisPoints = 10001 },
			want:    bgtx.ResultMetadataBasisPointsTooHigh,
		},
		{
			name:    "shares",
			message: func(m *bgtx.MetadataArgs) { m.Creators[0].Share = 90 },
			want:    bgtx.ResultCreatorShareTotalMustBe100,
		},
		{
			name: "unsigned verified creator",
			message: func(m *bgtx.MetadataArgs) {
				m.Creators = []tokenmetadata.Creator{{Address: cosigner.PublicKey(), Verified: true, Share: 100}}
			},
			want: bgtx.ResultCreatorDidNotVerify,
		},
		{
			name: "signed verified creator",
			message: func(m *bgtx.MetadataArgs) {
				m.Creators = []tokenmetadata.Creator{{Address: cosigner.PublicKey(), Verified: true, Share: 100}}
			},
			signers: []*jtx.Account{cosigner},
			want:    tx.TesSUCCESS,
		},
		{
			name:    "no creators",
			message: func(m *bgtx.MetadataArgs) { m.Creators = nil },
			want:    tx.TesSUCCESS,
		},
		{
			name: "verified collection",
			message: func(m *bgtx.MetadataArgs) {
				m.Collection = &tokenmetadata.Collection{Key: cosigner.PublicKey(), Verified: true}
			},
			want: bgtx.ResultCollectionCannotBeVerified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := bubblegum.DefaultMessage(f.creator.PublicKey())
			tt.message(&m)
			_, res := f.tree.Mint(f.creator, f.owner.PublicKey(), m, tt.signers...)
			if tt.want == tx.TesSUCCESS {
				jtx.RequireTxSuccess(t, res)
			} else {
				jtx.RequireTxFail(t, res, tt.want)
			}
			f.requireRootInSync(t)
		})
	}
}

func readRequest(t *testing.T, env *jtx.TestEnv, minter, tree solana.PublicKey) *bgtx.MintRequest {
	t.Helper()
	acct := env.Account(keylet.MintRequest(minter, tree).Key)
	require.NotNil(t, acct)
	r, err := bgtx.UnpackMintRequest(acct.Data)
	require.NoError(t, err)
	return r
}

func TestMintRequests(t *testing.T) {
	f := newFixture(t)
	minter := jtx.NewAccount("minter")
	f.env.Fund(minter)
	message := bubblegum.DefaultMessage(minter.PublicKey())

	request := func(n uint64) tx.ApplyResult {
		return f.env.Submit(minter, &bgtx.RequestMintAuthority{
			Tree:          f.tree.Key,
			MintAuthority: minter.PublicKey(),
			Payer:         minter.PublicKey(),
			MintCapacity:  n,
		})
	}
	approve := func(approver *jtx.Account, n uint64) tx.ApplyResult {
		return f.env.Submit(approver, &bgtx.ApproveMintAuthorityRequest{
			Tree:              f.tree.Key,
			TreeAuthority:     approver.PublicKey(),
			MintAuthority:     minter.PublicKey(),
			NumMintsToApprove: n,
		})
	}

	_, res := f.tree.Mint(minter, f.owner.PublicKey(), message)
	jtx.RequireTxFail(t, res, bgtx.ResultMintRequestNotApproved)

	jtx.RequireTxFail(t, request(9), bgtx.ResultInsufficientMintCapacity)
	jtx.RequireTxSuccess(t, request(2))
	jtx.RequireTxSuccess(t, request(1))
	assert.Equal(t, uint64(3), readRequest(t, f.env, minter.PublicKey(), f.tree.Key).NumRequested)

	jtx.RequireTxFail(t, approve(f.stranger, 2), bgtx.ResultTreeAuthorityIncorrect)
	jtx.RequireTxFail(t, approve(f.creator, 4), bgtx.ResultMintRequestExceeded)
	jtx.RequireTxSuccess(t, approve(f.creator, 2))

	r := readRequest(t, f.env, minter.PublicKey(), f.tree.Key)
	assert.Equal(t, uint64(1), r.NumRequested)
	assert.Equal(t, uint64(2), r.NumApproved)
	assert.Equal(t, uint64(6), f.tree.Config().RemainingCapacity())

	f.tree.MustMint(minter, f.owner.PublicKey(), message)
	f.tree.MustMint(minter, f.owner.PublicKey(), message)
	_, res = f.tree.Mint(minter, f.owner.PublicKey(), message)
	jtx.RequireTxFail(t, res, bgtx.ResultMintRequestNotApproved)

	c := f.tree.Config()
	assert.Equal(t, uint64(2), c.NumMinted)
	assert.Zero(t, c.NumMintsApproved)
	f.requireRootInSync(t)

	t.Run("close returns unused approvals", func(t *testing.T) {
		jtx.RequireTxSuccess(t, approve(f.creator, 1))
		assert.Equal(t, uint64(1), f.tree.Config().NumMintsApproved)

		closeIx := &bgtx.CloseMintRequest{Tree: f.tree.Key, MintAuthority: minter.PublicKey(), Authority: f.stranger.PublicKey()}
		jtx.RequireTxFail(t, f.env.Submit(f.stranger, closeIx), bgtx.ResultTreeAuthorityIncorrect)

		closeIx.Authority = minter.PublicKey()
		jtx.RequireTxSuccess(t, f.env.Submit(minter, closeIx))
		jtx.RequireAccountNotExists(t, f.env, keylet.MintRequest(minter.PublicKey(), f.tree.Key).Key)
		assert.Zero(t, f.tree.Config().NumMintsApproved)
		assert.Equal(t, uint64(6), f.tree.Config().RemainingCapacity())
	})
}

func TestTreeDelegate(t *testing.T) {
	f := newFixture(t)
	delegate := jtx.NewAccount("delegate")
	f.env.Fund(delegate)
	set := &bgtx.SetTreeDelegate{Tree: f.tree.Key, TreeCreator: f.creator.PublicKey(), NewTreeDelegate: delegate.PublicKey()}

	res := f.env.Submit(f.stranger, &bgtx.SetTreeDelegate{Tree: f.tree.Key, TreeCreator: f.stranger.PublicKey(), NewTreeDelegate: f.stranger.PublicKey()})
	jtx.RequireTxFail(t, res, bgtx.ResultTreeAuthorityIncorrect)

	jtx.RequireTxSuccess(t, f.env.Submit(f.creator, set))
	assert.Equal(t, delegate.PublicKey(), f.tree.Config().TreeDelegate)
	f.tree.MustMint(delegate, f.owner.PublicKey(), bubblegum.DefaultMessage(delegate.PublicKey()))
}

func TestPublicTree(t *testing.T) {
	env := jtx.NewTestEnv(t)
	creator, anyone := jtx.NewAccount("creator"), jtx.NewAccount("anyone")
	env.Fund(creator, anyone)
	tree := bubblegum.CreateTree(t, env, creator, 3, true)

	a := tree.MustMint(anyone, anyone.PublicKey(), bubblegum.DefaultMessage(anyone.PublicKey()))
	assert.Equal(t, uint64(0), a.Nonce)
	assert.True(t, tree.Config().IsPublic)
}

func TestCreatorVerification(t *testing.T) {
	f := newFixture(t)
	first, second := jtx.NewAccount("first"), jtx.NewAccount("second")
	f.env.Fund(first, second)

	m := bubblegum.DefaultMessage(first.PublicKey())
	m.Creators = []tokenmetadata.Creator{
		{Address: first.PublicKey(), Share: 70},
		{Address: second.PublicKey(), Share: 30},
	}
	a := f.tree.MustMint(f.creator, f.owner.PublicKey(), m)

	jtx.RequireTxSuccess(t, f.tree.VerifyCreator(second, &a, true))
	assert.True(t, a.Message.Creators[1].Verified)
	f.requireRootInSync(t)
	jtx.RequireTxFail(t, f.tree.VerifyCreator(second, &a, true), bgtx.ResultAlreadyVerified)

	jtx.RequireTxSuccess(t, f.tree.VerifyCreator(second, &a, false))
	f.requireRootInSync(t)
	jtx.RequireTxFail(t, f.tree.VerifyCreator(second, &a, false), bgtx.ResultAlreadyUnverified)

	jtx.RequireTxFail(t, f.tree.VerifyCreator(f.stranger, &a, true), bgtx.ResultCreatorNotFound)

	t.Run("creator signs", func(t *testing.T) {
		ix := &bgtx.VerifyCreator{CreatorChange: bgtx.CreatorChange{
			LeafArgs:     f.tree.Args(a),
			Tree:         f.tree.Key,
			LeafOwner:    a.Owner,
			LeafDelegate: a.Delegate,
			Creator:      first.PublicKey(),
			Message:      a.Message,
		}}
		jtx.RequireTxFail(t, f.env.Submit(f.owner, ix), bgtx.ResultCreatorDidNotVerify)
	})

	t.Run("plaintext must match the hashes", func(t *testing.T) {
		change := bgtx.CreatorChange{
			LeafArgs:     f.tree.Args(a),
			Tree:         f.tree.Key,
			LeafOwner:    a.Owner,
			LeafDelegate: a.Delegate,
			Creator:      first.PublicKey(),
			Message:      a.Message,
		}
		change.Message.Name = "Forged"
		jtx.RequireTxFail(t, f.env.Submit(first, &bgtx.VerifyCreator{CreatorChange: change}), bgtx.ResultDataHashMismatch)

		change.Message = a.Message
		change.CreatorHash[0] ^= 1
		jtx.RequireTxFail(t, f.env.Submit(first, &bgtx.VerifyCreator{CreatorChange: change}), bgtx.ResultCreatorHashMismatch)
	})
}

func TestCollectionVerification(t *testing.T) {
	f := newFixture(t)
	authority := jtx.NewAccount("collection-authority")
	f.env.Fund(authority)
	collection := f.env.CreateAsset(authority, 1, jtx.DefaultData(authority.PublicKey()))
	other := f.env.CreateAsset(authority, 1, jtx.DefaultData(authority.PublicKey()))
	bare := f.env.CreateMint(authority, authority.PublicKey(), 0)

	m := bubblegum.DefaultMessage(f.creator.PublicKey())
	m.Collection = &tokenmetadata.Collection{Key: collection.Mint}
	a := f.tree.MustMint(f.creator, f.owner.PublicKey(), m)

	jtx.RequireTxFail(t, f.tree.VerifyCollection(f.stranger, &a, collection.Mint, true), bgtx.ResultUpdateAuthorityIncorrect)
	jtx.RequireTxFail(t, f.tree.VerifyCollection(authority, &a, other.Mint, true), bgtx.ResultCollectionMismatch)
	jtx.RequireTxFail(t, f.tree.VerifyCollection(authority, &a, bare, true), bgtx.ResultCollectionNotFound)

	jtx.RequireTxSuccess(t, f.tree.VerifyCollection(authority, &a, collection.Mint, true))
	assert.True(t, a.Message.Collection.Verified)
	f.requireRootInSync(t)
	jtx.RequireTxFail(t, f.tree.VerifyCollection(authority, &a, collection.Mint, true), bgtx.ResultAlreadyVerified)

	jtx.RequireTxSuccess(t, f.tree.VerifyCollection(authority, &a, collection.Mint, false))
	assert.False(t, a.Message.Collection.Verified)
	f.requireRootInSync(t)

	t.Run("set and verify", func(t *testing.T) {
		b := f.mint(t)
		jtx.RequireTxFail(t, f.tree.VerifyCollection(authority, &b, collection.Mint, true), bgtx.ResultCollectionNotFound)

		jtx.RequireTxSuccess(t, f.tree.SetAndVerifyCollection(authority, &b, collection.Mint))
		require.NotNil(t, b.Message.Collection)
		assert.Equal(t, collection.Mint, b.Message.Collection.Key)
		assert.True(t, b.Message.Collection.Verified)
		f.requireRootInSync(t)
	})

	t.Run("set and verify needs a tree admin", func(t *testing.T) {
		b := f.mint(t)
		ix := &bgtx.SetAndVerifyCollection{
			CollectionChange: bgtx.CollectionChange{
				LeafArgs:            f.tree.Args(b),
				Tree:                f.tree.Key,
				LeafOwner:           b.Owner,
				LeafDelegate:        b.Delegate,
				CollectionAuthority: authority.PublicKey(),
				CollectionMint:      collection.Mint,
				Message:             b.Message,
			},
			TreeDelegate: f.stranger.PublicKey(),
		}
		res := f.env.SubmitSigned([]*jtx.Account{authority, f.stranger}, ix)
		jtx.RequireTxFail(t, res, bgtx.ResultTreeAuthorityIncorrect)
	})
}

func TestRedeem(t *testing.T) {
	f := newFixture(t)
	a := f.mint(t)
	voucher := f.tree.Voucher(a)

	jtx.RequireTxSuccess(t, f.tree.Delegate(f.owner, &a, f.stranger.PublicKey()))
	jtx.RequireTxFail(t, f.tree.Redeem(f.stranger, a), tx.TefMISSING_REQUIRED_SIGNATURE)

	before := f.env.Balance(f.owner.PublicKey())
	jtx.RequireTxSuccess(t, f.tree.Redeem(f.owner, a))
	f.requireRootInSync(t)

	v, err := bgtx.ReadVoucher(f.env.Store(), voucher)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, a.Leaf(f.tree.Key), v.LeafSchema)
	assert.Equal(t, a.Index, v.Index)
	assert.Equal(t, f.tree.Key, v.MerkleTree)

	// The leaf is gone until the redeem is cancelled.
	jtx.RequireTxFail(t, f.tree.Transfer(f.owner, &a, f.stranger.PublicKey()), compression.ResultInvalidProof)

	jtx.RequireTxFail(t, f.tree.CancelRedeem(f.stranger, a), tx.TefMISSING_REQUIRED_SIGNATURE)
	jtx.RequireTxSuccess(t, f.tree.CancelRedeem(f.owner, a))
	jtx.RequireAccountNotExists(t, f.env, voucher)
	f.requireRootInSync(t)
	jtx.RequireBalance(t, f.env, f.owner.PublicKey(), before-3*f.env.Fee(1))

	jtx.RequireTxSuccess(t, f.tree.Transfer(f.owner, &a, f.stranger.PublicKey()))
	f.requireRootInSync(t)
}

func TestCancelRedeemChecks(t *testing.T) {
	f := newFixture(t)
	a := f.mint(t)
	jtx.RequireTxSuccess(t, f.tree.Redeem(f.owner, a))

	other := bubblegum.CreateTree(t, f.env, f.creator, 3, false)
	ix := &bgtx.CancelRedeem{Tree: other.Key, LeafOwner: f.owner.PublicKey(), Voucher: f.tree.Voucher(a), Root: other.Root()}
	jtx.RequireTxFail(t, f.env.Submit(f.owner, ix), bgtx.ResultPublicKeyMismatch)

	ix = &bgtx.CancelRedeem{Tree: f.tree.Key, LeafOwner: f.stranger.PublicKey(), Voucher: f.tree.Voucher(a), Root: f.tree.Root()}
	jtx.RequireTxFail(t, f.env.Submit(f.stranger, ix), bgtx.ResultAssetOwnerMismatch)
}

func TestDecompress(t *testing.T) {
	f := newFixture(t)
	a := f.mint(t)
	id := a.ID(f.tree.Key)
	mint := keylet.AssetMint(id).Key

	jtx.RequireTxFail(t, f.tree.Decompress(f.owner, a), bgtx.ResultUninitializedAccount)
	jtx.RequireTxSuccess(t, f.tree.Redeem(f.owner, a))

	forged := a
	forged.Message.Name = "Forged"
	jtx.RequireTxFail(t, f.tree.Decompress(f.owner, forged), bgtx.ResultHashingMismatch)

	jtx.RequireTxSuccess(t, f.tree.Decompress(f.owner, a))
	jtx.RequireAccountNotExists(t, f.env, f.tree.Voucher(a))

	m := f.env.Mint(mint)
	require.NotNil(t, m)
	assert.Equal(t, uint64(1), m.Supply)
	assert.Zero(t, m.Decimals)
	assert.Nil(t, m.MintAuthority)
	jtx.RequireTokenBalance(t, f.env, keylet.AssociatedToken(f.owner.PublicKey(), mint).Key, 1)

	md := f.env.Metadata(mint)
	require.NotNil(t, md)
	assert.Equal(t, a.Message.Name, md.Data.Name)
	assert.Equal(t, keylet.AssetMintAuthority(mint).Key, md.UpdateAuthority)
	require.Len(t, md.Data.Creators, 1)
	assert.False(t, md.Data.Creators[0].Verified)

	jtx.RequireTxFail(t, f.tree.Decompress(f.owner, a), bgtx.ResultUninitializedAccount)
}
