package bubblegum

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
)

// CollectionChange holds the arguments shared by the collection
// verification instructions.
type CollectionChange struct {
	LeafArgs
	Tree                solana.PublicKey `json:"tree"`
	LeafOwner           solana.PublicKey `json:"leaf_owner"`
	LeafDelegate        solana.PublicKey `json:"leaf_delegate"`
	CollectionAuthority solana.PublicKey `json:"collection_authority"`
	CollectionMint      solana.PublicKey `json:"collection_mint"`
	Message             MetadataArgs     `json:"message"`
}

func (c *CollectionChange) accounts(extra ...solana.PublicKey) []tx.AccountMeta {
	keys := append([]solana.PublicKey{
		c.LeafOwner,
		c.LeafDelegate,
		c.CollectionAuthority,
		c.CollectionMint,
		keylet.Metadata(c.CollectionMint).Key,
	}, extra...)
	return leafAccounts(c.Tree, keys...)
}

func (c *CollectionChange) check() error {
	if c.Tree.IsZero() || c.LeafOwner.IsZero() || c.LeafDelegate.IsZero() {
		return errors.New("tree, owner and delegate are required")
	}
	if c.CollectionAuthority.IsZero() || c.CollectionMint.IsZero() {
		return errors.New("collection authority and mint are required")
	}
	return c.validate()
}

// authorize checks that the collection exists and that its update
// authority signed.
func (c *CollectionChange) authorize(ctx *tx.ApplyContext) tx.Result {
	md, _, r := tokenmetadata.Load(ctx, keylet.Metadata(c.CollectionMint).Key)
	if r != tx.TesSUCCESS {
		ctx.Logf("collection %s: %s", c.CollectionMint, r)
		return ResultCollectionNotFound
	}
	if !md.Mint.Equals(c.CollectionMint) {
		return ResultCollectionNotFound
	}
	if !md.UpdateAuthority.Equals(c.CollectionAuthority) || !ctx.IsSigner(c.CollectionAuthority) {
		return ResultUpdateAuthorityIncorrect
	}
	return tx.TesSUCCESS
}

// apply rewrites the leaf with the collection flag set to verified.
// message is the metadata the new leaf commits to; it may differ from
// c.Message only in its collection.
func (c *CollectionChange) apply(ctx *tx.ApplyContext, message MetadataArgs, verified bool) tx.Result {
	if message.Collection == nil {
		return ResultCollectionNotFound
	}
	if !message.Collection.Key.Equals(c.CollectionMint) {
		return ResultCollectionMismatch
	}
	if message.Collection.Verified == verified {
		if verified {
			return ResultAlreadyVerified
		}
		return ResultAlreadyUnverified
	}
	updated := message
	updated.Collection = &tokenmetadata.Collection{Key: c.CollectionMint, Verified: verified}

	previous := c.leaf(c.Tree, c.LeafOwner, c.LeafDelegate)
	next := NewLeaf(c.Tree, c.LeafOwner, c.LeafDelegate, c.Nonce, HashMetadata(updated), c.CreatorHash)
	return replaceLeaf(ctx, c.Tree, c.LeafArgs, previous.Hash(), next.Hash())
}

// VerifyCollection marks the asset's collection as verified.
type VerifyCollection struct {
	CollectionChange
}

func (v *VerifyCollection) ProgramID() solana.PublicKey { return ProgramID }
func (v *VerifyCollection) Name() string                { return "verify_collection" }
func (v *VerifyCollection) Accounts() []tx.AccountMeta  { return v.accounts() }
func (v *VerifyCollection) Validate() error             { return v.check() }

func (v *VerifyCollection) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := v.authorize(ctx); r != tx.TesSUCCESS {
		return r
	}
	if r := checkHashes(v.Message, v.LeafArgs); r != tx.TesSUCCESS {
		return r
	}
	return v.apply(ctx, v.Message, true)
}

// UnverifyCollection clears the verified flag of the asset's collection.
type UnverifyCollection struct {
	CollectionChange
}

func (u *UnverifyCollection) ProgramID() solana.PublicKey { return ProgramID }
func (u *UnverifyCollection) Name() string                { return "unverify_collection" }
func (u *UnverifyCollection) Accounts() []tx.AccountMeta  { return u.accounts() }
func (u *UnverifyCollection) Validate() error             { return u.check() }

func (u *UnverifyCollection) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := u.authorize(ctx); r != tx.TesSUCCESS {
		return r
	}
	if r := checkHashes(u.Message, u.LeafArgs); r != tx.TesSUCCESS {
		return r
	}
	return u.apply(ctx, u.Message, false)
}

// SetAndVerifyCollection puts the asset in the collection of
// CollectionMint and verifies it in one step. Besides the collection
// authority, the tree creator or delegate signs as TreeDelegate.
type SetAndVerifyCollection struct {
	CollectionChange
	TreeDelegate solana.PublicKey `json:"tree_delegate"`
}

func (s *SetAndVerifyCollection) ProgramID() solana.PublicKey { return ProgramID }
func (s *SetAndVerifyCollection) Name() string                { return "set_and_verify_collection" }

func (s *SetAndVerifyCollection) Accounts() []tx.AccountMeta {
	return s.accounts(keylet.TreeAuthority(s.Tree).Key, s.TreeDelegate)
}

func (s *SetAndVerifyCollection) Validate() error {
	if s.TreeDelegate.IsZero() {
		return errors.New("tree delegate is required")
	}
	return s.check()
}

func (s *SetAndVerifyCollection) Apply(ctx *tx.ApplyContext) tx.Result {
	config, _, r := LoadTreeConfig(ctx, s.Tree)
	if r != tx.TesSUCCESS {
		return r
	}
	if !config.IsAdmin(s.TreeDelegate) || !ctx.IsSigner(s.TreeDelegate) {
		return ResultTreeAuthorityIncorrect
	}
	if r := s.authorize(ctx); r != tx.TesSUCCESS {
		return r
	}
	if r := checkHashes(s.Message, s.LeafArgs); r != tx.TesSUCCESS {
		return r
	}
	if s.Message.Collection != nil && s.Message.Collection.Verified {
		return ResultAlreadyVerified
	}
	message := s.Message
	message.Collection = &tokenmetadata.Collection{Key: s.CollectionMint}
	return s.apply(ctx, message, true)
}
