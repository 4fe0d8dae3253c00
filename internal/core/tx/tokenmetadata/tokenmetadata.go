package tokenmetadata

import (
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// ProgramID is the metadata registry program.
var ProgramID = solana.TokenMetadataProgramID

var (
	ResultNameTooLong                = tx.RegisterResult(300, "TokenMetadata.NameTooLong", "Name too long.")
	ResultSymbolTooLong              = tx.RegisterResult(301, "TokenMetadata.SymbolTooLong", "Symbol too long.")
	ResultURITooLong                 = tx.RegisterResult(302, "TokenMetadata.UriTooLong", "URI too long.")
	ResultInvalidBasisPoints         = tx.RegisterResult(303, "TokenMetadata.InvalidBasisPoints", "Basis points cannot be more than 10000.")
	ResultCreatorsTooLong            = tx.RegisterResult(304, "TokenMetadata.CreatorsTooLong", "Creators list too long.")
	ResultCreatorsMustBeAtLeastOne   = tx.RegisterResult(305, "TokenMetadata.CreatorsMustBeAtleastOne", "Creators must be at least one if set.")
	ResultDuplicateCreatorAddress    = tx.RegisterResult(306, "TokenMetadata.DuplicateCreatorAddress", "No duplicate creator addresses.")
	ResultShareTotalMustBe100        = tx.RegisterResult(307, "TokenMetadata.ShareTotalMustBe100", "Share total must equal 100 for creator array.")
	ResultCannotVerifyAnotherCreator = tx.RegisterResult(308, "TokenMetadata.CannotVerifyAnotherCreator", "You cannot unilaterally verify another creator, they must sign.")
	ResultAlreadyInitialized         = tx.RegisterResult(309, "TokenMetadata.AlreadyInitialized", "Metadata already initialized.")
	ResultInvalidMetadataKey         = tx.RegisterResult(310, "TokenMetadata.InvalidMetadataKey", "Metadata account does not derive from the mint.")
	ResultMintMismatch               = tx.RegisterResult(311, "TokenMetadata.MintMismatch", "Mint given does not match mint on metadata.")
	ResultInvalidMintAuthority       = tx.RegisterResult(312, "TokenMetadata.InvalidMintAuthority", "Mint authority provided does not match the authority on the mint.")
	ResultUpdateAuthorityIncorrect   = tx.RegisterResult(313, "TokenMetadata.UpdateAuthorityIncorrect", "Update authority is not the metadata update authority.")
	ResultCreatorNotFound            = tx.RegisterResult(314, "TokenMetadata.CreatorNotFound", "This creator address was not found.")
	ResultCollectionMustBeUnverified = tx.RegisterResult(315, "TokenMetadata.CollectionCannotBeVerifiedInThisInstruction", "Collection cannot be verified in this instruction.")
	ResultUninitialized              = tx.RegisterResult(316, "TokenMetadata.Uninitialized", "Metadata account is not initialized.")
	ResultIncorrectOwner             = tx.RegisterResult(317, "TokenMetadata.IncorrectOwner", "Metadata account is not owned by the metadata program.")
)

func init() {
	tx.RegisterProgram(ProgramID, "token-metadata")
	tx.Register(ProgramID, "create_metadata_account", func() tx.Instruction { return &CreateMetadataAccount{} })
	tx.Register(ProgramID, "sign_metadata", func() tx.Instruction { return &SignMetadata{} })
}

// ValidateData checks the registry limits of d. A creator may be marked
// verified only when isSigner reports its signature.
func ValidateData(name, symbol, uri string, sellerFeeBasisPoints uint16, creators []Creator, isSigner func(solana.PublicKey) bool) tx.Result {
	switch {
	case utf8.RuneCountInString(name) > MaxNameLength || len(name) > MaxNameLength*4:
		return ResultNameTooLong
	case len(symbol) > MaxSymbolLength:
		return ResultSymbolTooLong
	case len(uri) > MaxURILength:
		return ResultURITooLong
	case sellerFeeBasisPoints > MaxBasisPoints:
		return ResultInvalidBasisPoints
	}
	return ValidateCreators(creators, isSigner)
}

// ValidateCreators checks the creator list rules.
func ValidateCreators(creators []Creator, isSigner func(solana.PublicKey) bool) tx.Result {
	if creators == nil {
		return tx.TesSUCCESS
	}
	if len(creators) == 0 {
		return ResultCreatorsMustBeAtLeastOne
	}
	if len(creators) > MaxCreatorLimit {
		return ResultCreatorsTooLong
	}
	seen := make(map[solana.PublicKey]bool, len(creators))
	var total int
	for _, c := range creators {
		if seen[c.Address] {
			return ResultDuplicateCreatorAddress
		}
		seen[c.Address] = true
		total += int(c.Share)
		if c.Verified && (isSigner == nil || !isSigner(c.Address)) {
			return ResultCannotVerifyAnotherCreator
		}
	}
	if total != 100 {
		return ResultShareTotalMustBe100
	}
	return tx.TesSUCCESS
}

// Load reads the metadata record stored under key.
func Load(ctx *tx.ApplyContext, key solana.PublicKey) (*Metadata, *ledger.Account, tx.Result) {
	acct, r := ctx.Account(key)
	if r != tx.TesSUCCESS {
		return nil, nil, r
	}
	if acct == nil {
		return nil, nil, ResultUninitialized
	}
	if !acct.Owner.Equals(ProgramID) {
		return nil, nil, ResultIncorrectOwner
	}
	md, err := Unpack(acct.Data)
	if err != nil {
		ctx.Logf("metadata %s: %v", key, err)
		return nil, nil, ResultUninitialized
	}
	return md, acct, tx.TesSUCCESS
}

// Read decodes the metadata record under key without a context. It returns
// nil when the account is absent or not a metadata record.
func Read(view tx.LedgerView, key solana.PublicKey) (*Metadata, error) {
	acct, err := view.Read(key)
	if err != nil || acct == nil || !acct.Owner.Equals(ProgramID) {
		return nil, err
	}
	return Unpack(acct.Data)
}

func store(ctx *tx.ApplyContext, key solana.PublicKey, acct *ledger.Account, md *Metadata) tx.Result {
	data, err := md.Pack()
	if err != nil {
		ctx.Logf("pack metadata: %v", err)
		return tx.TefINTERNAL
	}
	acct.Data = data
	return ctx.Store(key, acct)
}
