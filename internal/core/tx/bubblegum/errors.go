package bubblegum

import tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"

// Custom error codes. The order is fixed: clients decode failures by code.
const errorBase = 7000

func result(n int, name, message string) tx.Result {
	return tx.RegisterResult(tx.Result(errorBase+n), "Bubblegum."+name, message)
}

var (
	ResultAssetOwnerMismatch         = result(0, "AssetOwnerMismatch", "Asset Owner Does not match")
	ResultPublicKeyMismatch          = result(1, "PublicKeyMismatch", "PublicKeyMismatch")
	ResultHashingMismatch            = result(2, "HashingMismatch", "Hashing Mismatch Within Leaf Schema")
	ResultUnsupportedSchemaVersion   = result(3, "UnsupportedSchemaVersion", "Unsupported Schema Version")
	ResultCreatorShareTotalMustBe100 = result(4, "CreatorShareTotalMustBe100", "Creator shares must sum to 100")
	ResultDuplicateCreatorAddress    = result(5, "DuplicateCreatorAddress", "No duplicate creator addresses in metadata")
	ResultCreatorDidNotVerify        = result(6, "CreatorDidNotVerify", "Creator did not verify the metadata")
	ResultCreatorNotFound            = result(7, "CreatorNotFound", "Creator not found in creator Vec")
	ResultNoCreatorsPresent          = result(8, "NoCreatorsPresent", "No creators in creator Vec")
	ResultCreatorHashMismatch        = result(9, "CreatorHashMismatch", "User-provided creator Vec must result in same user-provided creator hash")
	ResultDataHashMismatch           = result(10, "DataHashMismatch", "User-provided metadata must result in same user-provided data hash")
	ResultCreatorsTooLong            = result(11, "CreatorsTooLong", "Creators list too long")
	ResultMetadataNameTooLong        = result(12, "MetadataNameTooLong", "Name in metadata is too long")
	ResultMetadataSymbolTooLong      = result(13, "MetadataSymbolTooLong", "Symbol in metadata is too long")
	ResultMetadataURITooLong         = result(14, "MetadataUriTooLong", "Uri in metadata is too long")
	ResultMetadataBasisPointsTooHigh = result(15, "MetadataBasisPointsTooHigh", "Basis points in metadata cannot exceed 10000")
	ResultTreeAuthorityIncorrect     = result(16, "TreeAuthorityIncorrect", "Tree creator or tree delegate must sign.")
	ResultInsufficientMintCapacity   = result(17, "InsufficientMintCapacity", "Not enough unapproved mints left")
	ResultNumericalOverflow          = result(18, "NumericalOverflowError", "NumericalOverflowError")
	ResultIncorrectOwner             = result(19, "IncorrectOwner", "Incorrect account owner")
	ResultCollectionCannotBeVerified = result(20, "CollectionCannotBeVerifiedInThisInstruction", "Cannot Verify Collection in this Instruction")
	ResultCollectionNotFound         = result(21, "CollectionNotFound", "Collection Not Found on Metadata")
	ResultAlreadyVerified            = result(22, "AlreadyVerified", "Collection item is already verified.")
	ResultAlreadyUnverified          = result(23, "AlreadyUnverified", "Collection item is already unverified.")
	ResultUpdateAuthorityIncorrect   = result(24, "UpdateAuthorityIncorrect", "Incorrect leaf metadata update authority.")
	ResultLeafAuthorityMustSign      = result(25, "LeafAuthorityMustSign", "This transaction must be signed by either the leaf owner or leaf delegate")
	ResultCollectionMismatch         = result(26, "CollectionMismatch", "Collection on the leaf does not match the collection mint")
	ResultMintRequestNotApproved     = result(27, "MintRequestNotApproved", "Mint authority has no approved mints left")
	ResultMintRequestExceeded        = result(28, "MintRequestExceeded", "Approval exceeds the requested mint capacity")
	ResultTreeAlreadyInitialized     = result(29, "TreeAlreadyInitialized", "Tree config already exists")
	ResultUninitializedAccount       = result(30, "UninitializedAccount", "Account is not initialized")
)
