package auctionhouse

import tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"

// Custom error codes. The order is fixed: clients decode failures by code.
const errorBase = 6000

func result(n int, name, message string) tx.Result {
	return tx.RegisterResult(tx.Result(errorBase+n), "AuctionHouse."+name, message)
}

var (
	ResultPublicKeyMismatch                  = result(0, "PublicKeyMismatch", "PublicKeyMismatch")
	ResultInvalidMintAuthority               = result(1, "InvalidMintAuthority", "InvalidMintAuthority")
	ResultUninitializedAccount               = result(2, "UninitializedAccount", "UninitializedAccount")
	ResultIncorrectOwner                     = result(3, "IncorrectOwner", "IncorrectOwner")
	ResultPublicKeysShouldBeUnique           = result(4, "PublicKeysShouldBeUnique", "PublicKeysShouldBeUnique")
	ResultStatementFalse                     = result(5, "StatementFalse", "StatementFalse")
	ResultNotRentExempt                      = result(6, "NotRentExempt", "NotRentExempt")
	ResultNumericalOverflow                  = result(7, "NumericalOverflow", "NumericalOverflow")
	ResultExpectedSolAccount                 = result(8, "ExpectedSolAccount", "Expected a sol account but got an spl token account instead")
	ResultCannotExchangeSOLForSol            = result(9, "CannotExchangeSOLForSol", "Cannot exchange sol for sol")
	ResultSOLWalletMustSign                  = result(10, "SOLWalletMustSign", "If paying with sol, sol wallet must be signer")
	ResultCannotTakeThisActionWithoutSignOff = result(11, "CannotTakeThisActionWithoutAuctionHouseSignOff", "Cannot take this action without auction house signing too")
	ResultNoPayerPresent                     = result(12, "NoPayerPresent", "No payer present on this txn")
	ResultDerivedKeyInvalid                  = result(13, "DerivedKeyInvalid", "Derived key invalid")
	ResultMetadataDoesntExist                = result(14, "MetadataDoesntExist", "Metadata doesn't exist")
	ResultInvalidTokenAmount                 = result(15, "InvalidTokenAmount", "Invalid token amount")
	ResultBothPartiesNeedToAgreeToSale       = result(16, "BothPartiesNeedToAgreeToSale", "Both parties need to agree to this sale")
	ResultCannotMatchFreeSalesWithoutSignoff = result(17, "CannotMatchFreeSalesWithoutAuctionHouseOrSellerSignoff", "Cannot match free sales unless the auction house or seller signs off")
	ResultSaleRequiresSigner                 = result(18, "SaleRequiresSigner", "This sale requires a signer")
	ResultOldSellerNotInitialized            = result(19, "OldSellerNotInitialized", "Old seller not initialized")
	ResultSellerATACannotHaveDelegate        = result(20, "SellerATACannotHaveDelegate", "Seller ata cannot have a delegate set")
	ResultBuyerATACannotHaveDelegate         = result(21, "BuyerATACannotHaveDelegate", "Buyer ata cannot have a delegate set")
	ResultNoValidSignerPresent               = result(22, "NoValidSignerPresent", "No valid signer present")
	ResultInvalidBasisPoints                 = result(23, "InvalidBasisPoints", "BP must be less than or equal to 10000")
	ResultTradeStateDoesntExist              = result(24, "TradeStateDoesntExist", "The trade state account does not exist")
	ResultTradeStateIsNotEmpty               = result(25, "TradeStateIsNotEmpty", "The trade state is not empty")
	ResultReceiptIsEmpty                     = result(26, "ReceiptIsEmpty", "The receipt is empty")
	ResultInstructionMismatch                = result(27, "InstructionMismatch", "The instruction does not match")
	ResultInvalidAuctioneer                  = result(28, "InvalidAuctioneer", "Invalid Auctioneer for this Auction House instance.")
	ResultMissingAuctioneerScope             = result(29, "MissingAuctioneerScope", "The Auctioneer does not have the correct scope for this action.")
	ResultMustUseAuctioneerHandler           = result(30, "MustUseAuctioneerHandler", "Must use auctioneer handler.")
	ResultNoAuctioneerProgramSet             = result(31, "NoAuctioneerProgramSet", "No Auctioneer program set.")
	ResultTooManyScopes                      = result(32, "TooManyScopes", "Too many scopes.")
	ResultAuctionHouseAlreadyDelegated       = result(33, "AuctionHouseAlreadyDelegated", "Auction House already delegated.")
	ResultBumpSeedNotInHashMap               = result(34, "BumpSeedNotInHashMap", "Bump seeds are not in the hash map.")
	ResultEscrowUnderRentExemption           = result(35, "EscrowUnderRentExemption", "The instruction would drain the escrow below rent exemption threshold")
	ResultInvalidSeedsOrNotDelegated         = result(36, "InvalidSeedsOrAuctionHouseNotDelegated", "Invalid seeds or Auction House not delegated")
	ResultBuyerTradeStateNotValid            = result(37, "BuyerTradeStateNotValid", "The buyer trade state was unable to be initialized.")
	ResultMissingElementForPartialOrder      = result(38, "MissingElementForPartialOrder", "Partial order size and price must both be provided in a partial buy.")
	ResultNotEnoughTokensAvailable           = result(39, "NotEnoughTokensAvailableForPurchase", "Amount of tokens available for purchase is less than the partial order amount.")
	ResultPartialPriceMismatch               = result(40, "PartialPriceMismatch", "Calculated partial price does not not partial price that was provided.")
)
