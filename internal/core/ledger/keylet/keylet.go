package keylet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Program identifiers of the programs hosted by this runtime that are not
// already exported by solana-go.
var (
	AuctionHouseProgramID = solana.MustPublicKeyFromBase58("hausS13jsjafwWwGqZTUQRmWyvyxn9EQpqMwV1PBBmk")
	BubblegumProgramID    = solana.MustPublicKeyFromBase58("BGUMAp9Gq7iTEuizy4pqaxsTyUCBK68MDfK752saRPUY")
	CompressionProgramID  = solana.MustPublicKeyFromBase58("cmtDvXumGCrqC1Age74AVPhSRVXJMd8PJS91L8KbNCK")
)

// Seed prefixes
const (
	prefixAuctionHouse = "auction_house"
	prefixFeePayer     = "fee_payer"
	prefixTreasury     = "treasury"
	prefixSigner       = "signer"
	prefixAuctioneer   = "auctioneer"
	prefixMetadata     = "metadata"
	prefixVoucher      = "voucher"
	prefixAsset        = "asset"
)

// ErrDerivationMismatch is returned when a supplied address does not match
// the address derived from its seeds and bump.
var ErrDerivationMismatch = errors.New("derived address mismatch")

// Type identifies what kind of account a keylet addresses.
type Type uint8

const (
	TypeAuctionHouse Type = iota + 1
	TypeFeeAccount
	TypeTreasury
	TypeEscrow
	TypeTradeState
	TypeProgramSigner
	TypeAuctioneer
	TypeMetadata
	TypeAssociatedToken
	TypeTreeAuthority
	TypeVoucher
	TypeAssetID
	TypeMintRequest
	TypeAssetMint
	TypeAssetMintAuthority
)

// Keylet represents a program derived address together with the seeds that
// produce it. Seeds never include the bump.
type Keylet struct {
	Type    Type
	Key     solana.PublicKey
	Bump    uint8
	Program solana.PublicKey
	Seeds   [][]byte
}

// SignerSeeds returns the seeds with the bump appended, as required to sign
// for the address in a cross program invocation.
func (k Keylet) SignerSeeds() [][]byte {
	return WithBump(k.Seeds, k.Bump)
}

// WithBump returns a copy of seeds with bump appended.
func WithBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, 0, len(seeds)+1)
	out = append(out, seeds...)
	return append(out, []byte{bump})
}

// find derives the canonical (highest valid bump) address. Every seed used
// in this package is at most 32 bytes, so derivation cannot fail in practice.
func find(t Type, program solana.PublicKey, seeds ...[]byte) Keylet {
	key, bump, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		panic(fmt.Sprintf("keylet: derive %d: %v", t, err))
	}
	return Keylet{Type: t, Key: key, Bump: bump, Program: program, Seeds: seeds}
}

// Verify checks that supplied equals the address created from seeds and bump
// under program. It does not require the bump to be canonical.
func Verify(program solana.PublicKey, seeds [][]byte, bump uint8, supplied solana.PublicKey) error {
	key, err := solana.CreateProgramAddress(WithBump(seeds, bump), program)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDerivationMismatch, err)
	}
	if !key.Equals(supplied) {
		return fmt.Errorf("%w: expected %s, got %s", ErrDerivationMismatch, key, supplied)
	}
	return nil
}

// VerifyCanonical checks that supplied is the canonical derivation of seeds
// and returns its bump.
func VerifyCanonical(program solana.PublicKey, seeds [][]byte, supplied solana.PublicKey) (uint8, error) {
	key, bump, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDerivationMismatch, err)
	}
	if !key.Equals(supplied) {
		return 0, fmt.Errorf("%w: expected %s, got %s", ErrDerivationMismatch, key, supplied)
	}
	return bump, nil
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// AuctionHouseSeeds returns the seeds of a marketplace instance.
func AuctionHouseSeeds(creator, treasuryMint solana.PublicKey) [][]byte {
	return [][]byte{[]byte(prefixAuctionHouse), creator.Bytes(), treasuryMint.Bytes()}
}

// AuctionHouse returns the keylet for the marketplace instance created by
// creator and settling in treasuryMint.
func AuctionHouse(creator, treasuryMint solana.PublicKey) Keylet {
	return find(TypeAuctionHouse, AuctionHouseProgramID, AuctionHouseSeeds(creator, treasuryMint)...)
}

// AuctionHouseFeeAccountSeeds returns the seeds of the fee payer account of house.
func AuctionHouseFeeAccountSeeds(house solana.PublicKey) [][]byte {
	return [][]byte{[]byte(prefixAuctionHouse), house.Bytes(), []byte(prefixFeePayer)}
}

// AuctionHouseFeeAccount returns the keylet of the account that pays fees on
// behalf of the house when its authority signs.
func AuctionHouseFeeAccount(house solana.PublicKey) Keylet {
	return find(TypeFeeAccount, AuctionHouseProgramID, AuctionHouseFeeAccountSeeds(house)...)
}

// AuctionHouseTreasurySeeds returns the seeds of the treasury of house.
func AuctionHouseTreasurySeeds(house solana.PublicKey) [][]byte {
	return [][]byte{[]byte(prefixAuctionHouse), house.Bytes(), []byte(prefixTreasury)}
}

// AuctionHouseTreasury returns the keylet of the account collecting house fees.
func AuctionHouseTreasury(house solana.PublicKey) Keylet {
	return find(TypeTreasury, AuctionHouseProgramID, AuctionHouseTreasurySeeds(house)...)
}

// EscrowSeeds returns the seeds of the escrow payment account of wallet.
func EscrowSeeds(house, wallet solana.PublicKey) [][]byte {
	return [][]byte{[]byte(prefixAuctionHouse), house.Bytes(), wallet.Bytes()}
}

// Escrow returns the keylet of the buyer escrow for wallet in house.
func Escrow(house, wallet solana.PublicKey) Keylet {
	return find(TypeEscrow, AuctionHouseProgramID, EscrowSeeds(house, wallet)...)
}

// TradeStateSeeds returns the seeds of an order bound to a token account.
func TradeStateSeeds(wallet, house, tokenAccount, treasuryMint, tokenMint solana.PublicKey, price, size uint64) [][]byte {
	return [][]byte{
		[]byte(prefixAuctionHouse),
		wallet.Bytes(),
		house.Bytes(),
		tokenAccount.Bytes(),
		treasuryMint.Bytes(),
		tokenMint.Bytes(),
		u64le(price),
		u64le(size),
	}
}

// TradeState returns the keylet of a standing order of wallet for size units
// of tokenMint held in tokenAccount, at price.
func TradeState(wallet, house, tokenAccount, treasuryMint, tokenMint solana.PublicKey, price, size uint64) Keylet {
	return find(TypeTradeState, AuctionHouseProgramID,
		TradeStateSeeds(wallet, house, tokenAccount, treasuryMint, tokenMint, price, size)...)
}

// PublicTradeStateSeeds returns the seeds of a bid that is not bound to a
// token account.
func PublicTradeStateSeeds(wallet, house, treasuryMint, tokenMint solana.PublicKey, price, size uint64) [][]byte {
	return [][]byte{
		[]byte(prefixAuctionHouse),
		wallet.Bytes(),
		house.Bytes(),
		treasuryMint.Bytes(),
		tokenMint.Bytes(),
		u64le(price),
		u64le(size),
	}
}

// PublicTradeState returns the keylet of a public bid.
func PublicTradeState(wallet, house, treasuryMint, tokenMint solana.PublicKey, price, size uint64) Keylet {
	return find(TypeTradeState, AuctionHouseProgramID,
		PublicTradeStateSeeds(wallet, house, treasuryMint, tokenMint, price, size)...)
}

// FreeTradeState returns the keylet of the zero-price listing companion of a
// seller's trade state.
func FreeTradeState(wallet, house, tokenAccount, treasuryMint, tokenMint solana.PublicKey, size uint64) Keylet {
	return TradeState(wallet, house, tokenAccount, treasuryMint, tokenMint, 0, size)
}

// ProgramAsSignerSeeds returns the seeds of the auction house signer PDA.
func ProgramAsSignerSeeds() [][]byte {
	return [][]byte{[]byte(prefixAuctionHouse), []byte(prefixSigner)}
}

// ProgramAsSigner returns the keylet of the PDA that sellers approve as the
// delegate of their token accounts.
func ProgramAsSigner() Keylet {
	return find(TypeProgramSigner, AuctionHouseProgramID, ProgramAsSignerSeeds()...)
}

// AuctioneerSeeds returns the seeds of an auctioneer delegation record.
func AuctioneerSeeds(house, auctioneerAuthority solana.PublicKey) [][]byte {
	return [][]byte{[]byte(prefixAuctioneer), house.Bytes(), auctioneerAuthority.Bytes()}
}

// Auctioneer returns the keylet of the delegation record of auctioneerAuthority.
func Auctioneer(house, auctioneerAuthority solana.PublicKey) Keylet {
	return find(TypeAuctioneer, AuctionHouseProgramID, AuctioneerSeeds(house, auctioneerAuthority)...)
}

// MetadataSeeds returns the seeds of the metadata account of mint.
func MetadataSeeds(mint solana.PublicKey) [][]byte {
	return [][]byte{[]byte(prefixMetadata), solana.TokenMetadataProgramID.Bytes(), mint.Bytes()}
}

// Metadata returns the keylet of the metadata account of mint.
func Metadata(mint solana.PublicKey) Keylet {
	return find(TypeMetadata, solana.TokenMetadataProgramID, MetadataSeeds(mint)...)
}

// AssociatedTokenSeeds returns the seeds of the associated token account.
func AssociatedTokenSeeds(wallet, mint solana.PublicKey) [][]byte {
	return [][]byte{wallet.Bytes(), solana.TokenProgramID.Bytes(), mint.Bytes()}
}

// AssociatedToken returns the keylet of wallet's associated token account for mint.
func AssociatedToken(wallet, mint solana.PublicKey) Keylet {
	return find(TypeAssociatedToken, solana.SPLAssociatedTokenAccountProgramID, AssociatedTokenSeeds(wallet, mint)...)
}

// TreeAuthoritySeeds returns the seeds of the tree config PDA.
func TreeAuthoritySeeds(tree solana.PublicKey) [][]byte {
	return [][]byte{tree.Bytes()}
}

// TreeAuthority returns the keylet of the tree config account, which is also
// the authority of the merkle tree.
func TreeAuthority(tree solana.PublicKey) Keylet {
	return find(TypeTreeAuthority, BubblegumProgramID, TreeAuthoritySeeds(tree)...)
}

// VoucherSeeds returns the seeds of a redeem voucher.
func VoucherSeeds(tree solana.PublicKey, nonce uint64) [][]byte {
	return [][]byte{[]byte(prefixVoucher), tree.Bytes(), u64le(nonce)}
}

// Voucher returns the keylet of the voucher for the leaf minted at nonce.
func Voucher(tree solana.PublicKey, nonce uint64) Keylet {
	return find(TypeVoucher, BubblegumProgramID, VoucherSeeds(tree, nonce)...)
}

// AssetID returns the stable identifier of the compressed asset minted at
// nonce in tree.
func AssetID(tree solana.PublicKey, nonce uint64) Keylet {
	return find(TypeAssetID, BubblegumProgramID, []byte(prefixAsset), tree.Bytes(), u64le(nonce))
}

// MintRequestSeeds returns the seeds of a mint authority request.
func MintRequestSeeds(mintAuthority, tree solana.PublicKey) [][]byte {
	return [][]byte{mintAuthority.Bytes(), tree.Bytes()}
}

// MintRequest returns the keylet of mintAuthority's request to mint into tree.
func MintRequest(mintAuthority, tree solana.PublicKey) Keylet {
	return find(TypeMintRequest, BubblegumProgramID, MintRequestSeeds(mintAuthority, tree)...)
}

// AssetMint returns the keylet of the token mint created when the asset is
// decompressed.
func AssetMint(assetID solana.PublicKey) Keylet {
	return find(TypeAssetMint, BubblegumProgramID, assetID.Bytes())
}

// AssetMintAuthority returns the keylet of the PDA that holds mint authority
// over a decompressed asset mint.
func AssetMintAuthority(mint solana.PublicKey) Keylet {
	return find(TypeAssetMintAuthority, BubblegumProgramID, mint.Bytes())
}
