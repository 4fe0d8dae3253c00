package token

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// AuthorityType selects which authority SetAuthority replaces.
type AuthorityType uint8

const (
	AuthorityMintTokens AuthorityType = iota
	AuthorityFreezeAccount
	AuthorityAccountOwner
	AuthorityCloseAccount
)

// SetAuthority replaces an authority of a mint or token account. A nil
// NewAuthority removes it where the layout allows.
type SetAuthority struct {
	Target        solana.PublicKey  `json:"target"`
	Authority     solana.PublicKey  `json:"authority"`
	AuthorityType AuthorityType     `json:"authority_type"`
	NewAuthority  *solana.PublicKey `json:"new_authority,omitempty" bin:"optional"`
}

func (s *SetAuthority) ProgramID() solana.PublicKey { return solana.TokenProgramID }
func (s *SetAuthority) Name() string                { return "set_authority" }

func (s *SetAuthority) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(s.Target), tx.ReadOnly(s.Authority)}
}

func (s *SetAuthority) Validate() error {
	if s.Target.IsZero() || s.Authority.IsZero() {
		return errors.New("target and authority are required")
	}
	if s.AuthorityType > AuthorityCloseAccount {
		return fmt.Errorf("unknown authority type %d", s.AuthorityType)
	}
	return nil
}

func (s *SetAuthority) Apply(ctx *tx.ApplyContext) tx.Result {
	switch s.AuthorityType {
	case AuthorityMintTokens, AuthorityFreezeAccount:
		mint, acct, r := LoadMint(ctx, s.Target)
		if r != tx.TesSUCCESS {
			return r
		}
		current := mint.MintAuthority
		if s.AuthorityType == AuthorityFreezeAccount {
			current = mint.FreezeAuthority
		}
		if current == nil {
			return ResultFixedSupply
		}
		if r := validateOwner(ctx, *current, s.Authority); r != tx.TesSUCCESS {
			return r
		}
		if s.AuthorityType == AuthorityMintTokens {
			mint.MintAuthority = s.NewAuthority
		} else {
			mint.FreezeAuthority = s.NewAuthority
		}
		return storeMint(ctx, s.Target, acct, mint)

	default:
		a, acct, r := LoadAccount(ctx, s.Target)
		if r != tx.TesSUCCESS {
			return r
		}
		if a.State == StateFrozen {
			return ResultAccountFrozen
		}
		if s.AuthorityType == AuthorityAccountOwner {
			if r := validateOwner(ctx, a.Owner, s.Authority); r != tx.TesSUCCESS {
				return r
			}
			if s.NewAuthority == nil {
				return ResultAuthorityTypeNotSupported
			}
			a.Owner = *s.NewAuthority
			a.Delegate = nil
			a.DelegatedAmount = 0
		} else {
			current := a.Owner
			if a.CloseAuthority != nil {
				current = *a.CloseAuthority
			}
			if r := validateOwner(ctx, current, s.Authority); r != tx.TesSUCCESS {
				return r
			}
			a.CloseAuthority = s.NewAuthority
		}
		return storeAccount(ctx, s.Target, acct, a)
	}
}

// InvokeSetAuthority replaces an authority through a cross-program call.
func InvokeSetAuthority(ctx *tx.ApplyContext, target, authority solana.PublicKey, kind AuthorityType, newAuthority *solana.PublicKey, signerSeeds ...[][]byte) tx.Result {
	cpi, r := ctx.InvokeSigned(solana.TokenProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&SetAuthority{
		Target:        target,
		Authority:     authority,
		AuthorityType: kind,
		NewAuthority:  newAuthority,
	}).Apply(cpi)
}
