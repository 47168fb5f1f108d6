package ledger

import (
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-mintgate/internal/log"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

func store(inv Invoker) *Store {
	return NewStore(inv.Store(ProgramID))
}

// CreateMint creates a mint at addr. The mint identity must sign so that
// nobody can squat another key's address.
func CreateMint(inv Invoker, addr types.Address, decimals uint8, authority types.Address) error {
	if !inv.IsSigner(addr) {
		return fmt.Errorf("%w: mint %s", ErrMissingSignature, addr)
	}
	if authority.IsZero() {
		return fmt.Errorf("%w: zero authority", ErrInvalidAuthority)
	}
	s := store(inv)
	exists, err := s.HasMint(addr)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrMintExists, addr)
	}
	auth := authority
	if err := s.PutMint(addr, &Mint{Authority: &auth, Decimals: decimals}); err != nil {
		return err
	}
	log.Ledger.Debug().Str("mint", addr.String()).Str("authority", authority.String()).Msg("Mint created")
	return nil
}

// CreateAccount creates the holding account for (owner, mint) and
// returns its address.
func CreateAccount(inv Invoker, owner, mint types.Address) (types.Address, error) {
	if owner.IsZero() {
		return types.Address{}, fmt.Errorf("%w: zero owner", ErrInvalidAuthority)
	}
	s := store(inv)
	if _, err := s.GetMint(mint); err != nil {
		return types.Address{}, err
	}
	addr, err := AccountAddress(owner, mint)
	if err != nil {
		return types.Address{}, err
	}
	exists, err := s.HasAccount(addr)
	if err != nil {
		return types.Address{}, err
	}
	if exists {
		return types.Address{}, fmt.Errorf("%w: %s", ErrAccountExists, addr)
	}
	if err := s.PutAccount(addr, &Account{Mint: mint, Owner: owner}); err != nil {
		return types.Address{}, err
	}
	log.Ledger.Debug().Str("account", addr.String()).Str("mint", mint.String()).Msg("Account created")
	return addr, nil
}

// SetAuthority replaces the mint authority. current must prove control
// of the existing authority. A nil next disables minting permanently.
func SetAuthority(inv Invoker, mint types.Address, current Authority, next *types.Address) error {
	s := store(inv)
	m, err := s.GetMint(mint)
	if err != nil {
		return err
	}
	if err := checkAuthority(inv, m, current); err != nil {
		return err
	}

	if next == nil {
		m.Authority = nil
	} else {
		if next.IsZero() {
			return fmt.Errorf("%w: zero authority", ErrInvalidAuthority)
		}
		n := *next
		m.Authority = &n
	}
	if err := s.PutMint(mint, m); err != nil {
		return err
	}

	ev := log.Ledger.Debug().Str("mint", mint.String())
	if next == nil {
		ev.Msg("Mint authority set to none")
	} else {
		ev.Str("authority", next.String()).Msg("Mint authority changed")
	}
	return nil
}

// MintTo creates amount new units of mint in the dest account.
func MintTo(inv Invoker, mint, dest types.Address, amount uint64, auth Authority) error {
	s := store(inv)
	m, err := s.GetMint(mint)
	if err != nil {
		return err
	}
	if err := checkAuthority(inv, m, auth); err != nil {
		return err
	}

	acct, err := s.GetAccount(dest)
	if err != nil {
		return err
	}
	if acct.Mint != mint {
		return fmt.Errorf("%w: account %s holds %s", ErrMintMismatch, dest, acct.Mint)
	}
	if m.Supply > math.MaxUint64-amount {
		return fmt.Errorf("%w: supply %d + %d", ErrSupplyOverflow, m.Supply, amount)
	}
	// Balance never exceeds supply, so this cannot overflow once supply fits.
	m.Supply += amount
	acct.Balance += amount

	if err := s.PutMint(mint, m); err != nil {
		return err
	}
	if err := s.PutAccount(dest, acct); err != nil {
		return err
	}
	log.Ledger.Debug().
		Str("mint", mint.String()).
		Str("account", dest.String()).
		Uint64("amount", amount).
		Uint64("supply", m.Supply).
		Msg("Minted")
	return nil
}

// checkAuthority verifies that proof resolves to the mint's authority.
func checkAuthority(inv Invoker, m *Mint, proof Authority) error {
	if m.Authority == nil {
		return ErrMintingDisabled
	}
	addr, err := proof.resolve(inv)
	if err != nil {
		return err
	}
	if addr != *m.Authority {
		return fmt.Errorf("%w: got %s, want %s", ErrAuthorityMismatch, addr, *m.Authority)
	}
	return nil
}
