package mintgate

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/internal/ledger"
	"github.com/Klingon-tech/klingnet-mintgate/internal/log"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// MintTokens mints req.Amount into req.Destination on behalf of the
// configured owner. Supply and account checks are left to the ledger.
func MintTokens(inv ledger.Invoker, req *MintRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	l := log.WithMint(log.Gate, req.Mint.String())
	l.Debug().Str("to", req.Destination.String()).Uint64("amount", req.Amount).Msg("Mint tokens")
	cfg, err := authorize(inv, req.Owner, req.Mint, req.Authority, req.Config)
	if err != nil {
		return err
	}

	proof := authorityProof(req.Mint, cfg.Bump)
	if err := ledger.MintTo(inv, req.Mint, req.Destination, req.Amount, proof); err != nil {
		return err
	}

	l.Debug().Msg("Mint staged")
	return nil
}

// authorize loads the mint's config and checks that owner signed, is the
// recorded owner, and that authority is the delegated address for the
// stored bump.
func authorize(inv ledger.Invoker, owner, mint, authority, config types.Address) (*MintConfig, error) {
	if !inv.IsSigner(owner) {
		return nil, fmt.Errorf("%w: owner %s", ErrMissingSigner, owner)
	}
	cfg, err := readConfig(inv.Store(ProgramID), config)
	if err != nil {
		return nil, err
	}
	if cfg.Mint != mint {
		return nil, fmt.Errorf("%w: config governs %s, not %s", ErrInvalidConfig, cfg.Mint, mint)
	}
	if owner != cfg.Owner {
		err := fmt.Errorf("%w: %s", ErrUnauthorized, owner)
		l := log.WithMint(log.Gate, mint.String())
		l.Warn().Err(err).Str("caller", owner.String()).Msg("Rejected call from non-owner")
		return nil, err
	}
	want, err := AuthorityAddress(mint, cfg.Bump)
	if err != nil {
		return nil, err
	}
	if authority != want {
		return nil, fmt.Errorf("%w: authority %s, want %s", ErrDerivationMismatch, authority, want)
	}
	return cfg, nil
}
