package mintgate

import (
	"github.com/Klingon-tech/klingnet-mintgate/internal/ledger"
	"github.com/Klingon-tech/klingnet-mintgate/internal/log"
)

// DisableMinting sets the mint authority to none. Nothing can mint from
// the mint afterwards, the owner included. The MintConfig stays in place.
func DisableMinting(inv ledger.Invoker, req *DisableRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	l := log.WithMint(log.Gate, req.Mint.String())
	l.Debug().Str("owner", req.Owner.String()).Msg("Disable minting")
	cfg, err := authorize(inv, req.Owner, req.Mint, req.Authority, req.Config)
	if err != nil {
		return err
	}

	if err := ledger.SetAuthority(inv, req.Mint, authorityProof(req.Mint, cfg.Bump), nil); err != nil {
		return err
	}

	l.Debug().Msg("Mint authority cleared")
	return nil
}
