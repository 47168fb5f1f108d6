package mintgate

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/internal/ledger"
	"github.com/Klingon-tech/klingnet-mintgate/internal/log"
)

// Initialize records the mint's owner and moves the mint authority from
// req.CurrentAuthority to the delegated authority. It must run inside a
// single transaction; on any error the caller discards every write.
func Initialize(inv ledger.Invoker, req *InitializeRequest) error {
	bump, err := req.validate()
	if err != nil {
		return err
	}
	l := log.WithMint(log.Gate, req.Mint.String())
	l.Debug().Str("owner", req.Owner.String()).Uint8("bump", bump).Msg("Initialize gate")
	if !inv.IsSigner(req.Payer) {
		return fmt.Errorf("%w: payer %s", ErrMissingSigner, req.Payer)
	}
	if !inv.IsSigner(req.CurrentAuthority) {
		return fmt.Errorf("%w: current authority %s", ErrMissingSigner, req.CurrentAuthority)
	}

	cfg := &MintConfig{Owner: req.Owner, Mint: req.Mint, Bump: bump}
	if err := createConfig(inv.Store(ProgramID), req.Config, cfg); err != nil {
		return err
	}

	delegated := req.Authority
	if err := ledger.SetAuthority(inv, req.Mint, ledger.BySigner(req.CurrentAuthority), &delegated); err != nil {
		return err
	}

	l.Debug().Str("authority", delegated.String()).Msg("Mint authority delegated")
	return nil
}
