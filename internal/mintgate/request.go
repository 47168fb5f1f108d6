package mintgate

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// InitializeRequest carries every identity and record handle that
// Initialize touches.
type InitializeRequest struct {
	// Payer funds the new MintConfig record and must sign.
	Payer types.Address
	// Mint is the mint to govern.
	Mint types.Address
	// CurrentAuthority is the signer that holds the mint authority today.
	CurrentAuthority types.Address
	// Authority must equal DeriveAuthority(Mint).
	Authority types.Address
	// Config must equal DeriveConfig(Mint).
	Config types.Address
	// Owner is the only identity allowed to mint or disable afterwards.
	// It need not sign.
	Owner types.Address
}

// Validate checks the request without touching storage.
func (r *InitializeRequest) Validate() error {
	_, err := r.validate()
	return err
}

// validate returns the authority bump on success.
func (r *InitializeRequest) validate() (uint8, error) {
	if err := nonZero(
		field{"payer", r.Payer},
		field{"mint", r.Mint},
		field{"current authority", r.CurrentAuthority},
		field{"owner", r.Owner},
	); err != nil {
		return 0, err
	}
	authority, bump, err := DeriveAuthority(r.Mint)
	if err != nil {
		return 0, err
	}
	if r.Authority != authority {
		return 0, fmt.Errorf("%w: authority %s, want %s", ErrDerivationMismatch, r.Authority, authority)
	}
	if err := checkConfigHandle(r.Mint, r.Config); err != nil {
		return 0, err
	}
	return bump, nil
}

// MintRequest carries the handles for MintTokens.
type MintRequest struct {
	Owner       types.Address
	Mint        types.Address
	Authority   types.Address
	Destination types.Address
	Config      types.Address
	Amount      uint64
}

// Validate checks the request without touching storage. The authority
// handle is checked against the stored bump once the config is loaded.
func (r *MintRequest) Validate() error {
	if err := nonZero(
		field{"owner", r.Owner},
		field{"mint", r.Mint},
		field{"authority", r.Authority},
		field{"destination", r.Destination},
	); err != nil {
		return err
	}
	return checkConfigHandle(r.Mint, r.Config)
}

// DisableRequest carries the handles for DisableMinting.
type DisableRequest struct {
	Owner     types.Address
	Mint      types.Address
	Authority types.Address
	Config    types.Address
}

// Validate checks the request without touching storage.
func (r *DisableRequest) Validate() error {
	if err := nonZero(
		field{"owner", r.Owner},
		field{"mint", r.Mint},
		field{"authority", r.Authority},
	); err != nil {
		return err
	}
	return checkConfigHandle(r.Mint, r.Config)
}

type field struct {
	name string
	addr types.Address
}

func nonZero(fields ...field) error {
	for _, f := range fields {
		if f.addr.IsZero() {
			return fmt.Errorf("%w: %s is zero", ErrInvalidRequest, f.name)
		}
	}
	return nil
}

func checkConfigHandle(mint, config types.Address) error {
	want, _, err := DeriveConfig(mint)
	if err != nil {
		return err
	}
	if config != want {
		return fmt.Errorf("%w: config %s, want %s", ErrDerivationMismatch, config, want)
	}
	return nil
}
