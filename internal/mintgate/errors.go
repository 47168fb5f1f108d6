package mintgate

import "errors"

// Gate errors. Ledger failures are returned unwrapped by the gate and can
// be matched with the ledger package's sentinels.
var (
	ErrUnauthorized       = errors.New("caller is not the configured owner")
	ErrDerivationMismatch = errors.New("handle does not match derived address")
	ErrConfigExists       = errors.New("mint config already exists")
	ErrConfigNotFound     = errors.New("mint config not found")
	ErrInvalidConfig      = errors.New("invalid mint config record")
	ErrMissingSigner      = errors.New("required signer missing")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrUnknownInstruction = errors.New("unknown mintgate instruction")
)
