package ledger

import "errors"

// Ledger errors.
var (
	ErrMintExists        = errors.New("mint already exists")
	ErrMintNotFound      = errors.New("mint not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAuthorityMismatch = errors.New("presented authority is not the mint authority")
	ErrMintingDisabled   = errors.New("mint authority is none")
	ErrMintMismatch      = errors.New("account does not hold this mint")
	ErrSupplyOverflow    = errors.New("mint amount overflows supply")
	ErrMissingSignature  = errors.New("required signature missing")
	ErrInvalidDerivation = errors.New("derived authority proof is invalid")
	ErrInvalidAuthority  = errors.New("invalid authority")
)
