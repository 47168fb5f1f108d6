// Package ledger implements the token ledger that owns mints and holding
// accounts.
//
// A mint has an optional authority: the only identity that may create
// new supply. The authority is either a transaction signer or an address
// derived by some program, in which case that program proves control by
// presenting the derivation seeds while it is the executing program.
// Once the authority is set to none it can never be set again.
package ledger

import (
	"github.com/Klingon-tech/klingnet-mintgate/internal/storage"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// ProgramID is the ledger's program ID.
var ProgramID = crypto.ProgramIDFromName("ledger")

// Invoker is the execution context of the calling program.
// *runtime.Context implements it.
type Invoker interface {
	// Program returns the currently executing program.
	Program() types.ProgramID
	// IsSigner reports whether addr signed the transaction.
	IsSigner(addr types.Address) bool
	// Store returns the transactional view of a program's namespace.
	Store(program types.ProgramID) storage.DB
}

// Mint is a fungible token type.
type Mint struct {
	// Authority may create new supply. Nil means minting is disabled.
	Authority *types.Address `json:"authority"`
	Supply    uint64         `json:"supply"`
	Decimals  uint8          `json:"decimals"`
}

// Account holds a balance of one mint's token for one owner.
type Account struct {
	Mint    types.Address `json:"mint"`
	Owner   types.Address `json:"owner"`
	Balance uint64        `json:"balance"`
}

// AccountAddress returns the holding account address for (owner, mint).
func AccountAddress(owner, mint types.Address) (types.Address, error) {
	addr, _, err := crypto.FindProgramAddress([][]byte{owner[:], mint[:]}, ProgramID)
	return addr, err
}
