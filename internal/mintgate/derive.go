// Package mintgate delegates a mint's authority to a derived, secretless
// address and gates all further minting behind a recorded owner.
//
// Initialize moves the mint authority from a signer to the address this
// program derives from ("authority", mint). From then on only MintTokens
// and DisableMinting, called by the owner stored in the mint's MintConfig,
// can present the derivation proof the ledger requires.
package mintgate

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/internal/ledger"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// ProgramID is the mintgate program ID. Derived addresses are only valid
// proofs while this program is executing.
var ProgramID = crypto.ProgramIDFromName("mintgate")

// Derivation labels.
const (
	LabelAuthority = "authority"
	LabelConfig    = "config"
)

func seeds(label string, mint types.Address) [][]byte {
	return [][]byte{[]byte(label), mint[:]}
}

// DeriveAuthority returns the delegated authority address for mint and the
// bump that produces it.
func DeriveAuthority(mint types.Address) (types.Address, uint8, error) {
	addr, bump, err := crypto.FindProgramAddress(seeds(LabelAuthority, mint), ProgramID)
	if err != nil {
		return types.Address{}, 0, fmt.Errorf("derive authority: %w", err)
	}
	return addr, bump, nil
}

// AuthorityAddress recomputes the delegated authority from a known bump.
func AuthorityAddress(mint types.Address, bump uint8) (types.Address, error) {
	addr, err := crypto.CreateProgramAddress(append(seeds(LabelAuthority, mint), []byte{bump}), ProgramID)
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: bump %d: %v", ErrDerivationMismatch, bump, err)
	}
	return addr, nil
}

// DeriveConfig returns the address of mint's MintConfig record.
func DeriveConfig(mint types.Address) (types.Address, uint8, error) {
	addr, bump, err := crypto.FindProgramAddress(seeds(LabelConfig, mint), ProgramID)
	if err != nil {
		return types.Address{}, 0, fmt.Errorf("derive config: %w", err)
	}
	return addr, bump, nil
}

// authorityProof is the ledger proof that stands for the delegated
// authority while this program executes.
func authorityProof(mint types.Address, bump uint8) ledger.Authority {
	return ledger.ByDerivation(append(seeds(LabelAuthority, mint), []byte{bump})...)
}
