package ledger

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// Authority is the proof presented when acting as a mint authority:
// either a signer address or derivation seeds for the calling program.
type Authority struct {
	signer  types.Address
	seeds   [][]byte
	derived bool
}

// BySigner authorizes as addr, which must have signed the transaction.
func BySigner(addr types.Address) Authority {
	return Authority{signer: addr}
}

// ByDerivation authorizes as the address the executing program derives
// from seeds. The final seed is normally the bump.
func ByDerivation(seeds ...[]byte) Authority {
	cp := make([][]byte, len(seeds))
	for i, s := range seeds {
		cp[i] = append([]byte{}, s...)
	}
	return Authority{seeds: cp, derived: true}
}

// resolve returns the address this proof stands for in inv.
func (a Authority) resolve(inv Invoker) (types.Address, error) {
	if !a.derived {
		if !inv.IsSigner(a.signer) {
			return types.Address{}, fmt.Errorf("%w: %s", ErrMissingSignature, a.signer)
		}
		return a.signer, nil
	}
	addr, err := crypto.CreateProgramAddress(a.seeds, inv.Program())
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: %v", ErrInvalidDerivation, err)
	}
	return addr, nil
}
