package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/internal/runtime"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// ErrUnknownInstruction is returned for an instruction op the ledger
// does not implement.
var ErrUnknownInstruction = errors.New("unknown ledger instruction")

// Instruction ops.
const (
	OpCreateMint    = "create_mint"
	OpCreateAccount = "create_account"
)

// Instruction is the wire form of a ledger instruction.
type Instruction struct {
	Op        string        `json:"op"`
	Mint      types.Address `json:"mint"`
	Decimals  uint8         `json:"decimals"`
	Authority types.Address `json:"authority"`
	Owner     types.Address `json:"owner"`
	Payer     types.Address `json:"payer"`
}

// Program exposes the ledger setup operations to the runtime.
type Program struct{}

// ID returns the ledger program ID.
func (Program) ID() types.ProgramID { return ProgramID }

// Process decodes and runs one ledger instruction.
func (Program) Process(ctx *runtime.Context, data []byte) error {
	var ix Instruction
	if err := json.Unmarshal(data, &ix); err != nil {
		return fmt.Errorf("decode ledger instruction: %w", err)
	}
	switch ix.Op {
	case OpCreateMint:
		return CreateMint(ctx, ix.Mint, ix.Decimals, ix.Authority)
	case OpCreateAccount:
		if !ctx.IsSigner(ix.Payer) {
			return fmt.Errorf("%w: payer %s", ErrMissingSignature, ix.Payer)
		}
		_, err := CreateAccount(ctx, ix.Owner, ix.Mint)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInstruction, ix.Op)
	}
}

// NewCreateMint builds an unsigned create_mint transaction. It must be
// signed by the mint key.
func NewCreateMint(mint types.Address, decimals uint8, authority types.Address) (*runtime.Transaction, error) {
	return newTx(Instruction{Op: OpCreateMint, Mint: mint, Decimals: decimals, Authority: authority})
}

// NewCreateAccount builds an unsigned create_account transaction. It must
// be signed by payer.
func NewCreateAccount(payer, owner, mint types.Address) (*runtime.Transaction, error) {
	return newTx(Instruction{Op: OpCreateAccount, Mint: mint, Owner: owner, Payer: payer})
}

func newTx(ix Instruction) (*runtime.Transaction, error) {
	data, err := json.Marshal(ix)
	if err != nil {
		return nil, fmt.Errorf("encode ledger instruction: %w", err)
	}
	return runtime.NewTransaction(ProgramID, data), nil
}
