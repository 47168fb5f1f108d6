package mintgate

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/internal/runtime"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// Instruction ops.
const (
	OpInitialize     = "initialize"
	OpMintTokens     = "mint_tokens"
	OpDisableMinting = "disable_minting"
)

// Instruction is the wire form of a mintgate call. Which fields are read
// depends on Op.
type Instruction struct {
	Op               string        `json:"op"`
	Payer            types.Address `json:"payer"`
	Mint             types.Address `json:"mint"`
	CurrentAuthority types.Address `json:"current_authority"`
	Authority        types.Address `json:"authority"`
	Config           types.Address `json:"config"`
	Owner            types.Address `json:"owner"`
	Destination      types.Address `json:"destination"`
	Amount           uint64        `json:"amount"`
}

// Program exposes the gate to the runtime.
type Program struct{}

// ID returns the mintgate program ID.
func (Program) ID() types.ProgramID { return ProgramID }

// Process decodes one instruction and dispatches it.
func (Program) Process(ctx *runtime.Context, data []byte) error {
	var ix Instruction
	if err := json.Unmarshal(data, &ix); err != nil {
		return fmt.Errorf("%w: decode instruction: %v", ErrInvalidRequest, err)
	}
	switch ix.Op {
	case OpInitialize:
		return Initialize(ctx, &InitializeRequest{
			Payer:            ix.Payer,
			Mint:             ix.Mint,
			CurrentAuthority: ix.CurrentAuthority,
			Authority:        ix.Authority,
			Config:           ix.Config,
			Owner:            ix.Owner,
		})
	case OpMintTokens:
		return MintTokens(ctx, &MintRequest{
			Owner:       ix.Owner,
			Mint:        ix.Mint,
			Authority:   ix.Authority,
			Destination: ix.Destination,
			Config:      ix.Config,
			Amount:      ix.Amount,
		})
	case OpDisableMinting:
		return DisableMinting(ctx, &DisableRequest{
			Owner:     ix.Owner,
			Mint:      ix.Mint,
			Authority: ix.Authority,
			Config:    ix.Config,
		})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInstruction, ix.Op)
	}
}
