package mintgate

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/internal/runtime"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// NewInitialize builds an unsigned initialize transaction with the
// authority and config handles derived from mint. It must be signed by
// payer and currentAuthority.
func NewInitialize(payer, currentAuthority, mint, owner types.Address) (*runtime.Transaction, error) {
	authority, _, err := DeriveAuthority(mint)
	if err != nil {
		return nil, err
	}
	config, _, err := DeriveConfig(mint)
	if err != nil {
		return nil, err
	}
	return newTx(Instruction{
		Op:               OpInitialize,
		Payer:            payer,
		Mint:             mint,
		CurrentAuthority: currentAuthority,
		Authority:        authority,
		Config:           config,
		Owner:            owner,
	})
}

// NewMintTokens builds an unsigned mint_tokens transaction. It must be
// signed by owner.
func NewMintTokens(owner, mint, dest types.Address, amount uint64) (*runtime.Transaction, error) {
	authority, config, err := handles(mint)
	if err != nil {
		return nil, err
	}
	return newTx(Instruction{
		Op:          OpMintTokens,
		Owner:       owner,
		Mint:        mint,
		Authority:   authority,
		Destination: dest,
		Config:      config,
		Amount:      amount,
	})
}

// NewDisableMinting builds an unsigned disable_minting transaction. It
// must be signed by owner.
func NewDisableMinting(owner, mint types.Address) (*runtime.Transaction, error) {
	authority, config, err := handles(mint)
	if err != nil {
		return nil, err
	}
	return newTx(Instruction{
		Op:        OpDisableMinting,
		Owner:     owner,
		Mint:      mint,
		Authority: authority,
		Config:    config,
	})
}

func handles(mint types.Address) (authority, config types.Address, err error) {
	if authority, _, err = DeriveAuthority(mint); err != nil {
		return
	}
	config, _, err = DeriveConfig(mint)
	return
}

func newTx(ix Instruction) (*runtime.Transaction, error) {
	data, err := json.Marshal(ix)
	if err != nil {
		return nil, fmt.Errorf("encode instruction: %w", err)
	}
	return runtime.NewTransaction(ProgramID, data), nil
}
