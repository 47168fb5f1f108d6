package mintgate

import (
	"errors"

	"github.com/Klingon-tech/klingnet-mintgate/internal/ledger"
	"github.com/Klingon-tech/klingnet-mintgate/internal/storage"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// Viewer gives read access to committed program state.
// *runtime.Executor implements it.
type Viewer interface {
	View(program types.ProgramID) storage.Reader
}

// Query reads gate and ledger state outside a transaction.
type Query struct {
	v Viewer
}

// NewQuery creates a query over v.
func NewQuery(v Viewer) *Query {
	return &Query{v: v}
}

// Config returns the MintConfig for mint.
func (q *Query) Config(mint types.Address) (*MintConfig, error) {
	addr, _, err := DeriveConfig(mint)
	if err != nil {
		return nil, err
	}
	return readConfig(q.v.View(ProgramID), addr)
}

// Mint returns the ledger's view of mint.
func (q *Query) Mint(mint types.Address) (*ledger.Mint, error) {
	return ledger.GetMint(q.v.View(ledger.ProgramID), mint)
}

// Account returns a holding account.
func (q *Query) Account(addr types.Address) (*ledger.Account, error) {
	return ledger.GetAccount(q.v.View(ledger.ProgramID), addr)
}

// Holders lists every account of mint.
func (q *Query) Holders(mint types.Address) ([]ledger.AccountEntry, error) {
	return ledger.Holders(q.v.View(ledger.ProgramID), mint)
}

// Authority states of a mint as seen by the gate.
const (
	StateSigner    = "signer"
	StateDelegated = "delegated"
	StateDisabled  = "disabled"
)

// Status summarizes a gated mint.
type Status struct {
	Mint      types.Address  `json:"mint"`
	Config    types.Address  `json:"config"`
	Authority *types.Address `json:"authority"`
	State     string         `json:"state"`
	Owner     *types.Address `json:"owner,omitempty"`
	Bump      *uint8         `json:"bump,omitempty"`
	Supply    uint64         `json:"supply"`
}

// Status reports where mint is in the signer -> delegated -> disabled
// lifecycle. Owner and Bump are set once the gate is initialized.
func (q *Query) Status(mint types.Address) (*Status, error) {
	m, err := q.Mint(mint)
	if err != nil {
		return nil, err
	}
	delegated, _, err := DeriveAuthority(mint)
	if err != nil {
		return nil, err
	}
	configAddr, _, err := DeriveConfig(mint)
	if err != nil {
		return nil, err
	}

	st := &Status{Mint: mint, Config: configAddr, Authority: m.Authority, Supply: m.Supply}
	switch {
	case m.Authority == nil:
		st.State = StateDisabled
	case *m.Authority == delegated:
		st.State = StateDelegated
	default:
		st.State = StateSigner
	}

	cfg, err := readConfig(q.v.View(ProgramID), configAddr)
	switch {
	case err == nil:
		st.Owner = &cfg.Owner
		st.Bump = &cfg.Bump
	case !errors.Is(err, ErrConfigNotFound):
		return nil, err
	}
	return st, nil
}
