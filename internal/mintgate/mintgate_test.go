package mintgate

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-mintgate/internal/ledger"
	"github.com/Klingon-tech/klingnet-mintgate/internal/log"
	"github.com/Klingon-tech/klingnet-mintgate/internal/runtime"
	"github.com/Klingon-tech/klingnet-mintgate/internal/storage"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

func init() {
	log.Disable()
}

// env is a runtime with the ledger and the gate registered, one mint
// whose authority is authKey, and one holding account owned by ownerKey.
type env struct {
	t        *testing.T
	exec     *runtime.Executor
	q        *Query
	mintKey  *crypto.PrivateKey
	authKey  *crypto.PrivateKey
	ownerKey *crypto.PrivateKey
	payerKey *crypto.PrivateKey
	mint     types.Address
	dest     types.Address
}

func mustKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	k, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return k
}

func newEnv(t *testing.T, db storage.DB) *env {
	t.Helper()
	exec := runtime.NewExecutor(db, ledger.Program{}, Program{})
	e := &env{
		t:        t,
		exec:     exec,
		q:        NewQuery(exec),
		mintKey:  mustKey(t),
		authKey:  mustKey(t),
		ownerKey: mustKey(t),
		payerKey: mustKey(t),
	}
	e.mint = e.mintKey.Address()

	tx, err := ledger.NewCreateMint(e.mint, 6, e.authKey.Address())
	if err := e.run(tx, err, e.mintKey); err != nil {
		t.Fatalf("create mint: %v", err)
	}
	e.dest = e.createAccount(e.ownerKey.Address(), e.mint)
	return e
}

func (e *env) run(tx *runtime.Transaction, err error, signers ...crypto.Signer) error {
	e.t.Helper()
	if err != nil {
		e.t.Fatalf("build tx: %v", err)
	}
	if err := tx.Sign(signers...); err != nil {
		e.t.Fatalf("Sign: %v", err)
	}
	return e.exec.Execute(tx)
}

func (e *env) createAccount(owner, mint types.Address) types.Address {
	e.t.Helper()
	tx, err := ledger.NewCreateAccount(e.payerKey.Address(), owner, mint)
	if err := e.run(tx, err, e.payerKey); err != nil {
		e.t.Fatalf("create account: %v", err)
	}
	addr, err := ledger.AccountAddress(owner, mint)
	if err != nil {
		e.t.Fatal(err)
	}
	return addr
}

func (e *env) initialize() {
	e.t.Helper()
	tx, err := NewInitialize(e.payerKey.Address(), e.authKey.Address(), e.mint, e.ownerKey.Address())
	if err := e.run(tx, err, e.payerKey, e.authKey); err != nil {
		e.t.Fatalf("initialize: %v", err)
	}
}

func (e *env) mintTokens(owner *crypto.PrivateKey, dest types.Address, amount uint64) error {
	e.t.Helper()
	tx, err := NewMintTokens(owner.Address(), e.mint, dest, amount)
	return e.run(tx, err, owner)
}

func (e *env) disable(owner *crypto.PrivateKey) error {
	e.t.Helper()
	tx, err := NewDisableMinting(owner.Address(), e.mint)
	return e.run(tx, err, owner)
}

func (e *env) supply() uint64 {
	e.t.Helper()
	m, err := e.q.Mint(e.mint)
	if err != nil {
		e.t.Fatalf("Mint: %v", err)
	}
	return m.Supply
}

func (e *env) balance(addr types.Address) uint64 {
	e.t.Helper()
	a, err := e.q.Account(addr)
	if err != nil {
		e.t.Fatalf("Account: %v", err)
	}
	return a.Balance
}

func (e *env) authority() *types.Address {
	e.t.Helper()
	m, err := e.q.Mint(e.mint)
	if err != nil {
		e.t.Fatalf("Mint: %v", err)
	}
	return m.Authority
}

func TestInitialize(t *testing.T) {
	e := newEnv(t, storage.NewMemory())
	e.initialize()

	delegated, bump, err := DeriveAuthority(e.mint)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := e.q.Config(e.mint)
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	want := MintConfig{Owner: e.ownerKey.Address(), Mint: e.mint, Bump: bump}
	if *cfg != want {
		t.Errorf("config = %+v, want %+v", *cfg, want)
	}

	auth := e.authority()
	if auth == nil || *auth != delegated {
		t.Fatalf("authority = %v, want delegated %s", auth, delegated)
	}
	if *auth == e.authKey.Address() {
		t.Error("authority is still the original signer")
	}
	if e.supply() != 0 {
		t.Errorf("supply = %d after initialize, want 0", e.supply())
	}
}

func TestInitialize_Once(t *testing.T) {
	e := newEnv(t, storage.NewMemory())
	e.initialize()

	// A second initialize naming a different owner must not replace the first.
	other := mustKey(t)
	tx, err := NewInitialize(e.payerKey.Address(), e.authKey.Address(), e.mint, other.Address())
	if err := e.run(tx, err, e.payerKey, e.authKey); !errors.Is(err, ErrConfigExists) {
		t.Fatalf("second initialize error = %v, want ErrConfigExists", err)
	}

	cfg, err := e.q.Config(e.mint)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Owner != e.ownerKey.Address() {
		t.Errorf("owner = %s, want %s", cfg.Owner, e.ownerKey.Address())
	}
}

func TestInitialize_Rejects(t *testing.T) {
	e := newEnv(t, storage.NewMemory())
	stranger := mustKey(t)
	authority, _, _ := DeriveAuthority(e.mint)
	config, _, _ := DeriveConfig(e.mint)

	base := Instruction{
		Op:               OpInitialize,
		Payer:            e.payerKey.Address(),
		Mint:             e.mint,
		CurrentAuthority: e.authKey.Address(),
		Authority:        authority,
		Config:           config,
		Owner:            e.ownerKey.Address(),
	}

	tests := []struct {
		name    string
		modify  func(ix *Instruction)
		signers []crypto.Signer
		want    error
	}{
		{
			name:    "payer not signed",
			signers: []crypto.Signer{e.authKey},
			want:    ErrMissingSigner,
		},
		{
			name:    "current authority not signed",
			signers: []crypto.Signer{e.payerKey},
			want:    ErrMissingSigner,
		},
		{
			name:    "signer is not the mint authority",
			modify:  func(ix *Instruction) { ix.CurrentAuthority = stranger.Address() },
			signers: []crypto.Signer{e.payerKey, stranger},
			want:    ledger.ErrAuthorityMismatch,
		},
		{
			name:    "authority handle mismatch",
			modify:  func(ix *Instruction) { ix.Authority = stranger.Address() },
			signers: []crypto.Signer{e.payerKey, e.authKey},
			want:    ErrDerivationMismatch,
		},
		{
			name:    "config handle mismatch",
			modify:  func(ix *Instruction) { ix.Config = authority },
			signers: []crypto.Signer{e.payerKey, e.authKey},
			want:    ErrDerivationMismatch,
		},
		{
			name:    "zero owner",
			modify:  func(ix *Instruction) { ix.Owner = types.Address{} },
			signers: []crypto.Signer{e.payerKey, e.authKey},
			want:    ErrInvalidRequest,
		},
		{
			name: "unknown mint",
			modify: func(ix *Instruction) {
				ix.Mint = stranger.Address()
				ix.Authority, _, _ = DeriveAuthority(ix.Mint)
				ix.Config, _, _ = DeriveConfig(ix.Mint)
			},
			signers: []crypto.Signer{e.payerKey, e.authKey},
			want:    ledger.ErrMintNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := base
			if tt.modify != nil {
				tt.modify(&ix)
			}
			tx, err := newTx(ix)
			if err := e.run(tx, err, tt.signers...); !errors.Is(err, tt.want) {
				t.Fatalf("initialize error = %v, want %v", err, tt.want)
			}
		})
	}

	// Nothing above may have left a config or moved the authority.
	if _, err := e.q.Config(e.mint); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Config error = %v, want ErrConfigNotFound", err)
	}
	if auth := e.authority(); auth == nil || *auth != e.authKey.Address() {
		t.Errorf("authority = %v, want %s", auth, e.authKey.Address())
	}
	e.initialize()
}

func TestInitialize_OwnerNeedNotSign(t *testing.T) {
	e := newEnv(t, storage.NewMemory())
	// The payer and the current authority may be the same key, and the
	// owner is a third party that plays no part in initialize.
	tx, err := NewInitialize(e.authKey.Address(), e.authKey.Address(), e.mint, e.ownerKey.Address())
	if err := e.run(tx, err, e.authKey); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.mintTokens(e.ownerKey, e.dest, 1); err != nil {
		t.Fatalf("mint by third-party owner: %v", err)
	}
}

func TestMintTokens_Cumulative(t *testing.T) {
	e := newEnv(t, storage.NewMemory())
	e.initialize()

	if err := e.mintTokens(e.ownerKey, e.dest, 100); err != nil {
		t.Fatalf("mint 100: %v", err)
	}
	if err := e.mintTokens(e.ownerKey, e.dest, 250); err != nil {
		t.Fatalf("mint 250: %v", err)
	}
	if got := e.balance(e.dest); got != 350 {
		t.Errorf("balance = %d, want 350", got)
	}
	if got := e.supply(); got != 350 {
		t.Errorf("supply = %d, want 350", got)
	}

	// Any holding account of the mint can receive.
	other := e.createAccount(mustKey(t).Address(), e.mint)
	if err := e.mintTokens(e.ownerKey, other, 5); err != nil {
		t.Fatalf("mint to other account: %v", err)
	}
	if got := e.supply(); got != 355 {
		t.Errorf("supply = %d, want 355", got)
	}
}

func TestMintTokens_ReplayRejected(t *testing.T) {
	e := newEnv(t, storage.NewMemory())
	e.initialize()

	tx, err := NewMintTokens(e.ownerKey.Address(), e.mint, e.dest, 100)
	if err := e.run(tx, err, e.ownerKey); err != nil {
		t.Fatalf("mint: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := e.exec.Execute(tx); !errors.Is(err, runtime.ErrReplayed) {
			t.Fatalf("resubmit %d error = %v, want runtime.ErrReplayed", i, err)
		}
	}

	// A fresh nonce under the old signatures is a different message.
	tx.Nonce++
	if err := e.exec.Execute(tx); !errors.Is(err, runtime.ErrBadSignature) {
		t.Errorf("renonced error = %v, want runtime.ErrBadSignature", err)
	}
	if got := e.supply(); got != 100 {
		t.Errorf("supply = %d, want 100 from one signed call", got)
	}
	if got := e.balance(e.dest); got != 100 {
		t.Errorf("balance = %d, want 100", got)
	}
}

func TestMintTokens_ZeroAmount(t *testing.T) {
	e := newEnv(t, storage.NewMemory())
	e.initialize()

	if err := e.mintTokens(e.ownerKey, e.dest, 0); err != nil {
		t.Fatalf("mint 0: %v", err)
	}
	if e.supply() != 0 {
		t.Errorf("supply = %d, want 0", e.supply())
	}
}

func TestNonOwnerRejected(t *testing.T) {
	e := newEnv(t, storage.NewMemory())
	e.initialize()
	if err := e.mintTokens(e.ownerKey, e.dest, 10); err != nil {
		t.Fatal(err)
	}

	// Includes the original authority and the payer.
	callers := []*crypto.PrivateKey{mustKey(t), e.authKey, e.payerKey, e.mintKey}
	for _, c := range callers {
		if err := e.mintTokens(c, e.dest, 1); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("mint by %s error = %v, want ErrUnauthorized", c.Address(), err)
		}
		if err := e.disable(c); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("disable by %s error = %v, want ErrUnauthorized", c.Address(), err)
		}
	}

	if got := e.supply(); got != 10 {
		t.Errorf("supply = %d, want 10", got)
	}
	delegated, _, _ := DeriveAuthority(e.mint)
	if auth := e.authority(); auth == nil || *auth != delegated {
		t.Errorf("authority = %v, want %s", auth, delegated)
	}
}

func TestMintTokens_Rejects(t *testing.T) {
	e := newEnv(t, storage.NewMemory())

	// Before initialize there is no config to check against.
	if err := e.mintTokens(e.ownerKey, e.dest, 1); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("mint before initialize error = %v, want ErrConfigNotFound", err)
	}
	e.initialize()

	// Account of a different mint.
	otherMint := mustKey(t)
	tx, err := ledger.NewCreateMint(otherMint.Address(), 0, e.authKey.Address())
	if err := e.run(tx, err, otherMint); err != nil {
		t.Fatal(err)
	}
	foreign := e.createAccount(e.ownerKey.Address(), otherMint.Address())

	authority, config, _ := handles(e.mint)
	base := Instruction{
		Op:          OpMintTokens,
		Owner:       e.ownerKey.Address(),
		Mint:        e.mint,
		Authority:   authority,
		Destination: e.dest,
		Config:      config,
		Amount:      1,
	}

	tests := []struct {
		name    string
		modify  func(ix *Instruction)
		signers []crypto.Signer
		want    error
	}{
		{"owner not signed", nil, []crypto.Signer{e.payerKey}, ErrMissingSigner},
		{"authority handle mismatch", func(ix *Instruction) { ix.Authority = e.authKey.Address() }, []crypto.Signer{e.ownerKey}, ErrDerivationMismatch},
		{"config handle mismatch", func(ix *Instruction) { ix.Config = authority }, []crypto.Signer{e.ownerKey}, ErrDerivationMismatch},
		{"destination of other mint", func(ix *Instruction) { ix.Destination = foreign }, []crypto.Signer{e.ownerKey}, ledger.ErrMintMismatch},
		{"destination missing", func(ix *Instruction) { ix.Destination = types.Address{0x01} }, []crypto.Signer{e.ownerKey}, ledger.ErrAccountNotFound},
		{"zero destination", func(ix *Instruction) { ix.Destination = types.Address{} }, []crypto.Signer{e.ownerKey}, ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := base
			if tt.modify != nil {
				tt.modify(&ix)
			}
			tx, err := newTx(ix)
			if err := e.run(tx, err, tt.signers...); !errors.Is(err, tt.want) {
				t.Fatalf("mint error = %v, want %v", err, tt.want)
			}
		})
	}

	if e.supply() != 0 {
		t.Errorf("supply = %d after rejected mints, want 0", e.supply())
	}
}

func TestMintTokens_Overflow(t *testing.T) {
	e := newEnv(t, storage.NewMemory())
	e.initialize()

	if err := e.mintTokens(e.ownerKey, e.dest, ^uint64(0)); err != nil {
		t.Fatalf("mint max: %v", err)
	}
	if err := e.mintTokens(e.ownerKey, e.dest, 1); !errors.Is(err, ledger.ErrSupplyOverflow) {
		t.Errorf("overflow error = %v, want ledger.ErrSupplyOverflow", err)
	}
}

func TestDisableMinting_Irreversible(t *testing.T) {
	e := newEnv(t, storage.NewMemory())
	e.initialize()
	if err := e.mintTokens(e.ownerKey, e.dest, 40); err != nil {
		t.Fatal(err)
	}

	if err := e.disable(e.ownerKey); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if auth := e.authority(); auth != nil {
		t.Fatalf("authority = %s after disable, want none", auth)
	}

	for i := 0; i < 3; i++ {
		if err := e.mintTokens(e.ownerKey, e.dest, 1); !errors.Is(err, ledger.ErrMintingDisabled) {
			t.Errorf("mint after disable error = %v, want ledger.ErrMintingDisabled", err)
		}
		if err := e.disable(e.ownerKey); !errors.Is(err, ledger.ErrMintingDisabled) {
			t.Errorf("repeat disable error = %v, want ledger.ErrMintingDisabled", err)
		}
	}

	// The gate cannot be initialized again to regain control.
	tx, err := NewInitialize(e.payerKey.Address(), e.authKey.Address(), e.mint, e.ownerKey.Address())
	if err := e.run(tx, err, e.payerKey, e.authKey); !errors.Is(err, ErrConfigExists) {
		t.Errorf("re-initialize error = %v, want ErrConfigExists", err)
	}

	if e.balance(e.dest) != 40 || e.supply() != 40 {
		t.Errorf("balance/supply = %d/%d, want 40/40", e.balance(e.dest), e.supply())
	}
	if auth := e.authority(); auth != nil {
		t.Errorf("authority = %s, want none", auth)
	}
	// The config stays behind, inert.
	if _, err := e.q.Config(e.mint); err != nil {
		t.Errorf("Config after disable: %v", err)
	}
}

func TestScenario(t *testing.T) {
	e := newEnv(t, storage.NewMemory())
	e.initialize()

	cfg, err := e.q.Config(e.mint)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Owner != e.ownerKey.Address() || cfg.Mint != e.mint {
		t.Fatalf("config = %+v", cfg)
	}
	want, err := AuthorityAddress(e.mint, cfg.Bump)
	if err != nil {
		t.Fatal(err)
	}
	if auth := e.authority(); auth == nil || *auth != want {
		t.Fatalf("authority = %v, want %s", auth, want)
	}

	if err := e.mintTokens(e.ownerKey, e.dest, 100); err != nil {
		t.Fatal(err)
	}
	if got := e.balance(e.dest); got != 100 {
		t.Fatalf("balance = %d, want 100", got)
	}

	if err := e.disable(e.ownerKey); err != nil {
		t.Fatal(err)
	}
	if e.authority() != nil {
		t.Fatal("authority not none after disable")
	}

	if err := e.mintTokens(e.ownerKey, e.dest, 1); err == nil {
		t.Fatal("mint after disable succeeded")
	}
	if got := e.balance(e.dest); got != 100 {
		t.Errorf("balance = %d, want 100", got)
	}
}

func TestStatus(t *testing.T) {
	e := newEnv(t, storage.NewMemory())

	check := func(state string, configured bool) {
		t.Helper()
		st, err := e.q.Status(e.mint)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if st.State != state {
			t.Errorf("state = %q, want %q", st.State, state)
		}
		if (st.Owner != nil) != configured {
			t.Errorf("owner set = %v, want %v", st.Owner != nil, configured)
		}
	}

	check(StateSigner, false)
	e.initialize()
	check(StateDelegated, true)
	if err := e.disable(e.ownerKey); err != nil {
		t.Fatal(err)
	}
	check(StateDisabled, true)

	if _, err := e.q.Status(types.Address{0x09}); !errors.Is(err, ledger.ErrMintNotFound) {
		t.Errorf("Status(unknown) error = %v, want ledger.ErrMintNotFound", err)
	}
}

func TestProgram_UnknownInstruction(t *testing.T) {
	e := newEnv(t, storage.NewMemory())

	tx, err := newTx(Instruction{Op: "set_owner"})
	if err := e.run(tx, err, e.ownerKey); !errors.Is(err, ErrUnknownInstruction) {
		t.Errorf("error = %v, want ErrUnknownInstruction", err)
	}
	tx = runtime.NewTransaction(ProgramID, []byte("{"))
	if err := e.run(tx, nil, e.ownerKey); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestBadgerPersistence(t *testing.T) {
	dir := t.TempDir()

	db, err := storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	e := newEnv(t, db)
	e.initialize()
	if err := e.mintTokens(e.ownerKey, e.dest, 77); err != nil {
		t.Fatal(err)
	}
	want, err := e.q.Config(e.mint)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err = storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	exec := runtime.NewExecutor(db, ledger.Program{}, Program{})
	q := NewQuery(exec)
	got, err := q.Config(e.mint)
	if err != nil {
		t.Fatalf("Config after reopen: %v", err)
	}
	if *got != *want {
		t.Errorf("config = %+v, want %+v", *got, *want)
	}
	a, err := q.Account(e.dest)
	if err != nil {
		t.Fatal(err)
	}
	if a.Balance != 77 {
		t.Errorf("balance = %d, want 77", a.Balance)
	}

	// The reopened store still gates minting.
	tx, err := NewMintTokens(e.ownerKey.Address(), e.mint, e.dest, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Sign(e.ownerKey); err != nil {
		t.Fatal(err)
	}
	if err := exec.Execute(tx); err != nil {
		t.Fatalf("mint after reopen: %v", err)
	}
}
