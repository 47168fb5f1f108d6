// mintgate is a command-line tool for delegating a mint's authority to the
// mintgate program and minting through it.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/Klingon-tech/klingnet-mintgate/config"
	"github.com/Klingon-tech/klingnet-mintgate/internal/keys"
	"github.com/Klingon-tech/klingnet-mintgate/internal/ledger"
	"github.com/Klingon-tech/klingnet-mintgate/internal/log"
	"github.com/Klingon-tech/klingnet-mintgate/internal/mintgate"
	"github.com/Klingon-tech/klingnet-mintgate/internal/runtime"
	"github.com/Klingon-tech/klingnet-mintgate/internal/storage"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
	"golang.org/x/term"
)

func main() {
	flags, err := config.ParseFlags(os.Args[1:], usage)
	if errors.Is(err, config.ErrHelp) {
		usage()
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		os.Exit(1)
	}
	if len(flags.Args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fatal("%v", err)
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	a := &app{cfg: cfg}
	defer a.close()

	cmd := flags.Args[0]
	cmdArgs := flags.Args[1:]

	switch cmd {
	case "key":
		a.cmdKey(cmdArgs)
	case "mint":
		a.cmdMint(cmdArgs)
	case "account":
		a.cmdAccount(cmdArgs)
	case "gate":
		a.cmdGate(cmdArgs)
	case "derive":
		a.cmdDerive(cmdArgs)
	case "balance":
		a.cmdBalance(cmdArgs)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		a.close()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: mintgate [global flags] <command> [flags]

Global flags:
  --datadir <path>    Data directory (default: ~/.mintgate)
  --network <net>     mainnet (default) or testnet
  --testnet           Shorthand for --network=testnet
  --config <path>     Config file (default: <datadir>/mintgate.conf)
  --log-level <lvl>   debug, info (default), warn, error
  --log-json          Output logs as JSON
  --log-file <path>   Also write JSON logs to a file

Commands:
  key create --name <n>           Create a new signer key
  key import --name <n> --mnemonic "..."
                                  Import a signer key from a mnemonic
  key list                        List signer keys
  key show --name <n>             Show a key's address

  mint create --key <k> [--decimals <d>]
                                  Create a mint whose authority is key k
  mint info <mint>                Show mint supply, authority and holders
  account create --key <k> --mint <m> [--owner <addr>]
                                  Create a holding account (k pays)

  gate init --payer <k> --authority <k> --mint <m> [--owner <addr>]
                                  Delegate the mint authority to the gate
  gate mint --owner <k> --mint <m> --to <account> --amount <n>
                                  Mint through the gate
  gate disable --owner <k> --mint <m>
                                  Permanently disable minting
  gate show --mint <m>            Show the gate state of a mint

  derive --mint <m>               Show the derived authority and config addresses
  balance --account <a>           Show a holding account
`)
}

// app holds lazily opened resources shared by commands.
type app struct {
	cfg     *config.Config
	db      *storage.BadgerDB
	exec    *runtime.Executor
	ks      *keys.Keystore
	signers map[string]*crypto.PrivateKey
}

func (a *app) keystore() *keys.Keystore {
	if a.ks == nil {
		params := keys.Params{
			Memory:      a.cfg.Keys.ArgonMemory,
			Iterations:  a.cfg.Keys.ArgonIterations,
			Parallelism: a.cfg.Keys.ArgonParallelism,
		}
		ks, err := keys.NewKeystore(a.cfg.KeystoreDir(), params)
		if err != nil {
			fatal("open keystore: %v", err)
		}
		a.ks = ks
	}
	return a.ks
}

func (a *app) executor() *runtime.Executor {
	if a.exec == nil {
		db, err := storage.NewBadger(a.cfg.StateDir())
		if err != nil {
			fatal("%v", err)
		}
		a.db = db
		a.exec = runtime.NewExecutor(db, ledger.Program{}, mintgate.Program{})
		log.Storage.Debug().Str("path", a.cfg.StateDir()).Msg("State opened")
	}
	return a.exec
}

func (a *app) query() *mintgate.Query {
	return mintgate.NewQuery(a.executor())
}

func (a *app) close() {
	for _, s := range a.signers {
		s.Zero()
	}
	a.signers = nil
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Storage.Warn().Err(err).Msg("Close state")
		}
		a.db = nil
	}
	if err := log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
	}
}

// signer decrypts a key once per process, prompting for its password.
func (a *app) signer(name string) *crypto.PrivateKey {
	if s, ok := a.signers[name]; ok {
		return s
	}
	password, err := readPassword(fmt.Sprintf("Password for key %q: ", name))
	if err != nil {
		a.fatal("read password: %v", err)
	}
	s, err := a.keystore().Signer(name, password)
	if err != nil {
		a.fatal("%v", err)
	}
	if a.signers == nil {
		a.signers = make(map[string]*crypto.PrivateKey)
	}
	a.signers[name] = s
	return s
}

// submit signs tx with every signer and executes it.
func (a *app) submit(tx *runtime.Transaction, signers ...crypto.Signer) {
	if err := tx.Sign(signers...); err != nil {
		a.fatal("%v", err)
	}
	if err := a.executor().Execute(tx); err != nil {
		a.fatal("%v", err)
	}
}

// fatal releases the database lock before exiting.
func (a *app) fatal(format string, args ...interface{}) {
	a.close()
	fatal(format, args...)
}

// ── key ─────────────────────────────────────────────────────────────────

func (a *app) cmdKey(args []string) {
	if len(args) < 1 {
		fatal("Usage: mintgate key <create|import|list|show> [flags]")
	}
	switch args[0] {
	case "create":
		a.cmdKeyCreate(args[1:])
	case "import":
		a.cmdKeyImport(args[1:])
	case "list":
		a.cmdKeyList()
	case "show":
		a.cmdKeyShow(args[1:])
	default:
		fatal("Unknown key command: %s\nUsage: mintgate key <create|import|list|show> [flags]", args[0])
	}
}

func (a *app) cmdKeyCreate(args []string) {
	fs := flag.NewFlagSet("key create", flag.ExitOnError)
	name := fs.String("name", "", "Key name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: mintgate key create --name <name>")
	}
	password := newPassword()
	mnemonic, addr, err := a.keystore().Create(*name, password)
	if err != nil {
		fatal("create key: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)
	fmt.Printf("Key created: %s\n", *name)
	fmt.Printf("Address: %s\n", addr)
}

func (a *app) cmdKeyImport(args []string) {
	fs := flag.NewFlagSet("key import", flag.ExitOnError)
	name := fs.String("name", "", "Key name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
	fs.Parse(args)

	if *name == "" || *mnemonic == "" {
		fatal("Usage: mintgate key import --name <name> --mnemonic \"word1 word2 ...\"")
	}
	password := newPassword()
	addr, err := a.keystore().Import(*name, *mnemonic, password)
	if err != nil {
		fatal("import key: %v", err)
	}
	fmt.Printf("Key imported: %s\n", *name)
	fmt.Printf("Address: %s\n", addr)
}

func (a *app) cmdKeyList() {
	list, err := a.keystore().List()
	if err != nil {
		fatal("list keys: %v", err)
	}
	if len(list) == 0 {
		fmt.Println("No keys found.")
		return
	}
	for _, k := range list {
		fmt.Printf("  %-16s %s\n", k.Name, k.Address)
	}
}

func (a *app) cmdKeyShow(args []string) {
	fs := flag.NewFlagSet("key show", flag.ExitOnError)
	name := fs.String("name", "", "Key name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: mintgate key show --name <name>")
	}
	info, err := a.keystore().Info(*name)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Name:    %s\n", info.Name)
	fmt.Printf("Address: %s\n", info.Address)
	fmt.Printf("Hex:     %s\n", info.Address.Hex())
	fmt.Printf("Path:    %s\n", info.Path)
	fmt.Printf("Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05 MST"))
}

// ── mint / account ──────────────────────────────────────────────────────

func (a *app) cmdMint(args []string) {
	if len(args) < 1 {
		fatal("Usage: mintgate mint <create|info> [flags]")
	}
	switch args[0] {
	case "create":
		a.cmdMintCreate(args[1:])
	case "info":
		if len(args) < 2 {
			fatal("Usage: mintgate mint info <mint>")
		}
		a.cmdMintInfo(mustAddress("mint", args[1]))
	default:
		fatal("Unknown mint command: %s\nUsage: mintgate mint <create|info> [flags]", args[0])
	}
}

func (a *app) cmdMintCreate(args []string) {
	fs := flag.NewFlagSet("mint create", flag.ExitOnError)
	keyName := fs.String("key", "", "Key that becomes the mint authority")
	decimals := fs.Uint("decimals", 0, "Decimal places")
	fs.Parse(args)

	if *keyName == "" {
		fatal("Usage: mintgate mint create --key <key> [--decimals <d>]")
	}
	if *decimals > 19 {
		fatal("decimals must be at most 19")
	}
	authority := a.signer(*keyName)

	// The mint identity is a throwaway key: it only has to sign creation.
	mintKey, err := crypto.GenerateKey()
	if err != nil {
		a.fatal("generate mint key: %v", err)
	}
	defer mintKey.Zero()

	tx, err := ledger.NewCreateMint(mintKey.Address(), uint8(*decimals), authority.Address())
	if err != nil {
		a.fatal("%v", err)
	}
	a.submit(tx, mintKey)

	fmt.Printf("Mint created: %s\n", mintKey.Address())
	fmt.Printf("Authority:    %s\n", authority.Address())
	fmt.Printf("Decimals:     %d\n", *decimals)
}

func (a *app) cmdMintInfo(mint types.Address) {
	q := a.query()
	m, err := q.Mint(mint)
	if err != nil {
		a.fatal("%v", err)
	}
	holders, err := q.Holders(mint)
	if err != nil {
		a.fatal("%v", err)
	}

	fmt.Printf("Mint:      %s\n", mint)
	if m.Authority == nil {
		fmt.Println("Authority: none")
	} else {
		fmt.Printf("Authority: %s\n", *m.Authority)
	}
	fmt.Printf("Supply:    %s\n", formatAmount(m.Supply, m.Decimals))
	fmt.Printf("Decimals:  %d\n", m.Decimals)
	fmt.Printf("Holders:   %d\n", len(holders))
	for _, h := range holders {
		fmt.Printf("  %s owner=%s balance=%s\n", h.Address, h.Owner, formatAmount(h.Balance, m.Decimals))
	}
}

func (a *app) cmdAccount(args []string) {
	if len(args) < 1 || args[0] != "create" {
		fatal("Usage: mintgate account create --key <key> --mint <mint> [--owner <addr>]")
	}
	fs := flag.NewFlagSet("account create", flag.ExitOnError)
	keyName := fs.String("key", "", "Key that pays for the account")
	mintStr := fs.String("mint", "", "Mint address")
	ownerStr := fs.String("owner", "", "Account owner (default: the paying key)")
	fs.Parse(args[1:])

	if *keyName == "" || *mintStr == "" {
		fatal("Usage: mintgate account create --key <key> --mint <mint> [--owner <addr>]")
	}
	mint := mustAddress("mint", *mintStr)
	var owner types.Address
	if *ownerStr != "" {
		owner = mustAddress("owner", *ownerStr)
	}

	payer := a.signer(*keyName)
	if owner.IsZero() {
		owner = payer.Address()
	}
	tx, err := ledger.NewCreateAccount(payer.Address(), owner, mint)
	if err != nil {
		a.fatal("%v", err)
	}
	a.submit(tx, payer)

	addr, err := ledger.AccountAddress(owner, mint)
	if err != nil {
		a.fatal("%v", err)
	}
	fmt.Printf("Account created: %s\n", addr)
	fmt.Printf("Owner:           %s\n", owner)
}

// ── gate ────────────────────────────────────────────────────────────────

func (a *app) cmdGate(args []string) {
	if len(args) < 1 {
		fatal("Usage: mintgate gate <init|mint|disable|show> [flags]")
	}
	switch args[0] {
	case "init":
		a.cmdGateInit(args[1:])
	case "mint":
		a.cmdGateMint(args[1:])
	case "disable":
		a.cmdGateDisable(args[1:])
	case "show":
		a.cmdGateShow(args[1:])
	default:
		fatal("Unknown gate command: %s\nUsage: mintgate gate <init|mint|disable|show> [flags]", args[0])
	}
}

func (a *app) cmdGateInit(args []string) {
	fs := flag.NewFlagSet("gate init", flag.ExitOnError)
	payerName := fs.String("payer", "", "Key that pays for the config record")
	authName := fs.String("authority", "", "Key that currently holds the mint authority")
	mintStr := fs.String("mint", "", "Mint address")
	ownerStr := fs.String("owner", "", "Owner allowed to mint and disable (default: the authority key)")
	fs.Parse(args)

	if *payerName == "" || *authName == "" || *mintStr == "" {
		fatal("Usage: mintgate gate init --payer <key> --authority <key> --mint <mint> [--owner <addr>]")
	}
	mint := mustAddress("mint", *mintStr)
	var owner types.Address
	if *ownerStr != "" {
		owner = mustAddress("owner", *ownerStr)
	}

	payer := a.signer(*payerName)
	current := a.signer(*authName)
	if owner.IsZero() {
		owner = current.Address()
	}

	tx, err := mintgate.NewInitialize(payer.Address(), current.Address(), mint, owner)
	if err != nil {
		a.fatal("%v", err)
	}
	if *payerName == *authName {
		a.submit(tx, payer)
	} else {
		a.submit(tx, payer, current)
	}

	a.printStatus(mint)
}

func (a *app) cmdGateMint(args []string) {
	fs := flag.NewFlagSet("gate mint", flag.ExitOnError)
	ownerName := fs.String("owner", "", "Owner key")
	mintStr := fs.String("mint", "", "Mint address")
	toStr := fs.String("to", "", "Destination holding account")
	amountStr := fs.String("amount", "", "Amount in whole tokens (decimals allowed)")
	fs.Parse(args)

	if *ownerName == "" || *mintStr == "" || *toStr == "" || *amountStr == "" {
		fatal("Usage: mintgate gate mint --owner <key> --mint <mint> --to <account> --amount <n>")
	}
	mint := mustAddress("mint", *mintStr)
	to := mustAddress("to", *toStr)

	m, err := a.query().Mint(mint)
	if err != nil {
		a.fatal("%v", err)
	}
	amount, err := parseAmount(*amountStr, m.Decimals)
	if err != nil {
		a.fatal("invalid amount: %v", err)
	}

	owner := a.signer(*ownerName)
	tx, err := mintgate.NewMintTokens(owner.Address(), mint, to, amount)
	if err != nil {
		a.fatal("%v", err)
	}
	a.submit(tx, owner)

	acct, err := a.query().Account(to)
	if err != nil {
		a.fatal("%v", err)
	}
	fmt.Printf("Minted:  %s\n", formatAmount(amount, m.Decimals))
	fmt.Printf("Balance: %s\n", formatAmount(acct.Balance, m.Decimals))
}

func (a *app) cmdGateDisable(args []string) {
	fs := flag.NewFlagSet("gate disable", flag.ExitOnError)
	ownerName := fs.String("owner", "", "Owner key")
	mintStr := fs.String("mint", "", "Mint address")
	fs.Parse(args)

	if *ownerName == "" || *mintStr == "" {
		fatal("Usage: mintgate gate disable --owner <key> --mint <mint>")
	}
	mint := mustAddress("mint", *mintStr)

	owner := a.signer(*ownerName)
	tx, err := mintgate.NewDisableMinting(owner.Address(), mint)
	if err != nil {
		a.fatal("%v", err)
	}
	a.submit(tx, owner)

	fmt.Println("Minting disabled permanently.")
	a.printStatus(mint)
}

func (a *app) cmdGateShow(args []string) {
	fs := flag.NewFlagSet("gate show", flag.ExitOnError)
	mintStr := fs.String("mint", "", "Mint address")
	asJSON := fs.Bool("json", false, "Print as JSON")
	fs.Parse(args)

	if *mintStr == "" {
		fatal("Usage: mintgate gate show --mint <mint> [--json]")
	}
	mint := mustAddress("mint", *mintStr)
	if *asJSON {
		st, err := a.query().Status(mint)
		if err != nil {
			a.fatal("%v", err)
		}
		printJSON(st)
		return
	}
	a.printStatus(mint)
}

func (a *app) printStatus(mint types.Address) {
	st, err := a.query().Status(mint)
	if err != nil {
		a.fatal("%v", err)
	}
	fmt.Printf("Mint:      %s\n", st.Mint)
	fmt.Printf("State:     %s\n", st.State)
	if st.Authority == nil {
		fmt.Println("Authority: none")
	} else {
		fmt.Printf("Authority: %s\n", *st.Authority)
	}
	fmt.Printf("Config:    %s\n", st.Config)
	if st.Owner != nil {
		fmt.Printf("Owner:     %s\n", *st.Owner)
		fmt.Printf("Bump:      %d\n", *st.Bump)
	}
	fmt.Printf("Supply:    %d\n", st.Supply)
}

// ── queries ─────────────────────────────────────────────────────────────

func (a *app) cmdDerive(args []string) {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	mintStr := fs.String("mint", "", "Mint address")
	fs.Parse(args)

	if *mintStr == "" {
		fatal("Usage: mintgate derive --mint <mint>")
	}
	mint := mustAddress("mint", *mintStr)

	authority, authBump, err := mintgate.DeriveAuthority(mint)
	if err != nil {
		fatal("%v", err)
	}
	cfgAddr, cfgBump, err := mintgate.DeriveConfig(mint)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Program:   %s\n", mintgate.ProgramID)
	fmt.Printf("Authority: %s (bump %d)\n", authority, authBump)
	fmt.Printf("Config:    %s (bump %d)\n", cfgAddr, cfgBump)
}

func (a *app) cmdBalance(args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	acctStr := fs.String("account", "", "Holding account address")
	fs.Parse(args)

	if *acctStr == "" {
		fatal("Usage: mintgate balance --account <account>")
	}
	addr := mustAddress("account", *acctStr)

	q := a.query()
	acct, err := q.Account(addr)
	if err != nil {
		a.fatal("%v", err)
	}
	var decimals uint8
	if m, err := q.Mint(acct.Mint); err == nil {
		decimals = m.Decimals
	}
	fmt.Printf("Account: %s\n", addr)
	fmt.Printf("Mint:    %s\n", acct.Mint)
	fmt.Printf("Owner:   %s\n", acct.Owner)
	fmt.Printf("Balance: %s\n", formatAmount(acct.Balance, decimals))
}

// ── helpers ─────────────────────────────────────────────────────────────

func mustAddress(field, s string) types.Address {
	addr, err := types.ParseAddress(s)
	if err != nil {
		fatal("invalid %s address %q: %v", field, s, err)
	}
	return addr
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("marshal: %v", err)
	}
	fmt.Println(string(data))
}

// newPassword prompts twice for a new key password.
func newPassword() []byte {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}
	return password
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
