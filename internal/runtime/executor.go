package runtime

import (
	"fmt"
	"sync"

	"github.com/Klingon-tech/klingnet-mintgate/internal/log"
	"github.com/Klingon-tech/klingnet-mintgate/internal/storage"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// Program processes instructions addressed to its ID.
type Program interface {
	ID() types.ProgramID
	Process(ctx *Context, data []byte) error
}

// Executor verifies and runs transactions. Execute calls are serialized,
// so two transactions never observe each other's partial writes.
type Executor struct {
	mu       sync.Mutex
	db       storage.DB
	programs map[types.ProgramID]Program
}

// NewExecutor creates an executor over db with the given programs.
func NewExecutor(db storage.DB, programs ...Program) *Executor {
	e := &Executor{db: db, programs: make(map[types.ProgramID]Program)}
	for _, p := range programs {
		e.Register(p)
	}
	return e
}

// Register adds a program. A later registration with the same ID wins.
func (e *Executor) Register(p Program) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.programs[p.ID()] = p
}

// Execute verifies tx and runs it. Either every write the program makes
// is committed or none is.
func (e *Executor) Execute(tx *Transaction) error {
	signers, err := tx.verify()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prog, ok := e.programs[tx.Program]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, tx.Program)
	}

	txHash := tx.Hash()
	marker := executedKey(txHash)
	seen, err := e.db.Has(marker)
	if err != nil {
		return fmt.Errorf("check executed: %w", err)
	}
	if seen {
		return fmt.Errorf("%w: %s", ErrReplayed, txHash)
	}

	txn := storage.NewTxn(e.db)
	ctx := &Context{program: tx.Program, signers: signers, txn: txn}
	l := log.Runtime.With().Str("tx", txHash.String()).Str("program", tx.Program.String()).Logger()
	l.Debug().Int("signers", len(signers)).Msg("Executing transaction")

	if err := prog.Process(ctx, tx.Data); err != nil {
		txn.Discard()
		l.Warn().Err(err).Msg("Transaction aborted")
		return err
	}

	// The marker commits in the same batch as the program's writes.
	if err := txn.Put(marker, nil); err != nil {
		txn.Discard()
		return fmt.Errorf("record executed: %w", err)
	}
	writes := txn.Len()
	if err := txn.Commit(); err != nil {
		l.Warn().Err(err).Msg("Transaction commit failed")
		return fmt.Errorf("commit transaction: %w", err)
	}
	l.Info().Int("writes", writes).Msg("Transaction committed")
	return nil
}

// executedKey is the record marking txHash as executed. It lives outside
// every program namespace.
func executedKey(h types.Hash) []byte {
	return append([]byte("x/"), h[:]...)
}

// Executed reports whether a transaction with hash h has committed.
func (e *Executor) Executed(h types.Hash) (bool, error) {
	return e.db.Has(executedKey(h))
}

// View returns a read-only view of a program's committed records.
func (e *Executor) View(program types.ProgramID) storage.Reader {
	return storage.NewPrefixDB(e.db, Namespace(program))
}
