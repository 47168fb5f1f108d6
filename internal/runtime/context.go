package runtime

import (
	"bytes"
	"sort"

	"github.com/Klingon-tech/klingnet-mintgate/internal/storage"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// Context is what a program sees while processing one instruction.
// Writes made through Store are buffered in the transaction and only
// committed if Process returns nil.
type Context struct {
	program types.ProgramID
	signers map[types.Address]struct{}
	txn     *storage.Txn
}

// Program returns the ID of the program being executed. Derived-address
// proofs are checked against this ID.
func (c *Context) Program() types.ProgramID {
	return c.program
}

// IsSigner reports whether addr signed the transaction.
func (c *Context) IsSigner(addr types.Address) bool {
	_, ok := c.signers[addr]
	return ok
}

// Signers returns the signer addresses in byte order.
func (c *Context) Signers() []types.Address {
	out := make([]types.Address, 0, len(c.signers))
	for a := range c.signers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// Store returns the transactional view of a program's namespace.
func (c *Context) Store(program types.ProgramID) storage.DB {
	return storage.NewPrefixDB(c.txn, Namespace(program))
}

// Namespace returns the key prefix under which a program's records live.
func Namespace(program types.ProgramID) []byte {
	ns := make([]byte, 0, 2+types.HashSize+1)
	ns = append(ns, 'p', '/')
	ns = append(ns, program[:]...)
	return append(ns, '/')
}
