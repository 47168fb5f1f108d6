package storage

import (
	"sort"
	"strings"
)

// Txn buffers writes on top of a DB. Reads see the buffered writes
// first. Nothing reaches the underlying DB until Commit, which applies
// every write through one Batch when the DB is a Batcher.
//
// A Txn is not safe for concurrent use.
type Txn struct {
	db      DB
	pending map[string]pendingWrite
}

type pendingWrite struct {
	value   []byte
	deleted bool
}

// NewTxn starts a transaction over db.
func NewTxn(db DB) *Txn {
	return &Txn{db: db, pending: make(map[string]pendingWrite)}
}

// Get retrieves a value, preferring buffered writes.
func (t *Txn) Get(key []byte) ([]byte, error) {
	if w, ok := t.pending[string(key)]; ok {
		if w.deleted {
			return nil, ErrNotFound
		}
		return append([]byte{}, w.value...), nil
	}
	return t.db.Get(key)
}

// Has checks if a key exists, preferring buffered writes.
func (t *Txn) Has(key []byte) (bool, error) {
	if w, ok := t.pending[string(key)]; ok {
		return !w.deleted, nil
	}
	return t.db.Has(key)
}

// Put buffers a write.
func (t *Txn) Put(key, value []byte) error {
	t.pending[string(key)] = pendingWrite{value: append([]byte{}, value...)}
	return nil
}

// Delete buffers a delete.
func (t *Txn) Delete(key []byte) error {
	t.pending[string(key)] = pendingWrite{deleted: true}
	return nil
}

// ForEach iterates the merged view of the DB and buffered writes.
// Buffered keys are visited after the DB's keys, in sorted order.
func (t *Txn) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	err := t.db.ForEach(prefix, func(key, value []byte) error {
		if _, ok := t.pending[string(key)]; ok {
			return nil // Shadowed by a buffered write.
		}
		return fn(key, value)
	})
	if err != nil {
		return err
	}

	p := string(prefix)
	keys := make([]string, 0, len(t.pending))
	for k, w := range t.pending {
		if !w.deleted && strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), append([]byte{}, t.pending[k].value...)); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of buffered writes.
func (t *Txn) Len() int {
	return len(t.pending)
}

// Commit applies all buffered writes and resets the transaction.
func (t *Txn) Commit() error {
	if len(t.pending) == 0 {
		return nil
	}
	var b Batch
	if batcher, ok := t.db.(Batcher); ok {
		b = batcher.NewBatch()
	} else {
		b = &directBatch{db: t.db}
	}
	for k, w := range t.pending {
		var err error
		if w.deleted {
			err = b.Delete([]byte(k))
		} else {
			err = b.Put([]byte(k), w.value)
		}
		if err != nil {
			return err
		}
	}
	if err := b.Commit(); err != nil {
		return err
	}
	t.Discard()
	return nil
}

// Discard drops all buffered writes.
func (t *Txn) Discard() {
	t.pending = make(map[string]pendingWrite)
}

// Close discards the transaction. The underlying DB stays open.
func (t *Txn) Close() error {
	t.Discard()
	return nil
}

// directBatch applies writes one by one for DBs that cannot batch.
type directBatch struct {
	db  DB
	ops []memoryOp
}

func (d *directBatch) Put(key, value []byte) error {
	d.ops = append(d.ops, memoryOp{key: string(key), value: value})
	return nil
}

func (d *directBatch) Delete(key []byte) error {
	d.ops = append(d.ops, memoryOp{key: string(key), delete: true})
	return nil
}

func (d *directBatch) Commit() error {
	for _, op := range d.ops {
		var err error
		if op.delete {
			err = d.db.Delete([]byte(op.key))
		} else {
			err = d.db.Put([]byte(op.key), op.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
