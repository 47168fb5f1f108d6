package storage

// PrefixDB scopes a DB to one key prefix. Programs see their own
// namespace through it, whether the inner DB is the root database or an
// open Txn.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB scopes inner to prefix. The prefix is copied.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: append([]byte(nil), prefix...)}
}

// Prefix returns the namespace prefix.
func (p *PrefixDB) Prefix() []byte { return append([]byte(nil), p.prefix...) }

func (p *PrefixDB) Get(key []byte) ([]byte, error) { return p.inner.Get(join(p.prefix, key)) }
func (p *PrefixDB) Has(key []byte) (bool, error)    { return p.inner.Has(join(p.prefix, key)) }
func (p *PrefixDB) Put(key, value []byte) error     { return p.inner.Put(join(p.prefix, key), value) }
func (p *PrefixDB) Delete(key []byte) error         { return p.inner.Delete(join(p.prefix, key)) }

// ForEach visits keys under prefix inside the namespace. Keys reach fn
// with the namespace stripped.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(join(p.prefix, prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// Close does nothing. The inner DB owns its lifecycle.
func (p *PrefixDB) Close() error { return nil }

// NewBatch returns a batch scoped to the namespace. It is atomic only when
// the inner DB supports batches.
func (p *PrefixDB) NewBatch() Batch {
	if b, ok := p.inner.(Batcher); ok {
		return &prefixBatch{inner: b.NewBatch(), prefix: p.prefix}
	}
	return &directBatch{db: p}
}

type prefixBatch struct {
	inner  Batch
	prefix []byte
}

func (b *prefixBatch) Put(key, value []byte) error { return b.inner.Put(join(b.prefix, key), value) }
func (b *prefixBatch) Delete(key []byte) error     { return b.inner.Delete(join(b.prefix, key)) }
func (b *prefixBatch) Commit() error               { return b.inner.Commit() }

// join returns prefix followed by key in a fresh slice.
func join(prefix, key []byte) []byte {
	out := make([]byte, 0, len(prefix)+len(key))
	return append(append(out, prefix...), key...)
}
