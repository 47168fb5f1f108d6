package storage

import (
	"bytes"
	"errors"
	"sort"
	"testing"
)

type backend struct {
	name string
	open func(t *testing.T) DB
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) DB { return NewMemory() }},
		{"badger", func(t *testing.T) DB {
			db, err := NewBadger(t.TempDir())
			if err != nil {
				t.Fatalf("NewBadger: %v", err)
			}
			t.Cleanup(func() { db.Close() })
			return db
		}},
		{"badger-inmemory", func(t *testing.T) DB {
			db, err := NewBadgerInMemory()
			if err != nil {
				t.Fatalf("NewBadgerInMemory: %v", err)
			}
			t.Cleanup(func() { db.Close() })
			return db
		}},
		{"prefix", func(t *testing.T) DB { return NewPrefixDB(NewMemory(), []byte("ns/")) }},
		{"txn", func(t *testing.T) DB { return NewTxn(NewMemory()) }},
	}
}

func mustPut(t *testing.T, db DB, kv ...string) {
	t.Helper()
	for i := 0; i+1 < len(kv); i += 2 {
		if err := db.Put([]byte(kv[i]), []byte(kv[i+1])); err != nil {
			t.Fatalf("Put(%s): %v", kv[i], err)
		}
	}
}

func collect(t *testing.T, db Reader, prefix string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := db.ForEach([]byte(prefix), func(k, v []byte) error {
		out[string(k)] = string(v)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach(%q): %v", prefix, err)
	}
	return out
}

func TestDB_ReadWrite(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			db := b.open(t)
			mustPut(t, db, "k", "first", "k", "second")

			got, err := db.Get([]byte("k"))
			if err != nil || string(got) != "second" {
				t.Fatalf("Get = %q, %v; want second", got, err)
			}
			if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
			}
			if ok, err := db.Has([]byte("k")); err != nil || !ok {
				t.Errorf("Has(k) = %v, %v", ok, err)
			}
			if err := db.Delete([]byte("k")); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if ok, _ := db.Has([]byte("k")); ok {
				t.Error("key present after Delete")
			}
			if err := db.Delete([]byte("never")); err != nil {
				t.Errorf("Delete(absent) = %v", err)
			}
		})
	}
}

func TestDB_ValuesAreCopies(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			db := b.open(t)
			val := []byte("abc")
			if err := db.Put([]byte("k"), val); err != nil {
				t.Fatal(err)
			}
			val[0] = 'x'
			got, _ := db.Get([]byte("k"))
			if string(got) != "abc" {
				t.Fatalf("stored value changed with caller slice: %q", got)
			}
			got[0] = 'y'
			again, _ := db.Get([]byte("k"))
			if string(again) != "abc" {
				t.Fatalf("stored value changed with returned slice: %q", again)
			}
		})
	}
}

func TestDB_ForEach(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			db := b.open(t)
			mustPut(t, db, "a/1", "x", "a/2", "y", "b/1", "z")

			got := collect(t, db, "a/")
			if len(got) != 2 || got["a/1"] != "x" || got["a/2"] != "y" {
				t.Errorf("ForEach(a/) = %v", got)
			}
			if all := collect(t, db, ""); len(all) != 3 {
				t.Errorf("ForEach(\"\") returned %d keys, want 3", len(all))
			}

			stop := errors.New("stop")
			calls := 0
			err := db.ForEach(nil, func(k, v []byte) error {
				calls++
				return stop
			})
			if !errors.Is(err, stop) || calls != 1 {
				t.Errorf("early stop: err=%v calls=%d", err, calls)
			}
		})
	}
}

func TestBadgerDB_ForEachOrdered(t *testing.T) {
	db, err := NewBadgerInMemory()
	if err != nil {
		t.Fatalf("NewBadgerInMemory: %v", err)
	}
	defer db.Close()
	mustPut(t, db, "k3", "", "k1", "", "k2", "")

	var keys []string
	db.ForEach([]byte("k"), func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	if !sort.StringsAreSorted(keys) || len(keys) != 3 {
		t.Errorf("keys = %v, want sorted k1..k3", keys)
	}
}

func TestBatch_Atomic(t *testing.T) {
	for _, b := range backends() {
		db := b.open(t)
		batcher, ok := db.(Batcher)
		if !ok {
			continue
		}
		t.Run(b.name, func(t *testing.T) {
			mustPut(t, db, "old", "v")
			batch := batcher.NewBatch()
			batch.Put([]byte("new1"), []byte("1"))
			batch.Put([]byte("new2"), []byte("2"))
			batch.Delete([]byte("old"))

			if ok, _ := db.Has([]byte("new1")); ok {
				t.Fatal("batched write visible before Commit")
			}
			if err := batch.Commit(); err != nil {
				t.Fatalf("Commit: %v", err)
			}
			got := collect(t, db, "")
			if len(got) != 2 || got["new1"] != "1" || got["new2"] != "2" {
				t.Errorf("after Commit = %v", got)
			}
		})
	}
}

func TestBadgerDB_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	mustPut(t, db, "persist", "data")
	db.Close()

	db, err = NewBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	got, err := db.Get([]byte("persist"))
	if err != nil || !bytes.Equal(got, []byte("data")) {
		t.Errorf("after reopen Get = %q, %v", got, err)
	}
}

func TestBadgerDB_Locked(t *testing.T) {
	dir := t.TempDir()
	db, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	defer db.Close()
	if _, err := NewBadger(dir); err == nil {
		t.Fatal("second open of a locked directory succeeded")
	}
}
