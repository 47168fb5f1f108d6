package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/internal/storage"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

var (
	prefixMint    = []byte("m/") // m/<mint(20)> -> Mint JSON
	prefixAccount = []byte("a/") // a/<account(20)> -> Account JSON
)

// Store persists mints and accounts.
type Store struct {
	db storage.DB
}

// NewStore creates a ledger store over the ledger's namespace.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// PutMint stores a mint.
func (s *Store) PutMint(addr types.Address, m *Mint) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("mint marshal: %w", err)
	}
	return s.db.Put(key(prefixMint, addr), data)
}

// GetMint retrieves a mint.
func (s *Store) GetMint(addr types.Address) (*Mint, error) {
	return getMint(s.db, addr)
}

// HasMint checks if a mint exists.
func (s *Store) HasMint(addr types.Address) (bool, error) {
	return s.db.Has(key(prefixMint, addr))
}

// PutAccount stores an account.
func (s *Store) PutAccount(addr types.Address, a *Account) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("account marshal: %w", err)
	}
	return s.db.Put(key(prefixAccount, addr), data)
}

// GetAccount retrieves an account.
func (s *Store) GetAccount(addr types.Address) (*Account, error) {
	return getAccount(s.db, addr)
}

// HasAccount checks if an account exists.
func (s *Store) HasAccount(addr types.Address) (bool, error) {
	return s.db.Has(key(prefixAccount, addr))
}

// AccountEntry pairs an account address with its contents.
type AccountEntry struct {
	Address types.Address `json:"address"`
	Account
}

// Holders returns every account holding mint.
func (s *Store) Holders(mint types.Address) ([]AccountEntry, error) {
	return holders(s.db, mint)
}

// GetMint reads a mint from a committed view of the ledger namespace.
func GetMint(r storage.Reader, addr types.Address) (*Mint, error) {
	return getMint(r, addr)
}

// GetAccount reads an account from a committed view of the ledger namespace.
func GetAccount(r storage.Reader, addr types.Address) (*Account, error) {
	return getAccount(r, addr)
}

// Holders lists a mint's accounts from a committed view of the ledger namespace.
func Holders(r storage.Reader, mint types.Address) ([]AccountEntry, error) {
	return holders(r, mint)
}

func getMint(r storage.Reader, addr types.Address) (*Mint, error) {
	data, err := r.Get(key(prefixMint, addr))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMintNotFound, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("mint get: %w", err)
	}
	var m Mint
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("mint unmarshal: %w", err)
	}
	return &m, nil
}

func getAccount(r storage.Reader, addr types.Address) (*Account, error) {
	data, err := r.Get(key(prefixAccount, addr))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("account get: %w", err)
	}
	var a Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("account unmarshal: %w", err)
	}
	return &a, nil
}

func holders(r storage.Reader, mint types.Address) ([]AccountEntry, error) {
	entries := []AccountEntry{}
	err := r.ForEach(prefixAccount, func(k, value []byte) error {
		// Key layout: "a/" + address(20).
		if len(k) != len(prefixAccount)+types.AddressSize {
			return nil // Malformed key, skip.
		}
		var a Account
		if err := json.Unmarshal(value, &a); err != nil {
			return nil // Skip corrupt entries.
		}
		if a.Mint != mint {
			return nil
		}
		var addr types.Address
		copy(addr[:], k[len(prefixAccount):])
		entries = append(entries, AccountEntry{Address: addr, Account: a})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func key(prefix []byte, addr types.Address) []byte {
	k := make([]byte, len(prefix)+types.AddressSize)
	copy(k, prefix)
	copy(k[len(prefix):], addr[:])
	return k
}
