package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-mintgate/internal/log"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// Keystore errors.
var (
	ErrKeyExists       = errors.New("key already exists")
	ErrKeyNotFound     = errors.New("key not found")
	ErrWrongPassword   = errors.New("wrong password or corrupt key file")
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrInvalidName     = errors.New("invalid key name")
)

const (
	keyFileVersion = 1
	keyFileExt     = ".key"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// keyFile is the on-disk JSON form of one key.
type keyFile struct {
	Version       int           `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	Address       types.Address `json:"address"`
	Path          string        `json:"path"`
	EncryptedSeed []byte        `json:"encrypted_seed"`
}

// Info describes a stored key without decrypting it.
type Info struct {
	Name      string        `json:"name"`
	Address   types.Address `json:"address"`
	Path      string        `json:"path"`
	CreatedAt time.Time     `json:"created_at"`
}

// Keystore keeps encrypted signer keys in a directory, one file per key.
type Keystore struct {
	dir    string
	params Params
}

// NewKeystore opens the keystore at dir, creating it if needed.
func NewKeystore(dir string, params Params) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir, params: params}, nil
}

func (ks *Keystore) path(name string) string {
	return filepath.Join(ks.dir, name+keyFileExt)
}

// Import stores the key derived from mnemonic under name and returns its
// address.
func (ks *Keystore) Import(name, mnemonic string, password []byte) (types.Address, error) {
	if !validName.MatchString(name) {
		return types.Address{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	path := ks.path(name)
	if _, err := os.Stat(path); err == nil {
		return types.Address{}, fmt.Errorf("%w: %s", ErrKeyExists, name)
	}

	seed, err := SeedFromMnemonic(strings.TrimSpace(mnemonic), "")
	if err != nil {
		return types.Address{}, err
	}
	defer zero(seed)

	signer, err := DeriveSigner(seed, DefaultPath)
	if err != nil {
		return types.Address{}, err
	}
	defer signer.Zero()

	sealed, err := Seal(seed, password, ks.params)
	if err != nil {
		return types.Address{}, fmt.Errorf("encrypt seed: %w", err)
	}
	kf := keyFile{
		Version:       keyFileVersion,
		CreatedAt:     time.Now().UTC(),
		Address:       signer.Address(),
		Path:          FormatPath(DefaultPath),
		EncryptedSeed: sealed,
	}
	if err := writeKeyFile(path, &kf); err != nil {
		return types.Address{}, err
	}
	log.Keys.Debug().Str("name", name).Str("address", kf.Address.String()).Msg("Key stored")
	return kf.Address, nil
}

// Create generates a new mnemonic, stores its key under name, and returns
// the mnemonic for the user to back up.
func (ks *Keystore) Create(name string, password []byte) (string, types.Address, error) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		return "", types.Address{}, err
	}
	addr, err := ks.Import(name, mnemonic, password)
	if err != nil {
		return "", types.Address{}, err
	}
	return mnemonic, addr, nil
}

// Signer decrypts the named key.
func (ks *Keystore) Signer(name string, password []byte) (*crypto.PrivateKey, error) {
	kf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	seed, err := Open(kf.EncryptedSeed, password)
	if err != nil {
		return nil, fmt.Errorf("key %s: %w", name, err)
	}
	defer zero(seed)

	signer, err := DeriveSigner(seed, DefaultPath)
	if err != nil {
		return nil, err
	}
	if got := signer.Address(); got != kf.Address {
		signer.Zero()
		return nil, fmt.Errorf("key %s: derived address %s does not match stored %s", name, got, kf.Address)
	}
	return signer, nil
}

// Info returns the named key's public metadata.
func (ks *Keystore) Info(name string) (*Info, error) {
	kf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	return &Info{Name: name, Address: kf.Address, Path: kf.Path, CreatedAt: kf.CreatedAt}, nil
}

// List returns every stored key, sorted by name.
func (ks *Keystore) List() ([]Info, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != keyFileExt {
			continue
		}
		info, err := ks.Info(strings.TrimSuffix(e.Name(), keyFileExt))
		if err != nil {
			log.Keys.Warn().Err(err).Str("file", e.Name()).Msg("Skipping unreadable key file")
			continue
		}
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the named key.
func (ks *Keystore) Delete(name string) error {
	if _, err := ks.read(name); err != nil {
		return err
	}
	return os.Remove(ks.path(name))
}

func (ks *Keystore) read(name string) (*keyFile, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	data, err := os.ReadFile(ks.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key %s: %w", name, err)
	}
	if kf.Version != keyFileVersion {
		return nil, fmt.Errorf("key %s: unsupported version %d", name, kf.Version)
	}
	return &kf, nil
}

func writeKeyFile(path string, kf *keyFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	return nil
}
