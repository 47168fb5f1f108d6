package mintgate

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/internal/storage"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

// Record framing.
const (
	DiscriminatorSize = 8
	ConfigSize        = DiscriminatorSize + 2*types.AddressSize + 1
)

// configDiscriminator tags MintConfig records: BLAKE3("account:MintConfig")[:8].
var configDiscriminator = func() []byte {
	h := crypto.Hash([]byte("account:MintConfig"))
	return h[:DiscriminatorSize]
}()

var prefixConfig = []byte("c/") // c/<config(20)> -> MintConfig

// MintConfig binds a mint to its owner and to the bump of its delegated
// authority. It is written once and never changed.
type MintConfig struct {
	Owner types.Address `json:"owner"`
	Mint  types.Address `json:"mint"`
	Bump  uint8         `json:"bump"`
}

// Encode returns the fixed-size record layout:
// discriminator(8) | owner(20) | mint(20) | bump(1).
func (c *MintConfig) Encode() []byte {
	buf := make([]byte, 0, ConfigSize)
	buf = append(buf, configDiscriminator...)
	buf = append(buf, c.Owner[:]...)
	buf = append(buf, c.Mint[:]...)
	return append(buf, c.Bump)
}

// DecodeMintConfig parses a record produced by Encode.
func DecodeMintConfig(data []byte) (*MintConfig, error) {
	if len(data) != ConfigSize {
		return nil, fmt.Errorf("%w: size %d, want %d", ErrInvalidConfig, len(data), ConfigSize)
	}
	if !bytes.Equal(data[:DiscriminatorSize], configDiscriminator) {
		return nil, fmt.Errorf("%w: bad discriminator", ErrInvalidConfig)
	}
	var c MintConfig
	off := DiscriminatorSize
	copy(c.Owner[:], data[off:off+types.AddressSize])
	off += types.AddressSize
	copy(c.Mint[:], data[off:off+types.AddressSize])
	off += types.AddressSize
	c.Bump = data[off]
	return &c, nil
}

func configKey(addr types.Address) []byte {
	k := make([]byte, len(prefixConfig)+types.AddressSize)
	copy(k, prefixConfig)
	copy(k[len(prefixConfig):], addr[:])
	return k
}

// createConfig writes a new record at addr. An occupied address fails
// with ErrConfigExists, so each mint can be initialized once.
func createConfig(db storage.DB, addr types.Address, c *MintConfig) error {
	k := configKey(addr)
	exists, err := db.Has(k)
	if err != nil {
		return fmt.Errorf("config lookup: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrConfigExists, addr)
	}
	return db.Put(k, c.Encode())
}

// readConfig loads the record at addr.
func readConfig(r storage.Reader, addr types.Address) (*MintConfig, error) {
	data, err := r.Get(configKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("config get: %w", err)
	}
	return DecodeMintConfig(data)
}
