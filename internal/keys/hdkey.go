package keys

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/pkg/crypto"
	"github.com/tyler-smith/go-bip32"
)

// BIP-44 path components.
const (
	PurposeBIP44 = bip32.FirstHardenedChild + 44
	CoinType     = bip32.FirstHardenedChild + 8888
)

// DefaultPath is m/44'/8888'/0'/0/0.
var DefaultPath = []uint32{PurposeBIP44, CoinType, bip32.FirstHardenedChild, 0, 0}

// DeriveSigner derives the Schnorr signing key at path from seed.
func DeriveSigner(seed []byte, path []uint32) (*crypto.PrivateKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	for _, idx := range path {
		if key, err = key.NewChildKey(idx); err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
	}
	// Private bip32 keys carry a leading zero byte.
	raw := key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	return crypto.PrivateKeyFromBytes(raw)
}

// FormatPath renders path in m/44'/... notation.
func FormatPath(path []uint32) string {
	s := "m"
	for _, idx := range path {
		if idx >= bip32.FirstHardenedChild {
			s += fmt.Sprintf("/%d'", idx-bip32.FirstHardenedChild)
		} else {
			s += fmt.Sprintf("/%d", idx)
		}
	}
	return s
}
