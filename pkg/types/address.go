package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// AddressSize is the length of an address in bytes.
const AddressSize = 20

// Address identifies a signer, a derived authority, or a stored record.
// Signer addresses are BLAKE3(compressed_pubkey)[:20]. Derived addresses
// come from crypto.CreateProgramAddress and have no private key.
//
// The text form is base58. ParseAddress also accepts 40 hex characters.
type Address [AddressSize]byte

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) String() string { return base58.Encode(a[:]) }

// Hex returns the address as 40 lowercase hex characters.
func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// Bytes returns a copy of the address.
func (a Address) Bytes() []byte { return append([]byte(nil), a[:]...) }

// MarshalText implements encoding.TextMarshaler, so JSON renders
// addresses as strings and accepts them as map keys.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text decodes
// to the zero address.
func (a *Address) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a base58 address or a 40-character hex address with
// an optional 0x prefix.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if s == "" {
		return a, fmt.Errorf("empty address")
	}
	if h := strings.TrimPrefix(s, "0x"); len(h) == 2*AddressSize && isHex(h) {
		return HexToAddress(h)
	}
	b, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("invalid base58 address: %w", err)
	}
	err = fill(a[:], b, "address")
	return a, err
}

// HexToAddress decodes exactly 40 hex characters.
func HexToAddress(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid hex: %w", err)
	}
	err = fill(a[:], b, "address")
	return a, err
}

// fill copies src into the fixed-size dst, failing on a length mismatch.
func fill(dst, src []byte, what string) error {
	if len(src) != len(dst) {
		return fmt.Errorf("%s must be %d bytes, got %d", what, len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}
