// Package types defines the primitive identity types shared by the
// runtime, the token ledger and the mint gate.
package types

import (
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// Hash is a 256-bit BLAKE3 digest. Its text form is hex.
type Hash [HashSize]byte

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Bytes returns a copy of the hash.
func (h Hash) Bytes() []byte { return append([]byte(nil), h[:]...) }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText decodes 64 hex characters. Empty text is the zero hash.
func (h *Hash) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*h = Hash{}
		return nil
	}
	parsed, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HexToHash decodes exactly 64 hex characters.
func HexToHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hex: %w", err)
	}
	err = fill(h[:], b, "hash")
	return h, err
}

// ProgramID identifies a program registered with the runtime. Its text
// form is base58.
type ProgramID Hash

func (p ProgramID) String() string { return base58.Encode(p[:]) }

// Bytes returns a copy of the program ID.
func (p ProgramID) Bytes() []byte { return Hash(p).Bytes() }

func (p ProgramID) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *ProgramID) UnmarshalText(text []byte) error {
	parsed, err := ParseProgramID(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseProgramID decodes a base58 program ID.
func ParseProgramID(s string) (ProgramID, error) {
	var p ProgramID
	b, err := base58.Decode(s)
	if err != nil {
		return p, fmt.Errorf("invalid program id: %w", err)
	}
	err = fill(p[:], b, "program id")
	return p, err
}
