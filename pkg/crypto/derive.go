package crypto

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Derivation limits.
const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

// derivationMarker domain-separates derived addresses from every other
// BLAKE3 use in the system.
var derivationMarker = []byte("ProgramDerivedAddress")

var (
	ErrOnCurve      = errors.New("derived candidate is a valid curve point")
	ErrNoViableBump = errors.New("no bump yields an off-curve address")
	ErrSeedTooLong  = errors.New("derivation seed too long")
	ErrTooManySeeds = errors.New("too many derivation seeds")
)

// CreateProgramAddress computes the address owned by program for the
// given seeds. The last seed is normally the one-byte bump.
//
// The candidate h = BLAKE3(seeds... || program || marker) is rejected with
// ErrOnCurve when 0x02||h decodes to a secp256k1 point, since a private key
// could then exist for it. Accepted candidates map to the address
// BLAKE3(0x02||h)[:20].
func CreateProgramAddress(seeds [][]byte, program types.ProgramID) (types.Address, error) {
	if len(seeds) > MaxSeeds {
		return types.Address{}, ErrTooManySeeds
	}
	parts := make([][]byte, 0, len(seeds)+2)
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return types.Address{}, fmt.Errorf("seed %d: %w", i, ErrSeedTooLong)
		}
		parts = append(parts, s)
	}
	parts = append(parts, program[:], derivationMarker)

	h := HashParts(parts...)
	key := make([]byte, PublicKeySize)
	key[0] = secp256k1.PubKeyFormatCompressedEven
	copy(key[1:], h[:])
	if IsOnCurve(key) {
		return types.Address{}, ErrOnCurve
	}
	return AddressFromPubKey(key), nil
}

// FindProgramAddress searches bumps from 255 down to 0 and returns the
// first off-curve address for seeds||[bump] together with that bump.
func FindProgramAddress(seeds [][]byte, program types.ProgramID) (types.Address, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, program)
		if errors.Is(err, ErrOnCurve) {
			continue
		}
		if err != nil {
			return types.Address{}, 0, err
		}
		return addr, uint8(bump), nil
	}
	return types.Address{}, 0, ErrNoViableBump
}

// IsOnCurve reports whether a compressed public key encoding decodes to
// a valid secp256k1 point.
func IsOnCurve(compressed []byte) bool {
	_, err := secp256k1.ParsePubKey(compressed)
	return err == nil
}
