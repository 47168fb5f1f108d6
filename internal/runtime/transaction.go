// Package runtime executes program instructions atomically on behalf of
// verified signers.
package runtime

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mintgate/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

var (
	ErrNoSignatures   = errors.New("transaction has no signatures")
	ErrBadSignature   = errors.New("invalid transaction signature")
	ErrUnknownProgram = errors.New("unknown program")
	ErrReplayed       = errors.New("transaction already executed")
)

// Signature binds a public key to a Schnorr signature over the
// transaction hash.
type Signature struct {
	PubKey []byte `json:"pubkey"`
	Sig    []byte `json:"sig"`
}

// Transaction is one instruction for one program, plus the signatures
// that authorize it. The nonce makes two otherwise equal instructions
// distinct transactions; a transaction hash is accepted at most once.
type Transaction struct {
	Program    types.ProgramID `json:"program"`
	Nonce      uint64          `json:"nonce"`
	Data       []byte          `json:"data"`
	Signatures []Signature     `json:"signatures"`
}

// NewTransaction creates an unsigned transaction with a random nonce.
func NewTransaction(program types.ProgramID, data []byte) *Transaction {
	var b [8]byte
	rand.Read(b[:])
	return &Transaction{Program: program, Nonce: binary.BigEndian.Uint64(b[:]), Data: data}
}

// Hash returns the message every signer signs:
// BLAKE3(program || nonce_be64 || data).
func (tx *Transaction) Hash() types.Hash {
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], tx.Nonce)
	return crypto.HashParts(tx.Program[:], nonce[:], tx.Data)
}

// Sign appends a signature from each signer.
func (tx *Transaction) Sign(signers ...crypto.Signer) error {
	h := tx.Hash()
	for _, s := range signers {
		sig, err := s.Sign(h[:])
		if err != nil {
			return fmt.Errorf("sign transaction: %w", err)
		}
		tx.Signatures = append(tx.Signatures, Signature{PubKey: s.PublicKey(), Sig: sig})
	}
	return nil
}

// verify checks every signature and returns the set of signer addresses.
func (tx *Transaction) verify() (map[types.Address]struct{}, error) {
	if len(tx.Signatures) == 0 {
		return nil, ErrNoSignatures
	}
	h := tx.Hash()
	signers := make(map[types.Address]struct{}, len(tx.Signatures))
	for i, s := range tx.Signatures {
		if len(s.PubKey) != crypto.PublicKeySize || len(s.Sig) != crypto.SignatureSize {
			return nil, fmt.Errorf("signature %d: %w", i, ErrBadSignature)
		}
		if err := crypto.VerifySignature(h[:], s.Sig, s.PubKey); err != nil {
			return nil, fmt.Errorf("signature %d: %w: %v", i, ErrBadSignature, err)
		}
		signers[crypto.AddressFromPubKey(s.PubKey)] = struct{}{}
	}
	return signers, nil
}
