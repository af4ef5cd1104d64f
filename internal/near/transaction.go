package near

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/wehave/market/pkg/market"
)

const actionFunctionCall uint8 = 2

var ErrEmptyTransaction = errors.New("transaction has no actions")

type Transaction struct {
	SignerID   string
	PublicKey  PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []market.FunctionCall
}

// Serialize encodes the transaction with borsh.
func (t *Transaction) Serialize() ([]byte, error) {
	if len(t.Actions) == 0 {
		return nil, ErrEmptyTransaction
	}

	w := &borshWriter{}
	w.string(t.SignerID)
	w.u8(uint8(t.PublicKey.Type))
	w.fixed(t.PublicKey.Data[:])
	w.u64(t.Nonce)
	w.string(t.ReceiverID)
	w.fixed(t.BlockHash[:])

	w.u32(uint32(len(t.Actions)))
	for _, a := range t.Actions {
		if a.Gas > MaxGas {
			return nil, fmt.Errorf("%s: gas %d exceeds %d", a.MethodName, a.Gas, MaxGas)
		}

		w.u8(actionFunctionCall)
		w.string(a.MethodName)
		w.bytes(a.Args)
		w.u64(a.Gas)
		if err := w.u128(a.Deposit.Big()); err != nil {
			return nil, fmt.Errorf("%s deposit: %w", a.MethodName, err)
		}
	}

	return w.Bytes(), nil
}

type SignedTransaction struct {
	Transaction *Transaction
	Hash        [32]byte
	Signature   []byte

	encoded []byte
}

// Sign hashes the serialized transaction with sha256 and signs the digest.
func (t *Transaction) Sign(k *KeyPair) (*SignedTransaction, error) {
	if k.Public != t.PublicKey {
		return nil, fmt.Errorf("%w: key pair does not match transaction public key", ErrInvalidKey)
	}

	b, err := t.Serialize()
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(b)

	return &SignedTransaction{
		Transaction: t,
		Hash:        hash,
		Signature:   k.Sign(hash[:]),
		encoded:     b,
	}, nil
}

// HashString is the base58 transaction hash used by explorers and tx status.
func (s *SignedTransaction) HashString() string {
	return base58.Encode(s.Hash[:])
}

func (s *SignedTransaction) Serialize() []byte {
	w := &borshWriter{}
	w.fixed(s.encoded)
	w.u8(uint8(KeyTypeED25519))
	w.fixed(s.Signature)
	return w.Bytes()
}

// DecodeBlockHash decodes a base58 block hash.
func DecodeBlockHash(s string) ([32]byte, error) {
	var h [32]byte

	raw, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("decode block hash: %w", err)
	}

	if len(raw) != len(h) {
		return h, fmt.Errorf("block hash has %d bytes", len(raw))
	}

	copy(h[:], raw)
	return h, nil
}
