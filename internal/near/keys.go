package near

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

type KeyType uint8

const (
	KeyTypeED25519 KeyType = 0

	ed25519Prefix = "ed25519:"
)

var ErrInvalidKey = errors.New("invalid key")

type PublicKey struct {
	Type KeyType
	Data [ed25519.PublicKeySize]byte
}

// ParsePublicKey parses "ed25519:<base58>". The prefix is optional.
func ParsePublicKey(s string) (PublicKey, error) {
	raw, err := decodeKeyString(s)
	if err != nil {
		return PublicKey{}, err
	}

	if len(raw) != ed25519.PublicKeySize {
		return PublicKey{}, fmt.Errorf("%w: public key has %d bytes", ErrInvalidKey, len(raw))
	}

	// reject encodings that are not a point on the curve
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	pk := PublicKey{Type: KeyTypeED25519}
	copy(pk.Data[:], raw)

	return pk, nil
}

func (p PublicKey) String() string {
	return ed25519Prefix + base58.Encode(p.Data[:])
}

type KeyPair struct {
	Public  PublicKey
	private ed25519.PrivateKey
}

// ParseKeyPair parses a private key as stored in credential files. Both the
// 64 byte expanded form and a bare 32 byte seed are accepted.
func ParseKeyPair(s string) (*KeyPair, error) {
	raw, err := decodeKeyString(s)
	if err != nil {
		return nil, err
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv = ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
		if string(priv[ed25519.SeedSize:]) != string(raw[ed25519.SeedSize:]) {
			return nil, fmt.Errorf("%w: public half does not match seed", ErrInvalidKey)
		}
	default:
		return nil, fmt.Errorf("%w: private key has %d bytes", ErrInvalidKey, len(raw))
	}

	return newKeyPair(priv), nil
}

func GenerateKeyPair() (*KeyPair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	return newKeyPair(priv), nil
}

func newKeyPair(priv ed25519.PrivateKey) *KeyPair {
	kp := &KeyPair{
		Public:  PublicKey{Type: KeyTypeED25519},
		private: priv,
	}
	copy(kp.Public.Data[:], priv.Public().(ed25519.PublicKey))

	return kp
}

func (k *KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(k.private, message)
}

func (k *KeyPair) Verify(message, sig []byte) bool {
	return ed25519.Verify(k.Public.Data[:], message, sig)
}

// PrivateString encodes the key the way credential files store it.
func (k *KeyPair) PrivateString() string {
	return ed25519Prefix + base58.Encode(k.private)
}

func decodeKeyString(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ":"); i >= 0 {
		if s[:i+1] != ed25519Prefix {
			return nil, fmt.Errorf("%w: unsupported key type %q", ErrInvalidKey, s[:i])
		}
		s = s[i+1:]
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return raw, nil
}
