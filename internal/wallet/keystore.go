package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wehave/market/internal/near"
	"github.com/wehave/market/internal/storage"
)

var ErrKeyNotFound = errors.New("no key found for account")

// Credentials is the layout of a near-cli credential file.
type Credentials struct {
	AccountID  string `json:"account_id"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// Keys resolves the signing key of an account.
type Keys interface {
	KeyPair(accountID string) (*near.KeyPair, error)
}

// KeyStore reads credentials from <dir>/<network>/<account>.json, the same
// place near-cli writes them.
type KeyStore struct {
	dir     string
	network string
}

func NewKeyStore(dir, network string) *KeyStore {
	return &KeyStore{
		dir:     storage.ExpandHome(dir),
		network: network,
	}
}

func (k *KeyStore) path(accountID string) string {
	return filepath.Join(k.dir, k.network, accountID+".json")
}

func (k *KeyStore) KeyPair(accountID string) (*near.KeyPair, error) {
	if err := near.ValidateAccountID(accountID); err != nil {
		return nil, err
	}

	p := k.path(accountID)
	if !storage.Exists(p) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, accountID)
	}

	var creds Credentials
	if err := storage.ReadJSON(p, &creds); err != nil {
		return nil, fmt.Errorf("read credentials of %s: %w", accountID, err)
	}

	if creds.AccountID != "" && creds.AccountID != accountID {
		return nil, fmt.Errorf("%w: credentials file belongs to %s", near.ErrInvalidKey, creds.AccountID)
	}

	kp, err := near.ParseKeyPair(creds.PrivateKey)
	if err != nil {
		return nil, err
	}

	if creds.PublicKey != "" {
		pk, err := near.ParsePublicKey(creds.PublicKey)
		if err != nil {
			return nil, err
		}

		if pk != kp.Public {
			return nil, fmt.Errorf("%w: public key does not match private key", near.ErrInvalidKey)
		}
	}

	return kp, nil
}

// Save writes the key pair of accountID, readable by the owner only.
func (k *KeyStore) Save(accountID string, kp *near.KeyPair) error {
	if err := near.ValidateAccountID(accountID); err != nil {
		return err
	}

	return storage.SaveJSON(k.path(accountID), &Credentials{
		AccountID:  accountID,
		PublicKey:  kp.Public.String(),
		PrivateKey: kp.PrivateString(),
	}, 0600)
}

// Accounts lists the accounts that have credentials for the network.
func (k *KeyStore) Accounts() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(k.dir, k.network))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	accounts := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		accounts = append(accounts, strings.TrimSuffix(e.Name(), ".json"))
	}

	sort.Strings(accounts)

	return accounts, nil
}
