package wallet

import (
	"github.com/wehave/market/internal/storage"
	"github.com/wehave/market/pkg/market"
)

// SessionStore persists the signed in account between runs.
type SessionStore interface {
	Load() (*market.Session, error)
	Save(s *market.Session) error
	Clear() error
}

type FileSessionStore struct {
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: storage.ExpandHome(path)}
}

// Load returns nil when nobody is signed in.
func (f *FileSessionStore) Load() (*market.Session, error) {
	if !storage.Exists(f.path) {
		return nil, nil
	}

	var s market.Session
	if err := storage.ReadJSON(f.path, &s); err != nil {
		return nil, err
	}

	if s.AccountID == "" {
		return nil, nil
	}

	return &s, nil
}

func (f *FileSessionStore) Save(s *market.Session) error {
	return storage.SaveJSON(f.path, s, 0600)
}

func (f *FileSessionStore) Clear() error {
	return storage.EraseFile(f.path)
}

// MemorySessionStore keeps the session for the lifetime of the process.
type MemorySessionStore struct {
	s *market.Session
}

func (m *MemorySessionStore) Load() (*market.Session, error) {
	return m.s, nil
}

func (m *MemorySessionStore) Save(s *market.Session) error {
	m.s = s
	return nil
}

func (m *MemorySessionStore) Clear() error {
	m.s = nil
	return nil
}
