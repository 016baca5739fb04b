package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const sessionSchemaVersion = 1

// Principal is the persisted login state. SchemaVersion guards against
// loading state written by an incompatible build.
type Principal struct {
	SchemaVersion int    `json:"schemaVersion"`
	User          User   `json:"user"`
	AccessToken   string `json:"accessToken"`
}

// Store persists raw session bytes. Implementations must make Clear a
// no-op when nothing is stored.
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Clear() error
}

// FileStore keeps the session in a single JSON file. Saves go through
// a temp file and rename, so a crash never leaves a half-written file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	return data, nil
}

func (s *FileStore) Save(data []byte) error {
	dir := filepath.Dir(s.path)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*")

	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, s.path)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// Session holds the current principal behind a mutex. There is no
// package-level state; callers own their Session.
type Session struct {
	mu        sync.Mutex
	store     Store
	principal *Principal
}

// NewSession loads persisted state from the store. Malformed or
// version-mismatched data is discarded and removed, leaving the
// session logged out.
func NewSession(store Store) *Session {
	s := &Session{store: store}

	if store == nil {
		return s
	}

	data, err := store.Load()

	if err != nil || len(data) == 0 {
		return s
	}

	var p Principal

	if err := json.Unmarshal(data, &p); err != nil || p.SchemaVersion != sessionSchemaVersion || p.AccessToken == "" {
		_ = store.Clear()
		return s
	}

	s.principal = &p

	return s
}

func (s *Session) Current() (Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.principal == nil {
		return Principal{}, false
	}

	return *s.principal, true
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.principal == nil {
		return ""
	}

	return s.principal.AccessToken
}

// Set persists the principal first, then installs it in memory.
func (s *Session) Set(p Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.SchemaVersion = sessionSchemaVersion

	if s.store != nil {
		data, err := json.Marshal(p)

		if err != nil {
			return err
		}

		if err := s.store.Save(data); err != nil {
			return err
		}
	}

	s.principal = &p

	return nil
}

// SetUser replaces only the user half of the principal, keeping the
// token. Used after a profile re-fetch.
func (s *Session) SetUser(u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.principal == nil {
		return ErrNotLoggedIn
	}

	p := *s.principal
	p.User = u

	if s.store != nil {
		data, err := json.Marshal(p)

		if err != nil {
			return err
		}

		if err := s.store.Save(data); err != nil {
			return err
		}
	}

	s.principal = &p

	return nil
}

// Clear removes the persisted entry and then the in-memory principal.
// Both happen under the lock, so no caller can observe a half-cleared
// session.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			return err
		}
	}

	s.principal = nil

	return nil
}
