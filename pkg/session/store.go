package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store persists session cookies to a JSON file.
type Store struct {
	path string

	mu       sync.Mutex
	lastSeen []byte
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type storedSession struct {
	SavedAt time.Time      `json:"saved_at"`
	Cookies []storedCookie `json:"cookies"`
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the saved cookies. A missing file yields no cookies and no error.
func (s *Store) Load() ([]*http.Cookie, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.markSeen(nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	s.markSeen(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", s.path, err)
	}

	cookies := make([]*http.Cookie, 0, len(stored.Cookies))
	for _, c := range stored.Cookies {
		if c.Name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	return cookies, nil
}

// Save writes cookies atomically with owner-only permissions.
func (s *Store) Save(cookies []*http.Cookie) error {
	stored := storedSession{SavedAt: time.Now().UTC()}
	for _, c := range cookies {
		stored.Cookies = append(stored.Cookies, storedCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	s.lastSeen = data
	return nil
}

// Clear removes the session file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	s.lastSeen = nil
	return nil
}

func (s *Store) markSeen(data []byte) {
	s.mu.Lock()
	s.lastSeen = data
	s.mu.Unlock()
}

// changedExternally reports whether the file differs from what this store
// last read or wrote, i.e. another process touched it.
func (s *Store) changedExternally() bool {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		data = nil
	} else if err != nil {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return !bytes.Equal(data, s.lastSeen)
}
