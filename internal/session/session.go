// Package session holds the process-wide login token.
//
// A single Store is created at startup and shared by everything that needs to
// know whether the user is logged in: the API client reads the bearer token
// from it, the route guard checks it on every navigation, and views subscribe
// to it to react to login and logout. The token is mirrored to a TOML file so
// it survives restarts.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Store is safe for concurrent use.
type Store struct {
	path string

	mu    sync.RWMutex
	token string
	subs  []chan struct{}
}

type file struct {
	Token   string    `toml:"token"`
	SavedAt time.Time `toml:"saved_at"`
}

// Open loads the token persisted at path. A missing file means logged out.
// An empty path keeps the session in memory only.
func Open(path string) (*Store, error) {
	s := &Store{path: strings.TrimSpace(path)}
	if s.path == "" {
		return s, nil
	}

	bytes, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var f file
	if err := toml.Unmarshal(bytes, &f); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	s.token = strings.TrimSpace(f.Token)
	return s, nil
}

// Path returns the backing file, or "" for an in-memory session.
func (s *Store) Path() string {
	return s.path
}

// Token returns the current bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// LoggedIn reports whether a token is present.
func (s *Store) LoggedIn() bool {
	return s.Token() != ""
}

// Set stores token and persists it. An empty token is equivalent to Clear.
func (s *Store) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Clear()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
		bytes, err := toml.Marshal(file{Token: token, SavedAt: time.Now().UTC()})
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		if err := os.WriteFile(s.path, bytes, 0o600); err != nil {
			return fmt.Errorf("write session: %w", err)
		}
	}
	s.token = token
	s.notifyLocked()
	return nil
}

// Clear forgets the token and removes the session file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.notifyLocked()
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Subscribe returns a channel that receives a value after every Set or Clear.
// Notifications coalesce: a slow reader sees at most one pending signal and
// should re-read Token.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
