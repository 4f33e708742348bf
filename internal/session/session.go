// Package session holds the signed-in player's session in a single logical
// slot backed by a TOML file, with change notification for interested
// components. Consumers never interpret how the token is persisted; they
// read the slot, replace it, or clear it.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Session identifies the signed-in player. The token is opaque to the
// client; the remaining fields are a convenience copy of the profile the
// token was validated against.
type Session struct {
	Token         string `toml:"token"`
	UserID        string `toml:"user_id"`
	PlayerName    string `toml:"player_name,omitempty"`
	IsAdmin       bool   `toml:"is_admin,omitempty"`
	HumanVerified bool   `toml:"human_verified,omitempty"`
}

// Store is the single session slot. It is safe for concurrent use; change
// callbacks run outside the store's lock.
type Store struct {
	path string

	mu      sync.Mutex
	current *Session
	nextID  int
	subs    map[int]func(*Session)
}

// Open loads the session slot from the given path. A missing or unreadable
// file yields an empty slot rather than an error: a corrupt session is
// indistinguishable from being signed out, and the player can sign in again.
func Open(path string) (*Store, error) {
	resolved, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve session path: %w", err)
	}

	s := &Store{path: resolved, subs: make(map[int]func(*Session))}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, nil // Graceful degradation
	}

	var sess Session
	if err := toml.Unmarshal(raw, &sess); err != nil {
		return s, nil // Graceful degradation
	}
	if strings.TrimSpace(sess.Token) == "" {
		return s, nil
	}
	s.current = &sess
	return s, nil
}

// Get returns a copy of the current session, or nil when signed out.
func (s *Store) Get() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	dup := *s.current
	return &dup
}

// Set replaces the slot and persists it, then notifies subscribers.
func (s *Store) Set(sess Session) error {
	if strings.TrimSpace(sess.Token) == "" {
		return fmt.Errorf("session token is empty")
	}

	s.mu.Lock()
	s.current = &sess
	subs := s.subscribersLocked()
	s.mu.Unlock()

	if err := s.persist(&sess); err != nil {
		return err
	}
	notify(subs, &sess)
	return nil
}

// Clear empties the slot and removes the backing file, then notifies
// subscribers with nil. Clearing an already-empty slot is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	wasSet := s.current != nil
	s.current = nil
	subs := s.subscribersLocked()
	s.mu.Unlock()

	if !wasSet {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		notify(subs, nil)
		return fmt.Errorf("remove session file: %w", err)
	}
	notify(subs, nil)
	return nil
}

// OnChange registers a callback invoked with a copy of the new session (nil
// when cleared). The returned function unsubscribes.
func (s *Store) OnChange(fn func(*Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) subscribersLocked() []func(*Session) {
	subs := make([]func(*Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(*Session), sess *Session) {
	for _, fn := range subs {
		if sess == nil {
			fn(nil)
			continue
		}
		dup := *sess
		fn(&dup)
	}
}

func (s *Store) persist(sess *Session) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	raw, err := toml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// The token is a credential; keep the file owner-only.
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
