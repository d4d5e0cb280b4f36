// Package storage persists the storefront client's state as JSON blobs
// under fixed names inside a state directory. Two independent records
// exist: the session record and the cart record. Both are loaded eagerly
// at startup and rewritten on every relevant mutation.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Fixed record names inside the state directory.
const (
	// SessionRecord holds {user, token, authenticated}.
	SessionRecord = "session.json"
	// CartRecord holds {items}.
	CartRecord = "cart.json"
)

// Store reads and writes named records in a single directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Load decodes the named record into v. A missing record is not an
// error: v is left untouched so the caller keeps its zero state.
func (s *Store) Load(name string, v any) error {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Save writes v as the named record, replacing any previous content.
func (s *Store) Save(name string, v any) error {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}

// Remove deletes the named record if it exists.
func (s *Store) Remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
