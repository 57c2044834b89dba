// Package alias maintains the operator-managed table of payee short forms.
// The store is the single mutable piece of canonicalization knowledge in the
// process: it is loaded once at startup and written back on every mutation.
package alias

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dvloznov/echeque-clerk/internal/cheque"
)

// ErrDuplicate reports an insert whose full name already exists under
// canonical comparison.
var ErrDuplicate = errors.New("alias already exists for this full name")

// ErrNotFound reports a delete for a full name the store does not hold.
var ErrNotFound = errors.New("alias not found")

// Entry is one full-name → short-form mapping.
type Entry struct {
	FullName  string `json:"full_name"`
	ShortForm string `json:"short_form"`
}

// Store is an in-memory alias table with CSV persistence. It supports
// concurrent readers and serialized writers; a Resolve issued after a
// mutation returns always observes that mutation. If a persist fails the
// in-memory state stays authoritative for the rest of the session and the
// error is surfaced to the caller.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries []Entry
	// byCanonical indexes entries by cheque.CanonicalName(FullName).
	byCanonical map[string]int
}

// Open loads the alias table from the CSV file at path. A missing file is an
// empty store, not an error.
func Open(path string) (*Store, error) {
	entries, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("alias.Open: %w", err)
	}

	s := &Store{
		path:        path,
		byCanonical: make(map[string]int),
	}
	for _, e := range entries {
		key := cheque.CanonicalName(e.FullName)
		if _, exists := s.byCanonical[key]; exists {
			// Hand-edited files can carry duplicates; first row wins.
			continue
		}
		s.byCanonical[key] = len(s.entries)
		s.entries = append(s.entries, e)
	}

	return s, nil
}

// Resolve canonicalizes rawPayee and looks it up against the stored full
// names. On a hit it returns the short form; on a miss the original string
// comes back unchanged, never an error.
func (s *Store) Resolve(rawPayee string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx, ok := s.byCanonical[cheque.CanonicalName(rawPayee)]; ok {
		return s.entries[idx].ShortForm
	}
	return rawPayee
}

// Add inserts a new mapping and persists the table. Duplicate full names are
// rejected with ErrDuplicate. On persist failure the entry is kept in memory
// and the write error is returned.
func (s *Store) Add(fullName, shortForm string) error {
	if fullName == "" || shortForm == "" {
		return fmt.Errorf("alias.Add: full name and short form are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cheque.CanonicalName(fullName)
	if _, exists := s.byCanonical[key]; exists {
		return fmt.Errorf("alias.Add: %q: %w", fullName, ErrDuplicate)
	}

	s.byCanonical[key] = len(s.entries)
	s.entries = append(s.entries, Entry{FullName: fullName, ShortForm: shortForm})

	if err := writeFile(s.path, s.entries); err != nil {
		return fmt.Errorf("alias.Add: persisting store: %w", err)
	}
	return nil
}

// Remove deletes the mapping for fullName (canonical comparison) and persists
// the table. Mutation happens only by deletion; there is no in-place edit.
func (s *Store) Remove(fullName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cheque.CanonicalName(fullName)
	idx, exists := s.byCanonical[key]
	if !exists {
		return fmt.Errorf("alias.Remove: %q: %w", fullName, ErrNotFound)
	}

	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	delete(s.byCanonical, key)
	for i := idx; i < len(s.entries); i++ {
		s.byCanonical[cheque.CanonicalName(s.entries[i].FullName)] = i
	}

	if err := writeFile(s.path, s.entries); err != nil {
		return fmt.Errorf("alias.Remove: persisting store: %w", err)
	}
	return nil
}

// List returns a snapshot of all entries in insertion order.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored aliases.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
