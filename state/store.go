// Package state persists and transforms the set of known listings.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aluiziolira/watchfinder-tracker/models"
)

// State maps listing identity (canonical absolute URL) to its record. It is
// the durable ground truth between runs; records are inserted once and never
// updated in place, only removed by retention.
type State map[string]models.Watch

// Clone returns a shallow copy of the state.
func (s State) Clone() State {
	out := make(State, len(s))
	for url, watch := range s {
		out[url] = watch
	}
	return out
}

// Store reads and writes state as an indented JSON file at a fixed path.
type Store struct {
	path string
}

// NewStore builds a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted state. A missing or unreadable file is reported
// as an error; the caller decides whether to collapse that to an empty state,
// which keeps "genuinely empty" and "failed to load" distinguishable.
func (st *Store) Load() (State, error) {
	data, err := os.ReadFile(st.path)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	if s == nil {
		s = State{}
	}
	return s, nil
}

// Save persists the full state, creating the containing directory if needed.
// Formatting is stable (two-space indent, trailing newline) so the file stays
// human-diffable across runs.
func (st *Store) Save(s State) error {
	dir := filepath.Dir(st.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory %q: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(st.path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
