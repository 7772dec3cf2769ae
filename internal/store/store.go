// Package store implements the namespaced persistent state of spec.md
// §6: one integer key, pair_id, in namespace blue_pot, defaulting to 0
// if absent.
//
// Grounded on original_source/'s NVS-backed persistence
// (get/set by namespace+key rather than a flat config file) per
// SPEC_FULL.md §12, rendered here as a small YAML document instead of
// ESP-IDF's NVS partition — the pack's otherwise-unused yaml.v3
// dependency is given this home.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Namespace is the single namespace spec.md §6 names.
const Namespace = "blue_pot"

// PairIDKey is the one persisted integer key.
const PairIDKey = "pair_id"

// defaultPairID is returned when no file exists yet (spec.md §6:
// "Default 0 if absent").
const defaultPairID = 0

// document is the on-disk shape: namespace -> key -> value. Only one
// namespace/key pair is used today, but the shape mirrors NVS's actual
// namespacing instead of collapsing to a single flat field.
type document map[string]map[string]int

// Store persists the pairing slot across restarts.
type Store struct {
	path string
	doc  document
}

// Open loads path if it exists, or starts from an empty document
// (spec.md §6's default-if-absent). A missing file is not an error;
// any other read/parse failure is (spec.md §7's construction-time error
// taxonomy).
func Open(path string) (*Store, error) {
	s := &Store{path: path, doc: document{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", path, err)
	}
	if s.doc == nil {
		s.doc = document{}
	}
	return s, nil
}

// PairID returns the persisted pairing slot, or defaultPairID if
// namespace or key is absent.
func (s *Store) PairID() byte {
	ns, ok := s.doc[Namespace]
	if !ok {
		return defaultPairID
	}
	v, ok := ns[PairIDKey]
	if !ok {
		return defaultPairID
	}
	return byte(v)
}

// SetPairID persists slot (0..7; range validation is the command
// surface's job, spec.md §7) and flushes to disk immediately — there
// is no deferred/batched write path, matching NVS's commit-per-set
// semantics.
func (s *Store) SetPairID(slot byte) error {
	if s.doc[Namespace] == nil {
		s.doc[Namespace] = map[string]int{}
	}
	s.doc[Namespace][PairIDKey] = int(slot)
	return s.flush()
}

func (s *Store) flush() error {
	data, err := yaml.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	return nil
}
