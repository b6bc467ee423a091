// Package codebase implements the content-addressed store (spec.md §4.4,
// C4): definitions keyed by hashing.Hash, names bound to hashes in a
// mutable namespace layer on top of the immutable hash-indexed content.
//
// Grounded on the teacher's internal/modules/loader.go (lazy, memoized
// module resolution keyed by import path) generalized from "load a module
// file once" to "resolve a name to its current hash, cached until the
// binding changes".
package codebase

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vibe-lang/vibe/internal/hashing"
	"github.com/vibe-lang/vibe/internal/lang"
)

// Definition is one immutable, content-addressed entry: its source
// expression (hashed in normalized form) is never mutated once stored, only
// superseded by a new hash when a name is rebound (spec.md §4.4, invariant
// I1/I2).
type Definition struct {
	Hash    hashing.Hash
	Source  lang.Expr // as originally parsed (spans intact, for diagnostics)
	Deps    []lang.Ident
	DepHash map[lang.Ident]hashing.Hash
}

// Store is the in-memory (optionally sqlite-backed, see sqlite.go) content-
// addressed database: definitions indexed by hash, names bound to hashes.
type Store struct {
	mu    sync.RWMutex
	defs  map[hashing.Hash]*Definition
	names map[lang.Ident]hashing.Hash

	// dependents is the reverse-edge index (spec.md §4.4's `dependents`
	// operation): hash -> set of hashes that depend on it.
	dependents map[hashing.Hash]map[hashing.Hash]bool

	persist Persister // nil if running purely in-memory
}

// Persister is the storage backend contract sqlite.go implements; kept
// separate from Store so tests can run against a pure in-memory Store with
// no database file.
type Persister interface {
	SaveDefinition(d *Definition) error
	SaveName(name lang.Ident, h hashing.Hash) error
	LoadAll() (map[hashing.Hash]*Definition, map[lang.Ident]hashing.Hash, error)
	Close() error
}

// New builds an empty, purely in-memory Store.
func New() *Store {
	return &Store{
		defs:       map[hashing.Hash]*Definition{},
		names:      map[lang.Ident]hashing.Hash{},
		dependents: map[hashing.Hash]map[hashing.Hash]bool{},
	}
}

// Open builds a Store backed by p, loading any previously persisted
// definitions and names.
func Open(p Persister) (*Store, error) {
	s := New()
	s.persist = p
	defs, names, err := p.LoadAll()
	if err != nil {
		return nil, err
	}
	s.defs = defs
	s.names = names
	for h, d := range defs {
		for _, depHash := range d.DepHash {
			s.addDependent(depHash, h)
		}
	}
	return s, nil
}

func (s *Store) addDependent(dep, of hashing.Hash) {
	set, ok := s.dependents[dep]
	if !ok {
		set = map[hashing.Hash]bool{}
		s.dependents[dep] = set
	}
	set[of] = true
}

// Put normalizes and hashes e, resolving its free names against the current
// namespace, and stores the resulting Definition if not already present
// (content addressing means re-putting identical code is a no-op hash-wise,
// spec.md §4.2 invariant I1).
func (s *Store) Put(e lang.Expr) (hashing.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deps := hashing.Dependencies(e)
	depHash := map[lang.Ident]hashing.Hash{}
	for _, name := range deps {
		if hashing.BuiltinNames[string(name)] {
			continue
		}
		h, ok := s.names[name]
		if !ok {
			return "", fmt.Errorf("codebase.Put: unresolved dependency %q", name)
		}
		depHash[name] = h
	}

	h := hashing.Compute(e, depHash)
	if _, exists := s.defs[h]; exists {
		return h, nil
	}

	d := &Definition{Hash: h, Source: e, Deps: deps, DepHash: depHash}
	s.defs[h] = d
	for _, dh := range depHash {
		s.addDependent(dh, h)
	}
	if s.persist != nil {
		if err := s.persist.SaveDefinition(d); err != nil {
			return "", err
		}
	}
	return h, nil
}


// Bind assigns name to h in the current namespace (spec.md §4.4's `bind`
// operation), overwriting any previous binding. This is the only mutable
// operation in the store; the content it points at is still immutable.
func (s *Store) Bind(name lang.Ident, h hashing.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[h]; !ok {
		return fmt.Errorf("codebase.Bind: no definition with hash %s", h)
	}
	s.names[name] = h
	if s.persist != nil {
		return s.persist.SaveName(name, h)
	}
	return nil
}

// Resolve looks up the hash a name is currently bound to.
func (s *Store) Resolve(name lang.Ident) (hashing.Hash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.names[name]
	return h, ok
}

// ResolvePrefix resolves a #hexprefix HashRef against every known hash,
// returning an error if the prefix is ambiguous (spec.md §3).
func (s *Store) ResolvePrefix(prefix string) (hashing.Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []hashing.Hash
	for h := range s.defs {
		if h.Prefix(prefix) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no definition matches hash prefix %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("hash prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

// Get returns the Definition stored under h.
func (s *Store) Get(h hashing.Hash) (*Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.defs[h]
	return d, ok
}

// Deps returns the dependency hashes of the definition at h, in sorted
// identifier order (spec.md §4.4's `deps` operation).
func (s *Store) Deps(h hashing.Hash) []hashing.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.defs[h]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(d.DepHash))
	for n := range d.DepHash {
		names = append(names, string(n))
	}
	sort.Strings(names)
	out := make([]hashing.Hash, len(names))
	for i, n := range names {
		out[i] = d.DepHash[lang.Ident(n)]
	}
	return out
}

// Dependents returns every hash that directly depends on h (spec.md §4.4's
// `dependents` operation, used before a rebind to warn about impact).
func (s *Store) Dependents(h hashing.Hash) []hashing.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.dependents[h]
	out := make([]hashing.Hash, 0, len(set))
	for dh := range set {
		out = append(out, dh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Names returns every currently bound name, sorted.
func (s *Store) Names() []lang.Ident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]lang.Ident, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Close releases the persistence backend, if any.
func (s *Store) Close() error {
	if s.persist != nil {
		return s.persist.Close()
	}
	return nil
}
