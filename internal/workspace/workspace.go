// Package workspace implements the staged/committed session layer (spec.md
// §4.7, C7) sitting on top of internal/codebase's content-addressed store:
// a name resolved while editing may point at a hash the store itself has
// never been told to bind, until Commit makes it durable.
//
// Grounded on the teacher's internal/modules/loader.go: Loader.LoadedModules
// is a lazily-populated, memoize-once cache keyed by import path, with a
// Processing map guarding against circular loads. Workspace generalizes that
// same "cache of not-yet-durable resolutions" shape from "module path ->
// *Module" to "name -> staged hash", with Commit/Revert as the operations
// the teacher's loader never needed (a module, once loaded, is never staged
// or reverted — Knot's interactive edit/check/run loop needs both).
package workspace

import (
	"context"
	"fmt"
	"sort"

	"github.com/vibe-lang/vibe/internal/codebase"
	"github.com/vibe-lang/vibe/internal/hashing"
	"github.com/vibe-lang/vibe/internal/lang"
	"github.com/vibe-lang/vibe/internal/query"
)

// Workspace layers a staged name→hash map over a committed codebase.Store,
// so edits can be evaluated and type-checked before they're made durable.
type Workspace struct {
	Store  *codebase.Store
	Engine *query.Engine

	staged map[lang.Ident]hashing.Hash
}

// New builds a Workspace over store, with its own query Engine.
func New(store *codebase.Store) *Workspace {
	return &Workspace{
		Store:  store,
		Engine: query.NewEngine(store),
		staged: map[lang.Ident]hashing.Hash{},
	}
}

// Resolve looks a name up first in the staged map, falling back to the
// committed store — staged bindings shadow committed ones until Commit or
// Revert settles them.
func (w *Workspace) Resolve(name lang.Ident) (hashing.Hash, bool) {
	if h, ok := w.staged[name]; ok {
		return h, true
	}
	return w.Store.Resolve(name)
}

// Stage records e's content hash under name without touching the committed
// store. Returns the hash so the caller can immediately Infer/Eval it.
func (w *Workspace) Stage(name lang.Ident, e lang.Expr) (hashing.Hash, error) {
	h, err := w.Store.Put(e)
	if err != nil {
		return "", fmt.Errorf("workspace.Stage: %w", err)
	}
	w.staged[name] = h
	return h, nil
}

// StagedNames returns every name with a pending, uncommitted binding,
// sorted.
func (w *Workspace) StagedNames() []lang.Ident {
	out := make([]lang.Ident, 0, len(w.staged))
	for n := range w.staged {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Diff reports, for every staged name, the hash it would move from (the
// name's current committed hash, "" if previously unbound) and to (spec.md
// §4.7's workspace diff view). No CLI subcommand prints it.
type Diff struct {
	Name lang.Ident
	From hashing.Hash // "" if the name was previously unbound
	To   hashing.Hash
}

func (w *Workspace) Diff() []Diff {
	names := w.StagedNames()
	out := make([]Diff, 0, len(names))
	for _, n := range names {
		from, _ := w.Store.Resolve(n)
		out = append(out, Diff{Name: n, From: from, To: w.staged[n]})
	}
	return out
}

// Commit durably binds every staged name in the underlying store and clears
// the staged map. Invalidates the query Engine's per-hash caches for any
// name whose binding changed, since a cached result keyed by a hash is
// valid forever (spec.md §4.5) but a name now resolves to a different hash.
func (w *Workspace) Commit() error {
	for _, n := range w.StagedNames() {
		h := w.staged[n]
		if prev, ok := w.Store.Resolve(n); ok {
			w.Engine.InvalidateName(prev)
		}
		if err := w.Store.Bind(n, h); err != nil {
			return fmt.Errorf("workspace.Commit: %w", err)
		}
	}
	w.staged = map[lang.Ident]hashing.Hash{}
	return nil
}

// Revert drops every staged binding without affecting the committed store.
func (w *Workspace) Revert() {
	w.staged = map[lang.Ident]hashing.Hash{}
}

// Infer type/effect-checks the definition bound to name, resolving through
// staged bindings first.
func (w *Workspace) Infer(ctx context.Context, name lang.Ident) (query.InferResult, error) {
	h, ok := w.Resolve(name)
	if !ok {
		return query.InferResult{}, fmt.Errorf("workspace.Infer: undefined name %q", name)
	}
	return w.Engine.InferHash(ctx, h)
}

// Eval evaluates the definition bound to name, resolving through staged
// bindings first.
func (w *Workspace) Eval(ctx context.Context, name lang.Ident) (query.EvalResult, error) {
	h, ok := w.Resolve(name)
	if !ok {
		return query.EvalResult{}, fmt.Errorf("workspace.Eval: undefined name %q", name)
	}
	return w.Engine.EvalHash(ctx, h)
}
