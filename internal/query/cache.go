package query

import (
	"context"

	"github.com/vibe-lang/vibe/internal/codebase"
	"github.com/vibe-lang/vibe/internal/diag"
	"github.com/vibe-lang/vibe/internal/eval"
	"github.com/vibe-lang/vibe/internal/hashing"
	"github.com/vibe-lang/vibe/internal/infer"
	"github.com/vibe-lang/vibe/internal/lang"
)

// InferResult is the memoized output of type/effect inference on a
// definition: either a Scheme or a non-empty diagnostic list, never both
// (spec.md §4.3).
type InferResult struct {
	Scheme lang.Scheme
	Diags  []*diag.Error
}

// EvalResult is the memoized output of evaluating a definition to a value.
type EvalResult struct {
	Value eval.Object
	Err   error
}

// Engine bundles the per-kind caches and the dependencies (store, type
// environment, interpreter) every query needs to compute a fresh result on
// a cache miss.
type Engine struct {
	Store   *codebase.Store
	Infer   *infer.Checker
	Interp  *eval.Interpreter
	Globals *eval.Env

	inferCache *Cache[hashing.Hash, InferResult]
	evalCache  *Cache[hashing.Hash, EvalResult]
}

// NewEngine builds a query Engine over store, wiring a fresh type checker
// and interpreter.
func NewEngine(store *codebase.Store) *Engine {
	it := eval.NewInterpreter()
	return &Engine{
		Store:      store,
		Infer:      infer.NewChecker(),
		Interp:     it,
		Globals:    it.GlobalEnv(),
		inferCache: NewCache[hashing.Hash, InferResult](),
		evalCache:  NewCache[hashing.Hash, EvalResult](),
	}
}

// Infer type/effect-checks the definition at h, memoized by hash.
func (e *Engine) InferHash(ctx context.Context, h hashing.Hash) (InferResult, error) {
	return e.inferCache.Get(ctx, h, func(ctx context.Context) (InferResult, error) {
		def, ok := e.Store.Get(h)
		if !ok {
			return InferResult{}, nil
		}
		depSchemes := map[lang.Ident]lang.Scheme{}
		for name, depHash := range def.DepHash {
			r, err := e.InferHash(ctx, depHash)
			if err != nil {
				return InferResult{}, err
			}
			depSchemes[name] = r.Scheme
		}
		scheme, diags := e.Infer.InferTop(def.Source, depSchemes)
		return InferResult{Scheme: scheme, Diags: diags}, nil
	})
}

// EvalHash evaluates the definition at h to a value, memoized by hash only
// when the definition's inferred effect row is empty (spec.md §4.5:
// "memoized on hash, provided the definition has effect row = ∅; effectful
// definitions are not cached"). An effectful definition (e.g. one that
// performs IO) always recomputes, so it actually re-performs its effect on
// every query rather than replaying a stale memoized value.
func (e *Engine) EvalHash(ctx context.Context, h hashing.Hash) (EvalResult, error) {
	compute := func(ctx context.Context) (EvalResult, error) {
		def, ok := e.Store.Get(h)
		if !ok {
			return EvalResult{}, nil
		}
		env := e.Globals
		for name, depHash := range def.DepHash {
			r, err := e.EvalHash(ctx, depHash)
			if err != nil {
				return EvalResult{}, err
			}
			if r.Err != nil {
				return EvalResult{Err: r.Err}, nil
			}
			env = env.Extend(string(name), r.Value)
		}
		v, err := e.Interp.Eval(ctx, env, stripBindingForm(def.Source))
		return EvalResult{Value: v, Err: err}, nil
	}

	inf, err := e.InferHash(ctx, h)
	if err != nil {
		return EvalResult{}, err
	}
	if !inf.Scheme.Row.IsPure() {
		return compute(ctx)
	}
	return e.evalCache.Get(ctx, h, compute)
}

// stripBindingForm unwraps a non-recursive top-level Let to its value
// expression, since the query layer evaluates *values*, not statements (a
// top-level Let's "body" is the rest of the program, which the workspace —
// not the query engine — threads together). A recursive Let is passed
// through as-is: its Value needs the Let's own Recursive flag and Name
// still attached so the evaluator can bind the name to itself before
// evaluating the body (see eval.Interpreter's lang.Let case).
func stripBindingForm(e lang.Expr) lang.Expr {
	if let, ok := e.(lang.Let); ok && !let.Recursive {
		return let.Value
	}
	return e
}

// InvalidateName drops any cached result keyed by a hash that name used to
// be bound to, called by Workspace.Commit (spec.md §4.7) for every name it
// rebinds; Revert calls nothing here. The hash's own result stays valid (content addressing);
// only the *name*-relative views a caller might hold are suspect.
func (e *Engine) InvalidateName(h hashing.Hash) {
	e.inferCache.Invalidate(h)
	e.evalCache.Invalidate(h)
}
