package query

import (
	"context"
	"errors"
	"testing"

	"github.com/vibe-lang/vibe/internal/codebase"
	"github.com/vibe-lang/vibe/internal/lang"
)

func TestCacheComputesOnceAndMemoizes(t *testing.T) {
	c := NewCache[string, int]()
	calls := 0
	compute := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		v, err := c.Get(ctx, "k", compute)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if v != 42 {
			t.Fatalf("want 42, got %d", v)
		}
	}
	if calls != 1 {
		t.Fatalf("want compute invoked once, got %d", calls)
	}
}

func TestCacheInvalidateRecomputes(t *testing.T) {
	c := NewCache[string, int]()
	calls := 0
	compute := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}
	ctx := context.Background()
	v1, _ := c.Get(ctx, "k", compute)
	c.Invalidate("k")
	v2, _ := c.Get(ctx, "k", compute)
	if v1 == v2 {
		t.Fatal("want a fresh computation after Invalidate")
	}
	if calls != 2 {
		t.Fatalf("want 2 computations, got %d", calls)
	}
}

func TestCachePropagatesComputeError(t *testing.T) {
	c := NewCache[string, int]()
	wantErr := errors.New("boom")
	_, err := c.Get(context.Background(), "k", func(context.Context) (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("want %v, got %v", wantErr, err)
	}
}

func TestEngineInferAndEvalHashAreMemoized(t *testing.T) {
	// spec.md §8 invariant 7 (cache correctness): evaluating a pure
	// definition through the cached engine must match direct evaluation, and
	// a second EvalHash for the same hash must hit the memoized result.
	store := codebase.New()
	e := NewEngine(store)
	ctx := context.Background()

	h, err := store.Put(lang.NewIntLit(lang.Zero, 7))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	res1, err := e.EvalHash(ctx, h)
	if err != nil {
		t.Fatalf("EvalHash: %v", err)
	}
	if res1.Value.String() != "7" {
		t.Fatalf("want 7, got %s", res1.Value.String())
	}
	res2, err := e.EvalHash(ctx, h)
	if err != nil {
		t.Fatalf("EvalHash: %v", err)
	}
	if res2.Value.String() != res1.Value.String() {
		t.Fatalf("memoized result changed between calls")
	}
	if e.evalCache.Len() != 1 {
		t.Fatalf("want exactly one memoized eval entry, got %d", e.evalCache.Len())
	}
}

func TestEngineInferHashResolvesDependencies(t *testing.T) {
	store := codebase.New()
	e := NewEngine(store)
	ctx := context.Background()

	base, err := store.Put(lang.NewIntLit(lang.Zero, 1))
	if err != nil {
		t.Fatalf("Put base: %v", err)
	}
	if err := store.Bind("base", base); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	dependent, err := store.Put(lang.NewVar(lang.Zero, "base"))
	if err != nil {
		t.Fatalf("Put dependent: %v", err)
	}

	res, err := e.InferHash(ctx, dependent)
	if err != nil {
		t.Fatalf("InferHash: %v", err)
	}
	if res.Scheme.Type.String() != "Int" {
		t.Fatalf("want Int, got %s", res.Scheme.Type.String())
	}
}

func TestEngineEvalHashHandlesTopLevelRecursiveLet(t *testing.T) {
	// a top-level `let rec length xs = ...` staged and evaluated straight
	// through the store/engine, the same path cmd/knot's `run` subcommand
	// takes, must resolve its own recursive call.
	store := codebase.New()
	e := NewEngine(store)
	ctx := context.Background()

	body := lang.NewMatch(lang.Zero, lang.NewVar(lang.Zero, "xs"), []lang.MatchArm{
		{Pattern: lang.NewPNil(lang.Zero), Body: lang.NewIntLit(lang.Zero, 0)},
		{
			Pattern: lang.NewPCons(lang.Zero, lang.NewPVar(lang.Zero, "h"), lang.NewPVar(lang.Zero, "t")),
			Body: lang.NewApply(lang.Zero,
				lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "(+)"), lang.NewIntLit(lang.Zero, 1)),
				lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "length"), lang.NewVar(lang.Zero, "t"))),
		},
	})
	let := lang.NewLet(lang.Zero, "length", nil, nil, true, lang.NewLambda(lang.Zero, "xs", body))

	h, err := store.Put(let)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Bind("length", h); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	list := lang.NewListLit(lang.Zero, []lang.Expr{
		lang.NewIntLit(lang.Zero, 10), lang.NewIntLit(lang.Zero, 20), lang.NewIntLit(lang.Zero, 30),
	})
	call, err := store.Put(lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "length"), list))
	if err != nil {
		t.Fatalf("Put call: %v", err)
	}

	res, err := e.EvalHash(ctx, call)
	if err != nil {
		t.Fatalf("EvalHash: %v", err)
	}
	if res.Err != nil {
		t.Fatalf("eval error: %v", res.Err)
	}
	if res.Value.String() != "3" {
		t.Fatalf("want 3, got %s", res.Value.String())
	}
}

func TestEngineEvalHashSkipsCacheForEffectfulDefinition(t *testing.T) {
	// spec.md §4.5: a definition is memoized on hash only when its inferred
	// effect row is empty; an effectful definition (here, one that performs
	// IO.print) must recompute on every call rather than replay a stale
	// value, so it actually re-performs its effect each time.
	store := codebase.New()
	e := NewEngine(store)
	ctx := context.Background()

	perform := lang.NewPerform(lang.Zero, "IO", "print", []lang.Expr{lang.NewStringLit(lang.Zero, "hi")})
	h, err := store.Put(perform)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, err := e.EvalHash(ctx, h); err != nil {
		t.Fatalf("EvalHash: %v", err)
	}
	if e.evalCache.Len() != 0 {
		t.Fatalf("want an effectful definition never memoized, got %d cache entries", e.evalCache.Len())
	}
	if _, err := e.EvalHash(ctx, h); err != nil {
		t.Fatalf("second EvalHash: %v", err)
	}
	if e.evalCache.Len() != 0 {
		t.Fatalf("want cache still empty after a second call, got %d", e.evalCache.Len())
	}
}

func TestInvalidateNameDropsBothCaches(t *testing.T) {
	store := codebase.New()
	e := NewEngine(store)
	ctx := context.Background()

	h, _ := store.Put(lang.NewIntLit(lang.Zero, 1))
	if _, err := e.EvalHash(ctx, h); err != nil {
		t.Fatalf("EvalHash: %v", err)
	}
	if _, err := e.InferHash(ctx, h); err != nil {
		t.Fatalf("InferHash: %v", err)
	}
	e.InvalidateName(h)
	if e.evalCache.Len() != 0 || e.inferCache.Len() != 0 {
		t.Fatal("want InvalidateName to drop both caches")
	}
}
