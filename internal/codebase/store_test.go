package codebase

import (
	"testing"

	"github.com/vibe-lang/vibe/internal/lang"
)

func TestPutIsContentAddressedNoOpOnRepeat(t *testing.T) {
	s := New()
	h1, err := s.Put(lang.NewIntLit(lang.Zero, 7))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	h2, err := s.Put(lang.NewIntLit(lang.Zero, 7))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("identical content must hash identically: %s != %s", h1, h2)
	}
}

func TestPutUnresolvedDependencyErrors(t *testing.T) {
	s := New()
	if _, err := s.Put(lang.NewVar(lang.Zero, "undefinedName")); err == nil {
		t.Fatal("want an error for a dependency with no binding")
	}
}

func TestPutSkipsBuiltinNames(t *testing.T) {
	s := New()
	expr := lang.NewApply(lang.Zero,
		lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "(+)"), lang.NewIntLit(lang.Zero, 1)),
		lang.NewIntLit(lang.Zero, 2))
	if _, err := s.Put(expr); err != nil {
		t.Fatalf("builtin operator must not require a binding: %v", err)
	}
}

func TestBindAndResolve(t *testing.T) {
	s := New()
	h, _ := s.Put(lang.NewIntLit(lang.Zero, 1))
	if err := s.Bind("x", h); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	got, ok := s.Resolve("x")
	if !ok || got != h {
		t.Fatalf("want x resolved to %s, got %s (ok=%v)", h, got, ok)
	}
}

func TestBindUnknownHashErrors(t *testing.T) {
	s := New()
	if err := s.Bind("x", "deadbeef"); err == nil {
		t.Fatal("want Bind to reject a hash with no stored definition")
	}
}

func TestContentAddressedStabilityAcrossNames(t *testing.T) {
	// spec.md §8 end-to-end scenario 5: structurally identical definitions
	// bound under different names resolve to the same hash.
	s := New()
	f := lang.NewLambda(lang.Zero, "x", lang.NewApply(lang.Zero,
		lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "(*)"), lang.NewVar(lang.Zero, "x")),
		lang.NewIntLit(lang.Zero, 2)))
	g := lang.NewLambda(lang.Zero, "y", lang.NewApply(lang.Zero,
		lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "(*)"), lang.NewVar(lang.Zero, "y")),
		lang.NewIntLit(lang.Zero, 2)))

	hf, _ := s.Put(f)
	hg, _ := s.Put(g)
	if err := s.Bind("f", hf); err != nil {
		t.Fatalf("Bind f: %v", err)
	}
	if err := s.Bind("g", hg); err != nil {
		t.Fatalf("Bind g: %v", err)
	}

	rf, _ := s.Resolve("f")
	rg, _ := s.Resolve("g")
	if rf != rg {
		t.Fatalf("alpha-equivalent definitions under different names must share a hash: %s != %s", rf, rg)
	}
}

func TestResolvePrefixAmbiguous(t *testing.T) {
	s := New()
	h1, _ := s.Put(lang.NewIntLit(lang.Zero, 1))
	h2, _ := s.Put(lang.NewIntLit(lang.Zero, 2))

	if _, err := s.ResolvePrefix(""); err == nil {
		t.Fatal("want an ambiguous-prefix error when every hash matches")
	}
	if _, err := s.ResolvePrefix(string(h1)); err != nil {
		t.Fatalf("a full hash must resolve unambiguously: %v", err)
	}
	if _, err := s.ResolvePrefix(string(h2)); err != nil {
		t.Fatalf("a full hash must resolve unambiguously: %v", err)
	}
}

func TestResolvePrefixNoMatch(t *testing.T) {
	s := New()
	if _, err := s.ResolvePrefix("ffffffff"); err == nil {
		t.Fatal("want an error when no hash matches the prefix")
	}
}

func TestDependentsTracksReverseEdges(t *testing.T) {
	s := New()
	base, _ := s.Put(lang.NewIntLit(lang.Zero, 1))
	if err := s.Bind("base", base); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	dependent, err := s.Put(lang.NewVar(lang.Zero, "base"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	deps := s.Dependents(base)
	found := false
	for _, d := range deps {
		if d == dependent {
			found = true
		}
	}
	if !found {
		t.Fatalf("want %s to be a dependent of %s, got %v", dependent, base, deps)
	}
}

func TestNamesSorted(t *testing.T) {
	s := New()
	h, _ := s.Put(lang.NewIntLit(lang.Zero, 1))
	_ = s.Bind("zebra", h)
	_ = s.Bind("apple", h)
	names := s.Names()
	if len(names) != 2 || names[0] != "apple" || names[1] != "zebra" {
		t.Fatalf("want sorted [apple zebra], got %v", names)
	}
}
