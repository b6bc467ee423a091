package hashing

import (
	"testing"

	"github.com/vibe-lang/vibe/internal/lang"
)

func lambdaIdent(param lang.Ident) lang.Expr {
	return lang.NewLambda(lang.Zero, param, lang.NewApply(lang.Zero,
		lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "(*)"), lang.NewVar(lang.Zero, param)),
		lang.NewIntLit(lang.Zero, 2)))
}

func TestComputeIsAlphaInvariant(t *testing.T) {
	f := lambdaIdent("x")
	g := lambdaIdent("y")
	if Compute(f, nil) != Compute(g, nil) {
		t.Fatal("alpha-equivalent lambdas must hash identically")
	}
}

func TestComputeDiffersOnStructure(t *testing.T) {
	a := lang.NewIntLit(lang.Zero, 1)
	b := lang.NewIntLit(lang.Zero, 2)
	if Compute(a, nil) == Compute(b, nil) {
		t.Fatal("distinct literals must hash differently")
	}
}

func TestComputeDependsOnDependencyHashes(t *testing.T) {
	e := lang.NewVar(lang.Zero, "double")
	h1 := Compute(e, map[lang.Ident]Hash{"double": "aaa"})
	h2 := Compute(e, map[lang.Ident]Hash{"double": "bbb"})
	if h1 == h2 {
		t.Fatal("changing a dependency's hash must change the definition's hash")
	}
}

func TestComputeIgnoresSpans(t *testing.T) {
	sp := lang.NewSpan("f.knot", 1, 1, 1, 5)
	a := lang.IntLit{Value: 7}
	b := lang.NewIntLit(sp, 7)
	if Compute(a, nil) != Compute(b, nil) {
		t.Fatal("source spans must not affect the content hash")
	}
}

func TestComputePanicsOnUnresolvedDependency(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("want a panic for an unresolved free name")
		}
	}()
	Compute(lang.NewVar(lang.Zero, "missing"), map[lang.Ident]Hash{})
}

func TestDependenciesSortedAndDeduped(t *testing.T) {
	e := lang.NewApply(lang.Zero,
		lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "b"), lang.NewVar(lang.Zero, "a")),
		lang.NewVar(lang.Zero, "a"))
	deps := Dependencies(e)
	if len(deps) != 2 || deps[0] != "a" || deps[1] != "b" {
		t.Fatalf("want sorted deduped [a b], got %v", deps)
	}
}

func recLength(name lang.Ident) lang.Expr {
	// let rec <name> xs = match xs { [] -> 0; h :: t -> 1 + <name> t }
	body := lang.NewMatch(lang.Zero, lang.NewVar(lang.Zero, "xs"), []lang.MatchArm{
		{Pattern: lang.NewPNil(lang.Zero), Body: lang.NewIntLit(lang.Zero, 0)},
		{
			Pattern: lang.NewPCons(lang.Zero, lang.NewPVar(lang.Zero, "h"), lang.NewPVar(lang.Zero, "t")),
			Body: lang.NewApply(lang.Zero,
				lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "(+)"), lang.NewIntLit(lang.Zero, 1)),
				lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, name), lang.NewVar(lang.Zero, "t"))),
		},
	})
	lambda := lang.NewLambda(lang.Zero, "xs", body)
	return lang.NewLet(lang.Zero, name, nil, nil, true, lambda)
}

func TestComputeRecursiveTopLevelLetIgnoresOwnName(t *testing.T) {
	// a top-level `let rec` whose body refers to its own name must not
	// treat that name as an external dependency, and must hash the same
	// regardless of what the recursive binding is named.
	length := recLength("length")
	count := recLength("count")
	if Compute(length, nil) != Compute(count, nil) {
		t.Fatal("alpha-equivalent recursive lets must hash identically regardless of name")
	}
}

func TestDependenciesExcludesRecursiveSelfReference(t *testing.T) {
	e := recLength("length")
	deps := Dependencies(e)
	for _, d := range deps {
		if d == "length" {
			t.Fatalf("want the recursive let's own name excluded from dependencies, got %v", deps)
		}
	}
}

func TestComputeIsIndependentOfDependencyAliasName(t *testing.T) {
	// spec.md §4.2, Testable Property 1: two definitions that reference the
	// same dependency hash under different local alias names must hash
	// identically — Normalize substitutes a DepRef keyed to the dependency's
	// hash, never to the alias spelling it.
	viaFoo := lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "foo"), lang.NewIntLit(lang.Zero, 1))
	viaBar := lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "bar"), lang.NewIntLit(lang.Zero, 1))
	h1 := Compute(viaFoo, map[lang.Ident]Hash{"foo": "deadbeef"})
	h2 := Compute(viaBar, map[lang.Ident]Hash{"bar": "deadbeef"})
	if h1 != h2 {
		t.Fatal("referencing the same dependency hash under a different local alias must not change the hash")
	}
}

func TestHashPrefixAndShort(t *testing.T) {
	h := Hash("a1b2c3d4e5f6")
	if !h.Prefix("a1b2") {
		t.Fatal("want Prefix to match a leading substring")
	}
	if h.Prefix("zz") {
		t.Fatal("want Prefix to reject a non-matching substring")
	}
	if h.Short(4) != "a1b2" {
		t.Fatalf("want short hash a1b2, got %s", h.Short(4))
	}
}
