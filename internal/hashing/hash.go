package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/vibe-lang/vibe/internal/lang"
)

// Hash is a content hash: the hex-encoded SHA-256 digest of a definition's
// canonical form (spec.md §4.2, invariant I1). Kept as a distinct string
// type so it can't be confused with a plain name at call sites.
type Hash string

// Prefix reports whether h begins with p, used to resolve #abc HashRef
// references (spec.md §3) against the store.
func (h Hash) Prefix(p string) bool {
	return len(string(h)) >= len(p) && string(h)[:len(p)] == p
}

func (h Hash) String() string { return string(h) }

// BuiltinNames are the evaluator's globally-seeded operators/primitives
// (spec.md §3's operators are ambient, not user-defined bindings) — free
// references to them never resolve against the codebase store, so neither
// Compute nor codebase.Store.Put treats them as a dependency edge.
var BuiltinNames = map[string]bool{
	"(+)": true, "(-)": true, "(*)": true, "(/)": true, "(%)": true,
	"(<)": true, "(<=)": true, "(>)": true, "(>=)": true,
	"(==)": true, "(!=)": true, "(&&)": true, "(||)": true,
	"not": true, "neg": true, "head": true, "tail": true, "length": true,
	"isEmpty": true, "append": true, "reverse": true, "toString": true,
	"stringAppend": true, "grpcCall": true,
}

// Short returns the first n hex characters, the display form used by the
// CLI and REPL (spec.md §6).
func (h Hash) Short(n int) string {
	s := string(h)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Compute hashes e's normalized form together with the ordered, deduplicated
// hashes of its dependencies, exactly as spec.md §4.2 requires: the result
// depends only on normalized structure and the *hashes* dependencies resolve
// to, never on the dependencies' own names — every free reference to a
// dependency is replaced by a DepRef before hashing (see Normalize), and the
// appended dependency list here is ordered by hash rather than by local
// alias, so two definitions differing only in the alias names they use for
// identical dependencies hash identically. depsByName maps every non-builtin
// free identifier referenced by e to the hash it currently resolves to;
// Compute panics if such a name is missing, since the caller (codebase.Put)
// is expected to have resolved all non-builtin free names first.
func Compute(e lang.Expr, depsByName map[lang.Ident]Hash) Hash {
	norm := Normalize(e, depsByName)
	free := lang.FreeIdents(e)

	for _, name := range free {
		if BuiltinNames[string(name)] {
			continue
		}
		if _, ok := depsByName[name]; !ok {
			panic(fmt.Sprintf("hashing.Compute: unresolved free name %q", name))
		}
	}
	deps := sortedDeps(free, depsByName)

	h := sha256.New()
	fmt.Fprintf(h, "expr:%s\n", lang.Pretty(norm))
	for _, dep := range deps {
		fmt.Fprintf(h, "dep:%s\n", dep)
	}
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ComputeBytes hashes an opaque byte blob directly (used for hashing
// serialized type schemes and test artifacts where there is no Expr).
func ComputeBytes(b []byte) Hash {
	sum := sha256.Sum256(b)
	return Hash(hex.EncodeToString(sum[:]))
}

// Dependencies returns the ordered, deduplicated list of free identifiers
// e references — the dependency edges the codebase store records alongside
// a definition's hash (spec.md §4.4).
func Dependencies(e lang.Expr) []lang.Ident {
	free := lang.FreeIdents(e)
	sort.Slice(free, func(i, j int) bool { return free[i] < free[j] })
	return free
}
