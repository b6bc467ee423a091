package codebase

import (
	"sort"
	"strings"

	"github.com/vibe-lang/vibe/internal/hashing"
	"github.com/vibe-lang/vibe/internal/lang"
)

// QueryKind selects which facet of a definition Search matches against:
// bound name, AST predicate, or direct dependency. There is no search by
// type structure.
type QueryKind int

const (
	ByName QueryKind = iota
	ByDependency
	ByPredicate
)

// Query describes one search request.
type Query struct {
	Kind      QueryKind
	NameLike  string                  // ByName: substring match
	DependsOn hashing.Hash            // ByDependency: definitions depending (directly) on this hash
	Predicate func(lang.Expr) bool    // ByPredicate: arbitrary AST predicate, evaluated via lang.WalkExpr
}

// Result pairs a matching definition with the (possibly empty, if
// unbound/anonymous) name it's reachable under.
type Result struct {
	Name lang.Ident
	Hash hashing.Hash
	Def  *Definition
}

// Search runs q against every definition in s, returning matches sorted by
// hash for determinism.
func (s *Store) Search(q Query) []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nameOf := map[hashing.Hash]lang.Ident{}
	for name, h := range s.names {
		nameOf[h] = name
	}

	var out []Result
	for h, d := range s.defs {
		if !matches(q, h, d) {
			continue
		}
		if q.Kind == ByName && !strings.Contains(string(nameOf[h]), q.NameLike) {
			continue
		}
		out = append(out, Result{Name: nameOf[h], Hash: h, Def: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

func matches(q Query, h hashing.Hash, d *Definition) bool {
	switch q.Kind {
	case ByName:
		return true // Search filters by bound name; names live outside Definition
	case ByDependency:
		for _, dh := range d.DepHash {
			if dh == q.DependsOn {
				return true
			}
		}
		return false
	case ByPredicate:
		found := false
		lang.WalkExpr(d.Source, func(e lang.Expr) bool {
			if q.Predicate(e) {
				found = true
			}
			return !found
		})
		return found
	default:
		return false
	}
}

// SearchByName filters bound names by substring, returning them sorted.
func (s *Store) SearchByName(substr string) []lang.Ident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []lang.Ident
	for name := range s.names {
		if strings.Contains(string(name), substr) {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
