package infer

import "github.com/vibe-lang/vibe/internal/lang"

// instantiate replaces a scheme's quantified type/row variables with fresh
// ones, the standard Algorithm W "each use gets its own copy" step.
func (c *Checker) instantiate(s lang.Scheme) lang.Type {
	subst := lang.NewSubst()
	for _, v := range s.TypeVars {
		subst.Types[v] = c.freshTypeVar()
	}
	for _, v := range s.RowVars {
		subst.Rows[v] = lang.Row{Tail: c.freshRowVar()}
	}
	return s.Type.Apply(subst)
}

// generalize closes over every type/row variable free in t/row but not free
// in ctx, applying spec.md §4.3's effect value restriction: a binding is
// generalized at all — both its type variables and its row variables — only
// when its own inferred row is empty (Pure) at generalization time. A
// binding with a concrete non-empty effect row is left fully monomorphic:
// none of its free type variables are quantified, so every use of it shares
// the one inferred type rather than unsoundly instantiating it afresh at
// each call site (the classic value-restriction hazard, here triggered by
// effects rather than mutable references).
func (c *Checker) generalize(ctx context, t lang.Type, row lang.Row) lang.Scheme {
	bound := map[string]bool{}
	for _, scheme := range ctx {
		for _, v := range freeInScheme(scheme) {
			bound[v] = true
		}
	}
	var typeVars, rowVars []string
	if row.IsPure() {
		for _, v := range t.FreeTypeVars() {
			if !bound[v] {
				typeVars = append(typeVars, v)
			}
		}
		for _, v := range t.FreeRowVars() {
			if !bound[v] {
				rowVars = append(rowVars, v)
			}
		}
	}
	return lang.Scheme{TypeVars: uniqStrs(typeVars), RowVars: uniqStrs(rowVars), Type: t, Row: row}
}

func freeInScheme(s lang.Scheme) []string {
	bound := map[string]bool{}
	for _, v := range s.TypeVars {
		bound[v] = true
	}
	for _, v := range s.RowVars {
		bound[v] = true
	}
	var out []string
	for _, v := range s.Type.FreeTypeVars() {
		if !bound[v] {
			out = append(out, v)
		}
	}
	for _, v := range s.Type.FreeRowVars() {
		if !bound[v] {
			out = append(out, v)
		}
	}
	return out
}

func uniqStrs(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
