// Package hashing implements content-addressing (spec.md §4.2): normalizing
// a definition's AST to a canonical, span-free, alpha-renamed form and
// hashing that form together with its ordered dependency hashes.
//
// Grounded on the teacher's internal/ext/cache.go, whose computeKey hashes a
// canonicalized representation of a value plus its declared dependencies to
// produce a stable cache key; normalize.go generalizes that canonicalization
// from "config value" to "source expression".
package hashing

import (
	"fmt"
	"sort"

	"github.com/vibe-lang/vibe/internal/lang"
)

// Normalize returns a copy of e with source spans erased, every bound
// variable renamed to a positional de Bruijn-style name, and every free
// identifier replaced by a DepRef keyed to that dependency's position in e's
// sorted, deduplicated dependency-hash list — so that two alpha-equivalent
// definitions normalize identically (spec.md §4.2, invariant I1: hash
// depends only on normalized AST + ordered dependency hashes, never on
// names, spans, or comments) even when they reference the same dependency
// under different local aliases. depEnv maps every free identifier e can
// reference to the hash it currently resolves to (codebase.Store.Put's
// resolved dependency set).
func Normalize(e lang.Expr, depEnv map[lang.Ident]Hash) lang.Expr {
	deps := sortedDeps(lang.FreeIdents(e), depEnv)
	depIndex := make(map[Hash]int, len(deps))
	for i, h := range deps {
		depIndex[h] = i
	}

	n := &normalizer{scope: map[lang.Ident]string{}, depEnv: depEnv, depIndex: depIndex}
	return n.expr(e)
}

// sortedDeps collects the distinct hashes free resolves to through depEnv,
// in sorted order — sorted by hash, never by the local alias name, so the
// result (and therefore the DepRef indices and Compute's appended dep list
// built from it) never depends on which alias spells a given dependency.
func sortedDeps(free []lang.Ident, depEnv map[lang.Ident]Hash) []Hash {
	seen := map[Hash]bool{}
	for _, name := range free {
		if h, ok := depEnv[name]; ok {
			seen[h] = true
		}
	}
	deps := make([]Hash, 0, len(seen))
	for h := range seen {
		deps = append(deps, h)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
	return deps
}

type normalizer struct {
	scope    map[lang.Ident]string
	depth    int
	pending  []func()
	depEnv   map[lang.Ident]Hash
	depIndex map[Hash]int
}

func (n *normalizer) fresh(name lang.Ident) (string, func()) {
	label := fmt.Sprintf("_%d", n.depth)
	n.depth++
	prev, had := n.scope[name]
	n.scope[name] = label
	restore := func() {
		if had {
			n.scope[name] = prev
		} else {
			delete(n.scope, name)
		}
	}
	n.pending = append(n.pending, restore)
	return label, restore
}

// bindPattern normalizes p, binding every variable it introduces, and
// returns a single restore closure that undoes all of them (in reverse
// order) once the pattern's scope (a match arm body, typically) is done.
func (n *normalizer) bindPattern(p lang.Pattern) (lang.Pattern, func()) {
	mark := len(n.pending)
	out := n.pattern(p)
	added := append([]func(){}, n.pending[mark:]...)
	n.pending = n.pending[:mark]
	return out, func() {
		for i := len(added) - 1; i >= 0; i-- {
			added[i]()
		}
	}
}

// resolve renames a bound variable to its positional label, or, for a free
// reference, substitutes a DepRef keyed to the dependency's hash-sorted
// index so the hash never depends on the local alias spelling it.
func (n *normalizer) resolve(name lang.Ident) lang.Expr {
	if label, ok := n.scope[name]; ok {
		return lang.NewVar(lang.Zero, lang.Ident(label))
	}
	if h, ok := n.depEnv[name]; ok {
		return lang.NewDepRef(lang.Zero, n.depIndex[h])
	}
	// unresolved free name (e.g. a builtin like "(+)" with no codebase
	// entry): leave as a literal Var, consistent with Compute's existing
	// panic-on-unresolved-dependency contract for anything that should have
	// been in depEnv.
	return lang.NewVar(lang.Zero, name)
}

func (n *normalizer) expr(e lang.Expr) lang.Expr {
	switch ex := e.(type) {
	case lang.IntLit:
		return lang.NewIntLit(lang.Zero, ex.Value)
	case lang.FloatLit:
		return lang.NewFloatLit(lang.Zero, ex.Value)
	case lang.BoolLit:
		return lang.NewBoolLit(lang.Zero, ex.Value)
	case lang.StringLit:
		return lang.NewStringLit(lang.Zero, ex.Value)
	case lang.UnitLit:
		return lang.NewUnitLit(lang.Zero)
	case lang.Var:
		return n.resolve(ex.Name)
	case lang.QualifiedVar:
		return lang.NewQualifiedVar(lang.Zero, ex.Path)
	case lang.HashRef:
		return lang.NewHashRef(lang.Zero, ex.Prefix)
	case lang.Lambda:
		label, restore := n.fresh(ex.Param)
		body := n.expr(ex.Body)
		restore()
		return lang.NewLambda(lang.Zero, lang.Ident(label), body)
	case lang.Apply:
		return lang.NewApply(lang.Zero, n.expr(ex.Fn), n.expr(ex.Arg))
	case lang.LetIn:
		if ex.Recursive {
			label, restore := n.fresh(ex.Name)
			value := n.expr(ex.Value)
			body := n.expr(ex.Body)
			restore()
			return lang.NewLetIn(lang.Zero, lang.Ident(label), nil, true, value, body)
		}
		value := n.expr(ex.Value)
		label, restore := n.fresh(ex.Name)
		body := n.expr(ex.Body)
		restore()
		return lang.NewLetIn(lang.Zero, lang.Ident(label), nil, false, value, body)
	case lang.Let:
		if ex.Pattern != nil {
			return lang.NewLet(lang.Zero, "", n.pattern(ex.Pattern), nil, ex.Recursive, n.expr(ex.Value))
		}
		if ex.Recursive {
			label, restore := n.fresh(ex.Name)
			value := n.expr(ex.Value)
			restore()
			return lang.NewLet(lang.Zero, lang.Ident(label), nil, nil, true, value)
		}
		// a non-recursive top-level let's bound name never appears free in
		// its own value, so the name carries no content: normalize to the
		// value alone, keeping the hash name-independent (spec.md §4.2 I2).
		return n.expr(ex.Value)
	case lang.If:
		return lang.NewIf(lang.Zero, n.expr(ex.Cond), n.expr(ex.Then), n.expr(ex.Else))
	case lang.Match:
		scrut := n.expr(ex.Scrutinee)
		arms := make([]lang.MatchArm, len(ex.Arms))
		for i, arm := range ex.Arms {
			pat, restore := n.bindPattern(arm.Pattern)
			body := n.expr(arm.Body)
			restore()
			arms[i] = lang.MatchArm{Pattern: pat, Body: body}
		}
		return lang.NewMatch(lang.Zero, scrut, arms)
	case lang.ListLit:
		elems := make([]lang.Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = n.expr(el)
		}
		return lang.NewListLit(lang.Zero, elems)
	case lang.Cons:
		return lang.NewCons(lang.Zero, n.expr(ex.Head), n.expr(ex.Tail))
	case lang.RecordLit:
		fields := append([]lang.RecordField{}, ex.Fields...)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		for i := range fields {
			fields[i].Value = n.expr(fields[i].Value)
		}
		return lang.NewRecordLit(lang.Zero, fields)
	case lang.FieldAccess:
		return lang.NewFieldAccess(lang.Zero, n.expr(ex.Record), ex.Field)
	case lang.RecordUpdate:
		fields := append([]lang.RecordField{}, ex.Fields...)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		for i := range fields {
			fields[i].Value = n.expr(fields[i].Value)
		}
		return lang.NewRecordUpdate(lang.Zero, n.expr(ex.Record), fields)
	case lang.ConstructorApp:
		args := make([]lang.Expr, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = n.expr(a)
		}
		return lang.NewConstructorApp(lang.Zero, ex.Name, args)
	case lang.TypeDef:
		return lang.NewTypeDef(lang.Zero, ex.Name, ex.TypeParams, ex.Constructors)
	case lang.ModuleDef:
		bindings := make([]lang.Expr, len(ex.Bindings))
		for i, b := range ex.Bindings {
			bindings[i] = n.expr(b)
		}
		return lang.NewModuleDef(lang.Zero, ex.Name, bindings, ex.Exports)
	case lang.Import:
		return lang.NewImport(lang.Zero, ex.Path, ex.Alias, ex.Hash)
	case lang.Perform:
		args := make([]lang.Expr, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = n.expr(a)
		}
		return lang.NewPerform(lang.Zero, ex.Effect, ex.Op, args)
	case lang.Handle:
		arms := make([]lang.HandleArm, len(ex.Arms))
		for i, arm := range ex.Arms {
			labels := make([]lang.Ident, len(arm.Params))
			restores := make([]func(), len(arm.Params))
			for j, p := range arm.Params {
				label, restore := n.fresh(p)
				labels[j] = lang.Ident(label)
				restores[j] = restore
			}
			contLabel, contRestore := n.fresh(arm.Continuation)
			body := n.expr(arm.Body)
			contRestore()
			for j := len(restores) - 1; j >= 0; j-- {
				restores[j]()
			}
			arms[i] = lang.HandleArm{Effect: arm.Effect, Op: arm.Op, Params: labels, Continuation: lang.Ident(contLabel), Body: body}
		}
		return lang.NewHandle(lang.Zero, n.expr(ex.Body), arms)
	default:
		return e
	}
}

func (n *normalizer) pattern(p lang.Pattern) lang.Pattern {
	switch pt := p.(type) {
	case lang.PVar:
		label, _ := n.fresh(pt.Name)
		return lang.NewPVar(lang.Zero, lang.Ident(label))
	case lang.PLiteral:
		return lang.NewPLiteral(lang.Zero, n.expr(pt.Value))
	case lang.PCons:
		return lang.NewPCons(lang.Zero, n.pattern(pt.Head), n.pattern(pt.Tail))
	case lang.PList:
		elems := make([]lang.Pattern, len(pt.Elems))
		for i, e := range pt.Elems {
			elems[i] = n.pattern(e)
		}
		var rest *lang.Ident
		if pt.Rest != nil {
			label, _ := n.fresh(*pt.Rest)
			r := lang.Ident(label)
			rest = &r
		}
		return lang.NewPList(lang.Zero, elems, rest)
	case lang.PConstructor:
		args := make([]lang.Pattern, len(pt.Args))
		for i, a := range pt.Args {
			args[i] = n.pattern(a)
		}
		return lang.NewPConstructor(lang.Zero, pt.Name, args)
	case lang.PRecord:
		fields := append([]lang.PatternField{}, pt.Fields...)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		for i := range fields {
			fields[i].Pattern = n.pattern(fields[i].Pattern)
		}
		return lang.NewPRecord(lang.Zero, fields)
	case lang.PAs:
		inner := n.pattern(pt.Inner)
		label, _ := n.fresh(pt.Name)
		return lang.NewPAs(lang.Zero, inner, lang.Ident(label))
	default:
		return p
	}
}
