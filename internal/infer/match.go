package infer

import (
	"github.com/vibe-lang/vibe/internal/diag"
	"github.com/vibe-lang/vibe/internal/lang"
)

// inferMatch infers a Match expression: the scrutinee's type/row, then each
// arm's pattern against that type (extending the arm's local context) and
// each arm's body, unifying every body's result type together. Also runs
// an exhaustiveness check (spec.md §4.3 / §8 property 9) that reports a
// warning, not an error, when a match over a known ADT doesn't cover every
// constructor and has no catch-all arm.
func (c *Checker) inferMatch(ctx context, m lang.Match) (lang.Type, lang.Row, lang.Subst, []*diag.Error) {
	scrutT, scrutRow, s, diags := c.infer(ctx, m.Scrutinee)
	if diag.HasErrors(diags) {
		return nil, lang.PureRow, s, diags
	}

	resultT := c.freshTypeVar()
	var resultRow lang.Row = scrutRow
	var resultType lang.Type = resultT
	first := true

	for _, arm := range m.Arms {
		armCtx, armSubst, d := c.inferPattern(applySubstCtx(ctx, s), arm.Pattern, scrutT.Apply(s))
		diags = append(diags, d...)
		s = s.Compose(armSubst)
		bodyT, bodyRow, s2, d2 := c.infer(applySubstCtx(armCtx, armSubst), arm.Body)
		diags = append(diags, d2...)
		if diag.HasErrors(d2) {
			continue
		}
		s = s.Compose(s2)
		if first {
			resultType = bodyT.Apply(s2)
			first = false
		} else {
			s3, err := Unify(resultType.Apply(s2), bodyT)
			if err != nil {
				diags = append(diags, diag.New(diag.Type, toDiagSpan(arm.Body.Span()), "match arms must all produce the same type: %s", err))
				continue
			}
			s = s.Compose(s3)
			resultType = resultType.Apply(s3)
		}
		resultRow = lang.Union(resultRow.Apply(s), bodyRow.Apply(s))
	}

	if w := c.checkExhaustive(m); w != nil {
		diags = append(diags, w)
	}

	return resultType.Apply(s), resultRow.Apply(s), s, diags
}

// inferPattern unifies pat's structure against scrutT, returning a context
// extended with fresh-typed bindings for every variable pat introduces.
func (c *Checker) inferPattern(ctx context, pat lang.Pattern, scrutT lang.Type) (context, lang.Subst, []*diag.Error) {
	s := lang.NewSubst()
	switch p := pat.(type) {
	case lang.PWildcard:
		return ctx, s, nil

	case lang.PVar:
		return ctx.extend(p.Name, lang.Scheme{Type: scrutT}), s, nil

	case lang.PLiteral:
		var litT lang.Type
		switch p.Value.(type) {
		case lang.IntLit:
			litT = lang.TInt
		case lang.FloatLit:
			litT = lang.TFloat
		case lang.BoolLit:
			litT = lang.TBool
		case lang.StringLit:
			litT = lang.TString
		default:
			litT = lang.TUnit
		}
		s2, err := Unify(scrutT, litT)
		if err != nil {
			return ctx, s, []*diag.Error{diag.New(diag.Pattern, toDiagSpan(p.Span()), "literal pattern type mismatch: %s", err)}
		}
		return ctx, s2, nil

	case lang.PNil:
		elem := c.freshTypeVar()
		s2, err := Unify(scrutT, lang.TList{Elem: elem})
		if err != nil {
			return ctx, s, []*diag.Error{diag.New(diag.Pattern, toDiagSpan(p.Span()), "nil pattern expects a list: %s", err)}
		}
		return ctx, s2, nil

	case lang.PCons:
		elem := c.freshTypeVar()
		s1, err := Unify(scrutT, lang.TList{Elem: elem})
		if err != nil {
			return ctx, s, []*diag.Error{diag.New(diag.Pattern, toDiagSpan(p.Span()), "cons pattern expects a list: %s", err)}
		}
		ctx2, s2, diags := c.inferPattern(ctx, p.Head, elem.Apply(s1))
		s = s1.Compose(s2)
		ctx3, s3, d2 := c.inferPattern(ctx2, p.Tail, lang.TList{Elem: elem.Apply(s)})
		diags = append(diags, d2...)
		return ctx3, s.Compose(s3), diags

	case lang.PList:
		elem := c.freshTypeVar()
		s1, err := Unify(scrutT, lang.TList{Elem: elem})
		if err != nil {
			return ctx, s, []*diag.Error{diag.New(diag.Pattern, toDiagSpan(p.Span()), "list pattern expects a list: %s", err)}
		}
		s = s1
		cur := ctx
		var diags []*diag.Error
		for _, el := range p.Elems {
			var d []*diag.Error
			cur, s, d = c.inferPattern(cur, el, elem.Apply(s))
			diags = append(diags, d...)
		}
		if p.Rest != nil {
			cur = cur.extend(*p.Rest, lang.Scheme{Type: lang.TList{Elem: elem.Apply(s)}})
		}
		return cur, s, diags

	case lang.PConstructor:
		info, ok := c.ctors[string(p.Name)]
		if !ok {
			return ctx, s, []*diag.Error{diag.New(diag.Scope, toDiagSpan(p.Span()), "undefined constructor %q", p.Name)}
		}
		args := make([]lang.Type, len(info.params))
		for i := range info.params {
			args[i] = c.freshTypeVar()
		}
		s1, err := Unify(scrutT, lang.TADT{Name: info.typeName, Args: args})
		if err != nil {
			return ctx, s, []*diag.Error{diag.New(diag.Pattern, toDiagSpan(p.Span()), "constructor pattern %q: %s", p.Name, err)}
		}
		if len(p.Args) != len(info.fields) {
			return ctx, s1, []*diag.Error{diag.New(diag.Pattern, toDiagSpan(p.Span()), "constructor %q expects %d pattern argument(s), got %d", p.Name, len(info.fields), len(p.Args))}
		}
		cur := ctx
		s = s1
		var diags []*diag.Error
		for i, ap := range p.Args {
			var d []*diag.Error
			cur, s, d = c.inferPattern(cur, ap, info.fields[i].Apply(s))
			diags = append(diags, d...)
		}
		return cur, s, diags

	case lang.PRecord:
		fields := map[string]lang.Type{}
		cur := ctx
		s = lang.NewSubst()
		var diags []*diag.Error
		for _, f := range p.Fields {
			ft := c.freshTypeVar()
			fields[f.Name] = ft
			var d []*diag.Error
			cur, s, d = c.inferPattern(cur, f.Pattern, ft.Apply(s))
			diags = append(diags, d...)
		}
		s2, err := Unify(scrutT, lang.TRecord{Fields: fields})
		if err != nil {
			return ctx, s, append(diags, diag.New(diag.Pattern, toDiagSpan(p.Span()), "record pattern: %s", err))
		}
		return cur, s.Compose(s2), diags

	case lang.PAs:
		cur, s1, diags := c.inferPattern(ctx, p.Inner, scrutT)
		cur = cur.extend(p.Name, lang.Scheme{Type: scrutT.Apply(s1)})
		return cur, s1, diags

	default:
		return ctx, s, []*diag.Error{diag.New(diag.Pattern, toDiagSpan(pat.Span()), "unsupported pattern form")}
	}
}

// checkExhaustive reports a non-exhaustive-match warning when the
// scrutinee's constructors are statically known (a PConstructor/TADT match)
// and some constructor of that ADT is covered by neither a PConstructor arm
// nor a catch-all (PWildcard/PVar). An as-pattern counts as whatever its
// inner pattern is.
func (c *Checker) checkExhaustive(m lang.Match) *diag.Error {
	covered := map[string]bool{}
	typeName := ""
	catchAll := false
	for _, arm := range m.Arms {
		pat := arm.Pattern
		for as, ok := pat.(lang.PAs); ok; as, ok = pat.(lang.PAs) {
			pat = as.Inner
		}
		switch p := pat.(type) {
		case lang.PConstructor:
			covered[string(p.Name)] = true
			if info, ok := c.ctors[string(p.Name)]; ok {
				typeName = info.typeName
			}
		case lang.PWildcard, lang.PVar:
			catchAll = true
		}
	}
	if catchAll || typeName == "" {
		return nil
	}
	td, ok := c.typeDefs[typeName]
	if !ok {
		return nil
	}
	var missing []string
	for _, ctor := range td.Constructors {
		if !covered[string(ctor.Name)] {
			missing = append(missing, string(ctor.Name))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	msg := "non-exhaustive match on " + typeName + ": missing case"
	if len(missing) > 1 {
		msg += "s"
	}
	for i, name := range missing {
		if i > 0 {
			msg += ","
		}
		msg += " " + name
	}
	return diag.NewWarning(diag.Pattern, toDiagSpan(m.Span()), "%s", msg)
}
