// Package infer implements Hindley-Milner type inference extended with an
// effect-row component (spec.md §4.3, C3): Algorithm W over internal/lang's
// Expr sum, producing a principal type-and-effect Scheme or a list of
// diagnostics.
//
// Grounded on the teacher's internal/typesystem package: unifyInternal's
// structural recursion + substitution-composition shape (unify.go),
// generalize/instantiate's free-variable bookkeeping, and
// ApplyWithCycleCheck's type-switch-based substitution application (mirrored
// here by lang.Type.Apply). The effect-row half (Row, Union, the value
// restriction) has no teacher analogue and is built fresh against spec.md
// §3/§4.3's effect rules.
package infer

import (
	"fmt"

	"github.com/vibe-lang/vibe/internal/diag"
	"github.com/vibe-lang/vibe/internal/lang"
)

// Checker holds the fresh-variable counter and constructor/field tables
// learned from TypeDefs as they're checked, so later definitions can refer
// to earlier ones' ADTs.
type Checker struct {
	fresh    int
	ctors    map[string]ctorInfo
	typeDefs map[string]lang.TypeDef
}

type ctorInfo struct {
	typeName string
	fields   []lang.Type
	params   []string
}

func NewChecker() *Checker {
	return &Checker{ctors: map[string]ctorInfo{}, typeDefs: map[string]lang.TypeDef{}}
}

func (c *Checker) freshTypeVar() lang.TVar {
	c.fresh++
	return lang.TVar{Name: fmt.Sprintf("t%d", c.fresh)}
}

func (c *Checker) freshRowVar() string {
	c.fresh++
	return fmt.Sprintf("e%d", c.fresh)
}

// context is the typing environment: term variables to schemes.
type context map[lang.Ident]lang.Scheme

func (ctx context) extend(name lang.Ident, s lang.Scheme) context {
	out := make(context, len(ctx)+1)
	for k, v := range ctx {
		out[k] = v
	}
	out[name] = s
	return out
}

// InferTop infers the type and effect row of a single top-level definition
// (one statement of parser.ParseProgram's output: Let, LetIn, TypeDef, or a bare
// expression), given the already-inferred schemes of its free-name
// dependencies.
func (c *Checker) InferTop(e lang.Expr, deps map[lang.Ident]lang.Scheme) (lang.Scheme, []*diag.Error) {
	ctx := context{}
	for name, s := range deps {
		ctx[name] = s
	}
	ctx = c.withBuiltins(ctx)

	switch ex := e.(type) {
	case lang.TypeDef:
		c.registerTypeDef(ex)
		return lang.Scheme{Type: lang.TUnit, Row: lang.PureRow}, nil
	case lang.Let:
		return c.inferLet(ctx, ex)
	default:
		t, row, subst, diags := c.infer(ctx, e)
		if diag.HasErrors(diags) {
			return lang.Scheme{}, diags
		}
		return c.generalize(ctx, t.Apply(subst), row.Apply(subst)), diags
	}
}

func (c *Checker) inferLet(ctx context, l lang.Let) (lang.Scheme, []*diag.Error) {
	var t lang.Type
	var row lang.Row
	var subst lang.Subst
	var diags []*diag.Error
	if l.Recursive {
		tv := c.freshTypeVar()
		inner := ctx.extend(l.Name, lang.Scheme{Type: tv})
		t, row, subst, diags = c.infer(inner, l.Value)
	} else {
		t, row, subst, diags = c.infer(ctx, l.Value)
	}
	if diag.HasErrors(diags) {
		return lang.Scheme{}, diags
	}
	if l.Annotation != nil {
		s2, err := Unify(t.Apply(subst), l.Annotation)
		if err != nil {
			diags = append(diags, diag.New(diag.Type, toDiagSpan(l.Span()), "%s", err))
			return lang.Scheme{}, diags
		}
		subst = subst.Compose(s2)
	}
	return c.generalize(ctx, t.Apply(subst), row.Apply(subst)), diags
}

func (c *Checker) withBuiltins(ctx context) context {
	binop := func(t lang.Type) lang.Scheme {
		return lang.Scheme{Type: lang.TFunc{Param: t, Return: lang.TFunc{Param: t, Return: t}}}
	}
	cmp := func(t lang.Type) lang.Scheme {
		return lang.Scheme{Type: lang.TFunc{Param: t, Return: lang.TFunc{Param: t, Return: lang.TBool}}}
	}
	out := ctx.extend("(+)", binop(lang.TInt))
	out = out.extend("(-)", binop(lang.TInt))
	out = out.extend("(*)", binop(lang.TInt))
	out = out.extend("(/)", binop(lang.TInt))
	out = out.extend("(%)", binop(lang.TInt))
	out = out.extend("(<)", cmp(lang.TInt))
	out = out.extend("(<=)", cmp(lang.TInt))
	out = out.extend("(>)", cmp(lang.TInt))
	out = out.extend("(>=)", cmp(lang.TInt))
	a := c.freshTypeVar()
	out = out.extend("(==)", lang.Scheme{TypeVars: []string{a.Name}, Type: lang.TFunc{Param: a, Return: lang.TFunc{Param: a, Return: lang.TBool}}})
	b := c.freshTypeVar()
	out = out.extend("(!=)", lang.Scheme{TypeVars: []string{b.Name}, Type: lang.TFunc{Param: b, Return: lang.TFunc{Param: b, Return: lang.TBool}}})
	out = out.extend("(&&)", binop(lang.TBool))
	out = out.extend("(||)", binop(lang.TBool))
	out = out.extend("not", lang.Scheme{Type: lang.TFunc{Param: lang.TBool, Return: lang.TBool}})
	n := c.freshTypeVar()
	out = out.extend("neg", lang.Scheme{TypeVars: []string{n.Name}, Type: lang.TFunc{Param: n, Return: n}})
	le := c.freshTypeVar()
	out = out.extend("head", lang.Scheme{TypeVars: []string{le.Name}, Type: lang.TFunc{Param: lang.TList{Elem: le}, Return: le}})
	lt := c.freshTypeVar()
	out = out.extend("tail", lang.Scheme{TypeVars: []string{lt.Name}, Type: lang.TFunc{Param: lang.TList{Elem: lt}, Return: lang.TList{Elem: lt}}})
	ll := c.freshTypeVar()
	out = out.extend("length", lang.Scheme{TypeVars: []string{ll.Name}, Type: lang.TFunc{Param: lang.TList{Elem: ll}, Return: lang.TInt}})
	return out
}

func (c *Checker) registerTypeDef(td lang.TypeDef) {
	c.typeDefs[string(td.Name)] = td
	for _, ctor := range td.Constructors {
		c.ctors[string(ctor.Name)] = ctorInfo{typeName: string(td.Name), fields: ctor.Fields, params: td.TypeParams}
	}
}

// infer returns the type, effect row, and accumulated substitution for e
// under ctx, following Algorithm W's structure: each rule unifies its
// subexpressions' types/rows and composes substitutions left to right.
func (c *Checker) infer(ctx context, e lang.Expr) (lang.Type, lang.Row, lang.Subst, []*diag.Error) {
	s0 := lang.NewSubst()
	switch ex := e.(type) {
	case lang.IntLit:
		return lang.TInt, lang.PureRow, s0, nil
	case lang.FloatLit:
		return lang.TFloat, lang.PureRow, s0, nil
	case lang.BoolLit:
		return lang.TBool, lang.PureRow, s0, nil
	case lang.StringLit:
		return lang.TString, lang.PureRow, s0, nil
	case lang.UnitLit:
		return lang.TUnit, lang.PureRow, s0, nil

	case lang.Var:
		scheme, ok := ctx[ex.Name]
		if !ok {
			names := make([]string, 0, len(ctx))
			for n := range ctx {
				names = append(names, string(n))
			}
			d := diag.New(diag.Scope, toDiagSpan(ex.Span()), "undefined name %q", ex.Name)
			for _, cand := range diag.SuggestNames(string(ex.Name), names, 2) {
				d = d.WithSuggestion("did you mean "+cand+"?", cand, diag.Medium)
			}
			return nil, lang.PureRow, s0, []*diag.Error{d}
		}
		return c.instantiate(scheme), lang.PureRow, s0, nil

	case lang.QualifiedVar:
		scheme, ok := ctx[ex.Path]
		if !ok {
			return nil, lang.PureRow, s0, []*diag.Error{
				diag.New(diag.Scope, toDiagSpan(ex.Span()), "undefined name %q", ex.Path),
			}
		}
		return c.instantiate(scheme), lang.PureRow, s0, nil

	case lang.HashRef:
		return c.freshTypeVar(), lang.PureRow, s0, nil

	case lang.Lambda:
		paramT := c.freshTypeVar()
		inner := ctx.extend(ex.Param, lang.Scheme{Type: paramT})
		bodyT, bodyRow, s1, diags := c.infer(inner, ex.Body)
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s1, diags
		}
		return lang.TFunc{Param: paramT.Apply(s1), Return: bodyT, Row: bodyRow}, lang.PureRow, s1, diags

	case lang.Apply:
		fnT, fnRow, s1, diags := c.infer(ctx, ex.Fn)
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s1, diags
		}
		argT, argRow, s2, diags2 := c.infer(applySubstCtx(ctx, s1), ex.Arg)
		diags = append(diags, diags2...)
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s2, diags
		}
		s1 = s1.Compose(s2)
		retT := c.freshTypeVar()
		callRow := lang.Row{Tail: c.freshRowVar()}
		wantFn := lang.TFunc{Param: argT, Return: retT, Row: callRow}
		s3, err := Unify(fnT.Apply(s2), wantFn)
		if err != nil {
			return nil, lang.PureRow, s1, []*diag.Error{diag.New(diag.Type, toDiagSpan(ex.Span()), "%s", err)}
		}
		total := s1.Compose(s3)
		row := lang.Union(fnRow.Apply(total), lang.Union(argRow.Apply(total), callRow.Apply(total)))
		return retT.Apply(total), row, total, diags

	case lang.LetIn:
		var valT lang.Type
		var valRow lang.Row
		var s1 lang.Subst
		var diags []*diag.Error
		if ex.Recursive {
			tv := c.freshTypeVar()
			inner := ctx.extend(ex.Name, lang.Scheme{Type: tv})
			valT, valRow, s1, diags = c.infer(inner, ex.Value)
		} else {
			valT, valRow, s1, diags = c.infer(ctx, ex.Value)
		}
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s1, diags
		}
		if ex.Annotation != nil {
			s2, err := Unify(valT.Apply(s1), ex.Annotation)
			if err != nil {
				return nil, lang.PureRow, s1, []*diag.Error{diag.New(diag.Type, toDiagSpan(ex.Span()), "%s", err)}
			}
			s1 = s1.Compose(s2)
		}
		scheme := c.generalize(applySubstCtx(ctx, s1), valT.Apply(s1), valRow.Apply(s1))
		bodyCtx := applySubstCtx(ctx, s1).extend(ex.Name, scheme)
		bodyT, bodyRow, s2, diags2 := c.infer(bodyCtx, ex.Body)
		diags = append(diags, diags2...)
		total := s1.Compose(s2)
		return bodyT, lang.Union(valRow.Apply(total), bodyRow), total, diags

	case lang.If:
		condT, condRow, s1, diags := c.infer(ctx, ex.Cond)
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s1, diags
		}
		s2, err := Unify(condT, lang.TBool)
		if err != nil {
			diags = append(diags, diag.New(diag.Type, toDiagSpan(ex.Cond.Span()), "if condition must be Bool: %s", err))
		}
		s1 = s1.Compose(s2)
		thenT, thenRow, s3, d2 := c.infer(applySubstCtx(ctx, s1), ex.Then)
		diags = append(diags, d2...)
		s1 = s1.Compose(s3)
		elseT, elseRow, s4, d3 := c.infer(applySubstCtx(ctx, s1), ex.Else)
		diags = append(diags, d3...)
		s1 = s1.Compose(s4)
		s5, err := Unify(thenT.Apply(s4), elseT)
		if err != nil {
			diags = append(diags, diag.New(diag.Type, toDiagSpan(ex.Span()), "branches of if must agree: %s", err))
			return nil, lang.PureRow, s1, diags
		}
		total := s1.Compose(s5)
		return thenT.Apply(total), lang.Union(condRow.Apply(total), lang.Union(thenRow.Apply(total), elseRow.Apply(total))), total, diags

	case lang.ListLit:
		elemT := c.freshTypeVar()
		var row lang.Row = lang.PureRow
		s := s0
		var diags []*diag.Error
		for _, el := range ex.Elems {
			t, r, s1, d := c.infer(applySubstCtx(ctx, s), el)
			diags = append(diags, d...)
			if diag.HasErrors(diags) {
				continue
			}
			s2, err := Unify(elemT.Apply(s1), t)
			if err != nil {
				diags = append(diags, diag.New(diag.Type, toDiagSpan(el.Span()), "list elements must share a type: %s", err))
				continue
			}
			s = s.Compose(s1).Compose(s2)
			row = lang.Union(row.Apply(s), r.Apply(s))
		}
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s, diags
		}
		return lang.TList{Elem: elemT.Apply(s)}, row, s, diags

	case lang.Cons:
		headT, headRow, s1, diags := c.infer(ctx, ex.Head)
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s1, diags
		}
		tailT, tailRow, s2, d2 := c.infer(applySubstCtx(ctx, s1), ex.Tail)
		diags = append(diags, d2...)
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s2, diags
		}
		s1 = s1.Compose(s2)
		s3, err := Unify(lang.TList{Elem: headT.Apply(s2)}, tailT)
		if err != nil {
			diags = append(diags, diag.New(diag.Type, toDiagSpan(ex.Span()), "cons: head/tail type mismatch: %s", err))
			return nil, lang.PureRow, s1, diags
		}
		total := s1.Compose(s3)
		return tailT.Apply(total), lang.Union(headRow.Apply(total), tailRow.Apply(total)), total, diags

	case lang.RecordLit:
		fields := map[string]lang.Type{}
		s := s0
		var row lang.Row = lang.PureRow
		var diags []*diag.Error
		for _, f := range ex.Fields {
			t, r, s1, d := c.infer(applySubstCtx(ctx, s), f.Value)
			diags = append(diags, d...)
			if diag.HasErrors(d) {
				continue
			}
			s = s.Compose(s1)
			fields[f.Name] = t
			row = lang.Union(row.Apply(s), r.Apply(s))
		}
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s, diags
		}
		for k, t := range fields {
			fields[k] = t.Apply(s)
		}
		return lang.TRecord{Fields: fields}, row, s, diags

	case lang.FieldAccess:
		recT, row, s1, diags := c.infer(ctx, ex.Record)
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s1, diags
		}
		rec, ok := recT.Apply(s1).(lang.TRecord)
		if !ok {
			diags = append(diags, diag.New(diag.Type, toDiagSpan(ex.Span()), "field access on non-record type %s", recT.Apply(s1)))
			return nil, lang.PureRow, s1, diags
		}
		ft, ok := rec.Fields[ex.Field]
		if !ok {
			diags = append(diags, diag.New(diag.Type, toDiagSpan(ex.Span()), "record has no field %q", ex.Field))
			return nil, lang.PureRow, s1, diags
		}
		return ft, row, s1, diags

	case lang.RecordUpdate:
		recT, row, s1, diags := c.infer(ctx, ex.Record)
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s1, diags
		}
		rec, ok := recT.Apply(s1).(lang.TRecord)
		if !ok {
			diags = append(diags, diag.New(diag.Type, toDiagSpan(ex.Span()), "record update on non-record type %s", recT.Apply(s1)))
			return nil, lang.PureRow, s1, diags
		}
		s := s1
		for _, f := range ex.Fields {
			t, r, s2, d := c.infer(applySubstCtx(ctx, s), f.Value)
			diags = append(diags, d...)
			if diag.HasErrors(d) {
				continue
			}
			s = s.Compose(s2)
			if want, ok := rec.Fields[f.Name]; ok {
				s3, err := Unify(want.Apply(s2), t)
				if err != nil {
					diags = append(diags, diag.New(diag.Type, toDiagSpan(f.Value.Span()), "field %q: %s", f.Name, err))
					continue
				}
				s = s.Compose(s3)
			}
			row = lang.Union(row.Apply(s), r.Apply(s))
		}
		return rec.Apply(s), row, s, diags

	case lang.ConstructorApp:
		info, ok := c.ctors[string(ex.Name)]
		if !ok {
			return nil, lang.PureRow, s0, []*diag.Error{
				diag.New(diag.Scope, toDiagSpan(ex.Span()), "undefined constructor %q", ex.Name),
			}
		}
		if len(ex.Args) != len(info.fields) {
			return nil, lang.PureRow, s0, []*diag.Error{
				diag.New(diag.Pattern, toDiagSpan(ex.Span()), "constructor %q expects %d argument(s), got %d", ex.Name, len(info.fields), len(ex.Args)),
			}
		}
		s := s0
		var row lang.Row = lang.PureRow
		var diags []*diag.Error
		for i, a := range ex.Args {
			t, r, s1, d := c.infer(applySubstCtx(ctx, s), a)
			diags = append(diags, d...)
			if diag.HasErrors(d) {
				continue
			}
			s = s.Compose(s1)
			s2, err := Unify(info.fields[i].Apply(s), t)
			if err != nil {
				diags = append(diags, diag.New(diag.Type, toDiagSpan(a.Span()), "constructor %q argument %d: %s", ex.Name, i+1, err))
				continue
			}
			s = s.Compose(s2)
			row = lang.Union(row.Apply(s), r.Apply(s))
		}
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s, diags
		}
		args := make([]lang.Type, len(info.params))
		for i := range info.params {
			args[i] = c.freshTypeVar()
		}
		return lang.TADT{Name: info.typeName, Args: args}, row, s, diags

	case lang.Match:
		return c.inferMatch(ctx, ex)

	case lang.Perform:
		return c.inferPerform(ctx, ex)

	case lang.Handle:
		return c.inferHandle(ctx, ex)

	case lang.TypeDef:
		c.registerTypeDef(ex)
		return lang.TUnit, lang.PureRow, s0, nil

	case lang.Let:
		scheme, diags := c.inferLet(ctx, ex)
		if diag.HasErrors(diags) {
			return nil, lang.PureRow, s0, diags
		}
		return scheme.Type, scheme.Row, s0, diags

	case lang.ModuleDef:
		cur := ctx
		var row lang.Row = lang.PureRow
		var last lang.Type = lang.TUnit
		var diags []*diag.Error
		for _, b := range ex.Bindings {
			if let, ok := b.(lang.Let); ok {
				sch, d := c.inferLet(cur, let)
				diags = append(diags, d...)
				if diag.HasErrors(d) {
					continue
				}
				if let.Name != "" {
					cur = cur.extend(let.Name, sch)
				}
				last, row = sch.Type, lang.Union(row, sch.Row)
				continue
			}
			t, r, _, d := c.infer(cur, b)
			diags = append(diags, d...)
			last, row = t, lang.Union(row, r)
		}
		return last, row, s0, diags

	case lang.Import:
		return lang.TUnit, lang.PureRow, s0, nil

	default:
		return nil, lang.PureRow, s0, []*diag.Error{
			diag.New(diag.Syntax, toDiagSpan(e.Span()), "unsupported expression form"),
		}
	}
}

func applySubstCtx(ctx context, s lang.Subst) context {
	out := make(context, len(ctx))
	for k, v := range ctx {
		out[k] = lang.Scheme{
			TypeVars: v.TypeVars,
			RowVars:  v.RowVars,
			Type:     v.Type.Apply(s),
			Row:      v.Row.Apply(s),
		}
	}
	return out
}

// toDiagSpan converts a lang.Span into the diag package's own Span type.
func toDiagSpan(sp lang.Span) diag.Span {
	return diag.Span{File: sp.File, StartLine: sp.StartLine, StartCol: sp.StartCol, EndLine: sp.EndLine, EndCol: sp.EndCol}
}
