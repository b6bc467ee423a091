package infer

import (
	"github.com/vibe-lang/vibe/internal/diag"
	"github.com/vibe-lang/vibe/internal/lang"
)

// inferPerform gives a `perform Effect.op args...` expression a fresh
// result type (the value the matching handler's continuation eventually
// resumes with) and adds Effect to the row, since without a declared
// operation-signature table (spec.md leaves operation signatures to the
// handler, not a global registry) the argument types can only be checked
// structurally against whichever handler catches the effect at runtime.
func (c *Checker) inferPerform(ctx context, p lang.Perform) (lang.Type, lang.Row, lang.Subst, []*diag.Error) {
	s := lang.NewSubst()
	var diags []*diag.Error
	for _, a := range p.Args {
		_, _, s2, d := c.infer(applySubstCtx(ctx, s), a)
		diags = append(diags, d...)
		if !diag.HasErrors(d) {
			s = s.Compose(s2)
		}
	}
	result := c.freshTypeVar()
	row := lang.Row{Effects: []lang.Effect{{Name: string(p.Effect)}}}
	return result, row, s, diags
}

// inferHandle infers a `handle body with { Effect.op params -> k -> armBody
// ... }` expression. Each handled effect is removed from the resulting
// row (spec.md §4.3: handling discharges the effect), while any effect the
// body performs that none of the arms name is left in the outer row.
func (c *Checker) inferHandle(ctx context, h lang.Handle) (lang.Type, lang.Row, lang.Subst, []*diag.Error) {
	bodyT, bodyRow, s, diags := c.infer(ctx, h.Body)
	if diag.HasErrors(diags) {
		return nil, lang.PureRow, s, diags
	}

	resultT := bodyT
	handled := map[string]bool{}

	for _, arm := range h.Arms {
		handled[string(arm.Effect)] = true
		armCtx := applySubstCtx(ctx, s)
		for _, param := range arm.Params {
			armCtx = armCtx.extend(param, lang.Scheme{Type: c.freshTypeVar()})
		}
		resumeArg := c.freshTypeVar()
		armCtx = armCtx.extend(arm.Continuation, lang.Scheme{
			Type: lang.TFunc{Param: resumeArg, Return: resultT.Apply(s), Row: lang.Row{Tail: c.freshRowVar()}},
		})
		armT, _, s2, d := c.infer(armCtx, arm.Body)
		diags = append(diags, d...)
		if diag.HasErrors(d) {
			continue
		}
		s3, err := Unify(resultT.Apply(s2), armT)
		if err != nil {
			diags = append(diags, diag.New(diag.Effect, toDiagSpan(arm.Body.Span()), "handler arm for %s.%s: %s", arm.Effect, arm.Op, err))
			continue
		}
		s = s.Compose(s2).Compose(s3)
		resultT = resultT.Apply(s)
	}

	var remaining []lang.Effect
	for _, e := range bodyRow.Apply(s).Effects {
		if !handled[e.Name] {
			remaining = append(remaining, e)
		}
	}
	outRow := lang.Row{Effects: remaining, Tail: bodyRow.Tail}.Normalize()

	return resultT.Apply(s), outRow, s, diags
}
