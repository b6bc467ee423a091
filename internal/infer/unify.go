package infer

import (
	"fmt"

	"github.com/vibe-lang/vibe/internal/lang"
)

// Grounded on the teacher's typesystem.unifyInternal: structural recursion
// over the Type sum, Bind's occurs check before binding a variable, and
// composing the substitution built by each recursive call. Extended here
// with row unification (unifyRow), which has no teacher analogue: effect
// rows unify as unordered sets modulo a trailing row variable, following
// spec.md §3/§9's row-extension presentation of effects.

// UnifyError reports a type (or row) mismatch.
type UnifyError struct{ msg string }

func (e *UnifyError) Error() string { return e.msg }

func unifyErrorf(format string, args ...any) *UnifyError {
	return &UnifyError{msg: fmt.Sprintf(format, args...)}
}

// Unify computes the most general substitution making a and b equal types,
// including unifying the effect rows of any TFunc encountered.
func Unify(a, b lang.Type) (lang.Subst, error) {
	switch at := a.(type) {
	case lang.TVar:
		return bindType(at.Name, b)
	default:
		if bt, ok := b.(lang.TVar); ok {
			return bindType(bt.Name, a)
		}
	}

	switch at := a.(type) {
	case lang.TCon:
		bt, ok := b.(lang.TCon)
		if !ok || at.Name != bt.Name {
			return lang.NewSubst(), unifyErrorf("cannot unify %s with %s", a, b)
		}
		return lang.NewSubst(), nil

	case lang.TList:
		bt, ok := b.(lang.TList)
		if !ok {
			return lang.NewSubst(), unifyErrorf("cannot unify %s with %s", a, b)
		}
		return Unify(at.Elem, bt.Elem)

	case lang.TRecord:
		bt, ok := b.(lang.TRecord)
		if !ok {
			return lang.NewSubst(), unifyErrorf("cannot unify %s with %s", a, b)
		}
		if len(at.Fields) != len(bt.Fields) {
			return lang.NewSubst(), unifyErrorf("record field count mismatch: %s vs %s", a, b)
		}
		s := lang.NewSubst()
		for name, ft := range at.Fields {
			other, ok := bt.Fields[name]
			if !ok {
				return lang.NewSubst(), unifyErrorf("record missing field %q", name)
			}
			s2, err := Unify(ft.Apply(s), other.Apply(s))
			if err != nil {
				return lang.NewSubst(), err
			}
			s = s.Compose(s2)
		}
		return s, nil

	case lang.TADT:
		bt, ok := b.(lang.TADT)
		if !ok || at.Name != bt.Name || len(at.Args) != len(bt.Args) {
			return lang.NewSubst(), unifyErrorf("cannot unify %s with %s", a, b)
		}
		s := lang.NewSubst()
		for i := range at.Args {
			s2, err := Unify(at.Args[i].Apply(s), bt.Args[i].Apply(s))
			if err != nil {
				return lang.NewSubst(), err
			}
			s = s.Compose(s2)
		}
		return s, nil

	case lang.TFunc:
		bt, ok := b.(lang.TFunc)
		if !ok {
			return lang.NewSubst(), unifyErrorf("cannot unify %s with %s", a, b)
		}
		s1, err := Unify(at.Param, bt.Param)
		if err != nil {
			return lang.NewSubst(), err
		}
		s2, err := Unify(at.Return.Apply(s1), bt.Return.Apply(s1))
		if err != nil {
			return lang.NewSubst(), err
		}
		s12 := s1.Compose(s2)
		s3, err := unifyRow(at.Row.Apply(s12), bt.Row.Apply(s12))
		if err != nil {
			return lang.NewSubst(), err
		}
		return s12.Compose(s3), nil

	default:
		return lang.NewSubst(), unifyErrorf("cannot unify %s with %s", a, b)
	}
}

func bindType(name string, t lang.Type) (lang.Subst, error) {
	if tv, ok := t.(lang.TVar); ok && tv.Name == name {
		return lang.NewSubst(), nil
	}
	for _, fv := range t.FreeTypeVars() {
		if fv == name {
			return lang.NewSubst(), unifyErrorf("occurs check failed: %s occurs in %s", name, t)
		}
	}
	s := lang.NewSubst()
	s.Types[name] = t
	return s, nil
}

// unifyRow unifies two effect rows structurally: effects present in one
// closed row must all be present in the other (and vice versa); any
// remaining effects on one side are absorbed into the other's tail
// variable, or fail if both rows are closed and disagree.
func unifyRow(a, b lang.Row) (lang.Subst, error) {
	a, b = a.Normalize(), b.Normalize()

	aSet := effectSet(a)
	bSet := effectSet(b)

	var extraInB []lang.Effect
	for _, e := range b.Effects {
		if _, ok := aSet[e.String()]; !ok {
			extraInB = append(extraInB, e)
		}
	}
	var extraInA []lang.Effect
	for _, e := range a.Effects {
		if _, ok := bSet[e.String()]; !ok {
			extraInA = append(extraInA, e)
		}
	}

	s := lang.NewSubst()
	switch {
	case len(extraInA) == 0 && len(extraInB) == 0:
		if a.Tail != "" && b.Tail != "" && a.Tail != b.Tail {
			s.Rows[a.Tail] = lang.Row{Tail: b.Tail}
		}
		return s, nil
	case a.Tail != "" && len(extraInA) == 0:
		s.Rows[a.Tail] = lang.Row{Effects: extraInB, Tail: b.Tail}
		return s, nil
	case b.Tail != "" && len(extraInB) == 0:
		s.Rows[b.Tail] = lang.Row{Effects: extraInA, Tail: a.Tail}
		return s, nil
	case a.Tail != "" && b.Tail != "" && a.Tail != b.Tail:
		rest := a.Tail + "_" + b.Tail
		s.Rows[a.Tail] = lang.Row{Effects: extraInB, Tail: rest}
		s.Rows[b.Tail] = lang.Row{Effects: extraInA, Tail: rest}
		return s, nil
	default:
		return lang.NewSubst(), unifyErrorf("effect rows disagree: %s vs %s", a, b)
	}
}

func effectSet(r lang.Row) map[string]bool {
	out := make(map[string]bool, len(r.Effects))
	for _, e := range r.Effects {
		out[e.String()] = true
	}
	return out
}
