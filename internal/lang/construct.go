package lang

// Constructor helpers for building Expr/Pattern nodes from outside this
// package (the parser). base/pbase are unexported so that Span() cannot be
// forged after construction; these functions are the only way in.

func NewIntLit(sp Span, v int64) IntLit       { return IntLit{base{sp}, v} }
func NewFloatLit(sp Span, v float64) FloatLit { return FloatLit{base{sp}, v} }
func NewBoolLit(sp Span, v bool) BoolLit      { return BoolLit{base{sp}, v} }
func NewStringLit(sp Span, v string) StringLit { return StringLit{base{sp}, v} }
func NewUnitLit(sp Span) UnitLit              { return UnitLit{base{sp}} }

func NewVar(sp Span, name Ident) Var                 { return Var{base{sp}, name} }
func NewQualifiedVar(sp Span, path Ident) QualifiedVar { return QualifiedVar{base{sp}, path} }
func NewHashRef(sp Span, prefix string) HashRef      { return HashRef{base{sp}, prefix} }
func NewDepRef(sp Span, index int) DepRef            { return DepRef{base{sp}, index} }

func NewLambda(sp Span, param Ident, body Expr) Lambda { return Lambda{base{sp}, param, body} }
func NewApply(sp Span, fn, arg Expr) Apply             { return Apply{base{sp}, fn, arg} }

func NewLet(sp Span, name Ident, pat Pattern, ann Type, rec bool, value Expr) Let {
	return Let{base{sp}, name, pat, ann, rec, value}
}

func NewLetIn(sp Span, name Ident, ann Type, rec bool, value, body Expr) LetIn {
	return LetIn{base{sp}, name, ann, rec, value, body}
}

func NewIf(sp Span, cond, then, els Expr) If { return If{base{sp}, cond, then, els} }
func NewMatch(sp Span, scrutinee Expr, arms []MatchArm) Match {
	return Match{base{sp}, scrutinee, arms}
}

func NewListLit(sp Span, elems []Expr) ListLit { return ListLit{base{sp}, elems} }
func NewCons(sp Span, head, tail Expr) Cons     { return Cons{base{sp}, head, tail} }
func NewRecordLit(sp Span, fields []RecordField) RecordLit { return RecordLit{base{sp}, fields} }
func NewFieldAccess(sp Span, record Expr, field string) FieldAccess {
	return FieldAccess{base{sp}, record, field}
}
func NewRecordUpdate(sp Span, record Expr, fields []RecordField) RecordUpdate {
	return RecordUpdate{base{sp}, record, fields}
}

func NewTypeDef(sp Span, name Ident, params []string, ctors []ConstructorDef) TypeDef {
	return TypeDef{base{sp}, name, params, ctors}
}
func NewConstructorApp(sp Span, name Ident, args []Expr) ConstructorApp {
	return ConstructorApp{base{sp}, name, args}
}

func NewModuleDef(sp Span, name Ident, bindings []Expr, exports []Ident) ModuleDef {
	return ModuleDef{base{sp}, name, bindings, exports}
}
func NewImport(sp Span, path string, alias Ident, hash string) Import {
	return Import{base{sp}, path, alias, hash}
}

func NewPerform(sp Span, effect Ident, op string, args []Expr) Perform {
	return Perform{base{sp}, effect, op, args}
}
func NewHandle(sp Span, body Expr, arms []HandleArm) Handle {
	return Handle{base{sp}, body, arms}
}

func NewPWildcard(sp Span) PWildcard { return PWildcard{pbase{sp}} }
func NewPVar(sp Span, name Ident) PVar { return PVar{pbase{sp}, name} }
func NewPLiteral(sp Span, value Expr) PLiteral { return PLiteral{pbase{sp}, value} }
func NewPNil(sp Span) PNil { return PNil{pbase{sp}} }
func NewPCons(sp Span, head, tail Pattern) PCons { return PCons{pbase{sp}, head, tail} }
func NewPList(sp Span, elems []Pattern, rest *Ident) PList { return PList{pbase{sp}, elems, rest} }
func NewPConstructor(sp Span, name Ident, args []Pattern) PConstructor {
	return PConstructor{pbase{sp}, name, args}
}
func NewPRecord(sp Span, fields []PatternField) PRecord { return PRecord{pbase{sp}, fields} }
func NewPAs(sp Span, inner Pattern, name Ident) PAs     { return PAs{pbase{sp}, inner, name} }
