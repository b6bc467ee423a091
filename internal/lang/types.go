package lang

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the interface implemented by every member of the type sum
// (spec.md §3: int/float/bool/string/unit, type variable, function with
// effect row, list, record, named ADT, effect-annotated surface type).
//
// Grounded on the teacher's typesystem.Type (String/Apply/FreeTypeVariables),
// generalized here to carry an effect Row on TFunc instead of leaving
// function arrows unannotated.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVars() []string
	FreeRowVars() []string
}

// TCon is a base type constant: Int, Float, Bool, String, Unit.
type TCon struct{ Name string }

func (t TCon) String() string             { return t.Name }
func (t TCon) Apply(Subst) Type           { return t }
func (t TCon) FreeTypeVars() []string     { return nil }
func (t TCon) FreeRowVars() []string      { return nil }

var (
	TInt    = TCon{"Int"}
	TFloat  = TCon{"Float"}
	TBool   = TCon{"Bool"}
	TString = TCon{"String"}
	TUnit   = TCon{"Unit"}
)

// TVar is a type variable, fresh or user-named.
type TVar struct{ Name string }

func (t TVar) String() string         { return t.Name }
func (t TVar) FreeTypeVars() []string { return []string{t.Name} }
func (t TVar) FreeRowVars() []string  { return nil }
func (t TVar) Apply(s Subst) Type {
	if repl, ok := s.Types[t.Name]; ok {
		if repl.String() == t.String() {
			return t
		}
		return repl.Apply(s)
	}
	return t
}

// TList is a homogeneous list type.
type TList struct{ Elem Type }

func (t TList) String() string         { return fmt.Sprintf("List %s", paren(t.Elem)) }
func (t TList) FreeTypeVars() []string { return t.Elem.FreeTypeVars() }
func (t TList) FreeRowVars() []string  { return t.Elem.FreeRowVars() }
func (t TList) Apply(s Subst) Type     { return TList{t.Elem.Apply(s)} }

// TRecord is a record type; field order is immaterial to equality (the map
// is the source of truth) but the originating expression AST preserves
// declaration order for hashing (spec.md §3).
type TRecord struct{ Fields map[string]Type }

func (t TRecord) String() string {
	keys := sortedKeys(t.Fields)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, t.Fields[k].String())
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
func (t TRecord) FreeTypeVars() []string {
	var out []string
	for _, k := range sortedKeys(t.Fields) {
		out = append(out, t.Fields[k].FreeTypeVars()...)
	}
	return uniq(out)
}
func (t TRecord) FreeRowVars() []string {
	var out []string
	for _, k := range sortedKeys(t.Fields) {
		out = append(out, t.Fields[k].FreeRowVars()...)
	}
	return uniq(out)
}
func (t TRecord) Apply(s Subst) Type {
	fields := make(map[string]Type, len(t.Fields))
	for k, v := range t.Fields {
		fields[k] = v.Apply(s)
	}
	return TRecord{fields}
}

// TADT is a named algebraic data type applied to type arguments, e.g.
// Option Int, Result String Int.
type TADT struct {
	Name string
	Args []Type
}

func (t TADT) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = paren(a)
	}
	return t.Name + " " + strings.Join(parts, " ")
}
func (t TADT) FreeTypeVars() []string {
	var out []string
	for _, a := range t.Args {
		out = append(out, a.FreeTypeVars()...)
	}
	return uniq(out)
}
func (t TADT) FreeRowVars() []string {
	var out []string
	for _, a := range t.Args {
		out = append(out, a.FreeRowVars()...)
	}
	return uniq(out)
}
func (t TADT) Apply(s Subst) Type {
	args := make([]Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Apply(s)
	}
	return TADT{t.Name, args}
}

// TFunc is a curried function arrow carrying an effect row (spec.md §3:
// τ₁ →{ρ} τ₂).
type TFunc struct {
	Param  Type
	Return Type
	Row    Row
}

func (t TFunc) String() string {
	rowStr := ""
	if !t.Row.IsPure() {
		rowStr = "{" + t.Row.String() + "}"
	}
	return fmt.Sprintf("%s ->%s %s", paren(t.Param), rowStr, t.Return.String())
}
func (t TFunc) FreeTypeVars() []string {
	return uniq(append(t.Param.FreeTypeVars(), t.Return.FreeTypeVars()...))
}
func (t TFunc) FreeRowVars() []string {
	out := append(t.Param.FreeRowVars(), t.Return.FreeRowVars()...)
	out = append(out, t.Row.FreeRowVars()...)
	return uniq(out)
}
func (t TFunc) Apply(s Subst) Type {
	return TFunc{t.Param.Apply(s), t.Return.Apply(s), t.Row.Apply(s)}
}

// paren wraps compound types in parens for unambiguous printing inside an
// argument position.
func paren(t Type) string {
	switch t.(type) {
	case TFunc:
		return "(" + t.String() + ")"
	default:
		return t.String()
	}
}

func sortedKeys(m map[string]Type) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Effect is a single elementary effect in a row: Pure, IO, Async, or a
// parameterized effect like State<τ> / Error<τ> / a user-declared effect.
type Effect struct {
	Name string
	Arg  Type // nil for unparameterized effects (IO, Async, user-declared nullary)
}

func (e Effect) String() string {
	if e.Arg == nil {
		return e.Name
	}
	return fmt.Sprintf("%s<%s>", e.Name, e.Arg.String())
}

func (e Effect) key() string {
	if e.Arg == nil {
		return e.Name
	}
	return e.Name + "<" + e.Arg.String() + ">"
}

// Row is an effect row: an unordered set of elementary effects, possibly
// tailed by a row variable for polymorphism over effects (spec.md §3, §9).
// Pure is the empty set and absorbed by union.
type Row struct {
	Effects []Effect
	Tail    string // "" if closed (no row variable)
}

// PureRow is the empty, closed effect row.
var PureRow = Row{}

func (r Row) IsPure() bool { return len(r.Effects) == 0 && r.Tail == "" }

func (r Row) String() string {
	sorted := r.sortedEffects()
	parts := make([]string, len(sorted))
	for i, e := range sorted {
		parts[i] = e.String()
	}
	if r.Tail != "" {
		parts = append(parts, r.Tail+"...")
	}
	if len(parts) == 0 {
		return "Pure"
	}
	return strings.Join(parts, ", ")
}

func (r Row) sortedEffects() []Effect {
	out := make([]Effect, len(r.Effects))
	copy(out, r.Effects)
	sort.Slice(out, func(i, j int) bool { return out[i].key() < out[j].key() })
	return out
}

// Normalize deduplicates effects (by name+arg) and sorts them; duplicates
// are absorbed per spec.md §3.
func (r Row) Normalize() Row {
	seen := make(map[string]Effect)
	var order []string
	for _, e := range r.Effects {
		k := e.key()
		if _, ok := seen[k]; !ok {
			order = append(order, k)
		}
		seen[k] = e
	}
	sort.Strings(order)
	out := make([]Effect, len(order))
	for i, k := range order {
		out[i] = seen[k]
	}
	return Row{Effects: out, Tail: r.Tail}
}

// Union merges two rows; Pure (empty) is absorbed.
func Union(a, b Row) Row {
	effects := append(append([]Effect{}, a.Effects...), b.Effects...)
	tail := a.Tail
	if tail == "" {
		tail = b.Tail
	}
	return Row{Effects: effects, Tail: tail}.Normalize()
}

func (r Row) FreeRowVars() []string {
	if r.Tail == "" {
		return nil
	}
	return []string{r.Tail}
}

func (r Row) Apply(s Subst) Row {
	if r.Tail != "" {
		if repl, ok := s.Rows[r.Tail]; ok {
			return Union(Row{Effects: r.Effects}, repl)
		}
	}
	effects := make([]Effect, len(r.Effects))
	for i, e := range r.Effects {
		arg := e.Arg
		if arg != nil {
			arg = arg.Apply(s)
		}
		effects[i] = Effect{e.Name, arg}
	}
	return Row{Effects: effects, Tail: r.Tail}.Normalize()
}

// Subst maps type variables to types and row variables to rows.
type Subst struct {
	Types map[string]Type
	Rows  map[string]Row
}

// NewSubst builds an empty substitution.
func NewSubst() Subst {
	return Subst{Types: map[string]Type{}, Rows: map[string]Row{}}
}

// Compose applies s2 to the range of s1 and adds s2's own bindings.
func (s1 Subst) Compose(s2 Subst) Subst {
	out := NewSubst()
	for k, v := range s2.Types {
		out.Types[k] = v
	}
	for k, v := range s2.Rows {
		out.Rows[k] = v
	}
	for k, v := range s1.Types {
		out.Types[k] = v.Apply(s2)
	}
	for k, v := range s1.Rows {
		out.Rows[k] = v.Apply(s2)
	}
	return out
}

// Scheme is a type universally quantified over type and row variables
// (spec.md §3: ∀ᾱ β̄. τ).
type Scheme struct {
	TypeVars []string
	RowVars  []string
	Type     Type
	Row      Row // the row of the underlying function, for display/checks
}

func (s Scheme) String() string {
	if len(s.TypeVars) == 0 && len(s.RowVars) == 0 {
		return s.Type.String()
	}
	vars := append(append([]string{}, s.TypeVars...), s.RowVars...)
	return "forall " + strings.Join(vars, " ") + ". " + s.Type.String()
}
