package lang

// Expr is implemented by every member of the expression sum (spec.md §3).
// Kept as a closed, enumerable set of struct types dispatched via type
// switch — the same shape the teacher itself uses for its Type sum
// (typesystem.ApplyWithCycleCheck switches on Type) rather than a deep
// double-dispatch Visitor hierarchy.
type Expr interface {
	Span() Span
	exprNode()
}

type base struct{ Pos Span }

func (b base) Span() Span { return b.Pos }

// --- literals ---

type IntLit struct {
	base
	Value int64
}

type FloatLit struct {
	base
	Value float64
}

type BoolLit struct {
	base
	Value bool
}

type StringLit struct {
	base
	Value string
}

type UnitLit struct{ base }

func (IntLit) exprNode()    {}
func (FloatLit) exprNode()  {}
func (BoolLit) exprNode()   {}
func (StringLit) exprNode() {}
func (UnitLit) exprNode()   {}

// --- references ---

// Var is a free identifier reference, resolved against lexical scope then
// the active namespace chain (spec.md §3).
type Var struct {
	base
	Name Ident
}

// QualifiedVar is a dotted reference (Math.Utils.fib).
type QualifiedVar struct {
	base
	Path Ident
}

// HashRef resolves by unique hash prefix (#abc123), optionally applied to
// arguments the way any other callable reference can be.
type HashRef struct {
	base
	Prefix string
}

// DepRef is a normalization-only placeholder (spec.md §4.2): Normalize
// replaces every free identifier referencing another definition with a
// DepRef carrying that dependency's position in the definition's sorted,
// deduplicated dependency-hash list, so the hash depends only on which
// hash a name resolves to, never on the local alias used to spell it.
// Never produced by the parser; only appears in a normalized form.
type DepRef struct {
	base
	Index int
}

func (Var) exprNode()          {}
func (QualifiedVar) exprNode() {}
func (HashRef) exprNode()      {}
func (DepRef) exprNode()       {}

// --- binding & application ---

// Lambda is curried: exactly one parameter and a body.
type Lambda struct {
	base
	Param Ident
	Body  Expr
}

type Apply struct {
	base
	Fn, Arg Expr
}

// Let is a (possibly recursive) top-level-style binding whose scope is
// "the remainder of the enclosing program/module" rather than an explicit
// body — distinct from LetIn, which is an expression producing a value.
type Let struct {
	base
	Name       Ident
	Pattern    Pattern // mutually exclusive with Name; non-nil for pattern bindings
	Annotation Type    // optional
	Recursive  bool
	Value      Expr
}

// LetIn is `let x = e1 in e2`, scoped and itself a value-producing
// expression.
type LetIn struct {
	base
	Name       Ident
	Annotation Type
	Recursive  bool
	Value      Expr
	Body       Expr
}

func (Lambda) exprNode() {}
func (Apply) exprNode()  {}
func (Let) exprNode()    {}
func (LetIn) exprNode()  {}

// --- control flow ---

type If struct {
	base
	Cond, Then, Else Expr
}

type MatchArm struct {
	Pattern Pattern
	Body    Expr
}

type Match struct {
	base
	Scrutinee Expr
	Arms      []MatchArm
}

func (If) exprNode()    {}
func (Match) exprNode() {}

// --- data ---

type ListLit struct {
	base
	Elems []Expr
}

type Cons struct {
	base
	Head, Tail Expr
}

// RecordField preserves declaration order in the AST (for hashing) even
// though record *type* equality is order-independent (spec.md §3).
type RecordField struct {
	Name  string
	Value Expr
}

type RecordLit struct {
	base
	Fields []RecordField
}

type FieldAccess struct {
	base
	Record Expr
	Field  string
}

// RecordUpdate is `r with { f1 = v1, f2 = v2, ... }`.
type RecordUpdate struct {
	base
	Record Expr
	Fields []RecordField
}

func (ListLit) exprNode()      {}
func (Cons) exprNode()         {}
func (RecordLit) exprNode()    {}
func (FieldAccess) exprNode()  {}
func (RecordUpdate) exprNode() {}

// --- nominal types & constructors ---

type ConstructorDef struct {
	Name   Ident
	Fields []Type
}

// TypeDef introduces a new nominal ADT with one or more constructors.
type TypeDef struct {
	base
	Name         Ident
	TypeParams   []string
	Constructors []ConstructorDef
}

type ConstructorApp struct {
	base
	Name Ident
	Args []Expr
}

func (TypeDef) exprNode()       {}
func (ConstructorApp) exprNode() {}

// --- modules & imports ---

type ModuleDef struct {
	base
	Name     Ident
	Bindings []Expr
	Exports  []Ident
}

// Import optionally pins a dependency to a specific committed hash
// (`import M@hexhash`, spec.md §6), stored as a version edge (spec.md §4.4).
type Import struct {
	base
	Path  string
	Alias Ident
	Hash  string // "" if unpinned
}

func (ModuleDef) exprNode() {}
func (Import) exprNode()    {}

// --- effects ---

type Perform struct {
	base
	Effect Ident
	Op     string
	Args   []Expr
}

type HandleArm struct {
	Effect       Ident
	Op           string
	Params       []Ident
	Continuation Ident
	Body         Expr
}

type Handle struct {
	base
	Body Expr
	Arms []HandleArm
}

func (Perform) exprNode() {}
func (Handle) exprNode()  {}

// Program is the root of a parsed file: an ordered list of statement-shaped
// expressions (Let/TypeDef/Import/ModuleDef), optionally followed by a
// trailing bare expression (REPL/`run` entry point).
type Program struct {
	File       string
	Statements []Expr
}

// NewSpan is a small constructor helper used by the parser.
func NewSpan(file string, sl, sc, el, ec int) Span {
	return Span{File: file, StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec}
}
