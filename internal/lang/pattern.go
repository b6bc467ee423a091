package lang

// Pattern is implemented by every member of the pattern sum (spec.md §3):
// wildcard, variable, literal, nil list, cons, fixed-length list with
// optional rest, constructor application, record destructuring, as-pattern.
type Pattern interface {
	Span() Span
	patternNode()
}

type pbase struct{ Pos Span }

func (b pbase) Span() Span { return b.Pos }

type PWildcard struct{ pbase }

type PVar struct {
	pbase
	Name Ident
}

// PLiteral matches a literal value: int, float, bool, string, or unit.
type PLiteral struct {
	pbase
	Value Expr // IntLit / FloatLit / BoolLit / StringLit / UnitLit
}

// PNil matches the empty list.
type PNil struct{ pbase }

// PCons matches `h :: t`.
type PCons struct {
	pbase
	Head, Tail Pattern
}

// PList matches a fixed-length list with an optional rest binding:
// [a, b, ...rest].
type PList struct {
	pbase
	Elems []Pattern
	Rest  *Ident
}

type PConstructor struct {
	pbase
	Name Ident
	Args []Pattern
}

type PatternField struct {
	Name    string
	Pattern Pattern
}

type PRecord struct {
	pbase
	Fields []PatternField
}

// PAs binds the whole matched value to Name in addition to matching Inner.
type PAs struct {
	pbase
	Inner Pattern
	Name  Ident
}

func (PWildcard) patternNode()    {}
func (PVar) patternNode()         {}
func (PLiteral) patternNode()     {}
func (PNil) patternNode()         {}
func (PCons) patternNode()        {}
func (PList) patternNode()        {}
func (PConstructor) patternNode() {}
func (PRecord) patternNode()      {}
func (PAs) patternNode()          {}

// Vars returns every variable name bound by the pattern, in left-to-right
// order, including names introduced by as-patterns and rest bindings.
func Vars(p Pattern) []Ident {
	var out []Ident
	WalkPattern(p, func(p Pattern) bool {
		switch pt := p.(type) {
		case PVar:
			out = append(out, pt.Name)
		case PAs:
			out = append(out, pt.Name)
		case PList:
			if pt.Rest != nil {
				out = append(out, *pt.Rest)
			}
		}
		return true
	})
	return out
}
