package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vibe-lang/vibe/internal/lang"
)

// Object is a runtime value. Closed set dispatched by type switch, the same
// shape as internal/lang's Expr/Type sums (see internal/lang's doc comment)
// rather than an interface method per operation.
type Object interface {
	Kind() string
	String() string
}

type Int struct{ Value int64 }
type Float struct{ Value float64 }
type Bool struct{ Value bool }
type String struct{ Value string }
type Unit struct{}

func (Int) Kind() string    { return "Int" }
func (Float) Kind() string  { return "Float" }
func (Bool) Kind() string   { return "Bool" }
func (String) Kind() string { return "String" }
func (Unit) Kind() string   { return "Unit" }

func (v Int) String() string    { return fmt.Sprintf("%d", v.Value) }
func (v Float) String() string  { return fmt.Sprintf("%g", v.Value) }
func (v Bool) String() string   { return fmt.Sprintf("%t", v.Value) }
func (v String) String() string { return fmt.Sprintf("%q", v.Value) }
func (Unit) String() string     { return "()" }

// List is a persistent singly-linked cons list (spec.md §3's List type),
// mirroring the surface `h :: t` / `[a, b]` forms directly rather than a
// Go slice, so that sharing a tail costs O(1).
type List struct {
	Head Object
	Tail *List // nil marks Nil
}

func (l *List) Kind() string { return "List" }
func (l *List) String() string {
	var parts []string
	for n := l; n != nil; n = n.Tail {
		parts = append(parts, n.Head.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ToSlice flattens a List into a Go slice (nil List is empty).
func (l *List) ToSlice() []Object {
	var out []Object
	for n := l; n != nil; n = n.Tail {
		out = append(out, n.Head)
	}
	return out
}

// FromSlice builds a List from a Go slice, right to left.
func FromSlice(items []Object) *List {
	var l *List
	for i := len(items) - 1; i >= 0; i-- {
		l = &List{Head: items[i], Tail: l}
	}
	return l
}

// Record is an immutable field map; RecordUpdate copies the map with the
// updated fields (spec.md §3: records are structurally typed and, like
// every other value here, persistent).
type Record struct{ Fields map[string]Object }

func (r *Record) Kind() string { return "Record" }
func (r *Record) String() string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, r.Fields[k].String())
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// Constructor is a saturated or partially-applied ADT constructor value.
type Constructor struct {
	Name string
	Args []Object
}

func (c *Constructor) Kind() string { return "Constructor" }
func (c *Constructor) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + " " + strings.Join(parts, " ")
}

// Closure is a user-defined single-argument lambda capturing its defining
// environment, the unit of call-by-value reduction (spec.md §4.6).
type Closure struct {
	Param string
	Body  lang.Expr
	Env   *Env
}

func (c *Closure) Kind() string   { return "Closure" }
func (c *Closure) String() string { return "<closure>" }

// Native is a builtin function of fixed arity, applied one curried argument
// at a time like any user Closure (spec.md §4.6's note that builtins and
// closures share one application rule).
type Native struct {
	Name  string
	Arity int
	Fn    func(args []Object) (Object, error)
	got   []Object
}

func (n *Native) Kind() string   { return "Native" }
func (n *Native) String() string { return "<builtin " + n.Name + ">" }

// Apply1 feeds one more argument to a Native, returning either a more
// partially-applied Native or the fully-applied result.
func (n *Native) Apply1(arg Object) (Object, error) {
	got := append(append([]Object{}, n.got...), arg)
	if len(got) < n.Arity {
		return &Native{Name: n.Name, Arity: n.Arity, Fn: n.Fn, got: got}, nil
	}
	return n.Fn(got)
}

// Continuation is a one-shot resumable handler continuation (spec.md §9's
// Open Question decision: one-shot only). Calling it a second time is a
// runtime error, enforced by the used flag.
type Continuation struct {
	Resume func(Object) (Object, error)
	used   *bool
}

func (c *Continuation) Kind() string   { return "Continuation" }
func (c *Continuation) String() string { return "<continuation>" }

func NewContinuation(resume func(Object) (Object, error)) *Continuation {
	used := false
	return &Continuation{Resume: resume, used: &used}
}

// Call invokes the continuation, failing if it has already been used once.
func (c *Continuation) Call(v Object) (Object, error) {
	if *c.used {
		return nil, fmt.Errorf("continuation invoked more than once")
	}
	*c.used = true
	return c.Resume(v)
}
