package eval

import (
	"context"
	"testing"

	"github.com/vibe-lang/vibe/internal/lang"
)

func plus(a, b lang.Expr) lang.Expr {
	return lang.NewApply(lang.Zero, lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "(+)"), a), b)
}

func times(a, b lang.Expr) lang.Expr {
	return lang.NewApply(lang.Zero, lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "(*)"), a), b)
}

func TestEvalPureArithmetic(t *testing.T) {
	// spec.md §8 scenario 1: let r = 1 + 2 * 3
	it := NewInterpreter()
	env := it.GlobalEnv()
	expr := plus(lang.NewIntLit(lang.Zero, 1), times(lang.NewIntLit(lang.Zero, 2), lang.NewIntLit(lang.Zero, 3)))
	v, err := it.Eval(context.Background(), env, expr)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.String() != "7" {
		t.Fatalf("want 7, got %s", v.String())
	}
}

func TestEvalPolymorphicIdentity(t *testing.T) {
	// spec.md §8 scenario 2: let id = fn x -> x
	it := NewInterpreter()
	env := it.GlobalEnv()
	id := lang.NewLambda(lang.Zero, "x", lang.NewVar(lang.Zero, "x"))

	closure, err := it.Eval(context.Background(), env, id)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	five, err := it.apply(context.Background(), closure, Int{5})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if five.String() != "5" {
		t.Fatalf("want 5, got %s", five.String())
	}
	str, err := it.apply(context.Background(), closure, String{"hi"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if str.String() != `"hi"` {
		t.Fatalf("want quoted hi, got %s", str.String())
	}
}

func TestEvalListConsAndLength(t *testing.T) {
	it := NewInterpreter()
	env := it.GlobalEnv()
	list := lang.NewListLit(lang.Zero, []lang.Expr{
		lang.NewIntLit(lang.Zero, 10), lang.NewIntLit(lang.Zero, 20), lang.NewIntLit(lang.Zero, 30),
	})
	v, err := it.Eval(context.Background(), env, list)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	l, ok := v.(*List)
	if !ok {
		t.Fatalf("want *List, got %T", v)
	}
	if len(l.ToSlice()) != 3 {
		t.Fatalf("want 3 elements, got %d", len(l.ToSlice()))
	}
}

func TestEvalPerformUnhandledSurfacesAsEffectSignal(t *testing.T) {
	it := NewInterpreter()
	env := it.GlobalEnv()
	perform := lang.NewPerform(lang.Zero, "IO", "print", []lang.Expr{lang.NewStringLit(lang.Zero, "hi")})
	_, err := it.Eval(context.Background(), env, perform)
	if _, ok := err.(*EffectSignal); !ok {
		t.Fatalf("want *EffectSignal, got %T (%v)", err, err)
	}
}

func TestEvalHandleDischargesPerform(t *testing.T) {
	// spec.md §8 scenario 4's counterpart at the evaluator level: a handled
	// IO.print performs without an error escaping to the caller.
	it := NewInterpreter()
	env := it.GlobalEnv()

	body := lang.NewPerform(lang.Zero, "IO", "print", []lang.Expr{lang.NewStringLit(lang.Zero, "hi")})
	handle := lang.NewHandle(lang.Zero, body, []lang.HandleArm{
		{Effect: "IO", Op: "print", Params: []lang.Ident{"msg"}, Continuation: "k", Body: lang.NewUnitLit(lang.Zero)},
	})

	v, err := it.Eval(context.Background(), env, handle)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Kind() != "Unit" {
		t.Fatalf("want Unit, got %s", v.Kind())
	}
}

func TestEvalMatchConstructorDestructuring(t *testing.T) {
	it := NewInterpreter()
	env := it.GlobalEnv()

	some := lang.NewConstructorApp(lang.Zero, "Some", []lang.Expr{lang.NewIntLit(lang.Zero, 9)})
	match := lang.NewMatch(lang.Zero, some, []lang.MatchArm{
		{Pattern: lang.NewPConstructor(lang.Zero, "None", nil), Body: lang.NewIntLit(lang.Zero, 0)},
		{
			Pattern: lang.NewPConstructor(lang.Zero, "Some", []lang.Pattern{lang.NewPVar(lang.Zero, "n")}),
			Body:    lang.NewVar(lang.Zero, "n"),
		},
	})
	v, err := it.Eval(context.Background(), env, match)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.String() != "9" {
		t.Fatalf("want 9, got %s", v.String())
	}
}

func TestEvalRecursiveLength(t *testing.T) {
	// spec.md §8 scenario 3: rec length xs = match xs { [] -> 0; h :: t -> 1 + length t }
	it := NewInterpreter()
	env := it.GlobalEnv()

	body := lang.NewMatch(lang.Zero, lang.NewVar(lang.Zero, "xs"), []lang.MatchArm{
		{Pattern: lang.NewPNil(lang.Zero), Body: lang.NewIntLit(lang.Zero, 0)},
		{
			Pattern: lang.NewPCons(lang.Zero, lang.NewPVar(lang.Zero, "h"), lang.NewPVar(lang.Zero, "t")),
			Body: plus(lang.NewIntLit(lang.Zero, 1),
				lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "length"), lang.NewVar(lang.Zero, "t"))),
		},
	})
	lengthFn := lang.NewLambda(lang.Zero, "xs", body)

	v, err := it.evalRecursive(context.Background(), env, "length", lengthFn)
	if err != nil {
		t.Fatalf("evalRecursive: %v", err)
	}
	lst := FromSlice([]Object{Int{10}, Int{20}, Int{30}})
	result, err := it.apply(context.Background(), v, lst)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.String() != "3" {
		t.Fatalf("want 3, got %s", result.String())
	}
}

func TestEvalTopLevelRecursiveLetBindsSelf(t *testing.T) {
	// a recursive `let` with no `in` (the form a top-level script statement
	// takes) must still see its own name inside its body, matching LetIn's
	// recursive behavior.
	it := NewInterpreter()
	env := it.GlobalEnv()

	body := lang.NewMatch(lang.Zero, lang.NewVar(lang.Zero, "xs"), []lang.MatchArm{
		{Pattern: lang.NewPNil(lang.Zero), Body: lang.NewIntLit(lang.Zero, 0)},
		{
			Pattern: lang.NewPCons(lang.Zero, lang.NewPVar(lang.Zero, "h"), lang.NewPVar(lang.Zero, "t")),
			Body: plus(lang.NewIntLit(lang.Zero, 1),
				lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "length"), lang.NewVar(lang.Zero, "t"))),
		},
	})
	let := lang.NewLet(lang.Zero, "length", nil, nil, true, lang.NewLambda(lang.Zero, "xs", body))

	closure, err := it.Eval(context.Background(), env, let)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	result, err := it.apply(context.Background(), closure, FromSlice([]Object{Int{10}, Int{20}, Int{30}}))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.String() != "3" {
		t.Fatalf("want 3, got %s", result.String())
	}
}

func TestEvalHandleResumeContinuesEnclosingArithmetic(t *testing.T) {
	// spec.md §4.6: the continuation bound in a handler arm represents the
	// rest of the computation from the point of the perform, not just the
	// handler body. `1 + perform State.get ()` resumed via `k 42` must
	// continue the pending `1 + _` and yield 43, never bare 42.
	it := NewInterpreter()
	env := it.GlobalEnv()

	body := plus(lang.NewIntLit(lang.Zero, 1),
		lang.NewPerform(lang.Zero, "State", "get", nil))
	handle := lang.NewHandle(lang.Zero, body, []lang.HandleArm{
		{
			Effect: "State", Op: "get", Params: nil, Continuation: "k",
			Body: lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "k"), lang.NewIntLit(lang.Zero, 42)),
		},
	})

	v, err := it.Eval(context.Background(), env, handle)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.String() != "43" {
		t.Fatalf("want 43, got %s", v.String())
	}
}

func TestEvalHandleResumeAcrossRepeatedPerform(t *testing.T) {
	// the handler must stay active while resuming, not only for the first
	// perform: `perform State.get () + perform State.get ()`, each resumed
	// via `k 5`, must dispatch back through the same handler twice and
	// yield 10, not fail or hang after the first resume.
	it := NewInterpreter()
	env := it.GlobalEnv()

	get := lang.NewPerform(lang.Zero, "State", "get", nil)
	body := plus(get, get)
	handle := lang.NewHandle(lang.Zero, body, []lang.HandleArm{
		{
			Effect: "State", Op: "get", Params: nil, Continuation: "k",
			Body: lang.NewApply(lang.Zero, lang.NewVar(lang.Zero, "k"), lang.NewIntLit(lang.Zero, 5)),
		},
	})

	v, err := it.Eval(context.Background(), env, handle)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.String() != "10" {
		t.Fatalf("want 10, got %s", v.String())
	}
}

func TestApplyContinuationResumesViaK(t *testing.T) {
	// the documented way to resume a handler (`k val`) is parsed as an
	// ordinary Apply of the continuation value; apply must accept it.
	it := NewInterpreter()
	cont := NewContinuation(func(v Object) (Object, error) { return v, nil })
	v, err := it.apply(context.Background(), cont, Int{7})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v.String() != "7" {
		t.Fatalf("want 7, got %s", v.String())
	}
}

func TestContinuationSingleUse(t *testing.T) {
	cont := NewContinuation(func(v Object) (Object, error) { return v, nil })
	if _, err := cont.Call(Unit{}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := cont.Call(Unit{}); err == nil {
		t.Fatal("want an error calling a one-shot continuation twice")
	}
}
