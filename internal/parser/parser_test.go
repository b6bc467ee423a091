package parser

import (
	"testing"

	"github.com/vibe-lang/vibe/internal/diag"
	"github.com/vibe-lang/vibe/internal/lang"
)

func mustParseExpr(t *testing.T, src string) lang.Expr {
	t.Helper()
	e, errs := ParseExpr("t.knot", src)
	if diag.HasErrors(errs) {
		t.Fatalf("ParseExpr(%q): %v", src, errs)
	}
	return e
}

func TestParseLambdaSingleParam(t *testing.T) {
	e := mustParseExpr(t, "fn x -> x")
	lam, ok := e.(lang.Lambda)
	if !ok {
		t.Fatalf("want lang.Lambda, got %T", e)
	}
	if lam.Param != "x" {
		t.Fatalf("want param x, got %s", lam.Param)
	}
	if _, ok := lam.Body.(lang.Var); !ok {
		t.Fatalf("want body Var, got %T", lam.Body)
	}
}

func TestParseLambdaMultiParamCurries(t *testing.T) {
	e := mustParseExpr(t, "fn x y -> x")
	outer, ok := e.(lang.Lambda)
	if !ok {
		t.Fatalf("want outer lang.Lambda, got %T", e)
	}
	if outer.Param != "x" {
		t.Fatalf("want outer param x, got %s", outer.Param)
	}
	inner, ok := outer.Body.(lang.Lambda)
	if !ok {
		t.Fatalf("want nested lang.Lambda for the second param, got %T", outer.Body)
	}
	if inner.Param != "y" {
		t.Fatalf("want inner param y, got %s", inner.Param)
	}
}

func TestParseLambdaAppliedImmediately(t *testing.T) {
	e := mustParseExpr(t, "(fn x -> x * 2) 21")
	apply, ok := e.(lang.Apply)
	if !ok {
		t.Fatalf("want lang.Apply, got %T", e)
	}
	if _, ok := apply.Fn.(lang.Lambda); !ok {
		t.Fatalf("want applied fn to be a Lambda, got %T", apply.Fn)
	}
}

func TestParseLetCurriedSugarDesugarsToNestedLambdas(t *testing.T) {
	prog, errs := ParseProgram("t.knot", "let add x y = x + y")
	if diag.HasErrors(errs) {
		t.Fatalf("ParseProgram: %v", errs)
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("want 1 statement, got %d", len(prog.Statements))
	}
	let, ok := prog.Statements[0].(lang.Let)
	if !ok {
		t.Fatalf("want lang.Let, got %T", prog.Statements[0])
	}
	if let.Name != "add" {
		t.Fatalf("want name add, got %s", let.Name)
	}
	outer, ok := let.Value.(lang.Lambda)
	if !ok {
		t.Fatalf("want curried sugar to desugar to a Lambda, got %T", let.Value)
	}
	if outer.Param != "x" {
		t.Fatalf("want outer param x, got %s", outer.Param)
	}
	if _, ok := outer.Body.(lang.Lambda); !ok {
		t.Fatalf("want nested Lambda for second param, got %T", outer.Body)
	}
}

func TestParseLetSingleNameUnaffectedByCurriedSugar(t *testing.T) {
	prog, errs := ParseProgram("t.knot", "let r = 1 + 2")
	if diag.HasErrors(errs) {
		t.Fatalf("ParseProgram: %v", errs)
	}
	let := prog.Statements[0].(lang.Let)
	if _, ok := let.Value.(lang.Lambda); ok {
		t.Fatal("a zero-parameter let must not be wrapped in a Lambda")
	}
}

func TestParseHandleSplitsParamsFromContinuation(t *testing.T) {
	e := mustParseExpr(t, `handle perform IO.print "hi" { IO.print msg k -> 42 }`)
	h, ok := e.(lang.Handle)
	if !ok {
		t.Fatalf("want lang.Handle, got %T", e)
	}
	if len(h.Arms) != 1 {
		t.Fatalf("want 1 arm, got %d", len(h.Arms))
	}
	arm := h.Arms[0]
	if len(arm.Params) != 1 || arm.Params[0] != "msg" {
		t.Fatalf("want Params [msg], got %v", arm.Params)
	}
	if arm.Continuation != "k" {
		t.Fatalf("want continuation k, got %s", arm.Continuation)
	}
}

func TestParseHandleNoEffectParams(t *testing.T) {
	e := mustParseExpr(t, `handle perform IO.tick { IO.tick k -> 0 }`)
	h := e.(lang.Handle)
	arm := h.Arms[0]
	if len(arm.Params) != 0 {
		t.Fatalf("want no effect params, got %v", arm.Params)
	}
	if arm.Continuation != "k" {
		t.Fatalf("want continuation k, got %s", arm.Continuation)
	}
}

func TestParseRecursiveTopLevelLet(t *testing.T) {
	prog, errs := ParseProgram("t.knot", "let rec length xs = match xs { [] -> 0; h :: t -> 1 + length t }")
	if diag.HasErrors(errs) {
		t.Fatalf("ParseProgram: %v", errs)
	}
	let := prog.Statements[0].(lang.Let)
	if !let.Recursive {
		t.Fatal("want Recursive true")
	}
	if _, ok := let.Value.(lang.Lambda); !ok {
		t.Fatalf("want curried param xs to desugar to a Lambda, got %T", let.Value)
	}
}
