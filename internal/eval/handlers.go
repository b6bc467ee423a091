package eval

import (
	"context"
	"fmt"

	"github.com/vibe-lang/vibe/internal/lang"
)

// EffectSignal unwinds the Go call stack when a `perform` is evaluated with
// no enclosing `handle` for its effect yet found; evalHandle catches it at
// the nearest enclosing handler and resumes via a one-shot Continuation
// (spec.md §9's Open Question decision: one-shot continuations only, no
// multi-shot re-entry). Cont is the genuine rest of the computation from the
// point of the perform, captured by evalK's continuation-passing evaluation
// rather than reconstructed by re-running the handler body — resuming it
// picks back up exactly where the perform occurred, including any pending
// arithmetic or enclosing calls (spec.md §4.6: "a continuation value
// representing the rest of the computation").
type EffectSignal struct {
	Effect string
	Op     string
	Args   []lang.Expr
	Env    *Env
	Cont   cont
}

func (s *EffectSignal) Error() string {
	return fmt.Sprintf("unhandled effect %s.%s", s.Effect, s.Op)
}

// evalHandle evaluates body under a handler scope: a `perform` anywhere
// inside body (including inside nested function calls, arithmetic, and list
// or record construction — anywhere evalK threads a continuation) that
// matches one of arms's (Effect, Op) pairs transfers control to that arm,
// binding its Params to the performed arguments and its Continuation name to
// a callable that resumes evaluation from the exact point of the perform.
func (it *Interpreter) evalHandle(ctx context.Context, env *Env, h lang.Handle) (Object, error) {
	return it.evalHandleK(ctx, env, h, identityK)
}

// evalHandleK is evalHandle's continuation-passing form: k is what happens
// after the whole `handle` expression produces a value, composed onto
// whatever the handled body (or a resumed arm) ultimately returns. h.Body
// itself is evaluated with the identity continuation — its "rest of the
// computation" is only ever k once the handler has finished with it; what a
// `perform` inside body captures is the computation up to and including
// returning from this handle, not k itself.
func (it *Interpreter) evalHandleK(ctx context.Context, env *Env, h lang.Handle, k cont) (Object, error) {
	result, err := it.evalK(ctx, env, h.Body, identityK)
	result, err = it.handleResult(ctx, env, h, result, err)
	if err != nil {
		return nil, err
	}
	return k(result)
}

// handleResult inspects the outcome of evaluating a handled body (or of
// resuming a previously captured continuation): a non-effect outcome passes
// through unchanged. An EffectSignal matching one of h.Arms is dispatched to
// that arm, with the arm's Continuation name bound to a Continuation that,
// when called, resumes sig.Cont and routes whatever it produces back through
// handleResult — so the handler stays active across any further performs
// raised while resuming (a loop performing the same effect more than once,
// or the arm body itself performing again), not only the first one.
func (it *Interpreter) handleResult(ctx context.Context, env *Env, h lang.Handle, result Object, err error) (Object, error) {
	sig, isEffect := err.(*EffectSignal)
	if !isEffect {
		return result, err
	}

	for _, arm := range h.Arms {
		if string(arm.Effect) != sig.Effect || arm.Op != sig.Op {
			continue
		}
		argVals := make([]Object, len(sig.Args))
		for i, a := range sig.Args {
			v, evalErr := it.Eval(ctx, sig.Env, a)
			if evalErr != nil {
				return nil, evalErr
			}
			argVals[i] = v
		}
		armEnv := env
		for i, p := range arm.Params {
			if i < len(argVals) {
				armEnv = armEnv.Extend(string(p), argVals[i])
			}
		}
		resume := sig.Cont
		resumed := NewContinuation(func(resumeVal Object) (Object, error) {
			r, e := resume(resumeVal)
			return it.handleResult(ctx, env, h, r, e)
		})
		armEnv = armEnv.Extend(string(arm.Continuation), resumed)
		armResult, armErr := it.Eval(ctx, armEnv, arm.Body)
		return it.handleResult(ctx, env, h, armResult, armErr)
	}
	return nil, sig
}
