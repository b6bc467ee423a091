package lang

// WalkExpr visits e and every sub-expression in pre-order. fn returns false
// to skip descending into the current node's children. The codebase's
// AST-predicate search (C4) uses it; normalization and the pretty-printer
// do their own type switches. It is a type-switch walker in the same
// style as the teacher's typesystem.ApplyWithCycleCheck, rather than a full
// double-dispatch Visitor hierarchy (see internal/lang doc comment).
func WalkExpr(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case Lambda:
		WalkExpr(n.Body, fn)
	case Apply:
		WalkExpr(n.Fn, fn)
		WalkExpr(n.Arg, fn)
	case Let:
		WalkExpr(n.Value, fn)
	case LetIn:
		WalkExpr(n.Value, fn)
		WalkExpr(n.Body, fn)
	case If:
		WalkExpr(n.Cond, fn)
		WalkExpr(n.Then, fn)
		WalkExpr(n.Else, fn)
	case Match:
		WalkExpr(n.Scrutinee, fn)
		for _, arm := range n.Arms {
			WalkPattern(arm.Pattern, func(Pattern) bool { return true })
			WalkExpr(arm.Body, fn)
		}
	case ListLit:
		for _, el := range n.Elems {
			WalkExpr(el, fn)
		}
	case Cons:
		WalkExpr(n.Head, fn)
		WalkExpr(n.Tail, fn)
	case RecordLit:
		for _, f := range n.Fields {
			WalkExpr(f.Value, fn)
		}
	case FieldAccess:
		WalkExpr(n.Record, fn)
	case RecordUpdate:
		WalkExpr(n.Record, fn)
		for _, f := range n.Fields {
			WalkExpr(f.Value, fn)
		}
	case ConstructorApp:
		for _, a := range n.Args {
			WalkExpr(a, fn)
		}
	case ModuleDef:
		for _, b := range n.Bindings {
			WalkExpr(b, fn)
		}
	case Perform:
		for _, a := range n.Args {
			WalkExpr(a, fn)
		}
	case Handle:
		WalkExpr(n.Body, fn)
		for _, arm := range n.Arms {
			WalkExpr(arm.Body, fn)
		}
	case HashRef, DepRef, Var, QualifiedVar, IntLit, FloatLit, BoolLit, StringLit, UnitLit, TypeDef, Import:
		// leaves
	}
}

// WalkPattern visits p and its sub-patterns in pre-order.
func WalkPattern(p Pattern, fn func(Pattern) bool) {
	if p == nil || !fn(p) {
		return
	}
	switch n := p.(type) {
	case PCons:
		WalkPattern(n.Head, fn)
		WalkPattern(n.Tail, fn)
	case PList:
		for _, e := range n.Elems {
			WalkPattern(e, fn)
		}
	case PConstructor:
		for _, a := range n.Args {
			WalkPattern(a, fn)
		}
	case PRecord:
		for _, f := range n.Fields {
			WalkPattern(f.Pattern, fn)
		}
	case PAs:
		WalkPattern(n.Inner, fn)
	}
}

// FreeIdents returns every free Var/QualifiedVar name referenced by e,
// excluding names bound by enclosing Lambda/Let/LetIn/Match-arm/Handle-arm
// parameters within e itself. Used by the hasher's dependency extraction
// (spec.md §4.2) and by the workspace's free-name resolution (§4.7).
func FreeIdents(e Expr) []Ident {
	bound := map[Ident]int{}
	var out []Ident
	seen := map[Ident]bool{}

	var walk func(e Expr)
	bind := func(name Ident, body func()) {
		bound[name]++
		body()
		bound[name]--
	}

	walk = func(e Expr) {
		switch n := e.(type) {
		case Var:
			if bound[n.Name] == 0 && !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
		case QualifiedVar:
			if bound[n.Path] == 0 && !seen[n.Path] {
				seen[n.Path] = true
				out = append(out, n.Path)
			}
		case Lambda:
			bind(n.Param, func() { walk(n.Body) })
		case Apply:
			walk(n.Fn)
			walk(n.Arg)
		case Let:
			if n.Recursive {
				bind(n.Name, func() { walk(n.Value) })
			} else {
				walk(n.Value)
			}
		case LetIn:
			if n.Recursive {
				bind(n.Name, func() { walk(n.Value) })
			} else {
				walk(n.Value)
			}
			bind(n.Name, func() { walk(n.Body) })
		case If:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case Match:
			walk(n.Scrutinee)
			for _, arm := range n.Arms {
				vars := Vars(arm.Pattern)
				for _, v := range vars {
					bound[v]++
				}
				walk(arm.Body)
				for _, v := range vars {
					bound[v]--
				}
			}
		case ListLit:
			for _, el := range n.Elems {
				walk(el)
			}
		case Cons:
			walk(n.Head)
			walk(n.Tail)
		case RecordLit:
			for _, f := range n.Fields {
				walk(f.Value)
			}
		case FieldAccess:
			walk(n.Record)
		case RecordUpdate:
			walk(n.Record)
			for _, f := range n.Fields {
				walk(f.Value)
			}
		case ConstructorApp:
			for _, a := range n.Args {
				walk(a)
			}
		case Perform:
			for _, a := range n.Args {
				walk(a)
			}
		case Handle:
			walk(n.Body)
			for _, arm := range n.Arms {
				bound[arm.Continuation]++
				for _, p := range arm.Params {
					bound[p]++
				}
				walk(arm.Body)
				for _, p := range arm.Params {
					bound[p]--
				}
				bound[arm.Continuation]--
			}
		}
	}
	walk(e)
	return out
}
