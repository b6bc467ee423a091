// Package parser is a hand-written recursive-descent parser turning a
// lexer.Token stream into internal/lang trees. Grounded on the teacher's
// internal/parser package (expressions_core.go's precedence-climbing
// binary-operator parser, statements.go's top-level statement dispatch,
// expressions_control.go's if/match parsing), reduced to the grammar
// summarized in spec.md §6.
package parser

import (
	"fmt"

	"github.com/vibe-lang/vibe/internal/diag"
	"github.com/vibe-lang/vibe/internal/lang"
	"github.com/vibe-lang/vibe/internal/lexer"
)

type Parser struct {
	file   string
	toks   []lexer.Token
	pos    int
	errors []*diag.Error
}

func New(file, src string) *Parser {
	lx := lexer.New(file, src)
	return &Parser{file: file, toks: lx.All()}
}

func (p *Parser) Errors() []*diag.Error { return p.errors }

func (p *Parser) cur() lexer.Token { return p.toks[p.pos] }

func (p *Parser) peek(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) expect(k lexer.Kind) lexer.Token {
	if !p.at(k) {
		t := p.cur()
		p.errorf(t, "expected %s, found %s %q", k, t.Kind, t.Lexeme)
		return t
	}
	return p.advance()
}

func (p *Parser) errorf(t lexer.Token, format string, args ...interface{}) {
	span := diag.Span{File: p.file, StartLine: t.Line, StartCol: t.Col, EndLine: t.Line, EndCol: t.Col + len(t.Lexeme)}
	p.errors = append(p.errors, diag.New(diag.Syntax, span, "%s", fmt.Sprintf(format, args...)))
}

// spanFrom builds a span covering everything from start up to (not
// including) the current token.
func (p *Parser) spanFrom(start lexer.Token) lang.Span {
	endIdx := p.pos - 1
	if endIdx < 0 {
		endIdx = 0
	}
	end := p.toks[endIdx]
	return lang.NewSpan(p.file, start.Line, start.Col, end.Line, end.Col+len(end.Lexeme))
}

// ParseProgram parses a whole file: a sequence of statements, optionally
// followed by a trailing bare expression (the REPL/`run` entry point).
func ParseProgram(file, src string) (*lang.Program, []*diag.Error) {
	p := New(file, src)
	prog := &lang.Program{File: file}
	for !p.at(lexer.EOF) {
		before := p.pos
		stmt := p.parseStatement()
		prog.Statements = append(prog.Statements, stmt)
		if p.pos == before {
			p.advance() // avoid an infinite loop on unrecoverable tokens
		}
		if p.at(lexer.SEMI) {
			p.advance()
		}
	}
	return prog, p.errors
}

// ParseExpr parses a single standalone expression (used by the `run`/`shell`
// entry points and tests).
func ParseExpr(file, src string) (lang.Expr, []*diag.Error) {
	p := New(file, src)
	e := p.parseExpr()
	return e, p.errors
}

// parseStatement dispatches on the leading keyword for constructs that
// only make sense at statement position (let/type/module/import); anything
// else is parsed as a bare expression.
func (p *Parser) parseStatement() lang.Expr {
	switch p.cur().Kind {
	case lexer.LET:
		return p.parseLetStatement()
	case lexer.TYPE:
		return p.parseTypeDef()
	case lexer.MODULE:
		return p.parseModuleDef()
	case lexer.IMPORT:
		return p.parseImport()
	default:
		return p.parseExpr()
	}
}

func (p *Parser) parseLetStatement() lang.Expr {
	start := p.cur()
	p.advance() // let
	recursive := false
	if p.at(lexer.REC) {
		recursive = true
		p.advance()
	}

	if p.at(lexer.LBRACKET) || p.at(lexer.TYPENAME) {
		pat := p.parsePattern()
		p.expect(lexer.ASSIGN)
		value := p.parseExpr()
		if p.at(lexer.IN) {
			p.advance()
			body := p.parseExpr()
			vars := lang.Vars(pat)
			name := lang.Ident("_")
			if len(vars) > 0 {
				name = vars[0]
			}
			return lang.NewLetIn(p.spanFrom(start), name, nil, recursive, value, body)
		}
		return lang.NewLet(p.spanFrom(start), "", pat, nil, recursive, value)
	}

	name := lang.Ident(p.expect(lexer.IDENT).Lexeme)

	var params []lang.Ident
	for p.at(lexer.IDENT) {
		params = append(params, lang.Ident(p.advance().Lexeme))
	}

	var ann lang.Type
	if p.at(lexer.COLON) {
		p.advance()
		ann = p.parseType()
	}
	p.expect(lexer.ASSIGN)
	value := p.parseExpr()
	if len(params) > 0 {
		// curried sugar: let name p1 p2 = body  ==  let name = fn p1 p2 -> body
		ann = nil
		for i := len(params) - 1; i >= 0; i-- {
			value = lang.NewLambda(p.spanFrom(start), params[i], value)
		}
	}
	if p.at(lexer.IN) {
		p.advance()
		body := p.parseExpr()
		return lang.NewLetIn(p.spanFrom(start), name, ann, recursive, value, body)
	}
	return lang.NewLet(p.spanFrom(start), name, nil, ann, recursive, value)
}

func (p *Parser) parseTypeDef() lang.Expr {
	start := p.cur()
	p.advance() // type
	name := lang.Ident(p.expect(lexer.TYPENAME).Lexeme)
	var params []string
	for p.at(lexer.IDENT) {
		params = append(params, p.advance().Lexeme)
	}
	p.expect(lexer.ASSIGN)
	var ctors []lang.ConstructorDef
	for {
		cname := lang.Ident(p.expect(lexer.TYPENAME).Lexeme)
		var fields []lang.Type
		for p.atTypeAtomStart() {
			fields = append(fields, p.parseTypeAtom())
		}
		ctors = append(ctors, lang.ConstructorDef{Name: cname, Fields: fields})
		if p.at(lexer.PIPE) {
			p.advance()
			continue
		}
		break
	}
	return lang.NewTypeDef(p.spanFrom(start), name, params, ctors)
}

func (p *Parser) parseModuleDef() lang.Expr {
	start := p.cur()
	p.advance() // module
	name := lang.Ident(p.expect(lexer.TYPENAME).Lexeme)
	p.expect(lexer.LBRACE)
	var bindings []lang.Expr
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		bindings = append(bindings, p.parseStatement())
		if p.at(lexer.SEMI) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return lang.NewModuleDef(p.spanFrom(start), name, bindings, nil)
}

func (p *Parser) parseImport() lang.Expr {
	start := p.cur()
	p.advance() // import
	path := p.expect(lexer.STRING).Lexeme
	hash := ""
	if p.at(lexer.AT) {
		p.advance()
		hash = p.expect(lexer.HASHREF).Lexeme
	}
	var alias lang.Ident
	if p.at(lexer.AS) {
		p.advance()
		alias = lang.Ident(p.expect(lexer.TYPENAME).Lexeme)
	}
	return lang.NewImport(p.spanFrom(start), path, alias, hash)
}

// --- expressions ---
//
// Precedence, lowest to highest (grounded on the teacher's
// expressions_core.go precedence table, reduced to spec.md §6's operators):
//   cons (::, right-assoc)
//   || (or)
//   && (and)
//   == != (equality)
//   < <= > >= (relational)
//   + - (additive)
//   * / % (multiplicative)
//   unary - !
//   application (left-assoc, juxtaposition)
//   atoms: literals, vars, parens, if/match/let-in/handle, list/record
//          literals, field access, hash refs

func (p *Parser) parseExpr() lang.Expr { return p.parseCons() }

func (p *Parser) parseCons() lang.Expr {
	start := p.cur()
	head := p.parseOr()
	if p.at(lexer.COLONCOLON) {
		p.advance()
		tail := p.parseCons()
		return lang.NewCons(p.spanFrom(start), head, tail)
	}
	return head
}

func (p *Parser) parseOr() lang.Expr {
	start := p.cur()
	left := p.parseAnd()
	for p.at(lexer.OR) {
		p.advance()
		right := p.parseAnd()
		left = p.binOp(start, "||", left, right)
	}
	return left
}

func (p *Parser) parseAnd() lang.Expr {
	start := p.cur()
	left := p.parseEquality()
	for p.at(lexer.AND) {
		p.advance()
		right := p.parseEquality()
		left = p.binOp(start, "&&", left, right)
	}
	return left
}

func (p *Parser) parseEquality() lang.Expr {
	start := p.cur()
	left := p.parseRelational()
	for p.at(lexer.EQ) || p.at(lexer.NEQ) {
		op := p.advance()
		right := p.parseRelational()
		left = p.binOp(start, op.Lexeme, left, right)
	}
	return left
}

func (p *Parser) parseRelational() lang.Expr {
	start := p.cur()
	left := p.parseAdditive()
	for p.at(lexer.LT) || p.at(lexer.LE) || p.at(lexer.GT) || p.at(lexer.GE) {
		op := p.advance()
		right := p.parseAdditive()
		left = p.binOp(start, op.Lexeme, left, right)
	}
	return left
}

func (p *Parser) parseAdditive() lang.Expr {
	start := p.cur()
	left := p.parseMultiplicative()
	for p.at(lexer.PLUS) || p.at(lexer.MINUS) {
		op := p.advance()
		right := p.parseMultiplicative()
		left = p.binOp(start, op.Lexeme, left, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() lang.Expr {
	start := p.cur()
	left := p.parseUnary()
	for p.at(lexer.STAR) || p.at(lexer.SLASH) || p.at(lexer.PERCENT) {
		op := p.advance()
		right := p.parseUnary()
		left = p.binOp(start, op.Lexeme, left, right)
	}
	return left
}

// binOp desugars infix operators to curried applications of a builtin
// operator variable, e.g. `a + b` -> `((+) a) b`, the same desugaring the
// teacher's evaluator expects for operator builtins.
func (p *Parser) binOp(start lexer.Token, op string, l, r lang.Expr) lang.Expr {
	sp := p.spanFrom(start)
	fn := lang.NewApply(sp, lang.NewVar(sp, lang.Ident("("+op+")")), l)
	return lang.NewApply(sp, fn, r)
}

func (p *Parser) parseUnary() lang.Expr {
	start := p.cur()
	if p.at(lexer.MINUS) || p.at(lexer.NOT) {
		op := p.advance()
		operand := p.parseUnary()
		sp := p.spanFrom(start)
		name := "neg"
		if op.Kind == lexer.NOT {
			name = "not"
		}
		return lang.NewApply(sp, lang.NewVar(sp, lang.Ident(name)), operand)
	}
	return p.parseApplication()
}

func (p *Parser) parseApplication() lang.Expr {
	start := p.cur()
	fn := p.parsePostfix()
	for p.atArgStart() {
		arg := p.parsePostfix()
		fn = lang.NewApply(p.spanFrom(start), fn, arg)
	}
	return fn
}

// atArgStart reports whether the current token can begin another
// application argument (juxtaposition), stopping application parsing at
// tokens that only make sense as infix/closing punctuation.
func (p *Parser) atArgStart() bool {
	switch p.cur().Kind {
	case lexer.INT, lexer.FLOAT, lexer.STRING, lexer.IDENT, lexer.TYPENAME,
		lexer.TRUE, lexer.FALSE, lexer.LPAREN, lexer.LBRACKET,
		lexer.HASHREF:
		return true
	case lexer.LBRACE:
		// only a record literal (`{}` or `{ name: ...`); any other brace
		// opens the block of an enclosing if/match/handle
		return p.peek(1).Kind == lexer.RBRACE ||
			(p.peek(1).Kind == lexer.IDENT && p.peek(2).Kind == lexer.COLON)
	default:
		return false
	}
}

func (p *Parser) parsePostfix() lang.Expr {
	start := p.cur()
	e := p.parseAtom()
	for {
		if p.at(lexer.DOT) {
			p.advance()
			field := p.expect(lexer.IDENT).Lexeme
			e = lang.NewFieldAccess(p.spanFrom(start), e, field)
			continue
		}
		if p.at(lexer.WITH) {
			p.advance()
			p.expect(lexer.LBRACE)
			fields := p.parseRecordUpdateFields()
			p.expect(lexer.RBRACE)
			e = lang.NewRecordUpdate(p.spanFrom(start), e, fields)
			continue
		}
		break
	}
	return e
}

func (p *Parser) parseLambda() lang.Expr {
	start := p.cur()
	p.advance() // fn
	var params []lang.Ident
	for p.at(lexer.IDENT) {
		params = append(params, lang.Ident(p.advance().Lexeme))
	}
	if len(params) == 0 {
		p.errorf(p.cur(), "expected at least one parameter after fn")
	}
	p.expect(lexer.ARROW)
	body := p.parseExpr()
	for i := len(params) - 1; i >= 0; i-- {
		body = lang.NewLambda(p.spanFrom(start), params[i], body)
	}
	return body
}

func (p *Parser) parseAtom() lang.Expr {
	start := p.cur()
	sp := func() lang.Span { return p.spanFrom(start) }
	switch p.cur().Kind {
	case lexer.INT:
		tok := p.advance()
		var v int64
		fmt.Sscanf(tok.Lexeme, "%d", &v)
		return lang.NewIntLit(sp(), v)
	case lexer.FLOAT:
		tok := p.advance()
		var v float64
		fmt.Sscanf(tok.Lexeme, "%g", &v)
		return lang.NewFloatLit(sp(), v)
	case lexer.STRING:
		tok := p.advance()
		return lang.NewStringLit(sp(), tok.Lexeme)
	case lexer.TRUE:
		p.advance()
		return lang.NewBoolLit(sp(), true)
	case lexer.FALSE:
		p.advance()
		return lang.NewBoolLit(sp(), false)
	case lexer.HASHREF:
		tok := p.advance()
		return lang.NewHashRef(sp(), tok.Lexeme)
	case lexer.IDENT:
		tok := p.advance()
		return lang.NewVar(sp(), lang.Ident(tok.Lexeme))
	case lexer.TYPENAME:
		return p.parseConstructorRefOrApp()
	case lexer.LPAREN:
		p.advance()
		if p.at(lexer.RPAREN) {
			p.advance()
			return lang.NewUnitLit(sp())
		}
		if p.isOperatorToken() && p.peek(1).Kind == lexer.RPAREN {
			op := p.advance()
			p.advance() // )
			return lang.NewVar(sp(), lang.Ident("("+op.Lexeme+")"))
		}
		inner := p.parseExpr()
		p.expect(lexer.RPAREN)
		return inner
	case lexer.LBRACKET:
		return p.parseListLit()
	case lexer.LBRACE:
		return p.parseRecordLit()
	case lexer.IF:
		return p.parseIf()
	case lexer.MATCH:
		return p.parseMatch()
	case lexer.LET:
		return p.parseLetStatement()
	case lexer.FN:
		return p.parseLambda()
	case lexer.PERFORM:
		return p.parsePerform()
	case lexer.HANDLE:
		return p.parseHandle()
	case lexer.MINUS, lexer.NOT:
		return p.parseUnary()
	default:
		tok := p.advance()
		p.errorf(tok, "unexpected token %s %q in expression", tok.Kind, tok.Lexeme)
		return lang.NewUnitLit(sp())
	}
}

func (p *Parser) isOperatorToken() bool {
	switch p.cur().Kind {
	case lexer.PLUS, lexer.MINUS, lexer.STAR, lexer.SLASH, lexer.PERCENT,
		lexer.EQ, lexer.NEQ, lexer.LT, lexer.LE, lexer.GT, lexer.GE,
		lexer.AND, lexer.OR:
		return true
	default:
		return false
	}
}

// parseConstructorRefOrApp handles both a bare constructor name (List.Nil)
// and saturated application (Cons x xs), and a dotted qualified reference
// (Math.fib) when the final segment starts lowercase.
func (p *Parser) parseConstructorRefOrApp() lang.Expr {
	start := p.cur()
	tok := p.advance()
	if containsLowerSegment(tok.Lexeme) {
		return lang.NewQualifiedVar(p.spanFrom(start), lang.Ident(tok.Lexeme))
	}
	var args []lang.Expr
	for p.atArgStart() {
		args = append(args, p.parsePostfix())
	}
	if len(args) == 0 {
		return lang.NewConstructorApp(p.spanFrom(start), lang.Ident(tok.Lexeme), nil)
	}
	return lang.NewConstructorApp(p.spanFrom(start), lang.Ident(tok.Lexeme), args)
}

func containsLowerSegment(s string) bool {
	ident := lang.Ident(s)
	return ident.IsQualified() && !lang.Ident(ident.Last()).IsTypeName()
}

func (p *Parser) parseListLit() lang.Expr {
	start := p.cur()
	p.advance() // [
	var elems []lang.Expr
	for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
		elems = append(elems, p.parseExpr())
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACKET)
	return lang.NewListLit(p.spanFrom(start), elems)
}

func (p *Parser) parseRecordLit() lang.Expr {
	start := p.cur()
	p.advance() // {
	var fields []lang.RecordField
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		name := p.expect(lexer.IDENT).Lexeme
		p.expect(lexer.COLON)
		value := p.parseExpr()
		fields = append(fields, lang.RecordField{Name: name, Value: value})
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return lang.NewRecordLit(p.spanFrom(start), fields)
}

func (p *Parser) parseRecordUpdateFields() []lang.RecordField {
	var fields []lang.RecordField
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		name := p.expect(lexer.IDENT).Lexeme
		p.expect(lexer.ASSIGN)
		value := p.parseExpr()
		fields = append(fields, lang.RecordField{Name: name, Value: value})
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	return fields
}

func (p *Parser) parseIf() lang.Expr {
	start := p.cur()
	p.advance() // if
	cond := p.parseExpr()
	p.expect(lexer.LBRACE)
	then := p.parseExpr()
	p.expect(lexer.RBRACE)
	p.expect(lexer.ELSE)
	p.expect(lexer.LBRACE)
	els := p.parseExpr()
	p.expect(lexer.RBRACE)
	return lang.NewIf(p.spanFrom(start), cond, then, els)
}

func (p *Parser) parseMatch() lang.Expr {
	start := p.cur()
	p.advance() // match
	scrutinee := p.parseExpr()
	p.expect(lexer.LBRACE)
	var arms []lang.MatchArm
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		pat := p.parsePattern()
		p.expect(lexer.ARROW)
		body := p.parseExpr()
		arms = append(arms, lang.MatchArm{Pattern: pat, Body: body})
		if p.at(lexer.SEMI) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return lang.NewMatch(p.spanFrom(start), scrutinee, arms)
}

func (p *Parser) parsePerform() lang.Expr {
	start := p.cur()
	p.advance() // perform
	effect, op := p.parseEffectOp()
	var args []lang.Expr
	for p.atArgStart() {
		args = append(args, p.parsePostfix())
	}
	return lang.NewPerform(p.spanFrom(start), effect, op, args)
}

// parseEffectOp reads the `Effect.op` head of a perform or a handler arm.
// The lexer folds `IO.print` into a single TYPENAME token, which is split at
// its last dot; a TYPENAME followed by a separate DOT and IDENT is accepted
// as well.
func (p *Parser) parseEffectOp() (lang.Ident, string) {
	id := lang.Ident(p.expect(lexer.TYPENAME).Lexeme)
	if id.IsQualified() {
		return id[:len(id)-len(id.Last())-1], id.Last()
	}
	p.expect(lexer.DOT)
	return id, p.expect(lexer.IDENT).Lexeme
}

func (p *Parser) parseHandle() lang.Expr {
	start := p.cur()
	p.advance() // handle
	body := p.parseExpr()
	p.expect(lexer.LBRACE)
	var arms []lang.HandleArm
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		effect, op := p.parseEffectOp()
		// the arm's trailing identifier before -> is always the one-shot
		// continuation binding; everything before it is an effect param.
		var idents []lang.Ident
		for p.at(lexer.IDENT) {
			idents = append(idents, lang.Ident(p.advance().Lexeme))
		}
		if len(idents) == 0 {
			p.errorf(p.cur(), "expected a continuation binding after %s.%s", effect, op)
		}
		params := idents[:len(idents)-1]
		cont := idents[len(idents)-1]
		p.expect(lexer.ARROW)
		armBody := p.parseExpr()
		arms = append(arms, lang.HandleArm{Effect: effect, Op: op, Params: params, Continuation: cont, Body: armBody})
		if p.at(lexer.SEMI) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return lang.NewHandle(p.spanFrom(start), body, arms)
}

// --- patterns ---

func (p *Parser) parsePattern() lang.Pattern {
	start := p.cur()
	head := p.parsePatternAtom()
	if p.at(lexer.COLONCOLON) {
		p.advance()
		tail := p.parsePattern()
		return lang.NewPCons(p.spanFrom(start), head, tail)
	}
	if p.at(lexer.AS) {
		p.advance()
		name := lang.Ident(p.expect(lexer.IDENT).Lexeme)
		return lang.NewPAs(p.spanFrom(start), head, name)
	}
	return head
}

func (p *Parser) parsePatternAtom() lang.Pattern {
	start := p.cur()
	sp := func() lang.Span { return p.spanFrom(start) }
	switch p.cur().Kind {
	case lexer.IDENT:
		tok := p.advance()
		if tok.Lexeme == "_" {
			return lang.NewPWildcard(sp())
		}
		return lang.NewPVar(sp(), lang.Ident(tok.Lexeme))
	case lexer.INT, lexer.FLOAT, lexer.STRING, lexer.TRUE, lexer.FALSE:
		lit := p.parseAtom()
		return lang.NewPLiteral(sp(), lit)
	case lexer.LBRACKET:
		p.advance()
		if p.at(lexer.RBRACKET) {
			p.advance()
			return lang.NewPNil(sp())
		}
		var elems []lang.Pattern
		var rest *lang.Ident
		for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
			if p.at(lexer.ELLIPSIS) {
				p.advance()
				name := lang.Ident(p.expect(lexer.IDENT).Lexeme)
				rest = &name
				break
			}
			elems = append(elems, p.parsePattern())
			if p.at(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RBRACKET)
		return lang.NewPList(sp(), elems, rest)
	case lexer.LBRACE:
		p.advance()
		var fields []lang.PatternField
		for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			name := p.expect(lexer.IDENT).Lexeme
			p.expect(lexer.COLON)
			pat := p.parsePattern()
			fields = append(fields, lang.PatternField{Name: name, Pattern: pat})
			if p.at(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RBRACE)
		return lang.NewPRecord(sp(), fields)
	case lexer.TYPENAME:
		name := lang.Ident(p.advance().Lexeme)
		var args []lang.Pattern
		for p.atPatternArgStart() {
			args = append(args, p.parsePatternAtom())
		}
		return lang.NewPConstructor(sp(), name, args)
	case lexer.LPAREN:
		p.advance()
		inner := p.parsePattern()
		p.expect(lexer.RPAREN)
		return inner
	default:
		tok := p.advance()
		p.errorf(tok, "unexpected token %s %q in pattern", tok.Kind, tok.Lexeme)
		return lang.NewPWildcard(sp())
	}
}

func (p *Parser) atPatternArgStart() bool {
	switch p.cur().Kind {
	case lexer.IDENT, lexer.INT, lexer.FLOAT, lexer.STRING, lexer.TRUE,
		lexer.FALSE, lexer.LBRACKET, lexer.LBRACE, lexer.LPAREN:
		return true
	default:
		return false
	}
}

// --- types ---

func (p *Parser) atTypeAtomStart() bool {
	switch p.cur().Kind {
	case lexer.IDENT, lexer.TYPENAME, lexer.LPAREN, lexer.LBRACE:
		return true
	default:
		return false
	}
}

// parseType parses a full type, including a possible effect row annotation
// on the arrow: `Int -> {IO} Int`.
func (p *Parser) parseType() lang.Type {
	left := p.parseTypeAtom()
	if p.at(lexer.ARROW) {
		p.advance()
		row := lang.PureRow
		if p.at(lexer.LBRACE) {
			row = p.parseRow()
		}
		right := p.parseType()
		return lang.TFunc{Param: left, Return: right, Row: row}
	}
	return left
}

func (p *Parser) parseRow() lang.Row {
	p.expect(lexer.LBRACE)
	var effects []lang.Effect
	tail := ""
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.at(lexer.IDENT) && p.peek(1).Kind == lexer.ELLIPSIS {
			tail = p.advance().Lexeme
			p.advance() // ...
			break
		}
		name := p.expect(lexer.TYPENAME).Lexeme
		var arg lang.Type
		if p.at(lexer.LT) {
			p.advance()
			arg = p.parseType()
			p.expect(lexer.GT)
		}
		effects = append(effects, lang.Effect{Name: name, Arg: arg})
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return lang.Row{Effects: effects, Tail: tail}
}

func (p *Parser) parseTypeAtom() lang.Type {
	switch p.cur().Kind {
	case lexer.IDENT:
		name := p.advance().Lexeme
		return lang.TVar{Name: name}
	case lexer.TYPENAME:
		name := p.advance().Lexeme
		switch name {
		case "Int":
			return lang.TInt
		case "Float":
			return lang.TFloat
		case "Bool":
			return lang.TBool
		case "String":
			return lang.TString
		case "Unit":
			return lang.TUnit
		case "List":
			elem := p.parseTypeAtom()
			return lang.TList{Elem: elem}
		}
		var args []lang.Type
		for p.atTypeAtomStart() {
			args = append(args, p.parseTypeAtom())
		}
		return lang.TADT{Name: name, Args: args}
	case lexer.LBRACE:
		p.advance()
		fields := map[string]lang.Type{}
		for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			name := p.expect(lexer.IDENT).Lexeme
			p.expect(lexer.COLON)
			fields[name] = p.parseType()
			if p.at(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RBRACE)
		return lang.TRecord{Fields: fields}
	case lexer.LPAREN:
		p.advance()
		inner := p.parseType()
		p.expect(lexer.RPAREN)
		return inner
	default:
		tok := p.advance()
		p.errorf(tok, "unexpected token %s %q in type", tok.Kind, tok.Lexeme)
		return lang.TUnit
	}
}
