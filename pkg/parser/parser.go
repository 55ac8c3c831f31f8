package parser

import (
	"pscript/pkg/ast"
	"pscript/pkg/perr"
)

// assignOps, level1 through level5 mirror spec §4.3.2's precedence table,
// low to high; parsing composes bottom-up (parseAssign calls parseOr calls
// parseEquality calls parseAdditive calls parseMultiplicative calls
// parseUnary calls parsePostfix calls parsePrimary).
var assignOps = map[string]bool{"=": true, "+=": true, "-=": true, "*=": true, "/=": true}
var orOps = map[string]bool{"&&": true, "||": true}
var eqOps = map[string]bool{"==": true, "!=": true, "<=": true, ">=": true, "<": true, ">": true}
var addOps = map[string]bool{"-": true, "+": true, "<<": true, ">>": true, "^": true, "&": true, "%": true}
var mulOps = map[string]bool{"/": true, "*": true}
var unaryOps = map[string]bool{"-": true, "!": true, "++": true, "--": true, "&": true}

// Parser walks a flat token stream and builds ast.Tree nodes.
type Parser struct {
	tokens   []token
	pos      int
	filename string
}

// ParseModule tokenizes and parses source into a "script" root node (spec
// §6.1). filename is attached to every node's Position for diagnostics.
func ParseModule(source, filename string) (*ast.Tree, error) {
	toks, err := tokenize(source, filename)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: toks, filename: filename}
	root := ast.New(ast.KindScript, "", p.here())
	for !p.atEOF() {
		item, err := p.parseTopLevelItem()
		if err != nil {
			return nil, err
		}
		root.Append(item)
	}
	return root, nil
}

func (p *Parser) peek() token { return p.tokens[p.pos] }

func (p *Parser) peekAt(n int) token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) atEOF() bool { return p.peek().kind == tokEOF }

func (p *Parser) advance() token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) here() ast.Position { return p.peek().pos }

func (p *Parser) isPunct(s string) bool   { t := p.peek(); return t.kind == tokPunct && t.text == s }
func (p *Parser) isOp(s string) bool      { t := p.peek(); return t.kind == tokOp && t.text == s }
func (p *Parser) isKeyword(s string) bool { t := p.peek(); return t.kind == tokKeyword && t.text == s }

func (p *Parser) expectPunct(s string) (token, error) {
	if !p.isPunct(s) {
		return token{}, p.errorf("expected %q, got %q", s, p.peek().text)
	}
	return p.advance(), nil
}

func (p *Parser) expectOp(s string) (token, error) {
	if !p.isOp(s) {
		return token{}, p.errorf("expected operator %q, got %q", s, p.peek().text)
	}
	return p.advance(), nil
}

func (p *Parser) expectKeyword(s string) (token, error) {
	if !p.isKeyword(s) {
		return token{}, p.errorf("expected keyword %q, got %q", s, p.peek().text)
	}
	return p.advance(), nil
}

func (p *Parser) expectIdent() (token, error) {
	if p.peek().kind != tokIdent {
		return token{}, p.errorf("expected identifier, got %q", p.peek().text)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, args ...any) *perr.Error {
	return perr.At(perr.ParseError, toPerrPos(p.here()), format, args...)
}

// parseTopLevelItem handles fn/extern/struct/namespace/import definitions,
// falling through to a general statement for anything else — scripts may
// mix top-level declarations and bare statements (spec §8.3 scenarios).
func (p *Parser) parseTopLevelItem() (ast.Node, error) {
	switch {
	case p.isKeyword("extern"):
		return p.parseExtern()
	case p.isKeyword("fn"):
		return p.parseFunction(false)
	case p.isKeyword("struct"):
		return p.parseStruct()
	case p.isKeyword("namespace"):
		return p.parseNamespace()
	case p.isKeyword("import"):
		return p.parseImport()
	default:
		return p.parseStatement()
	}
}

func (p *Parser) parseExtern() (ast.Node, error) {
	if _, err := p.expectKeyword("extern"); err != nil {
		return nil, err
	}
	switch {
	case p.isKeyword("fn"):
		return p.parseFunction(true)
	case p.isKeyword("let"):
		return p.parseExternVar()
	default:
		return nil, p.errorf("expected 'fn' or 'let' after 'extern', got %q", p.peek().text)
	}
}

func (p *Parser) parseFunction(extern bool) (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectKeyword("fn"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	returnType, err := p.parseReturnType()
	if err != nil {
		return nil, err
	}

	fn := ast.New(ast.KindFunction, name.text, pos, params, returnType)
	if extern {
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return fn, nil
	}
	body, err := p.parseCompound()
	if err != nil {
		return nil, err
	}
	fn.Append(body)
	return fn, nil
}

func (p *Parser) parseParamList() (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	list := ast.New(ast.KindParamList, "", pos)
	for !p.isPunct(")") {
		if len(list.Children()) > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		pname, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		ptype, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		list.Append(ast.New(ast.KindParam, pname.text, pname.pos, ptype))
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseReturnType() (ast.Node, error) {
	if _, err := p.expectOp("->"); err != nil {
		return nil, err
	}
	return p.parseTypeExpr()
}

// parseTypeExpr accepts an optional leading "&" reference prefix (spec
// §6.1) followed by a builtin type name or a struct type name.
func (p *Parser) parseTypeExpr() (ast.Node, error) {
	pos := p.here()
	prefix := ""
	if p.isOp("&") {
		p.advance()
		prefix = "&"
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.KindType, prefix+name.text, pos), nil
}

func (p *Parser) parseStruct() (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectKeyword("struct"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	def := ast.New(ast.KindStruct, name.text, pos)
	for !p.isPunct("}") {
		fname, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		ftype, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		field := ast.New(ast.KindParam, fname.text, fname.pos, ftype)
		if p.isOp("=") {
			p.advance()
			defExpr, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			field.Append(defExpr)
		}
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		def.Append(field)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return def, nil
}

func (p *Parser) parseExternVar() (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectKeyword("let"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp("->"); err != nil {
		return nil, err
	}
	t, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.New(ast.KindExternVar, name.text, pos, t), nil
}

func (p *Parser) parseNamespace() (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectKeyword("namespace"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	ns := ast.New(ast.KindNamespace, name.text, pos)
	for !p.isPunct("}") {
		item, err := p.parseTopLevelItem()
		if err != nil {
			return nil, err
		}
		ns.Append(item)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return ns, nil
}

func (p *Parser) parseImport() (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectKeyword("import"); err != nil {
		return nil, err
	}
	path, err := p.parseDottedIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.New(ast.KindImport, path, pos), nil
}

func (p *Parser) parseDottedIdent() (string, error) {
	first, err := p.expectIdent()
	if err != nil {
		return "", err
	}
	name := first.text
	for p.isPunct(".") {
		p.advance()
		next, err := p.expectIdent()
		if err != nil {
			return "", err
		}
		name += "." + next.text
	}
	return name, nil
}

// parseStatement handles a single statement within a compound block or at
// the top level (spec §4.3.1/§6.1: let, if, while, for, return, nested
// compound, or a bare expression-statement).
func (p *Parser) parseStatement() (ast.Node, error) {
	switch {
	case p.isKeyword("let"):
		return p.parseDeclaration()
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("for"):
		return p.parseFor()
	case p.isPunct("{"):
		return p.parseCompound()
	case p.isKeyword("return"):
		return p.parseReturn()
	default:
		expr, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return expr, nil
	}
}

func (p *Parser) parseDeclaration() (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectKeyword("let"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp("="); err != nil {
		return nil, err
	}
	expr, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.New(ast.KindDecl, name.text, pos, expr), nil
}

func (p *Parser) parseReturn() (ast.Node, error) {
	pos := p.here()
	p.advance() // "return" identifier
	ret := ast.New(ast.KindReturn, "", pos)
	if !p.isPunct(";") {
		expr, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		ret.Append(expr)
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return ret, nil
}

// wrapCompound wraps a single non-brace statement body into a one-child
// compound, so the evaluator always finds a "compound" child under if/
// while/for regardless of whether the source used braces (spec §4.3.1).
func (p *Parser) wrapCompound(pos ast.Position, stmt ast.Node) *ast.Tree {
	if stmt.Kind() == ast.KindCompound {
		return stmt.(*ast.Tree)
	}
	return ast.New(ast.KindCompound, "", pos, stmt)
}

func (p *Parser) parseCompound() (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	body := ast.New(ast.KindCompound, "", pos)
	for !p.isPunct("}") {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body.Append(stmt)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *Parser) parseIf() (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	thenStmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	node := ast.New(ast.KindIf, "", pos, cond, p.wrapCompound(pos, thenStmt))
	if p.isKeyword("else") {
		p.advance()
		if p.isKeyword("if") {
			elseIf, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			node.Append(elseIf)
		} else {
			elseStmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			node.Append(p.wrapCompound(pos, elseStmt))
		}
	}
	return node, nil
}

func (p *Parser) parseWhile() (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectKeyword("while"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.KindWhile, "", pos, cond, p.wrapCompound(pos, body)), nil
}

// parseFor distinguishes the manual 3-clause form from the range form by
// checking whether the init clause is "let NAME :" (range) or a full
// declaration followed by ";" (manual) (spec §6.1).
func (p *Parser) parseFor() (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectKeyword("for"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("let"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if p.isPunct(":") {
		p.advance()
		iterable, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.KindForRange, name.text, pos, iterable, p.wrapCompound(pos, body)), nil
	}

	if _, err := p.expectOp("="); err != nil {
		return nil, err
	}
	initExpr, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	init := ast.New(ast.KindDecl, name.text, pos, initExpr)
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	cond, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	step, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.KindFor, "", pos, init, cond, step, p.wrapCompound(pos, body)), nil
}

// ---- expressions, low to high precedence ----

func (p *Parser) parseAssign() (ast.Node, error) {
	lhs, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && assignOps[p.peek().text] {
		op := p.advance()
		rhs, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		lhs = ast.New(ast.KindOp, op.text, op.pos, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseOr() (ast.Node, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && orOps[p.peek().text] {
		op := p.advance()
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		lhs = ast.New(ast.KindOp, op.text, op.pos, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseEquality() (ast.Node, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && eqOps[p.peek().text] {
		op := p.advance()
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs = ast.New(ast.KindOp, op.text, op.pos, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && addOps[p.peek().text] {
		op := p.advance()
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = ast.New(ast.KindOp, op.text, op.pos, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseMultiplicative() (ast.Node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && mulOps[p.peek().text] {
		op := p.advance()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = ast.New(ast.KindOp, op.text, op.pos, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseUnary() (ast.Node, error) {
	if p.peek().kind == tokOp && unaryOps[p.peek().text] {
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.KindUnary, op.text, op.pos, operand), nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("->"):
			pos := p.here()
			p.advance()
			field, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			expr = ast.New(ast.KindMember, field.text, pos, expr)
		case p.isPunct("["):
			pos := p.here()
			p.advance()
			idx, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			expr = ast.New(ast.KindIndex, "", pos, expr, idx)
		case p.isPunct(".") && expr.Kind() != ast.KindIdentifier:
			// A dotted method call on a non-identifier receiver (a string
			// literal, a list literal, an index/member result, ...): plain
			// identifier chains are already folded into a qualified call
			// name by parseIdentExpr, so this only fires for receivers that
			// could not have been absorbed there.
			pos := p.here()
			p.advance()
			method, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			children := append([]ast.Node{expr}, args...)
			expr = ast.New(ast.KindMemberCall, method.text, pos, children...)
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok := p.peek()
	switch tok.kind {
	case tokInt:
		p.advance()
		return ast.New(ast.KindInteger, tok.text, tok.pos), nil
	case tokUint:
		p.advance()
		return ast.New(ast.KindUint, tok.text, tok.pos), nil
	case tokReal:
		p.advance()
		return ast.New(ast.KindReal, tok.text, tok.pos), nil
	case tokString:
		p.advance()
		return ast.New(ast.KindString, tok.text, tok.pos), nil
	case tokBool:
		p.advance()
		return ast.New(ast.KindBoolean, tok.text, tok.pos), nil
	case tokIdent:
		return p.parseIdentExpr()
	case tokPunct:
		switch tok.text {
		case "(":
			p.advance()
			expr, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return expr, nil
		case "[":
			return p.parseListLiteral()
		}
	}
	return nil, p.errorf("unexpected token %q", tok.text)
}

// parseIdentExpr resolves the syntactic shape starting at an identifier: a
// dotted call (a.b.name(...)), a plain call (name(...)), a constructor
// (Name{...}), or a bare identifier reference (spec §4.3.2/§4.3.3 — dots
// only ever precede a call's argument list; qualification is otherwise a
// purely runtime concern the evaluator resolves).
func (p *Parser) parseIdentExpr() (ast.Node, error) {
	first, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	pos := first.pos
	name := first.text
	for p.isPunct(".") {
		p.advance()
		next, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		name += "." + next.text
	}

	switch {
	case p.isPunct("("):
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.KindCall, name, pos, args...), nil
	case p.isPunct("{"):
		args, err := p.parseConstructorArgs()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.KindConstruct, name, pos, args...), nil
	default:
		if name != first.text {
			return nil, p.errorf("qualified name %q must be followed by a call", name)
		}
		return ast.New(ast.KindIdentifier, name, pos), nil
	}
}

func (p *Parser) parseArgList() ([]ast.Node, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []ast.Node
	for !p.isPunct(")") {
		if len(args) > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseConstructorArgs() ([]ast.Node, error) {
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var args []ast.Node
	for !p.isPunct("}") {
		if len(args) > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseListLiteral() (ast.Node, error) {
	pos := p.here()
	if _, err := p.expectPunct("["); err != nil {
		return nil, err
	}
	list := ast.New(ast.KindList, "", pos)
	for !p.isPunct("]") {
		if len(list.Children()) > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		elem, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		list.Append(elem)
	}
	if _, err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return list, nil
}
