package sqlfront

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/imotai/HybridSE/codegen"
)

// FuncDef is a parsed %%fun definition: a named procedural function
// with a typed signature and a statement body, ready to be lowered by
// codegen.Builder.NewFunction/BuildBody.
type FuncDef struct {
	Name   string
	Params []codegen.Param
	Ret    codegen.ValueType
	Body   []*codegen.Stmt
}

type fnParser struct {
	toks []token
	pos  int
}

// ParseFunction parses the body of a %%fun block (the text between the
// %%fun and %%sql markers) into a FuncDef.
func ParseFunction(src string) (*FuncDef, error) {
	toks, err := lexFn(src)
	if err != nil {
		return nil, err
	}
	p := &fnParser{toks: toks}
	def, err := p.parseFuncDef()
	if err != nil {
		return nil, fmt.Errorf("sqlfront: function parse error: %w", err)
	}
	return def, nil
}

func (p *fnParser) cur() token  { return p.toks[p.pos] }
func (p *fnParser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *fnParser) expectIdent(text string) error {
	t := p.cur()
	if t.kind != tokIdent || t.text != text {
		return fmt.Errorf("expected %q, got %q", text, t.text)
	}
	p.advance()
	return nil
}

func (p *fnParser) expectKind(k tokenKind, what string) (token, error) {
	t := p.cur()
	if t.kind != k {
		return token{}, fmt.Errorf("expected %s, got %q", what, t.text)
	}
	p.advance()
	return t, nil
}

func (p *fnParser) parseFuncDef() (*FuncDef, error) {
	if err := p.expectIdent("def"); err != nil {
		return nil, err
	}
	name, err := p.expectKind(tokIdent, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(tokLParen, "("); err != nil {
		return nil, err
	}
	var params []codegen.Param
	for p.cur().kind != tokRParen {
		pname, err := p.expectKind(tokIdent, "parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(tokColon, ":"); err != nil {
			return nil, err
		}
		ptype, err := p.expectKind(tokIdent, "parameter type")
		if err != nil {
			return nil, err
		}
		vt, err := parseValueType(ptype.text)
		if err != nil {
			return nil, err
		}
		params = append(params, codegen.Param{Name: pname.text, Type: vt})
		if p.cur().kind == tokComma {
			p.advance()
		}
	}
	if _, err := p.expectKind(tokRParen, ")"); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(tokColon, ":"); err != nil {
		return nil, err
	}
	retTok, err := p.expectKind(tokIdent, "return type")
	if err != nil {
		return nil, err
	}
	ret, err := parseValueType(retTok.text)
	if err != nil {
		return nil, err
	}

	body, err := p.parseStmtList()
	if err != nil {
		return nil, err
	}
	if err := p.expectIdent("end"); err != nil {
		return nil, err
	}
	return &FuncDef{Name: name.text, Params: params, Ret: ret, Body: body}, nil
}

func (p *fnParser) atBlockEnd() bool {
	t := p.cur()
	if t.kind == tokEOF {
		return true
	}
	if t.kind != tokIdent {
		return false
	}
	switch t.text {
	case "end", "elif", "else":
		return true
	default:
		return false
	}
}

func (p *fnParser) parseStmtList() ([]*codegen.Stmt, error) {
	var stmts []*codegen.Stmt
	for !p.atBlockEnd() {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

func (p *fnParser) parseStmt() (*codegen.Stmt, error) {
	t := p.cur()
	if t.kind == tokIdent {
		switch t.text {
		case "return":
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return codegen.Return(e), nil
		case "if":
			return p.parseIfElse()
		case "for":
			return p.parseForIn()
		}
	}
	// Fall through to assignment: IDENT "=" Expr.
	name, err := p.expectKind(tokIdent, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(tokAssign, "="); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return codegen.Assign(name.text, e), nil
}

func (p *fnParser) parseIfElse() (*codegen.Stmt, error) {
	if err := p.expectIdent("if"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStmtList()
	if err != nil {
		return nil, err
	}

	var elifs []codegen.ElifClause
	for p.cur().kind == tokIdent && p.cur().text == "elif" {
		p.advance()
		econd, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ebody, err := p.parseStmtList()
		if err != nil {
			return nil, err
		}
		elifs = append(elifs, codegen.ElifClause{Cond: econd, Body: ebody})
	}

	var elseBody []*codegen.Stmt
	if p.cur().kind == tokIdent && p.cur().text == "else" {
		p.advance()
		elseBody, err = p.parseStmtList()
		if err != nil {
			return nil, err
		}
	}

	if err := p.expectIdent("end"); err != nil {
		return nil, err
	}
	return codegen.IfElse(cond, body, elifs, elseBody), nil
}

func (p *fnParser) parseForIn() (*codegen.Stmt, error) {
	if err := p.expectIdent("for"); err != nil {
		return nil, err
	}
	varName, err := p.expectKind(tokIdent, "loop variable")
	if err != nil {
		return nil, err
	}
	if err := p.expectIdent("in"); err != nil {
		return nil, err
	}
	container, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStmtList()
	if err != nil {
		return nil, err
	}
	if err := p.expectIdent("end"); err != nil {
		return nil, err
	}
	return codegen.ForIn(varName.text, container, body), nil
}

// Expr precedence, low to high: comparison, additive, multiplicative,
// unary, primary.

func (p *fnParser) parseExpr() (*codegen.Expr, error) {
	return p.parseComparison()
}

func (p *fnParser) parseComparison() (*codegen.Expr, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokOp && isCompareOp(p.cur().text) {
		op := codegen.BinOp(p.advance().text)
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return codegen.Compare(op, lhs, rhs), nil
	}
	return lhs, nil
}

func (p *fnParser) parseAdditive() (*codegen.Expr, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "+" || p.cur().text == "-") {
		op := codegen.BinOp(p.advance().text)
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = codegen.Binary(op, lhs, rhs)
	}
	return lhs, nil
}

func (p *fnParser) parseMultiplicative() (*codegen.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "*" || p.cur().text == "/" || p.cur().text == "%") {
		op := codegen.BinOp(p.advance().text)
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = codegen.Binary(op, lhs, rhs)
	}
	return lhs, nil
}

func (p *fnParser) parseUnary() (*codegen.Expr, error) {
	if p.cur().kind == tokOp && p.cur().text == "-" {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return codegen.Unary(codegen.OpNeg, x), nil
	}
	if p.cur().kind == tokOp && p.cur().text == "!" {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return codegen.Unary(codegen.OpNot, x), nil
	}
	return p.parsePrimary()
}

func (p *fnParser) parsePrimary() (*codegen.Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokNumber:
		p.advance()
		if strings.Contains(t.text, ".") {
			f, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid float literal %q: %w", t.text, err)
			}
			return codegen.Lit(codegen.TFloat64, 0, f, false), nil
		}
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q: %w", t.text, err)
		}
		return codegen.Lit(codegen.TInt32, n, 0, false), nil
	case tokLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(tokRParen, ")"); err != nil {
			return nil, err
		}
		return e, nil
	case tokIdent:
		p.advance()
		switch t.text {
		case "true":
			return codegen.Lit(codegen.TBool, 0, 0, true), nil
		case "false":
			return codegen.Lit(codegen.TBool, 0, 0, false), nil
		}
		if p.cur().kind == tokLParen {
			p.advance()
			var args []*codegen.Expr
			for p.cur().kind != tokRParen {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.cur().kind == tokComma {
					p.advance()
				}
			}
			if _, err := p.expectKind(tokRParen, ")"); err != nil {
				return nil, err
			}
			return codegen.Call(t.text, args...), nil
		}
		return codegen.Ident(t.text), nil
	default:
		return nil, fmt.Errorf("unexpected token %q", t.text)
	}
}

func isCompareOp(s string) bool {
	switch s {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	default:
		return false
	}
}

func parseValueType(s string) (codegen.ValueType, error) {
	switch s {
	case "bool":
		return codegen.TBool, nil
	case "i16":
		return codegen.TInt16, nil
	case "i32":
		return codegen.TInt32, nil
	case "i64":
		return codegen.TInt64, nil
	case "f32":
		return codegen.TFloat32, nil
	case "f64":
		return codegen.TFloat64, nil
	default:
		return 0, fmt.Errorf("unknown type %q", s)
	}
}
