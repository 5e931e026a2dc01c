// Copyright (C) 2026 The Muon Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package lang

import (
	"fmt"

	"github.com/muonic/muon/lang/token"
)

// ParseError describes a parse failure with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Parser is a recursive-descent parser producing a single Node tree per
// source file (spec.md §4.4).
type Parser struct {
	s    *scanner
	mode Mode

	tok  token.Token
	peek *token.Token
	err  error
}

// Parse lexes and parses src under mode, returning the top-level KBlock
// node or the first error encountered.
func Parse(src []byte, mode Mode) (*Node, error) {
	p := &Parser{s: newScanner(src, mode), mode: mode}
	p.advance()
	if p.err != nil {
		return nil, p.err
	}
	block := p.parseBlock(token.EOF)
	if p.err != nil {
		return nil, p.err
	}
	return block, nil
}

func (p *Parser) advance() {
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return
	}
	t, err := p.s.Next()
	if err != nil {
		p.err = &ParseError{Pos: err.(*LexError).Pos, Message: err.(*LexError).Message}
		p.tok = token.Token{Kind: token.EOF}
		return
	}
	p.tok = t
}

func (p *Parser) peekTok() token.Token {
	if p.peek == nil {
		saved := p.tok
		p.advance()
		t := p.tok
		p.peek = &t
		p.tok = saved
	}
	return *p.peek
}

func (p *Parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = &ParseError{Pos: p.tok.Pos, Message: fmt.Sprintf(format, args...)}
	}
}

func (p *Parser) expect(k token.Kind) token.Token {
	if p.err != nil {
		return token.Token{}
	}
	if p.tok.Kind != k {
		p.fail("expected %s, found %s", k, p.tok.Kind)
		return token.Token{}
	}
	t := p.tok
	p.advance()
	return t
}

func (p *Parser) at(k token.Kind) bool { return p.err == nil && p.tok.Kind == k }

// parseBlock parses statements until one of `ends` is reached (EOF at top
// level, a closing keyword inside if/foreach/func bodies).
func (p *Parser) parseBlock(ends ...token.Kind) *Node {
	start := p.tok.Pos
	var stmts []*Node
	for p.err == nil {
		atEnd := false
		for _, end := range ends {
			atEnd = atEnd || p.tok.Kind == end
		}
		if atEnd {
			break
		}
		stmts = append(stmts, p.parseStatement())
		if p.err != nil {
			break
		}
	}
	return &Node{Kind: KBlock, Pos: start, End: p.tok.Pos, Children: stmts}
}

func (p *Parser) parseStatement() *Node {
	switch p.tok.Kind {
	case token.KW_IF:
		return p.parseIf()
	case token.KW_FOREACH:
		return p.parseForeach()
	case token.KW_BREAK:
		n := &Node{Kind: KBreak, Pos: p.tok.Pos}
		p.advance()
		return n
	case token.KW_CONTINUE:
		n := &Node{Kind: KContinue, Pos: p.tok.Pos}
		p.advance()
		return n
	case token.KW_RETURN:
		return p.parseReturn()
	case token.KW_FUNC:
		return p.parseFuncDef()
	default:
		return p.parseSimpleStatement()
	}
}

// parseSimpleStatement parses an assignment or a bare expression statement,
// disambiguated by looking for `=` or `+=` after the left-hand expression.
func (p *Parser) parseSimpleStatement() *Node {
	start := p.tok.Pos
	left := p.parseExpr()
	if p.err != nil {
		return left
	}
	switch p.tok.Kind {
	case token.ASSIGN, token.PLUSEQ:
		op := p.tok.Kind
		p.advance()
		right := p.parseExpr()
		return &Node{Kind: KAssign, Pos: start, End: p.tok.Pos, Left: left, Right: right, Data: op}
	default:
		return left
	}
}

func (p *Parser) parseIf() *Node {
	start := p.tok.Pos
	n := &Node{Kind: KIf, Pos: start}
	p.advance() // if
	for {
		cond := p.parseExpr()
		body := p.parseBlock(token.KW_ELIF, token.KW_ELSE, token.KW_ENDIF)
		branch := Branch{Cond: cond, Body: body.Children}
		n.Branches = append(n.Branches, branch)
		if p.tok.Kind == token.KW_ELIF {
			p.advance()
			continue
		}
		break
	}
	if p.tok.Kind == token.KW_ELSE {
		p.advance()
		body := p.parseBlock(token.KW_ENDIF)
		n.Else = body.Children
	}
	p.expect(token.KW_ENDIF)
	n.End = p.tok.Pos
	return n
}

func (p *Parser) parseForeach() *Node {
	start := p.tok.Pos
	p.advance() // foreach
	name1 := p.expect(token.IDENT).Str
	vars := []string{name1}
	if p.at(token.COMMA) {
		p.advance()
		vars = append(vars, p.expect(token.IDENT).Str)
	}
	p.expect(token.COLON)
	iterable := p.parseExpr()
	body := p.parseBlock(token.KW_ENDFOREACH)
	p.expect(token.KW_ENDFOREACH)
	return &Node{Kind: KForeach, Pos: start, End: p.tok.Pos, Vars: vars, Left: iterable, Children: body.Children}
}

func (p *Parser) parseReturn() *Node {
	start := p.tok.Pos
	p.advance() // return
	n := &Node{Kind: KReturn, Pos: start}
	switch p.tok.Kind {
	case token.EOF, token.KW_ENDFUNC, token.KW_ENDIF, token.KW_ELIF, token.KW_ELSE, token.KW_ENDFOREACH:
		// bare return
	default:
		n.Left = p.parseExpr()
	}
	n.End = p.tok.Pos
	return n
}

func (p *Parser) parseFuncDef() *Node {
	start := p.tok.Pos
	p.advance() // func
	sig := &FuncSig{Name: p.expect(token.IDENT).Str}
	p.expect(token.LPAREN)
	for !p.at(token.RPAREN) && p.err == nil {
		param := Param{Name: p.expect(token.IDENT).Str}
		if p.at(token.COLON) {
			p.advance()
			param.Type = p.expect(token.IDENT).Str
		}
		if p.at(token.ASSIGN) {
			p.advance()
			param.Default = p.parseExpr()
		}
		sig.Params = append(sig.Params, param)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	if p.at(token.ARROW) {
		p.advance()
		sig.ReturnType = p.expect(token.IDENT).Str
	}
	body := p.parseBlock(token.KW_ENDFUNC)
	p.expect(token.KW_ENDFUNC)
	return &Node{Kind: KFuncDef, Pos: start, End: p.tok.Pos, Data: sig, Children: body.Children}
}

// Expression grammar, lowest to highest precedence:
//   ternary -> or
//   or      -> and (KW_OR and)*
//   and     -> not (KW_AND not)*
//   not     -> KW_NOT not | cmp
//   cmp     -> add ((== != < <= > >= in | KW_NOT KW_IN) add)*
//   add     -> mul ((+ -) mul)*
//   mul     -> unary ((* / %) unary)*
//   unary   -> (- ) unary | postfix
//   postfix -> primary ( .ident | [expr] | (args) )*

func (p *Parser) parseExpr() *Node {
	return p.parseTernary()
}

func (p *Parser) parseTernary() *Node {
	cond := p.parseOr()
	if !p.at(token.QUESTION) {
		return cond
	}
	start := cond.Pos
	p.advance()
	then := p.parseExpr()
	p.expect(token.COLON)
	els := p.parseExpr()
	return &Node{Kind: KTernary, Pos: start, Left: cond, Mid: then, Right: els}
}

func (p *Parser) parseOr() *Node {
	left := p.parseAnd()
	for p.at(token.KW_OR) {
		p.advance()
		right := p.parseAnd()
		left = &Node{Kind: KOr, Pos: left.Pos, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() *Node {
	left := p.parseNot()
	for p.at(token.KW_AND) {
		p.advance()
		right := p.parseNot()
		left = &Node{Kind: KAnd, Pos: left.Pos, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseNot() *Node {
	if p.at(token.KW_NOT) {
		start := p.tok.Pos
		p.advance()
		operand := p.parseNot()
		return &Node{Kind: KUnary, Pos: start, Left: operand, Data: token.KW_NOT}
	}
	return p.parseComparison()
}

var comparisonOps = map[token.Kind]bool{
	token.EQ: true, token.NE: true, token.LT: true, token.LE: true,
	token.GT: true, token.GE: true, token.KW_IN: true,
}

func (p *Parser) parseComparison() *Node {
	left := p.parseAdd()
	for {
		if comparisonOps[p.tok.Kind] {
			op := p.tok.Kind
			start := left.Pos
			p.advance()
			right := p.parseAdd()
			left = &Node{Kind: KBinOp, Pos: start, Left: left, Right: right, Data: op}
			continue
		}
		if p.at(token.KW_NOT) && p.peekTok().Kind == token.KW_IN {
			start := left.Pos
			p.advance()
			p.advance()
			right := p.parseAdd()
			notIn := &Node{Kind: KBinOp, Pos: start, Left: left, Right: right, Data: token.KW_IN}
			left = &Node{Kind: KUnary, Pos: start, Left: notIn, Data: token.KW_NOT}
			continue
		}
		break
	}
	return left
}

func (p *Parser) parseAdd() *Node {
	left := p.parseMul()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := p.tok.Kind
		start := left.Pos
		p.advance()
		right := p.parseMul()
		left = &Node{Kind: KBinOp, Pos: start, Left: left, Right: right, Data: op}
	}
	return left
}

func (p *Parser) parseMul() *Node {
	left := p.parseUnary()
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.PERCENT) {
		op := p.tok.Kind
		start := left.Pos
		p.advance()
		right := p.parseUnary()
		left = &Node{Kind: KBinOp, Pos: start, Left: left, Right: right, Data: op}
	}
	return left
}

func (p *Parser) parseUnary() *Node {
	if p.at(token.MINUS) {
		start := p.tok.Pos
		p.advance()
		operand := p.parseUnary()
		return &Node{Kind: KUnary, Pos: start, Left: operand, Data: token.MINUS}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() *Node {
	n := p.parsePrimary()
	for {
		switch p.tok.Kind {
		case token.DOT:
			start := n.Pos
			p.advance()
			name := p.expect(token.IDENT).Str
			member := &Node{Kind: KMember, Pos: start, Left: n, Data: name}
			if p.at(token.LPAREN) {
				n = p.parseCall(member)
			} else {
				n = member
			}
		case token.LBRACKET:
			start := n.Pos
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACKET)
			n = &Node{Kind: KIndex, Pos: start, Left: n, Right: idx}
		case token.LPAREN:
			n = p.parseCall(n)
		default:
			return n
		}
		if p.err != nil {
			return n
		}
	}
}

// parseCall parses the `(args)` suffix of a call whose callee is already
// parsed as callee (a plain identifier or a KMember node for method calls).
func (p *Parser) parseCall(callee *Node) *Node {
	start := callee.Pos
	p.advance() // (
	call := &Node{Kind: KCall, Pos: start, Left: callee}
	for !p.at(token.RPAREN) && p.err == nil {
		if p.at(token.IDENT) && p.peekTok().Kind == token.COLON {
			name := p.tok.Str
			p.advance()
			p.advance() // colon
			val := p.parseExpr()
			call.KwArgs = append(call.KwArgs, KwArg{Name: name, Value: val})
		} else {
			call.Children = append(call.Children, p.parseExpr())
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	call.End = p.tok.Pos
	return call
}

func (p *Parser) parsePrimary() *Node {
	start := p.tok.Pos
	switch p.tok.Kind {
	case token.IDENT:
		n := &Node{Kind: KIdent, Pos: start, Data: p.tok.Str}
		p.advance()
		return n
	case token.NUMBER:
		t := p.tok
		p.advance()
		return &Node{Kind: KNumber, Pos: start, Data: t.Num}
	case token.STRING, token.MLSTRING:
		n := &Node{Kind: KString, Pos: start, Data: p.tok.Str}
		p.advance()
		return n
	case token.FSTRING:
		t := p.tok
		p.advance()
		return &Node{Kind: KFString, Pos: start, Data: [2]any{t.Parts, t.FSTRVars}}
	case token.KW_TRUE:
		p.advance()
		return &Node{Kind: KBool, Pos: start, Data: true}
	case token.KW_FALSE:
		p.advance()
		return &Node{Kind: KBool, Pos: start, Data: false}
	case token.LPAREN:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RPAREN)
		return inner
	case token.LBRACKET:
		return p.parseArrayLit()
	case token.LBRACE:
		return p.parseDictLit()
	}
	p.fail("unexpected token %s", p.tok.Kind)
	return &Node{Kind: KIdent, Pos: start}
}

func (p *Parser) parseArrayLit() *Node {
	start := p.tok.Pos
	p.advance() // [
	n := &Node{Kind: KArrayLit, Pos: start}
	for !p.at(token.RBRACKET) && p.err == nil {
		n.Children = append(n.Children, p.parseExpr())
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACKET)
	n.End = p.tok.Pos
	return n
}

func (p *Parser) parseDictLit() *Node {
	start := p.tok.Pos
	p.advance() // {
	n := &Node{Kind: KDictLit, Pos: start}
	for !p.at(token.RBRACE) && p.err == nil {
		var key *Node
		if p.at(token.STRING) {
			key = &Node{Kind: KString, Pos: p.tok.Pos, Data: p.tok.Str}
			p.advance()
		} else {
			key = p.parseExpr()
		}
		p.expect(token.COLON)
		val := p.parseExpr()
		n.Children = append(n.Children, key, val)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACE)
	n.End = p.tok.Pos
	return n
}
