// Package syntax reads lambda terms written as text, e.g. `\x.\y.x y`,
// `λf x.f (f x)` or the colon form `x: y: x`, into de Bruijn terms.
package syntax

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vic/lambdalab/pkg/lambda"
)

// ErrSyntax wraps every parse failure.
var ErrSyntax = errors.New("syntax error")

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenLambda
	TokenDot
	TokenColon
	TokenEqual
	TokenSemicolon
	TokenLParen
	TokenRParen
	TokenLet
	TokenIn
)

type Token struct {
	Type    TokenType
	Literal string
}

// named terms, resolved to de Bruijn indices once every free name is known.
type (
	nVar struct{ name string }
	nAbs struct {
		arg  string
		body node
	}
	nApp struct{ fun, arg node }
)

type node interface{}

type Parser struct {
	input   string
	pos     int
	current Token
}

func NewParser(input string) *Parser {
	p := &Parser{input: input}
	p.next()
	return p
}

func (p *Parser) next() {
	p.skipWhitespace()
	if p.pos >= len(p.input) {
		p.current = Token{Type: TokenEOF}
		return
	}

	ch, width := utf8.DecodeRuneInString(p.input[p.pos:])
	switch {
	case ch == '\\' || ch == 'λ':
		p.current = Token{Type: TokenLambda, Literal: string(ch)}
		p.pos += width
	case isLetter(ch):
		start := p.pos
		for p.pos < len(p.input) {
			r, w := utf8.DecodeRuneInString(p.input[p.pos:])
			if r == 'λ' || !(isLetter(r) || unicode.IsDigit(r) || r == '\'') {
				break
			}
			p.pos += w
		}
		lit := p.input[start:p.pos]
		switch lit {
		case "let":
			p.current = Token{Type: TokenLet, Literal: lit}
		case "in":
			p.current = Token{Type: TokenIn, Literal: lit}
		default:
			p.current = Token{Type: TokenIdent, Literal: lit}
		}
	case ch == '.':
		p.current = Token{Type: TokenDot, Literal: "."}
		p.pos++
	case ch == ':':
		p.current = Token{Type: TokenColon, Literal: ":"}
		p.pos++
	case ch == '=':
		p.current = Token{Type: TokenEqual, Literal: "="}
		p.pos++
	case ch == ';':
		p.current = Token{Type: TokenSemicolon, Literal: ";"}
		p.pos++
	case ch == '(':
		p.current = Token{Type: TokenLParen, Literal: "("}
		p.pos++
	case ch == ')':
		p.current = Token{Type: TokenRParen, Literal: ")"}
		p.pos++
	default:
		// Single symbols such as + are plain identifiers.
		p.current = Token{Type: TokenIdent, Literal: string(ch)}
		p.pos += width
	}
}

func (p *Parser) skipWhitespace() {
	for p.pos < len(p.input) {
		r, w := utf8.DecodeRuneInString(p.input[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += w
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || (ch != 'λ' && unicode.IsLetter(ch))
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

// Parse reads the whole input as one term and resolves it against ctx.
// Names bound nowhere and missing from ctx are pushed onto ctx in order of
// first occurrence, so the returned context always covers the term.
func (p *Parser) Parse(ctx *lambda.Context) (lambda.Term, error) {
	n, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.errorf("unexpected %q", p.current.Literal)
	}
	return resolve(n, ctx), nil
}

// Term ::= Let | Lambda | Ident ':' Term | App
func (p *Parser) parseTerm() (node, error) {
	switch p.current.Type {
	case TokenLet:
		return p.parseLet()
	case TokenLambda:
		return p.parseLambda()
	}

	if p.current.Type == TokenIdent {
		// Lookahead for the colon form `x: body`.
		savePos := p.pos
		saveTok := p.current

		p.next()
		if p.current.Type == TokenColon {
			p.next()
			body, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			return nAbs{arg: saveTok.Literal, body: body}, nil
		}

		p.pos = savePos
		p.current = saveTok
	}

	return p.parseApp()
}

// Lambda ::= ('\' | 'λ') Ident+ '.' Term
func (p *Parser) parseLambda() (node, error) {
	p.next() // consume lambda
	var args []string
	for p.current.Type == TokenIdent {
		args = append(args, p.current.Literal)
		p.next()
	}
	if len(args) == 0 {
		return nil, p.errorf("expected binder after lambda")
	}
	if p.current.Type != TokenDot {
		return nil, p.errorf("expected '.' after binders")
	}
	p.next()
	body, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for i := len(args) - 1; i >= 0; i-- {
		body = nAbs{arg: args[i], body: body}
	}
	return body, nil
}

func (p *Parser) parseApp() (node, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current.Type {
		case TokenEOF, TokenRParen, TokenSemicolon, TokenIn:
			return left, nil
		case TokenLambda, TokenLet:
			// A trailing abstraction extends as far right as possible:
			// `f \x.x y` is `f (\x.x y)`.
			arg, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			return nApp{fun: left, arg: arg}, nil
		case TokenIdent:
			savePos := p.pos
			saveTok := p.current
			p.next()
			if p.current.Type == TokenColon {
				p.pos = savePos
				p.current = saveTok
				arg, err := p.parseTerm()
				if err != nil {
					return nil, err
				}
				return nApp{fun: left, arg: arg}, nil
			}
			p.pos = savePos
			p.current = saveTok
		}

		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = nApp{fun: left, arg: right}
	}
}

func (p *Parser) parseAtom() (node, error) {
	switch p.current.Type {
	case TokenIdent:
		name := p.current.Literal
		p.next()
		return nVar{name: name}, nil
	case TokenLParen:
		p.next()
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenRParen {
			return nil, p.errorf("expected ')'")
		}
		p.next()
		return term, nil
	case TokenEOF:
		return nil, p.errorf("unexpected end of input")
	default:
		return nil, p.errorf("unexpected %q", p.current.Literal)
	}
}

// Let ::= 'let' (Ident '=' Term ';')+ 'in'? Term
// let x = M; y = N in B desugars to (\x. (\y. B) N) M.
func (p *Parser) parseLet() (node, error) {
	p.next() // consume 'let'

	type binding struct {
		name string
		val  node
	}
	var bindings []binding

	for {
		if p.current.Type != TokenIdent {
			return nil, p.errorf("expected identifier in let binding")
		}
		name := p.current.Literal
		p.next()

		if p.current.Type != TokenEqual {
			return nil, p.errorf("expected '='")
		}
		p.next()

		val, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding{name, val})

		if p.current.Type == TokenSemicolon {
			p.next()
			if p.current.Type == TokenIn {
				p.next()
				break
			}
			// Another binding, or the body directly.
			if !p.startsBinding() {
				break
			}
		} else if p.current.Type == TokenIn {
			p.next()
			break
		} else {
			return nil, p.errorf("expected ';' or 'in'")
		}
	}

	body, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	term := body
	for i := len(bindings) - 1; i >= 0; i-- {
		b := bindings[i]
		term = nApp{fun: nAbs{arg: b.name, body: term}, arg: b.val}
	}
	return term, nil
}

// startsBinding reports whether the upcoming tokens are `ident =`.
func (p *Parser) startsBinding() bool {
	if p.current.Type != TokenIdent {
		return false
	}
	savePos := p.pos
	saveTok := p.current
	p.next()
	ok := p.current.Type == TokenEqual
	p.pos = savePos
	p.current = saveTok
	return ok
}

// resolve converts a named term to de Bruijn form against ctx.
func resolve(root node, ctx *lambda.Context) lambda.Term {
	for _, name := range freeNames(root) {
		if !ctx.Contains(name) {
			ctx.Push(name)
		}
	}
	var walk func(n node, bound []string) lambda.Term
	walk = func(n node, bound []string) lambda.Term {
		switch v := n.(type) {
		case nVar:
			for i := len(bound) - 1; i >= 0; i-- {
				if bound[i] == v.name {
					return lambda.Var{Index: len(bound) - 1 - i}
				}
			}
			idx, _ := ctx.Lookup(v.name)
			return lambda.Var{Index: idx + len(bound)}
		case nAbs:
			return lambda.Abs{Label: v.arg, Body: walk(v.body, append(bound[:len(bound):len(bound)], v.arg))}
		case nApp:
			return lambda.App{Fun: walk(v.fun, bound), Arg: walk(v.arg, bound)}
		default:
			panic(fmt.Sprintf("syntax: unknown node %T", n))
		}
	}
	return walk(root, nil)
}

func freeNames(root node) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(n node, bound []string)
	walk = func(n node, bound []string) {
		switch v := n.(type) {
		case nVar:
			for _, b := range bound {
				if b == v.name {
					return
				}
			}
			if !seen[v.name] {
				seen[v.name] = true
				out = append(out, v.name)
			}
		case nAbs:
			walk(v.body, append(bound[:len(bound):len(bound)], v.arg))
		case nApp:
			walk(v.fun, bound)
			walk(v.arg, bound)
		}
	}
	walk(root, nil)
	return out
}

// Parse reads input against a fresh context built from the
// whitespace-separated names in free.
func Parse(input, free string) (lambda.Term, *lambda.Context, error) {
	ctx := lambda.NewContext(strings.Fields(free)...)
	term, err := NewParser(input).Parse(ctx)
	if err != nil {
		return nil, nil, err
	}
	return term, ctx, nil
}

// MustParse is Parse for inputs known to be valid, such as test fixtures.
func MustParse(input string) (lambda.Term, *lambda.Context) {
	term, ctx, err := Parse(input, "")
	if err != nil {
		panic(err)
	}
	return term, ctx
}
