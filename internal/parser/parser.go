// Package parser implements a recursive descent parser for RFC 9535
// JSONPath expressions with one-token lookahead. It consumes tokens from
// the lexer, builds the AST, and performs all parse-time validation: the
// singular-query restriction on comparison operands and the
// well-typedness rules for function calls.
package parser

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/evenlode/jsonpath/functions"
	"github.com/evenlode/jsonpath/internal/ast"
	"github.com/evenlode/jsonpath/internal/lexer"
)

// maxIndex is the RFC 9535 §2.1 bound on index and step values: 2^53-1,
// the largest integer exactly representable in an IEEE-754 double.
const maxIndex = 1<<53 - 1

// Error is a syntax error at a byte position in the query source.
type Error struct {
	Pos int
	Msg string
}

// Error returns the message with its position.
func (e *Error) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

// Parser holds the token cursor and the function registry used for
// well-typedness checking.
type Parser struct {
	src    string
	tokens []lexer.Token
	pos    int
	reg    *functions.Registry
}

// Parse tokenizes src and parses it into a [ast.Query]. All failures are
// *[Error] values carrying a byte position.
func Parse(src string, reg *functions.Registry) (*ast.Query, error) {
	p, err := newParser(src, reg)
	if err != nil {
		return nil, err
	}
	return p.parse()
}

// newParser runs the lexer to completion and positions the cursor at the
// first token.
func newParser(src string, reg *functions.Registry) (*Parser, error) {
	lex := lexer.New(src)
	// Typical expressions run about one token per three characters.
	tokens := make([]lexer.Token, 0, len(src)/3+1)
	for {
		tok := lex.Scan()
		if tok.Kind == lexer.Invalid {
			return nil, &Error{Pos: tok.Start, Msg: tok.Str}
		}
		tokens = append(tokens, tok)
		if tok.Kind == lexer.EOF {
			break
		}
	}
	return &Parser{src: src, tokens: tokens, reg: reg}, nil
}

// parse parses a complete query: root identifier, segments, end of input.
func (p *Parser) parse() (*ast.Query, error) {
	// RFC 9535 forbids leading and trailing blank space around the query.
	if len(p.src) > 0 && isBlank(p.src[0]) {
		return nil, &Error{Pos: 0, Msg: "leading whitespace not allowed"}
	}
	if len(p.src) > 0 && isBlank(p.src[len(p.src)-1]) {
		return nil, &Error{Pos: len(p.src) - 1, Msg: "trailing whitespace not allowed"}
	}

	if err := p.consume(lexer.Root, "query must start with '$'"); err != nil {
		return nil, err
	}

	segments, err := p.parseSegments()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errHere("unexpected token after query")
	}
	return ast.NewQuery(true, segments...), nil
}

// parseSegments parses zero or more child and descendant segments.
func (p *Parser) parseSegments() ([]ast.Segment, error) {
	var segments []ast.Segment
	for {
		switch {
		case p.match(lexer.DotDot):
			seg, err := p.parseDescendant()
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
		case p.match(lexer.Dot):
			sel, err := p.parseDotChild()
			if err != nil {
				return nil, err
			}
			segments = append(segments, ast.ChildSegment(sel))
		case p.match(lexer.LeftBracket):
			sels, err := p.parseBracketed()
			if err != nil {
				return nil, err
			}
			segments = append(segments, ast.ChildSegment(sels...))
		default:
			return segments, nil
		}
	}
}

// parseDescendant parses the tail of a descendant segment after "..".
func (p *Parser) parseDescendant() (ast.Segment, error) {
	if err := p.requireAdjacent("whitespace not allowed after '..'"); err != nil {
		return ast.Segment{}, err
	}
	switch {
	case p.match(lexer.LeftBracket):
		sels, err := p.parseBracketed()
		if err != nil {
			return ast.Segment{}, err
		}
		return ast.DescendantSegment(sels...), nil
	case p.match(lexer.Wildcard):
		return ast.DescendantSegment(ast.WildcardSelector()), nil
	case p.checkNameLike():
		return ast.DescendantSegment(ast.NameSelector(p.advance().Text(p.src))), nil
	default:
		return ast.Segment{}, p.errHere("expected '[', '*', or member name after '..'")
	}
}

// parseDotChild parses the tail of a dot-child segment after ".".
func (p *Parser) parseDotChild() (ast.Selector, error) {
	if err := p.requireAdjacent("whitespace not allowed after '.'"); err != nil {
		return ast.Selector{}, err
	}
	if p.match(lexer.Wildcard) {
		return ast.WildcardSelector(), nil
	}
	if p.checkNameLike() {
		return ast.NameSelector(p.advance().Text(p.src)), nil
	}
	return ast.Selector{}, p.errHere("expected '*' or member name after '.'")
}

// checkNameLike reports whether the current token can serve as a member
// name shorthand: a name, or one of the keywords true/false/null (keywords
// only bind at word boundaries, so they are fine as member names).
func (p *Parser) checkNameLike() bool {
	return p.check(lexer.Name) || p.check(lexer.True) ||
		p.check(lexer.False) || p.check(lexer.Null)
}

// parseBracketed parses a comma-separated selector list and its closing
// bracket.
func (p *Parser) parseBracketed() ([]ast.Selector, error) {
	var selectors []ast.Selector
	for {
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
		if !p.match(lexer.Comma) {
			break
		}
	}
	if err := p.consume(lexer.RightBracket, "expected ',' or ']'"); err != nil {
		return nil, err
	}
	return selectors, nil
}

// parseSelector parses a single selector inside brackets.
func (p *Parser) parseSelector() (ast.Selector, error) {
	switch {
	case p.match(lexer.Wildcard):
		return ast.WildcardSelector(), nil
	case p.check(lexer.Str):
		return ast.NameSelector(p.advance().Str), nil
	case p.check(lexer.Integer):
		return p.parseIndexOrSlice()
	case p.match(lexer.Colon):
		return p.parseSlice(ast.SliceArgs{})
	case p.match(lexer.Question):
		cond, err := p.parseLogicalOr()
		if err != nil {
			return ast.Selector{}, err
		}
		return ast.FilterSelector(&ast.FilterExpr{Cond: cond}), nil
	default:
		return ast.Selector{}, p.errHere("expected selector")
	}
}

// parseIndexOrSlice parses a selector that starts with an integer: a plain
// index, or a slice when a colon follows.
func (p *Parser) parseIndexOrSlice() (ast.Selector, error) {
	start, err := p.parseIndexValue()
	if err != nil {
		return ast.Selector{}, err
	}
	if p.match(lexer.Colon) {
		return p.parseSlice(ast.SliceArgs{Start: start, HasStart: true})
	}
	return ast.IndexSelector(start), nil
}

// parseSlice parses the remainder of a slice selector after the first
// colon. args carries the already-parsed start component.
func (p *Parser) parseSlice(args ast.SliceArgs) (ast.Selector, error) {
	if p.check(lexer.Integer) {
		end, err := p.parseIndexValue()
		if err != nil {
			return ast.Selector{}, err
		}
		args.End = end
		args.HasEnd = true
	}
	if p.match(lexer.Colon) {
		if p.check(lexer.Integer) {
			step, err := p.parseIndexValue()
			if err != nil {
				return ast.Selector{}, err
			}
			args.Step = step
			args.HasStep = true
		}
	}
	return ast.SliceSelector(args), nil
}

// parseIndexValue parses an integer token with the RFC restrictions for
// index, start, end, and step values: no -0, magnitude at most 2^53-1.
func (p *Parser) parseIndexValue() (int64, error) {
	tok := p.advance()
	text := tok.Text(p.src)
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, &Error{Pos: tok.Start, Msg: "invalid integer"}
	}
	if v == 0 && text[0] == '-' {
		return 0, &Error{Pos: tok.Start, Msg: "'-0' is not allowed"}
	}
	if v < -maxIndex || v > maxIndex {
		return 0, &Error{Pos: tok.Start, Msg: "index out of range"}
	}
	return v, nil
}

// Filter expression grammar. Precedence: || < && < ! < primaries.

// parseLogicalOr parses: logical-and *( "||" logical-and ).
func (p *Parser) parseLogicalOr() (ast.LogicalOr, error) {
	var or ast.LogicalOr
	for {
		and, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		or = append(or, and)
		if !p.match(lexer.Or) {
			return or, nil
		}
	}
}

// parseLogicalAnd parses: basic-expr *( "&&" basic-expr ).
func (p *Parser) parseLogicalAnd() (ast.LogicalAnd, error) {
	var and ast.LogicalAnd
	for {
		expr, err := p.parseBasicExpr()
		if err != nil {
			return nil, err
		}
		and = append(and, expr)
		if !p.match(lexer.And) {
			return and, nil
		}
	}
}

// parseBasicExpr parses one basic-expr: a (negated) parenthesized
// expression, a (negated) existence test, a (negated) function test, or a
// comparison.
func (p *Parser) parseBasicExpr() (ast.BasicExpr, error) {
	if p.match(lexer.Not) {
		return p.parseNegated()
	}

	if p.match(lexer.LeftParen) {
		cond, err := p.parseLogicalOr()
		if err != nil {
			return nil, err
		}
		if err := p.consume(lexer.RightParen, "expected ')'"); err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Cond: cond}, nil
	}

	if p.check(lexer.Name) {
		return p.parseFuncBasicExpr()
	}

	if p.check(lexer.Current) || p.check(lexer.Root) {
		return p.parseQueryBasicExpr()
	}

	if p.checkLiteral() {
		left, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		if !p.checkCompOp() {
			return nil, p.errHere("expected comparison operator after literal")
		}
		op := p.parseCompOp()
		right, err := p.parseComparable()
		if err != nil {
			return nil, err
		}
		return &ast.CompExpr{Left: &ast.LiteralComp{Val: left}, Op: op, Right: right}, nil
	}

	return nil, p.errHere("expected filter expression")
}

// parseNegated parses the expression after '!': a parenthesized group, a
// logical function test, or an existence test. Comparisons cannot be
// negated directly per the RFC grammar.
func (p *Parser) parseNegated() (ast.BasicExpr, error) {
	if p.match(lexer.LeftParen) {
		cond, err := p.parseLogicalOr()
		if err != nil {
			return nil, err
		}
		if err := p.consume(lexer.RightParen, "expected ')'"); err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Cond: cond, Negated: true}, nil
	}
	if p.check(lexer.Name) {
		fn, err := p.parseFuncCall()
		if err != nil {
			return nil, err
		}
		if rt := fn.ResultType(); rt != functions.Logical && rt != functions.Nodes {
			return nil, p.errHere("only LogicalType or NodesType functions may be used as a test")
		}
		return &ast.FuncTestExpr{Fn: fn, Negated: true}, nil
	}
	if p.check(lexer.Current) || p.check(lexer.Root) {
		query, err := p.parseEmbeddedQuery()
		if err != nil {
			return nil, err
		}
		return &ast.ExistsExpr{Query: query, Negated: true}, nil
	}
	return nil, p.errHere("expected '(', function, or query after '!'")
}

// parseFuncBasicExpr parses a basic-expr that starts with a function call:
// either a comparison with the call on the left, or a bare function test.
func (p *Parser) parseFuncBasicExpr() (ast.BasicExpr, error) {
	fn, err := p.parseFuncCall()
	if err != nil {
		return nil, err
	}

	if p.checkCompOp() {
		if fn.ResultType() != functions.Value {
			return nil, p.errHere("comparison operand function must return ValueType")
		}
		op := p.parseCompOp()
		right, err := p.parseComparable()
		if err != nil {
			return nil, err
		}
		return &ast.CompExpr{Left: &ast.FuncComp{Fn: fn}, Op: op, Right: right}, nil
	}

	if rt := fn.ResultType(); rt != functions.Logical && rt != functions.Nodes {
		return nil, p.errHere("ValueType function must be used in a comparison")
	}
	return &ast.FuncTestExpr{Fn: fn}, nil
}

// parseQueryBasicExpr parses a basic-expr that starts with @ or $: either a
// comparison with a singular query on the left, or an existence test.
func (p *Parser) parseQueryBasicExpr() (ast.BasicExpr, error) {
	queryPos := p.peek().Start
	query, err := p.parseEmbeddedQuery()
	if err != nil {
		return nil, err
	}

	if p.checkCompOp() {
		if !query.IsSingular() {
			return nil, &Error{Pos: queryPos, Msg: "singular query required on comparison side"}
		}
		op := p.parseCompOp()
		right, err := p.parseComparable()
		if err != nil {
			return nil, err
		}
		return &ast.CompExpr{Left: &ast.QueryComp{Query: query}, Op: op, Right: right}, nil
	}

	return &ast.ExistsExpr{Query: query}, nil
}

// parseEmbeddedQuery parses a query rooted at @ or $ inside a filter
// expression.
func (p *Parser) parseEmbeddedQuery() (*ast.Query, error) {
	rooted := p.check(lexer.Root)
	if !p.match(lexer.Root) && !p.match(lexer.Current) {
		return nil, p.errHere("expected '@' or '$'")
	}
	segments, err := p.parseSegments()
	if err != nil {
		return nil, err
	}
	return ast.NewQuery(rooted, segments...), nil
}

// parseComparable parses the operand of a comparison: a literal, a
// singular query, or a ValueType function call.
func (p *Parser) parseComparable() (ast.Comparable, error) {
	if p.check(lexer.Name) {
		fn, err := p.parseFuncCall()
		if err != nil {
			return nil, err
		}
		if fn.ResultType() != functions.Value {
			return nil, p.errHere("comparison operand function must return ValueType")
		}
		return &ast.FuncComp{Fn: fn}, nil
	}
	if p.check(lexer.Current) || p.check(lexer.Root) {
		queryPos := p.peek().Start
		query, err := p.parseEmbeddedQuery()
		if err != nil {
			return nil, err
		}
		if !query.IsSingular() {
			return nil, &Error{Pos: queryPos, Msg: "singular query required on comparison side"}
		}
		return &ast.QueryComp{Query: query}, nil
	}
	val, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return &ast.LiteralComp{Val: val}, nil
}

// parseFuncCall parses name(arg, ...) and performs the parse-time
// well-typedness checks: registered name, valid function-name syntax,
// argument count, and argument-type convertibility.
func (p *Parser) parseFuncCall() (*ast.FuncExpr, error) {
	nameTok := p.advance()
	name := nameTok.Text(p.src)

	if !isFunctionName(name) {
		return nil, &Error{Pos: nameTok.Start, Msg: fmt.Sprintf("invalid function name %q", name)}
	}
	if err := p.requireAdjacent("whitespace not allowed between function name and '('"); err != nil {
		return nil, err
	}
	if err := p.consume(lexer.LeftParen, "expected '(' after function name"); err != nil {
		return nil, err
	}

	var args []ast.FuncArg
	var argPos []int
	if !p.check(lexer.RightParen) {
		for {
			argPos = append(argPos, p.peek().Start)
			arg, err := p.parseFuncArg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	if err := p.consume(lexer.RightParen, "expected ',' or ')'"); err != nil {
		return nil, err
	}

	fn, ok := p.reg.Lookup(name)
	if !ok {
		return nil, &Error{Pos: nameTok.Start, Msg: fmt.Sprintf("unknown function %q", name)}
	}

	argTypes := inferArgTypes(args)
	if err := fn.Validate(argTypes); err != nil {
		return nil, &Error{Pos: nameTok.Start, Msg: fmt.Sprintf("function %q: %v", name, err)}
	}

	// Reject literal I-Regexp patterns that can never compile.
	if (name == "match" || name == "search") && len(args) == 2 {
		if lit, ok := args[1].(*ast.LiteralArg); ok {
			if pattern, ok := lit.Val.(string); ok {
				if err := functions.CheckIRegexp(pattern); err != nil {
					return nil, &Error{Pos: argPos[1], Msg: fmt.Sprintf("invalid regular expression: %v", err)}
				}
			}
		}
	}

	return ast.NewFuncExpr(fn, resolveParams(fn, argTypes), args...), nil
}

// parseFuncArg parses one function argument: a query, a nested call, or a
// literal.
func (p *Parser) parseFuncArg() (ast.FuncArg, error) {
	if p.check(lexer.Current) || p.check(lexer.Root) {
		query, err := p.parseEmbeddedQuery()
		if err != nil {
			return nil, err
		}
		return &ast.QueryArg{Query: query}, nil
	}
	if p.check(lexer.Name) {
		fn, err := p.parseFuncCall()
		if err != nil {
			return nil, err
		}
		return &ast.NestedArg{Fn: fn}, nil
	}
	val, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return &ast.LiteralArg{Val: val}, nil
}

// inferArgTypes computes the statically inferred [functions.ArgType] of
// each argument expression per RFC 9535 §2.4.3.
func inferArgTypes(args []ast.FuncArg) []functions.ArgType {
	types := make([]functions.ArgType, len(args))
	for i, arg := range args {
		switch a := arg.(type) {
		case *ast.QueryArg:
			if a.Query.IsSingular() {
				types[i] = functions.ArgSingularQuery
			} else {
				types[i] = functions.ArgQuery
			}
		case *ast.NestedArg:
			switch a.Fn.ResultType() {
			case functions.Value:
				types[i] = functions.ArgValue
			case functions.Nodes:
				types[i] = functions.ArgNodes
			default:
				types[i] = functions.ArgLogical
			}
		default:
			types[i] = functions.ArgLiteral
		}
	}
	return types
}

// resolveParams determines the parameter universe for each argument by
// probing the function's Validate with each unambiguous argument type. The
// evaluator uses the result to convert arguments at the call boundary;
// when a parameter accepts more than one universe, NodesType wins, so
// singular queries reach functions like value() as node lists rather than
// extracted values.
func resolveParams(fn functions.Function, argTypes []functions.ArgType) []functions.FuncType {
	params := make([]functions.FuncType, len(argTypes))
	probe := make([]functions.ArgType, len(argTypes))
	for i := range argTypes {
		copy(probe, argTypes)
		for _, cand := range [...]functions.FuncType{functions.Nodes, functions.Value, functions.Logical} {
			switch cand {
			case functions.Nodes:
				probe[i] = functions.ArgNodes
			case functions.Value:
				probe[i] = functions.ArgValue
			case functions.Logical:
				probe[i] = functions.ArgLogical
			}
			if fn.Validate(probe) == nil {
				params[i] = cand
				break
			}
		}
		if params[i] == 0 {
			// Validate accepted the inferred types but none of the probes;
			// fall back to the natural universe of the argument itself.
			switch argTypes[i] {
			case functions.ArgLiteral, functions.ArgValue, functions.ArgSingularQuery:
				params[i] = functions.Value
			case functions.ArgLogical:
				params[i] = functions.Logical
			default:
				params[i] = functions.Nodes
			}
		}
	}
	return params
}

// parseLiteral parses a literal value token.
func (p *Parser) parseLiteral() (any, error) {
	switch {
	case p.match(lexer.Str):
		return p.previous().Str, nil
	case p.match(lexer.Integer):
		v, err := strconv.ParseInt(p.previous().Text(p.src), 10, 64)
		if err != nil {
			// Integers beyond int64 are still valid JSON numbers.
			f, ferr := strconv.ParseFloat(p.previous().Text(p.src), 64)
			if ferr != nil {
				return nil, &Error{Pos: p.previous().Start, Msg: "invalid number"}
			}
			return f, nil
		}
		return v, nil
	case p.match(lexer.Number):
		v, err := strconv.ParseFloat(p.previous().Text(p.src), 64)
		if err != nil {
			return nil, &Error{Pos: p.previous().Start, Msg: "invalid number"}
		}
		return v, nil
	case p.match(lexer.True):
		return true, nil
	case p.match(lexer.False):
		return false, nil
	case p.match(lexer.Null):
		return nil, nil
	default:
		return nil, p.errHere("expected literal value")
	}
}

// checkLiteral reports whether the current token starts a literal.
func (p *Parser) checkLiteral() bool {
	switch p.peek().Kind {
	case lexer.Str, lexer.Integer, lexer.Number, lexer.True, lexer.False, lexer.Null:
		return true
	}
	return false
}

// checkCompOp reports whether the current token is a comparison operator.
func (p *Parser) checkCompOp() bool {
	switch p.peek().Kind {
	case lexer.Equal, lexer.NotEqual, lexer.Less, lexer.LessEqual,
		lexer.Greater, lexer.GreaterEqual:
		return true
	}
	return false
}

// parseCompOp consumes a comparison operator token. checkCompOp must have
// returned true.
func (p *Parser) parseCompOp() ast.CompOp {
	switch p.advance().Kind {
	case lexer.Equal:
		return ast.OpEqual
	case lexer.NotEqual:
		return ast.OpNotEqual
	case lexer.Less:
		return ast.OpLess
	case lexer.LessEqual:
		return ast.OpLessEqual
	case lexer.Greater:
		return ast.OpGreater
	default:
		return ast.OpGreaterEqual
	}
}

// Token navigation.

// requireAdjacent fails with msg when blank space separates the previous
// token from the current one. The RFC forbids whitespace after '.' and
// '..' and between a function name and its '('.
func (p *Parser) requireAdjacent(msg string) error {
	if p.atEnd() {
		return nil
	}
	if p.previous().End < p.peek().Start {
		return p.errHere(msg)
	}
	return nil
}

// consume advances past a token of the given kind, or fails with msg at
// the current position.
func (p *Parser) consume(kind lexer.Kind, msg string) error {
	if p.match(kind) {
		return nil
	}
	return p.errHere(msg)
}

// match consumes the current token when its kind is one of kinds.
func (p *Parser) match(kinds ...lexer.Kind) bool {
	if slices.ContainsFunc(kinds, p.check) {
		p.advance()
		return true
	}
	return false
}

// check reports whether the current token has the given kind.
func (p *Parser) check(kind lexer.Kind) bool {
	return !p.atEnd() && p.peek().Kind == kind
}

// advance consumes and returns the current token.
func (p *Parser) advance() lexer.Token {
	if !p.atEnd() {
		p.pos++
	}
	return p.previous()
}

// atEnd reports whether the cursor is at the EOF token.
func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Kind == lexer.EOF
}

// peek returns the current token without consuming it.
func (p *Parser) peek() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return lexer.Token{Kind: lexer.EOF, Start: len(p.src), End: len(p.src)}
}

// previous returns the most recently consumed token.
func (p *Parser) previous() lexer.Token {
	if p.pos > 0 && p.pos <= len(p.tokens) {
		return p.tokens[p.pos-1]
	}
	return lexer.Token{Kind: lexer.Invalid}
}

// errHere creates an [Error] at the current token.
func (p *Parser) errHere(msg string) error {
	tok := p.peek()
	if tok.Kind == lexer.EOF {
		return &Error{Pos: len(p.src), Msg: msg + " at end of input"}
	}
	return &Error{Pos: tok.Start, Msg: msg}
}

// isFunctionName reports whether name satisfies the RFC 9535 §2.4.1
// function-name syntax: LCALPHA *(LCALPHA / DIGIT / "_").
func isFunctionName(name string) bool {
	if name == "" {
		return false
	}
	if name[0] < 'a' || name[0] > 'z' {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

// isBlank reports whether b is RFC 9535 blank space (SP / HTAB / LF / CR).
func isBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
