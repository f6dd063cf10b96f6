package plotexpr

import "unicode/utf8"

// Expr = num | 'x' | const | Call | Neg | Plus | Add | Sub | Mul | Div | Pow | '(' Expr ')'
// Call = funcname '(' Expr { ',' Expr } ')'
// Neg = '-' Expr
// Plus = '+' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr | Expr Expr
// Div = Expr '/' Expr
// Pow = Expr '^' Expr

// maxDepth is the deepest nesting of subexpressions the parser accepts.
const maxDepth = 512

// Expr is a parsed expression of x that can be evaluated and sampled many
// times. It is safe for concurrent use.
type Expr struct {
	// src is the text the expression was parsed from.
	src string
	// n is the root node of the expression.
	n *Node
}

// Parse tokenizes and parses an expression. Errors implement InputError.
func Parse(src string) (*Expr, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	n, err := ParseTokens(toks)
	if err != nil {
		return nil, err
	}
	return &Expr{src: src, n: n}, nil
}

// NewExpr wraps a tree, e.g. one built by hand, as an expression. Errors in
// the tree are reported when it is evaluated.
func NewExpr(n *Node) *Expr {
	return &Expr{src: n.String(), n: n}
}

// Source returns the text the expression was parsed from.
func (e *Expr) Source() string {
	return e.src
}

// Root returns the root of the expression's tree. The tree must not be
// modified.
func (e *Expr) Root() *Node {
	return e.n
}

// String creates a string representation of the parsed expression, with
// alternating round and square brackets grouping each term.
func (e *Expr) String() string {
	return e.n.String()
}

type parser struct {
	toks  []Token
	k     int
	depth int
}

// peek returns the next token without consuming it. Past the end of the
// slice, the result is an EOF token, so hand-built slices need not end with
// one.
func (p *parser) peek() Token {
	if p.k < len(p.toks) {
		return p.toks[p.k]
	}
	if len(p.toks) == 0 {
		return Token{Kind: TokenEOF}
	}
	last := p.toks[len(p.toks)-1]
	return Token{Kind: TokenEOF, Pos: last.Pos + utf8.RuneCountInString(last.Text)}
}

// next consumes the next token. EOF is never consumed.
func (p *parser) next() Token {
	tok := p.peek()
	if tok.Kind != TokenEOF {
		p.k++
	}
	return tok
}

// ParseTokens parses a token sequence as produced by Tokenize. Errors
// implement InputError.
func ParseTokens(toks []Token) (*Node, error) {
	p := parser{toks: toks}
	n, err := p.parseterm(exprprec, "")
	if err != nil {
		return nil, err
	}
	switch tok := p.next(); tok.Kind {
	case TokenEOF:
		if p.k < len(p.toks)-1 {
			// Tokens after an EOF in the middle of the slice.
			tok = p.toks[p.k+1]
			return nil, &TrailingError{Col: tok.Pos, Text: tok.Text}
		}
		return n, nil
	case TokenClose:
		return nil, &BracketError{Col: tok.Pos}
	default:
		return nil, &TrailingError{Col: tok.Pos, Text: tok.Text}
	}
}

// parseterm parses a single term whose operators all bind more tightly than
// until. after is the operator or bracket that precedes the term, for error
// messages. parseterm leaves the token that ended the term unconsumed.
func (p *parser) parseterm(until operator, after string) (*Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, &DepthError{Col: p.peek().Pos}
	}
	n, err := p.parselhs(until, after)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenNum, TokenIdent, TokenOpen:
			// (parsed) x -> (parsed) * (x)
			// (parsed) (expr) -> (parsed) * (expr)
			// a^(parsed) x -> (a^(parsed)) * (x)
			// a/(parsed) x -> (a/(parsed)) * (x)
			if !termprec.moreBinding(until) {
				return n, nil
			}
			rhs, err := p.parseterm(termprec, "")
			if err != nil {
				return nil, err
			}
			n = Binary(NodeMul, n, rhs)
		case TokenOp:
			prec := binop(tok.Text)
			if prec.op == NodeNone {
				return nil, &TrailingError{Col: tok.Pos, Text: tok.Text}
			}
			if !prec.moreBinding(until) {
				return n, nil
			}
			p.next()
			rhs, err := p.parseterm(prec, tok.Text)
			if err != nil {
				return nil, err
			}
			n = Binary(prec.op, n, rhs)
		default:
			// Close, comma, EOF, or junk in a hand-built slice. The caller
			// decides whether the end is valid.
			return n, nil
		}
	}
}

// parselhs parses the first component of a term, so operators are unary and
// the token must be valid as the start of a subexpression.
func (p *parser) parselhs(until operator, after string) (*Node, error) {
	tok := p.next()
	switch tok.Kind {
	case TokenNum:
		return Constant(tok.Num), nil
	case TokenIdent:
		if f, ok := globalfuncs[tok.Text]; ok {
			return p.parsecall(tok, f)
		}
		if tok.Text == "x" {
			return Variable(), nil
		}
		if c, ok := globalconsts[tok.Text]; ok {
			return &Node{Kind: NodeNum, Num: c.v, Name: tok.Text}, nil
		}
		return nil, &IdentError{Col: tok.Pos, Name: tok.Text}
	case TokenOp:
		prec := unop(tok.Text)
		if prec.op == NodeNone {
			return nil, &OperandError{Col: tok.Pos, After: after, Found: tok.Text}
		}
		if !prec.moreBinding(until) {
			// x^-y -> x^(-y)
			// Just use the new operator's precedence to simplify.
			prec.prec, prec.right = until.prec, until.right
		}
		rhs, err := p.parseterm(prec, tok.Text)
		if err != nil {
			return nil, err
		}
		if prec.op == nodePlus {
			return rhs, nil
		}
		return Neg(rhs), nil
	case TokenOpen:
		rhs, err := p.parseterm(exprprec, tok.Text)
		if err != nil {
			return nil, unclosed(err, tok)
		}
		switch end := p.next(); end.Kind {
		case TokenClose:
			return rhs, nil
		case TokenEOF:
			return nil, &BracketError{Col: tok.Pos, Open: true}
		case TokenComma:
			return nil, &SeparatorError{Col: end.Pos}
		default:
			return nil, &TrailingError{Col: end.Pos, Text: end.Text}
		}
	default:
		return nil, &OperandError{Col: tok.Pos, After: after, Found: tok.Text}
	}
}

// parsecall parses the argument list of a call to f. name is the function
// name token, already consumed.
func (p *parser) parsecall(name Token, f fn) (*Node, error) {
	open := p.peek()
	if open.Kind != TokenOpen {
		return nil, &IdentError{Col: name.Pos, Name: name.Text, Func: true}
	}
	p.next()
	if p.peek().Kind == TokenClose {
		p.next()
		if !f.canCall(0) {
			return nil, &CallError{Col: name.Pos, Func: name.Text, Len: 0}
		}
		return Call(name.Text), nil
	}
	var args []*Node
	sep := open.Text
	for {
		arg, err := p.parseterm(exprprec, sep)
		if err != nil {
			return nil, unclosed(err, open)
		}
		args = append(args, arg)
		switch end := p.next(); end.Kind {
		case TokenComma:
			sep = end.Text
		case TokenClose:
			if !f.canCall(len(args)) {
				return nil, &CallError{Col: name.Pos, Func: name.Text, Len: len(args)}
			}
			return Call(name.Text, args...), nil
		case TokenEOF:
			return nil, &BracketError{Col: open.Pos, Open: true}
		default:
			return nil, &TrailingError{Col: end.Pos, Text: end.Text}
		}
	}
}

// unclosed reports a missing operand at the end of the input inside brackets
// as the unclosed bracket open.
func unclosed(err error, open Token) error {
	if oe, _ := err.(*OperandError); oe != nil && oe.Found == "" {
		return &BracketError{Col: open.Pos, Open: true}
	}
	return err
}

// DepthError is an error indicating an expression nested too deeply to
// parse. It implements InputError.
type DepthError struct {
	// Col is the position where the limit was reached.
	Col int
}

func (err *DepthError) Error() string {
	return errpos(err.Col, "expression nested too deeply")
}

func (err *DepthError) Pos() int {
	return err.Col
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op NodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// nodePlus marks unary plus, which produces no node.
const nodePlus NodeKind = -1

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of NodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, NodeAdd}
	case "-":
		return operator{1, false, NodeSub}
	case "*":
		return operator{5, false, NodeMul}
	case "/":
		return operator{5, false, NodeDiv}
	case "^":
		return operator{15, true, NodePow}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of NodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{10, true, nodePlus}
	case "-":
		return operator{10, true, NodeNeg}
	default:
		return operator{}
	}
}

var (
	// termprec is the precedence of implicit multiplication. It matches
	// explicit multiplication, so 6/2x is (6/2)*x.
	termprec = operator{5, false, NodeMul}
	// exprprec is the precedence required to parse an entire subexpression.
	exprprec = operator{-128, true, NodeNone}
)
