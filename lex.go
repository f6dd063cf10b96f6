package plotexpr

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Token is a lexical unit of an expression.
type Token struct {
	// Kind is the token type.
	Kind TokenKind
	// Text is the source text of the token. Identifiers are lowercased.
	Text string
	// Num is the value of a number token.
	Num float64
	// Pos is the 0-based rune offset of the start of the token.
	Pos int
}

func (t Token) String() string {
	return t.Kind.String() + ":" + t.Text + "@" + strconv.Itoa(t.Pos)
}

// TokenKind is the type of a token.
type TokenKind int

const (
	tokenNone TokenKind = iota
	// TokenEOF indicates the end of the input.
	TokenEOF
	// TokenNum is a decimal number.
	TokenNum
	// TokenIdent is a variable, constant, or function name.
	TokenIdent
	// TokenOp is one of the operators + - * / ^.
	TokenOp
	// TokenOpen is an open parenthesis.
	TokenOpen
	// TokenClose is a close parenthesis.
	TokenClose
	// TokenComma separates function arguments.
	TokenComma
)

func (k TokenKind) String() string {
	switch k {
	case tokenNone:
		return "None"
	case TokenEOF:
		return "EOF"
	case TokenNum:
		return "Num"
	case TokenIdent:
		return "Ident"
	case TokenOp:
		return "Op"
	case TokenOpen:
		return "Open"
	case TokenClose:
		return "Close"
	case TokenComma:
		return "Comma"
	default:
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Operators contains the runes which are considered to be operators.
const Operators = "+-*/^"

type lexer struct {
	src  io.RuneScanner
	buf  strings.Builder
	rune int
	eof  bool
}

func lex(src io.RuneScanner) *lexer {
	return &lexer{src: src}
}

// readRune reads a rune from the src and updates the lexer's position info.
func (l *lexer) readRune() (r rune, err error) {
	r, sz, err := l.src.ReadRune()
	if sz > 0 {
		l.rune++
	}
	return r, err
}

// unreadRune unreads a rune from the src and updates the lexer's position
// info. Panics if unreading returns an error.
func (l *lexer) unreadRune() {
	if err := l.src.UnreadRune(); err != nil {
		panic(err)
	}
	l.rune--
}

// next scans the next token from the input. The first time EOF is reached,
// the result is an EOF token with a nil error. Subsequent calls return an
// empty token with io.EOF.
func (l *lexer) next() (Token, error) {
	if l.eof {
		return Token{}, io.EOF
	}
	defer l.buf.Reset()
	for {
		tok := Token{Pos: l.rune}
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				tok.Kind = TokenEOF
				l.eof = true
				return tok, nil
			}
			return tok, err
		}
		switch {
		case unicode.IsSpace(r):
			continue
		case '0' <= r && r <= '9', r == '.':
			l.unreadRune()
			if err := l.scanNum(tok.Pos); err != nil {
				return tok, err
			}
			tok.Text = l.buf.String()
			tok.Kind = TokenNum
			v, err := strconv.ParseFloat(tok.Text, 64)
			if err != nil {
				// Only range errors are possible on digits and one dot, and
				// ParseFloat gives ±Inf for those.
				var ne *strconv.NumError
				if !errors.As(err, &ne) || !errors.Is(ne.Err, strconv.ErrRange) {
					return tok, &LexError{Text: tok.Text, Kind: "number", Col: tok.Pos}
				}
			}
			tok.Num = v
			return tok, nil
		case isLetter(r):
			l.unreadRune()
			l.scanIdent()
			tok.Text = l.buf.String()
			tok.Kind = TokenIdent
			return tok, nil
		case r == '(':
			tok.Text = "("
			tok.Kind = TokenOpen
			return tok, nil
		case r == ')':
			tok.Text = ")"
			tok.Kind = TokenClose
			return tok, nil
		case r == ',':
			tok.Text = ","
			tok.Kind = TokenComma
			return tok, nil
		default:
			if strings.ContainsRune(Operators, r) {
				tok.Text = string(r)
				tok.Kind = TokenOp
				return tok, nil
			}
			return tok, &LexError{Text: string(r), Col: tok.Pos}
		}
	}
}

// scanNum scans a run of digits with at most one decimal point. start is the
// position of the first rune, for errors.
func (l *lexer) scanNum(start int) error {
	var dig, dot bool
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if r == '.' {
			if dot {
				l.buf.WriteRune(r)
				return &LexError{Text: l.buf.String(), Kind: "number", Col: l.rune - 1}
			}
			dot = true
			l.buf.WriteRune(r)
			continue
		}
		if r < '0' || r > '9' {
			l.unreadRune()
			break
		}
		dig = true
		l.buf.WriteRune(r)
	}
	if !dig {
		return &LexError{Text: l.buf.String(), Kind: "number", Col: start}
	}
	return nil
}

// scanIdent scans a run of ASCII letters, folding them to lowercase.
func (l *lexer) scanIdent() {
	for {
		r, err := l.readRune()
		if err != nil {
			// next unreads the letter that decides ident scanning before
			// calling scanIdent, so we have scanned at least one rune.
			return
		}
		if !isLetter(r) {
			l.unreadRune()
			return
		}
		if 'A' <= r && r <= 'Z' {
			r += 'a' - 'A'
		}
		l.buf.WriteRune(r)
	}
}

func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}

// Tokenize splits src into tokens. The result always ends with a TokenEOF
// token. The only errors are of type *LexError.
func Tokenize(src string) ([]Token, error) {
	scan := lex(strings.NewReader(src))
	var toks []Token
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks, nil
		}
	}
}

// LexError indicates an invalid token. It implements InputError.
type LexError struct {
	// Text is the offending character, or the malformed number up to and
	// including the rune that made it invalid.
	Text string
	// Kind is the type of token the lexer was scanning. This is "number" for
	// malformed numbers or the empty string for an unsupported character.
	Kind string
	// Col is the 0-based position of the offending rune.
	Col int
}

func (err *LexError) Error() string {
	pos := " at position " + strconv.Itoa(err.Col)
	if err.Kind == "" {
		return "unexpected character " + quoteText(err.Text) + pos
	}
	return "invalid " + err.Kind + " " + strconv.Quote(err.Text) + pos
}

func (err *LexError) Pos() int {
	return err.Col
}

// quoteText single-quotes a character the way users write it, e.g. '@'.
func quoteText(s string) string {
	q := strconv.Quote(s)
	return "'" + q[1:len(q)-1] + "'"
}
