package plotexpr

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"
)

func TestLex(t *testing.T) {
	cases := []struct {
		src    string
		tokens []Token
		errs   int
	}{
		// spaces
		{"", nil, 0},
		{" \t \r\n ", nil, 0},
		// numbers
		{"0", []Token{{Kind: TokenNum, Text: "0", Num: 0, Pos: 0}}, 0},
		{"9876543210", []Token{{Kind: TokenNum, Text: "9876543210", Num: 9876543210, Pos: 0}}, 0},
		{"1 0", []Token{{Kind: TokenNum, Text: "1", Num: 1, Pos: 0}, {Kind: TokenNum, Text: "0", Num: 0, Pos: 2}}, 0},
		{"1.5", []Token{{Kind: TokenNum, Text: "1.5", Num: 1.5, Pos: 0}}, 0},
		{".5", []Token{{Kind: TokenNum, Text: ".5", Num: 0.5, Pos: 0}}, 0},
		{"5.", []Token{{Kind: TokenNum, Text: "5.", Num: 5, Pos: 0}}, 0},
		{"-1", []Token{{Kind: TokenOp, Text: "-", Pos: 0}, {Kind: TokenNum, Text: "1", Num: 1, Pos: 1}}, 0},
		{".", []Token{{Pos: 0}}, 1},
		{"1.1.1", []Token{{Pos: 0}, {Kind: TokenNum, Text: "1", Num: 1, Pos: 4}}, 1},
		// identifiers
		{"x", []Token{{Kind: TokenIdent, Text: "x", Pos: 0}}, 0},
		{"SIN", []Token{{Kind: TokenIdent, Text: "sin", Pos: 0}}, 0},
		{"2x", []Token{{Kind: TokenNum, Text: "2", Num: 2, Pos: 0}, {Kind: TokenIdent, Text: "x", Pos: 1}}, 0},
		{"x2", []Token{{Kind: TokenIdent, Text: "x", Pos: 0}, {Kind: TokenNum, Text: "2", Num: 2, Pos: 1}}, 0},
		{"sin(", []Token{{Kind: TokenIdent, Text: "sin", Pos: 0}, {Kind: TokenOpen, Text: "(", Pos: 3}}, 0},
		// operators and punctuation
		{"+-*/^", []Token{
			{Kind: TokenOp, Text: "+", Pos: 0},
			{Kind: TokenOp, Text: "-", Pos: 1},
			{Kind: TokenOp, Text: "*", Pos: 2},
			{Kind: TokenOp, Text: "/", Pos: 3},
			{Kind: TokenOp, Text: "^", Pos: 4},
		}, 0},
		{"(,)", []Token{
			{Kind: TokenOpen, Text: "(", Pos: 0},
			{Kind: TokenComma, Text: ",", Pos: 1},
			{Kind: TokenClose, Text: ")", Pos: 2},
		}, 0},
		// erroneous symbols
		{"$", []Token{{Pos: 0}}, 1},
		{"x$", []Token{{Kind: TokenIdent, Text: "x", Pos: 0}, {Pos: 1}}, 1},
		{"$x", []Token{{Pos: 0}, {Kind: TokenIdent, Text: "x", Pos: 1}}, 1},
		{"$$", []Token{{Pos: 0}, {Pos: 1}}, 2},
		{"π", []Token{{Pos: 0}}, 1},
	}

	for _, c := range cases {
		scan := lex(strings.NewReader(c.src))
		for _, want := range c.tokens {
			got, err := scan.next()
			if err == io.EOF {
				t.Errorf("scanning %q: expected token %v but got EOF", c.src, want)
				continue
			}
			if err != nil {
				if c.errs > 0 {
					c.errs--
					if got.Pos != want.Pos {
						t.Errorf("scanning %q: error %v at wrong token position %d, want %d", c.src, err, got.Pos, want.Pos)
					}
					continue
				}
				t.Errorf("scanning %q: unexpected error %v", c.src, err)
				continue
			}
			if got != want {
				t.Errorf("scanning %q: want %v, got %v", c.src, want, got)
			}
		}
		got, err := scan.next()
		if err != nil || got.Kind != TokenEOF {
			t.Errorf("scanning %q: expected EOF token, got %v with error %v", c.src, got, err)
		}
		if c.errs != 0 {
			t.Errorf("scanning %q: missing %d errors", c.src, c.errs)
		}
	}
}

func TestTokenize(t *testing.T) {
	toks, err := Tokenize("2x^2 + 3sin(x)")
	if err != nil {
		t.Fatal(err)
	}
	want := []TokenKind{
		TokenNum, TokenIdent, TokenOp, TokenNum, TokenOp,
		TokenNum, TokenIdent, TokenOpen, TokenIdent, TokenClose, TokenEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("wrong number of tokens: want %d, got %d: %v", len(want), len(toks), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: want kind %v, got %v", i, k, toks[i].Kind)
		}
	}
	if eof := toks[len(toks)-1]; eof.Pos != 14 {
		t.Errorf("EOF at wrong position: want 14, got %d", eof.Pos)
	}

	toks, err = Tokenize("")
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 1 || toks[0].Kind != TokenEOF {
		t.Errorf("empty input: want only EOF, got %v", toks)
	}
}

func TestTokenizeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		pos  int
		text string
		msg  string
	}{
		{"char", "2 + @", 4, "@", "unexpected character '@' at position 4"},
		{"unicode", "2π", 1, "π", "unexpected character 'π' at position 1"},
		{"dots", "1.1.", 3, "1.1.", `invalid number "1.1." at position 3`},
		{"lone-dot", "x + .", 4, ".", `invalid number "." at position 4`},
		{"underscore", "x_1", 1, "_", "unexpected character '_' at position 1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			toks, err := Tokenize(c.src)
			if err == nil {
				t.Fatalf("no error, got %v", toks)
			}
			var le *LexError
			if !errors.As(err, &le) {
				t.Fatalf("wrong error type %T: %v", err, err)
			}
			if le.Pos() != c.pos {
				t.Errorf("wrong position: want %d, got %d", c.pos, le.Pos())
			}
			if le.Text != c.text {
				t.Errorf("wrong text: want %q, got %q", c.text, le.Text)
			}
			if err.Error() != c.msg {
				t.Errorf("wrong message:\nwant %s\ngot  %s", c.msg, err.Error())
			}
		})
	}
}

func TestTokenizeHugeNumber(t *testing.T) {
	toks, err := Tokenize(strings.Repeat("9", 400))
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(toks[0].Num, 1) {
		t.Errorf("want +Inf for out of range number, got %g", toks[0].Num)
	}
}
