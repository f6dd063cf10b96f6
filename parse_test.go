package plotexpr_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/zephyrtronium/plotexpr"
)

var (
	num  = plotexpr.Constant
	x    = plotexpr.Variable
	neg  = plotexpr.Neg
	call = plotexpr.Call
)

func add(l, r *plotexpr.Node) *plotexpr.Node { return plotexpr.Binary(plotexpr.NodeAdd, l, r) }
func sub(l, r *plotexpr.Node) *plotexpr.Node { return plotexpr.Binary(plotexpr.NodeSub, l, r) }
func mul(l, r *plotexpr.Node) *plotexpr.Node { return plotexpr.Binary(plotexpr.NodeMul, l, r) }
func div(l, r *plotexpr.Node) *plotexpr.Node { return plotexpr.Binary(plotexpr.NodeDiv, l, r) }
func pow(l, r *plotexpr.Node) *plotexpr.Node { return plotexpr.Binary(plotexpr.NodePow, l, r) }

func named(name string, v float64) *plotexpr.Node {
	return &plotexpr.Node{Kind: plotexpr.NodeNum, Num: v, Name: name}
}

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want *plotexpr.Node
	}{
		{"num", "1", num(1)},
		{"x", "x", x()},
		{"upper", "X", x()},
		{"pi", "pi", named("pi", math.Pi)},
		{"e", "e", named("e", math.E)},
		{"paren", "(x)", x()},
		{"plus", "+x", x()},
		{"neg", "-x", neg(x())},
		{"negneg", "--x", neg(neg(x()))},
		{"add", "1+2+3", add(add(num(1), num(2)), num(3))},
		{"sub", "1-2-3", sub(sub(num(1), num(2)), num(3))},
		{"mul", "1*2*3", mul(mul(num(1), num(2)), num(3))},
		{"div", "1/2/3", div(div(num(1), num(2)), num(3))},
		{"pow", "2^3^2", pow(num(2), pow(num(3), num(2)))},
		{"prec", "2+3*4", add(num(2), mul(num(3), num(4)))},
		{"prec-paren", "(2+3)*4", mul(add(num(2), num(3)), num(4))},
		{"neg-pow", "-2^2", neg(pow(num(2), num(2)))},
		{"pow-neg", "2^-x", pow(num(2), neg(x()))},
		{"pow-neg-pow", "2^-x^2", pow(num(2), neg(pow(x(), num(2))))},
		{"sub-neg", "1--x", sub(num(1), neg(x()))},
		{"mul-neg", "2*-x", mul(num(2), neg(x()))},
		{"call", "sin(x)", call("sin", x())},
		{"call-upper", "SQRT(x)", call("sqrt", x())},
		{"call-nested", "sqrt(abs(x))", call("sqrt", call("abs", x()))},
		{"call-expr", "exp(x+1)", call("exp", add(x(), num(1)))},
		{"call-pow", "sin(x)^2", pow(call("sin", x()), num(2))},
		{"implicit-num-x", "4x", mul(num(4), x())},
		{"implicit-num-call", "3sin(x)", mul(num(3), call("sin", x()))},
		{"implicit-num-paren", "2(x+1)", mul(num(2), add(x(), num(1)))},
		{"implicit-x-paren", "x(x+1)", mul(x(), add(x(), num(1)))},
		{"implicit-paren-paren", "(x)(x)", mul(x(), x())},
		{"implicit-num-num", "2 3", mul(num(2), num(3))},
		{"implicit-const", "2pi", mul(num(2), named("pi", math.Pi))},
		{"implicit-pow", "2x^2", mul(num(2), pow(x(), num(2)))},
		{"implicit-div", "6/2x", mul(div(num(6), num(2)), x())},
		{"implicit-after-pow", "x^2 x", mul(pow(x(), num(2)), x())},
		{"implicit-neg", "-2x", mul(neg(num(2)), x())},
		{"whole", "2x^2 + 3sin(x) - sqrt(x)", sub(
			add(mul(num(2), pow(x(), num(2))), mul(num(3), call("sin", x()))),
			call("sqrt", x()),
		)},
		{"spaces", " \t2 *\nx ", mul(num(2), x())},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := plotexpr.Parse(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			if !e.Root().Equal(c.want) {
				t.Errorf("%q parsed wrong:\nwant %v\ngot  %v", c.src, c.want, e.Root())
			}
			if e.Source() != c.src {
				t.Errorf("wrong source: want %q, got %q", c.src, e.Source())
			}
		})
	}
}

func TestImplicitMatchesExplicit(t *testing.T) {
	cases := [][2]string{
		{"4x", "4*x"},
		{"2x^2", "2*x^2"},
		{"3sin(x)", "3*sin(x)"},
		{"x(x+1)", "x*(x+1)"},
		{"6/2x", "6/2*x"},
	}
	for _, c := range cases {
		a, err := plotexpr.Parse(c[0])
		if err != nil {
			t.Fatal(err)
		}
		b, err := plotexpr.Parse(c[1])
		if err != nil {
			t.Fatal(err)
		}
		if !a.Root().Equal(b.Root()) {
			t.Errorf("%q and %q differ:\n%v\n%v", c[0], c[1], a, b)
		}
	}
}

func TestParseDeterministic(t *testing.T) {
	const src = "2x^2 + 3sin(x) - sqrt(x)"
	a, err := plotexpr.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		b, err := plotexpr.Parse(src)
		if err != nil {
			t.Fatal(err)
		}
		if !a.Root().Equal(b.Root()) {
			t.Fatalf("parse %d differs:\n%v\n%v", i, a, b)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		// err is a pointer to a variable of the expected error type.
		err any
		pos int
	}{
		{"empty", "", new(*plotexpr.OperandError), 0},
		{"spaces", "   ", new(*plotexpr.OperandError), 3},
		{"trailing-op", "2+", new(*plotexpr.OperandError), 2},
		{"leading-op", "*x", new(*plotexpr.OperandError), 0},
		{"double-op", "2*/x", new(*plotexpr.OperandError), 2},
		{"empty-parens", "()", new(*plotexpr.OperandError), 1},
		{"unclosed", "(1", new(*plotexpr.BracketError), 0},
		{"unclosed-empty", "2(", new(*plotexpr.BracketError), 1},
		{"unclosed-op", "(1+", new(*plotexpr.BracketError), 0},
		{"unopened", "1)", new(*plotexpr.BracketError), 1},
		{"unknown-ident", "y", new(*plotexpr.IdentError), 0},
		{"unknown-ident-later", "2x + foo", new(*plotexpr.IdentError), 5},
		{"unknown-func", "f(x)", new(*plotexpr.IdentError), 0},
		{"log10", "log10(x)", new(*plotexpr.IdentError), 0},
		{"bare-func", "sin x", new(*plotexpr.IdentError), 0},
		{"bare-func-end", "2sqrt", new(*plotexpr.IdentError), 1},
		{"no-args", "sin()", new(*plotexpr.CallError), 0},
		{"two-args", "sqrt(1, 2)", new(*plotexpr.CallError), 0},
		{"unclosed-call", "sin(x", new(*plotexpr.BracketError), 3},
		{"comma", "1,2", new(*plotexpr.TrailingError), 1},
		{"comma-parens", "(1,2)", new(*plotexpr.SeparatorError), 2},
		{"lex", "2 + @", new(*plotexpr.LexError), 4},
		{"deep-parens", strings.Repeat("(", 1000) + "x" + strings.Repeat(")", 1000), new(*plotexpr.DepthError), 512},
		{"deep-neg", strings.Repeat("-", 1000) + "x", new(*plotexpr.DepthError), 512},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := plotexpr.Parse(c.src)
			if err == nil {
				t.Fatalf("%q parsed without error as %v", c.src, e)
			}
			if e != nil {
				t.Errorf("non-nil expression %v with error", e)
			}
			if !errors.As(err, c.err) {
				t.Fatalf("wrong error type %T: %v", err, err)
			}
			var ie plotexpr.InputError
			if !errors.As(err, &ie) {
				t.Fatalf("%T does not implement InputError", err)
			}
			if ie.Pos() != c.pos {
				t.Errorf("wrong position for %v: want %d, got %d", err, c.pos, ie.Pos())
			}
		})
	}
}

func TestBareFuncMessage(t *testing.T) {
	_, err := plotexpr.Parse("2 sin x")
	var ie *plotexpr.IdentError
	if !errors.As(err, &ie) {
		t.Fatalf("want *IdentError, got %T: %v", err, err)
	}
	if !ie.Func || ie.Name != "sin" {
		t.Errorf("wrong details: %+v", ie)
	}
	want := `unknown identifier "sin" (function sin needs parenthesized arguments) at position 2`
	if got := err.Error(); got != want {
		t.Errorf("wrong message:\nwant %s\ngot  %s", want, got)
	}

	_, err = plotexpr.Parse("y")
	want = `unknown identifier "y" at position 0`
	if err == nil || err.Error() != want {
		t.Errorf("wrong message: want %s, got %v", want, err)
	}
}

func TestParseTokens(t *testing.T) {
	// Hand-built slices need not end with EOF.
	toks := []plotexpr.Token{
		{Kind: plotexpr.TokenNum, Text: "2", Num: 2, Pos: 0},
		{Kind: plotexpr.TokenIdent, Text: "x", Pos: 1},
	}
	n, err := plotexpr.ParseTokens(toks)
	if err != nil {
		t.Fatal(err)
	}
	if !n.Equal(mul(num(2), x())) {
		t.Errorf("wrong tree %v", n)
	}

	toks = []plotexpr.Token{
		{Kind: plotexpr.TokenIdent, Text: "x", Pos: 0},
		{Kind: plotexpr.TokenEOF, Pos: 1},
		{Kind: plotexpr.TokenNum, Text: "1", Num: 1, Pos: 2},
	}
	_, err = plotexpr.ParseTokens(toks)
	var te *plotexpr.TrailingError
	if !errors.As(err, &te) || te.Pos() != 2 {
		t.Errorf("want trailing error at 2 for tokens after EOF, got %v", err)
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"x", "(x)"},
		{"2x", "([2] * [x])"},
		{"sin(x)", "(sin[(x)])"},
		{"-pi", "(-[pi])"},
		{"1+2*3", "([1] + [(2) * (3)])"},
	}
	for _, c := range cases {
		e, err := plotexpr.Parse(c.src)
		if err != nil {
			t.Fatal(err)
		}
		if got := e.String(); got != c.want {
			t.Errorf("%q: want %s, got %s", c.src, c.want, got)
		}
	}
}

func TestNodeEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b *plotexpr.Node
		want bool
	}{
		{"nil", nil, nil, true},
		{"nil-num", nil, num(1), false},
		{"num", num(1), num(1), true},
		{"num-differ", num(1), num(2), false},
		{"nan", num(math.NaN()), num(math.NaN()), true},
		{"named", named("pi", math.Pi), num(math.Pi), false},
		{"kind", add(x(), x()), sub(x(), x()), false},
		{"call", call("sin", x()), call("sin", x()), true},
		{"call-name", call("sin", x()), call("cos", x()), false},
		{"call-args", call("sin", x()), call("sin", x(), x()), false},
		{"deep", add(mul(num(2), x()), x()), add(mul(num(2), x()), x()), true},
		{"deep-differ", add(mul(num(2), x()), x()), add(mul(num(3), x()), x()), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Equal(c.b); got != c.want {
				t.Errorf("%v.Equal(%v): want %t, got %t", c.a, c.b, c.want, got)
			}
		})
	}
}

func TestNodeKindString(t *testing.T) {
	if s := plotexpr.NodePow.String(); s != "Pow" {
		t.Errorf("want Pow, got %s", s)
	}
	if s := plotexpr.NodeKind(100).String(); s != "NodeKind(100)" {
		t.Errorf("want NodeKind(100), got %s", s)
	}
}
