package plotexpr

import (
	"errors"
	"math"
	"strconv"
)

var (
	// ErrDivisionByZero is the error that DivisionError unwraps to.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrUnknownFunction is the error that FuncError unwraps to for calls of
	// functions that do not exist.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrArityMismatch is the error that FuncError unwraps to for calls with
	// the wrong number of arguments.
	ErrArityMismatch = errors.New("wrong number of arguments")
	// ErrMalformed indicates a tree that is not a valid expression, e.g. one
	// with a missing operand or an invalid node kind.
	ErrMalformed = errors.New("malformed expression tree")
)

// Eval evaluates the expression at x. Division by zero gives a
// *DivisionError and arguments outside a function's domain give a
// *DomainError; a hand-built tree can also give a *FuncError or an error
// wrapping ErrMalformed.
func (e *Expr) Eval(x float64) (float64, error) {
	return Evaluate(e.n, x)
}

// Evaluate evaluates a tree at x. It is safe to call concurrently on the same
// tree.
func Evaluate(n *Node, x float64) (float64, error) {
	if n == nil {
		return 0, malformed("nil node")
	}
	switch n.Kind {
	case NodeNum:
		return n.Num, nil
	case NodeVar:
		return x, nil
	case NodeCall:
		f, ok := globalfuncs[n.Name]
		if !ok {
			return 0, &FuncError{Name: n.Name, Len: len(n.Args), Err: ErrUnknownFunction}
		}
		if !f.canCall(len(n.Args)) {
			return 0, &FuncError{Name: n.Name, Len: len(n.Args), Err: ErrArityMismatch}
		}
		a, err := Evaluate(n.Args[0], x)
		if err != nil {
			return 0, err
		}
		return f.f(a)
	case NodeNeg:
		v, err := Evaluate(n.Left, x)
		if err != nil {
			return 0, err
		}
		return -v, nil
	case NodeAdd, NodeSub, NodeMul, NodeDiv, NodePow:
		l, err := Evaluate(n.Left, x)
		if err != nil {
			return 0, err
		}
		r, err := Evaluate(n.Right, x)
		if err != nil {
			return 0, err
		}
		return binary(n.Kind, l, r)
	default:
		return 0, malformed("invalid node kind " + n.Kind.String())
	}
}

// Validate reports the first error in the tree itself: a nil or invalid
// node, a call of an unknown function, or a call with the wrong number of
// arguments. A tree Validate accepts can give only point errors from
// Evaluate. Trees from Parse are always valid.
func Validate(n *Node) error {
	if n == nil {
		return malformed("nil node")
	}
	switch n.Kind {
	case NodeNum, NodeVar:
		return nil
	case NodeCall:
		f, ok := globalfuncs[n.Name]
		if !ok {
			return &FuncError{Name: n.Name, Len: len(n.Args), Err: ErrUnknownFunction}
		}
		if !f.canCall(len(n.Args)) {
			return &FuncError{Name: n.Name, Len: len(n.Args), Err: ErrArityMismatch}
		}
		for _, a := range n.Args {
			if err := Validate(a); err != nil {
				return err
			}
		}
		return nil
	case NodeNeg:
		return Validate(n.Left)
	case NodeAdd, NodeSub, NodeMul, NodeDiv, NodePow:
		if err := Validate(n.Left); err != nil {
			return err
		}
		return Validate(n.Right)
	default:
		return malformed("invalid node kind " + n.Kind.String())
	}
}

func binary(kind NodeKind, l, r float64) (float64, error) {
	switch kind {
	case NodeAdd:
		return l + r, nil
	case NodeSub:
		return l - r, nil
	case NodeMul:
		return l * r, nil
	case NodeDiv:
		if r == 0 {
			return 0, &DivisionError{X: l, Op: "/"}
		}
		return l / r, nil
	case NodePow:
		switch {
		case l == 0 && r < 0:
			// 0^-n = 1/0^n
			return 0, &DivisionError{X: 1, Op: "^"}
		case l < 0 && r != math.Trunc(r):
			// No complex results.
			return 0, &DomainError{X: l, Func: "^"}
		}
		return math.Pow(l, r), nil
	default:
		panic("plotexpr: binary called with " + kind.String())
	}
}

// IsPointError reports whether err is local to the point at which an
// expression was evaluated, i.e. a division by zero or a domain error, as
// opposed to an error in the expression itself.
func IsPointError(err error) bool {
	return errors.Is(err, ErrDivisionByZero) || errors.Is(err, ErrDomain)
}

func malformed(what string) error {
	return &malformedError{what}
}

type malformedError struct {
	what string
}

func (err *malformedError) Error() string {
	return ErrMalformed.Error() + ": " + err.what
}

func (err *malformedError) Unwrap() error {
	return ErrMalformed
}

// DivisionError is an error from dividing by zero, including raising zero to
// a negative power. DivisionError unwraps to ErrDivisionByZero.
type DivisionError struct {
	// X is the dividend.
	X float64
	// Op is the operator, "/" or "^".
	Op string
}

func (err *DivisionError) Error() string {
	if err.Op == "^" {
		return "zero raised to a negative power"
	}
	return "division of " + strconv.FormatFloat(err.X, 'g', -1, 64) + " by zero"
}

func (err *DivisionError) Unwrap() error {
	return ErrDivisionByZero
}

// FuncError is an error from a call of a function that does not exist or
// with the wrong number of arguments. FuncError unwraps to ErrUnknownFunction
// or ErrArityMismatch.
type FuncError struct {
	// Name is the function name.
	Name string
	// Len is the number of arguments in the call.
	Len int
	// Err is ErrUnknownFunction or ErrArityMismatch.
	Err error
}

func (err *FuncError) Error() string {
	if errors.Is(err.Err, ErrUnknownFunction) {
		return "unknown function " + strconv.Quote(err.Name)
	}
	return "cannot call " + err.Name + " with " + strconv.Itoa(err.Len) + " arguments"
}

func (err *FuncError) Unwrap() error {
	return err.Err
}
