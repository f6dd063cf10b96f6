package plotexpr

import (
	"errors"
	"math"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// Context is a context for evaluating expressions to arbitrary precision. It
// is not safe to use a Context concurrently.
type Context struct {
	stack []*big.Float
	x     *big.Float
	prec  uint
	err   error
}

// NewContext creates a context evaluating to prec bits. If prec is 0, the
// default is 64.
func NewContext(prec uint) *Context {
	if prec == 0 {
		prec = 64
	}
	return &Context{prec: prec, x: new(big.Float).SetPrec(prec)}
}

// Prec returns the precision to which values are computed in the context.
func (ctx *Context) Prec() uint {
	return ctx.prec
}

// Set sets the value of x. Returns ctx for chaining.
func (ctx *Context) Set(x *big.Float) *Context {
	ctx.x.SetPrec(ctx.prec).Set(x)
	return ctx
}

// Err returns the error from the last evaluation, if any.
func (ctx *Context) Err() error {
	return ctx.err
}

// Eval evaluates an expression at the context's x and returns a new value
// holding the result. If an error occurs, the result is nil and ctx.Err
// returns the error. Errors are the same as those of Evaluate with respect
// to the value of x at float64 precision.
func (ctx *Context) Eval(e *Expr) *big.Float {
	ctx.stack = ctx.stack[:0]
	ctx.err = ctx.eval(e.n)
	if ctx.err != nil {
		return nil
	}
	if len(ctx.stack) != 1 {
		panic("plotexpr: inconsistent stack: " + strconv.Itoa(len(ctx.stack)) + " items (bad AST?)")
	}
	return new(big.Float).Copy(ctx.stack[0])
}

// EvalPrec evaluates the expression at x to prec bits of precision. sin, cos,
// and tan are computed to float64 precision regardless of prec.
func (e *Expr) EvalPrec(x *big.Float, prec uint) (*big.Float, error) {
	ctx := NewContext(prec).Set(x)
	r := ctx.Eval(e)
	return r, ctx.Err()
}

// push ensures a settable value on the stack.
func (ctx *Context) push() *big.Float {
	if len(ctx.stack) < cap(ctx.stack) {
		ctx.stack = ctx.stack[:len(ctx.stack)+1]
		if ctx.stack[len(ctx.stack)-1] == nil {
			ctx.stack[len(ctx.stack)-1] = new(big.Float)
		}
	} else {
		ctx.stack = append(ctx.stack, new(big.Float))
	}
	return ctx.stack[len(ctx.stack)-1].SetPrec(ctx.prec)
}

// pop removes the top from the stack and returns it. The returned value may be
// modified by future node evaluations.
func (ctx *Context) pop() *big.Float {
	r := ctx.stack[len(ctx.stack)-1]
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
	return r
}

// top is a shortcut to get the top element of the stack.
func (ctx *Context) top() *big.Float {
	return ctx.stack[len(ctx.stack)-1]
}

// eval pushes the node's value to the context's stack.
func (ctx *Context) eval(n *Node) error {
	if n == nil {
		return malformed("nil node")
	}
	switch n.Kind {
	case NodeNum:
		r := ctx.push()
		switch c, ok := globalconsts[n.Name]; {
		case ok:
			c.p(r)
		case math.IsNaN(n.Num):
			return &DomainError{X: n.Num}
		default:
			r.SetFloat64(n.Num)
		}
	case NodeVar:
		ctx.push().Set(ctx.x)
	case NodeCall:
		f, ok := globalfuncs[n.Name]
		if !ok {
			return &FuncError{Name: n.Name, Len: len(n.Args), Err: ErrUnknownFunction}
		}
		if !f.canCall(len(n.Args)) {
			return &FuncError{Name: n.Name, Len: len(n.Args), Err: ErrArityMismatch}
		}
		if err := ctx.eval(n.Args[0]); err != nil {
			return err
		}
		in := ctx.pop()
		// The popped value stays in the stack's backing array, so pushing
		// reuses it. Copy it first.
		arg := new(big.Float).Copy(in)
		r := ctx.push()
		return ctx.call(n.Name, f, r, arg)
	case NodeNeg:
		if err := ctx.eval(n.Left); err != nil {
			return err
		}
		v := ctx.top()
		v.Neg(v)
	case NodeAdd, NodeSub, NodeMul, NodeDiv, NodePow:
		if err := ctx.eval(n.Left); err != nil {
			return err
		}
		if err := ctx.eval(n.Right); err != nil {
			return err
		}
		r := ctx.pop()
		l := ctx.top()
		return ctx.binary(n.Kind, l, r)
	default:
		return malformed("invalid node kind " + n.Kind.String())
	}
	return nil
}

// binary sets l to l op r.
func (ctx *Context) binary(kind NodeKind, l, r *big.Float) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = nanError(v, kind.String())
		}
	}()
	switch kind {
	case NodeAdd:
		l.Add(l, r)
	case NodeSub:
		l.Sub(l, r)
	case NodeMul:
		l.Mul(l, r)
	case NodeDiv:
		if r.Sign() == 0 {
			x, _ := l.Float64()
			return &DivisionError{X: x, Op: "/"}
		}
		l.Quo(l, r)
	case NodePow:
		if l.Sign() == 0 {
			switch r.Sign() {
			case -1:
				return &DivisionError{X: 1, Op: "^"}
			case 0:
				l.SetInt64(1)
			}
			return nil
		}
		if r.IsInt() {
			if n, acc := r.Int64(); acc == big.Exact {
				powInt(l, n)
				return nil
			}
		}
		if l.Signbit() {
			if !r.IsInt() {
				x, _ := l.Float64()
				return &DomainError{X: x, Func: "^"}
			}
			// bigfloat.Pow needs a positive base. The sign of the result is
			// the parity of the exponent.
			odd := false
			if i, acc := r.Int(nil); acc == big.Exact {
				odd = i.Bit(0) == 1
			}
			l.Neg(l)
			powBig(l, r)
			if odd {
				l.Neg(l)
			}
			return nil
		}
		powBig(l, r)
	}
	return nil
}

// powBig sets z to z^w for positive z. Results outside the exponent range of
// big.Float are +Inf or 0.
func powBig(z, w *big.Float) {
	mant := new(big.Float)
	e := z.MantExp(mant)
	m, _ := mant.Float64()
	wf, _ := w.Float64()
	// w*ln(z), with ln(z) = ln(mant) + e*ln(2) to stay finite for huge z.
	switch t := wf * (math.Log(m) + float64(e)*math.Ln2); {
	case t > maxExpArg:
		z.SetInf(false)
		return
	case t < -maxExpArg:
		z.SetInt64(0)
		return
	}
	// Pow does not always return its first argument.
	z.Set(bigfloat.Pow(new(big.Float).SetPrec(z.Prec()), z, w))
}

// powInt sets z to z^n by repeated squaring.
func powInt(z *big.Float, n int64) {
	neg := n < 0
	u := uint64(n)
	if neg {
		u = -u
	}
	b := new(big.Float).Copy(z)
	z.SetInt64(1)
	for ; u != 0; u >>= 1 {
		if u&1 != 0 {
			z.Mul(z, b)
		}
		if u > 1 {
			b.Mul(b, b)
		}
	}
	if neg {
		z.Quo(new(big.Float).SetPrec(z.Prec()).SetInt64(1), z)
	}
}

// call sets r to f(arg), converting panics from out-of-domain arguments into
// errors.
func (ctx *Context) call(name string, f fn, r, arg *big.Float) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = nanError(v, name)
		}
	}()
	if v := f.p(r, arg); v != r {
		r.Set(v)
	}
	return nil
}

// nanError converts a recovered panic from math/big or bigfloat into an
// error. Panics other than domain errors are propagated.
func nanError(v interface{}, name string) error {
	switch v := v.(type) {
	case *DomainError:
		return v
	case big.ErrNaN:
		return &DomainError{Func: name}
	case error:
		if errors.As(v, new(big.ErrNaN)) {
			return &DomainError{Func: name}
		}
	}
	panic(v)
}
