package plotexpr

import (
	"errors"
	"math"
	"math/big"
	"sort"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// fn is a function from reals to reals. Every function in the table is
// unary; arity is kept so that hand-built calls can be checked.
type fn struct {
	arity int
	// f computes the float64 result, returning a *DomainError for arguments
	// outside the function's domain.
	f func(x float64) (float64, error)
	// p sets out to the result at the precision of out. It may panic with
	// big.ErrNaN for arguments outside the domain.
	p func(out, in *big.Float) *big.Float
}

func (f fn) canCall(n int) bool {
	return n == f.arity
}

// constant is a named real. p sets out to the value at the precision of out.
type constant struct {
	v float64
	p func(out *big.Float) *big.Float
}

// globalfuncs is the closed set of functions expressions can call. It is
// never modified after initialization.
var globalfuncs = map[string]fn{
	"sin":  monadic("sin", math.Sin, nil, viaFloat64(math.Sin)),
	"cos":  monadic("cos", math.Cos, nil, viaFloat64(math.Cos)),
	"tan":  monadic("tan", math.Tan, nil, viaFloat64(math.Tan)),
	"sqrt": monadic("sqrt", math.Sqrt, nonNegative, (*big.Float).Sqrt),
	"abs":  monadic("abs", math.Abs, nil, (*big.Float).Abs),
	"exp":  monadic("exp", math.Exp, nil, expBig),
	// log is the natural logarithm, the same as ln. There is no log10.
	"log": monadic("log", math.Log, positive, bigfloat.Log),
	"ln":  monadic("ln", math.Log, positive, bigfloat.Log),
}

// globalconsts is the set of named constants. It is never modified after
// initialization.
var globalconsts = map[string]constant{
	"pi": {math.Pi, bigfloat.Pi},
	"e": {math.E, func(out *big.Float) *big.Float {
		var one big.Float
		one.SetPrec(out.Prec()).SetInt64(1)
		return bigfloat.Exp(out, &one)
	}},
}

// maxExpArg is the largest argument to exp whose result big.Float can
// represent.
var maxExpArg = float64(big.MaxExp) * math.Ln2

// expBig sets out to e^in. Arguments beyond ±maxExpArg give +Inf or 0
// directly instead of through argument reduction.
func expBig(out, in *big.Float) *big.Float {
	f, _ := in.Float64()
	switch {
	case f > maxExpArg:
		return out.SetInf(false)
	case f < -maxExpArg:
		return out.SetInt64(0)
	}
	return out.Set(bigfloat.Exp(out, in))
}

func nonNegative(x float64) bool { return x >= 0 }
func positive(x float64) bool { return x > 0 }

// monadic builds a unary function. If domain is non-nil, arguments for which
// it returns false give a *DomainError. NaN arguments pass through so they
// produce NaN results.
func monadic(name string, f func(float64) float64, domain func(float64) bool, p func(out, in *big.Float) *big.Float) fn {
	g := func(x float64) (float64, error) {
		if domain != nil && !domain(x) && !math.IsNaN(x) {
			return 0, &DomainError{X: x, Func: name}
		}
		return f(x), nil
	}
	var q func(out, in *big.Float) *big.Float
	if p != nil {
		q = func(out, in *big.Float) *big.Float {
			// The domains are all decided by sign, which survives the
			// conversion even when the value underflows.
			if domain != nil && !domain(float64(in.Sign())) {
				x, _ := in.Float64()
				panic(&DomainError{X: x, Func: name})
			}
			return p(out, in)
		}
	}
	return fn{arity: 1, f: g, p: q}
}

// viaFloat64 adapts a float64 function for big.Float arguments for functions
// which bigfloat does not implement. The result has float64 precision.
func viaFloat64(f func(float64) float64) func(out, in *big.Float) *big.Float {
	return func(out, in *big.Float) *big.Float {
		x, _ := in.Float64()
		r := f(x)
		if math.IsNaN(r) {
			panic(big.ErrNaN{})
		}
		return out.SetFloat64(r)
	}
}

// Funcs returns the sorted names of the functions expressions can call.
func Funcs() []string {
	names := make([]string, 0, len(globalfuncs))
	for k := range globalfuncs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Constants returns the sorted names of the constants expressions can use.
func Constants() []string {
	names := make([]string, 0, len(globalconsts))
	for k := range globalconsts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// IsFunc reports whether name is a function expressions can call.
func IsFunc(name string) bool {
	_, ok := globalfuncs[name]
	return ok
}

// ErrDomain is the error that DomainError unwraps to.
var ErrDomain = errors.New("argument outside domain")

// DomainError is an error returned when a function or operator is applied to
// arguments outside its domain. DomainError unwraps to ErrDomain.
type DomainError struct {
	// X is the out-of-domain argument.
	X float64
	// Func is a name identifying the function or operator.
	Func string
}

func (err *DomainError) Error() string {
	r := strconv.FormatFloat(err.X, 'g', -1, 64) + " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	return r
}

func (err *DomainError) Unwrap() error {
	return ErrDomain
}
