// Package plotexpr parses and samples mathematical expressions of one
// variable for plotting.
//
// The syntax is the one people type into a graphing calculator. "2x^2 +
// 3sin(x) - sqrt(x)" is a sum of three terms, where "2x" and "3sin(x)" are
// implicit multiplications. "-x^2" is "-(x^2)", "2^3^2" is "2^(3^2)", and
// "6/2x" is "(6/2)*x". Names are case-insensitive. The functions are sin,
// cos, tan, sqrt, abs, exp, log, and ln, where log is the natural logarithm,
// and the constants are pi and e.
//
// Parse an expression once, then evaluate it at single points with Eval or
// over a range with Sample. Sampling leaves out points where the expression
// is undefined, and a Sampler can be configured with a bound on magnitudes,
// a limit on range sizes, and logging, metrics, and tracing hooks. EvalPrec
// evaluates at one point to arbitrary precision.
package plotexpr
