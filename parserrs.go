package plotexpr

import "strconv"

// BracketError is an error indicating unbalanced parentheses in the input.
// It implements InputError.
type BracketError struct {
	// Col is the position of the unmatched parenthesis, or of the end of the
	// input for an unclosed one.
	Col int
	// Open is true for an open parenthesis with no close parenthesis.
	Open bool
}

func (err *BracketError) Error() string {
	if err.Open {
		return errpos(err.Col, "open parenthesis with no close parenthesis")
	}
	return errpos(err.Col, "close parenthesis with no open parenthesis")
}

func (err *BracketError) Pos() int {
	return err.Col
}

// IdentError is an error indicating an identifier which is not x, a
// constant, or a function applied to an argument list. It implements
// InputError.
type IdentError struct {
	// Col is the position of the identifier.
	Col int
	// Name is the identifier.
	Name string
	// Func is true when Name is a function not followed by parentheses.
	Func bool
}

func (err *IdentError) Error() string {
	msg := "unknown identifier " + strconv.Quote(err.Name)
	if err.Func {
		msg += " (function " + err.Name + " needs parenthesized arguments)"
	}
	return errpos(err.Col, msg)
}

func (err *IdentError) Pos() int {
	return err.Col
}

// OperandError is an error indicating a missing operand, e.g. an operator at
// the end of the input or empty parentheses. It implements InputError.
type OperandError struct {
	// Col is the position of the token found where an operand was expected.
	Col int
	// After is the operator or bracket preceding the missing operand, or the
	// empty string at the start of the input.
	After string
	// Found is the token found instead, or the empty string at the end of the
	// input.
	Found string
}

func (err *OperandError) Error() string {
	msg := "missing operand"
	if err.After != "" {
		msg += " after " + strconv.Quote(err.After)
	}
	if err.Found != "" {
		msg += " before " + strconv.Quote(err.Found)
	} else if err.After != "" {
		msg += " at end"
	}
	return errpos(err.Col, msg)
}

func (err *OperandError) Pos() int {
	return err.Col
}

// TrailingError is an error indicating tokens after a complete expression.
// It implements InputError.
type TrailingError struct {
	// Col is the position of the first token after the expression.
	Col int
	// Text is that token.
	Text string
}

func (err *TrailingError) Error() string {
	return errpos(err.Col, "unexpected "+strconv.Quote(err.Text)+" after complete expression")
}

func (err *TrailingError) Pos() int {
	return err.Col
}

// SeparatorError is an error indicating a comma outside of a function
// argument list. It implements InputError.
type SeparatorError struct {
	// Col is the position of the separator.
	Col int
}

func (err *SeparatorError) Error() string {
	return errpos(err.Col, "comma outside of function arguments")
}

func (err *SeparatorError) Pos() int {
	return err.Col
}

// CallError is an error indicating a function call with the wrong number of
// arguments. It implements InputError.
type CallError struct {
	// Col is the position of the function name.
	Col int
	// Func is the function name that was called.
	Func string
	// Len is the number of arguments given.
	Len int
}

func (err *CallError) Error() string {
	return errpos(err.Col, "cannot call "+err.Func+" with "+strconv.Itoa(err.Len)+" arguments")
}

func (err *CallError) Pos() int {
	return err.Col
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return msg + " at position " + strconv.Itoa(pos)
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the 0-based rune offset of the token that caused the error.
	Pos() int
}

var (
	_ InputError = (*BracketError)(nil)
	_ InputError = (*IdentError)(nil)
	_ InputError = (*OperandError)(nil)
	_ InputError = (*TrailingError)(nil)
	_ InputError = (*SeparatorError)(nil)
	_ InputError = (*CallError)(nil)
	_ InputError = (*LexError)(nil)
)
