package arith

import (
	"errors"
	"strconv"
)

// Sentinel errors for each kind of invalid input. Every InputError returned
// from evaluation unwraps to exactly one of them.
var (
	ErrInvalidChar    = errors.New("invalid character")
	ErrDivisionByZero = errors.New("division by zero")
	ErrExpectedChar   = errors.New("expected character")
	ErrTooDeep        = errors.New("parentheses nested too deeply")
)

// CharError indicates a character that cannot start a factor, including the
// end of the input where a factor was required. It also reports input left
// over after a complete expression. It implements InputError and unwraps to
// ErrInvalidChar.
type CharError struct {
	// Col is the position of the character.
	Col int
	// Char is the offending character, or EOF.
	Char rune
	// Trailing is whether the character followed a complete expression.
	Trailing bool
}

func (err *CharError) Error() string {
	switch {
	case err.Char == EOF:
		return errpos(err.Col, "invalid character: unexpected end of input")
	case err.Trailing:
		return errpos(err.Col, "invalid character "+strconv.QuoteRune(err.Char)+" after expression")
	default:
		return errpos(err.Col, "invalid character "+strconv.QuoteRune(err.Char))
	}
}

func (err *CharError) Pos() int {
	return err.Col
}

func (err *CharError) Unwrap() error {
	return ErrInvalidChar
}

// DivisionError indicates a division whose divisor evaluated to exactly zero.
// It implements InputError and unwraps to ErrDivisionByZero.
type DivisionError struct {
	// Col is the position of the division operator.
	Col int
}

func (err *DivisionError) Error() string {
	return errpos(err.Col, "division by zero")
}

func (err *DivisionError) Pos() int {
	return err.Col
}

func (err *DivisionError) Unwrap() error {
	return ErrDivisionByZero
}

// ExpectError indicates that the parser required a specific character, most
// often a closing parenthesis, and found something else. It implements
// InputError and unwraps to ErrExpectedChar.
type ExpectError struct {
	// Col is the position where Want was required.
	Col int
	// Want is the character the parser required.
	Want rune
	// Got is the character found instead, or EOF.
	Got rune
}

func (err *ExpectError) Error() string {
	return errpos(err.Col, "expected character "+strconv.QuoteRune(err.Want)+", found "+describe(err.Got))
}

func (err *ExpectError) Pos() int {
	return err.Col
}

func (err *ExpectError) Unwrap() error {
	return ErrExpectedChar
}

// DepthError indicates parentheses nested deeper than the evaluator allows.
// It implements InputError and unwraps to ErrTooDeep.
type DepthError struct {
	// Col is the position of the first parenthesis past the limit.
	Col int
	// Max is the nesting limit.
	Max int
}

func (err *DepthError) Error() string {
	return errpos(err.Col, "parentheses nested more than "+strconv.Itoa(err.Max)+" deep")
}

func (err *DepthError) Pos() int {
	return err.Col
}

func (err *DepthError) Unwrap() error {
	return ErrTooDeep
}

// describe names a current symbol for error messages.
func describe(r rune) string {
	if r == EOF {
		return "end of input"
	}
	return strconv.QuoteRune(r)
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the 1-based rune position at which the error was detected.
	Pos() int
}

var (
	_ InputError = (*CharError)(nil)
	_ InputError = (*DivisionError)(nil)
	_ InputError = (*ExpectError)(nil)
	_ InputError = (*DepthError)(nil)
)
