// Package arith evaluates integer arithmetic expressions.
//
// The accepted syntax is deliberately small: non-negative integer literals,
// the binary operators + - * /, and parentheses. "2+3*4" is 14 because * and
// / bind tighter than + and -, and operators of the same tier associate to the
// left, so "8-3-2" is 3. There is no whitespace, unary minus, or anything
// else; "2 + 2" and "-1" are both errors.
//
// Division is exact to the configured precision, so results may be
// fractional: "7/2" is 3.5.
//
// Every evaluation owns its own parse state. It is safe to call EvalString
// from any number of goroutines at once.
//
package arith
