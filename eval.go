package arith

import (
	"io"
	"math/big"
	"strings"
)

// Eval evaluates the expression read from src. Arithmetic is exact; only the
// final value is rounded, and only if it is not an integer. If the input is
// not a well-formed expression, the error is an InputError; otherwise, any
// error is one returned from src. The options are applied in order.
func Eval(src io.RuneScanner, opts ...Option) (*big.Float, error) {
	p := parsectx{prec: DefaultPrec, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	s, err := scan(src)
	if err != nil {
		return nil, err
	}
	p.s = s
	return p.parse()
}

// EvalString is a shortcut to evaluate a string expression.
func EvalString(src string, opts ...Option) (*big.Float, error) {
	return Eval(strings.NewReader(src), opts...)
}

// Format renders a result as text. Integers have no fractional part, so 5 is
// "5" rather than "5.0". Other values use the fewest decimal digits that
// identify them at their precision. Zero is always "0", regardless of sign.
func Format(x *big.Float) string {
	switch {
	case x.Sign() == 0:
		return "0"
	case x.IsInt():
		return x.Text('f', 0)
	default:
		return x.Text('g', -1)
	}
}
