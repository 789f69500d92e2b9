package arith

import (
	"math/big"
	"strings"
)

// expr   = term { ('+' | '-') term }
// term   = factor { ('*' | '/') factor }
// factor = digit { digit } | '(' expr ')'

// parsectx holds the state of one evaluation. It is also the target of
// Options. A parsectx is never shared between evaluations.
type parsectx struct {
	s *scanner
	// prec is the precision of non-integer results.
	prec uint
	// lax disables the check that the whole input was consumed.
	lax bool
	// depth is the current parenthesis nesting; maxDepth bounds it.
	depth    int
	maxDepth int
	// digits is scratch space for number literals.
	digits strings.Builder
}

// parse evaluates the entire input as a single expression.
func (p *parsectx) parse() (*big.Float, error) {
	x, err := p.expr()
	if err != nil {
		return nil, err
	}
	if !p.lax && p.s.cur != EOF {
		return nil, &CharError{Col: p.s.col, Char: p.s.cur, Trailing: true}
	}
	return p.round(x), nil
}

// round converts an exact value to the result precision. Integers keep every
// bit, so the precision of an integer result may exceed prec.
func (p *parsectx) round(x *big.Rat) *big.Float {
	prec := p.prec
	if x.IsInt() {
		if n := uint(x.Num().BitLen()); n > prec {
			prec = n
		}
	}
	return new(big.Float).SetPrec(prec).SetRat(x)
}

func (p *parsectx) expr() (*big.Rat, error) {
	x, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.s.cur == '+' || p.s.cur == '-' {
		op := p.s.cur
		if err := p.s.eat(op); err != nil {
			return nil, err
		}
		y, err := p.term()
		if err != nil {
			return nil, err
		}
		if op == '+' {
			x.Add(x, y)
		} else {
			x.Sub(x, y)
		}
	}
	return x, nil
}

func (p *parsectx) term() (*big.Rat, error) {
	x, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.s.cur == '*' || p.s.cur == '/' {
		op, col := p.s.cur, p.s.col
		if err := p.s.eat(op); err != nil {
			return nil, err
		}
		y, err := p.factor()
		if err != nil {
			return nil, err
		}
		if op == '*' {
			x.Mul(x, y)
			continue
		}
		if y.Sign() == 0 {
			return nil, &DivisionError{Col: col}
		}
		x.Quo(x, y)
	}
	return x, nil
}

func (p *parsectx) factor() (*big.Rat, error) {
	switch {
	case isDigit(p.s.cur):
		return p.number()
	case p.s.cur == '(':
		if p.depth >= p.maxDepth {
			return nil, &DepthError{Col: p.s.col, Max: p.maxDepth}
		}
		p.depth++
		defer func() { p.depth-- }()
		if err := p.s.eat('('); err != nil {
			return nil, err
		}
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.s.eat(')'); err != nil {
			return nil, err
		}
		return x, nil
	default:
		return nil, &CharError{Col: p.s.col, Char: p.s.cur}
	}
}

// number scans a maximal run of digits. The cursor must be on a digit.
func (p *parsectx) number() (*big.Rat, error) {
	defer p.digits.Reset()
	for isDigit(p.s.cur) {
		p.digits.WriteRune(p.s.cur)
		if err := p.s.advance(); err != nil {
			return nil, err
		}
	}
	n, ok := new(big.Int).SetString(p.digits.String(), 10)
	if !ok {
		// Only ASCII digits reach here, so this is a bug.
		panic("arith: invalid number: " + p.digits.String())
	}
	return new(big.Rat).SetInt(n), nil
}
