package arith

// DefaultPrec is the precision in bits of non-integer results when no Prec
// option is given.
const DefaultPrec = 64

// DefaultMaxDepth is the deepest parenthesis nesting accepted when no
// MaxDepth option is given.
const DefaultMaxDepth = 1000

// Option is an option for evaluation.
type Option interface {
	parseOption(parsectx) parsectx
}

type (
	precopt  uint
	laxopt   struct{}
	depthopt int
)

// Prec sets the precision in bits of results that are not integers.
// Evaluation itself is exact, and integer results are never rounded. A
// precision of 0 selects DefaultPrec.
func Prec(prec uint) Option {
	return precopt(prec)
}

func (o precopt) parseOption(p parsectx) parsectx {
	p.prec = uint(o)
	if p.prec == 0 {
		p.prec = DefaultPrec
	}
	return p
}

// IgnoreTrailing tells the evaluator to stop after the longest complete
// expression at the start of the input and ignore whatever follows it, so
// "2+2)" evaluates to 4. By default, leftover input is a *CharError.
func IgnoreTrailing() Option {
	return laxopt{}
}

func (laxopt) parseOption(p parsectx) parsectx {
	p.lax = true
	return p
}

// MaxDepth limits how deeply parentheses may nest. Deeper input is a
// *DepthError. A limit of 0 or less selects DefaultMaxDepth.
func MaxDepth(n int) Option {
	return depthopt(n)
}

func (o depthopt) parseOption(p parsectx) parsectx {
	p.maxDepth = int(o)
	if p.maxDepth <= 0 {
		p.maxDepth = DefaultMaxDepth
	}
	return p
}
