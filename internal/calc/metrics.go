package calc

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zephyrtronium/arith"
)

const (
	outcomeOK       = "ok"
	outcomeChar     = "invalid_character"
	outcomeDivZero  = "division_by_zero"
	outcomeExpected = "expected_character"
	outcomeTooLong  = "too_long"
	outcomeTooDeep  = "too_deep"
	outcomeError    = "error"
)

var outcomes = []string{outcomeOK, outcomeChar, outcomeDivZero, outcomeExpected, outcomeTooLong, outcomeTooDeep, outcomeError}

type metrics struct {
	evals *prometheus.CounterVec
	hits  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		evals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arith_evaluations_total",
			Help: "Expression evaluations by outcome.",
		}, []string{"outcome"}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arith_cache_hits_total",
			Help: "Evaluations answered from the result cache.",
		}),
	}
	for _, o := range outcomes {
		m.evals.WithLabelValues(o)
	}
	if reg == nil {
		return m, nil
	}
	if err := reg.Register(m.evals); err != nil {
		return nil, errors.Wrap(err, "registering evaluation counter")
	}
	if err := reg.Register(m.hits); err != nil {
		return nil, errors.Wrap(err, "registering cache counter")
	}
	return m, nil
}

func (m *metrics) observe(err error) {
	m.evals.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, arith.ErrInvalidChar):
		return outcomeChar
	case errors.Is(err, arith.ErrDivisionByZero):
		return outcomeDivZero
	case errors.Is(err, arith.ErrExpectedChar):
		return outcomeExpected
	case errors.Is(err, arith.ErrTooDeep):
		return outcomeTooDeep
	case errors.Is(err, ErrTooLong):
		return outcomeTooLong
	default:
		return outcomeError
	}
}
