// Package calc evaluates users' expressions and records the successful ones.
package calc

import (
	"context"
	"log/slog"
	"strconv"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zephyrtronium/arith"
	"github.com/zephyrtronium/arith/internal/store"
)

// ErrTooLong is the error a *LengthError unwraps to.
var ErrTooLong = errors.New("expression too long")

// LengthError is returned for an expression longer than the configured limit.
type LengthError struct {
	// Len is the length of the expression in characters.
	Len int
	// Max is the limit.
	Max int
}

func (err *LengthError) Error() string {
	return "expression too long: " + strconv.Itoa(err.Len) + " characters, limit is " + strconv.Itoa(err.Max)
}

func (err *LengthError) Unwrap() error {
	return ErrTooLong
}

// IsInputError reports whether err is the user's fault, i.e. whether its
// message should be shown to the user rather than logged as a failure.
func IsInputError(err error) bool {
	var ie arith.InputError
	return errors.As(err, &ie) || errors.Is(err, ErrTooLong)
}

// Recorder stores and lists evaluated expressions.
type Recorder interface {
	AddExpression(ctx context.Context, userID int64, expr, result string) (store.Expression, error)
	History(ctx context.Context, userID int64) ([]store.Expression, error)
}

// Config controls evaluation.
type Config struct {
	// Prec is the precision of results in bits. Zero is arith.DefaultPrec.
	Prec uint
	// CacheSize is the number of results to memoize. Zero disables caching.
	CacheSize int
	// MaxExprLen is the longest accepted expression in characters. Zero means
	// no limit.
	MaxExprLen int
	// MaxDepth bounds parenthesis nesting. Zero is arith.DefaultMaxDepth.
	MaxDepth int
}

// Service evaluates and records expressions. It is safe for concurrent use.
type Service struct {
	rec     Recorder
	opts    []arith.Option
	maxLen  int
	cache   *lru.Cache
	metrics *metrics
	log     *slog.Logger
}

// New creates a Service. Metrics are registered with reg.
func New(rec Recorder, cfg Config, reg prometheus.Registerer, log *slog.Logger) (*Service, error) {
	m, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}
	s := &Service{
		rec:     rec,
		opts:    []arith.Option{arith.Prec(cfg.Prec), arith.MaxDepth(cfg.MaxDepth)},
		maxLen:  cfg.MaxExprLen,
		metrics: m,
		log:     log,
	}
	if cfg.CacheSize > 0 {
		s.cache, err = lru.New(cfg.CacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "creating result cache")
		}
	}
	return s, nil
}

// Evaluate evaluates an expression and formats its result. Evaluation is
// idempotent, so successful results are served from the cache when possible.
func (s *Service) Evaluate(text string) (string, error) {
	if n := utf8.RuneCountInString(text); s.maxLen > 0 && n > s.maxLen {
		err := &LengthError{Len: n, Max: s.maxLen}
		s.metrics.observe(err)
		return "", err
	}
	if s.cache != nil {
		if v, ok := s.cache.Get(text); ok {
			s.metrics.hits.Inc()
			s.metrics.observe(nil)
			return v.(string), nil
		}
	}
	r, err := arith.EvalString(text, s.opts...)
	s.metrics.observe(err)
	if err != nil {
		return "", err
	}
	res := arith.Format(r)
	if s.cache != nil {
		s.cache.Add(text, res)
	}
	return res, nil
}

// Submit evaluates an expression for a user and records it. Nothing is
// recorded if evaluation fails.
func (s *Service) Submit(ctx context.Context, userID int64, text string) (store.Expression, error) {
	res, err := s.Evaluate(text)
	if err != nil {
		s.log.DebugContext(ctx, "evaluation failed", "user", userID, "expr", text, "err", err)
		return store.Expression{}, err
	}
	e, err := s.rec.AddExpression(ctx, userID, text, res)
	if err != nil {
		return store.Expression{}, errors.Wrap(err, "recording expression")
	}
	s.log.DebugContext(ctx, "evaluated", "user", userID, "expr", text, "result", res)
	return e, nil
}

// History lists a user's recorded expressions, oldest first.
func (s *Service) History(ctx context.Context, userID int64) ([]store.Expression, error) {
	h, err := s.rec.History(ctx, userID)
	return h, errors.Wrap(err, "loading history")
}
