package arith

import (
	"errors"
	"io"
)

// EOF is the current symbol once the input is exhausted. It never compares
// equal to a digit, operator, or parenthesis.
const EOF rune = -1

// scanner holds the cursor into an expression's source.
type scanner struct {
	src io.RuneScanner
	// cur is the rune at the cursor, or EOF.
	cur rune
	// col is the 1-based rune position of cur. Once the input is exhausted,
	// col is one past the last rune and stays there.
	col int
	eof bool
}

// scan creates a scanner with its cursor on the first rune of src.
func scan(src io.RuneScanner) (*scanner, error) {
	s := &scanner{src: src}
	if err := s.advance(); err != nil {
		return nil, err
	}
	return s, nil
}

// advance moves the cursor one rune forward. Advancing past the end of the
// input is a no-op.
func (s *scanner) advance() error {
	if s.eof {
		return nil
	}
	s.col++
	r, _, err := s.src.ReadRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.cur = EOF
			s.eof = true
			return nil
		}
		return err
	}
	s.cur = r
	return nil
}

// eat advances past want if it is the current symbol. Otherwise, the result
// is an *ExpectError and the cursor does not move.
func (s *scanner) eat(want rune) error {
	if s.cur != want {
		return &ExpectError{Col: s.col, Want: want, Got: s.cur}
	}
	return s.advance()
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
