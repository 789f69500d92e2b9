package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zephyrtronium/arith"
)

type evalCmd struct {
	Prec     uint     `short:"p" default:"64" help:"Precision of non-integer results in bits."`
	MaxDepth int      `default:"1000" help:"Deepest parenthesis nesting to accept."`
	Lax      bool     `help:"Ignore anything after the first complete expression."`
	Lines    bool     `short:"n" help:"Evaluate separate input lines as separate expressions."`
	In       string   `help:"Input file, or - for stdin. Defaults to stdin if no expressions are given."`
	Exprs    []string `arg:"" optional:"" help:"Expressions to evaluate."`
}

func (c *evalCmd) Run() error {
	var in io.Reader
	switch {
	case c.In != "" && c.In != "-":
		f, err := os.Open(c.In)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	case c.In == "-", len(c.Exprs) == 0:
		in = os.Stdin
	}
	return c.run(in, os.Stdout)
}

// run evaluates the expressions from in, if it is not nil, followed by the
// command-line arguments. A failed expression prints its error and does not
// stop the rest.
func (c *evalCmd) run(in io.Reader, out io.Writer) error {
	opts := []arith.Option{arith.Prec(c.Prec), arith.MaxDepth(c.MaxDepth)}
	if c.Lax {
		opts = append(opts, arith.IgnoreTrailing())
	}
	var srcs []string
	if in != nil {
		s, err := c.read(in)
		if err != nil {
			return err
		}
		srcs = append(srcs, s...)
	}
	srcs = append(srcs, c.Exprs...)

	failed := 0
	for _, src := range srcs {
		r, err := arith.EvalString(src, opts...)
		if err != nil {
			fmt.Fprintln(out, err)
			failed++
			continue
		}
		fmt.Fprintln(out, arith.Format(r))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", failed, len(srcs))
	}
	return nil
}

func (c *evalCmd) read(in io.Reader) ([]string, error) {
	if !c.Lines {
		b, err := io.ReadAll(in)
		if err != nil {
			return nil, err
		}
		s := strings.TrimRight(string(b), "\r\n")
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
	var r []string
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			r = append(r, line)
		}
	}
	return r, sc.Err()
}
