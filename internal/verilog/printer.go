package verilog

import (
	"bytes"
	"fmt"
	"strings"
)

// printer writes indented lines into a buffer. Nesting is tracked with
// indent, which returns the function that restores the previous depth.
type printer struct {
	buf   bytes.Buffer
	unit  string
	depth int
}

func newPrinter(unit string) *printer {
	return &printer{unit: unit}
}

// indent enters a nested block. Callers defer the returned func:
//
//	defer p.indent()()
func (p *printer) indent() func() {
	prev := p.depth
	p.depth++
	return func() { p.depth = prev }
}

// scoped runs fn one level deeper and restores the depth however fn
// returns.
func (p *printer) scoped(fn func() error) error {
	defer p.indent()()
	return fn()
}

func (p *printer) line(format string, args ...any) {
	p.buf.WriteString(strings.Repeat(p.unit, p.depth))
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
}

func (p *printer) Bytes() []byte { return p.buf.Bytes() }
