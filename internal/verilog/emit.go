// Package verilog renders hdl modules as structural Verilog.
package verilog

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pborges/vgen/internal/hdl"
	"github.com/pborges/vgen/internal/wiring"
)

type config struct {
	indent string
	strict bool
	log    *zap.Logger
}

type Option func(*config)

// WithIndent sets the string used for one level of indentation.
func WithIndent(unit string) Option {
	return func(c *config) { c.indent = unit }
}

// Strict rejects connections whose width differs from their endpoints.
func Strict() Option {
	return func(c *config) { c.strict = true }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{indent: "    ", log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Emit writes the declaration of m to w. Only *hdl.Internal modules can be
// rendered. Nothing is written unless rendering succeeds.
func Emit(w io.Writer, m hdl.Module, opts ...Option) error {
	cfg := newConfig(opts)
	text, err := render(m, cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}

func render(m hdl.Module, cfg *config) ([]byte, error) {
	var mod *hdl.Internal
	switch m := m.(type) {
	case *hdl.Internal:
		mod = m
	case *hdl.External:
		return nil, &InvalidUsageError{Module: m.Name()}
	case nil:
		return nil, errors.New("nil module")
	default:
		return nil, errors.Errorf("unsupported module type %T", m)
	}

	if err := hdl.Validate(mod, cfg.strict); err != nil {
		return nil, err
	}
	res, err := wiring.Resolve(mod)
	if err != nil {
		return nil, err
	}
	cfg.log.Debug("resolved wiring",
		zap.String("module", mod.ModName),
		zap.Int("wires", len(res.Wires)),
		zap.Int("assigns", len(res.Assigns)))

	p := newPrinter(cfg.indent)
	if err := emitModule(p, mod, res); err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

func emitModule(p *printer, m *hdl.Internal, res *wiring.Resolution) error {
	p.line("module %s (", m.ModName)
	if m.Ports.Len() > 0 {
		func() {
			defer p.indent()()
			p.line("%s", strings.Join(m.Ports.Names(), ", "))
		}()
	}
	p.line(");")

	err := p.scoped(func() error {
		for name, port := range m.Ports.All() {
			p.line("%s%s %s;", port.Dir, bitRange(port.Bits), name)
		}
		for _, w := range res.Wires {
			p.line("wire%s %s;", bitRange(w.Bits), w.Name)
		}
		for _, a := range res.Assigns {
			p.line("assign %s = %s;", a.LHS, a.RHS)
		}
		for name, inst := range m.Instances.All() {
			args, err := instanceArgs(m, name, inst, res)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				p.line("%s %s ();", inst.Name(), name)
				continue
			}
			p.line("%s %s ( %s );", inst.Name(), name, strings.Join(args, ", "))
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.line("endmodule")
	return nil
}

// instanceArgs lists the wires bound to inst's ports in inst's own
// interface order.
func instanceArgs(m *hdl.Internal, name string, inst hdl.Module, res *wiring.Resolution) ([]string, error) {
	ports := inst.Interface()
	args := make([]string, 0, ports.Len())
	for port := range ports.All() {
		w, ok := res.WireFor(hdl.On(name, port))
		if !ok {
			return nil, &UnresolvedPortError{Module: m.ModName, Instance: name, Port: port}
		}
		args = append(args, w.Name)
	}
	return args, nil
}

// bitRange returns the " [msb:0]" suffix, empty for single bits.
func bitRange(bits int) string {
	if bits > 1 {
		return fmt.Sprintf(" [%d:0]", bits-1)
	}
	return ""
}
