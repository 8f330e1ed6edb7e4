package verilog

import (
	"bytes"
	"io"
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pborges/vgen/internal/hdl"
)

// EmitDesign writes the declaration of top and of every internal module it
// instantiates, directly or not. Sub-modules come before the modules that
// use them, in first-seen order, each declared once. Modules are rendered
// in parallel; the output does not depend on scheduling.
func EmitDesign(w io.Writer, top hdl.Module, opts ...Option) error {
	cfg := newConfig(opts)
	if ext, ok := top.(*hdl.External); ok {
		return &InvalidUsageError{Module: ext.Name()}
	}

	d := &design{
		seen:    make(map[string]hdl.Module),
		onPath:  make(map[*hdl.Internal]bool),
		dupSeen: make(map[*hdl.Internal]bool),
	}
	if err := d.collect(top); err != nil {
		return err
	}
	cfg.log.Debug("collected design",
		zap.String("top", top.Name()),
		zap.Int("modules", len(d.order)),
		zap.Int("redefinitions", len(d.dups)))

	jobs := append(append([]*hdl.Internal(nil), d.order...), d.dups...)
	texts := make([][]byte, len(jobs))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range jobs {
		g.Go(func() error {
			text, err := render(m, cfg)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	index := make(map[string]int, len(d.order))
	for i, m := range d.order {
		index[m.ModName] = i
	}
	for j, m := range d.dups {
		if !bytes.Equal(texts[index[m.ModName]], texts[len(d.order)+j]) {
			return &ConflictError{Module: m.ModName}
		}
	}

	var out bytes.Buffer
	for i := range d.order {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.Write(texts[i])
	}
	_, err := w.Write(out.Bytes())
	return err
}

type design struct {
	order  []*hdl.Internal
	dups   []*hdl.Internal // distinct values reusing an already seen name
	seen   map[string]hdl.Module
	onPath map[*hdl.Internal]bool

	dupSeen map[*hdl.Internal]bool
}

func (d *design) collect(m hdl.Module) error {
	if m == nil {
		return errors.New("nil module")
	}
	mod, internal := m.(*hdl.Internal)
	if internal && d.onPath[mod] {
		return errors.Errorf("module %s instantiates itself", mod.ModName)
	}
	if prev, ok := d.seen[m.Name()]; ok {
		if prev == m {
			return nil
		}
		if _, prevInternal := prev.(*hdl.Internal); prevInternal != internal {
			return &ConflictError{Module: m.Name()}
		}
		if !internal {
			if !sameExternal(prev.(*hdl.External), m.(*hdl.External)) {
				return &ConflictError{Module: m.Name()}
			}
			return nil
		}
		if d.dupSeen[mod] {
			return nil
		}
		d.dupSeen[mod] = true
		d.dups = append(d.dups, mod)
		return d.children(mod)
	}
	d.seen[m.Name()] = m
	if !internal {
		return nil
	}
	if err := d.children(mod); err != nil {
		return err
	}
	d.order = append(d.order, mod)
	return nil
}

func (d *design) children(mod *hdl.Internal) error {
	d.onPath[mod] = true
	defer delete(d.onPath, mod)
	for _, inst := range mod.Instances.All() {
		if err := d.collect(inst); err != nil {
			return errors.Wrapf(err, "in module %s", mod.ModName)
		}
	}
	return nil
}

func sameExternal(a, b *hdl.External) bool {
	return a.Param == b.Param && a.Ports.Equal(b.Ports)
}
