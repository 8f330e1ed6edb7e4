package hdl

import "github.com/pkg/errors"

// Builder assembles an Internal module, validating each step. The first
// error is kept and returned by Build; later calls are ignored.
type Builder struct {
	name  string
	ports []NamedPort
	insts []NamedModule
	conns []Conn

	portIdx map[string]Port
	instIdx map[string]Module
	err     error
}

func NewBuilder(name string) *Builder {
	return &Builder{
		name:    name,
		portIdx: make(map[string]Port),
		instIdx: make(map[string]Module),
	}
}

func (b *Builder) Input(name string, bits int) *Builder {
	return b.Port(name, Port{Dir: Input, Bits: bits})
}

func (b *Builder) Output(name string, bits int) *Builder {
	return b.Port(name, Port{Dir: Output, Bits: bits})
}

func (b *Builder) Port(name string, p Port) *Builder {
	if b.err != nil {
		return b
	}
	if err := checkPort(name, p); err != nil {
		b.err = errors.Wrapf(err, "module %s: port %s", b.name, name)
		return b
	}
	if _, ok := b.portIdx[name]; ok {
		b.err = &DuplicateError{Module: b.name, Kind: "port", Name: name}
		return b
	}
	b.portIdx[name] = p
	b.ports = append(b.ports, NamedPort{Name: name, Port: p})
	return b
}

func (b *Builder) Instance(name string, m Module) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = errors.Wrapf(ErrEmptyName, "module %s: instance", b.name)
		return b
	}
	if m == nil {
		b.err = errors.Errorf("module %s: instance %s has no module", b.name, name)
		return b
	}
	if _, ok := b.instIdx[name]; ok {
		b.err = &DuplicateError{Module: b.name, Kind: "instance", Name: name}
		return b
	}
	b.instIdx[name] = m
	b.insts = append(b.insts, NamedModule{Name: name, Module: m})
	return b
}

// Connect adds src -> dst. Both endpoints must already be declared and
// their widths must equal bits.
func (b *Builder) Connect(src, dst PortLoc, bits int) *Builder {
	if b.err != nil {
		return b
	}
	c := Conn{Src: src, Dst: dst, Bits: bits}
	if bits < 1 {
		b.err = errors.Wrapf(ErrBadWidth, "module %s: connection %s", b.name, c)
		return b
	}
	for _, loc := range []PortLoc{src, dst} {
		p, ok := b.lookup(loc)
		if !ok {
			b.err = &UnknownPortError{Module: b.name, Loc: loc}
			return b
		}
		if p.Bits != bits {
			b.err = &WidthMismatchError{Module: b.name, Conn: c, Endpoint: loc, Declared: p.Bits}
			return b
		}
	}
	b.conns = append(b.conns, c)
	return b
}

// PortOf returns the declared port at loc, if any.
func (b *Builder) PortOf(loc PortLoc) (Port, bool) {
	return b.lookup(loc)
}

func (b *Builder) lookup(loc PortLoc) (Port, bool) {
	if loc.IsInterface() {
		p, ok := b.portIdx[loc.Port]
		return p, ok
	}
	m, ok := b.instIdx[loc.Instance]
	if !ok {
		return Port{}, false
	}
	return m.Interface().Get(loc.Port)
}

func (b *Builder) Build() (*Internal, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Internal{
		ModName:   b.name,
		Ports:     NewInterface(b.ports...),
		Instances: NewInstances(b.insts...),
		Conns:     append([]Conn(nil), b.conns...),
	}, nil
}
