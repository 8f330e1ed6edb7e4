// Package netlist loads module trees from YAML netlist descriptions.
package netlist

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/pborges/vgen/internal/hdl"
)

// Design holds every module of a netlist file in declaration order.
type Design struct {
	Top     string
	Modules []hdl.Module

	byName map[string]hdl.Module
}

func (d *Design) Module(name string) (hdl.Module, bool) {
	m, ok := d.byName[name]
	return m, ok
}

// TopModule returns the module named by top, or the last internal module
// when no top is given.
func (d *Design) TopModule() (hdl.Module, error) {
	if d.Top != "" {
		m, ok := d.byName[d.Top]
		if !ok {
			return nil, errors.Errorf("top module %q is not defined", d.Top)
		}
		return m, nil
	}
	for i := len(d.Modules) - 1; i >= 0; i-- {
		if _, ok := d.Modules[i].(*hdl.Internal); ok {
			return d.Modules[i], nil
		}
	}
	return nil, errors.New("netlist has no internal module")
}

type file struct {
	Top     string       `yaml:"top"`
	Modules []moduleSpec `yaml:"modules"`
}

// positions mirrors file to recover the line each module starts on.
type positions struct {
	Modules []yaml.Node `yaml:"modules"`
}

type moduleSpec struct {
	Name        string     `yaml:"name"`
	Extern      bool       `yaml:"extern"`
	Param       int        `yaml:"param"`
	Ports       []portSpec `yaml:"ports"`
	Instances   []instSpec `yaml:"instances"`
	Connections []connSpec `yaml:"connections"`
}

type portSpec struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
	Bits int    `yaml:"bits"`
}

type instSpec struct {
	Name   string `yaml:"name"`
	Module string `yaml:"module"`
}

type connSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Bits int    `yaml:"bits"`
}

func LoadFile(path string) (*Design, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Load(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return d, nil
}

// Load parses a netlist. Modules may only instantiate modules declared
// before them.
func Load(r io.Reader) (*Design, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty netlist")
		}
		return nil, errors.Wrap(err, "parse netlist")
	}
	var pos positions
	if err := yaml.Unmarshal(data, &pos); err != nil {
		return nil, errors.Wrap(err, "parse netlist")
	}

	d := &Design{Top: f.Top, byName: make(map[string]hdl.Module)}
	for i, spec := range f.Modules {
		m, err := d.build(spec)
		if err != nil {
			if i < len(pos.Modules) {
				return nil, errors.Wrapf(err, "line %d", pos.Modules[i].Line)
			}
			return nil, err
		}
		d.Modules = append(d.Modules, m)
		d.byName[m.Name()] = m
	}
	return d, nil
}

func (d *Design) build(spec moduleSpec) (hdl.Module, error) {
	if spec.Name == "" {
		return nil, errors.New("module without a name")
	}
	if _, ok := d.byName[spec.Name]; ok {
		return nil, errors.Errorf("module %s is defined twice", spec.Name)
	}
	if spec.Extern {
		return buildExternal(spec)
	}
	return d.buildInternal(spec)
}

func buildExternal(spec moduleSpec) (hdl.Module, error) {
	if len(spec.Instances) > 0 || len(spec.Connections) > 0 {
		return nil, errors.Errorf("module %s: extern modules cannot have instances or connections", spec.Name)
	}
	b := hdl.NewBuilder(spec.Name)
	if err := addPorts(b, spec); err != nil {
		return nil, err
	}
	// The builder validates the ports; only the interface is kept.
	m, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &hdl.External{ModName: spec.Name, Param: spec.Param, Ports: m.Ports}, nil
}

func (d *Design) buildInternal(spec moduleSpec) (hdl.Module, error) {
	b := hdl.NewBuilder(spec.Name)
	if err := addPorts(b, spec); err != nil {
		return nil, err
	}
	for _, in := range spec.Instances {
		sub, ok := d.byName[in.Module]
		if !ok {
			return nil, errors.Errorf("module %s: instance %s refers to undefined module %q", spec.Name, in.Name, in.Module)
		}
		b.Instance(in.Name, sub)
	}
	for _, c := range spec.Connections {
		src, err := ParseEndpoint(c.From)
		if err != nil {
			return nil, errors.Wrapf(err, "module %s", spec.Name)
		}
		dst, err := ParseEndpoint(c.To)
		if err != nil {
			return nil, errors.Wrapf(err, "module %s", spec.Name)
		}
		bits := c.Bits
		if bits == 0 {
			bits = 1
			if p, ok := b.PortOf(src); ok {
				bits = p.Bits
			}
		}
		b.Connect(src, dst, bits)
	}
	return b.Build()
}

func addPorts(b *hdl.Builder, spec moduleSpec) error {
	for _, p := range spec.Ports {
		dir, err := hdl.ParseDirection(p.Dir)
		if err != nil {
			return errors.Wrapf(err, "module %s: port %s", spec.Name, p.Name)
		}
		bits := p.Bits
		if bits == 0 {
			bits = 1
		}
		b.Port(p.Name, hdl.Port{Dir: dir, Bits: bits})
	}
	return nil
}

// ParseEndpoint reads "port" or "instance.port".
func ParseEndpoint(s string) (hdl.PortLoc, error) {
	s = strings.TrimSpace(s)
	inst, port, found := strings.Cut(s, ".")
	if !found {
		inst, port = "", s
	}
	if port == "" || (found && inst == "") || strings.Contains(port, ".") {
		return hdl.PortLoc{}, errors.Errorf("invalid endpoint %q", s)
	}
	return hdl.On(inst, port), nil
}
