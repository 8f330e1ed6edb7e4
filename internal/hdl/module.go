package hdl

import (
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Module is either an *External or an *Internal.
type Module interface {
	Name() string
	Interface() Interface
	isModule()
}

// External is an opaque leaf module. Param is its single bit-width
// parameter.
type External struct {
	ModName string
	Param   int
	Ports   Interface
}

func NewExternal(name string, param int, ports ...NamedPort) *External {
	return &External{ModName: name, Param: param, Ports: NewInterface(ports...)}
}

func (m *External) Name() string         { return m.ModName }
func (m *External) Interface() Interface { return m.Ports }
func (*External) isModule()              {}

// Internal is a composite module described entirely by its interface, its
// instances and the connections between their ports.
type Internal struct {
	ModName   string
	Ports     Interface
	Instances Instances
	Conns     []Conn
}

func (m *Internal) Name() string         { return m.ModName }
func (m *Internal) Interface() Interface { return m.Ports }
func (*Internal) isModule()              {}

// PortOf looks up the port a location refers to within m.
func (m *Internal) PortOf(loc PortLoc) (Port, bool) {
	if loc.IsInterface() {
		return m.Ports.Get(loc.Port)
	}
	inst, ok := m.Instances.Get(loc.Instance)
	if !ok || inst == nil {
		return Port{}, false
	}
	return inst.Interface().Get(loc.Port)
}

type NamedPort struct {
	Name string
	Port Port
}

func In(name string, bits int) NamedPort {
	return NamedPort{Name: name, Port: Port{Dir: Input, Bits: bits}}
}

func Out(name string, bits int) NamedPort {
	return NamedPort{Name: name, Port: Port{Dir: Output, Bits: bits}}
}

// Interface is an insertion-ordered set of named ports. The order is the
// order ports appear in generated text.
type Interface struct {
	m *orderedmap.OrderedMap[string, Port]
}

// NewInterface keeps the first position of a repeated name and its last
// value. Use a Builder to reject duplicates.
func NewInterface(ports ...NamedPort) Interface {
	m := orderedmap.New[string, Port]()
	for _, p := range ports {
		m.Set(p.Name, p.Port)
	}
	return Interface{m: m}
}

func (i Interface) Len() int {
	if i.m == nil {
		return 0
	}
	return i.m.Len()
}

func (i Interface) Get(name string) (Port, bool) {
	if i.m == nil {
		return Port{}, false
	}
	return i.m.Get(name)
}

// Equal reports whether both interfaces declare the same ports in the same
// order.
func (i Interface) Equal(o Interface) bool {
	if i.Len() != o.Len() {
		return false
	}
	names := o.Names()
	k := 0
	for name, p := range i.All() {
		q, _ := o.Get(names[k])
		if name != names[k] || p != q {
			return false
		}
		k++
	}
	return true
}

func (i Interface) Names() []string {
	names := make([]string, 0, i.Len())
	for name := range i.All() {
		names = append(names, name)
	}
	return names
}

func (i Interface) All() iter.Seq2[string, Port] {
	return func(yield func(string, Port) bool) {
		if i.m == nil {
			return
		}
		for pair := i.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

type NamedModule struct {
	Name   string
	Module Module
}

// Instances is an insertion-ordered set of named sub-module instances.
type Instances struct {
	m *orderedmap.OrderedMap[string, Module]
}

// NewInstances collapses repeated names like NewInterface. Validate rejects
// the empty name, which would alias the module's own interface.
func NewInstances(insts ...NamedModule) Instances {
	m := orderedmap.New[string, Module]()
	for _, in := range insts {
		m.Set(in.Name, in.Module)
	}
	return Instances{m: m}
}

func (i Instances) Len() int {
	if i.m == nil {
		return 0
	}
	return i.m.Len()
}

func (i Instances) Get(name string) (Module, bool) {
	if i.m == nil {
		return nil, false
	}
	return i.m.Get(name)
}

func (i Instances) All() iter.Seq2[string, Module] {
	return func(yield func(string, Module) bool) {
		if i.m == nil {
			return
		}
		for pair := i.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}
