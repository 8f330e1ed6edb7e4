// Package wiring derives the implicit wires and assignments of an Internal
// module from its connections.
package wiring

import (
	"fmt"

	"github.com/pborges/vgen/internal/hdl"
)

type Wire struct {
	Name string
	Bits int
}

// Assign is a continuous assignment LHS = RHS.
type Assign struct {
	LHS string
	RHS string
}

type Resolution struct {
	// Wires to declare, in creation order.
	Wires []Wire
	// PortWires maps every instance-side port location seen in a
	// connection to the wire carrying its signal.
	PortWires map[hdl.PortLoc]Wire
	// Assigns in connection order.
	Assigns []Assign
}

func (r *Resolution) WireFor(loc hdl.PortLoc) (Wire, bool) {
	w, ok := r.PortWires[loc]
	return w, ok
}

// WireName is the single naming policy for synthesized wires: a wire is
// named after the instance port it is bound to.
func WireName(loc hdl.PortLoc) string {
	return loc.Instance + "_" + loc.Port
}

// Resolve walks the connections of m once. Each connection is classified
// by whether its endpoints are on m's interface or on an instance:
//
//	interface -> interface   assign dst = src
//	instance  -> interface   wire for src, assign dst = wire
//	interface -> instance    wire for dst, assign wire = src
//	instance  -> instance    wire per side, assign dst_wire = src_wire
//
// An instance port that appears in several connections is bound to one
// wire, declared once.
func Resolve(m *hdl.Internal) (*Resolution, error) {
	r := &resolver{
		mod:   m,
		res:   &Resolution{PortWires: make(map[hdl.PortLoc]Wire)},
		owner: make(map[string]hdl.PortLoc),
	}
	for _, c := range m.Conns {
		if err := r.conn(c); err != nil {
			return nil, err
		}
	}
	return r.res, nil
}

type resolver struct {
	mod *hdl.Internal
	res *Resolution
	// wire name -> port location it was created for
	owner map[string]hdl.PortLoc
}

func (r *resolver) conn(c hdl.Conn) error {
	switch {
	case c.Src.IsInterface() && c.Dst.IsInterface():
		r.assign(c.Dst.Port, c.Src.Port)
	case !c.Src.IsInterface() && c.Dst.IsInterface():
		w, err := r.bind(c.Src, c)
		if err != nil {
			return err
		}
		r.assign(c.Dst.Port, w.Name)
	case c.Src.IsInterface() && !c.Dst.IsInterface():
		w, err := r.bind(c.Dst, c)
		if err != nil {
			return err
		}
		r.assign(w.Name, c.Src.Port)
	default:
		src, err := r.bind(c.Src, c)
		if err != nil {
			return err
		}
		dst, err := r.bind(c.Dst, c)
		if err != nil {
			return err
		}
		r.assign(dst.Name, src.Name)
	}
	return nil
}

// bind returns the wire for an instance port, creating and declaring it on
// first use.
func (r *resolver) bind(loc hdl.PortLoc, c hdl.Conn) (Wire, error) {
	if w, ok := r.res.PortWires[loc]; ok {
		if w.Bits != c.Bits {
			return Wire{}, &hdl.WidthMismatchError{Module: r.mod.ModName, Conn: c, Endpoint: loc, Declared: w.Bits}
		}
		return w, nil
	}
	w := Wire{Name: WireName(loc), Bits: c.Bits}
	if _, ok := r.mod.Ports.Get(w.Name); ok {
		return Wire{}, &CollisionError{Module: r.mod.ModName, Wire: w.Name, Loc: loc, With: "port"}
	}
	if _, ok := r.mod.Instances.Get(w.Name); ok {
		return Wire{}, &CollisionError{Module: r.mod.ModName, Wire: w.Name, Loc: loc, With: "instance"}
	}
	if prev, ok := r.owner[w.Name]; ok {
		return Wire{}, &CollisionError{Module: r.mod.ModName, Wire: w.Name, Loc: loc, With: "wire", Other: prev}
	}
	r.owner[w.Name] = loc
	r.res.PortWires[loc] = w
	r.res.Wires = append(r.res.Wires, w)
	return w, nil
}

func (r *resolver) assign(lhs, rhs string) {
	r.res.Assigns = append(r.res.Assigns, Assign{LHS: lhs, RHS: rhs})
}

// CollisionError reports a synthesized wire name that is already taken in
// the module scope.
type CollisionError struct {
	Module string
	Wire   string
	Loc    hdl.PortLoc
	With   string      // "port", "instance" or "wire"
	Other  hdl.PortLoc // location owning the other wire
}

func (e *CollisionError) Error() string {
	if e.With == "wire" {
		return fmt.Sprintf("module %s: wire %s for %s collides with wire for %s", e.Module, e.Wire, e.Loc, e.Other)
	}
	return fmt.Sprintf("module %s: wire %s for %s collides with %s of the same name", e.Module, e.Wire, e.Loc, e.With)
}
