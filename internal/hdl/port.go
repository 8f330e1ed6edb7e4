package hdl

import (
	"fmt"

	"github.com/pkg/errors"
)

// Direction indicates which way a signal flows through a port.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

func (d Direction) Valid() bool { return d == Input || d == Output }

// ParseDirection accepts input/in and output/out.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "input", "in":
		return Input, nil
	case "output", "out":
		return Output, nil
	default:
		return 0, errors.Errorf("invalid port direction %q", s)
	}
}

type Port struct {
	Dir  Direction
	Bits int
}

// PortLoc identifies a port. An empty Instance refers to the enclosing
// module's own interface.
type PortLoc struct {
	Instance string
	Port     string
}

func Self(port string) PortLoc {
	return PortLoc{Port: port}
}

func On(instance, port string) PortLoc {
	return PortLoc{Instance: instance, Port: port}
}

func (l PortLoc) IsInterface() bool { return l.Instance == "" }

func (l PortLoc) String() string {
	if l.IsInterface() {
		return l.Port
	}
	return l.Instance + "." + l.Port
}

// Conn is a directed connection: the signal flows from Src to Dst.
type Conn struct {
	Src  PortLoc
	Dst  PortLoc
	Bits int
}

func Connect(src, dst PortLoc, bits int) Conn {
	return Conn{Src: src, Dst: dst, Bits: bits}
}

func (c Conn) String() string {
	return fmt.Sprintf("%s -> %s [%d]", c.Src, c.Dst, c.Bits)
}
