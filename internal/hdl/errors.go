package hdl

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrBadWidth     = errors.New("bit width must be at least 1")
	ErrBadDirection = errors.New("port direction must be input or output")
	ErrEmptyName    = errors.New("name must not be empty")
)

// DuplicateError reports a port or instance name declared twice in one
// module.
type DuplicateError struct {
	Module string
	Kind   string // "port" or "instance"
	Name   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("module %s: duplicate %s name %q", e.Module, e.Kind, e.Name)
}

// UnknownPortError reports a connection endpoint that does not name an
// existing port.
type UnknownPortError struct {
	Module string
	Loc    PortLoc
}

func (e *UnknownPortError) Error() string {
	if e.Loc.IsInterface() {
		return fmt.Sprintf("module %s: no interface port %q", e.Module, e.Loc.Port)
	}
	return fmt.Sprintf("module %s: no port %q on instance %q", e.Module, e.Loc.Port, e.Loc.Instance)
}

// WidthMismatchError reports a connection whose bit count disagrees with
// the declared width of one of its endpoints.
type WidthMismatchError struct {
	Module   string
	Conn     Conn
	Endpoint PortLoc
	Declared int
}

func (e *WidthMismatchError) Error() string {
	return fmt.Sprintf("module %s: connection %s carries %d bits but %s is declared with %d",
		e.Module, e.Conn, e.Conn.Bits, e.Endpoint, e.Declared)
}
