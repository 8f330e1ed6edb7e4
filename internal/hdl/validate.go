package hdl

import "github.com/pkg/errors"

// Validate checks that every connection of m refers to existing ports and
// carries a positive width. With strict set, connection widths must also
// match both endpoints. Trees built with a Builder already satisfy the
// strict rules.
func Validate(m *Internal, strict bool) error {
	if m == nil {
		return errors.New("nil module")
	}
	for name, p := range m.Ports.All() {
		if err := checkPort(name, p); err != nil {
			return errors.Wrapf(err, "module %s: port %s", m.ModName, name)
		}
	}
	for name, inst := range m.Instances.All() {
		if name == "" {
			// An unnamed instance would alias the module's own interface.
			return errors.Wrapf(ErrEmptyName, "module %s: instance", m.ModName)
		}
		if inst == nil {
			return errors.Errorf("module %s: instance %s has no module", m.ModName, name)
		}
	}
	for _, c := range m.Conns {
		if c.Bits < 1 {
			return errors.Wrapf(ErrBadWidth, "module %s: connection %s", m.ModName, c)
		}
		for _, loc := range []PortLoc{c.Src, c.Dst} {
			p, ok := m.PortOf(loc)
			if !ok {
				return &UnknownPortError{Module: m.ModName, Loc: loc}
			}
			if strict && p.Bits != c.Bits {
				return &WidthMismatchError{Module: m.ModName, Conn: c, Endpoint: loc, Declared: p.Bits}
			}
		}
	}
	return nil
}

func checkPort(name string, p Port) error {
	switch {
	case name == "":
		return ErrEmptyName
	case !p.Dir.Valid():
		return errors.Wrapf(ErrBadDirection, "got %s", p.Dir)
	case p.Bits < 1:
		return ErrBadWidth
	}
	return nil
}
