package testutil

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

type Module struct {
	Name      string
	Ports     []string
	Decls     []Decl // input/output declarations
	Wires     []Decl
	Assigns   []Assign
	Instances []Instance
}

type Decl struct {
	Kind string // input, output or wire
	Bits int
	Name string
}

type Assign struct {
	LHS string
	RHS string
}

type Instance struct {
	Type string
	Name string
	Args []string
}

// ParseVerilog reads the structural subset vgen emits. Indentation is not
// checked here.
func ParseVerilog(data []byte) ([]Module, error) {
	var mods []Module
	var cur *Module
	inPorts := false
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		errorf := func(format string, args ...any) error {
			return fmt.Errorf("line %d: %s", lineNo, fmt.Sprintf(format, args...))
		}
		switch {
		case cur == nil:
			if !strings.HasPrefix(line, "module ") || !strings.HasSuffix(line, "(") {
				return nil, errorf("expected module header, got %q", line)
			}
			name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "module "), "("))
			mods = append(mods, Module{Name: name})
			cur = &mods[len(mods)-1]
			inPorts = true
		case inPorts:
			if line == ");" {
				inPorts = false
				continue
			}
			for _, p := range strings.Split(line, ",") {
				cur.Ports = append(cur.Ports, strings.TrimSpace(p))
			}
		case line == "endmodule":
			cur = nil
		case strings.HasPrefix(line, "input "), strings.HasPrefix(line, "output "), strings.HasPrefix(line, "wire "):
			d, err := parseDecl(line)
			if err != nil {
				return nil, errorf("%v", err)
			}
			if d.Kind == "wire" {
				cur.Wires = append(cur.Wires, d)
			} else {
				cur.Decls = append(cur.Decls, d)
			}
		case strings.HasPrefix(line, "assign "):
			body := strings.TrimSuffix(strings.TrimPrefix(line, "assign "), ";")
			parts := strings.SplitN(body, "=", 2)
			if len(parts) != 2 {
				return nil, errorf("invalid assign %q", line)
			}
			cur.Assigns = append(cur.Assigns, Assign{LHS: strings.TrimSpace(parts[0]), RHS: strings.TrimSpace(parts[1])})
		default:
			inst, err := parseInstance(line)
			if err != nil {
				return nil, errorf("%v", err)
			}
			cur.Instances = append(cur.Instances, inst)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, fmt.Errorf("module %s: missing endmodule", cur.Name)
	}
	return mods, nil
}

func parseDecl(line string) (Decl, error) {
	fields := strings.Fields(strings.TrimSuffix(line, ";"))
	d := Decl{Kind: fields[0], Bits: 1}
	switch len(fields) {
	case 2:
		d.Name = fields[1]
	case 3:
		r := strings.TrimSuffix(strings.TrimPrefix(fields[1], "["), ":0]")
		msb, err := strconv.Atoi(r)
		if err != nil {
			return d, fmt.Errorf("invalid range %q", fields[1])
		}
		d.Bits = msb + 1
		d.Name = fields[2]
	default:
		return d, fmt.Errorf("invalid declaration %q", line)
	}
	return d, nil
}

func parseInstance(line string) (Instance, error) {
	open := strings.Index(line, "(")
	if open < 0 || !strings.HasSuffix(line, ");") {
		return Instance{}, fmt.Errorf("invalid instance %q", line)
	}
	head := strings.Fields(line[:open])
	if len(head) != 2 {
		return Instance{}, fmt.Errorf("invalid instance head %q", line[:open])
	}
	inst := Instance{Type: head[0], Name: head[1]}
	body := strings.TrimSpace(strings.TrimSuffix(line[open+1:], ");"))
	if body != "" {
		for _, a := range strings.Split(body, ",") {
			inst.Args = append(inst.Args, strings.TrimSpace(a))
		}
	}
	return inst, nil
}
