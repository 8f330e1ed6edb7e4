package verilog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pborges/vgen/internal/hdl"
	"github.com/pborges/vgen/internal/testutil"
)

func dff() *hdl.External {
	return hdl.NewExternal("d_flip_flop", 8, hdl.In("in", 8), hdl.Out("out", 8))
}

// seq wraps a flip-flop the way the sequencing combinator does:
// con * exp -> exp.
func seq() *hdl.Internal {
	return &hdl.Internal{
		ModName: "seq",
		Ports: hdl.NewInterface(
			hdl.Out("cmd_req", 1),
			hdl.In("cmd_valid", 1),
			hdl.Out("exp_req", 1),
			hdl.In("exp", 8),
			hdl.In("exp_valid", 1),
			hdl.In("req", 1),
			hdl.Out("ret", 8),
			hdl.Out("valid", 1),
		),
		Instances: hdl.NewInstances(hdl.NamedModule{Name: "D", Module: dff()}),
		Conns: []hdl.Conn{
			hdl.Connect(hdl.Self("req"), hdl.Self("cmd_req"), 1),
			hdl.Connect(hdl.Self("cmd_valid"), hdl.On("D", "in"), 1),
			hdl.Connect(hdl.On("D", "out"), hdl.Self("exp_req"), 1),
			hdl.Connect(hdl.Self("exp_valid"), hdl.Self("valid"), 8),
			hdl.Connect(hdl.Self("exp"), hdl.Self("ret"), 8),
		},
	}
}

const seqWant = `module seq (
    cmd_req, cmd_valid, exp_req, exp, exp_valid, req, ret, valid
);
    output cmd_req;
    input cmd_valid;
    output exp_req;
    input [7:0] exp;
    input exp_valid;
    input req;
    output [7:0] ret;
    output valid;
    wire D_in;
    wire D_out;
    assign cmd_req = req;
    assign D_in = cmd_valid;
    assign exp_req = D_out;
    assign valid = exp_valid;
    assign ret = exp;
    d_flip_flop D ( D_in, D_out );
endmodule
`

func emit(t *testing.T, m hdl.Module, opts ...Option) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Emit(&buf, m, opts...))
	return buf.String()
}

func TestEmitSeq(t *testing.T) {
	got := emit(t, seq())
	if diff := cmp.Diff(seqWant, got); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitSeqStructure(t *testing.T) {
	mods, err := testutil.ParseVerilog([]byte(emit(t, seq())))
	require.NoError(t, err)
	require.Len(t, mods, 1)
	m := mods[0]

	assert.Equal(t, "seq", m.Name)
	assert.Equal(t, seq().Ports.Names(), m.Ports)
	require.Len(t, m.Decls, 8)
	assert.Equal(t, testutil.Decl{Kind: "input", Bits: 8, Name: "exp"}, m.Decls[3])
	assert.Equal(t, []testutil.Decl{
		{Kind: "wire", Bits: 1, Name: "D_in"},
		{Kind: "wire", Bits: 1, Name: "D_out"},
	}, m.Wires)
	assert.Len(t, m.Assigns, 5)
	assert.Equal(t, []testutil.Instance{{Type: "d_flip_flop", Name: "D", Args: []string{"D_in", "D_out"}}}, m.Instances)
}

func TestEmitDeterministic(t *testing.T) {
	m := seq()
	first := emit(t, m)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, emit(t, m))
	}
	// A separately built but identical tree renders identically.
	assert.Equal(t, first, emit(t, seq()))
}

func TestEmitOrderFollowsDeclarations(t *testing.T) {
	build := func(conns []hdl.Conn) *hdl.Internal {
		return &hdl.Internal{
			ModName: "pair",
			Ports:   hdl.NewInterface(hdl.In("b", 8), hdl.In("a", 8), hdl.Out("y", 8), hdl.Out("x", 8)),
			Instances: hdl.NewInstances(
				hdl.NamedModule{Name: "R2", Module: dff()},
				hdl.NamedModule{Name: "R1", Module: dff()},
			),
			Conns: conns,
		}
	}
	conns := []hdl.Conn{
		hdl.Connect(hdl.Self("a"), hdl.On("R1", "in"), 8),
		hdl.Connect(hdl.Self("b"), hdl.On("R2", "in"), 8),
		hdl.Connect(hdl.On("R1", "out"), hdl.Self("x"), 8),
		hdl.Connect(hdl.On("R2", "out"), hdl.Self("y"), 8),
	}
	reordered := []hdl.Conn{conns[3], conns[2], conns[1], conns[0]}

	for _, cs := range [][]hdl.Conn{conns, reordered} {
		mods, err := testutil.ParseVerilog([]byte(emit(t, build(cs))))
		require.NoError(t, err)
		m := mods[0]
		assert.Equal(t, []string{"b", "a", "y", "x"}, m.Ports)
		require.Len(t, m.Instances, 2)
		assert.Equal(t, "R2", m.Instances[0].Name)
		assert.Equal(t, []string{"R2_in", "R2_out"}, m.Instances[0].Args)
		assert.Equal(t, "R1", m.Instances[1].Name)
		assert.Equal(t, []string{"R1_in", "R1_out"}, m.Instances[1].Args)
	}
}

func TestEmitInterfaceOnly(t *testing.T) {
	m := &hdl.Internal{
		ModName: "passthru",
		Ports:   hdl.NewInterface(hdl.In("a", 4), hdl.Out("z", 4)),
		Conns:   []hdl.Conn{hdl.Connect(hdl.Self("a"), hdl.Self("z"), 4)},
	}
	mods, err := testutil.ParseVerilog([]byte(emit(t, m)))
	require.NoError(t, err)
	assert.Empty(t, mods[0].Wires)
	assert.Equal(t, []testutil.Assign{{LHS: "z", RHS: "a"}}, mods[0].Assigns)
}

func TestEmitPortlessInstance(t *testing.T) {
	m, err := hdl.NewBuilder("top").
		Input("a", 1).
		Instance("T", hdl.NewExternal("tie", 0)).
		Build()
	require.NoError(t, err)

	want := `module top (
    a
);
    input a;
    tie T ();
endmodule
`
	assert.Equal(t, want, emit(t, m))
}

func TestEmitInstanceToInstance(t *testing.T) {
	m, err := hdl.NewBuilder("chain").
		Input("a", 8).
		Output("z", 8).
		Instance("U1", dff()).
		Instance("U2", dff()).
		Connect(hdl.Self("a"), hdl.On("U1", "in"), 8).
		Connect(hdl.On("U1", "out"), hdl.On("U2", "in"), 8).
		Connect(hdl.On("U2", "out"), hdl.Self("z"), 8).
		Build()
	require.NoError(t, err)

	want := `module chain (
    a, z
);
    input [7:0] a;
    output [7:0] z;
    wire [7:0] U1_in;
    wire [7:0] U1_out;
    wire [7:0] U2_in;
    wire [7:0] U2_out;
    assign U1_in = a;
    assign U2_in = U1_out;
    assign z = U2_out;
    d_flip_flop U1 ( U1_in, U1_out );
    d_flip_flop U2 ( U2_in, U2_out );
endmodule
`
	if diff := cmp.Diff(want, emit(t, m)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitIndentOption(t *testing.T) {
	got := emit(t, seq(), WithIndent("\t"))
	assert.Equal(t, strings.ReplaceAll(seqWant, "    ", "\t"), got)
}

func TestEmitRejectsExternal(t *testing.T) {
	var buf bytes.Buffer
	err := Emit(&buf, dff())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidUsage))
	var iu *InvalidUsageError
	require.True(t, errors.As(err, &iu))
	assert.Equal(t, "d_flip_flop", iu.Module)
	assert.Zero(t, buf.Len())
}

func TestEmitUnresolvedPort(t *testing.T) {
	m := seq()
	m.Conns = m.Conns[:2] // drop D.out -> exp_req
	var buf bytes.Buffer
	err := Emit(&buf, m)
	var up *UnresolvedPortError
	require.True(t, errors.As(err, &up))
	assert.Equal(t, UnresolvedPortError{Module: "seq", Instance: "D", Port: "out"}, *up)
	assert.Zero(t, buf.Len(), "no partial output")
}

func TestEmitUnknownEndpoint(t *testing.T) {
	m := seq()
	m.Conns = append(m.Conns, hdl.Connect(hdl.On("Q", "out"), hdl.Self("valid"), 1))
	var up *hdl.UnknownPortError
	require.True(t, errors.As(Emit(&bytes.Buffer{}, m), &up))
	assert.Equal(t, hdl.On("Q", "out"), up.Loc)
}

func TestEmitRejectsMalformedModule(t *testing.T) {
	tests := []struct {
		name string
		mod  *hdl.Internal
		want error
	}{
		{
			name: "unknown direction",
			mod: &hdl.Internal{
				ModName: "top",
				Ports:   hdl.NewInterface(hdl.NamedPort{Name: "x", Port: hdl.Port{Dir: hdl.Direction(7), Bits: 1}}),
			},
			want: hdl.ErrBadDirection,
		},
		{
			name: "unnamed instance",
			mod: &hdl.Internal{
				ModName:   "top",
				Ports:     hdl.NewInterface(hdl.In("in", 8)),
				Instances: hdl.NewInstances(hdl.NamedModule{Name: "", Module: dff()}),
				Conns:     []hdl.Conn{hdl.Connect(hdl.Self("in"), hdl.On("", "in"), 8)},
			},
			want: hdl.ErrEmptyName,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Emit(&buf, tc.mod)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), err.Error())
			assert.Zero(t, buf.Len())
		})
	}
}

func TestEmitStrict(t *testing.T) {
	// The seq connections carry fewer bits than the flip-flop declares.
	var wm *hdl.WidthMismatchError
	err := Emit(&bytes.Buffer{}, seq(), Strict())
	require.True(t, errors.As(err, &wm))
	assert.Equal(t, hdl.On("D", "in"), wm.Endpoint)
	assert.Equal(t, 8, wm.Declared)
}

func TestBitRange(t *testing.T) {
	assert.Equal(t, "", bitRange(1))
	assert.Equal(t, " [1:0]", bitRange(2))
	assert.Equal(t, " [31:0]", bitRange(32))
}

func TestPrinterIndentRestores(t *testing.T) {
	p := newPrinter("  ")
	boom := errors.New("boom")
	err := p.scoped(func() error {
		p.line("a")
		return p.scoped(func() error {
			p.line("b")
			return boom
		})
	})
	require.Equal(t, boom, err)
	assert.Equal(t, 0, p.depth)
	p.line("c")
	assert.Equal(t, "  a\n    b\nc\n", string(p.Bytes()))

	func() {
		defer func() { _ = recover() }()
		defer p.indent()()
		panic("abort")
	}()
	assert.Equal(t, 0, p.depth)
}
