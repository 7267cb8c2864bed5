package fingerprint

import (
	"testing"

	"github.com/mna/vmdecompile/lang/ir"
	"github.com/mna/vmdecompile/lang/srcnode"
	"github.com/stretchr/testify/require"
)

var b = srcnode.New()

func TestFingerprintBasicShapes(t *testing.T) {
	cases := []struct {
		name string
		body srcnode.Node
		want ir.Op
	}{
		{
			"debugger",
			b.Block(b.Debugger()),
			ir.OpDebugger,
		},
		{
			"push string from table",
			b.Block(b.ExprStmt(b.Call(b.Ident("push"), false, false,
				b.Member(b.Ident("strings"), "", true)))),
			ir.OpPushString,
		},
		{
			"push null literal",
			b.Block(b.ExprStmt(b.Call(b.Ident("push"), false, false, b.Lit(nil)))),
			ir.OpPushNull,
		},
		{
			"push bool literal",
			b.Block(b.ExprStmt(b.Call(b.Ident("push"), false, false, b.Lit(true)))),
			ir.OpPushBool,
		},
		{
			"push undefined",
			b.Block(b.ExprStmt(b.Call(b.Ident("push"), false, false, b.Ident("undefined")))),
			ir.OpPushUndefined,
		},
		{
			"push int from readDword",
			b.Block(b.ExprStmt(b.Call(b.Ident("push"), false, false, b.Call(b.Ident("readDword"), false, false)))),
			ir.OpPushInt,
		},
		{
			"push double from readDouble",
			b.Block(b.ExprStmt(b.Call(b.Ident("push"), false, false, b.Call(b.Ident("readDouble"), false, false)))),
			ir.OpPushDouble,
		},
		{
			"duplicate",
			b.Block(b.ExprStmt(b.Call(b.Ident("push"), false, false,
				b.Member(b.Ident("stack"), "", true)))),
			ir.OpStackDuplicate,
		},
		{
			"pop",
			b.Block(b.ExprStmt(b.Call(b.Ident("pop"), false, false))),
			ir.OpStackPop,
		},
		{
			"typeof",
			b.Block(b.ExprStmt(b.Call(b.Ident("push"), false, false,
				b.Unary("typeof", b.Call(b.Ident("pop"), false, false))))),
			ir.OpTypeof,
		},
		{
			"prefix increment on variable",
			b.Block(b.ExprStmt(b.Update("++", true, b.Ident("x")))),
			ir.OpIncVarPre,
		},
		{
			"postfix decrement on computed property",
			b.Block(b.ExprStmt(b.Update("--", false, b.Member(b.Ident("obj"), "", true)))),
			ir.OpDecElementPost,
		},
		{
			"array literal build",
			b.Block(
				b.ExprStmt(b.Ident("n")),
				b.ExprStmt(b.Call(b.Ident("push"), false, false, b.Array())),
			),
			ir.OpBuildArray,
		},
		{
			"construct via new",
			b.Block(b.ExprStmt(b.Call(b.Ident("Ctor"), true, false))),
			ir.OpConstruct,
		},
		{
			"throw",
			b.Block(b.Throw(b.Ident("err"))),
			ir.OpThrow,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			interp := Interpreter{Handlers: map[uint8]srcnode.Node{7: tc.body}}
			res := Fingerprint(interp, ir.NewDiagnosticSink())
			op, ok := res.Opcodes.Lookup(7)
			require.True(t, ok, "expected handler to classify")
			require.Equal(t, tc.want, op)
		})
	}
}

func TestFingerprintUnknownHandlerRecordsDiagnostic(t *testing.T) {
	weird := b.Block(b.ExprStmt(b.Ident("somethingUnclassifiable")))
	diags := ir.NewDiagnosticSink()
	interp := Interpreter{Handlers: map[uint8]srcnode.Node{3: weird}}
	res := Fingerprint(interp, diags)
	_, ok := res.Opcodes.Lookup(3)
	require.False(t, ok)
	require.Equal(t, 1, diags.Len())
}

func TestDetectSwappedCanonical(t *testing.T) {
	body := b.Block(b.ExprStmt(b.Call(b.Ident("push"), false, false,
		b.Binary("-", b.Call(b.Ident("pop"), false, false), b.Call(b.Ident("pop"), false, false)))))
	isBin, swapped := detectSwapped(body)
	require.True(t, isBin)
	require.False(t, swapped)
}

func TestDetectSwappedReversed(t *testing.T) {
	body := b.Block(
		b.ExprStmt(b.Assign("=", b.Ident("n"), b.Call(b.Ident("pop"), false, false))),
		b.ExprStmt(b.Call(b.Ident("push"), false, false,
			b.Binary("-", b.Call(b.Ident("pop"), false, false), b.Ident("n")))),
	)
	isBin, swapped := detectSwapped(body)
	require.True(t, isBin)
	require.True(t, swapped)
}

func TestFingerprintSwappedRecorded(t *testing.T) {
	body := b.Block(
		b.ExprStmt(b.Assign("=", b.Ident("n"), b.Call(b.Ident("pop"), false, false))),
		b.ExprStmt(b.Call(b.Ident("push"), false, false,
			b.Binary("-", b.Call(b.Ident("pop"), false, false), b.Ident("n")))),
	)
	interp := Interpreter{Handlers: map[uint8]srcnode.Node{9: body}}
	res := Fingerprint(interp, ir.NewDiagnosticSink())
	op, ok := res.Opcodes.Lookup(9)
	require.True(t, ok)
	require.Equal(t, ir.OpSub, op)
	require.True(t, res.Swapped.Contains(9))
}

func TestDetectReturnOpcode(t *testing.T) {
	dispatcher := b.Block(
		b.If(b.Binary("===", b.Ident("opcode"), b.Lit(float64(42))), b.Return(nil), nil),
	)
	raw, ok := detectReturnOpcode(dispatcher)
	require.True(t, ok)
	require.Equal(t, uint8(42), raw)
}

func TestFingerprintSetsReturnOpcode(t *testing.T) {
	dispatcher := b.Block(
		b.If(b.Binary("===", b.Ident("opcode"), b.Lit(float64(5))), b.Return(nil), nil),
	)
	interp := Interpreter{Dispatcher: dispatcher, Handlers: map[uint8]srcnode.Node{}}
	res := Fingerprint(interp, ir.NewDiagnosticSink())
	require.True(t, res.HasReturnOp)
	require.Equal(t, uint8(5), res.ReturnOp)
	op, ok := res.Opcodes.Lookup(5)
	require.True(t, ok)
	require.Equal(t, ir.OpReturn, op)
}
