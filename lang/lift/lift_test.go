package lift

import (
	"testing"

	"github.com/mna/vmdecompile/lang/ir"
	"github.com/stretchr/testify/require"
)

// mk builds an instruction with Addr==idx (so jump targets can be written as
// plain instruction indexes, mirroring lang/region's test fixtures) and the
// given args.
func mk(idx uint32, op ir.Op, args ...ir.Arg) ir.Instruction {
	return ir.Instruction{Addr: idx, Op: op, OpName: op.String(), Args: args}
}

func jumpTo(target uint32) ir.Arg {
	return ir.Arg{Kind: ir.KindAddress, Value: target}
}

func strArg(v string) *string {
	return &v
}

func scopeDest(scope, dest uint32) []ir.Arg {
	return []ir.Arg{{Kind: ir.KindScope, Value: scope}, {Kind: ir.KindDest, Value: dest}}
}

func liftAll(t *testing.T, insns []ir.Instruction) string {
	t.Helper()
	opcodes := ir.NewOpcodeMap()
	diags := ir.NewDiagnosticSink()
	return Lift(insns, opcodes, ir.NewStringTable(nil), ir.V2Current, 0, false, ir.NewSwappedOpcodes(), diags)
}

func TestLiftArithmeticAndSwappedSubtraction(t *testing.T) {
	insns := []ir.Instruction{
		mk(0, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(1)}),
		mk(1, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(2)}),
		mk(2, ir.OpAdd),
		func() ir.Instruction {
			i := mk(3, ir.OpStoreVariable)
			i.Args = scopeDest(0, 0)
			return i
		}(),
		mk(4, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(5)}),
		mk(5, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(3)}),
		func() ir.Instruction {
			i := mk(6, ir.OpSub)
			i.Opcode = 77
			return i
		}(),
		func() ir.Instruction {
			i := mk(7, ir.OpStoreVariable)
			i.Args = scopeDest(0, 1)
			return i
		}(),
		mk(8, ir.OpReturn, ir.Arg{Kind: ir.KindHasValue, Value: false}),
	}

	opcodes := ir.NewOpcodeMap()
	swapped := ir.NewSwappedOpcodes()
	swapped.Add(77)
	out := Lift(insns, opcodes, ir.NewStringTable(nil), ir.V2Current, 0, false, swapped, ir.NewDiagnosticSink())

	require.Equal(t, "var var_0 = (1 + 2);\nvar var_1 = (3 - 5);\nreturn;", out)
}

func TestLiftIfElse(t *testing.T) {
	loadCond := mk(0, ir.OpLoadVariable)
	loadCond.Args = scopeDest(0, 0)

	storeTrue := mk(3, ir.OpStoreVariable)
	storeTrue.Args = scopeDest(0, 1)
	storeFalse := mk(6, ir.OpStoreVariable)
	storeFalse.Args = scopeDest(0, 1)

	insns := []ir.Instruction{
		loadCond,
		mk(1, ir.OpJumpIfFalse, jumpTo(5)),
		mk(2, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(1)}),
		storeTrue,
		mk(4, ir.OpJump, jumpTo(7)),
		mk(5, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(2)}),
		storeFalse,
		mk(7, ir.OpReturn, ir.Arg{Kind: ir.KindHasValue, Value: false}),
	}

	out := liftAll(t, insns)
	require.Equal(t, "if (var_0) {\n  var var_1 = 1;\n}\nelse {\n  var var_1 = 2;\n}\nreturn;", out)
}

func TestLiftTernary(t *testing.T) {
	loadCond := mk(0, ir.OpLoadVariable)
	loadCond.Args = scopeDest(0, 0)
	store := mk(5, ir.OpStoreVariable)
	store.Args = scopeDest(0, 1)
	load := mk(6, ir.OpLoadVariable)
	load.Args = scopeDest(0, 1)

	insns := []ir.Instruction{
		loadCond,
		mk(1, ir.OpJumpIfFalse, jumpTo(4)),
		mk(2, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(1)}),
		mk(3, ir.OpJump, jumpTo(5)),
		mk(4, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(2)}),
		store,
		load,
		mk(7, ir.OpReturn, ir.Arg{Kind: ir.KindHasValue, Value: true}),
	}

	out := liftAll(t, insns)
	require.Equal(t, "var var_1 = (var_0 ? 1 : 2);\nreturn var_1;", out)
}

func TestLiftShortCircuitAnd(t *testing.T) {
	loadX := mk(0, ir.OpLoadVariable)
	loadX.Args = scopeDest(0, 0)
	loadY := mk(4, ir.OpLoadVariable)
	loadY.Args = scopeDest(0, 1)
	store := mk(5, ir.OpStoreVariable)
	store.Args = scopeDest(0, 2)

	insns := []ir.Instruction{
		loadX,
		mk(1, ir.OpStackDuplicate),
		mk(2, ir.OpJumpIfFalse, jumpTo(5)),
		mk(3, ir.OpStackPop),
		loadY,
		store,
		mk(6, ir.OpReturn, ir.Arg{Kind: ir.KindHasValue, Value: false}),
	}

	out := liftAll(t, insns)
	require.Equal(t, "var var_2 = (var_0 && var_1);\nreturn;", out)
}

func TestLiftV2PreTestLoop(t *testing.T) {
	loadI1 := mk(0, ir.OpLoadVariable)
	loadI1.Args = scopeDest(0, 0)
	loadI2 := mk(4, ir.OpLoadVariable)
	loadI2.Args = scopeDest(0, 0)
	assign := mk(7, ir.OpAssignVariable)
	assign.Args = append(scopeDest(0, 0), ir.Arg{Kind: ir.KindIsOp, Value: false})

	insns := []ir.Instruction{
		loadI1,
		mk(1, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(3)}),
		mk(2, ir.OpLess),
		mk(3, ir.OpJumpIfFalse, jumpTo(9)),
		loadI2,
		mk(5, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(1)}),
		mk(6, ir.OpAdd),
		assign,
		mk(8, ir.OpJump, jumpTo(0)),
		mk(9, ir.OpReturn, ir.Arg{Kind: ir.KindHasValue, Value: false}),
	}

	out := liftAll(t, insns)
	require.Equal(t, "while ((var_0 < 3)) {\n  var_0 = (var_0 + 1);\n}\nreturn;", out)
}

func TestLiftCallAsStatement(t *testing.T) {
	callee := mk(0, ir.OpLoadVariable)
	callee.Args = scopeDest(0, 0)

	insns := []ir.Instruction{
		callee,
		mk(1, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(1)}),
		mk(2, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(2)}),
		mk(3, ir.OpCallFunction, ir.Arg{Kind: ir.KindArgc, Value: uint32(2)}),
		mk(4, ir.OpReturn, ir.Arg{Kind: ir.KindHasValue, Value: false}),
	}

	out := liftAll(t, insns)
	require.Equal(t, "var_0(1, 2);\nreturn;", out)
}

func TestLiftCallAsExpressionAcrossInterveningPush(t *testing.T) {
	callee := mk(0, ir.OpLoadVariable)
	callee.Args = scopeDest(0, 0)

	insns := []ir.Instruction{
		callee,
		mk(1, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(1)}),
		mk(2, ir.OpCallFunction, ir.Arg{Kind: ir.KindArgc, Value: uint32(1)}),
		mk(3, ir.OpPushInt, ir.Arg{Kind: ir.KindSignedDword, Value: int32(1)}),
		mk(4, ir.OpAdd),
		mk(5, ir.OpReturn, ir.Arg{Kind: ir.KindHasValue, Value: true}),
	}

	out := liftAll(t, insns)
	require.Equal(t, "return (var_0(1) + 1);", out)
}

func TestLiftPropertyAccessDottedAndBracketed(t *testing.T) {
	loadObj := mk(0, ir.OpLoadVariable)
	loadObj.Args = scopeDest(0, 0)
	getSafe := mk(1, ir.OpGetProperty)
	getSafe.StringValue = strArg("name")
	getUnsafe := mk(2, ir.OpGetProperty)
	getUnsafe.StringValue = strArg("not-safe")

	insns := []ir.Instruction{
		loadObj,
		getSafe,
		getUnsafe,
		mk(3, ir.OpReturn, ir.Arg{Kind: ir.KindHasValue, Value: true}),
	}

	out := liftAll(t, insns)
	require.Equal(t, `return var_0.name["not-safe"];`, out)
}

func TestLiftNestedBuildFunction(t *testing.T) {
	// The nested body's raw bytes are opaque here (liftNestedFunction
	// re-disassembles them against the payload's own OpcodeMap); what this
	// test checks is that BUILD_FUNCTION always wraps the recursively lifted
	// result as a function expression, even when that body is degenerate.
	build := mk(0, ir.OpBuildFunction)
	build.FnBody = []byte{50, 51}
	store := mk(1, ir.OpStoreVariable)
	store.Args = scopeDest(0, 0)

	insns := []ir.Instruction{
		build,
		store,
		mk(2, ir.OpReturn, ir.Arg{Kind: ir.KindHasValue, Value: false}),
	}

	out := liftAll(t, insns)
	require.Contains(t, out, "var var_0 = function() {")
	require.Contains(t, out, "return;")
}

func TestLiftUnknownOpcodePlaceholder(t *testing.T) {
	unknown := mk(0, ir.OpUnknown)
	unknown.OpName = "UNKNOWN_200"

	insns := []ir.Instruction{
		unknown,
		mk(1, ir.OpReturn, ir.Arg{Kind: ir.KindHasValue, Value: false}),
	}

	out := liftAll(t, insns)
	require.Equal(t, "/* unknown opcode: UNKNOWN_200 */\nreturn;", out)
}
