package region

import (
	"testing"

	"github.com/mna/vmdecompile/lang/ir"
	"github.com/stretchr/testify/require"
)

func tryPush(addr uint32, catchAddr uint32) ir.Instruction {
	return ir.Instruction{
		Addr: addr, Op: ir.OpTryPush, OpName: ir.OpTryPush.String(),
		Args: []ir.Arg{{Kind: ir.KindCatchAddr, Value: catchAddr}},
	}
}

func TestDetectTryCatchBasic(t *testing.T) {
	// 0: TRY_PUSH catch=4; 1: PUSH_INT (try body); 2: TRY_POP; 3: JUMP->6
	// (after); 4: STORE_VARIABLE (catch body); 5: JUMP->6; 6: RETURN
	insns := []ir.Instruction{
		tryPush(0, 4),
		insn(1, ir.OpPushInt),
		insn(2, ir.OpTryPop),
		insn(3, ir.OpJump, 6),
		insn(4, ir.OpStoreVariable),
		insn(5, ir.OpJump, 6),
		insn(6, ir.OpReturn),
	}
	regions := DetectTryCatch(insns)
	require.Len(t, regions, 1)
	r := regions[0]
	require.Equal(t, 1, r.TryStart)
	require.Equal(t, 2, r.TryEnd)
	require.Equal(t, uint32(4), r.CatchAddr)
	require.Equal(t, 4, r.CatchStart)
	require.Equal(t, 5, r.CatchEnd)
	require.Equal(t, uint32(6), r.AfterAddr)
}

func TestDetectTryCatchWithFinally(t *testing.T) {
	push := func(addr uint32, finallyAddr uint32, catchAddr uint32) ir.Instruction {
		return ir.Instruction{
			Addr: addr, Op: ir.OpTryPush, OpName: ir.OpTryPush.String(),
			Args: []ir.Arg{
				{Kind: ir.KindCatchAddr, Value: catchAddr},
				{Kind: ir.KindFinallyAddr, Value: finallyAddr},
			},
		}
	}
	// 0: TRY_PUSH catch=4 finally=6; 1: PUSH_INT; 2: TRY_POP; 3: JUMP->8;
	// 4: STORE_VARIABLE (catch); 5: JUMP->8; 6: TRY_FINALLY (finally body);
	// 7: JUMP->8; 8: RETURN
	insns := []ir.Instruction{
		push(0, 6, 4),
		insn(1, ir.OpPushInt),
		insn(2, ir.OpTryPop),
		insn(3, ir.OpJump, 8),
		insn(4, ir.OpStoreVariable),
		insn(5, ir.OpJump, 8),
		insn(6, ir.OpTryFinally),
		insn(7, ir.OpJump, 8),
		insn(8, ir.OpReturn),
	}
	regions := DetectTryCatch(insns)
	require.Len(t, regions, 1)
	r := regions[0]
	require.Equal(t, 6, r.FinallyStart)
	require.Equal(t, 8, r.FinallyEnd)
}

func TestDetectTryCatchNestedWellFormed(t *testing.T) {
	// outer try wraps an inner try; both close before the shared after-address.
	insns := []ir.Instruction{
		tryPush(0, 8),  // outer, catch at 8
		tryPush(1, 6),  // inner, catch at 6
		insn(2, ir.OpPushInt),
		insn(3, ir.OpTryPop), // closes inner
		insn(4, ir.OpJump, 9),
		insn(5, ir.OpStoreVariable), // unreachable filler before inner catch start
		insn(6, ir.OpStoreVariable), // inner catch body
		insn(7, ir.OpTryPop),        // closes outer
		insn(8, ir.OpStoreVariable), // outer catch body
		insn(9, ir.OpReturn),
	}
	regions := DetectTryCatch(insns)
	require.Len(t, regions, 2)
}
