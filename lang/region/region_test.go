package region

import (
	"testing"

	"github.com/mna/vmdecompile/lang/cfg"
	"github.com/mna/vmdecompile/lang/ir"
	"github.com/stretchr/testify/require"
)

func TestRecognizeCombinesLogicalAndIfElse(t *testing.T) {
	// A JUMP_IF_FALSE guarding a single PUSH_INT is simultaneously a plain
	// if (no else) and, preceded by the STACK_PUSH_DUPLICATE/STACK_POP
	// bracket, a short-circuit && -- both recognizers should fire.
	insns := []ir.Instruction{
		insn(0, ir.OpStackDuplicate),
		insn(1, ir.OpJumpIfFalse, 4),
		insn(2, ir.OpStackPop),
		insn(3, ir.OpPushInt),
		insn(4, ir.OpReturn),
	}
	c := cfg.Build(insns)
	diags := &ir.DiagnosticSink{}
	set := Recognize(c, diags)

	require.Empty(t, set.Loops)
	require.Len(t, set.IfElses, 1)
	require.Empty(t, set.Ternaries)
	require.Len(t, set.Logicals, 1)

	ifElse, ok := set.IfElseAt(0)
	require.True(t, ok)
	require.Equal(t, 1, ifElse.CondJumpIdx)

	logical, ok := set.LogicalAt(0)
	require.True(t, ok)
	require.Equal(t, "&&", logical.Operator)

	_, ok = set.TernaryAt(0)
	require.False(t, ok)
}

func TestRecognizeLoopLookups(t *testing.T) {
	insns := []ir.Instruction{
		insn(0, ir.OpJumpIfFalse, 4),
		insn(1, ir.OpPushInt),
		insn(2, ir.OpStoreVariable),
		insn(3, ir.OpJump, 0),
		insn(4, ir.OpReturn),
	}
	c := cfg.Build(insns)
	set := Recognize(c, &ir.DiagnosticSink{})

	require.Len(t, set.Loops, 1)
	require.Empty(t, set.IfElses, "the loop's own conditional must not double as an if-else")

	l, ok := set.LoopAt(0)
	require.True(t, ok)
	require.Equal(t, ir.LoopV2PreTest, l.Pattern)
}

func TestRecognizeV1LoopConditionSpan(t *testing.T) {
	// V1 post-test loops carry a multi-instruction condition span
	// ([CondStart,CondEnd)), unlike V2's single-instruction condition.
	insns := []ir.Instruction{
		insn(0, ir.OpJump, 3),
		insn(1, ir.OpPushInt),
		insn(2, ir.OpStoreVariable),
		insn(3, ir.OpPushBool),
		insn(4, ir.OpJumpIfTrue, 1),
		insn(5, ir.OpReturn),
	}
	c := cfg.Build(insns)
	set := Recognize(c, &ir.DiagnosticSink{})

	require.Len(t, set.Loops, 1)
	l, ok := set.LoopAt(0)
	require.True(t, ok)
	require.Equal(t, ir.LoopV1PostTest, l.Pattern)
	require.True(t, set.InLoopCondition(3))
}
