package lift

import "github.com/mna/vmdecompile/lang/ir"

// consumesPrecedingValue is original §4.7's "consume ops" table: opcodes
// whose own processing pops the immediately preceding instruction's pushed
// value as one of their own operands. A CALL_*/CONSTRUCT followed by one of
// these stays an expression on the symbolic stack; otherwise it flushes as
// a standalone statement.
var consumesPrecedingValue = map[ir.Op]bool{
	ir.OpAdd: true, ir.OpSub: true, ir.OpMul: true, ir.OpDiv: true, ir.OpMod: true,
	ir.OpLess: true, ir.OpLessEqual: true, ir.OpGreater: true, ir.OpGreaterEqual: true,
	ir.OpEqual: true, ir.OpNotEqual: true, ir.OpStrictEqual: true, ir.OpStrictNotEqual: true,
	ir.OpShl: true, ir.OpShr: true, ir.OpUShr: true,
	ir.OpBitXor: true, ir.OpBitAnd: true, ir.OpBitOr: true,
	ir.OpGetProperty: true, ir.OpSetProperty: true, ir.OpGetElement: true, ir.OpSetElement: true,
	ir.OpCallMethod:     true,
	ir.OpStoreVariable:  true,
	ir.OpAssignVariable: true,
}

// pureProducerOps are opcodes that push without popping anything: scanning
// past them when looking for a call's consumer lets "f(1) + 1" (an
// intervening PUSH_INT before the ADD that actually consumes the call's
// result) resolve correctly, rather than only ever checking idx+1.
var pureProducerOps = map[ir.Op]bool{
	ir.OpPushString: true, ir.OpPushInt: true, ir.OpPushDouble: true,
	ir.OpPushBool: true, ir.OpPushNull: true, ir.OpPushUndefined: true,
	ir.OpLoadVariable: true, ir.OpLoadGlobal: true, ir.OpLoadGlobalProperty: true,
	ir.OpLoadThis: true, ir.OpLoadArgument: true, ir.OpLoadArguments: true,
	ir.OpStackDuplicate: true,
}

// resultIsConsumed reports whether some later instruction will pop the
// result a CALL_*/CONSTRUCT at idx just pushed, scanning past any
// intervening pure-producer pushes to find the first instruction that
// actually consumes a stack value.
func resultIsConsumed(insns []ir.Instruction, idx int) bool {
	for j := idx + 1; j < len(insns); j++ {
		op := insns[j].Op
		if consumesPrecedingValue[op] {
			return true
		}
		if pureProducerOps[op] {
			continue
		}
		return false
	}
	return false
}
