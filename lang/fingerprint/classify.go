package fingerprint

import (
	"github.com/mna/vmdecompile/lang/ir"
	"github.com/mna/vmdecompile/lang/srcnode"
)

// binaryOpTable maps the token spelling of a BinaryExpression to its
// canonical opcode. &&/|| are intentionally absent: the obfuscator never
// compiles them to a single opcode, only to the short-circuit region shape
// lang/region recognizes structurally (original §4.6).
var binaryOpTable = map[string]ir.Op{
	"+":          ir.OpAdd,
	"-":          ir.OpSub,
	"*":          ir.OpMul,
	"/":          ir.OpDiv,
	"%":          ir.OpMod,
	"<":          ir.OpLess,
	"<=":         ir.OpLessEqual,
	">":          ir.OpGreater,
	">=":         ir.OpGreaterEqual,
	"==":         ir.OpEqual,
	"===":        ir.OpStrictEqual,
	"!=":         ir.OpNotEqual,
	"!==":        ir.OpStrictNotEqual,
	"<<":         ir.OpShl,
	">>":         ir.OpShr,
	">>>":        ir.OpUShr,
	"^":          ir.OpBitXor,
	"&":          ir.OpBitAnd,
	"|":          ir.OpBitOr,
	"in":         ir.OpIn,
	"instanceof": ir.OpInstanceof,
}

var unaryOpTable = map[string]ir.Op{
	"+":      ir.OpUnaryPlus,
	"-":      ir.OpUnaryMinus,
	"!":      ir.OpUnaryNot,
	"~":      ir.OpUnaryBitNot,
	"typeof": ir.OpTypeof,
	"void":   ir.OpVoid,
}

// classify runs the ordered decision cascade described in original §4.1:
// lexical-specificity first (debugger, string push, boolean push, int push,
// double push, ...) before falling back to generic arithmetic/comparison/
// bitwise disambiguation by operator presence. It returns ir.OpUnknown if no
// rule matches, per original §4.1's failure semantics.
func classify(f feature) ir.Op {
	switch {
	case f.hasDebugger:
		return ir.OpDebugger

	// --- pushes, most specific shape first ---
	case f.stmtCount <= 2 && f.pushCount == 1 && f.popCount == 0 && f.readsStringTable:
		return ir.OpPushString
	case f.stmtCount <= 2 && f.pushCount == 1 && f.popCount == 0 && f.pushLiteralOK:
		if f.pushLiteral == nil {
			return ir.OpPushNull
		}
		if _, ok := f.pushLiteral.(bool); ok {
			return ir.OpPushBool
		}
		return ir.OpPushInt // numeric/string literal pushed directly (rare; treated as an int-ish constant)
	case f.stmtCount <= 2 && f.pushCount == 1 && f.popCount == 0 && f.pushIdentName == "undefined":
		return ir.OpPushUndefined
	case f.stmtCount <= 2 && f.pushCount == 1 && f.popCount == 0 && f.readsByte && !f.readsDouble:
		return ir.OpPushBool
	case f.stmtCount <= 2 && f.pushCount == 1 && f.popCount == 0 && f.readsDouble:
		return ir.OpPushDouble
	case f.stmtCount <= 2 && f.pushCount == 1 && f.popCount == 0 && f.readsIndex && !f.readsDouble:
		return ir.OpPushInt
	case f.stmtCount <= 1 && f.pushCount == 1 && f.popCount == 0 && !f.readsIndex && !f.readsByte && !f.readsDouble && !f.readsStringTable && !f.pushLiteralOK && f.pushIdentName == "":
		return ir.OpStackDuplicate
	case f.stmtCount <= 1 && f.pushCount == 0 && f.popCount == 1 && !f.primarySet:
		return ir.OpStackPop
	case f.stmtCount <= 1 && f.pushCount == 0 && f.popCount >= 1 && f.primarySet:
		return ir.OpSequencePop

	case f.hasTryFinally:
		return ir.OpTryFinally
	case f.accessesThis && f.readsByte && f.stmtCount <= 2 && !f.primarySet && !f.hasAssignment:
		return ir.OpLoadThis

	// --- unary, update, binary: disambiguated by the primary expression
	// kind recorded during feature extraction plus its operator token ---
	case f.primarySet && f.primary == srcnode.KindUpdateExpression:
		return classifyUpdate(f)
	case f.primarySet && f.primary == srcnode.KindUnaryExpression:
		if op, ok := unaryOpTable[f.primaryOp]; ok {
			return op
		}
	case f.primarySet && f.primary == srcnode.KindBinaryExpression:
		if op, ok := binaryOpTable[f.primaryOp]; ok {
			return op
		}

	// --- structural shapes with no single distinguishing operator ---
	case f.hasArrayLiteral && f.stmtCount <= 2:
		return ir.OpBuildArray
	case f.hasObjectLiteral && f.stmtCount <= 2:
		return ir.OpBuildObject
	case f.hasArrayFromIdiom || f.hasNestedFunctionLiteral:
		return ir.OpBuildFunction
	case f.usesNew:
		return ir.OpConstruct
	case f.usesApply:
		return ir.OpCallMethod
	case f.accessesArguments && f.readsIndex:
		return ir.OpLoadArgument
	case f.accessesArguments:
		return ir.OpLoadArguments
	case f.accessesGlobal && f.readsStringTable:
		return ir.OpLoadGlobalProperty
	case f.accessesGlobal:
		return ir.OpLoadGlobal
	case f.doubleBracketScopeAccess && f.hasAssignment:
		return ir.OpStoreVariable
	case f.doubleBracketScopeAccess:
		return ir.OpLoadVariable
	case f.hasThrow:
		return ir.OpThrow
	}

	return ir.OpUnknown
}

func classifyUpdate(f feature) ir.Op {
	pre := f.updatePrefix
	inc := f.primaryOp == "++"
	switch f.updateTarget {
	case "property":
		switch {
		case inc && pre:
			return ir.OpIncPropertyPre
		case inc && !pre:
			return ir.OpIncPropertyPost
		case !inc && pre:
			return ir.OpDecPropertyPre
		default:
			return ir.OpDecPropertyPost
		}
	case "element":
		switch {
		case inc && pre:
			return ir.OpIncElementPre
		case inc && !pre:
			return ir.OpIncElementPost
		case !inc && pre:
			return ir.OpDecElementPre
		default:
			return ir.OpDecElementPost
		}
	default: // variable
		switch {
		case inc && pre:
			return ir.OpIncVarPre
		case inc && !pre:
			return ir.OpIncVarPost
		case !inc && pre:
			return ir.OpDecVarPre
		default:
			return ir.OpDecVarPost
		}
	}
}
