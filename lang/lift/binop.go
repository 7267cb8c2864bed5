package lift

import "github.com/mna/vmdecompile/lang/ir"

// binaryOperatorSymbols maps every binary-operator Op (original §4.3's
// isBinaryOperator set) to its rendered source operator.
var binaryOperatorSymbols = map[ir.Op]string{
	ir.OpAdd:            "+",
	ir.OpSub:            "-",
	ir.OpMul:            "*",
	ir.OpDiv:            "/",
	ir.OpMod:            "%",
	ir.OpLess:           "<",
	ir.OpLessEqual:      "<=",
	ir.OpGreater:        ">",
	ir.OpGreaterEqual:   ">=",
	ir.OpEqual:          "==",
	ir.OpNotEqual:       "!=",
	ir.OpStrictEqual:    "===",
	ir.OpStrictNotEqual: "!==",
	ir.OpShl:            "<<",
	ir.OpShr:            ">>",
	ir.OpUShr:           ">>>",
	ir.OpBitXor:         "^",
	ir.OpBitAnd:         "&",
	ir.OpBitOr:          "|",
	ir.OpIn:             "in",
	ir.OpInstanceof:     "instanceof",
}

// leftOperandDefault and rightOperandDefault supply the lifter-error
// fallback operands (original §4.7) when the symbolic stack underflows on a
// binary opcode: "0" for arithmetic/comparison/bitwise, "" / "{}" for in,
// "null" / "Object" for instanceof.
func leftOperandDefault(op ir.Op) string {
	switch op {
	case ir.OpIn:
		return `""`
	case ir.OpInstanceof:
		return "null"
	default:
		return "0"
	}
}

func rightOperandDefault(op ir.Op) string {
	switch op {
	case ir.OpIn:
		return "{}"
	case ir.OpInstanceof:
		return "Object"
	default:
		return "0"
	}
}
