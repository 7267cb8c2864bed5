// Package disasm implements the Disassembler (original §4.3): it walks a
// decoded instruction stream one opcode at a time, translates each raw,
// shuffled opcode byte to its canonical name via the fingerprinted
// OpcodeMap, and decodes that opcode's operands per a fixed schema
// parameterized by the wire-format Version. It does not descend into
// BUILD_FUNCTION bodies: their raw bytes are kept in the instruction's
// FnBody, and lang/lift disassembles them when it lifts the nested function,
// reusing the payload's Version (never re-sensed), OpcodeMap and strings.
package disasm

import (
	"github.com/mna/vmdecompile/lang/ir"
)

// Disassemble decodes data (already transport-decoded: base64, XOR, and
// decompression all reversed) into a linear instruction stream. opcodes and
// strings are only read. BUILD_FUNCTION bodies are not disassembled here;
// their raw bytes are left in FnBody.
// returnOp is the opcode fingerprinted as RETURN (original §4.1); it takes
// priority over whatever classify() originally assigned that raw number,
// per original §4.3's "translate to canonical name (special-case RETURN)".
func Disassemble(data []byte, opcodes *ir.OpcodeMap, strings *ir.StringTable, version ir.Version, returnOp uint8, hasReturnOp bool, swapped ir.SwappedOpcodes, diags *ir.DiagnosticSink) []ir.Instruction {
	var insns []ir.Instruction
	r := newReader(data)

	for !r.done() {
		addr := r.addr()
		raw, err := r.readByte()
		if err != nil {
			// cannot even read the opcode byte: nothing more to attach the
			// error to, so there is nothing further to disassemble.
			break
		}

		op := ir.OpUnknown
		if hasReturnOp && raw == returnOp {
			op = ir.OpReturn
		} else if got, ok := opcodes.Lookup(raw); ok {
			op = got
		}

		insn := ir.Instruction{
			Addr:   addr,
			Opcode: raw,
			OpName: opcodes.Name(raw),
			Op:     op,
		}
		if op == ir.OpReturn {
			insn.OpName = ir.OpReturn.String()
		}

		if err := decodeOperands(&insn, r, op, version, opcodes, strings, swapped.Contains(raw), diags); err != nil {
			insn.Error = err
			insns = append(insns, insn)
			break
		}

		insns = append(insns, insn)
	}

	return insns
}

// isBinaryOperator reports whether op is one of the arithmetic, comparison,
// bitwise, in, or instanceof opcodes whose handler's SwappedOpcodes status
// is recorded as a diagnostic note rather than a decoded operand (original
// §4.3: "record their swapped flag via SwappedOpcodes lookup, not as an
// operand").
func isBinaryOperator(op ir.Op) bool {
	switch op {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
		ir.OpLess, ir.OpLessEqual, ir.OpGreater, ir.OpGreaterEqual,
		ir.OpEqual, ir.OpNotEqual, ir.OpStrictEqual, ir.OpStrictNotEqual,
		ir.OpShl, ir.OpShr, ir.OpUShr, ir.OpBitXor, ir.OpBitAnd, ir.OpBitOr,
		ir.OpIn, ir.OpInstanceof:
		return true
	default:
		return false
	}
}

func decodeOperands(insn *ir.Instruction, r *reader, op ir.Op, version ir.Version, opcodes *ir.OpcodeMap, strings *ir.StringTable, isSwapped bool, diags *ir.DiagnosticSink) error {
	switch {
	case isBinaryOperator(op):
		// no operand bytes; swapped-ness is carried only as a diagnostic
		// breadcrumb here, the lifter re-derives it from SwappedOpcodes itself.
		if isSwapped {
			diags.AddAt("disasm", insn.Addr, insn.OpName+" is a swapped-operand handler")
		}
		return nil
	}

	switch op {
	case ir.OpPushString:
		idx, err := r.readDword()
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindStringIndex, Value: idx})
		s := strings.AtOrPlaceholder(idx)
		insn.StringValue = &s

	case ir.OpPushInt:
		v, err := r.readSignedDword()
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindSignedDword, Value: v})

	case ir.OpPushDouble:
		v, err := r.readDouble()
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindDouble, Value: v})

	case ir.OpPushBool:
		b, err := r.readByte()
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindBoolean, Value: b != 0})

	case ir.OpPushNull, ir.OpPushUndefined, ir.OpStackDuplicate, ir.OpStackPop,
		ir.OpUnaryPlus, ir.OpUnaryMinus, ir.OpUnaryNot, ir.OpUnaryBitNot,
		ir.OpTypeof, ir.OpVoid, ir.OpThrow,
		ir.OpLoadGlobal, ir.OpLoadThis, ir.OpLoadArguments,
		ir.OpGetElement, ir.OpSetElement,
		ir.OpTryPop, ir.OpTryCatch, ir.OpTryFinally,
		ir.OpSequencePop, ir.OpDebugger,
		ir.OpIncElementPre, ir.OpIncElementPost, ir.OpDecElementPre, ir.OpDecElementPost:
		// no operands

	case ir.OpIncVarPre, ir.OpIncVarPost, ir.OpDecVarPre, ir.OpDecVarPost,
		ir.OpLoadVariable, ir.OpStoreVariable:
		scope, err := r.readDword()
		if err != nil {
			return err
		}
		dest, err := r.readDword()
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args,
			ir.Arg{Kind: ir.KindScope, Value: scope},
			ir.Arg{Kind: ir.KindDest, Value: dest})

	case ir.OpIncPropertyPre, ir.OpIncPropertyPost, ir.OpDecPropertyPre, ir.OpDecPropertyPost,
		ir.OpGetProperty, ir.OpSetProperty, ir.OpLoadGlobalProperty:
		idx, err := r.readDword()
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindStringIndex, Value: idx})
		s := strings.AtOrPlaceholder(idx)
		insn.StringValue = &s

	case ir.OpAssignVariable:
		isOp, err := r.readByte()
		if err != nil {
			return err
		}
		scope, err := r.readDword()
		if err != nil {
			return err
		}
		dest, err := r.readDword()
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args,
			ir.Arg{Kind: ir.KindIsOp, Value: isOp != 0},
			ir.Arg{Kind: ir.KindScope, Value: scope},
			ir.Arg{Kind: ir.KindDest, Value: dest})
		if isOp != 0 {
			assignOpRaw, err := r.readByte()
			if err != nil {
				return err
			}
			insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindAssignOp, Value: assignOpRaw})
		}

	case ir.OpLoadArgument:
		idx, err := r.readDword()
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindDword, Value: idx})

	case ir.OpCallFunction, ir.OpCallMethod, ir.OpConstruct, ir.OpBuildArray, ir.OpBuildObject:
		argc, err := r.readDword()
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindArgc, Value: argc})

	case ir.OpBuildFunction:
		length, err := r.readDword()
		if err != nil {
			return err
		}
		body, err := r.readBytes(int(length))
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindLength, Value: length})
		insn.FnBody = body

	case ir.OpBuildRegexp:
		if version == ir.V1Legacy {
			patternIdx, err := r.readDword()
			if err != nil {
				return err
			}
			flagsIdx, err := r.readDword()
			if err != nil {
				return err
			}
			insn.Args = append(insn.Args,
				ir.Arg{Kind: ir.KindStringIndex, Value: patternIdx},
				ir.Arg{Kind: ir.KindStringIndex, Value: flagsIdx})
		} else {
			hasFlags, err := r.readByte()
			if err != nil {
				return err
			}
			insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindHasFlags, Value: hasFlags != 0})
		}

	case ir.OpJump, ir.OpJumpIfTrue, ir.OpJumpIfFalse:
		target, err := r.readDword()
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindAddress, Value: target})

	case ir.OpReturn:
		hasValue, err := r.readByte()
		if err != nil {
			return err
		}
		insn.Args = append(insn.Args, ir.Arg{Kind: ir.KindHasValue, Value: hasValue != 0})

	case ir.OpTryPush:
		catchAddr, err := r.readDword()
		if err != nil {
			return err
		}
		args := []ir.Arg{{Kind: ir.KindCatchAddr, Value: catchAddr}}
		if version == ir.V1Legacy {
			finallyAddr, err := r.readDword()
			if err != nil {
				return err
			}
			args = append(args, ir.Arg{Kind: ir.KindFinallyAddr, Value: finallyAddr})
		}
		insn.Args = append(insn.Args, args...)

	default:
		// OpUnknown (or any future addition this schema hasn't caught up with
		// yet) carries no operands; original §4.1's failure semantics mean an
		// unrecognized opcode still disassembles, just without arguments, and
		// the lifter emits a placeholder comment for it.
	}

	return nil
}
