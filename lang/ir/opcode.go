// Package ir defines the data model shared by every stage of the decompiler
// pipeline: the canonical opcode set, instructions, the string table, basic
// blocks, the control-flow graph and its structured regions. Values in this
// package are constructed once per payload (or once per function body, for
// basic blocks and the CFG) and are read-only from that point on; nothing in
// this package mutates shared state across goroutines because nothing in the
// pipeline runs on more than one goroutine at a time.
package ir

import (
	"fmt"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Op is a canonical, version-independent operation recovered by the
// fingerprinter. The raw, shuffled opcode number used by a given obfuscated
// payload is never meaningful on its own; it only means something once
// translated to an Op via an OpcodeMap.
type Op int

// The canonical opcode set. Order here has no bearing on the raw, shuffled
// numbering of any given payload; it only groups related operations for
// readability.
const (
	OpUnknown Op = iota

	// stack pushes
	OpPushString
	OpPushInt
	OpPushDouble
	OpPushBool
	OpPushNull
	OpPushUndefined
	OpStackDuplicate
	OpStackPop

	// binary arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	// comparisons
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpEqual
	OpNotEqual
	OpStrictEqual
	OpStrictNotEqual

	// bitwise
	OpShl
	OpShr
	OpUShr
	OpBitXor
	OpBitAnd
	OpBitOr

	OpIn
	OpInstanceof

	// unary
	OpUnaryPlus
	OpUnaryMinus
	OpUnaryNot
	OpUnaryBitNot
	OpTypeof
	OpVoid
	OpThrow

	// increment/decrement on a variable
	OpIncVarPre
	OpIncVarPost
	OpDecVarPre
	OpDecVarPost

	// increment/decrement on a named property target (obj.prop)
	OpIncPropertyPre
	OpIncPropertyPost
	OpDecPropertyPre
	OpDecPropertyPost

	// increment/decrement on a computed property target (obj[expr])
	OpIncElementPre
	OpIncElementPost
	OpDecElementPre
	OpDecElementPost

	// variable access
	OpLoadVariable
	OpStoreVariable
	OpAssignVariable // compound form carries is_op/assign_op args, see Instruction

	// context loads
	OpLoadGlobal
	OpLoadGlobalProperty
	OpLoadThis
	OpLoadArgument
	OpLoadArguments

	// calls
	OpCallFunction
	OpCallMethod
	OpConstruct

	// property / element access
	OpGetProperty
	OpSetProperty
	OpGetElement
	OpSetElement

	// builders
	OpBuildArray
	OpBuildObject
	OpBuildFunction
	OpBuildRegexp

	// control transfer
	OpJump
	OpJumpIfTrue
	OpJumpIfFalse

	OpReturn
	OpDebugger

	// structured exception handling
	OpTryPush
	OpTryPop
	OpTryCatch
	OpTryFinally

	OpSequencePop

	opMax
)

var opNames = [...]string{
	OpUnknown:            "UNKNOWN",
	OpPushString:         "PUSH_STRING",
	OpPushInt:            "PUSH_INT",
	OpPushDouble:         "PUSH_DOUBLE",
	OpPushBool:           "PUSH_BOOL",
	OpPushNull:           "PUSH_NULL",
	OpPushUndefined:      "PUSH_UNDEFINED",
	OpStackDuplicate:     "STACK_PUSH_DUPLICATE",
	OpStackPop:           "STACK_POP",
	OpAdd:                "ADD",
	OpSub:                "SUB",
	OpMul:                "MUL",
	OpDiv:                "DIV",
	OpMod:                "MOD",
	OpLess:               "LESS",
	OpLessEqual:          "LESS_EQUAL",
	OpGreater:            "GREATER",
	OpGreaterEqual:       "GREATER_EQUAL",
	OpEqual:              "EQUAL",
	OpNotEqual:           "NOT_EQUAL",
	OpStrictEqual:        "STRICT_EQUAL",
	OpStrictNotEqual:     "STRICT_NOT_EQUAL",
	OpShl:                "SHL",
	OpShr:                "SHR",
	OpUShr:               "USHR",
	OpBitXor:             "BIT_XOR",
	OpBitAnd:             "BIT_AND",
	OpBitOr:              "BIT_OR",
	OpIn:                 "IN",
	OpInstanceof:         "INSTANCEOF",
	OpUnaryPlus:          "UNARY_PLUS",
	OpUnaryMinus:         "UNARY_MINUS",
	OpUnaryNot:           "UNARY_NOT",
	OpUnaryBitNot:        "UNARY_BITNOT",
	OpTypeof:             "TYPEOF",
	OpVoid:               "VOID",
	OpThrow:              "UNARY_THROW",
	OpIncVarPre:          "INC_VAR_PRE",
	OpIncVarPost:         "INC_VAR_POST",
	OpDecVarPre:          "DEC_VAR_PRE",
	OpDecVarPost:         "DEC_VAR_POST",
	OpIncPropertyPre:     "INC_PROPERTY_PRE",
	OpIncPropertyPost:    "INC_PROPERTY_POST",
	OpDecPropertyPre:     "DEC_PROPERTY_PRE",
	OpDecPropertyPost:    "DEC_PROPERTY_POST",
	OpIncElementPre:      "INC_ELEMENT_PRE",
	OpIncElementPost:     "INC_ELEMENT_POST",
	OpDecElementPre:      "DEC_ELEMENT_PRE",
	OpDecElementPost:     "DEC_ELEMENT_POST",
	OpLoadVariable:       "LOAD_VARIABLE",
	OpStoreVariable:      "STORE_VARIABLE",
	OpAssignVariable:     "ASSIGN_VARIABLE",
	OpLoadGlobal:         "LOAD_GLOBAL",
	OpLoadGlobalProperty: "LOAD_GLOBAL_PROPERTY",
	OpLoadThis:           "LOAD_THIS",
	OpLoadArgument:       "LOAD_ARGUMENT",
	OpLoadArguments:      "LOAD_ARGUMENTS",
	OpCallFunction:       "CALL_FUNCTION",
	OpCallMethod:         "CALL_METHOD",
	OpConstruct:          "CONSTRUCT",
	OpGetProperty:        "GET_PROPERTY",
	OpSetProperty:        "SET_PROPERTY",
	OpGetElement:         "GET_ELEMENT",
	OpSetElement:         "SET_ELEMENT",
	OpBuildArray:         "BUILD_ARRAY",
	OpBuildObject:        "BUILD_OBJECT",
	OpBuildFunction:      "BUILD_FUNCTION",
	OpBuildRegexp:        "BUILD_REGEXP",
	OpJump:               "JUMP",
	OpJumpIfTrue:         "JUMP_IF_TRUE",
	OpJumpIfFalse:        "JUMP_IF_FALSE",
	OpReturn:             "RETURN",
	OpDebugger:           "DEBUGGER",
	OpTryPush:            "TRY_PUSH",
	OpTryPop:             "TRY_POP",
	OpTryCatch:           "TRY_CATCH",
	OpTryFinally:         "TRY_FINALLY",
	OpSequencePop:        "SEQUENCE_POP",
}

// String returns the canonical textual name of op, or "illegal Op" if op is
// out of range.
func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) || opNames[op] == "" {
		return fmt.Sprintf("illegal Op(%d)", int(op))
	}
	return opNames[op]
}

// nameToOp is the inverse of opNames, built once at init time and used by
// fingerprint classification rules and tests that refer to opcodes by name.
var nameToOp = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		if name != "" {
			m[name] = Op(op)
		}
	}
	return m
}()

// OpByName returns the Op matching name, and whether it was found.
func OpByName(name string) (Op, bool) {
	op, ok := nameToOp[name]
	return op, ok
}

// Version identifies which of the two obfuscator wire-format families
// produced a given payload. It is detected once at the outer disassembler
// and propagated unchanged into every nested function body.
type Version int

const (
	// VersionUnknown is the zero value; no payload should carry it past
	// version detection.
	VersionUnknown Version = iota
	// V1Legacy is the original format: compression flag as the first byte,
	// zlib compression, post-test loops, and a two-operand BUILD_REGEXP /
	// two-address TRY_PUSH layout.
	V1Legacy
	// V2Current is the current format: compression flag as the last byte,
	// custom LZ77 compression, pre-test loops, a flags-byte BUILD_REGEXP, and
	// a single-address TRY_PUSH.
	V2Current
)

func (v Version) String() string {
	switch v {
	case V1Legacy:
		return "v1"
	case V2Current:
		return "v2"
	default:
		return "unknown"
	}
}

// OpcodeMap is the bijection (possibly partial) between the raw, shuffled
// opcode numbers used by a given obfuscated payload and the canonical Op
// they were fingerprinted as. It is built once by lang/fingerprint and is
// read-only for the rest of the pipeline, including every nested function
// body disassembled from the same payload.
type OpcodeMap struct {
	byRaw *swiss.Map[uint8, Op]
}

// NewOpcodeMap returns an empty OpcodeMap ready for population.
func NewOpcodeMap() *OpcodeMap {
	return &OpcodeMap{byRaw: swiss.NewMap[uint8, Op](128)}
}

// Set records that raw maps to op. Fingerprinting never needs to remove an
// entry, only add or overwrite one (a later, more specific rule refining an
// earlier guess).
func (m *OpcodeMap) Set(raw uint8, op Op) {
	m.byRaw.Put(raw, op)
}

// Lookup returns the Op for raw and whether it was found.
func (m *OpcodeMap) Lookup(raw uint8) (Op, bool) {
	return m.byRaw.Get(raw)
}

// Name returns the canonical name of raw's Op, or "UNKNOWN_<raw>" if raw was
// never classified. This is the fallback mandated by original spec §4.1's
// failure semantics: an unclassified handler yields no OpcodeMap entry, and
// disassembly of that opcode must still produce a placeholder name rather
// than fail the whole payload.
func (m *OpcodeMap) Name(raw uint8) string {
	if op, ok := m.byRaw.Get(raw); ok {
		return op.String()
	}
	return fmt.Sprintf("UNKNOWN_%d", raw)
}

// Len returns the number of raw opcodes classified so far.
func (m *OpcodeMap) Len() int {
	return m.byRaw.Count()
}

// RawOpcodes returns every raw opcode number currently mapped, sorted
// ascending. Sorted order keeps fingerprinting and diagnostic output
// deterministic (original invariant I8) even though the backing map has no
// iteration order guarantee of its own.
func (m *OpcodeMap) RawOpcodes() []uint8 {
	raws := make([]uint8, 0, m.byRaw.Count())
	m.byRaw.Iter(func(raw uint8, _ Op) (stop bool) {
		raws = append(raws, raw)
		return false
	})
	slices.Sort(raws)
	return raws
}

// SwappedOpcodes is the set of raw opcode numbers whose handler implements a
// binary operator with the operand evaluation order reversed relative to the
// canonical "pop() OP pop()" order (i.e. it computes "n := pop(); pop() OP
// n"). Detected once during fingerprinting per original §4.1.
type SwappedOpcodes map[uint8]bool

// NewSwappedOpcodes returns an empty SwappedOpcodes set.
func NewSwappedOpcodes() SwappedOpcodes {
	return make(SwappedOpcodes)
}

// Contains reports whether raw was fingerprinted as a swapped handler.
func (s SwappedOpcodes) Contains(raw uint8) bool {
	return s[raw]
}

// Add records raw as swapped.
func (s SwappedOpcodes) Add(raw uint8) {
	s[raw] = true
}

// Raws returns every raw opcode number recorded as swapped, sorted
// ascending, for deterministic diagnostic and test output (original
// invariant I8) over a plain Go map's unordered iteration.
func (s SwappedOpcodes) Raws() []uint8 {
	raws := maps.Keys(s)
	slices.Sort(raws)
	return raws
}
