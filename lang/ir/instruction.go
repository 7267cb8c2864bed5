package ir

import "fmt"

// ArgKind discriminates the typed operand entries carried by an
// Instruction's Args, per original spec §3.
type ArgKind int

const (
	KindStringIndex ArgKind = iota
	KindDword
	KindSignedDword
	KindDouble
	KindBoolean
	KindAddress
	KindArgc
	KindLength
	KindHasValue
	KindHasFlags
	KindScope
	KindDest
	KindPrefix
	KindIsOp
	KindAssignOp
	KindCatchAddr
	KindFinallyAddr
	KindVarSlot
)

var argKindNames = [...]string{
	KindStringIndex: "string_index",
	KindDword:       "dword",
	KindSignedDword: "signed_dword",
	KindDouble:      "double",
	KindBoolean:     "boolean",
	KindAddress:     "address",
	KindArgc:        "argc",
	KindLength:      "length",
	KindHasValue:    "has_value",
	KindHasFlags:    "has_flags",
	KindScope:       "scope",
	KindDest:        "dest",
	KindPrefix:      "prefix",
	KindIsOp:        "is_op",
	KindAssignOp:    "assign_op",
	KindCatchAddr:   "catch_addr",
	KindFinallyAddr: "finally_addr",
	KindVarSlot:     "var_slot",
}

func (k ArgKind) String() string {
	if int(k) < 0 || int(k) >= len(argKindNames) {
		return "illegal ArgKind"
	}
	return argKindNames[k]
}

// Arg is a single typed operand entry. Value holds a concrete Go type
// appropriate to Kind: uint32 for dword/address/argc/length/scope/dest/
// catch_addr/finally_addr/var_slot/string_index, int32 for signed_dword,
// float64 for double, bool for boolean/has_value/has_flags/is_op, uint8 for
// prefix/assign_op.
type Arg struct {
	Kind  ArgKind
	Value any
}

// Uint32 returns Value as a uint32, or 0 if it is not one. Used for every
// dword-shaped arg kind.
func (a Arg) Uint32() uint32 {
	v, _ := a.Value.(uint32)
	return v
}

// Int32 returns Value as an int32, or 0 if it is not one.
func (a Arg) Int32() int32 {
	v, _ := a.Value.(int32)
	return v
}

// Float64 returns Value as a float64, or 0 if it is not one.
func (a Arg) Float64() float64 {
	v, _ := a.Value.(float64)
	return v
}

// Bool returns Value as a bool, or false if it is not one.
func (a Arg) Bool() bool {
	v, _ := a.Value.(bool)
	return v
}

// Byte returns Value as a uint8, or 0 if it is not one.
func (a Arg) Byte() uint8 {
	v, _ := a.Value.(uint8)
	return v
}

func (a Arg) String() string {
	return fmt.Sprintf("%s=%v", a.Kind, a.Value)
}

// Instruction is an immutable record describing one decoded opcode at a
// given address. Addr is an offset into the decoded byte stream of the
// function body being disassembled, and doubles as the jump-target
// identifier used throughout CFG construction (original §3).
type Instruction struct {
	Addr   uint32
	Opcode uint8  // raw, shuffled opcode number as it appears in the payload
	OpName string // canonical name, or "UNKNOWN_<n>"
	Op     Op     // OpUnknown if OpName is a placeholder
	Args   []Arg

	// StringValue is set for instructions whose sole meaningful operand is a
	// string-table entry already resolved to its string (PUSH_STRING and
	// similar), to save lifters a string-table lookup.
	StringValue *string

	// FnBody is the raw, still-encoded byte vector of a nested function, set
	// only on BUILD_FUNCTION instructions.
	FnBody []byte

	// Error records a disassembly failure attached to this instruction
	// (operand read past end of stream). Disassembly of the containing body
	// halts after the instruction carrying a non-nil Error; instructions
	// decoded before it remain valid (original §4.3, §7.4).
	Error error
}

// IsJump reports whether the instruction transfers control (unconditionally
// or conditionally) to another address in the same body.
func (i Instruction) IsJump() bool {
	switch i.Op {
	case OpJump, OpJumpIfTrue, OpJumpIfFalse:
		return true
	default:
		return false
	}
}

// IsConditionalJump reports whether the instruction has two successors.
func (i Instruction) IsConditionalJump() bool {
	return i.Op == OpJumpIfTrue || i.Op == OpJumpIfFalse
}

// JumpTarget returns the address argument of a jump instruction (the first
// KindAddress arg) and whether one was found.
func (i Instruction) JumpTarget() (uint32, bool) {
	for _, a := range i.Args {
		if a.Kind == KindAddress {
			return a.Uint32(), true
		}
	}
	return 0, false
}

// IsTerminator reports whether the instruction ends a basic block: every
// jump, and RETURN.
func (i Instruction) IsTerminator() bool {
	return i.IsJump() || i.Op == OpReturn
}
