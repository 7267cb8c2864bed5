package ir

// Builder assembles a synthetic instruction stream from canonical-name
// instructions, the shape original §8's test scenarios are expressed in
// ("input as canonical-name instruction streams to isolate the disassembler/
// lifter from the transport encoding"). It exists so lang/region and
// lang/lift tests never need a real obfuscated payload: they build the
// stream they want directly, the same way the teacher's
// lang/compiler/asm.go builds a Program from a textual assembly form for its
// own tests.
type Builder struct {
	insns []Instruction
	addr  uint32
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Emit appends one instruction with the given Op and args, auto-assigning
// the next address, and returns its index in the stream (useful for
// back-patching jump targets once later labels are known).
func (b *Builder) Emit(op Op, args ...Arg) int {
	idx := len(b.insns)
	b.insns = append(b.insns, Instruction{
		Addr:   b.addr,
		OpName: op.String(),
		Op:     op,
		Args:   args,
	})
	b.addr++
	return idx
}

// EmitString is a convenience for PUSH_STRING-shaped instructions: it
// records both the string_index arg and the resolved StringValue, as the
// real disassembler does.
func (b *Builder) EmitString(op Op, idx uint32, value string) int {
	i := b.Emit(op, Arg{Kind: KindStringIndex, Value: idx})
	b.insns[i].StringValue = &value
	return i
}

// Addr returns the address that was (or will be) assigned to the
// instruction at index idx in the eventual stream. Since addresses here are
// simply 0,1,2,... (one unit per instruction, as is natural for a synthetic
// stream with no variable-width operands to account for), this is just idx.
func (b *Builder) Addr(idx int) uint32 {
	return uint32(idx)
}

// Patch rewrites the first KindAddress arg of the instruction at idx to
// target. Used to back-patch forward jumps once the target's address is
// known.
func (b *Builder) Patch(idx int, target uint32) {
	for i := range b.insns[idx].Args {
		if b.insns[idx].Args[i].Kind == KindAddress {
			b.insns[idx].Args[i].Value = target
			return
		}
	}
}

// Done returns the assembled instruction stream.
func (b *Builder) Done() []Instruction {
	return b.insns
}

// Addrs is a convenience constructor for a KindAddress Arg.
func Addrs(target uint32) Arg { return Arg{Kind: KindAddress, Value: target} }

// Dword is a convenience constructor for a KindDword Arg.
func Dword(v uint32) Arg { return Arg{Kind: KindDword, Value: v} }

// SignedDword is a convenience constructor for a KindSignedDword Arg.
func SignedDword(v int32) Arg { return Arg{Kind: KindSignedDword, Value: v} }

// Double is a convenience constructor for a KindDouble Arg.
func Double(v float64) Arg { return Arg{Kind: KindDouble, Value: v} }

// Boolean is a convenience constructor for a KindBoolean Arg.
func Boolean(v bool) Arg { return Arg{Kind: KindBoolean, Value: v} }

// Scope is a convenience constructor for a KindScope Arg.
func Scope(v uint32) Arg { return Arg{Kind: KindScope, Value: v} }

// Dest is a convenience constructor for a KindDest Arg.
func Dest(v uint32) Arg { return Arg{Kind: KindDest, Value: v} }

// Argc is a convenience constructor for a KindArgc Arg.
func Argc(v uint32) Arg { return Arg{Kind: KindArgc, Value: v} }
