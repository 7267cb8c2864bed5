// Package lift implements the Symbolic Stack Lifter and Statement Emitter
// (original §4.7): a single forward pass over one function body's linear
// instruction stream, driven by the region maps lang/region computes,
// reconstructing expressions, statements, and nested function bodies as
// source text.
package lift

import (
	"github.com/mna/vmdecompile/lang/cfg"
	"github.com/mna/vmdecompile/lang/disasm"
	"github.com/mna/vmdecompile/lang/ir"
	"github.com/mna/vmdecompile/lang/region"
)

// ctx holds everything shared, read-only, across one payload's lift,
// including every nested BUILD_FUNCTION recursion (original §5's
// shared-resource policy: OpcodeMap, StringTable and Version are built once
// per payload and freely aliased across nested recursions; the Namer is a
// lifter-owned resource extended the same way so variable numbering stays
// monotonic across function bodies).
type ctx struct {
	opcodes   *ir.OpcodeMap
	strings   *ir.StringTable
	version   ir.Version
	returnOp  uint8
	hasReturn bool
	swapped   ir.SwappedOpcodes
	diags     *ir.DiagnosticSink
	names     *Namer
}

// Lift decompiles one top-level function body's already-disassembled
// instruction stream into reconstructed source text.
func Lift(insns []ir.Instruction, opcodes *ir.OpcodeMap, strings *ir.StringTable, version ir.Version, returnOp uint8, hasReturn bool, swapped ir.SwappedOpcodes, diags *ir.DiagnosticSink) string {
	c := &ctx{
		opcodes: opcodes, strings: strings, version: version,
		returnOp: returnOp, hasReturn: hasReturn, swapped: swapped,
		diags: diags, names: NewNamer(),
	}
	return c.liftBody(insns, 0)
}

// liftBody builds the CFG and region set for insns and runs the forward
// pass at the given indent level, returning the reconstructed body text.
func (c *ctx) liftBody(insns []ir.Instruction, indent int) string {
	g := cfg.Build(insns)
	regions := region.Recognize(g, c.diags)
	b := &bodyLifter{ctx: c, insns: insns, cfg: g, regions: regions, out: newEmitter(indent)}
	b.run(0, len(insns), nil)
	return b.out.String()
}

// liftNestedFunction re-disassembles a BUILD_FUNCTION's raw body bytes
// (propagating the opcode map, string table and version, without
// re-sensing the version, per original §4.3) and lifts it one indent level
// deeper, returning a function expression's source text.
func (c *ctx) liftNestedFunction(body []byte, indent int) string {
	insns := disasm.Disassemble(body, c.opcodes, c.strings, c.version, c.returnOp, c.hasReturn, c.swapped, c.diags)
	inner := c.liftBody(insns, indent+1)
	pad := ""
	for i := 0; i < indent; i++ {
		pad += "  "
	}
	if inner == "" {
		return "function() {\n" + pad + "}"
	}
	return "function() {\n" + inner + "\n" + pad + "}"
}
