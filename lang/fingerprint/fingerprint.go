package fingerprint

import (
	"github.com/mna/vmdecompile/lang/ir"
	"github.com/mna/vmdecompile/lang/srcnode"
)

// Interpreter is the parsed representation of the interpreter handed to
// Fingerprint: a dispatch table mapping each payload's raw, shuffled opcode
// numbers to that opcode's handler body, plus the dispatcher's own main loop
// (used only for return-opcode detection). Handlers is keyed by the literal
// numeric key used in the dispatch table's object-literal entries -- the
// fingerprinter never invents opcode numbers of its own.
type Interpreter struct {
	Handlers   map[uint8]srcnode.Node
	Dispatcher srcnode.Node // the main dispatch loop body; may be nil
}

// Result is everything Fingerprint recovers from one Interpreter.
type Result struct {
	Opcodes  *ir.OpcodeMap
	Swapped  ir.SwappedOpcodes
	ReturnOp uint8
	HasReturnOp bool
}

// Fingerprint classifies every handler in interp.Handlers by structural
// inspection (original §4.1). Classification never executes a handler; it
// only walks its abstract shape via lang/srcnode. Handlers that match no
// cascade rule are simply absent from the resulting OpcodeMap -- original
// §4.1's failure semantics -- and a diagnostic is recorded for each, via
// diags, if diags is non-nil.
func Fingerprint(interp Interpreter, diags *ir.DiagnosticSink) Result {
	res := Result{
		Opcodes: ir.NewOpcodeMap(),
		Swapped: ir.NewSwappedOpcodes(),
	}

	for raw, body := range interp.Handlers {
		if body == nil {
			continue
		}

		if isBinary, swapped := detectSwapped(body); isBinary {
			f := extractFeature(body)
			op := classify(f)
			if op == ir.OpUnknown {
				// detectSwapped can recognize a binary shape that classify's
				// operator lookup doesn't name (e.g. an operator token our
				// table doesn't know); fall through to the generic path below
				// instead of dropping the handler.
			} else {
				res.Opcodes.Set(raw, op)
				if swapped {
					res.Swapped.Add(raw)
				}
				continue
			}
		}

		f := extractFeature(body)
		op := classify(f)
		if op == ir.OpUnknown {
			diags.AddAt("fingerprint", uint32(raw), "handler did not match any classification rule")
			continue
		}
		res.Opcodes.Set(raw, op)
	}

	if interp.Dispatcher != nil {
		if ret, ok := detectReturnOpcode(interp.Dispatcher); ok {
			res.ReturnOp = ret
			res.HasReturnOp = true
			res.Opcodes.Set(ret, ir.OpReturn)
		}
	}

	return res
}

// detectReturnOpcode scans the dispatcher's main loop for a top-level
// equality between the dispatched opcode value and a numeric literal, per
// original §4.1: "that literal is the RETURN opcode in this payload." It
// looks for a BinaryExpression with operator "===" or "==" whose operands
// are an Identifier and a Literal, anywhere in the dispatcher body, and
// takes the first match (dispatchers compare the opcode against RETURN
// before the generic jump table, matching how returns short-circuit the
// interpreter's main loop).
func detectReturnOpcode(dispatcher srcnode.Node) (uint8, bool) {
	var found uint8
	var ok bool
	srcnode.Walk(dispatcher, func(n srcnode.Node) bool {
		if ok {
			return false
		}
		if n.Kind() != srcnode.KindBinaryExpression {
			return true
		}
		if n.Operator() != "===" && n.Operator() != "==" {
			return true
		}
		kids := n.Children()
		if len(kids) != 2 {
			return true
		}
		var lit srcnode.Node
		var other srcnode.Node
		if kids[0].Kind() == srcnode.KindLiteral {
			lit, other = kids[0], kids[1]
		} else if kids[1].Kind() == srcnode.KindLiteral {
			lit, other = kids[1], kids[0]
		} else {
			return true
		}
		if other.Kind() != srcnode.KindIdentifier {
			return true
		}
		fv, isNum := lit.Literal().(float64)
		if !isNum || fv < 0 || fv > 255 {
			return true
		}
		found = uint8(fv)
		ok = true
		return false
	})
	return found, ok
}
