// Package extract implements the Payload Extractor boundary (original §2a):
// from a parsed representation of the obfuscated wrapper script, recover the
// three pieces the core pipeline needs -- the still-transport-encoded
// bytecode string, the still-masked string-table byte vector, and the
// interpreter's handler dispatch table -- without ever running the script
// or depending on a real JavaScript parser (original §1 places "the
// source-language parser used solely to locate the interpreter" outside the
// core; lang/srcnode is that parser-agnostic boundary, per its own doc
// comment).
//
// Extract finds these by the same kind of structural inspection the
// fingerprinter itself uses on handler bodies: it walks the parsed tree
// looking for the handful of recognizable shapes an obfuscator's wrapper
// reliably contains, never by trusting identifier names the obfuscator is
// free to mangle.
package extract

import (
	"github.com/mna/vmdecompile/lang/fingerprint"
	"github.com/mna/vmdecompile/lang/ir"
	"github.com/mna/vmdecompile/lang/srcnode"
)

// minBytecodeLiteralLen is the shortest string literal Extract will
// consider a candidate for the base64 bytecode blob, to avoid mistaking a
// short helper-name or property-key string for the payload.
const minBytecodeLiteralLen = 64

// Payload is everything recovered from one wrapper script, ready to hand to
// lang/decode and lang/fingerprint.
type Payload struct {
	// Bytecode is the base64-encoded, still byte-XOR-and-possibly-compressed
	// instruction stream (original §2b's input).
	Bytecode string

	// StringTable is the raw, still XOR(0x80)-masked string-table bytes
	// (original §2c's input).
	StringTable []byte

	// Interp is the fingerprinter's input: the handler dispatch table keyed
	// by raw shuffled opcode number, plus the dispatcher loop body.
	Interp fingerprint.Interpreter
}

// Extract walks root (the parsed wrapper script) once and returns the
// recovered Payload. Pieces that cannot be located are left at their zero
// value and reported on diags rather than failing the whole extraction --
// original §7's "best effort, never all-or-nothing" policy applies here
// too, since a partially-obfuscated or hand-edited wrapper can still carry
// a usable bytecode blob even if, say, its dispatcher can't be found.
func Extract(root srcnode.Node, diags *ir.DiagnosticSink) Payload {
	var p Payload
	handlers := map[uint8]srcnode.Node{}

	srcnode.Walk(root, func(n srcnode.Node) bool {
		switch n.Kind() {
		case srcnode.KindLiteral:
			if p.Bytecode == "" {
				if s, ok := n.Literal().(string); ok && len(s) >= minBytecodeLiteralLen {
					p.Bytecode = s
				}
			}

		case srcnode.KindArrayLiteral:
			if p.StringTable == nil {
				if bs, ok := byteArrayLiteral(n); ok {
					p.StringTable = bs
				}
			}

		case srcnode.KindObjectLiteral:
			for raw, body := range dispatchTable(n) {
				handlers[raw] = body
			}

		case srcnode.KindForStatement, srcnode.KindWhileStatement:
			// handlers themselves can also contain loops (e.g. a FOR-range
			// opcode's own handler), so the dispatcher is taken to be the first
			// for/while loop seen in the pre-order walk before any handler
			// table is recorded; its body is not otherwise inspected.
			if p.Interp.Dispatcher == nil && len(handlers) == 0 {
				p.Interp.Dispatcher = n
			}
		}
		return true
	})

	if p.Bytecode == "" {
		diags.Add("extract", "no bytecode string literal found")
	}
	if p.StringTable == nil {
		diags.Add("extract", "no string-table array literal found")
	}
	if len(handlers) == 0 {
		diags.Add("extract", "no handler dispatch table found")
	}

	p.Interp.Handlers = handlers
	return p
}

// byteArrayLiteral reports whether n is an array of small integer literals
// (every element a KindLiteral float64 in [0,255]) and, if so, returns it
// packed as bytes. This is the shape a bundler emits for a `new
// Uint8Array([...])`-style embedded byte table; anything else (e.g. an
// array of strings or sub-expressions) is not a candidate.
func byteArrayLiteral(n srcnode.Node) ([]byte, bool) {
	kids := n.Children()
	if len(kids) == 0 {
		return nil, false
	}
	out := make([]byte, 0, len(kids))
	for _, k := range kids {
		if k.Kind() != srcnode.KindLiteral {
			return nil, false
		}
		f, ok := k.Literal().(float64)
		if !ok || f < 0 || f > 255 {
			return nil, false
		}
		out = append(out, byte(f))
	}
	return out, true
}

// dispatchTable reports the raw-opcode-to-handler-body pairs encoded by an
// object literal, if n looks like one: Builder.Object (and, by convention,
// any adapter over a real parser's object-expression node) lists property
// values only, so the handler table is encoded as alternating {numeric key
// literal, function literal} pairs -- an odd count, or a key that isn't a
// small-integer literal, means n isn't a dispatch table and is skipped.
func dispatchTable(n srcnode.Node) map[uint8]srcnode.Node {
	kids := n.Children()
	if len(kids) == 0 || len(kids)%2 != 0 {
		return nil
	}

	out := make(map[uint8]srcnode.Node, len(kids)/2)
	for i := 0; i+1 < len(kids); i += 2 {
		key, val := kids[i], kids[i+1]
		if key.Kind() != srcnode.KindLiteral {
			return nil
		}
		f, ok := key.Literal().(float64)
		if !ok || f < 0 || f > 255 {
			return nil
		}
		if val.Kind() != srcnode.KindFunctionLiteral {
			return nil
		}
		body := val
		if fnKids := val.Children(); len(fnKids) == 1 {
			body = fnKids[0]
		}
		out[uint8(f)] = body
	}
	return out
}
