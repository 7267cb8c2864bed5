// Package decode implements the Byte Decoder and String-Table Decoder
// (original §4.2): it reverses the transport encoding of a payload (base64,
// byte-XOR, optional compression), senses which wire-format version produced
// it, and decodes the auxiliary string table. It does not interpret
// individual instructions; that is lang/disasm's job.
package decode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/mna/vmdecompile/lang/ir"
)

const xorMask = 0x80

// ErrTransport wraps any base64, XOR, or decompression failure. Per original
// §7 taxonomy item 2, transport errors are fatal for the current payload and
// propagate to the caller rather than degrading gracefully.
var ErrTransport = ir.ErrTransport

// Transport reverses base64 + XOR(0x80) on raw, and returns the unmasked
// bytes. It does not decompress; callers use DetectVersion then Payload to
// get the final decoded instruction bytes.
func Transport(raw string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode: %v", ErrTransport, err)
	}
	unmasked := make([]byte, len(b))
	for i, c := range b {
		unmasked[i] = c ^ xorMask
	}
	return unmasked, nil
}

// DetectVersion applies original §4.2's version-sensing heuristic to an
// already base64+XOR-decoded buffer, given the OpcodeMap recovered by
// fingerprinting (used only to judge "plausible opcode-start", never to
// drive actual disassembly). When both V1 and V2 heuristics plausibly
// match, it falls back to V1Legacy and records a diagnostic (original §7
// taxonomy item 3).
func DetectVersion(data []byte, opcodes *ir.OpcodeMap, diags *ir.DiagnosticSink) ir.Version {
	if len(data) == 0 {
		return ir.V1Legacy
	}

	last := data[len(data)-1]
	v2Plausible := (last == 0 || last == 1) && plausibleOpcodeStart(data[:len(data)-1], opcodes)

	first := data[0]
	v1Plausible := first == 0 || first == 1

	switch {
	case v2Plausible && v1Plausible:
		diags.Addf("decode", "ambiguous version heuristic (both V1 and V2 plausible); falling back to V1")
		return ir.V1Legacy
	case v2Plausible:
		return ir.V2Current
	case v1Plausible:
		return ir.V1Legacy
	default:
		diags.Addf("decode", "neither version heuristic matched; falling back to V1")
		return ir.V1Legacy
	}
}

// plausibleOpcodeStart implements original §4.2's "plausible opcode-start"
// test: the first byte must be a known opcode, and at least 30% of the
// first twenty bytes must fall in the legal opcode range.
func plausibleOpcodeStart(payload []byte, opcodes *ir.OpcodeMap) bool {
	if len(payload) == 0 || opcodes == nil {
		return false
	}
	if _, ok := opcodes.Lookup(payload[0]); !ok {
		return false
	}

	n := len(payload)
	if n > 20 {
		n = 20
	}
	legal := 0
	for i := 0; i < n; i++ {
		if _, ok := opcodes.Lookup(payload[i]); ok {
			legal++
		}
	}
	return float64(legal)/float64(n) >= 0.3
}

// Payload strips the version-specific compression flag from data (already
// base64+XOR-decoded) and decompresses if the flag says to, per original
// §6's wire layout: V1 carries the flag as the first byte, V2 as the last.
func Payload(data []byte, version ir.Version) ([]byte, error) {
	switch version {
	case ir.V1Legacy:
		return payloadV1(data)
	case ir.V2Current:
		return payloadV2(data)
	default:
		return nil, fmt.Errorf("%w: unknown version %v", ErrTransport, version)
	}
}

func payloadV1(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	flag, rest := data[0], data[1:]
	switch flag {
	case 0x00:
		return rest, nil
	case 0x01:
		return inflateZlib(rest)
	default:
		return nil, fmt.Errorf("%w: unrecognized V1 compression flag %d", ErrTransport, flag)
	}
}

func payloadV2(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	rest, flag := data[:len(data)-1], data[len(data)-1]
	switch flag {
	case 0x00:
		return rest, nil
	case 0x01:
		return InflateLZ77(rest), nil
	default:
		return nil, fmt.Errorf("%w: unrecognized V2 compression flag %d", ErrTransport, flag)
	}
}

func inflateZlib(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %v", ErrTransport, err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %v", ErrTransport, err)
	}
	return out, nil
}
