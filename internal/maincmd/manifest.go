package maincmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mna/vmdecompile/lang/ir"
)

// manifest is the on-disk shape of one <file> argument: the output of a
// Payload Extractor run (original §2a) that has already located the
// bytecode blob, string-table bytes and fingerprinted opcode map inside an
// obfuscated wrapper script -- locating the wrapper's source requires a
// real JavaScript parser, which original §1 explicitly keeps outside the
// core and this CLI, so vmdecompile's commands consume that extractor's
// output directly rather than a raw wrapper script. encoding/json is
// stdlib: this manifest is a CLI-only boundary format invented for this
// tool, not a domain wire format any example repo's library targets, so
// there is no ecosystem parser to prefer over the standard library here.
type manifest struct {
	// Bytecode is the base64 transport string exactly as the wrapper embeds
	// it (still byte-XOR-masked and possibly compressed; lang/decode.Transport
	// undoes the base64 layer).
	Bytecode string `json:"bytecode"`

	// StringTable is the raw string-table bytes, base64-encoded for transit
	// in this manifest format (still XOR(0x80)-masked; lang/decode.StringTable
	// undoes the mask).
	StringTable string `json:"string_table"`

	// Opcodes maps each payload's raw shuffled opcode number (decimal text,
	// since JSON object keys are always strings) to the canonical opcode
	// name the fingerprinter recovered for it.
	Opcodes map[string]string `json:"opcodes"`

	// Swapped lists raw opcode numbers the fingerprinter found using the
	// swapped binary-operand order (original §4.1).
	Swapped []int `json:"swapped,omitempty"`

	// ReturnOp is the raw opcode number the fingerprinter identified as
	// RETURN, when known; nil means the disassembler falls back to
	// OpcodeMap-based RETURN detection.
	ReturnOp *int `json:"return_op,omitempty"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: invalid manifest: %w", path, err)
	}
	return &m, nil
}

// decodedStringTable returns the manifest's string-table bytes as its
// base64 payload decodes to, before lang/decode's own XOR-unmasking.
func (m *manifest) decodedStringTable() ([]byte, error) {
	if m.StringTable == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(m.StringTable)
	if err != nil {
		return nil, fmt.Errorf("string_table: invalid base64: %w", err)
	}
	return b, nil
}

// opcodeMap builds an *ir.OpcodeMap and ir.SwappedOpcodes from the
// manifest's fingerprinter output.
func (m *manifest) opcodeMap() (*ir.OpcodeMap, ir.SwappedOpcodes, error) {
	opcodes := ir.NewOpcodeMap()
	for rawText, name := range m.Opcodes {
		var raw int
		if _, err := fmt.Sscanf(rawText, "%d", &raw); err != nil || raw < 0 || raw > 255 {
			return nil, nil, fmt.Errorf("opcodes: invalid raw opcode key %q", rawText)
		}
		op, ok := ir.OpByName(name)
		if !ok {
			return nil, nil, fmt.Errorf("opcodes: unknown opcode name %q", name)
		}
		opcodes.Set(uint8(raw), op)
	}

	swapped := ir.NewSwappedOpcodes()
	for _, raw := range m.Swapped {
		if raw < 0 || raw > 255 {
			return nil, nil, fmt.Errorf("swapped: raw opcode %d out of range", raw)
		}
		swapped.Add(uint8(raw))
	}
	return opcodes, swapped, nil
}
