package maincmd

import (
	"fmt"

	"github.com/mna/vmdecompile/lang/decode"
	"github.com/mna/vmdecompile/lang/disasm"
	"github.com/mna/vmdecompile/lang/ir"
	"github.com/mna/vmdecompile/lang/lift"
	"github.com/sirupsen/logrus"
)

// run is everything one manifest file needs carried between pipeline
// stages: the recovered opcode map and version are reused unchanged by
// every nested BUILD_FUNCTION recursion (original §5).
type run struct {
	opcodes  *ir.OpcodeMap
	swapped  ir.SwappedOpcodes
	strings  *ir.StringTable
	version  ir.Version
	returnOp uint8
	hasRet   bool
	insns    []ir.Instruction
	diags    *ir.DiagnosticSink
}

// loadRun decodes path's manifest and runs it through the Byte Decoder,
// String-Table Decoder, version detection and disassembler -- everything
// shared by the disassemble and decompile commands.
func loadRun(path string) (*run, error) {
	m, err := loadManifest(path)
	if err != nil {
		return nil, err
	}

	opcodes, swapped, err := m.opcodeMap()
	if err != nil {
		return nil, err
	}

	stringTableBytes, err := m.decodedStringTable()
	if err != nil {
		return nil, err
	}

	diags := ir.NewDiagnosticSink()

	masked, err := decode.Transport(m.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	version := decode.DetectVersion(masked, opcodes, diags)

	decoded, err := decode.Payload(masked, version)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var returnOp uint8
	hasRet := m.ReturnOp != nil
	if hasRet {
		returnOp = uint8(*m.ReturnOp)
	}

	strings := decode.StringTable(stringTableBytes)
	insns := disasm.Disassemble(decoded, opcodes, strings, version, returnOp, hasRet, swapped, diags)

	return &run{
		opcodes: opcodes, swapped: swapped, strings: strings, version: version,
		returnOp: returnOp, hasRet: hasRet, insns: insns, diags: diags,
	}, nil
}

// decompileFile runs the full pipeline and returns the reconstructed
// source text for one manifest file.
func decompileFile(path string) (string, *ir.DiagnosticSink, error) {
	r, err := loadRun(path)
	if err != nil {
		return "", nil, err
	}
	src := lift.Lift(r.insns, r.opcodes, r.strings, r.version, r.returnOp, r.hasRet, r.swapped, r.diags)
	return src, r.diags, nil
}

// logDiagnostics records every accumulated diagnostic at Warn level,
// structured per original §7's non-fatal finding taxonomy.
func logDiagnostics(log *logrus.Logger, path string, diags *ir.DiagnosticSink) {
	if diags == nil {
		return
	}
	for _, d := range diags.All() {
		log.WithFields(logrus.Fields{
			"file":      path,
			"component": d.Component,
			"addr":      d.Addr,
		}).Warn(d.Message)
	}
}
