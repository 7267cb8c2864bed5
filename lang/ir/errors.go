package ir

import "errors"

// Sentinel errors wrapped (via fmt.Errorf's %w) by the stages that can
// produce them, matching the taxonomy in original §7. Callers use
// errors.Is/errors.As to distinguish a fatal transport failure from a
// recoverable per-instruction one.
var (
	// ErrTransport covers base64 decode failure, XOR table size mismatch, and
	// decompression failure: fatal for the current payload (original §7.2).
	ErrTransport = errors.New("bytecode transport decode failed")

	// ErrBlobNotFound covers a missing bytecode blob from the extractor
	// boundary: fatal (original §7.1).
	ErrBlobNotFound = errors.New("bytecode blob not found")

	// ErrOperandUnderrun covers an operand read past end-of-stream during
	// disassembly: recorded on the Instruction and halts that body only
	// (original §7.4), never returned as a hard error by the package-level
	// Disassemble entry point itself.
	ErrOperandUnderrun = errors.New("operand read past end of stream")
)
