package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
)

// Fingerprint prints the recovered OpcodeMap from each manifest file as a
// diagnostic table: raw shuffled opcode -> canonical name, plus which raw
// opcodes the fingerprinter flagged as using swapped binary operand order
// (original §4.1).
func (c *Cmd) Fingerprint(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var failed bool
	for _, path := range args {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		m, err := loadManifest(path)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
			failed = true
			continue
		}
		opcodes, swapped, err := m.opcodeMap()
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
			failed = true
			continue
		}

		fmt.Fprintf(stdio.Stdout, "; %s (%d opcodes recovered)\n", path, opcodes.Len())
		for _, raw := range opcodes.RawOpcodes() {
			name := opcodes.Name(raw)
			if swapped.Contains(raw) {
				fmt.Fprintf(stdio.Stdout, "%3d  %-24s (swapped)\n", raw, name)
			} else {
				fmt.Fprintf(stdio.Stdout, "%3d  %-24s\n", raw, name)
			}
		}
		if raws := swapped.Raws(); len(raws) > 0 {
			fmt.Fprintf(stdio.Stdout, "swapped operand order: %v\n", raws)
		}
	}
	if failed {
		return errTooManyFailures
	}
	return nil
}
