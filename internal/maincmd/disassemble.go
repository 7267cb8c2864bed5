package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
)

// Disassemble stops the pipeline after the disassembler (original §2's
// step e) and prints the raw instruction stream, one line per instruction
// -- the "stop at a pipeline stage and dump it" counterpart to the
// teacher's tokenize/parse commands.
func (c *Cmd) Disassemble(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var failed bool
	for _, path := range args {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r, err := loadRun(path)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
			failed = true
			continue
		}
		logDiagnostics(c.logger(), path, r.diags)

		fmt.Fprintf(stdio.Stdout, "; %s (%s)\n", path, r.version)
		for _, insn := range r.insns {
			fmt.Fprintf(stdio.Stdout, "%04d: %s", insn.Addr, insn.OpName)
			for _, a := range insn.Args {
				fmt.Fprintf(stdio.Stdout, " %v", a.Value)
			}
			if insn.StringValue != nil {
				fmt.Fprintf(stdio.Stdout, " %q", *insn.StringValue)
			}
			if insn.Error != nil {
				fmt.Fprintf(stdio.Stdout, " ; error: %s", insn.Error)
			}
			fmt.Fprintln(stdio.Stdout)
		}
	}
	if failed {
		return errTooManyFailures
	}
	return nil
}
