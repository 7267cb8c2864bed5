package maincmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mna/mainer"
)

// Decompile runs the full pipeline (original §2's a-through-j) on each
// manifest file and writes the reconstructed source to stdout, or to one
// file per input under OutDir when set.
func (c *Cmd) Decompile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var failed bool
	for _, path := range args {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		src, diags, err := decompileFile(path)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
			failed = true
			continue
		}
		logDiagnostics(c.logger(), path, diags)

		if c.OutDir == "" {
			fmt.Fprintln(stdio.Stdout, src)
			continue
		}
		outPath := filepath.Join(c.OutDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".out.js")
		if err := os.WriteFile(outPath, []byte(src), 0o644); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			failed = true
			continue
		}
	}
	if failed {
		return errTooManyFailures
	}
	return nil
}
