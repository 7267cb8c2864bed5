// Package maincmd wires vmdecompile's subcommands to github.com/mna/mainer,
// following the teacher's reflection-based command dispatch
// (mna/nenuphar's internal/maincmd.Cmd): adding a subcommand means adding a
// method with the right signature, not touching a dispatch table.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
	"github.com/sirupsen/logrus"
)

const binName = "vmdecompile"

// errTooManyFailures is returned by a command when at least one input file
// failed; the command has already printed each failure to stderr, so Main
// only needs to know whether to exit non-zero (original §7: per-file best
// effort, the run as a whole fails only if asked to report that).
var errTooManyFailures = errors.New("one or more files failed")

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...]
       %[1]s -h|--help
       %[1]s -v|--version

Static decompiler for scripts produced by a stack-based VM obfuscator.

The <command> can be one of:
       decompile                 Run the full pipeline and print
                                 reconstructed source.
       disassemble                Stop after the disassembler and print
                                 the raw instruction stream.
       fingerprint                Print the recovered opcode map as a
                                 diagnostic table.

Each <path> is a manifest file describing one already-extracted payload
(original §2a's Payload Extractor boundary): the base64 bytecode string,
the base64 string-table bytes, and the fingerprinted opcode map.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --verbose                 Set the log level to Debug
                                 (diagnostics are logged at Warn).
       --out-dir <dir>            For decompile, write one file per input
                                 under <dir> instead of stdout.

More information on the %[1]s repository:
       https://github.com/mna/vmdecompile
`, binName)
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool   `flag:"h,help"`
	Version bool   `flag:"v,version"`
	Verbose bool   `flag:"verbose"`
	OutDir  string `flag:"out-dir"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
	log   *logrus.Logger
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]

	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", c.args[0])
	}

	if len(c.args[1:]) == 0 {
		return fmt.Errorf("%s: at least one file must be provided", cmdName)
	}

	if c.flags["out-dir"] && cmdName != "decompile" {
		return fmt.Errorf("%s: invalid flag 'out-dir'", cmdName)
	}

	return nil
}

// logger returns the shared, read-only-after-construction logrus.Logger
// every command uses to surface non-fatal diagnostics (original §7; see
// logDiagnostics), built lazily so commands that never run (e.g. --help)
// never pay for it.
func (c *Cmd) logger() *logrus.Logger {
	if c.log == nil {
		c.log = logrus.New()
		if c.Verbose {
			c.log.SetLevel(logrus.DebugLevel)
		}
	}
	return c.log
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   true,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	c.logger().SetOutput(stdio.Stderr)

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		// each command takes care of printing its own per-file errors; just
		// return with an error code
		return mainer.Failure
	}
	return mainer.Success
}

// valid commands are those that take a mainer.Stdio and a slice of strings as
// input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		// must take 4 parameters (including receiver) and return 1
		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}

		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
