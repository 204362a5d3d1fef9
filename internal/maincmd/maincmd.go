// Package maincmd implements the vela CLI (spec §6): the flag parsing and
// mode dispatch glue between cmd/vela/main.go and the lang packages.
// Grounded on the teacher's internal/maincmd package: a single Cmd struct
// carrying flag-tagged fields, Validate checking the argument shape before
// any work starts, and Main wiring mainer's flag parser and signal-
// cancelable context around a mode dispatch.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/vela/lang/runtime"
)

const binName = "vela"

var (
	shortUsage = fmt.Sprintf(`
usage: %s <file>
       %[1]s -c <file>
       %[1]s -r <file.gvm>
       %[1]s --ast <file>
       %[1]s --doc <file>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>] <file>
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and all-in-one tool for the %[1]s scripting language.

Valid flag options are:
       -c                        Compile <file> to <basename>.gvm instead
                                 of running it.
       -r                        Load <file> as a compiled .gvm bytecode
                                 file and execute it directly.
       --ast                     Compile <file> just through parsing and
                                 emit its AST as ast.dot (Graphviz).
       --doc                     Compile <file> just through parsing and
                                 emit a signature index as doc.html.
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.

With no mode flag, <file> is compiled and executed directly. Any
arguments after <file> are exposed to the running program through the
sysarg(i) host intrinsic.
`, binName)
)

// Cmd holds the CLI's parsed flags and positional arguments. Its exported
// bool fields are populated by mainer's reflective flag-tag parser.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Compile bool `flag:"c"`
	Run     bool `flag:"r"`
	AST     bool `flag:"ast"`
	Doc     bool `flag:"doc"`

	args []string
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

// Validate rejects any invocation that does not match exactly one of the
// five forms §6's CLI table enumerates.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	modes := 0
	for _, b := range []bool{c.Compile, c.Run, c.AST, c.Doc} {
		if b {
			modes++
		}
	}
	if modes > 1 {
		return errors.New("only one of -c, -r, --ast, --doc may be given")
	}
	if len(c.args) == 0 {
		return errors.New("a file argument is required")
	}
	if modes != 0 && len(c.args) != 1 {
		return errors.New("-c, -r, --ast and --doc take exactly one file argument")
	}
	return nil
}

// Main is the CLI entry point: mainer parses args into c, then dispatches
// to the mode Validate already confirmed is well-formed.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
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

	_ = mainer.CancelOnSignal(context.Background(), os.Interrupt)

	var err error
	file := c.args[0]
	runtime.ProgramArgs = c.args[1:]
	switch {
	case c.Compile:
		err = CompileFile(stdio, file)
	case c.Run:
		err = RunCompiledFile(stdio, file)
	case c.AST:
		err = ASTFile(stdio, file)
	case c.Doc:
		err = DocFile(stdio, file)
	default:
		err = RunFile(stdio, file)
	}
	if err != nil {
		return mainer.Failure
	}
	return mainer.Success
}
