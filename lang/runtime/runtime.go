// Package runtime implements the host intrinsics a compiled program reaches
// through SYSCALL: the Go-side half of the `core`/`math`/`io` libraries a
// `using` statement registers signatures for (lang/compiler's stdlib.go).
// Grounded on the teacher's lang/machine.Universe: a package-level table of
// built-ins the VM consults by a fixed key, generalized here from
// name-keyed lookup to the spec's index-keyed SYSCALL convention.
package runtime

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mna/vela/lang/bytecode"
)

// Func is the signature every host intrinsic implements: it receives its
// arguments already popped off the operand stack, in declaration order, and
// returns the single Value SYSCALL pushes back (or an error, which the VM
// turns into a §7 Runtime diagnostic and halts on).
type Func func(args []bytecode.Value) (bytecode.Value, error)

// Intrinsic pairs a host function with the arity the VM must pop for it;
// SYSCALL has no other way to know how many stack slots a given index
// consumes.
type Intrinsic struct {
	Name  string
	Arity int
	Fn    Func
}

// AllIntrinsics is the single flat, fixed-order dispatch table for every
// host intrinsic: AllIntrinsics[i] implements whichever signature
// lang/compiler's stdlib.go assigned external index i+1, across core, math
// and io combined — the two tables are declared in lockstep and must stay
// that way.
var AllIntrinsics = []Intrinsic{
	{Name: "core.println", Arity: 1, Fn: print(true)},
	{Name: "core.print", Arity: 1, Fn: print(false)},
	{Name: "core.sysarg", Arity: 1, Fn: sysarg},

	{Name: "math.sin", Arity: 1, Fn: float1(math.Sin)},
	{Name: "math.cos", Arity: 1, Fn: float1(math.Cos)},
	{Name: "math.tan", Arity: 1, Fn: float1(math.Tan)},
	{Name: "math.sqrt", Arity: 1, Fn: float1(math.Sqrt)},
	{Name: "math.pow", Arity: 2, Fn: float2(math.Pow)},
	{Name: "math.abs", Arity: 1, Fn: float1(math.Abs)},
	{Name: "math.floor", Arity: 1, Fn: float1(math.Floor)},
	{Name: "math.ceil", Arity: 1, Fn: float1(math.Ceil)},

	{Name: "io.readLine", Arity: 0, Fn: readLine},
	{Name: "io.writeFile", Arity: 2, Fn: writeFile},
}

var stdout = bufio.NewWriter(os.Stdout)
var stdin = bufio.NewReader(os.Stdin)

// Flush writes any buffered core.print/println output; the CLI calls this
// once after a program's VM.Run returns, so output survives an unflushed
// HLT exactly like os.Stdout would under ordinary buffered stdio.
func Flush() error { return stdout.Flush() }

// SetOutput redirects core.print/println away from os.Stdout, buffered the
// same way. Tests use this to capture a program's stdout in memory; the
// CLI never calls it and keeps the os.Stdout default.
func SetOutput(w io.Writer) { stdout = bufio.NewWriter(w) }

// print implements core.print (newline=false) and core.println (true),
// rendering its single argument with bytecode.Display — the same text a
// TOSTR conversion or string interpolation would produce.
func print(newline bool) Func {
	return func(args []bytecode.Value) (bytecode.Value, error) {
		fmt.Fprint(stdout, bytecode.Display(args[0]))
		if newline {
			fmt.Fprintln(stdout)
		}
		return bytecode.UndefinedVal, nil
	}
}

// ProgramArgs holds the arguments vela was invoked with, set by the CLI
// before VM.Run so core.sysarg can read them without threading an argv
// slice through every SYSCALL call site.
var ProgramArgs []string

// sysarg implements core.sysarg(i): the i-th command-line argument passed
// to the running program, or "" if out of range.
func sysarg(args []bytecode.Value) (bytecode.Value, error) {
	i := int(args[0].AsInt32())
	if i < 0 || i >= len(ProgramArgs) {
		return bytecode.ObjVal(bytecode.NewString("")), nil
	}
	return bytecode.ObjVal(bytecode.NewString(ProgramArgs[i])), nil
}

func float1(f func(float64) float64) Func {
	return func(args []bytecode.Value) (bytecode.Value, error) {
		return bytecode.NumVal(f(args[0].AsNum())), nil
	}
}

func float2(f func(float64, float64) float64) Func {
	return func(args []bytecode.Value) (bytecode.Value, error) {
		return bytecode.NumVal(f(args[0].AsNum(), args[1].AsNum())), nil
	}
}

// readLine implements io.readLine: one line from stdin, newline stripped,
// or "" at EOF.
func readLine(args []bytecode.Value) (bytecode.Value, error) {
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return bytecode.ObjVal(bytecode.NewString("")), nil
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return bytecode.ObjVal(bytecode.NewString(line)), nil
}

// writeFile implements io.writeFile(path, contents): returns true on
// success, false on any I/O error (§7 reserves the Runtime diagnostic kind
// for VM-internal failures, not for a library call the program can itself
// branch on).
func writeFile(args []bytecode.Value) (bytecode.Value, error) {
	path := args[0].AsObj().Str()
	contents := args[1].AsObj().Str()
	err := os.WriteFile(path, []byte(contents), 0o644)
	return bytecode.BoolVal(err == nil), nil
}
