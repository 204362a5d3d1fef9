package maincmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mna/mainer"
	"github.com/mna/vela/lang/bytecode"
	"github.com/mna/vela/lang/bytefile"
	"github.com/mna/vela/lang/runtime"
	"github.com/mna/vela/lang/vm"
)

// RunFile compiles path and executes it immediately (`vela <file>`).
func RunFile(stdio mainer.Stdio, path string) error {
	prog, err := compileFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return execute(stdio, prog)
}

// CompileFile compiles path and writes its bytecode to <basename>.gvm
// (`vela -c <file>`).
func CompileFile(stdio mainer.Stdio, path string) error {
	prog, err := compileFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".gvm"
	if err := os.WriteFile(out, bytefile.Encode(prog), 0o644); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}

// RunCompiledFile loads a previously compiled .gvm file and executes it
// directly, skipping lexing/parsing/compiling entirely (`vela -r <file.gvm>`).
func RunCompiledFile(stdio mainer.Stdio, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	prog, err := bytefile.Decode(b)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return execute(stdio, prog)
}

func execute(stdio mainer.Stdio, prog *bytecode.Program) error {
	cfg, err := vm.LoadConfig()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	m := vm.New(prog, cfg)
	runErr := m.Run()
	if flushErr := runtime.Flush(); flushErr != nil && runErr == nil {
		runErr = flushErr
	}
	if runErr != nil {
		fmt.Fprintln(stdio.Stderr, runErr)
		return runErr
	}
	return nil
}
