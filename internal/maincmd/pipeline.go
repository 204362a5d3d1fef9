package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/vela/lang/ast"
	"github.com/mna/vela/lang/bytecode"
	"github.com/mna/vela/lang/compiler"
	"github.com/mna/vela/lang/diag"
	"github.com/mna/vela/lang/parser"
	"github.com/mna/vela/lang/token"
)

// parseFile lexes and parses path, returning its top-level Block and the
// token.File used to resolve diagnostic positions.
func parseFile(path string) (*ast.Block, *token.File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	fset := token.NewFileSet()
	file := fset.AddFile(path, len(src))

	var errs diag.List
	block := parser.Parse(path, src, &errs)
	if errs.HasErrors() {
		return nil, nil, errs.Err()
	}
	return block, file, nil
}

// compileFile runs the full parse+compile pipeline on path, returning the
// resulting bytecode.Program.
func compileFile(path string) (*bytecode.Program, error) {
	block, file, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	var errs diag.List
	prog := compiler.Compile(file, block, &errs)
	if errs.HasErrors() {
		return nil, errs.Err()
	}
	return prog, nil
}
